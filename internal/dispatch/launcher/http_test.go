package launcher_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/apollosoftdev/mm-processor/internal/dispatch/launcher"
	"github.com/apollosoftdev/mm-processor/internal/model"
	appErr "github.com/apollosoftdev/mm-processor/pkg/errors"
)

func testConfig() model.DestinationConfig {
	return model.DestinationConfig{
		ChallengeID:      "ch1",
		ExecutionCluster: "cluster-a",
		TaskTemplate:     "scorer-template:3",
		Parameters:       map[string]string{"capacity": "SPOT"},
	}
}

func TestHTTPLauncherPostsTaskRequest(t *testing.T) {
	t.Parallel()
	var (
		gotPath string
		gotBody []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(map[string]string{"taskHandle": "task-123"})
	}))
	defer srv.Close()

	l, err := launcher.NewHTTPLauncher(launcher.HTTPConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("init launcher failed: %v", err)
	}

	env := map[string]string{"SUBMISSION_ID": "s1", "CHALLENGE_ID": "ch1"}
	handle, err := l.Launch(context.Background(), testConfig(), env)
	if err != nil {
		t.Fatalf("launch failed: %v", err)
	}
	if handle != "task-123" {
		t.Fatalf("expected task handle task-123, got %s", handle)
	}
	if gotPath != "/clusters/cluster-a/tasks" {
		t.Fatalf("unexpected request path: %s", gotPath)
	}

	var req struct {
		TaskTemplate string            `json:"taskTemplate"`
		Env          map[string]string `json:"env"`
		Parameters   map[string]string `json:"parameters"`
	}
	if err := json.Unmarshal(gotBody, &req); err != nil {
		t.Fatalf("decode request body failed: %v", err)
	}
	if req.TaskTemplate != "scorer-template:3" {
		t.Fatalf("unexpected task template: %s", req.TaskTemplate)
	}
	if req.Env["SUBMISSION_ID"] != "s1" || req.Env["CHALLENGE_ID"] != "ch1" {
		t.Fatalf("unexpected env in request: %v", req.Env)
	}
	if req.Parameters["capacity"] != "SPOT" {
		t.Fatalf("expected destination parameters forwarded, got %v", req.Parameters)
	}
}

func TestHTTPLauncherRejectedLaunch(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no capacity", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	l, err := launcher.NewHTTPLauncher(launcher.HTTPConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("init launcher failed: %v", err)
	}
	_, err = l.Launch(context.Background(), testConfig(), nil)
	if err == nil || !appErr.Is(err, appErr.LaunchRejected) {
		t.Fatalf("expected LaunchRejected, got %v", err)
	}
}

func TestHTTPLauncherEmptyTaskHandle(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	l, err := launcher.NewHTTPLauncher(launcher.HTTPConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("init launcher failed: %v", err)
	}
	_, err = l.Launch(context.Background(), testConfig(), nil)
	if err == nil || !appErr.Is(err, appErr.LaunchFailed) {
		t.Fatalf("expected LaunchFailed, got %v", err)
	}
}

func TestHTTPLauncherRequiresExecutionTarget(t *testing.T) {
	t.Parallel()
	l, err := launcher.NewHTTPLauncher(launcher.HTTPConfig{BaseURL: "http://agent.invalid"})
	if err != nil {
		t.Fatalf("init launcher failed: %v", err)
	}
	_, err = l.Launch(context.Background(), model.DestinationConfig{ChallengeID: "ch1"}, nil)
	if err == nil || !appErr.Is(err, appErr.InvalidParams) {
		t.Fatalf("expected InvalidParams, got %v", err)
	}
}

func TestNewHTTPLauncherRequiresBaseURL(t *testing.T) {
	t.Parallel()
	if _, err := launcher.NewHTTPLauncher(launcher.HTTPConfig{}); err == nil {
		t.Fatalf("expected missing base URL to fail")
	}
}
