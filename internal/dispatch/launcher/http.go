package launcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/apollosoftdev/mm-processor/internal/model"
	appErr "github.com/apollosoftdev/mm-processor/pkg/errors"
)

const defaultLaunchTimeout = 30 * time.Second

// HTTPConfig holds execution-agent client settings.
type HTTPConfig struct {
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout"`
}

// HTTPLauncher launches scorer tasks through the execution agent's HTTP API.
type HTTPLauncher struct {
	baseURL string
	client  *http.Client
}

type launchRequest struct {
	TaskTemplate string            `json:"taskTemplate"`
	Env          map[string]string `json:"env"`
	Parameters   map[string]string `json:"parameters,omitempty"`
}

type launchResponse struct {
	TaskHandle string `json:"taskHandle"`
}

// NewHTTPLauncher creates an execution-agent client.
func NewHTTPLauncher(cfg HTTPConfig) (*HTTPLauncher, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("execution agent base URL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultLaunchTimeout
	}
	return &HTTPLauncher{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Launch posts one task-launch request and returns the acknowledged handle.
func (l *HTTPLauncher) Launch(ctx context.Context, cfg model.DestinationConfig, env map[string]string) (string, error) {
	if cfg.ExecutionCluster == "" || cfg.TaskTemplate == "" {
		return "", appErr.New(appErr.InvalidParams).WithMessage("destination config is missing execution target")
	}

	body, err := json.Marshal(launchRequest{
		TaskTemplate: cfg.TaskTemplate,
		Env:          env,
		Parameters:   cfg.Parameters,
	})
	if err != nil {
		return "", appErr.Wrap(err, appErr.LaunchFailed)
	}

	url := fmt.Sprintf("%s/clusters/%s/tasks", l.baseURL, cfg.ExecutionCluster)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", appErr.Wrap(err, appErr.LaunchFailed)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", appErr.Wrapf(err, appErr.LaunchFailed, "launch request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", appErr.Wrap(err, appErr.LaunchFailed)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", appErr.Newf(appErr.LaunchRejected, "execution agent returned %d", resp.StatusCode).
			WithDetail("status_code", resp.StatusCode)
	}

	var launched launchResponse
	if err := json.Unmarshal(respBody, &launched); err != nil {
		return "", appErr.Wrap(err, appErr.LaunchFailed)
	}
	if launched.TaskHandle == "" {
		return "", appErr.New(appErr.LaunchFailed).WithMessage("launch response carries no task handle")
	}
	return launched.TaskHandle, nil
}
