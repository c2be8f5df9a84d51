package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/apollosoftdev/mm-processor/internal/common/mq"
	"github.com/apollosoftdev/mm-processor/internal/completion/service"
	"github.com/apollosoftdev/mm-processor/internal/model"
	appErr "github.com/apollosoftdev/mm-processor/pkg/errors"
)

type fakeUpdater struct {
	updates []model.CompletionResult
	err     error
}

func (f *fakeUpdater) UpdateStatus(ctx context.Context, result model.CompletionResult) error {
	if f.err != nil {
		return f.err
	}
	f.updates = append(f.updates, result)
	return nil
}

func stoppedEvent(submissionID string, exitCode *int) model.TaskStoppedEvent {
	event := model.TaskStoppedEvent{
		TaskHandle:    "task-123",
		StoppedReason: "Essential container in task exited",
	}
	if submissionID != "" {
		event.Overrides = []model.ContainerOverride{{
			Name: service.DefaultScorerContainer,
			Environment: []model.EnvEntry{
				{Name: model.EnvSubmissionID, Value: submissionID},
				{Name: model.EnvChallengeID, Value: "ch1"},
			},
		}}
	}
	if exitCode != nil {
		event.Containers = []model.ContainerResult{{
			Name:     service.DefaultScorerContainer,
			ExitCode: exitCode,
		}}
	}
	return event
}

func intPtr(v int) *int { return &v }

func TestCorrelatorZeroExitMeansScored(t *testing.T) {
	t.Parallel()
	api := &fakeUpdater{}
	correlator := service.NewCorrelator(api, "")

	outcome, err := correlator.HandleEvent(context.Background(), stoppedEvent("s1", intPtr(0)))
	if err != nil {
		t.Fatalf("handle event failed: %v", err)
	}
	if outcome.Code != http.StatusOK {
		t.Fatalf("expected 200 outcome, got %d", outcome.Code)
	}
	if len(api.updates) != 1 {
		t.Fatalf("expected 1 status update, got %d", len(api.updates))
	}
	got := api.updates[0]
	if got.SubmissionID != "s1" || got.Status != model.StatusScored {
		t.Fatalf("unexpected update: %+v", got)
	}
	if got.TaskHandle != "task-123" || got.Reason != "Essential container in task exited" {
		t.Fatalf("expected task metadata forwarded, got %+v", got)
	}
}

func TestCorrelatorNonzeroExitMeansFailed(t *testing.T) {
	t.Parallel()
	api := &fakeUpdater{}
	correlator := service.NewCorrelator(api, "")

	if _, err := correlator.HandleEvent(context.Background(), stoppedEvent("s1", intPtr(137))); err != nil {
		t.Fatalf("handle event failed: %v", err)
	}
	if api.updates[0].Status != model.StatusFailed {
		t.Fatalf("expected FAILED, got %s", api.updates[0].Status)
	}
}

func TestCorrelatorMissingScorerResultMeansFailed(t *testing.T) {
	t.Parallel()
	api := &fakeUpdater{}
	correlator := service.NewCorrelator(api, "")

	// Identity present, but no container result entry for the scorer.
	if _, err := correlator.HandleEvent(context.Background(), stoppedEvent("s1", nil)); err != nil {
		t.Fatalf("handle event failed: %v", err)
	}
	if api.updates[0].Status != model.StatusFailed {
		t.Fatalf("expected FAILED, got %s", api.updates[0].Status)
	}
}

func TestCorrelatorMissingExitCodeMeansFailed(t *testing.T) {
	t.Parallel()
	api := &fakeUpdater{}
	correlator := service.NewCorrelator(api, "")

	event := stoppedEvent("s1", nil)
	event.Containers = []model.ContainerResult{{Name: service.DefaultScorerContainer}}
	if _, err := correlator.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event failed: %v", err)
	}
	if api.updates[0].Status != model.StatusFailed {
		t.Fatalf("expected FAILED, got %s", api.updates[0].Status)
	}
}

func TestCorrelatorUncorrelatableEventIsTerminal(t *testing.T) {
	t.Parallel()
	api := &fakeUpdater{}
	correlator := service.NewCorrelator(api, "")

	outcome, err := correlator.HandleEvent(context.Background(), stoppedEvent("", intPtr(0)))
	if err != nil {
		t.Fatalf("expected no error for uncorrelatable event, got %v", err)
	}
	if outcome.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 outcome, got %d", outcome.Code)
	}
	if len(api.updates) != 0 {
		t.Fatalf("expected no API calls, got %d", len(api.updates))
	}
}

func TestCorrelatorAPIFailurePropagates(t *testing.T) {
	t.Parallel()
	api := &fakeUpdater{err: appErr.New(appErr.StatusUpdateFailed)}
	correlator := service.NewCorrelator(api, "")

	_, err := correlator.HandleEvent(context.Background(), stoppedEvent("s1", intPtr(0)))
	if err == nil || !appErr.Is(err, appErr.StatusUpdateFailed) {
		t.Fatalf("expected StatusUpdateFailed, got %v", err)
	}
}

func TestCorrelatorCustomContainerName(t *testing.T) {
	t.Parallel()
	api := &fakeUpdater{}
	correlator := service.NewCorrelator(api, "grader")

	event := model.TaskStoppedEvent{
		TaskHandle: "task-9",
		Overrides: []model.ContainerOverride{{
			Name:        "grader",
			Environment: []model.EnvEntry{{Name: model.EnvSubmissionID, Value: "s9"}},
		}},
		Containers: []model.ContainerResult{{Name: "grader", ExitCode: intPtr(0)}},
	}
	if _, err := correlator.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event failed: %v", err)
	}
	if len(api.updates) != 1 || api.updates[0].SubmissionID != "s9" {
		t.Fatalf("unexpected updates: %+v", api.updates)
	}
	if api.updates[0].Status != model.StatusScored {
		t.Fatalf("expected SCORED, got %s", api.updates[0].Status)
	}
}

func TestCorrelatorHandleMessageDecodesEvent(t *testing.T) {
	t.Parallel()
	api := &fakeUpdater{}
	correlator := service.NewCorrelator(api, "")

	payload, _ := json.Marshal(stoppedEvent("s1", intPtr(0)))
	if err := correlator.HandleMessage(context.Background(), mq.NewMessage(payload)); err != nil {
		t.Fatalf("handle message failed: %v", err)
	}
	if len(api.updates) != 1 {
		t.Fatalf("expected 1 status update, got %d", len(api.updates))
	}
}

func TestCorrelatorHandleMessageRejectsMalformedEvent(t *testing.T) {
	t.Parallel()
	correlator := service.NewCorrelator(&fakeUpdater{}, "")

	err := correlator.HandleMessage(context.Background(), mq.NewMessage([]byte("{broken")))
	if err == nil || !appErr.Is(err, appErr.EventDecodeFailed) {
		t.Fatalf("expected EventDecodeFailed, got %v", err)
	}
}
