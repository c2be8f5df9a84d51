package service

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/apollosoftdev/mm-processor/internal/common/mq"
	"github.com/apollosoftdev/mm-processor/internal/completion/client"
	"github.com/apollosoftdev/mm-processor/internal/model"
	appErr "github.com/apollosoftdev/mm-processor/pkg/errors"
	"github.com/apollosoftdev/mm-processor/pkg/utils/logger"

	"go.uber.org/zap"
)

// DefaultScorerContainer is the container name the pipeline injects the
// submission identity into and reads the exit code from.
const DefaultScorerContainer = "scorer"

// Outcome is the HTTP-equivalent result of handling one lifecycle event.
// Code 200 covers both "status updated" and nothing-to-do paths; 400
// marks an event that carries no correlatable submission identity.
type Outcome struct {
	Code   int
	Result model.CompletionResult
}

// Correlator consumes task-lifecycle events and correlates each stopped
// scorer task back to its submission using only the environment the
// dispatcher injected at launch time. No side database is consulted.
type Correlator struct {
	api       client.StatusUpdater
	container string
}

// NewCorrelator creates a correlator reporting through the given API
// client. container names the scoring container; empty selects the default.
func NewCorrelator(api client.StatusUpdater, container string) *Correlator {
	if container == "" {
		container = DefaultScorerContainer
	}
	return &Correlator{api: api, container: container}
}

// HandleEvent processes one task-stopped event. An event with no
// extractable submission id is terminal: logged, reported as a client
// error, and never sent to the API. A correlatable event always yields a
// terminal status: exit code zero means SCORED, anything else (including
// a missing scorer result entry) means FAILED.
func (c *Correlator) HandleEvent(ctx context.Context, event model.TaskStoppedEvent) (Outcome, error) {
	submissionID, ok := event.OverrideEnv(c.container, model.EnvSubmissionID)
	if !ok || submissionID == "" {
		logger.Warn(ctx, "completion event carries no submission id",
			zap.String("task_handle", event.TaskHandle))
		return Outcome{Code: http.StatusBadRequest}, nil
	}

	status := model.StatusFailed
	if result, ok := event.Container(c.container); ok && result.ExitCode != nil && *result.ExitCode == 0 {
		status = model.StatusScored
	}

	result := model.CompletionResult{
		SubmissionID: submissionID,
		Status:       status,
		TaskHandle:   event.TaskHandle,
		Reason:       event.StoppedReason,
	}
	if err := c.api.UpdateStatus(ctx, result); err != nil {
		return Outcome{}, err
	}

	logger.Info(ctx, "submission status updated",
		zap.String("submission_id", result.SubmissionID),
		zap.String("status", string(result.Status)),
		zap.String("task_handle", result.TaskHandle))
	return Outcome{Code: http.StatusOK, Result: result}, nil
}

// HandleMessage adapts one lifecycle event delivered by the mq consumer.
// A decode failure propagates so the transport's retry and dead-letter
// policy deals with the malformed event.
func (c *Correlator) HandleMessage(ctx context.Context, message *mq.Message) error {
	if message == nil {
		return nil
	}
	var event model.TaskStoppedEvent
	if err := json.Unmarshal(message.Body, &event); err != nil {
		return appErr.Wrapf(err, appErr.EventDecodeFailed, "decode lifecycle event failed: %v", err)
	}
	_, err := c.HandleEvent(ctx, event)
	return err
}
