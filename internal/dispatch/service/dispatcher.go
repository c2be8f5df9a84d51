package service

import (
	"context"

	"github.com/apollosoftdev/mm-processor/internal/common/mq"
	"github.com/apollosoftdev/mm-processor/internal/dispatch/launcher"
	"github.com/apollosoftdev/mm-processor/internal/dispatch/repository"
	"github.com/apollosoftdev/mm-processor/internal/model"
	appErr "github.com/apollosoftdev/mm-processor/pkg/errors"
	"github.com/apollosoftdev/mm-processor/pkg/utils/logger"

	"go.uber.org/zap"
)

// Dispatcher launches one scorer task per routed submission for exactly
// one challenge. Instances for different challenges share nothing.
//
// A config-load failure fails the whole batch. A launch failure aborts
// the batch too, including submissions whose launches already succeeded:
// the transport redelivers everything, which may duplicate task launches.
// That all-or-nothing retry is a deliberate trade-off, kept in exchange
// for not tracking per-message acknowledgment state.
type Dispatcher struct {
	challengeID string
	configs     *repository.ConfigRepository
	launcher    launcher.Launcher
}

// NewDispatcher creates a dispatcher for one challenge.
func NewDispatcher(challengeID string, configs *repository.ConfigRepository, l launcher.Launcher) (*Dispatcher, error) {
	if challengeID == "" {
		return nil, appErr.ValidationError("challengeId", "required")
	}
	if configs == nil {
		return nil, appErr.New(appErr.ServiceUnavailable).WithMessage("config repository is required")
	}
	if l == nil {
		return nil, appErr.New(appErr.ServiceUnavailable).WithMessage("launcher is required")
	}
	return &Dispatcher{challengeID: challengeID, configs: configs, launcher: l}, nil
}

// Dispatch launches one scorer task per submission in the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, subs []model.Submission) error {
	cfg, err := d.configs.Get(ctx, d.challengeID)
	if err != nil {
		return err
	}

	for _, sub := range subs {
		task := model.DispatchedTask{
			SubmissionID:  sub.ID,
			ChallengeID:   d.challengeID,
			SubmissionURL: sub.URL,
			MemberID:      sub.MemberID,
		}
		handle, err := d.launcher.Launch(ctx, *cfg, task.Env())
		if err != nil {
			return appErr.Wrapf(err, appErr.GetCode(err), "launch task for submission %s failed: %v", sub.ID, err)
		}
		task.TaskHandle = handle
		logger.Info(ctx, "scorer task launched",
			zap.String("task_handle", task.TaskHandle),
			zap.String("submission_id", task.SubmissionID),
			zap.String("challenge_id", task.ChallengeID))
	}
	return nil
}

// HandleMessage adapts one routed message delivered by the mq consumer
// into a single-submission batch. The message has already passed the
// challengeId fan-out filter.
func (d *Dispatcher) HandleMessage(ctx context.Context, message *mq.Message) error {
	if message == nil {
		return nil
	}
	sub, err := model.ParseSubmission(message.Body)
	if err != nil {
		return appErr.Wrap(err, appErr.RecordDecodeFailed)
	}
	return d.Dispatch(ctx, []model.Submission{sub})
}

// ChallengeID returns the destination this dispatcher serves.
func (d *Dispatcher) ChallengeID() string {
	return d.challengeID
}
