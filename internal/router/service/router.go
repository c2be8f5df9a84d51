package service

import (
	"context"
	"encoding/base64"

	"github.com/apollosoftdev/mm-processor/internal/common/mq"
	"github.com/apollosoftdev/mm-processor/internal/fanout"
	"github.com/apollosoftdev/mm-processor/internal/model"
	appErr "github.com/apollosoftdev/mm-processor/pkg/errors"
	"github.com/apollosoftdev/mm-processor/pkg/utils/logger"

	"go.uber.org/zap"
)

// Router consumes raw stream records, validates each, and republishes
// valid submissions to the fan-out topic keyed by challengeId.
//
// Processing is batch-granular: a decode or publish failure aborts the
// batch and propagates so the stream transport redelivers all of it.
// Downstream consumers must tolerate the resulting duplicates. Invalid
// submissions are terminal no-ops: logged and skipped, never retried.
type Router struct {
	publisher     fanout.Publisher
	base64Payload bool
}

// NewRouter creates a Router. base64Payload indicates the stream frames
// record payloads in base64, which the router decodes before parsing.
func NewRouter(publisher fanout.Publisher, base64Payload bool) *Router {
	return &Router{publisher: publisher, base64Payload: base64Payload}
}

// Route processes one batch of raw stream records.
func (r *Router) Route(ctx context.Context, records [][]byte) error {
	if r.publisher == nil {
		return appErr.New(appErr.ServiceUnavailable).WithMessage("router publisher is not configured")
	}
	for i, record := range records {
		payload := record
		if r.base64Payload {
			decoded, err := base64.StdEncoding.DecodeString(string(record))
			if err != nil {
				return appErr.Wrapf(err, appErr.RecordDecodeFailed, "record %d: base64 decode failed", i)
			}
			payload = decoded
		}

		fields, err := model.DecodeFields(payload)
		if err != nil {
			return appErr.Wrapf(err, appErr.RecordDecodeFailed, "record %d: %v", i, err)
		}

		if !ValidateSubmission(fields) {
			logger.Warn(ctx, "invalid submission skipped", zap.Int("record", i))
			continue
		}

		sub := model.SubmissionFromFields(fields, payload)
		if err := r.publisher.PublishSubmission(ctx, sub); err != nil {
			return err
		}
		logger.Info(ctx, "submission routed",
			zap.String("submission_id", sub.ID),
			zap.String("challenge_id", sub.ChallengeID))
	}
	return nil
}

// HandleMessage adapts one stream record delivered by the mq consumer
// into a single-record batch.
func (r *Router) HandleMessage(ctx context.Context, message *mq.Message) error {
	if message == nil {
		return nil
	}
	return r.Route(ctx, [][]byte{message.Body})
}
