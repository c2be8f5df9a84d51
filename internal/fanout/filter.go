package fanout

import (
	"context"

	"github.com/apollosoftdev/mm-processor/internal/common/mq"
	"github.com/apollosoftdev/mm-processor/pkg/utils/logger"

	"go.uber.org/zap"
)

// FilterHandler wraps next so that only messages whose challengeId
// attribute exactly matches challengeID reach it. Non-matching messages
// are acknowledged and dropped, mirroring an exact-match subscription
// filter: they belong to some other destination's consumer.
func FilterHandler(challengeID string, next mq.HandlerFunc) mq.HandlerFunc {
	return func(ctx context.Context, message *mq.Message) error {
		if message == nil {
			return nil
		}
		attr, ok := message.GetHeader(ChallengeIDAttribute)
		if !ok || attr != challengeID {
			logger.Debug(ctx, "message filtered out",
				zap.String("message_id", message.ID),
				zap.String("challenge_id", attr),
				zap.String("filter", challengeID))
			return nil
		}
		return next(ctx, message)
	}
}
