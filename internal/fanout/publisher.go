package fanout

import (
	"context"

	"github.com/apollosoftdev/mm-processor/internal/common/mq"
	"github.com/apollosoftdev/mm-processor/internal/model"
	appErr "github.com/apollosoftdev/mm-processor/pkg/errors"
)

// ChallengeIDAttribute is the routing attribute attached to every fanned-out
// message. Downstream subscriptions filter on it with an exact match.
const ChallengeIDAttribute = "challengeId"

// Publisher distributes validated submissions to the fan-out topic.
type Publisher interface {
	PublishSubmission(ctx context.Context, sub model.Submission) error
}

// MQPublisher publishes submissions through a message queue producer.
type MQPublisher struct {
	producer mq.Producer
	topic    string
}

// NewMQPublisher creates a new MQ fan-out publisher.
func NewMQPublisher(producer mq.Producer, topic string) *MQPublisher {
	return &MQPublisher{producer: producer, topic: topic}
}

// PublishSubmission publishes the submission payload, unmodified, tagged
// with its challengeId routing attribute. The submission id doubles as
// the message id so redelivered submissions republish under the same key.
func (p *MQPublisher) PublishSubmission(ctx context.Context, sub model.Submission) error {
	if p == nil || p.producer == nil {
		return appErr.New(appErr.ServiceUnavailable).WithMessage("fan-out publisher is not configured")
	}
	if p.topic == "" {
		return appErr.New(appErr.InvalidParams).WithMessage("fan-out topic is required")
	}
	if sub.ChallengeID == "" {
		return appErr.ValidationError("challengeId", "required")
	}

	message := mq.NewMessage(sub.Raw)
	message.ID = sub.ID
	message.SetHeader(ChallengeIDAttribute, sub.ChallengeID)
	if err := p.producer.Publish(ctx, p.topic, message); err != nil {
		return appErr.Wrapf(err, appErr.PublishFailed, "publish submission %s failed", sub.ID)
	}
	return nil
}
