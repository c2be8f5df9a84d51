package fanout_test

import (
	"context"
	"testing"

	"github.com/apollosoftdev/mm-processor/internal/common/mq"
	"github.com/apollosoftdev/mm-processor/internal/fanout"
	"github.com/apollosoftdev/mm-processor/internal/model"
	appErr "github.com/apollosoftdev/mm-processor/pkg/errors"
)

type fakeProducer struct {
	topic    string
	messages []*mq.Message
	err      error
}

func (f *fakeProducer) Publish(ctx context.Context, topic string, message *mq.Message) error {
	if f.err != nil {
		return f.err
	}
	f.topic = topic
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeProducer) PublishBatch(ctx context.Context, topic string, messages []*mq.Message) error {
	for _, m := range messages {
		if err := f.Publish(ctx, topic, m); err != nil {
			return err
		}
	}
	return nil
}

func TestMQPublisherAttachesRoutingAttribute(t *testing.T) {
	t.Parallel()
	producer := &fakeProducer{}
	pub := fanout.NewMQPublisher(producer, "submissions.routed")

	sub := model.Submission{
		ID:          "s1",
		ChallengeID: "ch1",
		Raw:         []byte(`{"id":"s1","challengeId":"ch1","url":"u1","memberId":"m1"}`),
	}
	if err := pub.PublishSubmission(context.Background(), sub); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if producer.topic != "submissions.routed" {
		t.Fatalf("unexpected topic: %s", producer.topic)
	}
	msg := producer.messages[0]
	if attr, _ := msg.GetHeader(fanout.ChallengeIDAttribute); attr != "ch1" {
		t.Fatalf("expected challengeId attribute ch1, got %q", attr)
	}
	if msg.ID != "s1" {
		t.Fatalf("expected message id s1, got %s", msg.ID)
	}
	if string(msg.Body) != string(sub.Raw) {
		t.Fatalf("expected payload to pass through unmodified")
	}
}

func TestMQPublisherRequiresChallengeID(t *testing.T) {
	t.Parallel()
	pub := fanout.NewMQPublisher(&fakeProducer{}, "submissions.routed")
	err := pub.PublishSubmission(context.Background(), model.Submission{ID: "s1"})
	if err == nil || !appErr.Is(err, appErr.RequiredFieldMissing) {
		t.Fatalf("expected RequiredFieldMissing, got %v", err)
	}
}

func TestFilterHandlerDeliversMatchingMessages(t *testing.T) {
	t.Parallel()
	var delivered []*mq.Message
	handler := fanout.FilterHandler("ch1", func(ctx context.Context, message *mq.Message) error {
		delivered = append(delivered, message)
		return nil
	})

	matching := mq.NewMessage([]byte("a"))
	matching.SetHeader(fanout.ChallengeIDAttribute, "ch1")
	other := mq.NewMessage([]byte("b"))
	other.SetHeader(fanout.ChallengeIDAttribute, "ch2")
	missing := mq.NewMessage([]byte("c"))

	for _, msg := range []*mq.Message{matching, other, missing} {
		if err := handler(context.Background(), msg); err != nil {
			t.Fatalf("handler failed: %v", err)
		}
	}
	if len(delivered) != 1 {
		t.Fatalf("expected exactly one delivery, got %d", len(delivered))
	}
	if string(delivered[0].Body) != "a" {
		t.Fatalf("unexpected delivered message: %s", delivered[0].Body)
	}
}

func TestFilterHandlerPropagatesHandlerError(t *testing.T) {
	t.Parallel()
	want := appErr.New(appErr.LaunchFailed)
	handler := fanout.FilterHandler("ch1", func(ctx context.Context, message *mq.Message) error {
		return want
	})
	msg := mq.NewMessage([]byte("a"))
	msg.SetHeader(fanout.ChallengeIDAttribute, "ch1")
	if err := handler(context.Background(), msg); !appErr.Is(err, appErr.LaunchFailed) {
		t.Fatalf("expected handler error to propagate, got %v", err)
	}
}
