package publisher

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/billsync/internal/logger"
	"github.com/flexprice/billsync/internal/pubsub"
	jsoniter "github.com/json-iterator/go"
)

// PubSubSink publishes events as JSON messages on a watermill topic.
// Publish failures are logged and dropped.
type PubSubSink struct {
	pubsub pubsub.Publisher
	topic  string
	logger *logger.Logger
}

func NewPubSubSink(ps pubsub.Publisher, topic string, logger *logger.Logger) *PubSubSink {
	return &PubSubSink{
		pubsub: ps,
		topic:  topic,
		logger: logger,
	}
}

func (s *PubSubSink) Notify(ctx context.Context, event *Event) {
	payload, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(event)
	if err != nil {
		s.logger.Errorw("failed to marshal sync event",
			"event_id", event.ID,
			"error", err)
		return
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("entity", string(event.Entity))
	msg.Metadata.Set("action", string(event.Action))
	msg.Metadata.Set("customer_id", event.CustomerID)

	if err := s.pubsub.Publish(ctx, s.topic, msg); err != nil {
		s.logger.Errorw("failed to publish sync event",
			"event_id", event.ID,
			"topic", s.topic,
			"error", err)
	}
}
