package publisher

import (
	"context"
	"time"

	"github.com/flexprice/billsync/internal/config"
	"github.com/flexprice/billsync/internal/logger"
	"github.com/flexprice/billsync/internal/pubsub"
	"github.com/flexprice/billsync/internal/types"
)

// Event is a notification about a sync state transition.
type Event struct {
	ID         string            `json:"id"`
	Entity     types.EventEntity `json:"entity"`
	Action     types.EventAction `json:"action"`
	CustomerID string            `json:"customer_id,omitempty"`
	EntityID   string            `json:"entity_id"`
	Payload    map[string]any    `json:"payload,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewEvent creates an event stamped with the current time
func NewEvent(entity types.EventEntity, action types.EventAction, customerID, entityID string, payload map[string]any) *Event {
	return &Event{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT),
		Entity:     entity,
		Action:     action,
		CustomerID: customerID,
		EntityID:   entityID,
		Payload:    payload,
		Timestamp:  time.Now().UTC(),
	}
}

// Sink receives notifications. Notify must not block on slow consumers and
// never reports failures back to the caller.
type Sink interface {
	Notify(ctx context.Context, event *Event)
}

// NewSink builds the configured sink: events are always logged and also
// published to the notifications topic when enabled.
func NewSink(cfg *config.Configuration, logger *logger.Logger, ps pubsub.PubSub) Sink {
	sinks := []Sink{NewLogSink(logger)}
	if cfg.Notifications.PubSubEnabled && ps != nil {
		sinks = append(sinks, NewPubSubSink(ps, cfg.Notifications.Topic, logger))
	}
	return NewMultiSink(sinks...)
}

// MultiSink fans an event out to several sinks
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) Notify(ctx context.Context, event *Event) {
	for _, s := range m.sinks {
		s.Notify(ctx, event)
	}
}

// NopSink drops every event
type NopSink struct{}

func (NopSink) Notify(context.Context, *Event) {}
