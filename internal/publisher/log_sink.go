package publisher

import (
	"context"

	"github.com/flexprice/billsync/internal/logger"
)

// LogSink writes events to the structured log
type LogSink struct {
	logger *logger.Logger
}

func NewLogSink(logger *logger.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(_ context.Context, event *Event) {
	s.logger.Debugw("sync event",
		"event_id", event.ID,
		"entity", event.Entity,
		"action", event.Action,
		"customer_id", event.CustomerID,
		"entity_id", event.EntityID,
		"payload", event.Payload)
}
