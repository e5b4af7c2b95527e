package testutil

import (
	"context"
	"sync"

	"github.com/flexprice/billsync/internal/publisher"
	"github.com/flexprice/billsync/internal/types"
	"github.com/samber/lo"
)

// RecordingSink keeps every notification for assertions
type RecordingSink struct {
	mu     sync.RWMutex
	events []*publisher.Event
}

var _ publisher.Sink = (*RecordingSink)(nil)

func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

func (r *RecordingSink) Notify(_ context.Context, event *publisher.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns the recorded events, optionally only those about entity
func (r *RecordingSink) Events(entity ...types.EventEntity) []*publisher.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(entity) == 0 {
		return append([]*publisher.Event(nil), r.events...)
	}
	return lo.Filter(r.events, func(e *publisher.Event, _ int) bool {
		return lo.Contains(entity, e.Entity)
	})
}

// Has reports whether an event with entity and action was recorded
func (r *RecordingSink) Has(entity types.EventEntity, action types.EventAction) bool {
	return lo.ContainsBy(r.Events(entity), func(e *publisher.Event) bool {
		return e.Action == action
	})
}

func (r *RecordingSink) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
