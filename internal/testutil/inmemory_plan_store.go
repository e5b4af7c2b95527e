package testutil

import (
	"context"

	"github.com/flexprice/billsync/internal/domain/plan"
	ierr "github.com/flexprice/billsync/internal/errors"
)

// InMemoryPlanStore implements plan.Repository
type InMemoryPlanStore struct {
	*InMemoryStore[*plan.Plan]
}

var _ plan.Repository = (*InMemoryPlanStore)(nil)

func NewInMemoryPlanStore() *InMemoryPlanStore {
	return &InMemoryPlanStore{
		InMemoryStore: NewInMemoryStore(copyPlan),
	}
}

func copyPlan(p *plan.Plan) *plan.Plan {
	if p == nil {
		return nil
	}
	copied := *p
	return &copied
}

func (s *InMemoryPlanStore) Create(ctx context.Context, p *plan.Plan) error {
	return s.InMemoryStore.Create(ctx, p.ID, p)
}

func (s *InMemoryPlanStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemoryPlanStore) GetByProcessorID(ctx context.Context, processorID string) (*plan.Plan, error) {
	plans := s.InMemoryStore.List(ctx, func(p *plan.Plan) bool {
		return p.ProcessorID == processorID
	}, nil)
	if len(plans) == 0 {
		return nil, ierr.NewError("plan not found").
			WithHintf("No plan with processor id %s", processorID).
			Mark(ierr.ErrNotFound)
	}
	return plans[0], nil
}

func (s *InMemoryPlanStore) List(ctx context.Context) ([]*plan.Plan, error) {
	return s.InMemoryStore.List(ctx, nil, func(a, b *plan.Plan) bool {
		return a.Level < b.Level
	}), nil
}

func (s *InMemoryPlanStore) Update(ctx context.Context, p *plan.Plan) error {
	return s.InMemoryStore.Update(ctx, p.ID, p)
}
