package cache

import (
	"context"

	"github.com/flexprice/billsync/internal/domain/plan"
)

// PlanRepository caches plan lookups of the wrapped repository. Writes go
// through and invalidate every cached plan entry.
type PlanRepository struct {
	next  plan.Repository
	cache Cache
}

var _ plan.Repository = (*PlanRepository)(nil)

func NewPlanRepository(next plan.Repository, cache Cache) *PlanRepository {
	return &PlanRepository{next: next, cache: cache}
}

func (r *PlanRepository) Create(ctx context.Context, p *plan.Plan) error {
	if err := r.next.Create(ctx, p); err != nil {
		return err
	}
	r.Invalidate(ctx)
	return nil
}

func (r *PlanRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	return getOrLoad(ctx, r.cache, "plan", "get", GenerateKey(PrefixPlan, id), func() (*plan.Plan, error) {
		return r.next.Get(ctx, id)
	})
}

func (r *PlanRepository) GetByProcessorID(ctx context.Context, processorID string) (*plan.Plan, error) {
	return getOrLoad(ctx, r.cache, "plan", "get_by_processor_id", GenerateKey(PrefixPlanByProc, processorID), func() (*plan.Plan, error) {
		return r.next.GetByProcessorID(ctx, processorID)
	})
}

func (r *PlanRepository) List(ctx context.Context) ([]*plan.Plan, error) {
	return getOrLoad(ctx, r.cache, "plan", "list", GenerateKey(PrefixPlanList, "all"), func() ([]*plan.Plan, error) {
		return r.next.List(ctx)
	})
}

func (r *PlanRepository) Update(ctx context.Context, p *plan.Plan) error {
	if err := r.next.Update(ctx, p); err != nil {
		return err
	}
	r.Invalidate(ctx)
	return nil
}

// Invalidate drops every cached plan entry
func (r *PlanRepository) Invalidate(ctx context.Context) {
	r.cache.DeleteByPrefix(ctx, PrefixPlan)
	r.cache.DeleteByPrefix(ctx, PrefixPlanByProc)
	r.cache.DeleteByPrefix(ctx, PrefixPlanList)
}
