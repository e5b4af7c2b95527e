package service

import (
	"context"

	"github.com/flexprice/billsync/internal/domain/plan"
	ierr "github.com/flexprice/billsync/internal/errors"
	"github.com/flexprice/billsync/internal/types"
)

type PlanService interface {
	// SyncPlans upserts every processor catalog plan by processor id
	SyncPlans(ctx context.Context) (*SyncPlansResult, error)
	GetPlan(ctx context.Context, id string) (*plan.Plan, error)
	ListPlans(ctx context.Context) ([]*plan.Plan, error)
	// SetPlanLevel updates the local-only upgrade level of a plan
	SetPlanLevel(ctx context.Context, id string, level int) (*plan.Plan, error)
}

// SyncPlansResult summarises a catalog sync
type SyncPlansResult struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

// planCacheInvalidator is implemented by caching plan repositories
type planCacheInvalidator interface {
	Invalidate(ctx context.Context)
}

type planService struct {
	ServiceParams
}

func NewPlanService(params ServiceParams) PlanService {
	return &planService{ServiceParams: params}
}

func (s *planService) SyncPlans(ctx context.Context) (*SyncPlansResult, error) {
	catalog, err := s.Processor.ListPlans(ctx)
	if err != nil {
		s.Logger.Errorw("failed to list processor plans", "error", err)
		return nil, err
	}

	result := &SyncPlansResult{}
	for _, entry := range catalog {
		existing, err := s.PlanRepo.GetByProcessorID(ctx, entry.ID)
		if err != nil && !ierr.IsNotFound(err) {
			return result, err
		}

		if existing == nil {
			p := plan.New(ctx, entry.ID)
			p.ApplyCatalog(entry.Name, entry.Price, entry.Currency, entry.BillingFrequency)
			if err := s.PlanRepo.Create(ctx, p); err != nil {
				return result, err
			}
			result.Created++
			s.notify(ctx, types.EventEntityPlan, types.EventActionSaved, "", p.ID, map[string]any{
				"processor_id": entry.ID,
			})
			continue
		}

		// the level is local only and survives the overwrite
		if !existing.ApplyCatalog(entry.Name, entry.Price, entry.Currency, entry.BillingFrequency) {
			result.Unchanged++
			continue
		}
		existing.Touch(ctx)
		if err := s.PlanRepo.Update(ctx, existing); err != nil {
			return result, err
		}
		result.Updated++
		s.notify(ctx, types.EventEntityPlan, types.EventActionSaved, "", existing.ID, map[string]any{
			"processor_id": entry.ID,
		})
	}

	if inv, ok := s.PlanRepo.(planCacheInvalidator); ok {
		inv.Invalidate(ctx)
	}

	s.Logger.Infow("plan catalog synced",
		"created", result.Created,
		"updated", result.Updated,
		"unchanged", result.Unchanged)
	return result, nil
}

func (s *planService) GetPlan(ctx context.Context, id string) (*plan.Plan, error) {
	if id == "" {
		return nil, ierr.NewError("plan_id is required").
			WithHint("Plan ID is required").
			Mark(ierr.ErrValidation)
	}
	return s.PlanRepo.Get(ctx, id)
}

func (s *planService) ListPlans(ctx context.Context) ([]*plan.Plan, error) {
	return s.PlanRepo.List(ctx)
}

func (s *planService) SetPlanLevel(ctx context.Context, id string, level int) (*plan.Plan, error) {
	if level < 0 {
		return nil, ierr.NewError("plan level must not be negative").
			WithHintf("Invalid plan level %d", level).
			Mark(ierr.ErrValidation)
	}

	p, err := s.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Level = level
	p.Touch(ctx)
	if err := s.PlanRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
