package service

import (
	"context"
	"time"

	"github.com/flexprice/billsync/internal/config"
	"github.com/flexprice/billsync/internal/domain/coupon"
	"github.com/flexprice/billsync/internal/domain/customer"
	"github.com/flexprice/billsync/internal/domain/plan"
	"github.com/flexprice/billsync/internal/logger"
	"github.com/flexprice/billsync/internal/processor"
	"github.com/flexprice/billsync/internal/publisher"
	"github.com/flexprice/billsync/internal/sentry"
	"github.com/flexprice/billsync/internal/types"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger    *logger.Logger
	Config    *config.Configuration
	Sentry    *sentry.Service
	Processor processor.Processor

	// Repositories
	CustomerRepo customer.Repository
	PlanRepo     plan.Repository
	CouponRepo   coupon.Repository

	Sink publisher.Sink

	// Now is the service clock, time.Now when nil
	Now func() time.Time
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	sentryService *sentry.Service,
	proc processor.Processor,
	customerRepo customer.Repository,
	planRepo plan.Repository,
	couponRepo coupon.Repository,
	sink publisher.Sink,
) ServiceParams {
	return ServiceParams{
		Logger:       logger,
		Config:       config,
		Sentry:       sentryService,
		Processor:    proc,
		CustomerRepo: customerRepo,
		PlanRepo:     planRepo,
		CouponRepo:   couponRepo,
		Sink:         sink,
	}
}

func (p ServiceParams) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func (p ServiceParams) notify(ctx context.Context, entity types.EventEntity, action types.EventAction, customerID, entityID string, payload map[string]any) {
	if p.Sink == nil {
		return
	}
	p.Sink.Notify(ctx, publisher.NewEvent(entity, action, customerID, entityID, payload))
}
