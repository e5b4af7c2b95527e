package subscription

import (
	"time"

	"github.com/flexprice/billsync/internal/domain/plan"
	"github.com/flexprice/billsync/internal/types"
	"github.com/samber/lo"
)

// StartDecision is the outcome of ComputeStartDate.
type StartDecision struct {
	// StartDate is nil when the new subscription starts immediately
	StartDate *time.Time

	// Upgraded is the lower level subscription to prorate against when
	// starting immediately, if any
	Upgraded *Subscription
}

// ComputeStartDate decides when a new subscription to p begins given the
// customer's existing subscriptions.
//
// Only paid, non-trial subscriptions that are valid at now count; pending and
// local-only ones are ignored. When one of them is on the same or a higher
// level the new subscription queues behind the one paid through the latest,
// starting the following day. Otherwise it starts immediately and the
// highest lower level subscription is returned for an upgrade discount.
func ComputeStartDate(subs []*Subscription, p *plan.Plan, now time.Time) StartDecision {
	paid := lo.Filter(subs, func(s *Subscription, _ int) bool {
		return !s.IsTrial &&
			!s.Link.IsLocalOnly() &&
			s.Status != types.SubscriptionStatusPending &&
			s.IsValid(now)
	})

	sameOrHigher := lo.Filter(paid, func(s *Subscription, _ int) bool {
		return s.PlanLevel >= p.Level
	})
	lower := lo.Filter(paid, func(s *Subscription, _ int) bool {
		return s.PlanLevel < p.Level
	})

	if len(sameOrHigher) > 0 {
		latest := lo.MaxBy(sameOrHigher, func(a, b *Subscription) bool {
			if a.PaidThroughDate.Equal(*b.PaidThroughDate) {
				return a.PlanLevel > b.PlanLevel
			}
			return a.PaidThroughDate.After(*b.PaidThroughDate)
		})
		start := types.StartOfDay(latest.PaidThroughDate.UTC()).AddDate(0, 0, 1)
		return StartDecision{StartDate: &start}
	}

	if len(lower) == 0 {
		return StartDecision{}
	}

	upgraded := lo.MaxBy(lower, func(a, b *Subscription) bool {
		if a.PlanLevel == b.PlanLevel {
			return a.PaidThroughDate.After(*b.PaidThroughDate)
		}
		return a.PlanLevel > b.PlanLevel
	})
	return StartDecision{Upgraded: upgraded}
}
