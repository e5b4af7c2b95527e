package subscription

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// ValidSubscriptions returns the subscriptions paid through asOf or later,
// highest plan level first. Equal levels keep their input order. Canceled
// subscriptions stay valid until their paid-through date passes.
func ValidSubscriptions(subs []*Subscription, asOf time.Time) []*Subscription {
	valid := lo.Filter(subs, func(s *Subscription, _ int) bool {
		return s.IsValid(asOf)
	})
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].PlanLevel > valid[j].PlanLevel
	})
	return valid
}

// ActiveSubscriptions narrows ValidSubscriptions to Active status.
func ActiveSubscriptions(subs []*Subscription, asOf time.Time) []*Subscription {
	return lo.Filter(ValidSubscriptions(subs, asOf), func(s *Subscription, _ int) bool {
		return s.IsActive(asOf)
	})
}

// CurrentSubscription is the first valid subscription, or nil.
func CurrentSubscription(subs []*Subscription, asOf time.Time) *Subscription {
	valid := ValidSubscriptions(subs, asOf)
	if len(valid) == 0 {
		return nil
	}
	return valid[0]
}
