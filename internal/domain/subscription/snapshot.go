package subscription

import (
	"time"

	"github.com/flexprice/billsync/internal/domain/discount"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Snapshot holds the fields of a subscription last sent to the processor.
type Snapshot struct {
	PaymentMethodID  string              `json:"payment_method_id"`
	PlanProcessorID  string              `json:"plan_processor_id"`
	Price            decimal.Decimal     `json:"price"`
	FirstBillingDate *time.Time          `json:"first_billing_date,omitempty"`
	Discounts        []discount.Snapshot `json:"discounts"`
}

func (s *Subscription) Snapshot() Snapshot {
	return Snapshot{
		PaymentMethodID:  s.PaymentMethodID,
		PlanProcessorID:  s.PlanProcessorID,
		Price:            s.Price,
		FirstBillingDate: s.FirstBillingDate,
		Discounts: lo.Map(s.Discounts, func(d *discount.Discount, _ int) discount.Snapshot {
			return d.Snapshot()
		}),
	}
}

// Differs reports whether any tracked field of s changed since the snapshot.
func (o Snapshot) Differs(s *Subscription) bool {
	if o.PaymentMethodID != s.PaymentMethodID ||
		o.PlanProcessorID != s.PlanProcessorID ||
		!o.Price.Equal(s.Price) ||
		!sameDate(o.FirstBillingDate, s.FirstBillingDate) {
		return true
	}
	return !ComputeDiscountDiff(o, s).IsEmpty()
}

// ComputeDiscountDiff is the discount change set since the snapshot.
func ComputeDiscountDiff(o Snapshot, s *Subscription) discount.Diff {
	return discount.ComputeDiff(o.Discounts, s.Discounts)
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
