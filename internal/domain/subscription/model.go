package subscription

import (
	"context"
	"time"

	"github.com/flexprice/billsync/internal/domain/discount"
	"github.com/flexprice/billsync/internal/domain/plan"
	"github.com/flexprice/billsync/internal/types"
	"github.com/shopspring/decimal"
)

type Subscription struct {
	// ID is the unique identifier for the subscription
	ID string `json:"id"`

	// PlanID is the local plan this subscription was created from
	PlanID string `json:"plan_id"`

	// PlanProcessorID is the processor's id for the plan at creation time
	PlanProcessorID string `json:"plan_processor_id"`

	// PlanLevel orders plans for upgrade and downgrade decisions
	PlanLevel int `json:"plan_level"`

	// BillingFrequency is the cycle length in months
	BillingFrequency int `json:"billing_frequency"`

	// PaymentMethodID references a payment method of the owning customer
	PaymentMethodID string `json:"payment_method_id"`

	// Price is snapshotted from the plan and may diverge from it later
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`

	Status        types.SubscriptionStatus `json:"status"`
	StatusHistory []StatusChange           `json:"status_history"`

	FirstBillingDate *time.Time `json:"first_billing_date,omitempty"`
	NextBillingDate  *time.Time `json:"next_billing_date,omitempty"`
	PaidThroughDate  *time.Time `json:"paid_through_date,omitempty"`

	IsTrial   bool `json:"is_trial"`
	TrialDays int  `json:"trial_days,omitempty"`

	// Discounts holds at most one discount after AddDiscounts
	Discounts []*discount.Discount `json:"discounts"`

	Link types.ProcessorLink `json:"processor"`

	types.BaseModel
}

// StatusChange is one entry of the append-only status log.
type StatusChange struct {
	Status    types.SubscriptionStatus `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
}

// New creates a pending subscription to p, snapshotting its price, level and
// billing frequency.
func New(ctx context.Context, p *plan.Plan, paymentMethodID string, now time.Time) *Subscription {
	s := &Subscription{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		PlanID:           p.ID,
		PlanProcessorID:  p.ProcessorID,
		PlanLevel:        p.Level,
		BillingFrequency: p.BillingFrequency,
		PaymentMethodID:  paymentMethodID,
		Price:            types.RoundMoney(p.Price),
		Currency:         p.Currency,
		Discounts:        []*discount.Discount{},
		Link:             types.NewProcessorLink(),
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}
	s.SetStatus(types.SubscriptionStatusPending, now)
	return s
}

// SetStatus changes the status and appends to the history. Setting the
// current status again is a no-op and returns false.
func (s *Subscription) SetStatus(status types.SubscriptionStatus, at time.Time) bool {
	if s.Status == status && len(s.StatusHistory) > 0 {
		return false
	}
	s.Status = status
	s.StatusHistory = append(s.StatusHistory, StatusChange{Status: status, Timestamp: at.UTC()})
	return true
}

// AddDiscounts merges candidates into the current discounts keeping only the
// single largest one.
func (s *Subscription) AddDiscounts(candidates ...*discount.Discount) {
	s.Discounts = discount.SelectBest(candidates, s.Discounts)
}

// InitializeDates fills the billing dates for a subscription starting at
// start. Trials are paid through start plus the trial length, regular
// subscriptions through the day before the next billing date.
func (s *Subscription) InitializeDates(start time.Time) error {
	start = types.StartOfDay(start.UTC())
	s.FirstBillingDate = &start

	if s.IsTrial {
		paidThrough := start.AddDate(0, 0, s.TrialDays)
		next := paidThrough.AddDate(0, 0, 1)
		s.PaidThroughDate = &paidThrough
		s.NextBillingDate = &next
		return nil
	}

	paidThrough, err := types.PaidThroughDate(start, s.BillingFrequency)
	if err != nil {
		return err
	}
	next := paidThrough.AddDate(0, 0, 1)
	s.NextBillingDate = &next
	s.PaidThroughDate = &paidThrough
	return nil
}

// IsValid reports whether the paid-through date has not passed on asOf's day.
// A subscription paid through asOf itself is still valid.
func (s *Subscription) IsValid(asOf time.Time) bool {
	if s.PaidThroughDate == nil {
		return false
	}
	return !types.StartOfDay(s.PaidThroughDate.UTC()).Before(types.StartOfDay(asOf.UTC()))
}

func (s *Subscription) IsActive(asOf time.Time) bool {
	return s.Status == types.SubscriptionStatusActive && s.IsValid(asOf)
}

// DiscountTarget describes this subscription to the discount builders.
func (s *Subscription) DiscountTarget(now time.Time) discount.Target {
	start := now.UTC()
	if s.FirstBillingDate != nil {
		start = *s.FirstBillingDate
	}
	return discount.Target{Price: s.Price, StartDate: start}
}

// PaidWindow is the paid period used to prorate an upgrade from this
// subscription. ok is false until the dates are initialized.
func (s *Subscription) PaidWindow() (w discount.Window, ok bool) {
	if s.FirstBillingDate == nil || s.PaidThroughDate == nil {
		return discount.Window{}, false
	}
	return discount.Window{
		SubscriptionID: s.ID,
		Start:          *s.FirstBillingDate,
		End:            *s.PaidThroughDate,
		Price:          s.Price,
	}, true
}
