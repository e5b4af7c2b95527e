package coupon

import (
	"context"
	"time"

	"github.com/flexprice/billsync/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Coupon represents a discount coupon entity
type Coupon struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`

	// ProcessorID is the processor catalog discount this coupon maps to, if any
	ProcessorID string `json:"processor_id,omitempty"`

	Type          types.CouponType `json:"type"`
	AmountOff     *decimal.Decimal `json:"amount_off,omitempty"`
	PercentageOff *decimal.Decimal `json:"percentage_off,omitempty"`

	// NumberOfBillingCycles the discount lasts for, 0 means forever
	NumberOfBillingCycles int `json:"number_of_billing_cycles"`

	StartAt  *time.Time `json:"start_at,omitempty"`
	ExpireAt *time.Time `json:"expire_at,omitempty"`

	UsedCount    int  `json:"used_count"`
	UsedCountMax *int `json:"used_count_max,omitempty"`

	// Restricted coupons can be used once per customer; Uses is the ledger
	Restricted bool  `json:"restricted"`
	Uses       []Use `json:"uses,omitempty"`

	types.BaseModel
}

// Use records a customer consuming a restricted coupon.
type Use struct {
	CustomerID string    `json:"customer_id"`
	UsedAt     time.Time `json:"used_at"`
}

// NewFixed creates an amount-off coupon
func NewFixed(ctx context.Context, name, code string, amount decimal.Decimal) *Coupon {
	c := newCoupon(ctx, name, code, types.CouponTypeFixed)
	c.AmountOff = lo.ToPtr(types.RoundMoney(amount))
	return c
}

// NewPercentage creates a percent-off coupon
func NewPercentage(ctx context.Context, name, code string, percent decimal.Decimal) *Coupon {
	c := newCoupon(ctx, name, code, types.CouponTypePercentage)
	c.PercentageOff = lo.ToPtr(percent)
	return c
}

func newCoupon(ctx context.Context, name, code string, t types.CouponType) *Coupon {
	return &Coupon{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_COUPON),
		Name:      name,
		Code:      code,
		Type:      t,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
}

// IsExpired reports whether now falls outside the [StartAt, ExpireAt]
// redemption window. A coupon that has not started yet counts as expired.
func (c *Coupon) IsExpired(now time.Time) bool {
	if c.StartAt != nil && now.Before(*c.StartAt) {
		return true
	}
	if c.ExpireAt != nil && now.After(*c.ExpireAt) {
		return true
	}
	return false
}

// IsUseLimitReached reports whether the coupon has no redemptions left
func (c *Coupon) IsUseLimitReached() bool {
	return c.UsedCountMax != nil && c.UsedCount >= *c.UsedCountMax
}

// HasBeenUsedBy reports whether customerID appears in the uses ledger
func (c *Coupon) HasBeenUsedBy(customerID string) bool {
	return lo.ContainsBy(c.Uses, func(u Use) bool {
		return u.CustomerID == customerID
	})
}

// CatalogID is the processor catalog discount id to attach this coupon under.
func (c *Coupon) CatalogID(kind types.DiscountKind) string {
	if c.ProcessorID != "" {
		return c.ProcessorID
	}
	return kind.DefaultCatalogID()
}

// CalculateDiscount computes the coupon's amount for price, capped to price
func (c *Coupon) CalculateDiscount(price decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch c.Type {
	case types.CouponTypeFixed:
		if c.AmountOff != nil {
			amount = *c.AmountOff
		}
	case types.CouponTypePercentage:
		if c.PercentageOff != nil {
			amount = price.Mul(*c.PercentageOff).Div(decimal.NewFromInt(100))
		}
	}
	return types.ClampMoney(amount, price)
}

// RecordUse increments the usage counter and, for restricted coupons,
// appends the customer to the ledger. Restricted coupons already used by
// customerID are left untouched and false is returned.
func (c *Coupon) RecordUse(customerID string, at time.Time) bool {
	if c.Restricted {
		if c.HasBeenUsedBy(customerID) {
			return false
		}
		c.Uses = append(c.Uses, Use{CustomerID: customerID, UsedAt: at})
	}
	c.UsedCount++
	return true
}
