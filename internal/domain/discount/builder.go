package discount

import (
	"fmt"
	"time"

	"github.com/flexprice/billsync/internal/domain/coupon"
	"github.com/flexprice/billsync/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const inviterPercentPerUser = 20

var hundred = decimal.NewFromInt(100)

// Target describes the subscription a discount is built for.
type Target struct {
	Price decimal.Decimal
	// StartDate is the first billing date, or now when billing starts immediately
	StartDate time.Time
}

// Window is the paid period of a previous subscription.
type Window struct {
	SubscriptionID string
	Start          time.Time
	End            time.Time
	Price          decimal.Decimal
}

// Invitee is a user brought in by the customer
type Invitee struct {
	ID       string
	Verified bool
}

// BuildAmount returns a flat discount capped to the subscription price, or
// nil when the capped amount is zero.
func BuildAmount(t Target, amount decimal.Decimal, cycles int) *Discount {
	d := newDiscount(types.DiscountKindAmount, "Discount", types.ClampMoney(amount, t.Price), cycles)
	if d == nil {
		return nil
	}
	d.RequestedAmount = lo.ToPtr(amount)
	return d
}

// BuildPercent returns a percentage of the subscription price, or nil when
// that rounds to zero.
func BuildPercent(t Target, percent decimal.Decimal, cycles int) *Discount {
	d := newDiscount(types.DiscountKindPercent,
		fmt.Sprintf("Discount %s%%", percent.String()),
		percentOf(t.Price, percent), cycles)
	if d == nil {
		return nil
	}
	d.Percent = lo.ToPtr(percent)
	return d
}

// BuildInviter grants 20% per verified invitee, up to 100%.
func BuildInviter(t Target, invitees []Invitee) *Discount {
	verified := lo.Filter(invitees, func(i Invitee, _ int) bool { return i.Verified })
	percent := decimal.NewFromInt(int64(min(100, inviterPercentPerUser*len(verified))))

	d := newDiscount(types.DiscountKindInviter, "Inviter discount", percentOf(t.Price, percent), 1)
	if d == nil {
		return nil
	}
	d.Percent = lo.ToPtr(percent)
	d.InviteeIDs = lo.Map(verified, func(i Invitee, _ int) string { return i.ID })
	return d
}

// BuildCoupon applies c for customerID at now. It returns nil when the
// coupon is outside its window, out of uses, already used by a restricted
// customer, or worth nothing for this price.
func BuildCoupon(t Target, c *coupon.Coupon, customerID string, now time.Time) *Discount {
	if c == nil || c.IsExpired(now) || c.IsUseLimitReached() {
		return nil
	}

	kind := types.DiscountKindCoupon
	if c.Restricted {
		if c.HasBeenUsedBy(customerID) {
			return nil
		}
		kind = types.DiscountKindCouponRestricted
	}

	d := newDiscount(kind, c.Name, c.CalculateDiscount(t.Price), c.NumberOfBillingCycles)
	if d == nil {
		return nil
	}
	d.CouponID = c.ID
	d.CatalogID = c.CatalogID(kind)
	return d
}

// BuildPreviousSubscription refunds the unused part of prev when the new
// subscription starts inside prev's paid window (both ends inclusive):
// amount = prev.Price * (1 - elapsed/total), counted in days.
func BuildPreviousSubscription(t Target, prev Window) *Discount {
	total := types.DaysBetween(prev.Start, prev.End)
	if total <= 0 {
		return nil
	}
	elapsed := types.DaysBetween(prev.Start, t.StartDate)
	if elapsed < 0 || elapsed > total {
		return nil
	}

	fractionElapsed := decimal.NewFromInt(int64(elapsed)).Div(decimal.NewFromInt(int64(total)))
	amount := prev.Price.Mul(decimal.NewFromInt(1).Sub(fractionElapsed))

	d := newDiscount(types.DiscountKindPreviousSubscription,
		"Unused time on previous subscription", types.ClampMoney(amount, t.Price), 1)
	if d == nil {
		return nil
	}
	d.PreviousSubscriptionID = prev.SubscriptionID
	return d
}

func percentOf(price, percent decimal.Decimal) decimal.Decimal {
	return types.ClampMoney(price.Mul(percent).Div(hundred), price)
}

func newDiscount(kind types.DiscountKind, name string, amount decimal.Decimal, cycles int) *Discount {
	if !amount.IsPositive() {
		return nil
	}
	return &Discount{
		ID:                    types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DISCOUNT),
		Kind:                  kind,
		Name:                  name,
		Amount:                amount,
		NumberOfBillingCycles: cycles,
		CatalogID:             kind.DefaultCatalogID(),
		Link:                  types.NewProcessorLink(),
	}
}
