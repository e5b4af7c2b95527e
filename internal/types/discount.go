package types

// CouponType is how a coupon computes its discount.
type CouponType string

const (
	CouponTypeFixed      CouponType = "fixed"
	CouponTypePercentage CouponType = "percentage"
)

// DiscountKind tags the variant of a subscription discount.
type DiscountKind string

const (
	DiscountKindAmount               DiscountKind = "amount"
	DiscountKindPercent              DiscountKind = "percent"
	DiscountKindInviter              DiscountKind = "inviter"
	DiscountKindCoupon               DiscountKind = "coupon"
	DiscountKindCouponRestricted     DiscountKind = "coupon_restricted"
	DiscountKindPreviousSubscription DiscountKind = "previous_subscription"
)

// IsCouponBacked reports whether the discount consumes a coupon when applied.
func (k DiscountKind) IsCouponBacked() bool {
	return k == DiscountKindCoupon || k == DiscountKindCouponRestricted
}

// DefaultCatalogID is the processor catalog discount a variant is attached to
// when nothing more specific (such as a coupon's own processor id) applies.
func (k DiscountKind) DefaultCatalogID() string {
	return "discount_" + string(k)
}
