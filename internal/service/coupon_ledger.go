package service

import (
	"context"

	"github.com/flexprice/billsync/internal/domain/discount"
	ierr "github.com/flexprice/billsync/internal/errors"
	"github.com/flexprice/billsync/internal/types"
)

// CouponLedger records coupon redemptions once the processor has accepted a
// coupon backed discount.
type CouponLedger interface {
	RecordUse(ctx context.Context, customerID string, d *discount.Discount) error
}

type couponLedger struct {
	ServiceParams
}

func NewCouponLedger(params ServiceParams) CouponLedger {
	return &couponLedger{ServiceParams: params}
}

// RecordUse increments the coupon behind d. Discounts that are not coupon
// backed are ignored. A restricted coupon already used by customerID is
// left as is and not reported as an error.
func (s *couponLedger) RecordUse(ctx context.Context, customerID string, d *discount.Discount) error {
	if d == nil || !d.IsCouponBacked() {
		return nil
	}
	if d.CouponID == "" {
		return ierr.NewError("coupon discount has no coupon").
			WithHintf("Discount %s is coupon backed but references no coupon", d.ID).
			Mark(ierr.ErrInvalidState)
	}

	recorded, err := s.CouponRepo.RecordUse(ctx, d.CouponID, customerID, s.now())
	if err != nil {
		s.Logger.Errorw("failed to record coupon use",
			"coupon_id", d.CouponID,
			"customer_id", customerID,
			"discount_id", d.ID,
			"error", err)
		return err
	}
	if !recorded {
		s.Logger.Warnw("restricted coupon was already used by customer",
			"coupon_id", d.CouponID,
			"customer_id", customerID)
		return nil
	}

	s.notify(ctx, types.EventEntityCoupon, types.EventActionUsed, customerID, d.CouponID, map[string]any{
		"discount_id": d.ID,
	})
	return nil
}
