package coupon

import (
	"context"
	"time"
)

// Repository defines the interface for coupon data access
type Repository interface {
	Create(ctx context.Context, coupon *Coupon) error
	Get(ctx context.Context, id string) (*Coupon, error)
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	Update(ctx context.Context, coupon *Coupon) error

	// RecordUse applies Coupon.RecordUse against the stored coupon and
	// persists it. Implementations make the check and the increment a single
	// step; it reports whether a use was recorded.
	RecordUse(ctx context.Context, id string, customerID string, at time.Time) (bool, error)
}
