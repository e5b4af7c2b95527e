package testutil

import (
	"context"
	"strings"
	"time"

	"github.com/flexprice/billsync/internal/domain/coupon"
	ierr "github.com/flexprice/billsync/internal/errors"
)

// InMemoryCouponStore implements coupon.Repository
type InMemoryCouponStore struct {
	*InMemoryStore[*coupon.Coupon]

	// FailRecordUse makes RecordUse fail with this error when set
	FailRecordUse error
}

var _ coupon.Repository = (*InMemoryCouponStore)(nil)

func NewInMemoryCouponStore() *InMemoryCouponStore {
	return &InMemoryCouponStore{
		InMemoryStore: NewInMemoryStore(copyCoupon),
	}
}

// Helper to copy coupon
func copyCoupon(c *coupon.Coupon) *coupon.Coupon {
	if c == nil {
		return nil
	}
	copied := *c
	copied.Uses = append([]coupon.Use(nil), c.Uses...)
	return &copied
}

func (s *InMemoryCouponStore) Create(ctx context.Context, c *coupon.Coupon) error {
	return s.InMemoryStore.Create(ctx, c.ID, c)
}

func (s *InMemoryCouponStore) Get(ctx context.Context, id string) (*coupon.Coupon, error) {
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemoryCouponStore) GetByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	coupons := s.InMemoryStore.List(ctx, func(c *coupon.Coupon) bool {
		return strings.EqualFold(c.Code, code)
	}, nil)
	if len(coupons) == 0 {
		return nil, ierr.NewError("coupon not found").
			WithHintf("No coupon with code %s", code).
			Mark(ierr.ErrNotFound)
	}
	return coupons[0], nil
}

func (s *InMemoryCouponStore) Update(ctx context.Context, c *coupon.Coupon) error {
	return s.InMemoryStore.Update(ctx, c.ID, c)
}

// RecordUse applies the use under the store lock, like the conditional
// update of the document store.
func (s *InMemoryCouponStore) RecordUse(_ context.Context, id string, customerID string, at time.Time) (bool, error) {
	if s.FailRecordUse != nil {
		return false, s.FailRecordUse
	}

	var recorded bool
	err := s.InMemoryStore.Mutate(id, func(c *coupon.Coupon) *coupon.Coupon {
		recorded = c.RecordUse(customerID, at)
		return c
	})
	return recorded, err
}
