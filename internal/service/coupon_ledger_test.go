package service

import (
	"testing"

	"github.com/flexprice/billsync/internal/domain/coupon"
	"github.com/flexprice/billsync/internal/domain/discount"
	"github.com/flexprice/billsync/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CouponLedgerSuite struct {
	serviceSuite
	ledger CouponLedger
}

func TestCouponLedger(t *testing.T) {
	suite.Run(t, new(CouponLedgerSuite))
}

func (s *CouponLedgerSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.ledger = NewCouponLedger(s.params)
}

func (s *CouponLedgerSuite) couponDiscount(c *coupon.Coupon) *discount.Discount {
	target := discount.Target{Price: decimal.NewFromInt(10), StartDate: s.GetNow()}
	d := discount.BuildCoupon(target, c, "cust_1", s.GetNow())
	s.Require().NotNil(d)
	return d
}

func (s *CouponLedgerSuite) TestRecordUse_Unrestricted() {
	c := coupon.NewFixed(s.GetContext(), "Spring", "SPRING", decimal.NewFromInt(2))
	s.Require().NoError(s.GetStores().CouponRepo.Create(s.GetContext(), c))
	d := s.couponDiscount(c)

	s.Require().NoError(s.ledger.RecordUse(s.GetContext(), "cust_1", d))
	s.Require().NoError(s.ledger.RecordUse(s.GetContext(), "cust_1", d))

	stored, err := s.GetStores().CouponRepo.Get(s.GetContext(), c.ID)
	s.Require().NoError(err)
	s.Equal(2, stored.UsedCount)
	s.Empty(stored.Uses)
}

func (s *CouponLedgerSuite) TestRecordUse_RestrictedOncePerCustomer() {
	c := coupon.NewFixed(s.GetContext(), "Friends", "FRIENDS", decimal.NewFromInt(2))
	c.Restricted = true
	s.Require().NoError(s.GetStores().CouponRepo.Create(s.GetContext(), c))
	d := s.couponDiscount(c)

	s.Require().NoError(s.ledger.RecordUse(s.GetContext(), "cust_1", d))
	s.Require().NoError(s.ledger.RecordUse(s.GetContext(), "cust_1", d))
	s.Require().NoError(s.ledger.RecordUse(s.GetContext(), "cust_2", d))

	stored, err := s.GetStores().CouponRepo.Get(s.GetContext(), c.ID)
	s.Require().NoError(err)
	s.Equal(2, stored.UsedCount)
	s.Len(stored.Uses, 2)
	s.Len(s.GetSink().Events(types.EventEntityCoupon), 2)
}

func (s *CouponLedgerSuite) TestRecordUse_IgnoresOtherDiscounts() {
	d := discount.BuildAmount(discount.Target{Price: decimal.NewFromInt(10)}, decimal.NewFromInt(1), 0)
	s.Require().NoError(s.ledger.RecordUse(s.GetContext(), "cust_1", d))
	s.Empty(s.GetSink().Events())
}
