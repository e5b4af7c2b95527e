package service

import (
	"errors"
	"testing"

	"github.com/flexprice/billsync/internal/domain/coupon"
	"github.com/flexprice/billsync/internal/domain/discount"
	ierr "github.com/flexprice/billsync/internal/errors"
	"github.com/flexprice/billsync/internal/processor"
	"github.com/flexprice/billsync/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type SyncServiceSuite struct {
	serviceSuite
}

func TestSyncService(t *testing.T) {
	suite.Run(t, new(SyncServiceSuite))
}

func (s *SyncServiceSuite) subscribeWithCoupon(customerID, pmID, planID string, c *coupon.Coupon) {
	_, err := s.subscriptions.Subscribe(s.GetContext(), SubscribeRequest{
		CustomerID:      customerID,
		PlanID:          planID,
		PaymentMethodID: pmID,
		Discount:        DiscountRequest{CouponCode: c.Code},
	})
	s.Require().NoError(err)
}

func (s *SyncServiceSuite) TestSync_NewCustomer() {
	p := s.createPlan("price_gold", "10", 1)
	welcome := coupon.NewFixed(s.GetContext(), "Welcome", "WELCOME", decimal.NewFromInt(3))
	s.Require().NoError(s.GetStores().CouponRepo.Create(s.GetContext(), welcome))

	c := s.createCustomer()
	s.subscribeWithCoupon(c.ID, c.DefaultPaymentMethodID, p.ID, welcome)

	synced, err := s.sync.Sync(s.GetContext(), c.ID)
	s.Require().NoError(err)

	s.Equal([]string{
		"CreateCustomer",
		"CreateAddress",
		"CreatePaymentMethod",
		"CreateSubscription",
		"ListTransactions",
	}, methods(s.GetProcessor().Calls()))

	stored := s.loadCustomer(c.ID)
	s.True(stored.Link.IsSynced())
	s.True(stored.Addresses[0].Link.IsSynced())

	pm := stored.PaymentMethods[0]
	s.True(pm.Link.IsSynced())
	s.Empty(pm.Nonce)
	s.Equal("4242", pm.Last4)

	sub := stored.Subscriptions[0]
	s.True(sub.Link.IsSynced())
	s.Equal(types.SubscriptionStatusActive, sub.Status)
	s.Len(sub.StatusHistory, 2)
	s.Require().Len(sub.Discounts, 1)
	s.True(sub.Discounts[0].Link.IsSynced())
	s.Equal(synced.Subscriptions[0].ID, sub.ID)

	// payment method references resolve to processor ids
	pmCall := s.GetProcessor().Calls("CreatePaymentMethod")[0].Request.(processor.PaymentMethodRequest)
	s.Equal(stored.Addresses[0].Link.ExternalID, pmCall.BillingAddressID)
	s.Equal("nonce-valid-visa", pmCall.Nonce)
	s.True(pmCall.MakeDefault)

	subCall := s.GetProcessor().Calls("CreateSubscription")[0].Request.(processor.SubscriptionRequest)
	s.Equal(pm.Link.ExternalID, subCall.PaymentMethodToken)
	s.Equal("price_gold", subCall.PlanID)
	s.Nil(subCall.FirstBillingDate)
	s.Require().Len(subCall.Discounts, 1)
	s.True(subCall.Discounts[0].Amount.Equal(decimal.NewFromInt(3)))

	used, err := s.GetStores().CouponRepo.Get(s.GetContext(), welcome.ID)
	s.Require().NoError(err)
	s.Equal(1, used.UsedCount)

	s.True(s.GetSink().Has(types.EventEntityCustomer, types.EventActionSaved))
	s.True(s.GetSink().Has(types.EventEntityCoupon, types.EventActionUsed))
}

func (s *SyncServiceSuite) TestSync_SecondSyncIsNoOp() {
	p := s.createPlan("price_gold", "10", 1)
	c := s.createCustomer()
	_, err := s.subscriptions.Subscribe(s.GetContext(), SubscribeRequest{
		CustomerID:      c.ID,
		PlanID:          p.ID,
		PaymentMethodID: c.DefaultPaymentMethodID,
		Discount:        DiscountRequest{Percent: decimalPtr("20")},
	})
	s.Require().NoError(err)

	_, err = s.sync.Sync(s.GetContext(), c.ID)
	s.Require().NoError(err)
	s.GetProcessor().Reset()

	_, err = s.sync.Sync(s.GetContext(), c.ID)
	s.Require().NoError(err)
	s.Equal([]string{"ListTransactions"}, methods(s.GetProcessor().Calls()))
	s.Zero(s.loadCustomer(c.ID).MarkChanged())
}

func (s *SyncServiceSuite) TestSync_ResumesAfterFailure() {
	p := s.createPlan("price_gold", "10", 1)
	c := s.createCustomer()
	_, err := s.subscriptions.Subscribe(s.GetContext(), SubscribeRequest{
		CustomerID:      c.ID,
		PlanID:          p.ID,
		PaymentMethodID: c.DefaultPaymentMethodID,
	})
	s.Require().NoError(err)

	s.GetProcessor().FailNext("CreatePaymentMethod", processor.Rejection("Card declined", "create payment method"))

	_, err = s.sync.Sync(s.GetContext(), c.ID)
	s.Require().Error(err)
	s.True(ierr.IsProcessorRejection(err))
	s.Equal("Card declined", err.Error())

	stored := s.loadCustomer(c.ID)
	s.True(stored.Link.IsSynced())
	s.True(stored.Addresses[0].Link.IsSynced())
	s.True(stored.PaymentMethods[0].Link.NeedsCreate())
	s.Equal("nonce-valid-visa", stored.PaymentMethods[0].Nonce)
	s.True(stored.Subscriptions[0].Link.NeedsCreate())

	s.GetProcessor().Reset()
	_, err = s.sync.Sync(s.GetContext(), c.ID)
	s.Require().NoError(err)
	s.Equal([]string{
		"CreatePaymentMethod",
		"CreateSubscription",
		"ListTransactions",
	}, methods(s.GetProcessor().Calls()))
}

func (s *SyncServiceSuite) TestSync_TransportFailureKeepsEarlierPhases() {
	c := s.createCustomer()
	s.GetProcessor().FailNext("CreateAddress", processor.Transport(errors.New("connection reset"), "create address"))

	_, err := s.sync.Sync(s.GetContext(), c.ID)
	s.Require().Error(err)
	s.True(ierr.IsTransport(err))

	stored := s.loadCustomer(c.ID)
	s.True(stored.Link.IsSynced())
	s.False(stored.Addresses[0].Link.IsSynced())
	s.Empty(s.GetProcessor().Calls("CreatePaymentMethod"))
}

func (s *SyncServiceSuite) TestSync_AddressesSyncConcurrently() {
	c := s.createCustomer()
	for _, city := range []string{"Paris", "Berlin", "Rome"} {
		a := customerAddress(city)
		c.AddAddress(a)
	}
	s.Require().NoError(s.GetStores().CustomerRepo.Update(s.GetContext(), c))

	_, err := s.sync.Sync(s.GetContext(), c.ID)
	s.Require().NoError(err)

	s.Len(s.GetProcessor().Calls("CreateAddress"), 4)
	stored := s.loadCustomer(c.ID)
	for _, a := range stored.Addresses {
		s.True(a.Link.IsSynced(), a.Locality)
	}
	s.Len(stored.Originals.Addresses, 4)
}

func (s *SyncServiceSuite) TestSync_UpdatesAreMarkedAndDiffed() {
	p := s.createPlan("price_gold", "10", 1)
	welcome := coupon.NewFixed(s.GetContext(), "Welcome", "WELCOME", decimal.NewFromInt(3))
	s.Require().NoError(s.GetStores().CouponRepo.Create(s.GetContext(), welcome))

	c := s.createCustomer()
	s.subscribeWithCoupon(c.ID, c.DefaultPaymentMethodID, p.ID, welcome)
	_, err := s.sync.Sync(s.GetContext(), c.ID)
	s.Require().NoError(err)

	c = s.loadCustomer(c.ID)
	sub := c.Subscriptions[0]
	couponExternalID := sub.Discounts[0].Link.ExternalID

	c.Email = "ada@analytical.engine"
	sub.AddDiscounts(discount.BuildAmount(sub.DiscountTarget(s.GetNow()), decimal.NewFromInt(5), 0))
	s.Require().Len(sub.Discounts, 1)
	s.Require().NoError(s.GetStores().CustomerRepo.Update(s.GetContext(), c))

	s.GetProcessor().Reset()
	_, err = s.sync.Sync(s.GetContext(), c.ID)
	s.Require().NoError(err)

	s.Equal([]string{
		"UpdateCustomer",
		"UpdateSubscription",
		"ListTransactions",
	}, methods(s.GetProcessor().Calls()))

	update := s.GetProcessor().Calls("UpdateSubscription")[0].Request.(processor.SubscriptionUpdateRequest)
	s.Require().Len(update.AddDiscounts, 1)
	s.Equal(types.DiscountKindAmount.DefaultCatalogID(), update.AddDiscounts[0].CatalogID)
	s.Empty(update.UpdateDiscounts)
	s.Equal([]string{couponExternalID}, update.RemoveDiscounts)

	stored := s.loadCustomer(c.ID)
	s.True(stored.Subscriptions[0].Discounts[0].Link.IsSynced())
	s.Len(s.GetProcessor().SubscriptionDiscounts(stored.Subscriptions[0].Link.ExternalID), 1)

	used, err := s.GetStores().CouponRepo.Get(s.GetContext(), welcome.ID)
	s.Require().NoError(err)
	s.Equal(1, used.UsedCount)
}

func (s *SyncServiceSuite) TestSync_ChangedDiscountAmountIsUpdated() {
	p := s.createPlan("price_gold", "10", 1)
	c := s.createCustomer()
	_, err := s.subscriptions.Subscribe(s.GetContext(), SubscribeRequest{
		CustomerID:      c.ID,
		PlanID:          p.ID,
		PaymentMethodID: c.DefaultPaymentMethodID,
		Discount:        DiscountRequest{Amount: decimalPtr("4"), NumberOfBillingCycles: 3},
	})
	s.Require().NoError(err)
	_, err = s.sync.Sync(s.GetContext(), c.ID)
	s.Require().NoError(err)

	c = s.loadCustomer(c.ID)
	d := c.Subscriptions[0].Discounts[0]
	d.Amount = decimal.NewFromInt(2)
	s.Require().NoError(s.GetStores().CustomerRepo.Update(s.GetContext(), c))

	s.GetProcessor().Reset()
	_, err = s.sync.Sync(s.GetContext(), c.ID)
	s.Require().NoError(err)

	update := s.GetProcessor().Calls("UpdateSubscription")[0].Request.(processor.SubscriptionUpdateRequest)
	s.Empty(update.AddDiscounts)
	s.Empty(update.RemoveDiscounts)
	s.Require().Len(update.UpdateDiscounts, 1)
	s.Equal(d.Link.ExternalID, update.UpdateDiscounts[0].ExternalID)
	s.True(update.UpdateDiscounts[0].Amount.Equal(decimal.NewFromInt(2)))
	s.Equal(3, update.UpdateDiscounts[0].NumberOfBillingCycles)
	s.Equal(d.CatalogID, update.UpdateDiscounts[0].CatalogID)
	s.Equal(d.Name, update.UpdateDiscounts[0].Name)
}

func (s *SyncServiceSuite) TestSync_LocalOnlySubscriptionsAreSkipped() {
	p := s.createPlan("price_gold", "10", 1)
	c := s.createCustomer()
	trial, err := s.subscriptions.Subscribe(s.GetContext(), SubscribeRequest{
		CustomerID: c.ID,
		PlanID:     p.ID,
		TrialDays:  14,
	})
	s.Require().NoError(err)

	_, err = s.sync.Sync(s.GetContext(), c.ID)
	s.Require().NoError(err)

	s.Empty(s.GetProcessor().Calls("CreateSubscription", "UpdateSubscription"))
	stored := s.loadCustomer(c.ID)
	s.True(stored.SubscriptionByID(trial.ID).Link.IsLocalOnly())
}

func (s *SyncServiceSuite) TestSync_InvalidDefaultPaymentMethod() {
	c := s.createCustomer()
	c.DefaultPaymentMethodID = "pm_someone_else"
	s.Require().NoError(s.GetStores().CustomerRepo.Update(s.GetContext(), c))

	_, err := s.sync.Sync(s.GetContext(), c.ID)
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
	s.Empty(s.GetProcessor().Calls())
}

func (s *SyncServiceSuite) TestSync_TransactionsAreAppendOnly() {
	p := s.createPlan("price_gold", "10", 1)
	c := s.createCustomer()
	_, err := s.subscriptions.Subscribe(s.GetContext(), SubscribeRequest{
		CustomerID:      c.ID,
		PlanID:          p.ID,
		PaymentMethodID: c.DefaultPaymentMethodID,
	})
	s.Require().NoError(err)
	_, err = s.sync.Sync(s.GetContext(), c.ID)
	s.Require().NoError(err)

	c = s.loadCustomer(c.ID)
	custExt := c.Link.ExternalID
	subExt := c.Subscriptions[0].Link.ExternalID

	s.GetProcessor().AddTransaction(custExt, &processor.TransactionResult{
		ID:             "ch_1",
		Kind:           types.TransactionKindSale,
		Status:         types.TransactionStatusSettled,
		Amount:         decimal.NewFromInt(10),
		Currency:       "USD",
		SubscriptionID: subExt,
		CreatedAt:      s.GetNow(),
	})
	s.GetProcessor().AddTransaction(custExt, &processor.TransactionResult{
		ID:                    "re_1",
		Kind:                  types.TransactionKindCredit,
		Status:                types.TransactionStatusSettled,
		Amount:                decimal.NewFromInt(4),
		Currency:              "USD",
		RefundedTransactionID: "ch_1",
		CreatedAt:             s.GetNow(),
	})

	_, err = s.sync.Sync(s.GetContext(), c.ID)
	s.Require().NoError(err)
	_, err = s.sync.Sync(s.GetContext(), c.ID)
	s.Require().NoError(err)

	stored := s.loadCustomer(c.ID)
	s.Require().Len(stored.Transactions, 2)
	sale, credit := stored.Transactions[0], stored.Transactions[1]
	s.Equal(stored.Subscriptions[0].ID, sale.SubscriptionID)
	s.Equal(sale.ID, credit.RefundedTransactionID)
	s.True(credit.Amount.Equal(decimal.NewFromInt(4)))
}

func (s *SyncServiceSuite) TestSync_CouponLedgerFailureIsRetried() {
	p := s.createPlan("price_gold", "10", 1)
	welcome := coupon.NewFixed(s.GetContext(), "Welcome", "WELCOME", decimal.NewFromInt(3))
	s.Require().NoError(s.GetStores().CouponRepo.Create(s.GetContext(), welcome))

	c := s.createCustomer()
	s.subscribeWithCoupon(c.ID, c.DefaultPaymentMethodID, p.ID, welcome)

	s.GetStores().CouponRepo.FailRecordUse = ierr.NewError("throttled").Mark(ierr.ErrDatabase)
	_, err := s.sync.Sync(s.GetContext(), c.ID)
	s.Require().Error(err)
	s.True(ierr.IsDatabase(err))
	s.Empty(s.GetProcessor().Calls("ListTransactions"))

	stored := s.loadCustomer(c.ID)
	s.True(stored.Subscriptions[0].Link.IsSynced())
	s.False(stored.Subscriptions[0].Discounts[0].UsageRecorded)

	s.GetStores().CouponRepo.FailRecordUse = nil
	s.GetProcessor().Reset()
	_, err = s.sync.Sync(s.GetContext(), c.ID)
	s.Require().NoError(err)
	_, err = s.sync.Sync(s.GetContext(), c.ID)
	s.Require().NoError(err)

	used, err := s.GetStores().CouponRepo.Get(s.GetContext(), welcome.ID)
	s.Require().NoError(err)
	s.Equal(1, used.UsedCount)
	s.True(s.loadCustomer(c.ID).Subscriptions[0].Discounts[0].UsageRecorded)
	s.Empty(s.GetProcessor().Calls("CreateSubscription", "UpdateSubscription"))
}

func (s *SyncServiceSuite) TestSync_RestrictedCouponCountsOncePerCustomer() {
	p := s.createPlan("price_gold", "10", 1)
	vip := coupon.NewPercentage(s.GetContext(), "VIP", "VIP", decimal.NewFromInt(50))
	vip.Restricted = true
	s.Require().NoError(s.GetStores().CouponRepo.Create(s.GetContext(), vip))

	c := s.createCustomer()
	s.subscribeWithCoupon(c.ID, c.DefaultPaymentMethodID, p.ID, vip)
	_, err := s.sync.Sync(s.GetContext(), c.ID)
	s.Require().NoError(err)

	stored, err := s.GetStores().CouponRepo.Get(s.GetContext(), vip.ID)
	s.Require().NoError(err)
	s.Equal(1, stored.UsedCount)
	s.True(stored.HasBeenUsedBy(c.ID))

	// a later subscription cannot use it again
	_, err = s.subscriptions.Subscribe(s.GetContext(), SubscribeRequest{
		CustomerID:      c.ID,
		PlanID:          p.ID,
		PaymentMethodID: c.DefaultPaymentMethodID,
		Discount:        DiscountRequest{CouponCode: vip.Code},
	})
	s.Require().NoError(err)
	latest := s.loadCustomer(c.ID).Subscriptions[1]
	s.Empty(latest.Discounts)
}
