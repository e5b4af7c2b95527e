package service

import (
	"github.com/flexprice/billsync/internal/domain/customer"
	"github.com/flexprice/billsync/internal/domain/plan"
	"github.com/flexprice/billsync/internal/testutil"
	"github.com/flexprice/billsync/internal/types"
	"github.com/shopspring/decimal"
)

// serviceSuite wires every service against the in-memory test doubles.
type serviceSuite struct {
	testutil.BaseServiceTestSuite

	params        ServiceParams
	sync          SyncService
	subscriptions SubscriptionService
	plans         PlanService
	transactions  TransactionService
}

func (s *serviceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	stores := s.GetStores()
	s.params = ServiceParams{
		Logger:       s.GetLogger(),
		Config:       s.GetConfig(),
		Processor:    s.GetProcessor(),
		CustomerRepo: stores.CustomerRepo,
		PlanRepo:     stores.PlanRepo,
		CouponRepo:   stores.CouponRepo,
		Sink:         s.GetSink(),
		Now:          s.GetNow,
	}
	s.sync = NewSyncService(s.params, NewCouponLedger(s.params))
	s.subscriptions = NewSubscriptionService(s.params)
	s.plans = NewPlanService(s.params)
	s.transactions = NewTransactionService(s.params)
}

func (s *serviceSuite) createPlan(processorID string, price string, level int) *plan.Plan {
	p := plan.New(s.GetContext(), processorID)
	p.ApplyCatalog(processorID, decimal.RequireFromString(price), "USD", 1)
	p.Level = level
	s.Require().NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))
	return p
}

// createCustomer stores a customer with a billing address and a default
// card waiting to be synced.
func (s *serviceSuite) createCustomer() *customer.Customer {
	c := customer.New(s.GetContext(), "Ada Lovelace", "ada@example.com")

	addr := customer.NewAddress()
	addr.StreetAddress = "12 Marylebone Road"
	addr.Locality = "London"
	addr.PostalCode = "NW1"
	addr.CountryCode = "GB"
	c.AddAddress(addr)

	pm := customer.NewPaymentMethod(types.PaymentMethodKindCreditCard, "nonce-valid-visa")
	pm.BillingAddressID = addr.ID
	pm.CardholderName = "Ada Lovelace"
	c.AddPaymentMethod(pm)
	c.DefaultPaymentMethodID = pm.ID

	s.Require().NoError(s.GetStores().CustomerRepo.Create(s.GetContext(), c))
	return c
}

func (s *serviceSuite) loadCustomer(id string) *customer.Customer {
	c, err := s.GetStores().CustomerRepo.Get(s.GetContext(), id)
	s.Require().NoError(err)
	return c
}

func methods(calls []testutil.ProcessorCall) []string {
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Method)
	}
	return out
}

func decimalPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func customerAddress(city string) *customer.Address {
	a := customer.NewAddress()
	a.StreetAddress = "1 Main Street"
	a.Locality = city
	a.PostalCode = "10000"
	a.CountryCode = "FR"
	return a
}
