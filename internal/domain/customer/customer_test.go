package customer

import (
	"context"
	"testing"
	"time"

	"github.com/flexprice/billsync/internal/domain/discount"
	"github.com/flexprice/billsync/internal/domain/plan"
	"github.com/flexprice/billsync/internal/domain/subscription"
	ierr "github.com/flexprice/billsync/internal/errors"
	"github.com/flexprice/billsync/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncedCustomer builds a customer whose every sub-document was synced.
func syncedCustomer(t *testing.T) *Customer {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2017, 1, 2, 0, 0, 0, 0, time.UTC)

	c := New(ctx, "Alice", "alice@example.com")
	c.Link.MarkSynced("cus_1")
	c.RememberCustomer()

	a := NewAddress()
	a.StreetAddress = "1 Main St"
	a.Locality = "Springfield"
	a.PostalCode = "12345"
	a.CountryCode = "US"
	a.Link.MarkSynced("addr_ext")
	c.AddAddress(a)
	c.RememberAddress(a)

	pm := NewPaymentMethod(types.PaymentMethodKindCreditCard, "")
	pm.BillingAddressID = a.ID
	pm.Link.MarkSynced("pm_ext")
	c.AddPaymentMethod(pm)
	c.RememberPaymentMethod(pm)
	c.DefaultPaymentMethodID = pm.ID
	c.RememberCustomer()

	p := plan.New(ctx, "basic")
	p.Level = 1
	p.Price = decimal.NewFromInt(10)
	p.BillingFrequency = 1
	s := subscription.New(ctx, p, pm.ID, now)
	require.NoError(t, s.InitializeDates(now))
	s.Link.MarkSynced("sub_ext")
	c.AddSubscription(s)
	c.RememberSubscription(s)

	return c
}

func TestMarkChanged_NoEdits(t *testing.T) {
	c := syncedCustomer(t)
	assert.Equal(t, 0, c.MarkChanged())
	assert.True(t, c.Link.IsSynced())
}

func TestMarkChanged_TracksEachEntity(t *testing.T) {
	c := syncedCustomer(t)

	c.Email = "alice@example.org"
	c.Addresses[0].PostalCode = "54321"
	c.PaymentMethods[0].Nonce = "tok_visa"
	sub := c.Subscriptions[0]
	sub.AddDiscounts(discount.BuildAmount(sub.DiscountTarget(time.Now()), decimal.NewFromInt(1), 0))

	assert.Equal(t, 4, c.MarkChanged())
	assert.True(t, c.Link.NeedsUpdate())
	assert.True(t, c.Addresses[0].Link.NeedsUpdate())
	assert.True(t, c.PaymentMethods[0].Link.NeedsUpdate())
	assert.True(t, sub.Link.NeedsUpdate())

	assert.Equal(t, 0, c.MarkChanged(), "second call is a no-op")
}

func TestMarkChanged_UntrackedFieldsIgnored(t *testing.T) {
	c := syncedCustomer(t)
	c.Transactions = append(c.Transactions, NewSyncedTransaction("txn_1"))
	c.Subscriptions[0].SetStatus(types.SubscriptionStatusActive, time.Now())
	assert.Equal(t, 0, c.MarkChanged())
}

func TestMarkChanged_SkipsUnsyncedAndLocalOnly(t *testing.T) {
	c := syncedCustomer(t)

	fresh := NewAddress()
	c.AddAddress(fresh)
	fresh.StreetAddress = "2 Side St"

	trial := c.Subscriptions[0]
	trial.Link = types.LocalOnlyLink()
	trial.PaymentMethodID = "pm_other"

	assert.Equal(t, 0, c.MarkChanged())
	assert.True(t, fresh.Link.NeedsCreate())
	assert.True(t, trial.Link.IsLocalOnly())
}

func TestValidateDefaultPaymentMethod(t *testing.T) {
	c := syncedCustomer(t)
	require.NoError(t, c.ValidateDefaultPaymentMethod())

	c.DefaultPaymentMethodID = ""
	require.NoError(t, c.ValidateDefaultPaymentMethod())

	c.DefaultPaymentMethodID = "pm_missing"
	err := c.ValidateDefaultPaymentMethod()
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestAppendTransactions(t *testing.T) {
	c := New(context.Background(), "Bob", "bob@example.com")

	first := NewSyncedTransaction("txn_1")
	first.Amount = decimal.NewFromInt(10)
	added := c.AppendTransactions([]*Transaction{first, NewSyncedTransaction("txn_2")})
	assert.Len(t, added, 2)

	replay := NewSyncedTransaction("txn_1")
	replay.Amount = decimal.NewFromInt(99)
	added = c.AppendTransactions([]*Transaction{replay, NewSyncedTransaction("txn_3")})
	require.Len(t, added, 1)
	assert.Equal(t, "txn_3", added[0].Link.ExternalID)
	require.Len(t, c.Transactions, 3)
	assert.True(t, decimal.NewFromInt(10).Equal(c.Transactions[0].Amount), "existing transactions are not overwritten")
}

func TestLookups(t *testing.T) {
	c := syncedCustomer(t)
	assert.Same(t, c.Addresses[0], c.AddressByID(c.Addresses[0].ID))
	assert.Same(t, c.PaymentMethods[0], c.DefaultPaymentMethod())
	assert.Same(t, c.Subscriptions[0], c.SubscriptionByID(c.Subscriptions[0].ID))
	assert.Nil(t, c.AddressByID("nope"))
	assert.Nil(t, c.TransactionByID("nope"))

	_, ok := c.OriginalSubscription(c.Subscriptions[0].ID)
	assert.True(t, ok)
}

func TestConsumeNonce(t *testing.T) {
	pm := NewPaymentMethod(types.PaymentMethodKindPayPalAccount, "nonce-1")
	assert.Equal(t, "nonce-1", pm.ConsumeNonce())
	assert.Empty(t, pm.Nonce)
	assert.Empty(t, pm.ConsumeNonce())
}
