package customer

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/billsync/internal/domain/subscription"
	ierr "github.com/flexprice/billsync/internal/errors"
	"github.com/flexprice/billsync/internal/types"
	"github.com/samber/lo"
)

// Customer is the aggregate root synced to the processor. It owns its
// addresses, payment methods, subscriptions and transactions and is stored
// as a single document.
type Customer struct {
	// ID is the unique identifier for the customer
	ID string `json:"id"`

	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`

	// DefaultPaymentMethodID must reference one of PaymentMethods when set
	DefaultPaymentMethodID string `json:"default_payment_method_id,omitempty"`

	Addresses      []*Address                   `json:"addresses"`
	PaymentMethods []*PaymentMethod             `json:"payment_methods"`
	Subscriptions  []*subscription.Subscription `json:"subscriptions"`
	Transactions   []*Transaction               `json:"transactions"`

	Link types.ProcessorLink `json:"processor"`

	// Originals are the field values last confirmed by the processor
	Originals Originals `json:"originals"`

	types.BaseModel

	// mu guards Originals while sub-documents sync concurrently
	mu sync.Mutex
}

// New creates an unsynced customer
func New(ctx context.Context, name, email string) *Customer {
	return &Customer{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CUSTOMER),
		Name:           name,
		Email:          email,
		Addresses:      []*Address{},
		PaymentMethods: []*PaymentMethod{},
		Subscriptions:  []*subscription.Subscription{},
		Transactions:   []*Transaction{},
		Link:           types.NewProcessorLink(),
		Originals:      NewOriginals(),
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
}

func (c *Customer) AddAddress(a *Address) {
	c.Addresses = append(c.Addresses, a)
}

func (c *Customer) AddPaymentMethod(pm *PaymentMethod) {
	c.PaymentMethods = append(c.PaymentMethods, pm)
}

func (c *Customer) AddSubscription(s *subscription.Subscription) {
	c.Subscriptions = append(c.Subscriptions, s)
}

func (c *Customer) AddressByID(id string) *Address {
	a, _ := lo.Find(c.Addresses, func(a *Address) bool { return a.ID == id })
	return a
}

func (c *Customer) PaymentMethodByID(id string) *PaymentMethod {
	pm, _ := lo.Find(c.PaymentMethods, func(pm *PaymentMethod) bool { return pm.ID == id })
	return pm
}

func (c *Customer) SubscriptionByID(id string) *subscription.Subscription {
	s, _ := lo.Find(c.Subscriptions, func(s *subscription.Subscription) bool { return s.ID == id })
	return s
}

func (c *Customer) TransactionByID(id string) *Transaction {
	t, _ := lo.Find(c.Transactions, func(t *Transaction) bool { return t.ID == id })
	return t
}

// DefaultPaymentMethod resolves DefaultPaymentMethodID, or nil when unset.
func (c *Customer) DefaultPaymentMethod() *PaymentMethod {
	if c.DefaultPaymentMethodID == "" {
		return nil
	}
	return c.PaymentMethodByID(c.DefaultPaymentMethodID)
}

// ValidateDefaultPaymentMethod checks that the default payment method, when
// set, belongs to this customer.
func (c *Customer) ValidateDefaultPaymentMethod() error {
	if c.DefaultPaymentMethodID == "" || c.DefaultPaymentMethod() != nil {
		return nil
	}
	return ierr.NewError("default payment method not found on customer").
		WithHintf("Payment method %s does not belong to customer %s", c.DefaultPaymentMethodID, c.ID).
		WithReportableDetails(map[string]any{
			"customer_id":       c.ID,
			"payment_method_id": c.DefaultPaymentMethodID,
		}).
		Mark(ierr.ErrValidation)
}

func (c *Customer) ValidSubscriptions(asOf time.Time) []*subscription.Subscription {
	return subscription.ValidSubscriptions(c.Subscriptions, asOf)
}

func (c *Customer) ActiveSubscriptions(asOf time.Time) []*subscription.Subscription {
	return subscription.ActiveSubscriptions(c.Subscriptions, asOf)
}

func (c *Customer) CurrentSubscription(asOf time.Time) *subscription.Subscription {
	return subscription.CurrentSubscription(c.Subscriptions, asOf)
}

// AppendTransactions adds processor transactions not seen before, matched by
// external id. Known transactions are left untouched. It returns the added
// transactions.
func (c *Customer) AppendTransactions(txns []*Transaction) []*Transaction {
	known := lo.SliceToMap(c.Transactions, func(t *Transaction) (string, struct{}) {
		return t.Link.ExternalID, struct{}{}
	})

	var added []*Transaction
	for _, t := range txns {
		if _, ok := known[t.Link.ExternalID]; ok {
			continue
		}
		known[t.Link.ExternalID] = struct{}{}
		c.Transactions = append(c.Transactions, t)
		added = append(added, t)
	}
	return added
}
