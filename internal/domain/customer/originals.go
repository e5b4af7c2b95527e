package customer

import (
	"github.com/flexprice/billsync/internal/domain/subscription"
)

// Snapshot holds the tracked fields of the customer itself.
type Snapshot struct {
	Name                   string `json:"name"`
	Email                  string `json:"email"`
	Phone                  string `json:"phone,omitempty"`
	IPAddress              string `json:"ip_address,omitempty"`
	DefaultPaymentMethodID string `json:"default_payment_method_id,omitempty"`
}

// Originals are the last synced values of every sub-document, keyed by
// local id. An entity without an entry has never been confirmed synced.
type Originals struct {
	Customer       *Snapshot                        `json:"customer,omitempty"`
	Addresses      map[string]AddressSnapshot       `json:"addresses"`
	PaymentMethods map[string]PaymentMethodSnapshot `json:"payment_methods"`
	Subscriptions  map[string]subscription.Snapshot `json:"subscriptions"`
}

func NewOriginals() Originals {
	return Originals{
		Addresses:      map[string]AddressSnapshot{},
		PaymentMethods: map[string]PaymentMethodSnapshot{},
		Subscriptions:  map[string]subscription.Snapshot{},
	}
}

func (c *Customer) Snapshot() Snapshot {
	return Snapshot{
		Name:                   c.Name,
		Email:                  c.Email,
		Phone:                  c.Phone,
		IPAddress:              c.IPAddress,
		DefaultPaymentMethodID: c.DefaultPaymentMethodID,
	}
}

// RememberCustomer records the customer's current fields as synced.
func (c *Customer) RememberCustomer() {
	snap := c.Snapshot()
	c.withOriginals(func(o *Originals) { o.Customer = &snap })
}

func (c *Customer) RememberAddress(a *Address) {
	snap := a.Snapshot()
	c.withOriginals(func(o *Originals) { o.Addresses[a.ID] = snap })
}

func (c *Customer) RememberPaymentMethod(pm *PaymentMethod) {
	snap := pm.Snapshot()
	c.withOriginals(func(o *Originals) { o.PaymentMethods[pm.ID] = snap })
}

func (c *Customer) RememberSubscription(s *subscription.Subscription) {
	snap := s.Snapshot()
	c.withOriginals(func(o *Originals) { o.Subscriptions[s.ID] = snap })
}

// OriginalSubscription returns the last synced snapshot of subscription id.
func (c *Customer) OriginalSubscription(id string) (subscription.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.Originals.Subscriptions[id]
	return snap, ok
}

func (c *Customer) withOriginals(fn func(o *Originals)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// documents decoded without originals have nil maps
	if c.Originals.Addresses == nil {
		c.Originals.Addresses = map[string]AddressSnapshot{}
	}
	if c.Originals.PaymentMethods == nil {
		c.Originals.PaymentMethods = map[string]PaymentMethodSnapshot{}
	}
	if c.Originals.Subscriptions == nil {
		c.Originals.Subscriptions = map[string]subscription.Snapshot{}
	}
	fn(&c.Originals)
}
