package testutil

import (
	"context"
	"sync/atomic"

	"github.com/flexprice/billsync/internal/domain/customer"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// InMemoryCustomerStore implements customer.Repository. Documents go through
// a JSON round trip like they do in the document store.
type InMemoryCustomerStore struct {
	*InMemoryStore[*customer.Customer]
	writes atomic.Int64
}

var _ customer.Repository = (*InMemoryCustomerStore)(nil)

func NewInMemoryCustomerStore() *InMemoryCustomerStore {
	return &InMemoryCustomerStore{
		InMemoryStore: NewInMemoryStore(copyCustomer),
	}
}

func copyCustomer(c *customer.Customer) *customer.Customer {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		panic(err)
	}
	copied := &customer.Customer{}
	if err := json.Unmarshal(data, copied); err != nil {
		panic(err)
	}
	return copied
}

func (s *InMemoryCustomerStore) Create(ctx context.Context, c *customer.Customer) error {
	s.writes.Add(1)
	return s.InMemoryStore.Create(ctx, c.ID, c)
}

func (s *InMemoryCustomerStore) Get(ctx context.Context, id string) (*customer.Customer, error) {
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemoryCustomerStore) Update(ctx context.Context, c *customer.Customer) error {
	s.writes.Add(1)
	return s.InMemoryStore.Update(ctx, c.ID, c)
}

// Writes counts successful and failed Create and Update calls
func (s *InMemoryCustomerStore) Writes() int {
	return int(s.writes.Load())
}
