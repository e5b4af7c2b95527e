package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flexprice/billsync/internal/processor"
	"github.com/flexprice/billsync/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ProcessorCall is one recorded call on the fake processor
type ProcessorCall struct {
	Method string
	// ID is the processor id the call targeted, empty for creates
	ID      string
	Request any
}

// FakeProcessor is an in-memory processor that records every call. Errors
// queued with FailNext are returned by the next calls to that method.
type FakeProcessor struct {
	mu    sync.Mutex
	calls []ProcessorCall
	seq   int
	fail  map[string][]error

	// Plans is the catalog returned by ListPlans
	Plans []*processor.PlanResult
	// Transactions by processor customer id
	Transactions map[string][]*processor.TransactionResult

	// CanceledFirstBillingDate is reported by CancelSubscription when set
	CanceledFirstBillingDate *time.Time

	discounts map[string][]processor.DiscountResult
	// Now stamps refunds
	Now func() time.Time
}

var _ processor.Processor = (*FakeProcessor)(nil)

func NewFakeProcessor() *FakeProcessor {
	return &FakeProcessor{
		fail:         make(map[string][]error),
		Transactions: make(map[string][]*processor.TransactionResult),
		discounts:    make(map[string][]processor.DiscountResult),
		Now:          time.Now,
	}
}

// FailNext queues err for the next call of method
func (f *FakeProcessor) FailNext(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[method] = append(f.fail[method], err)
}

// Calls returns the recorded calls, optionally only those of methods
func (f *FakeProcessor) Calls(methods ...string) []ProcessorCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(methods) == 0 {
		return append([]ProcessorCall(nil), f.calls...)
	}
	return lo.Filter(f.calls, func(c ProcessorCall, _ int) bool {
		return lo.Contains(methods, c.Method)
	})
}

// Reset forgets recorded calls but keeps processor state
func (f *FakeProcessor) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// AddTransaction seeds a transaction the processor reports for customerID
func (f *FakeProcessor) AddTransaction(customerID string, t *processor.TransactionResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Transactions[customerID] = append(f.Transactions[customerID], t)
}

// record stores the call and pops a queued failure. Callers hold f.mu.
func (f *FakeProcessor) record(method, id string, req any) error {
	f.calls = append(f.calls, ProcessorCall{Method: method, ID: id, Request: req})
	if queued := f.fail[method]; len(queued) > 0 {
		f.fail[method] = queued[1:]
		return queued[0]
	}
	return nil
}

func (f *FakeProcessor) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s_%d", prefix, f.seq)
}

func (f *FakeProcessor) CreateCustomer(_ context.Context, req processor.CustomerRequest) (*processor.CustomerResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateCustomer", "", req); err != nil {
		return nil, err
	}
	return &processor.CustomerResult{ID: f.nextID("cus"), Name: req.Name, Email: req.Email, Phone: req.Phone}, nil
}

func (f *FakeProcessor) UpdateCustomer(_ context.Context, id string, req processor.CustomerRequest) (*processor.CustomerResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateCustomer", id, req); err != nil {
		return nil, err
	}
	return &processor.CustomerResult{ID: id, Name: req.Name, Email: req.Email, Phone: req.Phone}, nil
}

func (f *FakeProcessor) CreateAddress(_ context.Context, customerID string, req processor.AddressRequest) (*processor.AddressResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateAddress", customerID, req); err != nil {
		return nil, err
	}
	return &processor.AddressResult{ID: f.nextID("addr")}, nil
}

func (f *FakeProcessor) UpdateAddress(_ context.Context, _ string, addressID string, req processor.AddressRequest) (*processor.AddressResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateAddress", addressID, req); err != nil {
		return nil, err
	}
	return &processor.AddressResult{ID: addressID}, nil
}

func (f *FakeProcessor) CreatePaymentMethod(_ context.Context, req processor.PaymentMethodRequest) (*processor.PaymentMethodResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreatePaymentMethod", "", req); err != nil {
		return nil, err
	}
	return &processor.PaymentMethodResult{
		Token:           f.nextID("pm"),
		Kind:            types.PaymentMethodKindCreditCard,
		CardType:        "visa",
		Last4:           "4242",
		ExpirationMonth: lo.Ternary(req.ExpirationMonth != 0, req.ExpirationMonth, 12),
		ExpirationYear:  lo.Ternary(req.ExpirationYear != 0, req.ExpirationYear, 2030),
		CardholderName:  req.CardholderName,
	}, nil
}

func (f *FakeProcessor) UpdatePaymentMethod(_ context.Context, token string, req processor.PaymentMethodRequest) (*processor.PaymentMethodResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdatePaymentMethod", token, req); err != nil {
		return nil, err
	}
	return &processor.PaymentMethodResult{
		Token:           token,
		Kind:            types.PaymentMethodKindCreditCard,
		CardType:        "visa",
		Last4:           "4242",
		ExpirationMonth: req.ExpirationMonth,
		ExpirationYear:  req.ExpirationYear,
		CardholderName:  req.CardholderName,
	}, nil
}

func (f *FakeProcessor) CreateSubscription(_ context.Context, req processor.SubscriptionRequest) (*processor.SubscriptionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateSubscription", "", req); err != nil {
		return nil, err
	}

	id := f.nextID("sub")
	f.discounts[id] = nil
	f.addDiscounts(id, req.Discounts)
	return f.subscriptionResult(id, types.SubscriptionStatusActive), nil
}

func (f *FakeProcessor) UpdateSubscription(_ context.Context, id string, req processor.SubscriptionUpdateRequest) (*processor.SubscriptionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateSubscription", id, req); err != nil {
		return nil, err
	}

	current := lo.Filter(f.discounts[id], func(d processor.DiscountResult, _ int) bool {
		return !lo.Contains(req.RemoveDiscounts, d.ID)
	})
	for _, u := range req.UpdateDiscounts {
		for i := range current {
			if current[i].ID == u.ExternalID {
				current[i].Amount = u.Amount
				current[i].NumberOfBillingCycles = u.NumberOfBillingCycles
			}
		}
	}
	f.discounts[id] = current
	f.addDiscounts(id, req.AddDiscounts)
	return f.subscriptionResult(id, types.SubscriptionStatusActive), nil
}

func (f *FakeProcessor) CancelSubscription(_ context.Context, id string) (*processor.SubscriptionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CancelSubscription", id, nil); err != nil {
		return nil, err
	}
	res := f.subscriptionResult(id, types.SubscriptionStatusCanceled)
	res.FirstBillingDate = f.CanceledFirstBillingDate
	return res, nil
}

func (f *FakeProcessor) addDiscounts(subscriptionID string, adds []processor.DiscountAdd) {
	for _, d := range adds {
		f.discounts[subscriptionID] = append(f.discounts[subscriptionID], processor.DiscountResult{
			ID:                    f.nextID("disc"),
			LocalID:               d.LocalID,
			CatalogID:             d.CatalogID,
			Amount:                d.Amount,
			NumberOfBillingCycles: d.NumberOfBillingCycles,
		})
	}
}

func (f *FakeProcessor) subscriptionResult(id string, status types.SubscriptionStatus) *processor.SubscriptionResult {
	return &processor.SubscriptionResult{
		ID:        id,
		Status:    status,
		Discounts: append([]processor.DiscountResult(nil), f.discounts[id]...),
	}
}

// SubscriptionDiscounts returns the discounts attached on the processor side
func (f *FakeProcessor) SubscriptionDiscounts(id string) []processor.DiscountResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]processor.DiscountResult(nil), f.discounts[id]...)
}

func (f *FakeProcessor) RefundTransaction(_ context.Context, id string, amount *decimal.Decimal) (*processor.TransactionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RefundTransaction", id, amount); err != nil {
		return nil, err
	}

	for customerID, txns := range f.Transactions {
		sale, ok := lo.Find(txns, func(t *processor.TransactionResult) bool { return t.ID == id })
		if !ok {
			continue
		}
		refund := &processor.TransactionResult{
			ID:                    f.nextID("re"),
			Kind:                  types.TransactionKindCredit,
			Status:                types.TransactionStatusSettled,
			Amount:                lo.FromPtrOr(amount, sale.Amount),
			Currency:              sale.Currency,
			SubscriptionID:        sale.SubscriptionID,
			RefundedTransactionID: sale.ID,
			CreatedAt:             f.Now().UTC(),
		}
		f.Transactions[customerID] = append(txns, refund)
		return refund, nil
	}
	return nil, processor.Rejection(fmt.Sprintf("No such charge: %s", id), "refund")
}

func (f *FakeProcessor) ListPlans(_ context.Context) ([]*processor.PlanResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListPlans", "", nil); err != nil {
		return nil, err
	}
	return append([]*processor.PlanResult(nil), f.Plans...), nil
}

func (f *FakeProcessor) ListTransactions(_ context.Context, customerID string) ([]*processor.TransactionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListTransactions", customerID, nil); err != nil {
		return nil, err
	}
	return append([]*processor.TransactionResult(nil), f.Transactions[customerID]...), nil
}
