package processor

import (
	"context"

	"github.com/shopspring/decimal"
)

// Processor is the external payment processor the sync engine reconciles
// customers against. Every call either succeeds or fails with an error
// marked ErrProcessorRejection (the processor answered with a business
// failure) or ErrTransport (the call did not complete).
type Processor interface {
	CreateCustomer(ctx context.Context, req CustomerRequest) (*CustomerResult, error)
	UpdateCustomer(ctx context.Context, id string, req CustomerRequest) (*CustomerResult, error)

	CreateAddress(ctx context.Context, customerID string, req AddressRequest) (*AddressResult, error)
	UpdateAddress(ctx context.Context, customerID, addressID string, req AddressRequest) (*AddressResult, error)

	CreatePaymentMethod(ctx context.Context, req PaymentMethodRequest) (*PaymentMethodResult, error)
	UpdatePaymentMethod(ctx context.Context, token string, req PaymentMethodRequest) (*PaymentMethodResult, error)

	CreateSubscription(ctx context.Context, req SubscriptionRequest) (*SubscriptionResult, error)
	UpdateSubscription(ctx context.Context, id string, req SubscriptionUpdateRequest) (*SubscriptionResult, error)
	CancelSubscription(ctx context.Context, id string) (*SubscriptionResult, error)

	// RefundTransaction refunds amount, or the whole transaction when nil
	RefundTransaction(ctx context.Context, id string, amount *decimal.Decimal) (*TransactionResult, error)

	ListPlans(ctx context.Context) ([]*PlanResult, error)
	ListTransactions(ctx context.Context, customerID string) ([]*TransactionResult, error)
}
