package processor

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// RateLimited bounds the call rate to the wrapped processor. Calls wait for
// a token and fail with ErrTransport when ctx ends first.
type RateLimited struct {
	next    Processor
	limiter *rate.Limiter
}

var _ Processor = (*RateLimited)(nil)

func NewRateLimited(next Processor, requestsPerSecond float64, burst int) *RateLimited {
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (p *RateLimited) wait(ctx context.Context, operation string) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return Transport(err, operation)
	}
	return nil
}

func (p *RateLimited) CreateCustomer(ctx context.Context, req CustomerRequest) (*CustomerResult, error) {
	if err := p.wait(ctx, "create customer"); err != nil {
		return nil, err
	}
	return p.next.CreateCustomer(ctx, req)
}

func (p *RateLimited) UpdateCustomer(ctx context.Context, id string, req CustomerRequest) (*CustomerResult, error) {
	if err := p.wait(ctx, "update customer"); err != nil {
		return nil, err
	}
	return p.next.UpdateCustomer(ctx, id, req)
}

func (p *RateLimited) CreateAddress(ctx context.Context, customerID string, req AddressRequest) (*AddressResult, error) {
	if err := p.wait(ctx, "create address"); err != nil {
		return nil, err
	}
	return p.next.CreateAddress(ctx, customerID, req)
}

func (p *RateLimited) UpdateAddress(ctx context.Context, customerID, addressID string, req AddressRequest) (*AddressResult, error) {
	if err := p.wait(ctx, "update address"); err != nil {
		return nil, err
	}
	return p.next.UpdateAddress(ctx, customerID, addressID, req)
}

func (p *RateLimited) CreatePaymentMethod(ctx context.Context, req PaymentMethodRequest) (*PaymentMethodResult, error) {
	if err := p.wait(ctx, "create payment method"); err != nil {
		return nil, err
	}
	return p.next.CreatePaymentMethod(ctx, req)
}

func (p *RateLimited) UpdatePaymentMethod(ctx context.Context, token string, req PaymentMethodRequest) (*PaymentMethodResult, error) {
	if err := p.wait(ctx, "update payment method"); err != nil {
		return nil, err
	}
	return p.next.UpdatePaymentMethod(ctx, token, req)
}

func (p *RateLimited) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*SubscriptionResult, error) {
	if err := p.wait(ctx, "create subscription"); err != nil {
		return nil, err
	}
	return p.next.CreateSubscription(ctx, req)
}

func (p *RateLimited) UpdateSubscription(ctx context.Context, id string, req SubscriptionUpdateRequest) (*SubscriptionResult, error) {
	if err := p.wait(ctx, "update subscription"); err != nil {
		return nil, err
	}
	return p.next.UpdateSubscription(ctx, id, req)
}

func (p *RateLimited) CancelSubscription(ctx context.Context, id string) (*SubscriptionResult, error) {
	if err := p.wait(ctx, "cancel subscription"); err != nil {
		return nil, err
	}
	return p.next.CancelSubscription(ctx, id)
}

func (p *RateLimited) RefundTransaction(ctx context.Context, id string, amount *decimal.Decimal) (*TransactionResult, error) {
	if err := p.wait(ctx, "refund transaction"); err != nil {
		return nil, err
	}
	return p.next.RefundTransaction(ctx, id, amount)
}

func (p *RateLimited) ListPlans(ctx context.Context) ([]*PlanResult, error) {
	if err := p.wait(ctx, "list plans"); err != nil {
		return nil, err
	}
	return p.next.ListPlans(ctx)
}

func (p *RateLimited) ListTransactions(ctx context.Context, customerID string) ([]*TransactionResult, error) {
	if err := p.wait(ctx, "list transactions"); err != nil {
		return nil, err
	}
	return p.next.ListTransactions(ctx, customerID)
}
