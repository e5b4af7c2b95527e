package stripe

import (
	"context"

	"github.com/flexprice/billsync/internal/processor"
	"github.com/flexprice/billsync/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
)

// CreatePaymentMethod attaches the payment method behind the client nonce to
// the customer. The nonce is a stripe payment method id created client side.
func (c *Client) CreatePaymentMethod(ctx context.Context, req processor.PaymentMethodRequest) (*processor.PaymentMethodResult, error) {
	params := &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(req.CustomerID),
	}

	pm, err := c.stripe.V1PaymentMethods.Attach(ctx, req.Nonce, params)
	if err != nil {
		c.logger.Errorw("failed to attach payment method in stripe",
			"payment_method_id", req.LocalID,
			"processor_id", req.CustomerID,
			"error", err)
		return nil, classify(err, "create payment method")
	}

	if req.MakeDefault {
		if err := c.setDefaultPaymentMethod(ctx, req.CustomerID, pm.ID); err != nil {
			return nil, err
		}
	}

	return toPaymentMethodResult(pm), nil
}

// UpdatePaymentMethod updates billing details of token. A request carrying a
// new nonce replaces the card: the new payment method is attached and its
// token returned.
func (c *Client) UpdatePaymentMethod(ctx context.Context, token string, req processor.PaymentMethodRequest) (*processor.PaymentMethodResult, error) {
	if req.Nonce != "" {
		return c.CreatePaymentMethod(ctx, req)
	}

	params := &stripe.PaymentMethodUpdateParams{}
	if req.CardholderName != "" {
		params.BillingDetails = &stripe.PaymentMethodUpdateBillingDetailsParams{
			Name: stripe.String(req.CardholderName),
		}
	}
	if req.ExpirationMonth > 0 && req.ExpirationYear > 0 {
		params.Card = &stripe.PaymentMethodUpdateCardParams{
			ExpMonth: stripe.Int64(int64(req.ExpirationMonth)),
			ExpYear:  stripe.Int64(int64(req.ExpirationYear)),
		}
	}
	params.AddMetadata(metadataPaymentMethod, req.LocalID)

	pm, err := c.stripe.V1PaymentMethods.Update(ctx, token, params)
	if err != nil {
		c.logger.Errorw("failed to update payment method in stripe",
			"payment_method_id", req.LocalID,
			"token", token,
			"error", err)
		return nil, classify(err, "update payment method")
	}

	if req.MakeDefault {
		if err := c.setDefaultPaymentMethod(ctx, req.CustomerID, pm.ID); err != nil {
			return nil, err
		}
	}

	return toPaymentMethodResult(pm), nil
}

func (c *Client) setDefaultPaymentMethod(ctx context.Context, customerID, token string) error {
	params := &stripe.CustomerUpdateParams{
		InvoiceSettings: &stripe.CustomerUpdateInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(token),
		},
	}
	if _, err := c.stripe.V1Customers.Update(ctx, customerID, params); err != nil {
		return classify(err, "set default payment method")
	}
	return nil
}

// RefundTransaction refunds a charge, fully when amount is nil.
func (c *Client) RefundTransaction(ctx context.Context, id string, amount *decimal.Decimal) (*processor.TransactionResult, error) {
	params := &stripe.RefundCreateParams{
		Charge: stripe.String(id),
	}
	if amount != nil {
		params.Amount = stripe.Int64(types.ToMinorUnits(*amount))
	}

	refund, err := c.stripe.V1Refunds.Create(ctx, params)
	if err != nil {
		c.logger.Errorw("failed to refund charge in stripe",
			"transaction_id", id,
			"error", err)
		return nil, classify(err, "refund transaction")
	}

	return &processor.TransactionResult{
		ID:                    refund.ID,
		Kind:                  types.TransactionKindCredit,
		Status:                refundStatus(refund.Status),
		Amount:                types.FromMinorUnits(refund.Amount),
		Currency:              string(refund.Currency),
		RefundedTransactionID: id,
		CreatedAt:             unixTime(refund.Created),
	}, nil
}

// ListTransactions returns every charge of the stripe customer.
func (c *Client) ListTransactions(ctx context.Context, customerID string) ([]*processor.TransactionResult, error) {
	params := &stripe.ChargeListParams{
		Customer: stripe.String(customerID),
	}

	var results []*processor.TransactionResult
	for ch, err := range c.stripe.V1Charges.List(ctx, params) {
		if err != nil {
			c.logger.Errorw("failed to list charges in stripe",
				"processor_id", customerID,
				"error", err)
			return nil, classify(err, "list transactions")
		}

		results = append(results, &processor.TransactionResult{
			ID:        ch.ID,
			Kind:      types.TransactionKindSale,
			Status:    chargeStatus(ch),
			Amount:    types.FromMinorUnits(ch.Amount),
			Currency:  string(ch.Currency),
			CreatedAt: unixTime(ch.Created),
		})
	}

	return results, nil
}

func toPaymentMethodResult(pm *stripe.PaymentMethod) *processor.PaymentMethodResult {
	result := &processor.PaymentMethodResult{
		Token: pm.ID,
		Kind:  types.PaymentMethodKindCreditCard,
	}
	if pm.BillingDetails != nil {
		result.CardholderName = pm.BillingDetails.Name
		result.Email = pm.BillingDetails.Email
	}

	switch pm.Type {
	case stripe.PaymentMethodTypePaypal:
		result.Kind = types.PaymentMethodKindPayPalAccount
	case stripe.PaymentMethodTypeCard:
		if pm.Card == nil {
			break
		}
		result.CardType = string(pm.Card.Brand)
		result.Last4 = pm.Card.Last4
		result.ExpirationMonth = int(pm.Card.ExpMonth)
		result.ExpirationYear = int(pm.Card.ExpYear)
		if pm.Card.Wallet == nil {
			break
		}
		switch pm.Card.Wallet.Type {
		case stripe.PaymentMethodCardWalletTypeApplePay:
			result.Kind = types.PaymentMethodKindApplePayCard
		case stripe.PaymentMethodCardWalletTypeGooglePay:
			result.Kind = types.PaymentMethodKindAndroidPayCard
		}
	}

	return result
}

func chargeStatus(ch *stripe.Charge) types.TransactionStatus {
	if ch.Refunded {
		return types.TransactionStatusRefunded
	}
	switch ch.Status {
	case stripe.ChargeStatusSucceeded:
		if !ch.Captured {
			return types.TransactionStatusAuthorized
		}
		return types.TransactionStatusSettled
	case stripe.ChargeStatusPending:
		return types.TransactionStatusAuthorized
	default:
		return types.TransactionStatusFailed
	}
}

func refundStatus(status stripe.RefundStatus) types.TransactionStatus {
	switch status {
	case stripe.RefundStatusSucceeded:
		return types.TransactionStatusSettled
	case stripe.RefundStatusPending, stripe.RefundStatusRequiresAction:
		return types.TransactionStatusAuthorized
	case stripe.RefundStatusCanceled:
		return types.TransactionStatusVoided
	default:
		return types.TransactionStatusFailed
	}
}
