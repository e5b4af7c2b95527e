package stripe

import (
	"context"
	"fmt"

	"github.com/flexprice/billsync/internal/idempotency"
	"github.com/flexprice/billsync/internal/processor"
	"github.com/stripe/stripe-go/v82"
)

func (c *Client) CreateCustomer(ctx context.Context, req processor.CustomerRequest) (*processor.CustomerResult, error) {
	params := &stripe.CustomerCreateParams{
		Name:  stripe.String(req.Name),
		Email: stripe.String(req.Email),
	}
	if req.Phone != "" {
		params.Phone = stripe.String(req.Phone)
	}
	params.AddMetadata(metadataCustomerID, req.LocalID)
	if req.IPAddress != "" {
		params.AddMetadata(metadataIPAddress, req.IPAddress)
	}
	params.SetIdempotencyKey(c.keys.GenerateKey(idempotency.ScopeCustomerCreate, map[string]any{
		"local_id": req.LocalID,
		"name":     req.Name,
		"email":    req.Email,
		"phone":    req.Phone,
	}))

	cus, err := c.stripe.V1Customers.Create(ctx, params)
	if err != nil {
		c.logger.Errorw("failed to create customer in stripe",
			"customer_id", req.LocalID,
			"error", err)
		return nil, classify(err, "create customer")
	}

	return toCustomerResult(cus), nil
}

func (c *Client) UpdateCustomer(ctx context.Context, id string, req processor.CustomerRequest) (*processor.CustomerResult, error) {
	params := &stripe.CustomerUpdateParams{
		Name:  stripe.String(req.Name),
		Email: stripe.String(req.Email),
		Phone: stripe.String(req.Phone),
	}
	if req.DefaultPaymentMethodToken != "" {
		params.InvoiceSettings = &stripe.CustomerUpdateInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(req.DefaultPaymentMethodToken),
		}
	}
	if req.IPAddress != "" {
		params.AddMetadata(metadataIPAddress, req.IPAddress)
	}

	cus, err := c.stripe.V1Customers.Update(ctx, id, params)
	if err != nil {
		c.logger.Errorw("failed to update customer in stripe",
			"customer_id", req.LocalID,
			"processor_id", id,
			"error", err)
		return nil, classify(err, "update customer")
	}

	return toCustomerResult(cus), nil
}

// CreateAddress stores the address on the stripe customer. Stripe keeps a
// single address per customer, so the last synced address wins there; the
// returned id is derived from the customer and local address ids.
func (c *Client) CreateAddress(ctx context.Context, customerID string, req processor.AddressRequest) (*processor.AddressResult, error) {
	if err := c.setCustomerAddress(ctx, customerID, req, "create address"); err != nil {
		return nil, err
	}
	return &processor.AddressResult{ID: addressID(customerID, req.LocalID)}, nil
}

func (c *Client) UpdateAddress(ctx context.Context, customerID, addressID string, req processor.AddressRequest) (*processor.AddressResult, error) {
	if err := c.setCustomerAddress(ctx, customerID, req, "update address"); err != nil {
		return nil, err
	}
	return &processor.AddressResult{ID: addressID}, nil
}

func (c *Client) setCustomerAddress(ctx context.Context, customerID string, req processor.AddressRequest, operation string) error {
	params := &stripe.CustomerUpdateParams{
		Address: &stripe.AddressParams{
			Line1:      stripe.String(req.StreetAddress),
			Line2:      stripe.String(req.ExtendedAddress),
			City:       stripe.String(req.Locality),
			State:      stripe.String(req.Region),
			PostalCode: stripe.String(req.PostalCode),
			Country:    stripe.String(req.CountryCode),
		},
	}
	params.AddMetadata(metadataAddressID, req.LocalID)

	if _, err := c.stripe.V1Customers.Update(ctx, customerID, params); err != nil {
		c.logger.Errorw("failed to set customer address in stripe",
			"processor_id", customerID,
			"address_id", req.LocalID,
			"error", err)
		return classify(err, operation)
	}
	return nil
}

func addressID(customerID, localID string) string {
	return fmt.Sprintf("%s_%s", customerID, localID)
}

func toCustomerResult(cus *stripe.Customer) *processor.CustomerResult {
	return &processor.CustomerResult{
		ID:    cus.ID,
		Name:  cus.Name,
		Email: cus.Email,
		Phone: cus.Phone,
	}
}
