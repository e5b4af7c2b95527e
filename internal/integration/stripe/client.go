package stripe

import (
	"github.com/flexprice/billsync/internal/config"
	ierr "github.com/flexprice/billsync/internal/errors"
	"github.com/flexprice/billsync/internal/idempotency"
	"github.com/flexprice/billsync/internal/logger"
	"github.com/flexprice/billsync/internal/processor"
	"github.com/stripe/stripe-go/v82"
)

const (
	// metadata keys set on stripe objects created by billsync
	metadataCustomerID     = "billsync_customer_id"
	metadataAddressID      = "billsync_address_id"
	metadataPaymentMethod  = "billsync_payment_method_id"
	metadataSubscriptionID = "billsync_subscription_id"
	metadataDiscountID     = "billsync_discount_id"
	metadataCatalogID      = "billsync_catalog_id"
	metadataCoupons        = "billsync_coupons"
	metadataIPAddress      = "ip_address"
)

// Client implements processor.Processor on the Stripe API.
type Client struct {
	stripe   *stripe.Client
	currency string
	logger   *logger.Logger
	keys     *idempotency.Generator
}

var _ processor.Processor = (*Client)(nil)

// NewClient creates a Stripe processor from configuration
func NewClient(cfg *config.Configuration, log *logger.Logger) (*Client, error) {
	if cfg.Processor.SecretKey == "" {
		return nil, ierr.NewError("stripe secret key is not configured").
			WithHint("Set processor.secret_key to a Stripe secret key").
			Mark(ierr.ErrValidation)
	}
	return NewClientWithBackend(stripe.NewClient(cfg.Processor.SecretKey, nil), cfg.Processor.Currency, log), nil
}

// NewClientWithBackend wraps an already configured stripe client.
func NewClientWithBackend(sc *stripe.Client, currency string, log *logger.Logger) *Client {
	return &Client{
		stripe:   sc,
		currency: currency,
		logger:   log,
		keys:     idempotency.NewGenerator(),
	}
}
