package processor

import (
	"time"

	"github.com/flexprice/billsync/internal/types"
	"github.com/shopspring/decimal"
)

// Requests carry processor ids for every reference; local ids are only sent
// as LocalID so adapters can tag the remote record.

type CustomerRequest struct {
	LocalID   string
	Name      string
	Email     string
	Phone     string
	IPAddress string
	// DefaultPaymentMethodToken is the processor token of the default payment method
	DefaultPaymentMethodToken string
}

type CustomerResult struct {
	ID    string
	Name  string
	Email string
	Phone string
}

type AddressRequest struct {
	LocalID         string
	FirstName       string
	LastName        string
	Company         string
	StreetAddress   string
	ExtendedAddress string
	Locality        string
	Region          string
	PostalCode      string
	CountryCode     string
}

type AddressResult struct {
	ID string
}

type PaymentMethodRequest struct {
	LocalID    string
	CustomerID string
	// Nonce is the one-time client token; empty on metadata-only updates
	Nonce            string
	BillingAddressID string
	CardholderName   string
	ExpirationMonth  int
	ExpirationYear   int
	MakeDefault      bool
}

type PaymentMethodResult struct {
	Token           string
	Kind            types.PaymentMethodKind
	CardType        string
	Last4           string
	ExpirationMonth int
	ExpirationYear  int
	CardholderName  string
	Email           string
}

// DiscountAdd attaches a discount under a catalog id.
type DiscountAdd struct {
	LocalID               string
	CatalogID             string
	Name                  string
	Amount                decimal.Decimal
	NumberOfBillingCycles int
}

// DiscountUpdate changes a discount already attached to a subscription.
type DiscountUpdate struct {
	LocalID               string
	ExternalID            string
	CatalogID             string
	Name                  string
	Amount                decimal.Decimal
	NumberOfBillingCycles int
}

type SubscriptionRequest struct {
	LocalID            string
	CustomerID         string
	PaymentMethodToken string
	PlanID             string
	Price              decimal.Decimal
	Currency           string
	BillingFrequency   int
	// FirstBillingDate is nil when billing starts immediately
	FirstBillingDate *time.Time
	Discounts        []DiscountAdd
}

type SubscriptionUpdateRequest struct {
	PaymentMethodToken string
	PlanID             string
	Price              decimal.Decimal
	Currency           string
	BillingFrequency   int
	AddDiscounts       []DiscountAdd
	UpdateDiscounts    []DiscountUpdate
	// RemoveDiscounts are external discount ids
	RemoveDiscounts []string
}

type SubscriptionResult struct {
	ID     string
	Status types.SubscriptionStatus
	// Dates left nil are not reported by the processor
	FirstBillingDate *time.Time
	NextBillingDate  *time.Time
	PaidThroughDate  *time.Time
	Discounts        []DiscountResult
}

// DiscountResult is a discount as attached on the processor side.
type DiscountResult struct {
	ID                    string
	LocalID               string
	CatalogID             string
	Amount                decimal.Decimal
	NumberOfBillingCycles int
}

type TransactionResult struct {
	ID                    string
	Kind                  types.TransactionKind
	Status                types.TransactionStatus
	Amount                decimal.Decimal
	Currency              string
	SubscriptionID        string
	RefundedTransactionID string
	CreatedAt             time.Time
}

type PlanResult struct {
	ID               string
	Name             string
	Price            decimal.Decimal
	Currency         string
	BillingFrequency int
}
