package customer

import (
	"github.com/flexprice/billsync/internal/types"
)

// PaymentMethod is a stored payment instrument. Kind selects the variant;
// display fields of other variants stay empty.
type PaymentMethod struct {
	ID   string                  `json:"id"`
	Kind types.PaymentMethodKind `json:"kind"`

	// BillingAddressID references one of the customer's addresses
	BillingAddressID string `json:"billing_address_id,omitempty"`

	// Nonce is a one-time token from the client, cleared once synced
	Nonce string `json:"nonce,omitempty"`

	// Card variants
	CardType        string `json:"card_type,omitempty"`
	Last4           string `json:"last_4,omitempty"`
	ExpirationMonth int    `json:"expiration_month,omitempty"`
	ExpirationYear  int    `json:"expiration_year,omitempty"`
	CardholderName  string `json:"cardholder_name,omitempty"`

	// PayPal variant
	Email string `json:"email,omitempty"`

	Link types.ProcessorLink `json:"processor"`
}

func NewPaymentMethod(kind types.PaymentMethodKind, nonce string) *PaymentMethod {
	return &PaymentMethod{
		ID:    types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_METHOD),
		Kind:  kind,
		Nonce: nonce,
		Link:  types.NewProcessorLink(),
	}
}

// ConsumeNonce returns the nonce and clears it so it cannot be sent twice.
func (pm *PaymentMethod) ConsumeNonce() string {
	nonce := pm.Nonce
	pm.Nonce = ""
	return nonce
}

// PaymentMethodSnapshot holds the tracked fields of a payment method.
type PaymentMethodSnapshot struct {
	BillingAddressID string `json:"billing_address_id,omitempty"`
	CardholderName   string `json:"cardholder_name,omitempty"`
	ExpirationMonth  int    `json:"expiration_month,omitempty"`
	ExpirationYear   int    `json:"expiration_year,omitempty"`
	HasNonce         bool   `json:"has_nonce,omitempty"`
}

func (pm *PaymentMethod) Snapshot() PaymentMethodSnapshot {
	return PaymentMethodSnapshot{
		BillingAddressID: pm.BillingAddressID,
		CardholderName:   pm.CardholderName,
		ExpirationMonth:  pm.ExpirationMonth,
		ExpirationYear:   pm.ExpirationYear,
		HasNonce:         pm.Nonce != "",
	}
}
