package discount

import (
	"github.com/flexprice/billsync/internal/types"
	"github.com/shopspring/decimal"
)

// Discount is a discount attached to a subscription. Kind selects the
// variant; the payload fields that belong to other variants stay empty.
type Discount struct {
	ID   string             `json:"id"`
	Kind types.DiscountKind `json:"kind"`
	Name string             `json:"name"`

	// Amount is the discounted money per billing cycle, 0 <= Amount <= price
	Amount decimal.Decimal `json:"amount"`

	// NumberOfBillingCycles the discount applies for, 0 means forever
	NumberOfBillingCycles int `json:"number_of_billing_cycles"`

	// CatalogID is the processor catalog discount this one is attached under
	CatalogID string `json:"catalog_id"`

	// Variant payload
	RequestedAmount        *decimal.Decimal `json:"requested_amount,omitempty"`
	Percent                *decimal.Decimal `json:"percent,omitempty"`
	InviteeIDs             []string         `json:"invitee_ids,omitempty"`
	CouponID               string           `json:"coupon_id,omitempty"`
	PreviousSubscriptionID string           `json:"previous_subscription_id,omitempty"`

	Link types.ProcessorLink `json:"processor"`

	// UsageRecorded is set once the coupon ledger counted this application
	UsageRecorded bool `json:"usage_recorded,omitempty"`
}

// IsCouponBacked reports whether applying this discount consumes a coupon
func (d *Discount) IsCouponBacked() bool {
	return d.Kind.IsCouponBacked()
}

// NeedsUsageRecord reports whether the processor accepted this coupon backed
// discount but the coupon ledger has not counted it yet.
func (d *Discount) NeedsUsageRecord() bool {
	return d.IsCouponBacked() && d.Link.IsSynced() && !d.UsageRecorded
}

// Snapshot is the last synced view of a discount, kept to diff updates.
type Snapshot struct {
	ID                    string          `json:"id"`
	ExternalID            string          `json:"external_id"`
	CatalogID             string          `json:"catalog_id"`
	Amount                decimal.Decimal `json:"amount"`
	NumberOfBillingCycles int             `json:"number_of_billing_cycles"`
}

func (d *Discount) Snapshot() Snapshot {
	return Snapshot{
		ID:                    d.ID,
		ExternalID:            d.Link.ExternalID,
		CatalogID:             d.CatalogID,
		Amount:                d.Amount,
		NumberOfBillingCycles: d.NumberOfBillingCycles,
	}
}

// Differs reports whether the amount or cycle count changed since s.
func (s Snapshot) Differs(d *Discount) bool {
	return !s.Amount.Equal(d.Amount) || s.NumberOfBillingCycles != d.NumberOfBillingCycles
}
