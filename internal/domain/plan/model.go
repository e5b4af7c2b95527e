package plan

import (
	"context"

	"github.com/flexprice/billsync/internal/types"
	"github.com/shopspring/decimal"
)

// Plan is a product priced by the processor. Everything except Level is
// owned by the processor catalog and overwritten on every catalog sync.
type Plan struct {
	ID string `json:"id"`

	// ProcessorID is the plan's id in the processor catalog
	ProcessorID string `json:"processor_id"`

	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`

	// BillingFrequency is the length of one billing cycle in months
	BillingFrequency int `json:"billing_frequency"`

	// Level orders plans for upgrade and downgrade decisions. Local only.
	Level int `json:"level"`

	types.BaseModel
}

// New creates a local plan for a processor catalog entry.
func New(ctx context.Context, processorID string) *Plan {
	return &Plan{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		ProcessorID: processorID,
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}
}

// IsSynced reports whether the plan can be referenced in processor calls.
func (p *Plan) IsSynced() bool {
	return p != nil && p.ProcessorID != ""
}

// ApplyCatalog overwrites the processor owned fields. It reports whether
// anything changed.
func (p *Plan) ApplyCatalog(name string, price decimal.Decimal, currency string, billingFrequency int) bool {
	changed := p.Name != name ||
		!p.Price.Equal(price) ||
		p.Currency != currency ||
		p.BillingFrequency != billingFrequency

	p.Name = name
	p.Price = types.RoundMoney(price)
	p.Currency = currency
	p.BillingFrequency = billingFrequency
	return changed
}
