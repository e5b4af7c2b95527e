package customer

import (
	"time"

	"github.com/flexprice/billsync/internal/types"
	"github.com/shopspring/decimal"
)

// Transaction is a charge or refund sourced from the processor. Transactions
// are never modified once recorded.
type Transaction struct {
	ID     string                  `json:"id"`
	Kind   types.TransactionKind   `json:"kind"`
	Status types.TransactionStatus `json:"status"`

	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`

	SubscriptionID string `json:"subscription_id,omitempty"`

	// RefundedTransactionID is set on credits and points at the refunded sale
	RefundedTransactionID string `json:"refunded_transaction_id,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`

	Link types.ProcessorLink `json:"processor"`
}

// NewSyncedTransaction records a transaction reported by the processor.
func NewSyncedTransaction(externalID string) *Transaction {
	t := &Transaction{
		ID:   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TRANSACTION),
		Link: types.NewProcessorLink(),
	}
	t.Link.MarkSynced(externalID)
	return t
}
