package types

// TransactionKind distinguishes charges from refunds.
type TransactionKind string

const (
	TransactionKindSale   TransactionKind = "sale"
	TransactionKindCredit TransactionKind = "credit"
)

// TransactionStatus mirrors the processor's settlement status.
type TransactionStatus string

const (
	TransactionStatusAuthorized TransactionStatus = "authorized"
	TransactionStatusSettled    TransactionStatus = "settled"
	TransactionStatusFailed     TransactionStatus = "failed"
	TransactionStatusRefunded   TransactionStatus = "refunded"
	TransactionStatusVoided     TransactionStatus = "voided"
)
