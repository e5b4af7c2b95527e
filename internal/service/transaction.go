package service

import (
	"context"

	"github.com/flexprice/billsync/internal/domain/customer"
	ierr "github.com/flexprice/billsync/internal/errors"
	"github.com/flexprice/billsync/internal/processor"
	"github.com/flexprice/billsync/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type TransactionService interface {
	// Refund refunds amount of the transaction, or all of it when amount is nil
	Refund(ctx context.Context, customerID, transactionID string, amount *decimal.Decimal) (*customer.Transaction, error)
}

type transactionService struct {
	ServiceParams
}

func NewTransactionService(params ServiceParams) TransactionService {
	return &transactionService{ServiceParams: params}
}

func (s *transactionService) Refund(ctx context.Context, customerID, transactionID string, amount *decimal.Decimal) (*customer.Transaction, error) {
	c, err := s.CustomerRepo.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	txn := c.TransactionByID(transactionID)
	if txn == nil {
		return nil, ierr.NewError("transaction not found").
			WithHintf("Transaction %s not found on customer %s", transactionID, customerID).
			Mark(ierr.ErrNotFound)
	}
	if !txn.Link.HasExternalID() {
		return nil, ierr.NewError("transaction is not synced").
			WithHintf("Transaction %s has no processor id", txn.ID).
			Mark(ierr.ErrInvalidState)
	}
	if amount != nil {
		if !amount.IsPositive() {
			return nil, ierr.NewError("refund amount must be positive").
				WithHintf("Invalid refund amount %s", amount.String()).
				Mark(ierr.ErrValidation)
		}
		if amount.GreaterThan(txn.Amount) {
			return nil, ierr.NewError("refund amount exceeds transaction amount").
				WithHintf("Cannot refund %s of a %s transaction", amount.String(), txn.Amount.String()).
				WithReportableDetails(map[string]any{
					"transaction_id": txn.ID,
					"amount":         amount.String(),
					"max_amount":     txn.Amount.String(),
				}).
				Mark(ierr.ErrValidation)
		}
	}

	s.notify(ctx, types.EventEntityTransaction, types.EventActionRefunding, c.ID, txn.ID, nil)

	res, err := s.Processor.RefundTransaction(ctx, txn.Link.ExternalID, amount)
	if err != nil {
		s.Logger.Errorw("refund failed",
			"customer_id", c.ID,
			"transaction_id", txn.ID,
			"error", err)
		return nil, err
	}

	if res.RefundedTransactionID == "" {
		res.RefundedTransactionID = txn.Link.ExternalID
	}
	added := c.AppendTransactions([]*customer.Transaction{customer.NewSyncedTransaction(res.ID)})
	resolveTransactions(c, []*processor.TransactionResult{res}, added)

	c.Touch(ctx)
	if err := s.CustomerRepo.Update(ctx, c); err != nil {
		return nil, err
	}

	refund, _ := lo.Find(c.Transactions, func(t *customer.Transaction) bool {
		return t.Link.ExternalID == res.ID
	})
	s.notify(ctx, types.EventEntityTransaction, types.EventActionRefunded, c.ID, refund.ID, map[string]any{
		"refunded_transaction_id": txn.ID,
		"amount":                  refund.Amount.String(),
	})
	return refund, nil
}
