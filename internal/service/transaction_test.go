package service

import (
	"testing"

	"github.com/flexprice/billsync/internal/domain/customer"
	ierr "github.com/flexprice/billsync/internal/errors"
	"github.com/flexprice/billsync/internal/processor"
	"github.com/flexprice/billsync/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type TransactionServiceSuite struct {
	serviceSuite
	customer *customer.Customer
	sale     *customer.Transaction
}

func TestTransactionService(t *testing.T) {
	suite.Run(t, new(TransactionServiceSuite))
}

func (s *TransactionServiceSuite) SetupTest() {
	s.serviceSuite.SetupTest()

	c := s.createCustomer()
	_, err := s.sync.Sync(s.GetContext(), c.ID)
	s.Require().NoError(err)
	c = s.loadCustomer(c.ID)

	s.GetProcessor().AddTransaction(c.Link.ExternalID, &processor.TransactionResult{
		ID:        "ch_1",
		Kind:      types.TransactionKindSale,
		Status:    types.TransactionStatusSettled,
		Amount:    decimal.NewFromInt(10),
		Currency:  "USD",
		CreatedAt: s.GetNow(),
	})
	s.customer, err = s.sync.Sync(s.GetContext(), c.ID)
	s.Require().NoError(err)
	s.Require().Len(s.customer.Transactions, 1)
	s.sale = s.customer.Transactions[0]
}

func (s *TransactionServiceSuite) TestRefund_Partial() {
	refund, err := s.transactions.Refund(s.GetContext(), s.customer.ID, s.sale.ID, decimalPtr("4"))
	s.Require().NoError(err)

	s.Equal(types.TransactionKindCredit, refund.Kind)
	s.True(refund.Amount.Equal(decimal.NewFromInt(4)))
	s.Equal(s.sale.ID, refund.RefundedTransactionID)
	s.True(refund.Link.IsSynced())

	stored := s.loadCustomer(s.customer.ID)
	s.Len(stored.Transactions, 2)
	s.True(s.GetSink().Has(types.EventEntityTransaction, types.EventActionRefunded))

	// the refund is already known, the next sync does not duplicate it
	_, err = s.sync.Sync(s.GetContext(), s.customer.ID)
	s.Require().NoError(err)
	s.Len(s.loadCustomer(s.customer.ID).Transactions, 2)
}

func (s *TransactionServiceSuite) TestRefund_Full() {
	refund, err := s.transactions.Refund(s.GetContext(), s.customer.ID, s.sale.ID, nil)
	s.Require().NoError(err)
	s.True(refund.Amount.Equal(decimal.NewFromInt(10)))
}

func (s *TransactionServiceSuite) TestRefund_Errors() {
	_, err := s.transactions.Refund(s.GetContext(), s.customer.ID, s.sale.ID, decimalPtr("10.01"))
	s.True(ierr.IsValidation(err))

	_, err = s.transactions.Refund(s.GetContext(), s.customer.ID, s.sale.ID, decimalPtr("0"))
	s.True(ierr.IsValidation(err))

	_, err = s.transactions.Refund(s.GetContext(), s.customer.ID, "txn_missing", nil)
	s.True(ierr.IsNotFound(err))

	c := s.loadCustomer(s.customer.ID)
	local := &customer.Transaction{
		ID:     "txn_local",
		Amount: decimal.NewFromInt(5),
		Link:   types.NewProcessorLink(),
	}
	c.Transactions = append(c.Transactions, local)
	s.Require().NoError(s.GetStores().CustomerRepo.Update(s.GetContext(), c))

	_, err = s.transactions.Refund(s.GetContext(), c.ID, local.ID, nil)
	s.True(ierr.IsInvalidState(err))

	s.Empty(s.GetProcessor().Calls("RefundTransaction"))
}
