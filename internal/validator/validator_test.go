package validator

import (
	"testing"

	ierr "github.com/flexprice/billsync/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type refundRequest struct {
	TransactionID string          `validate:"required"`
	Amount        decimal.Decimal `validate:"gt=0"`
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(refundRequest{TransactionID: "txn_1", Amount: decimal.NewFromFloat(1.5)}))

	err := ValidateRequest(refundRequest{Amount: decimal.NewFromInt(1)})
	assert.True(t, ierr.IsValidation(err))

	err = ValidateRequest(refundRequest{TransactionID: "txn_1", Amount: decimal.NewFromInt(-1)})
	assert.True(t, ierr.IsValidation(err))
}
