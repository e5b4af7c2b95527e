package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderKeepsMessage(t *testing.T) {
	err := NewError("Card declined").
		WithHint("The payment processor rejected create payment method").
		WithOperation("create payment method").
		WithReportableDetails(map[string]any{"payment_method_id": "pm_1"}).
		Mark(ErrProcessorRejection)

	assert.Equal(t, "Card declined", err.Error())
	assert.True(t, IsProcessorRejection(err))
	assert.False(t, IsTransport(err))
	assert.Equal(t, []string{"The payment processor rejected create payment method"}, GetHints(err))
}

func TestSentinels(t *testing.T) {
	tests := []struct {
		name  string
		mark  error
		check func(error) bool
	}{
		{name: "not found", mark: ErrNotFound, check: IsNotFound},
		{name: "already exists", mark: ErrAlreadyExists, check: IsAlreadyExists},
		{name: "validation", mark: ErrValidation, check: IsValidation},
		{name: "invalid state", mark: ErrInvalidState, check: IsInvalidState},
		{name: "transport", mark: ErrTransport, check: IsTransport},
		{name: "database", mark: ErrDatabase, check: IsDatabase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewError("boom").Mark(tt.mark)
			assert.True(t, tt.check(err))
			assert.True(t, Is(err, tt.mark))
			assert.False(t, IsProcessorRejection(err))
		})
	}
}
