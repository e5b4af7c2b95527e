package processor

import (
	ierr "github.com/flexprice/billsync/internal/errors"
)

// Rejection reports a business failure answered by the processor. The
// processor's message is kept as the error message.
func Rejection(message, operation string) error {
	return ierr.NewError(message).
		WithHintf("The payment processor rejected %s", operation).
		WithOperation(operation).
		Mark(ierr.ErrProcessorRejection)
}

// Transport reports a processor call that did not complete.
func Transport(err error, operation string) error {
	return ierr.WithError(err).
		WithHintf("The payment processor could not be reached for %s", operation).
		WithOperation(operation).
		Mark(ierr.ErrTransport)
}
