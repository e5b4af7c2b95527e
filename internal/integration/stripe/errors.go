package stripe

import (
	"errors"

	"github.com/flexprice/billsync/internal/processor"
	"github.com/stripe/stripe-go/v82"
)

// classify maps a stripe error onto the processor error classes. Errors the
// API answered with a client status are rejections, everything else is a
// transport failure.
func classify(err error, operation string) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) &&
		stripeErr.Type != stripe.ErrorTypeAPI &&
		stripeErr.HTTPStatusCode > 0 && stripeErr.HTTPStatusCode < 500 {
		return processor.Rejection(stripeErr.Msg, operation)
	}
	return processor.Transport(err, operation)
}
