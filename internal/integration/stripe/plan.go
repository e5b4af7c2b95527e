package stripe

import (
	"context"
	"strings"

	"github.com/flexprice/billsync/internal/processor"
	"github.com/flexprice/billsync/internal/types"
	"github.com/stripe/stripe-go/v82"
)

// ListPlans returns the active recurring prices. Each stripe price is one
// plan; prices billed in days or weeks have no monthly frequency and are
// skipped.
func (c *Client) ListPlans(ctx context.Context) ([]*processor.PlanResult, error) {
	params := &stripe.PriceListParams{
		Active: stripe.Bool(true),
	}
	params.AddExpand("data.product")

	var results []*processor.PlanResult
	for price, err := range c.stripe.V1Prices.List(ctx, params) {
		if err != nil {
			c.logger.Errorw("failed to list prices in stripe", "error", err)
			return nil, classify(err, "list plans")
		}

		frequency := billingFrequency(price.Recurring)
		if frequency == 0 {
			continue
		}

		name := price.Nickname
		if name == "" && price.Product != nil {
			name = price.Product.Name
		}

		results = append(results, &processor.PlanResult{
			ID:               price.ID,
			Name:             name,
			Price:            types.FromMinorUnits(price.UnitAmount),
			Currency:         strings.ToUpper(string(price.Currency)),
			BillingFrequency: frequency,
		})
	}

	return results, nil
}

// billingFrequency converts a stripe recurring interval to months.
func billingFrequency(r *stripe.PriceRecurring) int {
	if r == nil {
		return 0
	}
	switch r.Interval {
	case stripe.PriceRecurringIntervalMonth:
		return int(r.IntervalCount)
	case stripe.PriceRecurringIntervalYear:
		return int(r.IntervalCount) * 12
	default:
		return 0
	}
}
