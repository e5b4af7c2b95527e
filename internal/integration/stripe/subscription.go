package stripe

import (
	"context"
	"strings"
	"time"

	"github.com/flexprice/billsync/internal/idempotency"
	"github.com/flexprice/billsync/internal/processor"
	"github.com/flexprice/billsync/internal/types"
	"github.com/samber/lo"
	"github.com/stripe/stripe-go/v82"
)

// Discounts are attached as one-off stripe coupons holding the computed
// amount. Stripe coupons are immutable, so a changed discount is replaced by
// a new coupon. The coupons currently attached are tracked in the
// subscription metadata since discounts can only be set as a whole list.

func (c *Client) CreateSubscription(ctx context.Context, req processor.SubscriptionRequest) (*processor.SubscriptionResult, error) {
	couponIDs, discounts, err := c.createCoupons(ctx, req.Discounts, req.Currency, req.BillingFrequency)
	if err != nil {
		return nil, err
	}

	params := &stripe.SubscriptionCreateParams{
		Customer:             stripe.String(req.CustomerID),
		DefaultPaymentMethod: stripe.String(req.PaymentMethodToken),
		Items: []*stripe.SubscriptionCreateItemParams{
			{Price: stripe.String(req.PlanID)},
		},
	}
	// stripe has no deferred start; a trial until the first billing date
	// delays the first charge the same way
	if req.FirstBillingDate != nil && req.FirstBillingDate.After(time.Now()) {
		params.TrialEnd = stripe.Int64(req.FirstBillingDate.Unix())
	}
	for _, id := range couponIDs {
		params.Discounts = append(params.Discounts, &stripe.SubscriptionCreateDiscountParams{
			Coupon: stripe.String(id),
		})
	}
	params.AddMetadata(metadataSubscriptionID, req.LocalID)
	params.AddMetadata(metadataCoupons, strings.Join(couponIDs, ","))
	params.SetIdempotencyKey(c.keys.GenerateKey(idempotency.ScopeSubscriptionCreate, map[string]any{
		"local_id":       req.LocalID,
		"customer_id":    req.CustomerID,
		"payment_method": req.PaymentMethodToken,
		"plan_id":        req.PlanID,
		"coupons":        strings.Join(couponIDs, ","),
	}))

	sub, err := c.stripe.V1Subscriptions.Create(ctx, params)
	if err != nil {
		c.logger.Errorw("failed to create subscription in stripe",
			"subscription_id", req.LocalID,
			"processor_id", req.CustomerID,
			"error", err)
		return nil, classify(err, "create subscription")
	}

	result := toSubscriptionResult(sub)
	result.Discounts = discounts
	return result, nil
}

// UpdateSubscription applies a discount diff and payment or plan changes.
func (c *Client) UpdateSubscription(ctx context.Context, id string, req processor.SubscriptionUpdateRequest) (*processor.SubscriptionResult, error) {
	current, err := c.stripe.V1Subscriptions.Retrieve(ctx, id, nil)
	if err != nil {
		return nil, classify(err, "update subscription")
	}

	dropped := append(append([]string{}, req.RemoveDiscounts...),
		lo.Map(req.UpdateDiscounts, func(d processor.DiscountUpdate, _ int) string { return d.ExternalID })...)
	kept := lo.Without(splitCoupons(current.Metadata[metadataCoupons]), dropped...)

	added, discounts, err := c.createCoupons(ctx, append(append([]processor.DiscountAdd{}, req.AddDiscounts...), replacementDiscounts(req.UpdateDiscounts)...),
		req.Currency, req.BillingFrequency)
	if err != nil {
		return nil, err
	}

	params := &stripe.SubscriptionUpdateParams{}
	if req.PaymentMethodToken != "" {
		params.DefaultPaymentMethod = stripe.String(req.PaymentMethodToken)
	}
	if req.PlanID != "" && current.Items != nil && len(current.Items.Data) > 0 &&
		(current.Items.Data[0].Price == nil || current.Items.Data[0].Price.ID != req.PlanID) {
		params.Items = []*stripe.SubscriptionUpdateItemParams{
			{ID: stripe.String(current.Items.Data[0].ID), Price: stripe.String(req.PlanID)},
		}
	}

	attached := append(kept, added...)
	for _, couponID := range attached {
		params.Discounts = append(params.Discounts, &stripe.SubscriptionUpdateDiscountParams{
			Coupon: stripe.String(couponID),
		})
	}
	if len(attached) == 0 {
		// an empty list is not encoded, clear explicitly
		params.AddExtra("discounts", "")
	}
	params.AddMetadata(metadataCoupons, strings.Join(attached, ","))

	sub, err := c.stripe.V1Subscriptions.Update(ctx, id, params)
	if err != nil {
		c.logger.Errorw("failed to update subscription in stripe",
			"processor_id", id,
			"error", err)
		return nil, classify(err, "update subscription")
	}

	result := toSubscriptionResult(sub)
	result.Discounts = discounts
	return result, nil
}

func (c *Client) CancelSubscription(ctx context.Context, id string) (*processor.SubscriptionResult, error) {
	sub, err := c.stripe.V1Subscriptions.Cancel(ctx, id, nil)
	if err != nil {
		c.logger.Errorw("failed to cancel subscription in stripe",
			"processor_id", id,
			"error", err)
		return nil, classify(err, "cancel subscription")
	}
	return toSubscriptionResult(sub), nil
}

// createCoupons creates one coupon per discount, returning the coupon ids
// and the attached discounts in input order.
func (c *Client) createCoupons(ctx context.Context, adds []processor.DiscountAdd, currency string, billingFrequency int) ([]string, []processor.DiscountResult, error) {
	if currency == "" {
		currency = c.currency
	}

	ids := make([]string, 0, len(adds))
	results := make([]processor.DiscountResult, 0, len(adds))
	for _, d := range adds {
		params := &stripe.CouponCreateParams{
			Name:      stripe.String(couponName(d)),
			AmountOff: stripe.Int64(types.ToMinorUnits(d.Amount)),
			Currency:  stripe.String(strings.ToLower(currency)),
			Duration:  stripe.String(string(stripe.CouponDurationForever)),
		}
		if d.NumberOfBillingCycles > 0 {
			params.Duration = stripe.String(string(stripe.CouponDurationRepeating))
			params.DurationInMonths = stripe.Int64(int64(d.NumberOfBillingCycles * max(billingFrequency, 1)))
		}
		params.AddMetadata(metadataDiscountID, d.LocalID)
		params.AddMetadata(metadataCatalogID, d.CatalogID)
		params.SetIdempotencyKey(c.keys.GenerateKey(idempotency.ScopeDiscountCreate, map[string]any{
			"local_id": d.LocalID,
			"amount":   d.Amount.String(),
			"cycles":   d.NumberOfBillingCycles,
		}))

		coupon, err := c.stripe.V1Coupons.Create(ctx, params)
		if err != nil {
			c.logger.Errorw("failed to create discount coupon in stripe",
				"discount_id", d.LocalID,
				"catalog_id", d.CatalogID,
				"error", err)
			return nil, nil, classify(err, "attach discount")
		}

		ids = append(ids, coupon.ID)
		results = append(results, processor.DiscountResult{
			ID:                    coupon.ID,
			LocalID:               d.LocalID,
			CatalogID:             d.CatalogID,
			Amount:                d.Amount,
			NumberOfBillingCycles: d.NumberOfBillingCycles,
		})
	}
	return ids, results, nil
}

func toSubscriptionResult(sub *stripe.Subscription) *processor.SubscriptionResult {
	result := &processor.SubscriptionResult{
		ID:     sub.ID,
		Status: subscriptionStatus(sub.Status),
	}
	switch {
	case sub.TrialEnd > 0:
		result.FirstBillingDate = lo.ToPtr(types.StartOfDay(unixTime(sub.TrialEnd)))
	case sub.StartDate > 0:
		result.FirstBillingDate = lo.ToPtr(types.StartOfDay(unixTime(sub.StartDate)))
	}
	return result
}

func subscriptionStatus(status stripe.SubscriptionStatus) types.SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusActive:
		return types.SubscriptionStatusActive
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return types.SubscriptionStatusPastDue
	case stripe.SubscriptionStatusCanceled:
		return types.SubscriptionStatusCanceled
	case stripe.SubscriptionStatusIncompleteExpired:
		return types.SubscriptionStatusExpired
	default:
		return types.SubscriptionStatusPending
	}
}

// replacementDiscounts turns changed discounts into new coupons, stripe
// coupons cannot change their amount once created.
func replacementDiscounts(updates []processor.DiscountUpdate) []processor.DiscountAdd {
	return lo.Map(updates, func(d processor.DiscountUpdate, _ int) processor.DiscountAdd {
		return processor.DiscountAdd{
			LocalID:               d.LocalID,
			CatalogID:             d.CatalogID,
			Name:                  d.Name,
			Amount:                d.Amount,
			NumberOfBillingCycles: d.NumberOfBillingCycles,
		}
	})
}

func couponName(d processor.DiscountAdd) string {
	switch {
	case d.Name != "":
		return d.Name
	case d.CatalogID != "":
		return d.CatalogID
	default:
		return "Discount"
	}
}

func splitCoupons(value string) []string {
	return lo.Compact(strings.Split(value, ","))
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
