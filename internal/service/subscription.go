package service

import (
	"context"
	"time"

	"github.com/flexprice/billsync/internal/domain/customer"
	"github.com/flexprice/billsync/internal/domain/discount"
	"github.com/flexprice/billsync/internal/domain/plan"
	"github.com/flexprice/billsync/internal/domain/subscription"
	ierr "github.com/flexprice/billsync/internal/errors"
	"github.com/flexprice/billsync/internal/types"
	"github.com/flexprice/billsync/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// SubscribeRequest asks for a new subscription on a customer.
type SubscribeRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	PlanID     string `json:"plan_id" validate:"required"`
	// PaymentMethodID is required unless the subscription is a trial
	PaymentMethodID string `json:"payment_method_id" validate:"required_without=TrialDays"`
	TrialDays       int    `json:"trial_days" validate:"gte=0"`

	Discount DiscountRequest `json:"discount"`
}

// DiscountRequest lists the discounts a subscriber asks for. Only the single
// best of them, or of the subscription's existing discounts, is kept.
type DiscountRequest struct {
	Amount  *decimal.Decimal `json:"amount,omitempty"`
	Percent *decimal.Decimal `json:"percent,omitempty"`
	// NumberOfBillingCycles applies to Amount and Percent, 0 means forever
	NumberOfBillingCycles int                `json:"number_of_billing_cycles" validate:"gte=0"`
	CouponCode            string             `json:"coupon_code,omitempty"`
	Invitees              []discount.Invitee `json:"invitees,omitempty"`
}

type SubscriptionService interface {
	Subscribe(ctx context.Context, req SubscribeRequest) (*subscription.Subscription, error)
	Cancel(ctx context.Context, customerID, subscriptionID string) (*subscription.Subscription, error)
}

type subscriptionService struct {
	ServiceParams
}

func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{ServiceParams: params}
}

func (s *subscriptionService) Subscribe(ctx context.Context, req SubscribeRequest) (*subscription.Subscription, error) {
	if err := validator.ValidateRequest(req); err != nil {
		return nil, err
	}

	c, err := s.CustomerRepo.Get(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	p, err := s.PlanRepo.Get(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var sub *subscription.Subscription
	if req.TrialDays > 0 {
		sub, err = s.newTrial(ctx, p, req, now)
	} else {
		sub, err = s.newPaid(ctx, c, p, req, now)
	}
	if err != nil {
		return nil, err
	}

	c.AddSubscription(sub)
	c.Touch(ctx)
	if err := s.CustomerRepo.Update(ctx, c); err != nil {
		return nil, err
	}

	s.Logger.Infow("subscription created",
		"customer_id", c.ID,
		"subscription_id", sub.ID,
		"plan_id", p.ID,
		"is_trial", sub.IsTrial,
		"discounts", len(sub.Discounts))
	s.notify(ctx, types.EventEntitySubscription, types.EventActionSaved, c.ID, sub.ID, map[string]any{
		"status":  sub.Status,
		"plan_id": p.ID,
	})
	return sub, nil
}

// newTrial builds a trial that never reaches the processor.
func (s *subscriptionService) newTrial(ctx context.Context, p *plan.Plan, req SubscribeRequest, now time.Time) (*subscription.Subscription, error) {
	sub := subscription.New(ctx, p, req.PaymentMethodID, now)
	sub.IsTrial = true
	sub.TrialDays = req.TrialDays
	sub.Link = types.LocalOnlyLink()
	if err := sub.InitializeDates(now); err != nil {
		return nil, err
	}
	sub.SetStatus(types.SubscriptionStatusActive, now)
	return sub, nil
}

func (s *subscriptionService) newPaid(ctx context.Context, c *customer.Customer, p *plan.Plan, req SubscribeRequest, now time.Time) (*subscription.Subscription, error) {
	if c.PaymentMethodByID(req.PaymentMethodID) == nil {
		return nil, ierr.NewError("payment method not found on customer").
			WithHintf("Payment method %s does not belong to customer %s", req.PaymentMethodID, c.ID).
			Mark(ierr.ErrValidation)
	}
	if !p.IsSynced() {
		return nil, ierr.NewError("plan is not synced").
			WithHintf("Plan %s has no processor id", p.ID).
			Mark(ierr.ErrInvalidState)
	}

	decision := subscription.ComputeStartDate(c.Subscriptions, p, now)

	sub := subscription.New(ctx, p, req.PaymentMethodID, now)
	start := now
	if decision.StartDate != nil {
		start = *decision.StartDate
	}
	if err := sub.InitializeDates(start); err != nil {
		return nil, err
	}

	candidates, err := s.buildDiscounts(ctx, c, sub, req.Discount, now)
	if err != nil {
		return nil, err
	}
	if decision.Upgraded != nil {
		if window, ok := decision.Upgraded.PaidWindow(); ok {
			candidates = append(candidates, discount.BuildPreviousSubscription(sub.DiscountTarget(now), window))
		}
	}
	sub.AddDiscounts(candidates...)
	return sub, nil
}

// buildDiscounts returns a candidate per requested discount; candidates
// worth nothing are nil.
func (s *subscriptionService) buildDiscounts(ctx context.Context, c *customer.Customer, sub *subscription.Subscription, req DiscountRequest, now time.Time) ([]*discount.Discount, error) {
	target := sub.DiscountTarget(now)

	var candidates []*discount.Discount
	if req.Amount != nil {
		candidates = append(candidates, discount.BuildAmount(target, *req.Amount, req.NumberOfBillingCycles))
	}
	if req.Percent != nil {
		candidates = append(candidates, discount.BuildPercent(target, *req.Percent, req.NumberOfBillingCycles))
	}
	if len(req.Invitees) > 0 {
		candidates = append(candidates, discount.BuildInviter(target, req.Invitees))
	}
	if req.CouponCode != "" {
		cp, err := s.CouponRepo.GetByCode(ctx, req.CouponCode)
		if err != nil {
			return nil, err
		}
		d := discount.BuildCoupon(target, cp, c.ID, now)
		if d == nil {
			s.Logger.Infow("coupon not applicable",
				"customer_id", c.ID,
				"coupon_id", cp.ID)
		}
		candidates = append(candidates, d)
	}
	return lo.Compact(candidates), nil
}

func (s *subscriptionService) Cancel(ctx context.Context, customerID, subscriptionID string) (*subscription.Subscription, error) {
	c, err := s.CustomerRepo.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	sub := c.SubscriptionByID(subscriptionID)
	if sub == nil {
		return nil, ierr.NewError("subscription not found").
			WithHintf("Subscription %s not found on customer %s", subscriptionID, customerID).
			Mark(ierr.ErrNotFound)
	}
	if sub.Status == types.SubscriptionStatusCanceled {
		return nil, ierr.NewError("subscription is already canceled").
			WithHintf("Subscription %s is already canceled", sub.ID).
			Mark(ierr.ErrInvalidState)
	}

	now := s.now()
	s.notify(ctx, types.EventEntitySubscription, types.EventActionCanceling, c.ID, sub.ID, nil)

	switch {
	case sub.Link.IsLocalOnly():
		sub.SetStatus(types.SubscriptionStatusCanceled, now)
	case !sub.Link.HasExternalID():
		return nil, ierr.NewError("subscription is not synced").
			WithHintf("Subscription %s has no processor id and cannot be canceled", sub.ID).
			Mark(ierr.ErrInvalidState)
	default:
		res, err := s.Processor.CancelSubscription(ctx, sub.Link.ExternalID)
		if err != nil {
			s.Logger.Errorw("failed to cancel subscription",
				"customer_id", c.ID,
				"subscription_id", sub.ID,
				"error", err)
			return nil, err
		}
		if res.Status == "" {
			res.Status = types.SubscriptionStatusCanceled
		}
		mergeSubscriptionResult(sub, res, now)
		c.RememberSubscription(sub)
	}

	c.Touch(ctx)
	if err := s.CustomerRepo.Update(ctx, c); err != nil {
		return nil, err
	}

	s.notify(ctx, types.EventEntitySubscription, types.EventActionCanceled, c.ID, sub.ID, map[string]any{
		"status": sub.Status,
	})
	return sub, nil
}
