package service

import (
	"context"
	"time"

	"github.com/flexprice/billsync/internal/domain/customer"
	"github.com/flexprice/billsync/internal/domain/discount"
	"github.com/flexprice/billsync/internal/domain/subscription"
	ierr "github.com/flexprice/billsync/internal/errors"
	"github.com/flexprice/billsync/internal/processor"
	"github.com/flexprice/billsync/internal/sentry"
	"github.com/flexprice/billsync/internal/types"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
)

// SyncService reconciles customer aggregates with the payment processor.
type SyncService interface {
	// Sync loads the customer, reconciles it and returns the stored result
	Sync(ctx context.Context, customerID string) (*customer.Customer, error)

	// SyncCustomer reconciles c in place. Progress is persisted after every
	// phase, so calling it again after a failure resumes where it stopped.
	SyncCustomer(ctx context.Context, c *customer.Customer) error
}

const (
	phaseCustomer       = "customer"
	phaseAddresses      = "addresses"
	phasePaymentMethods = "payment_methods"
	phaseSubscriptions  = "subscriptions"
	phaseTransactions   = "transactions"
)

type syncPhase struct {
	name string
	run  func(ctx context.Context, c *customer.Customer) error
}

type syncService struct {
	ServiceParams
	ledger CouponLedger
}

func NewSyncService(params ServiceParams, ledger CouponLedger) SyncService {
	return &syncService{
		ServiceParams: params,
		ledger:        ledger,
	}
}

func (s *syncService) Sync(ctx context.Context, customerID string) (*customer.Customer, error) {
	c, err := s.CustomerRepo.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.SyncCustomer(ctx, c); err != nil {
		return c, err
	}
	return c, nil
}

func (s *syncService) SyncCustomer(ctx context.Context, c *customer.Customer) error {
	if err := c.ValidateDefaultPaymentMethod(); err != nil {
		return err
	}

	changed := c.MarkChanged()
	s.Logger.Debugw("starting customer sync",
		"customer_id", c.ID,
		"locally_modified", changed)

	if err := s.save(ctx, c); err != nil {
		return err
	}

	phases := []syncPhase{
		{name: phaseCustomer, run: s.syncCustomerDocument},
		{name: phaseAddresses, run: s.syncAddresses},
		{name: phasePaymentMethods, run: s.syncPaymentMethods},
		{name: phaseSubscriptions, run: s.syncSubscriptions},
		{name: phaseTransactions, run: s.syncTransactions},
	}
	for _, phase := range phases {
		if err := s.runPhase(ctx, c, phase); err != nil {
			return err
		}
	}

	s.Logger.Infow("customer sync completed", "customer_id", c.ID)
	return nil
}

func (s *syncService) runPhase(ctx context.Context, c *customer.Customer, phase syncPhase) error {
	span, ctx := s.Sentry.StartSyncPhaseSpan(ctx, phase.name, c.ID)

	err := phase.run(ctx, c)

	// whatever the phase got done is kept, even when it failed
	if saveErr := s.save(ctx, c); saveErr != nil {
		if err == nil {
			err = saveErr
		} else {
			s.Logger.Errorw("failed to persist partial sync progress",
				"customer_id", c.ID,
				"phase", phase.name,
				"error", saveErr)
		}
	}

	sentry.FinishSpan(span, err)
	if err != nil {
		s.Logger.Errorw("sync phase failed",
			"customer_id", c.ID,
			"phase", phase.name,
			"hints", ierr.GetHints(err),
			"error", err)
		s.Sentry.CaptureException(err)
		return err
	}
	return nil
}

// save upserts the customer document.
func (s *syncService) save(ctx context.Context, c *customer.Customer) error {
	c.Touch(ctx)
	err := s.CustomerRepo.Update(ctx, c)
	if ierr.IsNotFound(err) {
		return s.CustomerRepo.Create(ctx, c)
	}
	return err
}

// fanOut runs fn for every item concurrently and returns the first error
// once all of them finished.
func fanOut[T any](ctx context.Context, items []T, fn func(ctx context.Context, item T) error) error {
	p := pool.New().WithErrors().WithFirstError().WithContext(ctx)
	for _, item := range items {
		p.Go(func(ctx context.Context) error {
			return fn(ctx, item)
		})
	}
	return p.Wait()
}

func needsSync(l types.ProcessorLink) bool {
	return l.NeedsCreate() || l.NeedsUpdate()
}

func requireCustomerSynced(c *customer.Customer) error {
	if c.Link.HasExternalID() {
		return nil
	}
	return ierr.NewError("customer is not synced").
		WithHintf("Customer %s has no processor id yet", c.ID).
		Mark(ierr.ErrInvalidState)
}

func (s *syncService) syncCustomerDocument(ctx context.Context, c *customer.Customer) error {
	if !needsSync(c.Link) {
		return nil
	}

	req := processor.CustomerRequest{
		LocalID:   c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		IPAddress: c.IPAddress,
	}
	if pm := c.DefaultPaymentMethod(); pm != nil && pm.Link.HasExternalID() {
		req.DefaultPaymentMethodToken = pm.Link.ExternalID
	}

	var (
		res *processor.CustomerResult
		err error
	)
	if c.Link.NeedsCreate() {
		s.notify(ctx, types.EventEntityCustomer, types.EventActionCreating, c.ID, c.ID, nil)
		res, err = s.Processor.CreateCustomer(ctx, req)
	} else {
		s.notify(ctx, types.EventEntityCustomer, types.EventActionUpdating, c.ID, c.ID, nil)
		res, err = s.Processor.UpdateCustomer(ctx, c.Link.ExternalID, req)
	}
	if err != nil {
		return err
	}

	c.Link.MarkSynced(res.ID)
	c.RememberCustomer()
	s.notify(ctx, types.EventEntityCustomer, types.EventActionSaved, c.ID, c.ID, map[string]any{
		"processor_id": c.Link.ExternalID,
	})
	return nil
}

func (s *syncService) syncAddresses(ctx context.Context, c *customer.Customer) error {
	pending := lo.Filter(c.Addresses, func(a *customer.Address, _ int) bool {
		return needsSync(a.Link)
	})
	if len(pending) == 0 {
		return nil
	}
	if err := requireCustomerSynced(c); err != nil {
		return err
	}

	return fanOut(ctx, pending, func(ctx context.Context, a *customer.Address) error {
		req := processor.AddressRequest{
			LocalID:         a.ID,
			FirstName:       a.FirstName,
			LastName:        a.LastName,
			Company:         a.Company,
			StreetAddress:   a.StreetAddress,
			ExtendedAddress: a.ExtendedAddress,
			Locality:        a.Locality,
			Region:          a.Region,
			PostalCode:      a.PostalCode,
			CountryCode:     a.CountryCode,
		}

		var (
			res *processor.AddressResult
			err error
		)
		if a.Link.NeedsCreate() {
			s.notify(ctx, types.EventEntityAddress, types.EventActionCreating, c.ID, a.ID, nil)
			res, err = s.Processor.CreateAddress(ctx, c.Link.ExternalID, req)
		} else {
			s.notify(ctx, types.EventEntityAddress, types.EventActionUpdating, c.ID, a.ID, nil)
			res, err = s.Processor.UpdateAddress(ctx, c.Link.ExternalID, a.Link.ExternalID, req)
		}
		if err != nil {
			return err
		}

		a.Link.MarkSynced(res.ID)
		c.RememberAddress(a)
		s.notify(ctx, types.EventEntityAddress, types.EventActionSaved, c.ID, a.ID, nil)
		return nil
	})
}

func (s *syncService) syncPaymentMethods(ctx context.Context, c *customer.Customer) error {
	pending := lo.Filter(c.PaymentMethods, func(pm *customer.PaymentMethod, _ int) bool {
		return needsSync(pm.Link)
	})
	if len(pending) == 0 {
		return nil
	}
	if err := requireCustomerSynced(c); err != nil {
		return err
	}

	return fanOut(ctx, pending, func(ctx context.Context, pm *customer.PaymentMethod) error {
		req := processor.PaymentMethodRequest{
			LocalID:         pm.ID,
			CustomerID:      c.Link.ExternalID,
			Nonce:           pm.Nonce,
			CardholderName:  pm.CardholderName,
			ExpirationMonth: pm.ExpirationMonth,
			ExpirationYear:  pm.ExpirationYear,
			MakeDefault:     c.DefaultPaymentMethodID == pm.ID,
		}
		if pm.BillingAddressID != "" {
			a := c.AddressByID(pm.BillingAddressID)
			if a == nil || !a.Link.HasExternalID() {
				return ierr.NewError("billing address is not synced").
					WithHintf("Billing address %s of payment method %s has no processor id", pm.BillingAddressID, pm.ID).
					Mark(ierr.ErrInvalidState)
			}
			req.BillingAddressID = a.Link.ExternalID
		}

		var (
			res *processor.PaymentMethodResult
			err error
		)
		if pm.Link.NeedsCreate() {
			if pm.Nonce == "" {
				return ierr.NewError("payment method has no nonce").
					WithHintf("Payment method %s needs a nonce to be created", pm.ID).
					Mark(ierr.ErrValidation)
			}
			s.notify(ctx, types.EventEntityPaymentMethod, types.EventActionCreating, c.ID, pm.ID, nil)
			res, err = s.Processor.CreatePaymentMethod(ctx, req)
		} else {
			s.notify(ctx, types.EventEntityPaymentMethod, types.EventActionUpdating, c.ID, pm.ID, nil)
			res, err = s.Processor.UpdatePaymentMethod(ctx, pm.Link.ExternalID, req)
		}
		if err != nil {
			return err
		}

		pm.ConsumeNonce()
		applyPaymentMethodResult(pm, res)
		pm.Link.MarkSynced(res.Token)
		c.RememberPaymentMethod(pm)
		s.notify(ctx, types.EventEntityPaymentMethod, types.EventActionSaved, c.ID, pm.ID, nil)
		return nil
	})
}

func applyPaymentMethodResult(pm *customer.PaymentMethod, res *processor.PaymentMethodResult) {
	if res.Kind != "" {
		pm.Kind = res.Kind
	}
	pm.CardType = res.CardType
	pm.Last4 = res.Last4
	pm.Email = res.Email
	if res.ExpirationMonth != 0 {
		pm.ExpirationMonth = res.ExpirationMonth
		pm.ExpirationYear = res.ExpirationYear
	}
	if res.CardholderName != "" {
		pm.CardholderName = res.CardholderName
	}
}

func (s *syncService) syncSubscriptions(ctx context.Context, c *customer.Customer) error {
	pending := lo.Filter(c.Subscriptions, func(sub *subscription.Subscription, _ int) bool {
		return !sub.Link.IsLocalOnly() && needsSync(sub.Link)
	})
	if len(pending) > 0 {
		if err := requireCustomerSynced(c); err != nil {
			return err
		}
		if err := fanOut(ctx, pending, func(ctx context.Context, sub *subscription.Subscription) error {
			return s.syncSubscription(ctx, c, sub)
		}); err != nil {
			return err
		}
	}

	// also picks up uses a previous sync failed to record
	unrecorded := lo.Filter(c.Subscriptions, func(sub *subscription.Subscription, _ int) bool {
		return lo.SomeBy(sub.Discounts, (*discount.Discount).NeedsUsageRecord)
	})
	return fanOut(ctx, unrecorded, func(ctx context.Context, sub *subscription.Subscription) error {
		return s.recordCouponUses(ctx, c, sub)
	})
}

// recordCouponUses counts every accepted coupon discount of sub in the
// coupon ledger. A discount is flagged only after its use was stored, so a
// failed write is retried by the next sync.
func (s *syncService) recordCouponUses(ctx context.Context, c *customer.Customer, sub *subscription.Subscription) error {
	for _, d := range sub.Discounts {
		if !d.NeedsUsageRecord() {
			continue
		}
		if err := s.ledger.RecordUse(ctx, c.ID, d); err != nil {
			return err
		}
		d.UsageRecorded = true
		s.notify(ctx, types.EventEntityDiscount, types.EventActionSaved, c.ID, d.ID, map[string]any{
			"subscription_id": sub.ID,
			"coupon_id":       d.CouponID,
		})
	}
	return nil
}

func (s *syncService) syncSubscription(ctx context.Context, c *customer.Customer, sub *subscription.Subscription) error {
	pm := c.PaymentMethodByID(sub.PaymentMethodID)
	if pm == nil || !pm.Link.HasExternalID() {
		return ierr.NewError("payment method is not synced").
			WithHintf("Payment method %s of subscription %s has no processor id", sub.PaymentMethodID, sub.ID).
			Mark(ierr.ErrInvalidState)
	}
	if sub.PlanProcessorID == "" {
		return ierr.NewError("plan is not synced").
			WithHintf("Plan %s of subscription %s has no processor id", sub.PlanID, sub.ID).
			Mark(ierr.ErrInvalidState)
	}

	var (
		res *processor.SubscriptionResult
		err error
	)
	if sub.Link.NeedsCreate() {
		s.notify(ctx, types.EventEntitySubscription, types.EventActionCreating, c.ID, sub.ID, nil)
		res, err = s.Processor.CreateSubscription(ctx, processor.SubscriptionRequest{
			LocalID:            sub.ID,
			CustomerID:         c.Link.ExternalID,
			PaymentMethodToken: pm.Link.ExternalID,
			PlanID:             sub.PlanProcessorID,
			Price:              sub.Price,
			Currency:           sub.Currency,
			BillingFrequency:   sub.BillingFrequency,
			FirstBillingDate:   futureBillingDate(sub.FirstBillingDate, s.now()),
			Discounts:          lo.Map(sub.Discounts, toDiscountAdd),
		})
	} else {
		original, _ := c.OriginalSubscription(sub.ID)
		diff := subscription.ComputeDiscountDiff(original, sub)

		s.notify(ctx, types.EventEntitySubscription, types.EventActionUpdating, c.ID, sub.ID, map[string]any{
			"discounts_added":   len(diff.Add),
			"discounts_updated": len(diff.Update),
			"discounts_removed": len(diff.Remove),
		})
		res, err = s.Processor.UpdateSubscription(ctx, sub.Link.ExternalID, processor.SubscriptionUpdateRequest{
			PaymentMethodToken: pm.Link.ExternalID,
			PlanID:             sub.PlanProcessorID,
			Price:              sub.Price,
			Currency:           sub.Currency,
			BillingFrequency:   sub.BillingFrequency,
			AddDiscounts:       lo.Map(diff.Add, toDiscountAdd),
			UpdateDiscounts: lo.Map(diff.Update, func(d *discount.Discount, _ int) processor.DiscountUpdate {
				return processor.DiscountUpdate{
					LocalID:               d.ID,
					ExternalID:            d.Link.ExternalID,
					CatalogID:             d.CatalogID,
					Name:                  d.Name,
					Amount:                d.Amount,
					NumberOfBillingCycles: d.NumberOfBillingCycles,
				}
			}),
			RemoveDiscounts: lo.Map(diff.Remove, func(snap discount.Snapshot, _ int) string {
				return snap.ExternalID
			}),
		})
	}
	if err != nil {
		return err
	}

	mergeSubscriptionResult(sub, res, s.now())
	c.RememberSubscription(sub)
	s.notify(ctx, types.EventEntitySubscription, types.EventActionSaved, c.ID, sub.ID, map[string]any{
		"status": sub.Status,
	})
	return nil
}

// futureBillingDate drops first billing dates that are not after today, the
// processor starts billing immediately in that case.
func futureBillingDate(date *time.Time, now time.Time) *time.Time {
	if date == nil || !types.StartOfDay(*date).After(types.StartOfDay(now)) {
		return nil
	}
	return date
}

func toDiscountAdd(d *discount.Discount, _ int) processor.DiscountAdd {
	return processor.DiscountAdd{
		LocalID:               d.ID,
		CatalogID:             d.CatalogID,
		Name:                  d.Name,
		Amount:                d.Amount,
		NumberOfBillingCycles: d.NumberOfBillingCycles,
	}
}

// mergeSubscriptionResult copies what the processor reported back onto sub.
// Dates and status the processor leaves out keep their local values.
func mergeSubscriptionResult(sub *subscription.Subscription, res *processor.SubscriptionResult, now time.Time) {
	sub.Link.MarkSynced(res.ID)

	if res.Status != "" {
		sub.SetStatus(res.Status, now)
	}
	if res.FirstBillingDate != nil {
		sub.FirstBillingDate = lo.ToPtr(res.FirstBillingDate.UTC())
	}
	if res.NextBillingDate != nil {
		sub.NextBillingDate = lo.ToPtr(res.NextBillingDate.UTC())
	}
	if res.PaidThroughDate != nil {
		sub.PaidThroughDate = lo.ToPtr(res.PaidThroughDate.UTC())
	}

	confirmed := lo.SliceToMap(res.Discounts, func(r processor.DiscountResult) (string, processor.DiscountResult) {
		return r.LocalID, r
	})
	for _, d := range sub.Discounts {
		if r, ok := confirmed[d.ID]; ok {
			d.Link.MarkSynced(r.ID)
		}
	}
}

func (s *syncService) syncTransactions(ctx context.Context, c *customer.Customer) error {
	if !c.Link.HasExternalID() {
		return nil
	}

	results, err := s.Processor.ListTransactions(ctx, c.Link.ExternalID)
	if err != nil {
		return err
	}

	added := c.AppendTransactions(lo.Map(results, func(r *processor.TransactionResult, _ int) *customer.Transaction {
		return customer.NewSyncedTransaction(r.ID)
	}))
	if len(added) == 0 {
		return nil
	}

	resolveTransactions(c, results, added)
	for _, t := range added {
		s.notify(ctx, types.EventEntityTransaction, types.EventActionSaved, c.ID, t.ID, map[string]any{
			"kind":   t.Kind,
			"amount": t.Amount.String(),
		})
	}

	s.Logger.Debugw("recorded processor transactions",
		"customer_id", c.ID,
		"count", len(added))
	return nil
}

// resolveTransactions fills the added transactions from their processor
// results, turning processor references into local ids.
func resolveTransactions(c *customer.Customer, results []*processor.TransactionResult, added []*customer.Transaction) {
	byExternal := lo.SliceToMap(results, func(r *processor.TransactionResult) (string, *processor.TransactionResult) {
		return r.ID, r
	})
	localTxn := lo.SliceToMap(c.Transactions, func(t *customer.Transaction) (string, string) {
		return t.Link.ExternalID, t.ID
	})
	localSub := make(map[string]string, len(c.Subscriptions))
	for _, sub := range c.Subscriptions {
		if sub.Link.HasExternalID() {
			localSub[sub.Link.ExternalID] = sub.ID
		}
	}

	for _, t := range added {
		r, ok := byExternal[t.Link.ExternalID]
		if !ok {
			continue
		}
		t.Kind = r.Kind
		t.Status = r.Status
		t.Amount = types.RoundMoney(r.Amount)
		t.Currency = r.Currency
		t.ProcessedAt = r.CreatedAt.UTC()
		t.SubscriptionID = localSub[r.SubscriptionID]
		t.RefundedTransactionID = localTxn[r.RefundedTransactionID]
	}
}
