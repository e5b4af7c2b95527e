package discount

import (
	"context"
	"testing"
	"time"

	"github.com/flexprice/billsync/internal/domain/coupon"
	"github.com/flexprice/billsync/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func target(price string) Target {
	return Target{Price: dec(price), StartDate: date(2017, 1, 10)}
}

func TestBuildAmount(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		amount   string
		expected *decimal.Decimal
	}{
		{name: "below price", price: "19.90", amount: "5", expected: lo.ToPtr(dec("5"))},
		{name: "capped to price", price: "19.90", amount: "20", expected: lo.ToPtr(dec("19.90"))},
		{name: "rounded", price: "19.90", amount: "1.005", expected: lo.ToPtr(dec("1.01"))},
		{name: "zero", price: "19.90", amount: "0"},
		{name: "negative", price: "19.90", amount: "-3"},
		{name: "free subscription", price: "0", amount: "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := BuildAmount(target(tt.price), dec(tt.amount), 0)
			if tt.expected == nil {
				assert.Nil(t, d)
				return
			}
			require.NotNil(t, d)
			assert.True(t, tt.expected.Equal(d.Amount), "got %s", d.Amount)
			assert.Equal(t, types.DiscountKindAmount, d.Kind)
			assert.Equal(t, types.ProcessorStateUnsynced, d.Link.State)
		})
	}
}

func TestBuildPercent(t *testing.T) {
	d := BuildPercent(target("19.90"), dec("50"), 3)
	require.NotNil(t, d)
	assert.True(t, dec("9.95").Equal(d.Amount))
	assert.Equal(t, 3, d.NumberOfBillingCycles)

	d = BuildPercent(target("19.90"), dec("150"), 0)
	require.NotNil(t, d)
	assert.True(t, dec("19.90").Equal(d.Amount), "capped at the price")

	assert.Nil(t, BuildPercent(target("19.90"), dec("0"), 0))
	assert.Nil(t, BuildPercent(target("0.01"), dec("10"), 0), "rounds to zero")
}

func TestBuildInviter(t *testing.T) {
	invitees := func(verified, unverified int) []Invitee {
		var list []Invitee
		for i := 0; i < verified; i++ {
			list = append(list, Invitee{ID: types.GenerateUUID(), Verified: true})
		}
		for i := 0; i < unverified; i++ {
			list = append(list, Invitee{ID: types.GenerateUUID()})
		}
		return list
	}

	assert.Nil(t, BuildInviter(target("10"), invitees(0, 3)))

	d := BuildInviter(target("10"), invitees(2, 1))
	require.NotNil(t, d)
	assert.True(t, dec("4").Equal(d.Amount))
	assert.True(t, dec("40").Equal(*d.Percent))
	assert.Len(t, d.InviteeIDs, 2)

	d = BuildInviter(target("10"), invitees(7, 0))
	require.NotNil(t, d)
	assert.True(t, dec("100").Equal(*d.Percent))
	assert.True(t, dec("10").Equal(d.Amount))
}

func TestBuildCoupon(t *testing.T) {
	ctx := context.Background()
	now := date(2017, 1, 10)

	t.Run("fixed coupon capped", func(t *testing.T) {
		c := coupon.NewFixed(ctx, "Welcome", "WELCOME", dec("25"))
		d := BuildCoupon(target("19.90"), c, "cust_1", now)
		require.NotNil(t, d)
		assert.True(t, dec("19.90").Equal(d.Amount))
		assert.Equal(t, c.ID, d.CouponID)
		assert.Equal(t, types.DiscountKindCoupon, d.Kind)
		assert.Equal(t, types.DiscountKindCoupon.DefaultCatalogID(), d.CatalogID)
	})

	t.Run("percentage coupon with processor id", func(t *testing.T) {
		c := coupon.NewPercentage(ctx, "Half", "HALF", dec("50"))
		c.ProcessorID = "half_off"
		d := BuildCoupon(target("10"), c, "cust_1", now)
		require.NotNil(t, d)
		assert.True(t, dec("5").Equal(d.Amount))
		assert.Equal(t, "half_off", d.CatalogID)
	})

	t.Run("not started yet never builds", func(t *testing.T) {
		for _, value := range []string{"0.01", "5", "100"} {
			fixed := coupon.NewFixed(ctx, "Soon", "SOON", dec(value))
			fixed.StartAt = lo.ToPtr(now.AddDate(0, 0, 1))
			assert.Nil(t, BuildCoupon(target("10"), fixed, "cust_1", now))

			percent := coupon.NewPercentage(ctx, "Soon", "SOON%", dec(value))
			percent.StartAt = lo.ToPtr(now.Add(time.Second))
			assert.Nil(t, BuildCoupon(target("10"), percent, "cust_1", now))
		}
	})

	t.Run("expired", func(t *testing.T) {
		c := coupon.NewFixed(ctx, "Old", "OLD", dec("5"))
		c.ExpireAt = lo.ToPtr(now.AddDate(0, 0, -1))
		assert.Nil(t, BuildCoupon(target("10"), c, "cust_1", now))
	})

	t.Run("use limit reached", func(t *testing.T) {
		c := coupon.NewFixed(ctx, "Limited", "LIMITED", dec("5"))
		c.UsedCountMax = lo.ToPtr(2)
		c.UsedCount = 2
		assert.Nil(t, BuildCoupon(target("10"), c, "cust_1", now))
	})

	t.Run("restricted coupon used by customer", func(t *testing.T) {
		c := coupon.NewFixed(ctx, "Once", "ONCE", dec("5"))
		c.Restricted = true
		d := BuildCoupon(target("10"), c, "cust_1", now)
		require.NotNil(t, d)
		assert.Equal(t, types.DiscountKindCouponRestricted, d.Kind)

		c.RecordUse("cust_1", now)
		assert.Nil(t, BuildCoupon(target("10"), c, "cust_1", now))
		assert.NotNil(t, BuildCoupon(target("10"), c, "cust_2", now))
	})
}

func TestBuildPreviousSubscription(t *testing.T) {
	prev := Window{
		SubscriptionID: "subs_prev",
		Start:          date(2016, 8, 29),
		End:            date(2016, 9, 29),
		Price:          dec("10"),
	}

	tests := []struct {
		name     string
		start    time.Time
		price    string
		expected string
	}{
		// 10 * (1 - 16/31)
		{name: "inside window", start: date(2016, 9, 14), price: "10", expected: "4.84"},
		{name: "window start is full refund", start: date(2016, 8, 29), price: "10", expected: "10"},
		{name: "capped at new price", start: date(2016, 8, 29), price: "6", expected: "6"},
		{name: "window end is worth nothing", start: date(2016, 9, 29), price: "10"},
		{name: "after window", start: date(2016, 10, 27), price: "10"},
		{name: "before window", start: date(2016, 8, 1), price: "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := BuildPreviousSubscription(Target{Price: dec(tt.price), StartDate: tt.start}, prev)
			if tt.expected == "" {
				assert.Nil(t, d)
				return
			}
			require.NotNil(t, d)
			assert.True(t, dec(tt.expected).Equal(d.Amount), "got %s", d.Amount)
			assert.Equal(t, "subs_prev", d.PreviousSubscriptionID)
		})
	}
}

func TestBuildPreviousSubscription_EmptyWindow(t *testing.T) {
	prev := Window{Start: date(2016, 8, 29), End: date(2016, 8, 29), Price: dec("10")}
	assert.Nil(t, BuildPreviousSubscription(Target{Price: dec("10"), StartDate: date(2016, 8, 29)}, prev))
}

func TestBuilders_AmountNeverExceedsPrice(t *testing.T) {
	ctx := context.Background()
	now := date(2017, 1, 10)
	prices := []string{"0.01", "1", "19.90", "250"}
	values := []string{"0.005", "0.5", "19.89", "20", "99.99", "1000"}

	for _, p := range prices {
		tg := Target{Price: dec(p), StartDate: now}
		for _, v := range values {
			candidates := []*Discount{
				BuildAmount(tg, dec(v), 0),
				BuildPercent(tg, dec(v), 0),
				BuildCoupon(tg, coupon.NewFixed(ctx, "c", "c", dec(v)), "cust_1", now),
				BuildCoupon(tg, coupon.NewPercentage(ctx, "c", "c", dec(v)), "cust_1", now),
				BuildPreviousSubscription(tg, Window{Start: now.AddDate(0, 0, -5), End: now.AddDate(0, 1, 0), Price: dec(v)}),
			}
			for _, d := range lo.Compact(candidates) {
				assert.False(t, d.Amount.IsNegative(), "%s %s %s", d.Kind, p, v)
				assert.True(t, d.Amount.LessThanOrEqual(tg.Price), "%s price %s value %s got %s", d.Kind, p, v, d.Amount)
			}
		}
	}
}

func TestNeedsUsageRecord(t *testing.T) {
	d := &Discount{ID: "disc_1", Kind: types.DiscountKindCoupon, CouponID: "coupon_1", Link: types.NewProcessorLink()}
	assert.False(t, d.NeedsUsageRecord(), "not accepted by the processor yet")

	d.Link.MarkSynced("disc_ext_1")
	assert.True(t, d.NeedsUsageRecord())

	d.UsageRecorded = true
	assert.False(t, d.NeedsUsageRecord())

	amount := &Discount{ID: "disc_2", Kind: types.DiscountKindAmount, Link: types.NewProcessorLink()}
	amount.Link.MarkSynced("disc_ext_2")
	assert.False(t, amount.NeedsUsageRecord())
}
