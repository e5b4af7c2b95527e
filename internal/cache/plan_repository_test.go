package cache

import (
	"context"
	"testing"

	"github.com/flexprice/billsync/internal/config"
	"github.com/flexprice/billsync/internal/domain/plan"
	"github.com/flexprice/billsync/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPlanRepo struct {
	plan.Repository
	gets  int
	lists int
}

func (r *countingPlanRepo) Get(ctx context.Context, id string) (*plan.Plan, error) {
	r.gets++
	return r.Repository.Get(ctx, id)
}

func (r *countingPlanRepo) List(ctx context.Context) ([]*plan.Plan, error) {
	r.lists++
	return r.Repository.List(ctx)
}

func newCachedPlans(t *testing.T, enabled bool) (*PlanRepository, *countingPlanRepo) {
	t.Helper()
	cfg := config.GetDefaultConfig()
	cfg.Cache.Enabled = enabled
	inner := &countingPlanRepo{Repository: testutil.NewInMemoryPlanStore()}
	return NewPlanRepository(inner, NewInMemoryCache(cfg)), inner
}

func TestPlanRepository_CachesReads(t *testing.T) {
	ctx := testutil.SetupContext()
	repo, inner := newCachedPlans(t, true)

	p := plan.New(ctx, "price_gold")
	p.ApplyCatalog("Gold", decimal.NewFromInt(20), "USD", 1)
	require.NoError(t, repo.Create(ctx, p))

	for i := 0; i < 3; i++ {
		got, err := repo.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Gold", got.Name)

		_, err = repo.List(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, inner.gets)
	assert.Equal(t, 1, inner.lists)

	p.Level = 2
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Level)
	assert.Equal(t, 2, inner.gets)
}

func TestPlanRepository_Disabled(t *testing.T) {
	ctx := testutil.SetupContext()
	repo, inner := newCachedPlans(t, false)

	p := plan.New(ctx, "price_gold")
	require.NoError(t, repo.Create(ctx, p))

	for i := 0; i < 3; i++ {
		_, err := repo.Get(ctx, p.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, inner.gets)
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "plan:v1::plan_1", GenerateKey(PrefixPlan, "plan_1"))
	assert.Equal(t, "plan_list:v1::all:2", GenerateKey(PrefixPlanList, "all", 2))
}
