package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/flexprice/billsync/internal/config"
	ierr "github.com/flexprice/billsync/internal/errors"
	"github.com/flexprice/billsync/internal/logger"
	"github.com/flexprice/billsync/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPlanService struct {
	service.PlanService
	calls atomic.Int32
	errs  []error
}

func (s *stubPlanService) SyncPlans(context.Context) (*service.SyncPlansResult, error) {
	n := int(s.calls.Add(1))
	if n <= len(s.errs) && s.errs[n-1] != nil {
		return nil, s.errs[n-1]
	}
	return &service.SyncPlansResult{}, nil
}

func newTestRefresher(plans service.PlanService, interval time.Duration) *CatalogRefresher {
	cfg := &config.Configuration{Catalog: config.CatalogConfig{RefreshInterval: interval}}
	r := NewCatalogRefresher(plans, cfg, logger.NewNoopLogger(), nil)
	r.newBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3)
	}
	return r
}

func TestRefreshOnce_RetriesTransportFailures(t *testing.T) {
	transport := ierr.WithError(errors.New("connection reset")).Mark(ierr.ErrTransport)
	plans := &stubPlanService{errs: []error{transport, transport}}

	err := newTestRefresher(plans, 0).RefreshOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), plans.calls.Load())
}

func TestRefreshOnce_StopsOnRejection(t *testing.T) {
	rejection := ierr.NewError("invalid api key").Mark(ierr.ErrProcessorRejection)
	plans := &stubPlanService{errs: []error{rejection}}

	err := newTestRefresher(plans, 0).RefreshOnce(context.Background())
	require.Error(t, err)
	assert.True(t, ierr.IsProcessorRejection(err))
	assert.Equal(t, int32(1), plans.calls.Load())
}

func TestRefreshOnce_GivesUp(t *testing.T) {
	transport := ierr.WithError(errors.New("timeout")).Mark(ierr.ErrTransport)
	plans := &stubPlanService{errs: []error{transport, transport, transport, transport, transport}}

	err := newTestRefresher(plans, 0).RefreshOnce(context.Background())
	require.Error(t, err)
	assert.True(t, ierr.IsTransport(err))
	assert.Equal(t, int32(4), plans.calls.Load())
}

func TestStartStop(t *testing.T) {
	plans := &stubPlanService{}
	r := newTestRefresher(plans, time.Hour)

	r.Start()
	assert.Eventually(t, func() bool { return plans.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Stop(ctx))
	require.NoError(t, r.Stop(ctx))
}

func TestStart_DisabledWithoutInterval(t *testing.T) {
	plans := &stubPlanService{}
	r := newTestRefresher(plans, 0)

	r.Start()
	require.NoError(t, r.Stop(context.Background()))
	assert.Equal(t, int32(0), plans.calls.Load())
}
