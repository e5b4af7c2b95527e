package worker

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/flexprice/billsync/internal/config"
	ierr "github.com/flexprice/billsync/internal/errors"
	"github.com/flexprice/billsync/internal/logger"
	"github.com/flexprice/billsync/internal/sentry"
	"github.com/flexprice/billsync/internal/service"
	"go.uber.org/fx"
)

// CatalogRefresher keeps the local plan catalog in line with the processor
// by re-running the catalog sync on an interval.
type CatalogRefresher struct {
	plans  service.PlanService
	cfg    config.CatalogConfig
	logger *logger.Logger
	sentry *sentry.Service

	// newBackOff is swapped in tests
	newBackOff func() backoff.BackOff

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewCatalogRefresher(plans service.PlanService, cfg *config.Configuration, logger *logger.Logger, sentry *sentry.Service) *CatalogRefresher {
	r := &CatalogRefresher{
		plans:  plans,
		cfg:    cfg.Catalog,
		logger: logger,
		sentry: sentry,
	}
	r.newBackOff = r.exponentialBackOff
	return r
}

// RegisterHooks starts the refresher with the app and stops it on shutdown
func RegisterHooks(lc fx.Lifecycle, r *CatalogRefresher) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			r.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return r.Stop(ctx)
		},
	})
}

// Start launches the refresh loop. A zero refresh interval disables it.
func (r *CatalogRefresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cfg.RefreshInterval <= 0 {
		r.logger.Info("plan catalog refresh is disabled")
		return
	}
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.loop(ctx, r.done)

	r.logger.Infow("plan catalog refresh started", "interval", r.cfg.RefreshInterval.String())
}

// Stop cancels the loop and waits for the running refresh to return.
func (r *CatalogRefresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *CatalogRefresher) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		if err := r.RefreshOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.Errorw("plan catalog refresh failed", "error", err)
			r.sentry.CaptureException(err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RefreshOnce runs one catalog sync, retrying transport failures with
// exponential backoff. Rejections and validation failures are not retried.
func (r *CatalogRefresher) RefreshOnce(ctx context.Context) error {
	attempt := 0
	op := func() error {
		attempt++
		res, err := r.plans.SyncPlans(ctx)
		if err != nil {
			if ierr.IsProcessorRejection(err) || ierr.IsValidation(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		r.logger.Debugw("plan catalog refreshed",
			"attempt", attempt,
			"created", res.Created,
			"updated", res.Updated)
		return nil
	}

	notify := func(err error, wait time.Duration) {
		r.logger.Warnw("plan catalog refresh attempt failed, retrying",
			"attempt", attempt,
			"retry_in", wait.String(),
			"error", err)
	}

	return backoff.RetryNotify(op, backoff.WithContext(r.newBackOff(), ctx), notify)
}

func (r *CatalogRefresher) exponentialBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = r.cfg.MaxRetryElapsed
	return b
}
