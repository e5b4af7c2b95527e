package main

import (
	"context"
	"time"

	"github.com/flexprice/billsync/internal/cache"
	"github.com/flexprice/billsync/internal/config"
	"github.com/flexprice/billsync/internal/domain/coupon"
	"github.com/flexprice/billsync/internal/domain/customer"
	"github.com/flexprice/billsync/internal/domain/plan"
	"github.com/flexprice/billsync/internal/dynamodb"
	ierr "github.com/flexprice/billsync/internal/errors"
	"github.com/flexprice/billsync/internal/integration"
	"github.com/flexprice/billsync/internal/logger"
	"github.com/flexprice/billsync/internal/processor"
	"github.com/flexprice/billsync/internal/publisher"
	"github.com/flexprice/billsync/internal/pubsub"
	"github.com/flexprice/billsync/internal/pubsub/memory"
	"github.com/flexprice/billsync/internal/sentry"
	"github.com/flexprice/billsync/internal/service"
	"github.com/flexprice/billsync/internal/service/worker"
	"github.com/flexprice/billsync/internal/types"
	"github.com/flexprice/billsync/internal/validator"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	// Initialize Fx application
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			provideCache,

			// Document store
			dynamodb.NewClient,
			provideCustomerRepository,
			providePlanRepository,
			provideCouponRepository,

			// Notifications
			memory.NewPubSub,
			publisher.NewSink,

			// Payment processor
			integration.NewFactory,
			provideProcessor,
		),
	)

	// Monitoring
	opts = append(opts, sentry.Module())

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewCouponLedger,
			service.NewSyncService,
			service.NewSubscriptionService,
			service.NewPlanService,
			service.NewTransactionService,

			// Workers
			worker.NewCatalogRefresher,
		),
		fx.Invoke(
			startPubSub,
			startServices,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideCache(cfg *config.Configuration) cache.Cache {
	return cache.NewInMemoryCache(cfg)
}

func requireDynamoDB(client *dynamodb.Client) error {
	if client == nil {
		return ierr.NewError("dynamodb is not configured").
			WithHint("Set dynamodb.in_use and the table names to run the server").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func provideCustomerRepository(client *dynamodb.Client, cfg *config.Configuration, log *logger.Logger) (customer.Repository, error) {
	if err := requireDynamoDB(client); err != nil {
		return nil, err
	}
	return dynamodb.NewCustomerStore(client, cfg, log), nil
}

// providePlanRepository reads plans through the cache; SyncPlans drops it
// after every catalog sync.
func providePlanRepository(client *dynamodb.Client, cfg *config.Configuration, log *logger.Logger, c cache.Cache) (plan.Repository, error) {
	if err := requireDynamoDB(client); err != nil {
		return nil, err
	}
	return cache.NewPlanRepository(dynamodb.NewPlanStore(client, cfg, log), c), nil
}

func provideCouponRepository(client *dynamodb.Client, cfg *config.Configuration, log *logger.Logger) (coupon.Repository, error) {
	if err := requireDynamoDB(client); err != nil {
		return nil, err
	}
	return dynamodb.NewCouponStore(client, cfg, log), nil
}

func provideProcessor(factory *integration.Factory) (processor.Processor, error) {
	return factory.GetProcessor()
}

func startPubSub(lc fx.Lifecycle, ps pubsub.PubSub, log *logger.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("closing notification pubsub")
			return ps.Close()
		},
	})
}

func startServices(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	refresher *worker.CatalogRefresher,
	syncService service.SyncService,
	subscriptionService service.SubscriptionService,
	transactionService service.TransactionService,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal:
		worker.RegisterHooks(lc, refresher)
		log.Infow("billing services ready",
			"sync", syncService != nil,
			"subscriptions", subscriptionService != nil,
			"transactions", transactionService != nil)
	case types.ModeWorker:
		worker.RegisterHooks(lc, refresher)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}
