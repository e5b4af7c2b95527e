package integration

import (
	"github.com/flexprice/billsync/internal/config"
	ierr "github.com/flexprice/billsync/internal/errors"
	"github.com/flexprice/billsync/internal/integration/stripe"
	"github.com/flexprice/billsync/internal/logger"
	"github.com/flexprice/billsync/internal/processor"
	"github.com/flexprice/billsync/internal/types"
)

// Factory builds the configured payment processor
type Factory struct {
	config *config.Configuration
	logger *logger.Logger
}

// NewFactory creates a new integration factory
func NewFactory(config *config.Configuration, logger *logger.Logger) *Factory {
	return &Factory{
		config: config,
		logger: logger,
	}
}

// GetProcessor returns the processor selected by processor.provider,
// rate limited to processor.requests_per_second.
func (f *Factory) GetProcessor() (processor.Processor, error) {
	var p processor.Processor

	switch f.config.Processor.Provider {
	case types.ProcessorProviderStripe:
		client, err := stripe.NewClient(f.config, f.logger)
		if err != nil {
			return nil, err
		}
		p = client
	default:
		return nil, ierr.NewError("unsupported processor provider").
			WithHintf("Processor provider %q is not supported", f.config.Processor.Provider).
			Mark(ierr.ErrValidation)
	}

	if f.config.Processor.RequestsPerSecond <= 0 {
		return p, nil
	}

	f.logger.Infow("rate limiting processor calls",
		"provider", f.config.Processor.Provider,
		"requests_per_second", f.config.Processor.RequestsPerSecond,
		"burst", f.config.Processor.Burst)
	return processor.NewRateLimited(p, f.config.Processor.RequestsPerSecond, f.config.Processor.Burst), nil
}

// GetSupportedProviders returns every provider GetProcessor can build
func (f *Factory) GetSupportedProviders() []types.ProcessorProvider {
	return []types.ProcessorProvider{types.ProcessorProviderStripe}
}
