package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flexprice/billsync/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment    DeploymentConfig    `validate:"required"`
	Logging       LoggingConfig       `validate:"required"`
	Processor     ProcessorConfig     `validate:"required"`
	DynamoDB      DynamoDBConfig      `mapstructure:"dynamodb"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Sentry        SentryConfig        `mapstructure:"sentry"`
	Catalog       CatalogConfig       `mapstructure:"catalog"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

// ProcessorConfig selects and configures the external payment processor.
type ProcessorConfig struct {
	Provider          types.ProcessorProvider `mapstructure:"provider" validate:"required"`
	SecretKey         string                  `mapstructure:"secret_key"`
	Currency          string                  `mapstructure:"currency" validate:"required,len=3"`
	RequestsPerSecond float64                 `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int                     `mapstructure:"burst" validate:"gte=0"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// CatalogConfig drives the background plan catalog refresh.
type CatalogConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	MaxRetryElapsed time.Duration `mapstructure:"max_retry_elapsed"`
}

type NotificationsConfig struct {
	PubSubEnabled bool   `mapstructure:"pubsub_enabled"`
	Topic         string `mapstructure:"topic" validate:"required_if=PubSubEnabled true"`
}

func NewConfig() (*Configuration, error) {
	// .env is optional; real environment variables always win
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/billsync")

	v.SetEnvPrefix("BILLSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	defaults := GetDefaultConfig()
	v.SetDefault("deployment.mode", defaults.Deployment.Mode)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("processor.provider", defaults.Processor.Provider)
	v.SetDefault("processor.currency", defaults.Processor.Currency)
	v.SetDefault("processor.requests_per_second", defaults.Processor.RequestsPerSecond)
	v.SetDefault("processor.burst", defaults.Processor.Burst)
	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.ttl", defaults.Cache.TTL)
	v.SetDefault("catalog.refresh_interval", defaults.Catalog.RefreshInterval)
	v.SetDefault("catalog.max_retry_elapsed", defaults.Catalog.MaxRetryElapsed)
	v.SetDefault("notifications.topic", defaults.Notifications.Topic)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or tests
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Processor: ProcessorConfig{
			Provider:          types.ProcessorProviderStripe,
			Currency:          "USD",
			RequestsPerSecond: 20,
			Burst:             5,
		},
		Cache: CacheConfig{Enabled: true, TTL: 30 * time.Minute},
		Catalog: CatalogConfig{
			RefreshInterval: time.Hour,
			MaxRetryElapsed: 5 * time.Minute,
		},
		Notifications: NotificationsConfig{Topic: "billsync.events"},
	}
}
