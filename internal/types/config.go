package types

type RunMode string

const (
	// ModeLocal runs the catalog worker and every service in one process
	ModeLocal RunMode = "local"
	// ModeWorker runs only the background catalog refresher
	ModeWorker RunMode = "worker"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ProcessorProvider names the external payment processor implementation.
type ProcessorProvider string

const (
	ProcessorProviderStripe ProcessorProvider = "stripe"
)
