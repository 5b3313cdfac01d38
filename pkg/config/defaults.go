package config

import "time"

// Default values for configuration fields.
const (
	// Provider defaults
	DefaultProviderTimeout     = 30 * time.Second
	DefaultProviderMaxTokens   = 1000
	DefaultProviderTemperature = 0.7

	// Retry defaults
	DefaultRetryMaxAttempts = 3
	DefaultRetryBaseDelay   = time.Second
	DefaultRetryMaxDelay    = 10 * time.Second
	DefaultRetryJitterFrac  = 0.2

	// Limits defaults
	DefaultLimitsWindow      = time.Minute
	DefaultLimitsMaxRequests = 60

	// Usage defaults
	DefaultUsageBackend          = "memory"
	DefaultUsageMemoryMaxRecords = 10000
	DefaultUsageSQLiteBusyWait   = 5 * time.Second
	DefaultRetentionDays         = 90
	DefaultRetentionSchedule     = "0 3 * * *"

	// Tokens defaults
	DefaultTokensCharsPerToken = 4.0

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "text"
	DefaultMetricsAddress     = "localhost:9090"
	DefaultMetricsPath        = "/metrics"
	DefaultTracingServiceName = "promptboost"
	DefaultTracingSampler     = "always"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingTimeout     = 10 * time.Second
)

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// Provider defaults
	for name, p := range cfg.Providers {
		if p.Kind == "" {
			p.Kind = name
		}
		if p.Timeout == 0 {
			p.Timeout = DefaultProviderTimeout
		}
		if p.MaxTokens == 0 {
			p.MaxTokens = DefaultProviderMaxTokens
		}
		if p.Temperature == 0 {
			p.Temperature = DefaultProviderTemperature
		}
		if p.RateLimit != nil {
			if p.RateLimit.Window == 0 {
				p.RateLimit.Window = DefaultLimitsWindow
			}
			if p.RateLimit.MaxRequests == 0 {
				p.RateLimit.MaxRequests = DefaultLimitsMaxRequests
			}
		}
		cfg.Providers[name] = p
	}

	// Retry defaults
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = DefaultRetryMaxAttempts
	}
	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = DefaultRetryBaseDelay
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = DefaultRetryMaxDelay
	}
	if cfg.Retry.JitterFrac == 0 {
		cfg.Retry.JitterFrac = DefaultRetryJitterFrac
	}

	// Limits defaults
	if cfg.Limits.Window == 0 {
		cfg.Limits.Window = DefaultLimitsWindow
	}
	if cfg.Limits.MaxRequests == 0 {
		cfg.Limits.MaxRequests = DefaultLimitsMaxRequests
	}
	if cfg.Limits.Presets == nil {
		cfg.Limits.Presets = boolPtr(true)
	}

	// Usage defaults
	if cfg.Usage.Backend == "" {
		cfg.Usage.Backend = DefaultUsageBackend
	}
	if cfg.Usage.Memory.MaxRecords == 0 {
		cfg.Usage.Memory.MaxRecords = DefaultUsageMemoryMaxRecords
	}
	if cfg.Usage.SQLite.BusyTimeout == 0 {
		cfg.Usage.SQLite.BusyTimeout = DefaultUsageSQLiteBusyWait
	}
	if cfg.Usage.Retention.Days == 0 {
		cfg.Usage.Retention.Days = DefaultRetentionDays
	}
	if cfg.Usage.Retention.Schedule == "" {
		cfg.Usage.Retention.Schedule = DefaultRetentionSchedule
	}

	// Tokens defaults
	if cfg.Tokens.CharsPerToken == 0 {
		cfg.Tokens.CharsPerToken = DefaultTokensCharsPerToken
	}

	// Logging defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Logging.Redact == nil {
		cfg.Telemetry.Logging.Redact = boolPtr(true)
	}

	// Metrics defaults
	if cfg.Telemetry.Metrics.Address == "" {
		cfg.Telemetry.Metrics.Address = DefaultMetricsAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}

	// Tracing defaults
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
}

func boolPtr(b bool) *bool { return &b }
