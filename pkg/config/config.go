package config

import "time"

// Config is the root configuration structure for PromptBoost. It
// contains all configuration sections: provider accounts, retry and
// rate-limit behavior, the usage ledger, token estimation, and
// telemetry settings.
type Config struct {
	// Providers contains configuration for all text-generation provider
	// accounts. Keys are instance names (e.g., "openai", "work-openai");
	// each entry names the wire dialect it speaks via Kind.
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Retry contains the backoff policy applied to transient provider
	// failures: network errors, rate limits, and server errors.
	Retry RetryConfig `yaml:"retry"`

	// Limits contains the default client-side rate-limit bounds applied
	// to providers without a per-provider override.
	Limits LimitsConfig `yaml:"limits"`

	// Usage contains configuration for the usage ledger including
	// backend selection and retention settings.
	Usage UsageConfig `yaml:"usage"`

	// Tokens contains configuration for character-ratio token
	// estimation.
	Tokens TokensConfig `yaml:"tokens"`

	// Telemetry contains logging, metrics, and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProviderConfig contains configuration for a single provider account.
type ProviderConfig struct {
	// Kind names the wire dialect this account speaks. One of:
	// "openai", "anthropic", "gemini", "huggingface", "cohere",
	// "openrouter", "custom". Empty means the map key is the kind.
	Kind string `yaml:"kind,omitempty"`

	// Endpoint is the base URL of the service. Empty selects the
	// adapter's built-in default. Required for "custom" providers.
	// Example: "https://api.openai.com/v1"
	Endpoint string `yaml:"endpoint,omitempty"`

	// APIKey authenticates requests. Values of the form ${VAR} are
	// expanded from the environment at load time, so keys stay out of
	// config files. Some self-hosted services accept an empty key.
	// Example: "${OPENAI_API_KEY}"
	APIKey string `yaml:"api_key,omitempty"`

	// Model is the default model for this account, used when a request
	// names none.
	// Example: "gpt-4o-mini"
	Model string `yaml:"model,omitempty"`

	// Organization scopes requests for providers that support it
	// (OpenAI organizations).
	Organization string `yaml:"organization,omitempty"`

	// MaxTokens caps completion length when a request does not set it.
	// Default: 1000
	MaxTokens int `yaml:"max_tokens,omitempty"`

	// Temperature is the default sampling temperature.
	// Default: 0.7
	Temperature float64 `yaml:"temperature,omitempty"`

	// ExtraHeaders are sent verbatim on every request to this provider,
	// applied after the adapter's own headers.
	ExtraHeaders map[string]string `yaml:"extra_headers,omitempty"`

	// Timeout bounds each HTTP attempt against this provider.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// RateLimit overrides the client-side admission bounds for this
	// provider. Nil selects the provider kind's preset.
	RateLimit *RateLimitConfig `yaml:"rate_limit,omitempty"`
}

// RateLimitConfig bounds client-side admission for one provider.
type RateLimitConfig struct {
	// Window is the sliding window length.
	// Default: 1m
	Window time.Duration `yaml:"window"`

	// MaxRequests is the number of requests admitted per window.
	// Default: 60
	MaxRequests int `yaml:"max_requests"`

	// MaxTokens is the number of tokens admitted per window. Zero
	// disables the token dimension.
	// Default: 0
	MaxTokens int `yaml:"max_tokens"`
}

// RetryConfig contains the backoff policy for transient provider
// failures. Authentication and validation failures are never retried.
type RetryConfig struct {
	// MaxAttempts is the total attempt budget, first try included.
	// Default: 3
	MaxAttempts int `yaml:"max_attempts"`

	// BaseDelay is the wait after the first failure; each further
	// failure doubles it.
	// Default: 1s
	BaseDelay time.Duration `yaml:"base_delay"`

	// MaxDelay caps the backoff growth.
	// Default: 10s
	MaxDelay time.Duration `yaml:"max_delay"`

	// JitterFrac spreads each delay uniformly by the given fraction so
	// concurrent clients do not retry in lockstep.
	// Default: 0.2
	JitterFrac float64 `yaml:"jitter_frac"`
}

// LimitsConfig contains the default admission bounds used for providers
// that have neither a kind preset nor a per-provider override.
type LimitsConfig struct {
	// Window is the sliding window length.
	// Default: 1m
	Window time.Duration `yaml:"window"`

	// MaxRequests is the number of requests admitted per window.
	// Default: 60
	MaxRequests int `yaml:"max_requests"`

	// MaxTokens is the number of tokens admitted per window. Zero
	// disables the token dimension.
	// Default: 0
	MaxTokens int `yaml:"max_tokens"`

	// Presets enables the built-in per-kind bounds mirroring published
	// provider limits. Disable to apply the defaults above uniformly.
	// Default: true
	Presets *bool `yaml:"presets,omitempty"`
}

// UsageConfig contains configuration for the usage ledger.
type UsageConfig struct {
	// Enabled turns request accounting on. When false no records are
	// kept and the usage command reports nothing.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend selects the ledger storage. One of: "memory", "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// Memory contains settings for the in-memory backend.
	Memory MemoryStoreConfig `yaml:"memory"`

	// SQLite contains settings for the SQLite backend.
	SQLite SQLiteStoreConfig `yaml:"sqlite"`

	// Retention contains pruning settings applied to either backend.
	Retention RetentionConfig `yaml:"retention"`
}

// MemoryStoreConfig contains settings for the in-memory ledger backend.
type MemoryStoreConfig struct {
	// MaxRecords caps the ring buffer; the oldest records fall off.
	// Default: 10000
	MaxRecords int `yaml:"max_records"`
}

// SQLiteStoreConfig contains settings for the SQLite ledger backend.
type SQLiteStoreConfig struct {
	// Path is the database file path. Required when the backend is
	// "sqlite".
	// Example: "~/.promptboost/usage.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long a write waits for the database lock
	// before failing.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig contains pruning settings for the usage ledger.
type RetentionConfig struct {
	// Days is the number of days of records to retain. Zero keeps
	// records forever.
	// Default: 90
	Days int `yaml:"days"`

	// MaxRecords caps the total record count; the oldest go first.
	// Zero means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`

	// Schedule is a cron expression for automatic pruning. Empty
	// disables the scheduler.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule"`
}

// TokensConfig contains configuration for character-ratio token
// estimation, used for rate-limit accounting when providers report no
// counts.
type TokensConfig struct {
	// CharsPerToken is the fallback ratio for models with no entry in
	// Models.
	// Default: 4.0
	CharsPerToken float64 `yaml:"chars_per_token"`

	// Models maps model name prefixes to their characters-per-token
	// ratios.
	// Example: {"claude-3": 3.5}
	Models map[string]float64 `yaml:"models,omitempty"`
}

// TelemetryConfig contains logging, metrics, and tracing configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level. One of: "debug", "info", "warn",
	// "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format. One of: "json", "text".
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes source file and line in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// Redact scrubs API keys and bearer tokens from log attribute
	// values.
	// Default: true
	Redact *bool `yaml:"redact,omitempty"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled turns the metrics endpoint on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Address is the listen address for the metrics endpoint.
	// Default: "localhost:9090"
	Address string `yaml:"address"`

	// Path is the HTTP path serving metrics.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

// TracingConfig contains OpenTelemetry tracing configuration. Spans are
// exported over OTLP gRPC; when disabled a noop tracer is used.
type TracingConfig struct {
	// Enabled turns span export on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ServiceName identifies this process in traces.
	// Default: "promptboost"
	ServiceName string `yaml:"service_name"`

	// Sampler selects the sampling strategy. One of: "always", "never",
	// "ratio".
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces sampled when Sampler is
	// "ratio".
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS on the collector connection. Local
	// collectors usually need it.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export batch.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
