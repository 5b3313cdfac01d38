package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "providers.openai.endpoint").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// validKinds is the set of provider kinds an entry may name.
var validKinds = map[string]bool{
	"openai":      true,
	"anthropic":   true,
	"gemini":      true,
	"huggingface": true,
	"cohere":      true,
	"openrouter":  true,
	"custom":      true,
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateProviders(cfg.Providers)...)
	errs = append(errs, validateRetry(&cfg.Retry)...)
	errs = append(errs, validateLimits(&cfg.Limits)...)
	errs = append(errs, validateUsage(&cfg.Usage)...)
	errs = append(errs, validateTokens(&cfg.Tokens)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateProviders validates provider configurations.
func validateProviders(providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	if len(providers) == 0 {
		errs = append(errs, FieldError{
			Field:   "providers",
			Message: "at least one provider must be configured",
		})
		return errs
	}

	// Sorted so repeated runs report errors in a stable order.
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		provider := providers[name]
		prefix := fmt.Sprintf("providers.%s", name)

		if !validKinds[provider.Kind] {
			errs = append(errs, FieldError{
				Field:   prefix + ".kind",
				Message: fmt.Sprintf("unknown provider kind %q", provider.Kind),
			})
		}

		if provider.Endpoint != "" {
			u, err := url.Parse(provider.Endpoint)
			if err != nil {
				errs = append(errs, FieldError{
					Field:   prefix + ".endpoint",
					Message: fmt.Sprintf("invalid URL format: %v", err),
				})
			} else if u.Scheme != "http" && u.Scheme != "https" {
				errs = append(errs, FieldError{
					Field:   prefix + ".endpoint",
					Message: "endpoint must be an http or https URL",
				})
			}
		} else if provider.Kind == "custom" {
			errs = append(errs, FieldError{
				Field:   prefix + ".endpoint",
				Message: "endpoint is required for custom providers",
			})
		}

		// API keys may legitimately be empty here: self-hosted services
		// accept keyless requests, and adapters reject a missing key for
		// the services that need one.

		if provider.Timeout < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".timeout",
				Message: "timeout must be positive",
			})
		}
		if provider.MaxTokens < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".max_tokens",
				Message: "max tokens must be non-negative",
			})
		}
		if provider.Temperature < 0 || provider.Temperature > 2 {
			errs = append(errs, FieldError{
				Field:   prefix + ".temperature",
				Message: "temperature must be between 0 and 2",
			})
		}

		if rl := provider.RateLimit; rl != nil {
			if rl.Window < 0 {
				errs = append(errs, FieldError{
					Field:   prefix + ".rate_limit.window",
					Message: "window must be positive",
				})
			}
			if rl.MaxRequests < 0 {
				errs = append(errs, FieldError{
					Field:   prefix + ".rate_limit.max_requests",
					Message: "max requests must be non-negative",
				})
			}
			if rl.MaxTokens < 0 {
				errs = append(errs, FieldError{
					Field:   prefix + ".rate_limit.max_tokens",
					Message: "max tokens must be non-negative",
				})
			}
		}
	}

	return errs
}

// validateRetry validates the retry policy.
func validateRetry(cfg *RetryConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxAttempts < 1 {
		errs = append(errs, FieldError{
			Field:   "retry.max_attempts",
			Message: "max attempts must be at least 1",
		})
	}
	if cfg.MaxAttempts > 10 {
		errs = append(errs, FieldError{
			Field:   "retry.max_attempts",
			Message: "max attempts exceeds reasonable limit (10)",
		})
	}
	if cfg.BaseDelay < 0 {
		errs = append(errs, FieldError{
			Field:   "retry.base_delay",
			Message: "base delay must be positive",
		})
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		errs = append(errs, FieldError{
			Field:   "retry.max_delay",
			Message: "max delay must be at least base delay",
		})
	}
	if cfg.JitterFrac < 0 || cfg.JitterFrac > 1 {
		errs = append(errs, FieldError{
			Field:   "retry.jitter_frac",
			Message: "jitter fraction must be between 0 and 1",
		})
	}

	return errs
}

// validateLimits validates the default admission bounds.
func validateLimits(cfg *LimitsConfig) []FieldError {
	var errs []FieldError

	if cfg.Window < 0 {
		errs = append(errs, FieldError{
			Field:   "limits.window",
			Message: "window must be positive",
		})
	}
	if cfg.MaxRequests < 0 {
		errs = append(errs, FieldError{
			Field:   "limits.max_requests",
			Message: "max requests must be non-negative",
		})
	}
	if cfg.MaxTokens < 0 {
		errs = append(errs, FieldError{
			Field:   "limits.max_tokens",
			Message: "max tokens must be non-negative",
		})
	}

	return errs
}

// validateUsage validates the usage ledger configuration.
func validateUsage(cfg *UsageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "usage.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory' or 'sqlite'", cfg.Backend),
		})
	}

	if cfg.Enabled && cfg.Backend == "sqlite" && cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{
			Field:   "usage.sqlite.path",
			Message: "path is required when backend is 'sqlite'",
		})
	}
	if cfg.Memory.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "usage.memory.max_records",
			Message: "max records must be non-negative",
		})
	}
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "usage.retention.days",
			Message: "days must be non-negative",
		})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "usage.retention.max_records",
			Message: "max records must be non-negative",
		})
	}

	return errs
}

// validateTokens validates token estimation configuration.
func validateTokens(cfg *TokensConfig) []FieldError {
	var errs []FieldError

	if cfg.CharsPerToken <= 0 {
		errs = append(errs, FieldError{
			Field:   "tokens.chars_per_token",
			Message: "chars per token must be positive",
		})
	}
	for model, ratio := range cfg.Models {
		if ratio <= 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("tokens.models.%s", model),
				Message: "ratio must be positive",
			})
		}
	}

	return errs
}

// validateTelemetry validates logging, metrics, and tracing configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	// Logging
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid level %q: must be one of 'debug', 'info', 'warn', 'error'", cfg.Logging.Level),
		})
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "text" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	// Metrics
	if cfg.Metrics.Enabled {
		if cfg.Metrics.Address == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.address",
				Message: "address is required when metrics are enabled",
			})
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "path must start with '/'",
			})
		}
	}

	// Tracing
	switch cfg.Tracing.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0 and 1",
		})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.timeout",
			Message: "timeout must be positive",
		})
	}

	return errs
}
