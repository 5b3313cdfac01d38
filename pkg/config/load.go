package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// Unknown fields are rejected, so typos surface as load errors instead
// of silently-ignored settings. It expands ${VAR} references in API
// keys, applies default values, validates the configuration, and
// returns any errors. The configuration is not modified by environment
// variables; use LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	cfg, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Environment variables follow
// the naming convention PROMPTBOOST_SECTION_FIELD (e.g.,
// PROMPTBOOST_LOGGING_LEVEL) and always take precedence over
// file-based configuration. Validation runs on the final result, so a
// file with no providers loads when the environment supplies one.
//
// The loading sequence is:
// 1. Parse YAML from file, expanding ${VAR} API key references
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Re-apply defaults for entries the overrides created
// 5. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)
	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// parseFile reads and decodes one configuration file. Defaults and
// validation are the caller's business.
func parseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	expandAPIKeys(&cfg)
	return &cfg, nil
}

// envRef matches ${VAR} references in API key values. Only the braced
// form expands; literal key material passes through untouched.
var envRef = regexp.MustCompile(`\$\{(\w+)\}`)

// expandAPIKeys resolves ${VAR} references in provider API keys against
// the environment. Unset variables expand to the empty string, which
// validation treats the same as a missing key.
func expandAPIKeys(cfg *Config) {
	for name, p := range cfg.Providers {
		if strings.Contains(p.APIKey, "${") {
			p.APIKey = envRef.ReplaceAllStringFunc(p.APIKey, func(ref string) string {
				return os.Getenv(ref[2 : len(ref)-1])
			})
			cfg.Providers[name] = p
		}
	}
}

// builtinKinds are the provider kinds that can be configured from
// environment variables alone. Custom endpoints need a file entry
// because they have no default endpoint.
var builtinKinds = []string{"openai", "anthropic", "gemini", "huggingface", "cohere", "openrouter"}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format
// PROMPTBOOST_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Provider overrides. Every configured provider accepts overrides;
	// builtin kinds can additionally be created from the environment
	// alone (PROMPTBOOST_PROVIDERS_OPENAI_API_KEY with no config file
	// entry).
	for name := range cfg.Providers {
		applyProviderEnvOverrides(cfg, name)
	}
	for _, kind := range builtinKinds {
		if _, ok := cfg.Providers[kind]; !ok {
			applyProviderEnvOverrides(cfg, kind)
		}
	}

	// Retry overrides
	if val := os.Getenv("PROMPTBOOST_RETRY_MAX_ATTEMPTS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Retry.MaxAttempts = i
		}
	}
	if val := os.Getenv("PROMPTBOOST_RETRY_BASE_DELAY"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Retry.BaseDelay = d
		}
	}
	if val := os.Getenv("PROMPTBOOST_RETRY_MAX_DELAY"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Retry.MaxDelay = d
		}
	}

	// Usage overrides
	if val := os.Getenv("PROMPTBOOST_USAGE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Usage.Enabled = b
		}
	}
	if val := os.Getenv("PROMPTBOOST_USAGE_BACKEND"); val != "" {
		cfg.Usage.Backend = val
	}
	if val := os.Getenv("PROMPTBOOST_USAGE_SQLITE_PATH"); val != "" {
		cfg.Usage.SQLite.Path = val
	}
	if val := os.Getenv("PROMPTBOOST_USAGE_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Usage.Retention.Days = i
		}
	}

	// Logging overrides
	if val := os.Getenv("PROMPTBOOST_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("PROMPTBOOST_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}

	// Metrics overrides
	if val := os.Getenv("PROMPTBOOST_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("PROMPTBOOST_METRICS_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.Address = val
	}

	// Tracing overrides
	if val := os.Getenv("PROMPTBOOST_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("PROMPTBOOST_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("PROMPTBOOST_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

// applyProviderEnvOverrides applies environment variable overrides for
// a specific provider. Provider environment variables follow the format
// PROMPTBOOST_PROVIDERS_<NAME>_<FIELD> where NAME is the uppercase
// provider name with dashes replaced by underscores.
func applyProviderEnvOverrides(cfg *Config, name string) {
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}

	provider, exists := cfg.Providers[name]

	prefix := fmt.Sprintf("PROMPTBOOST_PROVIDERS_%s_",
		strings.ReplaceAll(strings.ToUpper(name), "-", "_"))

	modified := false

	if val := os.Getenv(prefix + "API_KEY"); val != "" {
		provider.APIKey = val
		modified = true
	}
	if val := os.Getenv(prefix + "ENDPOINT"); val != "" {
		provider.Endpoint = val
		modified = true
	}
	if val := os.Getenv(prefix + "MODEL"); val != "" {
		provider.Model = val
		modified = true
	}
	if val := os.Getenv(prefix + "ORGANIZATION"); val != "" {
		provider.Organization = val
		modified = true
	}
	if val := os.Getenv(prefix + "TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			provider.Timeout = d
			modified = true
		}
	}

	if !modified {
		return
	}
	if !exists && provider.Kind == "" {
		provider.Kind = name
	}
	cfg.Providers[name] = provider
}
