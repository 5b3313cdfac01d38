// Package config provides configuration management for PromptBoost.
//
// This package handles loading, validating, and watching configuration
// from YAML files with environment variable overrides. It provides a
// type-safe configuration system with comprehensive validation and
// sensible defaults. There is no global configuration object: loaders
// return explicit *Config values that callers pass to the components
// they build.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("promptboost.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("promptboost.yaml")
//
// Unknown YAML fields are rejected, so a misspelled setting fails the
// load instead of being silently ignored.
//
// # API Keys
//
// API key values of the form ${VAR} are expanded from the environment
// at load time:
//
//	providers:
//	  openai:
//	    api_key: "${OPENAI_API_KEY}"
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention
// PROMPTBOOST_SECTION_FIELD. For example:
//
//   - PROMPTBOOST_PROVIDERS_OPENAI_API_KEY overrides providers.openai.api_key
//   - PROMPTBOOST_LOGGING_LEVEL overrides telemetry.logging.level
//   - PROMPTBOOST_USAGE_BACKEND overrides usage.backend
//
// Environment variables always take precedence over file-based
// configuration, and a builtin provider kind can be configured from the
// environment alone with no file entry at all.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later
// overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// All configuration is validated automatically during loading.
// Validation errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - providers.local.endpoint: endpoint is required for custom providers
//	  - retry.max_attempts: max attempts must be at least 1
//
// # Hot Reload
//
// Watcher re-loads the file when it changes on disk, surviving the
// rename-and-replace saves editors perform:
//
//	w, err := config.NewWatcher(config.WatcherConfig{Path: "promptboost.yaml"})
//	if err != nil {
//	    return err
//	}
//	go w.Watch(ctx, func(cfg *config.Config, err error) {
//	    if err != nil {
//	        slog.Error("reload failed", "error", err)
//	        return
//	    }
//	    apply(cfg)
//	})
//	defer w.Stop()
//
// A reload that fails validation reports the error and leaves the
// previous configuration in effect; the watcher keeps running.
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	providers:
//	  openai:
//	    api_key: "${OPENAI_API_KEY}"
//	    model: "gpt-4o-mini"
//	  local:
//	    kind: "custom"
//	    endpoint: "http://localhost:8000/v1"
//
//	retry:
//	  max_attempts: 3
//
//	usage:
//	  enabled: true
//	  backend: "sqlite"
//	  sqlite:
//	    path: "~/.promptboost/usage.db"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "text"
package config
