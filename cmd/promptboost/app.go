package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/AstroAir/PromptBoost-sub001/pkg/cli"
	"github.com/AstroAir/PromptBoost-sub001/pkg/config"
	"github.com/AstroAir/PromptBoost-sub001/pkg/gateway"
	"github.com/AstroAir/PromptBoost-sub001/pkg/limits/ratelimit"
	"github.com/AstroAir/PromptBoost-sub001/pkg/processing/tokens"
	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
	"github.com/AstroAir/PromptBoost-sub001/pkg/registry"
	"github.com/AstroAir/PromptBoost-sub001/pkg/telemetry/logging"
	"github.com/AstroAir/PromptBoost-sub001/pkg/telemetry/metrics"
	"github.com/AstroAir/PromptBoost-sub001/pkg/telemetry/tracing"
	"github.com/AstroAir/PromptBoost-sub001/pkg/usage"
	"github.com/AstroAir/PromptBoost-sub001/pkg/usage/retention"
	"github.com/AstroAir/PromptBoost-sub001/pkg/usage/store"
)

// app holds the subsystems assembled from one configuration: the
// provider registry with its gateway, the usage ledger, and the
// telemetry endpoints. Commands build one, use it, and Close it.
type app struct {
	cfg     *config.Config
	reg     *registry.Registry
	store   usage.Store       // nil when accounting is off
	pruner  *retention.Pruner // nil without a prune schedule
	metrics *metrics.Server   // nil unless the endpoint is enabled
	tracer  *tracing.Tracer
}

// loadApp loads the configuration file with environment overrides and
// assembles the subsystems behind it. Every command goes through here,
// so flags and environment behave identically across commands.
func loadApp() (*app, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	return buildApp(cfg)
}

// buildApp wires the subsystems for one command invocation.
func buildApp(cfg *config.Config) (*app, error) {
	logCfg := logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Redact:    cfg.Telemetry.Logging.Redact == nil || *cfg.Telemetry.Logging.Redact,
	}
	if verbose {
		logCfg.Level = "debug"
	}
	if _, err := logging.Init(logCfg); err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}

	promReg := metrics.NewRegistry()
	gwMetrics := gateway.NewMetrics(promReg)

	var metricsSrv *metrics.Server
	if cfg.Telemetry.Metrics.Enabled {
		metricsSrv = metrics.NewServer(metrics.ServerConfig{
			Address: cfg.Telemetry.Metrics.Address,
			Path:    cfg.Telemetry.Metrics.Path,
		}, promReg)
		if err := metricsSrv.Start(); err != nil {
			return nil, fmt.Errorf("failed to start metrics endpoint: %w", err)
		}
	}

	tracer, err := tracing.New(tracing.Config{
		Enabled:        cfg.Telemetry.Tracing.Enabled,
		ServiceName:    cfg.Telemetry.Tracing.ServiceName,
		ServiceVersion: Version,
		Sampler:        cfg.Telemetry.Tracing.Sampler,
		SampleRatio:    cfg.Telemetry.Tracing.SampleRatio,
		Endpoint:       cfg.Telemetry.Tracing.Endpoint,
		Insecure:       cfg.Telemetry.Tracing.Insecure,
		Timeout:        cfg.Telemetry.Tracing.Timeout,
	})
	if err != nil {
		shutdownQuietly(metricsSrv)
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		Window:      cfg.Limits.Window,
		MaxRequests: cfg.Limits.MaxRequests,
		MaxTokens:   cfg.Limits.MaxTokens,
	})
	usePresets := cfg.Limits.Presets == nil || *cfg.Limits.Presets
	for name, pc := range cfg.Providers {
		kind := kindOf(name, pc)
		switch {
		case pc.RateLimit != nil:
			limiter.Configure(kind, ratelimit.Config{
				Window:      pc.RateLimit.Window,
				MaxRequests: pc.RateLimit.MaxRequests,
				MaxTokens:   pc.RateLimit.MaxTokens,
			})
		case usePresets && ratelimit.HasPreset(kind):
			limiter.Configure(kind, ratelimit.Preset(kind))
		}
	}

	ratios := tokens.DefaultRatios()
	if cfg.Tokens.CharsPerToken > 0 {
		ratios["default"] = cfg.Tokens.CharsPerToken
	}
	for model, ratio := range cfg.Tokens.Models {
		ratios[model] = ratio
	}

	var (
		ledgerStore usage.Store
		pruner      *retention.Pruner
	)
	if cfg.Usage.Enabled {
		switch cfg.Usage.Backend {
		case "sqlite":
			s, err := store.NewSQLite(store.SQLiteConfig{
				Path:        cfg.Usage.SQLite.Path,
				BusyTimeout: cfg.Usage.SQLite.BusyTimeout,
			})
			if err != nil {
				shutdownQuietly(metricsSrv)
				return nil, fmt.Errorf("failed to open usage ledger: %w", err)
			}
			ledgerStore = s
		default:
			ledgerStore = store.NewMemory(cfg.Usage.Memory.MaxRecords)
		}

		if cfg.Usage.Retention.Schedule != "" {
			pruner = retention.NewPruner(ledgerStore, &retention.Config{
				Days:       cfg.Usage.Retention.Days,
				MaxRecords: cfg.Usage.Retention.MaxRecords,
				Schedule:   cfg.Usage.Retention.Schedule,
			})
			if err := pruner.Start(context.Background()); err != nil {
				slog.Warn("failed to start retention scheduler", "error", err)
				pruner = nil
			}
		}
	}

	gwCfg := gateway.Config{
		Policy: gateway.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
			JitterFrac:  cfg.Retry.JitterFrac,
		},
		Limiter:   limiter,
		Estimator: tokens.NewEstimator(ratios),
		Metrics:   gwMetrics,
		Tracer:    tracer,
	}
	if ledgerStore != nil {
		gwCfg.Ledger = ledgerStore
	}

	return &app{
		cfg:     cfg,
		reg:     registry.Default(gateway.New(gwCfg)),
		store:   ledgerStore,
		pruner:  pruner,
		metrics: metricsSrv,
		tracer:  tracer,
	}, nil
}

// Close releases everything buildApp started: the retention scheduler,
// the ledger, the metrics endpoint, and the trace exporter.
func (a *app) Close() error {
	var errs []error

	if a.pruner != nil {
		a.pruner.Stop()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), metrics.DefaultShutdownTimeout)
		if err := a.metrics.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		cancel()
	}
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		cancel()
	}

	return errors.Join(errs...)
}

// providerNames lists configured provider names, sorted.
func (a *app) providerNames() []string {
	names := make([]string, 0, len(a.cfg.Providers))
	for name := range a.cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolve builds a gateway-bound handle for the named configured
// provider.
func (a *app) resolve(name string) (*registry.Handle, error) {
	pc, ok := a.cfg.Providers[name]
	if !ok {
		return nil, cli.NewConfigError("providers",
			fmt.Sprintf("provider %q is not configured (configured: %s)",
				name, strings.Join(a.providerNames(), ", ")))
	}
	return a.reg.Resolve(kindOf(name, pc), providerConfig(pc))
}

// pickProvider returns the provider to use: the --provider flag value,
// or the single configured provider when the flag is empty.
func (a *app) pickProvider(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	names := a.providerNames()
	switch len(names) {
	case 0:
		return "", cli.NewConfigError("providers", "no providers configured")
	case 1:
		return names[0], nil
	default:
		return "", fmt.Errorf("multiple providers configured, choose one with --provider (configured: %s)",
			strings.Join(names, ", "))
	}
}

// kindOf resolves the wire dialect for a configured provider entry: the
// explicit kind, or the entry name when none is set.
func kindOf(name string, pc config.ProviderConfig) string {
	if pc.Kind != "" {
		return pc.Kind
	}
	return name
}

// providerConfig converts a config file entry into an adapter
// configuration.
func providerConfig(pc config.ProviderConfig) providers.Config {
	return providers.Config{
		Endpoint:     pc.Endpoint,
		APIKey:       pc.APIKey,
		Model:        pc.Model,
		Organization: pc.Organization,
		MaxTokens:    pc.MaxTokens,
		Temperature:  pc.Temperature,
		ExtraHeaders: pc.ExtraHeaders,
		Timeout:      pc.Timeout,
	}
}

// shutdownQuietly stops a started metrics server when later assembly
// fails. Nil is fine.
func shutdownQuietly(srv *metrics.Server) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
