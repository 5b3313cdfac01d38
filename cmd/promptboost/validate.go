package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AstroAir/PromptBoost-sub001/pkg/cli"
	"github.com/AstroAir/PromptBoost-sub001/pkg/config"
)

var validateFlags struct {
	watch bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate the configuration file without calling any provider.

Validation checks YAML syntax, unknown fields, provider entries,
retry and rate-limit bounds, usage ledger settings, and telemetry
settings. With --watch the command keeps running and re-validates on
every file change, which makes editing a live config safe.

Examples:
  # One-shot validation
  promptboost validate

  # Validate a specific file
  promptboost validate --config /etc/promptboost/config.yaml

  # Re-validate on each edit until interrupted
  promptboost validate --watch`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVarP(&validateFlags.watch, "watch", "w", false, "keep running and re-validate on file changes")
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := validateOnce(); err != nil {
		if !validateFlags.watch {
			return err
		}
		// In watch mode a broken config is the thing being fixed;
		// report it and keep watching.
		fmt.Printf("✗ %v\n", err)
	}

	if !validateFlags.watch {
		return nil
	}
	return watchConfig()
}

// validateOnce loads the file and prints what a valid configuration
// declares. Environment overrides are deliberately not applied: the
// file has to stand on its own.
func validateOnce() error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("✓ %s is valid\n", cfgFile)
	fmt.Printf("  providers: %s\n", strings.Join(names, ", "))
	if cfg.Usage.Enabled {
		fmt.Printf("  usage ledger: %s\n", cfg.Usage.Backend)
	}
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("  metrics: %s%s\n", cfg.Telemetry.Metrics.Address, cfg.Telemetry.Metrics.Path)
	}
	if cfg.Telemetry.Tracing.Enabled {
		fmt.Printf("  tracing: %s\n", cfg.Telemetry.Tracing.Endpoint)
	}
	return nil
}

// watchConfig re-validates the file on every change until interrupted.
func watchConfig() error {
	watcher, err := config.NewWatcher(config.WatcherConfig{Path: cfgFile})
	if err != nil {
		return cli.NewCommandError("validate", err)
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	fmt.Printf("Watching %s (Ctrl+C to stop)\n", cfgFile)

	err = watcher.Watch(ctx, func(cfg *config.Config, err error) {
		stamp := time.Now().Format("15:04:05")
		if err != nil {
			fmt.Printf("[%s] ✗ %v\n", stamp, err)
			return
		}
		fmt.Printf("[%s] ✓ %s is valid (%d providers)\n", stamp, cfgFile, len(cfg.Providers))
	})
	if err != nil {
		return cli.NewCommandError("validate", err)
	}
	return nil
}
