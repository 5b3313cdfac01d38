package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/AstroAir/PromptBoost-sub001/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "promptboost",
	Short: "PromptBoost - unified gateway for AI text generation",
	Long: `PromptBoost is a command-line gateway for AI text-generation services.

It speaks the wire dialects of the major hosted providers behind one
interface, providing:
  - One-shot and streaming text generation
  - Automatic retries with exponential backoff and jitter
  - Client-side rate limiting with per-provider presets
  - Usage accounting with memory and SQLite ledgers
  - Structured logging, Prometheus metrics, and OTLP tracing

For more information, visit: https://github.com/AstroAir/PromptBoost-sub001`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// API keys live in .env during development; the config file
		// references them as ${VAR}. A missing .env is not an error.
		_ = godotenv.Load()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
