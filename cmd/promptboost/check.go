package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AstroAir/PromptBoost-sub001/pkg/cli"
	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

var checkFlags struct {
	provider string
	timeout  time.Duration
	format   string
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe provider credentials",
	Long: `Probe the configured providers with a cheap authenticated request.

Probes run concurrently and never consume completion tokens. The
command exits 0 when every probe passes, 3 when any provider rejects
its credentials, and 1 on other failures (network, server).

Examples:
  # Probe every configured provider
  promptboost check

  # Probe one provider with a longer budget
  promptboost check --provider huggingface --timeout 60s

  # Machine-readable report
  promptboost check --format json`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkFlags.provider, "provider", "p", "", "probe only this provider")
	checkCmd.Flags().DurationVar(&checkFlags.timeout, "timeout", 30*time.Second, "budget for all probes")
	checkCmd.Flags().StringVar(&checkFlags.format, "format", "text", "output format: text, json")
}

// probeResult is one provider's credential probe outcome.
type probeResult struct {
	Provider string `json:"provider"`
	Kind     string `json:"kind,omitempty"`
	OK       bool   `json:"ok"`
	Category string `json:"category,omitempty"`
	Error    string `json:"error,omitempty"`
	Elapsed  string `json:"elapsed"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	names := a.providerNames()
	if checkFlags.provider != "" {
		names = []string{checkFlags.provider}
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, checkFlags.timeout)
	defer cancel()

	// Progress goes to stderr so JSON output on stdout stays parseable.
	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(int64(len(names)))

	results := make([]probeResult, len(names))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			results[i] = probeProvider(gctx, a, name)
			progress.Update(done.Add(1))
			return nil
		})
	}
	// Probes report failures through results, never through the group.
	_ = g.Wait()
	progress.Finish()

	if checkFlags.format == "json" {
		if err := cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			label := r.Provider
			if r.Kind != "" && r.Kind != r.Provider {
				label = fmt.Sprintf("%s (%s)", r.Provider, r.Kind)
			}
			if r.OK {
				fmt.Printf("✓ %s: ok (%s)\n", label, r.Elapsed)
			} else {
				fmt.Printf("✗ %s: %s\n", label, r.Error)
			}
		}
	}

	return checkVerdict(results)
}

// probeProvider resolves one configured provider and runs its
// authentication probe.
func probeProvider(ctx context.Context, a *app, name string) probeResult {
	start := time.Now()
	result := probeResult{Provider: name}

	h, err := a.resolve(name)
	if err != nil {
		result.Error = err.Error()
		result.Elapsed = time.Since(start).Round(time.Millisecond).String()
		if perr := asProviderError(err); perr != nil {
			result.Category = string(perr.Category)
		}
		return result
	}
	defer h.Close()
	result.Kind = h.Name()

	auth := h.Authenticate(ctx)
	result.Elapsed = time.Since(start).Round(time.Millisecond).String()
	if auth.OK {
		result.OK = true
		return result
	}
	if auth.Err != nil {
		result.Category = string(auth.Err.Category)
		result.Error = auth.Err.Error()
	} else {
		result.Error = "authentication failed"
	}
	return result
}

// checkVerdict folds probe results into the command error. Rejected
// credentials dominate so scripts see exit code 3.
func checkVerdict(results []probeResult) error {
	failures := 0
	var authFailed *probeResult
	for i := range results {
		r := &results[i]
		if r.OK {
			continue
		}
		failures++
		if authFailed == nil && r.Category == string(providers.CategoryAuthentication) {
			authFailed = r
		}
	}

	if failures == 0 {
		return nil
	}
	if authFailed != nil {
		return cli.NewAuthError(authFailed.Provider, errors.New(authFailed.Error))
	}
	return cli.NewCommandError("check", fmt.Errorf("%d of %d probes failed", failures, len(results)))
}

func asProviderError(err error) *providers.Error {
	var perr *providers.Error
	if errors.As(err, &perr) {
		return perr
	}
	return nil
}
