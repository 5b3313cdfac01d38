package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/AstroAir/PromptBoost-sub001/pkg/cli"
	"github.com/AstroAir/PromptBoost-sub001/pkg/usage"
	"github.com/AstroAir/PromptBoost-sub001/pkg/usage/retention"
)

var usageFlags struct {
	provider string
	model    string
	since    time.Duration
	limit    int
	records  bool
	prune    bool
	format   string
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Report recorded token usage",
	Long: `Report token usage from the ledger.

The default report aggregates matching records into totals plus a
per-provider breakdown. --records lists individual entries newest
first. --prune applies the retention policy (usage.retention) right
away instead of waiting for the next scheduled run; it ignores the
filter flags.

Requires usage accounting (usage.enabled: true in the config file).

Examples:
  # Totals for everything on record
  promptboost usage

  # The last day of anthropic traffic
  promptboost usage --provider anthropic --since 24h

  # Ten most recent records as CSV
  promptboost usage --records --limit 10 --format csv

  # Apply the retention policy now
  promptboost usage --prune`,
	RunE: runUsage,
}

func init() {
	rootCmd.AddCommand(usageCmd)

	usageCmd.Flags().StringVarP(&usageFlags.provider, "provider", "p", "", "only this provider")
	usageCmd.Flags().StringVarP(&usageFlags.model, "model", "m", "", "only this model")
	usageCmd.Flags().DurationVar(&usageFlags.since, "since", 0, "only records newer than this (e.g. 24h)")
	usageCmd.Flags().IntVar(&usageFlags.limit, "limit", 20, "max entries listed by --records")
	usageCmd.Flags().BoolVar(&usageFlags.records, "records", false, "list individual records instead of totals")
	usageCmd.Flags().BoolVar(&usageFlags.prune, "prune", false, "apply the retention policy now")
	usageCmd.Flags().StringVar(&usageFlags.format, "format", "text", "output format: text, json, csv")
}

func runUsage(cmd *cobra.Command, args []string) error {
	switch cli.OutputFormat(usageFlags.format) {
	case cli.FormatText, cli.FormatJSON, cli.FormatCSV:
	default:
		return cli.NewCommandError("usage", fmt.Errorf("unknown output format %q", usageFlags.format))
	}

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if a.store == nil {
		return cli.NewConfigError("usage.enabled", "usage accounting is disabled")
	}

	ctx := context.Background()
	if cmd != nil && cmd.Context() != nil {
		ctx = cmd.Context()
	}
	if usageFlags.prune {
		return pruneLedger(ctx, a)
	}

	q := &usage.Query{
		Provider: usageFlags.provider,
		Model:    usageFlags.model,
	}
	if usageFlags.since > 0 {
		start := time.Now().Add(-usageFlags.since)
		q.Start = &start
	}

	if usageFlags.records {
		return printRecords(ctx, a, q)
	}
	return printUsageSummary(ctx, a, q)
}

// pruneLedger applies the retention policy once. It works whether or
// not a schedule is configured.
func pruneLedger(ctx context.Context, a *app) error {
	rc := a.cfg.Usage.Retention
	pruner := retention.NewPruner(a.store, &retention.Config{
		Days:       rc.Days,
		MaxRecords: rc.MaxRecords,
	})
	deleted, err := pruner.Prune(ctx)
	if err != nil {
		return cli.NewCommandError("usage", err)
	}
	fmt.Printf("✓ pruned %d records\n", deleted)
	return nil
}

func printRecords(ctx context.Context, a *app, q *usage.Query) error {
	q.Limit = usageFlags.limit
	recs, err := a.store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("usage", err)
	}

	if cli.OutputFormat(usageFlags.format) != cli.FormatText {
		return formatUsage(recordsReport(recs))
	}

	if len(recs) == 0 {
		fmt.Println("no matching records")
		return nil
	}
	for _, rec := range recs {
		tokens := strconv.Itoa(rec.TotalTokens)
		if rec.Estimated {
			// A leading tilde marks counts the estimator produced.
			tokens = "~" + tokens
		}
		fmt.Printf("%s  %-12s %-20s %-8s %-10s %7s tokens  %s\n",
			rec.Time.Format("2006-01-02 15:04:05"),
			rec.Provider,
			rec.Model,
			rec.Operation,
			rec.Status,
			tokens,
			rec.Duration.Round(time.Millisecond),
		)
	}
	return nil
}

func printUsageSummary(ctx context.Context, a *app, q *usage.Query) error {
	sum, err := a.store.Summarize(ctx, q)
	if err != nil {
		return cli.NewCommandError("usage", err)
	}

	if cli.OutputFormat(usageFlags.format) != cli.FormatText {
		return formatUsage(summaryReport{sum})
	}

	if sum.Requests == 0 {
		fmt.Println("no usage recorded")
		return nil
	}

	fmt.Printf("requests: %d", sum.Requests)
	if sum.Failures > 0 {
		fmt.Printf(" (%d failed)", sum.Failures)
	}
	fmt.Println()
	fmt.Printf("tokens:   %d prompt + %d completion = %d total\n",
		sum.PromptTokens, sum.CompletionTokens, sum.TotalTokens)
	if sum.Estimated > 0 {
		fmt.Printf("estimated: %d of %d records counted locally\n", sum.Estimated, sum.Requests)
	}

	if len(sum.ByProvider) > 1 {
		fmt.Println()
		names := make([]string, 0, len(sum.ByProvider))
		for name := range sum.ByProvider {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			t := sum.ByProvider[name]
			fmt.Printf("  %-12s %6d requests  %9d tokens\n", name, t.Requests, t.TotalTokens)
		}
	}
	return nil
}

// formatUsage renders a report in one of the structured formats.
func formatUsage(report interface{}) error {
	f := cli.NewFormatter(cli.OutputFormat(usageFlags.format))
	if err := f.FormatTo(os.Stdout, report); err != nil {
		return cli.NewCommandError("usage", err)
	}
	return nil
}

// summaryReport renders a ledger summary through the output formatters.
type summaryReport struct {
	*usage.Summary
}

func (r summaryReport) TableHeader() []string {
	return []string{"provider", "requests", "failures", "prompt_tokens", "completion_tokens", "total_tokens", "estimated"}
}

func (r summaryReport) TableRows() [][]string {
	names := make([]string, 0, len(r.ByProvider))
	for name := range r.ByProvider {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names)+1)
	for _, name := range names {
		rows = append(rows, totalsRow(name, r.ByProvider[name]))
	}
	// The (all) row cannot collide with a provider name; config keys
	// never carry parentheses.
	rows = append(rows, totalsRow("(all)", &r.Totals))
	return rows
}

func totalsRow(name string, t *usage.Totals) []string {
	return []string{
		name,
		strconv.FormatInt(t.Requests, 10),
		strconv.FormatInt(t.Failures, 10),
		strconv.FormatInt(t.PromptTokens, 10),
		strconv.FormatInt(t.CompletionTokens, 10),
		strconv.FormatInt(t.TotalTokens, 10),
		strconv.FormatInt(t.Estimated, 10),
	}
}

// recordsReport renders individual ledger records through the output
// formatters.
type recordsReport []*usage.Record

func (r recordsReport) TableHeader() []string {
	return []string{"time", "provider", "model", "operation", "status",
		"prompt_tokens", "completion_tokens", "total_tokens", "estimated", "attempts", "duration"}
}

func (r recordsReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, rec := range r {
		rows = append(rows, []string{
			rec.Time.Format(time.RFC3339),
			rec.Provider,
			rec.Model,
			rec.Operation,
			rec.Status,
			strconv.Itoa(rec.PromptTokens),
			strconv.Itoa(rec.CompletionTokens),
			strconv.Itoa(rec.TotalTokens),
			strconv.FormatBool(rec.Estimated),
			strconv.Itoa(rec.Attempts),
			rec.Duration.String(),
		})
	}
	return rows
}
