package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AstroAir/PromptBoost-sub001/pkg/usage"
)

// Config controls how much ledger history is kept.
type Config struct {
	// Days is the number of days of records to retain.
	// 0 keeps records forever (no age pruning).
	Days int `yaml:"days"`

	// MaxRecords caps the total record count. When the ledger grows
	// past it, the oldest records go first. 0 means unlimited.
	MaxRecords int64 `yaml:"max_records"`

	// Schedule is a cron expression for automatic pruning.
	// Example: "0 3 * * *" (daily at 3 AM). Empty disables the
	// scheduler; Prune can still be called directly.
	Schedule string `yaml:"schedule"`
}

// DefaultConfig returns the default retention settings.
func DefaultConfig() *Config {
	return &Config{
		Days:       90,
		MaxRecords: 0,
		Schedule:   "0 3 * * *",
	}
}

// Pruner enforces the retention policy on a usage store.
type Pruner struct {
	store     usage.Store
	config    *Config
	logger    *slog.Logger
	scheduler *Scheduler
}

// NewPruner creates a pruner over the given store.
func NewPruner(store usage.Store, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}
	p := &Pruner{
		store:  store,
		config: config,
		logger: slog.Default().With("component", "usage.retention"),
	}
	p.scheduler = NewScheduler(p)
	return p
}

// Prune applies the retention policy once and returns how many records
// were deleted.
//
// Pruning runs in two phases:
//  1. Age: delete records older than Days.
//  2. Count: if more than MaxRecords remain, delete the oldest until
//     the cap holds.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.Days > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by age: %w", err)
		}
		total += deleted
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by count: %w", err)
		}
		total += deleted
	}

	if total > 0 {
		p.logger.Info("usage pruning completed",
			"deleted", total,
			"retention_days", p.config.Days,
			"max_records", p.config.MaxRecords,
		)
	} else {
		p.logger.Debug("usage pruning completed, nothing to delete")
	}
	return total, nil
}

func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -p.config.Days)
	return p.store.Delete(ctx, &usage.Query{End: &cutoff})
}

func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.store.Count(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	if count <= p.config.MaxRecords {
		return 0, nil
	}

	// The store orders newest first, so the record at offset MaxRecords
	// is the newest one past the cap. Everything at or before its
	// timestamp goes; records sharing that timestamp go together.
	over, err := p.store.Query(ctx, &usage.Query{
		Limit:  1,
		Offset: int(p.config.MaxRecords),
	})
	if err != nil {
		return 0, fmt.Errorf("find cutoff record: %w", err)
	}
	if len(over) == 0 {
		return 0, nil
	}

	cutoff := over[0].Time
	return p.store.Delete(ctx, &usage.Query{End: &cutoff})
}

// Start begins scheduled pruning. Call during application startup.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop halts scheduled pruning. Call during graceful shutdown.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the next scheduled run, or nil when the
// scheduler is idle.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
