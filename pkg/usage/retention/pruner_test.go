package retention

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AstroAir/PromptBoost-sub001/pkg/usage"
	"github.com/AstroAir/PromptBoost-sub001/pkg/usage/store"
)

// TestPruner_PruneByAge tests that records older than the retention
// period are deleted and newer ones kept.
func TestPruner_PruneByAge(t *testing.T) {
	s := store.NewMemory(0)
	config := DefaultConfig()
	config.Days = 7
	config.Schedule = ""

	pruner := NewPruner(s, config)

	ctx := context.Background()
	now := time.Now()

	records := []*usage.Record{
		ledgerRecord("old-1", now.AddDate(0, 0, -10)),
		ledgerRecord("old-2", now.AddDate(0, 0, -8)),
		ledgerRecord("recent-1", now.AddDate(0, 0, -5)),
		ledgerRecord("recent-2", now.AddDate(0, 0, -3)),
	}
	for _, rec := range records {
		if err := s.Append(ctx, rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	deleted, err := pruner.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted records, got %d", deleted)
	}

	remaining, _ := s.Query(ctx, nil)
	if len(remaining) != 2 {
		t.Fatalf("Expected 2 remaining records, got %d", len(remaining))
	}
	for _, r := range remaining {
		if r.ID == "old-1" || r.ID == "old-2" {
			t.Errorf("Old record %s should have been deleted", r.ID)
		}
	}
}

// TestPruner_PruneByCount tests that the oldest records go when the
// ledger exceeds the record cap.
func TestPruner_PruneByCount(t *testing.T) {
	s := store.NewMemory(0)
	config := &Config{Days: 0, MaxRecords: 3}

	pruner := NewPruner(s, config)

	ctx := context.Background()
	now := time.Now()
	for i := 0; i < 5; i++ {
		rec := ledgerRecord(fmt.Sprintf("rec-%d", i), now.Add(time.Duration(i)*time.Minute))
		if err := s.Append(ctx, rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	deleted, err := pruner.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted records, got %d", deleted)
	}

	remaining, _ := s.Query(ctx, nil)
	if len(remaining) != 3 {
		t.Fatalf("Expected 3 remaining records, got %d", len(remaining))
	}
	// Newest three survive.
	if remaining[0].ID != "rec-4" || remaining[2].ID != "rec-2" {
		t.Errorf("Expected rec-4..rec-2 to survive, got %s..%s", remaining[0].ID, remaining[2].ID)
	}
}

// TestPruner_Disabled tests that zero settings prune nothing.
func TestPruner_Disabled(t *testing.T) {
	s := store.NewMemory(0)
	pruner := NewPruner(s, &Config{Days: 0, MaxRecords: 0})

	ctx := context.Background()
	if err := s.Append(ctx, ledgerRecord("ancient", time.Now().AddDate(0, 0, -365))); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	deleted, err := pruner.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Expected nothing pruned, got %d", deleted)
	}

	n, _ := s.Count(ctx, nil)
	if n != 1 {
		t.Errorf("Expected record to survive, count %d", n)
	}
}

// TestPruner_BothPhases tests age and count pruning running together.
func TestPruner_BothPhases(t *testing.T) {
	s := store.NewMemory(0)
	config := &Config{Days: 7, MaxRecords: 2}

	pruner := NewPruner(s, config)

	ctx := context.Background()
	now := time.Now()

	// One beyond the age limit, three within it (one over the cap).
	records := []*usage.Record{
		ledgerRecord("expired", now.AddDate(0, 0, -10)),
		ledgerRecord("a", now.Add(-3*time.Hour)),
		ledgerRecord("b", now.Add(-2*time.Hour)),
		ledgerRecord("c", now.Add(-1*time.Hour)),
	}
	for _, rec := range records {
		if err := s.Append(ctx, rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	deleted, err := pruner.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted records, got %d", deleted)
	}

	remaining, _ := s.Query(ctx, nil)
	if len(remaining) != 2 || remaining[0].ID != "c" || remaining[1].ID != "b" {
		t.Errorf("Expected [c b] to survive, got %d records", len(remaining))
	}
}

// TestPruner_NilConfig tests that a nil config falls back to defaults.
func TestPruner_NilConfig(t *testing.T) {
	pruner := NewPruner(store.NewMemory(0), nil)
	if pruner.config.Days != 90 {
		t.Errorf("Expected default 90 days, got %d", pruner.config.Days)
	}
	if pruner.config.Schedule != "0 3 * * *" {
		t.Errorf("Expected default schedule, got %q", pruner.config.Schedule)
	}
}

// ledgerRecord builds a minimal successful record at the given time.
func ledgerRecord(id string, at time.Time) *usage.Record {
	return &usage.Record{
		ID:          id,
		Time:        at,
		Provider:    "openai",
		Model:       "gpt-4",
		Operation:   usage.OpGenerate,
		TotalTokens: 30,
		Status:      usage.StatusOK,
		Attempts:    1,
	}
}
