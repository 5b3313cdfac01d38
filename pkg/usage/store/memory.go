package store

import (
	"context"
	"sync"

	"github.com/AstroAir/PromptBoost-sub001/pkg/usage"
)

// DefaultMemoryCap bounds the in-memory ledger when no cap is given.
const DefaultMemoryCap = 10000

// Memory implements usage.Store with a bounded in-process buffer.
// When the cap is reached the oldest records are dropped. Intended for
// tests and ephemeral runs; persistent ledgers use the SQLite store.
type Memory struct {
	mu      sync.RWMutex
	records []*usage.Record // ordered oldest first
	cap     int
}

// NewMemory creates a memory store holding at most cap records. A cap
// at or below zero selects DefaultMemoryCap.
func NewMemory(cap int) *Memory {
	if cap <= 0 {
		cap = DefaultMemoryCap
	}
	return &Memory{cap: cap}
}

// Append writes one record, evicting the oldest when full.
func (m *Memory) Append(ctx context.Context, rec *usage.Record) error {
	copied := *rec

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.records) >= m.cap {
		drop := len(m.records) - m.cap + 1
		m.records = append(m.records[:0], m.records[drop:]...)
	}
	m.records = append(m.records, &copied)
	return nil
}

// Query returns matching records, newest first.
func (m *Memory) Query(ctx context.Context, q *usage.Query) ([]*usage.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []*usage.Record
	for i := len(m.records) - 1; i >= 0; i-- {
		if q.Matches(m.records[i]) {
			copied := *m.records[i]
			results = append(results, &copied)
		}
	}

	if q != nil {
		if q.Offset > 0 {
			if q.Offset >= len(results) {
				return nil, nil
			}
			results = results[q.Offset:]
		}
		if q.Limit > 0 && q.Limit < len(results) {
			results = results[:q.Limit]
		}
	}
	return results, nil
}

// Summarize aggregates matching records.
func (m *Memory) Summarize(ctx context.Context, q *usage.Query) (*usage.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*usage.Record
	for _, rec := range m.records {
		if q.Matches(rec) {
			matched = append(matched, rec)
		}
	}
	return usage.Summarize(matched), nil
}

// Count returns the number of matching records.
func (m *Memory) Count(ctx context.Context, q *usage.Query) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, rec := range m.records {
		if q.Matches(rec) {
			n++
		}
	}
	return n, nil
}

// Delete removes matching records.
func (m *Memory) Delete(ctx context.Context, q *usage.Query) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	var deleted int64
	for _, rec := range m.records {
		if q.Matches(rec) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	m.records = kept
	return deleted, nil
}

// Close drops all records.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.records = nil
	m.mu.Unlock()
	return nil
}

// Size returns the stored record count (for tests).
func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
