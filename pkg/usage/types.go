package usage

import (
	"context"
	"time"
)

// Operation names recorded in the ledger.
const (
	OpGenerate = "generate"
	OpStream   = "stream"
)

// StatusOK marks a successful call. Failed calls carry the error
// category string instead (NETWORK, RATE_LIMIT, and so on).
const StatusOK = "ok"

// Record is one ledger entry: the token accounting and outcome of a
// single gateway call.
type Record struct {
	// Identity
	ID   string    `json:"id"` // gateway request id (UUID v4)
	Time time.Time `json:"time"`

	// Routing
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	KeyHash   string `json:"key_hash"` // hashed API key, never the key itself
	Operation string `json:"operation"`

	// Token accounting. Estimated marks counts derived locally because
	// the provider reported none.
	PromptTokens     int  `json:"prompt_tokens"`
	CompletionTokens int  `json:"completion_tokens"`
	TotalTokens      int  `json:"total_tokens"`
	Estimated        bool `json:"estimated,omitempty"`

	// Outcome
	Status   string        `json:"status"`
	Code     string        `json:"code,omitempty"` // machine-readable error refinement
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`
}

// Query filters ledger reads. Zero fields match everything.
type Query struct {
	// Time range, inclusive on both ends
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`

	// Filters
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
	KeyHash   string `json:"key_hash,omitempty"`
	Operation string `json:"operation,omitempty"`
	Status    string `json:"status,omitempty"`

	// Pagination. Zero Limit means no cap.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Matches reports whether a record passes the query's filters. Pagination
// fields are ignored; they apply to the result set, not single records.
func (q *Query) Matches(r *Record) bool {
	if q == nil {
		return true
	}
	if q.Start != nil && r.Time.Before(*q.Start) {
		return false
	}
	if q.End != nil && r.Time.After(*q.End) {
		return false
	}
	if q.Provider != "" && r.Provider != q.Provider {
		return false
	}
	if q.Model != "" && r.Model != q.Model {
		return false
	}
	if q.KeyHash != "" && r.KeyHash != q.KeyHash {
		return false
	}
	if q.Operation != "" && r.Operation != q.Operation {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	return true
}

// Totals aggregates a set of records.
type Totals struct {
	Requests         int64 `json:"requests"`
	Failures         int64 `json:"failures"`
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`

	// Estimated counts records whose token numbers came from the
	// estimator rather than the provider.
	Estimated int64 `json:"estimated"`
}

// add folds one record into the totals.
func (t *Totals) add(r *Record) {
	t.Requests++
	if r.Status != StatusOK {
		t.Failures++
	}
	t.PromptTokens += int64(r.PromptTokens)
	t.CompletionTokens += int64(r.CompletionTokens)
	t.TotalTokens += int64(r.TotalTokens)
	if r.Estimated {
		t.Estimated++
	}
}

// Summary is the aggregated view of a query's matches.
type Summary struct {
	Totals

	// ByProvider breaks the totals down per provider name.
	ByProvider map[string]*Totals `json:"by_provider,omitempty"`
}

// Summarize builds a summary from a slice of records. Stores without a
// native aggregation path use it; SQL stores aggregate in the database.
func Summarize(records []*Record) *Summary {
	s := &Summary{ByProvider: make(map[string]*Totals)}
	for _, r := range records {
		s.add(r)
		pt := s.ByProvider[r.Provider]
		if pt == nil {
			pt = &Totals{}
			s.ByProvider[r.Provider] = pt
		}
		pt.add(r)
	}
	return s
}

// Store persists ledger records. Implementations must be safe for
// concurrent use.
type Store interface {
	// Append writes one record to the ledger.
	Append(ctx context.Context, rec *Record) error

	// Query returns the records matching q, newest first.
	Query(ctx context.Context, q *Query) ([]*Record, error)

	// Summarize aggregates the records matching q. Pagination fields
	// of q are ignored.
	Summarize(ctx context.Context, q *Query) (*Summary, error)

	// Count returns the number of records matching q.
	Count(ctx context.Context, q *Query) (int64, error)

	// Delete removes the records matching q and returns how many went.
	// Retention pruning is its main caller.
	Delete(ctx context.Context, q *Query) (int64, error)

	// Close releases the store's resources.
	Close() error
}
