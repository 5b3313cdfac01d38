package usage

import (
	"testing"
	"time"
)

func TestQuery_Matches(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := &Record{
		ID:        "r1",
		Time:      at,
		Provider:  "openai",
		Model:     "gpt-4o-mini",
		KeyHash:   "abcd1234",
		Operation: OpGenerate,
		Status:    StatusOK,
	}

	before := at.Add(-time.Second)
	after := at.Add(time.Second)

	tests := []struct {
		name  string
		query *Query
		want  bool
	}{
		{"nil query", nil, true},
		{"empty query", &Query{}, true},
		{"start before record", &Query{Start: &before}, true},
		{"start equals record time", &Query{Start: &at}, true},
		{"start after record", &Query{Start: &after}, false},
		{"end after record", &Query{End: &after}, true},
		{"end equals record time", &Query{End: &at}, true},
		{"end before record", &Query{End: &before}, false},
		{"provider match", &Query{Provider: "openai"}, true},
		{"provider mismatch", &Query{Provider: "cohere"}, false},
		{"model mismatch", &Query{Model: "gpt-4"}, false},
		{"key hash mismatch", &Query{KeyHash: "ffff0000"}, false},
		{"operation mismatch", &Query{Operation: OpStream}, false},
		{"status mismatch", &Query{Status: "NETWORK"}, false},
		{"all filters match", &Query{Provider: "openai", Model: "gpt-4o-mini", Operation: OpGenerate, Status: StatusOK}, true},
		{"pagination ignored", &Query{Limit: 1, Offset: 99}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.Matches(rec); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	now := time.Now()
	records := []*Record{
		{Provider: "openai", Status: StatusOK, PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15, Time: now},
		{Provider: "openai", Status: "RATE_LIMIT", Attempts: 3, Time: now},
		{Provider: "anthropic", Status: StatusOK, PromptTokens: 8, CompletionTokens: 2, TotalTokens: 10, Estimated: true, Time: now},
	}

	s := Summarize(records)
	if s.Requests != 3 || s.Failures != 1 {
		t.Errorf("expected 3 requests with 1 failure, got %d/%d", s.Requests, s.Failures)
	}
	if s.PromptTokens != 18 || s.CompletionTokens != 7 || s.TotalTokens != 25 {
		t.Errorf("unexpected token totals: %d/%d/%d", s.PromptTokens, s.CompletionTokens, s.TotalTokens)
	}
	if s.Estimated != 1 {
		t.Errorf("expected 1 estimated record, got %d", s.Estimated)
	}
	if len(s.ByProvider) != 2 {
		t.Fatalf("expected 2 provider buckets, got %d", len(s.ByProvider))
	}
	if s.ByProvider["openai"].Failures != 1 {
		t.Errorf("expected the failure counted under openai")
	}
	if s.ByProvider["anthropic"].TotalTokens != 10 {
		t.Errorf("expected anthropic tokens isolated, got %d", s.ByProvider["anthropic"].TotalTokens)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Requests != 0 {
		t.Errorf("expected zero requests, got %d", s.Requests)
	}
	if len(s.ByProvider) != 0 {
		t.Errorf("expected no provider buckets, got %d", len(s.ByProvider))
	}
}
