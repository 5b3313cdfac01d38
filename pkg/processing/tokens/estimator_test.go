package tokens

import "testing"

func TestEstimator_Count(t *testing.T) {
	est := NewEstimator(map[string]float64{
		"gpt-4":   4.0,
		"claude":  3.5,
		"default": 4.0,
	})

	tests := []struct {
		name  string
		text  string
		model string
		min   int
		max   int
	}{
		{name: "empty text", text: "", model: "gpt-4", min: 0, max: 0},
		{name: "short text gpt-4", text: "Hello, world!", model: "gpt-4", min: 2, max: 4},
		{name: "short text claude", text: "Hello, world!", model: "claude", min: 3, max: 5},
		{name: "single char counts one", text: "x", model: "gpt-4", min: 1, max: 1},
		{
			name:  "medium text",
			text:  "This is a longer message that should result in more tokens being estimated for the request.",
			model: "gpt-4",
			min:   20,
			max:   25,
		},
		{name: "unknown model uses default", text: "Hello, world!", model: "unknown-model", min: 2, max: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := est.Count(tt.text, tt.model)
			if got < tt.min || got > tt.max {
				t.Errorf("Count(%q, %q) = %d, want between %d and %d", tt.text, tt.model, got, tt.min, tt.max)
			}
		})
	}
}

func TestEstimator_PrefixMatching(t *testing.T) {
	est := NewEstimator(map[string]float64{
		"gpt-4":    4.0,
		"gpt-4o":   2.0,
		"claude-3": 3.5,
		"default":  4.0,
	})

	// 20 chars: ratio 2.0 yields 10 tokens, ratio 4.0 yields 5.
	text := "aaaaaaaaaaaaaaaaaaaa"

	if got := est.Count(text, "gpt-4o-mini"); got != 10 {
		t.Errorf("expected the longest prefix (gpt-4o) to win, got %d tokens", got)
	}
	if got := est.Count(text, "gpt-4-turbo"); got != 5 {
		t.Errorf("expected the gpt-4 ratio, got %d tokens", got)
	}
	if got := est.Count(text, "claude-3-5-haiku"); got != 6 {
		t.Errorf("expected the claude-3 ratio (ceil handling), got %d tokens", got)
	}
}

func TestEstimator_Usage(t *testing.T) {
	est := NewEstimator(nil)

	u := est.Usage("What is the capital of France?", "Paris.", "gpt-4o-mini")
	if !u.Estimated {
		t.Error("expected estimated usage to be marked")
	}
	if u.PromptTokens == 0 || u.CompletionTokens == 0 {
		t.Errorf("expected non-zero counts, got %+v", u)
	}
	if u.TotalTokens != u.PromptTokens+u.CompletionTokens {
		t.Errorf("total %d does not match %d + %d", u.TotalTokens, u.PromptTokens, u.CompletionTokens)
	}
}

func TestEstimator_SetRatio(t *testing.T) {
	est := NewEstimator(nil)
	est.SetRatio("my-model", 2.0)

	if got := est.Count("aaaaaaaa", "my-model"); got != 4 {
		t.Errorf("expected the installed ratio to apply, got %d tokens", got)
	}

	// Invalid updates are ignored.
	est.SetRatio("my-model", -1)
	if got := est.Count("aaaaaaaa", "my-model"); got != 4 {
		t.Errorf("expected invalid ratio ignored, got %d tokens", got)
	}
}
