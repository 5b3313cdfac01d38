package providers

import (
	"testing"
	"time"
)

// TestConfig_WithDefaults verifies zero fields pick up package defaults
// while explicit values survive.
func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{APIKey: "k", Model: "m"}.WithDefaults()

	if cfg.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout %s, got %s", DefaultTimeout, cfg.Timeout)
	}
	if cfg.MaxTokens != DefaultMaxTokens {
		t.Errorf("expected default max tokens %d, got %d", DefaultMaxTokens, cfg.MaxTokens)
	}
	if cfg.Temperature != DefaultTemperature {
		t.Errorf("expected default temperature %v, got %v", DefaultTemperature, cfg.Temperature)
	}
	if cfg.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("expected default max attempts %d, got %d", DefaultMaxAttempts, cfg.MaxAttempts)
	}

	explicit := Config{
		Timeout:     5 * time.Second,
		MaxTokens:   64,
		Temperature: 0.2,
		MaxAttempts: 1,
	}.WithDefaults()
	if explicit.Timeout != 5*time.Second || explicit.MaxTokens != 64 ||
		explicit.Temperature != 0.2 || explicit.MaxAttempts != 1 {
		t.Errorf("explicit values overwritten: %+v", explicit)
	}
}

// TestOptions_Resolve verifies per-call options fall back to the
// provider configuration.
func TestOptions_Resolve(t *testing.T) {
	cfg := Config{Model: "gpt-4o-mini", MaxTokens: 256, Temperature: 0.5}

	resolved := Options{}.Resolve(cfg)
	if resolved.Model != "gpt-4o-mini" {
		t.Errorf("expected model fallback, got %q", resolved.Model)
	}
	if resolved.MaxTokens != 256 {
		t.Errorf("expected max tokens fallback, got %d", resolved.MaxTokens)
	}
	if resolved.Temperature != 0.5 {
		t.Errorf("expected temperature fallback, got %v", resolved.Temperature)
	}

	override := Options{Model: "gpt-4o", MaxTokens: 50, Temperature: 0.7}.Resolve(cfg)
	if override.Model != "gpt-4o" || override.MaxTokens != 50 || override.Temperature != 0.7 {
		t.Errorf("per-call overrides lost: %+v", override)
	}
}

// TestUsage_Add verifies accumulation across partial reports.
func TestUsage_Add(t *testing.T) {
	var u Usage
	u.Add(Usage{PromptTokens: 10, CompletionTokens: 2, TotalTokens: 12})
	u.Add(Usage{CompletionTokens: 3, TotalTokens: 3, Estimated: true})

	if u.PromptTokens != 10 || u.CompletionTokens != 5 || u.TotalTokens != 15 {
		t.Errorf("unexpected totals: %+v", u)
	}
	if !u.Estimated {
		t.Error("expected estimated flag to be sticky")
	}
}
