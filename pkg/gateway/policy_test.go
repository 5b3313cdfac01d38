package gateway

import (
	"errors"
	"testing"
	"time"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

func TestPolicy_DelayWithoutJitter(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second, JitterFrac: 0}

	tests := []struct {
		failures int
		want     time.Duration
	}{
		{failures: 1, want: time.Second},
		{failures: 2, want: 2 * time.Second},
		{failures: 3, want: 4 * time.Second},
		{failures: 4, want: 8 * time.Second},
		{failures: 5, want: 10 * time.Second}, // capped
		{failures: 8, want: 10 * time.Second},
		{failures: 0, want: time.Second}, // treated as the first failure
	}
	for _, tt := range tests {
		if got := p.Delay(tt.failures); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.failures, got, tt.want)
		}
	}
}

func TestPolicy_DelayJitterBounds(t *testing.T) {
	p := DefaultPolicy()

	for i := 0; i < 200; i++ {
		d := p.Delay(1)
		if d < 800*time.Millisecond || d > 1200*time.Millisecond {
			t.Fatalf("Delay(1) = %v, want within ±20%% of 1s", d)
		}
		d = p.Delay(2)
		if d < 1600*time.Millisecond || d > 2400*time.Millisecond {
			t.Fatalf("Delay(2) = %v, want within ±20%% of 2s", d)
		}
	}
}

func TestPolicy_Retryable(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"network", providers.NewError("openai", providers.CategoryNetwork, "refused"), true},
		{"rate limit", providers.NewError("openai", providers.CategoryRateLimit, "429"), true},
		{"server", providers.NewError("openai", providers.CategoryServer, "500"), true},
		{"authentication", providers.NewError("openai", providers.CategoryAuthentication, "401"), false},
		{"validation", providers.NewError("openai", providers.CategoryValidation, "400"), false},
		{"unknown", providers.NewError("openai", providers.CategoryUnknown, "odd"), false},
		{"unclassified", errors.New("plain"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.MaxAttempts != 3 || p.BaseDelay != time.Second || p.MaxDelay != 10*time.Second || p.JitterFrac != 0.2 {
		t.Errorf("unexpected defaults: %+v", p)
	}
}
