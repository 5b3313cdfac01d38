package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Limiter admits requests under per-key sliding windows. Admission
// blocks cooperatively: a caller that does not fit suspends until the
// oldest conflicting entry leaves the window, then rechecks.
//
// Keys combine provider and API-key hash, so two tenants of the same
// provider wait independently.
type Limiter struct {
	mu       sync.Mutex
	defaults Config
	configs  map[string]Config
	windows  map[Key]*window
}

// Admission is the handle for one admitted request. Committing the real
// token count corrects the estimate recorded at admission time.
type Admission struct {
	w *window
	e *entry
}

// Commit replaces the admission's estimated token count with the count
// the provider actually reported. Safe on a nil handle.
func (a *Admission) Commit(actualTokens int) {
	if a == nil || actualTokens < 0 {
		return
	}
	a.w.commit(a.e, actualTokens)
}

// NewLimiter creates a limiter with the given default bounds.
func NewLimiter(defaults Config) *Limiter {
	return &Limiter{
		defaults: defaults.WithDefaults(),
		configs:  make(map[string]Config),
		windows:  make(map[Key]*window),
	}
}

// Configure sets per-provider bounds. Windows already created for the
// provider keep their configuration; call before traffic starts.
func (l *Limiter) Configure(provider string, cfg Config) {
	l.mu.Lock()
	l.configs[provider] = cfg.WithDefaults()
	l.mu.Unlock()
}

// Acquire blocks until the request is admitted under key's window, then
// records it and returns its admission handle. It returns early when
// ctx ends. The token estimate participates in the token dimension when
// one is configured and is corrected later via Admission.Commit.
func (l *Limiter) Acquire(ctx context.Context, key Key, estimatedTokens int) (*Admission, error) {
	w := l.windowFor(key)

	for {
		e, wait := w.admit(time.Now(), estimatedTokens)
		if e != nil {
			return &Admission{w: w, e: e}, nil
		}

		slog.Debug("admission suspended",
			"provider", key.Provider,
			"key_hash", key.KeyHash,
			"wait", wait,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// ObserveHeaders folds provider-reported quota headers from a real
// response into the key's window, correcting local accounting drift.
func (l *Limiter) ObserveHeaders(key Key, hdr http.Header) {
	if hdr == nil {
		return
	}
	l.windowFor(key).observe(time.Now(), hdr)
}

// Status snapshots the window for a key.
func (l *Limiter) Status(key Key) Status {
	return l.windowFor(key).status(time.Now())
}

func (l *Limiter) windowFor(key Key) *window {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w, ok := l.windows[key]; ok {
		return w
	}
	cfg, ok := l.configs[key.Provider]
	if !ok {
		cfg = l.defaults
	}
	w := newWindow(cfg)
	l.windows[key] = w
	return w
}
