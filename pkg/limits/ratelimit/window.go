package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Provider quota headers recognized by observe. The names follow the
// OpenAI convention, which OpenRouter and several compatible services
// share.
const (
	headerRemainingRequests = "x-ratelimit-remaining-requests"
	headerRemainingTokens   = "x-ratelimit-remaining-tokens"
	headerResetRequests     = "x-ratelimit-reset-requests"
	headerResetTokens       = "x-ratelimit-reset-tokens"
	headerRetryAfter        = "Retry-After"
)

// window is the admission state for one key: the ordered sequence of
// timestamps (with token counts) inside the sliding window, plus the
// provider-reported quota used to tighten local accounting.
type window struct {
	mu  sync.Mutex
	cfg Config

	// entries is ordered oldest first; pruned on every admission check
	entries []*entry

	// Provider-reported quota. remaining values of -1 mean no report
	// has been seen since the last reset.
	serverRequests int
	serverTokens   int
	serverReset    time.Time
}

// entry is one admitted request. tokens starts as the estimate and is
// replaced by the real count when the caller commits it.
type entry struct {
	at     time.Time
	tokens int
}

func newWindow(cfg Config) *window {
	return &window{
		cfg:            cfg.WithDefaults(),
		serverRequests: -1,
		serverTokens:   -1,
	}
}

// admit records the request if admission is possible now, returning the
// new entry. Otherwise it returns the duration to suspend before the
// next check.
func (w *window) admit(now time.Time, estimatedTokens int) (*entry, time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now)
	w.expireServerLocked(now)

	if wait := w.delayLocked(now, estimatedTokens); wait > 0 {
		return nil, wait
	}

	e := &entry{at: now, tokens: estimatedTokens}
	w.entries = append(w.entries, e)
	if w.serverRequests > 0 {
		w.serverRequests--
	}
	if w.serverTokens > 0 {
		w.serverTokens -= estimatedTokens
		if w.serverTokens < 0 {
			w.serverTokens = 0
		}
	}
	return e, 0
}

// delayLocked computes how long admission must wait, or zero when the
// request fits now.
func (w *window) delayLocked(now time.Time, estimatedTokens int) time.Duration {
	// Local request bound: the wait ends when the oldest entry leaves
	// the window.
	if w.cfg.MaxRequests > 0 && len(w.entries) >= w.cfg.MaxRequests {
		return w.entries[0].at.Add(w.cfg.Window).Sub(now)
	}

	// Provider-reported exhaustion binds even when local accounting
	// still has room; that is the drift being corrected.
	if w.serverRequests == 0 || (w.serverTokens == 0 && estimatedTokens > 0) {
		return w.serverReset.Sub(now)
	}

	// Local token bound: walk the oldest entries to find when enough
	// budget ages out.
	if w.cfg.MaxTokens > 0 {
		total := w.tokensLocked()
		if total+estimatedTokens > w.cfg.MaxTokens {
			running := total
			for _, e := range w.entries {
				running -= e.tokens
				if running+estimatedTokens <= w.cfg.MaxTokens {
					return e.at.Add(w.cfg.Window).Sub(now)
				}
			}
			// A single request larger than the whole budget: admit it
			// once the window drains rather than blocking forever.
			if len(w.entries) > 0 {
				return w.entries[len(w.entries)-1].at.Add(w.cfg.Window).Sub(now)
			}
		}
	}
	return 0
}

// observe folds provider-reported quota headers into the window. The
// report can only tighten admission below the configured bounds or
// relax an earlier report; the configured maximum always binds.
func (w *window) observe(now time.Time, hdr http.Header) {
	w.mu.Lock()
	defer w.mu.Unlock()

	touched := false
	if v, ok := parseCount(hdr.Get(headerRemainingRequests)); ok {
		w.serverRequests = v
		touched = true
	}
	if v, ok := parseCount(hdr.Get(headerRemainingTokens)); ok {
		w.serverTokens = v
		touched = true
	}

	var reset time.Duration
	if d, ok := parseReset(hdr.Get(headerResetRequests)); ok && d > reset {
		reset = d
	}
	if d, ok := parseReset(hdr.Get(headerResetTokens)); ok && d > reset {
		reset = d
	}
	if d, ok := parseReset(hdr.Get(headerRetryAfter)); ok {
		// Retry-After is an order, not bookkeeping: treat the quota as
		// spent until it passes.
		w.serverRequests = 0
		if d > reset {
			reset = d
		}
		touched = true
	}

	if touched {
		if reset > 0 {
			w.serverReset = now.Add(reset)
		} else if w.serverRequests == 0 || w.serverTokens == 0 {
			// Exhaustion with no renewal time: assume a full window.
			w.serverReset = now.Add(w.cfg.Window)
		}
	}
}

// status snapshots the window.
func (w *window) status(now time.Time) Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now)
	w.expireServerLocked(now)
	return Status{
		Requests:        len(w.entries),
		Tokens:          w.tokensLocked(),
		MaxRequests:     w.cfg.MaxRequests,
		MaxTokens:       w.cfg.MaxTokens,
		Window:          w.cfg.Window,
		ServerRemaining: w.serverRequests,
		ServerReset:     w.serverReset,
	}
}

// commit replaces an entry's estimated token count with the real one.
func (w *window) commit(e *entry, actualTokens int) {
	w.mu.Lock()
	e.tokens = actualTokens
	w.mu.Unlock()
}

func (w *window) pruneLocked(now time.Time) {
	cutoff := now.Add(-w.cfg.Window)
	i := 0
	for i < len(w.entries) && !w.entries[i].at.After(cutoff) {
		i++
	}
	if i > 0 {
		w.entries = append(w.entries[:0], w.entries[i:]...)
	}
}

func (w *window) expireServerLocked(now time.Time) {
	if !w.serverReset.IsZero() && !now.Before(w.serverReset) {
		w.serverRequests = -1
		w.serverTokens = -1
		w.serverReset = time.Time{}
	}
}

func (w *window) tokensLocked() int {
	var total int
	for _, e := range w.entries {
		total += e.tokens
	}
	return total
}

func parseCount(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// parseReset accepts both the duration form ("6m0s", "21.5s") and a
// bare number of seconds.
func parseReset(value string) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(value); err == nil && d >= 0 {
		return d, true
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second, true
	}
	return 0, false
}
