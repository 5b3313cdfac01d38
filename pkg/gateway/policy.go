package gateway

import (
	"math"
	"math/rand"
	"time"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

// Retry policy defaults.
const (
	DefaultBaseDelay   = time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultMaxAttempts = 3
	DefaultJitterFrac  = 0.2
)

// Policy decides which failures earn another attempt and how long to
// wait between attempts.
type Policy struct {
	// MaxAttempts is the total attempt budget, first try included.
	MaxAttempts int

	// BaseDelay seeds the exponential backoff: the wait after the
	// first failure.
	BaseDelay time.Duration

	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration

	// JitterFrac spreads each delay uniformly by ±frac so concurrent
	// clients do not retry in lockstep.
	JitterFrac float64
}

// DefaultPolicy returns the standard retry policy: three attempts,
// one-second base doubling to a ten-second cap, twenty percent jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		JitterFrac:  DefaultJitterFrac,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	if p.JitterFrac < 0 {
		p.JitterFrac = 0
	}
	return p
}

// Retryable reports whether a failure is transient: NETWORK, RATE_LIMIT,
// and SERVER failures are, everything else is terminal. Authentication
// and validation failures in particular never earn a retry; resending a
// rejected key or a malformed request cannot succeed.
func (p Policy) Retryable(err error) bool {
	return providers.IsCategory(err, providers.CategoryNetwork) ||
		providers.IsCategory(err, providers.CategoryRateLimit) ||
		providers.IsCategory(err, providers.CategoryServer)
}

// Delay returns the jittered backoff before the next attempt. failures
// is the number of failed attempts so far: 1 yields roughly BaseDelay,
// 2 roughly twice that, and so on up to MaxDelay.
func (p Policy) Delay(failures int) time.Duration {
	if failures < 1 {
		failures = 1
	}

	d := float64(p.BaseDelay) * math.Pow(2, float64(failures-1))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}

	// ±JitterFrac, uniform
	d *= 1 + p.JitterFrac*(2*rand.Float64()-1)
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}
