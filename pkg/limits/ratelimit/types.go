package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Defaults applied by Config.WithDefaults.
const (
	// DefaultWindow is the sliding window length.
	DefaultWindow = time.Minute

	// DefaultMaxRequests is the admission bound per window when the
	// configuration names none.
	DefaultMaxRequests = 60
)

// Key identifies one admission domain: a provider and the hash of the
// API key used against it. Different keys for the same provider have
// independent quotas, and the raw key never appears in logs or metrics.
type Key struct {
	// Provider is the adapter name
	Provider string

	// KeyHash is a short digest of the API key
	KeyHash string
}

// KeyFor builds the admission key for a provider and API key.
func KeyFor(provider, apiKey string) Key {
	sum := sha256.Sum256([]byte(apiKey))
	return Key{
		Provider: provider,
		KeyHash:  hex.EncodeToString(sum[:])[:8],
	}
}

// Config bounds one admission domain.
type Config struct {
	// Window is the sliding window length
	Window time.Duration `yaml:"window" json:"window"`

	// MaxRequests is the request admission bound per window
	MaxRequests int `yaml:"max_requests" json:"max_requests"`

	// MaxTokens is the token admission bound per window; zero means the
	// token dimension is not enforced
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.MaxRequests <= 0 {
		c.MaxRequests = DefaultMaxRequests
	}
	return c
}

// Status is a point-in-time snapshot of one admission domain.
type Status struct {
	// Requests is the number of admissions currently inside the window
	Requests int

	// Tokens is the token total currently inside the window
	Tokens int

	// MaxRequests and MaxTokens echo the effective configuration
	MaxRequests int
	MaxTokens   int

	// Window echoes the effective window length
	Window time.Duration

	// ServerRemaining is the request quota the provider last reported,
	// or -1 when no report has been seen
	ServerRemaining int

	// ServerReset is when the provider-reported quota renews
	ServerReset time.Time
}
