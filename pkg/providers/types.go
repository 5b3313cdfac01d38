package providers

import (
	"encoding/json"
	"net/http"
	"time"
)

// Default generation and transport settings applied when the caller's
// configuration leaves a field zero.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
	DefaultMaxAttempts = 3
)

// Provider kind identifiers. The kind names the wire dialect an adapter
// speaks; an adapter's Name is the same string unless a deployment
// registers several instances of one kind.
const (
	KindOpenAI      = "openai"
	KindOpenRouter  = "openrouter"
	KindAnthropic   = "anthropic"
	KindGemini      = "gemini"
	KindHuggingFace = "huggingface"
	KindCohere      = "cohere"
	KindCustom      = "custom"
)

// Config carries everything an adapter needs to talk to one provider
// account.
type Config struct {
	// Endpoint is the base URL of the service. Empty selects the
	// adapter's built-in default; required for custom endpoints.
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`

	// APIKey authenticates requests. Some self-hosted services accept
	// an empty key.
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty"`

	// Model is the default model identifier for this provider.
	Model string `yaml:"model,omitempty" json:"model,omitempty"`

	// Organization scopes requests for providers that support it
	// (OpenAI organizations).
	Organization string `yaml:"organization,omitempty" json:"organization,omitempty"`

	// MaxTokens caps the completion length when the per-call options
	// leave it unset.
	MaxTokens int `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`

	// Temperature is the default sampling temperature.
	Temperature float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`

	// ExtraHeaders are sent verbatim on every request, applied after
	// the adapter's own headers.
	ExtraHeaders map[string]string `yaml:"extra_headers,omitempty" json:"extra_headers,omitempty"`

	// Timeout bounds each HTTP attempt. Zero means DefaultTimeout.
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// MaxAttempts is the total attempt budget for the gateway's retry
	// policy. Zero means DefaultMaxAttempts.
	MaxAttempts int `yaml:"max_attempts,omitempty" json:"max_attempts,omitempty"`
}

// WithDefaults returns a copy of the config with zero fields replaced
// by the package defaults.
func (c Config) WithDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	return c
}

// Options are the per-call generation parameters. Zero fields fall back
// to the adapter's Config.
type Options struct {
	// Model overrides the configured default model.
	Model string `json:"model,omitempty"`

	// MaxTokens caps the completion length for this call.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature is the sampling temperature for this call.
	Temperature float64 `json:"temperature,omitempty"`

	// Stream requests incremental delivery.
	Stream bool `json:"stream,omitempty"`
}

// Resolve fills zero option fields from the config defaults.
func (o Options) Resolve(cfg Config) Options {
	if o.Model == "" {
		o.Model = cfg.Model
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = cfg.MaxTokens
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.Temperature == 0 {
		o.Temperature = cfg.Temperature
	}
	return o
}

// Usage tracks token consumption for a request. Estimated is true when
// the provider reported no usage and the numbers come from the
// character-based estimator instead.
type Usage struct {
	// PromptTokens is the number of tokens in the prompt
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the completion
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the total number of tokens used (prompt + completion)
	TotalTokens int `json:"total_tokens"`

	// Estimated marks usage derived locally rather than provider-reported
	Estimated bool `json:"estimated,omitempty"`
}

// Add accumulates another usage report into u.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
	u.Estimated = u.Estimated || other.Estimated
}

// Result is the normalized outcome of a completed generation.
type Result struct {
	// Text is the extracted completion. Empty only when the response
	// carried no recognizable content.
	Text string `json:"text"`

	// Model is the model that produced the text.
	Model string `json:"model"`

	// Provider is the adapter name that handled the call.
	Provider string `json:"provider"`

	// Usage is the provider-reported token accounting, or an estimate.
	Usage Usage `json:"usage"`

	// Raw is the untouched provider response body, kept for diagnostics.
	Raw json.RawMessage `json:"-"`

	// Header is the provider's response header set. Rate-limit headers
	// are fed from here back into the limiter.
	Header http.Header `json:"-"`

	// RequestID correlates the result with gateway logs.
	RequestID string `json:"request_id,omitempty"`
}

// ModelInfo describes one entry of a provider's model catalog.
type ModelInfo struct {
	// ID is the model identifier sent on the wire
	ID string `json:"id"`

	// Name is a human-readable label, when known
	Name string `json:"name,omitempty"`

	// ContextWindow is the model's context size in tokens, when known
	ContextWindow int `json:"context_window,omitempty"`
}

// Credentials are the secrets checked by an authentication probe. Empty
// fields fall back to the adapter's bound Config.
type Credentials struct {
	APIKey string
}

// AuthResult reports the outcome of an authentication probe. Probes
// never panic; failures are carried as a classified *Error.
type AuthResult struct {
	// OK is true when the provider accepted the credentials
	OK bool

	// Err is the classified failure when OK is false
	Err *Error
}

// Validation is the outcome of checking a provider configuration. It is
// a report, not an error: callers inspect Valid and Errors.
type Validation struct {
	// Valid is true when the configuration is usable as-is
	Valid bool

	// Errors lists every problem found, one message per field
	Errors []string
}

// StreamChunk is one decoded frame of a streaming response. A frame may
// carry a text delta, a usage report, a terminal marker, or nothing of
// interest.
type StreamChunk struct {
	// Raw is the frame payload as received
	Raw []byte `json:"-"`

	// Delta is the text fragment decoded from the frame, if any
	Delta string `json:"delta"`

	// Final marks the provider's end-of-stream frame
	Final bool `json:"final,omitempty"`

	// Usage is set when the frame carries token accounting
	Usage *Usage `json:"usage,omitempty"`
}
