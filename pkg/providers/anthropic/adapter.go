package anthropic

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

const (
	// DefaultEndpoint is Anthropic's API base URL.
	DefaultEndpoint = "https://api.anthropic.com"

	// DefaultModel is used when the configuration names none.
	DefaultModel = "claude-3-5-sonnet-20241022"

	// apiVersion is the anthropic-version header value.
	apiVersion = "2023-06-01"
)

// Adapter implements providers.Provider for Anthropic's messages API.
type Adapter struct {
	cfg    providers.Config
	client *providers.Client
}

// New creates an Anthropic adapter.
func New(cfg providers.Config) (*Adapter, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	cfg = cfg.WithDefaults()

	if v := validate(cfg); !v.Valid {
		return nil, &providers.ConfigError{
			Provider: providers.KindAnthropic,
			Message:  strings.Join(v.Errors, "; "),
		}
	}

	a := &Adapter{
		cfg:    cfg,
		client: providers.NewClient(providers.KindAnthropic, cfg.Timeout),
	}

	slog.Info("provider initialized",
		"provider", providers.KindAnthropic,
		"model", cfg.Model,
	)
	return a, nil
}

// Name returns the adapter's provider identifier.
func (a *Adapter) Name() string {
	return providers.KindAnthropic
}

// Authenticate probes the messages endpoint with a one-token request.
// Anthropic has no credential-check endpoint, so the probe is the
// smallest possible real call.
func (a *Adapter) Authenticate(ctx context.Context, creds providers.Credentials) providers.AuthResult {
	key := creds.APIKey
	if key == "" {
		key = a.cfg.APIKey
	}

	probe := buildRequest("Hi", providers.Options{Model: a.cfg.Model, MaxTokens: 1})
	if _, _, err := a.client.PostJSON(ctx, a.messagesURL(), probe, a.headers(key)); err != nil {
		return providers.AuthResult{Err: providers.Classify(providers.KindAnthropic, err)}
	}
	return providers.AuthResult{OK: true}
}

// Generate sends one prompt and returns the normalized completion.
func (a *Adapter) Generate(ctx context.Context, prompt string, opts providers.Options) (*providers.Result, error) {
	opts = opts.Resolve(a.cfg)
	opts.Stream = false

	body, hdr, err := a.client.PostJSON(ctx, a.messagesURL(), buildRequest(prompt, opts), a.headers(a.cfg.APIKey))
	if err != nil {
		return nil, err
	}

	text, model, usage := extractResponse(body)
	if text == "" {
		e := providers.NewError(providers.KindAnthropic, providers.CategoryUnknown, "response carried no completion content")
		e.Code = providers.CodeNoContent
		return nil, e
	}
	if model == "" {
		model = opts.Model
	}

	return &providers.Result{
		Text:     text,
		Model:    model,
		Provider: providers.KindAnthropic,
		Usage:    usage,
		Raw:      body,
		Header:   hdr,
	}, nil
}

// Stream sends one prompt and returns the live delta sequence.
func (a *Adapter) Stream(ctx context.Context, prompt string, opts providers.Options) (*providers.Stream, error) {
	opts = opts.Resolve(a.cfg)
	opts.Stream = true

	body, _, err := a.client.OpenStream(ctx, http.MethodPost, a.messagesURL(), buildRequest(prompt, opts), a.headers(a.cfg.APIKey))
	if err != nil {
		return nil, err
	}
	return providers.StreamFromSSE(providers.KindAnthropic, opts.Model, body, decodeStreamFrame), nil
}

// ValidateConfig checks the bound configuration.
func (a *Adapter) ValidateConfig() providers.Validation {
	return validate(a.cfg)
}

// Models returns the built-in catalog. Anthropic exposes no public
// listing endpoint usable with completion keys.
func (a *Adapter) Models(ctx context.Context) []providers.ModelInfo {
	return Catalog()
}

// Close releases the transport.
func (a *Adapter) Close() error {
	return a.client.Close()
}

// Catalog is the built-in model list.
func Catalog() []providers.ModelInfo {
	return []providers.ModelInfo{
		{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet", ContextWindow: 200000},
		{ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku", ContextWindow: 200000},
		{ID: "claude-3-opus-20240229", Name: "Claude 3 Opus", ContextWindow: 200000},
	}
}

func (a *Adapter) messagesURL() string {
	return strings.TrimSuffix(a.cfg.Endpoint, "/") + "/v1/messages"
}

func (a *Adapter) headers(key string) map[string]string {
	h := map[string]string{
		"x-api-key":         key,
		"anthropic-version": apiVersion,
	}
	for k, v := range a.cfg.ExtraHeaders {
		h[k] = v
	}
	return h
}

func validate(cfg providers.Config) providers.Validation {
	var problems []string
	if cfg.APIKey == "" {
		problems = append(problems, "api_key: required")
	}
	if cfg.Endpoint != "" {
		if u, err := url.Parse(cfg.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			problems = append(problems, "endpoint: must be an http(s) URL")
		}
	}
	if cfg.Temperature < 0 || cfg.Temperature > 1 {
		problems = append(problems, "temperature: must be between 0 and 1")
	}
	if cfg.MaxTokens < 0 {
		problems = append(problems, "max_tokens: must not be negative")
	}
	return providers.Validation{Valid: len(problems) == 0, Errors: problems}
}
