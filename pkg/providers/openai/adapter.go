package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

const (
	// DefaultEndpoint is OpenAI's API base URL.
	DefaultEndpoint = "https://api.openai.com/v1"

	// DefaultModel is used when the configuration names none.
	DefaultModel = "gpt-4o-mini"
)

// Adapter implements providers.Provider for OpenAI's chat completions
// API. The OpenRouter adapter reuses it under a different name since
// both speak the same wire dialect.
type Adapter struct {
	name   string
	cfg    providers.Config
	client *providers.Client
}

// New creates an OpenAI adapter.
func New(cfg providers.Config) (*Adapter, error) {
	return NewNamed(providers.KindOpenAI, cfg)
}

// NewNamed creates the adapter under a different provider name, for
// OpenAI-compatible services.
func NewNamed(name string, cfg providers.Config) (*Adapter, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	cfg = cfg.WithDefaults()

	if v := validate(cfg); !v.Valid {
		return nil, &providers.ConfigError{
			Provider: name,
			Message:  strings.Join(v.Errors, "; "),
		}
	}

	a := &Adapter{
		name:   name,
		cfg:    cfg,
		client: providers.NewClient(name, cfg.Timeout),
	}

	slog.Info("provider initialized",
		"provider", name,
		"model", cfg.Model,
	)
	return a, nil
}

// Name returns the adapter's provider identifier.
func (a *Adapter) Name() string {
	return a.name
}

// Authenticate probes the models listing with the given key.
func (a *Adapter) Authenticate(ctx context.Context, creds providers.Credentials) providers.AuthResult {
	key := creds.APIKey
	if key == "" {
		key = a.cfg.APIKey
	}
	if _, _, err := a.client.Get(ctx, a.modelsURL(), a.headers(key)); err != nil {
		return providers.AuthResult{Err: providers.Classify(a.name, err)}
	}
	return providers.AuthResult{OK: true}
}

// Generate sends one prompt and returns the normalized completion.
func (a *Adapter) Generate(ctx context.Context, prompt string, opts providers.Options) (*providers.Result, error) {
	opts = opts.Resolve(a.cfg)
	opts.Stream = false

	body, hdr, err := a.client.PostJSON(ctx, a.completionsURL(), buildRequest(prompt, opts), a.headers(a.cfg.APIKey))
	if err != nil {
		return nil, err
	}

	text, model, usage := extractResponse(body)
	if text == "" {
		e := providers.NewError(a.name, providers.CategoryUnknown, "response carried no completion content")
		e.Code = providers.CodeNoContent
		return nil, e
	}
	if model == "" {
		model = opts.Model
	}

	return &providers.Result{
		Text:     text,
		Model:    model,
		Provider: a.name,
		Usage:    usage,
		Raw:      body,
		Header:   hdr,
	}, nil
}

// Stream sends one prompt and returns the live delta sequence.
func (a *Adapter) Stream(ctx context.Context, prompt string, opts providers.Options) (*providers.Stream, error) {
	opts = opts.Resolve(a.cfg)
	opts.Stream = true

	req := buildRequest(prompt, opts)
	req.StreamOptions = &StreamOptions{IncludeUsage: true}

	body, _, err := a.client.OpenStream(ctx, http.MethodPost, a.completionsURL(), req, a.headers(a.cfg.APIKey))
	if err != nil {
		return nil, err
	}
	return providers.StreamFromSSE(a.name, opts.Model, body, decodeStreamFrame), nil
}

// ValidateConfig checks the bound configuration.
func (a *Adapter) ValidateConfig() providers.Validation {
	return validate(a.cfg)
}

// Models returns the live model listing when reachable, otherwise the
// built-in catalog.
func (a *Adapter) Models(ctx context.Context) []providers.ModelInfo {
	if live := a.LiveModels(ctx); len(live) > 0 {
		return live
	}
	return Catalog()
}

// LiveModels fetches the service's model listing. It returns nil on any
// failure so callers can fall back to a static catalog.
func (a *Adapter) LiveModels(ctx context.Context) []providers.ModelInfo {
	body, _, err := a.client.Get(ctx, a.modelsURL(), a.headers(a.cfg.APIKey))
	if err != nil {
		slog.Debug("live model listing unavailable",
			"provider", a.name,
			"error", err,
		)
		return nil
	}

	var listing modelListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil
	}
	models := make([]providers.ModelInfo, 0, len(listing.Data))
	for _, m := range listing.Data {
		models = append(models, providers.ModelInfo{ID: m.ID})
	}
	return models
}

// Close releases the transport.
func (a *Adapter) Close() error {
	return a.client.Close()
}

// Catalog is the built-in model list.
func Catalog() []providers.ModelInfo {
	return []providers.ModelInfo{
		{ID: "gpt-4o", Name: "GPT-4o", ContextWindow: 128000},
		{ID: "gpt-4o-mini", Name: "GPT-4o mini", ContextWindow: 128000},
		{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", ContextWindow: 128000},
		{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", ContextWindow: 16385},
	}
}

func (a *Adapter) completionsURL() string {
	return strings.TrimSuffix(a.cfg.Endpoint, "/") + "/chat/completions"
}

func (a *Adapter) modelsURL() string {
	return strings.TrimSuffix(a.cfg.Endpoint, "/") + "/models"
}

func (a *Adapter) headers(key string) map[string]string {
	h := map[string]string{
		"Authorization": "Bearer " + key,
	}
	if a.cfg.Organization != "" {
		h["OpenAI-Organization"] = a.cfg.Organization
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
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		problems = append(problems, "temperature: must be between 0 and 2")
	}
	if cfg.MaxTokens < 0 {
		problems = append(problems, "max_tokens: must not be negative")
	}
	return providers.Validation{Valid: len(problems) == 0, Errors: problems}
}
