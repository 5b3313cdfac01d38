package cohere

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
	// DefaultEndpoint is Cohere's API base URL.
	DefaultEndpoint = "https://api.cohere.com"

	// DefaultModel is used when the configuration names none.
	DefaultModel = "command-r"
)

// Adapter implements providers.Provider for Cohere's chat API.
type Adapter struct {
	cfg    providers.Config
	client *providers.Client
}

// New creates a Cohere adapter.
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
			Provider: providers.KindCohere,
			Message:  strings.Join(v.Errors, "; "),
		}
	}

	a := &Adapter{
		cfg:    cfg,
		client: providers.NewClient(providers.KindCohere, cfg.Timeout),
	}

	slog.Info("provider initialized",
		"provider", providers.KindCohere,
		"model", cfg.Model,
	)
	return a, nil
}

// Name returns the adapter's provider identifier.
func (a *Adapter) Name() string {
	return providers.KindCohere
}

// Authenticate probes the model listing endpoint.
func (a *Adapter) Authenticate(ctx context.Context, creds providers.Credentials) providers.AuthResult {
	key := creds.APIKey
	if key == "" {
		key = a.cfg.APIKey
	}
	if _, _, err := a.client.Get(ctx, a.modelsURL(), a.headers(key)); err != nil {
		return providers.AuthResult{Err: providers.Classify(providers.KindCohere, err)}
	}
	return providers.AuthResult{OK: true}
}

// Generate sends one prompt and returns the normalized completion.
func (a *Adapter) Generate(ctx context.Context, prompt string, opts providers.Options) (*providers.Result, error) {
	opts = opts.Resolve(a.cfg)
	opts.Stream = false

	body, hdr, err := a.client.PostJSON(ctx, a.chatURL(), buildRequest(prompt, opts), a.headers(a.cfg.APIKey))
	if err != nil {
		return nil, err
	}

	text, usage := extractResponse(body)
	if text == "" {
		e := providers.NewError(providers.KindCohere, providers.CategoryUnknown, "response carried no completion content")
		e.Code = providers.CodeNoContent
		return nil, e
	}

	return &providers.Result{
		Text:     text,
		Model:    opts.Model,
		Provider: providers.KindCohere,
		Usage:    usage,
		Raw:      body,
		Header:   hdr,
	}, nil
}

// Stream sends one prompt and returns the live delta sequence. Cohere
// streams newline-delimited JSON rather than server-sent events.
func (a *Adapter) Stream(ctx context.Context, prompt string, opts providers.Options) (*providers.Stream, error) {
	opts = opts.Resolve(a.cfg)
	opts.Stream = true

	headers := a.headers(a.cfg.APIKey)
	headers["Accept"] = "application/stream+json"

	body, _, err := a.client.OpenStream(ctx, http.MethodPost, a.chatURL(), buildRequest(prompt, opts), headers)
	if err != nil {
		return nil, err
	}
	return providers.StreamFromLines(providers.KindCohere, opts.Model, body, decodeStreamFrame), nil
}

// ValidateConfig checks the bound configuration.
func (a *Adapter) ValidateConfig() providers.Validation {
	return validate(a.cfg)
}

// Models returns the live listing when the API answers, otherwise the
// built-in catalog.
func (a *Adapter) Models(ctx context.Context) []providers.ModelInfo {
	if live := a.LiveModels(ctx); len(live) > 0 {
		return live
	}
	return Catalog()
}

// LiveModels queries GET /v1/models. It returns nil when the listing
// is unavailable.
func (a *Adapter) LiveModels(ctx context.Context) []providers.ModelInfo {
	body, _, err := a.client.Get(ctx, a.modelsURL(), a.headers(a.cfg.APIKey))
	if err != nil {
		slog.Debug("model listing unavailable", "provider", providers.KindCohere, "error", err)
		return nil
	}

	var listing modelListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil
	}
	models := make([]providers.ModelInfo, 0, len(listing.Models))
	for _, m := range listing.Models {
		models = append(models, providers.ModelInfo{
			ID:            m.Name,
			Name:          m.Name,
			ContextWindow: m.ContextLength,
		})
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
		{ID: "command-r-plus", Name: "Command R+", ContextWindow: 128000},
		{ID: "command-r", Name: "Command R", ContextWindow: 128000},
		{ID: "command-light", Name: "Command Light", ContextWindow: 4096},
	}
}

func (a *Adapter) chatURL() string {
	return strings.TrimSuffix(a.cfg.Endpoint, "/") + "/v1/chat"
}

func (a *Adapter) modelsURL() string {
	return strings.TrimSuffix(a.cfg.Endpoint, "/") + "/v1/models"
}

func (a *Adapter) headers(key string) map[string]string {
	h := map[string]string{
		"Authorization": "Bearer " + key,
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
