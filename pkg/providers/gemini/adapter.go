package gemini

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
	// DefaultEndpoint is the generative language API base URL.
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is used when the configuration names none.
	DefaultModel = "gemini-1.5-flash"
)

// Adapter implements providers.Provider for Google's Gemini API.
//
// Gemini authenticates through a key query parameter rather than a
// header, so request URLs are secrets here. They are never logged, and
// transport errors have their query strings scrubbed before
// classification.
type Adapter struct {
	cfg    providers.Config
	client *providers.Client
}

// New creates a Gemini adapter.
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
			Provider: providers.KindGemini,
			Message:  strings.Join(v.Errors, "; "),
		}
	}

	a := &Adapter{
		cfg:    cfg,
		client: providers.NewClient(providers.KindGemini, cfg.Timeout),
	}

	slog.Info("provider initialized",
		"provider", providers.KindGemini,
		"model", cfg.Model,
	)
	return a, nil
}

// Name returns the adapter's provider identifier.
func (a *Adapter) Name() string {
	return providers.KindGemini
}

// Authenticate probes the model listing endpoint with the key.
func (a *Adapter) Authenticate(ctx context.Context, creds providers.Credentials) providers.AuthResult {
	key := creds.APIKey
	if key == "" {
		key = a.cfg.APIKey
	}
	if _, _, err := a.client.Get(ctx, a.modelsURL(key), a.cfg.ExtraHeaders); err != nil {
		return providers.AuthResult{Err: providers.Classify(providers.KindGemini, err)}
	}
	return providers.AuthResult{OK: true}
}

// Generate sends one prompt and returns the normalized completion.
func (a *Adapter) Generate(ctx context.Context, prompt string, opts providers.Options) (*providers.Result, error) {
	opts = opts.Resolve(a.cfg)

	body, hdr, err := a.client.PostJSON(ctx, a.generateURL(opts.Model), buildRequest(prompt, opts), a.cfg.ExtraHeaders)
	if err != nil {
		return nil, err
	}

	text, model, usage := extractResponse(body)
	if text == "" {
		e := providers.NewError(providers.KindGemini, providers.CategoryUnknown, "response carried no completion content")
		e.Code = providers.CodeNoContent
		return nil, e
	}
	if model == "" {
		model = opts.Model
	}

	return &providers.Result{
		Text:     text,
		Model:    model,
		Provider: providers.KindGemini,
		Usage:    usage,
		Raw:      body,
		Header:   hdr,
	}, nil
}

// Stream sends one prompt and returns the live delta sequence.
func (a *Adapter) Stream(ctx context.Context, prompt string, opts providers.Options) (*providers.Stream, error) {
	opts = opts.Resolve(a.cfg)

	body, _, err := a.client.OpenStream(ctx, http.MethodPost, a.streamURL(opts.Model), buildRequest(prompt, opts), a.cfg.ExtraHeaders)
	if err != nil {
		return nil, err
	}
	return providers.StreamFromSSE(providers.KindGemini, opts.Model, body, decodeStreamFrame), nil
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

// LiveModels queries GET /models. It returns nil when the listing is
// unavailable.
func (a *Adapter) LiveModels(ctx context.Context) []providers.ModelInfo {
	body, _, err := a.client.Get(ctx, a.modelsURL(a.cfg.APIKey), a.cfg.ExtraHeaders)
	if err != nil {
		slog.Debug("model listing unavailable", "provider", providers.KindGemini, "error", err)
		return nil
	}

	var listing modelListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil
	}
	models := make([]providers.ModelInfo, 0, len(listing.Models))
	for _, m := range listing.Models {
		models = append(models, providers.ModelInfo{
			ID:            strings.TrimPrefix(m.Name, "models/"),
			Name:          m.DisplayName,
			ContextWindow: m.InputTokenLimit,
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
		{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", ContextWindow: 1048576},
		{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", ContextWindow: 2097152},
		{ID: "gemini-1.5-flash", Name: "Gemini 1.5 Flash", ContextWindow: 1048576},
	}
}

func (a *Adapter) generateURL(model string) string {
	return a.base() + "/models/" + model + ":generateContent?key=" + url.QueryEscape(a.cfg.APIKey)
}

func (a *Adapter) streamURL(model string) string {
	return a.base() + "/models/" + model + ":streamGenerateContent?alt=sse&key=" + url.QueryEscape(a.cfg.APIKey)
}

func (a *Adapter) modelsURL(key string) string {
	return a.base() + "/models?key=" + url.QueryEscape(key)
}

func (a *Adapter) base() string {
	return strings.TrimSuffix(a.cfg.Endpoint, "/")
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
