package huggingface

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

const (
	// DefaultEndpoint is the serverless inference API base URL. The
	// model name is appended as a path segment.
	DefaultEndpoint = "https://api-inference.huggingface.co/models"

	// DefaultModel is used when the configuration names none.
	DefaultModel = "mistralai/Mistral-7B-Instruct-v0.3"
)

// Adapter implements providers.Provider for the HuggingFace inference
// API. The API reports no token usage, so results carry empty usage and
// callers fall back to estimation.
type Adapter struct {
	cfg    providers.Config
	client *providers.Client
}

// New creates a HuggingFace adapter.
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
			Provider: providers.KindHuggingFace,
			Message:  strings.Join(v.Errors, "; "),
		}
	}

	a := &Adapter{
		cfg:    cfg,
		client: providers.NewClient(providers.KindHuggingFace, cfg.Timeout),
	}

	slog.Info("provider initialized",
		"provider", providers.KindHuggingFace,
		"model", cfg.Model,
	)
	return a, nil
}

// Name returns the adapter's provider identifier.
func (a *Adapter) Name() string {
	return providers.KindHuggingFace
}

// Authenticate probes the configured model with a one-token request.
// The inference API has no credential endpoint on this host.
func (a *Adapter) Authenticate(ctx context.Context, creds providers.Credentials) providers.AuthResult {
	key := creds.APIKey
	if key == "" {
		key = a.cfg.APIKey
	}

	probe := buildRequest("Hi", providers.Options{MaxTokens: 1})
	if _, _, err := a.client.PostJSON(ctx, a.modelURL(a.cfg.Model), probe, a.headers(key)); err != nil {
		return providers.AuthResult{Err: providers.Classify(providers.KindHuggingFace, err)}
	}
	return providers.AuthResult{OK: true}
}

// Generate sends one prompt and returns the normalized completion.
func (a *Adapter) Generate(ctx context.Context, prompt string, opts providers.Options) (*providers.Result, error) {
	opts = opts.Resolve(a.cfg)
	opts.Stream = false

	body, hdr, err := a.client.PostJSON(ctx, a.modelURL(opts.Model), buildRequest(prompt, opts), a.headers(a.cfg.APIKey))
	if err != nil {
		return nil, err
	}

	text := ExtractText(body)
	if text == "" {
		e := providers.NewError(providers.KindHuggingFace, providers.CategoryUnknown, "response carried no completion content")
		e.Code = providers.CodeNoContent
		return nil, e
	}

	return &providers.Result{
		Text:     text,
		Model:    opts.Model,
		Provider: providers.KindHuggingFace,
		Raw:      body,
		Header:   hdr,
	}, nil
}

// Stream sends one prompt and returns the live token sequence.
func (a *Adapter) Stream(ctx context.Context, prompt string, opts providers.Options) (*providers.Stream, error) {
	opts = opts.Resolve(a.cfg)
	opts.Stream = true

	body, _, err := a.client.OpenStream(ctx, http.MethodPost, a.modelURL(opts.Model), buildRequest(prompt, opts), a.headers(a.cfg.APIKey))
	if err != nil {
		return nil, err
	}
	return providers.StreamFromSSE(providers.KindHuggingFace, opts.Model, body, decodeStreamFrame), nil
}

// ValidateConfig checks the bound configuration.
func (a *Adapter) ValidateConfig() providers.Validation {
	return validate(a.cfg)
}

// Models returns the built-in catalog. The hub's model index lives on
// a different host than inference, so no live listing is attempted.
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
		{ID: "mistralai/Mistral-7B-Instruct-v0.3", Name: "Mistral 7B Instruct", ContextWindow: 32768},
		{ID: "meta-llama/Llama-3.1-8B-Instruct", Name: "Llama 3.1 8B Instruct", ContextWindow: 131072},
		{ID: "HuggingFaceH4/zephyr-7b-beta", Name: "Zephyr 7B Beta", ContextWindow: 32768},
	}
}

func (a *Adapter) modelURL(model string) string {
	return strings.TrimSuffix(a.cfg.Endpoint, "/") + "/" + model
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
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		problems = append(problems, "temperature: must be between 0 and 2")
	}
	if cfg.MaxTokens < 0 {
		problems = append(problems, "max_tokens: must not be negative")
	}
	return providers.Validation{Valid: len(problems) == 0, Errors: problems}
}
