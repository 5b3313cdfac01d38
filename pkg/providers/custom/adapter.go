package custom

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

// Adapter implements providers.Provider for user-supplied REST
// endpoints. There is no default endpoint: pointing it somewhere is
// the configuration. The API key is optional; when present it travels
// as a bearer token.
type Adapter struct {
	cfg    providers.Config
	client *providers.Client
}

// New creates a custom-endpoint adapter.
func New(cfg providers.Config) (*Adapter, error) {
	cfg = cfg.WithDefaults()

	if v := validate(cfg); !v.Valid {
		return nil, &providers.ConfigError{
			Provider: providers.KindCustom,
			Message:  strings.Join(v.Errors, "; "),
		}
	}

	a := &Adapter{
		cfg:    cfg,
		client: providers.NewClient(providers.KindCustom, cfg.Timeout),
	}

	slog.Info("provider initialized",
		"provider", providers.KindCustom,
		"model", cfg.Model,
	)
	return a, nil
}

// Name returns the adapter's provider identifier.
func (a *Adapter) Name() string {
	return providers.KindCustom
}

// Authenticate probes the endpoint with a one-token request. With no
// contract on what the endpoint serves, a minimal real call is the only
// meaningful check.
func (a *Adapter) Authenticate(ctx context.Context, creds providers.Credentials) providers.AuthResult {
	key := creds.APIKey
	if key == "" {
		key = a.cfg.APIKey
	}

	probe := buildRequest("Hi", providers.Options{MaxTokens: 1})
	if _, _, err := a.client.PostJSON(ctx, a.cfg.Endpoint, probe, a.headers(key)); err != nil {
		return providers.AuthResult{Err: providers.Classify(providers.KindCustom, err)}
	}
	return providers.AuthResult{OK: true}
}

// Generate sends one prompt and returns the normalized completion.
func (a *Adapter) Generate(ctx context.Context, prompt string, opts providers.Options) (*providers.Result, error) {
	opts = opts.Resolve(a.cfg)
	opts.Stream = false

	body, hdr, err := a.client.PostJSON(ctx, a.cfg.Endpoint, buildRequest(prompt, opts), a.headers(a.cfg.APIKey))
	if err != nil {
		return nil, err
	}

	text := ExtractText(body)
	if text == "" {
		e := providers.NewError(providers.KindCustom, providers.CategoryUnknown, "response carried no completion content")
		e.Code = providers.CodeNoContent
		return nil, e
	}

	return &providers.Result{
		Text:     text,
		Model:    opts.Model,
		Provider: providers.KindCustom,
		Usage:    extractUsage(body),
		Raw:      body,
		Header:   hdr,
	}, nil
}

// Stream sends one prompt and returns the live delta sequence, assuming
// server-sent-event framing.
func (a *Adapter) Stream(ctx context.Context, prompt string, opts providers.Options) (*providers.Stream, error) {
	opts = opts.Resolve(a.cfg)
	opts.Stream = true

	body, _, err := a.client.OpenStream(ctx, http.MethodPost, a.cfg.Endpoint, buildRequest(prompt, opts), a.headers(a.cfg.APIKey))
	if err != nil {
		return nil, err
	}
	return providers.StreamFromSSE(providers.KindCustom, opts.Model, body, decodeStreamFrame), nil
}

// ValidateConfig checks the bound configuration.
func (a *Adapter) ValidateConfig() providers.Validation {
	return validate(a.cfg)
}

// Models returns the configured model when one is named. A custom
// endpoint has no listing to ask.
func (a *Adapter) Models(ctx context.Context) []providers.ModelInfo {
	if a.cfg.Model == "" {
		return nil
	}
	return []providers.ModelInfo{{ID: a.cfg.Model, Name: a.cfg.Model}}
}

// Close releases the transport.
func (a *Adapter) Close() error {
	return a.client.Close()
}

func (a *Adapter) headers(key string) map[string]string {
	h := map[string]string{}
	if key != "" {
		h["Authorization"] = "Bearer " + key
	}
	for k, v := range a.cfg.ExtraHeaders {
		h[k] = v
	}
	return h
}

func validate(cfg providers.Config) providers.Validation {
	var problems []string
	if cfg.Endpoint == "" {
		problems = append(problems, "endpoint: required for custom providers")
	} else if u, err := url.Parse(cfg.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		problems = append(problems, "endpoint: must be an http(s) URL")
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		problems = append(problems, "temperature: must be between 0 and 2")
	}
	if cfg.MaxTokens < 0 {
		problems = append(problems, "max_tokens: must not be negative")
	}
	return providers.Validation{Valid: len(problems) == 0, Errors: problems}
}
