package openrouter

import (
	"context"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
	"github.com/AstroAir/PromptBoost-sub001/pkg/providers/openai"
)

const (
	// DefaultEndpoint is OpenRouter's OpenAI-compatible base URL.
	DefaultEndpoint = "https://openrouter.ai/api/v1"

	// DefaultModel is used when the configuration names none. OpenRouter
	// model ids are namespaced by the upstream vendor.
	DefaultModel = "openai/gpt-4o-mini"

	// Attribution headers OpenRouter asks callers to send.
	attributionReferer = "https://github.com/AstroAir/PromptBoost-sub001"
	attributionTitle   = "PromptBoost"
)

// Adapter implements providers.Provider for OpenRouter. The service
// speaks the OpenAI wire dialect, so the adapter is that one under a
// different name with its own endpoint, catalog, and attribution
// headers.
type Adapter struct {
	*openai.Adapter
}

// New creates an OpenRouter adapter.
func New(cfg providers.Config) (*Adapter, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	headers := map[string]string{
		"HTTP-Referer": attributionReferer,
		"X-Title":      attributionTitle,
	}
	for k, v := range cfg.ExtraHeaders {
		headers[k] = v
	}
	cfg.ExtraHeaders = headers

	inner, err := openai.NewNamed(providers.KindOpenRouter, cfg)
	if err != nil {
		return nil, err
	}
	return &Adapter{Adapter: inner}, nil
}

// Models returns the live listing when reachable, otherwise the
// OpenRouter catalog rather than the OpenAI one.
func (a *Adapter) Models(ctx context.Context) []providers.ModelInfo {
	if live := a.LiveModels(ctx); len(live) > 0 {
		return live
	}
	return Catalog()
}

// Catalog is the built-in model list.
func Catalog() []providers.ModelInfo {
	return []providers.ModelInfo{
		{ID: "openai/gpt-4o", Name: "GPT-4o", ContextWindow: 128000},
		{ID: "openai/gpt-4o-mini", Name: "GPT-4o mini", ContextWindow: 128000},
		{ID: "anthropic/claude-3.5-sonnet", Name: "Claude 3.5 Sonnet", ContextWindow: 200000},
		{ID: "meta-llama/llama-3.1-70b-instruct", Name: "Llama 3.1 70B Instruct", ContextWindow: 131072},
		{ID: "mistralai/mistral-large", Name: "Mistral Large", ContextWindow: 128000},
	}
}
