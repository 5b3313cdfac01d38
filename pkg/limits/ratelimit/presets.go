package ratelimit

import "time"

// presets carries per-minute bounds mirroring the published entry-tier
// limits of the hosted providers. Aggregators and self-hosted endpoints
// publish no uniform numbers, so they bound requests only.
var presets = map[string]Config{
	"openai":      {Window: time.Minute, MaxRequests: 60, MaxTokens: 90000},
	"anthropic":   {Window: time.Minute, MaxRequests: 50, MaxTokens: 40000},
	"gemini":      {Window: time.Minute, MaxRequests: 15, MaxTokens: 32000},
	"huggingface": {Window: time.Minute, MaxRequests: 30},
	"cohere":      {Window: time.Minute, MaxRequests: 100},
	"openrouter":  {Window: time.Minute, MaxRequests: 60},
}

// Preset returns the default bounds for a provider. Unknown providers
// get the package defaults. Deployments on higher tiers override the
// preset through Limiter.Configure.
func Preset(provider string) Config {
	if cfg, ok := presets[provider]; ok {
		return cfg.WithDefaults()
	}
	return Config{}.WithDefaults()
}

// HasPreset reports whether provider has built-in bounds. Custom
// endpoints and unknown providers have none and fall back to the
// limiter's defaults.
func HasPreset(provider string) bool {
	_, ok := presets[provider]
	return ok
}
