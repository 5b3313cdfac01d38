package registry

import (
	"context"

	"github.com/AstroAir/PromptBoost-sub001/pkg/gateway"
	"github.com/AstroAir/PromptBoost-sub001/pkg/limits/ratelimit"
	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

// Handle is a resolved provider bound to one configuration. Generation
// calls dispatch through the gateway, which owns admission, retries,
// and accounting; inspection calls go straight to the adapter.
type Handle struct {
	descriptor Descriptor
	provider   providers.Provider
	gateway    *gateway.Gateway
	key        ratelimit.Key
	creds      providers.Credentials
}

// Name returns the provider identifier.
func (h *Handle) Name() string {
	return h.provider.Name()
}

// Descriptor returns the registration metadata the handle was resolved
// from.
func (h *Handle) Descriptor() Descriptor {
	return h.descriptor
}

// Key returns the rate-limit key the handle's calls are admitted under.
func (h *Handle) Key() ratelimit.Key {
	return h.key
}

// Provider returns the underlying adapter.
func (h *Handle) Provider() providers.Provider {
	return h.provider
}

// Generate sends one prompt through the gateway pipeline.
func (h *Handle) Generate(ctx context.Context, prompt string, opts providers.Options) (*providers.Result, error) {
	return h.gateway.Generate(ctx, h.provider, h.key, prompt, opts)
}

// Stream dials one streaming call through the gateway pipeline.
func (h *Handle) Stream(ctx context.Context, prompt string, opts providers.Options) (*providers.Stream, error) {
	return h.gateway.Stream(ctx, h.provider, h.key, prompt, opts)
}

// Authenticate probes the provider with the bound credentials.
func (h *Handle) Authenticate(ctx context.Context) providers.AuthResult {
	return h.provider.Authenticate(ctx, h.creds)
}

// ValidateConfig checks the bound configuration.
func (h *Handle) ValidateConfig() providers.Validation {
	return h.provider.ValidateConfig()
}

// Models describes the provider's model catalog.
func (h *Handle) Models(ctx context.Context) []providers.ModelInfo {
	return h.provider.Models(ctx)
}

// Close releases the adapter's transport resources.
func (h *Handle) Close() error {
	return h.provider.Close()
}
