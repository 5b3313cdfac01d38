package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/AstroAir/PromptBoost-sub001/pkg/gateway"
	"github.com/AstroAir/PromptBoost-sub001/pkg/limits/ratelimit"
	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
	"github.com/AstroAir/PromptBoost-sub001/pkg/providers/anthropic"
	"github.com/AstroAir/PromptBoost-sub001/pkg/providers/cohere"
	"github.com/AstroAir/PromptBoost-sub001/pkg/providers/custom"
	"github.com/AstroAir/PromptBoost-sub001/pkg/providers/gemini"
	"github.com/AstroAir/PromptBoost-sub001/pkg/providers/huggingface"
	"github.com/AstroAir/PromptBoost-sub001/pkg/providers/openai"
	"github.com/AstroAir/PromptBoost-sub001/pkg/providers/openrouter"
)

// Descriptor categories.
const (
	// CategoryCloud marks first-party hosted model APIs.
	CategoryCloud = "cloud"

	// CategoryAggregator marks services routing to many upstream models.
	CategoryAggregator = "aggregator"

	// CategoryCustom marks user-supplied endpoints.
	CategoryCustom = "custom"
)

// Factory builds a provider adapter from a configuration. The factory
// validates the configuration and returns *providers.ConfigError when
// it is unusable.
type Factory func(cfg providers.Config) (providers.Provider, error)

// Descriptor is one registered provider: its identifier, display
// metadata, and adapter factory. Descriptors live for the registry's
// lifetime.
type Descriptor struct {
	// ID is the stable identifier used in configuration ("openai",
	// "anthropic", ...).
	ID string

	// DisplayName is the human-readable provider name.
	DisplayName string

	// Category groups providers for listings (cloud, aggregator,
	// custom).
	Category string

	// New builds an adapter bound to one configuration.
	New Factory
}

// Registry maps provider identifiers to adapter factories and resolves
// configured, gateway-bound handles. It is an explicit value: construct
// one per process (or per test) and pass it where needed.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor
	gateway     *gateway.Gateway
	logger      *slog.Logger
}

// New creates an empty registry whose handles dispatch through gw.
// A nil gateway gets default wiring (unconfigured limiter, default
// retry policy, no ledger).
func New(gw *gateway.Gateway) *Registry {
	if gw == nil {
		gw = gateway.New(gateway.Config{})
	}
	return &Registry{
		descriptors: make(map[string]Descriptor),
		gateway:     gw,
		logger:      slog.Default().With("component", "registry"),
	}
}

// Default creates a registry with all built-in providers registered.
func Default(gw *gateway.Gateway) *Registry {
	r := New(gw)
	for _, desc := range Builtins() {
		// Builtins carry valid descriptors; Register only rejects
		// malformed ones.
		_ = r.Register(desc)
	}
	return r
}

// Builtins returns descriptors for every built-in adapter.
func Builtins() []Descriptor {
	return []Descriptor{
		{
			ID:          providers.KindOpenAI,
			DisplayName: "OpenAI",
			Category:    CategoryCloud,
			New: func(cfg providers.Config) (providers.Provider, error) {
				return openai.New(cfg)
			},
		},
		{
			ID:          providers.KindAnthropic,
			DisplayName: "Anthropic",
			Category:    CategoryCloud,
			New: func(cfg providers.Config) (providers.Provider, error) {
				return anthropic.New(cfg)
			},
		},
		{
			ID:          providers.KindGemini,
			DisplayName: "Google Gemini",
			Category:    CategoryCloud,
			New: func(cfg providers.Config) (providers.Provider, error) {
				return gemini.New(cfg)
			},
		},
		{
			ID:          providers.KindHuggingFace,
			DisplayName: "Hugging Face",
			Category:    CategoryCloud,
			New: func(cfg providers.Config) (providers.Provider, error) {
				return huggingface.New(cfg)
			},
		},
		{
			ID:          providers.KindCohere,
			DisplayName: "Cohere",
			Category:    CategoryCloud,
			New: func(cfg providers.Config) (providers.Provider, error) {
				return cohere.New(cfg)
			},
		},
		{
			ID:          providers.KindOpenRouter,
			DisplayName: "OpenRouter",
			Category:    CategoryAggregator,
			New: func(cfg providers.Config) (providers.Provider, error) {
				return openrouter.New(cfg)
			},
		},
		{
			ID:          providers.KindCustom,
			DisplayName: "Custom endpoint",
			Category:    CategoryCustom,
			New: func(cfg providers.Config) (providers.Provider, error) {
				return custom.New(cfg)
			},
		},
	}
}

// Register adds a descriptor. Registering an existing ID replaces the
// previous descriptor; already-resolved handles keep the old adapter.
func (r *Registry) Register(desc Descriptor) error {
	if desc.ID == "" {
		return fmt.Errorf("registry: descriptor ID cannot be empty")
	}
	if desc.New == nil {
		return fmt.Errorf("registry: descriptor %q has no factory", desc.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.descriptors[desc.ID]; exists {
		r.logger.Warn("replacing registered provider", "provider", desc.ID)
	}
	r.descriptors[desc.ID] = desc
	return nil
}

// Resolve builds a gateway-bound handle for the identified provider.
// An unknown ID or an unusable configuration returns
// *providers.ConfigError; resolution failures never enter the retry
// path.
func (r *Registry) Resolve(id string, cfg providers.Config) (*Handle, error) {
	r.mu.RLock()
	desc, ok := r.descriptors[id]
	r.mu.RUnlock()

	if !ok {
		return nil, &providers.ConfigError{
			Provider: id,
			Field:    "provider",
			Message:  fmt.Sprintf("unknown provider %q (available: %s)", id, strings.Join(r.IDs(), ", ")),
		}
	}

	prov, err := desc.New(cfg)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("provider resolved",
		"provider", id,
		"model", cfg.Model,
	)

	return &Handle{
		descriptor: desc,
		provider:   prov,
		gateway:    r.gateway,
		key:        ratelimit.KeyFor(prov.Name(), cfg.APIKey),
		creds:      providers.Credentials{APIKey: cfg.APIKey},
	}, nil
}

// Lookup returns the descriptor registered under id.
func (r *Registry) Lookup(id string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.descriptors[id]
	return desc, ok
}

// Descriptors lists every registered descriptor, sorted by ID.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.descriptors))
	for _, desc := range r.descriptors {
		out = append(out, desc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs lists every registered identifier, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.descriptors))
	for id := range r.descriptors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Gateway returns the gateway handles dispatch through.
func (r *Registry) Gateway() *gateway.Gateway {
	return r.gateway
}
