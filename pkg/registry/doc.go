// Package registry maps provider identifiers to adapter factories and
// resolves configured, gateway-bound handles.
//
// The registry is an explicit value rather than package state: tests
// construct isolated registries, and applications decide which gateway
// (limiter, retry policy, ledger, metrics) resolved handles dispatch
// through.
//
//	gw := gateway.New(gateway.Config{Limiter: limiter, Ledger: ledger})
//	reg := registry.Default(gw)
//
//	h, err := reg.Resolve("openai", providers.Config{APIKey: key})
//	if err != nil {
//	    return err // *providers.ConfigError: bad id or bad config
//	}
//	defer h.Close()
//
//	res, err := h.Generate(ctx, prompt, providers.Options{})
//
// Default registers the seven built-in adapters; Register adds custom
// descriptors on top.
package registry
