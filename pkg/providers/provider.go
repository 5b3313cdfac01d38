package providers

import "context"

// Provider is the contract every text-completion adapter implements.
// One adapter instance is bound to one provider account (endpoint, key,
// default model); per-call Options may override the generation defaults.
//
// All blocking methods accept a context.Context and return promptly when
// it is cancelled.
//
// Example usage:
//
//	p, err := openai.New(providers.Config{
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	    Model:  "gpt-4o-mini",
//	})
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	res, err := p.Generate(ctx, "Improve this sentence.", providers.Options{})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Text)
type Provider interface {
	// Name returns the adapter's identifier (e.g. "openai", "anthropic").
	Name() string

	// Authenticate probes the provider with the given credentials and
	// reports whether they were accepted. Empty credential fields fall
	// back to the bound configuration. The probe never panics; any
	// failure is returned classified inside the result.
	Authenticate(ctx context.Context, creds Credentials) AuthResult

	// Generate sends one prompt and returns the normalized completion.
	// The prompt is serialized into the provider's wire format, sent,
	// and the completion text extracted from the provider's response
	// shape. Failures return a classified *Error.
	Generate(ctx context.Context, prompt string, opts Options) (*Result, error)

	// Stream sends one prompt and returns a lazy sequence of text
	// deltas. The returned Stream is one-shot: once terminated, further
	// Recv calls fail with ErrStreamConsumed. An error here means the
	// request could not be dialed; mid-stream failures surface through
	// Recv.
	Stream(ctx context.Context, prompt string, opts Options) (*Stream, error)

	// ValidateConfig checks the adapter's bound configuration and
	// returns a structured report. It never returns an error and never
	// panics; an unusable config yields Valid=false with one message
	// per problem.
	ValidateConfig() Validation

	// Models describes the adapter's model catalog. Adapters with a
	// live listing endpoint may consult it; on any failure the built-in
	// catalog is returned, never an error.
	Models(ctx context.Context) []ModelInfo

	// Close releases transport resources. The adapter must not be used
	// afterwards.
	Close() error
}
