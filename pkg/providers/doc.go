// Package providers defines the provider contract for AI text-completion
// services and the shared plumbing every adapter builds on.
//
// # Overview
//
// Each supported service (OpenAI, Anthropic, Google Gemini, Hugging Face,
// Cohere, OpenRouter, or any custom REST endpoint) is wrapped by an adapter
// that implements the Provider interface. Adapters translate a normalized
// request (prompt plus generation options) into the provider's wire format,
// send it over the shared HTTP client, and extract the completion text back
// out of the provider-specific response shape.
//
// # The Contract
//
// Every adapter implements:
//
//	type Provider interface {
//	    Name() string
//	    Authenticate(ctx context.Context, creds Credentials) AuthResult
//	    Generate(ctx context.Context, prompt string, opts Options) (*Result, error)
//	    Stream(ctx context.Context, prompt string, opts Options) (*Stream, error)
//	    ValidateConfig() Validation
//	    Models(ctx context.Context) []ModelInfo
//	}
//
// Authenticate probes the service with the supplied credentials and reports
// success or a classified failure without ever panicking. ValidateConfig
// checks the adapter's bound configuration and returns a structured report
// rather than an error. Models describes the adapter's known model catalog.
//
// # Error Taxonomy
//
// All failures surface as *Error carrying one of six categories:
//
//	VALIDATION      malformed request, rejected parameters (4xx other than auth/429)
//	AUTHENTICATION  HTTP 401 or 403
//	RATE_LIMIT      HTTP 429
//	NETWORK         transport failures: DNS, connection refused, timeouts
//	SERVER          HTTP 5xx
//	UNKNOWN         anything that matches no other rule
//
// Classification is ordered: transport failures are NETWORK before any HTTP
// status is considered, then authentication statuses, then 429, then 5xx,
// then remaining 4xx. The user-facing message is a stable template that
// never includes the API key or the endpoint; the raw technical detail is
// kept on the Detail field for logs only.
//
// # Streaming
//
// Stream returns a lazy, finite sequence of text deltas:
//
//	stream, err := provider.Stream(ctx, "Write a haiku", opts)
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//	for {
//	    delta, err := stream.Recv()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(delta)
//	}
//
// A Stream is not restartable. Once it has terminated, further Recv calls
// fail fast with ErrStreamConsumed instead of silently returning nothing.
//
// # Thread Safety
//
// Adapters are safe for concurrent use. A Stream is a single-consumer
// value; Recv is serialized internally but the sequence itself is one-shot.
package providers
