// Package logging builds the process logger with credential redaction.
//
// # Overview
//
// The logging package configures Go's standard log/slog package to
// provide:
//   - Structured logging with JSON and text formats
//   - Automatic scrubbing of API keys and bearer tokens
//   - Configurable log levels (debug, info, warn, error)
//
// It returns plain *slog.Logger values rather than a wrapper type, so
// every package logs through slog and picks the configuration up from
// the default logger.
//
// # Usage
//
//	// At process start
//	logger, err := logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "text",
//	    Redact: true,
//	})
//
//	// Anywhere afterwards
//	slog.Info("request finished",
//	    "provider", "openai",
//	    "api_key", "sk-abc123xyz",  // Automatically masked
//	    "duration", elapsed,
//	)
//
// # Redaction
//
// With Redact enabled, a wrapping handler scrubs secrets from
// messages, attribute values, and attributes bound through With:
//
//   - Secret keys: sk-abc123xyz456 → sk-***
//   - Hugging Face tokens: hf_abcDEF123456 → hf_***
//   - Authorization headers: Bearer eyJhbGci... → Bearer ***
//   - Query parameters: ?key=AIzaSyB... → ?key=***
//
// Attributes whose name marks them sensitive (api_key, token, secret,
// authorization) are masked down to a four-character prefix whatever
// their value looks like. Error values get the same pattern scrub as
// strings, because provider errors quote request URLs.
package logging
