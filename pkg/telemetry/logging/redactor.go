package logging

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Redactor scrubs secret material from log output. It recognizes the
// credential shapes that flow through this system: provider API keys,
// bearer tokens, and keys embedded in query strings. Error text gets
// the same treatment because provider errors quote request URLs.
type Redactor struct {
	patterns []redactPattern
}

// redactPattern contains a compiled regex and its replacement.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Pattern names for the built-in redactions.
const (
	PatternAPIKey      = "api_key"
	PatternHFToken     = "hf_token"
	PatternBearerToken = "bearer_token"
	PatternKeyParam    = "key_param"
	PatternKeyHeader   = "key_header"
)

// NewRedactor creates a redactor with the built-in credential patterns.
func NewRedactor() *Redactor {
	compile := func(name, expr, replacement string) redactPattern {
		return redactPattern{name: name, regex: regexp.MustCompile(expr), replacement: replacement}
	}
	return &Redactor{
		patterns: []redactPattern{
			// OpenAI-style secret keys, including sk-ant- and sk-proj-
			// prefixed variants.
			compile(PatternAPIKey, `sk-[A-Za-z0-9_-]{8,}`, "sk-***"),

			// Hugging Face access tokens.
			compile(PatternHFToken, `hf_[A-Za-z0-9]{8,}`, "hf_***"),

			// Authorization header values.
			compile(PatternBearerToken, `(?i)Bearer\s+[A-Za-z0-9\-._~+/]+=*`, "Bearer ***"),

			// Keys passed as query parameters (the Gemini dialect
			// authenticates with ?key=...).
			compile(PatternKeyParam, `(?i)([?&](?:api[_-]?key|key|token|access_token)=)[^&\s"']+`, "$1***"),

			// Key-carrying headers quoted into error text.
			compile(PatternKeyHeader, `(?i)(x-api-key:\s*)\S+`, "$1***"),
		},
	}
}

// RedactString scrubs all recognized credential shapes from a string.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// sensitiveKeys marks attribute names whose values are secrets
// regardless of shape.
var sensitiveKeys = []string{
	"api_key", "apikey",
	"authorization", "auth",
	"token", "secret", "password",
}

// SensitiveKey reports whether an attribute name indicates a secret
// value.
func SensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// RedactAPIKey masks an API key, keeping a short prefix for
// identification.
func RedactAPIKey(apiKey string) string {
	if len(apiKey) <= 4 {
		return "***"
	}
	return apiKey[:4] + "***"
}

// RedactingHandler wraps a slog.Handler and scrubs secrets from every
// record: messages, attribute values, and attributes attached through
// With. Attributes under a sensitive key are masked outright; other
// string values are pattern-scrubbed.
type RedactingHandler struct {
	inner    slog.Handler
	redactor *Redactor
}

// NewRedactingHandler wraps inner with credential redaction.
func NewRedactingHandler(inner slog.Handler, r *Redactor) *RedactingHandler {
	if r == nil {
		r = NewRedactor()
	}
	return &RedactingHandler{inner: inner, redactor: r}
}

// Enabled reports whether the wrapped handler handles the level.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle scrubs the record and passes it on.
func (h *RedactingHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, h.redactor.RedactString(rec.Message), rec.PC)
	rec.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, out)
}

// WithAttrs redacts the attributes before handing them to the wrapped
// handler, so secrets bound via Logger.With never reach the output
// path unscrubbed.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactAttr(a)
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(redacted), redactor: h.redactor}
}

// WithGroup passes the group through.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name), redactor: h.redactor}
}

func (h *RedactingHandler) redactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	switch a.Value.Kind() {
	case slog.KindString:
		if SensitiveKey(a.Key) {
			a.Value = slog.StringValue(RedactAPIKey(a.Value.String()))
		} else {
			a.Value = slog.StringValue(h.redactor.RedactString(a.Value.String()))
		}
	case slog.KindGroup:
		members := a.Value.Group()
		redacted := make([]slog.Attr, len(members))
		for i, m := range members {
			redacted[i] = h.redactAttr(m)
		}
		a.Value = slog.GroupValue(redacted...)
	case slog.KindAny:
		// Errors carry provider detail that can quote credentialed
		// URLs and headers.
		if err, ok := a.Value.Any().(error); ok && err != nil {
			a.Value = slog.StringValue(h.redactor.RedactString(err.Error()))
		}
	}
	return a
}
