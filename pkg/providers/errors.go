package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Category is the closed classification every provider failure maps to.
// There are exactly six values; new failure modes extend the mapping
// rules, not the set.
type Category string

const (
	// CategoryValidation covers malformed or rejected requests
	// (HTTP 4xx other than authentication and rate limiting).
	CategoryValidation Category = "VALIDATION"

	// CategoryAuthentication covers rejected credentials (HTTP 401/403).
	CategoryAuthentication Category = "AUTHENTICATION"

	// CategoryRateLimit covers provider throttling (HTTP 429).
	CategoryRateLimit Category = "RATE_LIMIT"

	// CategoryNetwork covers transport failures: DNS, connection
	// refused, resets, and timeouts.
	CategoryNetwork Category = "NETWORK"

	// CategoryServer covers provider-side failures (HTTP 5xx).
	CategoryServer Category = "SERVER"

	// CategoryUnknown covers anything matching no other rule.
	CategoryUnknown Category = "UNKNOWN"
)

// Machine-readable error codes carried alongside the category.
const (
	CodeTimeout        = "TIMEOUT"
	CodeCanceled       = "CANCELED"
	CodeNoContent      = "NO_CONTENT"
	CodeStreamConsumed = "STREAM_CONSUMED"
	CodeBadPayload     = "BAD_PAYLOAD"
)

// Error is the classified provider failure. Message is a stable template
// safe to show to users: it never contains the API key, the endpoint, or
// raw provider output. Detail keeps the technical specifics for logs.
type Error struct {
	// Category is the taxonomy bucket this failure falls into
	Category Category

	// Code is an optional machine-readable refinement of the category
	Code string

	// Provider is the adapter name that produced the failure
	Provider string

	// Status is the HTTP status code (0 if not applicable)
	Status int

	// Message is the sanitized, user-facing description
	Message string

	// Detail is the raw technical description, for logs only
	Detail string

	// RetryAfter is the provider-requested wait before retrying, when
	// a 429 response carried one
	RetryAfter time.Duration

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface. The string is built only from
// sanitized parts.
func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s: %s", e.Provider, strings.ToLower(string(e.Category)), e.Message)
	}
	return fmt.Sprintf("%s: %s", strings.ToLower(string(e.Category)), e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrStreamConsumed is returned by Stream.Recv once the stream has
// terminated. Streams are one-shot; a second consumption attempt fails
// fast instead of silently yielding nothing.
var ErrStreamConsumed = &Error{
	Category: CategoryValidation,
	Code:     CodeStreamConsumed,
	Message:  "the stream has already been consumed",
}

// userMessage returns the stable user-facing template for a category.
func userMessage(cat Category) string {
	switch cat {
	case CategoryValidation:
		return "the request was rejected as invalid"
	case CategoryAuthentication:
		return "authentication failed; check the configured API key"
	case CategoryRateLimit:
		return "the provider's rate limit was reached; try again shortly"
	case CategoryNetwork:
		return "could not reach the provider"
	case CategoryServer:
		return "the provider reported an internal error"
	default:
		return "an unexpected error occurred"
	}
}

// NewError builds a classified error with the category's standard
// user-facing message and the given technical detail.
func NewError(provider string, cat Category, detail string) *Error {
	return &Error{
		Category: cat,
		Provider: provider,
		Message:  userMessage(cat),
		Detail:   detail,
	}
}

// Classify maps an arbitrary error to the taxonomy. Errors that are
// already classified pass through unchanged. Transport-level failures
// become NETWORK regardless of any other signal; this check runs before
// HTTP status interpretation, which happens in ClassifyStatus.
func Classify(provider string, err error) *Error {
	if err == nil {
		return nil
	}

	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}

	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		e := NewError(provider, CategoryValidation, cfgErr.Error())
		e.Cause = err
		return e
	}

	if errors.Is(err, context.DeadlineExceeded) {
		e := NewError(provider, CategoryNetwork, "request deadline exceeded: "+err.Error())
		e.Code = CodeTimeout
		e.Cause = err
		return e
	}
	if errors.Is(err, context.Canceled) {
		e := NewError(provider, CategoryNetwork, "request canceled: "+err.Error())
		e.Code = CodeCanceled
		e.Cause = err
		return e
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		e := NewError(provider, CategoryNetwork, "network timeout: "+scrubErrorDetail(err))
		e.Code = CodeTimeout
		e.Cause = err
		return e
	}

	var uerr *url.Error
	if errors.As(err, &uerr) {
		e := NewError(provider, CategoryNetwork, scrubErrorDetail(err))
		e.Cause = err
		return e
	}
	var operr *net.OpError
	if errors.As(err, &operr) {
		e := NewError(provider, CategoryNetwork, scrubErrorDetail(err))
		e.Cause = err
		return e
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		e := NewError(provider, CategoryNetwork, scrubErrorDetail(err))
		e.Cause = err
		return e
	}

	e := NewError(provider, CategoryUnknown, err.Error())
	e.Cause = err
	return e
}

// ClassifyStatus maps a non-success HTTP status to the taxonomy.
// Precedence: 401/403 before 429, 429 before 5xx, 5xx before the
// remaining 4xx. Statuses matching no rule become UNKNOWN.
func ClassifyStatus(provider string, status int, body []byte, hdr http.Header) *Error {
	var cat Category
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		cat = CategoryAuthentication
	case status == http.StatusTooManyRequests:
		cat = CategoryRateLimit
	case status >= 500:
		cat = CategoryServer
	case status >= 400:
		cat = CategoryValidation
	default:
		cat = CategoryUnknown
	}

	e := NewError(provider, cat, fmt.Sprintf("status %d: %s", status, truncateBody(body)))
	e.Status = status
	if cat == CategoryRateLimit {
		e.RetryAfter = parseRetryAfter(hdr)
	}
	return e
}

// IsCategory reports whether err carries the given category anywhere in
// its chain.
func IsCategory(err error, cat Category) bool {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Category == cat
	}
	return false
}

// ConfigError represents a provider configuration error. Resolution and
// construction failures use it; it is deliberately outside the runtime
// taxonomy so callers can tell a bad setup from a failed call.
type ConfigError struct {
	// Provider is the name of the provider with invalid configuration
	Provider string

	// Field is the configuration field that is invalid
	Field string

	// Message describes the configuration error
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("provider %q configuration error for field %q: %s",
			e.Provider, e.Field, e.Message)
	}
	return fmt.Sprintf("provider %q configuration error: %s", e.Provider, e.Message)
}

// parseRetryAfter extracts the retry delay from a Retry-After header.
// The value may be an integer number of seconds or an HTTP date.
func parseRetryAfter(hdr http.Header) time.Duration {
	value := hdr.Get("Retry-After")
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

const maxDetailBytes = 2048

// truncateBody trims a response body for inclusion in log detail.
func truncateBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "(empty body)"
	}
	if len(s) > maxDetailBytes {
		return s[:maxDetailBytes] + "...(truncated)"
	}
	return s
}

// scrubErrorDetail rewrites transport error text so that full request
// URLs never reach the logs. Query strings can carry API keys (Gemini
// authenticates via a key parameter), so only scheme, host, and path
// survive.
func scrubErrorDetail(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		inner := "request failed"
		if uerr.Err != nil {
			inner = uerr.Err.Error()
		}
		return fmt.Sprintf("%s %s: %s", uerr.Op, scrubURL(uerr.URL), inner)
	}
	return err.Error()
}

func scrubURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.IndexByte(raw, '?'); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil
	return u.String()
}
