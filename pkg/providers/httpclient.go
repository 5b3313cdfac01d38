package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Connection pool defaults shared by all adapters.
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 90 * time.Second
)

// Client is the shared HTTP transport for provider adapters. It pools
// connections, applies the per-attempt deadline, and classifies every
// failure at the boundary so callers only ever see *Error values.
//
// The client performs no retries. Retry decisions belong to the gateway,
// which sees the classified category.
type Client struct {
	// provider is the adapter name stamped onto classified errors
	provider string

	// hc is the pooled HTTP client
	hc *http.Client
}

// NewClient creates a transport for one adapter. A non-positive timeout
// selects DefaultTimeout.
func NewClient(provider string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := &http.Transport{
		MaxIdleConns:        defaultMaxIdleConns,
		MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
		IdleConnTimeout:     defaultIdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}
	return &Client{
		provider: provider,
		hc: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// PostJSON sends a JSON payload and returns the response body and
// headers. Non-2xx statuses come back as classified errors.
func (c *Client) PostJSON(ctx context.Context, url string, payload any, headers map[string]string) ([]byte, http.Header, error) {
	return c.Do(ctx, http.MethodPost, url, payload, headers)
}

// Get performs a GET request and returns the response body and headers.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) ([]byte, http.Header, error) {
	return c.Do(ctx, http.MethodGet, url, nil, headers)
}

// Do performs one HTTP attempt. The payload, when non-nil, is JSON
// encoded. The response body is fully read and returned; status codes
// outside 2xx are mapped through ClassifyStatus.
func (c *Client) Do(ctx context.Context, method, url string, payload any, headers map[string]string) ([]byte, http.Header, error) {
	resp, err := c.send(ctx, method, url, payload, headers, false)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.Header, Classify(c.provider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.Header, ClassifyStatus(c.provider, resp.StatusCode, body, resp.Header)
	}
	return body, resp.Header, nil
}

// OpenStream performs one HTTP attempt expecting a server-sent-event
// response and hands the open body to the caller. An error status is
// drained, closed, and classified before returning.
func (c *Client) OpenStream(ctx context.Context, method, url string, payload any, headers map[string]string) (io.ReadCloser, http.Header, error) {
	resp, err := c.send(ctx, method, url, payload, headers, true)
	if err != nil {
		return nil, nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxDetailBytes))
		resp.Body.Close()
		return nil, resp.Header, ClassifyStatus(c.provider, resp.StatusCode, body, resp.Header)
	}
	return resp.Body, resp.Header, nil
}

func (c *Client) send(ctx context.Context, method, url string, payload any, headers map[string]string, stream bool) (*http.Response, error) {
	var bodyReader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			e := NewError(c.provider, CategoryValidation, "marshal request: "+err.Error())
			e.Code = CodeBadPayload
			e.Cause = err
			return nil, e
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		// Parse failures embed the full URL, which may carry a key in
		// its query string. Scrub before it reaches the detail.
		e := NewError(c.provider, CategoryValidation, "build request: "+scrubErrorDetail(err))
		e.Cause = err
		return nil, e
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Content-Type") == "" && bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if stream {
		if req.Header.Get("Accept") == "" {
			req.Header.Set("Accept", "text/event-stream")
		}
		req.Header.Set("Cache-Control", "no-cache")
	} else if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	slog.Debug("sending request to provider",
		"provider", c.provider,
		"method", method,
		"stream", stream,
	)

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, Classify(c.provider, ctxErr)
		}
		return nil, Classify(c.provider, err)
	}
	return resp, nil
}

// Close releases pooled connections. The client may not be used after.
func (c *Client) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}
