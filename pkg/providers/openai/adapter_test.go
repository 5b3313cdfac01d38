package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

func testConfig(endpoint string) providers.Config {
	return providers.Config{
		Endpoint: endpoint,
		APIKey:   "test-api-key",
		Model:    "gpt-4o-mini",
		Timeout:  5 * time.Second,
	}
}

// TestAdapter_GenerateRequestShape verifies the exact request body and
// headers sent for a plain completion.
func TestAdapter_GenerateRequestShape(t *testing.T) {
	var captured map[string]any
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		fmt.Fprint(w, `{
			"id": "chatcmpl-1",
			"model": "gpt-4o-mini",
			"choices": [{"index":0,"message":{"role":"assistant","content":"A short summary."},"finish_reason":"stop"}],
			"usage": {"prompt_tokens":12,"completion_tokens":4,"total_tokens":16}
		}`)
	}))
	defer server.Close()

	a, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}
	defer a.Close()

	res, err := a.Generate(context.Background(), "Summarize this paragraph", providers.Options{
		MaxTokens:   50,
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer test-api-key" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}

	if captured["model"] != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %v", captured["model"])
	}
	if captured["max_tokens"] != float64(50) {
		t.Errorf("expected max_tokens 50, got %v", captured["max_tokens"])
	}
	if captured["temperature"] != 0.7 {
		t.Errorf("expected temperature 0.7, got %v", captured["temperature"])
	}
	if captured["stream"] != false {
		t.Errorf("expected explicit stream:false, got %v", captured["stream"])
	}

	messages, ok := captured["messages"].([]any)
	if !ok || len(messages) != 1 {
		t.Fatalf("expected exactly one message, got %v", captured["messages"])
	}
	msg := messages[0].(map[string]any)
	if msg["role"] != "user" || msg["content"] != "Summarize this paragraph" {
		t.Errorf("unexpected message: %v", msg)
	}

	if res.Text != "A short summary." {
		t.Errorf("expected extracted text, got %q", res.Text)
	}
	if res.Usage.TotalTokens != 16 || res.Usage.Estimated {
		t.Errorf("expected provider-reported usage, got %+v", res.Usage)
	}
	if res.Provider != providers.KindOpenAI {
		t.Errorf("expected provider openai, got %q", res.Provider)
	}
}

// TestAdapter_GenerateNoContent verifies that a well-formed response
// without any completion is reported as NO_CONTENT rather than as an
// empty success.
func TestAdapter_GenerateNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"chatcmpl-1","model":"gpt-4o-mini","choices":[]}`)
	}))
	defer server.Close()

	a, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}
	defer a.Close()

	_, err = a.Generate(context.Background(), "hi", providers.Options{})
	var perr *providers.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected classified error, got %v", err)
	}
	if perr.Code != providers.CodeNoContent {
		t.Errorf("expected code %s, got %s", providers.CodeNoContent, perr.Code)
	}
}

// TestExtractText_Total verifies extraction never panics and yields ""
// for every degenerate shape.
func TestExtractText_Total(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty object", `{}`},
		{"not json", `this is not json`},
		{"array root", `[1,2,3]`},
		{"empty choices", `{"choices":[]}`},
		{"message missing", `{"choices":[{"index":0}]}`},
		{"content missing", `{"choices":[{"message":{"role":"assistant"}}]}`},
		{"content null", `{"choices":[{"message":{"content":null}}]}`},
		{"content wrong type", `{"choices":[{"message":{"content":42}}]}`},
		{"empty body", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractText([]byte(tt.raw)); got != "" {
				t.Errorf("expected empty string, got %q", got)
			}
		})
	}

	if got := ExtractText([]byte(`{"choices":[{"message":{"content":"ok"}}]}`)); got != "ok" {
		t.Errorf("expected %q, got %q", "ok", got)
	}
}

// TestAdapter_StreamDeltas verifies SSE decoding end to end: in-order
// deltas, the trailing usage frame, the [DONE] terminal, and the
// one-shot consumption property.
func TestAdapter_StreamDeltas(t *testing.T) {
	frames := []string{
		`data: {"id":"c1","model":"gpt-4o-mini","choices":[{"index":0,"delta":{"role":"assistant"}}]}`,
		`data: {"id":"c1","model":"gpt-4o-mini","choices":[{"index":0,"delta":{"content":"Hello"}}]}`,
		`data: {"id":"c1","model":"gpt-4o-mini","choices":[{"index":0,"delta":{"content":" World"}}]}`,
		`data: {"id":"c1","model":"gpt-4o-mini","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		`data: {"id":"c1","model":"gpt-4o-mini","choices":[],"usage":{"prompt_tokens":8,"completion_tokens":2,"total_tokens":10}}`,
		`data: [DONE]`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			if req["stream"] != true {
				t.Errorf("expected stream:true in request, got %v", req["stream"])
			}
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, frame := range frames {
			fmt.Fprintf(w, "%s\n\n", frame)
			flusher.Flush()
		}
	}))
	defer server.Close()

	a, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}
	defer a.Close()

	stream, err := a.Stream(context.Background(), "Say hello", providers.Options{})
	if err != nil {
		t.Fatalf("failed to open stream: %v", err)
	}

	text, err := stream.Text()
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if text != "Hello World" {
		t.Errorf("expected %q, got %q", "Hello World", text)
	}

	usage, reported := stream.Usage()
	if !reported || usage.TotalTokens != 10 {
		t.Errorf("expected reported usage of 10 tokens, got %+v reported=%v", usage, reported)
	}

	if _, err := stream.Recv(); !errors.Is(err, providers.ErrStreamConsumed) {
		t.Errorf("expected ErrStreamConsumed on reconsumption, got %v", err)
	}
}

// TestAdapter_StreamDialError verifies that an error status at dial
// time is classified before any stream exists.
func TestAdapter_StreamDialError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error":{"message":"overloaded"}}`)
	}))
	defer server.Close()

	a, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}
	defer a.Close()

	_, err = a.Stream(context.Background(), "hi", providers.Options{})
	var perr *providers.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected classified error, got %v", err)
	}
	if perr.Category != providers.CategoryServer {
		t.Errorf("expected SERVER, got %s", perr.Category)
	}
}

// TestAdapter_Authenticate verifies the probe outcome for accepted and
// rejected keys.
func TestAdapter_Authenticate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer good-key" {
			fmt.Fprint(w, `{"data":[{"id":"gpt-4o-mini"}]}`)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key"}}`)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.APIKey = "good-key"
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}
	defer a.Close()

	if res := a.Authenticate(context.Background(), providers.Credentials{}); !res.OK {
		t.Errorf("expected configured key to pass, got %v", res.Err)
	}

	res := a.Authenticate(context.Background(), providers.Credentials{APIKey: "wrong"})
	if res.OK {
		t.Fatal("expected rejection for wrong key")
	}
	if res.Err == nil || res.Err.Category != providers.CategoryAuthentication {
		t.Errorf("expected AUTHENTICATION, got %v", res.Err)
	}
}

// TestAdapter_Models verifies live listing with catalog fallback.
func TestAdapter_Models(t *testing.T) {
	t.Run("live listing", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data":[{"id":"gpt-4o"},{"id":"gpt-4o-mini"}]}`)
		}))
		defer server.Close()

		a, err := New(testConfig(server.URL))
		if err != nil {
			t.Fatalf("failed to create adapter: %v", err)
		}
		defer a.Close()

		models := a.Models(context.Background())
		if len(models) != 2 || models[0].ID != "gpt-4o" {
			t.Errorf("unexpected live listing: %+v", models)
		}
	})

	t.Run("catalog fallback", func(t *testing.T) {
		cfg := testConfig("http://127.0.0.1:1") // nothing listens here
		cfg.Timeout = 500 * time.Millisecond
		a, err := New(cfg)
		if err != nil {
			t.Fatalf("failed to create adapter: %v", err)
		}
		defer a.Close()

		models := a.Models(context.Background())
		if len(models) != len(Catalog()) {
			t.Errorf("expected built-in catalog, got %+v", models)
		}
	})
}

// TestNew_ConfigValidation verifies construction fails loudly on an
// unusable configuration and that ValidateConfig reports problems.
func TestNew_ConfigValidation(t *testing.T) {
	_, err := New(providers.Config{})
	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for missing key, got %v", err)
	}

	a, err := New(testConfig("http://example.test"))
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}
	defer a.Close()

	v := a.ValidateConfig()
	if !v.Valid || len(v.Errors) != 0 {
		t.Errorf("expected valid config, got %+v", v)
	}

	bad := validate(providers.Config{APIKey: "k", Endpoint: "ftp://nope", Temperature: 9})
	if bad.Valid || len(bad.Errors) != 2 {
		t.Errorf("expected two problems, got %+v", bad)
	}
}
