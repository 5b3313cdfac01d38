package anthropic

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
		Model:    "claude-3-5-sonnet-20241022",
		Timeout:  5 * time.Second,
	}
}

// TestAdapter_GenerateRequestShape verifies the messages request body
// and the Anthropic header pair.
func TestAdapter_GenerateRequestShape(t *testing.T) {
	var captured map[string]any
	var gotKey, gotVersion string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		if r.URL.Path != "/v1/messages" {
			t.Errorf("expected /v1/messages, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		fmt.Fprint(w, `{
			"id": "msg_1",
			"type": "message",
			"model": "claude-3-5-sonnet-20241022",
			"content": [{"type":"text","text":"A short summary."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens":12,"output_tokens":4}
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
		Temperature: 0.5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotKey != "test-api-key" {
		t.Errorf("expected x-api-key header, got %q", gotKey)
	}
	if gotVersion != apiVersion {
		t.Errorf("expected anthropic-version %s, got %q", apiVersion, gotVersion)
	}

	if captured["model"] != "claude-3-5-sonnet-20241022" {
		t.Errorf("expected configured model, got %v", captured["model"])
	}
	// max_tokens is mandatory on this API and must always be present.
	if captured["max_tokens"] != float64(50) {
		t.Errorf("expected max_tokens 50, got %v", captured["max_tokens"])
	}
	if captured["temperature"] != 0.5 {
		t.Errorf("expected temperature 0.5, got %v", captured["temperature"])
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
		t.Errorf("expected summed provider usage, got %+v", res.Usage)
	}
}

// TestAdapter_GenerateNoContent verifies a content-free response is
// reported as NO_CONTENT.
func TestAdapter_GenerateNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"msg_1","type":"message","content":[]}`)
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

// TestExtractText_Total verifies extraction yields "" for every
// degenerate shape and concatenates multiple text blocks otherwise.
func TestExtractText_Total(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty object", `{}`},
		{"not json", `nope`},
		{"content missing", `{"id":"msg_1"}`},
		{"content empty", `{"content":[]}`},
		{"no text blocks", `{"content":[{"type":"tool_use"}]}`},
		{"text wrong type", `{"content":[{"type":"text","text":7}]}`},
		{"empty body", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractText([]byte(tt.raw)); got != "" {
				t.Errorf("expected empty string, got %q", got)
			}
		})
	}

	multi := `{"content":[{"type":"text","text":"Hello "},{"type":"tool_use"},{"type":"text","text":"there"}]}`
	if got := ExtractText([]byte(multi)); got != "Hello there" {
		t.Errorf("expected concatenated blocks, got %q", got)
	}
}

// TestAdapter_StreamEvents verifies the typed event stream end to end:
// event lines are ignored, deltas arrive in order, usage is summed from
// its two halves, and message_stop terminates the stream.
func TestAdapter_StreamEvents(t *testing.T) {
	frames := []string{
		"event: message_start",
		`data: {"type":"message_start","message":{"id":"msg_1","type":"message","model":"claude-3-5-sonnet-20241022","usage":{"input_tokens":12,"output_tokens":1}}}`,
		"",
		"event: content_block_start",
		`data: {"type":"content_block_start","index":0}`,
		"",
		"event: content_block_delta",
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}`,
		"",
		"event: ping",
		`data: {"type":"ping"}`,
		"",
		"event: content_block_delta",
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"lo"}}`,
		"",
		"event: content_block_stop",
		`data: {"type":"content_block_stop","index":0}`,
		"",
		"event: message_delta",
		`data: {"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":8}}`,
		"",
		"event: message_stop",
		`data: {"type":"message_stop"}`,
		"",
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
		for _, line := range frames {
			fmt.Fprintf(w, "%s\n", line)
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
	if text != "Hello" {
		t.Errorf("expected %q, got %q", "Hello", text)
	}

	usage, reported := stream.Usage()
	if !reported {
		t.Fatal("expected provider-reported usage")
	}
	if usage.PromptTokens != 12 || usage.CompletionTokens != 8 || usage.TotalTokens != 20 {
		t.Errorf("expected usage 12+8=20, got %+v", usage)
	}

	if _, err := stream.Recv(); !errors.Is(err, providers.ErrStreamConsumed) {
		t.Errorf("expected ErrStreamConsumed on reconsumption, got %v", err)
	}
}

// TestDecodeStreamFrame verifies per-event decoding, including the
// frames that must be skipped.
func TestDecodeStreamFrame(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		ok      bool
		delta   string
		final   bool
	}{
		{"text delta", `{"type":"content_block_delta","delta":{"type":"text_delta","text":"hi"}}`, true, "hi", false},
		{"message stop", `{"type":"message_stop"}`, true, "", true},
		{"ping", `{"type":"ping"}`, true, "", false},
		{"unknown event", `{"type":"someday_maybe"}`, false, "", false},
		{"malformed", `{"type":`, false, "", false},
		{"delta wrong shape", `{"type":"content_block_delta","delta":"oops"}`, false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk, ok := decodeStreamFrame([]byte(tt.payload))
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if chunk.Delta != tt.delta {
				t.Errorf("expected delta %q, got %q", tt.delta, chunk.Delta)
			}
			if chunk.Final != tt.final {
				t.Errorf("expected final=%v, got %v", tt.final, chunk.Final)
			}
		})
	}
}

// TestAdapter_Authenticate verifies the one-token probe outcome for
// accepted and rejected keys.
func TestAdapter_Authenticate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"type":"error","error":{"type":"authentication_error"}}`)
			return
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			if req["max_tokens"] != float64(1) {
				t.Errorf("expected one-token probe, got max_tokens=%v", req["max_tokens"])
			}
		}
		fmt.Fprint(w, `{"id":"msg_1","type":"message","content":[{"type":"text","text":"Hi"}]}`)
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

// TestNew_ConfigValidation verifies construction and ValidateConfig.
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

	if v := a.ValidateConfig(); !v.Valid {
		t.Errorf("expected valid config, got %v", v.Errors)
	}

	bad := testConfig("http://example.test")
	bad.Temperature = 1.5 // Anthropic's range tops out at 1
	if v := validate(bad); v.Valid {
		t.Error("expected temperature above 1 to be rejected")
	}

	if len(Catalog()) == 0 {
		t.Error("expected a non-empty built-in catalog")
	}
}
