package custom

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
		Model:    "local-model",
		Timeout:  5 * time.Second,
	}
}

// TestAdapter_GenerateRequestShape verifies the generic flat body.
func TestAdapter_GenerateRequestShape(t *testing.T) {
	var captured map[string]any
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		fmt.Fprint(w, `{"text":"A short summary.","usage":{"prompt_tokens":12,"completion_tokens":4,"total_tokens":16}}`)
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
	if captured["prompt"] != "Summarize this paragraph" {
		t.Errorf("expected flat prompt field, got %v", captured["prompt"])
	}
	if captured["max_tokens"] != float64(50) {
		t.Errorf("expected max_tokens 50, got %v", captured["max_tokens"])
	}
	if captured["temperature"] != 0.7 {
		t.Errorf("expected temperature 0.7, got %v", captured["temperature"])
	}

	if res.Text != "A short summary." {
		t.Errorf("expected extracted text, got %q", res.Text)
	}
	if res.Usage.TotalTokens != 16 {
		t.Errorf("expected recognized usage block, got %+v", res.Usage)
	}
}

// TestAdapter_NoAuthHeaderWithoutKey verifies unauthenticated local
// endpoints get no Authorization header at all.
func TestAdapter_NoAuthHeaderWithoutKey(t *testing.T) {
	var sawAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawAuth = r.Header["Authorization"]
		fmt.Fprint(w, `{"text":"ok"}`)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.APIKey = ""
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}
	defer a.Close()

	if _, err := a.Generate(context.Background(), "hi", providers.Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sawAuth {
		t.Error("expected no Authorization header without a key")
	}
}

// TestExtractText_Chain verifies every recognized shape and the order
// between them.
func TestExtractText_Chain(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"flat text", `{"text":"one"}`, "one"},
		{"completion", `{"completion":"two"}`, "two"},
		{"output", `{"output":"three"}`, "three"},
		{"response", `{"response":"four"}`, "four"},
		{"generated_text", `{"generated_text":"five"}`, "five"},
		{"choices text", `{"choices":[{"text":"six"}]}`, "six"},
		{"choices message", `{"choices":[{"message":{"content":"seven"}}]}`, "seven"},
		{"choices delta", `{"choices":[{"delta":{"content":"eight"}}]}`, "eight"},
		{"flat beats choices", `{"text":"flat","choices":[{"text":"nested"}]}`, "flat"},
		{"empty object", `{}`, ""},
		{"not json", `nope`, ""},
		{"array root", `[1,2]`, ""},
		{"empty choices", `{"choices":[]}`, ""},
		{"choice wrong type", `{"choices":["str"]}`, ""},
		{"text wrong type", `{"text":7}`, ""},
		{"empty body", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractText([]byte(tt.raw)); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// TestAdapter_StreamGenericFrames verifies the extraction chain applies
// per frame and the sentinel terminates.
func TestAdapter_StreamGenericFrames(t *testing.T) {
	frames := []string{
		`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
		`data: {"text":"lo"}`,
		`data: {"unrecognized":"shape"}`,
		`data: [DONE]`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
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
	if text != "Hello" {
		t.Errorf("expected %q, got %q", "Hello", text)
	}
}

// TestNew_ConfigValidation verifies the endpoint requirement.
func TestNew_ConfigValidation(t *testing.T) {
	_, err := New(providers.Config{})
	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for missing endpoint, got %v", err)
	}

	cfg := testConfig("http://localhost:8080/v1/complete")
	cfg.APIKey = "" // key is optional here
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}
	defer a.Close()

	if v := a.ValidateConfig(); !v.Valid {
		t.Errorf("expected valid config without key, got %v", v.Errors)
	}

	models := a.Models(context.Background())
	if len(models) != 1 || models[0].ID != "local-model" {
		t.Errorf("expected the configured model, got %+v", models)
	}
}
