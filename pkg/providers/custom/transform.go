package custom

import (
	"encoding/json"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

// Request is the generic completion shape sent to user-supplied
// endpoints: a flat prompt with the two common sampling knobs.
type Request struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	Stream      bool    `json:"stream,omitempty"`
}

// buildRequest serializes a prompt and resolved options into the
// generic shape.
func buildRequest(prompt string, opts providers.Options) *Request {
	return &Request{
		Prompt:      prompt,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stream:      opts.Stream,
	}
}

// flatTextFields are the top-level field names tried in order when
// hunting for completion text in an unknown response shape.
var flatTextFields = []string{"text", "completion", "output", "response", "generated_text"}

// ExtractText hunts for completion text in an unknown response shape.
// It tries common flat fields first, then the OpenAI-style choices
// array including its streaming delta variant. It is total: nothing
// recognizable yields the empty string.
func ExtractText(raw []byte) string {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}

	for _, field := range flatTextFields {
		if s, ok := body[field].(string); ok && s != "" {
			return s
		}
	}

	choices, ok := body["choices"].([]any)
	if !ok || len(choices) == 0 {
		return ""
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return ""
	}
	if s, ok := choice["text"].(string); ok && s != "" {
		return s
	}
	if message, ok := choice["message"].(map[string]any); ok {
		if s, ok := message["content"].(string); ok && s != "" {
			return s
		}
	}
	if delta, ok := choice["delta"].(map[string]any); ok {
		if s, ok := delta["content"].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// extractUsage recognizes only the OpenAI-style usage block, which is
// what compatible endpoints emit. Anything else reports zero usage.
func extractUsage(raw []byte) providers.Usage {
	var body struct {
		Usage *struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Usage == nil {
		return providers.Usage{}
	}
	u := providers.Usage{
		PromptTokens:     body.Usage.PromptTokens,
		CompletionTokens: body.Usage.CompletionTokens,
		TotalTokens:      body.Usage.TotalTokens,
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	return u
}
