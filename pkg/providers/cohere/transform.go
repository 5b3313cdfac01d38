package cohere

import (
	"encoding/json"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

// Cohere v1 chat wire types.

// Request is a Cohere chat request. The prompt travels as the single
// message field.
type Request struct {
	Model       string  `json:"model"`
	Message     string  `json:"message"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Stream      bool    `json:"stream,omitempty"`
}

// Response is a Cohere chat response. The completion is a flat text
// field; token accounting hangs off meta.
type Response struct {
	Text         string `json:"text"`
	GenerationID string `json:"generation_id"`
	FinishReason string `json:"finish_reason"`
	Meta         *Meta  `json:"meta"`
}

// Meta carries response bookkeeping.
type Meta struct {
	Tokens      *TokenCount `json:"tokens"`
	BilledUnits *TokenCount `json:"billed_units"`
}

// TokenCount is one pair of token counts.
type TokenCount struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// streamEvent is one line of the newline-delimited stream.
type streamEvent struct {
	EventType    string    `json:"event_type"`
	Text         string    `json:"text,omitempty"`
	FinishReason string    `json:"finish_reason,omitempty"`
	Response     *Response `json:"response,omitempty"`
}

// modelListing is the GET /v1/models response.
type modelListing struct {
	Models []struct {
		Name          string `json:"name"`
		ContextLength int    `json:"context_length"`
	} `json:"models"`
}

// buildRequest serializes a prompt and resolved options into the
// Cohere chat shape.
func buildRequest(prompt string, opts providers.Options) *Request {
	return &Request{
		Model:       opts.Model,
		Message:     prompt,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stream:      opts.Stream,
	}
}

// ExtractText pulls the completion text out of a raw response body. It
// is total: any missing or mismatched shape yields the empty string.
func ExtractText(raw []byte) string {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ""
	}
	return resp.Text
}

// extractResponse decodes the full response: text and usage. Cohere
// does not echo the model back.
func extractResponse(raw []byte) (text string, usage providers.Usage) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", providers.Usage{}
	}
	return resp.Text, metaUsage(resp.Meta)
}

// metaUsage prefers the tokens pair and falls back to billed units.
func metaUsage(m *Meta) providers.Usage {
	if m == nil {
		return providers.Usage{}
	}
	tc := m.Tokens
	if tc == nil {
		tc = m.BilledUnits
	}
	if tc == nil {
		return providers.Usage{}
	}
	return providers.Usage{
		PromptTokens:     tc.InputTokens,
		CompletionTokens: tc.OutputTokens,
		TotalTokens:      tc.InputTokens + tc.OutputTokens,
	}
}
