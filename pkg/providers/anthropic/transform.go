package anthropic

import (
	"encoding/json"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

// Anthropic messages API wire types.

// Request is an Anthropic messages request. The flat prompt travels as
// a single user message. MaxTokens is mandatory on this API, so it is
// always serialized.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// Message is a single message in Anthropic format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response is an Anthropic messages response. Content arrives as typed
// blocks; completions live in blocks of type "text".
type Response struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Model      string         `json:"model"`
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      *Usage         `json:"usage"`
}

// ContentBlock is one typed content element.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Usage is token accounting in Anthropic format. The total is not on
// the wire; it is the sum of both sides.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// streamEvent is one frame of Anthropic's SSE stream. The delta payload
// differs by event type, so it stays raw until the type is known.
type streamEvent struct {
	Type    string          `json:"type"`
	Message *Response       `json:"message,omitempty"`
	Delta   json.RawMessage `json:"delta,omitempty"`
	Usage   *Usage          `json:"usage,omitempty"`
}

// textDelta is the delta payload of a content_block_delta event.
type textDelta struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// buildRequest serializes a prompt and resolved options into the
// Anthropic request shape.
func buildRequest(prompt string, opts providers.Options) *Request {
	return &Request{
		Model: opts.Model,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stream:      opts.Stream,
	}
}

// ExtractText pulls the completion text out of a raw response body by
// concatenating the text blocks. It is total: any missing or mismatched
// shape yields the empty string.
func ExtractText(raw []byte) string {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ""
	}
	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text
}

// extractResponse decodes the full response: text, reported model, and
// usage when present.
func extractResponse(raw []byte) (text, model string, usage providers.Usage) {
	text = ExtractText(raw)

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return text, "", providers.Usage{}
	}
	model = resp.Model
	if resp.Usage != nil {
		usage = toUsage(resp.Usage)
	}
	return text, model, usage
}

func toUsage(u *Usage) providers.Usage {
	return providers.Usage{
		PromptTokens:     u.InputTokens,
		CompletionTokens: u.OutputTokens,
		TotalTokens:      u.InputTokens + u.OutputTokens,
	}
}
