package openai

import (
	"encoding/json"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

// OpenAI chat completions wire types.

// Request is an OpenAI chat completion request. The prompt travels as a
// single user message. Stream is always serialized so the service never
// has to guess the delivery mode.
type Request struct {
	Model         string         `json:"model"`
	Messages      []Message      `json:"messages"`
	MaxTokens     int            `json:"max_tokens,omitempty"`
	Temperature   float64        `json:"temperature,omitempty"`
	Stream        bool           `json:"stream"`
	StreamOptions *StreamOptions `json:"stream_options,omitempty"`
}

// Message is a single chat message in OpenAI format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamOptions tunes streaming delivery.
type StreamOptions struct {
	// IncludeUsage asks for a final usage frame before [DONE].
	IncludeUsage bool `json:"include_usage"`
}

// Response is an OpenAI chat completion response.
type Response struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage"`
}

// Choice is one completion alternative.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage is token accounting in OpenAI format.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StreamResponse is one frame of OpenAI's SSE stream.
type StreamResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []StreamChoice `json:"choices"`
	Usage   *Usage         `json:"usage,omitempty"`
}

// StreamChoice is a choice inside a stream frame.
type StreamChoice struct {
	Index        int         `json:"index"`
	Delta        StreamDelta `json:"delta"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

// StreamDelta is the incremental content of a stream frame.
type StreamDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// modelListing is the /models response shape.
type modelListing struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// buildRequest serializes a prompt and resolved options into the OpenAI
// request shape.
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

// ExtractText pulls the completion text out of a raw response body. It
// is total: any missing or mismatched shape yields the empty string,
// never a panic or an error.
func ExtractText(raw []byte) string {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ""
	}
	if len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Message.Content
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

// toUsage converts wire-format token accounting to the normalized form.
// Streaming frames and full responses carry the same shape.
func toUsage(u *Usage) providers.Usage {
	return providers.Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}
