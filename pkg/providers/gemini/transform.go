package gemini

import (
	"encoding/json"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

// Gemini generateContent wire types.

// Request is a Gemini generateContent request. The prompt travels as a
// single user content with one text part.
type Request struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// Content is one turn of a Gemini conversation.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is one element of a content turn.
type Part struct {
	Text string `json:"text,omitempty"`
}

// GenerationConfig carries the sampling parameters.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// Response is a Gemini generateContent response. Stream frames reuse
// this shape with partial candidate text.
type Response struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string         `json:"modelVersion,omitempty"`
}

// Candidate is one generated answer.
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
	Index        int     `json:"index"`
}

// UsageMetadata is token accounting in Gemini format. On streams the
// counts are cumulative, not per-frame.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// modelListing is the GET /models response.
type modelListing struct {
	Models []struct {
		Name            string `json:"name"`
		DisplayName     string `json:"displayName"`
		InputTokenLimit int    `json:"inputTokenLimit"`
	} `json:"models"`
}

// buildRequest serializes a prompt and resolved options into the Gemini
// request shape. The model is not part of the body; it lives in the URL.
func buildRequest(prompt string, opts providers.Options) *Request {
	return &Request{
		Contents: []Content{
			{Role: "user", Parts: []Part{{Text: prompt}}},
		},
		GenerationConfig: &GenerationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxTokens,
		},
	}
}

// ExtractText pulls the completion text out of a raw response body by
// concatenating the first candidate's text parts. It is total: any
// missing or mismatched shape yields the empty string.
func ExtractText(raw []byte) string {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ""
	}
	return candidateText(resp)
}

func candidateText(resp Response) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		text += part.Text
	}
	return text
}

// extractResponse decodes the full response: text, reported model, and
// usage when present.
func extractResponse(raw []byte) (text, model string, usage providers.Usage) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", "", providers.Usage{}
	}
	text = candidateText(resp)
	model = resp.ModelVersion
	if resp.UsageMetadata != nil {
		usage = toUsage(resp.UsageMetadata)
	}
	return text, model, usage
}

func toUsage(m *UsageMetadata) providers.Usage {
	total := m.TotalTokenCount
	if total == 0 {
		total = m.PromptTokenCount + m.CandidatesTokenCount
	}
	return providers.Usage{
		PromptTokens:     m.PromptTokenCount,
		CompletionTokens: m.CandidatesTokenCount,
		TotalTokens:      total,
	}
}
