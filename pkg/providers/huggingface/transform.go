package huggingface

import (
	"encoding/json"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

// HuggingFace inference API wire types.

// Request is a text-generation request in the inputs/parameters shape.
type Request struct {
	Inputs     string       `json:"inputs"`
	Parameters *Parameters  `json:"parameters,omitempty"`
	Options    *CallOptions `json:"options,omitempty"`
	Stream     bool         `json:"stream,omitempty"`
}

// Parameters carries the sampling controls. ReturnFullText is a pointer
// so an explicit false survives serialization; without it the API
// echoes the prompt back at the front of the completion.
type Parameters struct {
	MaxNewTokens   int     `json:"max_new_tokens,omitempty"`
	Temperature    float64 `json:"temperature,omitempty"`
	ReturnFullText *bool   `json:"return_full_text,omitempty"`
}

// CallOptions tunes inference API scheduling.
type CallOptions struct {
	WaitForModel bool `json:"wait_for_model,omitempty"`
}

// Generation is one completion. Depending on the model the API returns
// either a bare object or a one-element array of these.
type Generation struct {
	GeneratedText string `json:"generated_text"`
}

// streamFrame is one frame of the text-generation-inference SSE stream.
// Each frame carries one token; the final frame also carries the full
// accumulated text.
type streamFrame struct {
	Token struct {
		ID      int    `json:"id"`
		Text    string `json:"text"`
		Special bool   `json:"special"`
	} `json:"token"`
	GeneratedText *string `json:"generated_text"`
}

// buildRequest serializes a prompt and resolved options. The model is
// not part of the body; it lives in the URL.
func buildRequest(prompt string, opts providers.Options) *Request {
	noEcho := false
	return &Request{
		Inputs: prompt,
		Parameters: &Parameters{
			MaxNewTokens:   opts.MaxTokens,
			Temperature:    opts.Temperature,
			ReturnFullText: &noEcho,
		},
		Options: &CallOptions{WaitForModel: true},
		Stream:  opts.Stream,
	}
}

// ExtractText pulls the completion out of a raw response body. The API
// answers with either a one-element array or a bare object, so both
// shapes are tried. It is total: any other shape yields the empty
// string.
func ExtractText(raw []byte) string {
	var list []Generation
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return ""
		}
		return list[0].GeneratedText
	}

	var single Generation
	if err := json.Unmarshal(raw, &single); err == nil {
		return single.GeneratedText
	}
	return ""
}
