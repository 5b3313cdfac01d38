package huggingface

import (
	"encoding/json"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

// decodeStreamFrame turns one SSE payload into a normalized chunk.
//
// Frames carry one token each. Special tokens (end-of-sequence markers)
// have display text that must not reach the caller, so their delta is
// dropped. The frame whose generated_text is non-null is the last one.
// The inference API reports no token accounting, so usage is left to
// the caller's estimator.
func decodeStreamFrame(payload []byte) (providers.StreamChunk, bool) {
	var frame streamFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		return providers.StreamChunk{}, false
	}

	var chunk providers.StreamChunk
	if !frame.Token.Special {
		chunk.Delta = frame.Token.Text
	}
	if frame.GeneratedText != nil {
		chunk.Final = true
	}
	return chunk, true
}
