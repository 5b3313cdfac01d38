package openai

import (
	"encoding/json"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

// decodeStreamFrame turns one SSE payload into a normalized chunk.
// Frames that are not valid JSON are rejected so the stream skips them.
//
// OpenAI does not mark a terminal frame inside the payload; the [DONE]
// sentinel ends the stream. A finish_reason therefore does not set
// Final, which lets the trailing usage frame (requested through
// stream_options) still be observed.
func decodeStreamFrame(payload []byte) (providers.StreamChunk, bool) {
	var frame StreamResponse
	if err := json.Unmarshal(payload, &frame); err != nil {
		return providers.StreamChunk{}, false
	}

	var chunk providers.StreamChunk
	if len(frame.Choices) > 0 {
		chunk.Delta = frame.Choices[0].Delta.Content
	}
	if frame.Usage != nil {
		u := toUsage(frame.Usage)
		chunk.Usage = &u
	}
	return chunk, true
}
