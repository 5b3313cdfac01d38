package gemini

import (
	"encoding/json"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

// decodeStreamFrame turns one SSE payload into a normalized chunk.
//
// Gemini stream frames are full response objects with partial candidate
// text. There is no sentinel; the frame whose candidate carries a
// finishReason is the last one, and its usageMetadata holds the final
// cumulative counts. Intermediate frames repeat cumulative usage, so
// only the final frame's usage is taken to avoid double counting.
func decodeStreamFrame(payload []byte) (providers.StreamChunk, bool) {
	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return providers.StreamChunk{}, false
	}

	chunk := providers.StreamChunk{Delta: candidateText(resp)}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
		chunk.Final = true
		if resp.UsageMetadata != nil {
			u := toUsage(resp.UsageMetadata)
			chunk.Usage = &u
		}
	}
	return chunk, true
}
