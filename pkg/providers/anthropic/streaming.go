package anthropic

import (
	"encoding/json"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

// decodeStreamFrame turns one SSE payload into a normalized chunk.
//
// Anthropic streams typed events rather than uniform delta frames:
//
//	message_start        opening bookkeeping, carries input token usage
//	content_block_delta  one text fragment
//	message_delta        closing bookkeeping, carries output token usage
//	message_stop         terminal marker
//	ping                 keep-alive
//
// Unknown event types and malformed payloads are rejected so the stream
// skips them instead of failing.
func decodeStreamFrame(payload []byte) (providers.StreamChunk, bool) {
	var event streamEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return providers.StreamChunk{}, false
	}

	switch event.Type {
	case "message_start":
		var chunk providers.StreamChunk
		if event.Message != nil && event.Message.Usage != nil {
			u := toUsage(event.Message.Usage)
			// Only the input side is known this early.
			u.CompletionTokens = 0
			u.TotalTokens = u.PromptTokens
			chunk.Usage = &u
		}
		return chunk, true

	case "content_block_delta":
		var delta textDelta
		if err := json.Unmarshal(event.Delta, &delta); err != nil {
			return providers.StreamChunk{}, false
		}
		return providers.StreamChunk{Delta: delta.Text}, true

	case "message_delta":
		var chunk providers.StreamChunk
		if event.Usage != nil {
			chunk.Usage = &providers.Usage{
				CompletionTokens: event.Usage.OutputTokens,
				TotalTokens:      event.Usage.OutputTokens,
			}
		}
		return chunk, true

	case "message_stop":
		return providers.StreamChunk{Final: true}, true

	case "content_block_start", "content_block_stop", "ping":
		return providers.StreamChunk{}, true

	default:
		return providers.StreamChunk{}, false
	}
}
