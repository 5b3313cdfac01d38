package cohere

import (
	"encoding/json"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

// decodeStreamFrame turns one stream line into a normalized chunk.
//
// Cohere frames are typed by event_type: text-generation lines carry
// one delta, and the stream-end line terminates the stream with the
// full response attached, which is where the usage lives.
func decodeStreamFrame(payload []byte) (providers.StreamChunk, bool) {
	var event streamEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return providers.StreamChunk{}, false
	}

	switch event.EventType {
	case "text-generation":
		return providers.StreamChunk{Delta: event.Text}, true

	case "stream-end":
		chunk := providers.StreamChunk{Final: true}
		if event.Response != nil {
			if u := metaUsage(event.Response.Meta); u.TotalTokens > 0 {
				chunk.Usage = &u
			}
		}
		return chunk, true

	case "stream-start":
		return providers.StreamChunk{}, true

	default:
		return providers.StreamChunk{}, false
	}
}
