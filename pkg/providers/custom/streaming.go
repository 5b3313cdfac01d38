package custom

import (
	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

// decodeStreamFrame reuses the generic extraction chain on each frame,
// so a custom endpoint that streams any of the recognized shapes works
// without per-endpoint configuration. Frames with no recognizable text
// are skipped; the [DONE] sentinel or connection close ends the stream.
func decodeStreamFrame(payload []byte) (providers.StreamChunk, bool) {
	return providers.StreamChunk{Delta: ExtractText(payload)}, true
}
