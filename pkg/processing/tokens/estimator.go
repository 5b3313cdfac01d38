package tokens

import (
	"strings"
	"sync"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

// DefaultCharsPerToken is the ratio used for models with no configured
// entry.
const DefaultCharsPerToken = 4.0

// Estimator derives token counts from text length using per-model
// characters-per-token ratios. It is safe for concurrent use.
type Estimator struct {
	mu     sync.RWMutex
	ratios map[string]float64
}

// DefaultRatios returns the built-in ratio table. Keys are matched
// against model names by longest prefix; the "default" key is the
// fallback for models matching nothing.
func DefaultRatios() map[string]float64 {
	return map[string]float64{
		"gpt-4":      4.0,
		"gpt-3.5":    4.0,
		"claude-3":   3.5,
		"gemini-1.5": 4.0,
		"gemini-2":   4.0,
		"default":    DefaultCharsPerToken,
	}
}

// NewEstimator creates an estimator with the given ratio table. A nil
// or empty table selects DefaultRatios.
func NewEstimator(ratios map[string]float64) *Estimator {
	if len(ratios) == 0 {
		ratios = DefaultRatios()
	}
	copied := make(map[string]float64, len(ratios))
	for k, v := range ratios {
		copied[k] = v
	}
	return &Estimator{ratios: copied}
}

// Count estimates the token count of text for the given model.
// Non-empty text counts as at least one token.
func (e *Estimator) Count(text, model string) int {
	return e.CountLen(len(text), model)
}

// CountLen estimates the token count for a text of the given byte
// length. Streaming callers that only tracked the length use it.
func (e *Estimator) CountLen(length int, model string) int {
	if length <= 0 {
		return 0
	}

	tokens := float64(length) / e.charsPerToken(model)
	if tokens < 1.0 {
		tokens = 1.0
	}
	return int(tokens + 0.5)
}

// Usage builds the estimated accounting for a prompt/completion pair.
// The result is always marked Estimated.
func (e *Estimator) Usage(prompt, completion, model string) providers.Usage {
	u := providers.Usage{
		PromptTokens:     e.Count(prompt, model),
		CompletionTokens: e.Count(completion, model),
		Estimated:        true,
	}
	u.TotalTokens = u.PromptTokens + u.CompletionTokens
	return u
}

// SetRatio installs or replaces one model's ratio. Ratios at or below
// zero are ignored.
func (e *Estimator) SetRatio(model string, charsPerToken float64) {
	if model == "" || charsPerToken <= 0 {
		return
	}
	e.mu.Lock()
	e.ratios[model] = charsPerToken
	e.mu.Unlock()
}

// charsPerToken resolves a model's ratio: exact match, then the longest
// matching name prefix, then the "default" entry.
func (e *Estimator) charsPerToken(model string) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if ratio, ok := e.ratios[model]; ok {
		return ratio
	}

	bestLen := -1
	bestRatio := 0.0
	for pattern, ratio := range e.ratios {
		if pattern != "default" && strings.HasPrefix(model, pattern) && len(pattern) > bestLen {
			bestLen = len(pattern)
			bestRatio = ratio
		}
	}
	if bestLen >= 0 {
		return bestRatio
	}

	if ratio, ok := e.ratios["default"]; ok {
		return ratio
	}
	return DefaultCharsPerToken
}
