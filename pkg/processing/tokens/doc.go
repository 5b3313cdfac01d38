// Package tokens provides character-based token estimation for prompts
// and completions.
//
// Some providers report exact token usage with every response; others
// (notably Hugging Face text generation) report nothing. The gateway
// needs a usage figure either way, for admission control and for the
// usage ledger, so this package supplies the fallback: a model-aware
// characters-per-token ratio. Estimates are always marked as such so
// readers of the ledger can tell measured usage from approximation.
//
// # Accuracy
//
// Character-ratio estimation is modest but sufficient for budgeting:
//
//   - GPT family: ~4 characters per token
//   - Claude 3 family: ~3.5 characters per token
//   - Everything else: the default ratio of 4
//
// Ratios are configurable per model name or name prefix, so deployments
// can tune them without code changes:
//
//	est := tokens.NewEstimator(cfg.Processing.Tokens.Models)
//	usage := est.Usage(prompt, completion, "gpt-4o-mini")
package tokens
