// PromptBoost is a unified command-line gateway for AI text-generation
// providers.
//
// One binary speaks the wire dialects of OpenAI, Anthropic, Google
// Gemini, Hugging Face, Cohere, and OpenRouter, plus any
// OpenAI-compatible custom endpoint, providing:
//   - One-shot and streaming text generation
//   - Automatic retries with exponential backoff and jitter
//   - Client-side rate limiting with per-provider presets
//   - Usage accounting with memory and SQLite ledgers
//   - Structured logging, Prometheus metrics, and OTLP tracing
//
// Usage:
//
//	# One-shot generation with the configured default provider
//	promptboost generate "Explain vector clocks in one paragraph"
//
//	# Stream deltas as they arrive
//	promptboost generate --provider anthropic --stream "Write a haiku"
//
//	# Probe every configured provider's credentials
//	promptboost check
//
//	# List the models a provider serves
//	promptboost models --provider openai
//
//	# Validate a config file, re-checking on every edit
//	promptboost validate --watch
//
//	# Summarize the usage ledger
//	promptboost usage --since 24h
//
// For complete documentation, see: https://github.com/AstroAir/PromptBoost-sub001
package main

func main() {
	Execute()
}
