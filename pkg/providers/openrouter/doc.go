// Package openrouter adapts OpenRouter to the providers.Provider
// contract by reusing the OpenAI wire dialect under its own name.
package openrouter
