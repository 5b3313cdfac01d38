// Package openai adapts OpenAI's chat completions API to the provider
// contract.
//
// The prompt is serialized as a single user message:
//
//	{
//	  "model": "gpt-4o-mini",
//	  "messages": [{"role": "user", "content": "..."}],
//	  "max_tokens": 1000,
//	  "temperature": 0.7,
//	  "stream": false
//	}
//
// Completion text is extracted from choices[0].message.content, token
// usage from the usage object. Authentication uses a Bearer token, with
// an optional OpenAI-Organization header.
//
// OpenAI-compatible services can reuse the adapter through NewNamed;
// the openrouter package does exactly that.
package openai
