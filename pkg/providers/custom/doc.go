// Package custom adapts arbitrary user-supplied REST endpoints to the
// providers.Provider contract. Requests use the generic flat shape
// {prompt, max_tokens, temperature}; responses are searched across the
// completion field names common to self-hosted services, so most
// OpenAI-compatible and text-generation servers work unconfigured.
package custom
