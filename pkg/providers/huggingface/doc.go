// Package huggingface adapts the HuggingFace serverless inference API
// to the providers.Provider contract.
//
// Requests use the inputs/parameters shape with the model as a URL
// path segment. Responses arrive as either a bare generation object or
// a one-element array of them, so extraction tries both. The API does
// not report token usage; callers estimate instead.
package huggingface
