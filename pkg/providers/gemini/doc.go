// Package gemini adapts Google's generative language API to the
// providers.Provider contract.
//
// The API is URL-addressed: the model name is part of the path
// (models/{model}:generateContent) and the key is a query parameter,
// not a header. Because of that, request URLs are treated as secrets
// throughout; see the scrubbing in the providers error classifier.
//
// Stream frames are whole response objects with partial candidate
// text. Usage counts on stream frames are cumulative, so only the
// final frame's usageMetadata is folded into the stream accounting.
package gemini
