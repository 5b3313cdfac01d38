// Package cohere adapts Cohere's chat API to the providers.Provider
// contract. Streams use newline-delimited JSON rather than server-sent
// events, and usage arrives on the stream-end line.
package cohere
