// Package anthropic adapts Anthropic's messages API to the
// providers.Provider contract.
//
// Requests target POST /v1/messages with x-api-key and
// anthropic-version headers. The max_tokens field is always
// serialized because the API rejects requests without it.
//
// Streaming uses typed SSE events rather than a uniform frame shape:
// content_block_delta events carry text, message_start and
// message_delta carry the two halves of the token usage, and
// message_stop terminates the stream.
package anthropic
