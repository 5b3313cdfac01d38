package providertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// marshal encodes fixtures; fixture shapes never fail to encode.
func marshal(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("providertest: fixture marshal: %v", err))
	}
	return string(data)
}

// ChatCompletion builds an OpenAI-shaped chat completion response, the
// format the openai, openrouter, and custom adapters parse.
func ChatCompletion(model, text string, promptTokens, completionTokens int) Response {
	return Response{
		Body: map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  model,
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": text},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     promptTokens,
				"completion_tokens": completionTokens,
				"total_tokens":      promptTokens + completionTokens,
			},
		},
	}
}

// ChatChunk builds one OpenAI-shaped streaming frame carrying a text
// delta.
func ChatChunk(model, delta string) string {
	return "data: " + marshal(map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion.chunk",
		"model":  model,
		"choices": []map[string]any{
			{"index": 0, "delta": map[string]any{"content": delta}},
		},
	})
}

// ChatUsageChunk builds the trailing usage frame some OpenAI-compatible
// streams emit after the last delta.
func ChatUsageChunk(model string, promptTokens, completionTokens int) string {
	return "data: " + marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion.chunk",
		"model":   model,
		"choices": []map[string]any{},
		"usage": map[string]any{
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
			"total_tokens":      promptTokens + completionTokens,
		},
	})
}

// ChatDone is the OpenAI stream terminator frame.
func ChatDone() string {
	return "data: [DONE]"
}

// AnthropicMessage builds a messages-API response.
func AnthropicMessage(model, text string, inputTokens, outputTokens int) Response {
	return Response{
		Body: map[string]any{
			"id":   "msg_test",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": text},
			},
			"model":       model,
			"stop_reason": "end_turn",
			"usage": map[string]any{
				"input_tokens":  inputTokens,
				"output_tokens": outputTokens,
			},
		},
	}
}

// AnthropicEvent builds one typed SSE frame: the event line plus its
// data line, as the messages streaming API frames them.
func AnthropicEvent(event string, data any) string {
	return fmt.Sprintf("event: %s\ndata: %s", event, marshal(data))
}

// AnthropicTextDelta builds a content_block_delta frame carrying text.
func AnthropicTextDelta(text string) string {
	return AnthropicEvent("content_block_delta", map[string]any{
		"type":  "content_block_delta",
		"index": 0,
		"delta": map[string]any{"type": "text_delta", "text": text},
	})
}

// GeminiResponse builds a generateContent response.
func GeminiResponse(text string, promptTokens, completionTokens int) Response {
	return Response{
		Body: map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"role":  "model",
						"parts": []map[string]any{{"text": text}},
					},
					"finishReason": "STOP",
					"index":        0,
				},
			},
			"usageMetadata": map[string]any{
				"promptTokenCount":     promptTokens,
				"candidatesTokenCount": completionTokens,
				"totalTokenCount":      promptTokens + completionTokens,
			},
		},
	}
}

// CohereResponse builds a /v1/chat response with meta.tokens usage.
func CohereResponse(text string, inputTokens, outputTokens int) Response {
	return Response{
		Body: map[string]any{
			"text":          text,
			"generation_id": "gen_test",
			"finish_reason": "COMPLETE",
			"meta": map[string]any{
				"tokens": map[string]any{
					"input_tokens":  inputTokens,
					"output_tokens": outputTokens,
				},
			},
		},
	}
}

// HuggingFaceResponse builds an inference API generated_text response.
func HuggingFaceResponse(text string) Response {
	return Response{
		Body: []map[string]any{{"generated_text": text}},
	}
}

// ErrorResponse builds an OpenAI-shaped error envelope with the given
// status.
func ErrorResponse(status int, message string) Response {
	return Response{
		StatusCode: status,
		Body: map[string]any{
			"error": map[string]any{
				"message": message,
				"type":    "invalid_request_error",
			},
		},
	}
}

// AuthError builds a 401 invalid-key response.
func AuthError() Response {
	return ErrorResponse(http.StatusUnauthorized, "Invalid API key")
}

// RateLimitError builds a 429 response with a Retry-After header.
func RateLimitError(retryAfter time.Duration) Response {
	resp := ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded")
	resp.Headers = map[string]string{
		"Retry-After": fmt.Sprintf("%d", int(retryAfter.Seconds())),
	}
	return resp
}

// ServerError builds a 500 response.
func ServerError() Response {
	return ErrorResponse(http.StatusInternalServerError, "Internal server error")
}

// ModelsList builds an OpenAI-shaped /models listing.
func ModelsList(ids ...string) Response {
	models := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		models = append(models, map[string]any{"id": id, "object": "model"})
	}
	return Response{
		Body: map[string]any{"object": "list", "data": models},
	}
}
