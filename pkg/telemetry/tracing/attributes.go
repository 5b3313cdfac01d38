package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Custom attribute keys use the "promptboost.*" namespace.
const (
	AttrProvider  = "promptboost.provider"
	AttrModel     = "promptboost.model"
	AttrOperation = "promptboost.operation"
	AttrRequestID = "promptboost.request_id"
	AttrAttempt   = "promptboost.attempt"

	AttrTokensPrompt     = "promptboost.tokens.prompt"
	AttrTokensCompletion = "promptboost.tokens.completion"
	AttrTokensTotal      = "promptboost.tokens.total"
	AttrTokensEstimated  = "promptboost.tokens.estimated"

	AttrStreamDeltas = "promptboost.stream.deltas"

	AttrErrorCategory = "promptboost.error.category"
	AttrErrorCode     = "promptboost.error.code"
)

// SetRequestAttributes sets the identifying attributes of a gateway
// call on a span.
func SetRequestAttributes(span trace.Span, requestID, provider, model, operation string) {
	span.SetAttributes(
		attribute.String(AttrRequestID, requestID),
		attribute.String(AttrProvider, provider),
		attribute.String(AttrModel, model),
		attribute.String(AttrOperation, operation),
	)
}

// SetAttempt sets the attempt ordinal on a span.
func SetAttempt(span trace.Span, attempt int) {
	span.SetAttributes(attribute.Int(AttrAttempt, attempt))
}

// SetStreamDeltas sets the delta count on a finished stream's span.
func SetStreamDeltas(span trace.Span, deltas int) {
	span.SetAttributes(attribute.Int(AttrStreamDeltas, deltas))
}

// SetTokenAttributes sets token accounting attributes on a span.
func SetTokenAttributes(span trace.Span, prompt, completion, total int, estimated bool) {
	span.SetAttributes(
		attribute.Int(AttrTokensPrompt, prompt),
		attribute.Int(AttrTokensCompletion, completion),
		attribute.Int(AttrTokensTotal, total),
		attribute.Bool(AttrTokensEstimated, estimated),
	)
}

// SetError records err on the span and marks its status failed. A nil
// err marks the span OK instead.
func SetError(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
