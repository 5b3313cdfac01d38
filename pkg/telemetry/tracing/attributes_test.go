package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func attrValue(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestSetRequestAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	_, span := provider.Tracer("test").Start(context.Background(), "generate")

	SetRequestAttributes(span, "req-123", "openai", "gpt-4o-mini", "generate")
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}

	want := map[string]string{
		AttrRequestID: "req-123",
		AttrProvider:  "openai",
		AttrModel:     "gpt-4o-mini",
		AttrOperation: "generate",
	}
	for key, wantVal := range want {
		val, ok := attrValue(spans[0], key)
		if !ok {
			t.Errorf("attribute %s missing", key)
			continue
		}
		if val.AsString() != wantVal {
			t.Errorf("attribute %s = %q, want %q", key, val.AsString(), wantVal)
		}
	}
}

func TestSetTokenAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	_, span := provider.Tracer("test").Start(context.Background(), "generate")

	SetTokenAttributes(span, 120, 64, 184, true)
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}

	if val, ok := attrValue(spans[0], AttrTokensTotal); !ok || val.AsInt64() != 184 {
		t.Errorf("total tokens attribute = %v", val)
	}
	if val, ok := attrValue(spans[0], AttrTokensEstimated); !ok || !val.AsBool() {
		t.Errorf("estimated attribute = %v", val)
	}
}

func TestSetError_RecordsAndSetsStatus(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, span := provider.Tracer("test").Start(context.Background(), "failing")
	SetError(span, errors.New("rate limited"))
	span.End()

	_, span = provider.Tracer("test").Start(context.Background(), "succeeding")
	SetError(span, nil)
	span.End()

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("recorded %d spans, want 2", len(spans))
	}

	if spans[0].Status().Code != codes.Error {
		t.Errorf("failing span status = %v, want Error", spans[0].Status().Code)
	}
	if len(spans[0].Events()) == 0 {
		t.Error("failing span has no recorded error event")
	}
	if spans[1].Status().Code != codes.Ok {
		t.Errorf("succeeding span status = %v, want Ok", spans[1].Status().Code)
	}
}
