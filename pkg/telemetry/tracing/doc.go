// Package tracing provides OpenTelemetry tracing for PromptBoost.
//
// # Overview
//
// The package wraps the OpenTelemetry SDK behind a small Tracer type.
// When tracing is disabled, and for a nil *Tracer, every operation is
// a noop, so the gateway instruments its calls unconditionally and
// configuration decides whether spans record.
//
// # Sampling Strategies
//
// Three sampling strategies are supported:
//   - always: sample every trace (development and debugging)
//   - never: sample no traces
//   - ratio: sample a fraction of traces by trace ID hash (production)
//
// Every strategy is parent-based: a child span follows its parent's
// decision, so a trace exports whole or not at all.
//
// # Usage
//
//	tracer, err := tracing.New(tracing.Config{
//		Enabled:     true,
//		ServiceName: "promptboost",
//		Sampler:     "ratio",
//		SampleRatio: 0.1,
//		Endpoint:    "localhost:4317",
//		Insecure:    true,
//	})
//	if err != nil {
//		return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "generate")
//	defer span.End()
//	tracing.SetRequestAttributes(span, requestID, "openai", "gpt-4o-mini", "generate")
//
// # Span Hierarchy
//
// Gateway calls produce one span per call with a child span per
// attempt:
//
//	generate (2.1s)
//	├── attempt (0.4s)   rate_limited
//	└── attempt (1.2s)   ok
//
// # Export
//
// Spans export over OTLP gRPC. The collector connection is lazy: New
// succeeds with the collector down, and spans drop until it returns.
// Shutdown flushes the batch exporter before returning.
package tracing
