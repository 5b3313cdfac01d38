// Package telemetry groups the observability stack: structured
// logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Components
//
//   - logging: log/slog configuration with credential redaction
//   - metrics: Prometheus registry, the gateway collectors, and the
//     exposition endpoint
//   - tracing: OpenTelemetry tracing with an OTLP/gRPC exporter
//
// Each component is its own subpackage and stands alone; nothing here
// requires the others. The CLI wires all three from the telemetry
// section of the configuration file.
//
// # Usage
//
//	// Install the process logger
//	_, err := logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Redact: true,
//	})
//
//	// Expose metrics
//	reg := metrics.NewRegistry()
//	srv := metrics.NewServer(metrics.ServerConfig{
//	    Address: "127.0.0.1:9090",
//	    Path:    "/metrics",
//	}, reg)
//	if err := srv.Start(); err != nil {
//	    return err
//	}
//	defer srv.Shutdown(context.Background())
//
//	// Export spans
//	tracer, err := tracing.New(tracing.Config{
//	    Enabled:     true,
//	    ServiceName: "promptboost",
//	    Endpoint:    "localhost:4317",
//	})
//	defer tracer.Shutdown(context.Background())
//
// # Secret Hygiene
//
// Logging redaction is on unless the configuration turns it off, so
// API keys and bearer tokens never land in log output. Metrics and
// spans carry provider and model labels but no request or response
// content.
package telemetry
