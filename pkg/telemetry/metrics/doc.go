// Package metrics provides the Prometheus exposition surface for
// PromptBoost.
//
// # Overview
//
// Component packages own their collectors and register them against a
// shared registry at construction. This package owns the registry and
// the scrape endpoint: NewRegistry builds a registry with the Go
// runtime and process collectors installed, Handler wraps it in a
// promhttp handler, and Server binds it to a listen address.
//
// # Usage
//
//	reg := metrics.NewRegistry()
//	gw := gateway.New(gateway.Config{
//		Metrics: gateway.NewMetrics(reg),
//	})
//
//	srv := metrics.NewServer(metrics.ServerConfig{
//		Address: "localhost:9090",
//		Path:    "/metrics",
//	}, reg)
//	if err := srv.Start(); err != nil {
//		return err
//	}
//	defer srv.Shutdown(context.Background())
//
// # Exposed Metrics
//
// With the gateway registered, the endpoint exposes:
//
//	promptboost_gateway_requests_total{provider,operation,status}
//	promptboost_gateway_request_duration_seconds{provider,operation}
//	promptboost_gateway_retries_total{provider,category}
//	promptboost_gateway_admission_wait_seconds{provider}
//	promptboost_gateway_tokens_total{provider,kind,source}
//	promptboost_gateway_stream_deltas{provider}
//
// Failed requests carry their error category in the status label, so
// error rates per category come from requests_total without a separate
// series.
//
// # Prometheus Endpoint
//
// Metrics are served in the standard exposition format, with
// OpenMetrics encoding when the scraper negotiates it:
//
//	# HELP promptboost_gateway_requests_total Total gateway calls by provider, operation, and outcome
//	# TYPE promptboost_gateway_requests_total counter
//	promptboost_gateway_requests_total{operation="generate",provider="openai",status="ok"} 1234
package metrics
