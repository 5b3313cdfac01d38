package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry creates the process-wide metric registry with the standard
// Go runtime and process collectors installed. Component collectors,
// such as the gateway's, register against this registry at construction.
//
// Example:
//
//	reg := metrics.NewRegistry()
//	gw := gateway.New(gateway.Config{Metrics: gateway.NewMetrics(reg)})
//	http.Handle("/metrics", metrics.Handler(reg))
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns an HTTP handler exposing the registry in the standard
// Prometheus exposition format.
//
// The handler enables OpenMetrics encoding when the scraper negotiates
// it, and keeps serving partial output when an individual collector
// fails.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(
		reg,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
		},
	)
}

// HandlerWithOptions returns an HTTP handler with custom options, for
// callers that need scrape timeouts or in-flight request limits.
func HandlerWithOptions(reg *prometheus.Registry, opts promhttp.HandlerOpts) http.Handler {
	return promhttp.HandlerFor(reg, opts)
}
