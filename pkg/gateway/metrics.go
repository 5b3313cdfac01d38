package gateway

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

// Metrics holds the gateway's Prometheus collectors. A nil *Metrics is
// valid and records nothing, so instrumentation stays optional.
type Metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	retries       *prometheus.CounterVec
	admissionWait *prometheus.HistogramVec
	tokens        *prometheus.CounterVec
	streamDeltas  *prometheus.HistogramVec
}

// NewMetrics creates the gateway collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "promptboost",
				Subsystem: "gateway",
				Name:      "requests_total",
				Help:      "Total gateway calls by provider, operation, and outcome",
			},
			[]string{"provider", "operation", "status"},
		),

		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "promptboost",
				Subsystem: "gateway",
				Name:      "request_duration_seconds",
				Help:      "Wall time of gateway calls, retries and waits included",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
			},
			[]string{"provider", "operation"},
		),

		retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "promptboost",
				Subsystem: "gateway",
				Name:      "retries_total",
				Help:      "Retry attempts by provider and failure category",
			},
			[]string{"provider", "category"},
		),

		admissionWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "promptboost",
				Subsystem: "gateway",
				Name:      "admission_wait_seconds",
				Help:      "Time spent suspended on the rate limiter before sending",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~5m
			},
			[]string{"provider"},
		),

		tokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "promptboost",
				Subsystem: "gateway",
				Name:      "tokens_total",
				Help:      "Tokens consumed by provider, kind, and accounting source",
			},
			[]string{"provider", "kind", "source"},
		),

		streamDeltas: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "promptboost",
				Subsystem: "gateway",
				Name:      "stream_deltas",
				Help:      "Text deltas received per streaming call",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8), // 1 to ~16k
			},
			[]string{"provider"},
		),
	}
}

// RecordRequest records one finished call.
func (m *Metrics) RecordRequest(provider, operation, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(provider, operation, status).Inc()
	m.duration.WithLabelValues(provider, operation).Observe(elapsed.Seconds())
}

// RecordRetry records one retry attempt.
func (m *Metrics) RecordRetry(provider string, cat providers.Category) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(provider, string(cat)).Inc()
}

// RecordAdmissionWait records time spent suspended on the limiter.
func (m *Metrics) RecordAdmissionWait(provider string, wait time.Duration) {
	if m == nil {
		return
	}
	m.admissionWait.WithLabelValues(provider).Observe(wait.Seconds())
}

// RecordStreamDeltas records how many text deltas a stream produced.
func (m *Metrics) RecordStreamDeltas(provider string, deltas int) {
	if m == nil {
		return
	}
	m.streamDeltas.WithLabelValues(provider).Observe(float64(deltas))
}

// RecordTokens records a call's token accounting.
func (m *Metrics) RecordTokens(provider string, u providers.Usage) {
	if m == nil {
		return
	}
	source := "reported"
	if u.Estimated {
		source = "estimated"
	}
	if u.PromptTokens > 0 {
		m.tokens.WithLabelValues(provider, "prompt", source).Add(float64(u.PromptTokens))
	}
	if u.CompletionTokens > 0 {
		m.tokens.WithLabelValues(provider, "completion", source).Add(float64(u.CompletionTokens))
	}
}
