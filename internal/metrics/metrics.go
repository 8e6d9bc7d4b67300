// Package metrics exposes the gateway's Prometheus collectors. Everything
// registers on a private registry so the /metrics endpoint serves only
// what the gateway itself reports.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the gateway collectors.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	upstreamFailures *prometheus.CounterVec
	streamEvents     prometheus.Counter
	streamBadLines   prometheus.Counter
	embeddingBatch   prometheus.Histogram
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "llamabridge",
			Name:      "requests_total",
			Help:      "Requests handled, by operation and HTTP status.",
		}, []string{"operation", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "llamabridge",
			Name:      "request_duration_seconds",
			Help:      "End-to-end request latency, by operation.",
			// Generation runs long; buckets reach into the minutes.
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"operation"}),
		upstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "llamabridge",
			Name:      "upstream_failures_total",
			Help:      "Backend calls that failed, by failure kind.",
		}, []string{"reason"}),
		streamEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "llamabridge",
			Name:      "stream_events_total",
			Help:      "SSE events written to clients.",
		}),
		streamBadLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "llamabridge",
			Name:      "stream_undecodable_lines_total",
			Help:      "Backend stream lines dropped because they failed to decode.",
		}),
		embeddingBatch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "llamabridge",
			Name:      "embedding_batch_size",
			Help:      "Input count per embeddings request.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.upstreamFailures,
		m.streamEvents,
		m.streamBadLines,
		m.embeddingBatch,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest counts one finished request.
func (m *Metrics) RecordRequest(operation string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(operation, statusLabel(status)).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordUpstreamFailure counts a failed backend call.
func (m *Metrics) RecordUpstreamFailure(reason string) {
	m.upstreamFailures.WithLabelValues(reason).Inc()
}

// RecordStreamEvent counts one SSE event written to a client.
func (m *Metrics) RecordStreamEvent() {
	m.streamEvents.Inc()
}

// RecordStreamBadLine counts one dropped, undecodable stream line.
func (m *Metrics) RecordStreamBadLine() {
	m.streamBadLines.Inc()
}

// RecordEmbeddingBatch observes the size of one embeddings request.
func (m *Metrics) RecordEmbeddingBatch(size int) {
	m.embeddingBatch.Observe(float64(size))
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
