// Package metrics provides Prometheus metrics export for the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter exports service metrics in Prometheus format.
type Exporter struct {
	registry *prometheus.Registry

	// Query metrics
	queryLatency *prometheus.HistogramVec
	queryTotal   *prometheus.CounterVec

	// Upstream API metrics
	embeddingCalls *prometheus.CounterVec
	llmTokensUsed  *prometheus.CounterVec
	llmLatency     prometheus.Histogram

	// Store metrics
	chainsCreated  prometheus.Counter
	vectorSearches *prometheus.CounterVec
}

// Config configures the exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default exporter configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewExporter creates a new Prometheus metrics exporter.
func NewExporter(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.queryLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rackline",
			Subsystem: "api",
			Name:      "query_latency_seconds",
			Help:      "Recommendation query latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"endpoint"},
	)

	e.queryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rackline",
			Subsystem: "api",
			Name:      "query_requests_total",
			Help:      "Total number of query requests",
		},
		[]string{"endpoint", "status"},
	)

	e.embeddingCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rackline",
			Subsystem: "ai",
			Name:      "embedding_calls_total",
			Help:      "Total number of embedding API calls",
		},
		[]string{"status"},
	)

	e.llmTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rackline",
			Subsystem: "ai",
			Name:      "llm_tokens_total",
			Help:      "Total number of LLM tokens consumed",
		},
		[]string{"kind"},
	)

	e.llmLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rackline",
			Subsystem: "ai",
			Name:      "llm_latency_seconds",
			Help:      "LLM request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	e.chainsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rackline",
			Subsystem: "store",
			Name:      "plugin_chains_created_total",
			Help:      "Total number of plugin chains created",
		},
	)

	e.vectorSearches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rackline",
			Subsystem: "store",
			Name:      "vector_searches_total",
			Help:      "Total number of vector similarity searches",
		},
		[]string{"table"},
	)

	registry.MustRegister(
		e.queryLatency,
		e.queryTotal,
		e.embeddingCalls,
		e.llmTokensUsed,
		e.llmLatency,
		e.chainsCreated,
		e.vectorSearches,
	)

	return e
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ObserveQuery records one query request.
func (e *Exporter) ObserveQuery(endpoint, status string, duration time.Duration) {
	e.queryLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
	e.queryTotal.WithLabelValues(endpoint, status).Inc()
}

// CountEmbeddingCall records one embedding API call.
func (e *Exporter) CountEmbeddingCall(status string) {
	e.embeddingCalls.WithLabelValues(status).Inc()
}

// ObserveLLMCall records token usage and latency of one LLM call.
func (e *Exporter) ObserveLLMCall(promptTokens, completionTokens int, duration time.Duration) {
	e.llmTokensUsed.WithLabelValues("prompt").Add(float64(promptTokens))
	e.llmTokensUsed.WithLabelValues("completion").Add(float64(completionTokens))
	e.llmLatency.Observe(duration.Seconds())
}

// CountChainCreated records one created plugin chain.
func (e *Exporter) CountChainCreated() {
	e.chainsCreated.Inc()
}

// CountVectorSearch records one vector search against the given table.
func (e *Exporter) CountVectorSearch(table string) {
	e.vectorSearches.WithLabelValues(table).Inc()
}
