// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ledger metrics
	LedgerCallsTotal  *prometheus.CounterVec
	LedgerCallLatency *prometheus.HistogramVec
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter

	// Traversal metrics
	TraversalsTotal   *prometheus.CounterVec
	TraversalDuration prometheus.Histogram
	AddressesExpanded prometheus.Counter
	EdgesDiscovered   prometheus.Counter

	// Analysis metrics
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Server metrics
	ProgressClients prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "whale_graph"
	}

	return &Metrics{
		// Ledger metrics
		LedgerCallsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "calls_total",
			Help:      "Total number of transfer-query API calls by direction and status",
		}, []string{"direction", "status"}),
		LedgerCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "call_latency_seconds",
			Help:      "Transfer-query API call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"direction"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "cache_hits_total",
			Help:      "Total number of transfer cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "cache_misses_total",
			Help:      "Total number of transfer cache misses",
		}),

		// Traversal metrics
		TraversalsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "traversal",
			Name:      "runs_total",
			Help:      "Total number of relation traversals by status",
		}, []string{"status"}),
		TraversalDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "traversal",
			Name:      "duration_seconds",
			Help:      "Relation traversal duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		AddressesExpanded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "traversal",
			Name:      "addresses_expanded_total",
			Help:      "Total number of addresses expanded during traversals",
		}),
		EdgesDiscovered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "traversal",
			Name:      "edges_discovered_total",
			Help:      "Total number of transfer edges accepted into graphs",
		}),

		// Analysis metrics
		AnalysesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total number of analysis runs by kind and status",
		}, []string{"kind", "status"}),
		AnalysisDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Analysis run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"kind"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Server metrics
		ProgressClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "progress_clients",
			Help:      "Number of connected progress-stream websocket clients",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordLedgerCall records one transfer-query API call.
func RecordLedgerCall(direction string, err error, seconds float64) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.LedgerCallsTotal.WithLabelValues(direction, status).Inc()
	DefaultMetrics.LedgerCallLatency.WithLabelValues(direction).Observe(seconds)
}

// RecordCacheHit increments the transfer cache hit counter.
func RecordCacheHit() {
	DefaultMetrics.CacheHits.Inc()
}

// RecordCacheMiss increments the transfer cache miss counter.
func RecordCacheMiss() {
	DefaultMetrics.CacheMisses.Inc()
}

// RecordTraversal records a completed relation traversal.
func RecordTraversal(status string, seconds float64) {
	DefaultMetrics.TraversalsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.TraversalDuration.Observe(seconds)
}

// RecordAddressExpanded increments the expanded-address counter.
func RecordAddressExpanded() {
	DefaultMetrics.AddressesExpanded.Inc()
}

// RecordEdgeDiscovered increments the accepted-edge counter.
func RecordEdgeDiscovered() {
	DefaultMetrics.EdgesDiscovered.Inc()
}

// RecordAnalysis records an analysis run.
func RecordAnalysis(kind, status string, seconds float64) {
	DefaultMetrics.AnalysesTotal.WithLabelValues(kind, status).Inc()
	DefaultMetrics.AnalysisDuration.WithLabelValues(kind).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// SetProgressClients updates the connected progress client gauge.
func SetProgressClients(n int) {
	DefaultMetrics.ProgressClients.Set(float64(n))
}
