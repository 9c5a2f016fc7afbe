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
	// Fetch metrics
	CatalogFetches *prometheus.CounterVec
	DetailFetches  *prometheus.CounterVec

	// Batch runner metrics
	BatchInFlight     prometheus.Gauge
	BatchItemDuration prometheus.Histogram

	// Refresh cycle metrics
	RefreshRuns     *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	TokensDisplayed prometheus.Gauge

	// Proxy cache metrics
	CacheRequests *prometheus.CounterVec

	// Websocket metrics
	WSClients prometheus.Gauge

	// Competition store metrics
	CompetitionOps *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "alphascan"
	}

	return &Metrics{
		CatalogFetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "catalog_total",
			Help:      "Total catalog fetch attempts by status",
		}, []string{"status"}),
		DetailFetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "detail_total",
			Help:      "Total per-token detail fetches by outcome",
		}, []string{"outcome"}),

		BatchInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "in_flight",
			Help:      "Detail fetches currently in flight",
		}),
		BatchItemDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "item_duration_seconds",
			Help:      "Per-item duration inside the batch runner",
			Buckets:   prometheus.DefBuckets,
		}),

		RefreshRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "runs_total",
			Help:      "Total refresh cycles by kind and status",
		}, []string{"kind", "status"}),
		RefreshDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "duration_seconds",
			Help:      "Refresh cycle duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
		}),
		TokensDisplayed: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "tokens_displayed",
			Help:      "Number of tokens in the current display set",
		}),

		CacheRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "cache_requests_total",
			Help:      "Proxy cache lookups by endpoint and result",
		}, []string{"endpoint", "result"}),

		WSClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Connected websocket clients",
		}),

		CompetitionOps: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "competition",
			Name:      "ops_total",
			Help:      "Competition store operations by op and status",
		}, []string{"op", "status"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCatalogFetch records one catalog fetch attempt.
func RecordCatalogFetch(ok bool) {
	DefaultMetrics.CatalogFetches.WithLabelValues(statusLabel(ok)).Inc()
}

// RecordDetailFetch records one detail fetch by outcome
// (ok, ticker_failed, klines_failed).
func RecordDetailFetch(outcome string) {
	DefaultMetrics.DetailFetches.WithLabelValues(outcome).Inc()
}

// RecordBatchItem tracks one batch item's duration.
func RecordBatchItem(seconds float64) {
	DefaultMetrics.BatchItemDuration.Observe(seconds)
}

// BatchStarted increments the in-flight gauge.
func BatchStarted() { DefaultMetrics.BatchInFlight.Inc() }

// BatchFinished decrements the in-flight gauge.
func BatchFinished() { DefaultMetrics.BatchInFlight.Dec() }

// RecordRefreshRun records one refresh cycle.
func RecordRefreshRun(kind string, ok bool, seconds float64) {
	DefaultMetrics.RefreshRuns.WithLabelValues(kind, statusLabel(ok)).Inc()
	DefaultMetrics.RefreshDuration.Observe(seconds)
}

// SetTokensDisplayed updates the display set size gauge.
func SetTokensDisplayed(n int) {
	DefaultMetrics.TokensDisplayed.Set(float64(n))
}

// RecordCacheRequest records a proxy cache lookup result (hit/miss).
func RecordCacheRequest(endpoint, result string) {
	DefaultMetrics.CacheRequests.WithLabelValues(endpoint, result).Inc()
}

// WSClientConnected increments the connected clients gauge.
func WSClientConnected() { DefaultMetrics.WSClients.Inc() }

// WSClientDisconnected decrements the connected clients gauge.
func WSClientDisconnected() { DefaultMetrics.WSClients.Dec() }

// RecordCompetitionOp records a competition store operation.
func RecordCompetitionOp(op string, err error) {
	DefaultMetrics.CompetitionOps.WithLabelValues(op, statusLabel(err == nil)).Inc()
}

func statusLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
