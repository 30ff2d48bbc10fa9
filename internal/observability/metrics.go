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
	// Backtest metrics
	BacktestRunsTotal prometheus.Counter
	BacktestDuration  prometheus.Histogram
	TradesClosed      prometheus.Counter
	PositionsOpened   prometheus.Counter
	TicksProcessed    prometheus.Counter

	// Market data metrics
	VendorRequestLatency *prometheus.HistogramVec
	VendorRequestErrors  *prometheus.CounterVec
	BarsFetched          prometheus.Counter
	CacheHits            prometheus.Counter
	CacheMisses          prometheus.Counter

	// Validation metrics
	ValidationRunsTotal  *prometheus.CounterVec
	ValidationIterations prometheus.Histogram
	AnomaliesDetected    *prometheus.CounterVec
	CorrectionsApplied   *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "dip_strategy_lab"
	}

	return &Metrics{
		// Backtest metrics
		BacktestRunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtest runs",
		}),
		BacktestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "duration_seconds",
			Help:      "Backtest execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),
		TradesClosed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_closed_total",
			Help:      "Total number of trades closed across runs",
		}),
		PositionsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "positions_opened_total",
			Help:      "Total number of positions opened across runs",
		}),
		TicksProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "ticks_processed_total",
			Help:      "Total number of simulation ticks processed",
		}),

		// Market data metrics
		VendorRequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "vendor_request_latency_seconds",
			Help:      "Market data vendor request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		VendorRequestErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "vendor_request_errors_total",
			Help:      "Total number of vendor request errors by endpoint",
		}, []string{"endpoint"}),
		BarsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "bars_fetched_total",
			Help:      "Total number of price bars fetched from the vendor",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "cache_hits_total",
			Help:      "Total number of market data cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "cache_misses_total",
			Help:      "Total number of market data cache misses",
		}),

		// Validation metrics
		ValidationRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "runs_total",
			Help:      "Total number of validation runs by status",
		}, []string{"status"}),
		ValidationIterations: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "iterations",
			Help:      "Number of iterations used per validation run",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10},
		}),
		AnomaliesDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "anomalies_detected_total",
			Help:      "Total number of anomalies detected by type",
		}, []string{"type"}),
		CorrectionsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "corrections_applied_total",
			Help:      "Total number of corrections applied by type",
		}, []string{"type"}),

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
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordBacktestRun records a completed backtest run.
func RecordBacktestRun(durationSeconds float64, tradesClosed int) {
	DefaultMetrics.BacktestRunsTotal.Inc()
	DefaultMetrics.BacktestDuration.Observe(durationSeconds)
	DefaultMetrics.TradesClosed.Add(float64(tradesClosed))
}

// RecordVendorRequest records a market data vendor request.
func RecordVendorRequest(endpoint string, seconds float64, err error) {
	DefaultMetrics.VendorRequestLatency.WithLabelValues(endpoint).Observe(seconds)
	if err != nil {
		DefaultMetrics.VendorRequestErrors.WithLabelValues(endpoint).Inc()
	}
}

// RecordBarsFetched adds to the bars fetched counter.
func RecordBarsFetched(n int) {
	DefaultMetrics.BarsFetched.Add(float64(n))
}

// RecordCacheLookup records a market data cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		DefaultMetrics.CacheHits.Inc()
	} else {
		DefaultMetrics.CacheMisses.Inc()
	}
}

// RecordValidationRun records a completed validation run.
func RecordValidationRun(status string, iterations int) {
	DefaultMetrics.ValidationRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.ValidationIterations.Observe(float64(iterations))
}

// RecordAnomaly increments the anomaly counter for a type.
func RecordAnomaly(anomalyType string) {
	DefaultMetrics.AnomaliesDetected.WithLabelValues(anomalyType).Inc()
}

// RecordCorrection increments the correction counter for a type.
func RecordCorrection(correctionType string) {
	DefaultMetrics.CorrectionsApplied.WithLabelValues(correctionType).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
