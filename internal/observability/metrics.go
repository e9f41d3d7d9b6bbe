package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for dataset loading.
type Metrics struct {
	// Dataset cache metrics.
	DatasetLoads        *prometheus.CounterVec   // labels: resolution={month,day,hour,trips}, outcome={success,failure}
	DatasetLoadDuration *prometheus.HistogramVec // labels: resolution
	CacheLookups        *prometheus.CounterVec   // labels: resolution, result={hit,miss}
	RowsSkipped         *prometheus.CounterVec   // labels: resolution

	// Trips metrics.
	TripsAccepted prometheus.Counter
	TripsDropped  prometheus.Counter

	// Asset store metrics.
	AssetFetchDuration *prometheus.HistogramVec // labels: store={fs,http}

	NotificationsFailed prometheus.Counter
	Ready               prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewMetricsForTesting()
	prometheus.MustRegister(
		m.DatasetLoads,
		m.DatasetLoadDuration,
		m.CacheLookups,
		m.RowsSkipped,
		m.TripsAccepted,
		m.TripsDropped,
		m.AssetFetchDuration,
		m.NotificationsFailed,
		m.Ready,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soundscape",
			Name:      "dataset_loads_total",
			Help:      "Completed dataset loads by resolution and outcome.",
		}, []string{"resolution", "outcome"}),
		DatasetLoadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "soundscape",
			Name:      "dataset_load_duration_seconds",
			Help:      "Duration of a dataset fetch and parse.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"resolution"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soundscape",
			Name:      "dataset_cache_lookups_total",
			Help:      "Dataset cache lookups by resolution and result.",
		}, []string{"resolution", "result"}),
		RowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soundscape",
			Name:      "dataset_rows_skipped_total",
			Help:      "CSV rows dropped for lacking a parseable time.",
		}, []string{"resolution"}),
		TripsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "soundscape",
			Name:      "trips_accepted_total",
			Help:      "Shipping trips accepted by validation.",
		}),
		TripsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "soundscape",
			Name:      "trips_dropped_total",
			Help:      "Shipping trip records rejected by validation.",
		}),
		AssetFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "soundscape",
			Name:      "asset_fetch_duration_seconds",
			Help:      "Raw asset fetch duration by store.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}, []string{"store"}),
		NotificationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "soundscape",
			Name:      "notifications_failed_total",
			Help:      "Dataset-loaded notifications that could not be published.",
		}),
		Ready: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "soundscape",
			Name:      "ready",
			Help:      "1 once startup warm-up has completed.",
		}),
	}
}
