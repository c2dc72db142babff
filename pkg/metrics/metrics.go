package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Row store metrics
	StoreOperations *prometheus.CounterVec
	StoreLatency    *prometheus.HistogramVec

	// Reconciliation metrics
	ReconcileLatency   prometheus.Histogram
	ReconciledPatients *prometheus.CounterVec
	DegradedFetches    *prometheus.CounterVec

	// Local cache metrics
	CacheOperations *prometheus.CounterVec
	CacheFallbacks  *prometheus.CounterVec
}

// New creates the collectors without registering them.
func New(namespace string) *Metrics {
	return &Metrics{
		StoreOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of row store operations",
		}, []string{"operation", "table", "status"}),
		StoreLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Duration of row store operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation", "table"}),
		ReconcileLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Time spent assembling a doctor's patient list",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		ReconciledPatients: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciled_patients_total",
			Help:      "Patient views produced, by ownership",
		}, []string{"kind"}),
		DegradedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_subrecord_fetches_total",
			Help:      "Optional sub-record fetches that failed and were replaced by defaults",
		}, []string{"table"}),
		CacheOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of local cache operations",
		}, []string{"operation", "status"}),
		CacheFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_fallbacks_total",
			Help:      "Remote profile or sharing calls answered by the local cache",
		}, []string{"repository"}),
	}
}

// NewRegistered creates the collectors and registers them with reg.
func NewRegistered(namespace string, reg prometheus.Registerer) *Metrics {
	m := New(namespace)
	reg.MustRegister(
		m.StoreOperations,
		m.StoreLatency,
		m.ReconcileLatency,
		m.ReconciledPatients,
		m.DegradedFetches,
		m.CacheOperations,
		m.CacheFallbacks,
	)
	return m
}
