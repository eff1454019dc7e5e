package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	TicketsProcessed    prometheus.Counter
	PartitionsScanned   prometheus.Counter
	RecordsDropped      *prometheus.CounterVec
	FetchErrors         *prometheus.CounterVec
	ReconciliationTime  prometheus.Histogram
	ActiveSubscriptions prometheus.Gauge
}

// NewMetrics creates new prometheus metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		TicketsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_processed_total",
			Help:      "The total number of canonical tickets aggregated",
		}),
		PartitionsScanned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partitions_scanned_total",
			Help:      "The total number of date partitions enumerated",
		}),
		RecordsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "The total number of raw records dropped during normalization",
		}, []string{"source", "reason"}),
		FetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "The total number of recoverable fetch failures",
		}, []string{"source"}),
		ReconciliationTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconciliation_time_seconds",
			Help:      "Time taken for one full reconciliation pass",
			Buckets:   prometheus.DefBuckets,
		}),
		ActiveSubscriptions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_subscriptions",
			Help:      "The number of live metric subscriptions",
		}),
	}
}
