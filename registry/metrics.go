package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of a Registry.
type Metrics struct {
	ListsActive      prometheus.Gauge
	ListsCreated     *prometheus.CounterVec
	UpdatesApplied   prometheus.Counter
	UpdatesRejected  *prometheus.CounterVec
	Evaluations      *prometheus.CounterVec
	MaterializeBytes prometheus.Histogram
}

// NewMetrics creates and registers the registry metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ListsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "statuslist_lists_active",
			Help: "Current number of status lists held by the registry",
		}),
		ListsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "statuslist_lists_created_total",
			Help: "Total number of status lists created, by purpose",
		}, []string{"purpose"}),
		UpdatesApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "statuslist_entry_updates_total",
			Help: "Total number of status entries written",
		}),
		UpdatesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "statuslist_update_batches_rejected_total",
			Help: "Total number of update batches rejected, by error code",
		}, []string{"code"}),
		Evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "statuslist_evaluations_total",
			Help: "Total number of status evaluations, by purpose and validity",
		}, []string{"purpose", "valid"}),
		MaterializeBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "statuslist_encoded_list_bytes",
			Help:    "Length of the encodedList written on each materialization",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		}),
	}
}
