// Package metrics holds the Prometheus instruments for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	SweepsTotal       prometheus.Counter
	SweepFailures     prometheus.Counter
	SweepDuration     prometheus.Histogram
	NotificationsSent *prometheus.CounterVec
	DeliveryFailures  *prometheus.CounterVec
	PersonsTracked    prometheus.Gauge
	UpdatesHandled    prometheus.Counter
	IntakeValidation  prometheus.Counter
	RecordsWritten    *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics. Call once per process;
// instruments register on the default registerer.
func New() *Metrics {
	return &Metrics{
		SweepsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aircrew_sweeps_total",
			Help: "Total number of completed reminder sweeps.",
		}),
		SweepFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aircrew_sweep_failures_total",
			Help: "Total number of sweeps aborted by an unexpected error.",
		}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "aircrew_sweep_duration_seconds",
			Help:    "Wall-clock duration of one reminder sweep.",
			Buckets: prometheus.DefBuckets,
		}),
		NotificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aircrew_notifications_sent_total",
			Help: "Reminder notifications delivered, by category.",
		}, []string{"category"}),
		DeliveryFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aircrew_delivery_failures_total",
			Help: "Reminder notifications that failed to deliver, by category.",
		}, []string{"category"}),
		PersonsTracked: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "aircrew_persons_tracked",
			Help: "Number of persons currently on the roster.",
		}),
		UpdatesHandled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aircrew_updates_handled_total",
			Help: "Telegram updates processed by intake.",
		}),
		IntakeValidation: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aircrew_intake_validation_errors_total",
			Help: "User inputs rejected by intake validation.",
		}),
		RecordsWritten: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aircrew_records_written_total",
			Help: "Roster record writes, by kind.",
		}, []string{"kind"}),
	}
}
