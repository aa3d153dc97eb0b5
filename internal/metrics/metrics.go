package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paperboy_deliveries_total",
			Help: "Total number of delivery attempts by terminal status.",
		},
		[]string{"status"}, // delivered, requeued, invalid_email, exhausted
	)

	DeliveryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "paperboy_delivery_duration_seconds",
			Help:    "Time spent in the email transport per delivery attempt.",
			Buckets: prometheus.DefBuckets,
		},
	)

	RetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "paperboy_retries_total",
			Help: "Total number of tasks requeued after a transient transport failure.",
		},
	)

	DLQTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "paperboy_dlq_total",
			Help: "Total number of tasks quarantined after exhausting retries.",
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "paperboy_queue_depth",
			Help: "Number of rows currently in the issue delivery queue.",
		},
	)
)

// MustRegister registers all paperboy metrics on the given registry.
func MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(DeliveriesTotal, DeliveryDurationSeconds, RetriesTotal, DLQTotal, QueueDepth)
}

// RecordDelivery records one terminal delivery attempt outcome.
func RecordDelivery(status string, duration time.Duration) {
	DeliveriesTotal.WithLabelValues(status).Inc()
	if duration > 0 {
		DeliveryDurationSeconds.Observe(duration.Seconds())
	}
}

// RecordRetry records one task requeued for a later attempt.
func RecordRetry() {
	RetriesTotal.Inc()
}

// RecordDLQ records one task quarantined at the retry ceiling.
func RecordDLQ() {
	DLQTotal.Inc()
}

// UpdateQueueDepth sets the current queue depth gauge.
func UpdateQueueDepth(n float64) {
	QueueDepth.Set(n)
}
