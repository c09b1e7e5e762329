package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	BookingsCreated      prometheus.Counter
	StatusTransitions    *prometheus.CounterVec
	QueueAllocations     prometheus.Counter
	QueueAllocationTime  prometheus.Histogram
	NotificationsSent    prometheus.Counter
	NotificationFailures prometheus.Counter
}

// NewMetrics creates and registers all application metrics against the
// default registry.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewMetricsWith registers the metrics against a caller-supplied registerer,
// which keeps parallel test binaries from colliding on the default registry.
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BookingsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Total number of bookings created",
		}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Total number of booking status transitions",
		}, []string{"status"}),
		QueueAllocations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_allocations_total",
			Help:      "Total number of queue positions allocated",
		}),
		QueueAllocationTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "queue_allocation_duration_seconds",
			Help:      "Time spent allocating queue positions",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		NotificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Total number of notifications written",
		}),
		NotificationFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Total number of notification writes that failed",
		}),
	}
}
