package eventbus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

// Prometheus metrics for monitoring bus throughput and listener health.

var (
	// eventsPublishedTotal counts published events by topic.
	eventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "eventbus_published_total",
		Help: "The total number of events published, by topic",
	}, []string{"topic"})

	// eventsDeliveredTotal counts individual deliveries by topic and outcome.
	eventsDeliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "eventbus_delivered_total",
		Help: "The total number of listener deliveries, by topic and outcome",
	}, []string{"topic", "outcome"})

	// listenerFailuresTotal counts caught listener errors and panics.
	listenerFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "eventbus_listener_failures_total",
		Help: "The total number of listener errors caught during delivery",
	}, []string{"topic", "identity"})

	// activeSubscriptions tracks the number of live subscriptions per topic.
	activeSubscriptions = promauto.NewGaugeVec(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "eventbus_active_subscriptions",
		Help: "The number of live subscriptions, by topic",
	}, []string{"topic"})

	// deliveryDuration measures how long a single listener took to handle an event.
	deliveryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Name:    "eventbus_delivery_duration_seconds",
		Help:    "Duration of a single listener delivery, by topic",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"topic"})
)
