package router

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeRouted = "routed"
	outcomeError  = "error"
	outcomeCycle  = "cycle"
)

// Prometheus metrics for monitoring signal routing.

var (
	// signalsTotal counts notifications by participant, signal, and outcome.
	signalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "router_signals_total",
		Help: "The total number of routed notifications, by participant, signal, and outcome",
	}, []string{"participant", "signal", "outcome"})

	// reactionDuration measures how long a single reaction took.
	reactionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Name:    "router_reaction_duration_seconds",
		Help:    "Duration of a single reaction, by signal",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"signal"})

	// activeParticipants tracks the number of registered participants.
	activeParticipants = promauto.NewGauge(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "router_active_participants",
		Help: "The number of registered participants",
	})
)
