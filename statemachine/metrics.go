package statemachine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess       = "success"
	outcomeInvalid       = "invalid"
	outcomeGuardRejected = "guard_rejected"
	outcomeEffectFailed  = "effect_failed"
)

// Metric definitions with appropriate labels.
var (
	// transitionsTotal tracks transition attempts by from state, trigger, and outcome.
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "statemachine_transitions_total",
		Help: "Total number of transition attempts by from state, trigger, and outcome",
	}, []string{"from", "trigger", "outcome"})

	// transitionDuration tracks Fire execution time including guards and effects.
	transitionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Name:    "statemachine_transition_duration_seconds",
		Help:    "Duration of transition execution by trigger",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"trigger"})

	// revertsTotal tracks Revert attempts by outcome.
	revertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "statemachine_reverts_total",
		Help: "Total number of revert attempts by outcome",
	}, []string{"outcome"})
)
