package history

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
	outcomeEmpty   = "empty"
)

// Prometheus metrics for monitoring stack depth and command outcomes.

var (
	// commandsTotal counts Apply calls by outcome.
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "history_commands_total",
		Help: "The total number of command applications, by outcome",
	}, []string{"outcome"})

	// undosTotal counts Undo calls by outcome.
	undosTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "history_undos_total",
		Help: "The total number of undo attempts, by outcome",
	}, []string{"outcome"})

	// evictionsTotal counts entries dropped after hitting the depth bound.
	evictionsTotal = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "history_evictions_total",
		Help: "The total number of entries evicted from bounded stacks",
	})

	// stackDepth tracks the current number of recorded entries.
	stackDepth = promauto.NewGauge(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "history_stack_depth",
		Help: "The current number of entries on the undo stack",
	})
)
