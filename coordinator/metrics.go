package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opPerform = "perform"
	opUndo    = "undo"
	opNotify  = "notify"

	outcomeSuccess = "success"
	outcomeError   = "error"
)

// Prometheus metrics for monitoring the facade.

var (
	// operationsTotal counts facade operations by operation and outcome.
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "coordinator_operations_total",
		Help: "The total number of coordinator operations, by operation and outcome",
	}, []string{"operation", "outcome"})

	// operationDuration measures the whole critical section per operation.
	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Name:    "coordinator_operation_duration_seconds",
		Help:    "Duration of coordinator operations, by operation",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"operation"})
)
