package executor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// tasksTotal counts tasks by outcome (completed, panicked, abandoned, dropped).
	tasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "petitions_executor_tasks_total",
			Help: "Total number of loader tasks by outcome",
		},
		[]string{"outcome"},
	)

	// queueDepth tracks tasks waiting to start.
	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "petitions_executor_queue_depth",
			Help: "Number of loader tasks waiting to start",
		},
	)
)
