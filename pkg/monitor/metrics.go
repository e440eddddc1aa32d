package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "petitions_monitor_events_total",
			Help: "Monitor events emitted by event name",
		},
		[]string{"event"},
	)

	handlerPanics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "petitions_monitor_handler_panics_total",
			Help: "Event handlers that panicked, by event name",
		},
		[]string{"event"},
	)

	traversalsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "petitions_monitor_traversals_total",
			Help: "Completed traversals of the petition list",
		},
	)
)
