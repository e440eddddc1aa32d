package pager

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesLoaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "petitions_pager_pages_loaded_total",
			Help: "Total number of petition pages fetched and fully processed",
		},
	)

	changesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "petitions_pager_changes_total",
			Help: "Total number of snapshot changes by kind",
		},
		[]string{"change"}, // "new", "updated", "removed"
	)

	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "petitions_pager_errors_total",
			Help: "Total number of pager errors by kind",
		},
		[]string{"kind"}, // "page", "fetch", "detail", "transform"
	)

	cycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "petitions_pager_cycle_duration_seconds",
			Help:    "Duration of one full petition traversal",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
)
