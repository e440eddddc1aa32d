package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "petitions_cache_hits_total",
			Help: "Total number of petitions API cache hits",
		},
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "petitions_cache_misses_total",
			Help: "Total number of petitions API cache misses",
		},
	)

	// CacheWrittenBytes tracks bytes written to Redis
	CacheWrittenBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "petitions_cache_written_bytes_total",
			Help: "Total bytes of petitions API responses written to the cache",
		},
	)

	// ConditionalRequestsSent tracks requests carrying If-None-Match or If-Modified-Since
	ConditionalRequestsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "petitions_conditional_requests_total",
			Help: "Total number of conditional requests sent to the petitions API",
		},
	)

	// NotModifiedResponses tracks 304 Not Modified responses
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "petitions_304_responses_total",
			Help: "Total number of 304 Not Modified responses",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "petitions_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
