// Package metrics exposes the Prometheus metrics of the petitions tools.
// Metrics are defined with promauto in the packages that record them; this
// package serves them.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Registry is the registerer every package's promauto metrics land in.
var Registry = prometheus.DefaultRegisterer

// Handler serves the default gatherer in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx ends.
func Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Metrics server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}
		logger.Info().Msg("Metrics server stopped")
		return nil
	}
}

// Metrics Documentation
//
// Executor (pkg/executor):
//   - petitions_executor_tasks_total{outcome} (Counter): tasks run, by completed/panicked/abandoned
//   - petitions_executor_queue_depth (Gauge): tasks waiting behind the current one
//
// Snapshot (pkg/snapshot):
//   - petitions_snapshot_size{store} (Gauge): petitions held
//
// Pager (pkg/pager):
//   - petitions_pager_pages_loaded_total (Counter): pages fetched and merged
//   - petitions_pager_changes_total{change} (Counter): new, updated and removed petitions
//   - petitions_pager_errors_total{kind} (Counter): fetch, detail, transform and page errors
//   - petitions_pager_cycle_duration_seconds (Histogram): one full populate cycle
//
// Monitor (pkg/monitor):
//   - petitions_monitor_events_total{event} (Counter): events emitted by name
//   - petitions_monitor_handler_panics_total{event} (Counter): recovered handler panics
//
// Notify (pkg/notify):
//   - petitions_notify_published_total{channel} (Counter): events published to Redis
//   - petitions_notify_errors_total (Counter): publish failures
//
// Client (pkg/client, pkg/cache, pkg/ratelimit):
//   - petitions_requests_total{endpoint, status} (Counter)
//   - petitions_request_duration_seconds{endpoint} (Histogram)
//   - petitions_errors_total{class} (Counter)
//   - petitions_retries_total{error_class} (Counter)
//   - petitions_retry_backoff_seconds{error_class} (Histogram)
//   - petitions_retry_exhausted_total{error_class} (Counter)
//   - petitions_cache_hits_total, petitions_cache_misses_total (Counter)
//   - petitions_conditional_requests_total, petitions_304_responses_total (Counter)
//   - petitions_backoffs_total{status}, petitions_backoff_wait_seconds_total (Counter)
//
// Example Prometheus Queries:
//
//	# Petitions churn per minute
//	sum by (change) (rate(petitions_pager_changes_total[1m])) * 60
//
//	# 304 share of list requests
//	rate(petitions_304_responses_total[5m]) / rate(petitions_requests_total{endpoint="/petitions.json"}[5m])
