package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	backoffsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petitions_backoffs_total",
		Help: "Total number of back-off windows opened by the petitions API",
	}, []string{"status"})

	backoffWaitSeconds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "petitions_backoff_wait_seconds_total",
		Help: "Total time spent waiting for back-off windows to pass",
	})
)

// Tracker records back-off windows and holds requests until they pass.
// With a Redis client the window is shared between processes, otherwise it is
// kept in memory.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger

	mu    sync.Mutex
	local BackoffState
}

// NewTracker creates a tracker. redisClient may be nil.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// GetState returns the current window. A zero state means no back-off.
func (t *Tracker) GetState(ctx context.Context) (*BackoffState, error) {
	if t.redis == nil {
		t.mu.Lock()
		defer t.mu.Unlock()
		state := t.local
		return &state, nil
	}

	data, err := t.redis.Get(ctx, RedisKeyBackoff).Bytes()
	if errors.Is(err, redis.Nil) {
		return &BackoffState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get backoff state: %w", err)
	}

	var state BackoffState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse backoff state: %w", err)
	}
	return &state, nil
}

// UpdateFromResponse opens a window when resp is a 429 or 503. Other
// responses leave the state untouched. A window never shortens one already open.
func (t *Tracker) UpdateFromResponse(ctx context.Context, resp *http.Response) error {
	if resp == nil || !OpensWindow(resp.StatusCode) {
		return nil
	}

	now := time.Now()
	delay, ok := ParseRetryAfter(resp.Header.Get("Retry-After"), now)
	if !ok {
		delay = DefaultRetryAfter
	}

	state := BackoffState{
		Until:      now.Add(delay),
		StatusCode: resp.StatusCode,
		LastUpdate: now,
	}

	current, err := t.GetState(ctx)
	if err != nil {
		return err
	}
	if current.Until.After(state.Until) {
		return nil
	}

	if err := t.store(ctx, state, delay); err != nil {
		return err
	}

	backoffsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	t.logger.Warn().
		Int("status", resp.StatusCode).
		Dur("retry_after", delay).
		Time("until", state.Until).
		Msg("Petitions API asked to back off")

	return nil
}

func (t *Tracker) store(ctx context.Context, state BackoffState, ttl time.Duration) error {
	if t.redis == nil {
		t.mu.Lock()
		t.local = state
		t.mu.Unlock()
		return nil
	}

	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal backoff state: %w", err)
	}
	if err := t.redis.Set(ctx, RedisKeyBackoff, data, ttl).Err(); err != nil {
		return fmt.Errorf("store backoff state in redis: %w", err)
	}
	return nil
}

// Wait blocks until no window is open or ctx ends.
func (t *Tracker) Wait(ctx context.Context) error {
	for {
		state, err := t.GetState(ctx)
		if err != nil {
			return err
		}

		wait := state.Remaining()
		if wait <= 0 {
			return nil
		}

		t.logger.Debug().
			Dur("wait", wait).
			Int("status", state.StatusCode).
			Msg("Waiting for back-off window")

		timer := time.NewTimer(wait)
		started := time.Now()
		select {
		case <-ctx.Done():
			timer.Stop()
			backoffWaitSeconds.Add(time.Since(started).Seconds())
			return ctx.Err()
		case <-timer.C:
			backoffWaitSeconds.Add(time.Since(started).Seconds())
		}
	}
}
