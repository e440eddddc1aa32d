// Package ratelimit tracks the back-off windows the petitions API asks for.
// A 429 Too Many Requests or 503 Service Unavailable answer opens a window
// (from its Retry-After header) during which no further requests are sent.
package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RedisKeyBackoff holds the shared back-off state.
const RedisKeyBackoff = "petitions:backoff"

const (
	// DefaultRetryAfter applies when a 429/503 carries no usable Retry-After.
	DefaultRetryAfter = 5 * time.Second

	// MaxRetryAfter caps the window a single response can open.
	MaxRetryAfter = 5 * time.Minute
)

// BackoffState is the current back-off window.
type BackoffState struct {
	// Until is when requests may resume.
	Until time.Time `json:"until"`

	// StatusCode of the response that opened the window.
	StatusCode int `json:"status_code"`

	// LastUpdate is when the window was recorded.
	LastUpdate time.Time `json:"last_update"`
}

// Active reports whether requests are currently held back.
func (s *BackoffState) Active() bool {
	return s != nil && time.Now().Before(s.Until)
}

// Remaining returns the time left in the window, or 0.
func (s *BackoffState) Remaining() time.Duration {
	if s == nil {
		return 0
	}
	d := time.Until(s.Until)
	if d < 0 {
		return 0
	}
	return d
}

// OpensWindow reports whether a response status asks the client to back off.
func OpensWindow(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// ParseRetryAfter reads a Retry-After value, either delay-seconds or an HTTP
// date. The result is clamped to [0, MaxRetryAfter].
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	var d time.Duration
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		d = time.Duration(seconds) * time.Second
	} else {
		at, err := http.ParseTime(value)
		if err != nil {
			return 0, false
		}
		d = at.Sub(now)
		if d < 0 {
			d = 0
		}
	}

	if d > MaxRetryAfter {
		d = MaxRetryAfter
	}
	return d, true
}
