package ratelimit

import (
	"net/http"
	"testing"
	"time"
)

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		value  string
		want   time.Duration
		wantOK bool
	}{
		{"empty", "", 0, false},
		{"seconds", "30", 30 * time.Second, true},
		{"zero", "0", 0, true},
		{"negative", "-5", 0, false},
		{"padded", " 12 ", 12 * time.Second, true},
		{"capped", "86400", MaxRetryAfter, true},
		{"http date", now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second, true},
		{"past date", now.Add(-time.Minute).Format(http.TimeFormat), 0, true},
		{"garbage", "later", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRetryAfter(tt.value, now)
			if ok != tt.wantOK {
				t.Fatalf("ParseRetryAfter(%q) ok = %v, want %v", tt.value, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestOpensWindow(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusOK, false},
		{http.StatusNotModified, false},
		{http.StatusNotFound, false},
		{http.StatusInternalServerError, false},
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		if got := OpensWindow(tt.status); got != tt.want {
			t.Errorf("OpensWindow(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestBackoffState(t *testing.T) {
	var nilState *BackoffState
	if nilState.Active() || nilState.Remaining() != 0 {
		t.Error("nil state should be inactive")
	}

	past := &BackoffState{Until: time.Now().Add(-time.Second)}
	if past.Active() {
		t.Error("expired window reported active")
	}
	if past.Remaining() != 0 {
		t.Errorf("Remaining() = %v, want 0", past.Remaining())
	}

	open := &BackoffState{Until: time.Now().Add(time.Minute)}
	if !open.Active() {
		t.Error("open window reported inactive")
	}
	if r := open.Remaining(); r <= 50*time.Second || r > time.Minute {
		t.Errorf("Remaining() = %v, want about 1m", r)
	}
}
