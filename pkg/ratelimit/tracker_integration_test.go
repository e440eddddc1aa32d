//go:build integration

package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
		redisContainer.Terminate(ctx)
	})

	return client
}

func TestTracker_Integration_SharedWindow(t *testing.T) {
	redisClient := setupRedis(t)
	ctx := context.Background()

	first := NewTracker(redisClient, zerolog.Nop())
	second := NewTracker(redisClient, zerolog.Nop())

	state, err := second.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Active() {
		t.Fatal("empty Redis should mean no back-off")
	}

	resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}}
	resp.Header.Set("Retry-After", "2")
	if err := first.UpdateFromResponse(ctx, resp); err != nil {
		t.Fatalf("UpdateFromResponse() error = %v", err)
	}

	state, err = second.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if !state.Active() {
		t.Fatal("window opened by one tracker not visible to another")
	}
	if state.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", state.StatusCode)
	}

	start := time.Now()
	if err := second.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if time.Since(start) < time.Second {
		t.Error("Wait() did not hold for the shared window")
	}
}
