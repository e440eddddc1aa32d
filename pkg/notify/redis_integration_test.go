//go:build integration

package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Sternrassler/uk-petitions/pkg/monitor"
	"github.com/Sternrassler/uk-petitions/pkg/petition"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedisContainer(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
		container.Terminate(ctx)
	})

	return client
}

func TestRedisPublisher_Integration_Handle(t *testing.T) {
	client := setupRedisContainer(t)
	ctx := context.Background()

	publisher, err := NewRedisPublisher(client, "", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRedisPublisher() error = %v", err)
	}

	sub := client.Subscribe(ctx, DefaultChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	publisher.Handle(monitor.Event{
		Name:     monitor.EventDebateThreshold,
		Petition: &petition.Petition{ID: 5, SignatureCount: 100001},
		Old:      &petition.Petition{ID: 5, SignatureCount: 99000},
	})

	recvCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(recvCtx)
	if err != nil {
		t.Fatalf("ReceiveMessage() error = %v", err)
	}

	var got Message
	if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if got.Event != monitor.EventDebateThreshold {
		t.Errorf("Event = %q, want %q", got.Event, monitor.EventDebateThreshold)
	}
	if got.OldSignatureCount == nil || *got.OldSignatureCount != 99000 {
		t.Errorf("OldSignatureCount = %v, want 99000", got.OldSignatureCount)
	}
}
