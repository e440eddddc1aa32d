package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sternrassler/uk-petitions/pkg/monitor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	// DefaultChannel is the pub/sub channel events are published on.
	DefaultChannel = "petitions:events"

	// publishTimeout bounds a publish made from an event handler.
	publishTimeout = 2 * time.Second
)

var (
	publishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "petitions_notify_published_total",
			Help: "Events published to Redis by channel",
		},
		[]string{"channel"},
	)

	publishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "petitions_notify_errors_total",
			Help: "Failed event publishes",
		},
	)
)

// RedisPublisher publishes monitor events as JSON messages.
type RedisPublisher struct {
	redis   *redis.Client
	channel string
	logger  zerolog.Logger
}

// NewRedisPublisher creates a publisher. An empty channel means DefaultChannel.
func NewRedisPublisher(client *redis.Client, channel string, logger zerolog.Logger) (*RedisPublisher, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{redis: client, channel: channel, logger: logger}, nil
}

// Channel returns the channel events are published on.
func (p *RedisPublisher) Channel() string {
	return p.channel
}

// Publish sends ev and returns the number of subscribers that received it.
func (p *RedisPublisher) Publish(ctx context.Context, ev monitor.Event) (int64, error) {
	data, err := json.Marshal(NewMessage(ev))
	if err != nil {
		publishErrors.Inc()
		return 0, fmt.Errorf("marshal event %s: %w", ev.Name, err)
	}

	receivers, err := p.redis.Publish(ctx, p.channel, data).Result()
	if err != nil {
		publishErrors.Inc()
		return 0, fmt.Errorf("publish event %s: %w", ev.Name, err)
	}

	publishedTotal.WithLabelValues(p.channel).Inc()
	return receivers, nil
}

// Handle publishes ev, logging failures. It lets the publisher be attached to
// a monitor.
func (p *RedisPublisher) Handle(ev monitor.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	receivers, err := p.Publish(ctx, ev)
	if err != nil {
		p.logger.Warn().Err(err).Str("channel", p.channel).Msg("Failed to publish event")
		return
	}
	p.logger.Trace().
		Str("event", ev.Name).
		Int64("receivers", receivers).
		Msg("Event published")
}
