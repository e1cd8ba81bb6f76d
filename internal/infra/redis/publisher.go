// Package redis publishes dashboard notifications over redis pub/sub so
// that external consumers (other dashboard instances, ops tooling) can
// subscribe to the same error channel the UI sees. Balances are never
// written to redis; the snapshot stays in-memory.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vietddude/agentboard/internal/notify"
)

const notificationChannel = "agentboard:notifications"

// Config holds redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// Publisher forwards notifications to a redis channel.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher creates a publisher and verifies the connection.
func NewPublisher(cfg Config) (*Publisher, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Publisher{rdb: rdb}, nil
}

// Publish sends one notification to the channel.
func (p *Publisher) Publish(n notify.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.rdb.Publish(ctx, notificationChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}
	return nil
}

// Close closes the redis connection.
func (p *Publisher) Close() error {
	return p.rdb.Close()
}
