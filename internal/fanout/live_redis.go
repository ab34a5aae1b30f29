package fanout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"pravaha/internal/announce"
)

// RedisLiveFeed publishes records as JSON to a redis pub/sub channel.
// Delivery is at-most-once: subscribers not connected at publish time
// never see the record, which is the right contract for a live ticker.
type RedisLiveFeed struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisLiveFeed creates a live feed sink on the given channel.
func NewRedisLiveFeed(client redis.UniversalClient, channel string) (*RedisLiveFeed, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if channel == "" {
		return nil, fmt.Errorf("channel is required")
	}
	return &RedisLiveFeed{client: client, channel: channel}, nil
}

// Name identifies the sink in logs and metrics.
func (f *RedisLiveFeed) Name() string { return "redis" }

// Broadcast publishes the record as JSON.
func (f *RedisLiveFeed) Broadcast(ctx context.Context, record *announce.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := f.client.Publish(ctx, f.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", f.channel, err)
	}
	return nil
}
