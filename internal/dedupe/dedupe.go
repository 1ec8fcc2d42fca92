// Package dedupe guards the inbound pipeline against at-least-once webhook
// redelivery by remembering provider message SIDs in Redis.
package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "dedupe:msg:"

// Deduper answers "have we seen this message SID before?" with a bounded
// memory window.
type Deduper struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a Deduper from a Redis URL.
func New(redisURL string, ttl time.Duration) (*Deduper, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return &Deduper{rdb: redis.NewClient(opts), ttl: ttl}, nil
}

// FirstDelivery atomically records the SID and reports whether this is the
// first time it was seen. SETNX makes the check-and-set race-free across
// concurrent deliveries of the same message.
func (d *Deduper) FirstDelivery(ctx context.Context, messageSID string) (bool, error) {
	if messageSID == "" {
		// Provider payloads without a SID cannot be deduplicated.
		return true, nil
	}

	first, err := d.rdb.SetNX(ctx, keyPrefix+messageSID, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record message SID: %w", err)
	}
	return first, nil
}

// Close closes the Redis client connection.
func (d *Deduper) Close() error {
	return d.rdb.Close()
}
