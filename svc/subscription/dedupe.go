package subscription

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper remembers webhook events that were already processed. It is an
// advisory optimization: event transitions write absolute values, so missing
// or failing dedupe never corrupts the ledger, it only costs a redundant
// write.
type Deduper interface {
	// Seen marks the key as processed and reports whether it had been
	// marked before.
	Seen(ctx context.Context, key string) (bool, error)
}

type redisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

const dedupeKeyPrefix = "webhook:event:"

// NewRedisDeduper returns a Deduper backed by redis SETNX with a TTL.
// Markers expire so the key space stays bounded; the provider's redelivery
// window is far shorter than any sane TTL.
func NewRedisDeduper(client *redis.Client, ttl time.Duration) Deduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisDeduper{client: client, ttl: ttl}
}

func (d *redisDeduper) Seen(ctx context.Context, key string) (bool, error) {
	set, err := d.client.SetNX(ctx, dedupeKeyPrefix+key, 1, d.ttl).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}
