// Package services – Redis-backed rate limit window store.
//
// RedisWindowStore shares one fixed-window counter across all instances of
// the service, so horizontal scaling does not multiply the effective
// ceiling. INCR is atomic on the server and the key's TTL doubles as the
// window: the first call in a window creates the key with an expiry, the
// expiry reclaims it, and the window start is recovered from the remaining
// TTL.
package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisWindowStore implements WindowStore on a shared Redis counter.
type RedisWindowStore struct {
	Client *redis.Client
	// Prefix namespaces keys, e.g. "labops:rl:".
	Prefix string
}

// NewRedisWindowStore constructs a store over client with the default
// key prefix.
func NewRedisWindowStore(client *redis.Client) *RedisWindowStore {
	return &RedisWindowStore{Client: client, Prefix: "labops:rl:"}
}

// Incr implements WindowStore. One round trip: INCR, set the expiry when
// this call opened the window, read the TTL back to derive the start.
func (s *RedisWindowStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	k := s.Prefix + key

	pipe := s.Client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	// NX: only the call that created the key sets the window expiry, so
	// later calls cannot slide the window forward.
	pipe.ExpireNX(ctx, k, window)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, err
	}

	count := incr.Val()
	start := time.Now()
	if remaining := ttl.Val(); remaining > 0 {
		start = time.Now().Add(remaining - window)
	}
	return count, start, nil
}
