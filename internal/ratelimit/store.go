// Package ratelimit implements admission control: an exact sliding-window
// limiter backed by Redis sorted sets, tiered quotas, and a token-bucket
// registry for smooth throttling.
package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// WindowStore is the narrow sorted-set surface the sliding window needs.
// Implemented by Redis in production and by an in-memory fake in tests;
// the store's own atomic operations provide cross-process safety.
type WindowStore interface {
	// Slide prunes members with scores in (0, windowStart], counts the
	// remainder, adds member with score now, and refreshes the key TTL.
	// Returns the count before the add.
	Slide(ctx context.Context, key string, windowStart, now float64, member string, ttl time.Duration) (int64, error)

	// Remove deletes a single member from the key's sorted set.
	Remove(ctx context.Context, key, member string) error

	// Count prunes expired members and returns the remaining cardinality
	// without adding anything.
	Count(ctx context.Context, key string, windowStart float64) (int64, error)

	// Delete removes whole keys.
	Delete(ctx context.Context, keys ...string) error
}

// RedisStore implements WindowStore on a go-redis client. Slide runs as a
// single pipeline so the prune/count/add triplet costs one round trip.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Slide(ctx context.Context, key string, windowStart, now float64, member string, ttl time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", formatScore(windowStart))
	card := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: now, Member: member})
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, eris.Wrap(err, "ratelimit: slide pipeline")
	}
	return card.Val(), nil
}

func (s *RedisStore) Remove(ctx context.Context, key, member string) error {
	if err := s.client.ZRem(ctx, key, member).Err(); err != nil {
		return eris.Wrap(err, "ratelimit: zrem")
	}
	return nil
}

func (s *RedisStore) Count(ctx context.Context, key string, windowStart float64) (int64, error) {
	if err := s.client.ZRemRangeByScore(ctx, key, "0", formatScore(windowStart)).Err(); err != nil {
		return 0, eris.Wrap(err, "ratelimit: prune")
	}
	n, err := s.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, eris.Wrap(err, "ratelimit: zcard")
	}
	return n, nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return eris.Wrap(err, "ratelimit: del")
	}
	return nil
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
