package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// RedisStore implements Store on a Redis sorted set per key, scored by
// event time in nanoseconds. Safe across replicas.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := time.Now()
	cutoff := now.Add(-window)
	rkey := redisKeyPrefix + key

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, rkey, "0", strconv.FormatInt(cutoff.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, rkey)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("ratelimit count: %w", err)
	}

	count := int(countCmd.Val())
	if count >= limit {
		oldest, err := s.client.ZRangeWithScores(ctx, rkey, 0, 0).Result()
		if err != nil {
			return nil, fmt.Errorf("ratelimit oldest: %w", err)
		}
		resetAt := now.Add(window)
		if len(oldest) > 0 {
			resetAt = time.Unix(0, int64(oldest[0].Score)).Add(window)
		}
		return &Result{Allowed: false, Remaining: 0, Limit: limit, ResetAt: resetAt}, nil
	}

	member := strconv.FormatInt(now.UnixNano(), 10)
	pipe = s.client.TxPipeline()
	pipe.ZAdd(ctx, rkey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	pipe.Expire(ctx, rkey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("ratelimit record: %w", err)
	}

	return &Result{
		Allowed:   true,
		Remaining: limit - count - 1,
		Limit:     limit,
		ResetAt:   now.Add(window),
	}, nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("ratelimit reset: %w", err)
	}
	return nil
}

// CurrentCount counts all recorded members. Expired members are trimmed
// on Allow and the whole key carries a TTL, so staleness is bounded by
// the window.
func (s *RedisStore) CurrentCount(ctx context.Context, key string) (int, error) {
	n, err := s.client.ZCard(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("ratelimit current count: %w", err)
	}
	return int(n), nil
}
