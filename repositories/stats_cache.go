package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const statsCacheKey = "stats:documents"

type RedisStatsCache struct {
	redis *redis.Client
}

func NewRedisStatsCache(redisClient *redis.Client) *RedisStatsCache {
	return &RedisStatsCache{redis: redisClient}
}

func (c *RedisStatsCache) Get(ctx context.Context) (DocumentStats, bool, error) {
	var stats DocumentStats
	raw, err := c.redis.Get(ctx, statsCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return stats, false, nil
	}
	if err != nil {
		return stats, false, err
	}
	if err := json.Unmarshal(raw, &stats); err != nil {
		return stats, false, err
	}
	return stats, true, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, stats DocumentStats, ttl time.Duration) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, statsCacheKey, raw, ttl).Err()
}

func (c *RedisStatsCache) Invalidate(ctx context.Context) error {
	return c.redis.Del(ctx, statsCacheKey).Err()
}
