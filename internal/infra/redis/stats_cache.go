package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"learnloop/internal/domain"
	"learnloop/internal/domain/model"
	"learnloop/internal/infra/metrics"
	"learnloop/internal/usecase"
)

var _ usecase.StatsCache = (*StatsCache)(nil)

// StatsCache keeps computed user stats for a TTL; any answer invalidates.
type StatsCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewStatsCache(client RedisClient, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

func statsKey(userID string) string { return "user_stats:" + userID }

func (c *StatsCache) Get(ctx context.Context, userID string) (*model.UserStats, error) {
	data, err := c.client.Get(ctx, statsKey(userID))
	if err != nil {
		metrics.IncCacheRequest("stats", "miss")
		if errors.Is(err, goredis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var stats model.UserStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		metrics.IncCacheRequest("stats", "miss")
		return nil, err
	}
	metrics.IncCacheRequest("stats", "hit")
	return &stats, nil
}

func (c *StatsCache) Set(ctx context.Context, userID string, stats *model.UserStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statsKey(userID), data, c.ttl)
}

func (c *StatsCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, statsKey(userID))
}
