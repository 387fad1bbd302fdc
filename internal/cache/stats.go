// Package cache holds the redis-backed read caches used by the API.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	"thinkhub/internal/service"
)

const statsPrefix = "dashboard:stats:"

// StatsCache stores computed dashboard stats as JSON, one key per user.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

func statsKey(userID string) string {
	return statsPrefix + userID
}

func (c *StatsCache) Get(ctx context.Context, userID string) (*service.Stats, bool, error) {
	raw, err := c.client.Get(ctx, statsKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get dashboard stats: %w", err)
	}

	var stats service.Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		// 脏数据当作未命中
		c.client.Del(ctx, statsKey(userID))
		return nil, false, nil
	}
	return &stats, true, nil
}

func (c *StatsCache) Set(ctx context.Context, userID string, stats *service.Stats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal dashboard stats: %w", err)
	}
	if err := c.client.Set(ctx, statsKey(userID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set dashboard stats: %w", err)
	}
	return nil
}

// Invalidate deletes the cached stats of every given user in one round trip.
func (c *StatsCache) Invalidate(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := lo.Map(lo.Uniq(userIDs), func(id string, _ int) string { return statsKey(id) })
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate dashboard stats: %w", err)
	}
	return nil
}
