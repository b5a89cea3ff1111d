package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"decihire/internal/model"

	"github.com/redis/go-redis/v9"
)

// AnalyticsCache holds computed per-profile stats until the next result lands
type AnalyticsCache interface {
	GetProfileStats(ctx context.Context, profile string) (*model.ProfileStats, error)
	SetProfileStats(ctx context.Context, stats *model.ProfileStats) error
	Invalidate(ctx context.Context, profile string) error
}

type analyticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAnalyticsCache creates a new analytics cache
func NewAnalyticsCache(client *redis.Client) AnalyticsCache {
	return &analyticsCache{
		client: client,
		ttl:    15 * time.Minute,
	}
}

func (c *analyticsCache) statsKey(profile string) string {
	return fmt.Sprintf("profile:%s:stats", profile)
}

func (c *analyticsCache) GetProfileStats(ctx context.Context, profile string) (*model.ProfileStats, error) {
	data, err := c.client.Get(ctx, c.statsKey(profile)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, cacheErr("get stats", err)
	}
	var stats model.ProfileStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *analyticsCache) SetProfileStats(ctx context.Context, stats *model.ProfileStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return cacheErr("set stats", c.client.Set(ctx, c.statsKey(stats.Profile), data, c.ttl).Err())
}

func (c *analyticsCache) Invalidate(ctx context.Context, profile string) error {
	return cacheErr("invalidate stats", c.client.Del(ctx, c.statsKey(profile)).Err())
}
