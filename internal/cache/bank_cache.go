package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"decihire/internal/model"

	"github.com/redis/go-redis/v9"
)

// BankCache holds published bank snapshots per profile
type BankCache interface {
	Get(ctx context.Context, profile string) (*model.Bank, error)
	Set(ctx context.Context, bank *model.Bank) error
	Invalidate(ctx context.Context, profile string) error
}

type bankCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBankCache creates a new bank cache
func NewBankCache(client *redis.Client, ttl time.Duration) BankCache {
	return &bankCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *bankCache) key(profile string) string {
	return fmt.Sprintf("profile:%s:bank", profile)
}

func (c *bankCache) Get(ctx context.Context, profile string) (*model.Bank, error) {
	data, err := c.client.Get(ctx, c.key(profile)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, cacheErr("get bank", err)
	}
	var bank model.Bank
	if err := json.Unmarshal([]byte(data), &bank); err != nil {
		return nil, err
	}
	return &bank, nil
}

func (c *bankCache) Set(ctx context.Context, bank *model.Bank) error {
	data, err := json.Marshal(bank)
	if err != nil {
		return err
	}
	return cacheErr("set bank", c.client.Set(ctx, c.key(bank.Profile), data, c.ttl).Err())
}

func (c *bankCache) Invalidate(ctx context.Context, profile string) error {
	return cacheErr("invalidate bank", c.client.Del(ctx, c.key(profile)).Err())
}
