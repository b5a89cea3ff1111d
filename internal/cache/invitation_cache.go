package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"decihire/internal/model"

	"github.com/redis/go-redis/v9"
)

// InvitationCache stores invitation codes until they expire
type InvitationCache interface {
	// Create stores inv unless the code is taken; false means collision
	Create(ctx context.Context, inv *model.Invitation) (bool, error)
	Get(ctx context.Context, code string) (*model.Invitation, error)
	Delete(ctx context.Context, code string) error
}

type invitationCache struct {
	client *redis.Client
}

// NewInvitationCache creates a new invitation cache
func NewInvitationCache(client *redis.Client) InvitationCache {
	return &invitationCache{
		client: client,
	}
}

func (c *invitationCache) key(code string) string {
	return fmt.Sprintf("invite:%s", code)
}

func (c *invitationCache) Create(ctx context.Context, inv *model.Invitation) (bool, error) {
	data, err := json.Marshal(inv)
	if err != nil {
		return false, err
	}
	ttl := time.Until(inv.ExpiresAt)
	if ttl <= 0 {
		return false, fmt.Errorf("invitation %s already expired", inv.Code)
	}
	ok, err := c.client.SetNX(ctx, c.key(inv.Code), data, ttl).Result()
	if err != nil {
		return false, cacheErr("create invitation", err)
	}
	return ok, nil
}

func (c *invitationCache) Get(ctx context.Context, code string) (*model.Invitation, error) {
	data, err := c.client.Get(ctx, c.key(code)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, cacheErr("get invitation", err)
	}
	var inv model.Invitation
	if err := json.Unmarshal([]byte(data), &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *invitationCache) Delete(ctx context.Context, code string) error {
	return cacheErr("delete invitation", c.client.Del(ctx, c.key(code)).Err())
}
