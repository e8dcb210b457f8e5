package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cooldownPrefix = "cooldown:"

// Cooldown rate-limits repeated actions per key with SET NX plus a TTL.
// Key format: cooldown:<key>
type Cooldown struct {
	client *redis.Client
}

// NewCooldown creates a Cooldown wrapping the given Redis client.
func NewCooldown(client *redis.Client) *Cooldown {
	return &Cooldown{client: client}
}

// Acquire returns true and starts the cooldown when key is not cooling down.
func (c *Cooldown) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, cooldownPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cooldown acquire: %w", err)
	}
	return ok, nil
}
