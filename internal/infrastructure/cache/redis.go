package cache

import (
	"context"
	"errors"
	"time"

	"github.com/nopayn/psp-bridge/internal/core/ports"
	"github.com/redis/go-redis/v9"
)

// RedisCache implements the byte cache on a single redis instance. Redis
// owns expiry, so Get never has to check timestamps itself.
type RedisCache struct {
	client *redis.Client
}

func New(addr string) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

var _ ports.Cache = (*RedisCache)(nil)

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (c *RedisCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
