package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	sharedCache "github.com/vskolike/groupdir/shared/platform/cache"
)

// RedisGroupCache guarda grupos serializados a JSON en Redis.
type RedisGroupCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ sharedCache.Cache = (*RedisGroupCache)(nil)

func NewRedisGroupCache(client *redis.Client, ttl time.Duration) *RedisGroupCache {
	return &RedisGroupCache{client: client, ttl: ttl}
}

func (c *RedisGroupCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set usa el TTL por defecto si ttlSecs no es positivo.
func (c *RedisGroupCache) Set(ctx context.Context, key string, val interface{}, ttlSecs int) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	ttl := c.ttl
	if ttlSecs > 0 {
		ttl = time.Duration(ttlSecs) * time.Second
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *RedisGroupCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
