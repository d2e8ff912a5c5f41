package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"typeit/internal/errors"
)

// RedisCache keeps temporary credentials in Redis so that every instance of the service sees the same entries.
// Expiry is delegated to the key TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache wraps an existing client. Keys are namespaced with prefix.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *RedisCache) key(email string) string {
	return c.prefix + email
}

// Put stores hash for email with a fresh TTL, replacing any previous value.
func (c *RedisCache) Put(ctx context.Context, email, hash string) error {
	if err := c.client.Set(ctx, c.key(email), hash, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to store temporary credential")
	}

	return nil
}

// Get returns the live hash for email.
func (c *RedisCache) Get(ctx context.Context, email string) (string, bool, error) {
	hash, err := c.client.Get(ctx, c.key(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "failed to read temporary credential")
	}

	return hash, true, nil
}

// Remove deletes the entry for email.
func (c *RedisCache) Remove(ctx context.Context, email string) error {
	if err := c.client.Del(ctx, c.key(email)).Err(); err != nil {
		return errors.Wrap(err, "failed to remove temporary credential")
	}

	return nil
}
