// Package cache provides a Redis backed prediction cache.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces cached ratings.
const DefaultPrefix = "tripscore:rating:"

// RedisCache stores predicted ratings under "<prefix><key>" keys. It
// implements prediction.Cache.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to addr and checks the connection with PING.
// A zero ttl keeps entries forever.
func NewRedisCache(ctx context.Context, addr, password string, db int, prefix string, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedisCacheWithClient(client, prefix, ttl), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

// GetMany fetches the cached subset of ids with a single MGET.
func (c *RedisCache) GetMany(ctx context.Context, ids []string) (map[string]float64, error) {
	out := make(map[string]float64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.prefix + id
	}
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			continue
		}
		out[ids[i]] = f
	}
	return out, nil
}

// SetMany writes values in one pipeline.
func (c *RedisCache) SetMany(ctx context.Context, values map[string]float64) error {
	if len(values) == 0 {
		return nil
	}
	_, err := c.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for id, v := range values {
			p.Set(ctx, c.prefix+id, strconv.FormatFloat(v, 'g', -1, 64), c.ttl)
		}
		return nil
	})
	return err
}

// Close closes the underlying client.
func (c *RedisCache) Close() error { return c.client.Close() }
