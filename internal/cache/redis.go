// Package cache provides caching implementations.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/randalmurphy/snippet-chunker/internal/chunk"
)

const (
	// DefaultTTL is how long cached spans live.
	DefaultTTL = 7 * 24 * time.Hour

	spanKeyPrefix = "spans:"
)

// RedisCache provides caching via Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new Redis cache.
func NewRedisCache(url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis connection failed: %w", err)
	}

	return &RedisCache{client: client, ttl: DefaultTTL}, nil
}

// Get retrieves a value from cache. Returns empty string if key not found.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// Set stores a value in cache with TTL.
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes a value from cache.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// DeletePattern removes all keys matching pattern.
func (c *RedisCache) DeletePattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// GetSpans returns the cached spans for key. ok is false on a miss.
func (c *RedisCache) GetSpans(ctx context.Context, key string) (spans []chunk.Span, ok bool, err error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if err := json.Unmarshal(val, &spans); err != nil {
		return nil, false, fmt.Errorf("decode cached spans: %w", err)
	}
	return spans, true, nil
}

// SetSpans stores spans under key.
func (c *RedisCache) SetSpans(ctx context.Context, key string, spans []chunk.Span) error {
	if spans == nil {
		spans = []chunk.Span{}
	}
	data, err := json.Marshal(spans)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Clear removes every cached span list.
func (c *RedisCache) Clear(ctx context.Context) error {
	return c.DeletePattern(ctx, spanKeyPrefix+"*")
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// SpanCacheKey generates a cache key for the spans of one file. params
// identifies the chunker settings that produced them.
func SpanCacheKey(path string, content []byte, params string) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(content)
	h.Write([]byte{0})
	h.Write([]byte(params))
	return fmt.Sprintf("%s%x", spanKeyPrefix, h.Sum(nil)[:16])
}
