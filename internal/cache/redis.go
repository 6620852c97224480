package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roadwatch/backend/internal/domain"
)

// SegmentsKey is the Redis key holding the JSON encoded segment set
const SegmentsKey = "roadwatch:bad_segments"

// RedisCache implements domain.SegmentCache on Redis so that several API
// instances share one segment set.
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisClient parses a redis:// URL, or treats the value as host:port
func NewRedisClient(redisURL string) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		opts = &redis.Options{Addr: redisURL}
	}
	return redis.NewClient(opts)
}

// NewRedisCache creates a cache on an existing client
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, key: SegmentsKey, ttl: ttl}
}

// Get returns the cached segments; a missing key is a miss, not an error
func (c *RedisCache) Get(ctx context.Context) ([]domain.BadSegment, bool, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis cache: get: %w", err)
	}

	var segments []domain.BadSegment
	if err := json.Unmarshal(raw, &segments); err != nil {
		return nil, false, fmt.Errorf("redis cache: decode: %w", err)
	}
	return segments, true, nil
}

// Set stores the segments with the configured TTL
func (c *RedisCache) Set(ctx context.Context, segments []domain.BadSegment) error {
	if segments == nil {
		segments = []domain.BadSegment{}
	}
	data, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("redis cache: encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis cache: set: %w", err)
	}
	return nil
}

// Invalidate deletes the cached segments
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("redis cache: delete: %w", err)
	}
	return nil
}

// Ping checks Redis connectivity
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
