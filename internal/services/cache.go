package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/triptales/triptales-backend/internal/database"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached data
	CacheKeyPrefix = "cache:"
	// MapFeedCacheKey caches the shared map feed, which is identical for
	// every caller
	MapFeedCacheKey = "journals:map"
	// DefaultCacheTTL keeps feed data fresh enough for a map screen
	DefaultCacheTTL = 30 * time.Second
	// MinCacheTTL is the shortest allowed TTL
	MinCacheTTL = 5 * time.Second
	// MaxCacheTTL is the longest allowed TTL
	MaxCacheTTL = 5 * time.Minute
)

// CacheService provides Redis-backed JSON caching for read-heavy responses.
type CacheService struct{}

// Get retrieves a value from cache. A miss is not an error.
func (c *CacheService) Get(key string, dest interface{}) (bool, error) {
	ctx := context.Background()

	val, err := database.RedisClient.Get(ctx, CacheKeyPrefix+key).Result()
	if err != nil {
		return false, nil
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores a value in cache with the default TTL.
func (c *CacheService) Set(key string, value interface{}) error {
	return c.SetWithTTL(key, value, DefaultCacheTTL)
}

// SetWithTTL stores a value in cache with a custom TTL, clamped to the
// allowed range.
func (c *CacheService) SetWithTTL(key string, value interface{}, ttl time.Duration) error {
	if ttl < MinCacheTTL {
		ttl = MinCacheTTL
	}
	if ttl > MaxCacheTTL {
		ttl = MaxCacheTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return database.RedisClient.Set(ctx, CacheKeyPrefix+key, data, ttl).Err()
}

// Invalidate drops a cached value. Called when a new journal commits so the
// map feed reflects it on the next fetch.
func (c *CacheService) Invalidate(key string) error {
	ctx := context.Background()
	return database.RedisClient.Del(ctx, CacheKeyPrefix+key).Err()
}
