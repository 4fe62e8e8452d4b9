// Package cache backs the catalog's read-through cache.
//
// Two drivers:
//   - "memory" in-process map with per-entry TTL (default)
//   - "redis"  shared Redis via go-redis, for several clients on one host
//
// Values are JSON-encoded on Set and decoded into dest on Get, so both drivers
// behave the same for callers.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/shashiranjanraj/canteen/config"
)

// Cache is the driver interface.
type Cache interface {
	// Get decodes the value under key into dest. It reports false on a miss,
	// an expired entry, or an undecodable value.
	Get(ctx context.Context, key string, dest interface{}) bool

	// Set stores value under key for ttl. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Del removes one or more keys.
	Del(ctx context.Context, keys ...string) error

	// DelPrefix removes every key starting with prefix, including keys set
	// by other processes sharing the same backend.
	DelPrefix(ctx context.Context, prefix string) error
}

// Open boots the driver named by CACHE_DRIVER. The redis driver pings first
// and returns an error so the caller can fall back to memory.
func Open(ctx context.Context) (Cache, error) {
	switch config.CacheDriver() {
	case "redis":
		c, err := NewRedis(ctx, config.RedisAddr(), config.RedisPassword())
		if err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
		return c, nil
	default:
		return NewMemory(), nil
	}
}
