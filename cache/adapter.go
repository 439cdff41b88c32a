// Package cache provides the session KV store: Redis-backed when an address
// is configured, in-process otherwise. There is no pub/sub layer — clients
// poll, nothing is pushed.
package cache

import (
	"context"
	"time"

	"github.com/yomogi/linkup/cache/local"
	cacheredis "github.com/yomogi/linkup/cache/redis"
)

// Cache defines the KV operations used for session tracking.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Config holds configuration for both Redis and LocalCache.
type Config struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
}

// New returns a Cache backed by Redis if RedisAddr is set, otherwise an
// in-process LocalCache.
func New(cfg Config) (Cache, error) {
	if cfg.RedisAddr != "" {
		return cacheredis.New(cacheredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}
	return local.New(local.Config{
		GCInterval: cfg.LocalGCInterval,
	})
}
