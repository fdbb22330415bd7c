package cache

import (
	"context"
	"time"
)

// LayeredCache is a two-level cache: in-process memory in front of
// Redis. Reads fill the memory layer; writes go through both.
type LayeredCache struct {
	mem   *MemoryCache
	redis *RedisCache
}

func NewLayeredCache(redis *RedisCache) *LayeredCache {
	return &LayeredCache{mem: NewMemoryCache(), redis: redis}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := lc.redis.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	return lc.mem.Set(ctx, key, value, expiration)
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.mem.Get(ctx, key, dest); err == nil {
		return nil
	}
	return lc.redis.Get(ctx, key, dest)
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.mem.Delete(ctx, keys...)
	return lc.redis.Delete(ctx, keys...)
}
