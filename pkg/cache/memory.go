package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	data []byte
	exp  time.Time
}

// MemoryCache is an in-process JSON cache with lazy expiry.
type MemoryCache struct {
	mu sync.RWMutex
	m  map[string]memoryEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var exp time.Time
	if expiration > 0 {
		exp = time.Now().Add(expiration)
	}
	c.mu.Lock()
	c.m[key] = memoryEntry{data: b, exp: exp}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return ErrCacheMiss
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return ErrCacheMiss
	}
	return json.Unmarshal(e.data, dest)
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.m, k)
	}
	c.mu.Unlock()
	return nil
}
