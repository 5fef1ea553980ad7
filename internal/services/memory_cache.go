package services

import (
	"context"
	"sync"
	"time"
)

// RegistryCache is the response cache consumed by the registry gateway.
// Satisfied by the in-memory cache below and by clients/redis.Cache.
type RegistryCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, val string, ttl time.Duration)
}

type memoryCacheEntry struct {
	val       string
	expiresAt time.Time
}

// MemoryCache is a process-local TTL cache. One instance per process,
// created at boot and passed into the registry gateway; multi-instance
// deployments need the redis-backed cache instead.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryCacheEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: map[string]memoryCacheEntry{},
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return "", false
	}
	return e.val, true
}

func (c *MemoryCache) Set(ctx context.Context, key string, val string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryCacheEntry{val: val, expiresAt: c.now().Add(ttl)}
}
