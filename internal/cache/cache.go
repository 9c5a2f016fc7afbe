// Package cache provides a process-local TTL key-value cache for the
// upstream proxy layer. Entries live only as long as the process; the
// cache never persists anything.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is a TTL map safe for concurrent use. The zero value is not
// usable; create instances with New.
type Cache struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// Get returns the cached value for key and whether a live entry
// exists. Expired entries are treated as absent.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()

	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Put stores value under key for ttl. A non-positive ttl removes any
// existing entry.
func (c *Cache) Put(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		delete(c.data, key)
		return
	}
	c.data[key] = entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

// Len returns the number of entries, including any not yet swept.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Sweep removes expired entries and returns how many were dropped.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	dropped := 0
	for key, e := range c.data {
		if now.After(e.expiresAt) {
			delete(c.data, key)
			dropped++
		}
	}
	return dropped
}

// Janitor sweeps the cache on the given interval until ctx is
// cancelled. Get already hides expired entries; the janitor only
// bounds memory growth.
func (c *Cache) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}
