package settings

import (
	"encoding/json"
	"sync"
	"time"
)

// DefaultTTL bounds how stale a cached settings blob may get.
const DefaultTTL = 5 * time.Minute

type cacheEntry struct {
	value     json.RawMessage
	expiresAt time.Time
}

// Cache is an in-process TTL cache for per-shop metafield values. It is
// constructed once at startup and handed to the services that need it; each
// process has its own copy, so cross-process staleness is bounded only by
// the TTL. Entries are evicted lazily on read, never swept.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	defaultTTL time.Duration
	now        func() time.Time
}

// NewCache constructs a cache with the given default TTL. A non-positive TTL
// falls back to DefaultTTL.
func NewCache(defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Cache{
		entries:    make(map[string]cacheEntry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Read returns the cached value for (shop, key) if it has not expired.
// Expired entries are deleted on the way out. A missing shop always misses:
// values are never cached without a tenant scope.
func (c *Cache) Read(shop, key string) (json.RawMessage, bool) {
	cacheKey, ok := scopedKey(shop, key)
	if !ok {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[cacheKey]
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, cacheKey)
		return nil, false
	}
	return entry.value, true
}

// Write stores the value with a fresh expiry, overwriting any prior entry.
// A non-positive ttl uses the cache default.
func (c *Cache) Write(shop, key string, value json.RawMessage, ttl time.Duration) {
	cacheKey, ok := scopedKey(shop, key)
	if !ok {
		return
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey] = cacheEntry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

// Invalidate removes the entry unconditionally. Every write-through to the
// backing store calls this for the written key; mutation paths that bypass
// the cache must do the same.
func (c *Cache) Invalidate(shop, key string) {
	cacheKey, ok := scopedKey(shop, key)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey)
}

func scopedKey(shop, key string) (string, bool) {
	if shop == "" {
		return "", false
	}
	return shop + "|" + key, true
}
