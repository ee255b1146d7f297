package api

import (
	"sync"
	"time"
)

// responseCache holds built stock responses for a short TTL so request
// bursts for the same symbol do not all reach the upstream.
type responseCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	resp    stockResponse
	expires time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &responseCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *responseCache) get(key string) (stockResponse, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		return stockResponse{}, false
	}
	return entry.resp, true
}

func (c *responseCache) set(key string, resp stockResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Expired entries for other keys are evicted lazily here rather
	// than by a sweeper goroutine.
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{resp: resp, expires: now.Add(c.ttl)}
}

func (c *responseCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
