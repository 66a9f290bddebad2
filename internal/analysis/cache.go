package analysis

import (
	"sync"
	"sync/atomic"
	"time"
)

// resultCache memoizes recent analysis results so repeated requests against
// the same catalog snapshot do not re-run an O(n²) kernel. Entries expire
// after a TTL and the cache is bounded by entry count.
type resultCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]*cacheEntry

	ttl        time.Duration
	maxEntries int

	hits   atomic.Int64
	misses atomic.Int64
}

// cacheKey identifies one analysis over one dataset generation.
type cacheKey struct {
	kernel      string
	thresholdKm float64
	datasetAt   time.Time
}

type cacheEntry struct {
	result   any
	storedAt time.Time
}

func newResultCache(ttl time.Duration, maxEntries int) *resultCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 16
	}
	return &resultCache{
		entries:    make(map[cacheKey]*cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

func (c *resultCache) get(key cacheKey, now time.Time) (any, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || now.Sub(entry.storedAt) > c.ttl {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return entry.result, true
}

func (c *resultCache) put(key cacheKey, result any, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Drop expired entries first; if still over budget, evict the oldest.
	for k, e := range c.entries {
		if now.Sub(e.storedAt) > c.ttl {
			delete(c.entries, k)
		}
	}
	if len(c.entries) >= c.maxEntries {
		var oldestKey cacheKey
		var oldest time.Time
		first := true
		for k, e := range c.entries {
			if first || e.storedAt.Before(oldest) {
				oldestKey, oldest = k, e.storedAt
				first = false
			}
		}
		delete(c.entries, oldestKey)
	}

	c.entries[key] = &cacheEntry{result: result, storedAt: now}
}

// CacheStats reports cache effectiveness for the stats endpoint.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

func (c *resultCache) stats() CacheStats {
	c.mu.RLock()
	entries := len(c.entries)
	c.mu.RUnlock()
	return CacheStats{
		Entries: entries,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
