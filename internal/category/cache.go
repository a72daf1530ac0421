// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// cache.go provides the in-process read-path cache (L1). Listing
// queries are keyed by a deterministic signature, stored with a TTL,
// and invalidated by the mutation engine after every committed write.
// Expired entries are recomputed on next access; Sweep may drop them
// opportunistically to bound memory.
package category

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultTTL is how long a cached listing stays fresh.
	DefaultTTL = 10 * time.Minute

	// DefaultSlowQuery is the latency above which a query execution is
	// flagged for operator review.
	DefaultSlowQuery = 100 * time.Millisecond

	// queryLogSize bounds the rolling log of recent query executions.
	queryLogSize = 50

	// slowLogSize bounds the retained slow-query list.
	slowLogSize = 20
)

// QueryExecution records one execution of a listing query.
type QueryExecution struct {
	Key      string        `json:"key"`
	Duration time.Duration `json:"duration"`
	Hit      bool          `json:"hit"`
	At       time.Time     `json:"at"`
}

// CacheStats is the instrumentation snapshot exposed to operators.
type CacheStats struct {
	Hits        uint64           `json:"hits"`
	Misses      uint64           `json:"misses"`
	Size        int              `json:"size"`
	HitRate     float64          `json:"hit_rate"`
	SlowQueries []QueryExecution `json:"slow_queries"`
	Recent      []QueryExecution `json:"recent"`
}

type cacheEntry struct {
	value    any
	storedAt time.Time
}

// QueryCache is a concurrency-safe TTL cache for listing query results.
// Instances are constructed and owned by the caller; there is no
// package-level singleton, so independent instances (e.g. in tests) do
// not interfere.
type QueryCache struct {
	mu            sync.RWMutex
	entries       map[string]cacheEntry
	ttl           time.Duration
	slowThreshold time.Duration

	hits   uint64
	misses uint64
	log    []QueryExecution
	slow   []QueryExecution
}

// NewQueryCache creates an empty cache. Zero values fall back to the
// defaults.
func NewQueryCache(ttl, slowThreshold time.Duration) *QueryCache {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if slowThreshold == 0 {
		slowThreshold = DefaultSlowQuery
	}
	return &QueryCache{
		entries:       make(map[string]cacheEntry),
		ttl:           ttl,
		slowThreshold: slowThreshold,
	}
}

// Key builds the deterministic cache signature for a query type and its
// parameters, e.g. "tree|includeInactive=false|includeCount=true".
func Key(queryType string, params ...string) string {
	key := queryType
	for _, p := range params {
		key += "|" + p
	}
	return key
}

// Get returns the cached value for a key if present and not expired.
func (c *QueryCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || time.Since(e.storedAt) > c.ttl {
		return nil, false
	}
	return e.value, true
}

// Put stores a computed value with the current timestamp.
func (c *QueryCache) Put(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: v, storedAt: time.Now()}
}

// Record accounts for one query execution: hit/miss counters, the
// rolling execution log, and the slow-query list.
func (c *QueryCache) Record(key string, d time.Duration, hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	exec := QueryExecution{Key: key, Duration: d, Hit: hit, At: time.Now()}
	c.log = append(c.log, exec)
	if len(c.log) > queryLogSize {
		c.log = c.log[len(c.log)-queryLogSize:]
	}
	if d > c.slowThreshold {
		slog.Warn("slow category query", "key", key, "duration", d.String())
		c.slow = append(c.slow, exec)
		if len(c.slow) > slowLogSize {
			c.slow = c.slow[len(c.slow)-slowLogSize:]
		}
	}
}

// InvalidatePrefix removes every entry whose key starts with the given
// prefix. Invalidation is deliberately conservative: dropping more than
// strictly necessary is fine, serving stale data is not.
func (c *QueryCache) InvalidatePrefix(prefixes ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var dropped int
	for key := range c.entries {
		for _, p := range prefixes {
			if len(key) >= len(p) && key[:len(p)] == p {
				delete(c.entries, key)
				dropped++
				break
			}
		}
	}
	if dropped > 0 {
		slog.Debug("query cache invalidated", "dropped", dropped)
	}
	return dropped
}

// Clear empties the cache. Counters and logs survive; they describe the
// lifetime of the instance, not of its contents.
func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Sweep drops expired entries and returns how many were removed.
func (c *QueryCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var dropped int
	for key, e := range c.entries {
		if time.Since(e.storedAt) > c.ttl {
			delete(c.entries, key)
			dropped++
		}
	}
	return dropped
}

// Stats returns the current instrumentation snapshot.
func (c *QueryCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := CacheStats{
		Hits:        c.hits,
		Misses:      c.misses,
		Size:        len(c.entries),
		SlowQueries: append([]QueryExecution(nil), c.slow...),
		Recent:      append([]QueryExecution(nil), c.log...),
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}
	return stats
}

// boolParam formats a boolean query parameter for Key.
func boolParam(name string, v bool) string {
	return fmt.Sprintf("%s=%t", name, v)
}
