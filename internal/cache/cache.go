// Package cache holds short-lived copies of admin API responses.
package cache

import (
	"sync"
	"time"
)

// CacheStats represents cache statistics
type CacheStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Size    int     `json:"size"`
	HitRate float64 `json:"hit_rate"`
}

type entry[V any] struct {
	value   V
	expires time.Time
}

// TTL is a bounded map whose entries expire a fixed time after they are
// written. Expired entries are dropped lazily.
type TTL[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	entries map[string]entry[V]
	now     func() time.Time

	hits   int64
	misses int64
}

// NewTTL creates a cache holding at most maxSize entries for ttl each
func NewTTL[V any](ttl time.Duration, maxSize int) *TTL[V] {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &TTL[V]{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

// Get returns the live value for key.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && !c.now().Before(e.expires) {
		delete(c.entries, key)
		ok = false
	}
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	return e.value, true
}

// Set stores value under key, evicting the entry closest to expiry when
// the cache is full.
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evict(now)
	}
	c.entries[key] = entry[V]{value: value, expires: now.Add(c.ttl)}
}

// Invalidate drops key.
func (c *TTL[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len counts stored entries, including expired ones not yet dropped.
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns hit and miss counters
func (c *TTL[V]) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{Hits: c.hits, Misses: c.misses, Size: len(c.entries)}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}
	return stats
}

func (c *TTL[V]) evict(now time.Time) {
	var (
		victim  string
		soonest time.Time
	)
	for key, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, key)
			continue
		}
		if victim == "" || e.expires.Before(soonest) {
			victim, soonest = key, e.expires
		}
	}
	if len(c.entries) >= c.maxSize && victim != "" {
		delete(c.entries, victim)
	}
}
