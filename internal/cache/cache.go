// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package cache memoises parsed capability queries in memory with TTL expiry.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/canplay/internal/capability"
)

// Stats holds cache performance counters.
type Stats struct {
	Hits        int64 // Number of successful lookups
	Misses      int64 // Number of failed lookups (not found or expired)
	Sets        int64
	Evictions   int64 // Entries removed by expiry or capacity pressure
	CurrentSize int
}

type entry struct {
	query      capability.MimeQuery
	expiration time.Time
}

func (e *entry) expired(now time.Time) bool {
	return now.After(e.expiration)
}

// QueryCache is an in-memory capability.QueryCache.
type QueryCache struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	hits, misses, sets, evictions atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Config controls expiry and capacity.
type Config struct {
	TTL             time.Duration
	MaxEntries      int           // 0 means unbounded
	CleanupInterval time.Duration // 0 disables the janitor goroutine
}

// New creates a query cache. When CleanupInterval is positive a janitor
// goroutine removes expired entries until Stop is called.
func New(cfg Config) *QueryCache {
	c := &QueryCache{
		entries:    make(map[string]*entry),
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		now:        time.Now,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go c.janitor(cfg.CleanupInterval)
	} else {
		close(c.done)
	}
	return c
}

// GetQuery implements capability.QueryCache.
func (c *QueryCache) GetQuery(raw string) (capability.MimeQuery, bool) {
	c.mu.RLock()
	e, found := c.entries[raw]
	c.mu.RUnlock()

	if !found || e.expired(c.now()) {
		c.misses.Add(1)
		return capability.MimeQuery{}, false
	}
	c.hits.Add(1)
	return e.query, true
}

// SetQuery implements capability.QueryCache.
func (c *QueryCache) SetQuery(raw string, q capability.MimeQuery) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[raw]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[raw] = &entry{query: q, expiration: c.now().Add(c.ttl)}
	c.sets.Add(1)
}

// evictLocked drops expired entries, or the entry closest to expiry when
// none have expired.
func (c *QueryCache) evictLocked() {
	if n := c.deleteExpiredLocked(); n > 0 {
		return
	}
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	// "" is a valid key: an empty type query is cached like any other
	for k, e := range c.entries {
		if !found || e.expiration.Before(oldest) {
			oldestKey, oldest, found = k, e.expiration, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
		c.evictions.Add(1)
	}
}

func (c *QueryCache) deleteExpiredLocked() int {
	now := c.now()
	count := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			count++
		}
	}
	c.evictions.Add(int64(count))
	return count
}

// DeleteExpired removes all expired entries and returns how many were removed.
func (c *QueryCache) DeleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deleteExpiredLocked()
}

// Clear removes all entries.
func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// Stats returns a snapshot of the counters.
func (c *QueryCache) Stats() Stats {
	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()

	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Sets:        c.sets.Load(),
		Evictions:   c.evictions.Load(),
		CurrentSize: size,
	}
}

// Stop terminates the janitor goroutine and waits for it to exit.
func (c *QueryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

func (c *QueryCache) janitor(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.DeleteExpired()
		case <-c.stop:
			return
		}
	}
}

var _ capability.QueryCache = (*QueryCache)(nil)
