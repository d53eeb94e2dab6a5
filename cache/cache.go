/*
Package cache provides an injected TTL cache for read-heavy list endpoints.

PURPOSE:
  Replaces module-level memoization maps with an explicit service that
  handlers receive as a dependency. Lifecycle and test isolation become
  explicit: tests construct their own cache with a fake clock, production
  wires one per concern with a fixed TTL.

SEMANTICS:
  - Get returns (zero, false) for missing or expired entries
  - Set overwrites unconditionally
  - Invalidate / InvalidateAll are called on every write path; there is
    no coherence protocol beyond that
  - StartJanitor sweeps expired entries in the background until the
    context is cancelled
*/
package cache

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts time.Now for tests.
type Clock func() time.Time

// Cache is a TTL memoization table keyed by K.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     Clock
	entries map[K]entry[V]
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// New creates a cache with the given TTL using the wall clock.
func New[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	return NewWithClock[K, V](ttl, time.Now)
}

// NewWithClock creates a cache with an injected clock.
func NewWithClock[K comparable, V any](ttl time.Duration, now Clock) *Cache[K, V] {
	return &Cache[K, V]{
		ttl:     ttl,
		now:     now,
		entries: make(map[K]entry[V]),
	}
}

// Get returns the cached value when present and unexpired.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value, resetting its TTL.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Invalidate removes one key.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidateAll empties the cache. Write paths that affect many keys
// (bulk deletes, state transitions) use this instead of enumerating.
func (c *Cache[K, V]) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]entry[V])
}

// Len returns the number of entries, expired ones included.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// StartJanitor launches a background sweep of expired entries every
// interval, stopping when ctx is cancelled.
func (c *Cache[K, V]) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
}

func (c *Cache[K, V]) sweep() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}
