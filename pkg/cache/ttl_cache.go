// Package cache provides a generic in-memory TTL cache.
//
// Every entry carries an expiry time. Reads never return an expired entry;
// a background janitor removes them from the map periodically so memory does
// not grow with abandoned keys.
//
// The session store keeps every browser session in one of these caches with
// a sliding TTL: each access pushes the expiry forward via Touch.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is a thread-safe map whose entries expire.
//
//	c := cache.New[string, int](30*time.Second, 5*time.Minute)
//	defer c.Close()
//	c.Set("key", 42)
//	v, ok := c.Get("key")
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration
	now     func() time.Time

	onEvict func(key K, value V)

	stopCleanup chan struct{}
	closeOnce   sync.Once
	done        chan struct{}
}

// Option customizes a TTLCache.
type Option[K comparable, V any] func(*TTLCache[K, V])

// WithClock replaces time.Now, for tests.
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *TTLCache[K, V]) { c.now = now }
}

// WithEvictCallback registers fn to run for every entry the janitor removes.
// fn runs outside the cache lock.
func WithEvictCallback[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(c *TTLCache[K, V]) { c.onEvict = fn }
}

// New creates a cache and starts its janitor.
//
// cleanupInterval should be shorter than ttl, otherwise expired entries pile
// up in the map between sweeps.
func New[K comparable, V any](ttl, cleanupInterval time.Duration, opts ...Option[K, V]) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		entries:     make(map[K]entry[V]),
		ttl:         ttl,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go func() {
		defer close(c.done)

		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.evictExpired()
			case <-c.stopCleanup:
				return
			}
		}
	}()

	return c
}

// Get returns the value for key if present and not expired.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with a fresh TTL.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Touch returns the value for key and extends its expiry by a full TTL.
// Expired entries are not revived.
func (c *TTLCache[K, V]) Touch(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e, ok := c.entries[key]
	if !ok || now.After(e.expiresAt) {
		var zero V
		return zero, false
	}
	e.expiresAt = now.Add(c.ttl)
	c.entries[key] = e
	return e.value, true
}

// Delete removes key.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// DeleteFunc removes every key for which predicate returns true.
func (c *TTLCache[K, V]) DeleteFunc(predicate func(key K) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if predicate(key) {
			delete(c.entries, key)
		}
	}
}

// Clear empties the cache.
func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]entry[V])
}

// Len counts entries, expired ones included.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Close stops the janitor and waits for it to exit. Safe to call twice.
func (c *TTLCache[K, V]) Close() {
	c.closeOnce.Do(func() {
		close(c.stopCleanup)
	})
	<-c.done
}

func (c *TTLCache[K, V]) evictExpired() {
	type evicted struct {
		key   K
		value V
	}
	var gone []evicted

	c.mu.Lock()
	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			if c.onEvict != nil {
				gone = append(gone, evicted{key, e.value})
			}
		}
	}
	c.mu.Unlock()

	for _, g := range gone {
		c.onEvict(g.key, g.value)
	}
}
