// ABOUTME: Thread-safe TTL cache remembering the result of idempotent requests.
// ABOUTME: Used by the send endpoint so a retried message is answered with the same reply.

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// cacheEntry stores the value, its timestamp and list element for a cached key.
type cacheEntry[V any] struct {
	value     V
	timestamp time.Time
	element   *list.Element
}

// Cache is a thread-safe, TTL-based, size-limited map from request keys to
// results. Uses a doubly-linked list to maintain insertion order for O(1)
// eviction.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry[V]
	order   *list.List // List of keys in insertion order (oldest at front)
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	done    chan struct{}
	closed  bool
}

// New creates a new cache with the specified TTL and maximum size.
// A background goroutine periodically cleans up expired entries.
func New[V any](ttl time.Duration, maxSize int) *Cache[V] {
	c := newCache[V](ttl, maxSize, time.Now)
	go c.cleanup()
	return c
}

func newCache[V any](ttl time.Duration, maxSize int, now func() time.Time) *Cache[V] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Cache[V]{
		entries: make(map[string]*cacheEntry[V]),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     now,
		done:    make(chan struct{}),
	}
}

// Key joins a scope (such as a user ID) and a client supplied key so that
// different users can never collide.
func Key(scope, key string) string {
	return scope + "\x00" + key
}

// Get returns the value stored under key if it has not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.now().Sub(entry.timestamp) >= c.ttl {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Put stores value under key. If the cache is at capacity, the oldest entry
// is evicted to make room.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	// If key already exists, replace it and move to back
	if entry, exists := c.entries[key]; exists {
		entry.value = value
		entry.timestamp = now
		c.order.MoveToBack(entry.element)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	elem := c.order.PushBack(key)
	c.entries[key] = &cacheEntry[V]{
		value:     value,
		timestamp: now,
		element:   elem,
	}
}

// Len returns the number of entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictOldest removes the oldest entry from the cache.
// Must be called with mu held.
func (c *Cache[V]) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}

	key, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.entries, key)
}

// cleanup runs in a background goroutine, periodically removing expired entries.
func (c *Cache[V]) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runCleanup()
		case <-c.done:
			return
		}
	}
}

// runCleanup removes all expired entries from the cache.
func (c *Cache[V]) runCleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if now.Sub(entry.timestamp) >= c.ttl {
			c.order.Remove(entry.element)
			delete(c.entries, key)
		}
	}
}

// Close stops the background cleanup goroutine. It is safe to call multiple times.
func (c *Cache[V]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
