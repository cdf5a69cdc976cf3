// Package cache provides a time-bounded key/value store used to protect
// outbound market-data calls from being repeated within a freshness window.
package cache

import (
	"sync"
	"time"
)

// Entry is a stored payload together with its insertion time. Validity is
// evaluated at read time; there is no background sweep.
type Entry[T any] struct {
	Data     T
	StoredAt time.Time
}

// Cache is a mutex-guarded TTL cache. A maxEntries of 0 leaves the cache
// unbounded; otherwise Set evicts the oldest-inserted key once the bound
// would be exceeded.
type Cache[T any] struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[string]Entry[T]
	order      []string
	now        func() time.Time
}

func New[T any](ttl time.Duration, maxEntries int) *Cache[T] {
	return &Cache[T]{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]Entry[T]),
		now:        time.Now,
	}
}

// SetClock overrides the cache's notion of now. Tests only.
func (c *Cache[T]) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *Cache[T]) Get(key string) (Entry[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	return entry, ok
}

// Lookup returns the stored payload only if the entry exists and is still
// inside the freshness window.
func (c *Cache[T]) Lookup(key string) (T, bool) {
	entry, ok := c.Get(key)
	if !ok || !c.Valid(entry) {
		var zero T
		return zero, false
	}
	return entry.Data, true
}

func (c *Cache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = Entry[T]{Data: data, StoredAt: c.now()}

	for c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

func (c *Cache[T]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Valid reports whether the entry's age is inside the freshness window.
// The zero Entry is never valid.
func (c *Cache[T]) Valid(entry Entry[T]) bool {
	if entry.StoredAt.IsZero() {
		return false
	}
	c.mu.Lock()
	now := c.now()
	c.mu.Unlock()
	return now.Sub(entry.StoredAt) < c.ttl
}

func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns the cached keys in insertion order.
func (c *Cache[T]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
