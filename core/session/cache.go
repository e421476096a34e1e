package session

import "sync"

type cacheKey struct {
	Kind string
	ID   string
}

// Cache is a process-wide read-through snapshot cache keyed by
// (entity kind, identity). It is overwritten on every successful write and
// is never authoritative. Cardinality is bounded by the entity population,
// so there is no eviction policy.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]any
}

// NewCache constructs an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]any)}
}

// Get returns the cached snapshot for (kind, id), if any.
func (c *Cache) Get(kind, id string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[cacheKey{Kind: kind, ID: id}]
	return v, ok
}

// Put overwrites the cached snapshot for (kind, id).
func (c *Cache) Put(kind, id string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey{Kind: kind, ID: id}] = value
}

// Invalidate drops the cached snapshot for (kind, id).
func (c *Cache) Invalidate(kind, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey{Kind: kind, ID: id})
}

// Len reports the number of cached snapshots.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
