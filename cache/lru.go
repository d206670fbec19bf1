// Package cache holds translations in memory and, optionally, on disk.
package cache

import (
	"log/slog"
	"sync"

	"github.com/golang/groupcache/lru"
)

// DefaultCapacity is the number of translations kept in memory by default.
const DefaultCapacity = 100

// LRU is a bounded map from normalized source text to translated text.
// When full, inserting a new key evicts the least recently used entry.
// It is safe for concurrent use.
type LRU struct {
	mu       sync.Mutex
	capacity int
	entries  *lru.Cache
}

// NewLRU returns an empty LRU holding at most capacity entries.
// Capacities below one are raised to one.
func NewLRU(capacity int) *LRU {
	capacity = max(capacity, 1)
	entries := lru.New(capacity)
	entries.OnEvicted = func(key lru.Key, _ any) {
		slog.Debug("translation evicted", "key", key)
	}
	return &LRU{capacity: capacity, entries: entries}
}

// Get returns the translation stored under key and marks it most recently used.
func (c *LRU) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries.Get(key)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Put stores value under key and marks it most recently used.
func (c *LRU) Put(key, value string) {
	c.mu.Lock()
	c.entries.Add(key, value)
	c.mu.Unlock()
}

// Clear removes every entry. The capacity is unchanged.
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// lru.Cache.Clear reports every entry to OnEvicted, which is not an eviction.
	onEvicted := c.entries.OnEvicted
	c.entries = lru.New(c.capacity)
	c.entries.OnEvicted = onEvicted
}

// Len returns the number of entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Cap returns the maximum number of entries.
func (c *LRU) Cap() int {
	return c.capacity
}
