// Package cache implements the in-memory caching tiers of the plot service:
// a bounded LRU store with optional per-entry TTL, specializations for
// tabular and figure payloads, key template rendering, and the manager facade
// the orchestrator talks to.
package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

const defaultMaxSize = 256

// Stats is a point-in-time snapshot of a cache tier.
type Stats struct {
	CurrentSize  int
	MaxSize      int
	DefaultTTL   time.Duration
	UsagePercent float64
}

type memoryEntry[V any] struct {
	key   string
	value V
	// expiresAt is zero when the entry never expires.
	expiresAt time.Time
}

// Memory is a capacity-bounded key-value store with LRU eviction and lazy
// TTL expiry. Get and Set both touch recency ordering, so every operation
// takes the same mutex. None of the operations return errors; absence is a
// normal result.
type Memory[V any] struct {
	mu         sync.Mutex
	maxSize    int
	defaultTTL time.Duration

	order *list.List
	items map[string]*list.Element
}

// NewMemory builds a cache holding at most maxSize entries. A defaultTTL of
// zero or less means entries never expire unless Set is given a positive TTL.
func NewMemory[V any](maxSize int, defaultTTL time.Duration) *Memory[V] {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	if defaultTTL < 0 {
		defaultTTL = 0
	}
	return &Memory[V]{
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		order:      list.New(),
		items:      make(map[string]*list.Element),
	}
}

// Get returns the value for key and marks it most recently used. An entry
// past its expiry is removed and reported absent.
func (c *Memory[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	entry := elem.Value.(*memoryEntry[V])
	if entry.expired(time.Now()) {
		c.removeElement(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return entry.value, true
}

// Set stores value under key using the cache default TTL.
func (c *Memory[V]) Set(key string, value V) {
	c.SetTTL(key, value, c.defaultTTL)
}

// SetTTL stores value under key with an explicit TTL; ttl <= 0 means the
// entry never expires. Inserting a new key at capacity evicts the least
// recently used entry first. Writing always marks the key most recently used.
func (c *Memory[V]) SetTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*memoryEntry[V])
		entry.value = value
		entry.expiresAt = expiresAt
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
	elem := c.order.PushFront(&memoryEntry[V]{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = elem
}

// Delete removes key, reporting whether an entry was present.
func (c *Memory[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeElement(elem)
	return true
}

// DeletePrefix removes every entry whose key starts with prefix and reports
// how many were dropped. An empty prefix removes nothing.
func (c *Memory[V]) DeletePrefix(prefix string) int {
	if prefix == "" {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, elem := range c.items {
		if strings.HasPrefix(key, prefix) {
			c.removeElement(elem)
			removed++
		}
	}
	return removed
}

// Clear removes all entries.
func (c *Memory[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[string]*list.Element)
}

// Exists reports whether key holds a live entry, with the same lazy-expiry
// side effect as Get but without touching recency.
func (c *Memory[V]) Exists(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return false
	}
	if elem.Value.(*memoryEntry[V]).expired(time.Now()) {
		c.removeElement(elem)
		return false
	}
	return true
}

// Len reports the current entry count, expired-but-unswept entries included.
func (c *Memory[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats snapshots the tier's occupancy.
func (c *Memory[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	size := c.order.Len()
	return Stats{
		CurrentSize:  size,
		MaxSize:      c.maxSize,
		DefaultTTL:   c.defaultTTL,
		UsagePercent: float64(size) / float64(c.maxSize) * 100,
	}
}

func (c *Memory[V]) removeElement(elem *list.Element) {
	entry := elem.Value.(*memoryEntry[V])
	c.order.Remove(elem)
	delete(c.items, entry.key)
}

func (e *memoryEntry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}
