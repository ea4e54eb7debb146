// Package cache provides a bounded least-recently-used cache for conversion
// results.
package cache

import (
	"container/list"
	"sync"
)

// Stats represents cache statistics.
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Size      int     `json:"size"`
	MaxSize   int     `json:"max_size"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}

// LRU is a fixed-size cache safe for concurrent use. The least recently read
// or written entry is evicted first.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	maxSize int
	ll      *list.List
	data    map[K]*list.Element
	stats   Stats
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// New creates an LRU holding at most maxSize entries. maxSize must be
// positive.
func New[K comparable, V any](maxSize int) *LRU[K, V] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRU[K, V]{
		maxSize: maxSize,
		ll:      list.New(),
		data:    make(map[K]*list.Element),
		stats:   Stats{MaxSize: maxSize},
	}
}

// Get retrieves a value and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.data[key]
	if !ok {
		c.stats.Misses++
		c.updateHitRate()
		var zero V
		return zero, false
	}
	c.ll.MoveToFront(el)
	c.stats.Hits++
	c.updateHitRate()
	return el.Value.(*entry[K, V]).value, true
}

// Set stores a value, evicting the least recently used entry when full.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.data[key]; ok {
		el.Value.(*entry[K, V]).value = value
		c.ll.MoveToFront(el)
		return
	}

	if c.ll.Len() >= c.maxSize {
		if oldest := c.ll.Back(); oldest != nil {
			c.ll.Remove(oldest)
			delete(c.data, oldest.Value.(*entry[K, V]).key)
			c.stats.Evictions++
		}
	}
	c.data[key] = c.ll.PushFront(&entry[K, V]{key: key, value: value})
	c.stats.Size = c.ll.Len()
}

// Invalidate removes a key.
func (c *LRU[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.data[key]; ok {
		c.ll.Remove(el)
		delete(c.data, key)
		c.stats.Size = c.ll.Len()
	}
}

// Clear removes all entries and resets statistics.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ll.Init()
	c.data = make(map[K]*list.Element)
	c.stats = Stats{MaxSize: c.maxSize}
}

// Len returns the number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// GetStats returns cache statistics.
func (c *LRU[K, V]) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *LRU[K, V]) updateHitRate() {
	total := c.stats.Hits + c.stats.Misses
	if total > 0 {
		c.stats.HitRate = float64(c.stats.Hits) / float64(total)
	}
}
