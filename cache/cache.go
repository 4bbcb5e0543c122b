// Package cache provides a size-bounded FIFO lookup cache with periodic full
// invalidation. Eviction order is pure insertion order: reads never promote
// an entry, and replacing a key resets its position to most-recently-inserted.
package cache

import (
	"fmt"
	"sync"
)

// state is the whole cache content. Clear swaps it in one step so a
// concurrent reader never observes a partially-cleared cache.
type state[V any] struct {
	entries map[string]V
	order   []string
}

func newState[V any](capacity int) *state[V] {
	return &state[V]{
		entries: make(map[string]V, capacity),
		order:   make([]string, 0, capacity),
	}
}

// Cache is a bounded FIFO mapping. The zero value is not usable; construct
// it with New and inject it where it is needed. It is safe for concurrent
// use: the evict-then-insert sequence runs under one lock, so two concurrent
// Sets cannot jointly exceed capacity or desync the order from the map.
type Cache[V any] struct {
	mu      sync.Mutex
	maxSize int
	state   *state[V]
}

func New[V any](maxSize int) (*Cache[V], error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("cache: max size must be positive, got %d", maxSize)
	}
	return &Cache[V]{
		maxSize: maxSize,
		state:   newState[V](maxSize),
	}, nil
}

// Set inserts or replaces. A replaced key moves to the most-recently-inserted
// position. Inserting a new key at capacity evicts the single
// oldest-inserted key first.
func (c *Cache[V]) Set(key string, value V) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state
	if _, exists := st.entries[key]; exists {
		st.order = removeKey(st.order, key)
	} else if len(st.order) >= c.maxSize {
		oldest := st.order[0]
		st.order = st.order[1:]
		delete(st.entries, oldest)
	}
	st.order = append(st.order, key)
	st.entries[key] = value
}

// Get returns the stored value and whether it was present. Reads do not
// touch the eviction order.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.state.entries[key]
	if !ok {
		return zero, false
	}
	return value, true
}

// Delete removes the key if present.
func (c *Cache[V]) Delete(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state
	if _, ok := st.entries[key]; !ok {
		return
	}
	delete(st.entries, key)
	st.order = removeKey(st.order, key)
}

// Clear empties the cache by swapping in a fresh state.
func (c *Cache[V]) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.state = newState[V](c.maxSize)
	c.mu.Unlock()
}

// Keys returns the retained keys in insertion order, oldest first.
func (c *Cache[V]) Keys() []string {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.state.order...)
}

// Len reports the number of retained entries.
func (c *Cache[V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.state.entries)
}

// MaxSize reports the configured capacity.
func (c *Cache[V]) MaxSize() int {
	if c == nil {
		return 0
	}
	return c.maxSize
}

func removeKey(order []string, key string) []string {
	for i, candidate := range order {
		if candidate == key {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
