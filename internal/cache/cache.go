// Package cache provides BoundedCache, a fixed-capacity, recency-ordered
// cache used for archive handles and search results.
//
// The recency order is strict: every Get hit and every Put moves the key
// to the most-recently-used position, and inserting a new key into a full
// cache evicts exactly the least-recently-used entry before the insert
// completes. All methods are safe for concurrent use.
//
// Entries that hold resources (open archives) register a release hook
// which runs for every value leaving the cache: capacity eviction,
// replacement by a different value, Remove and Clear. Finalisers are never
// relied upon.
package cache

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrInvalidCapacity is returned when a cache is created with a
// non-positive capacity.
var ErrInvalidCapacity = errors.New("cache: capacity must be positive")

// Observer receives cache events, typically to update metrics.
type Observer interface {
	Hit()
	Miss()
	Evict()
}

// Stats contains counters about cache usage.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	Capacity  int
}

// Option configures a BoundedCache.
type Option[K comparable, V any] func(*BoundedCache[K, V])

// WithReleaseHook registers fn to run for every value that leaves the
// cache. Putting the value a key already holds releases nothing. fn must
// not call back into the cache.
func WithReleaseHook[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(c *BoundedCache[K, V]) {
		c.release = fn
	}
}

// WithObserver reports hits, misses and capacity evictions to o.
func WithObserver[K comparable, V any](o Observer) Option[K, V] {
	return func(c *BoundedCache[K, V]) {
		c.observer = o
	}
}

// BoundedCache is a generic LRU cache with a fixed capacity.
type BoundedCache[K comparable, V any] struct {
	// mu serialises writers so replacement and eviction hooks observe a
	// consistent view. Readers go straight to the lru, which has its own lock.
	mu       sync.Mutex
	lru      *lru.Cache[K, V]
	capacity int
	release  func(K, V)
	observer Observer

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// New creates a cache holding at most capacity entries.
// Returns ErrInvalidCapacity if capacity <= 0.
func New[K comparable, V any](capacity int, opts ...Option[K, V]) (*BoundedCache[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}

	c := &BoundedCache[K, V]{capacity: capacity}
	for _, opt := range opts {
		opt(c)
	}

	inner, err := lru.NewWithEvict[K, V](capacity, c.onEvict)
	if err != nil {
		return nil, fmt.Errorf("creating lru: %w", err)
	}
	c.lru = inner
	return c, nil
}

// onEvict runs for capacity evictions, Remove and Purge.
func (c *BoundedCache[K, V]) onEvict(key K, value V) {
	if c.release != nil {
		c.release(key, value)
	}
}

// Get returns the value for key and marks it most recently used.
// A miss has no side effect on the cache contents.
func (c *BoundedCache[K, V]) Get(key K) (V, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
		if c.observer != nil {
			c.observer.Hit()
		}
		return v, true
	}
	c.misses.Add(1)
	if c.observer != nil {
		c.observer.Miss()
	}
	return v, false
}

// Peek returns the value for key without touching its recency.
func (c *BoundedCache[K, V]) Peek(key K) (V, bool) {
	return c.lru.Peek(key)
}

// Contains reports whether key is cached without touching its recency.
func (c *BoundedCache[K, V]) Contains(key K) bool {
	return c.lru.Contains(key)
}

// Put inserts or replaces the value for key and marks it most recently
// used. When a new key is added to a full cache, the least recently used
// entry is evicted first. A replaced value is passed to the release hook
// unless it is the value being stored.
func (c *BoundedCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old, replaced := c.lru.Peek(key)
	if c.lru.Add(key, value) {
		c.evicted()
	}
	if replaced && c.release != nil && !sameValue(old, value) {
		c.release(key, old)
	}
}

// sameValue reports whether a and b are equal comparable values. Values
// that cannot be compared, such as slices, are never the same.
func sameValue[V any](a, b V) bool {
	av, bv := any(a), any(b)
	if av == nil || bv == nil {
		return av == nil && bv == nil
	}
	if !reflect.ValueOf(av).Comparable() || !reflect.ValueOf(bv).Comparable() {
		return false
	}
	return av == bv
}

// PutIfAbsent stores value only if key is not cached. It returns the
// cached value and true when key was already present, in which case the
// existing entry becomes most recently used and value is not stored.
func (c *BoundedCache[K, V]) PutIfAbsent(key K, value V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.lru.Get(key); ok {
		return existing, true
	}
	if c.lru.Add(key, value) {
		c.evicted()
	}
	var zero V
	return zero, false
}

func (c *BoundedCache[K, V]) evicted() {
	c.evictions.Add(1)
	if c.observer != nil {
		c.observer.Evict()
	}
}

// Remove deletes key, releasing its value. Reports whether key was present.
func (c *BoundedCache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Remove(key)
}

// Clear removes every entry, releasing each value.
func (c *BoundedCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Len returns the number of cached entries.
func (c *BoundedCache[K, V]) Len() int {
	return c.lru.Len()
}

// Capacity returns the configured capacity.
func (c *BoundedCache[K, V]) Capacity() int {
	return c.capacity
}

// Keys returns the cached keys from least to most recently used.
func (c *BoundedCache[K, V]) Keys() []K {
	return c.lru.Keys()
}

// Stats returns a snapshot of the cache counters.
func (c *BoundedCache[K, V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.lru.Len(),
		Capacity:  c.capacity,
	}
}
