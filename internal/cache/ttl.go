// Package cache provides a small in-process TTL cache. Callers construct
// and inject their own instance; there is no package-level state.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a mutex-guarded expiring key/value map. Entries expire ttl after
// they were last Set; expired entries are dropped lazily on access.
type TTL[V any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]entry[V]
}

// New returns a TTL cache using the wall clock.
func New[V any](ttl time.Duration) *TTL[V] {
	return NewWithClock[V](ttl, time.Now)
}

// NewWithClock returns a TTL cache with an injected clock. Tests pass a
// fake clock to step through expiry without sleeping.
func NewWithClock[V any](ttl time.Duration, now func() time.Time) *TTL[V] {
	return &TTL[V]{
		ttl:   ttl,
		now:   now,
		items: make(map[string]entry[V]),
	}
}

// Get returns the live value for key, if any.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.items, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, resetting its expiry.
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Delete removes key if present.
func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Len reports the number of live entries, sweeping expired ones.
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, k)
		}
	}
	return len(c.items)
}
