// Package cache is the time-bounded read-through memoization used
// between the storage boundary and the derivation layer. Derived
// tables are recomputed once per expiry window and otherwise served
// from memory; there is no other shared mutable state in the service.
package cache

import (
	"sync"
	"time"

	"github.com/LouiseALD/walmart-delivery-fraud-analysis/internal/timeutil"
)

// DefaultTTL is the refresh window for data loaded from storage.
const DefaultTTL = 10 * time.Minute

type entry struct {
	value   any
	expires time.Time
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.expires)
}

// Cache is an in-memory TTL cache keyed by string. The zero value is
// not usable; construct with New.
type Cache struct {
	mu      sync.RWMutex
	clock   timeutil.Clock
	ttl     time.Duration
	entries map[string]entry
}

// New returns a cache whose entries expire after ttl. A nil clock
// falls back to the system clock; a non-positive ttl falls back to
// DefaultTTL.
func New(ttl time.Duration, clock timeutil.Clock) *Cache {
	if clock == nil {
		clock = timeutil.NewRealClock()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		clock:   clock,
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

// Get returns the live value for key, if any.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || e.expired(c.clock.Now()) {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for the cache's TTL.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expires: c.clock.Now().Add(c.ttl)}
}

// Invalidate drops key immediately.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Through returns the cached value for key, or computes it with fill
// and stores it. An error from fill is returned as-is and nothing is
// cached, so a transient storage failure is retried on the next call.
func Through[T any](c *Cache, key string, fill func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	value, err := fill()
	if err != nil {
		return value, err
	}
	c.Set(key, value)
	return value, nil
}
