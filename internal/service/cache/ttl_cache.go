package cache

import (
	"context"
	"sync"
	"time"
)

// TTLCache is the in-process store behind the memory backend, the Yahoo
// name memo and the universe memo. A zero TTL keeps an item until it is
// overwritten or deleted.
type TTLCache struct {
	mu    sync.Mutex
	items map[string]item
	now   func() time.Time
}

type item struct {
	value    any
	deadline time.Time
}

func (it item) expired(now time.Time) bool {
	return !it.deadline.IsZero() && !now.Before(it.deadline)
}

type TTLOption func(*TTLCache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) TTLOption {
	return func(c *TTLCache) { c.now = now }
}

func NewTTLCache(opts ...TTLOption) *TTLCache {
	c := &TTLCache{items: make(map[string]item), now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the live value for key. An expired item is dropped on read.
func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if it.expired(c.now()) {
		delete(c.items, key)
		return nil, false
	}
	return it.value, true
}

func (c *TTLCache) Set(key string, value any, ttl time.Duration) {
	it := item{value: value}
	c.mu.Lock()
	defer c.mu.Unlock()
	if ttl > 0 {
		it.deadline = c.now().Add(ttl)
	}
	c.items[key] = it
}

func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Sweep drops every expired item and reports how many went.
func (c *TTLCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for k, it := range c.items {
		if it.expired(now) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

// Len counts stored items, expired ones included until they are read or swept.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// GetBytes misses on values that were not stored as bytes. The caller gets a copy.
func (c *TTLCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (c *TTLCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.Set(key, append([]byte(nil), value...), ttl)
	return nil
}
