package memory

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Cache is the in-process cache backend. Expiry is lazy: an entry older than
// the caller's ttl is removed on the read that observes it, so the following
// read misses even with a longer ttl.
type Cache struct {
	mu   sync.RWMutex
	data map[string]entry
}

type entry struct {
	payload  []byte
	storedAt time.Time
}

func New() *Cache {
	return &Cache{data: make(map[string]entry)}
}

func (c *Cache) Get(_ context.Context, key string, ttl time.Duration) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if time.Since(e.storedAt) > ttl {
		c.mu.Lock()
		// Re-check under the write lock; a Set may have raced the expiry.
		if cur, ok := c.data[key]; ok && cur.storedAt.Equal(e.storedAt) {
			delete(c.data, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.payload, true, nil
}

func (c *Cache) Set(_ context.Context, key string, payload []byte) error {
	cp := make([]byte, len(payload))
	copy(cp, payload)
	c.mu.Lock()
	c.data[key] = entry{payload: cp, storedAt: time.Now()}
	c.mu.Unlock()
	return nil
}

func (c *Cache) Clear(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prefix == "" {
		c.data = make(map[string]entry)
		return nil
	}
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

// Len reports the live entry count. Used in tests to assert purge-on-read.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
