package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	b   []byte
	exp time.Time
}

// TTLCache is the in-process fallback backend for single-replica deployments.
// Expired entries are dropped lazily on read and swept opportunistically every
// sweepEvery writes.
type TTLCache struct {
	mu     sync.RWMutex
	m      map[string]entry
	writes int
}

const sweepEvery = 256

func NewTTLCache() *TTLCache {
	return &TTLCache{m: make(map[string]entry)}
}

func (c *TTLCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.b, true, nil
}

func (c *TTLCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.m[key] = entry{b: value, exp: exp}
	c.writes++
	if c.writes%sweepEvery == 0 {
		now := time.Now()
		for k, e := range c.m {
			if !e.exp.IsZero() && now.After(e.exp) {
				delete(c.m, k)
			}
		}
	}
	c.mu.Unlock()
	return nil
}
