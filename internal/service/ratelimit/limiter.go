package ratelimit

import (
	"sync"
	"time"
)

// idleEvict is how long a key's bucket may sit untouched before it is pruned.
// Keys are client addresses, so the map would otherwise grow without bound.
const idleEvict = 10 * time.Minute

type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter is a per-key token bucket. Capacity and refill rate are supplied on
// each Allow call, so one limiter can enforce different budgets per endpoint.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	pruned  time.Time
}

func New() *Limiter {
	return &Limiter{buckets: make(map[string]*bucket), pruned: time.Now()}
}

// Allow consumes one token for key if available. A new key starts full.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.pruned) > idleEvict {
		for k, b := range l.buckets {
			if now.Sub(b.last) > idleEvict {
				delete(l.buckets, k)
			}
		}
		l.pruned = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: capacity, last: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * refillPerSec
		if b.tokens > capacity {
			b.tokens = capacity
		}
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
