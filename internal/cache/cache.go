package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is the freshness window the upstream API tolerates: no key is
// re-fetched more than once per window.
const DefaultTTL = 30 * time.Second

// evictAfter is the number of idle TTL windows after which a sweep may drop
// an entry. Eviction timing is not part of the cache's contract; only the
// bound on growth is.
const evictAfter = 4

type entry[V any] struct {
	value     V
	fetchedAt time.Time
}

// Cache is a TTL-bound request cache. A stored value is reused for every Get
// within ttl of its fetch completion; concurrent Gets for the same key while
// a fetch is in flight collapse into one upstream call; fetch errors are
// propagated to all waiters and never stored. Instances are constructed
// explicitly and passed around; there is no package-level cache.
type Cache[V any] struct {
	ttl   time.Duration
	group singleflight.Group

	mu        sync.Mutex
	entries   map[string]entry[V]
	lastSweep time.Time

	// now is replaced in tests to simulate elapsed time.
	now func() time.Time

	metrics *Metrics
}

// New returns an empty cache. A non-positive ttl selects DefaultTTL.
func New[V any](ttl time.Duration) *Cache[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

// Instrument attaches hit/miss/eviction counters. Must be called before the
// cache is shared between goroutines.
func (c *Cache[V]) Instrument(m *Metrics) {
	c.metrics = m
}

// Get returns the cached value for key when fresh, otherwise runs fetch and
// stores its result. Callers arriving while a fetch for key is in flight
// wait for that flight and share its outcome. The flight runs on a context
// detached from every caller, so no single caller cancelling can fail the
// others' pending result.
func (c *Cache[V]) Get(ctx context.Context, key string, fetch func(context.Context) (V, error)) (V, error) {
	if v, ok := c.lookup(key); ok {
		c.metrics.hit()
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A concurrent flight may have stored a fresh value between our
		// lookup and joining the group.
		if v, ok := c.lookup(key); ok {
			c.metrics.hit()
			return v, nil
		}
		c.metrics.miss()
		v, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.store(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

func (c *Cache[V]) lookup(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweepLocked(now)

	e, ok := c.entries[key]
	if !ok || now.Sub(e.fetchedAt) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) store(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, fetchedAt: c.now()}
}

// sweepLocked drops entries idle for at least evictAfter TTL windows. It
// runs at most once per TTL so lookups stay cheap.
func (c *Cache[V]) sweepLocked(now time.Time) {
	if now.Sub(c.lastSweep) < c.ttl {
		return
	}
	c.lastSweep = now
	for key, e := range c.entries {
		if now.Sub(e.fetchedAt) >= time.Duration(evictAfter)*c.ttl {
			delete(c.entries, key)
			c.metrics.evict()
		}
	}
}
