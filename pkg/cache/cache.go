package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultLoadTimeout bounds a shared load when Options.LoadTimeout is zero.
const DefaultLoadTimeout = 30 * time.Second

// Options tunes expiry. Loaders may return their own TTL per value; DefaultTTL
// applies when they return zero. EarlyExpiry is subtracted from every TTL so
// values such as access tokens are refreshed before the issuer rejects them.
// LoadTimeout bounds one loader call, which is shared by every waiting caller.
type Options struct {
	DefaultTTL  time.Duration
	EarlyExpiry time.Duration
	LoadTimeout time.Duration
	Now         func() time.Time
}

type MetricsHooks struct {
	OnHit   func(key string)
	OnMiss  func(key string)
	OnError func(key string)
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a concurrency-safe TTL cache. Concurrent misses for one key share a
// single loader call.
type Cache[V any] struct {
	mu      sync.RWMutex
	items   map[string]entry[V]
	opts    Options
	metrics MetricsHooks
	sf      singleflight.Group
}

func New[V any](opts Options, hooks MetricsHooks) *Cache[V] {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}
	return &Cache[V]{
		items:   make(map[string]entry[V]),
		opts:    opts,
		metrics: hooks,
	}
}

// Loader produces a fresh value and how long it stays valid.
type Loader[V any] func(ctx context.Context, key string) (V, time.Duration, error)

// Get returns the cached value for key or loads it. Errors are never cached.
// The loader keeps ctx's values but not its cancellation: a caller that gives
// up returns ctx.Err() while the load continues for the others.
func (c *Cache[V]) Get(ctx context.Context, key string, loader Loader[V]) (V, error) {
	var zero V
	if v, ok := c.Peek(key); ok {
		if c.metrics.OnHit != nil {
			c.metrics.OnHit(key)
		}
		return v, nil
	}

	if c.metrics.OnMiss != nil {
		c.metrics.OnMiss(key)
	}
	ch := c.sf.DoChan(key, func() (interface{}, error) {
		if v, ok := c.Peek(key); ok {
			return v, nil
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.LoadTimeout)
		defer cancel()
		v, ttl, err := loader(loadCtx, key)
		if err != nil {
			return v, err
		}
		c.Set(key, v, ttl)
		return v, nil
	})

	select {
	case <-ctx.Done():
		if c.metrics.OnError != nil {
			c.metrics.OnError(key)
		}
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if c.metrics.OnError != nil {
				c.metrics.OnError(key)
			}
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

// Set stores val for ttl (DefaultTTL when zero), shortened by EarlyExpiry.
// Values whose effective lifetime is not positive are not stored.
func (c *Cache[V]) Set(key string, val V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.opts.DefaultTTL
	}
	ttl -= c.opts.EarlyExpiry
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.items[key] = entry[V]{value: val, expiresAt: c.opts.Now().Add(ttl)}
	c.mu.Unlock()
}

// Peek returns a live cached value without triggering a load.
func (c *Cache[V]) Peek(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	if !ok || !c.opts.Now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Delete drops key so the next Get reloads it.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, live or expired.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
