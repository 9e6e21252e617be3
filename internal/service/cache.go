package service

import (
	"context"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// Cache holds one lazily-fetched value for a service. The first caller pays
// for the fetch; concurrent callers block until it resolves. Invalidate drops
// the value so the next read refetches.
type Cache[V any] struct {
	mu    sync.Mutex
	set   bool
	value V
}

// GetOrFetch returns the cached value, fetching it under the lock when
// absent. A failed fetch caches nothing.
func (c *Cache[V]) GetOrFetch(ctx context.Context, fetch func(ctx context.Context) (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set {
		return c.value, nil
	}
	value, err := fetch(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	c.value = value
	c.set = true
	return value, nil
}

// Invalidate drops the cached value.
func (c *Cache[V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero V
	c.value = zero
	c.set = false
}

type invalidator interface {
	Invalidate()
}

// CacheRegistry tracks every service cache by name so they can be flushed
// together, typically on shutdown or after a bulk import.
type CacheRegistry struct {
	caches *xsync.MapOf[string, invalidator]
}

// NewCacheRegistry builds an empty registry.
func NewCacheRegistry() *CacheRegistry {
	return &CacheRegistry{caches: xsync.NewMapOf[string, invalidator]()}
}

// Register records a cache under name. Registering the same name twice keeps
// the first cache, so services sharing a registry get a shared cache.
func (r *CacheRegistry) Register(name string, c invalidator) invalidator {
	actual, _ := r.caches.LoadOrStore(name, c)
	return actual
}

// RegisterCache returns the registry's cache for name, creating it when
// absent.
func RegisterCache[V any](r *CacheRegistry, name string) *Cache[V] {
	return r.Register(name, &Cache[V]{}).(*Cache[V])
}

// Close invalidates every registered cache.
func (r *CacheRegistry) Close() {
	r.caches.Range(func(_ string, c invalidator) bool {
		c.Invalidate()
		return true
	})
}
