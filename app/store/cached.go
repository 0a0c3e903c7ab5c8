package store

import (
	"context"
	"fmt"

	"github.com/go-pkgz/lcw/v2"
)

// Cached wraps a PrefStore with a loading cache and satisfies PrefStore itself.
// Cache is populated on reads via loader function, invalidated on writes.
// Missing keys are not cached, so the first write of a scope is always seen.
type Cached struct {
	store PrefStore
	cache lcw.LoadingCache[string]
}

// NewCached creates a new cached preference store wrapper.
// maxKeys sets the maximum number of entries in the cache.
func NewCached(store PrefStore, maxKeys int) (*Cached, error) {
	cache, err := lcw.NewLruCache(lcw.NewOpts[string]().MaxKeys(maxKeys))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &Cached{store: store, cache: cache}, nil
}

// GetPref retrieves the value for scope and key, using cache with load-through.
func (c *Cached) GetPref(ctx context.Context, scope, key string) (string, error) {
	val, err := c.cache.Get(cacheKey(scope, key), func() (string, error) {
		v, loadErr := c.store.GetPref(ctx, scope, key)
		if loadErr != nil {
			return "", fmt.Errorf("load from store: %w", loadErr)
		}
		return v, nil
	})
	if err != nil {
		return "", fmt.Errorf("cache get: %w", err)
	}
	return val, nil
}

// SetPref stores a value and invalidates the cache entry.
func (c *Cached) SetPref(ctx context.Context, scope, key, value string) error {
	if err := c.store.SetPref(ctx, scope, key, value); err != nil {
		return fmt.Errorf("store set: %w", err)
	}
	ck := cacheKey(scope, key)
	c.cache.Invalidate(func(k string) bool { return k == ck })
	return nil
}

// Close closes the cache.
func (c *Cached) Close() error {
	if err := c.cache.Close(); err != nil {
		return fmt.Errorf("cache close: %w", err)
	}
	return nil
}

// Stats returns cache statistics.
func (c *Cached) Stats() lcw.CacheStat {
	return c.cache.Stat()
}

func cacheKey(scope, key string) string { return scope + "\x00" + key }
