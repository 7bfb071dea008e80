// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package locked provides a mutex-guarded datacache.Cacher.
package locked

import (
	"sync"

	"github.com/luxfi/datacache"
)

var _ datacache.Cacher[struct{}, datacache.Unit] = (*Cache[struct{}, datacache.Unit])(nil)

// Cache serializes every call on the wrapped Cacher. Listeners run while the
// lock is held and must not call back into the cache.
type Cache[K comparable, V datacache.Sizer] struct {
	mu    sync.Mutex
	inner datacache.Cacher[K, V]
}

// New wraps c.
func New[K comparable, V datacache.Sizer](c datacache.Cacher[K, V]) *Cache[K, V] {
	return &Cache[K, V]{inner: c}
}

// NewDataCache builds a DataCache from config and wraps it.
func NewDataCache[K comparable, V datacache.Sizer](config datacache.Config) *Cache[K, V] {
	return New[K, V](datacache.New[K, V](config))
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.Get(key)
}

func (c *Cache[K, V]) GetWithState(key K) (V, datacache.State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.GetWithState(key)
}

func (c *Cache[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.Contains(key)
}

func (c *Cache[K, V]) Insert(key K, value V, opts datacache.Options) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.Insert(key, value, opts)
}

func (c *Cache[K, V]) InsertDefault(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.InsertDefault(key, value)
}

func (c *Cache[K, V]) Remove(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.Remove(key)
}

func (c *Cache[K, V]) InvalidateTag(tag string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.InvalidateTag(tag)
}

func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.Clear()
}

func (c *Cache[K, V]) Tick(deltaMs uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.Tick(deltaMs)
}

func (c *Cache[K, V]) SetTimestamp(ms uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.SetTimestamp(ms)
}

func (c *Cache[K, V]) Timestamp() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.Timestamp()
}

func (c *Cache[K, V]) OnEvent(l datacache.Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.OnEvent(l)
}

func (c *Cache[K, V]) Stats() datacache.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.Stats()
}

func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.Len()
}

func (c *Cache[K, V]) MemoryUsage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.MemoryUsage()
}

func (c *Cache[K, V]) PortionFilled() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.PortionFilled()
}

// Do runs f with exclusive access to the wrapped cache, for sequences that
// must not interleave with other callers.
func (c *Cache[K, V]) Do(f func(datacache.Cacher[K, V])) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f(c.inner)
}
