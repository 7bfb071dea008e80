// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metercacher provides metered cache implementations.
package metercacher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/datacache"
)

var _ datacache.Cacher[struct{}, datacache.Unit] = (*Cache[struct{}, datacache.Unit])(nil)

// Cache wraps a Cacher with metrics.
type Cache[K comparable, V datacache.Sizer] struct {
	datacache.Cacher[K, V]
	metrics *cacheMetrics
}

// New creates a new metered cache wrapper. It registers a listener on c that
// feeds the tag invalidation and clear counters.
func New[K comparable, V datacache.Sizer](
	namespace string,
	registry prometheus.Registerer,
	c datacache.Cacher[K, V],
) (*Cache[K, V], error) {
	metrics, err := newMetrics(namespace, registry)
	if err != nil {
		return nil, err
	}
	mc := &Cache[K, V]{
		Cacher:  c,
		metrics: metrics,
	}
	c.OnEvent(mc.observe)
	return mc, nil
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	value, _, has := c.GetWithState(key)
	return value, has
}

func (c *Cache[K, V]) GetWithState(key K) (V, datacache.State, bool) {
	start := time.Now()
	value, state, has := c.Cacher.GetWithState(key)
	getDuration := time.Since(start)

	if has {
		c.metrics.getCount.With(hitLabels).Inc()
		c.metrics.getTime.With(hitLabels).Add(float64(getDuration))
		if state == datacache.Stale {
			c.metrics.staleHits.Inc()
		}
	} else {
		c.metrics.getCount.With(missLabels).Inc()
		c.metrics.getTime.With(missLabels).Add(float64(getDuration))
	}
	// A get can sweep expired entries.
	c.updateSize()
	return value, state, has
}

func (c *Cache[K, V]) Insert(key K, value V, opts datacache.Options) {
	start := time.Now()
	c.Cacher.Insert(key, value, opts)
	putDuration := time.Since(start)

	c.metrics.putCount.Inc()
	c.metrics.putTime.Add(float64(putDuration))
	c.updateSize()
}

func (c *Cache[K, V]) InsertDefault(key K, value V) {
	c.Insert(key, value, datacache.Options{})
}

func (c *Cache[K, V]) Remove(key K) (V, bool) {
	value, ok := c.Cacher.Remove(key)
	c.updateSize()
	return value, ok
}

func (c *Cache[_, _]) InvalidateTag(tag string) int {
	n := c.Cacher.InvalidateTag(tag)
	c.updateSize()
	return n
}

func (c *Cache[_, _]) Clear() {
	c.Cacher.Clear()
	c.updateSize()
}

func (c *Cache[_, _]) Tick(deltaMs uint64) {
	c.Cacher.Tick(deltaMs)
	c.updateSize()
}

func (c *Cache[_, _]) observe(e datacache.Event) {
	switch e.Kind {
	case datacache.EventTagInvalidated:
		c.metrics.tagInvalidated.Add(float64(e.Count))
	case datacache.EventCleared:
		c.metrics.clears.Inc()
	}
}

func (c *Cache[_, _]) updateSize() {
	c.metrics.len.Set(float64(c.Cacher.Len()))
	c.metrics.memory.Set(float64(c.Cacher.MemoryUsage()))
	c.metrics.portionFilled.Set(c.Cacher.PortionFilled())
}
