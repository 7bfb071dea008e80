// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package sharded spreads datacache entries over independently locked shards.
package sharded

import (
	"encoding/binary"
	"sync"

	"github.com/spaolacci/murmur3"

	"github.com/luxfi/datacache"
	"github.com/luxfi/datacache/locked"
)

// DefaultShards is used when New is given a non power of two shard count.
const DefaultShards = 16

var _ datacache.Cacher[datacache.Key, datacache.Unit] = (*Cache[datacache.Unit])(nil)

// Cache is a datacache.Cacher keyed by datacache.Key. Each shard holds an even
// split of the entry and memory bounds, so eviction is per shard.
type Cache[V datacache.Sizer] struct {
	shards []*locked.Cache[datacache.Key, V]
	mask   uint64

	mu        sync.RWMutex
	listeners []datacache.Listener
}

// New splits config over numShards shards. numShards must be a power of two;
// other values fall back to DefaultShards.
func New[V datacache.Sizer](config datacache.Config, numShards int) *Cache[V] {
	if numShards <= 0 || numShards&(numShards-1) != 0 {
		numShards = DefaultShards
	}

	perShard := config
	perShard.MaxEntries = max(config.MaxEntries/numShards, 1)
	perShard.MaxMemory = max(config.MaxMemory/numShards, 1)

	c := &Cache[V]{
		shards: make([]*locked.Cache[datacache.Key, V], numShards),
		mask:   uint64(numShards - 1),
	}
	for i := range c.shards {
		c.shards[i] = locked.NewDataCache[datacache.Key, V](perShard)
	}
	return c
}

// ShardIndex returns the shard key is stored on.
func (c *Cache[V]) ShardIndex(key datacache.Key) int {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], key.Uint64())
	return int(murmur3.Sum64(buf[:]) & c.mask)
}

// NumShards returns the number of shards.
func (c *Cache[V]) NumShards() int {
	return len(c.shards)
}

func (c *Cache[V]) shard(key datacache.Key) *locked.Cache[datacache.Key, V] {
	return c.shards[c.ShardIndex(key)]
}

func (c *Cache[V]) Get(key datacache.Key) (V, bool) {
	return c.shard(key).Get(key)
}

func (c *Cache[V]) GetWithState(key datacache.Key) (V, datacache.State, bool) {
	return c.shard(key).GetWithState(key)
}

func (c *Cache[V]) Contains(key datacache.Key) bool {
	return c.shard(key).Contains(key)
}

func (c *Cache[V]) Insert(key datacache.Key, value V, opts datacache.Options) {
	c.shard(key).Insert(key, value, opts)
}

func (c *Cache[V]) InsertDefault(key datacache.Key, value V) {
	c.shard(key).InsertDefault(key, value)
}

func (c *Cache[V]) Remove(key datacache.Key) (V, bool) {
	return c.shard(key).Remove(key)
}

// InvalidateTag invalidates tag on every shard and emits a single
// EventTagInvalidated with the total count.
func (c *Cache[V]) InvalidateTag(tag string) int {
	total := 0
	for _, s := range c.shards {
		total += s.InvalidateTag(tag)
	}
	c.emit(datacache.Event{Kind: datacache.EventTagInvalidated, Tag: tag, Count: total})
	return total
}

// Clear clears every shard and emits a single EventCleared.
func (c *Cache[V]) Clear() {
	for _, s := range c.shards {
		s.Clear()
	}
	c.emit(datacache.Event{Kind: datacache.EventCleared})
}

func (c *Cache[V]) Tick(deltaMs uint64) {
	for _, s := range c.shards {
		s.Tick(deltaMs)
	}
}

func (c *Cache[V]) SetTimestamp(ms uint64) {
	for _, s := range c.shards {
		s.SetTimestamp(ms)
	}
}

// Timestamp returns the clock of the first shard. All shards move together.
func (c *Cache[V]) Timestamp() uint64 {
	return c.shards[0].Timestamp()
}

// OnEvent registers l for events emitted by the sharded cache. Listeners are
// not attached to the individual shards.
func (c *Cache[V]) OnEvent(l datacache.Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Stats sums the stats of all shards.
func (c *Cache[V]) Stats() datacache.Stats {
	var total datacache.Stats
	for _, s := range c.shards {
		st := s.Stats()
		total.Hits += st.Hits
		total.Misses += st.Misses
		total.Evictions += st.Evictions
		total.Invalidations += st.Invalidations
		total.CurrentEntries += st.CurrentEntries
		total.CurrentMemory += st.CurrentMemory
	}
	return total
}

func (c *Cache[V]) Len() int {
	n := 0
	for _, s := range c.shards {
		n += s.Len()
	}
	return n
}

func (c *Cache[V]) MemoryUsage() int {
	n := 0
	for _, s := range c.shards {
		n += s.MemoryUsage()
	}
	return n
}

// PortionFilled returns the mean fill of the shards.
func (c *Cache[V]) PortionFilled() float64 {
	var sum float64
	for _, s := range c.shards {
		sum += s.PortionFilled()
	}
	return sum / float64(len(c.shards))
}

func (c *Cache[V]) emit(e datacache.Event) {
	c.mu.RLock()
	listeners := c.listeners
	c.mu.RUnlock()
	for _, l := range listeners {
		l(e)
	}
}
