// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package datacache

import (
	"container/list"

	"go.uber.org/zap"
)

var _ Cacher[Key, Unit] = (*DataCache[Key, Unit])(nil)

type entry[V any] struct {
	value    V
	meta     Metadata
	priority uint8
	elem     *list.Element
}

// DataCache is an in-memory cache driven by a virtual clock.
//
// DataCache is not safe for concurrent use. Wrap it with locked.Cache when it
// is shared between goroutines.
type DataCache[K comparable, V Sizer] struct {
	config Config
	log    *zap.Logger

	ttl, stale, cleanupInterval uint64

	entries       map[K]*entry[V]
	recency       *recency[K]
	currentMemory int

	timestamp   uint64
	lastCleanup uint64

	listeners []Listener
	stats     Stats
}

// StringCache is a DataCache keyed by strings.
type StringCache[V Sizer] = DataCache[string, V]

// New creates a cache with the given config.
func New[K comparable, V Sizer](config Config) *DataCache[K, V] {
	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &DataCache[K, V]{
		config:          config,
		log:             log,
		ttl:             millis(config.DefaultTTL),
		stale:           millis(config.DefaultStale),
		cleanupInterval: millis(config.CleanupInterval),
		entries:         make(map[K]*entry[V]),
		recency:         newRecency[K](),
	}
}

// NewDefault creates a cache with DefaultConfig.
func NewDefault[K comparable, V Sizer]() *DataCache[K, V] {
	return New[K, V](DefaultConfig())
}

// Config returns the config the cache was built with.
func (c *DataCache[K, V]) Config() Config {
	return c.config
}

// Get returns the value for key if it is present and not expired. An expired
// entry is left in place for the next sweep and is not counted as a miss.
func (c *DataCache[K, V]) Get(key K) (V, bool) {
	value, _, ok := c.GetWithState(key)
	return value, ok
}

// GetWithState returns the value for key together with its freshness. A Stale
// value may be served while the caller refreshes it. Expired and absent keys
// both return false.
func (c *DataCache[K, V]) GetWithState(key K) (V, State, bool) {
	c.maybeCleanup()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return zero, Expired, false
	}

	state := e.meta.State(c.timestamp)
	if state == Expired {
		return zero, Expired, false
	}

	e.meta.LastAccessed = c.timestamp
	e.meta.AccessCount++
	if c.config.EnableLRU {
		c.recency.touch(e.elem)
	}
	c.stats.Hits++
	return e.value, state, true
}

// Contains reports whether key is present and not expired at the current
// timestamp. It does not sweep or touch the entry.
func (c *DataCache[K, V]) Contains(key K) bool {
	e, ok := c.entries[key]
	return ok && !e.meta.IsExpired(c.timestamp)
}

// Metadata returns a copy of the metadata for key, expired or not.
func (c *DataCache[K, V]) Metadata(key K) (Metadata, bool) {
	e, ok := c.entries[key]
	if !ok {
		return Metadata{}, false
	}
	meta := e.meta
	meta.Tags = append([]string(nil), e.meta.Tags...)
	return meta, true
}

// Priority returns the priority key was inserted with.
func (c *DataCache[K, V]) Priority(key K) (uint8, bool) {
	e, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	return e.priority, true
}

// Insert stores value under key, replacing any previous entry, and evicts
// until the new entry fits. Insert never rejects: if the entry cannot fit
// even in an empty cache it is admitted anyway.
func (c *DataCache[K, V]) Insert(key K, value V, opts Options) {
	size := value.CacheSize()

	ttl, stale := c.ttl, c.stale
	if opts.TTL != nil {
		ttl = millis(*opts.TTL)
	}
	if opts.Stale != nil {
		stale = millis(*opts.Stale)
	}

	if old, ok := c.entries[key]; ok {
		c.unlink(key, old)
	}

	for len(c.entries) >= c.config.MaxEntries || c.currentMemory+size > c.config.MaxMemory {
		if !c.evictOne() {
			break
		}
	}
	if size > c.config.MaxMemory {
		c.log.Debug("admitting entry larger than memory bound",
			zap.Int("size", size),
			zap.Int("maxMemory", c.config.MaxMemory),
		)
	}

	c.entries[key] = &entry[V]{
		value: value,
		meta: Metadata{
			CreatedAt:    c.timestamp,
			LastAccessed: c.timestamp,
			TTL:          ttl,
			Stale:        stale,
			SizeBytes:    size,
			Tags:         append([]string(nil), opts.Tags...),
		},
		priority: opts.Priority,
		elem:     c.recency.push(key),
	}
	c.currentMemory += size
	c.syncStats()
}

// InsertDefault inserts value with zero Options.
func (c *DataCache[K, V]) InsertDefault(key K, value V) {
	c.Insert(key, value, Options{})
}

// Remove deletes key and returns its value.
func (c *DataCache[K, V]) Remove(key K) (V, bool) {
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.unlink(key, e)
	c.stats.Invalidations++
	c.syncStats()
	return e.value, true
}

// InvalidateTag removes every entry carrying tag and returns how many were
// removed. One EventTagInvalidated is emitted, even when nothing matched.
func (c *DataCache[K, V]) InvalidateTag(tag string) int {
	var keys []K
	for key, e := range c.entries {
		if e.meta.HasTag(tag) {
			keys = append(keys, key)
		}
	}
	for _, key := range keys {
		c.Remove(key)
	}

	if len(keys) > 0 {
		c.log.Debug("invalidated tag",
			zap.String("tag", tag),
			zap.Int("count", len(keys)),
		)
	}
	c.emit(Event{Kind: EventTagInvalidated, Tag: tag, Count: len(keys)})
	return len(keys)
}

// Clear removes all entries. Hit, miss, eviction and invalidation counters
// are kept.
func (c *DataCache[K, V]) Clear() {
	n := len(c.entries)
	c.entries = make(map[K]*entry[V])
	c.recency.reset()
	c.currentMemory = 0
	c.syncStats()

	c.log.Debug("cleared cache", zap.Int("count", n))
	c.emit(Event{Kind: EventCleared})
}

// Tick advances the virtual clock and sweeps expired entries when due.
func (c *DataCache[K, V]) Tick(deltaMs uint64) {
	c.timestamp = saturatingAdd(c.timestamp, deltaMs)
	c.maybeCleanup()
}

// SetTimestamp moves the virtual clock to ms. The clock never goes backwards,
// so values below the current timestamp are ignored. No sweep is triggered.
func (c *DataCache[K, V]) SetTimestamp(ms uint64) {
	if ms < c.timestamp {
		c.log.Debug("ignoring backwards timestamp",
			zap.Uint64("current", c.timestamp),
			zap.Uint64("requested", ms),
		)
		return
	}
	c.timestamp = ms
}

// Timestamp returns the virtual clock in milliseconds.
func (c *DataCache[K, V]) Timestamp() uint64 {
	return c.timestamp
}

// OnEvent appends l to the listeners. Listeners run in registration order.
func (c *DataCache[K, V]) OnEvent(l Listener) {
	c.listeners = append(c.listeners, l)
}

// Stats returns a snapshot of the counters.
func (c *DataCache[K, V]) Stats() Stats {
	return c.stats
}

// Len returns the number of entries, including expired ones not yet swept.
func (c *DataCache[K, V]) Len() int {
	return len(c.entries)
}

// IsEmpty reports whether the cache holds no entries.
func (c *DataCache[K, V]) IsEmpty() bool {
	return len(c.entries) == 0
}

// MemoryUsage returns the summed size of all entries in bytes.
func (c *DataCache[K, V]) MemoryUsage() int {
	return c.currentMemory
}

// PortionFilled returns the larger of the entry and memory fill ratios.
func (c *DataCache[K, V]) PortionFilled() float64 {
	var byEntries, byMemory float64
	if c.config.MaxEntries > 0 {
		byEntries = float64(len(c.entries)) / float64(c.config.MaxEntries)
	}
	if c.config.MaxMemory > 0 {
		byMemory = float64(c.currentMemory) / float64(c.config.MaxMemory)
	}
	return max(byEntries, byMemory)
}

// Keys returns the keys from least to most recently used.
func (c *DataCache[K, V]) Keys() []K {
	return c.recency.keys()
}

func (c *DataCache[K, V]) emit(e Event) {
	for _, l := range c.listeners {
		l(e)
	}
}

func (c *DataCache[K, V]) maybeCleanup() {
	var elapsed uint64
	if c.timestamp > c.lastCleanup {
		elapsed = c.timestamp - c.lastCleanup
	}
	if elapsed >= c.cleanupInterval {
		c.cleanupExpired()
		c.lastCleanup = c.timestamp
	}
}

// cleanupExpired removes expired entries. Stale entries stay since they can
// still be served. Each removal counts as an eviction.
func (c *DataCache[K, V]) cleanupExpired() {
	removed := 0
	for key, e := range c.entries {
		if e.meta.IsExpired(c.timestamp) {
			c.unlink(key, e)
			c.stats.Evictions++
			removed++
		}
	}
	c.syncStats()

	if removed > 0 {
		c.log.Debug("swept expired entries",
			zap.Int("count", removed),
			zap.Uint64("timestamp", c.timestamp),
		)
	}
}

// evictOne removes the entry at the front of the recency order: the least
// recently used with LRU on, the oldest insertion otherwise.
func (c *DataCache[K, V]) evictOne() bool {
	key, ok := c.recency.oldest()
	if !ok {
		return false
	}
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.unlink(key, e)
	c.stats.Evictions++

	c.log.Debug("evicted entry",
		zap.Int("size", e.meta.SizeBytes),
		zap.Int("entries", len(c.entries)),
		zap.Int("memory", c.currentMemory),
	)
	return true
}

// unlink drops e from the map, the recency order and the memory count.
func (c *DataCache[K, V]) unlink(key K, e *entry[V]) {
	delete(c.entries, key)
	c.recency.remove(e.elem)
	c.currentMemory -= e.meta.SizeBytes
	if c.currentMemory < 0 {
		c.currentMemory = 0
	}
}

func (c *DataCache[K, V]) syncStats() {
	c.stats.CurrentEntries = len(c.entries)
	c.stats.CurrentMemory = c.currentMemory
}
