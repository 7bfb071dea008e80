// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package datacache provides an in-memory data cache with virtual-clock
// freshness, stale-while-revalidate reads, tag invalidation and bounded
// entry/byte eviction.
package datacache

// Cacher is the surface shared by DataCache and the wrappers that decorate it.
type Cacher[K comparable, V Sizer] interface {
	// Get returns the value for key if it is present and not expired.
	Get(key K) (V, bool)

	// GetWithState is Get plus the Fresh/Stale classification of the value.
	GetWithState(key K) (V, State, bool)

	// Contains reports whether key is present and not expired without
	// touching recency or access metadata.
	Contains(key K) bool

	// Insert stores value under key, replacing any previous entry.
	Insert(key K, value V, opts Options)

	// InsertDefault is Insert with zero Options.
	InsertDefault(key K, value V)

	// Remove deletes key and returns its value, if it was present.
	Remove(key K) (V, bool)

	// InvalidateTag removes every entry tagged with tag.
	InvalidateTag(tag string) int

	// Clear removes all entries from the cache.
	Clear()

	// Tick advances the virtual clock by deltaMs milliseconds.
	Tick(deltaMs uint64)

	// SetTimestamp sets the virtual clock.
	SetTimestamp(ms uint64)

	// Timestamp returns the virtual clock in milliseconds.
	Timestamp() uint64

	// OnEvent registers a listener for cache events.
	OnEvent(l Listener)

	// Stats returns a snapshot of the cache statistics.
	Stats() Stats

	// Len returns the number of live entries, expired ones included.
	Len() int

	// MemoryUsage returns the summed size of live entries in bytes.
	MemoryUsage() int

	// PortionFilled returns fraction of cache currently filled (0 --> 1).
	PortionFilled() float64
}
