// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package datacache

import (
	"time"

	"go.uber.org/zap"
)

// Config is the cache policy. It is read once by New and never changed.
type Config struct {
	// MaxEntries bounds the number of entries.
	MaxEntries int
	// MaxMemory bounds the summed entry size in bytes.
	MaxMemory int
	// DefaultTTL applies when Options carries no TTL.
	DefaultTTL time.Duration
	// DefaultStale applies when Options carries no stale window.
	DefaultStale time.Duration
	// EnableLRU moves entries to the recent end on every hit. When false,
	// eviction follows insertion order.
	EnableLRU bool
	// CleanupInterval is the minimum virtual time between expired-entry
	// sweeps.
	CleanupInterval time.Duration
	// Logger receives debug output. Nil disables logging.
	Logger *zap.Logger
}

// DefaultConfig returns 1000 entries, 50 MiB, a 5 minute TTL with a 1 minute
// stale window, LRU on and a 1 minute cleanup interval.
func DefaultConfig() Config {
	return Config{
		MaxEntries:      1000,
		MaxMemory:       50 * 1024 * 1024,
		DefaultTTL:      5 * time.Minute,
		DefaultStale:    time.Minute,
		EnableLRU:       true,
		CleanupInterval: time.Minute,
	}
}

// Options are per-insert overrides. The zero value uses the config defaults.
type Options struct {
	TTL   *time.Duration
	Stale *time.Duration
	Tags  []string
	// Priority is recorded on the entry. Eviction does not consult it.
	Priority uint8
}

// NewOptions returns empty Options.
func NewOptions() Options {
	return Options{}
}

// WithTTL overrides the TTL.
func (o Options) WithTTL(ttl time.Duration) Options {
	o.TTL = &ttl
	return o
}

// WithStale overrides the stale window.
func (o Options) WithStale(stale time.Duration) Options {
	o.Stale = &stale
	return o
}

// WithTag appends an invalidation tag.
func (o Options) WithTag(tag string) Options {
	o.Tags = append(append([]string(nil), o.Tags...), tag)
	return o
}

// WithPriority sets the priority.
func (o Options) WithPriority(priority uint8) Options {
	o.Priority = priority
	return o
}

// Builder pairs a value with the Options it should be inserted with.
type Builder[V any] struct {
	value   V
	options Options
}

// NewBuilder starts a Builder for value.
func NewBuilder[V any](value V) *Builder[V] {
	return &Builder[V]{value: value}
}

func (b *Builder[V]) TTL(ttl time.Duration) *Builder[V] {
	b.options = b.options.WithTTL(ttl)
	return b
}

func (b *Builder[V]) Stale(stale time.Duration) *Builder[V] {
	b.options = b.options.WithStale(stale)
	return b
}

func (b *Builder[V]) Tag(tag string) *Builder[V] {
	b.options = b.options.WithTag(tag)
	return b
}

func (b *Builder[V]) Priority(priority uint8) *Builder[V] {
	b.options = b.options.WithPriority(priority)
	return b
}

// Build returns the value and its Options.
func (b *Builder[V]) Build() (V, Options) {
	return b.value, b.options
}

// millis truncates d to whole milliseconds. Negative durations become 0.
func millis(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d / time.Millisecond)
}
