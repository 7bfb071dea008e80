// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package datacache

import "math"

// State is the freshness of an entry at a point on the virtual clock.
type State uint8

const (
	// Fresh entries are within their TTL.
	Fresh State = iota
	// Stale entries are past their TTL but inside the stale window. They can
	// still be served while the caller revalidates.
	Stale
	// Expired entries must not be served.
	Expired
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "Fresh"
	case Stale:
		return "Stale"
	case Expired:
		return "Expired"
	default:
		return "Unknown"
	}
}

// Metadata is the bookkeeping kept for every entry. Times are virtual-clock
// milliseconds.
type Metadata struct {
	CreatedAt    uint64
	LastAccessed uint64
	TTL          uint64
	Stale        uint64
	AccessCount  uint64
	SizeBytes    int
	Tags         []string
}

// State classifies the entry at now. A now before CreatedAt counts as age 0.
func (m *Metadata) State(now uint64) State {
	var age uint64
	if now > m.CreatedAt {
		age = now - m.CreatedAt
	}
	switch {
	case age <= m.TTL:
		return Fresh
	case age <= saturatingAdd(m.TTL, m.Stale):
		return Stale
	default:
		return Expired
	}
}

// IsExpired reports whether State(now) is Expired.
func (m *Metadata) IsExpired(now uint64) bool {
	return m.State(now) == Expired
}

// HasTag reports whether tag is attached to the entry.
func (m *Metadata) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
