// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package datacache

import "go.uber.org/zap"

// Stats contains cache counters. Hits, Misses, Evictions and Invalidations
// only grow. CurrentEntries and CurrentMemory track the live set.
type Stats struct {
	Hits           uint64
	Misses         uint64
	Evictions      uint64
	Invalidations  uint64
	CurrentEntries int
	CurrentMemory  int
}

// HitRate returns Hits / (Hits + Misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// EventKind identifies an Event.
type EventKind uint8

const (
	EventAdded EventKind = iota
	EventHit
	EventMiss
	EventEvicted
	EventInvalidated
	EventTagInvalidated
	EventCleared
)

var eventKindNames = [...]string{
	EventAdded:          "Added",
	EventHit:            "Hit",
	EventMiss:           "Miss",
	EventEvicted:        "Evicted",
	EventInvalidated:    "Invalidated",
	EventTagInvalidated: "TagInvalidated",
	EventCleared:        "Cleared",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "Unknown"
}

// Event is a cache notification. Key is set for per-entry kinds, Tag and
// Count for EventTagInvalidated.
//
// Only EventTagInvalidated and EventCleared are currently emitted.
type Event struct {
	Kind  EventKind
	Key   Key
	Tag   string
	Count int
}

// Listener receives events synchronously from the call that caused them. It
// must not call back into the cache.
type Listener func(Event)

// LogListener returns a Listener that logs every event at info level.
func LogListener(logger *zap.Logger) Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(e Event) {
		switch e.Kind {
		case EventTagInvalidated:
			logger.Info("cache event",
				zap.Stringer("kind", e.Kind),
				zap.String("tag", e.Tag),
				zap.Int("count", e.Count),
			)
		case EventCleared:
			logger.Info("cache event", zap.Stringer("kind", e.Kind))
		default:
			logger.Info("cache event",
				zap.Stringer("kind", e.Kind),
				zap.Uint64("key", e.Key.Uint64()),
			)
		}
	}
}
