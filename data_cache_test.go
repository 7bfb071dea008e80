package datacache

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// testConfig has no sweeps unless a test sets CleanupInterval.
func testConfig() Config {
	config := DefaultConfig()
	config.CleanupInterval = time.Hour
	return config
}

func TestCacheInsertGet(t *testing.T) {
	require := require.New(t)

	cache := NewDefault[string, String]()
	require.True(cache.IsEmpty())

	cache.InsertDefault("key", "value")

	value, ok := cache.Get("key")
	require.True(ok)
	require.Equal(String("value"), value)
	require.Equal(1, cache.Len())
	require.Equal(5, cache.MemoryUsage())
}

func TestCacheMiss(t *testing.T) {
	require := require.New(t)

	cache := NewDefault[string, String]()
	_, ok := cache.Get("missing")
	require.False(ok)
	_, _, ok = cache.GetWithState("missing")
	require.False(ok)
	require.Equal(uint64(2), cache.Stats().Misses)
}

func TestCacheExpirationHidesEntry(t *testing.T) {
	require := require.New(t)

	config := testConfig()
	config.DefaultTTL = 100 * time.Millisecond
	config.DefaultStale = 0
	cache := New[string, String](config)

	cache.InsertDefault("key", "value")
	require.True(cache.Contains("key"))

	cache.Tick(200)

	require.False(cache.Contains("key"))
	_, ok := cache.Get("key")
	require.False(ok)
	_, _, ok = cache.GetWithState("key")
	require.False(ok)

	stats := cache.Stats()
	require.Zero(stats.Misses)
	require.Zero(stats.Hits)
	// Left for the sweep.
	require.Equal(1, cache.Len())
}

func TestCacheStaleWhileRevalidate(t *testing.T) {
	require := require.New(t)

	config := testConfig()
	config.DefaultTTL = time.Second
	config.DefaultStale = time.Second
	cache := New[string, String](config)

	cache.InsertDefault("key", "value")

	cache.Tick(500)
	value, state, ok := cache.GetWithState("key")
	require.True(ok)
	require.Equal(String("value"), value)
	require.Equal(Fresh, state)

	cache.Tick(1000)
	value, state, ok = cache.GetWithState("key")
	require.True(ok)
	require.Equal(String("value"), value)
	require.Equal(Stale, state)

	cache.Tick(1000)
	_, _, ok = cache.GetWithState("key")
	require.False(ok)
}

func TestCacheCustomTTL(t *testing.T) {
	require := require.New(t)

	cache := New[string, String](testConfig())
	cache.Insert("key", "value", NewOptions().WithTTL(100*time.Millisecond).WithStale(0))

	meta, ok := cache.Metadata("key")
	require.True(ok)
	require.Equal(uint64(100), meta.TTL)
	require.Zero(meta.Stale)

	cache.Tick(150)
	_, ok = cache.Get("key")
	require.False(ok)
}

func TestCacheTags(t *testing.T) {
	require := require.New(t)

	cache := New[string, String](testConfig())
	var events []Event
	cache.OnEvent(func(e Event) { events = append(events, e) })

	cache.Insert("key1", "value1", NewOptions().WithTag("user"))
	cache.Insert("key2", "value2", NewOptions().WithTag("user").WithTag("admin"))
	cache.Insert("key3", "value3", NewOptions().WithTag("post"))

	count := cache.InvalidateTag("user")
	require.Equal(2, count)
	require.False(cache.Contains("key1"))
	require.False(cache.Contains("key2"))
	require.True(cache.Contains("key3"))

	require.Equal([]Event{{Kind: EventTagInvalidated, Tag: "user", Count: 2}}, events)
	require.Equal(uint64(2), cache.Stats().Invalidations)
	require.Equal(6, cache.MemoryUsage())
}

func TestCacheInvalidateUnknownTagEmits(t *testing.T) {
	require := require.New(t)

	cache := New[string, String](testConfig())
	var events []Event
	cache.OnEvent(func(e Event) { events = append(events, e) })

	cache.InsertDefault("key", "value")
	require.Zero(cache.InvalidateTag("nothing"))
	require.Equal([]Event{{Kind: EventTagInvalidated, Tag: "nothing"}}, events)
	require.Equal(1, cache.Len())
}

func TestCacheLRUEviction(t *testing.T) {
	require := require.New(t)

	config := testConfig()
	config.MaxEntries = 3
	cache := New[string, String](config)

	cache.InsertDefault("key1", "value1")
	cache.InsertDefault("key2", "value2")
	cache.InsertDefault("key3", "value3")

	_, ok := cache.Get("key1")
	require.True(ok)
	require.Equal([]string{"key2", "key3", "key1"}, cache.Keys())

	cache.InsertDefault("key4", "value4")

	require.Equal(3, cache.Len())
	require.True(cache.Contains("key1"))
	require.False(cache.Contains("key2"))
	require.True(cache.Contains("key3"))
	require.True(cache.Contains("key4"))
	require.Equal([]string{"key3", "key1", "key4"}, cache.Keys())
	require.Equal(uint64(1), cache.Stats().Evictions)
}

func TestCacheLRUDisabledEvictsInsertionOrder(t *testing.T) {
	require := require.New(t)

	config := testConfig()
	config.MaxEntries = 3
	config.EnableLRU = false
	cache := New[string, String](config)

	cache.InsertDefault("key1", "value1")
	cache.InsertDefault("key2", "value2")
	cache.InsertDefault("key3", "value3")
	_, ok := cache.Get("key1")
	require.True(ok)

	cache.InsertDefault("key4", "value4")

	require.Equal(3, cache.Len())
	require.False(cache.Contains("key1"))
	require.True(cache.Contains("key2"))
	require.True(cache.Contains("key4"))
}

func TestCacheContainsDoesNotTouch(t *testing.T) {
	require := require.New(t)

	config := testConfig()
	config.MaxEntries = 2
	cache := New[string, String](config)

	cache.InsertDefault("a", "1")
	cache.InsertDefault("b", "2")
	require.True(cache.Contains("a"))

	cache.InsertDefault("c", "3")
	require.False(cache.Contains("a"))
	require.True(cache.Contains("b"))
	require.Zero(cache.Stats().Hits)
}

func TestCacheMemoryLimit(t *testing.T) {
	require := require.New(t)

	config := testConfig()
	config.MaxMemory = 20
	cache := New[string, String](config)

	cache.InsertDefault("key1", "0123456789")
	cache.InsertDefault("key2", "0123456789")
	cache.InsertDefault("key3", "0123456789")

	require.LessOrEqual(cache.MemoryUsage(), 20)
	require.Equal(2, cache.Len())
	require.False(cache.Contains("key1"))
	require.Equal(1.0, cache.PortionFilled())
}

func TestCacheAdmitsOversizeEntry(t *testing.T) {
	require := require.New(t)

	config := testConfig()
	config.MaxMemory = 10
	cache := New[string, Bytes](config)

	cache.InsertDefault("small", make(Bytes, 3))
	cache.InsertDefault("huge", make(Bytes, 50))

	require.Equal(1, cache.Len())
	require.True(cache.Contains("huge"))
	require.Equal(50, cache.MemoryUsage())

	// The next insert evicts the oversize entry.
	cache.InsertDefault("small", make(Bytes, 3))
	require.Equal(1, cache.Len())
	require.Equal(3, cache.MemoryUsage())
}

func TestCacheStats(t *testing.T) {
	require := require.New(t)

	cache := NewDefault[string, String]()
	require.Zero(cache.Stats().HitRate())

	cache.InsertDefault("key", "value")
	cache.Get("key")
	cache.Get("key")
	cache.Get("missing")

	stats := cache.Stats()
	require.Equal(uint64(2), stats.Hits)
	require.Equal(uint64(1), stats.Misses)
	require.InDelta(0.667, stats.HitRate(), 0.01)
	require.Equal(1, stats.CurrentEntries)
	require.Equal(5, stats.CurrentMemory)
}

func TestCacheTickSweepsExpired(t *testing.T) {
	require := require.New(t)

	config := testConfig()
	config.DefaultTTL = 100 * time.Millisecond
	config.DefaultStale = 0
	config.CleanupInterval = time.Second
	cache := New[string, String](config)

	cache.InsertDefault("key", "value")
	cache.Insert("long", "value", NewOptions().WithTTL(time.Hour))

	cache.Tick(500)
	require.Equal(2, cache.Len())

	cache.Tick(500)
	require.Equal(1, cache.Len())
	require.False(cache.Contains("key"))
	require.True(cache.Contains("long"))

	stats := cache.Stats()
	require.Equal(uint64(1), stats.Evictions)
	require.Equal(1, stats.CurrentEntries)
	require.Equal(5, stats.CurrentMemory)
}

func TestCacheSweepKeepsStale(t *testing.T) {
	require := require.New(t)

	config := testConfig()
	config.DefaultTTL = 100 * time.Millisecond
	config.DefaultStale = 10 * time.Second
	config.CleanupInterval = time.Second
	cache := New[string, String](config)

	cache.InsertDefault("key", "value")
	cache.Tick(1000)

	require.Equal(1, cache.Len())
	_, state, ok := cache.GetWithState("key")
	require.True(ok)
	require.Equal(Stale, state)
}

func TestCacheGetSweepsWhenDue(t *testing.T) {
	require := require.New(t)

	config := testConfig()
	config.DefaultTTL = 100 * time.Millisecond
	config.DefaultStale = 0
	config.CleanupInterval = time.Second
	cache := New[string, String](config)

	cache.InsertDefault("key", "value")
	cache.SetTimestamp(5000)
	require.Equal(1, cache.Len())

	_, ok := cache.Get("key")
	require.False(ok)
	require.Zero(cache.Len())
	require.Zero(cache.MemoryUsage())
	// Swept before lookup, so the key is now absent.
	require.Equal(uint64(1), cache.Stats().Misses)
}

func TestCacheUpdateEntry(t *testing.T) {
	require := require.New(t)

	cache := NewDefault[string, String]()
	cache.InsertDefault("key", "value1")
	cache.Tick(10)
	cache.InsertDefault("key", "value22")

	value, ok := cache.Get("key")
	require.True(ok)
	require.Equal(String("value22"), value)
	require.Equal(1, cache.Len())
	require.Equal(7, cache.MemoryUsage())
	require.Equal([]string{"key"}, cache.Keys())

	meta, ok := cache.Metadata("key")
	require.True(ok)
	require.Equal(uint64(10), meta.CreatedAt)
	require.Zero(cache.Stats().Invalidations)
}

func TestCacheRemove(t *testing.T) {
	require := require.New(t)

	cache := NewDefault[string, String]()
	cache.InsertDefault("key", "value")

	removed, ok := cache.Remove("key")
	require.True(ok)
	require.Equal(String("value"), removed)
	require.False(cache.Contains("key"))
	require.Zero(cache.MemoryUsage())
	require.Equal(uint64(1), cache.Stats().Invalidations)

	_, ok = cache.Remove("key")
	require.False(ok)
	require.Equal(uint64(1), cache.Stats().Invalidations)
}

func TestCacheClear(t *testing.T) {
	require := require.New(t)

	cache := NewDefault[string, String]()
	var events []Event
	cache.OnEvent(func(e Event) { events = append(events, e) })

	cache.InsertDefault("key1", "value1")
	cache.InsertDefault("key2", "value2")
	cache.Get("key1")
	cache.Get("missing")

	cache.Clear()

	require.True(cache.IsEmpty())
	require.Zero(cache.MemoryUsage())
	require.Empty(cache.Keys())
	require.Equal([]Event{{Kind: EventCleared}}, events)

	stats := cache.Stats()
	require.Equal(uint64(1), stats.Hits)
	require.Equal(uint64(1), stats.Misses)
	require.Zero(stats.CurrentEntries)
	require.Zero(stats.CurrentMemory)
}

func TestCacheListenersRunInOrder(t *testing.T) {
	require := require.New(t)

	cache := NewDefault[string, String]()
	var order []int
	cache.OnEvent(func(Event) { order = append(order, 1) })
	cache.OnEvent(func(Event) { order = append(order, 2) })

	cache.Clear()
	require.Equal([]int{1, 2}, order)
}

func TestCacheAccessMetadata(t *testing.T) {
	require := require.New(t)

	cache := NewDefault[string, String]()
	cache.Insert("key", "value", NewOptions().WithTag("a").WithPriority(9))
	cache.Tick(25)
	cache.Get("key")
	cache.GetWithState("key")

	meta, ok := cache.Metadata("key")
	require.True(ok)
	require.Equal(uint64(2), meta.AccessCount)
	require.Equal(uint64(25), meta.LastAccessed)
	require.Zero(meta.CreatedAt)
	require.Equal([]string{"a"}, meta.Tags)

	priority, ok := cache.Priority("key")
	require.True(ok)
	require.Equal(uint8(9), priority)

	_, ok = cache.Metadata("missing")
	require.False(ok)
}

func TestCacheTimestamp(t *testing.T) {
	require := require.New(t)

	cache := NewDefault[string, String]()
	require.Zero(cache.Timestamp())

	cache.SetTimestamp(1000)
	require.Equal(uint64(1000), cache.Timestamp())

	cache.Tick(500)
	require.Equal(uint64(1500), cache.Timestamp())

	cache.SetTimestamp(10)
	require.Equal(uint64(1500), cache.Timestamp())
}

func TestCacheZeroCapacityStillAdmits(t *testing.T) {
	require := require.New(t)

	config := testConfig()
	config.MaxEntries = 0
	cache := New[Key, Int64](config)

	cache.InsertDefault(KeyFromUint64(1), 1)
	cache.InsertDefault(KeyFromUint64(2), 2)

	require.Equal(1, cache.Len())
	require.True(cache.Contains(KeyFromUint64(2)))
}

// TestCacheInvariants runs random operations and checks memory accounting and
// recency bookkeeping after each one.
func TestCacheInvariants(t *testing.T) {
	for _, lru := range []bool{true, false} {
		t.Run(fmt.Sprintf("lru=%v", lru), func(t *testing.T) {
			require := require.New(t)

			config := testConfig()
			config.MaxEntries = 16
			config.MaxMemory = 256
			config.DefaultTTL = 50 * time.Millisecond
			config.DefaultStale = 50 * time.Millisecond
			config.CleanupInterval = 200 * time.Millisecond
			config.EnableLRU = lru
			cache := New[int, Bytes](config)

			rng := rand.New(rand.NewSource(1))
			tags := []string{"a", "b", "c"}
			for i := 0; i < 5000; i++ {
				key := rng.Intn(40)
				switch rng.Intn(7) {
				case 0, 1:
					opts := NewOptions().WithTag(tags[rng.Intn(len(tags))])
					cache.Insert(key, make(Bytes, rng.Intn(64)), opts)
				case 2:
					cache.Get(key)
				case 3:
					cache.GetWithState(key)
				case 4:
					cache.Remove(key)
				case 5:
					cache.Tick(uint64(rng.Intn(40)))
				case 6:
					if rng.Intn(20) == 0 {
						cache.InvalidateTag(tags[rng.Intn(len(tags))])
					}
				}

				keys := cache.Keys()
				require.Len(keys, cache.Len())

				sum := 0
				seen := make(map[int]struct{}, len(keys))
				for _, k := range keys {
					_, dup := seen[k]
					require.False(dup)
					seen[k] = struct{}{}

					meta, ok := cache.Metadata(k)
					require.True(ok)
					sum += meta.SizeBytes
				}
				require.Equal(sum, cache.MemoryUsage())
				require.Equal(cache.Len(), cache.Stats().CurrentEntries)
				require.Equal(sum, cache.Stats().CurrentMemory)
				require.LessOrEqual(cache.Len(), config.MaxEntries)
				require.LessOrEqual(cache.MemoryUsage(), config.MaxMemory)
			}
		})
	}
}

func TestCacheLogging(t *testing.T) {
	require := require.New(t)

	core, logs := observer.New(zapcore.DebugLevel)
	config := testConfig()
	config.MaxEntries = 1
	config.Logger = zap.New(core)
	cache := New[string, String](config)
	cache.OnEvent(LogListener(config.Logger))

	cache.InsertDefault("a", "1")
	cache.InsertDefault("b", "2")
	require.Equal(1, logs.FilterMessage("evicted entry").Len())

	cache.Insert("c", "3", NewOptions().WithTag("t"))
	cache.InvalidateTag("t")
	events := logs.FilterMessage("cache event").AllUntimed()
	require.Len(events, 1)
	require.Equal("TagInvalidated", events[0].ContextMap()["kind"])
	require.Equal(int64(1), events[0].ContextMap()["count"])
}
