// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command datacache walks a cache through eviction, stale reads, tag
// invalidation and expiry on the virtual clock.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/luxfi/datacache"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML cache config")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(*configPath, logger); err != nil {
		logger.Fatal("demo failed", zap.Error(err))
	}
}

func run(configPath string, logger *zap.Logger) error {
	config := datacache.DefaultConfig()
	config.MaxEntries = 3
	if configPath != "" {
		loaded, err := datacache.LoadConfig(configPath)
		if err != nil {
			return err
		}
		config = loaded
	}
	config.Logger = logger

	cache := datacache.New[datacache.Key, datacache.String](config)
	cache.OnEvent(datacache.LogListener(logger))

	k := func(s string) datacache.Key { return datacache.KeyFromString(s) }

	cache.InsertDefault(k("k1"), "one")
	cache.InsertDefault(k("k2"), "two")
	cache.Insert(k("k3"), "three", datacache.NewOptions().WithTag("numbers"))

	// Touch k1 so k2 is the eviction candidate.
	cache.Get(k("k1"))
	cache.Insert(k("k4"), "four", datacache.NewOptions().WithTag("numbers"))
	logger.Info("after insert",
		zap.Bool("k1", cache.Contains(k("k1"))),
		zap.Bool("k2", cache.Contains(k("k2"))),
		zap.Int("len", cache.Len()),
	)

	cache.InvalidateTag("numbers")

	cache.Tick(uint64((config.DefaultTTL + time.Millisecond).Milliseconds()))
	if v, state, ok := cache.GetWithState(k("k1")); ok {
		logger.Info("read", zap.String("value", string(v)), zap.Stringer("state", state))
	}

	cache.Tick(uint64(config.DefaultStale.Milliseconds()))
	if _, ok := cache.Get(k("k1")); !ok {
		logger.Info("k1 expired")
	}

	stats := cache.Stats()
	fmt.Printf("hits=%d misses=%d evictions=%d invalidations=%d hit_rate=%.2f entries=%d memory=%s\n",
		stats.Hits,
		stats.Misses,
		stats.Evictions,
		stats.Invalidations,
		stats.HitRate(),
		stats.CurrentEntries,
		humanize.IBytes(uint64(stats.CurrentMemory)),
	)
	return nil
}
