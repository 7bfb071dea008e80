// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package datacache

import (
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidDuration = errors.New("invalid duration")
	ErrInvalidSize     = errors.New("invalid size")
)

// fileConfig is the YAML form of Config. Unset fields keep their defaults.
type fileConfig struct {
	MaxEntries      *int    `yaml:"max_entries"`
	MaxMemory       *string `yaml:"max_memory"`
	DefaultTTL      *string `yaml:"default_ttl"`
	DefaultStale    *string `yaml:"default_stale"`
	EnableLRU       *bool   `yaml:"enable_lru"`
	CleanupInterval *string `yaml:"cleanup_interval"`
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading cache config %s", path)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML on top of DefaultConfig. Durations use Go duration
// syntax ("90s", "5m"). max_memory accepts a plain byte count or a size such
// as "50MiB" or "10 MB".
func ParseConfig(data []byte) (Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, errors.Wrap(err, "decoding cache config")
	}

	cfg := DefaultConfig()
	if fc.MaxEntries != nil {
		cfg.MaxEntries = *fc.MaxEntries
	}
	if fc.EnableLRU != nil {
		cfg.EnableLRU = *fc.EnableLRU
	}
	if fc.MaxMemory != nil {
		size, err := parseSize(*fc.MaxMemory)
		if err != nil {
			return Config{}, errors.Wrap(err, "max_memory")
		}
		cfg.MaxMemory = size
	}

	durations := []struct {
		name string
		raw  *string
		dst  *time.Duration
	}{
		{"default_ttl", fc.DefaultTTL, &cfg.DefaultTTL},
		{"default_stale", fc.DefaultStale, &cfg.DefaultStale},
		{"cleanup_interval", fc.CleanupInterval, &cfg.CleanupInterval},
	}
	for _, d := range durations {
		if d.raw == nil {
			continue
		}
		v, err := time.ParseDuration(*d.raw)
		if err != nil || v < 0 {
			return Config{}, errors.Wrapf(ErrInvalidDuration, "%s: %q", d.name, *d.raw)
		}
		*d.dst = v
	}
	return cfg, nil
}

func parseSize(raw string) (int, error) {
	if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
		return n, nil
	}
	n, err := humanize.ParseBytes(raw)
	if err != nil || n > uint64(maxInt) {
		return 0, errors.Wrapf(ErrInvalidSize, "%q", raw)
	}
	return int(n), nil
}

const maxInt = int(^uint(0) >> 1)
