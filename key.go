// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package datacache

import "strconv"

// Key is an opaque 64-bit cache identifier.
type Key uint64

// KeyFromUint64 wraps a raw integer.
func KeyFromUint64(v uint64) Key {
	return Key(v)
}

// KeyFromString folds the UTF-8 bytes of s with hash = hash*31 + b.
// The hash is stable across runs. Collisions are not detected.
func KeyFromString(s string) Key {
	var h uint64
	for i := 0; i < len(s); i++ {
		h = h*31 + uint64(s[i])
	}
	return Key(h)
}

// Uint64 returns the raw key value.
func (k Key) Uint64() uint64 {
	return uint64(k)
}

func (k Key) String() string {
	return "Key(" + strconv.FormatUint(uint64(k), 10) + ")"
}
