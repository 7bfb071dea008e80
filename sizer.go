// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package datacache

import "unsafe"

// Sizer reports the approximate memory footprint of a cached value in bytes.
// The size is read once at insert and used only for the memory bound.
type Sizer interface {
	CacheSize() int
}

var (
	_ Sizer = String("")
	_ Sizer = Bytes(nil)
	_ Sizer = Slice[int](nil)
	_ Sizer = Box[int]{}
	_ Sizer = Unit{}
	_ Sizer = Int32(0)
	_ Sizer = Int64(0)
	_ Sizer = Float32(0)
	_ Sizer = Float64(0)
)

// String is a string sized by its byte length.
type String string

func (s String) CacheSize() int { return len(s) }

// Bytes is a byte slice sized by its length.
type Bytes []byte

func (b Bytes) CacheSize() int { return len(b) }

// Slice is sized as len * sizeof(T). Memory behind pointers in T is not counted.
type Slice[T any] []T

func (s Slice[T]) CacheSize() int {
	var zero T
	return len(s) * int(unsafe.Sizeof(zero))
}

// Box holds a pointer and is sized as sizeof(T).
type Box[T any] struct {
	Value *T
}

func (Box[T]) CacheSize() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// Unit carries no data.
type Unit struct{}

func (Unit) CacheSize() int { return 0 }

type Int32 int32

func (Int32) CacheSize() int { return 4 }

type Int64 int64

func (Int64) CacheSize() int { return 8 }

type Float32 float32

func (Float32) CacheSize() int { return 4 }

type Float64 float64

func (Float64) CacheSize() int { return 8 }
