// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

// Package as converts between integer types and panics on overflow.
package as

import (
	"fmt"
	"math"
)

type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func Uint32[T integer](v T) uint32 {
	if v < 0 || uint64(v) > math.MaxUint32 {
		panic(fmt.Sprintf("%d overflows uint32", v))
	}

	return uint32(v)
}

func Uint64[T integer](v T) uint64 {
	if v < 0 {
		panic(fmt.Sprintf("%d overflows uint64", v))
	}

	return uint64(v)
}

func Int[T integer](v T) int {
	if v > 0 && uint64(v) > math.MaxInt {
		panic(fmt.Sprintf("%d overflows int", v))
	}

	if v < 0 && int64(v) < math.MinInt {
		panic(fmt.Sprintf("%d overflows int", v))
	}

	return int(v)
}
