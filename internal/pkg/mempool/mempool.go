// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package mempool

import (
	"github.com/colega/zeropool"
	"github.com/docker/go-units"
	"github.com/valyala/bytebufferpool"
)

// SliceSize is the length of slices returned by GetSlice.
const SliceSize = units.MiB

var pool = zeropool.New(func() []byte {
	return make([]byte, SliceSize)
})

// GetSlice returns a read buffer of SliceSize bytes.
func GetSlice() []byte {
	return pool.Get()
}

func PutSlice(slice []byte) {
	if cap(slice) != SliceSize {
		return
	}

	pool.Put(slice[:SliceSize])
}

// Get returns an empty buffer for encoding.
func Get() *bytebufferpool.ByteBuffer {
	return bytebufferpool.Get()
}

func Put(b *bytebufferpool.ByteBuffer) {
	bytebufferpool.Put(b)
}
