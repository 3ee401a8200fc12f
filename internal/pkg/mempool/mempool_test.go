// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package mempool_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tome/internal/pkg/mempool"
)

func TestSlice(t *testing.T) {
	t.Parallel()

	b := mempool.GetSlice()
	require.Len(t, b, mempool.SliceSize)

	mempool.PutSlice(b[:10])
	require.Len(t, mempool.GetSlice(), mempool.SliceSize)

	// foreign slices are dropped
	mempool.PutSlice(make([]byte, 10))
}

func TestBuffer(t *testing.T) {
	t.Parallel()

	b := mempool.Get()
	_, _ = b.WriteString("d1:ai1ee")
	require.Equal(t, "d1:ai1ee", b.String())
	mempool.Put(b)
}
