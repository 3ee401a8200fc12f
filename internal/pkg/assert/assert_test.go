// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

//go:build !release

package assert_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tome/internal/pkg/assert"
)

func TestEqual(t *testing.T) {
	t.Parallel()

	require.NotPanics(t, func() { assert.Equal(1, 1) })
	require.PanicsWithValue(t, "assert failed", func() { assert.Equal(1, 2) })
	require.PanicsWithValue(t, "bad", func() { assert.Equal("a", "b", "bad") })
}

func TestNotEqual(t *testing.T) {
	t.Parallel()

	require.NotPanics(t, func() { assert.NotEqual(1, 2) })
	require.PanicsWithValue(t, "same", func() { assert.NotEqual(1, 1, "same") })
}
