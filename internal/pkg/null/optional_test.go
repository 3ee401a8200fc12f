// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package null_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tome/internal/pkg/null"
)

func TestFromZero(t *testing.T) {
	t.Parallel()

	require.False(t, null.FromZero(int64(0)).Set)
	require.False(t, null.FromZero("").Set)

	require.Equal(t, null.NewInt64(3), null.FromZero(int64(3)))
	require.Equal(t, null.NewString("s"), null.FromZero("s"))
}

func TestOr(t *testing.T) {
	t.Parallel()

	require.Equal(t, null.NewInt64(2), null.Or(null.Int64{}, null.NewInt64(2), null.NewInt64(3)))
	require.False(t, null.Or[int64]().Set)
	require.False(t, null.Or(null.Int64{}, null.Int64{}).Set)
}
