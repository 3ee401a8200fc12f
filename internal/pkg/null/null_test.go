// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package null_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"tome/internal/pkg/null"
)

func TestNull_Ptr(t *testing.T) {
	t.Parallel()

	n := null.Int{Set: true, Value: 1}
	require.Equal(t, 1, *n.Ptr())

	n = null.Int{Set: false, Value: 1}
	require.Nil(t, n.Ptr())
}

func TestNull_Default(t *testing.T) {
	t.Parallel()

	n := null.Int{Set: true, Value: 1}
	require.Equal(t, 1, n.Default(10))

	n = null.Int{Set: false, Value: 1}
	require.Equal(t, 10, n.Default(10))
}

func TestNull_Interface(t *testing.T) {
	t.Parallel()

	n := null.Int{Set: true, Value: 1}
	require.EqualValues(t, 1, n.Interface())

	n = null.Int{Set: false, Value: 1}
	require.EqualValues(t, nil, n.Interface())
}

func TestNull_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var n null.Int
	require.NoError(t, json.Unmarshal([]byte("10"), &n))
	require.EqualValues(t, 10, n.Value)

	n = null.Int{}
	require.NoError(t, json.Unmarshal([]byte(" null "), &n))
	require.False(t, n.Set)
}

func TestNull_MarshalJSON(t *testing.T) {
	t.Parallel()

	v := struct {
		Comment null.String `json:"comment"`
		Private null.Bool   `json:"private"`
	}{Private: null.NewBool(true)}

	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.Equal(t, `{"comment":null,"private":true}`, string(b))
}

func TestNewFromPtr(t *testing.T) {
	t.Parallel()

	require.False(t, null.NewFromPtr[int](nil).Set)

	i := 5
	require.Equal(t, null.Int{Set: true, Value: 5}, null.NewFromPtr(&i))
}
