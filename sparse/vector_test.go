// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sparse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVectorSetClear(t *testing.T) {
	var v Vector
	v.Setup(8)
	v.Set(3, 1.5)
	v.Set(6, -2.5)
	require.Equal(t, 2, v.Count)
	require.Equal(t, 1.5, v.Array[3])
	require.Equal(t, -2.5, v.Array[6])

	v.Clear()
	require.Equal(t, 0, v.Count)
	for i := range v.Array {
		require.Zero(t, v.Array[i])
	}
}

func TestVectorClearDense(t *testing.T) {
	var v Vector
	v.Setup(4)
	for i := range v.Array {
		v.Array[i] = float64(i + 1)
	}
	v.Count = -1 // packed list invalid
	v.Clear()
	for i := range v.Array {
		require.Zero(t, v.Array[i])
	}
}

func TestVectorRepack(t *testing.T) {
	var v Vector
	v.Setup(5)
	v.Array[0] = 1
	v.Array[2] = 1e-20 // cancelled
	v.Array[4] = -3
	v.Repack()
	require.Equal(t, 2, v.Count)
	require.Equal(t, []int{0, 4}, v.Index[:v.Count])
	require.Zero(t, v.Array[2])
}

func TestLoopStyle(t *testing.T) {
	toEntry, useIndices := LoopStyle(5, 1000)
	require.True(t, useIndices)
	require.Equal(t, 5, toEntry)

	toEntry, useIndices = LoopStyle(500, 1000)
	require.False(t, useIndices)
	require.Equal(t, 1000, toEntry)

	toEntry, useIndices = LoopStyle(-1, 1000)
	require.False(t, useIndices)
	require.Equal(t, 1000, toEntry)
}
