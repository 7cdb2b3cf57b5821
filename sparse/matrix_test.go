// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sparse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// testMatrix is the 3x4 matrix
//
//	[ 1  0  2  0 ]
//	[ 0  3  0  1 ]
//	[ 4  0  5 -1 ]
func testMatrix() *Matrix {
	start := []int{0, 2, 3, 5, 7}
	index := []int{0, 2, 1, 0, 2, 1, 2}
	value := []float64{1, 4, 3, 2, 5, 1, -1}
	return NewMatrix(4, 3, start, index, value)
}

func densePrice(vec []float64) []float64 {
	a := [][]float64{
		{1, 0, 2, 0},
		{0, 3, 0, 1},
		{4, 0, 5, -1},
	}
	out := make([]float64, 4)
	for j := 0; j < 4; j++ {
		for i := 0; i < 3; i++ {
			out[j] += vec[i] * a[i][j]
		}
	}
	return out
}

func TestPriceByColumn(t *testing.T) {
	m := testMatrix()
	var vec, result Vector
	vec.Setup(3)
	result.Setup(4)
	vec.Set(0, 1)
	vec.Set(2, -2)

	m.PriceByColumn(&result, &vec)
	want := densePrice(vec.Array)
	for j := 0; j < 4; j++ {
		require.InDelta(t, want[j], result.Array[j], 1e-12, "column %d", j)
	}
}

func TestPriceByRowSparseResult(t *testing.T) {
	m := testMatrix()
	var vec, result Vector
	vec.Setup(3)
	result.Setup(4)
	vec.Set(1, 2)
	vec.Set(2, 0.5)

	m.PriceByRowSparseResult(&result, &vec)
	want := densePrice(vec.Array)
	for j := 0; j < 4; j++ {
		require.InDelta(t, want[j], result.Array[j], 1e-12, "column %d", j)
	}
	// Packed list covers exactly the nonzeros
	seen := map[int]bool{}
	for i := 0; i < result.Count; i++ {
		seen[result.Index[i]] = true
	}
	for j := 0; j < 4; j++ {
		require.Equal(t, want[j] != 0, seen[j], "column %d", j)
	}
}

func TestPriceByRowWithSwitch(t *testing.T) {
	m := testMatrix()
	var vec, result Vector
	vec.Setup(3)
	result.Setup(4)
	vec.Set(0, 1)
	vec.Set(1, 1)
	vec.Set(2, 1)

	// A tiny switch density forces the dense finish
	m.PriceByRowSparseResultWithSwitch(&result, &vec, 0.0)
	want := densePrice(vec.Array)
	for j := 0; j < 4; j++ {
		require.InDelta(t, want[j], result.Array[j], 1e-12, "column %d", j)
	}
}

func TestUpdatePartition(t *testing.T) {
	m := testMatrix()
	var vec, result Vector
	vec.Setup(3)
	result.Setup(4)
	vec.Set(0, 1)
	vec.Set(1, 1)
	vec.Set(2, 1)

	// Column 2 becomes basic: row-wise PRICE must no longer see it
	m.Update(2, 4)
	m.PriceByRowSparseResult(&result, &vec)
	require.Zero(t, result.Array[2])
	want := densePrice(vec.Array)
	for _, j := range []int{0, 1, 3} {
		require.InDelta(t, want[j], result.Array[j], 1e-12, "column %d", j)
	}

	// Column 2 leaves the basis for column 0: the partition swaps back
	m.Update(0, 2)
	m.PriceByRowSparseResult(&result, &vec)
	require.Zero(t, result.Array[0])
	require.InDelta(t, want[2], result.Array[2], 1e-12)
}
