// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package primal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecreasingHeapKeepsTopK(t *testing.T) {
	const capacity = 4
	values := []float64{3, 9, 1, 7, 5, 8, 2, 6}
	heapValue := make([]float64, capacity+1)
	heapIndex := make([]int, capacity+1)
	n := 0
	for i, v := range values {
		addToDecreasingHeap(&n, capacity, heapValue, heapIndex, v, i)
	}
	require.Equal(t, capacity, n)

	sortDecreasingHeap(n, heapValue, heapIndex)
	require.Equal(t, []float64{9, 8, 7, 6}, heapValue[1:n+1])
	require.Equal(t, []int{1, 5, 3, 7}, heapIndex[1:n+1])
}

func TestDecreasingHeapBelowCapacity(t *testing.T) {
	const capacity = 8
	heapValue := make([]float64, capacity+1)
	heapIndex := make([]int, capacity+1)
	n := 0
	for i, v := range []float64{2, 4, 1} {
		addToDecreasingHeap(&n, capacity, heapValue, heapIndex, v, i)
	}
	require.Equal(t, 3, n)
	sortDecreasingHeap(n, heapValue, heapIndex)
	require.Equal(t, []float64{4, 2, 1}, heapValue[1:n+1])
	require.Equal(t, []int{1, 0, 2}, heapIndex[1:n+1])
}
