// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package primal

// Bounded top-k selection over (measure, column) pairs. Entries live at
// positions 1..n of the value/index arrays, arranged as a min-heap on the
// measure so the weakest candidate is evicted first.

// addToDecreasingHeap offers a value to the heap: appended while below
// capacity, otherwise replacing the weakest entry when it beats it.
func addToDecreasingHeap(n *int, capacity int, heapValue []float64, heapIndex []int, value float64, index int) {
	if *n < capacity {
		*n++
		child := *n
		heapValue[child] = value
		heapIndex[child] = index
		for child > 1 && heapValue[child] < heapValue[child/2] {
			heapValue[child], heapValue[child/2] = heapValue[child/2], heapValue[child]
			heapIndex[child], heapIndex[child/2] = heapIndex[child/2], heapIndex[child]
			child /= 2
		}
		return
	}
	if value > heapValue[1] {
		heapValue[1] = value
		heapIndex[1] = index
		minHeapify(heapValue, heapIndex, 1, *n)
	}
}

// sortDecreasingHeap rearranges the heap entries 1..n into decreasing
// order of measure.
func sortDecreasingHeap(n int, heapValue []float64, heapIndex []int) {
	for i := n; i >= 2; i-- {
		heapValue[1], heapValue[i] = heapValue[i], heapValue[1]
		heapIndex[1], heapIndex[i] = heapIndex[i], heapIndex[1]
		minHeapify(heapValue, heapIndex, 1, i-1)
	}
}

func minHeapify(heapValue []float64, heapIndex []int, i, n int) {
	value := heapValue[i]
	index := heapIndex[i]
	j := 2 * i
	for j <= n {
		if j < n && heapValue[j+1] < heapValue[j] {
			j++
		}
		if value < heapValue[j] {
			break
		}
		heapValue[j/2] = heapValue[j]
		heapIndex[j/2] = heapIndex[j]
		j *= 2
	}
	heapValue[j/2] = value
	heapIndex[j/2] = index
}
