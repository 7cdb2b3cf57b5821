// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sparse provides the hybrid sparse/dense working vectors and the
// column-wise/row-wise constraint matrix with its PRICE kernels, shared by
// the basis factorization and the simplex iteration.
package sparse

import "math"

// zeroTolerance cancels values this small when a result is repacked.
const zeroTolerance = 1e-14

// Vector is a working vector of fixed dimension holding a packed list of
// nonzero positions alongside the full dense array. Count < 0 marks the
// packed list invalid, in which case the array alone is authoritative.
type Vector struct {
	Count int
	Index []int
	Array []float64

	// SyntheticTick estimates the cost of the operations that produced
	// the current contents, used by the invert-vs-update clock.
	SyntheticTick float64
}

// Setup allocates the vector for the given dimension and clears it.
func (v *Vector) Setup(dim int) {
	v.Index = make([]int, dim)
	v.Array = make([]float64, dim)
	v.Count = 0
	v.SyntheticTick = 0
}

// Dim reports the dimension of the vector.
func (v *Vector) Dim() int { return len(v.Array) }

// Clear zeroes the vector, sparsely when the packed list is valid and
// short enough to beat a dense wipe.
func (v *Vector) Clear() {
	dim := len(v.Array)
	if v.Count >= 0 && v.Count <= dim/4 {
		for i := 0; i < v.Count; i++ {
			v.Array[v.Index[i]] = 0
		}
	} else {
		for i := range v.Array {
			v.Array[i] = 0
		}
	}
	v.Count = 0
	v.SyntheticTick = 0
}

// Set stores a value at position i, extending the packed list. The caller
// must not set the same position twice without an intervening Clear.
func (v *Vector) Set(i int, x float64) {
	v.Array[i] = x
	v.Index[v.Count] = i
	v.Count++
}

// Repack rebuilds the packed list from the dense array, cancelling
// values below the zero tolerance.
func (v *Vector) Repack() {
	count := 0
	for i, x := range v.Array {
		if math.Abs(x) > zeroTolerance {
			v.Index[count] = i
			count++
		} else {
			v.Array[i] = 0
		}
	}
	v.Count = count
}

// CopyFrom makes v a copy of from, which must have the same dimension.
func (v *Vector) CopyFrom(from *Vector) {
	if len(v.Array) != len(from.Array) {
		panic("bound check error")
	}
	copy(v.Array, from.Array)
	copy(v.Index, from.Index)
	v.Count = from.Count
	v.SyntheticTick = from.SyntheticTick
}

// LoopStyle decides between indexed and dense iteration over a hybrid
// vector: it returns the loop extent and whether entries should be read
// through the packed list. A dense pass is used when the packed list is
// invalid or the density makes indexed access counterproductive.
func LoopStyle(count, dim int) (toEntry int, useIndices bool) {
	useIndices = count >= 0 && count < dim/10
	if useIndices {
		return count, true
	}
	return dim, false
}
