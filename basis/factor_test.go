// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package basis

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/simplex/sparse"
)

// The 3x4 structural matrix
//
//	[ 1  0  2  0 ]
//	[ 0  3  0  1 ]
//	[ 4  0  5 -1 ]
func testMatrix() *sparse.Matrix {
	start := []int{0, 2, 3, 5, 7}
	index := []int{0, 2, 1, 0, 2, 1, 2}
	value := []float64{1, 4, 3, 2, 5, 1, -1}
	return sparse.NewMatrix(4, 3, start, index, value)
}

func denseBasis(m *sparse.Matrix, basicIndex []int) *mat.Dense {
	b := mat.NewDense(3, 3, nil)
	for r, v := range basicIndex {
		if v < m.NumCol() {
			index, value := m.Col(v)
			for el, i := range index {
				b.Set(i, r, value[el])
			}
		} else {
			b.Set(v-m.NumCol(), r, 1)
		}
	}
	return b
}

func solveDense(t *testing.T, b *mat.Dense, rhs []float64, trans bool) []float64 {
	var lu mat.LU
	lu.Factorize(b)
	var sol mat.VecDense
	require.NoError(t, lu.SolveVecTo(&sol, trans, mat.NewVecDense(len(rhs), rhs)))
	out := make([]float64, len(rhs))
	for i := range out {
		out[i] = sol.AtVec(i)
	}
	return out
}

func TestFtranBtranAgainstDense(t *testing.T) {
	m := testMatrix()
	f := NewFactor(m)
	basicIndex := []int{0, 2, 3}
	require.Zero(t, f.Factorize(basicIndex))

	rhs := []float64{1, -2, 0.5}
	var v sparse.Vector
	v.Setup(3)
	for i, x := range rhs {
		v.Set(i, x)
	}
	f.Ftran(&v)
	want := solveDense(t, denseBasis(m, basicIndex), rhs, false)
	for i := range want {
		require.InDelta(t, want[i], v.Array[i], 1e-10, "ftran %d", i)
	}

	v.Clear()
	for i, x := range rhs {
		v.Set(i, x)
	}
	f.Btran(&v)
	want = solveDense(t, denseBasis(m, basicIndex), rhs, true)
	for i := range want {
		require.InDelta(t, want[i], v.Array[i], 1e-10, "btran %d", i)
	}
}

func TestUnitBtran(t *testing.T) {
	m := testMatrix()
	f := NewFactor(m)
	basicIndex := []int{0, 2, 3}
	require.Zero(t, f.Factorize(basicIndex))

	var v sparse.Vector
	v.Setup(3)
	f.UnitBtran(1, &v)
	rhs := []float64{0, 1, 0}
	want := solveDense(t, denseBasis(m, basicIndex), rhs, true)
	for i := range want {
		require.InDelta(t, want[i], v.Array[i], 1e-10, "row %d", i)
	}
}

func TestEtaUpdateMatchesRefactorization(t *testing.T) {
	m := testMatrix()
	f := NewFactor(m)
	basicIndex := []int{0, 2, 3}
	require.Zero(t, f.Factorize(basicIndex))

	// Pivot variable 1 into row 0
	var colAq sparse.Vector
	colAq.Setup(3)
	index, value := m.Col(1)
	for el, i := range index {
		colAq.Set(i, value[el])
	}
	f.Ftran(&colAq)
	f.Update(&colAq, 0)
	require.Equal(t, 1, f.UpdateCount())

	updatedBasis := []int{1, 2, 3}
	rhs := []float64{0.25, 1, -1}
	var v sparse.Vector
	v.Setup(3)
	for i, x := range rhs {
		v.Set(i, x)
	}
	f.Ftran(&v)
	want := solveDense(t, denseBasis(m, updatedBasis), rhs, false)
	for i := range want {
		require.InDelta(t, want[i], v.Array[i], 1e-9, "ftran %d", i)
	}

	v.Clear()
	for i, x := range rhs {
		v.Set(i, x)
	}
	f.Btran(&v)
	want = solveDense(t, denseBasis(m, updatedBasis), rhs, true)
	for i := range want {
		require.InDelta(t, want[i], v.Array[i], 1e-9, "btran %d", i)
	}

	// Refactorization drops the eta file and agrees with itself
	require.Zero(t, f.Factorize(updatedBasis))
	require.Zero(t, f.UpdateCount())
	v.Clear()
	for i, x := range rhs {
		v.Set(i, x)
	}
	f.Ftran(&v)
	for i := range want {
		want2 := solveDense(t, denseBasis(m, updatedBasis), rhs, false)
		require.InDelta(t, want2[i], v.Array[i], 1e-10)
	}
}

func TestFactorizeRankDeficient(t *testing.T) {
	m := testMatrix()
	f := NewFactor(m)
	// Columns 0, 2 and logical 0 have an all-zero second row
	require.NotZero(t, f.Factorize([]int{0, 2, 4}))
}

func TestLogicalBasisConsistent(t *testing.T) {
	b := Logical(4, 3)
	require.True(t, b.Consistent())
	require.Equal(t, []int{4, 5, 6}, b.BasicIndex)

	// Break it: one variable claimed basic twice
	b.BasicIndex[1] = 4
	require.False(t, b.Consistent())
}
