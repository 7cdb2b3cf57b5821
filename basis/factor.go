// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package basis

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/simplex/sparse"
)

// condLimit is the condition estimate beyond which a factorization is
// reported as rank deficient.
const condLimit = 1e14

// eta is one product-form update: after a pivot on row the new basis is
// Bₙₑᵤ = B·E with E the identity whose pivotal column is the FTRANed
// entering column.
type eta struct {
	row   int
	pivot float64
	index []int
	value []float64
}

// Factor is the LU factorization of the current basis matrix plus the eta
// file accumulated since the last refactorization.
type Factor struct {
	numCol, numRow int
	matrix         *sparse.Matrix

	lu   mat.LU
	b    *mat.Dense
	rhs  *mat.VecDense
	sol  *mat.VecDense
	etas []eta

	updateCount int

	// BuildTick estimates the cost of the last refactorization; solve
	// operations accumulate ticks against it on their result vectors.
	BuildTick float64
}

// NewFactor prepares a factorization workspace over the structural matrix.
func NewFactor(matrix *sparse.Matrix) *Factor {
	numRow := matrix.NumRow()
	return &Factor{
		numCol: matrix.NumCol(),
		numRow: numRow,
		matrix: matrix,
		b:      mat.NewDense(numRow, numRow, nil),
		rhs:    mat.NewVecDense(numRow, nil),
		sol:    mat.NewVecDense(numRow, nil),
	}
}

// UpdateCount reports the number of eta updates since refactorization.
func (f *Factor) UpdateCount() int { return f.updateCount }

// Factorize refreshes the LU factors for the given basic variables and
// discards the eta file. It returns 0 on success and 1 when the basis
// matrix is singular or its condition estimate exceeds condLimit; the
// value is not the size of the deficiency, and on failure the eta file
// and update count are left as they were.
func (f *Factor) Factorize(basicIndex []int) int {
	if len(basicIndex) != f.numRow {
		panic("bound check error")
	}
	f.b.Zero()
	numNz := 0
	for r, v := range basicIndex {
		if v < f.numCol {
			index, value := f.matrix.Col(v)
			for el, i := range index {
				f.b.Set(i, r, value[el])
			}
			numNz += len(index)
		} else {
			f.b.Set(v-f.numCol, r, 1)
			numNz++
		}
	}
	f.lu.Factorize(f.b)
	cond := f.lu.Cond()
	if math.IsNaN(cond) || cond > condLimit {
		return 1
	}
	f.etas = f.etas[:0]
	f.updateCount = 0
	f.BuildTick = 10*float64(f.numRow) + float64(numNz)
	return 0
}

// Ftran solves B·x = v in place.
func (f *Factor) Ftran(v *sparse.Vector) {
	f.luSolve(v, false)
	for k := range f.etas {
		e := &f.etas[k]
		pivot := v.Array[e.row] / e.pivot
		if pivot != 0 {
			for el, i := range e.index {
				v.Array[i] -= e.value[el] * pivot
			}
		}
		v.Array[e.row] = pivot
		v.SyntheticTick += float64(len(e.index))
	}
	v.Repack()
}

// Btran solves Bᵀ·x = v in place.
func (f *Factor) Btran(v *sparse.Vector) {
	for k := len(f.etas) - 1; k >= 0; k-- {
		e := &f.etas[k]
		x := v.Array[e.row]
		for el, i := range e.index {
			x -= e.value[el] * v.Array[i]
		}
		v.Array[e.row] = x / e.pivot
		v.SyntheticTick += float64(len(e.index))
	}
	f.luSolve(v, true)
	v.Repack()
}

// UnitBtran solves Bᵀ·x = e_row into out.
func (f *Factor) UnitBtran(row int, out *sparse.Vector) {
	out.Clear()
	out.Set(row, 1)
	f.Btran(out)
}

// Update appends a product-form eta for a pivot on rowOut with the
// FTRANed entering column colAq.
func (f *Factor) Update(colAq *sparse.Vector, rowOut int) {
	e := eta{row: rowOut, pivot: colAq.Array[rowOut]}
	for iEl := 0; iEl < colAq.Count; iEl++ {
		i := colAq.Index[iEl]
		if i == rowOut {
			continue
		}
		e.index = append(e.index, i)
		e.value = append(e.value, colAq.Array[i])
	}
	f.etas = append(f.etas, e)
	f.updateCount++
}

func (f *Factor) luSolve(v *sparse.Vector, trans bool) {
	for i := 0; i < f.numRow; i++ {
		f.rhs.SetVec(i, v.Array[i])
	}
	if err := f.lu.SolveVecTo(f.sol, trans, f.rhs); err != nil {
		// An ill-conditioned factor still yields a solution; anything
		// else is caught at Factorize as rank deficiency.
		if _, conditioned := err.(mat.Condition); !conditioned {
			for i := 0; i < f.numRow; i++ {
				v.Array[i] = math.NaN()
			}
			return
		}
	}
	for i := 0; i < f.numRow; i++ {
		v.Array[i] = f.sol.AtVec(i)
	}
	v.SyntheticTick += float64(f.numRow)
}
