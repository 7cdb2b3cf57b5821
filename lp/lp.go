// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lp defines the computational form of a linear program consumed
// by the simplex solver: minimize or maximize cᵀx over l ≤ x ≤ u subject
// to L ≤ Ax ≤ U, with A held column-wise in compressed sparse form.
package lp

import (
	"math"

	"github.com/pkg/errors"
)

// Inf is the bound magnitude treated as infinite.
const Inf = math.MaxFloat64

// ObjSense selects the optimization direction.
type ObjSense int

const (
	Minimize ObjSense = 1
	Maximize ObjSense = -1
)

// Model is a linear program in computational form.
//
// The constraint matrix has NumCol structural columns over NumRow rows,
// stored column-wise: column j holds entries AIndex[AStart[j]:AStart[j+1]]
// with values AValue[AStart[j]:AStart[j+1]]. Bounds use ±Inf for
// unbounded directions.
type Model struct {
	NumCol int
	NumRow int

	AStart []int
	AIndex []int
	AValue []float64

	ColCost  []float64
	ColLower []float64
	ColUpper []float64

	RowLower []float64
	RowUpper []float64

	Sense  ObjSense
	Offset float64
}

// Validate checks the dimensions, bounds and matrix indices of the model.
// It is a pure data check: the solver requires it to pass before entry.
func (m *Model) Validate() error {
	if m.NumCol <= 0 {
		return errors.Errorf("lp: number of columns %d must be positive", m.NumCol)
	}
	if m.NumRow <= 0 {
		return errors.Errorf("lp: number of rows %d must be positive", m.NumRow)
	}
	if m.Sense != Minimize && m.Sense != Maximize {
		return errors.Errorf("lp: objective sense %d unknown", m.Sense)
	}
	switch {
	case len(m.ColCost) != m.NumCol:
		return errors.Errorf("lp: cost size %d must equal %d", len(m.ColCost), m.NumCol)
	case len(m.ColLower) != m.NumCol || len(m.ColUpper) != m.NumCol:
		return errors.Errorf("lp: column bound sizes %d/%d must equal %d",
			len(m.ColLower), len(m.ColUpper), m.NumCol)
	case len(m.RowLower) != m.NumRow || len(m.RowUpper) != m.NumRow:
		return errors.Errorf("lp: row bound sizes %d/%d must equal %d",
			len(m.RowLower), len(m.RowUpper), m.NumRow)
	case len(m.AStart) != m.NumCol+1:
		return errors.Errorf("lp: matrix start size %d must equal %d", len(m.AStart), m.NumCol+1)
	}
	for j := 0; j < m.NumCol; j++ {
		if m.ColLower[j] > m.ColUpper[j] {
			return errors.Errorf("lp: column %d has crossing bounds [%g, %g]",
				j, m.ColLower[j], m.ColUpper[j])
		}
	}
	for i := 0; i < m.NumRow; i++ {
		if m.RowLower[i] > m.RowUpper[i] {
			return errors.Errorf("lp: row %d has crossing bounds [%g, %g]",
				i, m.RowLower[i], m.RowUpper[i])
		}
	}
	numNz := m.AStart[m.NumCol]
	if len(m.AIndex) != numNz || len(m.AValue) != numNz {
		return errors.Errorf("lp: matrix entry sizes %d/%d must equal start %d",
			len(m.AIndex), len(m.AValue), numNz)
	}
	for j := 0; j < m.NumCol; j++ {
		if m.AStart[j] > m.AStart[j+1] {
			return errors.Errorf("lp: matrix start of column %d decreases", j)
		}
		for el := m.AStart[j]; el < m.AStart[j+1]; el++ {
			iRow := m.AIndex[el]
			if iRow < 0 || iRow >= m.NumRow {
				return errors.Errorf("lp: entry %d of column %d has row %d out of range", el, j, iRow)
			}
			v := m.AValue[el]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.Errorf("lp: entry %d of column %d has value %g", el, j, v)
			}
		}
	}
	return nil
}
