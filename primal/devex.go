// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package primal

import "math"

// resetDevex reinstalls the Devex reference framework: unit weights with
// the reference set holding exactly the nonbasic variables.
func (e *engine) resetDevex() {
	for v := 0; v < e.numTot; v++ {
		e.devexWeight[v] = 1.0
		flag := e.inst.basis.NonbasicFlag[v]
		e.devexIndex[v] = flag * flag
	}
	e.numDevexIterations = 0
	e.numBadDevexWeight = 0
	e.hyperChooseColumnClear()
}

// updateDevex refreshes the reference weights after a pivot. The exact
// weight of the entering column is measured against the stored weight to
// drive the reference-set reset policy.
func (e *engine) updateDevex() {
	in := e.inst
	pivotWeight := 0.0
	toEntry, useColIndices := in.sparseLoopStyle(e.colAq.Count, e.numRow)
	for iEntry := 0; iEntry < toEntry; iEntry++ {
		iRow := iEntry
		if useColIndices {
			iRow = e.colAq.Index[iEntry]
		}
		iCol := in.basis.BasicIndex[iRow]
		alpha := float64(e.devexIndex[iCol]) * e.colAq.Array[iRow]
		pivotWeight += alpha * alpha
	}
	pivotWeight += float64(e.devexIndex[e.variableIn])
	pivotWeight = math.Sqrt(pivotWeight)

	if e.devexWeight[e.variableIn] > badDevexWeightFactor*pivotWeight {
		e.numBadDevexWeight++
	}

	pivot := e.colAq.Array[e.rowOut]
	pivotWeight /= math.Abs(pivot)

	for iEl := 0; iEl < e.rowAp.Count; iEl++ {
		iCol := e.rowAp.Index[iEl]
		alpha := e.rowAp.Array[iCol]
		devex := pivotWeight*math.Abs(alpha) + float64(e.devexIndex[iCol])
		if e.devexWeight[iCol] < devex {
			e.devexWeight[iCol] = devex
		}
	}
	for iEl := 0; iEl < e.rowEp.Count; iEl++ {
		iRow := e.rowEp.Index[iEl]
		iCol := iRow + e.numCol
		alpha := e.rowEp.Array[iRow]
		devex := pivotWeight*math.Abs(alpha) + float64(e.devexIndex[iCol])
		if e.devexWeight[iCol] < devex {
			e.devexWeight[iCol] = devex
		}
	}

	e.devexWeight[e.variableOut] = math.Max(1.0, pivotWeight)
	e.devexWeight[e.variableIn] = 1.0
	e.numDevexIterations++
}
