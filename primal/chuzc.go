// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package primal

import "math"

// chuzc selects the entering variable, either by hyper-sparse candidate
// maintenance or by a full scan. At high debug levels the hyper-sparse
// choice is verified against the full scan.
func (e *engine) chuzc() {
	if e.doneNextChuzc && !e.useHyperChuzc {
		panic("bound check error")
	}
	if !e.useHyperChuzc {
		e.chooseColumn(false)
		return
	}
	if !e.doneNextChuzc {
		e.chooseColumn(true)
	}
	if e.inst.opts.DebugLevel >= DebugCostly {
		hyperSparseVariableIn := e.variableIn
		e.chooseColumn(false)
		hyperSparseMeasure, measure := 0.0, 0.0
		if hyperSparseVariableIn >= 0 {
			hyperSparseMeasure = math.Abs(e.inst.workDual[hyperSparseVariableIn]) /
				e.devexWeight[hyperSparseVariableIn]
		}
		if e.variableIn >= 0 {
			measure = math.Abs(e.inst.workDual[e.variableIn]) / e.devexWeight[e.variableIn]
		}
		if hyperSparseMeasure != measure {
			if log := e.inst.logger; log.enable(LogMinimal) {
				log.log("primal: iteration %d hyper-sparse CHUZC measure %g != %g full CHUZC measure (%d, %d)\n",
					e.inst.iterationCount, hyperSparseMeasure, measure,
					hyperSparseVariableIn, e.variableIn)
			}
			e.phase = phaseError
		}
		e.variableIn = hyperSparseVariableIn
	}
}

// chooseColumn runs CHUZC. With hyperSparse it reinitializes the bounded
// candidate heap when required, otherwise it scans every nonbasic
// variable for the best Devex measure. Free columns are considered first
// so they win ties.
func (e *engine) chooseColumn(hyperSparse bool) {
	in := e.inst
	nonbasicMove := in.basis.NonbasicMove
	workDual := in.workDual
	bestMeasure := 0.0
	e.variableIn = -1

	numNonbasicFreeCol := e.nonbasicFreeColSet.count

	if hyperSparse {
		if e.doneNextChuzc {
			panic("bound check error")
		}
		if !e.initialiseHyperChuzc {
			e.hyperChooseColumn()
		}
		if e.initialiseHyperChuzc {
			e.numHyperChuzcCandidates = 0
			for ix := 0; ix < numNonbasicFreeCol; ix++ {
				iCol := e.nonbasicFreeColSet.entry[ix]
				dualInfeasibility := math.Abs(workDual[iCol])
				if dualInfeasibility > e.dualFeasibilityTolerance {
					measure := dualInfeasibility / e.devexWeight[iCol]
					addToDecreasingHeap(&e.numHyperChuzcCandidates, maxNumHyperChuzcCandidates,
						e.hyperChuzcMeasure, e.hyperChuzcCandidate, measure, iCol)
				}
			}
			for iCol := 0; iCol < e.numTot; iCol++ {
				dualInfeasibility := -float64(nonbasicMove[iCol]) * workDual[iCol]
				if dualInfeasibility > e.dualFeasibilityTolerance {
					measure := dualInfeasibility / e.devexWeight[iCol]
					addToDecreasingHeap(&e.numHyperChuzcCandidates, maxNumHyperChuzcCandidates,
						e.hyperChuzcMeasure, e.hyperChuzcCandidate, measure, iCol)
				}
			}
			sortDecreasingHeap(e.numHyperChuzcCandidates, e.hyperChuzcMeasure, e.hyperChuzcCandidate)
			e.initialiseHyperChuzc = false
			if e.numHyperChuzcCandidates > 0 {
				e.variableIn = e.hyperChuzcCandidate[1]
				e.maxHyperChuzcNonCandidateMeasure = e.hyperChuzcMeasure[e.numHyperChuzcCandidates]
			}
		}
		return
	}

	// Choose any attractive nonbasic free column first
	for ix := 0; ix < numNonbasicFreeCol; ix++ {
		iCol := e.nonbasicFreeColSet.entry[ix]
		dualInfeasibility := math.Abs(workDual[iCol])
		if dualInfeasibility > e.dualFeasibilityTolerance &&
			dualInfeasibility > bestMeasure*e.devexWeight[iCol] {
			e.variableIn = iCol
			bestMeasure = dualInfeasibility / e.devexWeight[iCol]
		}
	}
	// Now look at the other columns
	for iCol := 0; iCol < e.numTot; iCol++ {
		dualInfeasibility := -float64(nonbasicMove[iCol]) * workDual[iCol]
		if dualInfeasibility > e.dualFeasibilityTolerance &&
			dualInfeasibility > bestMeasure*e.devexWeight[iCol] {
			e.variableIn = iCol
			bestMeasure = dualInfeasibility / e.devexWeight[iCol]
		}
	}
}

// hyperChooseColumn refreshes the entering choice from the candidate set
// and the measure changes recorded since the last update. The best
// candidate is provably optimal only when it is at least as good as the
// bound on every column outside the set; otherwise the next CHUZC must
// reinitialize.
func (e *engine) hyperChooseColumn() {
	if !e.useHyperChuzc || e.initialiseHyperChuzc {
		return
	}
	in := e.inst
	nonbasicMove := in.basis.NonbasicMove
	nonbasicFlag := in.basis.NonbasicFlag
	workDual := in.workDual

	bestMeasure := e.maxChangedMeasureValue
	e.variableIn = e.maxChangedMeasureColumn
	considerFreeColumns := e.nonbasicFreeColSet.count > 0
	for iEntry := 1; iEntry <= e.numHyperChuzcCandidates; iEntry++ {
		iCol := e.hyperChuzcCandidate[iEntry]
		if nonbasicFlag[iCol] == 0 {
			continue
		}
		dualInfeasibility := -float64(nonbasicMove[iCol]) * workDual[iCol]
		if considerFreeColumns && e.nonbasicFreeColSet.in(iCol) {
			dualInfeasibility = math.Abs(workDual[iCol])
		}
		if dualInfeasibility > e.dualFeasibilityTolerance &&
			dualInfeasibility > bestMeasure*e.devexWeight[iCol] {
			bestMeasure = dualInfeasibility / e.devexWeight[iCol]
			e.variableIn = iCol
		}
	}
	if e.variableIn != e.maxChangedMeasureColumn {
		e.maxHyperChuzcNonCandidateMeasure =
			math.Max(e.maxChangedMeasureValue, e.maxHyperChuzcNonCandidateMeasure)
	}
	if bestMeasure >= e.maxHyperChuzcNonCandidateMeasure {
		// The candidate is at least as good as any unknown column
		e.doneNextChuzc = true
	} else {
		// Some column outside the candidate set may be better, so the
		// next CHUZC starts from scratch
		e.doneNextChuzc = false
		e.initialiseHyperChuzc = true
	}
}

// hyperChooseColumnStart resets the changed-measure tracking for the
// update about to happen.
func (e *engine) hyperChooseColumnStart() {
	e.maxChangedMeasureValue = 0
	e.maxChangedMeasureColumn = -1
	e.doneNextChuzc = false
}

// hyperChooseColumnClear discards all candidate state.
func (e *engine) hyperChooseColumnClear() {
	e.initialiseHyperChuzc = e.useHyperChuzc
	e.maxHyperChuzcNonCandidateMeasure = -1
	e.doneNextChuzc = false
}

// hyperChooseColumnChangedInfeasibility folds one changed dual
// infeasibility into the tracked maxima.
func (e *engine) hyperChooseColumnChangedInfeasibility(infeasibility float64, iCol int) {
	if infeasibility > e.maxChangedMeasureValue*e.devexWeight[iCol] {
		e.maxHyperChuzcNonCandidateMeasure =
			math.Max(e.maxChangedMeasureValue, e.maxHyperChuzcNonCandidateMeasure)
		e.maxChangedMeasureValue = infeasibility / e.devexWeight[iCol]
		e.maxChangedMeasureColumn = iCol
	} else if infeasibility > e.maxHyperChuzcNonCandidateMeasure*e.devexWeight[iCol] {
		e.maxHyperChuzcNonCandidateMeasure = infeasibility / e.devexWeight[iCol]
	}
}

// hyperChooseColumnBasicFeasibilityChange scans the duals changed by
// phase-1 feasibility flips.
func (e *engine) hyperChooseColumnBasicFeasibilityChange() {
	if !e.useHyperChuzc {
		return
	}
	in := e.inst
	nonbasicMove := in.basis.NonbasicMove
	workDual := in.workDual

	toEntry, useRowIndices := in.sparseLoopStyle(e.rowBasicFeasibilityChange.Count, e.numCol)
	for iEntry := 0; iEntry < toEntry; iEntry++ {
		iCol := iEntry
		if useRowIndices {
			iCol = e.rowBasicFeasibilityChange.Index[iEntry]
		}
		dualInfeasibility := -float64(nonbasicMove[iCol]) * workDual[iCol]
		if dualInfeasibility > e.dualFeasibilityTolerance {
			e.hyperChooseColumnChangedInfeasibility(dualInfeasibility, iCol)
		}
	}
	toEntry, useColIndices := in.sparseLoopStyle(e.colBasicFeasibilityChange.Count, e.numRow)
	for iEntry := 0; iEntry < toEntry; iEntry++ {
		iRow := iEntry
		if useColIndices {
			iRow = e.colBasicFeasibilityChange.Index[iEntry]
		}
		iCol := e.numCol + iRow
		dualInfeasibility := -float64(nonbasicMove[iCol]) * workDual[iCol]
		if dualInfeasibility > e.dualFeasibilityTolerance {
			e.hyperChooseColumnChangedInfeasibility(dualInfeasibility, iCol)
		}
	}
	// Nonbasic free columns are handled in hyperChooseColumnDualChange,
	// so only look at them here when flipping
	if e.rowOut < 0 && e.nonbasicFreeColSet.count > 0 {
		for iEntry := 0; iEntry < e.nonbasicFreeColSet.count; iEntry++ {
			iCol := e.nonbasicFreeColSet.entry[iEntry]
			dualInfeasibility := math.Abs(workDual[iCol])
			if dualInfeasibility > e.dualFeasibilityTolerance {
				e.hyperChooseColumnChangedInfeasibility(dualInfeasibility, iCol)
			}
		}
	}
}

// hyperChooseColumnDualChange scans the duals changed by the pivotal row
// and column, the free columns, and the leaving column.
func (e *engine) hyperChooseColumnDualChange() {
	if !e.useHyperChuzc {
		return
	}
	in := e.inst
	nonbasicMove := in.basis.NonbasicMove
	workDual := in.workDual

	toEntry, useRowIndices := in.sparseLoopStyle(e.rowAp.Count, e.numCol)
	for iEntry := 0; iEntry < toEntry; iEntry++ {
		iCol := iEntry
		if useRowIndices {
			iCol = e.rowAp.Index[iEntry]
		}
		dualInfeasibility := -float64(nonbasicMove[iCol]) * workDual[iCol]
		if dualInfeasibility > e.dualFeasibilityTolerance {
			e.hyperChooseColumnChangedInfeasibility(dualInfeasibility, iCol)
		}
	}
	toEntry, useColIndices := in.sparseLoopStyle(e.rowEp.Count, e.numRow)
	for iEntry := 0; iEntry < toEntry; iEntry++ {
		iRow := iEntry
		if useColIndices {
			iRow = e.rowEp.Index[iEntry]
		}
		iCol := iRow + e.numCol
		dualInfeasibility := -float64(nonbasicMove[iCol]) * workDual[iCol]
		if dualInfeasibility > e.dualFeasibilityTolerance {
			e.hyperChooseColumnChangedInfeasibility(dualInfeasibility, iCol)
		}
	}
	for iEntry := 0; iEntry < e.nonbasicFreeColSet.count; iEntry++ {
		iCol := e.nonbasicFreeColSet.entry[iEntry]
		dualInfeasibility := math.Abs(workDual[iCol])
		if dualInfeasibility > e.dualFeasibilityTolerance {
			e.hyperChooseColumnChangedInfeasibility(dualInfeasibility, iCol)
		}
	}
	// The leaving column should be dual feasible
	iCol := e.variableOut
	dualInfeasibility := -float64(nonbasicMove[iCol]) * workDual[iCol]
	if dualInfeasibility > e.dualFeasibilityTolerance {
		if log := in.logger; log.enable(LogMinimal) {
			log.log("primal: dual infeasibility %g for leaving column %d\n",
				dualInfeasibility, iCol)
		}
		e.hyperChooseColumnChangedInfeasibility(dualInfeasibility, iCol)
	}
}
