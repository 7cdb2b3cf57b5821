// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package primal

import (
	"math"
	"sort"
)

// assessVariableIn fixes the move direction of the entering variable,
// forms its pivotal column by FTRAN, and cross-checks the updated dual
// value against one recomputed from the column.
func (e *engine) assessVariableIn() {
	in := e.inst
	e.thetaDual = in.workDual[e.variableIn]
	// The move direction cannot be read from nonbasicMove because of
	// free columns
	if e.thetaDual > 0 {
		e.moveIn = -1
	} else {
		e.moveIn = 1
	}
	if move := in.basis.NonbasicMove[e.variableIn]; move != 0 && move != e.moveIn {
		e.phase = phaseError
		return
	}

	in.pivotColumnFtran(e.variableIn, &e.colAq)

	computedThetaDual := in.workCost[e.variableIn]
	for iEl := 0; iEl < e.colAq.Count; iEl++ {
		iRow := e.colAq.Index[iEl]
		computedThetaDual -= e.colAq.Array[iRow] * in.workCost[in.basis.BasicIndex[iRow]]
	}
	signOk := computedThetaDual*e.thetaDual > 0 ||
		math.Abs(computedThetaDual) < e.dualFeasibilityTolerance
	if !signOk {
		if log := in.logger; log.enable(LogMinimal) {
			log.log("primal: computed / updated dual of entering variable are %g / %g: sign error\n",
				computedThetaDual, e.thetaDual)
		}
		e.phase = phaseError
	}
}

// phase1ChooseRow runs the phase-1 ratio test. Each row contributes break
// points from two directions: it may become feasible by crossing the
// violated bound and infeasible again by crossing the opposite one. The
// relaxed points fix the largest useful step, the tight points pick a
// pivot with acceptable magnitude.
func (e *engine) phase1ChooseRow() {
	in := e.inst
	baseLower, baseUpper, baseValue := in.baseLower, in.baseUpper, in.baseValue
	tol := e.primalFeasibilityTolerance

	pivotTol := 1e-7
	switch {
	case in.updateCount < 10:
		pivotTol = 1e-9
	case in.updateCount < 20:
		pivotTol = 1e-8
	}

	e.ph1SorterR = e.ph1SorterR[:0]
	e.ph1SorterT = e.ph1SorterT[:0]
	for i := 0; i < e.colAq.Count; i++ {
		iRow := e.colAq.Index[i]
		alpha := e.colAq.Array[iRow] * float64(e.moveIn)

		// When the basic variable x[i] decreases
		if alpha > pivotTol {
			// It can become feasible by going below its upper bound
			if baseValue[iRow] > baseUpper[iRow]+tol {
				feasTheta := (baseValue[iRow] - baseUpper[iRow] - tol) / alpha
				e.ph1SorterR = append(e.ph1SorterR, thetaRow{feasTheta, iRow})
				e.ph1SorterT = append(e.ph1SorterT, thetaRow{feasTheta, iRow})
			}
			// It can become infeasible again by going below its lower
			// bound
			if baseValue[iRow] > baseLower[iRow]-tol && baseLower[iRow] > -inf {
				relaxTheta := (baseValue[iRow] - baseLower[iRow] + tol) / alpha
				tightTheta := (baseValue[iRow] - baseLower[iRow]) / alpha
				e.ph1SorterR = append(e.ph1SorterR, thetaRow{relaxTheta, iRow - e.numRow})
				e.ph1SorterT = append(e.ph1SorterT, thetaRow{tightTheta, iRow - e.numRow})
			}
		}

		// When the basic variable x[i] increases
		if alpha < -pivotTol {
			// It can become feasible by going above its lower bound
			if baseValue[iRow] < baseLower[iRow]-tol {
				feasTheta := (baseValue[iRow] - baseLower[iRow] + tol) / alpha
				e.ph1SorterR = append(e.ph1SorterR, thetaRow{feasTheta, iRow - e.numRow})
				e.ph1SorterT = append(e.ph1SorterT, thetaRow{feasTheta, iRow - e.numRow})
			}
			// It can become infeasible again by going above its upper
			// bound
			if baseValue[iRow] < baseUpper[iRow]+tol && baseUpper[iRow] < inf {
				relaxTheta := (baseValue[iRow] - baseUpper[iRow] - tol) / alpha
				tightTheta := (baseValue[iRow] - baseUpper[iRow]) / alpha
				e.ph1SorterR = append(e.ph1SorterR, thetaRow{relaxTheta, iRow})
				e.ph1SorterT = append(e.ph1SorterT, thetaRow{tightTheta, iRow})
			}
		}
	}

	if len(e.ph1SorterR) == 0 {
		e.rowOut = -1
		e.variableOut = -1
		return
	}

	// Sort the relaxed break points to find the last step before the
	// gradient of the infeasibility sum turns
	sortThetaRows(e.ph1SorterR)
	maxTheta := e.ph1SorterR[0].theta
	gradient := math.Abs(e.thetaDual)
	for i := range e.ph1SorterR {
		theta := e.ph1SorterR[i].theta
		index := e.ph1SorterR[i].index
		iRow := index
		if index < 0 {
			iRow = index + e.numRow
		}
		gradient -= math.Abs(e.colAq.Array[iRow])
		if gradient <= 0 {
			break
		}
		maxTheta = theta
	}

	// Find the largest pivot available within the tight break points
	sortThetaRows(e.ph1SorterT)
	maxAlpha := 0.0
	last := len(e.ph1SorterT)
	for i := range e.ph1SorterT {
		theta := e.ph1SorterT[i].theta
		index := e.ph1SorterT[i].index
		iRow := index
		if index < 0 {
			iRow = index + e.numRow
		}
		if theta > maxTheta {
			last = i
			break
		}
		if absAlpha := math.Abs(e.colAq.Array[iRow]); maxAlpha < absAlpha {
			maxAlpha = absAlpha
		}
	}

	// Choose a pivot with good enough magnitude, working backwards
	e.rowOut = -1
	e.variableOut = -1
	e.moveOut = 0
	for i := last - 1; i >= 0; i-- {
		index := e.ph1SorterT[i].index
		iRow := index
		if index < 0 {
			iRow = index + e.numRow
		}
		if math.Abs(e.colAq.Array[iRow]) > maxAlpha*0.1 {
			e.rowOut = iRow
			if index >= 0 {
				e.moveOut = 1
			} else {
				e.moveOut = -1
			}
			break
		}
	}
}

func sortThetaRows(s []thetaRow) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].theta != s[j].theta {
			return s[i].theta < s[j].theta
		}
		return s[i].index < s[j].index
	})
}

// chooseRow runs the phase-2 two-pass ratio test: the first pass fixes
// the relaxed step with the feasibility tolerance folded in, the second
// selects the largest pivot among the rows tight within that step.
func (e *engine) chooseRow() {
	in := e.inst
	baseLower, baseUpper, baseValue := in.baseLower, in.baseUpper, in.baseValue
	tol := e.primalFeasibilityTolerance
	e.rowOut = -1

	alphaTol := 1e-7
	switch {
	case in.updateCount < 10:
		alphaTol = 1e-9
	case in.updateCount < 20:
		alphaTol = 1e-8
	}

	relaxTheta := 1e100
	for i := 0; i < e.colAq.Count; i++ {
		iRow := e.colAq.Index[i]
		alpha := e.colAq.Array[iRow] * float64(e.moveIn)
		if alpha > alphaTol {
			relaxSpace := baseValue[iRow] - baseLower[iRow] + tol
			if relaxSpace < relaxTheta*alpha {
				relaxTheta = relaxSpace / alpha
			}
		} else if alpha < -alphaTol {
			relaxSpace := baseValue[iRow] - baseUpper[iRow] - tol
			if relaxSpace > relaxTheta*alpha {
				relaxTheta = relaxSpace / alpha
			}
		}
	}

	bestAlpha := 0.0
	for i := 0; i < e.colAq.Count; i++ {
		iRow := e.colAq.Index[i]
		alpha := e.colAq.Array[iRow] * float64(e.moveIn)
		if alpha > alphaTol {
			tightSpace := baseValue[iRow] - baseLower[iRow]
			if tightSpace < relaxTheta*alpha && bestAlpha < alpha {
				bestAlpha = alpha
				e.rowOut = iRow
			}
		} else if alpha < -alphaTol {
			tightSpace := baseValue[iRow] - baseUpper[iRow]
			if tightSpace > relaxTheta*alpha && bestAlpha < -alpha {
				bestAlpha = -alpha
				e.rowOut = iRow
			}
		}
	}
}

// considerBoundSwap computes the primal step and replaces the pivot by a
// bound swap when the step to the opposite bound of the entering variable
// is shorter. Without either in phase 2 the iteration is a potential
// unbounded ray.
func (e *engine) considerBoundSwap() {
	in := e.inst

	if e.rowOut < 0 {
		if e.phase != phase2 {
			panic("bound check error")
		}
		// No binding ratio in CHUZR, so flip or unbounded
		e.thetaPrimal = float64(e.moveIn) * inf
		e.moveOut = 0
	} else {
		e.alphaCol = e.colAq.Array[e.rowOut]
		// In phase 1 moveOut depends on whether the leaving variable is
		// becoming feasible or remaining feasible, so it cannot be set
		// from the pivot sign as in phase 2
		if e.phase == phase2 {
			if e.alphaCol*float64(e.moveIn) > 0 {
				e.moveOut = -1
			} else {
				e.moveOut = 1
			}
		}
		if e.moveOut == 1 {
			e.thetaPrimal = (in.baseValue[e.rowOut] - in.baseUpper[e.rowOut]) / e.alphaCol
		} else {
			e.thetaPrimal = (in.baseValue[e.rowOut] - in.baseLower[e.rowOut]) / e.alphaCol
		}
	}

	flipped := false
	lowerIn := in.workLower[e.variableIn]
	upperIn := in.workUpper[e.variableIn]
	e.valueIn = in.workValue[e.variableIn] + e.thetaPrimal
	if e.moveIn > 0 {
		if e.valueIn > upperIn+e.primalFeasibilityTolerance {
			flipped = true
			e.rowOut = -1
			e.valueIn = upperIn
			e.thetaPrimal = upperIn - lowerIn
		}
	} else {
		if e.valueIn < lowerIn-e.primalFeasibilityTolerance {
			flipped = true
			e.rowOut = -1
			e.valueIn = lowerIn
			e.thetaPrimal = lowerIn - upperIn
		}
	}
	pivotOrFlipped := e.rowOut >= 0 || flipped
	if e.phase == phase2 && !pivotOrFlipped {
		e.rebuildReason = rebuildPossiblyPrimalUnbounded
		return
	}
	if !pivotOrFlipped || flipped != (e.rowOut == -1) {
		panic("bound check error")
	}
}

// assessPivot computes the pivotal row by unit BTRAN and PRICE, then
// cross-checks the row-side pivot value against the column-side one.
func (e *engine) assessPivot() {
	if e.rowOut < 0 {
		panic("bound check error")
	}
	in := e.inst
	e.alphaCol = e.colAq.Array[e.rowOut]
	e.variableOut = in.basis.BasicIndex[e.rowOut]

	in.unitBtran(e.rowOut, &e.rowEp)
	in.tableauRowPrice(&e.rowEp, &e.rowAp)

	e.updateVerify()
}

// updateVerify measures the disagreement between the two pivot views.
// Severe disagreement is an error; mild disagreement after updates asks
// for refactorization.
func (e *engine) updateVerify() {
	in := e.inst
	const numericalTroubleTolerance = 1e-7

	if e.variableIn < e.numCol {
		e.alphaRow = e.rowAp.Array[e.variableIn]
	} else {
		e.alphaRow = e.rowEp.Array[e.variableIn-e.numCol]
	}
	absAlphaFromCol := math.Abs(e.alphaCol)
	absAlphaFromRow := math.Abs(e.alphaRow)
	absAlphaDiff := math.Abs(absAlphaFromCol - absAlphaFromRow)
	minAbsAlpha := math.Min(absAlphaFromCol, absAlphaFromRow)
	e.numericalTrouble = absAlphaDiff / minAbsAlpha
	if e.numericalTrouble > numericalTroubleTolerance {
		if log := in.logger; log.enable(LogMinimal) {
			log.log("primal: iter %d pivot from column %g and row %g disagree: measure %g\n",
				in.iterationCount, e.alphaCol, e.alphaRow, e.numericalTrouble)
		}
	}
	if e.numericalTrouble >= 1e-3 {
		e.phase = phaseError
		return
	}
	// Reinvert when the relative difference is large enough and updates
	// have been performed
	if e.numericalTrouble > numericalTroubleTolerance && in.updateCount > 0 {
		e.rebuildReason = rebuildPossiblySingularBasis
	}
}
