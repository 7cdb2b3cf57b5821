// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package primal

import "math"

// update applies an accepted pivot or a decided bound flip: primal and
// dual values, Devex weights, basis and factor updates, and the
// iteration accounting.
func (e *engine) update() {
	in := e.inst
	if e.rebuildReason != rebuildNo {
		panic("bound check error")
	}
	flipped := e.rowOut < 0
	if flipped {
		e.variableOut = e.variableIn
		e.alphaCol = 0
		e.numericalTrouble = 0
		in.workValue[e.variableIn] = e.valueIn
		if in.basis.NonbasicMove[e.variableIn] != e.moveIn {
			e.phase = phaseError
			return
		}
		in.basis.NonbasicMove[e.variableIn] = -e.moveIn
	}

	// Start hyper-sparse CHUZC tracking for the dual changes this
	// update produces
	e.hyperChooseColumnStart()

	if e.phase == phase1 {
		// Update the primal values and record the feasibility changes
		e.phase1UpdatePrimal()
		// Propagate the feasibility changes into the duals
		e.basicFeasibilityChangeUpdateDual()
		e.hyperChooseColumnBasicFeasibilityChange()
	} else {
		// Update the primal values, identifying any infeasibility
		e.phase2UpdatePrimal(false)
	}

	if flipped {
		in.primalBoundSwap++
		e.localReportIter(false)
		e.numFlipSinceRebuild++
		in.totalSyntheticTick += e.colAq.SyntheticTick
		return
	}

	if e.rowOut < 0 {
		panic("bound check error")
	}
	// Now set the value of the entering variable
	in.baseValue[e.rowOut] = e.valueIn
	// Consider whether the entering value is feasible and, if not, take
	// action: a phase-1 cost, a bound shift, or a rebuild request
	e.considerInfeasibleValueIn()

	// Update the dual values
	e.thetaDual = in.workDual[e.variableIn]
	e.updateDual()

	// Update the Devex weights
	e.updateDevex()

	// If the entering column was nonbasic free, remove it from the set
	e.removeNonbasicFreeColumn()
	if e.phase == phaseError {
		return
	}

	// Analyse the duals and weights that have just changed
	e.hyperChooseColumnDualChange()

	// Perform the pivoting
	in.updatePivots(e.variableIn, e.rowOut, e.moveOut)
	in.updateFactor(&e.colAq, &e.rowEp, e.rowOut, &e.rebuildReason)
	in.updateMatrix(e.variableIn, e.variableOut)
	if in.updateCount >= in.updateLimit {
		e.rebuildReason = rebuildUpdateLimitReached
	}

	in.iterationCount++

	// Reset the Devex framework when there are too many bad weights
	if e.numBadDevexWeight > allowedNumBadDevexWeight {
		e.resetDevex()
	}

	e.localReportIter(false)

	in.totalSyntheticTick += e.colAq.SyntheticTick
	in.totalSyntheticTick += e.rowEp.SyntheticTick

	// Prepare the next hyper-sparse CHUZC
	e.hyperChooseColumn()
}

// updateDual applies the pivotal-row dual update.
func (e *engine) updateDual() {
	in := e.inst
	if e.alphaCol == 0 || e.rowOut < 0 {
		panic("bound check error")
	}
	workDual := in.workDual
	e.thetaDual = workDual[e.variableIn] / e.alphaCol
	for iEl := 0; iEl < e.rowAp.Count; iEl++ {
		iCol := e.rowAp.Index[iEl]
		workDual[iCol] -= e.thetaDual * e.rowAp.Array[iCol]
	}
	for iEl := 0; iEl < e.rowEp.Count; iEl++ {
		iRow := e.rowEp.Index[iEl]
		iCol := iRow + e.numCol
		workDual[iCol] -= e.thetaDual * e.rowEp.Array[iRow]
	}
	// Dual for the pivots
	workDual[e.variableIn] = 0
	workDual[e.variableOut] = -e.thetaDual

	// After a dual update in the primal simplex the dual objective
	// value is not known
	in.hasDualObjectiveValue = false
}

// phase1ComputeDual recomputes the phase-1 duals from scratch: the signed
// basic infeasibility costs are installed, BTRANed and priced.
func (e *engine) phase1ComputeDual() {
	in := e.inst
	baseLower, baseUpper, baseValue := in.baseLower, in.baseUpper, in.baseValue
	nonbasicFlag := in.basis.NonbasicFlag
	basicIndex := in.basis.BasicIndex

	// Accumulate the signed costs for checking
	for v := 0; v < e.numTot; v++ {
		in.workCost[v] = 0
	}
	buffer := &in.bufferRow
	buffer.Clear()
	for iRow := 0; iRow < e.numRow; iRow++ {
		cost := 0.0
		if baseValue[iRow] < baseLower[iRow]-e.dualFeasibilityTolerance {
			cost = -1.0
		} else if baseValue[iRow] > baseUpper[iRow]+e.dualFeasibilityTolerance {
			cost = 1.0
		}
		buffer.Array[iRow] = cost
		if cost != 0 {
			buffer.Index[buffer.Count] = iRow
			buffer.Count++
		}
		in.workCost[basicIndex[iRow]] = cost
	}

	in.fullBtran(buffer)
	bufferLong := &in.bufferCol
	in.fullPrice(buffer, bufferLong)

	for iCol := 0; iCol < e.numCol; iCol++ {
		in.workDual[iCol] = -float64(nonbasicFlag[iCol]) * bufferLong.Array[iCol]
	}
	for iRow := 0; iRow < e.numRow; iRow++ {
		iCol := e.numCol + iRow
		in.workDual[iCol] = -float64(nonbasicFlag[iCol]) * buffer.Array[iRow]
	}
}

// phase1UpdatePrimal updates the basic values along the pivotal column,
// maintaining the infeasibility count and recording every phase-1 cost
// change so the duals can be updated.
func (e *engine) phase1UpdatePrimal() {
	in := e.inst
	baseLower, baseUpper := in.baseLower, in.baseUpper
	basicIndex := in.basis.BasicIndex
	e.colBasicFeasibilityChange.Clear()

	for iEl := 0; iEl < e.colAq.Count; iEl++ {
		iRow := e.colAq.Index[iEl]
		in.baseValue[iRow] -= e.thetaPrimal * e.colAq.Array[iRow]
		iCol := basicIndex[iRow]
		wasCost := in.workCost[iCol]
		cost := 0.0
		if in.baseValue[iRow] < baseLower[iRow]-e.primalFeasibilityTolerance {
			cost = -1.0
		} else if in.baseValue[iRow] > baseUpper[iRow]+e.primalFeasibilityTolerance {
			cost = 1.0
		}
		in.workCost[iCol] = cost
		if wasCost != 0 {
			if cost == 0 {
				in.numPrimalInfeasibilities--
			}
		} else {
			if cost != 0 {
				in.numPrimalInfeasibilities++
			}
		}
		deltaCost := cost - wasCost
		if deltaCost != 0 {
			e.colBasicFeasibilityChange.Set(iRow, deltaCost)
			// For a basic logical the cost change needs no PRICE
			// contribution, so feed it into the dual directly
			if iCol >= e.numCol {
				in.workDual[iCol] += deltaCost
			}
		}
	}
	// baseValue[rowOut] is not set yet so that the dual update due to
	// feasibility changes is done correctly
}

// considerInfeasibleValueIn reacts to an entering value that violates its
// own bounds: phase 1 prices it as one more infeasibility, phase 2
// shifts the violated bound when perturbation is allowed.
func (e *engine) considerInfeasibleValueIn() {
	in := e.inst
	if e.rowOut < 0 {
		panic("bound check error")
	}
	cost := 0.0
	lower := in.workLower[e.variableIn]
	upper := in.workUpper[e.variableIn]
	if e.valueIn < lower-e.primalFeasibilityTolerance {
		cost = -1.0
	} else if e.valueIn > upper+e.primalFeasibilityTolerance {
		cost = 1.0
	}
	if cost == 0 {
		return
	}
	if e.phase == phase1 {
		in.numPrimalInfeasibilities++
		in.workCost[e.variableIn] = cost
		in.workDual[e.variableIn] += cost
	} else if in.allowBoundPerturbation {
		if cost > 0 {
			// Shift the upper bound to accommodate the infeasibility
			e.shiftBound(false, e.variableIn, e.valueIn,
				in.numTotRandomValue[e.variableIn], e.primalFeasibilityTolerance,
				&in.workUpper[e.variableIn], &in.workUpperShift[e.variableIn], true)
		} else {
			// Shift the lower bound to accommodate the infeasibility
			e.shiftBound(true, e.variableIn, e.valueIn,
				in.numTotRandomValue[e.variableIn], e.primalFeasibilityTolerance,
				&in.workLower[e.variableIn], &in.workLowerShift[e.variableIn], true)
		}
		in.boundsPerturbed = true
	} else {
		in.numPrimalInfeasibilities++
		if log := in.logger; log.enable(LogMinimal) {
			log.log("primal: entering variable has infeasible value %g for [%g, %g]\n",
				e.valueIn, lower, upper)
		}
		e.rebuildReason = rebuildPrimalInfeasibleInPrimalSimplex
	}
}

// phase2UpdatePrimal updates the basic values along the pivotal column
// and accumulates the updated objective. With initialise it only resets
// the diagnostic maximum.
func (e *engine) phase2UpdatePrimal(initialise bool) {
	if initialise {
		e.updateMaxLocalPrimalInfeasibility = 0
		return
	}
	in := e.inst
	primalInfeasible := false
	maxLocalPrimalInfeasibility := 0.0
	for iEl := 0; iEl < e.colAq.Count; iEl++ {
		iRow := e.colAq.Index[iEl]
		in.baseValue[iRow] -= e.thetaPrimal * e.colAq.Array[iRow]
		lower := in.baseLower[iRow]
		upper := in.baseUpper[iRow]
		value := in.baseValue[iRow]
		primalInfeasibility := 0.0
		if value < lower-e.primalFeasibilityTolerance {
			primalInfeasibility = lower - value
		} else if value > upper+e.primalFeasibilityTolerance {
			primalInfeasibility = value - upper
		}
		maxLocalPrimalInfeasibility = math.Max(primalInfeasibility, maxLocalPrimalInfeasibility)
		if primalInfeasibility > e.primalFeasibilityTolerance {
			in.numPrimalInfeasibilities++
			primalInfeasible = true
		}
	}
	if primalInfeasible {
		e.rebuildReason = rebuildPrimalInfeasibleInPrimalSimplex
	}
	if maxLocalPrimalInfeasibility > 2*e.updateMaxLocalPrimalInfeasibility {
		e.updateMaxLocalPrimalInfeasibility = maxLocalPrimalInfeasibility
		if log := in.logger; log.enable(LogDetailed) {
			log.log("primal: update max local primal infeasibility = %g\n",
				maxLocalPrimalInfeasibility)
		}
	}
	in.updatedPrimalObjectiveValue += in.workDual[e.variableIn] * e.thetaPrimal
}

// phase2CorrectPrimal surveys the basic primal error at rebuild and,
// when the correction option is on, shifts bounds to absorb it. With
// initialise it only resets the diagnostic maxima.
func (e *engine) phase2CorrectPrimal(initialise bool) {
	if initialise {
		e.maxPrimalCorrection = 0
		e.correctMaxLocalPrimalInfeasibility = 0
		return
	}
	if e.phase != phase2 {
		panic("bound check error")
	}
	in := e.inst
	useCorrection := in.opts.UsePrimalCorrection
	numLocalPrimalInfeasibility := 0
	maxLocalPrimalInfeasibility := 0.0
	sumLocalPrimalInfeasibility := 0.0
	for iRow := 0; iRow < e.numRow; iRow++ {
		lower := in.baseLower[iRow]
		upper := in.baseUpper[iRow]
		value := in.baseValue[iRow]
		primalInfeasibility := 0.0
		correction := 0
		if value < lower-e.primalFeasibilityTolerance {
			primalInfeasibility = lower - value
			correction = -1
		} else if value > upper+e.primalFeasibilityTolerance {
			primalInfeasibility = value - upper
			correction = 1
		}
		if primalInfeasibility > 0 {
			if primalInfeasibility > e.primalFeasibilityTolerance {
				numLocalPrimalInfeasibility++
			}
			maxLocalPrimalInfeasibility = math.Max(primalInfeasibility, maxLocalPrimalInfeasibility)
			sumLocalPrimalInfeasibility += primalInfeasibility
		}
		if useCorrection && correction != 0 {
			iCol := in.basis.BasicIndex[iRow]
			in.boundsPerturbed = true
			if correction > 0 {
				e.shiftBound(false, iCol, value,
					in.numTotRandomValue[iCol], e.primalFeasibilityTolerance,
					&in.workUpper[iCol], &in.workUpperShift[iCol], true)
				in.baseUpper[iRow] = in.workUpper[iCol]
			} else {
				e.shiftBound(true, iCol, value,
					in.numTotRandomValue[iCol], e.primalFeasibilityTolerance,
					&in.workLower[iCol], &in.workLowerShift[iCol], true)
				in.baseLower[iRow] = in.workLower[iCol]
			}
			e.maxPrimalCorrection = math.Max(primalInfeasibility, e.maxPrimalCorrection)
		}
	}
	if maxLocalPrimalInfeasibility > 2*e.correctMaxLocalPrimalInfeasibility {
		e.correctMaxLocalPrimalInfeasibility = maxLocalPrimalInfeasibility
		if log := in.logger; log.enable(LogDetailed) {
			log.log("primal: correct num / max / sum primal infeasibilities = %d / %g / %g\n",
				numLocalPrimalInfeasibility, maxLocalPrimalInfeasibility,
				sumLocalPrimalInfeasibility)
		}
	}
}

// basicFeasibilityChangeUpdateDual propagates the phase-1 cost changes
// into the duals.
//
// For a basic logical the cost change appears in the BTRANed change
// vector, so the loop below over its nonzeros subtracts it; the direct
// addition in phase1UpdatePrimal compensates. For a basic structural
// there is no corresponding component in the priced image, which holds
// nonbasic components only: row-wise PRICE visits only the nonbasic
// partition and column-wise PRICE zeroes the basic components. That
// invariant is checked in basicFeasibilityChangePrice.
func (e *engine) basicFeasibilityChangeUpdateDual() {
	in := e.inst
	workDual := in.workDual

	e.basicFeasibilityChangeBtran()
	e.basicFeasibilityChangePrice()

	toEntry, useRowIndices := in.sparseLoopStyle(e.rowBasicFeasibilityChange.Count, e.numCol)
	for iEntry := 0; iEntry < toEntry; iEntry++ {
		iCol := iEntry
		if useRowIndices {
			iCol = e.rowBasicFeasibilityChange.Index[iEntry]
		}
		workDual[iCol] -= e.rowBasicFeasibilityChange.Array[iCol]
	}
	toEntry, useColIndices := in.sparseLoopStyle(e.colBasicFeasibilityChange.Count, e.numRow)
	for iEntry := 0; iEntry < toEntry; iEntry++ {
		iRow := iEntry
		if useColIndices {
			iRow = e.colBasicFeasibilityChange.Index[iEntry]
		}
		iCol := e.numCol + iRow
		workDual[iCol] -= e.colBasicFeasibilityChange.Array[iRow]
	}
}

// basicFeasibilityChangeBtran performs BTRAN on the feasibility-change
// vector in place.
func (e *engine) basicFeasibilityChangeBtran() {
	e.inst.factor.Btran(&e.colBasicFeasibilityChange)
}

// basicFeasibilityChangePrice computes the structural image of the
// BTRANed feasibility changes with the PRICE technique the density
// selects.
func (e *engine) basicFeasibilityChangePrice() {
	in := e.inst
	localDensity := float64(e.colBasicFeasibilityChange.Count) / float64(e.numRow)
	useColPrice, useRowPriceWithSwitch := in.choosePriceTechnique(in.opts.PriceStrategy, localDensity)
	if useColPrice {
		in.matrix.PriceByColumn(&e.rowBasicFeasibilityChange, &e.colBasicFeasibilityChange)
		// Column-wise PRICE computes components corresponding to basic
		// variables, so zero them by exploiting nonbasicFlag being zero
		// for basic variables
		for iCol := 0; iCol < e.numCol; iCol++ {
			e.rowBasicFeasibilityChange.Array[iCol] *= float64(in.basis.NonbasicFlag[iCol])
		}
		e.rowBasicFeasibilityChange.Repack()
	} else if useRowPriceWithSwitch {
		in.matrix.PriceByRowSparseResultWithSwitch(&e.rowBasicFeasibilityChange,
			&e.colBasicFeasibilityChange, in.matrix.SwitchDensity())
	} else {
		in.matrix.PriceByRowSparseResult(&e.rowBasicFeasibilityChange, &e.colBasicFeasibilityChange)
	}
	if in.opts.DebugLevel >= DebugCheap {
		// The dual update relies on the priced image holding nonbasic
		// components only
		for iEl := 0; iEl < e.rowBasicFeasibilityChange.Count; iEl++ {
			iCol := e.rowBasicFeasibilityChange.Index[iEl]
			if in.basis.NonbasicFlag[iCol] == 0 &&
				e.rowBasicFeasibilityChange.Array[iCol] != 0 {
				e.phase = phaseError
				return
			}
		}
	}
}

// getBasicPrimalInfeasibility recounts the basic primal infeasibilities
// from scratch and cross-checks the count maintained by the updates.
func (e *engine) getBasicPrimalInfeasibility() {
	in := e.inst
	tol := e.primalFeasibilityTolerance
	updatedNumPrimalInfeasibilities := in.numPrimalInfeasibilities
	num, maxIfs, sum := 0, 0.0, 0.0

	for iRow := 0; iRow < e.numRow; iRow++ {
		value := in.baseValue[iRow]
		lower := in.baseLower[iRow]
		upper := in.baseUpper[iRow]
		primalInfeasibility := 0.0
		if value < lower-tol {
			primalInfeasibility = lower - value
		} else if value > upper+tol {
			primalInfeasibility = value - upper
		}
		if primalInfeasibility > 0 {
			if primalInfeasibility > tol {
				num++
			}
			maxIfs = math.Max(primalInfeasibility, maxIfs)
			sum += primalInfeasibility
		}
	}
	in.numPrimalInfeasibilities = num
	in.maxPrimalInfeasibility = maxIfs
	in.sumPrimalInfeasibilities = sum

	if updatedNumPrimalInfeasibilities >= 0 && num != updatedNumPrimalInfeasibilities {
		if log := in.logger; log.enable(LogMinimal) {
			log.log("primal: iteration %d: num_primal_infeasibilities = %d != %d = updated\n",
				in.iterationCount, num, updatedNumPrimalInfeasibilities)
		}
		if in.opts.DebugLevel >= DebugCheap {
			e.phase = phaseError
		}
	}
}

// shiftBound enlarges a violated bound so the value becomes strictly
// feasible by a jittered margin, accumulating the shift so cleanup can
// remove it.
func (e *engine) shiftBound(lower bool, iVar int, value, randomValue, tolerance float64,
	bound, sumShift *float64, report bool) {
	in := e.inst
	feasibility := (1 + randomValue) * tolerance
	oldBound := *bound
	var kind string
	var infeasibility, shift, newInfeasibility float64
	if lower {
		kind = "lower"
		infeasibility = *bound - value
		// Shift so that the value is feasible by the jittered margin
		// and hence not degenerate
		shift = infeasibility + feasibility
		*bound -= shift
		*sumShift += shift
		newInfeasibility = *bound - value
	} else {
		kind = "upper"
		infeasibility = value - *bound
		shift = infeasibility + feasibility
		*bound += shift
		*sumShift += shift
		newInfeasibility = value - *bound
	}
	err := math.Abs(-newInfeasibility - feasibility)
	if infeasibility <= 0 || newInfeasibility >= 0 || err >= 1e-12 {
		e.phase = phaseError
	}
	if report {
		if log := in.logger; log.enable(LogMinimal) {
			log.log("primal: value(%4d) = %10.4g exceeds %s = %10.4g by %9.4g, so shift bound by %9.4g to %10.4g\n",
				iVar, value, kind, oldBound, infeasibility, shift, *bound)
		}
	}
}
