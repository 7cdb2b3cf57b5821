// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package primal

// solve runs the two-phase outer loop: rebuild-then-iterate until a phase
// reports Optimal, Exit, Cleanup or Error.
func (e *engine) solve() Status {
	in := e.inst
	log := in.logger

	if in.bailoutOnTimeIterations() {
		return in.returnFromSolve(StatusWarning)
	}
	if !in.allowBoundPerturbation && log.enable(LogMinimal) {
		log.log("primal: solve not using bound perturbation\n")
	}
	if !in.hasInvert {
		if log.enable(LogMinimal) {
			log.log("primal: solve called without a basis factorization\n")
		}
		return in.returnFromSolve(StatusError)
	}

	e.getNonbasicFreeColumnSet()

	in.computePrimal()
	in.computeSimplexPrimalInfeasible()
	if in.numPrimalInfeasibilities > 0 {
		e.phase = phase1
	} else {
		e.phase = phase2
	}
	if !e.debugOkForSolve("solve entry") {
		return in.returnFromSolve(StatusError)
	}

	e.localReportIter(true)
	e.phase2UpdatePrimal(true)
	e.phase2CorrectPrimal(true)

	for e.phase == phase1 || e.phase == phase2 {
		it0 := in.iterationCount
		// When starting a new phase the updated primal objective value
		// isn't known, so the value computed from scratch in rebuild
		// must not be checked against it.
		in.hasPrimalObjectiveValue = false
		if e.phase == phase1 {
			// Phase 1 leaves the phase at Exit when primal
			// infeasibility is proved, at Phase2 when none remain, at
			// Phase1 on a limit, or at Error.
			e.solvePhase1()
			in.phase1IterationCount += in.iterationCount - it0
		} else {
			// Phase 2 leaves the phase at Exit when unboundedness is
			// proved, at Optimal, at Phase1 when infeasibilities
			// reappear, at Cleanup when removed shifts leave
			// infeasibilities, at Phase2 on a limit, or at Error.
			e.solvePhase2()
			in.phase2IterationCount += in.iterationCount - it0
		}
		if in.solveBailout {
			return in.returnFromSolve(StatusWarning)
		}
		if e.phase < phaseMin || e.phase > phaseMax {
			panic("bound check error")
		}
		if e.phase == phaseError {
			in.scaledModelStatus = ModelSolveError
			return in.returnFromSolve(StatusError)
		}
		if e.phase == phaseExit {
			// The LP has no optimal solution
			break
		}
		if e.phase == phase1 && in.scaledModelStatus == ModelDualInfeasible {
			// Dual infeasibilities after phase 2 for a problem known
			// to be dual infeasible
			break
		}
		if e.phase == phaseCleanup {
			// Dual feasible with primal infeasibilities after removing
			// bound shifts: a dual simplex clean-up is required
			in.scaledModelStatus = ModelCleanup
			break
		}
	}
	if e.phase == phaseOptimal {
		in.scaledModelStatus = ModelOptimal
	}
	if !e.debugOkForSolve("solve exit") {
		return in.returnFromSolve(StatusError)
	}
	return in.returnFromSolve(StatusOK)
}

// solvePhase1 drives the rebuild-then-iterate loop minimizing the sum of
// primal infeasibilities.
func (e *engine) solvePhase1() {
	in := e.inst
	in.hasPrimalObjectiveValue = false
	in.hasDualObjectiveValue = false
	if in.bailoutReturn() {
		return
	}
	if log := in.logger; log.enable(LogDetailed) {
		log.log("primal-phase1-start\n")
	}
	for {
		// The phase moves to Error if the basis matrix is singular
		e.rebuild()
		if e.phase == phaseError {
			return
		}
		if in.bailoutOnTimeIterations() {
			return
		}
		// The phase moves to Phase2 if the rebuild found no primal
		// infeasibilities
		if e.phase == phase2 {
			break
		}

		for {
			e.iterate()
			if in.bailoutOnTimeIterations() {
				return
			}
			if e.phase == phaseError {
				return
			}
			if e.rebuildReason != rebuildNo {
				break
			}
		}
		// If the data are fresh from rebuild and no flips have
		// occurred, break out to see what has been found
		if in.hasFreshRebuild && e.numFlipSinceRebuild == 0 {
			break
		}
	}
	if !e.debugPrimalSimplex("end of phase 1") {
		e.phase = phaseError
		return
	}
	if e.variableIn < 0 && e.phase == phase1 {
		// Optimal in phase 1, so the remaining infeasibilities prove
		// primal infeasibility
		in.scaledModelStatus = ModelPrimalInfeasible
		e.phase = phaseExit
	}
}

// solvePhase2 drives the rebuild-then-iterate loop minimizing the true
// objective over primal-feasible bases.
func (e *engine) solvePhase2() {
	in := e.inst
	log := in.logger
	in.hasPrimalObjectiveValue = false
	in.hasDualObjectiveValue = false
	if in.bailoutReturn() {
		return
	}
	if log.enable(LogDetailed) {
		log.log("primal-phase2-start\n")
	}
	e.phase2UpdatePrimal(true)

	for {
		// The phase moves to Error if the basis matrix is singular
		e.rebuild()
		if e.phase == phaseError {
			return
		}
		if in.bailoutOnTimeIterations() {
			return
		}
		// The phase moves to Phase1 if the rebuild found primal
		// infeasibilities
		if e.phase == phase1 {
			break
		}

		for {
			e.iterate()
			if in.bailoutOnTimeIterations() {
				return
			}
			if e.phase == phaseError {
				return
			}
			if e.rebuildReason != rebuildNo {
				break
			}
		}
		if in.hasFreshRebuild && e.numFlipSinceRebuild == 0 {
			break
		}
	}
	if !e.debugPrimalSimplex("end of phase 2") {
		e.phase = phaseError
		return
	}
	if e.phase == phase1 {
		if log.enable(LogDetailed) {
			log.log("primal-return-phase1\n")
		}
	} else if e.variableIn == -1 {
		// No candidate in CHUZC, even after rebuild, so possibly optimal
		if log.enable(LogDetailed) {
			log.log("primal-phase2-optimal\n")
		}
		// Remove any bound shifts and see whether the basis is still
		// primal feasible
		e.cleanup()
		if in.numPrimalInfeasibilities > 0 {
			// Primal infeasibilities remain, so dual simplex
			// iterations would be needed to restore feasibility
			e.phase = phaseCleanup
		} else {
			e.phase = phaseOptimal
			if log.enable(LogDetailed) {
				log.log("problem-optimal\n")
			}
			in.scaledModelStatus = ModelOptimal
			in.computeDualObjectiveValue()
		}
	} else {
		if e.rowOut >= 0 {
			panic("bound check error")
		}
		// No candidate in CHUZR, so probably primal unbounded
		if log.enable(LogMinimal) {
			log.log("primal-phase2-unbounded\n")
		}
		if in.boundsPerturbed {
			// The bounds have been perturbed: clean up and re-solve
			e.cleanup()
		} else {
			e.phase = phaseExit
			if in.scaledModelStatus == ModelPrimalInfeasible {
				if log.enable(LogMinimal) {
					log.log("problem-primal-dual-infeasible\n")
				}
				in.scaledModelStatus = ModelPrimalDualInfeasible
			} else {
				if log.enable(LogMinimal) {
					log.log("problem-primal-unbounded\n")
				}
				in.scaledModelStatus = ModelPrimalUnbounded
			}
		}
		in.scaledModelStatus = ModelPrimalUnbounded
	}
}

// cleanup removes the bound shifts, forbids further perturbation, and
// recomputes the primal state against the original bounds.
func (e *engine) cleanup() {
	in := e.inst
	if log := in.logger; log.enable(LogDetailed) {
		log.log("primal-cleanup-shift\n")
	}
	in.initialiseBound()
	in.initialiseNonbasicWorkValue()
	in.allowBoundPerturbation = false

	in.computePrimal()
	in.computeSimplexPrimalInfeasible()
	in.computePrimalObjectiveValue()
	in.updatedPrimalObjectiveValue = in.primalObjectiveValue
	in.computeSimplexDualInfeasible()
	e.reportRebuild(rebuildNo)
}

// rebuild restores the invariants from scratch: refactorize, recompute
// primal and dual state, settle the phase, and reset the per-rebuild
// bookkeeping.
func (e *engine) rebuild() {
	in := e.inst
	log := in.logger

	// If the objective value is known the updated value must be correct
	// once the correction for recomputing the primal values is applied.
	checkUpdatedObjectiveValue := in.hasPrimalObjectiveValue
	var previousPrimalObjectiveValue float64
	if checkUpdatedObjectiveValue {
		previousPrimalObjectiveValue = in.updatedPrimalObjectiveValue
	}

	reasonForRebuild := e.rebuildReason
	e.rebuildReason = rebuildNo

	if in.updateCount > 0 {
		rankDeficiency := in.computeFactor()
		if rankDeficiency != 0 {
			if log.enable(LogMinimal) {
				log.log("primal: refactorization found singular basis matrix\n")
			}
			e.phase = phaseError
			return
		}
		in.updateCount = 0
	}
	in.computePrimal()
	if e.phase == phase2 {
		e.phase2CorrectPrimal(false)
	}
	e.getBasicPrimalInfeasibility()
	if e.phase == phaseError {
		return
	}
	if in.numPrimalInfeasibilities > 0 {
		// Primal infeasibilities, so should be in phase 1
		if e.phase == phase2 {
			if log.enable(LogMinimal) {
				log.log("primal: rebuild switching back to phase 1 from phase 2\n")
			}
			e.phase = phase1
		}
		e.phase1ComputeDual()
	} else {
		// No primal infeasibilities, so in phase 2. Reset the costs if
		// previously in phase 1
		if e.phase == phase1 {
			in.initialiseCost()
			e.phase = phase2
		}
		in.computeDual()
	}
	in.computeSimplexDualInfeasible()
	in.computePrimalObjectiveValue()
	if checkUpdatedObjectiveValue {
		correction := in.primalObjectiveValue - previousPrimalObjectiveValue
		in.updatedPrimalObjectiveValue += correction
	}
	in.updatedPrimalObjectiveValue = in.primalObjectiveValue

	e.reportRebuild(reasonForRebuild)

	// Record the synthetic clock for the factorization and zero it for
	// the updates
	in.totalSyntheticTick = 0

	e.useHyperChuzc = e.phase == phase2
	e.hyperChooseColumnClear()

	e.numFlipSinceRebuild = 0
	in.hasFreshRebuild = true
	if e.phase != phase1 && e.phase != phase2 {
		panic("bound check error")
	}
}

// iterate performs one simplex iteration:
// CHUZC → FTRAN → CHUZR → bound-swap-or-pivot → update.
func (e *engine) iterate() {
	if !e.debugPrimalSimplex("before iteration") {
		e.phase = phaseError
		return
	}

	e.chuzc()
	if e.variableIn == -1 {
		e.rebuildReason = rebuildPossiblyOptimal
		return
	}

	// FTRAN and the dual-value cross-check
	e.assessVariableIn()
	if e.phase == phaseError {
		return
	}

	if e.phase == phase1 {
		e.phase1ChooseRow()
		if e.rowOut < 0 {
			if log := e.inst.logger; log.enable(LogMinimal) {
				log.log("primal: phase 1 choose row failed\n")
			}
			e.phase = phaseError
			return
		}
	} else {
		e.chooseRow()
	}

	// Consider a bound swap, taken in either phase when the step to the
	// opposite bound of the entering variable is shorter than the
	// pivoting step. In phase 2 the rebuild reason becomes PossiblyPrimalUnbounded when
	// there is neither a pivot nor a swap; in phase 1 the missing row
	// was trapped above as an error.
	e.considerBoundSwap()
	if e.rebuildReason == rebuildPossiblyPrimalUnbounded {
		return
	}

	if e.rowOut >= 0 {
		// Unit BTRAN and PRICE for the pivotal row, with the numerical
		// cross-check that may raise PossiblySingularBasis
		e.assessPivot()
		if e.phase == phaseError {
			return
		}
		if e.rebuildReason != rebuildNo {
			return
		}
	}

	// The pivot is numerically acceptable, so perform the update
	e.update()

	// Force a rebuild once phase 1 runs out of infeasibilities
	if e.inst.numPrimalInfeasibilities == 0 && e.phase == phase1 {
		e.rebuildReason = rebuildUpdateLimitReached
	}
}

// localReportIter emits the per-iteration report line.
func (e *engine) localReportIter(header bool) {
	log := e.inst.logger
	if !log.enable(LogVerbose) {
		return
	}
	if header {
		log.log(" Iter ColIn Row_Out ColOut\n")
		return
	}
	if e.rowOut >= 0 {
		log.log("%5d %5d  %5d  %5d\n",
			e.inst.iterationCount, e.variableIn, e.rowOut, e.variableOut)
	} else {
		log.log("%5d %5d Bound flip\n", e.inst.iterationCount, e.variableIn)
	}
}

// reportRebuild emits the rebuild report line.
func (e *engine) reportRebuild(reason rebuildReason) {
	in := e.inst
	log := in.logger
	if !log.enable(LogDetailed) {
		return
	}
	log.log("primal-rebuild(%v): iter %d phase %d objective %.10g infeasibilities %d/%g\n",
		reason, in.iterationCount, e.phase, in.primalObjectiveValue,
		in.numPrimalInfeasibilities, in.sumPrimalInfeasibilities)
}
