// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package primal

// Cross-checks used to flag logical errors. All hooks return true when
// the state is acceptable; a false return promotes the phase to Error at
// the call site.

// debugOkForSolve checks the entry and exit conditions of a solve.
func (e *engine) debugOkForSolve(message string) bool {
	in := e.inst
	if in.opts.DebugLevel < DebugCheap {
		return true
	}
	ok := in.hasInvert &&
		len(in.basis.BasicIndex) == e.numRow &&
		len(in.basis.NonbasicFlag) == e.numTot &&
		in.basis.Consistent()
	if !ok && in.logger.enable(LogMinimal) {
		in.logger.log("primal: debug %s: inconsistent solver state\n", message)
	}
	return ok
}

// debugPrimalSimplex checks the invariants an iteration relies on: a
// consistent basis, nonbasic values on the bound their move direction
// indicates, and a free-column set matching the basis.
func (e *engine) debugPrimalSimplex(message string) bool {
	in := e.inst
	if in.opts.DebugLevel < DebugCheap {
		return true
	}
	log := in.logger
	if !in.basis.Consistent() {
		if log.enable(LogMinimal) {
			log.log("primal: debug %s: basis inconsistent\n", message)
		}
		return false
	}
	for v := 0; v < e.numTot; v++ {
		if in.basis.NonbasicFlag[v] != 1 {
			continue
		}
		lower, upper := in.workLower[v], in.workUpper[v]
		move := in.basis.NonbasicMove[v]
		value := in.workValue[v]
		var ok bool
		switch {
		case lower == upper:
			ok = move == 0 && value == lower
		case lower <= -inf && upper >= inf:
			ok = move == 0
		case lower > -inf && upper < inf:
			ok = (move == 1 && value == lower) || (move == -1 && value == upper)
		case lower > -inf:
			ok = move == 1 && value == lower
		default:
			ok = move == -1 && value == upper
		}
		if !ok {
			if log.enable(LogMinimal) {
				log.log("primal: debug %s: variable %d has move %d value %g for bounds [%g, %g]\n",
					message, v, move, value, lower, upper)
			}
			return false
		}
	}
	if e.numFreeCol > 0 && !e.debugNonbasicFreeColumnSet() {
		if log.enable(LogMinimal) {
			log.log("primal: debug %s: free-column set inconsistent\n", message)
		}
		return false
	}
	if e.phase == phase1 && !e.debugPhase1Costs() {
		if log.enable(LogMinimal) {
			log.log("primal: debug %s: phase-1 cost contract broken\n", message)
		}
		return false
	}
	return true
}

// debugNonbasicFreeColumnSet checks membership of the free-column set
// against the basis and the bounds.
func (e *engine) debugNonbasicFreeColumnSet() bool {
	in := e.inst
	numNonbasicFree := 0
	for v := 0; v < e.numTot; v++ {
		free := in.workLower[v] <= -inf && in.workUpper[v] >= inf
		nonbasicFree := free && in.basis.NonbasicFlag[v] == 1
		if nonbasicFree && !e.nonbasicFreeColSet.in(v) {
			return false
		}
		if !nonbasicFree && e.nonbasicFreeColSet.in(v) {
			return false
		}
		if nonbasicFree {
			numNonbasicFree++
		}
	}
	return numNonbasicFree == e.nonbasicFreeColSet.count
}

// debugPhase1Costs checks that every basic cost is -1, 0 or +1 and that
// a nonzero cost is not contradicted by its value: -1 requires a value
// below lower+tolerance, +1 a value above upper−tolerance. A zero cost is
// not checked against its value.
func (e *engine) debugPhase1Costs() bool {
	in := e.inst
	tol := e.primalFeasibilityTolerance
	for iRow := 0; iRow < e.numRow; iRow++ {
		cost := in.workCost[in.basis.BasicIndex[iRow]]
		if cost != 0 && cost != 1 && cost != -1 {
			return false
		}
		value := in.baseValue[iRow]
		switch {
		case cost < 0 && value >= in.baseLower[iRow]+tol:
			return false
		case cost > 0 && value <= in.baseUpper[iRow]-tol:
			return false
		}
	}
	return true
}
