// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package primal

// Status is the terminal outcome of a solve call.
type Status int

const (
	StatusOK Status = iota
	// StatusWarning the solve bailed out on an iteration or time limit
	// or an interrupt.
	StatusWarning
	// StatusError the solve failed on a logical or numerical error.
	StatusError
)

// ModelStatus classifies the model at termination.
type ModelStatus int

const (
	ModelNotSet ModelStatus = iota
	ModelOptimal
	ModelPrimalInfeasible
	ModelPrimalUnbounded
	ModelPrimalDualInfeasible
	ModelDualInfeasible
	// ModelCleanup bound shifts left primal infeasibilities that a dual
	// simplex clean-up would have to remove.
	ModelCleanup
	ModelSolveError
)

func (s ModelStatus) String() string {
	switch s {
	case ModelNotSet:
		return "not set"
	case ModelOptimal:
		return "optimal"
	case ModelPrimalInfeasible:
		return "primal infeasible"
	case ModelPrimalUnbounded:
		return "primal unbounded"
	case ModelPrimalDualInfeasible:
		return "primal-dual infeasible"
	case ModelDualInfeasible:
		return "dual infeasible"
	case ModelCleanup:
		return "cleanup"
	case ModelSolveError:
		return "solve error"
	}
	return "unknown"
}

// solvePhase is the state of the two-phase controller.
type solvePhase int

const (
	phaseOptimal solvePhase = iota
	phase1
	phase2
	phaseCleanup
	phaseExit
	phaseUnknown
	phaseError

	phaseMin = phaseOptimal
	phaseMax = phaseError
)

// rebuildReason is the sentinel an inner step raises to request that the
// outer loop restore invariants from scratch.
type rebuildReason int

const (
	rebuildNo rebuildReason = iota
	rebuildUpdateLimitReached
	rebuildSyntheticClockSaysInvert
	rebuildPossiblyOptimal
	rebuildPossiblyPrimalUnbounded
	rebuildPossiblySingularBasis
	rebuildPrimalInfeasibleInPrimalSimplex
)

func (r rebuildReason) String() string {
	switch r {
	case rebuildNo:
		return "no"
	case rebuildUpdateLimitReached:
		return "update limit reached"
	case rebuildSyntheticClockSaysInvert:
		return "synthetic clock says invert"
	case rebuildPossiblyOptimal:
		return "possibly optimal"
	case rebuildPossiblyPrimalUnbounded:
		return "possibly primal unbounded"
	case rebuildPossiblySingularBasis:
		return "possibly singular basis"
	case rebuildPrimalInfeasibleInPrimalSimplex:
		return "primal infeasible"
	}
	return "unknown"
}

// PriceStrategy selects the PRICE kernel for pivotal-row computation.
type PriceStrategy int

const (
	// PriceRowSwitchColSwitch picks column-wise PRICE for dense inputs
	// and row-wise PRICE with a density switch otherwise.
	PriceRowSwitchColSwitch PriceStrategy = iota
	// PriceCol always prices column-wise.
	PriceCol
	// PriceRowSwitch always prices row-wise with a density switch.
	PriceRowSwitch
)

// DebugLevel controls the cost of the internal cross-checks.
type DebugLevel int

const (
	// DebugNone disables all cross-checks (level < 0).
	DebugNone DebugLevel = -1
	// DebugCheap enables checks linear in the iteration work.
	DebugCheap DebugLevel = 0
	// DebugCostly also verifies hyper-sparse CHUZC against a full scan.
	DebugCostly DebugLevel = 1
)
