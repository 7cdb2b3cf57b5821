// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package primal

import (
	"github.com/curioloop/simplex/sparse"
)

const (
	// maxNumHyperChuzcCandidates caps the hyper-sparse candidate heap.
	maxNumHyperChuzcCandidates = 50
	// badDevexWeightFactor flags a stored weight as bad when it exceeds
	// this multiple of the exact pivot weight.
	badDevexWeightFactor = 3.0
	// allowedNumBadDevexWeight is the bad-weight count that forces a
	// reference-set reset.
	allowedNumBadDevexWeight = 3
)

// engine drives the primal simplex iterations over an instance. Each
// inner routine records its outcome in the phase sentinel or the rebuild
// reason; only the outer loop inspects them.
type engine struct {
	inst *instance

	numCol, numRow, numTot int

	primalFeasibilityTolerance float64
	dualFeasibilityTolerance   float64

	phase         solvePhase
	rebuildReason rebuildReason

	// Working vectors, reused across iterations.
	colAq                     sparse.Vector
	rowEp                     sparse.Vector
	rowAp                     sparse.Vector
	colBasicFeasibilityChange sparse.Vector
	rowBasicFeasibilityChange sparse.Vector

	// Phase-1 ratio-test break points: relaxed and tight.
	ph1SorterR []thetaRow
	ph1SorterT []thetaRow

	// Devex reference framework.
	devexWeight        []float64
	devexIndex         []int
	numDevexIterations int
	numBadDevexWeight  int

	numFreeCol         int
	nonbasicFreeColSet indexedSet

	// Per-iteration pivot state.
	variableIn  int
	variableOut int
	rowOut      int
	moveIn      int
	moveOut     int
	thetaDual   float64
	thetaPrimal float64
	valueIn     float64
	alphaCol    float64
	alphaRow    float64

	numericalTrouble    float64
	numFlipSinceRebuild int

	// Hyper-sparse CHUZC candidate state.
	useHyperChuzc                    bool
	initialiseHyperChuzc             bool
	doneNextChuzc                    bool
	numHyperChuzcCandidates          int
	hyperChuzcCandidate              []int
	hyperChuzcMeasure                []float64
	maxChangedMeasureValue           float64
	maxChangedMeasureColumn          int
	maxHyperChuzcNonCandidateMeasure float64

	// Long-lived diagnostic maxima, held on the engine rather than as
	// process-wide state.
	updateMaxLocalPrimalInfeasibility  float64
	correctMaxLocalPrimalInfeasibility float64
	maxPrimalCorrection                float64
}

// thetaRow is one ratio-test break point. Index r encodes the leaving
// move toward one bound of row r; index r − numRow encodes the opposite
// direction.
type thetaRow struct {
	theta float64
	index int
}

func newEngine(in *instance) *engine {
	e := &engine{inst: in}
	e.numCol = in.numCol
	e.numRow = in.numRow
	e.numTot = in.numTot

	e.primalFeasibilityTolerance = in.opts.PrimalFeasibilityTolerance
	e.dualFeasibilityTolerance = in.opts.DualFeasibilityTolerance

	e.rebuildReason = rebuildNo

	in.hasPrimalObjectiveValue = false
	in.hasDualObjectiveValue = false
	in.scaledModelStatus = ModelNotSet
	in.solveBailout = false

	e.colAq.Setup(e.numRow)
	e.rowEp.Setup(e.numRow)
	e.rowAp.Setup(e.numCol)
	e.colBasicFeasibilityChange.Setup(e.numRow)
	e.rowBasicFeasibilityChange.Setup(e.numCol)

	e.ph1SorterR = make([]thetaRow, 0, e.numRow)
	e.ph1SorterT = make([]thetaRow, 0, e.numRow)

	e.devexWeight = make([]float64, e.numTot)
	e.devexIndex = make([]int, e.numTot)
	e.resetDevex()

	e.numFreeCol = 0
	for v := 0; v < e.numTot; v++ {
		if in.workLower[v] <= -inf && in.workUpper[v] >= inf {
			e.numFreeCol++
		}
	}
	if e.numFreeCol > 0 {
		if log := in.logger; log.enable(LogMinimal) {
			log.log("primal: LP has %d free columns\n", e.numFreeCol)
		}
		e.nonbasicFreeColSet.setup(e.numFreeCol, e.numTot)
	}

	e.hyperChuzcCandidate = make([]int, 1+maxNumHyperChuzcCandidates)
	e.hyperChuzcMeasure = make([]float64, 1+maxNumHyperChuzcCandidates)
	return e
}

// getNonbasicFreeColumnSet fills the free-column set with the nonbasic
// variables unbounded in both directions.
func (e *engine) getNonbasicFreeColumnSet() {
	if e.numFreeCol == 0 {
		return
	}
	in := e.inst
	e.nonbasicFreeColSet.clear()
	for v := 0; v < e.numTot; v++ {
		if in.basis.NonbasicFlag[v] == 1 &&
			in.workLower[v] <= -inf && in.workUpper[v] >= inf {
			e.nonbasicFreeColSet.add(v)
		}
	}
}

// removeNonbasicFreeColumn drops the entering variable from the free set
// once it becomes basic.
func (e *engine) removeNonbasicFreeColumn() {
	if e.numFreeCol == 0 || e.inst.basis.NonbasicMove[e.variableIn] != 0 {
		return
	}
	if !e.nonbasicFreeColSet.remove(e.variableIn) {
		if log := e.inst.logger; log.enable(LogMinimal) {
			log.log("primal: failed to remove nonbasic free column %d\n", e.variableIn)
		}
		e.phase = phaseError
	}
}
