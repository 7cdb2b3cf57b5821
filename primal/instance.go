// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package primal

import (
	"math"
	"math/rand"
	"time"

	"github.com/curioloop/simplex/basis"
	"github.com/curioloop/simplex/lp"
	"github.com/curioloop/simplex/sparse"
)

const inf = lp.Inf

// randomSeed fixes the per-variable jitter stream so that bound shifts
// are deterministic across solves of the same model.
const randomSeed = 86028157

// instance aggregates the state a solve owns exclusively: the model view,
// the basis and its factorization, the work arrays, and the bookkeeping
// the engine and its collaborators share.
type instance struct {
	model  *lp.Model
	opts   Options
	logger *Logger

	numCol, numRow, numTot int

	matrix *sparse.Matrix
	basis  *basis.Basis
	factor *basis.Factor

	// Per-variable views over structural columns then logicals.
	workCost  []float64
	workDual  []float64
	workValue []float64
	workLower []float64
	workUpper []float64

	workLowerShift []float64
	workUpperShift []float64

	// Per-row views of the basic variables.
	baseLower []float64
	baseUpper []float64
	baseValue []float64

	// Stable jitter stream for bound shifting.
	numTotRandomValue []float64

	// Full-dimension buffers for the dense BTRAN/PRICE variants.
	bufferRow sparse.Vector
	bufferCol sparse.Vector

	iterationCount       int
	phase1IterationCount int
	phase2IterationCount int
	updateCount          int
	updateLimit          int

	numPrimalInfeasibilities int
	maxPrimalInfeasibility   float64
	sumPrimalInfeasibilities float64
	numDualInfeasibilities   int
	sumDualInfeasibilities   float64

	primalObjectiveValue        float64
	updatedPrimalObjectiveValue float64
	dualObjectiveValue          float64
	hasPrimalObjectiveValue     bool
	hasDualObjectiveValue       bool

	hasInvert       bool
	hasFreshRebuild bool

	boundsPerturbed        bool
	allowBoundPerturbation bool
	primalBoundSwap        int

	buildSyntheticTick float64
	totalSyntheticTick float64

	scaledModelStatus ModelStatus
	solveBailout      bool
	startTime         time.Time
}

func newInstance(model *lp.Model, opts Options, logger *Logger) *instance {
	return &instance{
		model:  model,
		opts:   opts,
		logger: logger,
	}
}

// setup allocates all working storage from the model dimensions, installs
// the logical basis, and factorizes it.
func (in *instance) setup() {
	in.numCol = in.model.NumCol
	in.numRow = in.model.NumRow
	in.numTot = in.numCol + in.numRow

	in.matrix = sparse.NewMatrix(in.numCol, in.numRow,
		in.model.AStart, in.model.AIndex, in.model.AValue)
	in.basis = basis.Logical(in.numCol, in.numRow)
	in.factor = basis.NewFactor(in.matrix)

	in.workCost = make([]float64, in.numTot)
	in.workDual = make([]float64, in.numTot)
	in.workValue = make([]float64, in.numTot)
	in.workLower = make([]float64, in.numTot)
	in.workUpper = make([]float64, in.numTot)
	in.workLowerShift = make([]float64, in.numTot)
	in.workUpperShift = make([]float64, in.numTot)
	in.baseLower = make([]float64, in.numRow)
	in.baseUpper = make([]float64, in.numRow)
	in.baseValue = make([]float64, in.numRow)

	rnd := rand.New(rand.NewSource(randomSeed))
	in.numTotRandomValue = make([]float64, in.numTot)
	for i := range in.numTotRandomValue {
		in.numTotRandomValue[i] = rnd.Float64()
	}

	in.bufferRow.Setup(in.numRow)
	in.bufferCol.Setup(in.numCol)

	in.updateLimit = in.opts.UpdateLimit
	in.allowBoundPerturbation = !in.opts.NoBoundPerturbation
	in.scaledModelStatus = ModelNotSet
	in.startTime = time.Now()

	in.initialiseBound()
	in.initialiseCost()
	in.initialiseValueAndNonbasicMove()
	in.computeFactor()
}

// initialiseBound resets the working bounds to the model bounds, removing
// any accumulated perturbation.
func (in *instance) initialiseBound() {
	for j := 0; j < in.numCol; j++ {
		in.workLower[j] = in.model.ColLower[j]
		in.workUpper[j] = in.model.ColUpper[j]
	}
	// Rows enter as A·x + s = 0, so the logical bounds are negated.
	for i := 0; i < in.numRow; i++ {
		in.workLower[in.numCol+i] = -in.model.RowUpper[i]
		in.workUpper[in.numCol+i] = -in.model.RowLower[i]
	}
	for v := 0; v < in.numTot; v++ {
		in.workLowerShift[v] = 0
		in.workUpperShift[v] = 0
	}
	in.boundsPerturbed = false
}

// initialiseCost resets the working costs to the sense-adjusted model
// costs, discarding any phase-1 costs.
func (in *instance) initialiseCost() {
	sense := float64(in.model.Sense)
	for j := 0; j < in.numCol; j++ {
		in.workCost[j] = sense * in.model.ColCost[j]
	}
	for i := 0; i < in.numRow; i++ {
		in.workCost[in.numCol+i] = 0
	}
}

// initialiseValueAndNonbasicMove places every nonbasic variable at a
// bound and records the direction it may move.
func (in *instance) initialiseValueAndNonbasicMove() {
	for v := 0; v < in.numTot; v++ {
		if in.basis.NonbasicFlag[v] != basis.FlagNonbasic {
			in.basis.NonbasicMove[v] = basis.MoveZero
			continue
		}
		lower, upper := in.workLower[v], in.workUpper[v]
		switch {
		case lower == upper:
			in.workValue[v] = lower
			in.basis.NonbasicMove[v] = basis.MoveZero
		case lower > -inf && upper < inf:
			// Boxed: start at the bound of smaller magnitude
			if math.Abs(upper) < math.Abs(lower) {
				in.workValue[v] = upper
				in.basis.NonbasicMove[v] = basis.MoveDown
			} else {
				in.workValue[v] = lower
				in.basis.NonbasicMove[v] = basis.MoveUp
			}
		case lower > -inf:
			in.workValue[v] = lower
			in.basis.NonbasicMove[v] = basis.MoveUp
		case upper < inf:
			in.workValue[v] = upper
			in.basis.NonbasicMove[v] = basis.MoveDown
		default:
			in.workValue[v] = 0
			in.basis.NonbasicMove[v] = basis.MoveZero
		}
	}
}

// initialiseNonbasicWorkValue resets nonbasic values onto the bound their
// move direction indicates, after the bounds themselves changed.
func (in *instance) initialiseNonbasicWorkValue() {
	for v := 0; v < in.numTot; v++ {
		if in.basis.NonbasicFlag[v] != basis.FlagNonbasic {
			continue
		}
		switch {
		case in.basis.NonbasicMove[v] == basis.MoveUp:
			in.workValue[v] = in.workLower[v]
		case in.basis.NonbasicMove[v] == basis.MoveDown:
			in.workValue[v] = in.workUpper[v]
		case in.workLower[v] == in.workUpper[v]:
			in.workValue[v] = in.workLower[v]
		}
	}
}

// computeFactor refactorizes the basis, returning the rank deficiency.
func (in *instance) computeFactor() int {
	rankDeficiency := in.factor.Factorize(in.basis.BasicIndex)
	if rankDeficiency == 0 {
		in.hasInvert = true
		in.buildSyntheticTick = in.factor.BuildTick
	}
	return rankDeficiency
}

// computePrimal computes the basic values from scratch:
// x_B = B⁻¹(−N·x_N), and refreshes the basic bound views.
func (in *instance) computePrimal() {
	buf := &in.bufferRow
	buf.Clear()
	for v := 0; v < in.numTot; v++ {
		if in.basis.NonbasicFlag[v] != basis.FlagNonbasic || in.workValue[v] == 0 {
			continue
		}
		x := in.workValue[v]
		if v < in.numCol {
			index, value := in.matrix.Col(v)
			for el, i := range index {
				buf.Array[i] -= x * value[el]
			}
		} else {
			buf.Array[v-in.numCol] -= x
		}
	}
	buf.Repack()
	in.factor.Ftran(buf)
	for r := 0; r < in.numRow; r++ {
		v := in.basis.BasicIndex[r]
		in.baseValue[r] = buf.Array[r]
		in.baseLower[r] = in.workLower[v]
		in.baseUpper[r] = in.workUpper[v]
	}
}

// computeDual computes all duals from scratch: π = B⁻ᵀc_B, then
// workDual = workCost − Aᵀπ.
func (in *instance) computeDual() {
	buf := &in.bufferRow
	buf.Clear()
	for r := 0; r < in.numRow; r++ {
		buf.Array[r] = in.workCost[in.basis.BasicIndex[r]]
	}
	buf.Repack()
	in.factor.Btran(buf)
	in.matrix.PriceByColumn(&in.bufferCol, buf)
	for j := 0; j < in.numCol; j++ {
		in.workDual[j] = in.workCost[j] - in.bufferCol.Array[j]
	}
	for i := 0; i < in.numRow; i++ {
		in.workDual[in.numCol+i] = in.workCost[in.numCol+i] - buf.Array[i]
	}
}

// fullBtran performs BTRAN on a vector whose support is unknown.
func (in *instance) fullBtran(buf *sparse.Vector) {
	buf.Repack()
	in.factor.Btran(buf)
}

// fullPrice computes the dense structural image of a row vector.
func (in *instance) fullPrice(buf, bufLong *sparse.Vector) {
	in.matrix.PriceByColumn(bufLong, buf)
}

// pivotColumnFtran forms the pivotal column B⁻¹a_q for a variable.
func (in *instance) pivotColumnFtran(iCol int, colAq *sparse.Vector) {
	colAq.Clear()
	if iCol < in.numCol {
		index, value := in.matrix.Col(iCol)
		for el, i := range index {
			colAq.Set(i, value[el])
		}
	} else {
		colAq.Set(iCol-in.numCol, 1)
	}
	in.factor.Ftran(colAq)
}

// unitBtran computes the row of B⁻¹ selected by iRow.
func (in *instance) unitBtran(iRow int, rowEp *sparse.Vector) {
	in.factor.UnitBtran(iRow, rowEp)
}

// tableauRowPrice computes the pivotal row over the structural columns
// using the PRICE technique the strategy and density select.
func (in *instance) tableauRowPrice(rowEp, rowAp *sparse.Vector) {
	density := float64(rowEp.Count) / float64(in.numRow)
	useColPrice, useRowPriceWithSwitch := in.choosePriceTechnique(in.opts.PriceStrategy, density)
	if useColPrice {
		// Column-wise PRICE computes basic components too: zero them
		// through the nonbasic flags.
		in.matrix.PriceByColumn(rowAp, rowEp)
		for j := 0; j < in.numCol; j++ {
			rowAp.Array[j] *= float64(in.basis.NonbasicFlag[j])
		}
		rowAp.Repack()
	} else if useRowPriceWithSwitch {
		in.matrix.PriceByRowSparseResultWithSwitch(rowAp, rowEp, in.matrix.SwitchDensity())
	} else {
		in.matrix.PriceByRowSparseResult(rowAp, rowEp)
	}
}

// choosePriceTechnique maps the strategy and the BTRAN result density to
// a PRICE kernel.
func (in *instance) choosePriceTechnique(strategy PriceStrategy, density float64) (useColPrice, useRowPriceWithSwitch bool) {
	switch strategy {
	case PriceCol:
		return true, false
	case PriceRowSwitch:
		return false, true
	default:
		if density > 0.75 {
			return true, false
		}
		return false, true
	}
}

// sparseLoopStyle decides between indexed and dense iteration.
func (in *instance) sparseLoopStyle(count, dim int) (toEntry int, useIndices bool) {
	return sparse.LoopStyle(count, dim)
}

// computeSimplexPrimalInfeasible counts the primal infeasibilities of
// both the nonbasic values and the basic values.
func (in *instance) computeSimplexPrimalInfeasible() {
	tol := in.opts.PrimalFeasibilityTolerance
	num, maxIfs, sum := 0, 0.0, 0.0
	measure := func(value, lower, upper float64) {
		infeasibility := 0.0
		if value < lower-tol {
			infeasibility = lower - value
		} else if value > upper+tol {
			infeasibility = value - upper
		}
		if infeasibility > 0 {
			if infeasibility > tol {
				num++
			}
			maxIfs = math.Max(infeasibility, maxIfs)
			sum += infeasibility
		}
	}
	for v := 0; v < in.numTot; v++ {
		if in.basis.NonbasicFlag[v] == basis.FlagNonbasic {
			measure(in.workValue[v], in.workLower[v], in.workUpper[v])
		}
	}
	for r := 0; r < in.numRow; r++ {
		measure(in.baseValue[r], in.baseLower[r], in.baseUpper[r])
	}
	in.numPrimalInfeasibilities = num
	in.maxPrimalInfeasibility = maxIfs
	in.sumPrimalInfeasibilities = sum
}

// computeSimplexDualInfeasible counts the dual infeasibilities of the
// nonbasic variables.
func (in *instance) computeSimplexDualInfeasible() {
	tol := in.opts.DualFeasibilityTolerance
	num, sum := 0, 0.0
	for v := 0; v < in.numTot; v++ {
		if in.basis.NonbasicFlag[v] != basis.FlagNonbasic {
			continue
		}
		var infeasibility float64
		if in.workLower[v] <= -inf && in.workUpper[v] >= inf {
			infeasibility = math.Abs(in.workDual[v])
		} else {
			infeasibility = -float64(in.basis.NonbasicMove[v]) * in.workDual[v]
		}
		if infeasibility > tol {
			num++
			sum += infeasibility
		}
	}
	in.numDualInfeasibilities = num
	in.sumDualInfeasibilities = sum
}

// computePrimalObjectiveValue recomputes the objective from the current
// primal values using the model costs, not the (possibly phase-1) costs.
func (in *instance) computePrimalObjectiveValue() {
	sense := float64(in.model.Sense)
	objective := 0.0
	for r := 0; r < in.numRow; r++ {
		v := in.basis.BasicIndex[r]
		if v < in.numCol {
			objective += in.baseValue[r] * sense * in.model.ColCost[v]
		}
	}
	for j := 0; j < in.numCol; j++ {
		if in.basis.NonbasicFlag[j] == basis.FlagNonbasic {
			objective += in.workValue[j] * sense * in.model.ColCost[j]
		}
	}
	in.primalObjectiveValue = objective
	in.hasPrimalObjectiveValue = true
}

// computeDualObjectiveValue recomputes the dual objective from the
// nonbasic values and duals.
func (in *instance) computeDualObjectiveValue() {
	objective := 0.0
	for v := 0; v < in.numTot; v++ {
		if in.basis.NonbasicFlag[v] == basis.FlagNonbasic {
			objective += in.workValue[v] * in.workDual[v]
		}
	}
	in.dualObjectiveValue = objective
	in.hasDualObjectiveValue = true
}

// updatePivots applies the basis change of a pivot: the entering variable
// becomes basic in rowOut, the leaving variable lands on the bound its
// move direction selects.
func (in *instance) updatePivots(variableIn, rowOut, moveOut int) int {
	variableOut := in.basis.BasicIndex[rowOut]
	in.basis.BasicIndex[rowOut] = variableIn
	in.basis.NonbasicFlag[variableIn] = basis.FlagBasic
	in.basis.NonbasicMove[variableIn] = basis.MoveZero
	in.basis.NonbasicFlag[variableOut] = basis.FlagNonbasic
	switch {
	case in.workLower[variableOut] == in.workUpper[variableOut]:
		in.workValue[variableOut] = in.workLower[variableOut]
		in.basis.NonbasicMove[variableOut] = basis.MoveZero
	case moveOut == -1:
		in.workValue[variableOut] = in.workLower[variableOut]
		in.basis.NonbasicMove[variableOut] = basis.MoveUp
	default:
		in.workValue[variableOut] = in.workUpper[variableOut]
		in.basis.NonbasicMove[variableOut] = basis.MoveDown
	}
	in.baseLower[rowOut] = in.workLower[variableIn]
	in.baseUpper[rowOut] = in.workUpper[variableIn]
	in.hasFreshRebuild = false
	return variableOut
}

// updateFactor appends the product-form update for the pivot and decides
// whether accumulated update cost argues for refactorization.
func (in *instance) updateFactor(colAq, rowEp *sparse.Vector, rowOut int, reason *rebuildReason) {
	_ = rowEp
	in.factor.Update(colAq, rowOut)
	in.updateCount = in.factor.UpdateCount()
	if in.updateCount >= 50 && in.totalSyntheticTick > 1.5*in.buildSyntheticTick {
		*reason = rebuildSyntheticClockSaysInvert
	}
}

// updateMatrix repartitions the row-wise matrix after a pivot.
func (in *instance) updateMatrix(variableIn, variableOut int) {
	in.matrix.Update(variableIn, variableOut)
}

// bailoutOnTimeIterations checks the cooperative stop conditions and
// latches the bailout state.
func (in *instance) bailoutOnTimeIterations() bool {
	if in.solveBailout {
		return true
	}
	switch {
	case in.iterationCount >= in.opts.IterationLimit:
		in.solveBailout = true
	case in.opts.TimeLimit > 0 && time.Since(in.startTime) >= in.opts.TimeLimit:
		in.solveBailout = true
	case in.opts.Interrupt != nil && in.opts.Interrupt():
		in.solveBailout = true
	}
	return in.solveBailout
}

// bailoutReturn reports whether the solve already bailed out.
func (in *instance) bailoutReturn() bool {
	return in.solveBailout
}

// returnFromSolve finalizes the terminal status.
func (in *instance) returnFromSolve(status Status) Status {
	if status == StatusError && in.scaledModelStatus == ModelNotSet {
		in.scaledModelStatus = ModelSolveError
	}
	return status
}

// extractResult gathers the solution views for the caller.
func (in *instance) extractResult(status Status) *Result {
	res := &Result{
		Status:           status,
		Model:            in.scaledModelStatus,
		ColValue:         make([]float64, in.numCol),
		RowValue:         make([]float64, in.numRow),
		ColDual:          make([]float64, in.numCol),
		RowDual:          make([]float64, in.numRow),
		Iterations:       in.iterationCount,
		Phase1Iterations: in.phase1IterationCount,
		Phase2Iterations: in.phase2IterationCount,
		BoundSwaps:       in.primalBoundSwap,
	}
	value := make([]float64, in.numTot)
	for v := 0; v < in.numTot; v++ {
		value[v] = in.workValue[v]
	}
	for r := 0; r < in.numRow; r++ {
		value[in.basis.BasicIndex[r]] = in.baseValue[r]
	}
	sense := float64(in.model.Sense)
	for j := 0; j < in.numCol; j++ {
		res.ColValue[j] = value[j]
		res.ColDual[j] = sense * in.workDual[j]
	}
	for i := 0; i < in.numRow; i++ {
		// The logical carries the negated row activity.
		res.RowValue[i] = -value[in.numCol+i]
		res.RowDual[i] = -sense * in.workDual[in.numCol+i]
	}
	in.computePrimalObjectiveValue()
	res.Objective = sense*in.primalObjectiveValue + in.model.Offset
	return res
}
