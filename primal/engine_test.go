// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package primal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curioloop/simplex/lp"
)

func testEngine(t *testing.T, model *lp.Model, opts Options) (*instance, *engine) {
	t.Helper()
	require.NoError(t, model.Validate())
	inst := newInstance(model, opts.withDefaults(), quietLogger())
	inst.setup()
	return inst, newEngine(inst)
}

// The phase-1 ratio test must reject a pivot of magnitude 0.05 when a
// pivot of magnitude 1.0 ties for the leaving step: the cutoff is a
// tenth of the largest pivot within the step.
func TestPhase1ChooseRowPivotCutoff(t *testing.T) {
	inst, eng := testEngine(t, productionModel(lp.Minimize), Options{})

	eng.phase = phase1
	eng.moveIn = 1
	eng.thetaDual = -2.0
	eng.colAq.Clear()
	eng.colAq.Set(0, 0.05)
	eng.colAq.Set(1, 1.0)

	inst.baseValue[0] = 0.0505
	inst.baseLower[0] = -inf
	inst.baseUpper[0] = 0
	inst.baseValue[1] = 1.0
	inst.baseLower[1] = -inf
	inst.baseUpper[1] = 0
	inst.baseValue[2] = 0
	inst.baseLower[2] = -inf
	inst.baseUpper[2] = inf

	eng.phase1ChooseRow()
	require.Equal(t, 1, eng.rowOut, "the 1.0 pivot must win")
	require.Equal(t, 1, eng.moveOut)
}

func TestShiftBoundPostcondition(t *testing.T) {
	_, eng := testEngine(t, productionModel(lp.Minimize), Options{})

	const tol = 1e-7
	random := 0.3
	feasibility := (1 + random) * tol

	bound, sumShift := 4.0, 0.0
	value := 5.0
	eng.shiftBound(false, 0, value, random, tol, &bound, &sumShift, false)
	require.NotEqual(t, phaseError, eng.phase)
	require.Greater(t, bound, value, "value strictly feasible after shift")
	require.InDelta(t, feasibility, bound-value, 1e-12)
	require.InDelta(t, (value-4.0)+feasibility, sumShift, 1e-12)

	bound, sumShift = 0.0, 0.0
	value = -0.25
	eng.shiftBound(true, 1, value, random, tol, &bound, &sumShift, false)
	require.NotEqual(t, phaseError, eng.phase)
	require.Less(t, bound, value)
	require.InDelta(t, feasibility, value-bound, 1e-12)
	require.InDelta(t, 0.25+feasibility, sumShift, 1e-12)
}

func TestShiftThenCleanupRestoresBounds(t *testing.T) {
	model := productionModel(lp.Minimize)
	// A finite upper bound on column 0, so that shifting it changes it
	model.ColUpper[0] = 10
	inst, eng := testEngine(t, model, Options{})

	originalLower := append([]float64(nil), inst.workLower...)
	originalUpper := append([]float64(nil), inst.workUpper...)

	eng.shiftBound(false, 0, inst.workUpper[0]+0.5, inst.numTotRandomValue[0],
		eng.primalFeasibilityTolerance, &inst.workUpper[0], &inst.workUpperShift[0], false)
	eng.shiftBound(true, 1, inst.workLower[1]-0.25, inst.numTotRandomValue[1],
		eng.primalFeasibilityTolerance, &inst.workLower[1], &inst.workLowerShift[1], false)
	inst.boundsPerturbed = true
	require.NotEqual(t, originalUpper[0], inst.workUpper[0])
	require.NotEqual(t, originalLower[1], inst.workLower[1])

	eng.cleanup()
	require.Equal(t, originalLower, inst.workLower)
	require.Equal(t, originalUpper, inst.workUpper)
	for v := 0; v < inst.numTot; v++ {
		require.Zero(t, inst.workLowerShift[v])
		require.Zero(t, inst.workUpperShift[v])
	}
	require.False(t, inst.boundsPerturbed)
	require.False(t, inst.allowBoundPerturbation)
}

// A bound shift is recorded when the entering value violates its own
// bound in phase 2 and perturbation is allowed.
func TestConsiderInfeasibleValueInShifts(t *testing.T) {
	inst, eng := testEngine(t, productionModel(lp.Minimize), Options{})

	eng.phase = phase2
	eng.rowOut = 0
	eng.variableIn = 0
	upper := 1.5
	inst.workUpper[0] = upper
	eng.valueIn = upper + 1e-3

	eng.considerInfeasibleValueIn()
	require.True(t, inst.boundsPerturbed)
	require.Greater(t, inst.workUpper[0], eng.valueIn)
	require.Greater(t, inst.workUpperShift[0], 0.0)
	require.Equal(t, rebuildNo, eng.rebuildReason)
}

// Without perturbation the same state raises the rebuild reason instead.
func TestConsiderInfeasibleValueInWithoutPerturbation(t *testing.T) {
	inst, eng := testEngine(t, productionModel(lp.Minimize), Options{NoBoundPerturbation: true})

	eng.phase = phase2
	eng.rowOut = 0
	eng.variableIn = 0
	inst.workUpper[0] = 1.5
	eng.valueIn = 1.5 + 1e-3

	eng.considerInfeasibleValueIn()
	require.False(t, inst.boundsPerturbed)
	require.Equal(t, rebuildPrimalInfeasibleInPrimalSimplex, eng.rebuildReason)
}

func TestDevexResetInvariant(t *testing.T) {
	inst, eng := testEngine(t, productionModel(lp.Minimize), Options{})

	// Disturb the framework, then reset
	eng.devexWeight[0] = 9
	eng.devexWeight[3] = 2.5
	eng.devexIndex[1] = 0
	eng.numBadDevexWeight = 2
	eng.numDevexIterations = 7

	eng.resetDevex()
	for v := 0; v < inst.numTot; v++ {
		require.Equal(t, 1.0, eng.devexWeight[v])
		flag := inst.basis.NonbasicFlag[v]
		require.Equal(t, flag*flag, eng.devexIndex[v])
	}
	require.Zero(t, eng.numDevexIterations)
	require.Zero(t, eng.numBadDevexWeight)
}

// Rebuilding twice from the same state reproduces the same snapshot.
func TestRebuildIdempotent(t *testing.T) {
	inst, eng := testEngine(t, productionModel(lp.Minimize), Options{})
	eng.phase = phase2

	snapshot := func() ([]float64, []float64, []float64, float64) {
		return append([]float64(nil), inst.baseValue...),
			append([]float64(nil), inst.workDual...),
			append([]float64(nil), inst.workCost...),
			inst.primalObjectiveValue
	}

	eng.rebuild()
	require.NotEqual(t, phaseError, eng.phase)
	v1, d1, c1, o1 := snapshot()

	eng.rebuild()
	require.NotEqual(t, phaseError, eng.phase)
	v2, d2, c2, o2 := snapshot()

	require.Equal(t, v1, v2)
	require.Equal(t, d1, d2)
	require.Equal(t, c1, c2)
	require.Equal(t, o1, o2)
}

// After a solve every Devex weight is at least one: the weight of the
// leaving variable is clamped below by one and the entering variable
// restarts at one.
func TestDevexPivotWeights(t *testing.T) {
	model := productionModel(lp.Minimize)
	model.ColCost = []float64{-3, -5}
	_, eng := testEngine(t, model, Options{})
	status := eng.solve()
	require.Equal(t, StatusOK, status)
	for v := 0; v < eng.numTot; v++ {
		require.GreaterOrEqual(t, eng.devexWeight[v], 1.0, "variable %d", v)
	}
}

// The basic values after a solve reproduce from the factor within the
// stated tolerance.
func TestBasicValuesFromFactor(t *testing.T) {
	model := productionModel(lp.Minimize)
	model.ColCost = []float64{-3, -5}
	inst, eng := testEngine(t, model, Options{})

	status := eng.solve()
	require.Equal(t, StatusOK, status)

	before := append([]float64(nil), inst.baseValue...)
	inst.computePrimal()
	for r := 0; r < inst.numRow; r++ {
		scale := 1 + math.Abs(before[r])
		require.InDelta(t, before[r], inst.baseValue[r], 1e-9*scale, "row %d", r)
	}
}
