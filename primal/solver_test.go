// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package primal

import (
	"math"
	"testing"

	"github.com/curioloop/simplex/lp"
)

func quietLogger() *Logger {
	return &Logger{Level: LogNone}
}

// min x₁ + x₂  s.t.  x₁ + x₂ ≥ 1,  0 ≤ xᵢ ≤ 2
func TestBounded2x2(t *testing.T) {
	model := &lp.Model{
		NumCol:   2,
		NumRow:   1,
		AStart:   []int{0, 1, 2},
		AIndex:   []int{0, 0},
		AValue:   []float64{1, 1},
		ColCost:  []float64{1, 1},
		ColLower: []float64{0, 0},
		ColUpper: []float64{2, 2},
		RowLower: []float64{1},
		RowUpper: []float64{lp.Inf},
		Sense:    lp.Minimize,
	}
	s, err := New(model, &Options{DebugLevel: DebugCostly}, quietLogger())
	if err != nil {
		panic(err)
	}
	r := s.Solve()

	degenerate := (near(r.ColValue[0], 1) && near(r.ColValue[1], 0)) ||
		(near(r.ColValue[0], 0) && near(r.ColValue[1], 1))
	switch {
	case r.Status != StatusOK:
		t.Fatalf("TestBounded2x2: status %v", r.Status)
	case r.Model != ModelOptimal:
		t.Fatalf("TestBounded2x2: model status %v", r.Model)
	case !near(r.Objective, 1):
		t.Fatalf("TestBounded2x2: objective %g", r.Objective)
	case !degenerate:
		t.Fatalf("TestBounded2x2: solution (%g, %g)", r.ColValue[0], r.ColValue[1])
	case r.Iterations > 3:
		t.Fatalf("TestBounded2x2: %d iterations", r.Iterations)
	}
}

// min −x  s.t.  x ≥ 0 (as a row),  x unbounded above
func TestUnbounded(t *testing.T) {
	model := &lp.Model{
		NumCol:   1,
		NumRow:   1,
		AStart:   []int{0, 1},
		AIndex:   []int{0},
		AValue:   []float64{1},
		ColCost:  []float64{-1},
		ColLower: []float64{0},
		ColUpper: []float64{lp.Inf},
		RowLower: []float64{0},
		RowUpper: []float64{lp.Inf},
		Sense:    lp.Minimize,
	}
	s, err := New(model, nil, quietLogger())
	if err != nil {
		panic(err)
	}
	r := s.Solve()
	switch {
	case r.Status != StatusOK:
		t.Fatalf("TestUnbounded: status %v", r.Status)
	case r.Model != ModelPrimalUnbounded:
		t.Fatalf("TestUnbounded: model status %v", r.Model)
	}
}

// min 0  s.t.  x + y = 1,  x + y = 2,  x, y ≥ 0
func TestInfeasible(t *testing.T) {
	model := &lp.Model{
		NumCol:   2,
		NumRow:   2,
		AStart:   []int{0, 2, 4},
		AIndex:   []int{0, 1, 0, 1},
		AValue:   []float64{1, 1, 1, 1},
		ColCost:  []float64{0, 0},
		ColLower: []float64{0, 0},
		ColUpper: []float64{lp.Inf, lp.Inf},
		RowLower: []float64{1, 2},
		RowUpper: []float64{1, 2},
		Sense:    lp.Minimize,
	}
	s, err := New(model, nil, quietLogger())
	if err != nil {
		panic(err)
	}
	r := s.Solve()
	switch {
	case r.Status != StatusOK:
		t.Fatalf("TestInfeasible: status %v", r.Status)
	case r.Model != ModelPrimalInfeasible:
		t.Fatalf("TestInfeasible: model status %v", r.Model)
	case r.Phase2Iterations != 0:
		t.Fatalf("TestInfeasible: %d phase-2 iterations", r.Phase2Iterations)
	}
}

// min −x  s.t.  x ≤ 10,  0 ≤ x ≤ 1: the entering step of 10 exceeds the
// box of width 1, so the iteration resolves as a bound flip.
func TestBoundFlip(t *testing.T) {
	model := &lp.Model{
		NumCol:   1,
		NumRow:   1,
		AStart:   []int{0, 1},
		AIndex:   []int{0},
		AValue:   []float64{1},
		ColCost:  []float64{-1},
		ColLower: []float64{0},
		ColUpper: []float64{1},
		RowLower: []float64{-lp.Inf},
		RowUpper: []float64{10},
		Sense:    lp.Minimize,
	}
	s, err := New(model, nil, quietLogger())
	if err != nil {
		panic(err)
	}
	r := s.Solve()
	switch {
	case r.Status != StatusOK:
		t.Fatalf("TestBoundFlip: status %v", r.Status)
	case r.Model != ModelOptimal:
		t.Fatalf("TestBoundFlip: model status %v", r.Model)
	case r.BoundSwaps != 1:
		t.Fatalf("TestBoundFlip: %d bound swaps", r.BoundSwaps)
	case !near(r.ColValue[0], 1):
		t.Fatalf("TestBoundFlip: x = %g", r.ColValue[0])
	case !near(r.Objective, -1):
		t.Fatalf("TestBoundFlip: objective %g", r.Objective)
	}
}

// max 3x + 5y  s.t.  x ≤ 4,  2y ≤ 12,  3x + 2y ≤ 18,  x, y ≥ 0
func TestMaximize(t *testing.T) {
	model := productionModel(lp.Maximize)
	s, err := New(model, &Options{DebugLevel: DebugCostly}, quietLogger())
	if err != nil {
		panic(err)
	}
	r := s.Solve()
	switch {
	case r.Status != StatusOK:
		t.Fatalf("TestMaximize: status %v", r.Status)
	case r.Model != ModelOptimal:
		t.Fatalf("TestMaximize: model status %v", r.Model)
	case !near(r.Objective, 36):
		t.Fatalf("TestMaximize: objective %g", r.Objective)
	case !near(r.ColValue[0], 2) || !near(r.ColValue[1], 6):
		t.Fatalf("TestMaximize: solution (%g, %g)", r.ColValue[0], r.ColValue[1])
	case !near(r.RowValue[2], 18):
		t.Fatalf("TestMaximize: third row activity %g", r.RowValue[2])
	}
}

// The same model with negated costs solved as a minimization, checking
// the hyper-sparse CHUZC against the full scan throughout.
func TestMinimizeWithHyperCheck(t *testing.T) {
	model := productionModel(lp.Minimize)
	model.ColCost = []float64{-3, -5}
	s, err := New(model, &Options{DebugLevel: DebugCostly}, quietLogger())
	if err != nil {
		panic(err)
	}
	r := s.Solve()
	switch {
	case r.Status != StatusOK:
		t.Fatalf("TestMinimizeWithHyperCheck: status %v", r.Status)
	case r.Model != ModelOptimal:
		t.Fatalf("TestMinimizeWithHyperCheck: model status %v", r.Model)
	case !near(r.Objective, -36):
		t.Fatalf("TestMinimizeWithHyperCheck: objective %g", r.Objective)
	}
}

func TestIterationLimitBailout(t *testing.T) {
	model := productionModel(lp.Maximize)
	s, err := New(model, &Options{IterationLimit: 1}, quietLogger())
	if err != nil {
		panic(err)
	}
	r := s.Solve()
	if r.Status != StatusWarning {
		t.Fatalf("TestIterationLimitBailout: status %v", r.Status)
	}
}

func TestInterruptBailout(t *testing.T) {
	model := productionModel(lp.Maximize)
	s, err := New(model, &Options{Interrupt: func() bool { return true }}, quietLogger())
	if err != nil {
		panic(err)
	}
	r := s.Solve()
	if r.Status != StatusWarning {
		t.Fatalf("TestInterruptBailout: status %v", r.Status)
	}
}

// A phase-1 start: an equality row that the logical basis violates, with
// a feasible optimum reached in phase 2.
func TestTwoPhase(t *testing.T) {
	// min x + 2y  s.t.  x + y = 4,  x − y = 0,  x, y ≥ 0
	model := &lp.Model{
		NumCol:   2,
		NumRow:   2,
		AStart:   []int{0, 2, 4},
		AIndex:   []int{0, 1, 0, 1},
		AValue:   []float64{1, 1, 1, -1},
		ColCost:  []float64{1, 2},
		ColLower: []float64{0, 0},
		ColUpper: []float64{lp.Inf, lp.Inf},
		RowLower: []float64{4, 0},
		RowUpper: []float64{4, 0},
		Sense:    lp.Minimize,
	}
	s, err := New(model, &Options{DebugLevel: DebugCostly}, quietLogger())
	if err != nil {
		panic(err)
	}
	r := s.Solve()
	switch {
	case r.Status != StatusOK:
		t.Fatalf("TestTwoPhase: status %v", r.Status)
	case r.Model != ModelOptimal:
		t.Fatalf("TestTwoPhase: model status %v", r.Model)
	case !near(r.ColValue[0], 2) || !near(r.ColValue[1], 2):
		t.Fatalf("TestTwoPhase: solution (%g, %g)", r.ColValue[0], r.ColValue[1])
	case !near(r.Objective, 6):
		t.Fatalf("TestTwoPhase: objective %g", r.Objective)
	case r.Phase1Iterations == 0:
		t.Fatalf("TestTwoPhase: no phase-1 iterations")
	}
}

func TestRejectsBadModel(t *testing.T) {
	model := productionModel(lp.Maximize)
	model.ColLower[0] = 5
	model.ColUpper[0] = 4
	if _, err := New(model, nil, quietLogger()); err == nil {
		t.Fatalf("TestRejectsBadModel: crossing bounds accepted")
	}
}

func productionModel(sense lp.ObjSense) *lp.Model {
	return &lp.Model{
		NumCol:   2,
		NumRow:   3,
		AStart:   []int{0, 2, 4},
		AIndex:   []int{0, 2, 1, 2},
		AValue:   []float64{1, 3, 2, 2},
		ColCost:  []float64{3, 5},
		ColLower: []float64{0, 0},
		ColUpper: []float64{lp.Inf, lp.Inf},
		RowLower: []float64{-lp.Inf, -lp.Inf, -lp.Inf},
		RowUpper: []float64{4, 12, 18},
		Sense:    sense,
	}
}

func near(got, want float64) bool {
	return math.Abs(got-want) <= 1e-6*(1+math.Abs(want))
}
