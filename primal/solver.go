// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package primal implements the primal revised simplex method with
// two-phase iteration, hyper-sparse pricing, Devex reference weights,
// bound-flipping ratio tests and bound-perturbation recovery.
package primal

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/curioloop/simplex/lp"
)

// LogLevel controls the frequency and type of logger output.
type LogLevel int

const (
	// LogNone no output is generated.
	LogNone LogLevel = iota
	// LogMinimal print terminal and unusual events only.
	LogMinimal
	// LogDetailed print also phase transitions and rebuild reports.
	LogDetailed
	// LogVerbose print also per-iteration lines.
	LogVerbose
)

// Logger handles logging output for the solver.
// Note the writer must be thread-safe.
type Logger struct {
	Level LogLevel
	Msg   io.Writer
}

func (l *Logger) enable(level LogLevel) bool {
	return l.Level >= level
}

func (l *Logger) log(format string, a ...any) {
	if len(a) > 0 {
		_, _ = fmt.Fprintf(l.Msg, format, a...)
	} else {
		_, _ = fmt.Fprint(l.Msg, format)
	}
}

// Options are the solver controls. The zero value of any field selects
// its default.
type Options struct {
	// PrimalFeasibilityTolerance bounds the accepted primal residual.
	PrimalFeasibilityTolerance float64
	// DualFeasibilityTolerance bounds the accepted dual residual.
	DualFeasibilityTolerance float64
	// NoBoundPerturbation forbids shifting a bound when the entering
	// value would violate it.
	NoBoundPerturbation bool
	// UsePrimalCorrection shifts bounds at rebuild to absorb accumulated
	// primal error. Off by default.
	UsePrimalCorrection bool
	// UpdateLimit caps the eta updates between refactorizations.
	UpdateLimit int
	// IterationLimit caps the total simplex iterations.
	IterationLimit int
	// TimeLimit caps the wall-clock time of a solve. Zero means none.
	TimeLimit time.Duration
	// Interrupt, when non-nil, is polled at solve entry and after every
	// rebuild and every iteration; a true return requests a cooperative
	// bailout.
	Interrupt func() bool
	// PriceStrategy selects the PRICE kernel.
	PriceStrategy PriceStrategy
	// DebugLevel controls the internal cross-checks.
	DebugLevel DebugLevel
}

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.PrimalFeasibilityTolerance <= 0 {
		opts.PrimalFeasibilityTolerance = 1e-7
	}
	if opts.DualFeasibilityTolerance <= 0 {
		opts.DualFeasibilityTolerance = 1e-7
	}
	if opts.UpdateLimit <= 0 {
		opts.UpdateLimit = 5000
	}
	if opts.IterationLimit <= 0 {
		opts.IterationLimit = math.MaxInt
	}
	return opts
}

// Result is the outcome of a solve.
type Result struct {
	Status Status
	Model  ModelStatus

	// Objective is the objective value at termination, sense- and
	// offset-corrected.
	Objective float64

	// ColValue and RowValue are the primal values of the structural
	// columns and the row activities.
	ColValue []float64
	RowValue []float64
	// ColDual and RowDual are the reduced costs and row duals.
	ColDual []float64
	RowDual []float64

	// Iterations counts all simplex iterations, split by phase.
	Iterations       int
	Phase1Iterations int
	Phase2Iterations int
	// BoundSwaps counts iterations resolved by a bound flip.
	BoundSwaps int
}

// Solver runs the primal simplex method on one model. A solver owns all
// of its state exclusively: separate instances may solve in parallel, a
// single instance must not.
type Solver struct {
	inst *instance
}

// New validates the model and prepares a solver.
func New(model *lp.Model, opts *Options, logger *Logger) (*Solver, error) {
	if opts == nil {
		opts = &Options{}
	}
	if logger == nil {
		logger = &Logger{Level: LogNone}
	}
	if logger.Msg == nil {
		logger.Msg = os.Stdout
	}
	if err := model.Validate(); err != nil {
		return nil, errors.Wrap(err, "primal: model rejected")
	}
	inst := newInstance(model, opts.withDefaults(), logger)
	return &Solver{inst: inst}, nil
}

// Solve runs the two-phase primal simplex loop to termination.
func (s *Solver) Solve() *Result {
	inst := s.inst
	inst.setup()
	eng := newEngine(inst)
	status := eng.solve()
	return inst.extractResult(status)
}
