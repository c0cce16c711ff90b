// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fsroot

import (
	"errors"
	"fmt"
	"math"

	"github.com/curioloop/rootfind/numeric"
)

// State tells which criterion stopped the last Perform.
type State int

const (
	// Running no Perform has completed yet.
	Running State = iota
	// StopFunction every |𝑭ᵢ| is within its tolerance.
	StopFunction
	// StopStep the Newton step became smaller than the relative x tolerance.
	StopStep
	// StopMaxIter the iteration limit was reached.
	StopMaxIter
	// StopSingular the Jacobian could not be inverted.
	StopSingular
	// StopDivergent the residual kept growing while StopOnDivergent is set.
	StopDivergent
	// StopEval a function evaluation failed.
	StopEval
	// StopInvalid the start point or the bounds do not match the function set.
	StopInvalid
	// StopBound the box clamped the Newton step to nothing while the residual is above tolerance.
	StopBound
)

func (s State) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case StopFunction:
		return "CONVERGENCE: |F_i| <= TOL_i"
	case StopStep:
		return "CONVERGENCE: |DX_i| <= XTOL * MAX(1,|X_i|)"
	case StopMaxIter:
		return "STOP: TOTAL NO. of ITERATIONS REACHED LIMIT"
	case StopSingular:
		return "ABNORMAL: SINGULAR JACOBIAN"
	case StopDivergent:
		return "ABNORMAL: RESIDUAL DIVERGES"
	case StopEval:
		return "ABNORMAL: EVALUATION FAILED"
	case StopInvalid:
		return "ABNORMAL: INVALID INPUT"
	case StopBound:
		return "STOP: NEWTON STEP BLOCKED BY BOUNDS"
	}
	return "UNKNOWN STATE"
}

const (
	// DefaultTolerance is the per equation tolerance used when none is given.
	DefaultTolerance = 1e-10
	// DefaultXTolerance is the relative step tolerance used when none is given.
	DefaultXTolerance = 1e-12
	// DefaultMaxIterations is the iteration limit used when none is given.
	DefaultMaxIterations = 100
	// DefaultDivergenceFactor is the growth of ‖𝑭‖ over the best residual regarded as divergence.
	DefaultDivergenceFactor = 1e3

	// Number of consecutive residual increases regarded as divergence.
	maxIncreases = 5
)

// Problem specifies a nonlinear system 𝑭(𝐱) = 0 solved by Newton's method.
type Problem struct {
	// The function set of n variables and m ≥ n equations.
	Func numeric.FunctionSet
	// Per equation absolute tolerances (length m), or a single value applied to every equation.
	// DefaultTolerance when empty.
	Tolerance numeric.Vector
	// The iteration stops when every step component satisfies |Δxᵢ| ≤ 𝚇𝚃𝚘𝚕 × 𝚖𝚊𝚡(1, |xᵢ|).
	XTolerance float64 `yaml:"x_tolerance"`
	// The iteration stops when the number of iteration exceeds limit.
	MaxIterations int `yaml:"max_iterations"`
	// Stop with Divergent when the residual norm grows beyond DivergenceFactor × best
	// or increases maxIncreases times in a row. The best iterate is restored.
	StopOnDivergent  bool    `yaml:"stop_on_divergent"`
	DivergenceFactor float64 `yaml:"divergence_factor"`
}

// New validates the problem and allocates a solver.
func (p *Problem) New(logger *numeric.Logger) (solver *Solver, err error) {
	fs := p.Func
	if fs == nil {
		return nil, fmt.Errorf("function set is required: %w", numeric.ErrInvalidInput)
	}
	n, m := fs.NbVariables(), fs.NbEquations()

	xtol, maxIter, factor := p.XTolerance, p.MaxIterations, p.DivergenceFactor
	if xtol == 0 {
		xtol = DefaultXTolerance
	}
	if maxIter == 0 {
		maxIter = DefaultMaxIterations
	}
	if factor == 0 {
		factor = DefaultDivergenceFactor
	}

	switch {
	case n <= 0:
		err = errors.New("number of variables must greater than 0")
	case m < n:
		err = fmt.Errorf("%d equations cannot determine %d variables", m, n)
	case p.Tolerance.Len() != 0 && p.Tolerance.Len() != 1 && p.Tolerance.Len() != m:
		err = fmt.Errorf("tolerance size %d must be 1 or %d", p.Tolerance.Len(), m)
	case xtol < 0 || math.IsNaN(xtol):
		err = errors.New("x tolerance must not less than 0")
	case maxIter < 0:
		err = errors.New("max iteration must greater than 0")
	case factor <= 1 || math.IsNaN(factor):
		err = errors.New("divergence factor must greater than 1")
	}

	tol := make([]float64, m)
	for i := range tol {
		switch p.Tolerance.Len() {
		case 0:
			tol[i] = DefaultTolerance
		case 1:
			tol[i] = p.Tolerance.Raw()[0]
		default:
			tol[i] = p.Tolerance.Raw()[i]
		}
		if err == nil && (tol[i] < 0 || math.IsNaN(tol[i])) {
			err = fmt.Errorf("tolerance of equation %d must not less than 0", i)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", numeric.ErrInvalidInput, err)
	}

	solver = &Solver{
		fs: fs, n: n, m: m,
		tol:       tol,
		xtol:      xtol,
		maxIter:   maxIter,
		stopDiv:   p.StopOnDivergent,
		divFactor: factor,
		log:       logger.Named("fsroot"),
	}
	solver.alloc()
	return
}
