// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package globopt

import (
	"errors"
	"fmt"
	"math"

	"github.com/curioloop/rootfind/numeric"
)

const (
	// DefaultNbGrid is the number of initial cells along every non degenerate axis.
	DefaultNbGrid = 9
	// DefaultTolerance is the smallest cell half diagonal relative to the box diagonal.
	DefaultTolerance = 1e-2
	// DefaultSameTolerance is the distance under which two extrema are merged.
	DefaultSameTolerance = 1e-3
	// DefaultValueTolerance is the relative gap under which two objective values tie.
	DefaultValueTolerance = 1e-6
	// DefaultMaxEvaluations bounds the number of objective evaluations of one Perform.
	DefaultMaxEvaluations = 100000
)

// Problem specifies the minimization of a scalar function over a box.
type Problem struct {
	// The objective of n variables.
	Func numeric.ScalarFunction
	// Per variable bounds, lower ≤ upper. A zero width axis pins the variable.
	Lower, Upper numeric.Vector
	// Number of initial cells along each axis, reduced when the grid would exceed
	// a fraction of MaxEvaluations.
	NbGrid int `yaml:"nb_grid"`
	// Cells whose half diagonal is below Tolerance × box diagonal are not split any further.
	Tolerance float64 `yaml:"tolerance"`
	// Local minima closer than SameTolerance are regarded as one extremum.
	SameTolerance float64 `yaml:"same_tolerance"`
	// Values within ValueTolerance × max(1, |f*|) of the best value f* are ties.
	ValueTolerance float64 `yaml:"value_tolerance"`
	// The search ends with NotConverged after MaxEvaluations objective evaluations.
	MaxEvaluations int `yaml:"max_evaluations"`
}

// New validates the problem and allocates an optimizer.
func (p *Problem) New(logger *numeric.Logger) (*Optimizer, error) {
	if p.Func == nil {
		return nil, fmt.Errorf("objective is required: %w", numeric.ErrInvalidInput)
	}
	n := p.Func.NbVariables()

	grid, tol, same, value, maxEval := p.NbGrid, p.Tolerance, p.SameTolerance, p.ValueTolerance, p.MaxEvaluations
	if grid == 0 {
		grid = DefaultNbGrid
	}
	if tol == 0 {
		tol = DefaultTolerance
	}
	if same == 0 {
		same = DefaultSameTolerance
	}
	if value == 0 {
		value = DefaultValueTolerance
	}
	if maxEval == 0 {
		maxEval = DefaultMaxEvaluations
	}

	box := numeric.Box{Lower: p.Lower.Clone(), Upper: p.Upper.Clone()}
	var err error
	switch {
	case n <= 0:
		err = errors.New("number of variables must greater than 0")
	case box.Dim() != n:
		err = fmt.Errorf("bound size %d must equal %d variables", box.Dim(), n)
	case grid < 1:
		err = errors.New("grid size must greater than 0")
	case !(tol > 0 && tol < 1):
		err = errors.New("tolerance must lie in (0,1)")
	case same < 0 || math.IsNaN(same):
		err = errors.New("same tolerance must not less than 0")
	case value < 0 || math.IsNaN(value):
		err = errors.New("value tolerance must not less than 0")
	case maxEval < 1:
		err = errors.New("max evaluations must greater than 0")
	}
	if err == nil {
		err = box.Validate()
	}
	if err == nil && (!box.Lower.IsFinite() || !box.Upper.IsFinite()) {
		err = errors.New("bounds must be finite")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", numeric.ErrInvalidInput, err)
	}

	o := &Optimizer{
		fn: p.Func, n: n,
		domain:  box,
		box:     box,
		nbGrid:  grid,
		tol:     tol,
		sameTol: same,
		valTol:  value,
		maxEval: maxEval,
		fmin:    math.Inf(-1),
		log:     logger.Named("globopt"),
	}
	o.xs = numeric.NewVector(1, n)
	return o, nil
}
