// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/rootfind/fsroot"
	"github.com/curioloop/rootfind/globopt"
	"github.com/curioloop/rootfind/internal/config"
	"github.com/curioloop/rootfind/levmar"
	"github.com/curioloop/rootfind/multiroot"
	"github.com/curioloop/rootfind/numdiff"
	"github.com/curioloop/rootfind/numeric"
	"github.com/curioloop/rootfind/poly"
)

// Result is the YAML record written for every job.
type Result struct {
	Name         string         `yaml:"name"`
	Kind         string         `yaml:"kind"`
	Status       numeric.Status `yaml:"status"`
	Error        string         `yaml:"error,omitempty"`
	Roots        []float64      `yaml:"roots,omitempty"`
	ComplexRoots []string       `yaml:"complex_roots,omitempty"`
	AllNull      bool           `yaml:"all_null,omitempty"`
	Solution     []float64      `yaml:"solution,omitempty"`
	Residual     float64        `yaml:"residual,omitempty"`
	Minima       []Minimum      `yaml:"minima,omitempty"`
	Iterations   int            `yaml:"iterations,omitempty"`
	Evaluations  int            `yaml:"evaluations,omitempty"`
}

// Minimum is one extremum of a minimize job.
type Minimum struct {
	Point []float64 `yaml:"point,flow"`
	F     float64   `yaml:"f"`
}

// runJob executes one job with a solver instance of its own.
func runJob(job config.Job, log *numeric.Logger) Result {
	res := Result{Name: job.Name, Kind: job.Kind}
	var err error
	switch job.Kind {
	case config.KindPolynomial:
		runPolynomial(job, &res)
	case config.KindRoots:
		runRoots(job, &res)
	case config.KindLinear:
		err = runLinear(job, log, &res)
	case config.KindMinimize:
		err = runMinimize(job, log, &res)
	default:
		err = fmt.Errorf("unknown kind %q: %w", job.Kind, numeric.ErrInvalidInput)
	}
	if err != nil {
		res.Status = numeric.InvalidInput
		res.Error = err.Error()
	} else if err = res.Status.Err(); err != nil {
		res.Error = err.Error()
	}
	return res
}

func runPolynomial(job config.Job, res *Result) {
	r := poly.Laguerre(job.Coefficients, len(job.Coefficients)-1, job.Tolerance)
	res.Status = r.Status
	res.Roots = r.Roots()
	for _, z := range r.ComplexRoots() {
		res.ComplexRoots = append(res.ComplexRoots, strconv.FormatComplex(z, 'g', -1, 128))
	}
}

func runRoots(job config.Job, res *Result) {
	c := job.Coefficients
	lo, up := job.Lower[0], job.Upper[0]
	var r multiroot.Result
	if job.Derivative {
		f := numeric.FuncWithDerivative{
			F:  func(x float64) float64 { return poly.Eval(c, x) },
			DF: func(x float64) float64 { _, dp := poly.EvalDeriv(c, x); return dp },
		}
		r = multiroot.FindAllRootsWithDerivative(f, lo, up, job.Roots)
	} else {
		f := numeric.Func(func(x float64) float64 { return poly.Eval(c, x) })
		r = multiroot.FindAllRoots(f, lo, up, job.Roots)
	}
	res.Status = r.Status
	res.Roots = r.Roots
	res.AllNull = r.AllNull
	res.Evaluations = r.NumEval
}

// affine is the residual 𝐀𝐱 - 𝐛 of a linear system.
type affine struct {
	a *mat.Dense
	b []float64
}

func newAffine(rows [][]float64, b []float64) *affine {
	m, n := len(rows), len(rows[0])
	a := mat.NewDense(m, n, nil)
	for i, row := range rows {
		a.SetRow(i, row)
	}
	return &affine{a: a, b: b}
}

func (s *affine) NbVariables() int { _, n := s.a.Dims(); return n }
func (s *affine) NbEquations() int { m, _ := s.a.Dims(); return m }

func (s *affine) Value(x, f numeric.Vector) bool {
	fv := f.VecDense()
	fv.MulVec(s.a, x.VecDense())
	floats.Sub(f.Raw(), s.b)
	return true
}

func (s *affine) Derivatives(_ numeric.Vector, d numeric.Matrix) bool {
	d.Dense().Copy(s.a)
	return true
}

func runLinear(job config.Job, log *numeric.Logger, res *Result) error {
	start := numeric.NewVectorFrom(1, job.Start...)
	var lower, upper numeric.Vector
	bounded := len(job.Lower) > 0
	if bounded {
		lower, upper = numeric.NewVectorFrom(1, job.Lower...), numeric.NewVectorFrom(1, job.Upper...)
	}

	sys := newAffine(job.Matrix, job.RHS)
	var fs numeric.FunctionSet = sys
	if job.FiniteDifference != nil {
		spec := *job.FiniteDifference
		if bounded {
			spec.Bounds = numeric.Box{Lower: lower, Upper: upper}
		}
		approx, err := numdiff.NewFunctionSet(sys, spec)
		if err != nil {
			return fmt.Errorf("%w: %w", numeric.ErrInvalidInput, err)
		}
		fs = approx
	}

	switch job.Solver {
	case config.SolverLevMar:
		p := levmar.Problem{Func: fs, Config: job.LevMar}
		s, err := p.New(log)
		if err != nil {
			return err
		}
		var r levmar.Result
		if bounded {
			r = s.MinimizeBounded(start, lower, upper)
		} else {
			r = s.Minimize(start)
		}
		res.Status = r.Status
		res.Solution = r.X.Raw()
		res.Residual = math.Sqrt(r.SumSq)
		res.Iterations = r.NumIter
		res.Evaluations = r.NumEval
	default:
		p := fsroot.Problem{Func: fs, MaxIterations: job.MaxIterations}
		if job.Tolerance > 0 {
			p.Tolerance = numeric.Vec(job.Tolerance)
		}
		s, err := p.New(log)
		if err != nil {
			return err
		}
		if bounded {
			res.Status = s.PerformBounded(start, lower, upper)
		} else {
			res.Status = s.Perform(start)
		}
		res.Solution = s.Root().Clone().Raw()
		res.Residual = s.FunctionSetErrors().Norm()
		res.Iterations = s.NbIterations()
	}
	return nil
}

// objective returns a built-in test function of n variables.
func objective(name string, n int) numeric.ScalarFunction {
	var f func(x []float64) float64
	switch name {
	case "sphere":
		f = func(x []float64) float64 { return floats.Dot(x, x) }
	case "rastrigin":
		f = func(x []float64) float64 {
			s := 10 * float64(len(x))
			for _, v := range x {
				s += v*v - 10*math.Cos(2*math.Pi*v)
			}
			return s
		}
	case "himmelblau":
		f = func(x []float64) float64 {
			var y float64
			if len(x) > 1 {
				y = x[1]
			}
			a, b := x[0]*x[0]+y-11, x[0]+y*y-7
			return a*a + b*b
		}
	case "linear":
		f = floats.Sum
	default:
		return nil
	}
	return numeric.ScalarFunc{N: n, F: f}
}

func runMinimize(job config.Job, log *numeric.Logger, res *Result) error {
	g := job.Global
	p := globopt.Problem{
		Func:           objective(job.Objective, len(job.Lower)),
		Lower:          numeric.NewVectorFrom(1, job.Lower...),
		Upper:          numeric.NewVectorFrom(1, job.Upper...),
		NbGrid:         g.NbGrid,
		Tolerance:      g.Tolerance,
		SameTolerance:  g.SameTolerance,
		ValueTolerance: g.ValueTolerance,
		MaxEvaluations: g.MaxEvaluations,
	}
	o, err := p.New(log)
	if err != nil {
		return err
	}
	if err = o.SetContinuity(g.Continuity); err != nil {
		return err
	}
	if g.MinimalValue != nil {
		o.SetFunctionalMinimalValue(*g.MinimalValue)
	}
	res.Status = o.Perform(!job.FindAll)
	for _, e := range o.Extrema() {
		res.Minima = append(res.Minima, Minimum{Point: e.Point.Raw(), F: e.F})
	}
	res.Evaluations = o.NbEvaluations()
	return nil
}
