// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package levmar

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/curioloop/rootfind/linsolve"
	"github.com/curioloop/rootfind/numeric"
)

// Config specifies the damping schedule and the stopping criteria.
type Config struct {
	// The outer iteration stops with MaxIterations when the number of accepted steps exceeds limit.
	MaxIterations int `yaml:"max_iterations"`
	// The inner loop stops with NotConverged after this many rejected steps in a row.
	MaxRetries int `yaml:"max_retries"`
	// Damping λ of the first step.
	InitialLambda float64 `yaml:"initial_lambda"`
	// λ is multiplied by LambdaIncrease after a rejected step.
	LambdaIncrease float64 `yaml:"lambda_increase"`
	// λ is divided by LambdaDecrease after an accepted step.
	LambdaDecrease float64 `yaml:"lambda_decrease"`
	// Floor of λ.
	MinLambda float64 `yaml:"min_lambda"`
	// Ceiling of λ, growing beyond it ends the inner loop.
	MaxLambda float64 `yaml:"max_lambda"`
	// The iteration stops when ‖𝑭‖₂ ≤ 𝙵𝚃𝚘𝚕.
	FTolerance float64 `yaml:"f_tolerance"`
	// The iteration stops when ‖𝐉ᵀ𝑭‖∞ ≤ 𝙶𝚃𝚘𝚕.
	GTolerance float64 `yaml:"g_tolerance"`
	// The iteration stops when every accepted step satisfies |Δxᵢ| ≤ 𝚇𝚃𝚘𝚕 × 𝚖𝚊𝚡(1, |xᵢ|).
	XTolerance float64 `yaml:"x_tolerance"`
}

// DefaultConfig returns the configuration used when fields are left zero.
func DefaultConfig() Config {
	return Config{
		MaxIterations:  100,
		MaxRetries:     20,
		InitialLambda:  1e-3,
		LambdaIncrease: 10,
		LambdaDecrease: 10,
		MinLambda:      1e-12,
		MaxLambda:      1e12,
		FTolerance:     1e-10,
		GTolerance:     1e-12,
		XTolerance:     1e-12,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	set := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = d.MaxRetries
	}
	set(&c.InitialLambda, d.InitialLambda)
	set(&c.LambdaIncrease, d.LambdaIncrease)
	set(&c.LambdaDecrease, d.LambdaDecrease)
	set(&c.MinLambda, d.MinLambda)
	set(&c.MaxLambda, d.MaxLambda)
	set(&c.FTolerance, d.FTolerance)
	set(&c.GTolerance, d.GTolerance)
	set(&c.XTolerance, d.XTolerance)
	return c
}

// Validate checks the configuration after defaults are applied.
func (c Config) Validate() error {
	c = c.withDefaults()
	switch {
	case c.MaxIterations < 0:
		return errors.New("max iteration must greater than 0")
	case c.MaxRetries < 0:
		return errors.New("max retries must greater than 0")
	case c.LambdaIncrease <= 1 || c.LambdaDecrease <= 1:
		return errors.New("lambda factors must greater than 1")
	case c.MinLambda < 0 || c.InitialLambda < c.MinLambda || c.MaxLambda < c.InitialLambda:
		return errors.New("lambda range must satisfy 0 ≤ min ≤ initial ≤ max")
	case c.FTolerance < 0 || c.GTolerance < 0 || c.XTolerance < 0:
		return errors.New("tolerances must not less than 0")
	}
	return nil
}

// Problem specifies a nonlinear least squares problem 𝚖𝚒𝚗 ‖𝑭(𝐱)‖₂².
type Problem struct {
	Func numeric.FunctionSet
	Config
}

// New validates the problem and allocates a solver.
func (p *Problem) New(logger *numeric.Logger) (*Solver, error) {
	if p.Func == nil {
		return nil, fmt.Errorf("function set is required: %w", numeric.ErrInvalidInput)
	}
	n, m := p.Func.NbVariables(), p.Func.NbEquations()
	if n <= 0 || m <= 0 {
		return nil, fmt.Errorf("dimensions %d×%d must be positive: %w", m, n, numeric.ErrInvalidInput)
	}
	if err := p.Config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", numeric.ErrInvalidInput, err)
	}
	s := &Solver{
		fs: p.Func, n: n, m: m,
		cfg: p.Config.withDefaults(),
		log: logger.Named("levmar"),
	}
	s.x, s.xNew, s.dx, s.g = numeric.NewVector(1, n), numeric.NewVector(1, n), numeric.NewVector(1, n), numeric.NewVector(1, n)
	s.f, s.fNew = numeric.NewVector(1, m), numeric.NewVector(1, m)
	s.jac, s.jNew = numeric.NewMatrix(1, m, 1, n), numeric.NewMatrix(1, m, 1, n)
	s.a = numeric.NewMatrix(1, n, 1, n)
	s.rhs = numeric.NewVector(1, n)
	return s, nil
}

// Result is the outcome of a minimization. The vectors are copies owned by the caller.
type Result struct {
	Status     numeric.Status
	X          numeric.Vector // Best point found.
	F          numeric.Vector // Residual at X.
	SumSq      float64        // ‖𝑭(X)‖₂².
	Gradient   numeric.Vector // 𝐉ᵀ𝑭 at X.
	Lambda     float64        // Damping at exit.
	PeakLambda float64        // Largest damping used.
	NumIter    int            // Accepted steps.
	NumEval    int            // Residual evaluations.
}

// Solver minimizes ‖𝑭(𝐱)‖₂² by the Levenberg–Marquardt method.
//
// Each step solves the damped normal equations (𝐉ᵀ𝐉 + λ𝐈)Δ𝐱 = -𝐉ᵀ𝑭.
// A step reducing the sum of squares is accepted and λ shrinks toward Gauss-Newton,
// otherwise λ grows toward a short gradient descent step and the step is retried.
// A failed evaluation at a trial point counts as a rejected step.
//
// # Reference
//
// J.J. Moré: "The Levenberg-Marquardt algorithm: Implementation and theory",
// Numerical Analysis, Lecture Notes in Mathematics 630, Springer, 1978.
type Solver struct {
	fs   numeric.FunctionSet
	n, m int
	cfg  Config
	log  *numeric.Logger

	x, xNew, dx, g numeric.Vector
	f, fNew        numeric.Vector
	jac, jNew      numeric.Matrix
	a              numeric.Matrix
	rhs            numeric.Vector
}

// Minimize runs the iteration from start.
func (s *Solver) Minimize(start numeric.Vector) Result {
	return s.minimize(start, numeric.Box{})
}

// MinimizeBounded runs the iteration from start keeping every iterate in [lower, upper].
func (s *Solver) MinimizeBounded(start, lower, upper numeric.Vector) Result {
	box := numeric.Box{Lower: lower, Upper: upper}
	if box.Dim() != s.n || box.Validate() != nil {
		return Result{Status: numeric.InvalidInput}
	}
	return s.minimize(start, box)
}

func (s *Solver) minimize(start numeric.Vector, box numeric.Box) (res Result) {
	cfg := s.cfg
	if start.Len() != s.n || !start.IsFinite() {
		return Result{Status: numeric.InvalidInput}
	}

	s.x.CopyFrom(start)
	box.Clamp(s.x)
	lambda, peak := cfg.InitialLambda, cfg.InitialLambda
	numIter, numEval := 0, 1

	defer func() {
		res = s.result(res.Status, lambda, peak, numIter, numEval)
		if s.log.Enable(numeric.LogLast) {
			s.log.Log("minimize",
				zap.Stringer("status", res.Status),
				zap.Int("iter", res.NumIter),
				zap.Int("eval", res.NumEval),
				zap.Float64("sumsq", res.SumSq),
				zap.Float64("lambda", res.Lambda))
		}
	}()

	if st := numeric.EvalValues(s.fs, s.x, s.f, s.jac); st != numeric.OK {
		s.f.Fill(math.NaN())
		s.g.Fill(math.NaN())
		return Result{Status: st}
	}
	sumSq := dot(s.f)

	for {
		linsolve.Gradient(s.jac, s.f, s.g)
		if math.Sqrt(sumSq) <= cfg.FTolerance || s.g.NormInf() <= cfg.GTolerance {
			return Result{Status: numeric.OK}
		}
		if numIter >= cfg.MaxIterations {
			return Result{Status: numeric.MaxIterations}
		}

		accepted, singular := false, false
		var trial float64
		for retry := 0; retry < cfg.MaxRetries && !accepted; retry++ {
			linsolve.NormalEquations(s.jac, s.f, lambda, s.a, s.rhs)
			s.rhs.VecDense().ScaleVec(-1, s.rhs.VecDense())
			st := linsolve.Solve(s.a, s.rhs, s.dx)
			singular = st != numeric.OK
			if !singular {
				xn, x, dx := s.xNew.Raw(), s.x.Raw(), s.dx.Raw()
				for i := range xn {
					xn[i] = x[i] + dx[i]
				}
				box.Clamp(s.xNew)
				if s.stalled() {
					// No trial point can move x any more, at a bound or under heavy damping.
					return Result{Status: numeric.OK}
				}
				st = numeric.EvalValues(s.fs, s.xNew, s.fNew, s.jNew)
				numEval++
				if st == numeric.OK {
					trial = dot(s.fNew)
					accepted = trial < sumSq
				}
			}
			if s.log.Enable(numeric.LogTrace) {
				s.log.Log("trial",
					zap.Int("retry", retry),
					zap.Float64("lambda", lambda),
					zap.Float64("sumsq", trial),
					zap.Bool("accepted", accepted),
					zap.Bool("singular", singular))
			}
			if accepted {
				break
			}
			if lambda*cfg.LambdaIncrease > cfg.MaxLambda {
				if singular {
					return Result{Status: numeric.Singular}
				}
				return Result{Status: numeric.NotConverged}
			}
			lambda *= cfg.LambdaIncrease
			peak = math.Max(peak, lambda)
		}
		if !accepted {
			if singular {
				return Result{Status: numeric.Singular}
			}
			return Result{Status: numeric.NotConverged}
		}

		small := s.stalled()
		s.x, s.xNew = s.xNew, s.x
		s.f, s.fNew = s.fNew, s.f
		s.jac, s.jNew = s.jNew, s.jac
		sumSq = trial
		numIter++
		lambda = math.Max(lambda/cfg.LambdaDecrease, cfg.MinLambda)

		if s.log.Enable(numeric.LogEval) {
			s.log.Log("iteration",
				zap.Int("iter", numIter),
				zap.Float64("sumsq", sumSq),
				zap.Float64("lambda", lambda))
		}
		if small {
			linsolve.Gradient(s.jac, s.f, s.g)
			return Result{Status: numeric.OK}
		}
	}
}

func (s *Solver) result(st numeric.Status, lambda, peak float64, numIter, numEval int) Result {
	if st == numeric.InvalidInput {
		return Result{Status: st}
	}
	return Result{
		Status:     st,
		X:          s.x.Clone(),
		F:          s.f.Clone(),
		SumSq:      dot(s.f),
		Gradient:   s.g.Clone(),
		Lambda:     lambda,
		PeakLambda: peak,
		NumIter:    numIter,
		NumEval:    numEval,
	}
}

// stalled reports whether the trial point is within the step tolerance of x.
func (s *Solver) stalled() bool {
	xn := s.xNew.Raw()
	for i, xi := range s.x.Raw() {
		if math.Abs(xn[i]-xi) > s.cfg.XTolerance*math.Max(1, math.Abs(xi)) {
			return false
		}
	}
	return true
}

func dot(v numeric.Vector) float64 {
	n := v.Norm()
	return n * n
}
