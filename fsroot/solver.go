// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fsroot

import (
	"math"

	"go.uber.org/zap"

	"github.com/curioloop/rootfind/linsolve"
	"github.com/curioloop/rootfind/numeric"
)

// Solver finds a root of a nonlinear system by Newton's method.
//
// Every iteration solves 𝐉Δ𝐱 = -𝑭 by Gaussian elimination, or the normal equations
// 𝐉ᵀ𝐉Δ𝐱 = -𝐉ᵀ𝑭 when there are more equations than variables, and takes the full step
// projected onto the optional box. No line search is performed.
//
// The storage is owned by the solver and reused by every Perform.
// A Solver must not be shared between goroutines.
type Solver struct {
	fs        numeric.FunctionSet
	n, m      int
	tol       []float64
	xtol      float64
	maxIter   int
	stopDiv   bool
	divFactor float64
	log       *numeric.Logger

	box numeric.Box

	x, f, dx   numeric.Vector
	jac        numeric.Matrix
	xNew, fNew numeric.Vector
	jNew       numeric.Matrix
	xBest      numeric.Vector
	fBest      numeric.Vector
	jBest      numeric.Matrix

	iter   int
	state  State
	status numeric.Status
}

func (s *Solver) alloc() {
	n, m := s.n, s.m
	s.x, s.xNew, s.xBest, s.dx = numeric.NewVector(1, n), numeric.NewVector(1, n), numeric.NewVector(1, n), numeric.NewVector(1, n)
	s.f, s.fNew, s.fBest = numeric.NewVector(1, m), numeric.NewVector(1, m), numeric.NewVector(1, m)
	s.jac, s.jNew, s.jBest = numeric.NewMatrix(1, m, 1, n), numeric.NewMatrix(1, m, 1, n), numeric.NewMatrix(1, m, 1, n)
}

// Perform runs the iteration from start. Previous results are discarded.
func (s *Solver) Perform(start numeric.Vector) numeric.Status {
	s.box = numeric.Box{}
	return s.perform(start)
}

// PerformBounded runs the iteration from start keeping every iterate in [lower, upper].
// The start point is projected onto the box first.
func (s *Solver) PerformBounded(start, lower, upper numeric.Vector) numeric.Status {
	s.box = numeric.Box{Lower: lower, Upper: upper}
	if s.box.Dim() != s.n || s.box.Validate() != nil {
		s.reset()
		return s.finish(StopInvalid, numeric.InvalidInput)
	}
	return s.perform(start)
}

func (s *Solver) reset() {
	s.iter = 0
	s.state = Running
	s.status = numeric.NotConverged
	s.x.Fill(0)
	s.f.Fill(0)
	s.jac.Zero()
}

func (s *Solver) perform(start numeric.Vector) numeric.Status {
	s.reset()
	if start.Len() != s.n || !start.IsFinite() {
		return s.finish(StopInvalid, numeric.InvalidInput)
	}

	s.x.CopyFrom(start)
	s.box.Clamp(s.x)
	if st := numeric.EvalValues(s.fs, s.x, s.f, s.jac); st != numeric.OK {
		return s.finish(StopEval, st)
	}

	best, prev := s.f.Norm(), s.f.Norm()
	s.keepBest()
	increases := 0

	for {
		if s.converged() {
			return s.finish(StopFunction, numeric.OK)
		}
		if s.iter >= s.maxIter {
			return s.finish(StopMaxIter, numeric.NotConverged)
		}
		s.iter++

		if st := linsolve.LeastSquares(s.jac, s.f, s.dx); st != numeric.OK {
			return s.finish(StopSingular, numeric.Singular)
		}

		xn, x, dx := s.xNew.Raw(), s.x.Raw(), s.dx.Raw()
		for i := range xn {
			xn[i] = x[i] + dx[i]
		}
		s.box.Clamp(s.xNew)

		if st := numeric.EvalValues(s.fs, s.xNew, s.fNew, s.jNew); st != numeric.OK {
			// x, f and jac still hold the last complete iterate.
			return s.finish(StopEval, st)
		}

		// small: the accepted move is below tolerance, blocked: only because of the box.
		small, blocked := true, false
		for i := range xn {
			lim := s.xtol * math.Max(1, math.Abs(x[i]))
			if math.Abs(xn[i]-x[i]) > lim {
				small = false
				break
			}
			blocked = blocked || math.Abs(dx[i]) > lim
		}

		s.x, s.xNew = s.xNew, s.x
		s.f, s.fNew = s.fNew, s.f
		s.jac, s.jNew = s.jNew, s.jac

		norm := s.f.Norm()
		if s.log.Enable(numeric.LogEval) {
			s.log.Log("iteration",
				zap.Int("iter", s.iter),
				zap.Float64("residual", norm),
				zap.Float64("step", s.dx.Norm()))
		}
		if s.log.Enable(numeric.LogTrace) {
			s.log.Log("iterate", zap.Stringer("x", s.x), zap.Stringer("f", s.f))
		}

		if small && !s.converged() {
			if blocked {
				return s.finish(StopBound, numeric.NotConverged)
			}
			return s.finish(StopStep, numeric.OK)
		}

		if norm < best {
			best = norm
			s.keepBest()
		}
		if norm > prev {
			increases++
		} else {
			increases = 0
		}
		prev = norm
		if s.stopDiv && (norm > s.divFactor*best || increases >= maxIncreases) {
			s.x.CopyFrom(s.xBest)
			s.f.CopyFrom(s.fBest)
			s.jac.CopyFrom(s.jBest)
			return s.finish(StopDivergent, numeric.Divergent)
		}
	}
}

func (s *Solver) keepBest() {
	s.xBest.CopyFrom(s.x)
	s.fBest.CopyFrom(s.f)
	s.jBest.CopyFrom(s.jac)
}

func (s *Solver) converged() bool {
	for i, v := range s.f.Raw() {
		if math.Abs(v) > s.tol[i] {
			return false
		}
	}
	return true
}

func (s *Solver) finish(state State, status numeric.Status) numeric.Status {
	s.state, s.status = state, status
	if s.log.Enable(numeric.LogLast) {
		s.log.Log(state.String(),
			zap.Stringer("status", status),
			zap.Int("iter", s.iter),
			zap.Float64("residual", s.f.Norm()))
	}
	return status
}

// IsDone reports whether the last Perform converged.
func (s *Solver) IsDone() bool { return s.status == numeric.OK }

// IsDivergent reports whether the last Perform stopped on divergence.
func (s *Solver) IsDivergent() bool { return s.state == StopDivergent }

// Status returns the outcome of the last Perform.
func (s *Solver) Status() numeric.Status { return s.status }

// StateNumber returns the criterion that stopped the last Perform.
func (s *Solver) StateNumber() State { return s.state }

// NbIterations returns the number of Newton steps taken.
func (s *Solver) NbIterations() int { return s.iter }

// Root returns the last complete iterate, indexed from 1.
// The vector is owned by the solver and overwritten by the next Perform.
func (s *Solver) Root() numeric.Vector { return s.x }

// FunctionSetErrors returns 𝑭 at Root.
func (s *Solver) FunctionSetErrors() numeric.Vector { return s.f }

// Derivative returns the Jacobian at Root.
func (s *Solver) Derivative() numeric.Matrix { return s.jac }
