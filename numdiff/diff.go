// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numdiff

import (
	"errors"
	"fmt"
	"math"

	"github.com/curioloop/rootfind/numeric"
)

var sqrtEps = math.Sqrt(math.Nextafter(1, 2) - 1)
var cubeEps = math.Pow(math.Nextafter(1, 2)-1, float64(1)/3)

type Method int

const (
	// Forward use the first order accuracy forward difference.
	Forward Method = iota
	// Central use central difference in interior points and the second order accuracy
	// forward or backward difference near the boundary.
	Central
)

func (m Method) String() string {
	switch m {
	case Forward:
		return "forward"
	case Central:
		return "central"
	}
	return "unknown"
}

func (m Method) MarshalText() ([]byte, error) {
	if m != Forward && m != Central {
		return nil, fmt.Errorf("numdiff: unknown method %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText accepts "forward" or "central".
func (m *Method) UnmarshalText(text []byte) error {
	switch string(text) {
	case "forward", "":
		*m = Forward
	case "central":
		*m = Central
	default:
		return fmt.Errorf("numdiff: unknown method %q", text)
	}
	return nil
}

// Spec configures a finite difference approximation.
//
// # Reference:
//
//   - https://en.wikipedia.org/wiki/Finite_difference
//   - https://github.com/scipy/scipy/blob/main/scipy/optimize/_numdiff.py
//
// # License
//
//   - https://github.com/scipy/scipy/blob/main/LICENSE.txt
type Spec struct {
	// Finite difference method to use.
	Method Method `yaml:"method"`
	// Optional bounds on independent variables, steps are adjusted to stay inside.
	Bounds numeric.Box `yaml:"-"`
	// Relative step size used to compute absolute step size.
	// The default absolute step size is h = RelStep × sign(x0) × max(1, |x0|) with RelStep being selected automatically.
	// Otherwise, absolute step size is computed as h = RelStep × sign(x0) × |x0| when RelStep is provided.
	RelStep float64 `yaml:"rel_step"`
	// Absolute step size to use, possibly adjusted to fit into the bounds.
	// For Central method the sign of AbsStep is ignored.
	AbsStep float64 `yaml:"abs_step"`
}

// Approx estimates derivatives of functions of N variables and M outputs.
// The scratch storage is reused, an Approx must not be shared between goroutines.
type Approx struct {
	N, M int
	Spec

	bounded bool
	x       numeric.Vector
	f0      numeric.Vector
	f1, f2  numeric.Vector
	absStep []float64
	oneSide []bool
	grad    numeric.Matrix
}

// NewApprox validates spec and allocates the scratch storage.
func NewApprox(n, m int, spec Spec) (*Approx, error) {
	var err error
	switch {
	case n <= 0 || m <= 0:
		err = errors.New("negative dimensions")
	case spec.Method != Forward && spec.Method != Central:
		err = errors.New("unknown method")
	case !spec.Bounds.IsZero() && spec.Bounds.Dim() != n:
		err = errors.New("invalid bound dimension")
	}
	if err == nil && !spec.Bounds.IsZero() {
		err = spec.Bounds.Validate()
	}
	if err != nil {
		return nil, fmt.Errorf("numdiff: %w", err)
	}

	as := &Approx{N: n, M: m, Spec: spec}
	if !spec.Bounds.IsZero() {
		for i := 0; i < n; i++ {
			lo, up := spec.Bounds.Lower.Raw()[i], spec.Bounds.Upper.Raw()[i]
			if !math.IsInf(lo, 0) || !math.IsInf(up, 0) {
				as.bounded = true
				break
			}
		}
	}
	as.x = numeric.NewVector(0, n-1)
	as.f0 = numeric.NewVector(0, m-1)
	as.f1 = numeric.NewVector(0, m-1)
	as.f2 = numeric.NewVector(0, m-1)
	as.absStep = make([]float64, n)
	as.oneSide = make([]bool, n)
	return as, nil
}

// Jacobian approximates the m×n matrix ∂fⱼ/∂xᵢ at x0 into d (by position).
// f0 must hold eval(x0). It reports false when an evaluation fails.
func (as *Approx) Jacobian(eval func(x, f numeric.Vector) bool, x0, f0 numeric.Vector, d numeric.Matrix) bool {
	if x0.Len() != as.N || f0.Len() != as.M || d.Rows() != as.M || d.Cols() != as.N {
		panic("numdiff: dimension mismatch")
	}
	if as.bounded && !as.Bounds.Contains(x0, 0) {
		panic("numdiff: x0 violates bound constraints")
	}
	// callbacks see the index ranges of the caller
	if as.x.Lower() != x0.Lower() {
		as.x = numeric.NewVector(x0.Lower(), x0.Upper())
	}
	if as.f1.Lower() != f0.Lower() {
		as.f1 = numeric.NewVector(f0.Lower(), f0.Upper())
		as.f2 = numeric.NewVector(f0.Lower(), f0.Upper())
	}
	as.x.CopyFrom(x0)
	as.absoluteStep(as.x.Raw())
	as.adjustToBounds(as.x.Raw())

	dd := d.Dense()
	x, h, f1, f2 := as.x.Raw(), as.absStep, as.f1.Raw(), as.f2.Raw()
	fx := f0.Raw()
	for i, s := range h {
		xi := x[i]
		switch {
		case s == 0:
			// pinned variable
			for j := range fx {
				dd.Set(j, i, 0)
			}
		case as.Method == Forward:
			x[i] = xi + s
			if !eval(as.x, as.f1) {
				return false
			}
			for j := range fx {
				dd.Set(j, i, (f1[j]-fx[j])/s)
			}
		case as.oneSide[i]:
			x[i] = xi + s
			if !eval(as.x, as.f1) {
				return false
			}
			x[i] = xi + 2*s
			if !eval(as.x, as.f2) {
				return false
			}
			for j := range fx {
				dd.Set(j, i, (4*f1[j]-3*fx[j]-f2[j])/(2*s))
			}
		default:
			x[i] = xi - s
			if !eval(as.x, as.f1) {
				return false
			}
			x[i] = xi + s
			if !eval(as.x, as.f2) {
				return false
			}
			for j := range fx {
				dd.Set(j, i, (f2[j]-f1[j])/(2*s))
			}
		}
		x[i] = xi
	}
	return true
}

// Gradient approximates ∇f at x0 into g for a scalar objective with f0 = f(x0).
// It returns the number of evaluations and NumericalError when one fails.
func (as *Approx) Gradient(fn numeric.ScalarFunction, x0 numeric.Vector, f0 float64, g numeric.Vector) (int, numeric.Status) {
	if as.M != 1 {
		panic("numdiff: gradient needs a scalar function")
	}
	evals := 0
	st := numeric.OK
	eval := func(x, f numeric.Vector) bool {
		var v float64
		v, st = numeric.EvalScalar(fn, x)
		evals++
		f.Raw()[0] = v
		return st == numeric.OK
	}
	as.f0.Raw()[0] = f0
	if as.grad.IsEmpty() {
		as.grad = numeric.NewMatrix(0, 0, 0, as.N-1)
	}
	if g.Len() != as.N {
		panic("numdiff: dimension mismatch")
	}
	if !as.Jacobian(eval, x0, as.f0, as.grad) {
		return evals, st
	}
	copy(g.Raw(), as.grad.Dense().RawRowView(0))
	return evals, numeric.OK
}

// absoluteStep selects the raw step of every variable.
func (as *Approx) absoluteStep(x0 []float64) {
	h := as.absStep

	var eps float64
	switch as.Method {
	case Forward:
		eps = sqrtEps
	case Central:
		eps = cubeEps
	default:
		panic("unknown method")
	}

	abs := as.AbsStep
	rel := as.RelStep
	if abs == 0 && rel == 0 {
		for i, v := range x0 {
			h[i] = math.Copysign(eps, v) * math.Max(1.0, math.Abs(v))
		}
	} else {
		for i, v := range x0 {
			s := abs
			if s == 0 {
				s = math.Copysign(rel, v) * math.Abs(v)
			}
			d := (v + s) - v
			if d == 0 {
				s = math.Copysign(eps, v) * math.Max(1.0, math.Abs(v))
			}
			h[i] = s
		}
	}
}

// adjustToBounds flips or shrinks the steps so that every evaluation stays inside the bounds.
// Central differences fall back to one sided differences near a bound.
func (as *Approx) adjustToBounds(x0 []float64) {
	h, o := as.absStep, as.oneSide
	for i := range o {
		o[i] = false
	}
	if as.Method == Central {
		for i, v := range h {
			h[i] = math.Abs(v)
		}
	}
	if !as.bounded {
		return
	}

	lo, up := as.Bounds.Lower.Raw(), as.Bounds.Upper.Raw()
	if as.Method == Forward {
		for i, x0 := range x0 {
			ld, ud := x0-lo[i], up[i]-x0
			h0 := h[i]
			x := x0 + h0
			violated := x < lo[i] || x > up[i]
			fitting := math.Abs(h0) < math.Max(ld, ud)
			if violated && fitting {
				h[i] = -h0
			} else if !fitting {
				if ud >= ld {
					h[i] = ud
				} else {
					h[i] = -ld
				}
			}
		}
		return
	}

	for i, x0 := range x0 {
		ld, ud := x0-lo[i], up[i]-x0
		central := ld >= h[i] && ud >= h[i]
		if !central {
			if ud >= ld {
				h[i] = math.Min(h[i], 0.5*ud)
			} else {
				h[i] = -math.Min(h[i], 0.5*ld)
			}
			o[i] = true
		}
		minDist := math.Min(ud, ld)
		if !central && math.Abs(h[i]) <= minDist {
			h[i] = minDist
			o[i] = false
		}
	}
}
