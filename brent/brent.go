// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package brent

import (
	"math"

	"github.com/curioloop/rootfind/numeric"
)

var eps = math.Nextafter(1, 2) - 1

// Config specifies the stopping criteria of the refinement.
type Config struct {
	// The iteration stops when the bracket is narrower than 2 × (2𝚎𝚙𝚜|x| + ½𝚇𝚃𝚘𝚕).
	XTolerance float64 `yaml:"x_tolerance"`
	// The iteration stops when |𝒇(x)| ≤ 𝙵𝚃𝚘𝚕.
	FTolerance float64 `yaml:"f_tolerance"`
	// The iteration stops when the number of iteration exceeds limit.
	MaxIterations int `yaml:"max_iterations"`
}

// DefaultConfig returns the configuration used when fields are left zero.
func DefaultConfig() Config {
	return Config{XTolerance: 1e-12, FTolerance: 0, MaxIterations: 100}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.XTolerance <= 0 {
		c.XTolerance = d.XTolerance
	}
	if c.FTolerance < 0 {
		c.FTolerance = d.FTolerance
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	return c
}

// Result contains the outcome of a refinement.
type Result struct {
	Status  numeric.Status
	Root    float64 // Best estimate of the root.
	Value   float64 // Function value at Root.
	NumIter int     // Number of iterations performed.
	NumEval int     // Number of function evaluations performed.
}

// Solve finds a root of 𝒇 in the bracket [a, b] where 𝒇(a) and 𝒇(b) have opposite signs.
func Solve(f numeric.Function, a, b float64, cfg Config) Result {
	fa, st := numeric.EvalFunc(f, a)
	if st != numeric.OK {
		return Result{Status: st, Root: a, Value: fa, NumEval: 1}
	}
	fb, st := numeric.EvalFunc(f, b)
	if st != numeric.OK {
		return Result{Status: st, Root: b, Value: fb, NumEval: 2}
	}
	r := SolveBracket(f, a, b, fa, fb, cfg)
	r.NumEval += 2
	return r
}

// SolveBracket is Solve with the end point values already known.
//
// Brent's method keeps a bracket [b, c] around the root and at each step takes
//   - an inverse quadratic interpolation through (a,𝒇a), (b,𝒇b), (c,𝒇c), or
//   - a secant step when only two distinct points are available, or
//   - a bisection step when the interpolation falls outside the bracket
//     or does not shrink it fast enough.
//
// The result is the end point b with |𝒇(b)| ≤ |𝒇(c)|.
//
// # Reference
//
// R.P. Brent: "Algorithms for Minimization without Derivatives", Prentice-Hall, 1973. Chapter 4.
func SolveBracket(f numeric.Function, a, b, fa, fb float64, cfg Config) (res Result) {
	cfg = cfg.withDefaults()

	switch {
	case fa == 0:
		return Result{Status: numeric.OK, Root: a, Value: fa}
	case fb == 0:
		return Result{Status: numeric.OK, Root: b, Value: fb}
	case math.Signbit(fa) == math.Signbit(fb):
		return Result{Status: numeric.InvalidInput, Root: b, Value: fb}
	}

	c, fc := a, fa
	d := b - a
	e := d

	for iter := 1; iter <= cfg.MaxIterations; iter++ {
		res.NumIter = iter

		if math.Signbit(fb) == math.Signbit(fc) {
			// Keep the root between b and c.
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol := 2*eps*math.Abs(b) + 0.5*cfg.XTolerance
		m := 0.5 * (c - b)
		if math.Abs(m) <= tol || fb == 0 || math.Abs(fb) <= cfg.FTolerance {
			res.Status, res.Root, res.Value = numeric.OK, b, fb
			return
		}

		if math.Abs(e) < tol || math.Abs(fa) <= math.Abs(fb) {
			// Bisection.
			d = m
			e = m
		} else {
			var p, q float64
			s := fb / fa
			if a == c {
				// Secant.
				p = 2 * m * s
				q = 1 - s
			} else {
				// Inverse quadratic interpolation.
				q = fa / fc
				r := fb / fc
				p = s * (2*m*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			} else {
				p = -p
			}
			if 2*p < math.Min(3*m*q-math.Abs(tol*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = m
				e = m
			}
		}

		a, fa = b, fb
		if math.Abs(d) > tol {
			b += d
		} else {
			b += math.Copysign(tol, m)
		}

		var st numeric.Status
		fb, st = numeric.EvalFunc(f, b)
		res.NumEval++
		if st != numeric.OK {
			// Keep the last valid end point.
			res.Status, res.Root, res.Value = st, a, fa
			return
		}
	}

	res.Status, res.Root, res.Value = numeric.NotConverged, b, fb
	return
}
