// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package poly

import (
	"math"

	"github.com/curioloop/rootfind/numeric"
)

// leadingTolerance is the relative magnitude under which a leading coefficient is dropped.
const leadingTolerance = 1e-12

// Quintic solves a x⁵ + b x⁴ + c x³ + d x² + e x + f = 0.
func Quintic(a, b, c, d, e, f, tol float64) Result {
	return fixedDegree(tol, a, b, c, d, e, f)
}

// Sextic solves a x⁶ + b x⁵ + c x⁴ + d x³ + e x² + f x + g = 0.
func Sextic(a, b, c, d, e, f, g, tol float64) Result {
	return fixedDegree(tol, a, b, c, d, e, f, g)
}

// Octic solves a x⁸ + b x⁷ + c x⁶ + d x⁵ + e x⁴ + f x³ + g x² + h x + i = 0.
func Octic(a, b, c, d, e, f, g, h, i, tol float64) Result {
	return fixedDegree(tol, a, b, c, d, e, f, g, h, i)
}

// fixedDegree strips negligible leading coefficients (given in descending order) and
// dispatches to the closed-form solvers up to degree 4, to Laguerre above.
//
// The closed-form path reports real roots only.
// All coefficients zero gives InfiniteSolutions, a non-zero constant gives OK with no root.
func fixedDegree(tol float64, desc ...float64) (res Result) {
	scale := 0.
	for _, v := range desc {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			res.Status = numeric.InvalidInput
			return
		}
		scale = math.Max(scale, math.Abs(v))
	}
	if scale == 0 {
		res.Status = numeric.InfiniteSolutions
		return
	}

	for len(desc) > 1 && math.Abs(desc[0]) <= leadingTolerance*scale {
		desc = desc[1:]
	}
	var asc [MaxDegree + 1]float64
	degree := len(desc) - 1
	for k, v := range desc {
		asc[degree-k] = v
	}

	if degree > 4 {
		return Laguerre(asc[:degree+1], degree, tol)
	}

	res.Status = numeric.OK
	var roots []float64
	switch degree {
	case 4:
		r, n := SolveQuartic(asc[0], asc[1], asc[2], asc[3], asc[4])
		roots = r[:n]
	case 3:
		r, n := SolveCubic(asc[0], asc[1], asc[2], asc[3])
		roots = r[:n]
	case 2:
		r, n := SolveQuadratic(asc[0], asc[1], asc[2])
		roots = r[:n]
	case 1:
		roots = []float64{-asc[0] / asc[1]}
	}
	if tol <= 0 {
		tol = DefaultTolerance
	}
	n := copy(res.real[:], roots)
	res.NbRoots = sortAndMerge(res.real[:n], tol)
	return
}
