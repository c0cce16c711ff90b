// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package poly

import (
	"math"
	"slices"
)

// SolveQuadratic finds real roots of c0 + c1 x + c2 x² = 0.
//
// A nearly linear equation returns the root of the linear part only.
// When all coefficients are zero a single 0 is returned.
func SolveQuadratic(c0, c1, c2 float64) ([2]float64, int) {
	sc0 := c0 / c2
	sc1 := c1 / c2
	if math.IsInf(sc0, 0) || math.IsInf(sc1, 0) || math.IsNaN(sc0) || math.IsNaN(sc1) {
		root := -c0 / c1
		switch {
		case !math.IsInf(root, 0) && !math.IsNaN(root):
			return [2]float64{root}, 1
		case c0 == 0 && c1 == 0:
			return [2]float64{0}, 1
		default:
			return [2]float64{}, 0
		}
	}
	disc := sc1*sc1 - 4*sc0
	var r1 float64
	if math.IsInf(disc, 0) {
		// sc1² overflowed, take one root of x² + sc1 x = 0
		r1 = -sc1
	} else {
		switch {
		case disc < 0:
			return [2]float64{}, 0
		case disc == 0:
			return [2]float64{-0.5 * sc1}, 1
		}
		// avoid cancellation between -sc1 and √disc
		r1 = -0.5 * (sc1 + math.Copysign(math.Sqrt(disc), sc1))
	}
	r2 := sc0 / r1
	if math.IsInf(r2, 0) || math.IsNaN(r2) {
		return [2]float64{r1}, 1
	}
	if r2 < r1 {
		r1, r2 = r2, r1
	}
	return [2]float64{r1, r2}, 2
}

// SolveCubic finds real roots of c0 + c1 x + c2 x² + c3 x³ = 0 in ascending order.
//
// The monic cubic is depressed with x = t - a/3 into t³ + pt + q = 0 and solved by
//   - Cardano's formula when Δ = (q/2)² + (p/3)³ > 0 (one real root),
//   - the trigonometric form when Δ < 0 (three real roots),
//   - the repeated-root form when Δ = 0.
//
// Each root is polished by Newton iterations on the monic cubic.
func SolveCubic(c0, c1, c2, c3 float64) ([3]float64, int) {
	a, b, c := c2/c3, c1/c3, c0/c3
	if math.IsInf(a, 0) || math.IsInf(b, 0) || math.IsInf(c, 0) ||
		math.IsNaN(a) || math.IsNaN(b) || math.IsNaN(c) {
		r, n := SolveQuadratic(c0, c1, c2)
		return [3]float64{r[0], r[1]}, n
	}

	shift := a / 3
	p := b - a*shift
	q := 2*shift*shift*shift - shift*b + c
	disc := 0.25*q*q + p*p*p/27

	var out [3]float64
	var n int
	scale := math.Max(1, math.Max(math.Abs(p), math.Abs(q)))
	switch {
	case math.Abs(disc) <= 1e-14*scale*scale:
		if math.Abs(p) <= 1e-14*scale {
			out[0], n = -shift, 1
		} else {
			out[0] = 3*q/p - shift
			out[1] = -1.5*q/p - shift
			n = 2
		}
	case disc > 0:
		u := math.Cbrt(-0.5*q - math.Copysign(math.Sqrt(disc), q))
		t := u
		if u != 0 {
			t = u - p/(3*u)
		}
		out[0], n = t-shift, 1
	default:
		r := 2 * math.Sqrt(-p/3)
		cosArg := (3 * q / (2 * p)) * math.Sqrt(-3/p)
		phi := math.Acos(math.Max(-1, math.Min(1, cosArg))) / 3
		for k := 0; k < 3; k++ {
			out[k] = r*math.Cos(phi-2*math.Pi*float64(k)/3) - shift
		}
		n = 3
	}

	monic := []float64{c, b, a, 1}
	for i := range out[:n] {
		out[i] = polish(monic, out[i], 4)
	}
	slices.Sort(out[:n])
	return out, n
}

// SolveQuartic finds real roots of c0 + c1 x + c2 x² + c3 x³ + c4 x⁴ = 0 in ascending order.
//
// The monic quartic is depressed with x = y - a/4 into y⁴ + py² + qy + r = 0.
//   - q = 0 gives a biquadratic in z = y².
//   - otherwise with m the largest root of the resolvent cubic m³ + pm² + (p²/4 - r)m - q²/8 = 0
//     and s = √(2m) the quartic factors as
//     (y² - sy + p/2 + m + q/2s)(y² + sy + p/2 + m - q/2s) (Ferrari).
//
// Each root is polished by Newton iterations on the monic quartic.
func SolveQuartic(c0, c1, c2, c3, c4 float64) ([4]float64, int) {
	if c4 == 0 {
		r, n := SolveCubic(c0, c1, c2, c3)
		return [4]float64{r[0], r[1], r[2]}, n
	}
	if c0 == 0 {
		r, n := SolveCubic(c1, c2, c3, c4)
		out := [4]float64{r[0], r[1], r[2]}
		if !slices.Contains(out[:n], 0) {
			out[n] = 0
			n++
		}
		slices.Sort(out[:n])
		return out, n
	}

	a, b, c, d := c3/c4, c2/c4, c1/c4, c0/c4
	if math.IsInf(a, 0) || math.IsInf(b, 0) || math.IsInf(c, 0) || math.IsInf(d, 0) {
		r, n := SolveCubic(c0, c1, c2, c3)
		return [4]float64{r[0], r[1], r[2]}, n
	}

	shift := a / 4
	a2 := a * a
	p := b - 3*a2/8
	q := c - a*b/2 + a2*a/8
	r := d - a*c/4 + a2*b/16 - 3*a2*a2/256

	var out [4]float64
	var n int
	push := func(y float64) {
		out[n] = y - shift
		n++
	}

	scale := math.Max(1, math.Max(math.Abs(p), math.Max(math.Abs(q), math.Abs(r))))
	if math.Abs(q) <= 1e-14*scale {
		z, nz := SolveQuadratic(r, p, 1)
		for _, zi := range z[:nz] {
			switch {
			case zi > 0:
				s := math.Sqrt(zi)
				push(-s)
				push(s)
			case zi > -1e-14*scale:
				push(0)
			}
		}
	} else {
		m3, nm := SolveCubic(-q*q/8, p*p/4-r, p, 1)
		m := m3[nm-1] // ascending, the largest
		if m <= 0 {
			// a positive resolvent root always exists when q ≠ 0, rounding may hide it
			m = math.SmallestNonzeroFloat64
		}
		s := math.Sqrt(2 * m)
		h := q / (2 * s)
		for _, sign := range [2]float64{-1, 1} {
			y, ny := SolveQuadratic(p/2+m-sign*h, sign*s, 1)
			for _, yi := range y[:ny] {
				push(yi)
			}
		}
	}

	monic := []float64{d, c, b, a, 1}
	for i := range out[:n] {
		out[i] = polish(monic, out[i], 4)
	}
	slices.Sort(out[:n])
	return out, n
}

// polish refines x with at most k Newton steps, keeping only steps that reduce |p(x)|.
func polish(c []float64, x float64, k int) float64 {
	p, dp := EvalDeriv(c, x)
	for ; k > 0 && p != 0 && dp != 0; k-- {
		x1 := x - p/dp
		p1, dp1 := EvalDeriv(c, x1)
		if math.Abs(p1) >= math.Abs(p) {
			break
		}
		x, p, dp = x1, p1, dp1
	}
	return x
}
