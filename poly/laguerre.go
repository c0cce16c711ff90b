// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package poly

import (
	"math"
	"math/cmplx"
	"slices"

	"github.com/curioloop/rootfind/numeric"
)

const (
	// MaxDegree is the largest polynomial degree accepted by Laguerre.
	MaxDegree = 20
	// DefaultTolerance is used when a non-positive tolerance is given.
	// A double root is split by about √ε ≈ 1.5e-8 in double precision, so it must lie above that.
	DefaultTolerance = 1e-6

	maxIterations = 80
	numStarts     = 6
	tiny          = 1e-300
	// p(x) is regarded as zero when below clusterSlack × ε × its rounding bound.
	clusterSlack = 1e3
)

var eps = math.Nextafter(1, 2) - 1

// Fractional steps taken every 10 iterations to break limit cycles.
var fractions = [...]float64{0.5, 0.25, 0.75, 0.13, 0.38, 0.62, 0.88, 1.0}

// Result holds the roots of a polynomial.
//
// Real roots are sorted ascending with duplicates merged.
// Complex roots come in conjugate pairs: ComplexRoot(2k+1) == conj(ComplexRoot(2k)).
type Result struct {
	Status         numeric.Status
	NbRoots        int // Number of distinct real roots.
	NbComplexRoots int // Number of complex roots, always even.

	real [MaxDegree]float64
	cplx [MaxDegree]complex128
}

// IsDone reports whether every root was found.
func (r *Result) IsDone() bool { return r.Status == numeric.OK }

// Root returns the i-th real root (0 ≤ i < NbRoots).
func (r *Result) Root(i int) float64 {
	if i < 0 || i >= r.NbRoots {
		panic("poly: real root index out of range")
	}
	return r.real[i]
}

// ComplexRoot returns the i-th complex root (0 ≤ i < NbComplexRoots).
func (r *Result) ComplexRoot(i int) complex128 {
	if i < 0 || i >= r.NbComplexRoots {
		panic("poly: complex root index out of range")
	}
	return r.cplx[i]
}

// Roots returns a copy of the real roots.
func (r *Result) Roots() []float64 {
	return slices.Clone(r.real[:r.NbRoots])
}

// ComplexRoots returns a copy of the complex roots.
func (r *Result) ComplexRoots() []complex128 {
	return slices.Clone(r.cplx[:r.NbComplexRoots])
}

// Laguerre computes every root of the real polynomial c[0] + c[1]x + ··· + c[degree]x^degree.
//
// Roots are extracted one at a time by Laguerre's iteration on the deflated polynomial:
//   - a root whose imaginary part is below tol × max(1, |re|) is real, it is polished by
//     Newton's method on the original coefficients and divided out as (x - r),
//   - otherwise it is complex and divided out with its conjugate as (x² - 2re x + |z|²).
//
// tol also bounds the distance under which two real roots are merged.
// Degree outside [1, MaxDegree], a zero leading coefficient or non-finite coefficients yield InvalidInput.
// When an iteration fails to settle the best estimate is kept and the status is NotConverged.
//
// # Reference
//
// W.H. Press, S.A. Teukolsky, W.T. Vetterling, B.P. Flannery:
// "Numerical Recipes", 3rd ed., Cambridge University Press, 2007. Section 9.5.
func Laguerre(c []float64, degree int, tol float64) (res Result) {
	if degree < 1 || degree > MaxDegree || len(c) < degree+1 || c[degree] == 0 {
		res.Status = numeric.InvalidInput
		return
	}
	for _, v := range c[:degree+1] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			res.Status = numeric.InvalidInput
			return
		}
	}
	if tol <= 0 {
		tol = DefaultTolerance
	}

	orig := c[:degree+1]
	var work, next [MaxDegree + 1]float64
	copy(work[:], orig)

	res.Status = numeric.OK
	for m := degree; m > 0; {
		var z complex128
		switch m {
		case 1:
			z = complex(-work[0]/work[1], 0)
		case 2:
			z = quadraticRoot(work[0], work[1], work[2])
		default:
			var ok bool
			if z, ok = laguerreRoot(work[:m+1]); !ok {
				res.Status = numeric.NotConverged
			}
		}

		switch re := real(z); {
		case math.Abs(imag(z)) <= tol*math.Max(1, math.Abs(re)):
			x := polishReal(orig, re, tol)
			res.real[res.NbRoots] = x
			res.NbRoots++
			deflateLinear(work[:], m, x, next[:])
			m--
		case nearRealCluster(orig, z, tol):
			// a multiple real root split into a conjugate pair by rounding
			res.real[res.NbRoots] = re
			res.real[res.NbRoots+1] = re
			res.NbRoots += 2
			deflateQuadratic(work[:], m, -2*re, re*re, next[:])
			m -= 2
		default:
			z = polishComplex(orig, z, tol)
			if imag(z) < 0 {
				z = cmplx.Conj(z)
			}
			res.cplx[res.NbComplexRoots] = z
			res.cplx[res.NbComplexRoots+1] = cmplx.Conj(z)
			res.NbComplexRoots += 2
			deflateQuadratic(work[:], m, -2*real(z), real(z)*real(z)+imag(z)*imag(z), next[:])
			m -= 2
		}
		copy(work[:m+1], next[:m+1])
	}

	res.NbRoots = sortAndMerge(res.real[:res.NbRoots], tol)
	res.NbRoots = mergeClusters(orig, res.real[:res.NbRoots], tol)
	return
}

// laguerreRoot finds one root of the polynomial w, trying a rotation of starting points
// on the circle of radius (|w₀/wₙ|)^(1/n) when the iteration fails from the origin.
func laguerreRoot(w []float64) (complex128, bool) {
	n := len(w) - 1
	rho := math.Pow(math.Abs(w[0]/w[n]), 1/float64(n))
	if rho == 0 || math.IsInf(rho, 0) || math.IsNaN(rho) {
		rho = 1
	}

	var best complex128
	bestErr := math.Inf(1)
	for k := 0; k < numStarts; k++ {
		var z0 complex128
		if k > 0 {
			// Skip the real axis so that symmetric roots do not stall the iteration.
			z0 = cmplx.Rect(rho, (float64(k)-0.5)*math.Pi/float64(numStarts-1))
		}
		z, ok := laguerreIterate(w, z0)
		if ok {
			return z, true
		}
		p, _, _, errB := evalComplex(w, z)
		if e := cmplx.Abs(p) / math.Max(errB, tiny); e < bestErr {
			best, bestErr = z, e
		}
	}
	return best, false
}

func laguerreIterate(w []float64, z complex128) (complex128, bool) {
	n := len(w) - 1
	cn := complex(float64(n), 0)
	cn1 := complex(float64(n-1), 0)
	for iter := 1; iter <= maxIterations; iter++ {
		p, dp, d2p, errB := evalComplex(w, z)
		if cmplx.Abs(p) <= eps*errB {
			return z, true
		}

		sq := cmplx.Sqrt(cn1 * (cn1*dp*dp - cn*p*d2p))
		den := dp + sq
		if d := dp - sq; cmplx.Abs(d) > cmplx.Abs(den) {
			den = d
		}

		var dz complex128
		switch {
		case cmplx.Abs(den) > tiny:
			dz = cn * p / den
		case cmplx.Abs(dp) > tiny:
			// Newton step.
			dz = p / dp
		default:
			dz = cmplx.Rect(1+cmplx.Abs(z), float64(iter))
		}

		z1 := z - dz
		if z1 == z || cmplx.Abs(dz) <= eps*cmplx.Abs(z) {
			return z1, true
		}
		if iter%10 != 0 {
			z = z1
		} else {
			z -= complex(fractions[(iter/10)%len(fractions)], 0) * dz
		}
	}
	return z, false
}

// quadraticRoot returns one root of c0 + c1 x + c2 x², the one of largest magnitude
// when both are real.
func quadraticRoot(c0, c1, c2 float64) complex128 {
	disc := c1*c1 - 4*c2*c0
	if disc >= 0 {
		q := -0.5 * (c1 + math.Copysign(math.Sqrt(disc), c1))
		return complex(q/c2, 0)
	}
	return complex(-c1/(2*c2), math.Sqrt(-disc)/(2*math.Abs(c2)))
}

// polishReal refines x with Newton's method on c, rejecting moves larger than √tol × max(1, |x|)
// that would jump to a neighbouring root.
func polishReal(c []float64, x, tol float64) float64 {
	limit := math.Sqrt(tol) * math.Max(1, math.Abs(x))
	x0 := x
	p, dp := EvalDeriv(c, x)
	for k := 0; k < 8 && p != 0 && dp != 0; k++ {
		x1 := x - p/dp
		if math.Abs(x1-x0) > limit {
			break
		}
		p1, dp1 := EvalDeriv(c, x1)
		if math.Abs(p1) >= math.Abs(p) {
			break
		}
		x, p, dp = x1, p1, dp1
	}
	return x
}

func polishComplex(c []float64, z complex128, tol float64) complex128 {
	limit := math.Sqrt(tol) * math.Max(1, cmplx.Abs(z))
	z0 := z
	p, dp, _, _ := evalComplex(c, z)
	for k := 0; k < 8 && p != 0 && dp != 0; k++ {
		z1 := z - p/dp
		if cmplx.Abs(z1-z0) > limit {
			break
		}
		p1, dp1, _, _ := evalComplex(c, z1)
		if cmplx.Abs(p1) >= cmplx.Abs(p) {
			break
		}
		z, p, dp = z1, p1, dp1
	}
	return z
}

// sortAndMerge sorts x ascending and collapses runs closer than tol × max(1, |x|).
func sortAndMerge(x []float64, tol float64) int {
	if len(x) == 0 {
		return 0
	}
	slices.Sort(x)
	n := 1
	for _, v := range x[1:] {
		if last := x[n-1]; v-last <= tol*math.Max(1, math.Abs(last)) {
			continue
		}
		x[n] = v
		n++
	}
	return n
}

// vanishes reports whether p(x) is zero within rounding.
func vanishes(c []float64, x float64) bool {
	p, _, _, errB := evalComplex(c, complex(x, 0))
	return cmplx.Abs(p) <= clusterSlack*eps*errB
}

// nearRealCluster reports whether z is a perturbed multiple real root:
// its imaginary part is below √tol × max(1, |re|) and p vanishes at its real part.
func nearRealCluster(c []float64, z complex128, tol float64) bool {
	x := real(z)
	return imag(z) != 0 &&
		math.Abs(imag(z)) <= math.Sqrt(tol)*math.Max(1, math.Abs(x)) &&
		vanishes(c, x)
}

// mergeClusters collapses sorted neighbours closer than √tol × max(1, |x|) whose midpoint
// is a zero of p within rounding, the spread of a multiple root.
func mergeClusters(c, x []float64, tol float64) int {
	if len(x) == 0 {
		return 0
	}
	radius := math.Sqrt(tol)
	n := 1
	for _, v := range x[1:] {
		last := x[n-1]
		if mid := 0.5 * (last + v); v-last <= radius*math.Max(1, math.Abs(last)) && vanishes(c, mid) {
			x[n-1] = mid
			continue
		}
		x[n] = v
		n++
	}
	return n
}
