// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package poly

import "math/cmplx"

// Coefficients are stored in ascending order: c[0] + c[1]x + ··· + c[n]xⁿ.

// Eval evaluates the polynomial at x with Horner's scheme.
func Eval(c []float64, x float64) float64 {
	if len(c) == 0 {
		return 0
	}
	p := c[len(c)-1]
	for i := len(c) - 2; i >= 0; i-- {
		p = p*x + c[i]
	}
	return p
}

// EvalDeriv evaluates p(x) and p′(x).
func EvalDeriv(c []float64, x float64) (p, dp float64) {
	if len(c) == 0 {
		return 0, 0
	}
	p = c[len(c)-1]
	for i := len(c) - 2; i >= 0; i-- {
		dp = dp*x + p
		p = p*x + c[i]
	}
	return
}

// evalComplex evaluates p(z), p′(z), p″(z) and a bound of the rounding error in p(z).
//
// The bound is the running sum ∑|bₖ||z|ᵏ of the Horner intermediates which, scaled by
// machine precision, tells when p(z) is indistinguishable from zero.
func evalComplex(c []float64, z complex128) (p, dp, d2p complex128, errBound float64) {
	n := len(c) - 1
	p = complex(c[n], 0)
	az := cmplx.Abs(z)
	errBound = cmplx.Abs(p)
	for i := n - 1; i >= 0; i-- {
		d2p = d2p*z + dp
		dp = dp*z + p
		p = p*z + complex(c[i], 0)
		errBound = cmplx.Abs(p) + az*errBound
	}
	d2p *= 2
	return
}

// deflateLinear divides the polynomial a (degree n) by (x - r) into q (degree n-1).
func deflateLinear(a []float64, n int, r float64, q []float64) {
	q[n-1] = a[n]
	for k := n - 2; k >= 0; k-- {
		q[k] = a[k+1] + r*q[k+1]
	}
}

// deflateQuadratic divides the polynomial a (degree n) by (x² + bx + c) into q (degree n-2).
func deflateQuadratic(a []float64, n int, b, c float64, q []float64) {
	var q1, q2 float64 // q[k+1], q[k+2]
	for k := n - 2; k >= 0; k-- {
		qk := a[k+2] - b*q1 - c*q2
		q[k] = qk
		q2, q1 = q1, qk
	}
}
