// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linsolve

import (
	"github.com/curioloop/rootfind/numeric"
)

// NormalEquations forms the damped normal system of the least squares problem 𝚖𝚒𝚗 ‖ 𝐉𝐝 + 𝐫 ‖₂
//   - 𝐀 = 𝐉ᵀ𝐉 + λ𝐈  (n×n, written into a)
//   - 𝐠 = 𝐉ᵀ𝐫       (n, written into g)
//
// The solution of 𝐀𝐝 = -𝐠 is the Gauss-Newton step when λ = 0.
func NormalEquations(j numeric.Matrix, r numeric.Vector, lambda float64, a numeric.Matrix, g numeric.Vector) {
	m, n := j.Rows(), j.Cols()
	if r.Len() != m || a.Rows() != n || a.Cols() != n || g.Len() != n {
		panic("linsolve: normal equations dimension mismatch")
	}
	jd := j.Dense()
	ad := a.Dense()
	ad.Mul(jd.T(), jd)
	if lambda != 0 {
		for i := 0; i < n; i++ {
			ad.Set(i, i, ad.At(i, i)+lambda)
		}
	}
	g.VecDense().MulVec(jd.T(), r.VecDense())
}

// Gradient writes 𝐉ᵀ𝐫 into g, the gradient of ½‖𝐫‖².
func Gradient(j numeric.Matrix, r numeric.Vector, g numeric.Vector) {
	if r.Len() != j.Rows() || g.Len() != j.Cols() {
		panic("linsolve: gradient dimension mismatch")
	}
	g.VecDense().MulVec(j.Dense().T(), r.VecDense())
}

// LeastSquares solves 𝚖𝚒𝚗 ‖ 𝐉𝐝 + 𝐫 ‖₂ through the normal equations 𝐉ᵀ𝐉𝐝 = -𝐉ᵀ𝐫.
// When 𝐉 is square the system 𝐉𝐝 = -𝐫 is solved directly instead.
func LeastSquares(j numeric.Matrix, r numeric.Vector, d numeric.Vector) numeric.Status {
	m, n := j.Rows(), j.Cols()
	if m < n || r.Len() != m || d.Len() != n {
		return numeric.InvalidInput
	}
	rhs := numeric.NewVector(0, n-1)
	if m == n {
		for i, v := range r.Raw() {
			rhs.Raw()[i] = -v
		}
		return Solve(j, rhs, d)
	}
	a := numeric.NewMatrix(0, n-1, 0, n-1)
	NormalEquations(j, r, 0, a, rhs)
	for i, v := range rhs.Raw() {
		rhs.Raw()[i] = -v
	}
	return Solve(a, rhs, d)
}
