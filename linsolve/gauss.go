// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linsolve

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/rootfind/numeric"
)

// DefaultMinPivot is the relative pivot threshold below which a matrix is reported singular.
const DefaultMinPivot = 1.0e-20

// Gauss solves square linear systems 𝐀𝐱 = 𝐛 by Gaussian elimination with partial pivoting.
//
// The elimination is performed once by Factorize as 𝐏𝐀 = 𝐋𝐔, after which Solve can be
// called for any number of right hand sides. A matrix is reported singular when
//   - a pivot |𝐔ᵢᵢ| ≤ 𝚖𝚒𝚗𝙿𝚒𝚟𝚘𝚝 × 𝚖𝚊𝚡|𝐀ᵢⱼ|, or
//   - the reciprocal condition estimate falls below machine precision.
type Gauss struct {
	// MinPivot is the relative pivot threshold, DefaultMinPivot when zero.
	MinPivot float64

	lu     mat.LU
	n      int
	status numeric.Status
	x      *mat.VecDense
}

// Factorize decomposes the square matrix a.
func (g *Gauss) Factorize(a numeric.Matrix) numeric.Status {
	g.n = 0
	if a.IsEmpty() || a.Rows() != a.Cols() {
		g.status = numeric.InvalidInput
		return g.status
	}
	if !a.IsFinite() {
		g.status = numeric.NumericalError
		return g.status
	}

	n := a.Rows()
	g.n = n
	g.lu.Factorize(a.Dense())

	minPivot := g.MinPivot
	if minPivot <= 0 {
		minPivot = DefaultMinPivot
	}

	scale := mat.Norm(a.Dense(), math.Inf(1))
	var u mat.TriDense
	g.lu.UTo(&u)
	g.status = numeric.OK
	for i := 0; i < n; i++ {
		if p := math.Abs(u.At(i, i)); p <= minPivot*scale || p == 0 {
			g.status = numeric.Singular
			break
		}
	}
	if g.status == numeric.OK && g.lu.Cond() > mat.ConditionTolerance {
		g.status = numeric.Singular
	}
	return g.status
}

// Status returns the outcome of the last Factorize.
func (g *Gauss) Status() numeric.Status { return g.status }

// Determinant returns det(𝐀) of the factorized matrix, zero when singular.
func (g *Gauss) Determinant() float64 {
	if g.n == 0 || g.status == numeric.Singular {
		return 0
	}
	return g.lu.Det()
}

// Solve writes the solution of 𝐀𝐱 = 𝐛 into x. b and x are compared by position.
func (g *Gauss) Solve(b, x numeric.Vector) numeric.Status {
	if g.status != numeric.OK {
		return g.status
	}
	if b.Len() != g.n || x.Len() != g.n {
		return numeric.InvalidInput
	}
	if g.x == nil || g.x.Len() != g.n {
		g.x = mat.NewVecDense(g.n, nil)
	}
	if err := g.lu.SolveVecTo(g.x, false, b.VecDense()); err != nil {
		return numeric.Singular
	}
	for i := 0; i < g.n; i++ {
		v := g.x.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return numeric.Singular
		}
	}
	copy(x.Raw(), g.x.RawVector().Data)
	return numeric.OK
}

// Solve factorizes a and solves 𝐀𝐱 = 𝐛 in one call.
func Solve(a numeric.Matrix, b, x numeric.Vector) numeric.Status {
	var g Gauss
	if st := g.Factorize(a); st != numeric.OK {
		return st
	}
	return g.Solve(b, x)
}
