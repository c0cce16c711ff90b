// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linsolve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curioloop/rootfind/numeric"
)

func TestGaussSolve(t *testing.T) {
	a := numeric.MatrixFrom(3, 3,
		2, 1, -1,
		-3, -1, 2,
		-2, 1, 2,
	)
	b := numeric.Vec(8, -11, -3)
	x := numeric.NewVector(1, 3)

	var g Gauss
	require.Equal(t, numeric.OK, g.Factorize(a))
	require.Equal(t, numeric.OK, g.Solve(b, x))
	require.InDeltaSlice(t, []float64{2, 3, -1}, x.Raw(), 1e-12)
	require.Equal(t, 3, x.Upper())
	require.InDelta(t, -1, g.Determinant(), 1e-12)

	// The factorization is reused for another right hand side.
	require.Equal(t, numeric.OK, g.Solve(numeric.Vec(1, -1, 1), x))
	check := numeric.NewVector(0, 2)
	check.VecDense().MulVec(a.Dense(), x.VecDense())
	require.InDeltaSlice(t, []float64{1, -1, 1}, check.Raw(), 1e-12)
}

func TestGaussSingular(t *testing.T) {
	a := numeric.MatrixFrom(2, 2,
		1, 2,
		2, 4,
	)
	x := numeric.NewVector(0, 1)
	require.Equal(t, numeric.Singular, Solve(a, numeric.Vec(1, 2), x))
	require.Equal(t, []float64{0, 0}, x.Raw(), "output must be left untouched")

	var g Gauss
	require.Equal(t, numeric.Singular, g.Factorize(a))
	require.Zero(t, g.Determinant())
}

func TestGaussInvalid(t *testing.T) {
	var g Gauss
	require.Equal(t, numeric.InvalidInput, g.Factorize(numeric.Matrix{}))
	require.Equal(t, numeric.InvalidInput, g.Factorize(numeric.MatrixFrom(2, 3, 1, 2, 3, 4, 5, 6)))

	nan := numeric.MatrixFrom(2, 2, 1, 0, 0, math.NaN())
	require.Equal(t, numeric.NumericalError, g.Factorize(nan))

	require.Equal(t, numeric.OK, g.Factorize(numeric.MatrixFrom(2, 2, 1, 0, 0, 1)))
	require.Equal(t, numeric.InvalidInput, g.Solve(numeric.Vec(1, 2, 3), numeric.NewVector(0, 1)))
}

func TestGaussScaled(t *testing.T) {
	// Tiny but well conditioned entries must not be mistaken for a singular matrix.
	a := numeric.MatrixFrom(2, 2,
		1e-30, 0,
		0, 2e-30,
	)
	x := numeric.NewVector(0, 1)
	require.Equal(t, numeric.OK, Solve(a, numeric.Vec(1e-30, 1e-30), x))
	require.InDeltaSlice(t, []float64{1, 0.5}, x.Raw(), 1e-12)
}

func TestNormalEquations(t *testing.T) {
	j := numeric.MatrixFrom(3, 2,
		1, 0,
		0, 1,
		1, 1,
	)
	r := numeric.Vec(1, 2, 3)
	a := numeric.NewMatrix(0, 1, 0, 1)
	g := numeric.NewVector(0, 1)

	NormalEquations(j, r, 0.5, a, g)
	require.Equal(t, 2.5, a.At(0, 0))
	require.Equal(t, 1.0, a.At(0, 1))
	require.Equal(t, 1.0, a.At(1, 0))
	require.Equal(t, 2.5, a.At(1, 1))
	require.Equal(t, []float64{4, 5}, g.Raw())

	grad := numeric.NewVector(0, 1)
	Gradient(j, r, grad)
	require.Equal(t, g.Raw(), grad.Raw())
}

func TestLeastSquares(t *testing.T) {
	// Fit y = c0 + c1 t through (0,1), (1,3), (2,5): exact line 1 + 2t.
	j := numeric.MatrixFrom(3, 2,
		1, 0,
		1, 1,
		1, 2,
	)
	r := numeric.Vec(-1, -3, -5) // residual at c = 0
	d := numeric.NewVector(0, 1)
	require.Equal(t, numeric.OK, LeastSquares(j, r, d))
	require.InDeltaSlice(t, []float64{1, 2}, d.Raw(), 1e-10)

	// Square systems are solved directly.
	sq := numeric.MatrixFrom(2, 2, 2, 1, 1, 2)
	require.Equal(t, numeric.OK, LeastSquares(sq, numeric.Vec(-5, -4), d))
	require.InDeltaSlice(t, []float64{2, 1}, d.Raw(), 1e-12)

	// Underdetermined systems are rejected.
	wide := numeric.MatrixFrom(1, 2, 1, 1)
	require.Equal(t, numeric.InvalidInput, LeastSquares(wide, numeric.Vec(1), d))
}
