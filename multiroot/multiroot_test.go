// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package multiroot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curioloop/rootfind/numeric"
)

func TestFindAllRootsQuadratic(t *testing.T) {
	f := numeric.Func(func(x float64) float64 { return x*x - 4 })
	r := FindAllRoots(f, -5, 5, Config{})
	require.True(t, r.IsDone())
	require.False(t, r.AllNull)
	require.Len(t, r.Roots, 2)
	require.InDelta(t, -2, r.Roots[0], 1e-9)
	require.InDelta(t, 2, r.Roots[1], 1e-9)
}

func TestFindAllRootsSine(t *testing.T) {
	r := FindAllRoots(numeric.Func(math.Sin), -0.5, 10, Config{NbSamples: 100})
	require.Equal(t, numeric.OK, r.Status)
	require.InDeltaSlice(t, []float64{0, math.Pi, 2 * math.Pi, 3 * math.Pi}, r.Roots, 1e-9)
}

func TestFindAllRootsOnSample(t *testing.T) {
	// With 11 samples on [-5,5] the roots fall exactly on sample points.
	f := numeric.Func(func(x float64) float64 { return (x - 1) * (x + 3) })
	r := FindAllRoots(f, -5, 5, Config{NbSamples: 11})
	require.Equal(t, numeric.OK, r.Status)
	require.Equal(t, []float64{-3, 1}, r.Roots)
}

func TestFindAllRootsOffset(t *testing.T) {
	f := numeric.Func(func(x float64) float64 { return x * x })
	r := FindAllRoots(f, -3, 3, Config{Offset: 4})
	require.Equal(t, numeric.OK, r.Status)
	require.InDeltaSlice(t, []float64{-2, 2}, r.Roots, 1e-9)
}

func TestFindAllRootsNull(t *testing.T) {
	zero := numeric.Func(func(float64) float64 { return 0 })
	for _, bounds := range [][2]float64{{-1, 1}, {0, 100}} {
		r := FindAllRoots(zero, bounds[0], bounds[1], Config{})
		require.True(t, r.AllNull)
		require.Empty(t, r.Roots)
		require.Equal(t, numeric.InfiniteSolutions, r.Status)
		require.True(t, r.IsDone())
	}

	// Equal to the offset everywhere is also null.
	r := FindAllRoots(numeric.Func(func(float64) float64 { return 2 }), 0, 1, Config{Offset: 2})
	require.True(t, r.AllNull)
}

func TestFindAllRootsSinglePoint(t *testing.T) {
	line := numeric.Func(func(x float64) float64 { return x - 1 })
	r := FindAllRoots(line, 1, 1, Config{})
	require.Equal(t, numeric.OK, r.Status)
	require.False(t, r.AllNull)
	require.Equal(t, []float64{1}, r.Roots)
	require.Equal(t, 1, r.NumEval)

	r = FindAllRoots(line, 2, 2, Config{})
	require.Equal(t, numeric.OK, r.Status)
	require.Empty(t, r.Roots)

	zero := numeric.FuncWithDerivative{
		F:  func(float64) float64 { return 0 },
		DF: func(float64) float64 { return 0 },
	}
	r = FindAllRootsWithDerivative(zero, 3, 3, Config{})
	require.Equal(t, numeric.OK, r.Status)
	require.False(t, r.AllNull)
	require.Equal(t, []float64{3}, r.Roots)
}

func TestFindAllRootsNoRoot(t *testing.T) {
	r := FindAllRoots(numeric.Func(func(x float64) float64 { return x*x + 1 }), -2, 2, Config{})
	require.Equal(t, numeric.OK, r.Status)
	require.Empty(t, r.Roots)
}

func TestFindAllRootsTangential(t *testing.T) {
	f := numeric.FuncWithDerivative{
		F:  func(x float64) float64 { return (x - 1) * (x - 1) },
		DF: func(x float64) float64 { return 2 * (x - 1) },
	}

	plain := FindAllRoots(f, -2, 3, Config{})
	require.Equal(t, numeric.OK, plain.Status)
	require.Empty(t, plain.Roots, "a double root is invisible to sign changes")

	r := FindAllRootsWithDerivative(f, -2, 3, Config{})
	require.Equal(t, numeric.OK, r.Status)
	require.Len(t, r.Roots, 1)
	require.InDelta(t, 1, r.Roots[0], 1e-9)
}

func TestFindAllRootsWithDerivativeMixed(t *testing.T) {
	// x(x - 2)² has a crossing at 0 and a tangential root at 2, plus a
	// local maximum at 2/3 that must not be reported.
	f := numeric.FuncWithDerivative{
		F:  func(x float64) float64 { return x * (x - 2) * (x - 2) },
		DF: func(x float64) float64 { return (x - 2) * (3*x - 2) },
	}
	r := FindAllRootsWithDerivative(f, -1, 4, Config{NbSamples: 37})
	require.Equal(t, numeric.OK, r.Status)
	require.InDeltaSlice(t, []float64{0, 2}, r.Roots, 1e-9)
}

func TestFindAllRootsFailure(t *testing.T) {
	f := numeric.Func(func(x float64) float64 {
		if x > 1 {
			return math.NaN()
		}
		return x
	})
	r := FindAllRoots(f, -1, 2, Config{})
	require.Equal(t, numeric.NumericalError, r.Status)
	require.Nil(t, r.Roots)

	// A failure while refining a bracket discards the roots already found.
	g := numeric.Func(func(x float64) float64 {
		if x > 0.9 && x < 1.1 {
			panic("hole")
		}
		return math.Sin(math.Pi * x)
	})
	r = FindAllRoots(g, -1.5, 2.5, Config{NbSamples: 10})
	require.Equal(t, numeric.NumericalError, r.Status)
	require.Nil(t, r.Roots)
}

func TestFindAllRootsInvalid(t *testing.T) {
	f := numeric.Func(func(x float64) float64 { return x })
	require.Equal(t, numeric.InvalidInput, FindAllRoots(f, 1, -1, Config{}).Status)
	require.Equal(t, numeric.InvalidInput, FindAllRoots(f, math.NaN(), 1, Config{}).Status)
}

func TestFindAllRootsMinSamples(t *testing.T) {
	var calls int
	f := numeric.Func(func(x float64) float64 { calls++; return x*x + 1 })
	r := FindAllRoots(f, 0, 1, Config{NbSamples: 3})
	require.Equal(t, MinSamples, calls)
	require.Equal(t, MinSamples, r.NumEval)
}
