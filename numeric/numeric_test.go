// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numeric

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestVectorRange(t *testing.T) {
	v := NewVector(3, 5)
	require.Equal(t, 3, v.Lower())
	require.Equal(t, 5, v.Upper())
	require.Equal(t, 3, v.Len())

	v.Set(4, 2)
	require.Equal(t, 2.0, v.At(4))
	require.Equal(t, []float64{0, 2, 0}, v.Raw())
	require.Panics(t, func() { v.At(2) })
	require.Panics(t, func() { v.Set(6, 1) })
	require.Panics(t, func() { NewVector(3, 1) })

	empty := NewVector(1, 0)
	require.Zero(t, empty.Len())
	require.Zero(t, empty.Norm())
}

func TestVectorView(t *testing.T) {
	v := Vec(3, 4)
	alias := v
	alias.Set(0, 6)
	require.Equal(t, 6.0, v.At(0), "copies share storage")

	c := v.Clone()
	c.Set(0, 0)
	require.Equal(t, 6.0, v.At(0), "clones do not")

	v.VecDense().ScaleVec(0.5, v.VecDense())
	require.Equal(t, []float64{3, 2}, v.Raw())

	require.InDelta(t, math.Sqrt(13), v.Norm(), 1e-15)
	require.Equal(t, 3.0, v.NormInf())
	require.InDelta(t, 5, Vec(0, 0).Distance(Vec(3, 4)), 1e-15)
	require.Equal(t, "[0:1](3, 2)", v.String())

	require.False(t, Vec(1, math.Inf(1)).IsFinite())
	require.Panics(t, func() { v.CopyFrom(Vec(1, 2, 3)) })
}

func TestMatrix(t *testing.T) {
	m := NewMatrix(1, 2, 0, 2)
	require.Equal(t, 2, m.Rows())
	require.Equal(t, 3, m.Cols())
	require.Equal(t, 2, m.UpperRow())
	require.Equal(t, 2, m.UpperCol())

	m.Set(2, 1, 7)
	require.Equal(t, 7.0, m.At(2, 1))
	require.Equal(t, 7.0, m.Dense().At(1, 1))
	require.Panics(t, func() { m.At(0, 0) })

	c := m.Clone()
	c.Zero()
	require.Equal(t, 7.0, m.At(2, 1))

	var empty Matrix
	require.True(t, empty.IsEmpty())
	require.Zero(t, empty.Rows())
	require.Zero(t, empty.Cols())

	f := MatrixFrom(2, 2, 1, 2, 3, 4)
	require.Equal(t, 3.0, f.At(1, 0))
	f.Set(0, 0, math.NaN())
	require.False(t, f.IsFinite())
}

func TestBox(t *testing.T) {
	_, err := NewBox(Vec(0, 1), Vec(1, 0))
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = NewBox(Vec(0), Vec(1, 2))
	require.ErrorIs(t, err, ErrInvalidInput)

	b, err := NewBox(Vec(0, 1), Vec(2, 1))
	require.NoError(t, err)
	require.Equal(t, 2, b.Dim())
	require.False(t, b.Degenerate(0))
	require.True(t, b.Degenerate(1))
	require.Equal(t, 2.0, b.Diagonal())

	x := Vec(-1, 5)
	require.True(t, b.Clamp(x))
	require.Equal(t, []float64{0, 1}, x.Raw())
	require.False(t, b.Clamp(x))

	require.True(t, b.Contains(Vec(2.05, 1), 0.1))
	require.False(t, b.Contains(Vec(2.05, 1), 0))

	mid := NewVector(1, 2)
	b.Center(mid)
	require.Equal(t, []float64{1, 1}, mid.Raw())

	var free Box
	require.True(t, free.IsZero())
	require.False(t, free.Clamp(x))
	require.True(t, free.Contains(Vec(1e300), 0))
}

func TestStatus(t *testing.T) {
	require.NoError(t, OK.Err())
	require.True(t, errors.Is(Singular.Err(), ErrSingular))
	require.True(t, errors.Is(Divergent.Err(), ErrDivergent))
	require.Equal(t, "InfiniteSolutions", InfiniteSolutions.String())
	require.Equal(t, "Unknown", Status(42).String())

	text, err := NumericalError.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "NumericalError", string(text))
}

type brokenSet struct{ mode int }

func (brokenSet) NbVariables() int { return 1 }
func (brokenSet) NbEquations() int { return 1 }

func (s brokenSet) Value(x, f Vector) bool {
	switch s.mode {
	case 0:
		return false
	case 1:
		panic("boom")
	default:
		f.Set(0, math.NaN())
		return true
	}
}

func (s brokenSet) Derivatives(x Vector, d Matrix) bool {
	d.Set(0, 0, 1)
	return true
}

func TestEvalGuards(t *testing.T) {
	x, f, d := Vec(1), Vec(0), MatrixFrom(1, 1, 0)
	for mode := 0; mode < 3; mode++ {
		require.Equal(t, NumericalError, EvalValue(brokenSet{mode}, x, f))
		require.Equal(t, NumericalError, EvalValues(brokenSet{mode}, x, f, d))
	}

	v, st := EvalFunc(Func(func(x float64) float64 { return 1 / x }), 0)
	require.Equal(t, NumericalError, st)
	require.True(t, math.IsNaN(v))

	v, st = EvalFunc(Func(math.Sqrt), 4)
	require.Equal(t, OK, st)
	require.Equal(t, 2.0, v)

	_, _, st = EvalFuncDeriv(FuncWithDerivative{
		F:  func(x float64) float64 { return x },
		DF: func(x float64) float64 { panic("no derivative") },
	}, 1)
	require.Equal(t, NumericalError, st)

	s, st := EvalScalar(ScalarFunc{N: 2, F: func(x []float64) float64 { return x[0] * x[1] }}, Vec(2, 3))
	require.Equal(t, OK, st)
	require.Equal(t, 6.0, s)
}

func TestLogger(t *testing.T) {
	var nilLog *Logger
	require.False(t, nilLog.Enable(LogLast))
	require.Nil(t, nilLog.Named("x"))
	nilLog.Log("ignored")

	core, logs := observer.New(zap.InfoLevel)
	log := NewLogger(LogEval, zap.New(core)).Named("fsroot")
	require.True(t, log.Enable(LogEval))
	require.False(t, log.Enable(LogTrace))

	log.Log("iteration", zap.Int("iter", 1))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	require.Equal(t, "fsroot", entry.LoggerName)
	require.Equal(t, int64(1), entry.ContextMap()["iter"])
}
