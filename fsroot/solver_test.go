// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fsroot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/curioloop/rootfind/numeric"
)

// linear is 𝐀𝐱 - 𝐛 with a row-major m×n matrix.
type linear struct {
	m, n int
	a    []float64
	b    []float64
}

func (l linear) NbVariables() int { return l.n }
func (l linear) NbEquations() int { return l.m }

func (l linear) Value(x, f numeric.Vector) bool {
	xr, fr := x.Raw(), f.Raw()
	for i := 0; i < l.m; i++ {
		fr[i] = -l.b[i]
		for j := 0; j < l.n; j++ {
			fr[i] += l.a[i*l.n+j] * xr[j]
		}
	}
	return true
}

func (l linear) Derivatives(x numeric.Vector, d numeric.Matrix) bool {
	for i := 0; i < l.m; i++ {
		for j := 0; j < l.n; j++ {
			d.Dense().Set(i, j, l.a[i*l.n+j])
		}
	}
	return true
}

var system2x2 = linear{m: 2, n: 2, a: []float64{2, 1, 1, 2}, b: []float64{5, 4}}

// funcSet builds a fused function set from closures.
type funcSet struct {
	n, m int
	eval func(x, f []float64, d numeric.Matrix) bool
}

func (s funcSet) NbVariables() int { return s.n }
func (s funcSet) NbEquations() int { return s.m }

func (s funcSet) Value(x, f numeric.Vector) bool {
	return s.eval(x.Raw(), f.Raw(), numeric.NewMatrix(1, s.m, 1, s.n))
}

func (s funcSet) Derivatives(x numeric.Vector, d numeric.Matrix) bool {
	return s.eval(x.Raw(), make([]float64, s.m), d)
}

func (s funcSet) Values(x, f numeric.Vector, d numeric.Matrix) bool {
	return s.eval(x.Raw(), f.Raw(), d)
}

func newSolver(t *testing.T, p Problem) *Solver {
	t.Helper()
	s, err := p.New(nil)
	require.NoError(t, err)
	return s
}

func TestLinearSystem(t *testing.T) {
	s := newSolver(t, Problem{Func: system2x2, Tolerance: numeric.Vec(1e-10, 1e-10)})
	st := s.Perform(numeric.Vec(0, 0))

	require.Equal(t, numeric.OK, st)
	require.True(t, s.IsDone())
	require.Equal(t, StopFunction, s.StateNumber())
	require.LessOrEqual(t, s.NbIterations(), 10)
	require.InDeltaSlice(t, []float64{2, 1}, s.Root().Raw(), 1e-6)

	jac := s.Derivative()
	require.Equal(t, 2.0, jac.At(1, 1))
	require.Equal(t, 1.0, jac.At(1, 2))
	require.Equal(t, 1.0, jac.At(2, 1))
	require.Equal(t, 2.0, jac.At(2, 2))
	require.LessOrEqual(t, s.FunctionSetErrors().NormInf(), 1e-10)
}

func TestLinearSystemBounded(t *testing.T) {
	s := newSolver(t, Problem{Func: system2x2, Tolerance: numeric.Vec(1e-10)})
	st := s.PerformBounded(numeric.Vec(0, 0), numeric.Vec(0, 0), numeric.Vec(3, 3))

	require.Equal(t, numeric.OK, st)
	root := s.Root()
	box := numeric.Box{Lower: numeric.Vec(0, 0), Upper: numeric.Vec(3, 3)}
	require.True(t, box.Contains(root, 1e-12))
	require.InDeltaSlice(t, []float64{2, 1}, root.Raw(), 1e-6)
}

func TestBoundedRootOutside(t *testing.T) {
	shift := linear{m: 1, n: 1, a: []float64{1}, b: []float64{5}}
	s := newSolver(t, Problem{Func: shift})
	st := s.PerformBounded(numeric.Vec(1), numeric.Vec(0), numeric.Vec(3))

	require.Equal(t, numeric.NotConverged, st)
	require.False(t, s.IsDone())
	require.Equal(t, StopBound, s.StateNumber())
	require.Equal(t, 3.0, s.Root().At(1))
	require.Equal(t, -2.0, s.FunctionSetErrors().At(1))

	// A root on the face of the box is still found.
	s = newSolver(t, Problem{Func: linear{m: 1, n: 1, a: []float64{1}, b: []float64{3}}})
	require.Equal(t, numeric.OK, s.PerformBounded(numeric.Vec(1), numeric.Vec(0), numeric.Vec(3)))
	require.True(t, s.IsDone())
	require.InDelta(t, 3, s.Root().At(1), 1e-12)
}

func TestNonlinear(t *testing.T) {
	fs := funcSet{n: 2, m: 2, eval: func(x, f []float64, d numeric.Matrix) bool {
		f[0] = x[0]*x[0] - 2
		f[1] = x[0]*x[1] - 1
		d.Set(1, 1, 2*x[0])
		d.Set(1, 2, 0)
		d.Set(2, 1, x[1])
		d.Set(2, 2, x[0])
		return true
	}}
	s := newSolver(t, Problem{Func: fs, Tolerance: numeric.Vec(1e-12)})
	require.Equal(t, numeric.OK, s.Perform(numeric.Vec(1, 1)))
	require.InDelta(t, math.Sqrt2, s.Root().At(1), 1e-10)
	require.InDelta(t, 1/math.Sqrt2, s.Root().At(2), 1e-10)
	require.Less(t, s.NbIterations(), 10)
}

func TestOverdetermined(t *testing.T) {
	fs := linear{m: 3, n: 2, a: []float64{1, 1, 1, -1, 2, 1}, b: []float64{3, 1, 5}}
	s := newSolver(t, Problem{Func: fs, Tolerance: numeric.Vec(1e-9)})
	require.Equal(t, numeric.OK, s.Perform(numeric.Vec(0, 0)))
	require.InDeltaSlice(t, []float64{2, 1}, s.Root().Raw(), 1e-8)

	// An inconsistent system settles at the least squares solution by the step criterion.
	fs = linear{m: 3, n: 1, a: []float64{1, 1, 1}, b: []float64{1, 2, 6}}
	s = newSolver(t, Problem{Func: fs})
	require.Equal(t, numeric.OK, s.Perform(numeric.Vec(0)))
	require.Equal(t, StopStep, s.StateNumber())
	require.InDelta(t, 3, s.Root().At(1), 1e-12)
}

func TestSingular(t *testing.T) {
	fs := linear{m: 2, n: 2, a: []float64{1, 1, 2, 2}, b: []float64{1, 2}}
	s := newSolver(t, Problem{Func: fs})
	require.Equal(t, numeric.Singular, s.Perform(numeric.Vec(5, 5)))
	require.Equal(t, StopSingular, s.StateNumber())
	require.False(t, s.IsDone())
	require.Equal(t, []float64{5, 5}, s.Root().Raw())
}

func TestDivergent(t *testing.T) {
	atan := funcSet{n: 1, m: 1, eval: func(x, f []float64, d numeric.Matrix) bool {
		f[0] = math.Atan(x[0])
		d.Set(1, 1, 1/(1+x[0]*x[0]))
		return true
	}}

	s := newSolver(t, Problem{Func: atan, StopOnDivergent: true})
	require.Equal(t, numeric.Divergent, s.Perform(numeric.Vec(1.5)))
	require.True(t, s.IsDivergent())
	require.Equal(t, StopDivergent, s.StateNumber())
	require.Equal(t, 1.5, s.Root().At(1), "best iterate restored")
	require.Equal(t, math.Atan(1.5), s.FunctionSetErrors().At(1))

	s = newSolver(t, Problem{Func: atan})
	require.NotEqual(t, numeric.OK, s.Perform(numeric.Vec(1.5)))
	require.False(t, s.IsDivergent())
}

func TestEvaluationFailure(t *testing.T) {
	fs := funcSet{n: 1, m: 1, eval: func(x, f []float64, d numeric.Matrix) bool {
		if x[0] > 2 {
			panic("out of domain")
		}
		f[0] = x[0] - 4
		d.Set(1, 1, 1)
		return true
	}}
	s := newSolver(t, Problem{Func: fs})
	require.Equal(t, numeric.NumericalError, s.Perform(numeric.Vec(0)))
	require.Equal(t, StopEval, s.StateNumber())
	require.Equal(t, 0.0, s.Root().At(1), "previous iterate kept")
	require.Equal(t, -4.0, s.FunctionSetErrors().At(1))
}

func TestMaxIterations(t *testing.T) {
	cubic := funcSet{n: 1, m: 1, eval: func(x, f []float64, d numeric.Matrix) bool {
		f[0] = x[0]*x[0]*x[0] - 8
		d.Set(1, 1, 3*x[0]*x[0])
		return true
	}}
	s := newSolver(t, Problem{Func: cubic, MaxIterations: 2})
	require.Equal(t, numeric.NotConverged, s.Perform(numeric.Vec(10)))
	require.Equal(t, StopMaxIter, s.StateNumber())
	require.Equal(t, 2, s.NbIterations())
	require.True(t, s.Root().IsFinite())
}

func TestInvalid(t *testing.T) {
	_, err := (&Problem{}).New(nil)
	require.ErrorIs(t, err, numeric.ErrInvalidInput)

	wide := linear{m: 1, n: 2, a: []float64{1, 1}, b: []float64{1}}
	_, err = (&Problem{Func: wide}).New(nil)
	require.ErrorIs(t, err, numeric.ErrInvalidInput)

	_, err = (&Problem{Func: system2x2, Tolerance: numeric.Vec(1, 2, 3)}).New(nil)
	require.ErrorIs(t, err, numeric.ErrInvalidInput)

	_, err = (&Problem{Func: system2x2, Tolerance: numeric.Vec(-1)}).New(nil)
	require.ErrorIs(t, err, numeric.ErrInvalidInput)

	s := newSolver(t, Problem{Func: system2x2})
	require.Equal(t, numeric.InvalidInput, s.Perform(numeric.Vec(1, 2, 3)))
	require.Equal(t, StopInvalid, s.StateNumber())
	require.Equal(t, numeric.InvalidInput, s.PerformBounded(numeric.Vec(0, 0), numeric.Vec(1, 1), numeric.Vec(0, 0)))
	require.Equal(t, numeric.InvalidInput, s.PerformBounded(numeric.Vec(0, 0), numeric.Vec(0), numeric.Vec(1)))
}

func TestIdempotent(t *testing.T) {
	fs := funcSet{n: 2, m: 2, eval: func(x, f []float64, d numeric.Matrix) bool {
		f[0] = math.Exp(x[0]) + x[1] - 3
		f[1] = x[0]*x[0] + x[1]*x[1] - 4
		d.Set(1, 1, math.Exp(x[0]))
		d.Set(1, 2, 1)
		d.Set(2, 1, 2*x[0])
		d.Set(2, 2, 2*x[1])
		return true
	}}
	s := newSolver(t, Problem{Func: fs})

	st1 := s.Perform(numeric.Vec(1, 1))
	root1, iter1 := s.Root().Clone(), s.NbIterations()
	st2 := s.Perform(numeric.Vec(1, 1))

	require.Equal(t, st1, st2)
	require.Equal(t, iter1, s.NbIterations())
	require.Equal(t, root1.Raw(), s.Root().Raw())
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := Problem{Func: system2x2}
	s, err := p.New(numeric.NewLogger(numeric.LogEval, zap.New(core)))
	require.NoError(t, err)
	require.Equal(t, numeric.OK, s.Perform(numeric.Vec(0, 0)))

	require.Equal(t, 1, logs.FilterMessage("iteration").Len())
	last := logs.FilterMessage(StopFunction.String()).All()
	require.Len(t, last, 1)
	require.Equal(t, "fsroot", last[0].LoggerName)
}
