// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numeric

import "math"

// The Eval helpers run caller callbacks under recover. A panic, a false ok flag or a
// non-finite output all become NumericalError, so the solvers can discard the partial
// output and keep their previous iterate.

// EvalValue evaluates 𝑭(𝐱) into f.
func EvalValue(fs FunctionSet, x, f Vector) (st Status) {
	defer func() {
		if r := recover(); r != nil {
			st = NumericalError
		}
	}()
	if !fs.Value(x, f) || !f.IsFinite() {
		return NumericalError
	}
	return OK
}

// EvalValues evaluates 𝑭(𝐱) into f and the Jacobian into d, using the fused
// Values when the set provides it.
func EvalValues(fs FunctionSet, x, f Vector, d Matrix) (st Status) {
	defer func() {
		if r := recover(); r != nil {
			st = NumericalError
		}
	}()
	var ok bool
	if fv, fused := fs.(FunctionSetWithValues); fused {
		ok = fv.Values(x, f, d)
	} else {
		ok = fs.Value(x, f) && fs.Derivatives(x, d)
	}
	if !ok || !f.IsFinite() || !d.IsFinite() {
		return NumericalError
	}
	return OK
}

// EvalScalar evaluates a multivariate objective.
func EvalScalar(fn ScalarFunction, x Vector) (v float64, st Status) {
	defer func() {
		if r := recover(); r != nil {
			v, st = math.NaN(), NumericalError
		}
	}()
	v, ok := fn.Value(x)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN(), NumericalError
	}
	return v, OK
}

// EvalFunc evaluates a univariate function.
func EvalFunc(fn Function, x float64) (v float64, st Status) {
	defer func() {
		if r := recover(); r != nil {
			v, st = math.NaN(), NumericalError
		}
	}()
	v, ok := fn.Value(x)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN(), NumericalError
	}
	return v, OK
}

// EvalFuncDeriv evaluates a univariate function and its derivative.
func EvalFuncDeriv(fn FunctionWithDerivative, x float64) (v, dv float64, st Status) {
	defer func() {
		if r := recover(); r != nil {
			v, dv, st = math.NaN(), math.NaN(), NumericalError
		}
	}()
	v, dv, ok := fn.Values(x)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) || math.IsNaN(dv) || math.IsInf(dv, 0) {
		return math.NaN(), math.NaN(), NumericalError
	}
	return v, dv, OK
}
