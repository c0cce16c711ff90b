// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numeric

// FunctionSet is a vector function 𝑭(𝐱) : ℝⁿ → ℝᵐ with an analytic Jacobian.
//
// Value and Derivatives write into caller provided storage and report false when
// the evaluation is not possible at x. The solvers never retain the function after a call returns.
type FunctionSet interface {
	// NbVariables returns n.
	NbVariables() int
	// NbEquations returns m.
	NbEquations() int
	// Value stores 𝑭(𝐱) into f (length m).
	Value(x Vector, f Vector) bool
	// Derivatives stores the m×n Jacobian 𝜕𝑭ᵢ/𝜕𝐱ⱼ into d.
	Derivatives(x Vector, d Matrix) bool
}

// FunctionSetWithValues is implemented by sets that evaluate 𝑭 and its Jacobian together.
type FunctionSetWithValues interface {
	FunctionSet
	Values(x Vector, f Vector, d Matrix) bool
}

// ScalarFunction is a multivariate objective 𝒇(𝐱) : ℝⁿ → ℝ.
type ScalarFunction interface {
	NbVariables() int
	Value(x Vector) (float64, bool)
}

// Function is a univariate function 𝒇(x) : ℝ → ℝ.
type Function interface {
	Value(x float64) (float64, bool)
}

// FunctionWithDerivative is a univariate function that also returns 𝒇′(x).
type FunctionWithDerivative interface {
	Function
	Values(x float64) (f, df float64, ok bool)
}

// Func adapts an ordinary Go function to Function. It never fails.
type Func func(x float64) float64

func (fn Func) Value(x float64) (float64, bool) { return fn(x), true }

// FuncWithDerivative adapts a pair of Go functions to FunctionWithDerivative.
type FuncWithDerivative struct {
	F, DF func(x float64) float64
}

func (fn FuncWithDerivative) Value(x float64) (float64, bool) { return fn.F(x), true }

func (fn FuncWithDerivative) Values(x float64) (float64, float64, bool) {
	return fn.F(x), fn.DF(x), true
}

// ScalarFunc adapts an ordinary Go function of n variables to ScalarFunction.
type ScalarFunc struct {
	N int
	F func(x []float64) float64
}

func (fn ScalarFunc) NbVariables() int { return fn.N }

func (fn ScalarFunc) Value(x Vector) (float64, bool) { return fn.F(x.Raw()), true }
