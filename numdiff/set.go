// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numdiff

import (
	"github.com/curioloop/rootfind/numeric"
)

// ValueSet is a vector function without an analytic Jacobian.
type ValueSet interface {
	NbVariables() int
	NbEquations() int
	Value(x numeric.Vector, f numeric.Vector) bool
}

// FunctionSet completes a ValueSet with a finite difference Jacobian,
// so it can be handed to the root finders and least squares solvers.
type FunctionSet struct {
	ValueSet
	approx *Approx
}

// NewFunctionSet wraps vs using the difference scheme of spec.
func NewFunctionSet(vs ValueSet, spec Spec) (*FunctionSet, error) {
	as, err := NewApprox(vs.NbVariables(), vs.NbEquations(), spec)
	if err != nil {
		return nil, err
	}
	return &FunctionSet{ValueSet: vs, approx: as}, nil
}

// Derivatives evaluates 𝑭(𝐱) once more and differences it.
func (fs *FunctionSet) Derivatives(x numeric.Vector, d numeric.Matrix) bool {
	f0 := numeric.NewVector(0, fs.approx.M-1)
	return fs.Values(x, f0, d)
}

// Values evaluates 𝑭(𝐱) into f and differences it into d.
func (fs *FunctionSet) Values(x, f numeric.Vector, d numeric.Matrix) bool {
	if !fs.ValueSet.Value(x, f) {
		return false
	}
	return fs.approx.Jacobian(fs.ValueSet.Value, x, f, d)
}
