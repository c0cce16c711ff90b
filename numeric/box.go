// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numeric

import (
	"fmt"
	"math"
)

// Box is an axis aligned hyper-rectangle given by per-dimension bounds Lower[i] ≤ Upper[i].
// Bounds are compared with vectors by position, index ranges are ignored.
// A zero-width axis is allowed and pins that variable.
type Box struct {
	Lower, Upper Vector
}

// NewBox copies the bounds and validates them.
func NewBox(lower, upper Vector) (Box, error) {
	b := Box{Lower: lower.Clone(), Upper: upper.Clone()}
	if err := b.Validate(); err != nil {
		return Box{}, err
	}
	return b, nil
}

// IsZero reports whether no bounds were given.
func (b Box) IsZero() bool {
	return b.Lower.Len() == 0 && b.Upper.Len() == 0
}

// Dim returns the number of bounded variables.
func (b Box) Dim() int { return b.Lower.Len() }

// Validate checks that both bounds have the same length and lower ≤ upper on every axis.
func (b Box) Validate() error {
	if b.Lower.Len() != b.Upper.Len() {
		return fmt.Errorf("bound sizes %d and %d differ: %w", b.Lower.Len(), b.Upper.Len(), ErrInvalidInput)
	}
	lo, up := b.Lower.Raw(), b.Upper.Raw()
	for i := range lo {
		if math.IsNaN(lo[i]) || math.IsNaN(up[i]) || lo[i] > up[i] {
			return fmt.Errorf("bound range at %d has no feasible solution: %w", i, ErrInvalidInput)
		}
	}
	return nil
}

// Width returns Upper-Lower on axis i (by position).
func (b Box) Width(i int) float64 {
	return b.Upper.Raw()[i] - b.Lower.Raw()[i]
}

// Degenerate reports whether axis i has zero width.
func (b Box) Degenerate(i int) bool {
	return b.Width(i) <= 0
}

// Diagonal returns the length of the box diagonal.
func (b Box) Diagonal() float64 {
	return b.Lower.Distance(b.Upper)
}

// Clamp projects x onto the box in place and reports whether any variable moved.
//
//	𝚙𝚛𝚘𝚓 xᵢ = uᵢ    if xᵢ > uᵢ
//	𝚙𝚛𝚘𝚓 xᵢ = lᵢ    if xᵢ < lᵢ
//	𝚙𝚛𝚘𝚓 xᵢ = xᵢ    otherwise
func (b Box) Clamp(x Vector) (projected bool) {
	if b.IsZero() {
		return false
	}
	lo, up, v := b.Lower.Raw(), b.Upper.Raw(), x.Raw()
	if len(v) != len(lo) {
		panic("numeric: box dimension mismatch")
	}
	for i := range v {
		if v[i] < lo[i] {
			v[i], projected = lo[i], true
		} else if v[i] > up[i] {
			v[i], projected = up[i], true
		}
	}
	return
}

// Contains reports whether x lies inside the box enlarged by tol on every side.
func (b Box) Contains(x Vector, tol float64) bool {
	if b.IsZero() {
		return true
	}
	lo, up, v := b.Lower.Raw(), b.Upper.Raw(), x.Raw()
	if len(v) != len(lo) {
		return false
	}
	for i := range v {
		if v[i] < lo[i]-tol || v[i] > up[i]+tol {
			return false
		}
	}
	return true
}

// Center writes the box midpoint into dst.
func (b Box) Center(dst Vector) {
	lo, up, d := b.Lower.Raw(), b.Upper.Raw(), dst.Raw()
	for i := range d {
		d[i] = 0.5 * (lo[i] + up[i])
	}
}
