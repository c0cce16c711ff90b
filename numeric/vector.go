// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numeric

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Vector is a fixed length sequence of reals addressed by an explicit index range [Lower, Upper].
// The range does not have to start at 0 or 1.
//
// A Vector is a view: copies of the struct share storage. Use Clone for an independent copy.
type Vector struct {
	lower int
	data  []float64
}

// NewVector allocates a zero vector indexed from lower to upper inclusive.
func NewVector(lower, upper int) Vector {
	if upper < lower-1 {
		panic(fmt.Sprintf("numeric: invalid vector range [%d,%d]", lower, upper))
	}
	return Vector{lower: lower, data: make([]float64, upper-lower+1)}
}

// NewVectorFrom copies values into a vector whose first index is lower.
func NewVectorFrom(lower int, values ...float64) Vector {
	data := make([]float64, len(values))
	copy(data, values)
	return Vector{lower: lower, data: data}
}

// Vec copies values into a zero-based vector.
func Vec(values ...float64) Vector {
	return NewVectorFrom(0, values...)
}

// Lower returns the first valid index.
func (v Vector) Lower() int { return v.lower }

// Upper returns the last valid index.
func (v Vector) Upper() int { return v.lower + len(v.data) - 1 }

// Len returns the number of elements.
func (v Vector) Len() int { return len(v.data) }

// At returns the element at index i (Lower ≤ i ≤ Upper).
func (v Vector) At(i int) float64 {
	return v.data[v.offset(i)]
}

// Set stores x at index i (Lower ≤ i ≤ Upper).
func (v Vector) Set(i int, x float64) {
	v.data[v.offset(i)] = x
}

func (v Vector) offset(i int) int {
	k := i - v.lower
	if k < 0 || k >= len(v.data) {
		panic(fmt.Sprintf("numeric: index %d out of range [%d,%d]", i, v.lower, v.Upper()))
	}
	return k
}

// Raw returns the backing slice, position 0 being index Lower.
func (v Vector) Raw() []float64 { return v.data }

// VecDense returns a gonum view sharing the storage of v.
func (v Vector) VecDense() *mat.VecDense {
	return mat.NewVecDense(len(v.data), v.data)
}

// Clone returns a deep copy keeping the index range.
func (v Vector) Clone() Vector {
	return NewVectorFrom(v.lower, v.data...)
}

// CopyFrom copies src element by element by position. Lengths must match.
func (v Vector) CopyFrom(src Vector) {
	if len(src.data) != len(v.data) {
		panic("numeric: vector length mismatch")
	}
	copy(v.data, src.data)
}

// Fill sets every element to x.
func (v Vector) Fill(x float64) {
	for i := range v.data {
		v.data[i] = x
	}
}

// Norm returns the euclidean norm.
func (v Vector) Norm() float64 {
	if len(v.data) == 0 {
		return 0
	}
	return floats.Norm(v.data, 2)
}

// NormInf returns the maximum absolute element.
func (v Vector) NormInf() float64 {
	if len(v.data) == 0 {
		return 0
	}
	return floats.Norm(v.data, math.Inf(1))
}

// Distance returns the euclidean distance to o, compared by position.
func (v Vector) Distance(o Vector) float64 {
	if len(o.data) != len(v.data) {
		panic("numeric: vector length mismatch")
	}
	if len(v.data) == 0 {
		return 0
	}
	return floats.Distance(v.data, o.data, 2)
}

// IsFinite reports whether no element is NaN or infinite.
func (v Vector) IsFinite() bool {
	for _, x := range v.data {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func (v Vector) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%d:%d](", v.lower, v.Upper())
	for i, x := range v.data {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%g", x)
	}
	sb.WriteByte(')')
	return sb.String()
}
