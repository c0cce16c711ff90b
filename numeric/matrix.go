// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numeric

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense real matrix with independent row and column index ranges.
// Storage is a row-major gonum Dense, so copies of the struct share data.
type Matrix struct {
	rowLower, colLower int
	dense              *mat.Dense
}

// NewMatrix allocates a zero matrix with rows [rowLower,rowUpper] and columns [colLower,colUpper].
func NewMatrix(rowLower, rowUpper, colLower, colUpper int) Matrix {
	r, c := rowUpper-rowLower+1, colUpper-colLower+1
	if r <= 0 || c <= 0 {
		panic(fmt.Sprintf("numeric: invalid matrix range [%d,%d]x[%d,%d]", rowLower, rowUpper, colLower, colUpper))
	}
	return Matrix{rowLower: rowLower, colLower: colLower, dense: mat.NewDense(r, c, nil)}
}

// MatrixFrom wraps row-major data into a zero-based r×c matrix. The data slice is copied.
func MatrixFrom(r, c int, data ...float64) Matrix {
	if len(data) != r*c {
		panic("numeric: matrix data length mismatch")
	}
	m := NewMatrix(0, r-1, 0, c-1)
	copy(m.dense.RawMatrix().Data, data)
	return m
}

// Rows returns the number of rows.
func (m Matrix) Rows() int {
	if m.dense == nil {
		return 0
	}
	r, _ := m.dense.Dims()
	return r
}

// Cols returns the number of columns.
func (m Matrix) Cols() int {
	if m.dense == nil {
		return 0
	}
	_, c := m.dense.Dims()
	return c
}

func (m Matrix) LowerRow() int { return m.rowLower }
func (m Matrix) UpperRow() int { return m.rowLower + m.Rows() - 1 }
func (m Matrix) LowerCol() int { return m.colLower }
func (m Matrix) UpperCol() int { return m.colLower + m.Cols() - 1 }

// IsEmpty reports whether the matrix was never allocated.
func (m Matrix) IsEmpty() bool { return m.dense == nil }

// Dense returns the gonum storage, row 0 being LowerRow.
func (m Matrix) Dense() *mat.Dense { return m.dense }

// At returns the element at row i, column j in the matrix index ranges.
func (m Matrix) At(i, j int) float64 {
	return m.dense.At(i-m.rowLower, j-m.colLower)
}

// Set stores v at row i, column j in the matrix index ranges.
func (m Matrix) Set(i, j int, v float64) {
	m.dense.Set(i-m.rowLower, j-m.colLower, v)
}

// Clone returns a deep copy keeping the index ranges.
func (m Matrix) Clone() Matrix {
	if m.dense == nil {
		return m
	}
	return Matrix{rowLower: m.rowLower, colLower: m.colLower, dense: mat.DenseCopyOf(m.dense)}
}

// CopyFrom copies src by position. Shapes must match.
func (m Matrix) CopyFrom(src Matrix) {
	if m.Rows() != src.Rows() || m.Cols() != src.Cols() {
		panic("numeric: matrix shape mismatch")
	}
	m.dense.Copy(src.dense)
}

// Zero sets every element to zero.
func (m Matrix) Zero() {
	m.dense.Zero()
}

// IsFinite reports whether no element is NaN or infinite.
func (m Matrix) IsFinite() bool {
	for _, x := range m.dense.RawMatrix().Data {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func (m Matrix) String() string {
	if m.dense == nil {
		return "[]"
	}
	return fmt.Sprintf("[%d:%d]x[%d:%d]\n%v", m.rowLower, m.UpperRow(), m.colLower, m.UpperCol(),
		mat.Formatted(m.dense))
}
