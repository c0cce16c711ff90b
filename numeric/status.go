// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numeric

import "errors"

// Status is the outcome shared by every solver of this module.
type Status int

const (
	// OK the solver met one of its convergence criteria.
	OK Status = iota
	// NotConverged iteration budget exhausted without meeting tolerance, best iterate retained.
	NotConverged
	// Singular a required linear solve failed on a non-invertible matrix.
	Singular
	// NumericalError a caller supplied evaluation failed, panicked or returned a non-finite value.
	NumericalError
	// InvalidInput dimension mismatch, degree out of range or degenerate configuration.
	InvalidInput
	// MaxIterations outer iteration limit reached (Levenberg–Marquardt).
	MaxIterations
	// InfiniteSolutions the problem has a continuum of solutions (e.g. identically zero function).
	InfiniteSolutions
	// Divergent the residual kept growing and the iteration was stopped on request.
	Divergent
)

var (
	ErrNotConverged      = errors.New("numeric: not converged")
	ErrSingular          = errors.New("numeric: singular matrix")
	ErrNumerical         = errors.New("numeric: function evaluation failed")
	ErrInvalidInput      = errors.New("numeric: invalid input")
	ErrMaxIterations     = errors.New("numeric: maximum iterations reached")
	ErrInfiniteSolutions = errors.New("numeric: infinite number of solutions")
	ErrDivergent         = errors.New("numeric: iteration diverged")
)

var statusNames = [...]string{
	OK:                "OK",
	NotConverged:      "NotConverged",
	Singular:          "Singular",
	NumericalError:    "NumericalError",
	InvalidInput:      "InvalidInput",
	MaxIterations:     "MaxIterations",
	InfiniteSolutions: "InfiniteSolutions",
	Divergent:         "Divergent",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "Unknown"
	}
	return statusNames[s]
}

// Err maps a non-OK status to its sentinel error so that callers can use errors.Is.
func (s Status) Err() error {
	switch s {
	case OK:
		return nil
	case NotConverged:
		return ErrNotConverged
	case Singular:
		return ErrSingular
	case NumericalError:
		return ErrNumerical
	case InvalidInput:
		return ErrInvalidInput
	case MaxIterations:
		return ErrMaxIterations
	case InfiniteSolutions:
		return ErrInfiniteSolutions
	case Divergent:
		return ErrDivergent
	}
	return errors.New("numeric: unknown status")
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
