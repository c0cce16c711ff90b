// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package multiroot

import (
	"fmt"
	"math"
	"slices"

	"github.com/curioloop/rootfind/brent"
	"github.com/curioloop/rootfind/numeric"
)

// MinSamples is the smallest number of samples used to scan an interval.
const MinSamples = 10

// Config controls the scan and the refinement of every bracket.
type Config struct {
	// Number of uniformly spaced samples including both ends, raised to MinSamples when smaller.
	NbSamples int `yaml:"nb_samples"`
	// Roots closer than XTolerance are merged, also the bracket width at which Brent stops.
	XTolerance float64 `yaml:"x_tolerance"`
	// A point x is a root when |𝒇(x) - 𝚘𝚏𝚏𝚜𝚎𝚝| ≤ FTolerance.
	FTolerance float64 `yaml:"f_tolerance"`
	// The function is identically null when every sample satisfies |𝒇(x) - 𝚘𝚏𝚏𝚜𝚎𝚝| ≤ NullTolerance.
	NullTolerance float64 `yaml:"null_tolerance"`
	// Iteration limit of each refinement.
	MaxIterations int `yaml:"max_iterations"`
	// Solve 𝒇(x) = Offset instead of 𝒇(x) = 0.
	Offset float64 `yaml:"offset"`
}

// DefaultConfig returns the configuration used when fields are left zero.
func DefaultConfig() Config {
	return Config{
		NbSamples:     50,
		XTolerance:    1e-10,
		FTolerance:    1e-10,
		NullTolerance: 1e-12,
		MaxIterations: 100,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.NbSamples <= 0 {
		c.NbSamples = d.NbSamples
	}
	c.NbSamples = max(c.NbSamples, MinSamples)
	if c.XTolerance <= 0 {
		c.XTolerance = d.XTolerance
	}
	if c.FTolerance <= 0 {
		c.FTolerance = d.FTolerance
	}
	if c.NullTolerance <= 0 {
		c.NullTolerance = d.NullTolerance
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	return c
}

// Result lists the roots found on the interval.
type Result struct {
	Status numeric.Status
	// Roots in ascending order, nil when AllNull or on evaluation failure.
	Roots []float64
	// AllNull reports a function identically equal to the offset over the interval.
	AllNull bool
	// Number of function evaluations performed.
	NumEval int
}

// IsDone reports whether the scan completed, including the identically null case.
func (r *Result) IsDone() bool {
	return r.Status == numeric.OK || r.AllNull
}

// NbSolutions returns the number of discrete roots.
func (r *Result) NbSolutions() int { return len(r.Roots) }

func (r Result) String() string {
	return fmt.Sprintf("%v roots=%v null=%t eval=%d", r.Status, r.Roots, r.AllNull, r.NumEval)
}

// shifted evaluates 𝒇(x) - offset.
type shifted struct {
	f   numeric.Function
	off float64
}

func (s shifted) Value(x float64) (float64, bool) {
	v, ok := s.f.Value(x)
	return v - s.off, ok
}

// slope evaluates 𝒇′(x).
type slope struct {
	f numeric.FunctionWithDerivative
}

func (s slope) Value(x float64) (float64, bool) {
	_, d, ok := s.f.Values(x)
	return d, ok
}

type sample struct {
	x, g, dg float64
}

type scanner struct {
	cfg     Config
	g       shifted
	roots   []float64
	status  numeric.Status
	numEval int
}

// FindAllRoots finds every root of 𝒇(x) = Offset on [lower, upper].
//
// The interval is sampled uniformly: a sample within FTolerance is a root, and each
// sign change between adjacent samples is refined by Brent's method.
// Roots touching zero without crossing are only found when they fall on a sample,
// see FindAllRootsWithDerivative.
func FindAllRoots(f numeric.Function, lower, upper float64, cfg Config) Result {
	s, samples, res, ok := scan(f, lower, upper, cfg, func(x float64) (sample, numeric.Status) {
		v, st := numeric.EvalFunc(f, x)
		return sample{x: x, g: v - cfg.Offset}, st
	})
	if !ok {
		return res
	}
	s.brackets(samples)
	return s.result()
}

// FindAllRootsWithDerivative is FindAllRoots with tangential root detection.
//
// Between adjacent samples where 𝒇 - Offset keeps its sign but 𝒇′ changes sign, the
// extremum is located on 𝒇′ and recorded as a root when |𝒇 - Offset| ≤ FTolerance there.
func FindAllRootsWithDerivative(f numeric.FunctionWithDerivative, lower, upper float64, cfg Config) Result {
	s, samples, res, ok := scan(f, lower, upper, cfg, func(x float64) (sample, numeric.Status) {
		v, d, st := numeric.EvalFuncDeriv(f, x)
		return sample{x: x, g: v - cfg.Offset, dg: d}, st
	})
	if !ok {
		return res
	}
	s.brackets(samples)
	if s.status == numeric.OK {
		s.extrema(f, samples)
	}
	return s.result()
}

func scan(f numeric.Function, lower, upper float64, cfg Config,
	eval func(float64) (sample, numeric.Status)) (*scanner, []sample, Result, bool) {

	if math.IsNaN(lower) || math.IsNaN(upper) || math.IsInf(lower, 0) || math.IsInf(upper, 0) || lower > upper {
		return nil, nil, Result{Status: numeric.InvalidInput}, false
	}
	cfg = cfg.withDefaults()
	s := &scanner{cfg: cfg, g: shifted{f: f, off: cfg.Offset}, status: numeric.OK}

	n := cfg.NbSamples
	if lower == upper {
		// a single point holds at most one root
		n = 1
	}
	samples := make([]sample, n)
	step := 0.0
	if n > 1 {
		step = (upper - lower) / float64(n-1)
	}
	allNull := n > 1
	for i := range samples {
		x := lower + float64(i)*step
		if i == n-1 {
			x = upper
		}
		smp, st := eval(x)
		s.numEval++
		if st != numeric.OK {
			return nil, nil, Result{Status: st, NumEval: s.numEval}, false
		}
		samples[i] = smp
		allNull = allNull && math.Abs(smp.g) <= cfg.NullTolerance
	}
	if allNull {
		return nil, nil, Result{Status: numeric.InfiniteSolutions, AllNull: true, NumEval: s.numEval}, false
	}

	for _, smp := range samples {
		if math.Abs(smp.g) <= cfg.FTolerance {
			s.roots = append(s.roots, smp.x)
		}
	}
	return s, samples, Result{}, true
}

func (s *scanner) brentConfig() brent.Config {
	return brent.Config{
		XTolerance:    s.cfg.XTolerance,
		FTolerance:    s.cfg.FTolerance,
		MaxIterations: s.cfg.MaxIterations,
	}
}

// brackets refines every strict sign change between adjacent samples.
func (s *scanner) brackets(samples []sample) {
	ftol := s.cfg.FTolerance
	for i := 1; i < len(samples) && s.status != numeric.NumericalError; i++ {
		a, b := samples[i-1], samples[i]
		if math.Abs(a.g) <= ftol || math.Abs(b.g) <= ftol || math.Signbit(a.g) == math.Signbit(b.g) {
			continue
		}
		r := brent.SolveBracket(s.g, a.x, b.x, a.g, b.g, s.brentConfig())
		s.record(r)
	}
}

// extrema locates the zeros of 𝒇′ between samples where 𝒇 does not change sign.
func (s *scanner) extrema(f numeric.FunctionWithDerivative, samples []sample) {
	ftol := s.cfg.FTolerance
	d := slope{f: f}
	for i := 1; i < len(samples); i++ {
		a, b := samples[i-1], samples[i]
		if math.Abs(a.g) <= ftol || math.Abs(b.g) <= ftol || math.Signbit(a.g) != math.Signbit(b.g) {
			continue
		}
		if a.dg == 0 || b.dg == 0 || math.Signbit(a.dg) == math.Signbit(b.dg) {
			continue
		}
		r := brent.SolveBracket(d, a.x, b.x, a.dg, b.dg, s.brentConfig())
		s.numEval += r.NumEval
		if r.Status != numeric.OK && r.Status != numeric.NotConverged {
			s.status = r.Status
			return
		}
		v, _, st := numeric.EvalFuncDeriv(f, r.Root)
		s.numEval++
		if st != numeric.OK {
			s.status = st
			return
		}
		if math.Abs(v-s.cfg.Offset) <= ftol {
			s.roots = append(s.roots, r.Root)
		}
	}
}

func (s *scanner) record(r brent.Result) {
	s.numEval += r.NumEval
	switch r.Status {
	case numeric.OK:
		s.roots = append(s.roots, r.Root)
	case numeric.NotConverged:
		// The bracket still holds a root, keep the best estimate.
		s.roots = append(s.roots, r.Root)
		s.status = numeric.NotConverged
	default:
		s.status = r.Status
	}
}

func (s *scanner) result() Result {
	if s.status == numeric.NumericalError {
		return Result{Status: s.status, NumEval: s.numEval}
	}
	slices.Sort(s.roots)
	roots := s.roots[:0]
	for _, x := range s.roots {
		if len(roots) > 0 && x-roots[len(roots)-1] <= s.cfg.XTolerance {
			continue
		}
		roots = append(roots, x)
	}
	return Result{Status: s.status, Roots: roots, NumEval: s.numEval}
}
