// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package globopt

import (
	"cmp"
	"container/heap"
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/curioloop/rootfind/numdiff"
	"github.com/curioloop/rootfind/numeric"
)

const (
	// Local descents started in find-all mode.
	maxStarts = 16
	// Iterations of one gradient descent.
	maxDescent = 500
	// Sufficient decrease factor of the backtracking line search.
	armijo = 1e-4
	// Local descents stop when steps fall below localTolerance × max(1, box diagonal).
	localTolerance = 1e-9
)

// Lipschitz estimates are inflated by a safety factor that shrinks as the objective gets smoother.
var safety = [...]float64{2, 1.5, 1.2}

// Extremum is a local minimum located by the search.
type Extremum struct {
	Point numeric.Vector // Indexed from 1.
	F     float64
}

// Optimizer searches the global minimum of a scalar function over a box.
//
// The box is first cut into a grid of cells sampled at their centers. A cell can not hold
// a value below 𝒇(𝐜) - L·r where 𝐜 is its center, r its half diagonal and L an estimate
// of the Lipschitz constant drawn from the sampled slopes. Cells are visited in order of
// that bound and trisected along their widest axis until they are either excluded by the best
// value found so far or smaller than the tolerance. The surviving cells seed local descents:
// a compass search for continuous objectives and a projected gradient descent with finite
// difference gradients when the objective is known to be differentiable.
//
// # Reference
//
//   - D.R. Jones, C.D. Perttunen, B.E. Stuckman: "Lipschitzian optimization without the Lipschitz constant",
//     Journal of Optimization Theory and Applications 79, 1993.
//   - S.A. Piyavskii: "An algorithm for finding the absolute extremum of a function",
//     USSR Computational Mathematics and Mathematical Physics 12, 1972.
//
// An Optimizer must not be shared between goroutines.
type Optimizer struct {
	fn      numeric.ScalarFunction
	n       int
	domain  numeric.Box
	box     numeric.Box
	nbGrid  int
	tol     float64
	sameTol float64
	valTol  float64
	maxEval int
	fmin    float64
	cont    int
	lipLock bool
	log     *numeric.Logger

	lip      float64
	lipKnown bool
	approx   *numdiff.Approx

	xs        numeric.Vector
	nEval     int
	bestX     []float64
	bestF     float64
	failed    bool
	exhausted bool
	extrema   []Extremum
	current   int
	status    numeric.Status
}

// SetLocalParams narrows the search box used by the next Perform.
// The new box must lie inside the bounds of the problem.
func (o *Optimizer) SetLocalParams(lower, upper numeric.Vector) error {
	box := numeric.Box{Lower: lower.Clone(), Upper: upper.Clone()}
	if box.Dim() != o.n {
		return fmt.Errorf("bound size %d must equal %d variables: %w", box.Dim(), o.n, numeric.ErrInvalidInput)
	}
	if err := box.Validate(); err != nil {
		return err
	}
	if !o.domain.Contains(box.Lower, 0) || !o.domain.Contains(box.Upper, 0) {
		return fmt.Errorf("local bounds exceed the problem bounds: %w", numeric.ErrInvalidInput)
	}
	o.box = box
	return nil
}

// SetFunctionalMinimalValue gives a known lower bound of the objective, -∞ by default.
func (o *Optimizer) SetFunctionalMinimalValue(v float64) { o.fmin = v }

// SetContinuity declares how many continuous derivatives the objective has (0, 1 or 2).
func (o *Optimizer) SetContinuity(n int) error {
	if n < 0 || n >= len(safety) {
		return fmt.Errorf("continuity %d must lie in [0,2]: %w", n, numeric.ErrInvalidInput)
	}
	o.cont = n
	return nil
}

// SetLipConstState locks the Lipschitz estimate. A locked estimate is computed once
// and reused by every later Perform, otherwise each Perform estimates it again.
func (o *Optimizer) SetLipConstState(locked bool) { o.lipLock = locked }

// Perform runs the search. With findSingle set it returns as soon as the most promising cell
// is resolved and keeps one extremum, otherwise every minimum tying with the best one is kept.
func (o *Optimizer) Perform(findSingle bool) numeric.Status {
	o.reset()

	if o.cont > 0 {
		approx, err := numdiff.NewApprox(o.n, 1, numdiff.Spec{Method: numdiff.Central, Bounds: o.box})
		if err != nil {
			return o.finish(numeric.InvalidInput)
		}
		o.approx = approx
	}

	leaves := o.search(findSingle)
	if !o.failed && !o.exhausted {
		o.descend(leaves, findSingle)
	}
	o.collect(findSingle)

	switch {
	case o.failed:
		return o.finish(numeric.NumericalError)
	case o.exhausted:
		return o.finish(numeric.NotConverged)
	}
	return o.finish(numeric.OK)
}

func (o *Optimizer) reset() {
	o.nEval = 0
	o.bestX = o.bestX[:0]
	o.bestF = math.Inf(1)
	o.failed, o.exhausted = false, false
	o.extrema = o.extrema[:0]
	o.current = 0
	if !o.lipLock {
		o.lipKnown = false
	}
}

func (o *Optimizer) finish(status numeric.Status) numeric.Status {
	o.status = status
	if o.log.Enable(numeric.LogLast) {
		o.log.Log("perform",
			zap.Stringer("status", status),
			zap.Int("eval", o.nEval),
			zap.Int("extrema", len(o.extrema)),
			zap.Float64("lipschitz", o.lip),
			zap.Float64("f", o.GetF()))
	}
	return status
}

// eval samples the objective and tracks the best point.
func (o *Optimizer) eval(x []float64) (float64, bool) {
	if o.nEval >= o.maxEval {
		o.exhausted = true
		return math.NaN(), false
	}
	copy(o.xs.Raw(), x)
	v, st := numeric.EvalScalar(o.fn, o.xs)
	o.nEval++
	if st != numeric.OK {
		o.failed = true
		return v, false
	}
	if v < o.bestF {
		o.bestF = v
		o.bestX = append(o.bestX[:0], x...)
	}
	return v, true
}

func (o *Optimizer) tie() float64 {
	return o.valTol * math.Max(1, math.Abs(o.bestF))
}

func (o *Optimizer) minRadius() float64 {
	return o.tol * o.box.Diagonal()
}

// grid samples the initial cells and estimates the Lipschitz constant from neighbor slopes.
func (o *Optimizer) grid() ([]*cell, bool) {
	lo, up := o.box.Lower.Raw(), o.box.Upper.Raw()
	active := 0
	for i := range lo {
		if up[i] > lo[i] {
			active++
		}
	}
	k := o.nbGrid
	for k > 1 && math.Pow(float64(k), float64(active)) > float64(o.maxEval)/4 {
		k--
	}

	counts := make([]int, o.n)
	total := 1
	for i := range counts {
		counts[i] = 1
		if up[i] > lo[i] {
			counts[i] = k
		}
		total *= counts[i]
	}

	cells := make([]*cell, 0, total)
	idx := make([]int, o.n)
	for range total {
		l, h := make([]float64, o.n), make([]float64, o.n)
		for i, j := range idx {
			w := (up[i] - lo[i]) / float64(counts[i])
			l[i], h[i] = lo[i]+float64(j)*w, lo[i]+float64(j+1)*w
			if j == counts[i]-1 {
				h[i] = up[i]
			}
		}
		c := newCell(l, h)
		v, ok := o.eval(c.x)
		if !ok {
			return cells, false
		}
		c.f = v
		cells = append(cells, c)
		// axis 0 runs fastest
		for i := range idx {
			if idx[i]++; idx[i] < counts[i] {
				break
			}
			idx[i] = 0
		}
	}

	if !o.lipLock || !o.lipKnown {
		slope, stride := 0.0, 1
		for i, ni := range counts {
			for j, c := range cells {
				if (j/stride)%ni == ni-1 {
					continue
				}
				d := cells[j+stride]
				slope = math.Max(slope, math.Abs(d.f-c.f)/(d.x[i]-c.x[i]))
			}
			stride *= ni
		}
		o.lip, o.lipKnown = safety[o.cont]*slope, true
	}
	return cells, true
}

// search runs the branch and bound and returns the resolved cells that may hold the minimum.
func (o *Optimizer) search(findSingle bool) []*cell {
	cells, ok := o.grid()
	if !ok {
		return nil
	}
	if o.log.Enable(numeric.LogEval) {
		o.log.Log("grid",
			zap.Int("cells", len(cells)),
			zap.Float64("lipschitz", o.lip),
			zap.Float64("f", o.bestF))
	}

	minRadius := o.minRadius()
	q := make(cellQueue, 0, len(cells))
	for _, c := range cells {
		c.key = c.bound(o.lip, o.fmin)
		heap.Push(&q, c)
	}

	var leaves []*cell
	splits := 0
	for q.Len() > 0 {
		eps := o.tie()
		if findSingle && o.bestF <= o.fmin+eps {
			break
		}
		c := heap.Pop(&q).(*cell)
		if c.key > o.bestF+eps {
			break
		}
		improve := c.key < o.bestF-eps
		tie := !findSingle && c.f > o.bestF+eps
		axis, width := c.widest()
		if c.radius <= minRadius || width == 0 || !(improve || tie) {
			leaves = append(leaves, c)
			if findSingle {
				// the lowest bound is resolved, no other cell can do better
				break
			}
			continue
		}

		left, mid, right := c.trisect(axis)
		if left.f, ok = o.eval(left.x); !ok {
			break
		}
		if right.f, ok = o.eval(right.x); !ok {
			break
		}
		splits++

		if !o.lipLock {
			s := math.Max(math.Abs(left.f-c.f), math.Abs(right.f-c.f)) / (width / 3)
			if l := safety[o.cont] * s; l > o.lip {
				o.lip = l
				q.rebound(o.lip, o.fmin)
			}
		}
		for _, ch := range [...]*cell{left, mid, right} {
			ch.key = ch.bound(o.lip, o.fmin)
			heap.Push(&q, ch)
		}
		if o.log.Enable(numeric.LogTrace) {
			o.log.Log("split",
				zap.Int("axis", axis),
				zap.Float64("radius", c.radius),
				zap.Float64("bound", c.key),
				zap.Float64("f", o.bestF))
		}
	}

	eps := o.tie()
	leaves = slices.DeleteFunc(leaves, func(c *cell) bool { return c.key > o.bestF+eps })
	if o.log.Enable(numeric.LogEval) {
		o.log.Log("branch",
			zap.Int("splits", splits),
			zap.Int("leaves", len(leaves)),
			zap.Int("eval", o.nEval),
			zap.Float64("lipschitz", o.lip),
			zap.Float64("f", o.bestF))
	}
	return leaves
}

// descend refines the best sample, or every basin among the leaves in find-all mode.
func (o *Optimizer) descend(leaves []*cell, findSingle bool) {
	type start struct {
		x       []float64
		f, step float64
	}
	var starts []start
	if findSingle || len(leaves) == 0 {
		starts = append(starts, start{slices.Clone(o.bestX), o.bestF, 2 * o.minRadius()})
	} else {
		slices.SortStableFunc(leaves, func(a, b *cell) int { return cmp.Compare(a.f, b.f) })
		for i, c := range leaves {
			basin := true
			for _, d := range leaves[:i] {
				if floats.Distance(c.x, d.x, 2) <= (c.radius+d.radius)*(1+1e-9) {
					basin = false
					break
				}
			}
			if basin {
				_, w := c.widest()
				starts = append(starts, start{slices.Clone(c.x), c.f, w})
				if len(starts) == maxStarts {
					break
				}
			}
		}
	}

	for _, s := range starts {
		var x []float64
		var f float64
		var ok bool
		if o.cont == 0 {
			x, f, ok = o.compass(s.x, s.f, s.step)
		} else {
			x, f, ok = o.projected(s.x, s.f, s.step)
		}
		o.merge(x, f)
		if o.log.Enable(numeric.LogEval) {
			o.log.Log("descent",
				zap.Float64("from", s.f),
				zap.Float64("to", f),
				zap.Int("eval", o.nEval))
		}
		if !ok {
			return
		}
	}
}

func (o *Optimizer) xtol() float64 {
	return localTolerance * math.Max(1, o.box.Diagonal())
}

func (o *Optimizer) clamp(v float64, i int) float64 {
	return math.Min(math.Max(v, o.box.Lower.Raw()[i]), o.box.Upper.Raw()[i])
}

// compass polls ±step along every free axis and halves the step when no poll improves.
func (o *Optimizer) compass(x []float64, f, step float64) ([]float64, float64, bool) {
	xtol := o.xtol()
	trial := make([]float64, len(x))
	for step > xtol {
		moved := false
		for i := range x {
			if o.box.Degenerate(i) {
				continue
			}
			for _, dir := range [...]float64{-1, 1} {
				copy(trial, x)
				if trial[i] = o.clamp(x[i]+dir*step, i); trial[i] == x[i] {
					continue
				}
				v, ok := o.eval(trial)
				if !ok {
					return x, f, false
				}
				if v < f {
					x, trial = trial, x
					f, moved = v, true
					break
				}
			}
		}
		if !moved {
			step /= 2
		}
	}
	return x, f, true
}

// projected runs a projected gradient descent with a backtracking line search.
// With two continuous derivatives the trial step follows the Barzilai-Borwein scaling.
func (o *Optimizer) projected(x []float64, f, step float64) ([]float64, float64, bool) {
	n := len(x)
	xv, g := numeric.NewVector(1, n), numeric.NewVector(1, n)
	trial := make([]float64, n)
	var prevX, prevG []float64
	xtol := o.xtol()
	t := 0.0

	for range maxDescent {
		if o.nEval+2*n > o.maxEval {
			o.exhausted = true
			return x, f, false
		}
		copy(xv.Raw(), x)
		evals, st := o.approx.Gradient(o.fn, xv, f, g)
		o.nEval += evals
		if st != numeric.OK {
			o.failed = true
			return x, f, false
		}
		gr := g.Raw()
		gmax := g.NormInf()
		if gmax == 0 {
			// stationary
			return x, f, true
		}

		switch {
		case t == 0:
			t = step / gmax
		case o.cont == 2:
			var ss, sy float64
			for i := range x {
				s, y := x[i]-prevX[i], gr[i]-prevG[i]
				ss += s * s
				sy += s * y
			}
			if sy > 0 {
				t = ss / sy
			}
		}
		if math.IsInf(t, 0) || math.IsNaN(t) || t <= 0 {
			t = step / gmax
		}
		prevX = append(prevX[:0], x...)
		prevG = append(prevG[:0], gr...)

		for {
			var dec, move float64
			for i := range x {
				trial[i] = o.clamp(x[i]-t*gr[i], i)
				dec += gr[i] * (x[i] - trial[i])
				move = math.Max(move, math.Abs(trial[i]-x[i]))
			}
			if move <= xtol {
				return x, f, true
			}
			v, ok := o.eval(trial)
			if !ok {
				return x, f, false
			}
			if v <= f-armijo*dec {
				x, trial = trial, x
				f = v
				break
			}
			t /= 2
		}
		if o.cont == 1 {
			t *= 2
		}
	}
	return x, f, true
}

// merge records a local minimum unless a known extremum lies within the same tolerance.
func (o *Optimizer) merge(x []float64, f float64) {
	if len(x) != o.n {
		return
	}
	for i := range o.extrema {
		e := &o.extrema[i]
		if floats.Distance(e.Point.Raw(), x, 2) <= o.sameTol {
			if f < e.F {
				e.Point, e.F = numeric.NewVectorFrom(1, x...), f
			}
			return
		}
	}
	o.extrema = append(o.extrema, Extremum{Point: numeric.NewVectorFrom(1, x...), F: f})
}

// collect sorts the extrema and drops those that do not tie with the best one.
func (o *Optimizer) collect(findSingle bool) {
	if len(o.extrema) == 0 && len(o.bestX) == o.n {
		o.merge(o.bestX, o.bestF)
	}
	if len(o.extrema) == 0 {
		return
	}
	slices.SortStableFunc(o.extrema, func(a, b Extremum) int { return cmp.Compare(a.F, b.F) })
	if findSingle {
		o.extrema = o.extrema[:1]
		return
	}
	eps := o.valTol * math.Max(1, math.Abs(o.extrema[0].F))
	o.extrema = slices.DeleteFunc(o.extrema, func(e Extremum) bool { return e.F > o.extrema[0].F+eps })
}

// IsDone reports whether the last Perform completed the search.
func (o *Optimizer) IsDone() bool { return o.status == numeric.OK }

// Status returns the outcome of the last Perform.
func (o *Optimizer) Status() numeric.Status { return o.status }

// NbExtrema returns the number of extrema found by the last Perform.
func (o *Optimizer) NbExtrema() int { return len(o.extrema) }

// Points copies the i-th extremum (from 1) into out by position and makes it
// the one reported by GetF.
func (o *Optimizer) Points(i int, out numeric.Vector) {
	if i < 1 || i > len(o.extrema) {
		panic(fmt.Sprintf("globopt: extremum index %d out of range [1,%d]", i, len(o.extrema)))
	}
	out.CopyFrom(o.extrema[i-1].Point)
	o.current = i - 1
}

// GetF returns the objective value of the last accessed extremum, the best one by default.
func (o *Optimizer) GetF() float64 {
	if len(o.extrema) == 0 {
		return math.NaN()
	}
	return o.extrema[o.current].F
}

// Extrema returns copies of the extrema sorted by ascending value.
func (o *Optimizer) Extrema() []Extremum {
	out := make([]Extremum, len(o.extrema))
	for i, e := range o.extrema {
		out[i] = Extremum{Point: e.Point.Clone(), F: e.F}
	}
	return out
}

// LipschitzConstant returns the estimate used by the last Perform.
func (o *Optimizer) LipschitzConstant() float64 { return o.lip }

// NbEvaluations returns the number of objective evaluations of the last Perform.
func (o *Optimizer) NbEvaluations() int { return o.nEval }
