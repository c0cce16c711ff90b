// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package globopt

import (
	"container/heap"
	"math"
)

// cell is a sub box sampled at its center.
type cell struct {
	lo, hi []float64
	x      []float64
	f      float64
	radius float64 // half diagonal
	key    float64 // Lipschitz lower bound of f over the cell
	pos    int
}

func newCell(lo, hi []float64) *cell {
	c := &cell{lo: lo, hi: hi, x: make([]float64, len(lo))}
	var r float64
	for i := range lo {
		c.x[i] = 0.5 * (lo[i] + hi[i])
		w := 0.5 * (hi[i] - lo[i])
		r += w * w
	}
	c.radius = math.Sqrt(r)
	return c
}

// widest returns the axis of largest width.
func (c *cell) widest() (axis int, width float64) {
	for i := range c.lo {
		if w := c.hi[i] - c.lo[i]; w > width {
			axis, width = i, w
		}
	}
	return
}

// trisect splits the cell in three along axis. The middle part keeps the center and value.
func (c *cell) trisect(axis int) (left, mid, right *cell) {
	w := (c.hi[axis] - c.lo[axis]) / 3
	part := func(lo, hi float64) *cell {
		l, h := append([]float64(nil), c.lo...), append([]float64(nil), c.hi...)
		l[axis], h[axis] = lo, hi
		return newCell(l, h)
	}
	left = part(c.lo[axis], c.lo[axis]+w)
	mid = part(c.lo[axis]+w, c.hi[axis]-w)
	right = part(c.hi[axis]-w, c.hi[axis])
	copy(mid.x, c.x)
	mid.f = c.f
	return
}

func (c *cell) bound(lip, fmin float64) float64 {
	return math.Max(c.f-lip*c.radius, fmin)
}

// cellQueue orders cells by ascending lower bound.
type cellQueue []*cell

func (q cellQueue) Len() int { return len(q) }

func (q cellQueue) Less(i, j int) bool { return q[i].key < q[j].key }

func (q cellQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].pos = i
	q[j].pos = j
}

func (q *cellQueue) Push(x any) {
	c := x.(*cell)
	c.pos = len(*q)
	*q = append(*q, c)
}

func (q *cellQueue) Pop() any {
	old := *q
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	c.pos = -1
	return c
}

// rebound refreshes every key after the Lipschitz constant changed.
func (q *cellQueue) rebound(lip, fmin float64) {
	for _, c := range *q {
		c.key = c.bound(lip, fmin)
	}
	heap.Init(q)
}
