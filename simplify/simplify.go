// Package simplify removes vertices from polylines and rings while keeping every removed point
// within a maximum deviation of the result.
package simplify

import (
	"container/heap"

	"github.com/golang/geo/r2"

	"go.viam.com/autosteer/spatialmath"
)

// Polyline simplifies an open polyline. The end points are always kept. A vertex is removed only if
// every original point it stands for lies within maxDeviation of the replacing segment and the
// replacing segment does not cross the rest of the polyline. Vertices are removed cheapest first.
func Polyline(points []r2.Point, maxDeviation float64) []r2.Point {
	if len(points) <= 2 {
		return append([]r2.Point(nil), points...)
	}
	return newSimplifier(points, false).run(maxDeviation, 2)
}

// Ring simplifies a closed ring given without a repeated closing point. At least three vertices are
// kept.
func Ring(points []r2.Point, maxDeviation float64) []r2.Point {
	if len(points) <= 3 {
		return append([]r2.Point(nil), points...)
	}
	return newSimplifier(points, true).run(maxDeviation, 3)
}

type candidate struct {
	vertex  int
	cost    float64
	version int
}

// candidateQueue is a min-heap of removal candidates by cost.
type candidateQueue []candidate

func (q candidateQueue) Len() int            { return len(q) }
func (q candidateQueue) Less(i, j int) bool  { return q[i].cost < q[j].cost }
func (q candidateQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *candidateQueue) Push(x interface{}) { *q = append(*q, x.(candidate)) }
func (q *candidateQueue) Pop() interface{} {
	old := *q
	c := old[len(old)-1]
	*q = old[:len(old)-1]
	return c
}

type simplifier struct {
	points  []r2.Point
	closed  bool
	prev    []int
	next    []int
	removed []bool
	version []int
	kept    int
	queue   candidateQueue
}

func newSimplifier(points []r2.Point, closed bool) *simplifier {
	n := len(points)
	s := &simplifier{
		points:  points,
		closed:  closed,
		prev:    make([]int, n),
		next:    make([]int, n),
		removed: make([]bool, n),
		version: make([]int, n),
		kept:    n,
	}
	for i := range points {
		s.prev[i] = i - 1
		s.next[i] = i + 1
	}
	if closed {
		s.prev[0] = n - 1
		s.next[n-1] = 0
	} else {
		s.next[n-1] = -1
	}
	return s
}

func (s *simplifier) removable(i int) bool {
	if s.removed[i] {
		return false
	}
	return s.closed || (i != 0 && i != len(s.points)-1)
}

// cost is the largest squared distance from the replacing segment to any original point between
// the neighbours of i.
func (s *simplifier) cost(i int) float64 {
	a, b := s.prev[i], s.next[i]
	pa, pb := s.points[a], s.points[b]
	var worst float64
	n := len(s.points)
	for j := (a + 1) % n; j != b; j = (j + 1) % n {
		if d := segmentDistanceSquared(s.points[j], pa, pb); d > worst {
			worst = d
		}
	}
	return worst
}

func (s *simplifier) enqueue(i int) {
	if !s.removable(i) {
		return
	}
	s.version[i]++
	heap.Push(&s.queue, candidate{vertex: i, cost: s.cost(i), version: s.version[i]})
}

// crosses reports whether the segment a-b would properly cross any kept segment not touching a or b.
func (s *simplifier) crosses(a, b int) bool {
	pa, pb := s.points[a], s.points[b]
	start := 0
	for s.removed[start] {
		start++
	}
	i := start
	for {
		j := s.next[i]
		if j < 0 {
			return false
		}
		if i != a && i != b && j != a && j != b {
			if properlyIntersect(pa, pb, s.points[i], s.points[j]) {
				return true
			}
		}
		i = j
		if i == start {
			return false
		}
	}
}

func (s *simplifier) run(maxDeviation float64, minKept int) []r2.Point {
	limit := maxDeviation * maxDeviation
	for i := range s.points {
		s.enqueue(i)
	}
	for s.queue.Len() > 0 && s.kept > minKept {
		c := heap.Pop(&s.queue).(candidate)
		if s.removed[c.vertex] || c.version != s.version[c.vertex] {
			continue
		}
		if c.cost > limit {
			break
		}
		a, b := s.prev[c.vertex], s.next[c.vertex]
		if s.crosses(a, b) {
			// Retried once a neighbour changes.
			continue
		}
		s.removed[c.vertex] = true
		s.kept--
		s.next[a] = b
		s.prev[b] = a
		s.enqueue(a)
		s.enqueue(b)
	}
	return s.collect()
}

func (s *simplifier) collect() []r2.Point {
	out := make([]r2.Point, 0, s.kept)
	for i, p := range s.points {
		if !s.removed[i] {
			out = append(out, p)
		}
	}
	return out
}

func segmentDistanceSquared(p, a, b r2.Point) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		d := p.Sub(a)
		return d.Dot(d)
	}
	t := p.Sub(a).Dot(ab) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	d := p.Sub(a.Add(ab.Mul(t)))
	return d.Dot(d)
}

func properlyIntersect(a, b, c, d r2.Point) bool {
	o1 := spatialmath.Orientation(a, b, c)
	o2 := spatialmath.Orientation(a, b, d)
	o3 := spatialmath.Orientation(c, d, a)
	o4 := spatialmath.Orientation(c, d, b)
	return o1*o2 < 0 && o3*o4 < 0
}
