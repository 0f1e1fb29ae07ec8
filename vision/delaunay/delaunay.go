// Package delaunay computes Delaunay triangulations of planar point sets.
package delaunay

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// ErrCollinear is returned when the input has fewer than three points that are not all on one line.
var ErrCollinear = errors.New("points are collinear, no triangulation exists")

// Triangle holds the indices of three points in counterclockwise order.
type Triangle struct {
	A, B, C int
}

// Edge is an undirected edge between two point indices with A < B.
type Edge struct {
	A, B int
}

// NewEdge returns the normalized edge between a and b.
func NewEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

// Edges returns the three edges of the triangle.
func (t Triangle) Edges() [3]Edge {
	return [3]Edge{NewEdge(t.A, t.B), NewEdge(t.B, t.C), NewEdge(t.C, t.A)}
}

// Triangulation is the result of Triangulate. Points holds the distinct input points.
type Triangulation struct {
	Points    []Point
	Triangles []Triangle
}

// Triangulate computes the Delaunay triangulation of points with the Bowyer-Watson algorithm.
// Duplicate points are merged.
func Triangulate(points []Point) (*Triangulation, error) {
	unique := dedupe(points)
	if len(unique) < 3 || allCollinear(unique) {
		return nil, ErrCollinear
	}

	n := len(unique)
	work := append(append([]Point(nil), unique...), superTriangle(unique)...)
	tris := []Triangle{{A: n, B: n + 1, C: n + 2}}

	for i := 0; i < n; i++ {
		p := work[i]
		var bad []Triangle
		kept := tris[:0:0]
		for _, t := range tris {
			if inCircle(work[t.A], work[t.B], work[t.C], p) > 0 {
				bad = append(bad, t)
			} else {
				kept = append(kept, t)
			}
		}
		for _, e := range cavityBoundary(bad) {
			t := Triangle{A: e[0], B: e[1], C: i}
			if orient(work[t.A], work[t.B], work[t.C]) <= 0 {
				// p sits on the cavity boundary; keep the orientation consistent.
				t.A, t.B = t.B, t.A
			}
			kept = append(kept, t)
		}
		tris = kept
	}

	out := &Triangulation{Points: unique}
	for _, t := range tris {
		if t.A >= n || t.B >= n || t.C >= n {
			continue
		}
		if orient(unique[t.A], unique[t.B], unique[t.C]) == 0 {
			continue
		}
		out.Triangles = append(out.Triangles, t)
	}
	if len(out.Triangles) == 0 {
		return nil, ErrCollinear
	}
	return out, nil
}

// cavityBoundary returns the directed edges used by exactly one of the bad triangles.
func cavityBoundary(bad []Triangle) [][2]int {
	count := make(map[Edge]int, 3*len(bad))
	for _, t := range bad {
		for _, e := range t.Edges() {
			count[e]++
		}
	}
	var boundary [][2]int
	for _, t := range bad {
		for _, directed := range [3][2]int{{t.A, t.B}, {t.B, t.C}, {t.C, t.A}} {
			if count[NewEdge(directed[0], directed[1])] == 1 {
				boundary = append(boundary, directed)
			}
		}
	}
	return boundary
}

func superTriangle(points []Point) []Point {
	bounds := Bounds(points)
	center := bounds.Center()
	size := math.Max(bounds.Size().X, bounds.Size().Y)
	if size == 0 {
		size = 1
	}
	m := 100 * size
	return []Point{
		{X: center.X - 2*m, Y: center.Y - m},
		{X: center.X + 2*m, Y: center.Y - m},
		{X: center.X, Y: center.Y + 2*m},
	}
}

// Bounds returns the bounding rectangle of points.
func Bounds(points []Point) r2.Rect {
	rect := r2.EmptyRect()
	for _, p := range points {
		rect = rect.AddPoint(r2.Point(p))
	}
	return rect
}

func dedupe(points []Point) []Point {
	seen := make(map[Point]struct{}, len(points))
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func allCollinear(points []Point) bool {
	a := points[0]
	// The point farthest from a gives the most stable direction.
	far := 1
	for i := range points {
		if points[i].squaredDistance(a) > points[far].squaredDistance(a) {
			far = i
		}
	}
	b := points[far]
	length := a.distance(b)
	for _, c := range points {
		if math.Abs(orient(a, b, c))/length > 1e-9*math.Max(1, length) {
			return false
		}
	}
	return true
}

// Edges returns every distinct edge of the triangulation.
func (tr *Triangulation) Edges() []Edge {
	seen := make(map[Edge]struct{}, 3*len(tr.Triangles))
	var out []Edge
	for _, t := range tr.Triangles {
		for _, e := range t.Edges() {
			if _, ok := seen[e]; !ok {
				seen[e] = struct{}{}
				out = append(out, e)
			}
		}
	}
	return out
}

// Circumradius2 returns the squared circumradius of the i-th triangle.
func (tr *Triangulation) Circumradius2(i int) float64 {
	t := tr.Triangles[i]
	return circumradiusSquared(tr.Points[t.A], tr.Points[t.B], tr.Points[t.C])
}

// EdgeTriangles maps every edge to the indices of the triangles using it.
func (tr *Triangulation) EdgeTriangles() map[Edge][]int {
	out := make(map[Edge][]int, 3*len(tr.Triangles))
	for i, t := range tr.Triangles {
		for _, e := range t.Edges() {
			out[e] = append(out[e], i)
		}
	}
	return out
}

// Neighbors returns, for every triangle, the indices of the triangles sharing an edge with it.
func (tr *Triangulation) Neighbors() [][]int {
	out := make([][]int, len(tr.Triangles))
	for _, tris := range tr.EdgeTriangles() {
		if len(tris) == 2 {
			out[tris[0]] = append(out[tris[0]], tris[1])
			out[tris[1]] = append(out[tris[1]], tris[0])
		}
	}
	return out
}

// Area returns the area of the i-th triangle.
func (tr *Triangulation) Area(i int) float64 {
	t := tr.Triangles[i]
	return orient(tr.Points[t.A], tr.Points[t.B], tr.Points[t.C]) / 2
}
