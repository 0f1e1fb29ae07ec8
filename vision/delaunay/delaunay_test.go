package delaunay

import (
	"math"
	"math/rand"
	"testing"

	"go.viam.com/test"
)

func TestTriangulateSquare(t *testing.T) {
	points := []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {1, 1}}
	tr, err := Triangulate(points)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tr.Points, test.ShouldHaveLength, 4)
	test.That(t, tr.Triangles, test.ShouldHaveLength, 2)
	test.That(t, tr.Edges(), test.ShouldHaveLength, 5)

	var area float64
	for i := range tr.Triangles {
		test.That(t, tr.Area(i), test.ShouldBeGreaterThan, 0)
		test.That(t, tr.Circumradius2(i), test.ShouldAlmostEqual, 0.5, 1e-9)
		area += tr.Area(i)
	}
	test.That(t, area, test.ShouldAlmostEqual, 1, 1e-9)

	neighbors := tr.Neighbors()
	test.That(t, neighbors[0], test.ShouldResemble, []int{1})
	test.That(t, neighbors[1], test.ShouldResemble, []int{0})
}

func TestTriangulateCollinear(t *testing.T) {
	_, err := Triangulate([]Point{{0, 0}, {1, 1}, {2, 2}, {3, 3}})
	test.That(t, err, test.ShouldBeError, ErrCollinear)

	_, err = Triangulate([]Point{{0, 0}, {0, 0}, {1, 1}})
	test.That(t, err, test.ShouldBeError, ErrCollinear)
}

func TestTriangulateIsDelaunay(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	points := make([]Point, 200)
	for i := range points {
		points[i] = Point{rng.Float64() * 50, rng.Float64() * 30}
	}
	tr, err := Triangulate(points)
	test.That(t, err, test.ShouldBeNil)

	// Euler: a triangulation of n points with h on the hull has 2n - 2 - h triangles, so the count
	// is bounded by 2n - 5.
	test.That(t, len(tr.Triangles), test.ShouldBeLessThanOrEqualTo, 2*len(points)-5)

	var area float64
	for i, tri := range tr.Triangles {
		a, b, c := tr.Points[tri.A], tr.Points[tri.B], tr.Points[tri.C]
		area += tr.Area(i)
		for _, p := range tr.Points {
			if p == a || p == b || p == c {
				continue
			}
			test.That(t, inCircle(a, b, c, p), test.ShouldBeLessThanOrEqualTo, 1e-9)
		}
	}
	// The union of the triangles is close to the bounding box for a dense random sample.
	bounds := Bounds(points)
	test.That(t, area, test.ShouldBeLessThanOrEqualTo, bounds.Size().X*bounds.Size().Y)
	test.That(t, area, test.ShouldBeGreaterThan, 0.8*bounds.Size().X*bounds.Size().Y)
	test.That(t, math.IsInf(circumradiusSquared(Point{0, 0}, Point{1, 1}, Point{2, 2}), 1), test.ShouldBeTrue)
}
