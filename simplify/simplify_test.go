package simplify

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

func TestPolylineStraightRun(t *testing.T) {
	var points []r2.Point
	for i := 0; i <= 100; i++ {
		points = append(points, r2.Point{X: float64(i), Y: 0.01 * math.Sin(float64(i))})
	}
	out := Polyline(points, 0.05)
	test.That(t, out, test.ShouldHaveLength, 2)
	test.That(t, out[0], test.ShouldResemble, points[0])
	test.That(t, out[1], test.ShouldResemble, points[100])

	// A tighter tolerance keeps more vertices.
	test.That(t, len(Polyline(points, 0.001)), test.ShouldBeGreaterThan, 2)
}

func TestPolylineKeepsCorner(t *testing.T) {
	var points []r2.Point
	for i := 0; i <= 10; i++ {
		points = append(points, r2.Point{X: float64(i)})
	}
	for i := 1; i <= 10; i++ {
		points = append(points, r2.Point{X: 10, Y: float64(i)})
	}
	out := Polyline(points, 0.1)
	test.That(t, out, test.ShouldResemble, []r2.Point{{X: 0}, {X: 10}, {X: 10, Y: 10}})
}

func TestPolylineDeviationBound(t *testing.T) {
	points := []r2.Point{{X: 0}, {X: 5, Y: 0.3}, {X: 10}}
	test.That(t, Polyline(points, 0.2), test.ShouldHaveLength, 3)
	test.That(t, Polyline(points, 0.4), test.ShouldHaveLength, 2)

	// Short inputs come back unchanged.
	short := []r2.Point{{X: 1}, {X: 2}}
	test.That(t, Polyline(short, 10), test.ShouldResemble, short)
}

func TestPolylineNoSelfIntersection(t *testing.T) {
	// A hairpin: removing the tip vertex would cut across the returning leg.
	points := []r2.Point{
		{X: 0, Y: 0},
		{X: 10, Y: 0},
		{X: 10, Y: 0.5},
		{X: 0, Y: 0.5},
		{X: 0, Y: 0.25},
		{X: 9, Y: 0.25},
	}
	out := Polyline(points, 1)
	for i := 0; i+1 < len(out); i++ {
		for j := i + 2; j+1 < len(out); j++ {
			test.That(t, properlyIntersect(out[i], out[i+1], out[j], out[j+1]), test.ShouldBeFalse)
		}
	}
}

func TestRing(t *testing.T) {
	var ring []r2.Point
	for i := 0; i < 10; i++ {
		ring = append(ring, r2.Point{X: float64(i)})
	}
	for i := 0; i < 5; i++ {
		ring = append(ring, r2.Point{X: 10, Y: float64(i)})
	}
	for i := 10; i > 0; i-- {
		ring = append(ring, r2.Point{X: float64(i), Y: 5})
	}
	for i := 5; i > 0; i-- {
		ring = append(ring, r2.Point{X: 0, Y: float64(i)})
	}
	out := Ring(ring, 0.1)
	test.That(t, out, test.ShouldHaveLength, 4)
	test.That(t, out, test.ShouldContain, r2.Point{X: 10, Y: 5})
	test.That(t, out, test.ShouldContain, r2.Point{X: 0, Y: 0})

	// Huge tolerances still leave a triangle.
	test.That(t, Ring(ring, 1000), test.ShouldHaveLength, 3)
}
