// Package field extracts the boundary polygon of a field from recorded points using an alpha shape.
package field

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

var (
	// ErrTooFewPoints is returned for fewer than three distinct points.
	ErrTooFewPoints = errors.New("at least three distinct points are needed for a boundary")
	// ErrCollinear is returned when all points lie on one line.
	ErrCollinear = errors.New("boundary points are collinear")
	// ErrNoBoundary is returned when the alpha shape has no boundary.
	ErrNoBoundary = errors.New("alpha shape has no boundary")
)

// AlphaMode selects how the alpha value is chosen.
type AlphaMode string

const (
	// AlphaOptimal is the smallest alpha giving one connected region that touches every point.
	AlphaOptimal AlphaMode = "optimal"
	// AlphaSolid is the smallest alpha that is optimal and leaves no holes.
	AlphaSolid AlphaMode = "solid"
	// AlphaCustom uses Options.CustomAlpha.
	AlphaCustom AlphaMode = "custom"
)

// Options configure an extraction.
type Options struct {
	AlphaMode AlphaMode
	// CustomAlpha is a squared circumradius. Triangles with a larger one are left out.
	CustomAlpha float64
	// MaxDeviation bounds how far simplification may move the rings.
	MaxDeviation float64
	// DensifyGap inserts points along the recorded order so no gap exceeds it. Zero disables it.
	DensifyGap float64
	// AutoDensifyFactor, when positive, densifies to this multiple of the median recorded spacing.
	AutoDensifyFactor float64
}

// Stats describe the stages of an extraction.
type Stats struct {
	InputPoints   int
	Points        int
	MedianSpacing float64
	DensifyGap    float64

	Triangles         int
	IncludedTriangles int
	Alpha             float64
	Components        int

	Rings         int
	OuterVertices int
	Holes         int

	SimplifiedVertices int
	Perimeter          float64
	Area               float64
}

// Polygon is a field boundary. The outer ring is counterclockwise and holes are clockwise. Rings
// do not repeat their first point.
type Polygon struct {
	Outer []r2.Point
	Holes [][]r2.Point
}

// Area returns the area inside the outer ring and outside the holes.
func (p Polygon) Area() float64 {
	area := math.Abs(signedArea(p.Outer))
	for _, hole := range p.Holes {
		area -= math.Abs(signedArea(hole))
	}
	return area
}

// Perimeter returns the length of the outer ring.
func (p Polygon) Perimeter() float64 {
	return perimeter(p.Outer)
}

// Contains reports whether pt is inside the outer ring and outside every hole.
func (p Polygon) Contains(pt r2.Point) bool {
	if !insideRing(p.Outer, pt) {
		return false
	}
	for _, hole := range p.Holes {
		if insideRing(hole, pt) {
			return false
		}
	}
	return true
}

func signedArea(ring []r2.Point) float64 {
	var sum float64
	for i, p := range ring {
		q := ring[(i+1)%len(ring)]
		sum += p.Cross(q)
	}
	return sum / 2
}

func perimeter(ring []r2.Point) float64 {
	var sum float64
	for i, p := range ring {
		sum += ring[(i+1)%len(ring)].Sub(p).Norm()
	}
	return sum
}

// insideRing is the even-odd test.
func insideRing(ring []r2.Point, pt r2.Point) bool {
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.Y > pt.Y) != (b.Y > pt.Y) &&
			pt.X < (b.X-a.X)*(pt.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

func centroid(ring []r2.Point) r2.Point {
	a := signedArea(ring)
	if a == 0 {
		var sum r2.Point
		for _, p := range ring {
			sum = sum.Add(p)
		}
		return sum.Mul(1 / float64(len(ring)))
	}
	var cx, cy float64
	for i, p := range ring {
		q := ring[(i+1)%len(ring)]
		c := p.Cross(q)
		cx += (p.X + q.X) * c
		cy += (p.Y + q.Y) * c
	}
	return r2.Point{X: cx / (6 * a), Y: cy / (6 * a)}
}
