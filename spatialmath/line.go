// Package spatialmath implements the planar geometry used by the guidance kernel: oriented lines,
// rigid transforms, bisectors and an exact line/circle intersection.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r2"

	"go.viam.com/autosteer/utils"
)

// parallelTolerance is the smallest |sin| of the angle between two lines that still counts as an
// intersection.
const parallelTolerance = 1e-12

// Line2D is an oriented line through Point with unit Direction. The positive side of the line is
// the left side when facing along Direction.
type Line2D struct {
	Point     r2.Point
	Direction r2.Point
}

// NewLine2DFromPoints returns the line through a and b oriented from a to b.
func NewLine2DFromPoints(a, b r2.Point) Line2D {
	return Line2D{Point: a, Direction: b.Sub(a).Normalize()}
}

// NewLine2DFromPointDirection returns the line through p with direction d. d need not be unit length.
func NewLine2DFromPointDirection(p, d r2.Point) Line2D {
	return Line2D{Point: p, Direction: d.Normalize()}
}

// NewLine2DFromHeading returns the line through p heading theta radians from the +x axis.
func NewLine2DFromHeading(p r2.Point, theta float64) Line2D {
	return Line2D{Point: p, Direction: r2.Point{X: math.Cos(theta), Y: math.Sin(theta)}}
}

// IsDegenerate reports whether the direction could not be normalized.
func (l Line2D) IsDegenerate() bool {
	n := l.Direction.Norm()
	return math.IsNaN(n) || n < 0.5
}

// SignedDistance is positive for points left of the line.
func (l Line2D) SignedDistance(p r2.Point) float64 {
	return l.Direction.Cross(p.Sub(l.Point))
}

// HasOnPositiveSide reports whether p is strictly left of the line.
func (l Line2D) HasOnPositiveSide(p r2.Point) bool {
	return l.SignedDistance(p) > 0
}

// HasOnNegativeSide reports whether p is strictly right of the line.
func (l Line2D) HasOnNegativeSide(p r2.Point) bool {
	return l.SignedDistance(p) < 0
}

// Parameter returns t such that PointAt(t) is the projection of p.
func (l Line2D) Parameter(p r2.Point) float64 {
	return l.Direction.Dot(p.Sub(l.Point))
}

// PointAt returns Point + t*Direction.
func (l Line2D) PointAt(t float64) r2.Point {
	return l.Point.Add(l.Direction.Mul(t))
}

// Project returns the orthogonal projection of p onto the line.
func (l Line2D) Project(p r2.Point) r2.Point {
	return l.PointAt(l.Parameter(p))
}

// Opposite returns the same line with the direction flipped.
func (l Line2D) Opposite() Line2D {
	return Line2D{Point: l.Point, Direction: l.Direction.Mul(-1)}
}

// LeftNormal is the unit normal pointing to the positive side.
func (l Line2D) LeftNormal() r2.Point {
	return l.Direction.Ortho()
}

// PerpendicularAt returns the line through p rotated a quarter turn counterclockwise from l.
func (l Line2D) PerpendicularAt(p r2.Point) Line2D {
	return Line2D{Point: p, Direction: l.Direction.Ortho()}
}

// Offset returns the parallel line at distance d, to the left for positive d.
func (l Line2D) Offset(d float64) Line2D {
	return Line2D{Point: l.Point.Add(l.LeftNormal().Mul(d)), Direction: l.Direction}
}

// Intersect returns the intersection of two lines, or false if they are parallel.
func (l Line2D) Intersect(other Line2D) (r2.Point, bool) {
	denom := l.Direction.Cross(other.Direction)
	if math.Abs(denom) < parallelTolerance {
		return r2.Point{}, false
	}
	t := other.Point.Sub(l.Point).Cross(other.Direction) / denom
	return l.PointAt(t), true
}

// HeadingRad is the angle of the direction from the +x axis, counterclockwise, in (-pi, pi].
func (l Line2D) HeadingRad() float64 {
	return math.Atan2(l.Direction.Y, l.Direction.X)
}

// HeadingDegrees is HeadingRad in degrees.
func (l Line2D) HeadingDegrees() float64 {
	return utils.RadToDeg(l.HeadingRad())
}

// Transform applies a rigid transform to the line.
func (l Line2D) Transform(pose Pose2D) Line2D {
	return Line2D{Point: pose.Apply(l.Point), Direction: pose.ApplyVector(l.Direction)}
}

// AlmostEqual compares two lines as point sets with the same orientation.
func (l Line2D) AlmostEqual(other Line2D, tol float64) bool {
	return math.Abs(l.SignedDistance(other.Point)) <= tol &&
		l.Direction.Sub(other.Direction).Norm() <= tol
}

// Orientation returns twice the signed area of the triangle abc: positive when counterclockwise,
// negative when clockwise, zero when collinear.
func Orientation(a, b, c r2.Point) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}

// Circumcenter returns the center of the circle through a, b and c, or false if they are collinear.
func Circumcenter(a, b, c r2.Point) (r2.Point, bool) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if math.Abs(d) < parallelTolerance {
		return r2.Point{}, false
	}
	a2 := a.Dot(a)
	b2 := b.Dot(b)
	c2 := c.Dot(c)
	return r2.Point{
		X: (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d,
		Y: (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d,
	}, true
}
