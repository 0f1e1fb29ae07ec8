package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	geo "github.com/kellydunn/golang-geo"
	"go.viam.com/test"
)

func TestLine2D(t *testing.T) {
	l := NewLine2DFromPoints(r2.Point{X: 0, Y: 0}, r2.Point{X: 10, Y: 0})
	test.That(t, l.HeadingDegrees(), test.ShouldAlmostEqual, 0)
	test.That(t, l.SignedDistance(r2.Point{X: 3, Y: 2}), test.ShouldAlmostEqual, 2)
	test.That(t, l.HasOnPositiveSide(r2.Point{X: 3, Y: 2}), test.ShouldBeTrue)
	test.That(t, l.HasOnNegativeSide(r2.Point{X: 3, Y: -2}), test.ShouldBeTrue)
	test.That(t, l.HasOnPositiveSide(r2.Point{X: 3, Y: 0}), test.ShouldBeFalse)

	proj := l.Project(r2.Point{X: 4, Y: 7})
	test.That(t, proj.X, test.ShouldAlmostEqual, 4)
	test.That(t, proj.Y, test.ShouldAlmostEqual, 0)
	test.That(t, l.Parameter(r2.Point{X: 4, Y: 7}), test.ShouldAlmostEqual, 4)

	left := l.Offset(3)
	test.That(t, left.Point.Y, test.ShouldAlmostEqual, 3)
	test.That(t, l.Opposite().HeadingDegrees(), test.ShouldAlmostEqual, 180)
	test.That(t, l.PerpendicularAt(r2.Point{X: 5}).HeadingDegrees(), test.ShouldAlmostEqual, 90)

	vertical := NewLine2DFromPointDirection(r2.Point{X: 5, Y: -1}, r2.Point{X: 0, Y: 4})
	p, ok := l.Intersect(vertical)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, p.X, test.ShouldAlmostEqual, 5)
	test.That(t, p.Y, test.ShouldAlmostEqual, 0)

	_, ok = l.Intersect(left)
	test.That(t, ok, test.ShouldBeFalse)

	test.That(t, NewLine2DFromPoints(r2.Point{X: 1, Y: 1}, r2.Point{X: 1, Y: 1}).IsDegenerate(), test.ShouldBeTrue)
	test.That(t, l.IsDegenerate(), test.ShouldBeFalse)
}

func TestPose2D(t *testing.T) {
	rot := NewPose2D(1, 2, math.Pi/2)
	p := rot.Apply(r2.Point{X: 1, Y: 0})
	test.That(t, p.X, test.ShouldAlmostEqual, 1)
	test.That(t, p.Y, test.ShouldAlmostEqual, 3)

	back := PoseInverse(rot).Apply(p)
	test.That(t, back.X, test.ShouldAlmostEqual, 1)
	test.That(t, back.Y, test.ShouldAlmostEqual, 0)

	about := NewRotationAbout(r2.Point{X: 1, Y: 1}, math.Pi)
	q := about.Apply(r2.Point{X: 2, Y: 1})
	test.That(t, q.X, test.ShouldAlmostEqual, 0)
	test.That(t, q.Y, test.ShouldAlmostEqual, 1)

	composed := Compose(NewPoseFromPoint(r2.Point{X: 5}), rot)
	c := composed.Apply(r2.Point{X: 1, Y: 0})
	test.That(t, c.X, test.ShouldAlmostEqual, 6)
	test.That(t, c.Y, test.ShouldAlmostEqual, 3)
	test.That(t, composed.Theta(), test.ShouldAlmostEqual, math.Pi/2)

	l := NewLine2DFromPoints(r2.Point{}, r2.Point{X: 1}).Transform(rot)
	test.That(t, l.HeadingDegrees(), test.ShouldAlmostEqual, 90)
	test.That(t, l.Point.X, test.ShouldAlmostEqual, 1)
}

func TestBisector(t *testing.T) {
	// Left turn at (10, 0) from +x to +y.
	prev := NewLine2DFromPoints(r2.Point{}, r2.Point{X: 10})
	next := NewLine2DFromPoints(r2.Point{X: 10}, r2.Point{X: 10, Y: 10})
	joint := r2.Point{X: 10}
	bis := OrientBisectorTowardSource(JoinBisector(prev, next, joint), r2.Point{})
	test.That(t, bis.HasOnNegativeSide(r2.Point{X: 5, Y: 0}), test.ShouldBeTrue)
	test.That(t, bis.HasOnPositiveSide(r2.Point{X: 10, Y: 5}), test.ShouldBeTrue)
	// The bisector runs along the diagonal of the corner.
	test.That(t, math.Abs(bis.SignedDistance(r2.Point{X: 9, Y: 1})), test.ShouldBeLessThan, 1e-9)

	// Straight continuation falls back to the perpendicular.
	straight := NewLine2DFromPoints(r2.Point{X: 10}, r2.Point{X: 20})
	perp := OrientBisectorTowardSource(JoinBisector(prev, straight, joint), r2.Point{})
	test.That(t, perp.HasOnNegativeSide(r2.Point{X: 9}), test.ShouldBeTrue)
	test.That(t, perp.HasOnPositiveSide(r2.Point{X: 11}), test.ShouldBeTrue)

	// Orientation is idempotent.
	again := OrientBisectorTowardSource(perp, r2.Point{})
	test.That(t, again, test.ShouldResemble, perp)
}

func TestCircumcenterAndOrientation(t *testing.T) {
	c, ok := Circumcenter(r2.Point{X: 1}, r2.Point{Y: 1}, r2.Point{X: -1})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, c.X, test.ShouldAlmostEqual, 0)
	test.That(t, c.Y, test.ShouldAlmostEqual, 0)

	_, ok = Circumcenter(r2.Point{}, r2.Point{X: 1}, r2.Point{X: 2})
	test.That(t, ok, test.ShouldBeFalse)

	test.That(t, Orientation(r2.Point{}, r2.Point{X: 1}, r2.Point{Y: 1}), test.ShouldBeGreaterThan, 0)
	test.That(t, Orientation(r2.Point{}, r2.Point{Y: 1}, r2.Point{X: 1}), test.ShouldBeLessThan, 0)
}

func TestIntersectLineCircleExact(t *testing.T) {
	a, b, c := r2.Point{X: 1}, r2.Point{Y: 1}, r2.Point{X: -1}

	through := NewLine2DFromPoints(r2.Point{X: -5}, r2.Point{X: 5})
	pts := IntersectLineCircleExact(through, a, b, c)
	test.That(t, len(pts), test.ShouldEqual, 2)
	test.That(t, pts[0].X, test.ShouldAlmostEqual, -1)
	test.That(t, pts[1].X, test.ShouldAlmostEqual, 1)

	// Exactly tangent: a single point, never a false miss.
	tangent := NewLine2DFromPoints(r2.Point{X: -5, Y: 1}, r2.Point{X: 5, Y: 1})
	pts = IntersectLineCircleExact(tangent, a, b, c)
	test.That(t, len(pts), test.ShouldEqual, 1)
	test.That(t, pts[0].X, test.ShouldAlmostEqual, 0)
	test.That(t, pts[0].Y, test.ShouldAlmostEqual, 1)

	miss := NewLine2DFromPoints(r2.Point{X: -5, Y: 2}, r2.Point{X: 5, Y: 2})
	test.That(t, IntersectLineCircleExact(miss, a, b, c), test.ShouldBeEmpty)

	test.That(t, IntersectLineCircleExact(through, r2.Point{}, r2.Point{X: 1}, r2.Point{X: 2}), test.ShouldBeNil)
}

func TestGeoPointToLocal(t *testing.T) {
	origin := geo.NewPoint(40.0, -74.0)
	north := GeoPointToLocal(geo.NewPoint(40.001, -74.0), origin)
	test.That(t, north.X, test.ShouldAlmostEqual, 0, 1e-6)
	test.That(t, north.Y, test.ShouldAlmostEqual, 111.2, 0.5)

	southWest := GeoPointToLocal(geo.NewPoint(39.999, -74.001), origin)
	test.That(t, southWest.X, test.ShouldBeLessThan, 0)
	test.That(t, southWest.Y, test.ShouldBeLessThan, 0)
}
