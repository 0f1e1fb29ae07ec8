package guidepath

import (
	"github.com/golang/geo/r2"

	"go.viam.com/autosteer/spatialmath"
)

// Ray is a half-line. A trailing ray starts at its origin and runs away from it. A leading ray
// (Reverse) comes in from infinity and ends at its origin. Either way the direction of travel is
// the direction of the supporting line.
type Ray struct {
	Attributes
	line    spatialmath.Line2D
	reverse bool
}

// NewRay returns a trailing ray starting at origin traveling along direction.
func NewRay(origin, direction r2.Point, attrs Attributes) Ray {
	return Ray{Attributes: attrs, line: spatialmath.NewLine2DFromPointDirection(origin, direction)}
}

// NewLeadingRay returns a ray traveling along direction that ends at end.
func NewLeadingRay(end, direction r2.Point, attrs Attributes) Ray {
	return Ray{Attributes: attrs, line: spatialmath.NewLine2DFromPointDirection(end, direction), reverse: true}
}

// Origin is where the ray starts, or ends for a leading ray.
func (r Ray) Origin() r2.Point {
	return r.line.Point
}

// Reverse reports whether this is a leading ray.
func (r Ray) Reverse() bool {
	return r.reverse
}

// Line2D returns the supporting line.
func (r Ray) Line2D() spatialmath.Line2D {
	return r.line
}

func (r Ray) isPrimitive() {}

// Kind returns KindRay.
func (r Ray) Kind() Kind {
	return KindRay
}

// WithAttributes returns a copy with the given attributes.
func (r Ray) WithAttributes(attrs Attributes) Primitive {
	r.Attributes = attrs
	return r
}

func (r Ray) clampedParameter(p r2.Point) float64 {
	t := r.line.Parameter(p)
	if (!r.reverse && t < 0) || (r.reverse && t > 0) {
		return 0
	}
	return t
}

func (r Ray) contains(t float64) bool {
	if r.reverse {
		return t <= OnTolerance
	}
	return t >= -OnTolerance
}

// DistanceToPointSquared returns the squared distance to the nearest point of the ray.
func (r Ray) DistanceToPointSquared(p r2.Point) float64 {
	return distanceSquared(p, r.line.PointAt(r.clampedParameter(p)))
}

// LeftOf classifies p against the supporting line.
func (r Ray) LeftOf(p r2.Point) bool {
	return r.line.HasOnPositiveSide(p)
}

// IsOn reports whether p lies on the ray.
func (r Ray) IsOn(p r2.Point) bool {
	return isOn(r, p)
}

// AngleAtPointDegrees returns the ray heading.
func (r Ray) AngleAtPointDegrees(p r2.Point) float64 {
	return r.line.HeadingDegrees()
}

// IntersectWithLine intersects the ray with a line.
func (r Ray) IntersectWithLine(other spatialmath.Line2D) (r2.Point, bool) {
	p, ok := r.line.Intersect(other)
	if !ok || !r.contains(r.line.Parameter(p)) {
		return r2.Point{}, false
	}
	return p, true
}

// PerpendicularAtPoint returns the perpendicular through the projection of p.
func (r Ray) PerpendicularAtPoint(p r2.Point) spatialmath.Line2D {
	return r.line.PerpendicularAt(r.OrthogonalProjection(p))
}

// OrthogonalProjection returns the nearest point of the ray.
func (r Ray) OrthogonalProjection(p r2.Point) r2.Point {
	return r.line.PointAt(r.clampedParameter(p))
}

// SupportingLine returns the line the ray lies on.
func (r Ray) SupportingLine(p r2.Point) spatialmath.Line2D {
	return r.line
}

// Transform returns the transformed ray.
func (r Ray) Transform(pose spatialmath.Pose2D) Primitive {
	return Ray{Attributes: r.Attributes, line: r.line.Transform(pose), reverse: r.reverse}
}

// CreateReverse flips the direction of travel. A trailing ray becomes a leading one over the same
// points and vice versa.
func (r Ray) CreateReverse() Primitive {
	return Ray{Attributes: r.Attributes, line: r.line.Opposite(), reverse: !r.reverse}
}

// CreateNextPrimitive offsets the ray by the implement width.
func (r Ray) CreateNextPrimitive(left bool) (Primitive, error) {
	return Ray{Attributes: r.next(left), line: r.line.Offset(r.offset(left)), reverse: r.reverse}, nil
}
