package guidepath

import (
	"github.com/golang/geo/r2"

	"go.viam.com/autosteer/spatialmath"
)

// Segment is a bounded straight path from Source to Target.
type Segment struct {
	Attributes
	source, target r2.Point
	line           spatialmath.Line2D
}

// NewSegment returns the segment from source to target.
func NewSegment(source, target r2.Point, attrs Attributes) Segment {
	return Segment{
		Attributes: attrs,
		source:     source,
		target:     target,
		line:       spatialmath.NewLine2DFromPoints(source, target),
	}
}

// Source is the start point.
func (s Segment) Source() r2.Point {
	return s.source
}

// Target is the end point.
func (s Segment) Target() r2.Point {
	return s.target
}

// Length returns the segment length.
func (s Segment) Length() float64 {
	return s.target.Sub(s.source).Norm()
}

// Line2D returns the supporting line.
func (s Segment) Line2D() spatialmath.Line2D {
	return s.line
}

func (s Segment) isPrimitive() {}

// Kind returns KindSegment.
func (s Segment) Kind() Kind {
	return KindSegment
}

// WithAttributes returns a copy with the given attributes.
func (s Segment) WithAttributes(attrs Attributes) Primitive {
	s.Attributes = attrs
	return s
}

func (s Segment) clampedParameter(p r2.Point) float64 {
	t := s.line.Parameter(p)
	if t < 0 {
		return 0
	}
	if l := s.Length(); t > l {
		return l
	}
	return t
}

// DistanceToPointSquared returns the squared distance to the nearest point of the segment.
func (s Segment) DistanceToPointSquared(p r2.Point) float64 {
	return distanceSquared(p, s.line.PointAt(s.clampedParameter(p)))
}

// LeftOf classifies p against the supporting line.
func (s Segment) LeftOf(p r2.Point) bool {
	return s.line.HasOnPositiveSide(p)
}

// IsOn reports whether p lies on the segment.
func (s Segment) IsOn(p r2.Point) bool {
	return isOn(s, p)
}

// AngleAtPointDegrees returns the segment heading.
func (s Segment) AngleAtPointDegrees(p r2.Point) float64 {
	return s.line.HeadingDegrees()
}

// IntersectWithLine intersects the segment with a line.
func (s Segment) IntersectWithLine(other spatialmath.Line2D) (r2.Point, bool) {
	p, ok := s.line.Intersect(other)
	if !ok {
		return r2.Point{}, false
	}
	if t := s.line.Parameter(p); t < -OnTolerance || t > s.Length()+OnTolerance {
		return r2.Point{}, false
	}
	return p, true
}

// PerpendicularAtPoint returns the perpendicular through the projection of p.
func (s Segment) PerpendicularAtPoint(p r2.Point) spatialmath.Line2D {
	return s.line.PerpendicularAt(s.OrthogonalProjection(p))
}

// OrthogonalProjection returns the nearest point of the segment.
func (s Segment) OrthogonalProjection(p r2.Point) r2.Point {
	return s.line.PointAt(s.clampedParameter(p))
}

// SupportingLine returns the line the segment lies on.
func (s Segment) SupportingLine(p r2.Point) spatialmath.Line2D {
	return s.line
}

// Transform returns the transformed segment.
func (s Segment) Transform(pose spatialmath.Pose2D) Primitive {
	return Segment{
		Attributes: s.Attributes,
		source:     pose.Apply(s.source),
		target:     pose.Apply(s.target),
		line:       s.line.Transform(pose),
	}
}

// CreateReverse swaps the end points.
func (s Segment) CreateReverse() Primitive {
	return Segment{Attributes: s.Attributes, source: s.target, target: s.source, line: s.line.Opposite()}
}

// CreateNextPrimitive offsets the segment by the implement width.
func (s Segment) CreateNextPrimitive(left bool) (Primitive, error) {
	shift := s.line.LeftNormal().Mul(s.offset(left))
	return Segment{
		Attributes: s.next(left),
		source:     s.source.Add(shift),
		target:     s.target.Add(shift),
		line:       s.line.Offset(s.offset(left)),
	}, nil
}
