package guidepath

import (
	"github.com/golang/geo/r2"

	"go.viam.com/autosteer/spatialmath"
)

// Line is an infinite straight guide path.
type Line struct {
	Attributes
	line spatialmath.Line2D
}

// NewLine returns a Line following l.
func NewLine(l spatialmath.Line2D, attrs Attributes) Line {
	return Line{Attributes: attrs, line: l}
}

// NewLineFromPoints returns the Line through a and b traveling from a to b.
func NewLineFromPoints(a, b r2.Point, attrs Attributes) Line {
	return NewLine(spatialmath.NewLine2DFromPoints(a, b), attrs)
}

// Line2D returns the underlying oriented line.
func (l Line) Line2D() spatialmath.Line2D {
	return l.line
}

func (l Line) isPrimitive() {}

// Kind returns KindLine.
func (l Line) Kind() Kind {
	return KindLine
}

// WithAttributes returns a copy with the given attributes.
func (l Line) WithAttributes(attrs Attributes) Primitive {
	l.Attributes = attrs
	return l
}

// DistanceToPointSquared returns the squared perpendicular distance to p.
func (l Line) DistanceToPointSquared(p r2.Point) float64 {
	d := l.line.SignedDistance(p)
	return d * d
}

// LeftOf reports whether p is strictly left of the line.
func (l Line) LeftOf(p r2.Point) bool {
	return l.line.HasOnPositiveSide(p)
}

// IsOn reports whether p lies on the line.
func (l Line) IsOn(p r2.Point) bool {
	return isOn(l, p)
}

// AngleAtPointDegrees returns the line heading.
func (l Line) AngleAtPointDegrees(p r2.Point) float64 {
	return l.line.HeadingDegrees()
}

// IntersectWithLine intersects the two lines.
func (l Line) IntersectWithLine(other spatialmath.Line2D) (r2.Point, bool) {
	return l.line.Intersect(other)
}

// PerpendicularAtPoint returns the perpendicular through the projection of p.
func (l Line) PerpendicularAtPoint(p r2.Point) spatialmath.Line2D {
	return l.line.PerpendicularAt(l.line.Project(p))
}

// OrthogonalProjection projects p onto the line.
func (l Line) OrthogonalProjection(p r2.Point) r2.Point {
	return l.line.Project(p)
}

// SupportingLine returns the line itself.
func (l Line) SupportingLine(p r2.Point) spatialmath.Line2D {
	return l.line
}

// Transform returns the transformed line.
func (l Line) Transform(pose spatialmath.Pose2D) Primitive {
	return Line{Attributes: l.Attributes, line: l.line.Transform(pose)}
}

// CreateReverse flips the direction of travel.
func (l Line) CreateReverse() Primitive {
	return Line{Attributes: l.Attributes, line: l.line.Opposite()}
}

// CreateNextPrimitive offsets the line by the implement width.
func (l Line) CreateNextPrimitive(left bool) (Primitive, error) {
	return Line{Attributes: l.next(left), line: l.line.Offset(l.offset(left))}, nil
}
