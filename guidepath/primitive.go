// Package guidepath contains the guide path primitives a vehicle is steered along: lines, rays,
// segments, arcs and sequences of them. Primitives are immutable values; every operation that
// changes geometry returns a new primitive.
package guidepath

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/autosteer/spatialmath"
)

// OnTolerance is the distance in meters within which a point counts as lying on a primitive.
const OnTolerance = 1e-6

var (
	// ErrCollapsed is returned when an offset would shrink a primitive to nothing, e.g. an arc whose
	// radius would become zero or negative.
	ErrCollapsed = errors.New("primitive collapsed while offsetting")
	// ErrEmptySequence is returned when a sequence would have no sub-primitives.
	ErrEmptySequence = errors.New("sequence has no sub-primitives")
)

// Kind identifies the variant of a Primitive.
type Kind int

// The primitive variants.
const (
	KindLine Kind = iota
	KindRay
	KindSegment
	KindArc
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindRay:
		return "ray"
	case KindSegment:
		return "segment"
	case KindArc:
		return "arc"
	case KindSequence:
		return "sequence"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Attributes are shared by every primitive variant.
type Attributes struct {
	// AnyDirection means the vehicle may traverse the path in either heading.
	AnyDirection bool
	// ImplementWidth is the spacing to the next parallel pass.
	ImplementWidth float64
	// PassNumber is the signed pass offset from the reference pass.
	PassNumber int32
}

// Attrs returns the attributes.
func (a Attributes) Attrs() Attributes {
	return a
}

// next returns the attributes of the neighbouring pass on the given side.
func (a Attributes) next(left bool) Attributes {
	if left {
		a.PassNumber--
	} else {
		a.PassNumber++
	}
	return a
}

// offset is the signed lateral distance to the neighbouring pass, positive to the left.
func (a Attributes) offset(left bool) float64 {
	if left {
		return a.ImplementWidth
	}
	return -a.ImplementWidth
}

// Primitive is one guide path. The set of implementations is closed: Line, Ray, Segment, Arc and
// Sequence.
type Primitive interface {
	Kind() Kind
	Attrs() Attributes
	WithAttributes(attrs Attributes) Primitive

	// DistanceToPointSquared is zero exactly on the primitive's trace.
	DistanceToPointSquared(p r2.Point) float64
	// LeftOf reports whether p lies strictly left of the direction of travel.
	LeftOf(p r2.Point) bool
	IsOn(p r2.Point) bool
	// AngleAtPointDegrees is the heading of the path at the point nearest p, counterclockwise from +x.
	AngleAtPointDegrees(p r2.Point) float64
	IntersectWithLine(line spatialmath.Line2D) (r2.Point, bool)
	PerpendicularAtPoint(p r2.Point) spatialmath.Line2D
	OrthogonalProjection(p r2.Point) r2.Point
	// SupportingLine is the line the path follows near p: the tangent for arcs and the located
	// sub-primitive's line for sequences.
	SupportingLine(p r2.Point) spatialmath.Line2D

	Transform(pose spatialmath.Pose2D) Primitive
	// CreateReverse returns a direction-flipped copy with the same pass number.
	CreateReverse() Primitive
	// CreateNextPrimitive returns the parallel pass one implement width to the left (pass number
	// minus one) or to the right (pass number plus one).
	CreateNextPrimitive(left bool) (Primitive, error)

	isPrimitive()
}

func isOn(prim Primitive, p r2.Point) bool {
	return prim.DistanceToPointSquared(p) <= OnTolerance*OnTolerance
}

func distanceSquared(a, b r2.Point) float64 {
	d := a.Sub(b)
	return d.Dot(d)
}

// Describe returns a one line human readable summary of a primitive.
func Describe(prim Primitive) string {
	attrs := prim.Attrs()
	switch p := prim.(type) {
	case Line:
		l := p.Line2D()
		return fmt.Sprintf("line pass=%d through (%.3f, %.3f) heading %.2f°",
			attrs.PassNumber, l.Point.X, l.Point.Y, l.HeadingDegrees())
	case Ray:
		return fmt.Sprintf("ray pass=%d at (%.3f, %.3f) heading %.2f° leading=%t",
			attrs.PassNumber, p.Origin().X, p.Origin().Y, p.Line2D().HeadingDegrees(), p.Reverse())
	case Segment:
		return fmt.Sprintf("segment pass=%d (%.3f, %.3f) -> (%.3f, %.3f)",
			attrs.PassNumber, p.Source().X, p.Source().Y, p.Target().X, p.Target().Y)
	case Arc:
		return fmt.Sprintf("arc pass=%d center (%.3f, %.3f) radius %.3f sweep %.2f° ccw=%t",
			attrs.PassNumber, p.Center().X, p.Center().Y, p.Radius(), p.SweepDegrees(), p.CounterClockwise())
	case Sequence:
		return fmt.Sprintf("sequence pass=%d of %d primitives, bounded length %.3f",
			attrs.PassNumber, p.Len(), p.BoundedLength())
	}
	return prim.Kind().String()
}
