package guidepath

import (
	"math"

	"github.com/golang/geo/r2"

	"go.viam.com/autosteer/spatialmath"
	"go.viam.com/autosteer/utils"
)

// minArcRadius is the radius at or below which an offset arc is considered collapsed.
const minArcRadius = 1e-6

// arcLocation classifies a point by the angular range of an arc.
type arcLocation int

const (
	beforeStart arcLocation = iota
	withinArc
	afterEnd
)

// Arc is a circular arc from Start through Mid to End.
type Arc struct {
	Attributes
	start, mid, end r2.Point

	center     r2.Point
	radius     float64
	ccw        bool
	startAngle float64
	sweep      float64
}

// NewArc returns the arc through start, mid and end. The points must not be collinear.
func NewArc(start, mid, end r2.Point, attrs Attributes) Arc {
	center, _ := spatialmath.Circumcenter(start, mid, end)
	ccw := spatialmath.Orientation(start, mid, end) > 0
	startAngle := angleAround(center, start)
	endAngle := angleAround(center, end)
	sweep := utils.WrapTo2Pi(endAngle - startAngle)
	if !ccw {
		sweep = utils.WrapTo2Pi(startAngle - endAngle)
	}
	return Arc{
		Attributes: attrs,
		start:      start,
		mid:        mid,
		end:        end,
		center:     center,
		radius:     start.Sub(center).Norm(),
		ccw:        ccw,
		startAngle: startAngle,
		sweep:      sweep,
	}
}

// NewArcFromCenter returns the arc around center starting at start and sweeping sweep radians,
// counterclockwise if ccw.
func NewArcFromCenter(center, start r2.Point, sweep float64, ccw bool, attrs Attributes) Arc {
	signed := sweep
	if !ccw {
		signed = -sweep
	}
	mid := spatialmath.NewRotationAbout(center, signed/2).Apply(start)
	end := spatialmath.NewRotationAbout(center, signed).Apply(start)
	return NewArc(start, mid, end, attrs)
}

func angleAround(center, p r2.Point) float64 {
	return math.Atan2(p.Y-center.Y, p.X-center.X)
}

// Start is the first point of the arc.
func (a Arc) Start() r2.Point {
	return a.start
}

// Mid is the defining middle point of the arc.
func (a Arc) Mid() r2.Point {
	return a.mid
}

// End is the last point of the arc.
func (a Arc) End() r2.Point {
	return a.end
}

// Center is the circle center.
func (a Arc) Center() r2.Point {
	return a.center
}

// Radius is the circle radius.
func (a Arc) Radius() float64 {
	return a.radius
}

// CounterClockwise reports the chirality of the arc.
func (a Arc) CounterClockwise() bool {
	return a.ccw
}

// Curvature is positive for counterclockwise arcs.
func (a Arc) Curvature() float64 {
	if a.ccw {
		return 1 / a.radius
	}
	return -1 / a.radius
}

// Sweep is the swept angle in radians, always positive.
func (a Arc) Sweep() float64 {
	return a.sweep
}

// SweepDegrees is Sweep in degrees.
func (a Arc) SweepDegrees() float64 {
	return utils.RadToDeg(a.sweep)
}

// Length is the arc length.
func (a Arc) Length() float64 {
	return a.radius * a.sweep
}

// StartToCenter is the radial line from the start point to the center.
func (a Arc) StartToCenter() spatialmath.Line2D {
	return spatialmath.NewLine2DFromPoints(a.start, a.center)
}

// EndToCenter is the radial line from the end point to the center.
func (a Arc) EndToCenter() spatialmath.Line2D {
	return spatialmath.NewLine2DFromPoints(a.end, a.center)
}

// relativeAngle is the angle of p past the start in the direction of travel, in [0, 2pi).
func (a Arc) relativeAngle(p r2.Point) float64 {
	theta := angleAround(a.center, p)
	if a.ccw {
		return utils.WrapTo2Pi(theta - a.startAngle)
	}
	return utils.WrapTo2Pi(a.startAngle - theta)
}

// locate classifies p by angle. Points outside the swept range belong to whichever end point is
// angularly nearer.
func (a Arc) locate(p r2.Point) arcLocation {
	rel := a.relativeAngle(p)
	if rel <= a.sweep {
		return withinArc
	}
	if rel-a.sweep < 2*math.Pi-rel {
		return afterEnd
	}
	return beforeStart
}

// tangentAt is the direction of travel at the given absolute angle around the center.
func (a Arc) tangentAt(theta float64) r2.Point {
	s, c := math.Sincos(theta)
	if a.ccw {
		return r2.Point{X: -s, Y: c}
	}
	return r2.Point{X: s, Y: -c}
}

// StartTangent is the line through the start point along the direction of travel.
func (a Arc) StartTangent() spatialmath.Line2D {
	return spatialmath.Line2D{Point: a.start, Direction: a.tangentAt(a.startAngle)}
}

// EndTangent is the line through the end point along the direction of travel.
func (a Arc) EndTangent() spatialmath.Line2D {
	return spatialmath.Line2D{Point: a.end, Direction: a.tangentAt(angleAround(a.center, a.end))}
}

func (a Arc) isPrimitive() {}

// Kind returns KindArc.
func (a Arc) Kind() Kind {
	return KindArc
}

// WithAttributes returns a copy with the given attributes.
func (a Arc) WithAttributes(attrs Attributes) Primitive {
	a.Attributes = attrs
	return a
}

// DistanceToPointSquared measures to the circle within the swept range and to the nearer end
// point outside it.
func (a Arc) DistanceToPointSquared(p r2.Point) float64 {
	switch a.locate(p) {
	case beforeStart:
		return distanceSquared(p, a.start)
	case afterEnd:
		return distanceSquared(p, a.end)
	default:
		d := p.Sub(a.center).Norm() - a.radius
		return d * d
	}
}

// LeftOf reports whether p is left of the direction of travel. Within the swept range that is
// inside the circle for counterclockwise arcs and outside it for clockwise ones. Outside the range
// the tangent at the nearer end point decides.
func (a Arc) LeftOf(p r2.Point) bool {
	switch a.locate(p) {
	case beforeStart:
		return a.StartTangent().HasOnPositiveSide(p)
	case afterEnd:
		return a.EndTangent().HasOnPositiveSide(p)
	default:
		dist := p.Sub(a.center).Norm()
		if a.ccw {
			return dist < a.radius
		}
		return dist > a.radius
	}
}

// IsOn reports whether p lies on the arc.
func (a Arc) IsOn(p r2.Point) bool {
	return isOn(a, p)
}

// OrthogonalProjection returns the nearest point of the arc.
func (a Arc) OrthogonalProjection(p r2.Point) r2.Point {
	switch a.locate(p) {
	case beforeStart:
		return a.start
	case afterEnd:
		return a.end
	default:
		radial := p.Sub(a.center)
		if radial.Norm() == 0 {
			return a.start
		}
		return a.center.Add(radial.Normalize().Mul(a.radius))
	}
}

// SupportingLine is the tangent at the projection of p.
func (a Arc) SupportingLine(p r2.Point) spatialmath.Line2D {
	proj := a.OrthogonalProjection(p)
	return spatialmath.Line2D{Point: proj, Direction: a.tangentAt(angleAround(a.center, proj))}
}

// AngleAtPointDegrees is the heading of the tangent at the projection of p.
func (a Arc) AngleAtPointDegrees(p r2.Point) float64 {
	return a.SupportingLine(p).HeadingDegrees()
}

// PerpendicularAtPoint is the radial line through the projection of p.
func (a Arc) PerpendicularAtPoint(p r2.Point) spatialmath.Line2D {
	tangent := a.SupportingLine(p)
	return tangent.PerpendicularAt(tangent.Point)
}

// IntersectWithLine returns the first intersection along line that lies within the swept range.
func (a Arc) IntersectWithLine(line spatialmath.Line2D) (r2.Point, bool) {
	for _, p := range spatialmath.IntersectLineCircleExact(line, a.start, a.mid, a.end) {
		if a.locate(p) == withinArc || isOn(a, p) {
			return p, true
		}
	}
	return r2.Point{}, false
}

// Transform returns the transformed arc.
func (a Arc) Transform(pose spatialmath.Pose2D) Primitive {
	return NewArc(pose.Apply(a.start), pose.Apply(a.mid), pose.Apply(a.end), a.Attributes)
}

// CreateReverse swaps start and end, flipping the chirality.
func (a Arc) CreateReverse() Primitive {
	return NewArc(a.end, a.mid, a.start, a.Attributes)
}

// CreateNextPrimitive returns the concentric arc one implement width to the side. Offsetting
// toward the center shrinks the radius and fails with ErrCollapsed once it would vanish.
func (a Arc) CreateNextPrimitive(left bool) (Primitive, error) {
	inward := left == a.ccw
	radius := a.radius + a.ImplementWidth
	if inward {
		radius = a.radius - a.ImplementWidth
	}
	if radius <= minArcRadius {
		return nil, ErrCollapsed
	}
	scale := func(p r2.Point) r2.Point {
		return a.center.Add(p.Sub(a.center).Mul(radius / a.radius))
	}
	return NewArc(scale(a.start), scale(a.mid), scale(a.end), a.next(left)), nil
}
