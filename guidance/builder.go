// Package guidance turns operator input into a plan of parallel passes and keeps that plan around
// the vehicle as it moves.
package guidance

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/autosteer/guidepath"
	"go.viam.com/autosteer/plan"
	"go.viam.com/autosteer/spatialmath"
)

var (
	// ErrDegenerateGeometry is returned when a polyline folds back on itself.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
	// ErrZeroImplementWidth is returned when passes would have no spacing.
	ErrZeroImplementWidth = errors.New("implement width must be positive")
	// ErrTooFewPoints is returned when fewer than two distinct points define the reference.
	ErrTooFewPoints = errors.New("at least two distinct points are needed")
)

const (
	// minSegmentLength drops polyline points closer than this to the previous one.
	minSegmentLength = 1e-3
	// maxTurnRad is the sharpest corner a polyline may have. Anything sharper folds back and
	// the corner bisector becomes parallel to the pieces it separates.
	maxTurnRad = 179 * math.Pi / 180
)

// BuildFromPolyline builds the reference pass through points:
//   - two points give a Line,
//   - three points give two rays meeting at the middle point,
//   - more give a leading ray into the second point, segments up to the second to last point and
//     a trailing ray through the last one.
//
// Points closer than a millimeter to their predecessor are dropped first.
func BuildFromPolyline(points []r2.Point, attrs guidepath.Attributes) (guidepath.Primitive, error) {
	if !(attrs.ImplementWidth > 0) {
		return nil, ErrZeroImplementWidth
	}
	pts := FilterPolyline(points, minSegmentLength)
	if len(pts) < 2 {
		return nil, ErrTooFewPoints
	}
	if len(pts) == 2 {
		return guidepath.NewLineFromPoints(pts[0], pts[1], attrs), nil
	}
	for i := 1; i+1 < len(pts); i++ {
		in, out := pts[i].Sub(pts[i-1]), pts[i+1].Sub(pts[i])
		if math.Abs(math.Atan2(in.Cross(out), in.Dot(out))) > maxTurnRad {
			return nil, errors.Wrapf(ErrDegenerateGeometry, "polyline reverses at point %d", i)
		}
	}

	n := len(pts)
	prims := make([]guidepath.Primitive, 0, n-1)
	prims = append(prims, guidepath.NewLeadingRay(pts[1], pts[1].Sub(pts[0]), attrs))
	for i := 1; i+2 < n; i++ {
		prims = append(prims, guidepath.NewSegment(pts[i], pts[i+1], attrs))
	}
	prims = append(prims, guidepath.NewRay(pts[n-2], pts[n-1].Sub(pts[n-2]), attrs))

	lines := lo.Map(prims, func(p guidepath.Primitive, i int) spatialmath.Line2D {
		return spatialmath.NewLine2DFromPoints(pts[i], pts[i+1])
	})
	bisectors := make([]spatialmath.Line2D, 0, len(prims)-1)
	for i := 0; i+1 < len(lines); i++ {
		joint := pts[i+1]
		bis := spatialmath.JoinBisector(lines[i], lines[i+1], joint)
		bisectors = append(bisectors, spatialmath.OrientBisectorTowardSource(bis, pts[i]))
	}
	seq, err := guidepath.NewSequence(prims, bisectors, attrs)
	if err != nil {
		return nil, err
	}
	return seq, nil
}

// FilterPolyline drops every point closer than minDistance to the last point kept.
func FilterPolyline(points []r2.Point, minDistance float64) []r2.Point {
	out := make([]r2.Point, 0, len(points))
	for _, p := range points {
		if len(out) > 0 && out[len(out)-1].Sub(p).Norm() < minDistance {
			continue
		}
		out = append(out, p)
	}
	return out
}

// NewGlobalPlan returns a global plan around reference with the reserve already filled.
func NewGlobalPlan(reference guidepath.Primitive, pathsInReserve, maxRetained int) (*plan.Global, error) {
	global := plan.NewGlobal(pathsInReserve)
	global.MaxRetainedPasses = maxRetained
	if err := global.ResetWith(reference); err != nil {
		return nil, err
	}
	return global, nil
}

// Snap moves the whole plan so the pass nearest vehicle runs through it. The reference points are
// moved along. It returns the translation applied and the signed cross-track error it removed,
// positive when the vehicle was left of the pass.
func Snap(global *plan.Global, reference []r2.Point, vehicle r2.Point) (spatialmath.Pose2D, float64, bool) {
	h, _ := global.Nearest(vehicle, plan.Handle{})
	pass, ok := global.Get(h)
	if !ok {
		return spatialmath.Pose2D{}, 0, false
	}
	offset := vehicle.Sub(pass.OrthogonalProjection(vehicle))
	xte := offset.Norm()
	if !pass.LeftOf(vehicle) {
		xte = -xte
	}
	shift := spatialmath.NewPoseFromPoint(offset)
	global.Transform(shift)
	for i, p := range reference {
		reference[i] = shift.Apply(p)
	}
	return shift, xte, true
}
