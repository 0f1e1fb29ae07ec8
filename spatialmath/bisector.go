package spatialmath

import "github.com/golang/geo/r2"

// JoinBisector returns the line through joint that bisects the corner formed by arriving along prev
// and leaving along next. It is the bisector of prev.Opposite() and next, so it separates the
// points closer to prev from those closer to next. When next continues straight on from prev the
// corner has no interior and the perpendicular of next at joint is returned.
func JoinBisector(prev, next Line2D, joint r2.Point) Line2D {
	d := prev.Direction.Mul(-1).Add(next.Direction)
	if d.Norm() < 1e-9 {
		return next.PerpendicularAt(joint)
	}
	return Line2D{Point: joint, Direction: d.Normalize()}
}

// OrientBisectorTowardSource flips bisector if needed so that source lies on its negative side.
// Bisectors partition a sequence and the negative side belongs to the earlier primitive, so
// source should be a point on that earlier primitive.
func OrientBisectorTowardSource(bisector Line2D, source r2.Point) Line2D {
	if bisector.HasOnPositiveSide(source) {
		return bisector.Opposite()
	}
	return bisector
}
