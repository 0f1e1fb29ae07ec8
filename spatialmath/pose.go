package spatialmath

import (
	"math"

	"github.com/golang/geo/r2"
)

// Pose2D is a planar rigid transform: a rotation by theta followed by a translation.
type Pose2D struct {
	translation r2.Point
	theta       float64
}

// NewZeroPose returns the identity transform.
func NewZeroPose() Pose2D {
	return Pose2D{}
}

// NewPose2D returns the transform rotating by theta radians then translating by (x, y).
func NewPose2D(x, y, theta float64) Pose2D {
	return Pose2D{translation: r2.Point{X: x, Y: y}, theta: theta}
}

// NewPoseFromPoint returns a pure translation.
func NewPoseFromPoint(v r2.Point) Pose2D {
	return Pose2D{translation: v}
}

// NewRotationAbout returns the rotation by theta radians about center.
func NewRotationAbout(center r2.Point, theta float64) Pose2D {
	rot := Pose2D{theta: theta}
	return Pose2D{translation: center.Sub(rot.ApplyVector(center)), theta: theta}
}

// Point returns the translation component.
func (p Pose2D) Point() r2.Point {
	return p.translation
}

// Theta returns the rotation component in radians.
func (p Pose2D) Theta() float64 {
	return p.theta
}

// ApplyVector rotates v without translating it.
func (p Pose2D) ApplyVector(v r2.Point) r2.Point {
	s, c := math.Sincos(p.theta)
	return r2.Point{X: c*v.X - s*v.Y, Y: s*v.X + c*v.Y}
}

// Apply transforms the point v.
func (p Pose2D) Apply(v r2.Point) r2.Point {
	return p.ApplyVector(v).Add(p.translation)
}

// Compose returns the transform applying b first and then a.
func Compose(a, b Pose2D) Pose2D {
	return Pose2D{translation: a.Apply(b.translation), theta: a.theta + b.theta}
}

// PoseInverse returns the transform undoing p.
func PoseInverse(p Pose2D) Pose2D {
	inv := Pose2D{theta: -p.theta}
	return Pose2D{translation: inv.ApplyVector(p.translation).Mul(-1), theta: -p.theta}
}
