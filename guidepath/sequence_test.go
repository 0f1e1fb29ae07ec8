package guidepath

import (
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/autosteer/spatialmath"
)

// lShape runs in from the west along y=0, turns left at (10, 0) and leaves north along x=10.
func lShape(t *testing.T) Sequence {
	t.Helper()
	attrs := Attributes{ImplementWidth: 1}
	prims := []Primitive{
		NewLeadingRay(pt(0, 0), pt(1, 0), attrs),
		NewSegment(pt(0, 0), pt(10, 0), attrs),
		NewSegment(pt(10, 0), pt(10, 10), attrs),
		NewRay(pt(10, 10), pt(0, 1), attrs),
	}
	seq, err := NewSequence(prims, JoinBisectors(prims), attrs)
	test.That(t, err, test.ShouldBeNil)
	return seq
}

func TestNewSequenceValidation(t *testing.T) {
	_, err := NewSequence(nil, nil, Attributes{})
	test.That(t, err, test.ShouldBeError, ErrEmptySequence)

	prims := []Primitive{NewRay(pt(0, 0), pt(1, 0), Attributes{}), NewRay(pt(1, 0), pt(1, 0), Attributes{})}
	_, err = NewSequence(prims, nil, Attributes{})
	test.That(t, err, test.ShouldNotBeNil)

	seq := lShape(t)
	_, err = NewSequence([]Primitive{seq}, nil, Attributes{})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSequenceQueries(t *testing.T) {
	seq := lShape(t)
	test.That(t, seq.Len(), test.ShouldEqual, 4)
	test.That(t, len(seq.Bisectors()), test.ShouldEqual, 3)
	test.That(t, seq.BoundedLength(), test.ShouldAlmostEqual, 20)

	test.That(t, seq.FindSequencePrimitive(pt(-3, 1)), test.ShouldEqual, 0)
	test.That(t, seq.FindSequencePrimitive(pt(5, -1)), test.ShouldEqual, 1)
	test.That(t, seq.FindSequencePrimitive(pt(11, 5)), test.ShouldEqual, 2)
	test.That(t, seq.FindSequencePrimitive(pt(10, 20)), test.ShouldEqual, 3)

	test.That(t, seq.DistanceToPointSquared(pt(5, 2)), test.ShouldAlmostEqual, 4)
	test.That(t, seq.DistanceToPointSquared(pt(12, 5)), test.ShouldAlmostEqual, 4)
	test.That(t, seq.LeftOf(pt(5, 2)), test.ShouldBeTrue)
	test.That(t, seq.LeftOf(pt(12, 5)), test.ShouldBeFalse)
	test.That(t, seq.AngleAtPointDegrees(pt(12, 5)), test.ShouldAlmostEqual, 90)
	test.That(t, seq.AngleAtPointDegrees(pt(-20, 1)), test.ShouldAlmostEqual, 0)
	test.That(t, seq.SupportingLine(pt(12, 5)).HeadingDegrees(), test.ShouldAlmostEqual, 90)
	test.That(t, seq.IsOn(pt(10, 4)), test.ShouldBeTrue)

	p, ok := seq.IntersectWithLine(spatialmath.NewLine2DFromPoints(pt(5, 5), pt(20, 5)))
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, p.X, test.ShouldAlmostEqual, 10)
	test.That(t, p.Y, test.ShouldAlmostEqual, 5)

	for _, b := range seq.Bisectors() {
		test.That(t, b.IsDegenerate(), test.ShouldBeFalse)
	}
}

func TestSequenceOffsets(t *testing.T) {
	seq := lShape(t)

	right, err := seq.CreateNextPrimitive(false)
	test.That(t, err, test.ShouldBeNil)
	rightSeq := right.(Sequence)
	test.That(t, rightSeq.PassNumber, test.ShouldEqual, 1)
	test.That(t, rightSeq.At(1).Attrs().PassNumber, test.ShouldEqual, 1)
	test.That(t, rightSeq.Len(), test.ShouldEqual, 4)
	test.That(t, rightSeq.BoundedLength(), test.ShouldAlmostEqual, 22, tol)
	corner := rightSeq.At(2).(Segment).Source()
	test.That(t, corner.X, test.ShouldAlmostEqual, 11, tol)
	test.That(t, corner.Y, test.ShouldAlmostEqual, -1, tol)

	left, err := seq.CreateNextPrimitive(true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, left.(Sequence).BoundedLength(), test.ShouldAlmostEqual, 18, tol)

	back, err := right.CreateNextPrimitive(true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back.Attrs().PassNumber, test.ShouldEqual, 0)
	test.That(t, back.(Sequence).BoundedLength(), test.ShouldAlmostEqual, 20, tol)
	for _, probe := range []r2.Point{pt(-4, 2), pt(5, -3), pt(13, 4), pt(9, 30)} {
		test.That(t, back.DistanceToPointSquared(probe), test.ShouldAlmostEqual, seq.DistanceToPointSquared(probe), tol)
	}

	// Adjacent passes never cross: the right pass sees every point of the reference on its left,
	// and the reference sees every point of the right pass on its right.
	for _, probe := range samplesAlong(seq) {
		test.That(t, right.LeftOf(probe), test.ShouldBeTrue)
	}
	for _, probe := range samplesAlong(rightSeq) {
		test.That(t, seq.LeftOf(probe), test.ShouldBeFalse)
	}
}

func TestSequenceCollapse(t *testing.T) {
	attrs := Attributes{ImplementWidth: 12}
	prims := []Primitive{
		NewLeadingRay(pt(0, 0), pt(1, 0), attrs),
		NewSegment(pt(0, 0), pt(10, 0), attrs),
		NewSegment(pt(10, 0), pt(10, 10), attrs),
		NewRay(pt(10, 10), pt(0, 1), attrs),
	}
	seq, err := NewSequence(prims, JoinBisectors(prims), attrs)
	test.That(t, err, test.ShouldBeNil)

	// Offsetting into the corner by more than either leg removes both segments.
	inner, err := seq.CreateNextPrimitive(true)
	test.That(t, err, test.ShouldBeNil)
	innerSeq := inner.(Sequence)
	test.That(t, innerSeq.Len(), test.ShouldEqual, 2)
	test.That(t, innerSeq.At(0).Kind(), test.ShouldEqual, KindRay)
	test.That(t, innerSeq.At(1).Kind(), test.ShouldEqual, KindRay)
	joint := innerSeq.At(0).(Ray).Origin()
	test.That(t, joint.X, test.ShouldAlmostEqual, -2, tol)
	test.That(t, joint.Y, test.ShouldAlmostEqual, 12, tol)
	test.That(t, innerSeq.BoundedLength(), test.ShouldAlmostEqual, 0)
}

func TestSequenceReverseAndTransform(t *testing.T) {
	seq := lShape(t)
	rev := seq.CreateReverse().(Sequence)
	test.That(t, rev.At(0).(Ray).Reverse(), test.ShouldBeTrue)
	test.That(t, rev.At(3).(Ray).Reverse(), test.ShouldBeFalse)
	test.That(t, rev.LeftOf(pt(5, 2)), test.ShouldBeFalse)
	test.That(t, rev.LeftOf(pt(12, 5)), test.ShouldBeTrue)
	test.That(t, rev.AngleAtPointDegrees(pt(12, 5)), test.ShouldAlmostEqual, -90)
	test.That(t, rev.FindSequencePrimitive(pt(11, 5)), test.ShouldEqual, 1)

	twice := rev.CreateReverse()
	for _, probe := range []r2.Point{pt(-4, 2), pt(5, -3), pt(13, 4), pt(9, 30)} {
		test.That(t, twice.DistanceToPointSquared(probe), test.ShouldAlmostEqual, seq.DistanceToPointSquared(probe))
		test.That(t, twice.LeftOf(probe), test.ShouldEqual, seq.LeftOf(probe))
	}

	moved := seq.Transform(spatialmath.NewPoseFromPoint(pt(0, 5)))
	test.That(t, moved.DistanceToPointSquared(pt(5, 7)), test.ShouldAlmostEqual, 4)
	test.That(t, seq.DistanceToPointSquared(pt(5, 7)), test.ShouldAlmostEqual, 25)
}

// samplesAlong returns points on the trace of a straight-piece sequence, including the rays.
func samplesAlong(seq Sequence) []r2.Point {
	var out []r2.Point
	for _, p := range seq.Primitives() {
		switch sub := p.(type) {
		case Segment:
			for i := 0; i <= 10; i++ {
				out = append(out, sub.Line2D().PointAt(sub.Length()*float64(i)/10))
			}
		case Ray:
			sign := 1.0
			if sub.Reverse() {
				sign = -1
			}
			for i := 1; i <= 5; i++ {
				out = append(out, sub.Line2D().PointAt(sign*float64(i)*4))
			}
		}
	}
	return out
}
