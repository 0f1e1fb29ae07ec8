package guidepath

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/autosteer/spatialmath"
)

// minSegmentLength is the length below which an offset segment is dropped from a sequence.
const minSegmentLength = 1e-6

// Sequence is an ordered chain of sub-primitives. Between every adjacent pair there is a bisector
// line; its negative side belongs to the earlier sub-primitive and its positive side to the later
// one. Queries are delegated to the sub-primitive whose cell contains the query point.
type Sequence struct {
	Attributes
	prims     []Primitive
	bisectors []spatialmath.Line2D
}

// NewSequence builds a sequence. There must be exactly one bisector fewer than sub-primitives.
// Every sub-primitive takes on the sequence attributes.
func NewSequence(prims []Primitive, bisectors []spatialmath.Line2D, attrs Attributes) (Sequence, error) {
	if len(prims) == 0 {
		return Sequence{}, ErrEmptySequence
	}
	if len(bisectors) != len(prims)-1 {
		return Sequence{}, errors.Errorf("sequence of %d primitives needs %d bisectors, got %d",
			len(prims), len(prims)-1, len(bisectors))
	}
	seq := Sequence{
		Attributes: attrs,
		prims:      make([]Primitive, len(prims)),
		bisectors:  append([]spatialmath.Line2D(nil), bisectors...),
	}
	for i, p := range prims {
		if _, nested := p.(Sequence); nested {
			return Sequence{}, errors.New("sequences cannot be nested")
		}
		seq.prims[i] = p.WithAttributes(attrs)
	}
	return seq, nil
}

// Len returns the number of sub-primitives.
func (s Sequence) Len() int {
	return len(s.prims)
}

// At returns the i-th sub-primitive.
func (s Sequence) At(i int) Primitive {
	return s.prims[i]
}

// Primitives returns a copy of the sub-primitives.
func (s Sequence) Primitives() []Primitive {
	return append([]Primitive(nil), s.prims...)
}

// Bisectors returns a copy of the bisectors.
func (s Sequence) Bisectors() []spatialmath.Line2D {
	return append([]spatialmath.Line2D(nil), s.bisectors...)
}

// BoundedLength is the summed length of the segments and arcs. Rays are unbounded and not counted.
func (s Sequence) BoundedLength() float64 {
	var total float64
	for _, p := range s.prims {
		switch sub := p.(type) {
		case Segment:
			total += sub.Length()
		case Arc:
			total += sub.Length()
		}
	}
	return total
}

// FindSequencePrimitive returns the index of the sub-primitive owning p: the one after the last
// bisector that has p on its positive side, as long as the bisectors do not cross. Radial lines of
// a turn do cross, so the owner is the nearest sub-primitive among the cells that contain p. The
// scan result is only used when no cell contains p.
func (s Sequence) FindSequencePrimitive(p r2.Point) int {
	last := 0
	for i, b := range s.bisectors {
		if b.HasOnPositiveSide(p) {
			last = i + 1
		}
	}
	best, bestDist := last, math.Inf(1)
	for i, sub := range s.prims {
		if !s.inCell(i, p) {
			continue
		}
		if d := sub.DistanceToPointSquared(p); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// inCell reports whether p is between the bisectors bounding the i-th cell. Points on a bisector
// belong to both of its cells.
func (s Sequence) inCell(i int, p r2.Point) bool {
	if i > 0 && s.bisectors[i-1].HasOnNegativeSide(p) {
		return false
	}
	return i == len(s.bisectors) || !s.bisectors[i].HasOnPositiveSide(p)
}

func (s Sequence) located(p r2.Point) Primitive {
	return s.prims[s.FindSequencePrimitive(p)]
}

func (s Sequence) isPrimitive() {}

// Kind returns KindSequence.
func (s Sequence) Kind() Kind {
	return KindSequence
}

// WithAttributes returns a copy with the given attributes applied to every sub-primitive.
func (s Sequence) WithAttributes(attrs Attributes) Primitive {
	prims := make([]Primitive, len(s.prims))
	for i, p := range s.prims {
		prims[i] = p.WithAttributes(attrs)
	}
	return Sequence{Attributes: attrs, prims: prims, bisectors: s.bisectors}
}

// DistanceToPointSquared delegates to the owning sub-primitive.
func (s Sequence) DistanceToPointSquared(p r2.Point) float64 {
	return s.located(p).DistanceToPointSquared(p)
}

// LeftOf delegates to the owning sub-primitive.
func (s Sequence) LeftOf(p r2.Point) bool {
	return s.located(p).LeftOf(p)
}

// IsOn reports whether p lies on the sequence.
func (s Sequence) IsOn(p r2.Point) bool {
	return isOn(s, p)
}

// AngleAtPointDegrees delegates to the owning sub-primitive.
func (s Sequence) AngleAtPointDegrees(p r2.Point) float64 {
	return s.located(p).AngleAtPointDegrees(p)
}

// PerpendicularAtPoint delegates to the owning sub-primitive.
func (s Sequence) PerpendicularAtPoint(p r2.Point) spatialmath.Line2D {
	return s.located(p).PerpendicularAtPoint(p)
}

// OrthogonalProjection delegates to the owning sub-primitive.
func (s Sequence) OrthogonalProjection(p r2.Point) r2.Point {
	return s.located(p).OrthogonalProjection(p)
}

// SupportingLine returns the supporting line of the owning sub-primitive.
func (s Sequence) SupportingLine(p r2.Point) spatialmath.Line2D {
	return s.located(p).SupportingLine(p)
}

// IntersectWithLine returns the intersection nearest to line.Point among those that fall in the
// cell of the sub-primitive they were found on.
func (s Sequence) IntersectWithLine(line spatialmath.Line2D) (r2.Point, bool) {
	var best r2.Point
	found := false
	for i, sub := range s.prims {
		p, ok := sub.IntersectWithLine(line)
		if !ok || s.FindSequencePrimitive(p) != i {
			continue
		}
		if !found || distanceSquared(p, line.Point) < distanceSquared(best, line.Point) {
			best, found = p, true
		}
	}
	return best, found
}

// Transform transforms every sub-primitive and bisector.
func (s Sequence) Transform(pose spatialmath.Pose2D) Primitive {
	prims := make([]Primitive, len(s.prims))
	for i, p := range s.prims {
		prims[i] = p.Transform(pose)
	}
	bisectors := make([]spatialmath.Line2D, len(s.bisectors))
	for i, b := range s.bisectors {
		bisectors[i] = b.Transform(pose)
	}
	return Sequence{Attributes: s.Attributes, prims: prims, bisectors: bisectors}
}

// CreateReverse reverses the order and direction of the sub-primitives. Bisectors are reversed
// and flipped so their negative side still faces the earlier sub-primitive.
func (s Sequence) CreateReverse() Primitive {
	n := len(s.prims)
	prims := make([]Primitive, n)
	for i, p := range s.prims {
		prims[n-1-i] = p.CreateReverse()
	}
	m := len(s.bisectors)
	bisectors := make([]spatialmath.Line2D, m)
	for i, b := range s.bisectors {
		bisectors[m-1-i] = b.Opposite()
	}
	return Sequence{Attributes: s.Attributes, prims: prims, bisectors: bisectors}
}

// CreateNextPrimitive offsets every sub-primitive. Adjacent straight pieces are rejoined at the
// intersection of their offset lines, pieces that collapse are dropped and the bisectors are
// rebuilt at the new joints.
func (s Sequence) CreateNextPrimitive(left bool) (Primitive, error) {
	attrs := s.next(left)
	offset := make([]Primitive, 0, len(s.prims))
	for _, p := range s.prims {
		next, err := p.CreateNextPrimitive(left)
		if errors.Is(err, ErrCollapsed) {
			continue
		}
		if err != nil {
			return nil, err
		}
		offset = append(offset, next)
	}
	offset = rejoinStraight(offset)
	if len(offset) == 0 {
		return nil, ErrEmptySequence
	}
	seq, err := NewSequence(offset, JoinBisectors(offset), attrs)
	if err != nil {
		return nil, err
	}
	return seq, nil
}

// JoinBisectors builds the bisector between every adjacent pair of sub-primitives at their joint,
// oriented so the earlier sub-primitive is on the negative side.
func JoinBisectors(prims []Primitive) []spatialmath.Line2D {
	if len(prims) < 2 {
		return nil
	}
	bisectors := make([]spatialmath.Line2D, 0, len(prims)-1)
	for i := 0; i+1 < len(prims); i++ {
		endTangent, ok1 := endTangentOf(prims[i])
		startTangent, ok2 := startTangentOf(prims[i+1])
		if !ok1 || !ok2 {
			// Unbounded on the joining side; fall back to the lines near each other.
			endTangent = prims[i].SupportingLine(r2.Point{})
			startTangent = prims[i+1].SupportingLine(r2.Point{})
			if joint, ok := endTangent.Intersect(startTangent); ok {
				endTangent.Point, startTangent.Point = joint, joint
			}
		}
		joint := endTangent.Point.Add(startTangent.Point).Mul(0.5)
		bis := spatialmath.JoinBisector(endTangent, startTangent, joint)
		bisectors = append(bisectors, spatialmath.OrientBisectorTowardSource(bis, joint.Sub(endTangent.Direction)))
	}
	return bisectors
}

// endTangentOf returns the line through the end point of a bounded-at-the-end primitive along its
// final direction of travel.
func endTangentOf(p Primitive) (spatialmath.Line2D, bool) {
	switch sub := p.(type) {
	case Segment:
		return spatialmath.Line2D{Point: sub.target, Direction: sub.line.Direction}, true
	case Ray:
		if sub.reverse {
			return sub.line, true
		}
	case Arc:
		return sub.EndTangent(), true
	}
	return spatialmath.Line2D{}, false
}

// startTangentOf returns the line through the start point of a bounded-at-the-start primitive
// along its initial direction of travel.
func startTangentOf(p Primitive) (spatialmath.Line2D, bool) {
	switch sub := p.(type) {
	case Segment:
		return spatialmath.Line2D{Point: sub.source, Direction: sub.line.Direction}, true
	case Ray:
		if !sub.reverse {
			return sub.line, true
		}
	case Arc:
		return sub.StartTangent(), true
	}
	return spatialmath.Line2D{}, false
}

func isStraight(p Primitive) bool {
	switch p.(type) {
	case Segment, Ray:
		return true
	}
	return false
}

// withEnd moves the end of a straight primitive. It reports false if a segment would reverse.
func withEnd(p Primitive, end r2.Point) (Primitive, bool) {
	switch sub := p.(type) {
	case Segment:
		if end.Sub(sub.source).Dot(sub.line.Direction) <= minSegmentLength {
			return p, false
		}
		return NewSegment(sub.source, end, sub.Attributes), true
	case Ray:
		if sub.reverse {
			return Ray{Attributes: sub.Attributes, line: spatialmath.Line2D{Point: end, Direction: sub.line.Direction}, reverse: true}, true
		}
	}
	return p, true
}

// withStart moves the start of a straight primitive. It reports false if a segment would reverse.
func withStart(p Primitive, start r2.Point) (Primitive, bool) {
	switch sub := p.(type) {
	case Segment:
		if sub.target.Sub(start).Dot(sub.line.Direction) <= minSegmentLength {
			return p, false
		}
		return NewSegment(start, sub.target, sub.Attributes), true
	case Ray:
		if !sub.reverse {
			return Ray{Attributes: sub.Attributes, line: spatialmath.Line2D{Point: start, Direction: sub.line.Direction}}, true
		}
	}
	return p, true
}

// rejoinStraight trims or extends adjacent straight pieces to meet at the intersection of their
// supporting lines. A segment that would be turned around by its neighbours is removed and its
// neighbours are joined directly.
func rejoinStraight(prims []Primitive) []Primitive {
	out := append([]Primitive(nil), prims...)
	for {
		removed := false
		for i := 0; i+1 < len(out); i++ {
			a, b := out[i], out[i+1]
			if !isStraight(a) || !isStraight(b) {
				continue
			}
			joint, ok := a.SupportingLine(r2.Point{}).Intersect(b.SupportingLine(r2.Point{}))
			if !ok {
				continue
			}
			newA, okA := withEnd(a, joint)
			newB, okB := withStart(b, joint)
			if !okA {
				out = append(out[:i], out[i+1:]...)
				removed = true
				break
			}
			if !okB {
				out = append(out[:i+1], out[i+2:]...)
				removed = true
				break
			}
			out[i], out[i+1] = newA, newB
		}
		if !removed {
			return out
		}
	}
}
