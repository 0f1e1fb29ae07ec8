package turn

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/autosteer/guidepath"
	"go.viam.com/autosteer/plan"
	"go.viam.com/autosteer/spatialmath"
	"go.viam.com/autosteer/utils"
)

var (
	// ErrNoPlan is returned when there is no pass to turn from or no feasible path.
	ErrNoPlan = errors.New("no plan to turn on")
	// ErrNoIntersection is returned when the target pass does not cross the line perpendicular to
	// the current pass at the turn start.
	ErrNoIntersection = errors.New("target pass does not intersect the turn perpendicular")
)

// minPieceLength is the shortest piece of a Dubins path kept in a turn sequence.
const minPieceLength = 1e-3

// Request describes a turn to compute.
type Request struct {
	// Plan holds the passes. The pass nearest Vehicle is the one being left.
	Plan    plan.Snapshot
	Vehicle spatialmath.Pose2D
	// Left is the side of the vehicle the turn goes to.
	Left bool
	// Skip is how many passes to move over. Values below one mean one.
	Skip   int
	Radius float64
}

// Turn is a computed maneuver onto another pass.
type Turn struct {
	Sequence         guidepath.Sequence
	TargetPassNumber int32
	Path             Path
	Destination      spatialmath.Pose2D
}

// BuildTurn computes the turn described by req:
//  1. find the pass nearest the vehicle and whether it is driven against its direction,
//  2. offset the vehicle Skip implement widths to the requested side,
//  3. intersect the perpendicular to the current pass at the vehicle with the target pass,
//  4. head the destination opposite to the current travel direction,
//  5. connect vehicle and destination with the shortest Dubins path.
func BuildTurn(req Request) (Turn, error) {
	current := plan.NewWith(req.Plan.Primitives...)
	pos := req.Vehicle.Point()
	h, _ := current.Nearest(pos, plan.Handle{})
	pass, ok := current.Get(h)
	if !ok {
		return Turn{}, ErrNoPlan
	}

	passHeading := utils.DegToRad(pass.AngleAtPointDegrees(pos))
	reversed := math.Abs(utils.WrapToPi(req.Vehicle.Theta()-passHeading)) > math.Pi/2
	// the side of the pass, as opposed to the side of the vehicle
	passLeft := req.Left != reversed

	skip := req.Skip
	if skip < 1 {
		skip = 1
	}
	target := pass
	for i := 0; i < skip; i++ {
		next, err := target.CreateNextPrimitive(passLeft)
		if err != nil {
			return Turn{}, errors.Wrap(err, "cannot create target pass")
		}
		target = next
	}

	width := pass.Attrs().ImplementWidth
	normal := pass.SupportingLine(pos).LeftNormal()
	if !passLeft {
		normal = normal.Mul(-1)
	}
	anchor := pos.Add(normal.Mul(width * float64(skip)))

	perpendicular := pass.PerpendicularAtPoint(pos)
	dest, ok := target.IntersectWithLine(perpendicular)
	if !ok {
		if dest, ok = target.SupportingLine(anchor).Intersect(perpendicular); !ok {
			return Turn{}, ErrNoIntersection
		}
	}

	destHeading := utils.DegToRad(target.AngleAtPointDegrees(dest))
	if !reversed {
		destHeading += math.Pi
	}
	destination := spatialmath.NewPose2D(dest.X, dest.Y, utils.WrapToPi(destHeading))

	path, err := Dubins{Radius: req.Radius}.Shortest(req.Vehicle, destination)
	if err != nil {
		return Turn{}, err
	}
	attrs := guidepath.Attributes{
		ImplementWidth: width,
		PassNumber:     target.Attrs().PassNumber,
	}
	seq, err := SequenceFromDubins(path, attrs)
	if err != nil {
		return Turn{}, err
	}
	return Turn{
		Sequence:         seq,
		TargetPassNumber: attrs.PassNumber,
		Path:             path,
		Destination:      destination,
	}, nil
}

// SequenceFromDubins turns a Dubins path into a drivable sequence: a leading ray into the start,
// the arcs and segment of the path, and a trailing ray out of the end. Pieces shorter than a
// millimeter are dropped and arcs sweeping more than half a turn are split into quarter turns.
func SequenceFromDubins(path Path, attrs guidepath.Attributes) (guidepath.Sequence, error) {
	if !path.Feasible() {
		return guidepath.Sequence{}, ErrNoPlan
	}
	d := Dubins{Radius: path.Radius}
	start, end := path.Start, path.End()

	prims := []guidepath.Primitive{guidepath.NewLeadingRay(start.Point(), heading(start), attrs)}
	pose := start
	for i, step := range path.Type.Steps() {
		l := path.Lengths[i]
		next := advance(pose, step, l, path.Radius)
		if l >= minPieceLength {
			switch step {
			case 'S':
				prims = append(prims, guidepath.NewSegment(pose.Point(), next.Point(), attrs))
			default:
				left := step == 'L'
				center := d.findCenter(pose, left)
				// a cell bounded by two radial lines only holds an arc of at most half a turn
				pieces := 1
				if sweep := l / path.Radius; sweep > math.Pi {
					pieces = int(math.Ceil(sweep / (math.Pi / 2)))
				}
				from, piece := pose, l/float64(pieces)
				for k := 0; k < pieces; k++ {
					prims = append(prims, guidepath.NewArcFromCenter(center, from.Point(), piece/path.Radius, left, attrs))
					from = advance(from, step, piece, path.Radius)
				}
			}
		}
		pose = next
	}
	prims = append(prims, guidepath.NewRay(end.Point(), heading(end), attrs))
	return guidepath.NewSequence(prims, turnBisectors(prims), attrs)
}

func heading(pose spatialmath.Pose2D) r2.Point {
	return r2.Point{X: math.Cos(pose.Theta()), Y: math.Sin(pose.Theta())}
}

// turnBisectors places the radial line of an arc at each joint it takes part in. Joints between
// straight pieces get the corner bisector.
func turnBisectors(prims []guidepath.Primitive) []spatialmath.Line2D {
	straight := guidepath.JoinBisectors(prims)
	out := make([]spatialmath.Line2D, 0, len(prims)-1)
	for i := 0; i+1 < len(prims); i++ {
		var radial spatialmath.Line2D
		var joint, behind r2.Point
		if arc, ok := prims[i].(guidepath.Arc); ok {
			radial = arc.EndToCenter()
			joint, behind = arc.End(), arc.EndTangent().Direction
		} else if arc, ok := prims[i+1].(guidepath.Arc); ok {
			radial = arc.StartToCenter()
			joint, behind = arc.Start(), arc.StartTangent().Direction
		} else {
			out = append(out, straight[i])
			continue
		}
		out = append(out, spatialmath.OrientBisectorTowardSource(radial, joint.Sub(behind)))
	}
	return out
}
