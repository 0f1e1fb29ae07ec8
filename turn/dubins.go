// Package turn synthesizes the maneuvers that take a vehicle from one pass to another.
package turn

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"

	"go.viam.com/autosteer/spatialmath"
	"go.viam.com/autosteer/utils"
)

// PathType names the three pieces of a Dubins path: L and R are left and right turns of minimum
// radius and S is a straight line.
type PathType int

// The six Dubins path types, in the order AllPaths returns them unsorted.
const (
	LSL PathType = iota
	RSR
	RSL
	LSR
	RLR
	LRL
)

var pathTypeNames = [...]string{"LSL", "RSR", "RSL", "LSR", "RLR", "LRL"}

func (t PathType) String() string {
	if t < 0 || int(t) >= len(pathTypeNames) {
		return "unknown"
	}
	return pathTypeNames[t]
}

// Steps returns the kind of each piece as 'L', 'S' or 'R'.
func (t PathType) Steps() [3]byte {
	name := t.String()
	return [3]byte{name[0], name[1], name[2]}
}

// Path is a Dubins path. Lengths are in meters and in travel order. An infeasible path has an
// infinite TotalLen.
type Path struct {
	Type     PathType
	Start    spatialmath.Pose2D
	Radius   float64
	Lengths  [3]float64
	TotalLen float64
}

// Feasible reports whether the path exists.
func (p Path) Feasible() bool {
	return !math.IsInf(p.TotalLen, 1)
}

// Length returns the total length of the path.
func (p Path) Length() float64 {
	return p.TotalLen
}

// Straight reports whether the middle piece is a straight line.
func (p Path) Straight() bool {
	return p.Type.Steps()[1] == 'S'
}

// End returns the pose at the end of the path.
func (p Path) End() spatialmath.Pose2D {
	return p.PoseAt(p.TotalLen)
}

// PoseAt returns the pose after traveling s meters along the path. s is clamped to the path.
func (p Path) PoseAt(s float64) spatialmath.Pose2D {
	s = math.Max(0, math.Min(s, p.TotalLen))
	pose := p.Start
	for i, step := range p.Type.Steps() {
		l := math.Min(s, p.Lengths[i])
		pose = advance(pose, step, l, p.Radius)
		s -= l
		if s <= 0 {
			break
		}
	}
	return pose
}

// Sample returns poses every step meters along the path, always including both ends.
func (p Path) Sample(step float64) []spatialmath.Pose2D {
	if !p.Feasible() {
		return nil
	}
	if step <= 0 {
		step = p.TotalLen
	}
	out := []spatialmath.Pose2D{p.Start}
	n := int(math.Ceil(p.TotalLen / step))
	for i := 1; i < n; i++ {
		out = append(out, p.PoseAt(float64(i)*step))
	}
	if p.TotalLen > 0 {
		out = append(out, p.End())
	}
	return out
}

// advance moves pose l meters along one piece.
func advance(pose spatialmath.Pose2D, step byte, l, radius float64) spatialmath.Pose2D {
	x, y, th := pose.Point().X, pose.Point().Y, pose.Theta()
	switch step {
	case 'L':
		t := l / radius
		return spatialmath.NewPose2D(
			x+radius*(math.Sin(th+t)-math.Sin(th)),
			y-radius*(math.Cos(th+t)-math.Cos(th)),
			utils.WrapToPi(th+t))
	case 'R':
		t := l / radius
		return spatialmath.NewPose2D(
			x-radius*(math.Sin(th-t)-math.Sin(th)),
			y+radius*(math.Cos(th-t)-math.Cos(th)),
			utils.WrapToPi(th-t))
	default:
		return spatialmath.NewPose2D(x+l*math.Cos(th), y+l*math.Sin(th), th)
	}
}

// Dubins computes shortest paths of a vehicle that only moves forward with a minimum turning radius.
type Dubins struct {
	Radius float64
}

// findCenter returns the center of the minimum radius turn to the given side of pose.
func (d Dubins) findCenter(pose spatialmath.Pose2D, left bool) r2.Point {
	angle := pose.Theta() - math.Pi/2
	if left {
		angle = pose.Theta() + math.Pi/2
	}
	return pose.Point().Add(r2.Point{X: math.Cos(angle), Y: math.Sin(angle)}.Mul(d.Radius))
}

// AllPaths returns the six paths from start to end, shortest first when sorted is set.
func (d Dubins) AllPaths(start, end spatialmath.Pose2D, sorted bool) []Path {
	delta := end.Point().Sub(start.Point())
	dist := delta.Norm() / d.Radius
	theta := utils.WrapTo2Pi(math.Atan2(delta.Y, delta.X))
	alpha := utils.WrapTo2Pi(start.Theta() - theta)
	beta := utils.WrapTo2Pi(end.Theta() - theta)

	words := [...]func(a, b, d float64) ([3]float64, bool){lsl, rsr, rsl, lsr, rlr, lrl}
	paths := make([]Path, 0, len(words))
	for i, word := range words {
		path := Path{Type: PathType(i), Start: start, Radius: d.Radius, TotalLen: math.Inf(1)}
		if params, ok := word(alpha, beta, dist); ok {
			path.TotalLen = 0
			for k, v := range params {
				path.Lengths[k] = v * d.Radius
				path.TotalLen += path.Lengths[k]
			}
		}
		paths = append(paths, path)
	}
	if sorted {
		sort.SliceStable(paths, func(i, j int) bool { return paths[i].TotalLen < paths[j].TotalLen })
	}
	return paths
}

// Shortest returns the shortest feasible path from start to end.
func (d Dubins) Shortest(start, end spatialmath.Pose2D) (Path, error) {
	if d.Radius <= 0 {
		return Path{}, utils.NewDegenerateInputError("turn radius", "must be positive")
	}
	best := d.AllPaths(start, end, true)[0]
	if !best.Feasible() {
		return Path{}, ErrNoPlan
	}
	return best, nil
}

// The words below take the start and end headings relative to the line joining the two poses and
// the distance between them, all normalized by the radius, and return the normalized piece lengths.

func lsl(a, b, d float64) ([3]float64, bool) {
	sa, ca, sb, cb := math.Sin(a), math.Cos(a), math.Sin(b), math.Cos(b)
	p2 := 2 + d*d - 2*math.Cos(a-b) + 2*d*(sa-sb)
	if p2 < 0 {
		return [3]float64{}, false
	}
	tmp := math.Atan2(cb-ca, d+sa-sb)
	return [3]float64{utils.WrapTo2Pi(tmp - a), math.Sqrt(p2), utils.WrapTo2Pi(b - tmp)}, true
}

func rsr(a, b, d float64) ([3]float64, bool) {
	sa, ca, sb, cb := math.Sin(a), math.Cos(a), math.Sin(b), math.Cos(b)
	p2 := 2 + d*d - 2*math.Cos(a-b) + 2*d*(sb-sa)
	if p2 < 0 {
		return [3]float64{}, false
	}
	tmp := math.Atan2(ca-cb, d-sa+sb)
	return [3]float64{utils.WrapTo2Pi(a - tmp), math.Sqrt(p2), utils.WrapTo2Pi(tmp - b)}, true
}

func lsr(a, b, d float64) ([3]float64, bool) {
	sa, ca, sb, cb := math.Sin(a), math.Cos(a), math.Sin(b), math.Cos(b)
	p2 := -2 + d*d + 2*math.Cos(a-b) + 2*d*(sa+sb)
	if p2 < 0 {
		return [3]float64{}, false
	}
	p := math.Sqrt(p2)
	tmp := math.Atan2(-ca-cb, d+sa+sb) - math.Atan2(-2, p)
	return [3]float64{utils.WrapTo2Pi(tmp - a), p, utils.WrapTo2Pi(tmp - b)}, true
}

func rsl(a, b, d float64) ([3]float64, bool) {
	sa, ca, sb, cb := math.Sin(a), math.Cos(a), math.Sin(b), math.Cos(b)
	p2 := d*d - 2 + 2*math.Cos(a-b) - 2*d*(sa+sb)
	if p2 < 0 {
		return [3]float64{}, false
	}
	p := math.Sqrt(p2)
	tmp := math.Atan2(ca+cb, d-sa-sb) - math.Atan2(2, p)
	return [3]float64{utils.WrapTo2Pi(a - tmp), p, utils.WrapTo2Pi(b - tmp)}, true
}

func rlr(a, b, d float64) ([3]float64, bool) {
	sa, ca, sb, cb := math.Sin(a), math.Cos(a), math.Sin(b), math.Cos(b)
	tmp := (6 - d*d + 2*math.Cos(a-b) + 2*d*(sa-sb)) / 8
	if math.Abs(tmp) > 1 {
		return [3]float64{}, false
	}
	p := utils.WrapTo2Pi(2*math.Pi - math.Acos(tmp))
	t := utils.WrapTo2Pi(a - math.Atan2(ca-cb, d-sa+sb) + p/2)
	return [3]float64{t, p, utils.WrapTo2Pi(a - b - t + p)}, true
}

func lrl(a, b, d float64) ([3]float64, bool) {
	sa, ca, sb, cb := math.Sin(a), math.Cos(a), math.Sin(b), math.Cos(b)
	tmp := (6 - d*d + 2*math.Cos(a-b) + 2*d*(sb-sa)) / 8
	if math.Abs(tmp) > 1 {
		return [3]float64{}, false
	}
	p := utils.WrapTo2Pi(2*math.Pi - math.Acos(tmp))
	t := utils.WrapTo2Pi(-a - math.Atan2(ca-cb, d+sa-sb) + p/2)
	return [3]float64{t, p, utils.WrapTo2Pi(b - a - t + p)}, true
}
