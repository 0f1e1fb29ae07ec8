package field

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/autosteer/spatialmath"
)

type prepared struct {
	points []r2.Point
	stats  Stats
}

// prepare projects the recorded points to the plane, drops repeats, rejects degenerate input and
// densifies along the recorded order.
func prepare(recorded []r3.Vector, opts Options) (prepared, error) {
	st := Stats{InputPoints: len(recorded)}

	flat := lo.Map(recorded, func(v r3.Vector, _ int) r2.Point {
		return r2.Point{X: v.X, Y: v.Y}
	})
	points := make([]r2.Point, 0, len(flat))
	for _, p := range flat {
		if len(points) > 0 && points[len(points)-1] == p {
			continue
		}
		points = append(points, p)
	}
	if len(points) > 1 && points[0] == points[len(points)-1] {
		points = points[:len(points)-1]
	}
	if len(lo.Uniq(points)) < 3 {
		return prepared{stats: st}, ErrTooFewPoints
	}
	if collinear(points) {
		return prepared{stats: st}, ErrCollinear
	}

	spacings := make(stats.Float64Data, 0, len(points))
	for i, p := range points {
		spacings = append(spacings, points[(i+1)%len(points)].Sub(p).Norm())
	}
	median, err := stats.Median(spacings)
	if err != nil {
		return prepared{stats: st}, errors.Wrap(err, "cannot compute recorded point spacing")
	}
	st.MedianSpacing = median

	gap := opts.DensifyGap
	if opts.AutoDensifyFactor > 0 {
		if auto := opts.AutoDensifyFactor * median; gap <= 0 || auto < gap {
			gap = auto
		}
	}
	if gap > 0 {
		points = densify(points, gap)
	}
	st.DensifyGap = gap
	st.Points = len(points)
	return prepared{points: points, stats: st}, nil
}

// collinear reports whether every point lies within a tiny relative distance of the line through
// the first point and the point farthest from it.
func collinear(points []r2.Point) bool {
	a := points[0]
	far := lo.MaxBy(points, func(p, q r2.Point) bool {
		return p.Sub(a).Norm() > q.Sub(a).Norm()
	})
	length := far.Sub(a).Norm()
	if length == 0 {
		return true
	}
	for _, p := range points {
		if math.Abs(spatialmath.Orientation(a, far, p))/length > 1e-9*math.Max(1, length) {
			return false
		}
	}
	return true
}

// densify inserts evenly spaced points between consecutive points of the closed recording so no
// gap exceeds maxGap.
func densify(points []r2.Point, maxGap float64) []r2.Point {
	out := make([]r2.Point, 0, len(points))
	for i, p := range points {
		q := points[(i+1)%len(points)]
		out = append(out, p)
		d := q.Sub(p).Norm()
		if d <= maxGap {
			continue
		}
		n := int(math.Ceil(d / maxGap))
		for k := 1; k < n; k++ {
			out = append(out, p.Add(q.Sub(p).Mul(float64(k)/float64(n))))
		}
	}
	return out
}
