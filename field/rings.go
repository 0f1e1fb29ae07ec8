package field

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/samber/lo"

	"go.viam.com/autosteer/utils"
	"go.viam.com/autosteer/vision/delaunay"
)

type directedEdge struct {
	from, to int
}

// boundaryEdges returns the edges of included triangles that no other included triangle shares,
// directed so the shape lies on their left.
func (ac *alphaComplex) boundaryEdges(in []bool) []directedEdge {
	var out []directedEdge
	for i, t := range ac.tri.Triangles {
		if !in[i] {
			continue
		}
		for _, e := range [3]directedEdge{{t.A, t.B}, {t.B, t.C}, {t.C, t.A}} {
			shared := 0
			for _, j := range ac.edgeTris[delaunay.NewEdge(e.from, e.to)] {
				if in[j] {
					shared++
				}
			}
			if shared == 1 {
				out = append(out, e)
			}
		}
	}
	return out
}

// rings walks the boundary edges into closed loops of point indices. Shapes are on the left, so
// outer boundaries come out counterclockwise and holes clockwise. Where several loops meet at a
// vertex, each incoming edge continues with the outgoing edge closest clockwise to it.
func (ac *alphaComplex) rings(in []bool) [][]int {
	edges := ac.boundaryEdges(in)
	outgoing := make(map[int][]directedEdge, len(edges))
	for _, e := range edges {
		outgoing[e.from] = append(outgoing[e.from], e)
	}
	used := make(map[directedEdge]bool, len(edges))

	var out [][]int
	for _, start := range edges {
		if used[start] {
			continue
		}
		var ring []int
		cur := start
		for steps := 0; steps <= len(edges); steps++ {
			used[cur] = true
			ring = append(ring, cur.from)
			next, ok := ac.nextEdge(cur, start, outgoing[cur.to], used)
			if !ok {
				break
			}
			if next == start {
				out = append(out, ring)
				break
			}
			cur = next
		}
	}
	return out
}

func (ac *alphaComplex) nextEdge(in, start directedEdge, candidates []directedEdge, used map[directedEdge]bool) (directedEdge, bool) {
	pts := ac.tri.Points
	back := r2.Point(pts[in.from]).Sub(r2.Point(pts[in.to]))
	backAngle := math.Atan2(back.Y, back.X)

	best, bestAngle := directedEdge{}, math.Inf(1)
	for _, c := range candidates {
		if used[c] && c != start {
			continue
		}
		dir := r2.Point(pts[c.to]).Sub(r2.Point(pts[c.from]))
		cw := utils.WrapTo2Pi(backAngle - math.Atan2(dir.Y, dir.X))
		if cw == 0 {
			cw = 2 * math.Pi
		}
		if cw < bestAngle {
			best, bestAngle = c, cw
		}
	}
	return best, !math.IsInf(bestAngle, 1)
}

func (ac *alphaComplex) ringPoints(ring []int) []r2.Point {
	return lo.Map(ring, func(i, _ int) r2.Point {
		return r2.Point(ac.tri.Points[i])
	})
}

type ringSet struct {
	outer []r2.Point
	holes [][]r2.Point
	stats Stats
}

// assembleRings turns the alpha shape into an outer ring, the longest loop, and the clockwise
// loops it encloses.
func assembleRings(s shaped) (ringSet, error) {
	st := s.stats
	loops := lo.Map(s.complex.rings(s.in), func(ring []int, _ int) []r2.Point {
		return s.complex.ringPoints(ring)
	})
	st.Rings = len(loops)
	if len(loops) == 0 {
		return ringSet{stats: st}, ErrNoBoundary
	}

	outer := lo.MaxBy(loops, func(a, b []r2.Point) bool {
		return perimeter(a) > perimeter(b)
	})
	if signedArea(outer) < 0 {
		outer = lo.Reverse(append([]r2.Point(nil), outer...))
	}
	var holes [][]r2.Point
	for _, loop := range loops {
		if signedArea(loop) >= 0 || len(loop) < 3 {
			continue
		}
		if insideRing(outer, centroid(loop)) {
			holes = append(holes, loop)
		}
	}
	st.OuterVertices = len(outer)
	st.Holes = len(holes)
	return ringSet{outer: outer, holes: holes, stats: st}, nil
}
