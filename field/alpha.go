package field

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"go.viam.com/autosteer/utils"
	"go.viam.com/autosteer/vision/delaunay"
)

// alphaNudge widens a chosen alpha so the triangle defining it survives rounding.
const alphaNudge = 1e-9

// alphaComplex is a Delaunay triangulation with the squared circumradius of every triangle. The
// regularized alpha shape for alpha is the union of triangles whose squared circumradius is at
// most alpha.
type alphaComplex struct {
	tri       *delaunay.Triangulation
	radii     []float64
	edgeTris  map[delaunay.Edge][]int
	neighbors [][]int
	critical  []float64
}

func newAlphaComplex(points []r2.Point) (*alphaComplex, error) {
	input := make([]delaunay.Point, len(points))
	for i, p := range points {
		input[i] = delaunay.Point(p)
	}
	tri, err := delaunay.Triangulate(input)
	if err != nil {
		if errors.Is(err, delaunay.ErrCollinear) {
			return nil, ErrCollinear
		}
		return nil, err
	}

	ac := &alphaComplex{
		tri:       tri,
		radii:     make([]float64, len(tri.Triangles)),
		edgeTris:  tri.EdgeTriangles(),
		neighbors: tri.Neighbors(),
	}
	for i := range tri.Triangles {
		ac.radii[i] = tri.Circumradius2(i)
		if !math.IsInf(ac.radii[i], 1) {
			ac.critical = append(ac.critical, ac.radii[i])
		}
	}
	sort.Float64s(ac.critical)
	ac.critical = compact(ac.critical)
	return ac, nil
}

func compact(sorted []float64) []float64 {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || !utils.Float64AlmostEqual(v, out[len(out)-1]) {
			out = append(out, v)
		}
	}
	return out
}

func nudge(alpha float64) float64 {
	return alpha*(1+alphaNudge) + alphaNudge*alphaNudge
}

// included marks the triangles of the alpha shape for alpha.
func (ac *alphaComplex) included(alpha float64) []bool {
	in := make([]bool, len(ac.radii))
	for i, r := range ac.radii {
		in[i] = r <= alpha
	}
	return in
}

// components counts the groups of included triangles connected through shared edges.
func (ac *alphaComplex) components(in []bool) int {
	g := simple.NewUndirectedGraph()
	for i, ok := range in {
		if ok {
			g.AddNode(simple.Node(i))
		}
	}
	for i, ok := range in {
		if !ok {
			continue
		}
		for _, j := range ac.neighbors[i] {
			if j > i && in[j] {
				g.SetEdge(g.NewEdge(simple.Node(i), simple.Node(j)))
			}
		}
	}
	return len(topo.ConnectedComponents(g))
}

// covers reports whether every point is a vertex of an included triangle.
func (ac *alphaComplex) covers(in []bool) bool {
	touched := make([]bool, len(ac.tri.Points))
	for i, t := range ac.tri.Triangles {
		if in[i] {
			touched[t.A], touched[t.B], touched[t.C] = true, true, true
		}
	}
	for _, ok := range touched {
		if !ok {
			return false
		}
	}
	return true
}

func (ac *alphaComplex) optimal(in []bool) bool {
	return ac.covers(in) && ac.components(in) == 1
}

func (ac *alphaComplex) solid(in []bool) bool {
	if !ac.optimal(in) {
		return false
	}
	for _, ring := range ac.rings(in) {
		if signedArea(ac.ringPoints(ring)) < 0 {
			return false
		}
	}
	return true
}

// firstCovering returns the index of the smallest critical alpha whose shape touches every point.
// Coverage only grows with alpha, so a binary search finds it.
func (ac *alphaComplex) firstCovering() (int, error) {
	k := sort.Search(len(ac.critical), func(i int) bool {
		return ac.covers(ac.included(nudge(ac.critical[i])))
	})
	if k == len(ac.critical) {
		return k, ErrNoBoundary
	}
	return k, nil
}

// scanAlpha returns the smallest critical alpha, from index lo on, satisfying pred. Component
// and hole counts go up and down as triangles enter, so every candidate is checked in order.
func (ac *alphaComplex) scanAlpha(lo int, pred func(in []bool) bool) (int, error) {
	for k := lo; k < len(ac.critical); k++ {
		if pred(ac.included(nudge(ac.critical[k]))) {
			return k, nil
		}
	}
	return len(ac.critical), ErrNoBoundary
}

// selectAlpha picks the alpha value for opts.
func (ac *alphaComplex) selectAlpha(opts Options) (float64, error) {
	switch opts.AlphaMode {
	case AlphaCustom:
		if opts.CustomAlpha <= 0 {
			return 0, errors.Errorf("custom alpha must be positive, got %v", opts.CustomAlpha)
		}
		return nudge(opts.CustomAlpha), nil
	case AlphaOptimal, AlphaSolid, "":
		k, err := ac.firstCovering()
		if err != nil {
			return 0, err
		}
		if k, err = ac.scanAlpha(k, ac.optimal); err != nil {
			return 0, err
		}
		if opts.AlphaMode == AlphaSolid {
			if k, err = ac.scanAlpha(k, ac.solid); err != nil {
				return 0, err
			}
		}
		return nudge(ac.critical[k]), nil
	default:
		return 0, errors.Errorf("unknown alpha mode %q", opts.AlphaMode)
	}
}

type shaped struct {
	complex *alphaComplex
	in      []bool
	stats   Stats
}

// shape triangulates the prepared points and selects the alpha shape.
func shape(p prepared, opts Options) (shaped, error) {
	st := p.stats
	ac, err := newAlphaComplex(p.points)
	if err != nil {
		return shaped{stats: st}, err
	}
	alpha, err := ac.selectAlpha(opts)
	if err != nil {
		return shaped{stats: st}, err
	}
	in := ac.included(alpha)

	st.Triangles = len(ac.tri.Triangles)
	st.Alpha = alpha
	for _, ok := range in {
		if ok {
			st.IncludedTriangles++
		}
	}
	if st.IncludedTriangles == 0 {
		return shaped{stats: st}, ErrNoBoundary
	}
	st.Components = ac.components(in)
	return shaped{complex: ac, in: in, stats: st}, nil
}
