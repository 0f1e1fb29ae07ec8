// Package plan holds ordered sets of guide paths and answers nearest-pass queries against them.
package plan

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"
	"go.uber.org/atomic"

	"go.viam.com/autosteer/guidepath"
	"go.viam.com/autosteer/spatialmath"
)

// generations hands out a unique tag to every plan and every reset. Zero is never used, so the
// zero Handle is always invalid.
var generations = atomic.NewUint64(0)

// Handle refers to a primitive of a specific plan generation. Positions are absolute: pushing to
// either end of a plan does not move existing handles.
type Handle struct {
	generation uint64
	position   int64
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool {
	return h == Handle{}
}

// Snapshot is an immutable copy of a plan for publishing.
type Snapshot struct {
	Generation uint64
	Primitives []guidepath.Primitive
}

// Plan is an ordered set of primitives, leftmost first. For any point between two adjacent
// primitives the left one reports it as not left of itself and the right one reports it as left.
// A Plan is not safe for concurrent use.
type Plan struct {
	generation uint64
	base       int64
	prims      deque
}

// New returns an empty plan.
func New() *Plan {
	return &Plan{generation: generations.Inc()}
}

// NewWith returns a plan holding prims.
func NewWith(prims ...guidepath.Primitive) *Plan {
	p := New()
	p.prims.reset(prims...)
	return p
}

// Generation identifies the current contents. It changes on every Reset.
func (p *Plan) Generation() uint64 {
	return p.generation
}

// Reset replaces the contents wholesale. All outstanding handles become invalid.
func (p *Plan) Reset(prims ...guidepath.Primitive) {
	p.generation = generations.Inc()
	p.base = 0
	p.prims.reset(prims...)
}

// Len returns the number of primitives.
func (p *Plan) Len() int {
	return p.prims.len()
}

// At returns the i-th primitive from the left.
func (p *Plan) At(i int) guidepath.Primitive {
	return p.prims.at(i)
}

// Primitives returns a copy of the primitives, leftmost first.
func (p *Plan) Primitives() []guidepath.Primitive {
	return p.prims.slice()
}

// PushFront adds a primitive on the left.
func (p *Plan) PushFront(prim guidepath.Primitive) {
	p.prims.pushFront(prim)
	p.base--
}

// PushBack adds a primitive on the right.
func (p *Plan) PushBack(prim guidepath.Primitive) {
	p.prims.pushBack(prim)
}

// PopFront removes the leftmost primitive. It is a no-op on an empty plan.
func (p *Plan) PopFront() {
	if p.Len() == 0 {
		return
	}
	p.prims.popFront()
	p.base++
}

// PopBack removes the rightmost primitive. It is a no-op on an empty plan.
func (p *Plan) PopBack() {
	if p.Len() == 0 {
		return
	}
	p.prims.popBack()
}

// HandleAt returns a handle to the i-th primitive.
func (p *Plan) HandleAt(i int) Handle {
	return Handle{generation: p.generation, position: p.base + int64(i)}
}

// Index returns the current index of h, or -1 if h is not valid for this plan.
func (p *Plan) Index(h Handle) int {
	if h.generation != p.generation {
		return -1
	}
	i := h.position - p.base
	if i < 0 || i >= int64(p.Len()) {
		return -1
	}
	return int(i)
}

// Valid reports whether h refers to a primitive currently in this plan.
func (p *Plan) Valid(h Handle) bool {
	return p.Index(h) >= 0
}

// Get returns the primitive h refers to.
func (p *Plan) Get(h Handle) (guidepath.Primitive, bool) {
	i := p.Index(h)
	if i < 0 {
		return nil, false
	}
	return p.At(i), true
}

// Advance moves h n positions to the right, or to the left for negative n.
func (p *Plan) Advance(h Handle, n int) (Handle, bool) {
	if !p.Valid(h) {
		return Handle{}, false
	}
	next := Handle{generation: h.generation, position: h.position + int64(n)}
	if !p.Valid(next) {
		return Handle{}, false
	}
	return next, true
}

// Nearest returns the primitive nearest to pt and its squared distance. If hint is valid and pt is
// within half an implement width of it, the hint is returned without searching. Otherwise the
// plan is binary searched for the first primitive pt is left of, and that primitive is compared
// with its left neighbour. An empty plan returns the zero Handle and +Inf.
func (p *Plan) Nearest(pt r2.Point, hint Handle) (Handle, float64) {
	n := p.Len()
	if n == 0 {
		return Handle{}, math.Inf(1)
	}
	if prim, ok := p.Get(hint); ok {
		d := prim.DistanceToPointSquared(pt)
		half := prim.Attrs().ImplementWidth / 2
		if d < half*half {
			return hint, d
		}
	}

	i := sort.Search(n, func(i int) bool {
		return p.At(i).LeftOf(pt)
	})
	best, bestDist := -1, math.Inf(1)
	for _, candidate := range []int{i - 1, i} {
		if candidate < 0 || candidate >= n {
			continue
		}
		if d := p.At(candidate).DistanceToPointSquared(pt); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return p.HandleAt(best), bestDist
}

// Transform applies a rigid transform to every primitive. The transform must be small enough to
// keep the left to right order.
func (p *Plan) Transform(pose spatialmath.Pose2D) {
	for i := 0; i < p.Len(); i++ {
		p.prims.set(i, p.At(i).Transform(pose))
	}
}

// Snapshot returns an immutable copy of the plan.
func (p *Plan) Snapshot() Snapshot {
	return Snapshot{Generation: p.generation, Primitives: p.Primitives()}
}
