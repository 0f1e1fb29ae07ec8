package plan

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/autosteer/guidepath"
)

// Global is the plan of parallel passes around the vehicle. It keeps PathsInReserve passes
// materialized on each side of the pass nearest the vehicle.
type Global struct {
	*Plan
	// PathsInReserve is the number of passes kept on each side of the nearest one.
	PathsInReserve int
	// MaxRetainedPasses evicts passes further than this from the nearest one. Zero disables
	// eviction. Values below PathsInReserve are raised to it.
	MaxRetainedPasses int
}

// NewGlobal returns an empty global plan.
func NewGlobal(pathsInReserve int) *Global {
	return &Global{Plan: New(), PathsInReserve: pathsInReserve}
}

// ResetWith replaces the plan with reference and fills the reserve on both sides so the first
// query after publishing does not need to expand.
func (g *Global) ResetWith(reference guidepath.Primitive) error {
	g.Reset(reference)
	return g.FillReserve()
}

// FillReserve adds passes around the reference until PathsInReserve exist on each side of it.
func (g *Global) FillReserve() error {
	if g.Len() == 0 {
		return nil
	}
	for g.leftOf(0) < g.PathsInReserve {
		if err := g.growLeft(); err != nil {
			return err
		}
	}
	for g.rightOf(0) < g.PathsInReserve {
		if err := g.growRight(); err != nil {
			return err
		}
	}
	return nil
}

// leftOf counts passes left of the given pass number.
func (g *Global) leftOf(passNumber int32) int {
	return int(passNumber - g.At(0).Attrs().PassNumber)
}

// rightOf counts passes right of the given pass number.
func (g *Global) rightOf(passNumber int32) int {
	return int(g.At(g.Len()-1).Attrs().PassNumber - passNumber)
}

func (g *Global) growLeft() error {
	next, err := g.At(0).CreateNextPrimitive(true)
	if err != nil {
		return errors.Wrap(err, "cannot create pass on the left")
	}
	g.PushFront(next)
	return nil
}

func (g *Global) growRight() error {
	next, err := g.At(g.Len() - 1).CreateNextPrimitive(false)
	if err != nil {
		return errors.Wrap(err, "cannot create pass on the right")
	}
	g.PushBack(next)
	return nil
}

// Expand makes sure PathsInReserve passes exist on each side of the pass nearest pt, then evicts
// passes beyond MaxRetainedPasses. It returns the handle of the nearest pass, which stays valid
// across the growth. Calling it again with the same point adds nothing.
func (g *Global) Expand(pt r2.Point, hint Handle) (Handle, error) {
	nearest, _ := g.Nearest(pt, hint)
	if nearest.IsZero() {
		return nearest, nil
	}
	for {
		k := g.Index(nearest)
		if k >= g.PathsInReserve {
			break
		}
		if err := g.growLeft(); err != nil {
			return nearest, err
		}
	}
	for g.Len()-1-g.Index(nearest) < g.PathsInReserve {
		if err := g.growRight(); err != nil {
			return nearest, err
		}
	}
	g.trim(nearest)

	// Growth can uncover a closer pass when the vehicle jumped several lanes at once.
	closer, _ := g.Nearest(pt, nearest)
	if closer != nearest {
		return g.Expand(pt, closer)
	}
	return nearest, nil
}

func (g *Global) trim(nearest Handle) {
	if g.MaxRetainedPasses <= 0 {
		return
	}
	keep := g.MaxRetainedPasses
	if keep < g.PathsInReserve {
		keep = g.PathsInReserve
	}
	for g.Index(nearest) > keep {
		g.PopFront()
	}
	for g.Len()-1-g.Index(nearest) > keep {
		g.PopBack()
	}
}
