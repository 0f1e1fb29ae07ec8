package field

import (
	"context"
	"sync"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/autosteer/jobs"
	"go.viam.com/autosteer/logging"
	"go.viam.com/autosteer/simplify"
	"go.viam.com/autosteer/utils"
)

// Stage names passed to a Report.
const (
	StagePrepare  = "prepare"
	StageShape    = "shape"
	StageRings    = "rings"
	StageSimplify = "simplify"
)

// Report receives the statistics collected up to the end of a stage.
type Report func(stage string, st Stats)

// Extract computes the boundary of points on the calling goroutine. report may be nil.
func Extract(ctx context.Context, points []r3.Vector, opts Options, report Report) (Polygon, Stats, error) {
	if report == nil {
		report = func(string, Stats) {}
	}
	p, err := prepare(points, opts)
	if err != nil {
		return Polygon{}, p.stats, err
	}
	report(StagePrepare, p.stats)
	if err := ctx.Err(); err != nil {
		return Polygon{}, p.stats, err
	}

	s, err := shape(p, opts)
	if err != nil {
		return Polygon{}, s.stats, err
	}
	report(StageShape, s.stats)
	if err := ctx.Err(); err != nil {
		return Polygon{}, s.stats, err
	}

	rs, err := assembleRings(s)
	if err != nil {
		return Polygon{}, rs.stats, err
	}
	report(StageRings, rs.stats)

	holes, err := simplifyHoles(ctx, rs.holes, opts.MaxDeviation)
	if err != nil {
		return Polygon{}, rs.stats, err
	}
	poly, st := union(rs, simplify.Ring(rs.outer, opts.MaxDeviation), holes)
	report(StageSimplify, st)
	return poly, st, nil
}

// simplifyHoles simplifies every hole concurrently.
func simplifyHoles(ctx context.Context, holes [][]r2.Point, maxDeviation float64) ([][]r2.Point, error) {
	out := make([][]r2.Point, len(holes))
	fs := make([]utils.SimpleFunc, 0, len(holes))
	for i, hole := range holes {
		i, hole := i, hole
		fs = append(fs, func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = simplify.Ring(hole, maxDeviation)
			return nil
		})
	}
	if err := utils.RunInParallel(ctx, fs); err != nil {
		return nil, err
	}
	return out, nil
}

func union(rs ringSet, outer []r2.Point, holes [][]r2.Point) (Polygon, Stats) {
	poly := Polygon{
		Outer: outer,
		Holes: lo.Filter(holes, func(h []r2.Point, _ int) bool { return len(h) >= 3 }),
	}
	st := rs.stats
	st.Holes = len(poly.Holes)
	st.SimplifiedVertices = len(poly.Outer)
	for _, h := range poly.Holes {
		st.SimplifiedVertices += len(h)
	}
	edges := make(stats.Float64Data, 0, len(outer))
	for i, p := range outer {
		edges = append(edges, outer[(i+1)%len(outer)].Sub(p).Norm())
	}
	st.Perimeter, _ = stats.Sum(edges)
	st.Area = poly.Area()
	return poly, st
}

// Callbacks receive the outcome of an Extractor run on the goroutine draining the job runner.
type Callbacks struct {
	Result   func(Polygon, Stats)
	Abort    func(error)
	Progress Report
}

// Extractor runs boundary extractions in the background. Starting a run cancels the previous one.
type Extractor struct {
	logger     logging.Logger
	controller *jobs.Controller
	callbacks  Callbacks

	mu   sync.Mutex
	opts Options
}

// NewExtractor returns an Extractor running on runner.
func NewExtractor(runner *jobs.Runner, opts Options, callbacks Callbacks, logger logging.Logger) *Extractor {
	return &Extractor{
		logger:     logger.Sublogger("field"),
		controller: runner.NewController("boundary"),
		callbacks:  callbacks,
		opts:       opts,
	}
}

// SetOptions changes the options used by later runs.
func (e *Extractor) SetOptions(opts Options) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts = opts
}

// Options returns the options of the next run.
func (e *Extractor) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

// Run starts an extraction over a private copy of points.
func (e *Extractor) Run(points []r3.Vector) error {
	opts := e.Options()
	recorded := append([]r3.Vector(nil), points...)

	g := jobs.NewGraph("boundary")
	progress := func(stage string, st Stats) {
		if e.callbacks.Progress != nil {
			g.Post(func() { e.callbacks.Progress(stage, st) })
		}
	}
	prep := jobs.Go(g, StagePrepare, func(ctx context.Context) (prepared, error) {
		p, err := prepare(recorded, opts)
		if err == nil {
			progress(StagePrepare, p.stats)
		}
		return p, err
	})
	shp := jobs.Go(g, StageShape, func(ctx context.Context) (shaped, error) {
		s, err := shape(prep.Value(), opts)
		if err == nil {
			progress(StageShape, s.stats)
		}
		return s, err
	}, prep)
	rings := jobs.Go(g, StageRings, func(ctx context.Context) (ringSet, error) {
		rs, err := assembleRings(shp.Value())
		if err == nil {
			progress(StageRings, rs.stats)
		}
		return rs, err
	}, shp)
	outer := jobs.Go(g, "outer", func(ctx context.Context) ([]r2.Point, error) {
		return simplify.Ring(rings.Value().outer, opts.MaxDeviation), nil
	}, rings)
	holes := jobs.Go(g, "holes", func(ctx context.Context) ([][]r2.Point, error) {
		return simplifyHoles(ctx, rings.Value().holes, opts.MaxDeviation)
	}, rings)
	type result struct {
		poly Polygon
		st   Stats
	}
	final := jobs.Go(g, StageSimplify, func(ctx context.Context) (result, error) {
		poly, st := union(rings.Value(), outer.Value(), holes.Value())
		return result{poly, st}, nil
	}, outer, holes)

	return e.controller.Start(g, func(err error) {
		if err != nil {
			e.logger.Infow("boundary extraction aborted", "error", err)
			if e.callbacks.Abort != nil {
				e.callbacks.Abort(err)
			}
			return
		}
		res := final.Value()
		e.logger.Debugw("boundary extracted", "area", res.st.Area, "vertices", res.st.SimplifiedVertices,
			"holes", res.st.Holes, "alpha", res.st.Alpha)
		if e.callbacks.Progress != nil {
			e.callbacks.Progress(StageSimplify, res.st)
		}
		if e.callbacks.Result != nil {
			e.callbacks.Result(res.poly, res.st)
		}
	})
}

// Cancel stops the running extraction, if any. Its result is never delivered.
func (e *Extractor) Cancel() {
	e.controller.Cancel()
}

// Busy reports whether an extraction is in flight.
func (e *Extractor) Busy() bool {
	return e.controller.Busy()
}

// IsAbort reports whether err is one of the expected input failures, as opposed to a cancellation
// or an internal error.
func IsAbort(err error) bool {
	return errors.Is(err, ErrTooFewPoints) || errors.Is(err, ErrCollinear) || errors.Is(err, ErrNoBoundary)
}
