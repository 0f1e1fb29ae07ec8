package guidance

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/autosteer/config"
	"go.viam.com/autosteer/field"
	"go.viam.com/autosteer/guidepath"
	"go.viam.com/autosteer/jobs"
	"go.viam.com/autosteer/logging"
	"go.viam.com/autosteer/plan"
	"go.viam.com/autosteer/turn"
)

type published struct {
	plans    []plan.Snapshot
	local    []plan.Snapshot
	statuses []Status
	polygons []field.Polygon
	aborted  []error
	stages   []string
}

func newTestEngine(t *testing.T, configure func(*config.Config)) (*Engine, *jobs.Runner, *published) {
	t.Helper()
	cfg := config.Default()
	cfg.Guidance.PathsInReserve = 2
	if configure != nil {
		configure(&cfg)
	}
	logger := logging.NewTestLogger(t)
	runner := jobs.NewRunner(2, logger, nil)
	out := &published{}
	e := NewEngine(cfg, runner, Outputs{
		Plan:            func(s plan.Snapshot) { out.plans = append(out.plans, s) },
		LocalPlan:       func(s plan.Snapshot) { out.local = append(out.local, s) },
		Status:          func(s Status) { out.statuses = append(out.statuses, s) },
		Boundary:        func(p field.Polygon, _ field.Stats) { out.polygons = append(out.polygons, p) },
		BoundaryAborted: func(err error) { out.aborted = append(out.aborted, err) },
		BoundaryStats:   func(stage string, _ field.Stats) { out.stages = append(out.stages, stage) },
	}, logger)
	t.Cleanup(func() {
		e.Close()
		runner.Close()
	})
	return e, runner, out
}

func at(x, y, heading float64) Pose {
	return Pose{Position: r3.Vector{X: x, Y: y, Z: 1.5}, HeadingRad: heading}
}

func await(t *testing.T, runner *jobs.Runner, done func() bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	test.That(t, runner.Await(ctx, done), test.ShouldBeNil)
}

func lastStatus(t *testing.T, out *published) Status {
	t.Helper()
	test.That(t, out.statuses, test.ShouldNotBeEmpty)
	return out.statuses[len(out.statuses)-1]
}

func TestEngineABLine(t *testing.T) {
	e, _, out := newTestEngine(t, func(cfg *config.Config) { cfg.Guidance.ImplementWidth = 3 })

	test.That(t, e.SetAPoint(), test.ShouldBeError, ErrNoPose)
	e.UpdatePose(at(0, 0, 0))
	test.That(t, lastStatus(t, out).HasPlan, test.ShouldBeFalse)
	test.That(t, e.SetBPoint(), test.ShouldBeError, ErrNoAPoint)
	test.That(t, e.Snap(), test.ShouldBeError, ErrNoPlan)
	test.That(t, e.ToggleTurnLeft(), test.ShouldBeError, ErrNoPlan)

	test.That(t, e.SetAPoint(), test.ShouldBeNil)
	// B on top of A
	test.That(t, errors.Is(e.SetBPoint(), ErrTooFewPoints), test.ShouldBeTrue)
	test.That(t, out.plans, test.ShouldBeEmpty)

	e.UpdatePose(at(10, 0, 0))
	test.That(t, e.SetBPoint(), test.ShouldBeNil)
	test.That(t, len(out.plans), test.ShouldEqual, 1)
	test.That(t, len(out.plans[0].Primitives), test.ShouldEqual, 5)
	test.That(t, e.Reference(), test.ShouldResemble, []r2.Point{{X: 0, Y: 0}, {X: 10, Y: 0}})

	e.UpdatePose(at(5, 0.5, 0.1))
	st := lastStatus(t, out)
	test.That(t, st.HasPlan, test.ShouldBeTrue)
	test.That(t, st.PassNumber, test.ShouldEqual, 0)
	test.That(t, st.CrossTrackError, test.ShouldAlmostEqual, 0.5)
	test.That(t, st.HeadingErrorRad, test.ShouldAlmostEqual, 0.1)
	test.That(t, len(out.plans), test.ShouldEqual, 1)

	// one pass over to the right, the reserve grows by one pass on that side
	e.UpdatePose(at(5, -3.2, 0))
	st = lastStatus(t, out)
	test.That(t, st.PassNumber, test.ShouldEqual, 1)
	test.That(t, st.CrossTrackError, test.ShouldAlmostEqual, -0.2)
	test.That(t, len(out.plans), test.ShouldEqual, 2)
	test.That(t, len(out.plans[1].Primitives), test.ShouldEqual, 6)

	// staying put publishes nothing new
	e.UpdatePose(at(5, -3.2, 0))
	test.That(t, len(out.plans), test.ShouldEqual, 2)

	e.UpdatePose(at(20, 5, 0.5))
	test.That(t, e.AddAdditionalPoint(), test.ShouldBeNil)
	test.That(t, len(e.Reference()), test.ShouldEqual, 3)
	last := out.plans[len(out.plans)-1]
	for _, p := range last.Primitives {
		test.That(t, p.Kind(), test.ShouldEqual, guidepath.KindSequence)
	}

	test.That(t, e.SetImplementWidth(0), test.ShouldBeError, ErrZeroImplementWidth)
	test.That(t, e.SetImplementWidth(4), test.ShouldBeNil)
	last = out.plans[len(out.plans)-1]
	test.That(t, last.Primitives[0].Attrs().ImplementWidth, test.ShouldEqual, 4.)
}

func TestEngineCalculationOptions(t *testing.T) {
	e, _, out := newTestEngine(t, func(cfg *config.Config) { cfg.Guidance.ImplementWidth = 3 })
	test.That(t, e.SetABPolyline([]r2.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}), test.ShouldBeNil)
	test.That(t, len(out.plans), test.ShouldEqual, 1)

	e.UpdatePose(Pose{Position: r3.Vector{X: 5, Y: -3.2}, Options: CalculationOptions{NoPlanner: true}})
	test.That(t, out.statuses, test.ShouldBeEmpty)

	e.UpdatePose(Pose{Position: r3.Vector{X: 5, Y: -3.2}, Options: CalculationOptions{LocalOffsetsOnly: true}})
	test.That(t, lastStatus(t, out).PassNumber, test.ShouldEqual, 1)
	// the plan did not grow
	test.That(t, len(out.plans), test.ShouldEqual, 1)
	test.That(t, len(e.Plan().Primitives), test.ShouldEqual, 5)
}

func TestEngineSnap(t *testing.T) {
	e, _, out := newTestEngine(t, func(cfg *config.Config) { cfg.Guidance.ImplementWidth = 3 })
	test.That(t, e.SetABPolyline([]r2.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}), test.ShouldBeNil)

	e.UpdatePose(at(5, 1, 0))
	test.That(t, lastStatus(t, out).CrossTrackError, test.ShouldAlmostEqual, 1)
	test.That(t, e.Snap(), test.ShouldBeNil)
	test.That(t, len(out.plans), test.ShouldEqual, 2)

	e.UpdatePose(at(6, 1, 0))
	test.That(t, math.Abs(lastStatus(t, out).CrossTrackError), test.ShouldBeLessThan, 1e-9)
	for _, p := range e.Reference() {
		test.That(t, p.Y, test.ShouldAlmostEqual, 1)
	}
}

func TestEngineContinuousRecording(t *testing.T) {
	e, runner, out := newTestEngine(t, func(cfg *config.Config) {
		cfg.Guidance.ImplementWidth = 3
		cfg.Guidance.SimplifyThreshold = 5
		cfg.Guidance.MinPointDistance = 0.5
	})

	test.That(t, e.ToggleContinuousRecording(), test.ShouldBeError, ErrNoPose)
	e.UpdatePose(at(0, 0, 0))
	test.That(t, e.ToggleContinuousRecording(), test.ShouldBeNil)
	test.That(t, e.Recording(), test.ShouldBeTrue)
	for x := 0.25; x <= 20; x += 0.25 {
		e.UpdatePose(at(x, 0, 0))
	}
	st := lastStatus(t, out)
	test.That(t, st.Recording, test.ShouldBeTrue)
	test.That(t, st.RecordedPoints, test.ShouldEqual, 41)

	test.That(t, e.ToggleContinuousRecording(), test.ShouldBeNil)
	test.That(t, e.Recording(), test.ShouldBeFalse)
	await(t, runner, func() bool { return len(out.plans) > 0 })

	test.That(t, e.Reference(), test.ShouldResemble, []r2.Point{{X: 0, Y: 0}, {X: 20, Y: 0}})
	snapshot := e.Plan()
	test.That(t, len(snapshot.Primitives), test.ShouldEqual, 5)
	test.That(t, snapshot.Primitives[2].Kind(), test.ShouldEqual, guidepath.KindLine)
	test.That(t, snapshot.Primitives[2].Attrs().PassNumber, test.ShouldEqual, 0)
}

func TestEngineShortRecordingBuildsInline(t *testing.T) {
	e, _, out := newTestEngine(t, func(cfg *config.Config) { cfg.Guidance.MinPointDistance = 1 })
	e.UpdatePose(at(0, 0, 0))
	test.That(t, e.ToggleContinuousRecording(), test.ShouldBeNil)
	e.UpdatePose(at(10, 0, 0))
	e.UpdatePose(at(20, 5, 0))
	e.UpdatePose(at(20.5, 5, 0))
	test.That(t, e.ToggleContinuousRecording(), test.ShouldBeNil)
	test.That(t, len(out.plans), test.ShouldEqual, 1)
	test.That(t, len(e.Reference()), test.ShouldEqual, 3)
	test.That(t, out.plans[0].Primitives[0].Kind(), test.ShouldEqual, guidepath.KindSequence)
}

func TestEngineTurn(t *testing.T) {
	e, runner, out := newTestEngine(t, func(cfg *config.Config) {
		cfg.Guidance.ImplementWidth = 20
		cfg.Turn.Radius = 5
	})
	test.That(t, e.SetABPolyline([]r2.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}), test.ShouldBeNil)
	e.UpdatePose(at(0, 0, 0))

	test.That(t, e.ToggleTurnLeft(), test.ShouldBeNil)
	test.That(t, e.TurnState(), test.ShouldEqual, turn.Turning)
	await(t, runner, func() bool { return len(out.local) > 0 })
	test.That(t, len(out.local[0].Primitives), test.ShouldEqual, 1)
	seq, ok := out.local[0].Primitives[0].(guidepath.Sequence)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, seq.Len(), test.ShouldEqual, 5)

	e.UpdatePose(at(5, 10, math.Pi/2))
	st := lastStatus(t, out)
	test.That(t, st.Turn, test.ShouldEqual, turn.Turning)
	test.That(t, st.PassNumber, test.ShouldEqual, -1)
	test.That(t, math.Abs(st.CrossTrackError), test.ShouldBeLessThan, 1e-6)

	e.UpdatePose(at(-2, 20, math.Pi))
	test.That(t, e.TurnState(), test.ShouldEqual, turn.Following)
	test.That(t, out.local[len(out.local)-1].Primitives, test.ShouldBeEmpty)

	test.That(t, e.SetSkip(0, 1), test.ShouldNotBeNil)
	test.That(t, e.SetSkip(2, 2), test.ShouldBeNil)
	test.That(t, e.SetTurnRadius(-1), test.ShouldNotBeNil)
}

func TestEngineBoundary(t *testing.T) {
	e, runner, out := newTestEngine(t, func(cfg *config.Config) { cfg.Field.AlphaMode = field.AlphaSolid })

	rng := rand.New(rand.NewSource(3))
	for x := 0.; x <= 40; x += 2 {
		for y := 0.; y <= 20; y += 2 {
			e.RecordBoundaryPoint(r3.Vector{X: x + (rng.Float64()-0.5)*0.1, Y: y + (rng.Float64()-0.5)*0.1})
		}
	}
	test.That(t, e.ExtractBoundary(), test.ShouldBeNil)
	await(t, runner, func() bool { return len(out.polygons) > 0 })
	poly := out.polygons[0]
	test.That(t, poly.Holes, test.ShouldBeEmpty)
	test.That(t, math.Abs(poly.Area()-800), test.ShouldBeLessThan, 40)
	test.That(t, out.stages, test.ShouldContain, field.StagePrepare)
	test.That(t, out.stages, test.ShouldContain, field.StageSimplify)

	e.ClearBoundaryPoints()
	for x := 0.; x < 10; x++ {
		e.RecordBoundaryPoint(r3.Vector{X: x, Y: 2 * x})
	}
	test.That(t, e.ExtractBoundary(), test.ShouldBeNil)
	await(t, runner, func() bool { return len(out.aborted) > 0 })
	test.That(t, errors.Is(out.aborted[0], field.ErrCollinear), test.ShouldBeTrue)
	// the last good boundary stays the only one published
	test.That(t, len(out.polygons), test.ShouldEqual, 1)
}
