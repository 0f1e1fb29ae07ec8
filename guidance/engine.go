package guidance

import (
	"context"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/autosteer/config"
	"go.viam.com/autosteer/field"
	"go.viam.com/autosteer/guidepath"
	"go.viam.com/autosteer/jobs"
	"go.viam.com/autosteer/logging"
	"go.viam.com/autosteer/plan"
	"go.viam.com/autosteer/simplify"
	"go.viam.com/autosteer/spatialmath"
	"go.viam.com/autosteer/turn"
	"go.viam.com/autosteer/utils"
)

var (
	// ErrNoPose is returned by commands that need to know where the vehicle is before the first
	// pose update.
	ErrNoPose = errors.New("no vehicle pose yet")
	// ErrNoPlan is returned by commands that need a plan before one was defined.
	ErrNoPlan = errors.New("no guidance plan")
	// ErrNoAPoint is returned when the B point is set before the A point.
	ErrNoAPoint = errors.New("the A point must be set first")
)

// CalculationOptions gate what a pose update may change.
type CalculationOptions struct {
	// NoPlanner only records the pose. Nothing is planned or reported.
	NoPlanner bool
	// LocalOffsetsOnly reports offsets against the current plan without growing it, recording
	// points or advancing a turn.
	LocalOffsetsOnly bool
}

// Pose is a vehicle pose update. Z is ignored.
type Pose struct {
	Position   r3.Vector
	HeadingRad float64
	Options    CalculationOptions
}

// Status is reported after every pose update.
type Status struct {
	// HasPlan is false until a plan is defined. The offsets are zero then.
	HasPlan    bool
	PassNumber int32
	// CrossTrackError is the distance to the followed path, positive when the vehicle is left of it.
	CrossTrackError float64
	HeadingErrorRad float64
	Turn            turn.State
	Recording       bool
	RecordedPoints  int
	BoundaryPoints  int
}

// Outputs receive what the engine publishes. All of them are called on the goroutine calling the
// engine, and any of them may be nil.
type Outputs struct {
	Plan func(plan.Snapshot)
	// LocalPlan receives the turn being driven, or an empty snapshot once there is none.
	LocalPlan       func(plan.Snapshot)
	Boundary        func(field.Polygon, field.Stats)
	BoundaryStats   field.Report
	BoundaryAborted func(error)
	Status          func(Status)
}

// Engine is the guidance loop. It is driven by pose updates and operator commands from a single
// goroutine and is not safe for concurrent use. Background work finishes through the job runner's
// delivery queue, which every pose update drains.
type Engine struct {
	logger  logging.Logger
	runner  *jobs.Runner
	outputs Outputs
	cfg     config.Guidance

	global    *plan.Global
	nearest   plan.Handle
	reference []r2.Point

	recording  bool
	recorded   []r2.Point
	simplifier *jobs.Controller

	turns *turn.Synthesizer

	boundary  []r3.Vector
	extractor *field.Extractor

	vehicle spatialmath.Pose2D
	hasPose bool
}

// NewEngine returns an Engine with no plan. Background work runs on runner.
func NewEngine(cfg config.Config, runner *jobs.Runner, outputs Outputs, logger logging.Logger) *Engine {
	logger = logger.Sublogger("guidance")
	e := &Engine{
		logger:     logger,
		runner:     runner,
		outputs:    outputs,
		cfg:        cfg.Guidance,
		simplifier: runner.NewController("simplify"),
	}
	e.turns = turn.NewSynthesizer(runner, cfg.Turn.Radius, cfg.Turn.SkipLeft, cfg.Turn.SkipRight, e.publishTurn, logger)
	e.extractor = field.NewExtractor(runner, cfg.Field.Options(), field.Callbacks{
		Result: func(poly field.Polygon, st field.Stats) {
			if e.outputs.Boundary != nil {
				e.outputs.Boundary(poly, st)
			}
		},
		Abort: func(err error) {
			if e.outputs.BoundaryAborted != nil {
				e.outputs.BoundaryAborted(err)
			}
		},
		Progress: func(stage string, st field.Stats) {
			if e.outputs.BoundaryStats != nil {
				e.outputs.BoundaryStats(stage, st)
			}
		},
	}, logger)
	return e
}

// Close cancels all background work of the engine.
func (e *Engine) Close() {
	e.simplifier.Cancel()
	e.turns.Cancel()
	e.extractor.Cancel()
}

// UpdatePose runs one guidance tick: finished background work is delivered, the plan grows
// around the vehicle, a continuous recording takes the new point, the turn state machine advances
// and the status is published.
func (e *Engine) UpdatePose(pose Pose) {
	e.runner.Drain()
	e.vehicle = spatialmath.NewPose2D(pose.Position.X, pose.Position.Y, pose.HeadingRad)
	e.hasPose = true
	if pose.Options.NoPlanner {
		return
	}
	if !pose.Options.LocalOffsetsOnly {
		e.expand()
		e.record()
		e.turns.Update(e.vehicle)
	}
	if e.outputs.Status != nil {
		e.outputs.Status(e.Status())
	}
}

// Status computes the offsets of the vehicle from the path it is following.
func (e *Engine) Status() Status {
	st := Status{
		Turn:           e.turns.State(),
		Recording:      e.recording,
		RecordedPoints: len(e.recorded),
		BoundaryPoints: len(e.boundary),
	}
	if !e.hasPose {
		return st
	}
	if t, ok := e.turns.Active(); ok {
		st.HasPlan = true
		st.PassNumber = t.TargetPassNumber
		st.CrossTrackError, st.HeadingErrorRad = offsets(t.Sequence, e.vehicle)
		return st
	}
	if e.global == nil {
		return st
	}
	h, _ := e.global.Nearest(e.vehicle.Point(), e.nearest)
	pass, ok := e.global.Get(h)
	if !ok {
		return st
	}
	st.HasPlan = true
	st.PassNumber = pass.Attrs().PassNumber
	st.CrossTrackError, st.HeadingErrorRad = offsets(pass, e.vehicle)
	return st
}

// offsets returns the signed cross-track and heading errors of vehicle against prim. A path that
// may be driven either way is measured in the direction the vehicle is going.
func offsets(prim guidepath.Primitive, vehicle spatialmath.Pose2D) (float64, float64) {
	pos := vehicle.Point()
	xte := math.Sqrt(prim.DistanceToPointSquared(pos))
	if !prim.LeftOf(pos) {
		xte = -xte
	}
	headingErr := utils.WrapToPi(vehicle.Theta() - utils.DegToRad(prim.AngleAtPointDegrees(pos)))
	if prim.Attrs().AnyDirection && math.Abs(headingErr) > math.Pi/2 {
		headingErr = utils.WrapToPi(headingErr + math.Pi)
		xte = -xte
	}
	return xte, headingErr
}

// Plan returns the current global plan. It is empty until a plan is defined.
func (e *Engine) Plan() plan.Snapshot {
	if e.global == nil {
		return plan.Snapshot{}
	}
	return e.global.Snapshot()
}

// Reference returns a copy of the points the plan was built from.
func (e *Engine) Reference() []r2.Point {
	return append([]r2.Point(nil), e.reference...)
}

// Recording reports whether a continuous recording is running.
func (e *Engine) Recording() bool {
	return e.recording
}

// TurnState returns the state of the turn state machine.
func (e *Engine) TurnState() turn.State {
	return e.turns.State()
}

// SetAPoint starts a new AB line at the vehicle. The current plan stays until the B point is set.
func (e *Engine) SetAPoint() error {
	if !e.hasPose {
		return ErrNoPose
	}
	e.stopRecording()
	e.reference = []r2.Point{e.vehicle.Point()}
	e.logger.Infow("A point set", "x", e.vehicle.Point().X, "y", e.vehicle.Point().Y)
	return nil
}

// SetBPoint completes the AB line at the vehicle and publishes the plan built from it.
func (e *Engine) SetBPoint() error {
	if !e.hasPose {
		return ErrNoPose
	}
	if len(e.reference) == 0 {
		return ErrNoAPoint
	}
	return e.install([]r2.Point{e.reference[0], e.vehicle.Point()})
}

// AddAdditionalPoint extends the AB line with the vehicle position, turning it into a curve.
func (e *Engine) AddAdditionalPoint() error {
	if !e.hasPose {
		return ErrNoPose
	}
	if len(e.reference) < 2 {
		return ErrNoPlan
	}
	points := append(e.Reference(), e.vehicle.Point())
	return e.install(points)
}

// SetABPolyline replaces the plan with one built from points, as when restoring a saved line.
func (e *Engine) SetABPolyline(points []r2.Point) error {
	e.stopRecording()
	return e.install(append([]r2.Point(nil), points...))
}

// ToggleContinuousRecording starts recording the vehicle path, or stops it and builds the plan from
// what was recorded. Recordings longer than the simplify threshold are simplified in the
// background first.
func (e *Engine) ToggleContinuousRecording() error {
	if !e.recording {
		if !e.hasPose {
			return ErrNoPose
		}
		e.simplifier.Cancel()
		e.recording = true
		e.recorded = []r2.Point{e.vehicle.Point()}
		e.logger.Info("continuous recording started")
		return nil
	}
	points := e.recorded
	e.stopRecording()
	e.logger.Infow("continuous recording stopped", "points", len(points))
	if len(points) > e.cfg.SimplifyThreshold {
		return e.simplifyAndInstall(points)
	}
	return e.install(points)
}

func (e *Engine) stopRecording() {
	e.recording = false
	e.recorded = nil
}

// Snap moves the plan sideways so the nearest pass runs through the vehicle.
func (e *Engine) Snap() error {
	if !e.hasPose {
		return ErrNoPose
	}
	if e.global == nil {
		return ErrNoPlan
	}
	if e.turns.State() == turn.Turning {
		e.turns.Cancel()
	}
	_, xte, ok := Snap(e.global, e.reference, e.vehicle.Point())
	if !ok {
		return ErrNoPlan
	}
	e.logger.Infow("plan snapped to vehicle", "offset", xte)
	e.publishPlan()
	return nil
}

// ToggleTurnLeft requests a turn to the left of the vehicle, or cancels one.
func (e *Engine) ToggleTurnLeft() error {
	return e.toggleTurn(true)
}

// ToggleTurnRight requests a turn to the right of the vehicle, or cancels one.
func (e *Engine) ToggleTurnRight() error {
	return e.toggleTurn(false)
}

func (e *Engine) toggleTurn(left bool) error {
	if !e.hasPose {
		return ErrNoPose
	}
	if e.global == nil {
		return ErrNoPlan
	}
	return e.turns.Toggle(left, e.global.Snapshot(), e.vehicle)
}

// SetSkip sets how many passes left and right turns move over.
func (e *Engine) SetSkip(left, right int) error {
	if left < 1 || right < 1 {
		return errors.Errorf("skip must be at least 1, got left %d right %d", left, right)
	}
	return e.turns.SetSkip(left, right)
}

// SetTurnRadius sets the minimum turning radius of later turns.
func (e *Engine) SetTurnRadius(radius float64) error {
	if !(radius > 0) {
		return errors.Errorf("turn radius must be positive, got %v", radius)
	}
	e.turns.SetRadius(radius)
	return nil
}

// SetPassesInReserve sets how many passes are kept on each side of the nearest one.
func (e *Engine) SetPassesInReserve(n int) error {
	if n < 1 {
		return errors.Errorf("passes in reserve must be at least 1, got %d", n)
	}
	e.cfg.PathsInReserve = n
	if e.global == nil {
		return nil
	}
	e.global.PathsInReserve = n
	if e.hasPose {
		e.expand()
		return nil
	}
	if err := e.global.FillReserve(); err != nil {
		return err
	}
	e.publishPlan()
	return nil
}

// SetMaxDeviation sets how far simplification may move a recorded path.
func (e *Engine) SetMaxDeviation(d float64) error {
	if d < 0 {
		return errors.Errorf("max deviation cannot be negative, got %v", d)
	}
	e.cfg.MaxDeviation = d
	return nil
}

// SetImplementWidth changes the pass spacing and rebuilds the plan from its reference points.
func (e *Engine) SetImplementWidth(w float64) error {
	if !(w > 0) {
		return ErrZeroImplementWidth
	}
	prev := e.cfg.ImplementWidth
	e.cfg.ImplementWidth = w
	if len(e.reference) < 2 {
		return nil
	}
	if err := e.install(e.Reference()); err != nil {
		e.cfg.ImplementWidth = prev
		return err
	}
	return nil
}

// SetBoundaryOptions changes how later boundary extractions choose their shape.
func (e *Engine) SetBoundaryOptions(opts field.Options) {
	e.extractor.SetOptions(opts)
}

// RecordBoundaryPoint adds a point to the field boundary recording.
func (e *Engine) RecordBoundaryPoint(p r3.Vector) {
	e.boundary = append(e.boundary, p)
}

// ClearBoundaryPoints drops the boundary recording and any extraction running on it.
func (e *Engine) ClearBoundaryPoints() {
	e.boundary = nil
	e.extractor.Cancel()
}

// ExtractBoundary starts extracting the field boundary from the recorded points. The result, or
// the reason there is none, is published once the job finishes.
func (e *Engine) ExtractBoundary() error {
	return e.extractor.Run(e.boundary)
}

func (e *Engine) attrs() guidepath.Attributes {
	return guidepath.Attributes{AnyDirection: e.cfg.AnyDirection, ImplementWidth: e.cfg.ImplementWidth}
}

// install replaces the plan with one built from points. On failure the current plan stays.
func (e *Engine) install(points []r2.Point) error {
	e.simplifier.Cancel()
	prim, err := BuildFromPolyline(points, e.attrs())
	if err != nil {
		return err
	}
	global, err := NewGlobalPlan(prim, e.cfg.PathsInReserve, e.cfg.MaxRetainedPasses)
	if err != nil {
		return err
	}
	e.setPlan(points, global)
	return nil
}

// simplifyAndInstall builds the plan from points in the background. A newer plan supersedes it.
func (e *Engine) simplifyAndInstall(points []r2.Point) error {
	pts := append([]r2.Point(nil), points...)
	maxDeviation, attrs := e.cfg.MaxDeviation, e.attrs()
	reserve, retained := e.cfg.PathsInReserve, e.cfg.MaxRetainedPasses

	g := jobs.NewGraph("recording")
	simplified := jobs.Go(g, "simplify", func(ctx context.Context) ([]r2.Point, error) {
		return simplify.Polyline(pts, maxDeviation), nil
	})
	global := jobs.Go(g, "plan", func(ctx context.Context) (*plan.Global, error) {
		prim, err := BuildFromPolyline(simplified.Value(), attrs)
		if err != nil {
			return nil, err
		}
		return NewGlobalPlan(prim, reserve, retained)
	}, simplified)

	return e.simplifier.Start(g, func(err error) {
		if err != nil {
			e.logger.Warnw("cannot build plan from recording", "error", err)
			return
		}
		e.logger.Debugw("recording simplified", "points", len(pts), "kept", len(simplified.Value()))
		if attrs != e.attrs() || reserve != e.cfg.PathsInReserve || retained != e.cfg.MaxRetainedPasses {
			// settings changed while the job ran
			if err := e.install(simplified.Value()); err != nil {
				e.logger.Warnw("cannot build plan from recording", "error", err)
			}
			return
		}
		e.setPlan(simplified.Value(), global.Value())
	})
}

func (e *Engine) setPlan(points []r2.Point, global *plan.Global) {
	e.reference = append([]r2.Point(nil), points...)
	e.global = global
	e.nearest = plan.Handle{}
	if e.turns.State() == turn.Turning {
		e.turns.Cancel()
	}
	e.logger.Infow("plan defined", "points", len(points), "passes", global.Len())
	if e.hasPose {
		e.nearest, _ = e.global.Expand(e.vehicle.Point(), plan.Handle{})
	}
	e.publishPlan()
}

// expand grows the plan around the vehicle and publishes it when passes were added or evicted.
func (e *Engine) expand() {
	if e.global == nil || e.global.Len() == 0 {
		return
	}
	before := bounds(e.global)
	h, err := e.global.Expand(e.vehicle.Point(), e.nearest)
	if err != nil {
		e.logger.Warnw("cannot expand plan", "error", err)
	}
	e.nearest = h
	if bounds(e.global) != before {
		e.publishPlan()
	}
}

// bounds returns the outermost pass numbers of a plan.
func bounds(global *plan.Global) [2]int32 {
	return [2]int32{global.At(0).Attrs().PassNumber, global.At(global.Len() - 1).Attrs().PassNumber}
}

// record adds the vehicle position to a continuous recording once it moved far enough.
func (e *Engine) record() {
	if !e.recording {
		return
	}
	pos := e.vehicle.Point()
	if last := e.recorded[len(e.recorded)-1]; last.Sub(pos).Norm() < e.cfg.MinPointDistance {
		return
	}
	e.recorded = append(e.recorded, pos)
}

func (e *Engine) publishPlan() {
	if e.outputs.Plan != nil {
		e.outputs.Plan(e.global.Snapshot())
	}
}

func (e *Engine) publishTurn(t *turn.Turn) {
	if e.outputs.LocalPlan == nil {
		return
	}
	if t == nil {
		e.outputs.LocalPlan(plan.Snapshot{})
		return
	}
	e.outputs.LocalPlan(plan.NewWith(t.Sequence).Snapshot())
}
