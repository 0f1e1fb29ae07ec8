package turn

import (
	"context"

	"go.viam.com/autosteer/jobs"
	"go.viam.com/autosteer/logging"
	"go.viam.com/autosteer/plan"
	"go.viam.com/autosteer/spatialmath"
)

// State is the state of a Synthesizer.
type State int

const (
	// Following means the vehicle follows the global plan.
	Following State = iota
	// Turning means a turn was requested and the vehicle follows the turn sequence once computed.
	Turning
)

func (s State) String() string {
	if s == Turning {
		return "turning"
	}
	return "following"
}

// Synthesizer is the turn state machine. Turns are computed in the background and published on
// the goroutine draining the job runner. All methods must be called from that goroutine.
type Synthesizer struct {
	logger     logging.Logger
	controller *jobs.Controller
	publish    func(*Turn)

	radius    float64
	skipLeft  int
	skipRight int

	state  State
	left   bool
	anchor spatialmath.Pose2D
	global plan.Snapshot
	active *Turn
}

// NewSynthesizer returns a Synthesizer in the Following state. publish receives every computed
// turn, and nil when the turn ends or is cancelled.
func NewSynthesizer(
	runner *jobs.Runner,
	radius float64,
	skipLeft, skipRight int,
	publish func(*Turn),
	logger logging.Logger,
) *Synthesizer {
	if publish == nil {
		publish = func(*Turn) {}
	}
	return &Synthesizer{
		logger:     logger.Sublogger("turn"),
		controller: runner.NewController("turn"),
		publish:    publish,
		radius:     radius,
		skipLeft:   skipLeft,
		skipRight:  skipRight,
	}
}

// State returns the current state.
func (s *Synthesizer) State() State {
	return s.state
}

// Left reports the direction of the current turn.
func (s *Synthesizer) Left() bool {
	return s.left
}

// Active returns the computed turn being driven, if any.
func (s *Synthesizer) Active() (Turn, bool) {
	if s.active == nil {
		return Turn{}, false
	}
	return *s.active, true
}

// SetRadius changes the minimum turning radius of later turns.
func (s *Synthesizer) SetRadius(radius float64) {
	s.radius = radius
}

// SetSkip changes how many passes left and right turns move over. A turn in progress is recomputed
// from where it started.
func (s *Synthesizer) SetSkip(left, right int) error {
	changed := s.skipLeft != left || s.skipRight != right
	s.skipLeft, s.skipRight = left, right
	if changed && s.state == Turning {
		return s.compute()
	}
	return nil
}

// Skip returns the left and right skip counts.
func (s *Synthesizer) Skip() (int, int) {
	return s.skipLeft, s.skipRight
}

// Toggle handles a turn request. While following, it starts a turn from vehicle. Requesting the
// current direction again cancels the turn. Requesting the other direction recomputes the turn
// from the pose where it started.
func (s *Synthesizer) Toggle(left bool, global plan.Snapshot, vehicle spatialmath.Pose2D) error {
	switch {
	case s.state == Following:
		s.state = Turning
		s.left = left
		s.anchor = vehicle
		s.global = global
		s.logger.Infow("turn requested", "left", left, "x", vehicle.Point().X, "y", vehicle.Point().Y)
	case s.left == left:
		s.logger.Info("turn cancelled")
		s.Cancel()
		return nil
	default:
		s.left = left
		s.logger.Infow("turn direction changed", "left", left)
	}
	return s.compute()
}

// Cancel drops the current turn and returns to Following.
func (s *Synthesizer) Cancel() {
	s.controller.Cancel()
	wasActive := s.active != nil
	s.state = Following
	s.active = nil
	if wasActive {
		s.publish(nil)
	}
}

// Update advances the state machine with the latest vehicle pose. The turn ends once the vehicle
// reaches the last sub-primitive of the turn sequence and is within half an implement width of it.
func (s *Synthesizer) Update(vehicle spatialmath.Pose2D) {
	if s.state != Turning || s.active == nil {
		return
	}
	seq := s.active.Sequence
	last := seq.Len() - 1
	if seq.FindSequencePrimitive(vehicle.Point()) != last {
		return
	}
	// a U-turn's last bisector also covers the ground behind the turn start
	half := seq.Attrs().ImplementWidth / 2
	if seq.At(last).DistanceToPointSquared(vehicle.Point()) <= half*half {
		s.logger.Infow("turn completed", "pass", s.active.TargetPassNumber)
		s.state = Following
		s.active = nil
		s.publish(nil)
	}
}

func (s *Synthesizer) compute() error {
	skip := s.skipRight
	if s.left {
		skip = s.skipLeft
	}
	req := Request{
		Plan:    s.global,
		Vehicle: s.anchor,
		Left:    s.left,
		Skip:    skip,
		Radius:  s.radius,
	}

	g := jobs.NewGraph("turn")
	result := jobs.Go(g, "dubins", func(ctx context.Context) (Turn, error) {
		return BuildTurn(req)
	})
	return s.controller.Start(g, func(err error) {
		if err != nil {
			s.logger.Warnw("cannot compute turn", "error", err)
			s.Cancel()
			return
		}
		t := result.Value()
		s.logger.Debugw("turn computed", "type", t.Path.Type, "length", t.Path.Length(), "pass", t.TargetPassNumber)
		s.active = &t
		s.publish(&t)
	})
}
