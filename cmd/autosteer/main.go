// Package main is the autosteer command line tool. It runs the guidance engine on scenario files
// and prints what it would publish.
package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/golang/geo/r2"
	"github.com/jedib0t/go-pretty/v6/table"
	geo "github.com/kellydunn/golang-geo"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"go.viam.com/autosteer/config"
	"go.viam.com/autosteer/field"
	"go.viam.com/autosteer/guidance"
	"go.viam.com/autosteer/guidepath"
	"go.viam.com/autosteer/jobs"
	"go.viam.com/autosteer/logging"
	"go.viam.com/autosteer/plan"
	"go.viam.com/autosteer/spatialmath"
	"go.viam.com/autosteer/turn"
	"go.viam.com/autosteer/utils"
)

const (
	flagConfig   = "config"
	flagDebug    = "debug"
	flagScenario = "scenario"
	flagOrigin   = "origin"
	flagLeft     = "left"
	flagSkip     = "skip"
	flagSamples  = "samples"
	flagTimeout  = "timeout"
	flagTrace    = "trace"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	scenarioFlags := []cli.Flag{
		&cli.StringFlag{
			Name:     flagScenario,
			Aliases:  []string{"s"},
			Required: true,
			Usage:    "read the reference, pose and boundary from `FILE`",
		},
		&cli.StringFlag{
			Name:  flagOrigin,
			Usage: "local plane origin as `LAT,LNG` for scenarios given in lat/lng",
		},
	}
	return &cli.App{
		Name:      "autosteer",
		Usage:     "plan guidance passes, turns and field boundaries",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.DurationFlag{
				Name:  flagTimeout,
				Value: 30 * time.Second,
				Usage: "give up on background work after this long",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "plan",
				Usage:  "print the passes around the scenario pose",
				Flags:  scenarioFlags,
				Action: planAction,
			},
			{
				Name:  "turn",
				Usage: "print the turn from the scenario pose onto another pass",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{Name: flagLeft, Usage: "turn left instead of right"},
					&cli.IntFlag{Name: flagSkip, Value: 1, Usage: "number of passes to move over"},
					&cli.BoolFlag{Name: flagSamples, Usage: "also print poses sampled along the path"},
					&cli.BoolFlag{Name: flagTrace, Usage: "log the turn computation at debug level only"},
				}, scenarioFlags...),
				Action: turnAction,
			},
			{
				Name:   "boundary",
				Usage:  "extract the field boundary from the scenario boundary points",
				Flags:  scenarioFlags,
				Action: boundaryAction,
			},
		},
	}
}

// session is what every command needs: the config, a logger, a runner and the scenario.
type session struct {
	cfg      *config.Config
	logger   logging.Logger
	runner   *jobs.Runner
	scenario *scenario
	origin   *geo.Point
}

func newSession(c *cli.Context) (*session, error) {
	logger := logging.NewBlankLogger("autosteer")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))

	var cfg *config.Config
	var err error
	if path := c.String(flagConfig); path != "" {
		cfg, err = config.Read(c.Context, path, logger)
	} else {
		cfg, err = config.FromAttributes(config.AttributeMap{}, logger)
	}
	if err != nil {
		return nil, err
	}
	logger.SetLevel(cfg.Log.Level)
	if c.Bool(flagDebug) {
		logger.SetLevel(logging.DEBUG)
	}

	s, err := readScenario(c.String(flagScenario))
	if err != nil {
		return nil, err
	}
	origin, err := parseOrigin(c.String(flagOrigin))
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:      cfg,
		logger:   logger,
		runner:   jobs.NewRunner(cfg.Jobs.Workers, logger, nil),
		scenario: s,
		origin:   origin,
	}, nil
}

func (s *session) close() {
	s.runner.Close()
	goutils.UncheckedError(s.logger.Sync())
}

// await drains the runner until done holds or the timeout passes.
func (s *session) await(c *cli.Context, done func() bool) error {
	ctx, cancel := context.WithTimeout(c.Context, c.Duration(flagTimeout))
	defer cancel()
	return s.runner.Await(ctx, done)
}

func planAction(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	var snapshot plan.Snapshot
	var status guidance.Status
	engine := guidance.NewEngine(*s.cfg, s.runner, guidance.Outputs{
		Plan:   func(p plan.Snapshot) { snapshot = p },
		Status: func(st guidance.Status) { status = st },
	}, s.logger)
	defer engine.Close()

	reference, err := s.scenario.reference(s.origin)
	if err != nil {
		return err
	}
	pose, err := s.scenario.pose(s.origin)
	if err != nil {
		return err
	}
	if err := engine.SetABPolyline(reference); err != nil {
		return err
	}
	engine.UpdatePose(pose)

	vehicle := r2.Point{X: pose.Position.X, Y: pose.Position.Y}
	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.AppendHeader(table.Row{"Pass", "Kind", "Distance", "Description"})
	for _, prim := range snapshot.Primitives {
		marker := ""
		if prim.Attrs().PassNumber == status.PassNumber {
			marker = " *"
		}
		t.AppendRow(table.Row{
			fmt.Sprintf("%d%s", prim.Attrs().PassNumber, marker),
			prim.Kind(),
			fmt.Sprintf("%.3f", math.Sqrt(prim.DistanceToPointSquared(vehicle))),
			guidepath.Describe(prim),
		})
	}
	t.AppendFooter(table.Row{"", "", "XTE", fmt.Sprintf("%.3f m, heading error %.2f°",
		status.CrossTrackError, utils.RadToDeg(status.HeadingErrorRad))})
	t.Render()
	return nil
}

func turnAction(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	reference, err := s.scenario.reference(s.origin)
	if err != nil {
		return err
	}
	pose, err := s.scenario.pose(s.origin)
	if err != nil {
		return err
	}
	attrs := guidepath.Attributes{ImplementWidth: s.cfg.Guidance.ImplementWidth, AnyDirection: s.cfg.Guidance.AnyDirection}
	prim, err := guidance.BuildFromPolyline(reference, attrs)
	if err != nil {
		return err
	}
	global, err := guidance.NewGlobalPlan(prim, s.cfg.Guidance.PathsInReserve, s.cfg.Guidance.MaxRetainedPasses)
	if err != nil {
		return err
	}

	req := turn.Request{
		Plan:    global.Snapshot(),
		Vehicle: spatialmath.NewPose2D(pose.Position.X, pose.Position.Y, pose.HeadingRad),
		Left:    c.Bool(flagLeft),
		Skip:    c.Int(flagSkip),
		Radius:  s.cfg.Turn.Radius,
	}
	g := jobs.NewGraph("turn")
	result := jobs.Go(g, "dubins", func(ctx context.Context) (turn.Turn, error) {
		return turn.BuildTurn(req)
	})
	ctx, cancel := context.WithTimeout(c.Context, c.Duration(flagTimeout))
	defer cancel()
	if c.Bool(flagTrace) {
		ctx = logging.EnableDebugMode(ctx, "")
	}
	if err := s.runner.Run(ctx, g); err != nil {
		return err
	}
	tr := result.Value()

	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.SetTitle(fmt.Sprintf("%s turn onto pass %d, %.3f m", tr.Path.Type, tr.TargetPassNumber, tr.Path.Length()))
	t.AppendHeader(table.Row{"#", "Kind", "Description"})
	for i, p := range tr.Sequence.Primitives() {
		t.AppendRow(table.Row{i, p.Kind(), guidepath.Describe(p)})
	}
	t.Render()

	if !c.Bool(flagSamples) {
		return nil
	}
	samples := table.NewWriter()
	samples.SetOutputMirror(c.App.Writer)
	samples.AppendHeader(table.Row{"#", "X", "Y", "Heading"})
	for i, p := range tr.Path.Sample(s.cfg.Turn.SampleStep) {
		samples.AppendRow(table.Row{
			i,
			fmt.Sprintf("%.3f", p.Point().X),
			fmt.Sprintf("%.3f", p.Point().Y),
			fmt.Sprintf("%.2f°", utils.RadToDeg(p.Theta())),
		})
	}
	samples.Render()
	return nil
}

func boundaryAction(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	points, err := s.scenario.boundary(s.origin)
	if err != nil {
		return err
	}

	var (
		done    bool
		polygon field.Polygon
		aborted error
	)
	stages := table.NewWriter()
	stages.SetOutputMirror(c.App.Writer)
	stages.AppendHeader(table.Row{"Stage", "Points", "Alpha", "Rings", "Holes", "Vertices", "Area"})
	engine := guidance.NewEngine(*s.cfg, s.runner, guidance.Outputs{
		Boundary: func(p field.Polygon, _ field.Stats) {
			polygon, done = p, true
		},
		BoundaryAborted: func(err error) {
			aborted, done = err, true
		},
		BoundaryStats: func(stage string, st field.Stats) {
			stages.AppendRow(table.Row{
				stage, st.Points, fmt.Sprintf("%.3f", st.Alpha), st.Rings, st.Holes, st.SimplifiedVertices,
				fmt.Sprintf("%.1f", st.Area),
			})
		},
	}, s.logger)
	defer engine.Close()

	for _, p := range points {
		engine.RecordBoundaryPoint(p)
	}
	if err := engine.ExtractBoundary(); err != nil {
		return err
	}
	if err := s.await(c, func() bool { return done }); err != nil {
		return err
	}
	stages.Render()
	if aborted != nil {
		return errors.Wrap(aborted, "no boundary")
	}

	rings := table.NewWriter()
	rings.SetOutputMirror(c.App.Writer)
	rings.AppendHeader(table.Row{"Ring", "Vertices", "Area", "Perimeter"})
	ring := func(name string, pts []r2.Point) table.Row {
		p := field.Polygon{Outer: pts}
		return table.Row{name, len(pts), fmt.Sprintf("%.1f", p.Area()), fmt.Sprintf("%.1f", p.Perimeter())}
	}
	rings.AppendRow(ring("outer", polygon.Outer))
	for i, h := range polygon.Holes {
		rings.AppendRow(ring(fmt.Sprintf("hole %d", i), h))
	}
	rings.AppendFooter(table.Row{"field", "", fmt.Sprintf("%.1f", polygon.Area()), fmt.Sprintf("%.1f", polygon.Perimeter())})
	rings.Render()
	return nil
}
