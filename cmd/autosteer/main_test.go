package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r2"
	geo "github.com/kellydunn/golang-geo"
	"go.viam.com/test"
)

func writeJSON(t *testing.T, name string, v interface{}) string {
	t.Helper()
	buf, err := json.Marshal(v)
	test.That(t, err, test.ShouldBeNil)
	path := filepath.Join(t.TempDir(), name)
	test.That(t, os.WriteFile(path, buf, 0o600), test.ShouldBeNil)
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"autosteer"}, args...))
	return out.String(), err
}

func TestPlanCommand(t *testing.T) {
	path := writeJSON(t, "scenario.json", scenario{
		Reference:  []scenarioPoint{{X: 0, Y: 0}, {X: 10, Y: 0}},
		Pose:       scenarioPoint{X: 5, Y: 0.5},
		HeadingDeg: 0,
	})
	out, err := run(t, "plan", "--scenario", path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "line pass=0")
	test.That(t, out, test.ShouldContainSubstring, "line pass=-3")
	test.That(t, out, test.ShouldContainSubstring, "0.500")

	_, err = run(t, "plan")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTurnCommand(t *testing.T) {
	cfg := writeJSON(t, "config.json", map[string]interface{}{
		"guidance": map[string]interface{}{"implement_width": 20},
		"turn":     map[string]interface{}{"radius": 5, "sample_step": 1},
	})
	path := writeJSON(t, "scenario.json", scenario{
		Reference: []scenarioPoint{{X: 0, Y: 0}, {X: 10, Y: 0}},
	})
	out, err := run(t, "--config", cfg, "turn", "--left", "--samples", "--scenario", path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, fmt.Sprintf("LSL turn onto pass -1, %.3f m", 10+5*math.Pi))
	test.That(t, out, test.ShouldContainSubstring, "180.00°")
}

func TestBoundaryCommand(t *testing.T) {
	var points []scenarioPoint
	for x := 0.; x <= 30; x += 3 {
		for y := 0.; y <= 15; y += 3 {
			// offset odd rows so no four points share a circle
			dx := 0.
			if int(y/3)%2 == 1 {
				dx = 0.7
			}
			points = append(points, scenarioPoint{X: x + dx, Y: y + 0.01*x})
		}
	}
	path := writeJSON(t, "scenario.json", scenario{Boundary: points})
	out, err := run(t, "boundary", "--scenario", path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "outer")
	test.That(t, out, test.ShouldContainSubstring, "prepare")

	line := writeJSON(t, "line.json", scenario{Boundary: []scenarioPoint{{X: 0}, {X: 1}, {X: 2}, {X: 3}}})
	_, err = run(t, "boundary", "--scenario", line)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no boundary")
}

func TestScenarioOrigin(t *testing.T) {
	origin, err := parseOrigin("40.0, -74.0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, origin.Lat(), test.ShouldEqual, 40.)

	_, err = parseOrigin("40.0")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = parseOrigin("north,-74")
	test.That(t, err, test.ShouldNotBeNil)

	none, err := parseOrigin("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, none, test.ShouldBeNil)

	lat, lng := 40.001, -74.0
	p := scenarioPoint{Lat: &lat, Lng: &lng}
	_, err = p.local(nil)
	test.That(t, err, test.ShouldNotBeNil)

	local, err := p.local(origin)
	test.That(t, err, test.ShouldBeNil)
	// a thousandth of a degree of latitude is about 111 m
	test.That(t, local.Y, test.ShouldAlmostEqual, 111.2, 0.5)
	test.That(t, math.Abs(local.X), test.ShouldBeLessThan, 1e-6)

	plain, err := scenarioPoint{X: 3, Y: 4}.local(geo.NewPoint(0, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plain, test.ShouldResemble, r2.Point{X: 3, Y: 4})
}
