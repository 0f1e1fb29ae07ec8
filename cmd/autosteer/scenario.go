package main

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	geo "github.com/kellydunn/golang-geo"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/autosteer/guidance"
	"go.viam.com/autosteer/spatialmath"
	"go.viam.com/autosteer/utils"
)

// scenarioPoint is either local (x, y in meters) or geodetic (lat, lng in degrees).
type scenarioPoint struct {
	X   float64  `json:"x"`
	Y   float64  `json:"y"`
	Lat *float64 `json:"lat,omitempty"`
	Lng *float64 `json:"lng,omitempty"`
}

func (p scenarioPoint) geodetic() bool {
	return p.Lat != nil || p.Lng != nil
}

// scenario is the input of every command.
type scenario struct {
	Reference  []scenarioPoint `json:"reference"`
	Pose       scenarioPoint   `json:"pose"`
	HeadingDeg float64         `json:"heading_deg"`
	Boundary   []scenarioPoint `json:"boundary"`
}

func readScenario(path string) (*scenario, error) {
	//nolint:gosec
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s scenario
	if err := json.Unmarshal(buf, &s); err != nil {
		return nil, errors.Wrapf(err, "cannot parse scenario %q", path)
	}
	return &s, nil
}

// parseOrigin parses "lat,lng".
func parseOrigin(s string) (*geo.Point, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, errors.Errorf("origin must be lat,lng, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, errors.Wrap(err, "bad origin latitude")
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, errors.Wrap(err, "bad origin longitude")
	}
	return geo.NewPoint(lat, lng), nil
}

// local returns p in the local plane. Geodetic points need an origin.
func (p scenarioPoint) local(origin *geo.Point) (r2.Point, error) {
	if !p.geodetic() {
		return r2.Point{X: p.X, Y: p.Y}, nil
	}
	if p.Lat == nil || p.Lng == nil {
		return r2.Point{}, errors.New("geodetic points need both lat and lng")
	}
	if origin == nil {
		return r2.Point{}, errors.New("geodetic points need --origin")
	}
	return spatialmath.GeoPointToLocal(geo.NewPoint(*p.Lat, *p.Lng), origin), nil
}

func localPoints(points []scenarioPoint, origin *geo.Point) ([]r2.Point, error) {
	out := make([]r2.Point, 0, len(points))
	for i, p := range points {
		l, err := p.local(origin)
		if err != nil {
			return nil, errors.Wrapf(err, "point %d", i)
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *scenario) reference(origin *geo.Point) ([]r2.Point, error) {
	return localPoints(s.Reference, origin)
}

func (s *scenario) boundary(origin *geo.Point) ([]r3.Vector, error) {
	pts, err := localPoints(s.Boundary, origin)
	if err != nil {
		return nil, err
	}
	return lo.Map(pts, func(p r2.Point, _ int) r3.Vector { return r3.Vector{X: p.X, Y: p.Y} }), nil
}

func (s *scenario) pose(origin *geo.Point) (guidance.Pose, error) {
	pos, err := s.Pose.local(origin)
	if err != nil {
		return guidance.Pose{}, errors.Wrap(err, "pose")
	}
	return guidance.Pose{
		Position:   r3.Vector{X: pos.X, Y: pos.Y},
		HeadingRad: utils.DegToRad(s.HeadingDeg),
	}, nil
}
