package spatialmath

import (
	"github.com/golang/geo/r2"
	geo "github.com/kellydunn/golang-geo"
)

// GetCartesianDistance calculates the unsigned east-west and north-south displacements between p
// and q in meters. The east-west leg is measured along p's latitude.
func GetCartesianDistance(p, q *geo.Point) (float64, float64) {
	mod := geo.NewPoint(p.Lat(), q.Lng())
	// Haversine distance in kilometers, converted to meters.
	distAlongLat := 1e3 * p.GreatCircleDistance(mod)
	distAlongLng := 1e3 * q.GreatCircleDistance(mod)
	return distAlongLat, distAlongLng
}

// GeoPointToLocal returns the position of point in the local plane centered at origin, in meters
// with x pointing east and y pointing north.
func GeoPointToLocal(point, origin *geo.Point) r2.Point {
	easting, northing := GetCartesianDistance(origin, point)
	if point.Lat() < origin.Lat() {
		northing = -northing
	}
	if point.Lng() < origin.Lng() {
		easting = -easting
	}
	return r2.Point{X: easting, Y: northing}
}
