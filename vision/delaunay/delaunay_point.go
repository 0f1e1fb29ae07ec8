package delaunay

import (
	"math"

	"github.com/golang/geo/r2"
)

// Point is a float64 2d point used in Delaunay triangulation.
type Point r2.Point

func (a Point) squaredDistance(b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

func (a Point) distance(b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func (a Point) sub(b Point) Point {
	return Point{a.X - b.X, a.Y - b.Y}
}

func (a Point) cross(b Point) float64 {
	return a.X*b.Y - a.Y*b.X
}

// orient is positive when a, b, c turn counterclockwise.
func orient(a, b, c Point) float64 {
	return b.sub(a).cross(c.sub(a))
}

// inCircle is positive when d lies inside the circumcircle of the counterclockwise triangle abc.
func inCircle(a, b, c, d Point) float64 {
	adx, ady := a.X-d.X, a.Y-d.Y
	bdx, bdy := b.X-d.X, b.Y-d.Y
	cdx, cdy := c.X-d.X, c.Y-d.Y
	ad := adx*adx + ady*ady
	bd := bdx*bdx + bdy*bdy
	cd := cdx*cdx + cdy*cdy
	return adx*(bdy*cd-bd*cdy) - ady*(bdx*cd-bd*cdx) + ad*(bdx*cdy-bdy*cdx)
}

// circumradiusSquared returns the squared radius of the circle through a, b and c.
func circumradiusSquared(a, b, c Point) float64 {
	ab := a.squaredDistance(b)
	bc := b.squaredDistance(c)
	ca := c.squaredDistance(a)
	area2 := orient(a, b, c)
	if area2 == 0 {
		return math.Inf(1)
	}
	// R = |ab||bc||ca| / (4 * area) and area2 is twice the area.
	return ab * bc * ca / (4 * area2 * area2)
}
