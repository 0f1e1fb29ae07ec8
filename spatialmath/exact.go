package spatialmath

import (
	"math"
	"math/big"

	"github.com/golang/geo/r2"
)

// IntersectLineCircleExact intersects line with the circle through a, b and c. The circle and the
// quadratic discriminant are evaluated in rational arithmetic, so the number of intersections is
// exact for the float inputs: a tangent line yields one point rather than zero. Only the final
// square root is taken in floating point. Points are ordered along the line direction. Nil is
// returned when a, b and c are collinear.
func IntersectLineCircleExact(line Line2D, a, b, c r2.Point) []r2.Point {
	ax, ay := ratOf(a.X), ratOf(a.Y)
	bx, by := ratOf(b.X), ratOf(b.Y)
	cx, cy := ratOf(c.X), ratOf(c.Y)

	// d = 2 * (ax(by-cy) + bx(cy-ay) + cx(ay-by))
	d := new(big.Rat).Mul(ax, sub(by, cy))
	d.Add(d, mul(bx, sub(cy, ay)))
	d.Add(d, mul(cx, sub(ay, by)))
	d.Mul(d, big.NewRat(2, 1))
	if d.Sign() == 0 {
		return nil
	}
	a2 := add(mul(ax, ax), mul(ay, ay))
	b2 := add(mul(bx, bx), mul(by, by))
	c2 := add(mul(cx, cx), mul(cy, cy))

	ux := add(add(mul(a2, sub(by, cy)), mul(b2, sub(cy, ay))), mul(c2, sub(ay, by)))
	ux.Quo(ux, d)
	uy := add(add(mul(a2, sub(cx, bx)), mul(b2, sub(ax, cx))), mul(c2, sub(bx, ax)))
	uy.Quo(uy, d)

	r2sq := add(mul(sub(ax, ux), sub(ax, ux)), mul(sub(ay, uy), sub(ay, uy)))

	px, py := ratOf(line.Point.X), ratOf(line.Point.Y)
	dx, dy := ratOf(line.Direction.X), ratOf(line.Direction.Y)
	wx, wy := sub(px, ux), sub(py, uy)

	// |w + t*dir|^2 = r^2  =>  qa t^2 + qb t + qc = 0
	qa := add(mul(dx, dx), mul(dy, dy))
	if qa.Sign() == 0 {
		return nil
	}
	qb := mul(big.NewRat(2, 1), add(mul(dx, wx), mul(dy, wy)))
	qc := sub(add(mul(wx, wx), mul(wy, wy)), r2sq)
	disc := sub(mul(qb, qb), mul(big.NewRat(4, 1), mul(qa, qc)))

	qaF, _ := qa.Float64()
	qbF, _ := qb.Float64()
	switch disc.Sign() {
	case -1:
		return nil
	case 0:
		t := -qbF / (2 * qaF)
		return []r2.Point{line.PointAt(t)}
	default:
		discF, _ := disc.Float64()
		root := math.Sqrt(discF)
		t0 := (-qbF - root) / (2 * qaF)
		t1 := (-qbF + root) / (2 * qaF)
		return []r2.Point{line.PointAt(t0), line.PointAt(t1)}
	}
}

func ratOf(f float64) *big.Rat {
	return new(big.Rat).SetFloat64(f)
}

func add(a, b *big.Rat) *big.Rat {
	return new(big.Rat).Add(a, b)
}

func sub(a, b *big.Rat) *big.Rat {
	return new(big.Rat).Sub(a, b)
}

func mul(a, b *big.Rat) *big.Rat {
	return new(big.Rat).Mul(a, b)
}
