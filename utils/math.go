// Package utils contains small helpers shared by the guidance packages.
package utils

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// Epsilon is the absolute tolerance used when comparing planar coordinates in meters.
const Epsilon = 1e-9

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// AngleDiffDeg returns the closest difference from the two given
// angles. The arguments are commutative.
func AngleDiffDeg(a1, a2 float64) float64 {
	return float64(180) - math.Abs(math.Abs(ModAngDeg(a1)-ModAngDeg(a2))-float64(180))
}

// ModAngDeg wraps an angle into [0, 360).
func ModAngDeg(ang float64) float64 {
	return math.Mod(math.Mod(ang, 360)+360, 360)
}

// WrapToPi wraps an angle in radians into (-pi, pi].
func WrapToPi(rad float64) float64 {
	rad = math.Mod(rad, 2*math.Pi)
	switch {
	case rad <= -math.Pi:
		rad += 2 * math.Pi
	case rad > math.Pi:
		rad -= 2 * math.Pi
	}
	return rad
}

// WrapTo2Pi wraps an angle in radians into [0, 2pi).
func WrapTo2Pi(rad float64) float64 {
	rad = math.Mod(rad, 2*math.Pi)
	if rad < 0 {
		rad += 2 * math.Pi
	}
	// math.Mod of a tiny negative number can round up to exactly 2pi.
	if rad >= 2*math.Pi {
		rad = 0
	}
	return rad
}

// Square is faster than math.Pow(n, 2).
func Square(n float64) float64 {
	return n * n
}

// Float64AlmostEqual compares two floats with the package tolerance.
func Float64AlmostEqual(a, b float64) bool {
	return scalar.EqualWithinAbs(a, b, Epsilon)
}

// AbsInt returns the absolute value of n.
func AbsInt(n int) int {
	if n < 0 {
		return -1 * n
	}
	return n
}
