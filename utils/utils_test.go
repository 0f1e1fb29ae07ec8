package utils

import (
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestAngles(t *testing.T) {
	test.That(t, DegToRad(180), test.ShouldAlmostEqual, math.Pi)
	test.That(t, RadToDeg(math.Pi/2), test.ShouldAlmostEqual, 90)
	test.That(t, AngleDiffDeg(350, 10), test.ShouldAlmostEqual, 20)
	test.That(t, AngleDiffDeg(-90, 90), test.ShouldAlmostEqual, 180)
	test.That(t, ModAngDeg(-30), test.ShouldAlmostEqual, 330)
	test.That(t, WrapToPi(3*math.Pi/2), test.ShouldAlmostEqual, -math.Pi/2)
	test.That(t, WrapToPi(-math.Pi), test.ShouldAlmostEqual, math.Pi)
	test.That(t, WrapTo2Pi(-math.Pi/2), test.ShouldAlmostEqual, 3*math.Pi/2)
	test.That(t, WrapTo2Pi(4*math.Pi), test.ShouldAlmostEqual, 0)
	test.That(t, Float64AlmostEqual(0.1+0.2, 0.3), test.ShouldBeTrue)
	test.That(t, AbsInt(-3), test.ShouldEqual, 3)
}

func TestRunInParallel(t *testing.T) {
	var a, b int
	err := RunInParallel(context.Background(), []SimpleFunc{
		func(ctx context.Context) error { a = 1; return nil },
		func(ctx context.Context) error { b = 2; return nil },
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, a+b, test.ShouldEqual, 3)

	err = RunInParallel(context.Background(), []SimpleFunc{
		func(ctx context.Context) error { return errors.New("collinear") },
		func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "collinear")

	err = RunInParallel(context.Background(), []SimpleFunc{
		func(ctx context.Context) error { panic("boom") },
	})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "boom")
}
