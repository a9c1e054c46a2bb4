package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestAngleConversion(t *testing.T) {
	test.That(t, DegToRad(180), test.ShouldAlmostEqual, math.Pi)
	test.That(t, RadToDeg(math.Pi/2), test.ShouldAlmostEqual, 90.)
	test.That(t, RadToDeg(DegToRad(-33.3)), test.ShouldAlmostEqual, -33.3)
	test.That(t, Square(-3), test.ShouldEqual, 9.)
}

func TestFloatChecks(t *testing.T) {
	test.That(t, Float64AlmostEqual(1, 1+1e-9, 1e-6), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(1, 1.1, 1e-6), test.ShouldBeFalse)
	test.That(t, IsFinite(0, -1, 1e300), test.ShouldBeTrue)
	test.That(t, IsFinite(0, math.NaN()), test.ShouldBeFalse)
	test.That(t, IsFinite(math.Inf(-1)), test.ShouldBeFalse)
	test.That(t, ParallelFactor, test.ShouldBeGreaterThan, 0)
}
