package transform

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestNewHomography(t *testing.T) {
	_, err := NewHomography([]float64{})
	test.That(t, err, test.ShouldBeError, errors.New("input to NewHomography must have length of 9. Has length of 0"))

	vals := []float64{
		2.32700501e-01, -8.33535395e-03, -3.61894025e+01,
		-1.90671303e-03, 2.35303232e-01, 8.38582614e+00,
		-6.39101664e-05, -4.64582754e-05, 1.00000000e+00,
	}
	h, err := NewHomography(vals)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, h.At(0, 2), test.ShouldEqual, -3.61894025e+01)
	vals[0] = 0
	test.That(t, h.At(0, 0), test.ShouldEqual, 2.32700501e-01)

	inv, err := h.Inverse()
	test.That(t, err, test.ShouldBeNil)
	pt := r2.Point{X: 320, Y: 200}
	mapped, err := h.Apply(pt)
	test.That(t, err, test.ShouldBeNil)
	back, err := inv.Apply(mapped)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back.X, test.ShouldAlmostEqual, pt.X, 1e-8)
	test.That(t, back.Y, test.ShouldAlmostEqual, pt.Y, 1e-8)
}

func TestHomographyDegenerate(t *testing.T) {
	singular, err := NewHomography([]float64{1, 0, 0, 0, 1, 0, 0, 0, 0})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, singular.IsSingular(), test.ShouldBeTrue)
	_, err = singular.Inverse()
	test.That(t, errors.Is(err, ErrSingularHomography), test.ShouldBeTrue)

	_, err = singular.Apply(r2.Point{X: 1, Y: 2})
	test.That(t, errors.Is(err, ErrDegenerateProjection), test.ShouldBeTrue)

	good := NewSensorHomography(testIntrinsics(), sourceFromPattern())
	_, err = CrossSensorHomography(good, singular)
	test.That(t, errors.Is(err, ErrSingularHomography), test.ShouldBeTrue)
}

func TestPlanarPoseMatrix(t *testing.T) {
	pose := sourceFromPattern()
	m := PlanarPoseMatrix(pose)
	for i := 0; i < 3; i++ {
		test.That(t, m.At(i, 0), test.ShouldEqual, pose.Rotation.At(i, 0))
		test.That(t, m.At(i, 1), test.ShouldEqual, pose.Rotation.At(i, 1))
	}
	test.That(t, m.At(0, 2), test.ShouldEqual, pose.Translation.X)
	test.That(t, m.At(1, 2), test.ShouldEqual, pose.Translation.Y)
	test.That(t, m.At(2, 2), test.ShouldEqual, pose.Translation.Z)
}

func TestSensorHomographyProjectsPattern(t *testing.T) {
	model, err := NewPinholeCameraModel(testIntrinsics(), nil)
	test.That(t, err, test.ShouldBeNil)
	pose := sourceFromPattern()
	objects := chessboardPoints(9, 6, 0.025)
	want := model.ProjectPoints(objects, pose)

	h := NewSensorHomography(model.PinholeCameraIntrinsics, pose)
	for i, p := range objects {
		got, err := h.Apply(r2.Point{X: p.X, Y: p.Y})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got.X, test.ShouldAlmostEqual, want[i].X, 1e-9)
		test.That(t, got.Y, test.ShouldAlmostEqual, want[i].Y, 1e-9)
	}
}

func TestCrossSensorHomographyIdentity(t *testing.T) {
	h := NewSensorHomography(testIntrinsics(), sourceFromPattern())
	hst, err := CrossSensorHomography(h, h)
	test.That(t, err, test.ShouldBeNil)
	scale := hst.At(2, 2)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.
			if i == j {
				want = 1
			}
			test.That(t, hst.At(i, j)/scale, test.ShouldAlmostEqual, want, 1e-9)
		}
	}
}

func TestEstimateHomography(t *testing.T) {
	h, err := NewHomography([]float64{1.2, 0.1, 30, -0.05, 0.9, 12, 1e-4, -2e-4, 1})
	test.That(t, err, test.ShouldBeNil)
	src := []r2.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 80}, {X: 0, Y: 80}, {X: 50, Y: 40}, {X: 20, Y: 70}}
	dst := make([]r2.Point, len(src))
	for i, p := range src {
		dst[i], err = h.Apply(p)
		test.That(t, err, test.ShouldBeNil)
	}
	est, err := EstimateHomography(src, dst)
	test.That(t, err, test.ShouldBeNil)
	for i, p := range src {
		got, err := est.Apply(p)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got.X, test.ShouldAlmostEqual, dst[i].X, 1e-6)
		test.That(t, got.Y, test.ShouldAlmostEqual, dst[i].Y, 1e-6)
	}

	_, err = EstimateHomography(src[:3], dst[:3])
	test.That(t, errors.Is(err, ErrInsufficientCorrespondences), test.ShouldBeTrue)
}
