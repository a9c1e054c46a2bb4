package transform

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/calibeval/spatialmath"
)

func TestTransferPointsRoundTrip(t *testing.T) {
	srcModel := testModel(t, -0.1, 0.01, 0.001, -0.0005, 0)
	dstModel := testModel(t, 0.05, -0.01, 0, 0.001, 0)
	objects := chessboardPoints(9, 6, 0.025)

	sourcePose := sourceFromPattern()
	targetPose := spatialmath.Compose(targetFromSource(), sourcePose)
	srcPixels := srcModel.ProjectPoints(objects, sourcePose)
	dstPixels := dstModel.ProjectPoints(objects, targetPose)

	hs := NewSensorHomography(srcModel.PinholeCameraIntrinsics, sourcePose)
	ht := NewSensorHomography(dstModel.PinholeCameraIntrinsics, targetPose)
	hst, err := CrossSensorHomography(ht, hs)
	test.That(t, err, test.ShouldBeNil)

	transferred, err := TransferPoints(srcPixels, srcModel, dstModel, hst)
	test.That(t, err, test.ShouldBeNil)
	pointsAlmostEqual(t, transferred, dstPixels, 1e-4)

	// and back again
	hts, err := CrossSensorHomography(hs, ht)
	test.That(t, err, test.ShouldBeNil)
	back, err := TransferPoints(transferred, dstModel, srcModel, hts)
	test.That(t, err, test.ShouldBeNil)
	pointsAlmostEqual(t, back, srcPixels, 1e-4)
}

func TestTransferPointsFromEstimatedPoses(t *testing.T) {
	model := testModel(t, -0.1, 0.01, 0, 0, 0)
	objects := chessboardPoints(9, 6, 0.025)
	sourcePose := sourceFromPattern()
	targetPose := spatialmath.Compose(targetFromSource(), sourcePose)
	srcPixels := model.ProjectPoints(objects, sourcePose)
	dstPixels := model.ProjectPoints(objects, targetPose)

	estimated, err := SolvePnP(objects, srcPixels, model)
	test.That(t, err, test.ShouldBeNil)
	hs := NewSensorHomography(model.PinholeCameraIntrinsics, estimated)
	ht := NewSensorHomography(model.PinholeCameraIntrinsics, spatialmath.Compose(targetFromSource(), estimated))
	hst, err := CrossSensorHomography(ht, hs)
	test.That(t, err, test.ShouldBeNil)
	transferred, err := TransferPoints(srcPixels, model, model, hst)
	test.That(t, err, test.ShouldBeNil)
	pointsAlmostEqual(t, transferred, dstPixels, 1e-3)
}

func TestTransferPointsErrors(t *testing.T) {
	model := testModel(t)
	hst, err := NewHomography([]float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	test.That(t, err, test.ShouldBeNil)

	_, err = TransferPoints(nil, model, model, hst)
	test.That(t, errors.Is(err, ErrNoPoints), test.ShouldBeTrue)

	_, err = TransferPoints([]r2.Point{{X: 1, Y: 1}}, nil, model, hst)
	test.That(t, errors.Is(err, ErrNoIntrinsics), test.ShouldBeTrue)

	// every pixel maps to w = 0
	flat, err := NewHomography([]float64{1, 0, 0, 0, 1, 0, 0, 0, 0})
	test.That(t, err, test.ShouldBeNil)
	_, err = TransferPoints([]r2.Point{{X: 700, Y: 400}}, model, model, flat)
	test.That(t, errors.Is(err, ErrDegenerateProjection), test.ShouldBeTrue)

	out, err := TransferPoints([]r2.Point{{X: 700, Y: 400}}, model, model, hst)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out[0].X, test.ShouldAlmostEqual, 700, 1e-9)
	test.That(t, out[0].Y, test.ShouldAlmostEqual, 400, 1e-9)
}
