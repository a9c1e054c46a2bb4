package transform

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/calibeval/spatialmath"
)

func TestSolvePnPPlanar(t *testing.T) {
	model := testModel(t, -0.1, 0.01, 0.001, -0.0005, 0)
	objects := chessboardPoints(9, 6, 0.025)
	truth := sourceFromPattern()
	pixels := model.ProjectPoints(objects, truth)

	pose, err := SolvePnP(objects, pixels, model)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.TransformAlmostEqual(pose, truth, 1e-6, 1e-6), test.ShouldBeTrue)
	test.That(t, ReprojectionError(objects, pixels, model, pose), test.ShouldBeLessThan, 1e-6)
}

func TestSolvePnPPlaneOffsetFromOrigin(t *testing.T) {
	model := testModel(t)
	// a tilted plane that does not contain the object origin
	tilt := spatialmath.NewRigidTransformFromRodrigues(r3.Vector{X: 0.3, Y: 0.2}, r3.Vector{X: 0.05, Y: -0.02, Z: 0.1})
	var objects []r3.Vector
	for _, p := range chessboardPoints(5, 4, 0.03) {
		objects = append(objects, tilt.Apply(p))
	}
	truth := spatialmath.NewRigidTransformFromRodrigues(r3.Vector{X: -0.05, Y: 0.1, Z: 0.2}, r3.Vector{X: -0.1, Y: -0.1, Z: 0.7})
	pixels := model.ProjectPoints(objects, truth)

	pose, err := SolvePnP(objects, pixels, model)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.TransformAlmostEqual(pose, truth, 1e-6, 1e-6), test.ShouldBeTrue)
}

func TestSolvePnPNonPlanar(t *testing.T) {
	model := testModel(t, -0.05, 0.002, 0, 0, 0)
	objects := []r3.Vector{
		{X: 0, Y: 0, Z: 0},
		{X: 0.2, Y: 0, Z: 0.05},
		{X: 0, Y: 0.15, Z: -0.04},
		{X: 0.2, Y: 0.15, Z: 0.1},
		{X: 0.1, Y: 0.05, Z: 0.15},
		{X: 0.05, Y: 0.12, Z: 0.02},
		{X: 0.17, Y: 0.03, Z: -0.06},
		{X: 0.12, Y: 0.1, Z: -0.02},
	}
	truth := spatialmath.NewRigidTransformFromRodrigues(r3.Vector{X: 0.2, Y: 0.1, Z: -0.1}, r3.Vector{X: -0.1, Y: -0.05, Z: 1})
	pixels := model.ProjectPoints(objects, truth)

	pose, err := SolvePnP(objects, pixels, model)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.TransformAlmostEqual(pose, truth, 1e-5, 1e-5), test.ShouldBeTrue)
}

func TestSolvePnPErrors(t *testing.T) {
	model := testModel(t)
	objects := chessboardPoints(3, 1, 0.025)
	pixels := []r2.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}

	_, err := SolvePnP(objects, pixels, model)
	test.That(t, errors.Is(err, ErrInsufficientCorrespondences), test.ShouldBeTrue)

	_, err = SolvePnP(chessboardPoints(2, 2, 0.025), pixels, model)
	test.That(t, errors.Is(err, ErrInsufficientCorrespondences), test.ShouldBeTrue)

	// five points along a line
	line := chessboardPoints(5, 1, 0.025)
	linePixels := model.ProjectPoints(line, sourceFromPattern())
	_, err = SolvePnP(line, linePixels, model)
	test.That(t, errors.Is(err, ErrDegenerateGeometry), test.ShouldBeTrue)

	// non-planar objects need six points
	objects = []r3.Vector{{X: 0}, {X: 0.1}, {Y: 0.1}, {Z: 0.1}, {X: 0.1, Y: 0.1, Z: 0.1}}
	_, err = SolvePnP(objects, model.ProjectPoints(objects, sourceFromPattern()), model)
	test.That(t, errors.Is(err, ErrInsufficientCorrespondences), test.ShouldBeTrue)

	_, err = SolvePnP(objects, model.ProjectPoints(objects, sourceFromPattern()), nil)
	test.That(t, errors.Is(err, ErrNoIntrinsics), test.ShouldBeTrue)
}
