package evaluation

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/calibeval/rimage/calibrate"
	"go.viam.com/calibeval/rimage/transform"
	"go.viam.com/calibeval/spatialmath"
)

type scene struct {
	pattern          *calibrate.Pattern
	sourceModel      *transform.PinholeCameraModel
	targetModel      *transform.PinholeCameraModel
	targetFromSource spatialmath.RigidTransform
	refFromSource    spatialmath.RigidTransform
}

func newModel(t *testing.T, fx float64, opencv ...float64) *transform.PinholeCameraModel {
	t.Helper()
	dist, err := transform.NewBrownConradyFromOpenCV(opencv)
	test.That(t, err, test.ShouldBeNil)
	intr := &transform.PinholeCameraIntrinsics{Width: 1280, Height: 720, Fx: fx, Fy: fx, Ppx: 640, Ppy: 360}
	model, err := transform.NewPinholeCameraModel(intr, dist)
	test.That(t, err, test.ShouldBeNil)
	return model
}

// newStereoScene is a 9x6 chessboard with 25 mm squares seen by two cameras 10 cm apart.
func newStereoScene(t *testing.T) *scene {
	t.Helper()
	pattern, err := calibrate.NewPattern(9, 6, 0.025)
	test.That(t, err, test.ShouldBeNil)
	return &scene{
		pattern:          pattern,
		sourceModel:      newModel(t, 800, -0.1, 0.01, 0.001, -0.0005, 0),
		targetModel:      newModel(t, 820, 0.05, -0.01, 0, 0.001, 0),
		targetFromSource: spatialmath.NewRigidTransformFromRodrigues(r3.Vector{Y: 0.05}, r3.Vector{X: -0.1}),
		refFromSource:    spatialmath.NewRigidTransformFromRodrigues(r3.Vector{X: -1.2, Z: 0.3}, r3.Vector{X: 0.3, Y: 0.1, Z: 1.1}),
	}
}

func patternPose(i int) spatialmath.RigidTransform {
	f := float64(i)
	return spatialmath.NewRigidTransformFromRodrigues(
		r3.Vector{X: 0.1 + 0.05*f, Y: -0.2 + 0.03*f, Z: 0.05},
		r3.Vector{X: -0.1 + 0.01*f, Y: -0.06, Z: 0.8 + 0.05*f},
	)
}

// input projects the pattern into both cameras. Only the listed ids are detected; nil means all of them.
func (s *scene) input(t *testing.T, id string, sourceFromPattern spatialmath.RigidTransform, sourceIDs, targetIDs []int) CollectionInput {
	t.Helper()
	objects := s.pattern.AllCorners()
	targetFromPattern := spatialmath.Compose(s.targetFromSource, sourceFromPattern)
	srcPixels := s.sourceModel.ProjectPoints(objects, sourceFromPattern)
	dstPixels := s.targetModel.ProjectPoints(objects, targetFromPattern)

	pick := func(ids []int, pixels []calibrate.Corner) calibrate.CornerSet {
		if ids == nil {
			return pixels
		}
		out := make(calibrate.CornerSet, 0, len(ids))
		for _, id := range ids {
			out = append(out, pixels[id])
		}
		return out
	}
	src := make([]calibrate.Corner, len(objects))
	dst := make([]calibrate.Corner, len(objects))
	for i := range objects {
		src[i] = calibrate.NewCorner(i, srcPixels[i].X, srcPixels[i].Y)
		dst[i] = calibrate.NewCorner(i, dstPixels[i].X, dstPixels[i].Y)
	}
	return CollectionInput{
		ID:                  id,
		Source:              pick(sourceIDs, src),
		Target:              pick(targetIDs, dst),
		TargetFromSource:    s.targetFromSource,
		ReferenceFromSource: s.refFromSource,
		ReferenceFromTarget: spatialmath.Compose(s.refFromSource, s.targetFromSource.Inverse()),
	}
}

func idRange(from, to int) []int {
	ids := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		ids = append(ids, i)
	}
	return ids
}
