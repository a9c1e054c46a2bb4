package transform

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/calibeval/spatialmath"
)

func testIntrinsics() *PinholeCameraIntrinsics {
	return &PinholeCameraIntrinsics{Width: 1280, Height: 720, Fx: 800, Fy: 800, Ppx: 640, Ppy: 360}
}

func testModel(t *testing.T, opencv ...float64) *PinholeCameraModel {
	t.Helper()
	dist, err := NewBrownConradyFromOpenCV(opencv)
	test.That(t, err, test.ShouldBeNil)
	model, err := NewPinholeCameraModel(testIntrinsics(), dist)
	test.That(t, err, test.ShouldBeNil)
	return model
}

// chessboardPoints lays out an nx by ny grid of inner corners on the Z=0 plane.
func chessboardPoints(nx, ny int, size float64) []r3.Vector {
	pts := make([]r3.Vector, 0, nx*ny)
	for row := 0; row < ny; row++ {
		for col := 0; col < nx; col++ {
			pts = append(pts, r3.Vector{X: float64(col) * size, Y: float64(row) * size})
		}
	}
	return pts
}

func sourceFromPattern() spatialmath.RigidTransform {
	return spatialmath.NewRigidTransformFromRodrigues(
		r3.Vector{X: 0.1, Y: -0.2, Z: 0.05},
		r3.Vector{X: -0.1, Y: -0.06, Z: 0.8},
	)
}

// targetFromSource is a 10 cm baseline along x with a slight toe-in.
func targetFromSource() spatialmath.RigidTransform {
	return spatialmath.NewRigidTransformFromRodrigues(
		r3.Vector{X: 0, Y: 0.05, Z: 0},
		r3.Vector{X: -0.1, Y: 0, Z: 0},
	)
}

func pointsAlmostEqual(t *testing.T, got, want []r2.Point, tol float64) {
	t.Helper()
	test.That(t, len(got), test.ShouldEqual, len(want))
	for i := range want {
		test.That(t, got[i].X, test.ShouldAlmostEqual, want[i].X, tol)
		test.That(t, got[i].Y, test.ShouldAlmostEqual, want[i].Y, tol)
	}
}
