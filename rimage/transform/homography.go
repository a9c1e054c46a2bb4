package transform

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/calibeval/spatialmath"
)

const (
	// SingularityTolerance is the threshold on |det(H/‖H‖_F)| below which a homography is treated as singular.
	SingularityTolerance = 1e-12
	// ProjectionTolerance is the threshold on the homogeneous weight below which a mapped point is at infinity.
	ProjectionTolerance = 1e-12
)

var (
	// ErrSingularHomography is returned when a homography that must be inverted is singular.
	ErrSingularHomography = errors.New("homography is singular")
	// ErrDegenerateProjection is returned when a point maps to the line at infinity.
	ErrDegenerateProjection = errors.New("point projects to infinity")
)

// Homography is a 3x3 matrix used to transform a plane from the perspective of a 2D
// camera to the perspective of another 2D camera, or from a planar target into an image.
type Homography struct {
	matrix *mat.Dense
}

// NewHomography creates a homography from 9 row-major values.
func NewHomography(vals []float64) (*Homography, error) {
	if len(vals) != 9 {
		return nil, errors.Errorf("input to NewHomography must have length of 9. Has length of %d", len(vals))
	}
	data := make([]float64, 9)
	copy(data, vals)
	return &Homography{mat.NewDense(3, 3, data)}, nil
}

func newHomographyFromMatrix(m mat.Matrix) *Homography {
	return &Homography{mat.DenseCopyOf(m)}
}

// At returns the value of the homography at the given index.
func (h *Homography) At(row, col int) float64 {
	return h.matrix.At(row, col)
}

// Dense returns a copy of the homography as a gonum matrix.
func (h *Homography) Dense() *mat.Dense {
	return mat.DenseCopyOf(h.matrix)
}

// Apply maps a point through the homography and renormalizes the homogeneous coordinate.
func (h *Homography) Apply(pt r2.Point) (r2.Point, error) {
	x := h.At(0, 0)*pt.X + h.At(0, 1)*pt.Y + h.At(0, 2)
	y := h.At(1, 0)*pt.X + h.At(1, 1)*pt.Y + h.At(1, 2)
	w := h.At(2, 0)*pt.X + h.At(2, 1)*pt.Y + h.At(2, 2)
	if math.Abs(w) < ProjectionTolerance {
		return r2.Point{}, errors.Wrapf(ErrDegenerateProjection, "point (%v, %v) has homogeneous weight %g", pt.X, pt.Y, w)
	}
	return r2.Point{X: x / w, Y: y / w}, nil
}

// IsSingular reports whether the homography is singular once scaled to unit Frobenius norm.
func (h *Homography) IsSingular() bool {
	norm := mat.Norm(h.matrix, 2)
	if norm == 0 || math.IsNaN(norm) {
		return true
	}
	return math.Abs(mat.Det(h.matrix))/(norm*norm*norm) < SingularityTolerance
}

// Inverse returns the inverse homography.
func (h *Homography) Inverse() (*Homography, error) {
	if h.IsSingular() {
		return nil, errors.Wrapf(ErrSingularHomography, "determinant %g", mat.Det(h.matrix))
	}
	var inv mat.Dense
	if err := inv.Inverse(h.matrix); err != nil {
		return nil, errors.Wrap(ErrSingularHomography, err.Error())
	}
	return &Homography{&inv}, nil
}

// Mul returns h·other, the homography applying other first.
func (h *Homography) Mul(other *Homography) *Homography {
	var out mat.Dense
	out.Mul(h.matrix, other.matrix)
	return &Homography{&out}
}

// PlanarPoseMatrix drops the third rotation column of T, giving the 3x3 matrix [r1 r2 t] that maps
// pattern-plane points (X, Y, 1) with Z=0 into camera coordinates.
func PlanarPoseMatrix(cameraFromPattern spatialmath.RigidTransform) *mat.Dense {
	c1 := cameraFromPattern.Rotation.Col(0)
	c2 := cameraFromPattern.Rotation.Col(1)
	t := cameraFromPattern.Translation
	return mat.NewDense(3, 3, []float64{
		c1.X, c2.X, t.X,
		c1.Y, c2.Y, t.Y,
		c1.Z, c2.Z, t.Z,
	})
}

// NewSensorHomography returns H = K·[r1 r2 t], mapping pattern-plane points to undistorted pixels.
func NewSensorHomography(intrinsics *PinholeCameraIntrinsics, cameraFromPattern spatialmath.RigidTransform) *Homography {
	var h mat.Dense
	h.Mul(intrinsics.GetCameraMatrix(), PlanarPoseMatrix(cameraFromPattern))
	return &Homography{&h}
}

// CrossSensorHomography returns target·source⁻¹, mapping undistorted source pixels to undistorted
// target pixels through the pattern plane.
func CrossSensorHomography(target, source *Homography) (*Homography, error) {
	inv, err := source.Inverse()
	if err != nil {
		return nil, errors.Wrap(err, "cannot invert source homography")
	}
	return target.Mul(inv), nil
}
