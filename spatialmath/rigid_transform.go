package spatialmath

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/calibeval/utils"
)

// RigidTransform is a rotation followed by a translation. A transform named T_a_b maps
// coordinates expressed in frame b into frame a: p_a = R·p_b + t.
type RigidTransform struct {
	Rotation    RotationMatrix
	Translation r3.Vector
}

// NewZeroTransform returns the identity transform.
func NewZeroTransform() RigidTransform {
	return RigidTransform{Rotation: *NewIdentityRotationMatrix()}
}

// NewRigidTransform builds a transform from a rotation and a translation.
func NewRigidTransform(rot *RotationMatrix, translation r3.Vector) RigidTransform {
	if rot == nil {
		rot = NewIdentityRotationMatrix()
	}
	return RigidTransform{Rotation: *rot, Translation: translation}
}

// NewRigidTransformFromRodrigues builds a transform from a Rodrigues rotation vector and a translation.
func NewRigidTransformFromRodrigues(rvec, translation r3.Vector) RigidTransform {
	return NewRigidTransform(R3ToR4(rvec).RotationMatrix(), translation)
}

// NewRigidTransformFromMatrix reads a 4x4 homogeneous matrix. The bottom row must be [0 0 0 1]
// and the rotation block is projected to the nearest rotation.
func NewRigidTransformFromMatrix(m mat.Matrix) (RigidTransform, error) {
	if r, c := m.Dims(); r != 4 || c != 4 {
		return RigidTransform{}, errors.Errorf("expected a 4x4 homogeneous matrix, got %dx%d", r, c)
	}
	const eps = 1e-9
	for j, want := range []float64{0, 0, 0, 1} {
		if !utils.Float64AlmostEqual(m.At(3, j), want, eps) {
			return RigidTransform{}, errors.Errorf("bottom row of homogeneous matrix must be [0 0 0 1], got %v at column %d", m.At(3, j), j)
		}
	}
	rot, err := NearestRotationMatrix(mat.DenseCopyOf(m).Slice(0, 3, 0, 3))
	if err != nil {
		return RigidTransform{}, err
	}
	return NewRigidTransform(rot, r3.Vector{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)}), nil
}

// Apply maps a point from the child frame into the parent frame.
func (rt RigidTransform) Apply(p r3.Vector) r3.Vector {
	return rt.Rotation.Apply(p).Add(rt.Translation)
}

// Inverse returns the transform mapping the other way.
func (rt RigidTransform) Inverse() RigidTransform {
	rotT := rt.Rotation.Transpose()
	return RigidTransform{Rotation: *rotT, Translation: rotT.Apply(rt.Translation).Mul(-1)}
}

// Matrix returns the 4x4 homogeneous matrix.
func (rt RigidTransform) Matrix() *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, rt.Rotation.At(i, j))
		}
	}
	m.Set(0, 3, rt.Translation.X)
	m.Set(1, 3, rt.Translation.Y)
	m.Set(2, 3, rt.Translation.Z)
	m.Set(3, 3, 1)
	return m
}

// Compose returns a·b, i.e. T_x_z = Compose(T_x_y, T_y_z).
func Compose(a, b RigidTransform) RigidTransform {
	return RigidTransform{
		Rotation:    *a.Rotation.Mul(&b.Rotation),
		Translation: a.Rotation.Apply(b.Translation).Add(a.Translation),
	}
}

// PoseBetween returns the transform delta such that Compose(a, delta) == b, i.e. a⁻¹·b.
func PoseBetween(a, b RigidTransform) RigidTransform {
	return Compose(a.Inverse(), b)
}

// TransformAlmostEqual reports whether two transforms match within a translation tolerance (same
// units as the translation) and a rotation tolerance in radians.
func TransformAlmostEqual(a, b RigidTransform, translationTol, rotationTol float64) bool {
	delta := PoseBetween(a, b)
	return delta.Translation.Norm() <= translationTol && delta.Rotation.AxisAngles().Theta <= rotationTol
}
