package evaluation

import (
	"go.viam.com/calibeval/spatialmath"
	"go.viam.com/calibeval/utils"
)

// PoseError compares two estimates of the same pattern pose, each expressed in a common reference
// frame (T_ref_pattern). It returns the translation error in millimetres and the rotation error in
// degrees of source⁻¹·target.
func PoseError(source, target spatialmath.RigidTransform) (float64, float64) {
	delta := spatialmath.PoseBetween(source, target)
	transMM := delta.Translation.Norm() * utils.MetersToMillimeters
	rotDeg := utils.RadToDeg(delta.Rotation.AxisAngles().Theta)
	return transMM, rotDeg
}
