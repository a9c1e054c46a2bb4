package transform

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// TransferPoints maps distorted pixels detected by the source camera into distorted pixels of the
// target camera. Points are undistorted with srcModel, mapped through the cross-sensor homography
// hst and distorted again with dstModel. This is only exact for points lying on the plane that
// defined hst.
func TransferPoints(src []r2.Point, srcModel, dstModel *PinholeCameraModel, hst *Homography) ([]r2.Point, error) {
	if srcModel == nil || dstModel == nil {
		return nil, NewNoIntrinsicsError("source and target camera models are required")
	}
	if hst == nil {
		return nil, errors.New("no homography supplied")
	}
	undistorted, err := srcModel.UndistortPoints(src)
	if err != nil {
		return nil, errors.Wrap(err, "cannot undistort source points")
	}
	mapped := make([]r2.Point, len(undistorted))
	for i, pt := range undistorted {
		if mapped[i], err = hst.Apply(pt); err != nil {
			return nil, errors.Wrapf(err, "cannot transfer point %d", i)
		}
	}
	return dstModel.DistortPoints(mapped), nil
}
