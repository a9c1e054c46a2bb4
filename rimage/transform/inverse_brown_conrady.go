package transform

// InverseBrownConrady applies the inverse of the Brown-Conrady distortion model.
// Given distorted points, it computes the corresponding undistorted points using
// an iterative Newton-Raphson method. Its fields are the coefficients of the forward
// model being inverted.
type InverseBrownConrady BrownConrady

const (
	// UndistortMaxIterations bounds the Newton-Raphson iterations of InverseBrownConrady.Transform.
	UndistortMaxIterations = 20
	// UndistortTolerance is the residual, in normalized coordinates, at which Newton-Raphson stops.
	UndistortTolerance = 1e-10
)

// CheckValid checks if the fields for InverseBrownConrady have valid inputs.
func (ibc *InverseBrownConrady) CheckValid() error {
	if ibc == nil {
		return InvalidDistortionError("InverseBrownConrady shaped distortion_parameters not provided")
	}
	return nil
}

// NewInverseBrownConrady takes in a slice of floats that will be passed into the struct in order.
func NewInverseBrownConrady(inp []float64) (*InverseBrownConrady, error) {
	bc, err := NewBrownConrady(inp)
	if err != nil {
		return nil, err
	}
	ibc := InverseBrownConrady(*bc)
	return &ibc, nil
}

// ModelType returns the type of distortion model.
func (ibc *InverseBrownConrady) ModelType() DistortionType {
	return InverseBrownConradyDistortionType
}

// Parameters returns the parameters of the distortion model as a list of floats.
func (ibc *InverseBrownConrady) Parameters() []float64 {
	return (*BrownConrady)(ibc).Parameters()
}

// Inverse returns the forward model.
func (ibc *InverseBrownConrady) Inverse() Distorter {
	return (*BrownConrady)(ibc)
}

// Transform applies the inverse Brown-Conrady distortion to convert distorted points
// to undistorted points. It uses an iterative Newton-Raphson method to find the
// undistorted coordinates that would produce the given distorted coordinates.
// Points far outside the calibrated field of view may not converge; no guard is applied
// and the last iterate (possibly NaN) is returned.
func (ibc *InverseBrownConrady) Transform(xd, yd float64) (float64, float64) {
	if ibc == nil {
		return xd, yd
	}
	forward := (*BrownConrady)(ibc)

	// Start with the distorted point as initial guess
	xu, yu := xd, yd

	for i := 0; i < UndistortMaxIterations; i++ {
		xdEst, ydEst := forward.Transform(xu, yu)
		errX := xdEst - xd
		errY := ydEst - yd
		if errX*errX+errY*errY < UndistortTolerance*UndistortTolerance {
			break
		}

		// Jacobian of the forward distortion function
		// J = [[dxd/dxu, dxd/dyu], [dyd/dxu, dyd/dyu]]
		r2 := xu*xu + yu*yu
		r4 := r2 * r2
		radDist := 1.0 + ibc.RadialK1*r2 + ibc.RadialK2*r4 + ibc.RadialK3*r4*r2
		dRad := ibc.RadialK1 + 2.0*ibc.RadialK2*r2 + 3.0*ibc.RadialK3*r4
		dRadDistDxu := 2.0 * xu * dRad
		dRadDistDyu := 2.0 * yu * dRad

		dxdDxu := radDist + xu*dRadDistDxu + 2.0*ibc.TangentialP1*yu + 6.0*ibc.TangentialP2*xu
		dxdDyu := xu*dRadDistDyu + 2.0*ibc.TangentialP1*xu + 2.0*ibc.TangentialP2*yu
		dydDxu := yu*dRadDistDxu + 2.0*ibc.TangentialP2*yu + 2.0*ibc.TangentialP1*xu
		dydDyu := radDist + yu*dRadDistDyu + 2.0*ibc.TangentialP2*xu + 6.0*ibc.TangentialP1*yu

		det := dxdDxu*dydDyu - dxdDyu*dydDxu
		if det == 0 {
			break
		}

		// Update: [xu, yu] -= J^-1 * [errX, errY]
		xu -= (dydDyu*errX - dxdDyu*errY) / det
		yu -= (-dydDxu*errX + dxdDxu*errY) / det
	}

	return xu, yu
}
