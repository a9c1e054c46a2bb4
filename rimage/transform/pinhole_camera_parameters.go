package transform

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/calibeval/spatialmath"
)

// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// ErrNoPoints is returned when a point operation is given an empty input.
var ErrNoPoints = errors.New("no points supplied")

// NewNoIntrinsicsError is used when the intriniscs are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}

// PinholeCameraIntrinsics holds the parameters necessary to do a perspective projection of a 3D scene to the 2D plane.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if params.Width == 0 || params.Height == 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if params.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", params.Fy))
	}
	if params.Ppx < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Ppx = %#v", params.Ppx))
	}
	if params.Ppy < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Ppy = %#v", params.Ppy))
	}
	return nil
}

// NewPinholeCameraIntrinsicsFromMatrix reads fx, fy, ppx and ppy out of a row-major 3x3 camera matrix.
// A non-zero skew term is rejected.
func NewPinholeCameraIntrinsicsFromMatrix(k []float64, width, height int) (*PinholeCameraIntrinsics, error) {
	if len(k) != 9 {
		return nil, NewNoIntrinsicsError(fmt.Sprintf("camera matrix must have 9 elements, got %d", len(k)))
	}
	if k[1] != 0 {
		return nil, NewNoIntrinsicsError(fmt.Sprintf("skewed camera matrices are not supported, skew = %v", k[1]))
	}
	params := &PinholeCameraIntrinsics{Width: width, Height: height, Fx: k[0], Fy: k[4], Ppx: k[2], Ppy: k[5]}
	if err := params.CheckValid(); err != nil {
		return nil, err
	}
	return params, nil
}

// GetCameraMatrix creates a new camera matrix and returns it.
// Camera matrix:
// [[fx 0 ppx],
//
//	[0 fy ppy],
//	[0 0  1]]
func (params *PinholeCameraIntrinsics) GetCameraMatrix() *mat.Dense {
	if params == nil {
		return nil
	}
	cameraMatrix := mat.NewDense(3, 3, nil)
	cameraMatrix.Set(0, 0, params.Fx)
	cameraMatrix.Set(1, 1, params.Fy)
	cameraMatrix.Set(0, 2, params.Ppx)
	cameraMatrix.Set(1, 2, params.Ppy)
	cameraMatrix.Set(2, 2, 1)
	return cameraMatrix
}

// PixelToNormalized maps a pixel to normalized image coordinates (x/z, y/z).
func (params *PinholeCameraIntrinsics) PixelToNormalized(pt r2.Point) r2.Point {
	return r2.Point{X: (pt.X - params.Ppx) / params.Fx, Y: (pt.Y - params.Ppy) / params.Fy}
}

// NormalizedToPixel maps normalized image coordinates to a pixel.
func (params *PinholeCameraIntrinsics) NormalizedToPixel(pt r2.Point) r2.Point {
	return r2.Point{X: pt.X*params.Fx + params.Ppx, Y: pt.Y*params.Fy + params.Ppy}
}

// PinholeCameraModel is the model of a pinhole camera.
type PinholeCameraModel struct {
	*PinholeCameraIntrinsics `json:"intrinsic_parameters"`
	Distortion               Distorter `json:"distortion"`
}

// NewPinholeCameraModel validates and pairs intrinsics with a distortion model. A nil distortion
// means an ideal lens.
func NewPinholeCameraModel(intrinsics *PinholeCameraIntrinsics, distortion Distorter) (*PinholeCameraModel, error) {
	if err := intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	if distortion != nil {
		if err := distortion.CheckValid(); err != nil {
			return nil, err
		}
	}
	return &PinholeCameraModel{PinholeCameraIntrinsics: intrinsics, Distortion: distortion}, nil
}

func (params *PinholeCameraModel) distort(x, y float64) (float64, float64) {
	if params.Distortion == nil {
		return x, y
	}
	return params.Distortion.Transform(x, y)
}

// DistortPoints applies the forward distortion model to undistorted pixels.
func (params *PinholeCameraModel) DistortPoints(points []r2.Point) []r2.Point {
	out := make([]r2.Point, len(points))
	for i, pt := range points {
		n := params.PixelToNormalized(pt)
		n.X, n.Y = params.distort(n.X, n.Y)
		out[i] = params.NormalizedToPixel(n)
	}
	return out
}

// UndistortNormalizedPoints removes lens distortion from pixels and returns them in normalized
// image coordinates.
func (params *PinholeCameraModel) UndistortNormalizedPoints(points []r2.Point) ([]r2.Point, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	var inverse Distorter
	if params.Distortion != nil {
		invertible, ok := params.Distortion.(InvertibleDistorter)
		if !ok {
			return nil, errors.Errorf("distortion model %q cannot be inverted", params.Distortion.ModelType())
		}
		inverse = invertible.Inverse()
	}
	out := make([]r2.Point, len(points))
	for i, pt := range points {
		n := params.PixelToNormalized(pt)
		if inverse != nil {
			n.X, n.Y = inverse.Transform(n.X, n.Y)
		}
		out[i] = n
	}
	return out, nil
}

// UndistortPoints removes lens distortion from pixels, keeping them in pixel units.
func (params *PinholeCameraModel) UndistortPoints(points []r2.Point) ([]r2.Point, error) {
	normalized, err := params.UndistortNormalizedPoints(points)
	if err != nil {
		return nil, err
	}
	for i, n := range normalized {
		normalized[i] = params.NormalizedToPixel(n)
	}
	return normalized, nil
}

// ProjectPoints projects points given in an object frame into distorted pixels. cameraFromObject
// is T_camera_object. Points behind the camera are projected anyway.
func (params *PinholeCameraModel) ProjectPoints(points []r3.Vector, cameraFromObject spatialmath.RigidTransform) []r2.Point {
	out := make([]r2.Point, len(points))
	for i, p := range points {
		pc := cameraFromObject.Apply(p)
		x, y := params.distort(pc.X/pc.Z, pc.Y/pc.Z)
		out[i] = params.NormalizedToPixel(r2.Point{X: x, Y: y})
	}
	return out
}
