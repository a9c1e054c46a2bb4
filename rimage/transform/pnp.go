package transform

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"go.viam.com/calibeval/spatialmath"
	"go.viam.com/calibeval/utils"
)

const (
	// MinCorrespondences is the smallest number of 2D-3D pairs SolvePnP accepts.
	MinCorrespondences = 4
	// MinNonPlanarCorrespondences is the number of pairs needed when the object points are not coplanar.
	MinNonPlanarCorrespondences = 6
	// CollinearityTolerance is the ratio of the second to the first singular value of the centered
	// object points below which they are considered collinear.
	CollinearityTolerance = 1e-9
	// PlanarityTolerance is the ratio of the third to the first singular value of the centered
	// object points below which they are considered coplanar.
	PlanarityTolerance = 1e-6

	nullSpaceTolerance = 1e-10
	refineIterations   = 200
)

var (
	// ErrInsufficientCorrespondences is returned when too few or mismatched 2D-3D pairs are given.
	ErrInsufficientCorrespondences = errors.New("insufficient correspondences")
	// ErrDegenerateGeometry is returned when the correspondences do not determine a unique pose.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)

// SolvePnP estimates T_camera_object, the pose of the object frame in the camera frame, from
// object points and their distorted pixel detections. The estimate comes from a DLT and is then
// refined by minimizing the squared pixel reprojection error.
func SolvePnP(objectPoints []r3.Vector, imagePoints []r2.Point, model *PinholeCameraModel) (spatialmath.RigidTransform, error) {
	if len(objectPoints) != len(imagePoints) {
		return spatialmath.RigidTransform{}, errors.Wrapf(ErrInsufficientCorrespondences,
			"%d object points but %d image points", len(objectPoints), len(imagePoints))
	}
	if len(objectPoints) < MinCorrespondences {
		return spatialmath.RigidTransform{}, errors.Wrapf(ErrInsufficientCorrespondences,
			"need at least %d correspondences, got %d", MinCorrespondences, len(objectPoints))
	}
	if model == nil {
		return spatialmath.RigidTransform{}, NewNoIntrinsicsError("camera model is nil")
	}
	normalized, err := model.UndistortNormalizedPoints(imagePoints)
	if err != nil {
		return spatialmath.RigidTransform{}, err
	}

	shape, err := analyzeObjectPoints(objectPoints)
	if err != nil {
		return spatialmath.RigidTransform{}, err
	}
	var initial spatialmath.RigidTransform
	if shape.planar {
		initial, err = planarPose(objectPoints, normalized, shape)
	} else {
		if len(objectPoints) < MinNonPlanarCorrespondences {
			return spatialmath.RigidTransform{}, errors.Wrapf(ErrInsufficientCorrespondences,
				"non-planar object needs at least %d correspondences, got %d", MinNonPlanarCorrespondences, len(objectPoints))
		}
		initial, err = nonPlanarPose(objectPoints, normalized)
	}
	if err != nil {
		return spatialmath.RigidTransform{}, err
	}
	if !transformIsFinite(initial) {
		return spatialmath.RigidTransform{}, errors.Wrap(ErrDegenerateGeometry, "initial pose estimate is not finite")
	}

	refined := refinePose(objectPoints, imagePoints, model, initial)
	if !transformIsFinite(refined) {
		return spatialmath.RigidTransform{}, errors.Wrap(ErrDegenerateGeometry, "refined pose is not finite")
	}
	return refined, nil
}

// ReprojectionError returns the sum of squared pixel distances between the detections and the
// projection of the object points through cameraFromObject. Both slices must have the same length.
func ReprojectionError(objectPoints []r3.Vector, imagePoints []r2.Point, model *PinholeCameraModel,
	cameraFromObject spatialmath.RigidTransform,
) float64 {
	projected := model.ProjectPoints(objectPoints, cameraFromObject)
	sum := 0.
	for i, p := range projected {
		d := p.Sub(imagePoints[i])
		sum += d.Dot(d)
	}
	return sum
}

type objectShape struct {
	planar   bool
	centroid r3.Vector
	// planeFromObject maps object coordinates into a frame whose XY plane holds the points.
	planeFromObject spatialmath.RigidTransform
}

func analyzeObjectPoints(pts []r3.Vector) (*objectShape, error) {
	centroid := r3.Vector{}
	for _, p := range pts {
		centroid = centroid.Add(p)
	}
	centroid = centroid.Mul(1 / float64(len(pts)))
	centered := mat.NewDense(len(pts), 3, nil)
	for i, p := range pts {
		d := p.Sub(centroid)
		centered.SetRow(i, []float64{d.X, d.Y, d.Z})
	}
	mats, err := performSVD(centered)
	if err != nil {
		return nil, errors.Wrap(ErrDegenerateGeometry, err.Error())
	}
	s := mats.Values
	if s[0] == 0 || s[1]/s[0] < CollinearityTolerance {
		return nil, errors.Wrap(ErrDegenerateGeometry, "object points are collinear")
	}
	shape := &objectShape{centroid: centroid}
	if len(s) < 3 || s[2]/s[0] < PlanarityTolerance {
		shape.planar = true
		u := colVector(mats.V, 0)
		v := colVector(mats.V, 1)
		n := u.Cross(v)
		rot, err := spatialmath.NewRotationMatrix([]float64{
			u.X, u.Y, u.Z,
			v.X, v.Y, v.Z,
			n.X, n.Y, n.Z,
		})
		if err != nil {
			return nil, err
		}
		shape.planeFromObject = spatialmath.NewRigidTransform(rot, rot.Apply(centroid).Mul(-1))
	}
	return shape, nil
}

func colVector(m mat.Matrix, j int) r3.Vector {
	return r3.Vector{X: m.At(0, j), Y: m.At(1, j), Z: m.At(2, j)}
}

// planarPose decomposes the homography from plane coordinates to normalized image coordinates
// into [r1 r2 t] and keeps the branch with the object in front of the camera.
func planarPose(objectPoints []r3.Vector, normalized []r2.Point, shape *objectShape) (spatialmath.RigidTransform, error) {
	planePts := make([]r2.Point, len(objectPoints))
	for i, p := range objectPoints {
		q := shape.planeFromObject.Apply(p)
		planePts[i] = r2.Point{X: q.X, Y: q.Y}
	}
	h, err := EstimateHomography(planePts, normalized)
	if err != nil {
		return spatialmath.RigidTransform{}, err
	}
	h1 := colVector(h.matrix, 0)
	h2 := colVector(h.matrix, 1)
	h3 := colVector(h.matrix, 2)
	denom := h1.Norm() + h2.Norm()
	if denom == 0 {
		return spatialmath.RigidTransform{}, errors.Wrap(ErrDegenerateGeometry, "homography has zero rotation columns")
	}
	lambda := 2 / denom
	if h3.Z < 0 {
		lambda = -lambda
	}
	c1 := h1.Mul(lambda)
	c2 := h2.Mul(lambda)
	c3 := c1.Cross(c2)
	t := h3.Mul(lambda)
	approx := mat.NewDense(3, 3, []float64{
		c1.X, c2.X, c3.X,
		c1.Y, c2.Y, c3.Y,
		c1.Z, c2.Z, c3.Z,
	})
	rot, err := spatialmath.NearestRotationMatrix(approx)
	if err != nil {
		return spatialmath.RigidTransform{}, errors.Wrap(ErrDegenerateGeometry, err.Error())
	}
	cameraFromPlane := spatialmath.NewRigidTransform(rot, t)
	return spatialmath.Compose(cameraFromPlane, shape.planeFromObject), nil
}

// nonPlanarPose runs the 3x4 DLT on normalized image coordinates and extracts [R|t].
func nonPlanarPose(objectPoints []r3.Vector, normalized []r2.Point) (spatialmath.RigidTransform, error) {
	imgPts, imgT, err := normalizePoints(normalized)
	if err != nil {
		return spatialmath.RigidTransform{}, errors.Wrap(ErrDegenerateGeometry, err.Error())
	}
	objPts, objT := normalizeObjectPoints(objectPoints)

	n := len(objectPoints)
	a := mat.NewDense(2*n, 12, nil)
	for i := 0; i < n; i++ {
		x := []float64{objPts[i].X, objPts[i].Y, objPts[i].Z, 1}
		u, v := imgPts[i].X, imgPts[i].Y
		for j := 0; j < 4; j++ {
			a.Set(2*i, j, x[j])
			a.Set(2*i, 8+j, -u*x[j])
			a.Set(2*i+1, 4+j, x[j])
			a.Set(2*i+1, 8+j, -v*x[j])
		}
	}
	p, err := nullVector(a, nullSpaceTolerance)
	if err != nil {
		return spatialmath.RigidTransform{}, errors.Wrap(ErrDegenerateGeometry, err.Error())
	}
	var imgTInv, tmp, proj mat.Dense
	if err := imgTInv.Inverse(imgT); err != nil {
		return spatialmath.RigidTransform{}, errors.Wrap(ErrDegenerateGeometry, err.Error())
	}
	tmp.Mul(&imgTInv, mat.NewDense(3, 4, p))
	proj.Mul(&tmp, objT)

	m := mat.DenseCopyOf(proj.Slice(0, 3, 0, 3))
	det := mat.Det(m)
	if det == 0 || !utils.IsFinite(det) {
		return spatialmath.RigidTransform{}, errors.Wrap(ErrDegenerateGeometry, "projection matrix has a singular rotation block")
	}
	// the overall sign of the null vector is arbitrary
	if det < 0 {
		proj.Scale(-1, &proj)
		m.Scale(-1, m)
		det = -det
	}
	scale := math.Cbrt(det)
	rot, err := spatialmath.NearestRotationMatrix(m)
	if err != nil {
		return spatialmath.RigidTransform{}, errors.Wrap(ErrDegenerateGeometry, err.Error())
	}
	t := r3.Vector{X: proj.At(0, 3), Y: proj.At(1, 3), Z: proj.At(2, 3)}.Mul(1 / scale)
	return spatialmath.NewRigidTransform(rot, t), nil
}

// normalizeObjectPoints centers 3D points and scales them to a mean distance of √3. It returns the
// 4x4 similarity applied.
func normalizeObjectPoints(pts []r3.Vector) ([]r3.Vector, *mat.Dense) {
	mu := r3.Vector{}
	for _, p := range pts {
		mu = mu.Add(p)
	}
	mu = mu.Mul(1 / float64(len(pts)))
	d := 0.
	for _, p := range pts {
		d += p.Sub(mu).Norm() / float64(len(pts))
	}
	scale := 1.
	if d > 0 {
		scale = math.Sqrt(3) / d
	}
	out := make([]r3.Vector, len(pts))
	for i, p := range pts {
		out[i] = p.Sub(mu).Mul(scale)
	}
	t := mat.NewDense(4, 4, []float64{
		scale, 0, 0, -scale * mu.X,
		0, scale, 0, -scale * mu.Y,
		0, 0, scale, -scale * mu.Z,
		0, 0, 0, 1,
	})
	return out, t
}

// EstimateHomography fits the homography mapping src onto dst with the normalized DLT of
// Multiple View Geometry, Alg 4.2.
func EstimateHomography(src, dst []r2.Point) (*Homography, error) {
	if len(src) != len(dst) || len(src) < MinCorrespondences {
		return nil, errors.Wrapf(ErrInsufficientCorrespondences, "cannot fit a homography to %d and %d points", len(src), len(dst))
	}
	srcN, srcT, err := normalizePoints(src)
	if err != nil {
		return nil, errors.Wrap(ErrDegenerateGeometry, err.Error())
	}
	dstN, dstT, err := normalizePoints(dst)
	if err != nil {
		return nil, errors.Wrap(ErrDegenerateGeometry, err.Error())
	}
	n := len(src)
	a := mat.NewDense(2*n, 9, nil)
	for i := 0; i < n; i++ {
		x, y := srcN[i].X, srcN[i].Y
		u, v := dstN[i].X, dstN[i].Y
		a.SetRow(2*i, []float64{-x, -y, -1, 0, 0, 0, u * x, u * y, u})
		a.SetRow(2*i+1, []float64{0, 0, 0, -x, -y, -1, v * x, v * y, v})
	}
	h, err := nullVector(a, nullSpaceTolerance)
	if err != nil {
		return nil, errors.Wrap(ErrDegenerateGeometry, err.Error())
	}
	var dstTInv, tmp, out mat.Dense
	if err := dstTInv.Inverse(dstT); err != nil {
		return nil, errors.Wrap(ErrDegenerateGeometry, err.Error())
	}
	tmp.Mul(&dstTInv, mat.NewDense(3, 3, h))
	out.Mul(&tmp, srcT)
	return newHomographyFromMatrix(&out), nil
}

func poseToVector(t spatialmath.RigidTransform) []float64 {
	r := t.Rotation.Rodrigues()
	return []float64{r.X, r.Y, r.Z, t.Translation.X, t.Translation.Y, t.Translation.Z}
}

func vectorToPose(x []float64) spatialmath.RigidTransform {
	return spatialmath.NewRigidTransformFromRodrigues(
		r3.Vector{X: x[0], Y: x[1], Z: x[2]},
		r3.Vector{X: x[3], Y: x[4], Z: x[5]},
	)
}

// refinePose minimizes the reprojection error over [rvec, t] with BFGS. The initial pose is returned
// whenever the optimizer does not improve on it.
func refinePose(objectPoints []r3.Vector, imagePoints []r2.Point, model *PinholeCameraModel,
	initial spatialmath.RigidTransform,
) spatialmath.RigidTransform {
	cost := func(x []float64) float64 {
		return ReprojectionError(objectPoints, imagePoints, model, vectorToPose(x))
	}
	problem := optimize.Problem{
		Func: cost,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, cost, x, &fd.Settings{Formula: fd.Central})
		},
	}
	x0 := poseToVector(initial)
	f0 := cost(x0)
	if f0 == 0 || !utils.IsFinite(f0) {
		return initial
	}
	settings := &optimize.Settings{
		GradientThreshold: 1e-12,
		MajorIterations:   refineIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-16,
			Relative:   1e-12,
			Iterations: 20,
		},
	}
	// Line search failures still leave the best location seen in result.
	result, _ := optimize.Minimize(problem, x0, settings, &optimize.BFGS{})
	if result == nil || math.IsNaN(result.F) || result.F >= f0 {
		return initial
	}
	return vectorToPose(result.X)
}

func transformIsFinite(t spatialmath.RigidTransform) bool {
	r := t.Rotation
	return utils.IsFinite(r.Row(0).X, r.Row(0).Y, r.Row(0).Z, r.Row(1).X, r.Row(1).Y, r.Row(1).Z,
		r.Row(2).X, r.Row(2).Y, r.Row(2).Z, t.Translation.X, t.Translation.Y, t.Translation.Z)
}
