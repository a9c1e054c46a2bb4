package transform

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// eye create an identity matrix of size nxn.
func eye(n int) *mat.Dense {
	if n <= 0 {
		return nil
	}
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// matsSVD stores the matrices and singular values from an SVD decomposition.
type matsSVD struct {
	U      *mat.Dense
	V      *mat.Dense
	Values []float64
}

// performSVD performs a full SVD on inputMatrix. Singular values are sorted in decreasing order.
func performSVD(inputMatrix mat.Matrix) (*matsSVD, error) {
	var svd mat.SVD
	if ok := svd.Factorize(inputMatrix, mat.SVDFull); !ok {
		return nil, errors.New("failed to factorize matrix")
	}
	u, v := &mat.Dense{}, &mat.Dense{}
	svd.UTo(u)
	svd.VTo(v)
	return &matsSVD{U: u, V: v, Values: svd.Values(nil)}, nil
}

// nullVector returns the right singular vector associated with the smallest singular value,
// i.e. the least-squares solution of A·x = 0 with |x| = 1. It fails when that solution is not
// unique: the second smallest singular value is below tol relative to the largest.
func nullVector(a mat.Matrix, tol float64) ([]float64, error) {
	mats, err := performSVD(a)
	if err != nil {
		return nil, err
	}
	_, cols := a.Dims()
	vals := mats.Values
	if len(vals) < cols-1 {
		return nil, errors.Errorf("need at least %d equations, got %d", cols-1, len(vals))
	}
	// Values has min(rows, cols) entries; with fewer rows than columns the null space value is an implicit 0.
	secondSmallest := vals[cols-2]
	if vals[0] == 0 || secondSmallest/vals[0] < tol {
		return nil, errors.Errorf("null space is not unique (singular value ratio %g)", secondSmallest/vals[0])
	}
	return mat.Col(nil, cols-1, mats.V), nil
}

// normalizePoints normalizes points as described in Multiple View Geometry, Alg 4.2: centroid at the
// origin and mean distance √2. It returns the normalized points and the 3x3 similarity applied.
func normalizePoints(pts []r2.Point) ([]r2.Point, *mat.Dense, error) {
	nPoints := len(pts)
	// compute centroid of points
	mu := r2.Point{X: 0, Y: 0}
	for _, pt := range pts {
		mu = mu.Add(pt)
	}
	mu = mu.Mul(1. / float64(nPoints))
	// compute scale factor
	d := 0.0
	for _, pt := range pts {
		d += pt.Sub(mu).Norm() / float64(nPoints)
	}
	if d == 0 || math.IsNaN(d) {
		return nil, nil, errors.New("points are coincident")
	}
	scale := math.Sqrt(2) / d
	transformData := []float64{
		scale, 0, -scale * mu.X,
		0, scale, -scale * mu.Y,
		0, 0, 1,
	}
	T := mat.NewDense(3, 3, transformData)
	// apply transform to points
	pointsTransformed := make([]r2.Point, nPoints)
	for i := range pointsTransformed {
		pointsTransformed[i] = pts[i].Sub(mu).Mul(scale)
	}
	return pointsTransformed, T, nil
}
