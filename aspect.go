package rhkstm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PrincipalAxes returns the eigenvalues and eigenvectors (as columns) of the
// 2x2 sample covariance matrix of the points (x[i], y[i]).
func PrincipalAxes(x, y []float64) ([]float64, *mat.Dense, error) {
	if len(x) != len(y) {
		return nil, nil, fmt.Errorf("coordinate lengths differ: %d x values, %d y values", len(x), len(y))
	}
	if len(x) < 2 {
		return nil, nil, fmt.Errorf("need at least 2 points for a covariance, got %d", len(x))
	}
	points := mat.NewDense(len(x), 2, nil)
	points.SetCol(0, x)
	points.SetCol(1, y)

	cov := mat.NewSymDense(2, nil)
	stat.CovarianceMatrix(cov, points, nil)

	var eig mat.EigenSym
	if ok := eig.Factorize(cov, true); !ok {
		return nil, nil, fmt.Errorf("eigen-decomposition of the coordinate covariance failed")
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	return eig.Values(nil), &vecs, nil
}

// AspectRatio returns the ratio of the major to the minor eigenvalue magnitude
// of the covariance of the points (x[i], y[i]). Points spread evenly in the
// plane give a ratio near 1; points along a line give a very large ratio, and
// exactly collinear points give +Inf.
func AspectRatio(x, y []float64) (float64, error) {
	vals, _, err := PrincipalAxes(x, y)
	if err != nil {
		return 0, err
	}
	major := math.Max(math.Abs(vals[0]), math.Abs(vals[1]))
	minor := math.Min(math.Abs(vals[0]), math.Abs(vals[1]))
	return major / minor, nil
}
