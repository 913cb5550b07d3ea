package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// PlaneNormal returns the unit normal of the plane that best fits points.
//
// The points are centered on their centroid and factorized with a thin SVD;
// the right singular vector of the smallest singular value is the normal.
// The sign of the result is arbitrary, use [Outward] to fix it.
func PlaneNormal(points []r3.Vec) (r3.Vec, error) {
	if len(points) < 3 {
		return r3.Vec{}, fmt.Errorf("%w: got %d", ErrInsufficientPoints, len(points))
	}
	c := MustCentroid(points...)

	a := mat.NewDense(len(points), 3, nil)
	for i, p := range points {
		d := r3.Sub(p, c)
		a.SetRow(i, []float64{d.X, d.Y, d.Z})
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return r3.Vec{}, fmt.Errorf("plane fit: SVD factorization failed")
	}
	var v mat.Dense
	svd.VTo(&v)

	n := r3.Vec{X: v.At(0, 2), Y: v.At(1, 2), Z: v.At(2, 2)}
	return Normalize(n), nil
}

// Outward flips normal when its angle to ref exceeds π/2.
// A zero reference leaves the normal unchanged.
func Outward(normal, ref r3.Vec) r3.Vec {
	if IsZero(ref) {
		return normal
	}
	if Angle(normal, ref) > math.Pi/2 {
		return r3.Scale(-1, normal)
	}
	return normal
}

// PrincipalAxis returns the unit direction of greatest variance of points,
// the right singular vector of the largest singular value.
func PrincipalAxis(points []r3.Vec) (r3.Vec, error) {
	if len(points) < 2 {
		return r3.Vec{}, fmt.Errorf("%w: direction needs at least 2, got %d", ErrInsufficientPoints, len(points))
	}
	c := MustCentroid(points...)

	a := mat.NewDense(len(points), 3, nil)
	for i, p := range points {
		d := r3.Sub(p, c)
		a.SetRow(i, []float64{d.X, d.Y, d.Z})
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return r3.Vec{}, fmt.Errorf("principal axis: SVD factorization failed")
	}
	var v mat.Dense
	svd.VTo(&v)
	return Normalize(r3.Vec{X: v.At(0, 0), Y: v.At(1, 0), Z: v.At(2, 0)}), nil
}
