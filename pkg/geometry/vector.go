package geometry

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrEmptyInput is returned by [Centroid] when called without points.
	ErrEmptyInput = errors.New("empty input: at least one point is required")

	// ErrInsufficientPoints is returned by [PlaneNormal] when fewer than three
	// points are given. Two points do not define a plane.
	ErrInsufficientPoints = errors.New("insufficient points: a plane needs at least 3")
)

// Tolerance is the length below which a vector is treated as zero.
const Tolerance = 1e-8

// Centroid returns the arithmetic mean of points.
func Centroid(points ...r3.Vec) (r3.Vec, error) {
	if len(points) == 0 {
		return r3.Vec{}, ErrEmptyInput
	}
	var sum r3.Vec
	for _, p := range points {
		sum = r3.Add(sum, p)
	}
	return r3.Scale(1/float64(len(points)), sum), nil
}

// MustCentroid is like [Centroid] but panics on empty input.
// It is meant for call sites that have already checked the length.
func MustCentroid(points ...r3.Vec) r3.Vec {
	c, err := Centroid(points...)
	if err != nil {
		panic(err)
	}
	return c
}

// Normalize returns v scaled to unit length.
// The result has NaN components when v is the zero vector.
func Normalize(v r3.Vec) r3.Vec {
	return r3.Unit(v)
}

// IsZero reports whether v is shorter than [Tolerance].
func IsZero(v r3.Vec) bool {
	return r3.Norm(v) < Tolerance
}

// Angle returns the unsigned angle between a and b in [0, π].
// The cosine is clamped to [-1, 1] so rounding never leaves the domain of acos.
func Angle(a, b r3.Vec) float64 {
	cos := r3.Dot(a, b) / (r3.Norm(a) * r3.Norm(b))
	return math.Acos(clamp(cos, -1, 1))
}

// SignedAngleAbout returns the angle by which start must be rotated about
// axis so that its projection onto the plane orthogonal to axis points along
// the projection of target. The result lies in (-π, π]. It is zero when either
// projection vanishes.
func SignedAngleAbout(start, target, axis r3.Vec) float64 {
	n := Normalize(axis)
	s := reject(start, n)
	t := reject(target, n)
	if IsZero(s) || IsZero(t) {
		return 0
	}
	return math.Atan2(r3.Dot(n, r3.Cross(s, t)), r3.Dot(s, t))
}

// Orthogonal returns a unit vector perpendicular to v.
func Orthogonal(v r3.Vec) r3.Vec {
	o := r3.Cross(v, r3.Vec{X: 1})
	if IsZero(o) {
		o = r3.Cross(v, r3.Vec{Y: 1})
	}
	return Normalize(o)
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// reject removes the component of v along the unit vector n.
func reject(v, n r3.Vec) r3.Vec {
	return r3.Sub(v, r3.Scale(r3.Dot(v, n), n))
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
