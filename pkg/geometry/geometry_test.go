package geometry

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func randVec(rng *rand.Rand) r3.Vec {
	return r3.Vec{X: rng.Float64()*2 - 1, Y: rng.Float64()*2 - 1, Z: rng.Float64()*2 - 1}
}

func assertVecInDelta(t *testing.T, want, got r3.Vec, delta float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, delta, "x")
	assert.InDelta(t, want.Y, got.Y, delta, "y")
	assert.InDelta(t, want.Z, got.Z, delta, "z")
}

func TestCentroid(t *testing.T) {
	c, err := Centroid(r3.Vec{X: 1}, r3.Vec{Y: 2}, r3.Vec{Z: 3}, r3.Vec{X: -1, Y: -2, Z: -3})
	require.NoError(t, err)
	assertVecInDelta(t, r3.Vec{}, c, 1e-12)

	c, err = Centroid(r3.Vec{X: 2, Y: 4, Z: 6})
	require.NoError(t, err)
	assert.Equal(t, r3.Vec{X: 2, Y: 4, Z: 6}, c)
}

func TestCentroidEmpty(t *testing.T) {
	_, err := Centroid()
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Panics(t, func() { MustCentroid() })
}

func TestNormalize(t *testing.T) {
	n := Normalize(r3.Vec{X: 3, Y: 4})
	assert.InDelta(t, 1, r3.Norm(n), 1e-12)
	assertVecInDelta(t, r3.Vec{X: 0.6, Y: 0.8}, n, 1e-12)

	z := Normalize(r3.Vec{})
	assert.True(t, math.IsNaN(z.X), "zero vector normalizes to NaN")
}

func TestAngle(t *testing.T) {
	tests := []struct {
		name string
		a, b r3.Vec
		want float64
	}{
		{"orthogonal", r3.Vec{X: 1}, r3.Vec{Y: 2}, math.Pi / 2},
		{"parallel", r3.Vec{X: 0.1, Y: 0.2, Z: 0.3}, r3.Vec{X: 0.1, Y: 0.2, Z: 0.3}, 0},
		{"antiparallel", r3.Vec{Z: 1}, r3.Vec{Z: -5}, math.Pi},
		{"diagonal", r3.Vec{X: 1}, r3.Vec{X: 1, Y: 1}, math.Pi / 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Angle(tt.a, tt.b)
			assert.False(t, math.IsNaN(got))
			assert.InDelta(t, tt.want, got, 1e-7)
		})
	}
}

func TestPlaneNormal(t *testing.T) {
	points := []r3.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}
	n, err := PlaneNormal(points)
	require.NoError(t, err)
	assert.InDelta(t, 1, math.Abs(n.Z), 1e-10)
}

func TestPlaneNormalRandomPlanes(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		normal := Normalize(randVec(rng))
		points := make([]r3.Vec, 8)
		for j := range points {
			p := r3.Scale(10, randVec(rng))
			points[j] = reject(p, normal)
		}
		got, err := PlaneNormal(points)
		require.NoError(t, err)
		assert.InDelta(t, 1, math.Abs(r3.Dot(got, normal)), 1e-8)
	}
}

func TestPlaneNormalInsufficientPoints(t *testing.T) {
	_, err := PlaneNormal([]r3.Vec{{X: 1}, {Y: 1}})
	assert.ErrorIs(t, err, ErrInsufficientPoints)
}

func TestOutward(t *testing.T) {
	got := Outward(r3.Vec{Z: -1}, r3.Vec{X: 0.1, Z: 3})
	assert.Equal(t, r3.Vec{Z: 1}, got)

	got = Outward(r3.Vec{Z: -1}, r3.Vec{})
	assert.Equal(t, r3.Vec{Z: -1}, got, "zero reference keeps the normal")

	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 100; i++ {
		n := Normalize(randVec(rng))
		ref := randVec(rng)
		assert.LessOrEqual(t, Angle(Outward(n, ref), ref), math.Pi/2+1e-12)
	}
}

func TestRotationBetween(t *testing.T) {
	tests := []struct {
		name          string
		start, target r3.Vec
	}{
		{"general", r3.Vec{X: 1}, r3.Vec{Y: 1, Z: 1}},
		{"parallel", r3.Vec{X: 2, Y: 1}, r3.Vec{X: 4, Y: 2}},
		{"antiparallel", r3.Vec{X: 1}, r3.Vec{X: -3}},
		{"antiparallel z", r3.Vec{Z: 1}, r3.Vec{Z: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rot := RotationBetween(tt.start, tt.target)
			got := Normalize(rot.Rotate(tt.start))
			assertVecInDelta(t, Normalize(tt.target), got, 1e-10)
		})
	}
}

func TestRotationPreservesDistances(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	points := make([]r3.Vec, 6)
	for i := range points {
		points[i] = r3.Scale(5, randVec(rng))
	}
	origin := r3.Vec{X: 1, Y: -2, Z: 0.5}
	rot := RotationAbout(1.234, r3.Vec{X: 1, Y: 1})

	rotated := make([]r3.Vec, len(points))
	for i, p := range points {
		rotated[i] = Rotate(rot, p, origin)
	}
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			assert.InDelta(t, Distance(points[i], points[j]), Distance(rotated[i], rotated[j]), 1e-10)
		}
	}
}

func TestSignedAngleAbout(t *testing.T) {
	axis := r3.Vec{Z: 1}
	assert.InDelta(t, math.Pi/2, SignedAngleAbout(r3.Vec{X: 1}, r3.Vec{Y: 1}, axis), 1e-12)
	assert.InDelta(t, -math.Pi/2, SignedAngleAbout(r3.Vec{X: 1}, r3.Vec{Y: -1}, axis), 1e-12)
	assert.Zero(t, SignedAngleAbout(r3.Vec{Z: 1}, r3.Vec{Y: 1}, axis), "start parallel to axis")

	rng := rand.New(rand.NewPCG(7, 8))
	for i := 0; i < 50; i++ {
		start, target, ax := randVec(rng), randVec(rng), Normalize(randVec(rng))
		angle := SignedAngleAbout(start, target, ax)
		rotated := RotationAbout(angle, ax).Rotate(start)
		assert.InDelta(t, 0, Angle(reject(rotated, ax), reject(target, ax)), 1e-6)
	}
}

func TestSignedAngleMatchesRotation(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))
	for i := 0; i < 50; i++ {
		axis := Normalize(randVec(rng))
		start := Orthogonal(axis)
		angle := (rng.Float64()*2 - 1) * (math.Pi - 0.01)
		target := RotationAbout(angle, axis).Rotate(start)
		assert.InDelta(t, math.Abs(angle), math.Abs(SignedAngleAbout(start, target, axis)), 1e-9)
	}
}

func TestOrthogonal(t *testing.T) {
	for _, v := range []r3.Vec{{X: 1}, {Y: 1}, {Z: 1}, {X: 1, Y: 2, Z: 3}} {
		o := Orthogonal(v)
		assert.InDelta(t, 0, r3.Dot(o, v), 1e-12)
		assert.InDelta(t, 1, r3.Norm(o), 1e-12)
	}
}

func TestPrincipalAxis(t *testing.T) {
	points := []r3.Vec{{X: -2}, {X: -1, Y: 0.01}, {X: 1, Y: -0.01}, {X: 2}}
	axis, err := PrincipalAxis(points)
	require.NoError(t, err)
	assert.InDelta(t, 1, math.Abs(axis.X), 1e-4)

	_, err = PrincipalAxis(points[:1])
	assert.ErrorIs(t, err, ErrInsufficientPoints)
}
