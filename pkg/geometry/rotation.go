package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Identity is the rotation that leaves every vector unchanged.
var Identity = r3.NewRotation(0, r3.Vec{Z: 1})

// RotationAbout returns the right-handed rotation by angle radians about axis.
func RotationAbout(angle float64, axis r3.Vec) r3.Rotation {
	if angle == 0 || IsZero(axis) {
		return Identity
	}
	return r3.NewRotation(angle, Normalize(axis))
}

// RotationBetween returns the rotation that takes the direction of start onto
// the direction of target. The rotation axis is start × target; when the two
// are anti-parallel any axis orthogonal to start is used.
func RotationBetween(start, target r3.Vec) r3.Rotation {
	s, t := Normalize(start), Normalize(target)
	axis := r3.Cross(s, t)
	if IsZero(axis) {
		if r3.Dot(s, t) > 0 {
			return Identity
		}
		return r3.NewRotation(math.Pi, Orthogonal(s))
	}
	return r3.NewRotation(Angle(s, t), Normalize(axis))
}

// Rotate applies rot to p about origin.
func Rotate(rot r3.Rotation, p, origin r3.Vec) r3.Vec {
	return r3.Add(rot.Rotate(r3.Sub(p, origin)), origin)
}
