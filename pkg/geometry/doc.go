// Package geometry provides the vector, plane and rotation primitives used by
// the placement and bonding engines.
//
// # Overview
//
// All functions are pure and operate on [r3.Vec] values from gonum. Points are
// never modified in place; every operation returns a new vector.
//
// The package covers four concerns:
//
//   - Centroids: [Centroid] averages a non-empty set of points
//   - Directions: [Normalize], [Angle] and [SignedAngleAbout]
//   - Planes: [PlaneNormal] fits a plane with a singular value decomposition
//     and [Outward] applies the sign convention shared by every normal
//   - Rotations: [RotationBetween], [RotationAbout] and [Rotate]
//
// # Sign Convention
//
// A plane normal is ambiguous up to its sign. Placement relies on normals that
// consistently point "outward", so every normal is passed through [Outward]
// with a reference direction:
//
//	n, err := geometry.PlaneNormal(points)
//	if err != nil {
//	    return err
//	}
//	n = geometry.Outward(n, r3.Sub(structureCentroid, geometry.MustCentroid(points)))
//
// After the call the angle between n and the reference is at most π/2.
//
// # Zero Vectors
//
// [Normalize] of the zero vector yields NaN components, matching [r3.Unit].
// Callers that may pass degenerate input check [IsZero] first.
package geometry
