package molecule

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/molforge/pkg/geometry"
)

var (
	// ErrEmptyMolecule is returned by [New] when no atoms are given.
	ErrEmptyMolecule = errors.New("molecule has no atoms")

	// ErrPositionCount is returned when the number of positions does not
	// match the number of atoms.
	ErrPositionCount = errors.New("position count does not match atom count")

	// ErrInvalidBond is returned when a bond references an atom that does
	// not exist or joins an atom to itself.
	ErrInvalidBond = errors.New("invalid bond")
)

// Molecule is a set of atoms with bonds and 3D coordinates.
//
// The zero value is not usable; create molecules with [New].
type Molecule struct {
	atoms     []Atom
	bonds     []Bond
	positions []r3.Vec
}

// New creates a molecule. Atom ids are reassigned to their slice index and
// positions are copied.
func New(atoms []Atom, bonds []Bond, positions []r3.Vec) (*Molecule, error) {
	if len(atoms) == 0 {
		return nil, ErrEmptyMolecule
	}
	if len(positions) != len(atoms) {
		return nil, fmt.Errorf("%w: %d atoms, %d positions", ErrPositionCount, len(atoms), len(positions))
	}
	for _, b := range bonds {
		if b.Atom1 < 0 || b.Atom1 >= len(atoms) || b.Atom2 < 0 || b.Atom2 >= len(atoms) || b.Atom1 == b.Atom2 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBond, b)
		}
	}

	m := &Molecule{
		atoms:     slices.Clone(atoms),
		bonds:     slices.Clone(bonds),
		positions: slices.Clone(positions),
	}
	for i := range m.atoms {
		m.atoms[i].ID = i
	}
	return m, nil
}

// NumAtoms returns the number of atoms.
func (m *Molecule) NumAtoms() int { return len(m.atoms) }

// NumBonds returns the number of bonds.
func (m *Molecule) NumBonds() int { return len(m.bonds) }

// Atoms returns a copy of the atoms, ordered by id.
func (m *Molecule) Atoms() []Atom { return slices.Clone(m.atoms) }

// Atom returns the atom with the given id.
func (m *Molecule) Atom(id int) Atom { return m.atoms[id] }

// Bonds returns a copy of the bonds.
func (m *Molecule) Bonds() []Bond { return slices.Clone(m.bonds) }

// Position returns the position of one atom.
func (m *Molecule) Position(id int) r3.Vec { return m.positions[id] }

// Positions returns the positions of the given atoms, or of every atom when
// no ids are given.
func (m *Molecule) Positions(ids ...int) []r3.Vec {
	if len(ids) == 0 {
		return slices.Clone(m.positions)
	}
	out := make([]r3.Vec, len(ids))
	for i, id := range ids {
		out[i] = m.positions[id]
	}
	return out
}

// PositionMatrix returns the coordinates as an n×3 matrix.
func (m *Molecule) PositionMatrix() [][3]float64 {
	out := make([][3]float64, len(m.positions))
	for i, p := range m.positions {
		out[i] = [3]float64{p.X, p.Y, p.Z}
	}
	return out
}

// SetPositionMatrix replaces every coordinate.
func (m *Molecule) SetPositionMatrix(matrix [][3]float64) error {
	if len(matrix) != len(m.atoms) {
		return fmt.Errorf("%w: %d atoms, %d rows", ErrPositionCount, len(m.atoms), len(matrix))
	}
	for i, row := range matrix {
		m.positions[i] = r3.Vec{X: row[0], Y: row[1], Z: row[2]}
	}
	return nil
}

// SetPositions replaces every coordinate.
func (m *Molecule) SetPositions(positions []r3.Vec) error {
	if len(positions) != len(m.atoms) {
		return fmt.Errorf("%w: %d atoms, %d positions", ErrPositionCount, len(m.atoms), len(positions))
	}
	copy(m.positions, positions)
	return nil
}

// Clone returns a deep copy.
func (m *Molecule) Clone() *Molecule {
	return &Molecule{
		atoms:     slices.Clone(m.atoms),
		bonds:     slices.Clone(m.bonds),
		positions: slices.Clone(m.positions),
	}
}

// Neighbors returns the ids of atoms bonded to id.
func (m *Molecule) Neighbors(id int) []int {
	var out []int
	for _, b := range m.bonds {
		if b.Atom1 == id || b.Atom2 == id {
			out = append(out, b.Other(id))
		}
	}
	return out
}

// BondBetween returns the bond joining a and b, if any.
func (m *Molecule) BondBetween(a, b int) (Bond, bool) {
	for _, bond := range m.bonds {
		if (bond.Atom1 == a && bond.Atom2 == b) || (bond.Atom1 == b && bond.Atom2 == a) {
			return bond, true
		}
	}
	return Bond{}, false
}

// =============================================================================
// Geometry Queries
// =============================================================================

// Centroid returns the centroid of the given atoms, or of the whole molecule
// when no ids are given.
func (m *Molecule) Centroid(ids ...int) r3.Vec {
	return geometry.MustCentroid(m.Positions(ids...)...)
}

// CenterOfMass returns the mass-weighted centroid of the given atoms, or of
// every atom. Unknown elements fall back to unit mass.
func (m *Molecule) CenterOfMass(ids ...int) r3.Vec {
	if len(ids) == 0 {
		ids = m.allIDs()
	}
	var sum r3.Vec
	var total float64
	for _, id := range ids {
		mass := m.atoms[id].Element.Mass()
		if mass == 0 {
			mass = 1
		}
		sum = r3.Add(sum, r3.Scale(mass, m.positions[id]))
		total += mass
	}
	return r3.Scale(1/total, sum)
}

// AtomDistance returns the distance between two atoms.
func (m *Molecule) AtomDistance(a, b int) float64 {
	return geometry.Distance(m.positions[a], m.positions[b])
}

// MaximumDiameter returns the largest distance between any two atoms.
func (m *Molecule) MaximumDiameter() float64 {
	var best float64
	for i := range m.positions {
		for j := i + 1; j < len(m.positions); j++ {
			if d := geometry.Distance(m.positions[i], m.positions[j]); d > best {
				best = d
			}
		}
	}
	return best
}

// PlaneNormal returns the normal of the plane best fitting the given atoms,
// or every atom when no ids are given.
func (m *Molecule) PlaneNormal(ids ...int) (r3.Vec, error) {
	return geometry.PlaneNormal(m.Positions(ids...))
}

// Direction returns the principal axis of the given atoms, or of every atom.
func (m *Molecule) Direction(ids ...int) (r3.Vec, error) {
	return geometry.PrincipalAxis(m.Positions(ids...))
}

// =============================================================================
// Rigid Transforms
// =============================================================================

// ApplyDisplacement translates every atom by d.
func (m *Molecule) ApplyDisplacement(d r3.Vec) *Molecule {
	for i, p := range m.positions {
		m.positions[i] = r3.Add(p, d)
	}
	return m
}

// ApplyRotation rotates every atom by rot about origin.
func (m *Molecule) ApplyRotation(rot r3.Rotation, origin r3.Vec) *Molecule {
	for i, p := range m.positions {
		m.positions[i] = geometry.Rotate(rot, p, origin)
	}
	return m
}

// ApplyRotationAboutAxis rotates every atom by angle radians about an axis
// passing through origin.
func (m *Molecule) ApplyRotationAboutAxis(angle float64, axis, origin r3.Vec) *Molecule {
	return m.ApplyRotation(geometry.RotationAbout(angle, axis), origin)
}

// ApplyRotationBetweenVectors rotates every atom about origin by the rotation
// that takes start onto target.
func (m *Molecule) ApplyRotationBetweenVectors(start, target, origin r3.Vec) *Molecule {
	return m.ApplyRotation(geometry.RotationBetween(start, target), origin)
}

// ApplyRotationToMinimizeAngle rotates every atom about axis through origin
// by the angle that minimizes the angle between start and target.
func (m *Molecule) ApplyRotationToMinimizeAngle(start, target, axis, origin r3.Vec) *Molecule {
	angle := geometry.SignedAngleAbout(start, target, axis)
	return m.ApplyRotationAboutAxis(angle, axis, origin)
}

// SetCentroid translates the molecule so the centroid of the given atoms, or
// of every atom, lies at target.
func (m *Molecule) SetCentroid(target r3.Vec, ids ...int) *Molecule {
	return m.ApplyDisplacement(r3.Sub(target, m.Centroid(ids...)))
}

// =============================================================================
// Identity
// =============================================================================

// IdentityKey returns a key that is equal for molecules with the same atoms,
// charges and bond pattern regardless of atom order and coordinates.
func (m *Molecule) IdentityKey() string {
	degree := make([]int, len(m.atoms))
	for _, b := range m.bonds {
		degree[b.Atom1]++
		degree[b.Atom2]++
	}

	atoms := make([]string, len(m.atoms))
	for i, a := range m.atoms {
		atoms[i] = fmt.Sprintf("%s%+d/%d", a.Element, a.Charge, degree[i])
	}
	slices.Sort(atoms)

	bonds := make([]string, len(m.bonds))
	for i, b := range m.bonds {
		e1 := fmt.Sprintf("%s/%d", m.atoms[b.Atom1].Element, degree[b.Atom1])
		e2 := fmt.Sprintf("%s/%d", m.atoms[b.Atom2].Element, degree[b.Atom2])
		if e2 < e1 {
			e1, e2 = e2, e1
		}
		bonds[i] = fmt.Sprintf("%s-%s:%d", e1, e2, b.Order)
	}
	slices.Sort(bonds)

	sum := sha256.Sum256([]byte(strings.Join(atoms, ",") + "|" + strings.Join(bonds, ",")))
	return hex.EncodeToString(sum[:])
}

func (m *Molecule) allIDs() []int {
	ids := make([]int, len(m.atoms))
	for i := range ids {
		ids[i] = i
	}
	return ids
}
