package molecule

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/molforge/pkg/errors"
	"github.com/matzehuels/molforge/pkg/geometry"
)

// centroidTolerance is the distance below which the block centroid and the
// bonder centroid are treated as coincident.
const centroidTolerance = 1e-5

// BuildingBlock is a molecule annotated with functional groups.
type BuildingBlock struct {
	*Molecule
	groups []FunctionalGroup
}

// NewBuildingBlock creates a building block from m and the given groups. The
// molecule is cloned. It returns an EMBEDDING error when the molecule has
// no usable 3D coordinates.
func NewBuildingBlock(m *Molecule, groups ...FunctionalGroup) (*BuildingBlock, error) {
	if err := checkEmbedding(m); err != nil {
		return nil, err
	}
	for i, fg := range groups {
		if err := fg.validate(m.NumAtoms()); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "functional group %d", i).
				WithDetail("functional_group", i)
		}
	}
	bb := &BuildingBlock{Molecule: m.Clone(), groups: make([]FunctionalGroup, len(groups))}
	for i, fg := range groups {
		bb.groups[i] = fg.Remap(nil)
	}
	return bb, nil
}

// WithFunctionalGroups returns a copy whose functional groups are replaced by
// those detected for the given kinds.
func (bb *BuildingBlock) WithFunctionalGroups(kinds ...Kind) *BuildingBlock {
	out := bb.Clone()
	out.groups = FindFunctionalGroups(out.Molecule, kinds...)
	return out
}

// Clone returns a deep copy.
func (bb *BuildingBlock) Clone() *BuildingBlock {
	groups := make([]FunctionalGroup, len(bb.groups))
	for i, fg := range bb.groups {
		groups[i] = fg.Remap(nil)
	}
	return &BuildingBlock{Molecule: bb.Molecule.Clone(), groups: groups}
}

// FunctionalGroups returns the functional groups in order.
func (bb *BuildingBlock) FunctionalGroups() []FunctionalGroup {
	return slices.Clone(bb.groups)
}

// FunctionalGroup returns the functional group with index id.
func (bb *BuildingBlock) FunctionalGroup(id int) FunctionalGroup {
	return bb.groups[id]
}

// NumFunctionalGroups returns the number of functional groups.
func (bb *BuildingBlock) NumFunctionalGroups() int {
	return len(bb.groups)
}

// BonderIDs returns the bonder atom ids of the given functional groups, or
// of all groups, in group order.
func (bb *BuildingBlock) BonderIDs(fgIDs ...int) []int {
	var out []int
	for _, fg := range bb.selectGroups(fgIDs) {
		out = append(out, fg.Bonders()...)
	}
	return out
}

// DeleterIDs returns the deleter atom ids of the given functional groups,
// or of all groups.
func (bb *BuildingBlock) DeleterIDs(fgIDs ...int) []int {
	var out []int
	for _, fg := range bb.selectGroups(fgIDs) {
		out = append(out, fg.Deleters()...)
	}
	return out
}

// BonderCentroids returns, per functional group, the centroid of its
// bonder atoms.
func (bb *BuildingBlock) BonderCentroids() []r3.Vec {
	out := make([]r3.Vec, len(bb.groups))
	for i, fg := range bb.groups {
		out[i] = bb.Centroid(fg.Bonders()...)
	}
	return out
}

// BonderCentroid returns the centroid of every bonder atom. A block without
// functional groups returns its centroid.
func (bb *BuildingBlock) BonderCentroid() r3.Vec {
	ids := bb.BonderIDs()
	if len(ids) == 0 {
		return bb.Centroid()
	}
	return bb.Centroid(ids...)
}

// BonderPlaneNormal returns the normal of the plane through the per-group
// bonder centroids. The normal points from the bonder centroid toward the
// block centroid unless the two coincide. At least three functional groups
// are required.
func (bb *BuildingBlock) BonderPlaneNormal() (r3.Vec, error) {
	normal, err := geometry.PlaneNormal(bb.BonderCentroids())
	if err != nil {
		return r3.Vec{}, err
	}
	ref := r3.Sub(bb.Centroid(), bb.BonderCentroid())
	if r3.Norm(ref) < centroidTolerance {
		return normal, nil
	}
	return geometry.Outward(normal, ref), nil
}

// BonderDirection returns the unit vector from the bonder centroid of the
// first functional group to that of the second. At least two functional
// groups are required.
func (bb *BuildingBlock) BonderDirection() (r3.Vec, error) {
	if len(bb.groups) < 2 {
		return r3.Vec{}, errors.New(errors.ErrCodeInvalidInput,
			"bonder direction needs 2 functional groups, block has %d", len(bb.groups))
	}
	c := bb.BonderCentroids()
	return geometry.Normalize(r3.Sub(c[1], c[0])), nil
}

// CentroidCentroidDirection returns the unit vector from the bonder centroid
// to the block centroid, or the zero vector when they coincide.
func (bb *BuildingBlock) CentroidCentroidDirection() r3.Vec {
	d := r3.Sub(bb.Centroid(), bb.BonderCentroid())
	if r3.Norm(d) < centroidTolerance {
		return r3.Vec{}
	}
	return geometry.Normalize(d)
}

func (bb *BuildingBlock) selectGroups(fgIDs []int) []FunctionalGroup {
	if len(fgIDs) == 0 {
		return bb.groups
	}
	out := make([]FunctionalGroup, len(fgIDs))
	for i, id := range fgIDs {
		out[i] = bb.groups[id]
	}
	return out
}

func checkEmbedding(m *Molecule) error {
	for i, p := range m.positions {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) ||
			math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) || math.IsInf(p.Z, 0) {
			return errors.New(errors.ErrCodeEmbedding, "atom %d has no finite coordinates", i).
				WithDetail("atom", i)
		}
	}
	if m.NumAtoms() > 1 && m.MaximumDiameter() < geometry.Tolerance {
		return errors.New(errors.ErrCodeEmbedding, "all %d atoms share one position", m.NumAtoms())
	}
	return nil
}
