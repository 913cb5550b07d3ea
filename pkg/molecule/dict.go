package molecule

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Dict is the serializable form of a molecule or building block.
type Dict struct {
	IdentityKey      string            `json:"identity_key" bson:"identity_key"`
	Atoms            []Atom            `json:"atoms" bson:"atoms"`
	Bonds            []Bond            `json:"bonds" bson:"bonds"`
	PositionMatrix   [][3]float64      `json:"position_matrix" bson:"position_matrix"`
	FunctionalGroups []FunctionalGroup `json:"functional_groups,omitempty" bson:"functional_groups,omitempty"`
}

// ToDict returns the serializable form of the molecule.
func (m *Molecule) ToDict() Dict {
	return Dict{
		IdentityKey:    m.IdentityKey(),
		Atoms:          m.Atoms(),
		Bonds:          m.Bonds(),
		PositionMatrix: m.PositionMatrix(),
	}
}

// ToDict returns the serializable form of the building block, including its
// functional groups.
func (bb *BuildingBlock) ToDict() Dict {
	d := bb.Molecule.ToDict()
	d.FunctionalGroups = bb.FunctionalGroups()
	return d
}

// FromDict rebuilds a molecule. A non-empty identity key must match the
// rebuilt molecule.
func FromDict(d Dict) (*Molecule, error) {
	positions := make([]r3.Vec, len(d.PositionMatrix))
	for i, row := range d.PositionMatrix {
		positions[i] = r3.Vec{X: row[0], Y: row[1], Z: row[2]}
	}
	m, err := New(d.Atoms, d.Bonds, positions)
	if err != nil {
		return nil, err
	}
	if d.IdentityKey != "" && d.IdentityKey != m.IdentityKey() {
		return nil, fmt.Errorf("identity key mismatch: dict has %s, molecule has %s", d.IdentityKey, m.IdentityKey())
	}
	return m, nil
}

// BuildingBlockFromDict rebuilds a building block with the functional groups
// stored in d.
func BuildingBlockFromDict(d Dict) (*BuildingBlock, error) {
	m, err := FromDict(d)
	if err != nil {
		return nil, err
	}
	return NewBuildingBlock(m, d.FunctionalGroups...)
}
