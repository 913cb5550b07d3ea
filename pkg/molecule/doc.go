// Package molecule provides the atom, bond and molecule value types consumed
// by the topology engine, together with building blocks and functional groups.
//
// # Molecules
//
// A [Molecule] holds atoms, bonds and one 3D position per atom. Atom ids are
// indices into the atom slice, so an id is always in [0, NumAtoms). All rigid
// transforms operate in place on the receiver and return it so calls can be
// chained:
//
//	m.ApplyDisplacement(d).ApplyRotationAboutAxis(math.Pi/2, axis, origin)
//
// Use [Molecule.Clone] first when the original must be preserved.
//
// # Building Blocks
//
// A [BuildingBlock] is a molecule with [FunctionalGroup] annotations. Each
// functional group names its atoms by role and splits them into bonders,
// the atoms that form new bonds during construction, and deleters, the atoms
// removed once the group has reacted.
//
//	bb, err := molecule.NewBuildingBlock(m)
//	bb = bb.WithFunctionalGroups(molecule.KindAldehyde)
//	normal, err := bb.BonderPlaneNormal()
//
// Five kinds are supported: [KindAldehyde], [KindPrimaryAmino], [KindThiol],
// [KindBromo] and [KindThioacid]. [FindFunctionalGroups] detects them from
// element and bond patterns, which requires explicit hydrogens.
//
// # Serialization
//
// [Molecule.ToDict] and [FromDict] convert to and from the [Dict] form holding
// atoms, bonds, the position matrix and the identity key. File formats live in
// the io package.
package molecule
