package molecule

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Kind identifies a functional group type.
type Kind string

// Supported functional group kinds.
const (
	KindAldehyde     Kind = "aldehyde"
	KindPrimaryAmino Kind = "primary_amino"
	KindThiol        Kind = "thiol"
	KindBromo        Kind = "bromo"
	KindThioacid     Kind = "thioacid"
)

// schema lists the roles of a kind and which of them bond or get deleted.
type schema struct {
	roles    []string
	bonders  []string
	deleters []string
}

var schemas = map[Kind]schema{
	KindAldehyde: {
		roles:    []string{"carbon", "oxygen", "hydrogen", "atom"},
		bonders:  []string{"carbon"},
		deleters: []string{"oxygen"},
	},
	KindPrimaryAmino: {
		roles:    []string{"nitrogen", "hydrogen1", "hydrogen2", "atom"},
		bonders:  []string{"nitrogen"},
		deleters: []string{"hydrogen1", "hydrogen2"},
	},
	KindThiol: {
		roles:    []string{"sulfur", "hydrogen", "atom"},
		bonders:  []string{"sulfur"},
		deleters: []string{"hydrogen"},
	},
	KindBromo: {
		roles:    []string{"bromine", "atom"},
		bonders:  []string{"atom"},
		deleters: []string{"bromine"},
	},
	KindThioacid: {
		roles:    []string{"carbon", "oxygen", "sulfur", "hydrogen", "atom"},
		bonders:  []string{"carbon"},
		deleters: []string{"sulfur", "hydrogen"},
	},
}

// Kinds returns every supported kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindAldehyde, KindPrimaryAmino, KindThiol, KindBromo, KindThioacid}
}

// Roles returns the atom roles of the kind, or nil for unknown kinds.
func (k Kind) Roles() []string {
	return slices.Clone(schemas[k].roles)
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	_, ok := schemas[k]
	return ok
}

// FunctionalGroup is a set of atoms of a building block, named by role.
//
// Values are immutable after construction: methods that change atom ids
// return a new group.
type FunctionalGroup struct {
	Kind  Kind           `json:"kind" bson:"kind"`
	Atoms map[string]int `json:"atoms" bson:"atoms"`
}

// NewFunctionalGroup creates a group of the given kind. Every role of the
// kind must be present in atoms.
func NewFunctionalGroup(kind Kind, atoms map[string]int) (FunctionalGroup, error) {
	s, ok := schemas[kind]
	if !ok {
		return FunctionalGroup{}, fmt.Errorf("unknown functional group kind %q", kind)
	}
	for _, role := range s.roles {
		if _, ok := atoms[role]; !ok {
			return FunctionalGroup{}, fmt.Errorf("%s functional group is missing role %q", kind, role)
		}
	}
	if len(atoms) != len(s.roles) {
		return FunctionalGroup{}, fmt.Errorf("%s functional group has %d roles, want %d", kind, len(atoms), len(s.roles))
	}
	return FunctionalGroup{Kind: kind, Atoms: maps.Clone(atoms)}, nil
}

// NewAldehyde creates an aldehyde group R-C(=O)-H. The carbon bonds and the
// oxygen is deleted.
func NewAldehyde(carbon, oxygen, hydrogen, atom int) FunctionalGroup {
	return FunctionalGroup{Kind: KindAldehyde, Atoms: map[string]int{
		"carbon": carbon, "oxygen": oxygen, "hydrogen": hydrogen, "atom": atom,
	}}
}

// NewPrimaryAmino creates a primary amine R-NH2. The nitrogen bonds and both
// hydrogens are deleted.
func NewPrimaryAmino(nitrogen, hydrogen1, hydrogen2, atom int) FunctionalGroup {
	return FunctionalGroup{Kind: KindPrimaryAmino, Atoms: map[string]int{
		"nitrogen": nitrogen, "hydrogen1": hydrogen1, "hydrogen2": hydrogen2, "atom": atom,
	}}
}

// NewThiol creates a thiol R-SH.
func NewThiol(sulfur, hydrogen, atom int) FunctionalGroup {
	return FunctionalGroup{Kind: KindThiol, Atoms: map[string]int{
		"sulfur": sulfur, "hydrogen": hydrogen, "atom": atom,
	}}
}

// NewBromo creates a bromo group R-Br. The atom holding the bromine bonds.
func NewBromo(bromine, atom int) FunctionalGroup {
	return FunctionalGroup{Kind: KindBromo, Atoms: map[string]int{
		"bromine": bromine, "atom": atom,
	}}
}

// NewThioacid creates a thioacid R-C(=O)-SH.
func NewThioacid(carbon, oxygen, sulfur, hydrogen, atom int) FunctionalGroup {
	return FunctionalGroup{Kind: KindThioacid, Atoms: map[string]int{
		"carbon": carbon, "oxygen": oxygen, "sulfur": sulfur, "hydrogen": hydrogen, "atom": atom,
	}}
}

// Atom returns the atom id holding role.
func (fg FunctionalGroup) Atom(role string) (int, bool) {
	id, ok := fg.Atoms[role]
	return id, ok
}

// AtomIDs returns every atom id of the group in ascending order.
func (fg FunctionalGroup) AtomIDs() []int {
	return slices.Sorted(maps.Values(fg.Atoms))
}

// Bonders returns the ids of the atoms that form bonds.
func (fg FunctionalGroup) Bonders() []int {
	return fg.idsFor(schemas[fg.Kind].bonders)
}

// Deleters returns the ids of the atoms removed once the group has reacted.
func (fg FunctionalGroup) Deleters() []int {
	return fg.idsFor(schemas[fg.Kind].deleters)
}

// Remap returns a copy with atom ids translated through mapping. Ids absent
// from mapping are kept.
func (fg FunctionalGroup) Remap(mapping map[int]int) FunctionalGroup {
	atoms := make(map[string]int, len(fg.Atoms))
	for role, id := range fg.Atoms {
		if to, ok := mapping[id]; ok {
			id = to
		}
		atoms[role] = id
	}
	return FunctionalGroup{Kind: fg.Kind, Atoms: atoms}
}

// Shift returns a copy with offset added to every atom id.
func (fg FunctionalGroup) Shift(offset int) FunctionalGroup {
	atoms := make(map[string]int, len(fg.Atoms))
	for role, id := range fg.Atoms {
		atoms[role] = id + offset
	}
	return FunctionalGroup{Kind: fg.Kind, Atoms: atoms}
}

func (fg FunctionalGroup) String() string {
	parts := make([]string, 0, len(fg.Atoms))
	for _, role := range schemas[fg.Kind].roles {
		parts = append(parts, fmt.Sprintf("%s=%d", role, fg.Atoms[role]))
	}
	return fmt.Sprintf("%s(%s)", fg.Kind, strings.Join(parts, ", "))
}

func (fg FunctionalGroup) validate(numAtoms int) error {
	if _, err := NewFunctionalGroup(fg.Kind, fg.Atoms); err != nil {
		return err
	}
	for role, id := range fg.Atoms {
		if id < 0 || id >= numAtoms {
			return fmt.Errorf("%s functional group role %q references atom %d of %d", fg.Kind, role, id, numAtoms)
		}
	}
	return nil
}

func (fg FunctionalGroup) idsFor(roles []string) []int {
	out := make([]int, 0, len(roles))
	for _, role := range roles {
		if id, ok := fg.Atoms[role]; ok {
			out = append(out, id)
		}
	}
	return out
}
