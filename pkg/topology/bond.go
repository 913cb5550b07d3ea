package topology

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/molforge/pkg/geometry"
)

// AtomSitePair pairs a bonder atom with the neighbour it will bond toward.
type AtomSitePair struct {
	Atom     int
	Neighbor int
	Distance float64
}

// PairAtomsWithSites pairs bonder atoms with neighbouring sites. positions[i]
// is the position of atoms[i]. Every (atom, neighbour) distance is sorted in
// ascending order and pairs are taken greedily, so no atom and no neighbour
// appears twice. Ties keep atom-major input order.
//
// The matching is greedy, not a minimum-weight assignment.
func PairAtomsWithSites(atoms []int, positions []r3.Vec, neighbors []Neighbor) []AtomSitePair {
	candidates := make([]AtomSitePair, 0, len(atoms)*len(neighbors))
	for i, atom := range atoms {
		for j, n := range neighbors {
			candidates = append(candidates, AtomSitePair{
				Atom:     atom,
				Neighbor: j,
				Distance: geometry.Distance(positions[i], n.Position),
			})
		}
	}
	slices.SortStableFunc(candidates, func(a, b AtomSitePair) int {
		return cmp.Compare(a.Distance, b.Distance)
	})

	usedAtoms := make(map[int]bool, len(atoms))
	usedSites := make(map[int]bool, len(neighbors))
	var out []AtomSitePair
	for _, c := range candidates {
		if usedAtoms[c.Atom] || usedSites[c.Neighbor] {
			continue
		}
		usedAtoms[c.Atom] = true
		usedSites[c.Neighbor] = true
		out = append(out, c)
	}
	return out
}

// Candidate is a bonder atom offered for bonding, with its position in the
// frame of the bonding computation.
type Candidate struct {
	Atom     int
	Position r3.Vec
}

// AtomPair is a new bond between two atoms.
type AtomPair struct {
	Atom1, Atom2 int
	Distance     float64
}

// PairAtoms pairs atoms of from with atoms of to. Every cross distance is
// sorted in ascending order and pairs are taken greedily. Atoms found in
// bonded, or consumed by an earlier pair, are skipped; paired atoms are
// added to bonded.
func PairAtoms(from, to []Candidate, bonded map[int]bool) []AtomPair {
	candidates := make([]AtomPair, 0, len(from)*len(to))
	for _, a := range from {
		for _, b := range to {
			candidates = append(candidates, AtomPair{
				Atom1:    a.Atom,
				Atom2:    b.Atom,
				Distance: geometry.Distance(a.Position, b.Position),
			})
		}
	}
	slices.SortStableFunc(candidates, func(a, b AtomPair) int {
		return cmp.Compare(a.Distance, b.Distance)
	})

	var out []AtomPair
	for _, c := range candidates {
		if bonded[c.Atom1] || bonded[c.Atom2] {
			continue
		}
		bonded[c.Atom1] = true
		bonded[c.Atom2] = true
		out = append(out, c)
	}
	return out
}
