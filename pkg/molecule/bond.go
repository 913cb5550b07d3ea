package molecule

import "fmt"

// Bond connects two atoms of a molecule.
//
// Periodicity is non-zero for bonds of a periodic structure that cross a
// repeating-cell boundary: the bond also exists shifted by Periodicity times
// the lattice vectors.
type Bond struct {
	Atom1       int    `json:"atom1_id" bson:"atom1_id"`
	Atom2       int    `json:"atom2_id" bson:"atom2_id"`
	Order       int    `json:"order" bson:"order"`
	Periodicity [3]int `json:"periodicity" bson:"periodicity"`
}

// IsPeriodic reports whether the bond crosses a cell boundary.
func (b Bond) IsPeriodic() bool {
	return b.Periodicity != [3]int{}
}

// Other returns the atom on the opposite end of the bond from id.
func (b Bond) Other(id int) int {
	if b.Atom1 == id {
		return b.Atom2
	}
	return b.Atom1
}

func (b Bond) String() string {
	if b.IsPeriodic() {
		return fmt.Sprintf("Bond(%d, %d, %d, periodicity=%v)", b.Atom1, b.Atom2, b.Order, b.Periodicity)
	}
	return fmt.Sprintf("Bond(%d, %d, %d)", b.Atom1, b.Atom2, b.Order)
}
