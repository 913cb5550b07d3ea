package topology

import "gonum.org/v1/gonum/spatial/r3"

// Lattice holds the three cell vectors of a periodic graph.
type Lattice struct {
	A, B, C r3.Vec
}

// Cartesian converts fractional coordinates to Cartesian ones.
func (l Lattice) Cartesian(f [3]float64) r3.Vec {
	return r3.Add(r3.Add(r3.Scale(f[0], l.A), r3.Scale(f[1], l.B)), r3.Scale(f[2], l.C))
}

// Shift returns the Cartesian translation of an integer cell offset.
func (l Lattice) Shift(offset [3]int) r3.Vec {
	return l.Cartesian([3]float64{float64(offset[0]), float64(offset[1]), float64(offset[2])})
}

// Supercell returns the lattice of a size[0]×size[1]×size[2] block of cells.
func (l Lattice) Supercell(size [3]int) Lattice {
	return Lattice{
		A: r3.Scale(float64(size[0]), l.A),
		B: r3.Scale(float64(size[1]), l.B),
		C: r3.Scale(float64(size[2]), l.C),
	}
}

// Scaled returns the lattice with every vector multiplied by factor.
func (l Lattice) Scaled(factor float64) Lattice {
	return Lattice{A: r3.Scale(factor, l.A), B: r3.Scale(factor, l.B), C: r3.Scale(factor, l.C)}
}
