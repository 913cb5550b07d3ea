package topology

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/molforge/pkg/molecule"
)

func assertVecInDelta(t *testing.T, want, got r3.Vec, delta float64) {
	t.Helper()
	require.InDelta(t, want.X, got.X, delta, "x")
	require.InDelta(t, want.Y, got.Y, delta, "y")
	require.InDelta(t, want.Z, got.Z, delta, "z")
}

// bromoBlock returns a core carbon lifted above n planar C-Br arms. Each arm
// carbon is a bonder and each bromine a deleter.
func bromoBlock(t *testing.T, n int) *molecule.BuildingBlock {
	t.Helper()
	atoms := []molecule.Atom{{Element: "C"}}
	positions := []r3.Vec{{Z: 1}}
	var bonds []molecule.Bond
	var groups []molecule.FunctionalGroup
	for i := range n {
		theta := 2 * math.Pi * float64(i) / float64(n)
		c := len(atoms)
		atoms = append(atoms, molecule.Atom{Element: "C"}, molecule.Atom{Element: "Br"})
		positions = append(positions,
			r3.Vec{X: math.Cos(theta), Y: math.Sin(theta)},
			r3.Vec{X: 2 * math.Cos(theta), Y: 2 * math.Sin(theta)},
		)
		bonds = append(bonds,
			molecule.Bond{Atom1: 0, Atom2: c, Order: 1},
			molecule.Bond{Atom1: c, Atom2: c + 1, Order: 1},
		)
		groups = append(groups, molecule.NewBromo(c+1, c))
	}
	m, err := molecule.New(atoms, bonds, positions)
	require.NoError(t, err)
	bb, err := molecule.NewBuildingBlock(m, groups...)
	require.NoError(t, err)
	return bb
}

// pairGraph returns two vertices ten apart on z joined without a linker.
func pairGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph("pair", WithoutLinkers())
	g.AddVertex(r3.Vec{})
	g.AddVertex(r3.Vec{Z: 10})
	_, err := g.AddEdge([]int{0, 1})
	require.NoError(t, err)
	return g
}
