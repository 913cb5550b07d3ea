package topology

import (
	"context"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/molforge/pkg/errors"
	"github.com/matzehuels/molforge/pkg/geometry"
	"github.com/matzehuels/molforge/pkg/molecule"
)

func TestConstructPair(t *testing.T) {
	blocks := []*molecule.BuildingBlock{bromoBlock(t, 1)}
	res, err := Construct(context.Background(), blocks, pairGraph(t), Options{Scale: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, res.NumNewBonds)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 4, res.Molecule.NumAtoms(), "both bromines are removed")
	assert.Equal(t, 3, res.Molecule.NumBonds())

	bond, ok := res.Molecule.BondBetween(1, 3)
	require.True(t, ok)
	assert.Equal(t, [3]int{}, bond.Periodicity)
	assert.Equal(t, 1, bond.Order)
	assert.InDelta(t, 10, res.Molecule.AtomDistance(1, 3), 1e-9)

	require.Len(t, res.Blocks, 2)
	assert.Equal(t, PlacedBlock{Site: SiteRef{Kind: SiteVertex, ID: 0}, Block: 0, Atoms: []int{0, 1}}, res.Blocks[0])
	assert.Equal(t, []int{2, 3}, res.Blocks[1].Atoms)
}

func TestConstructPairTwoGroups(t *testing.T) {
	blocks := []*molecule.BuildingBlock{bromoBlock(t, 2)}
	res, err := Construct(context.Background(), blocks, pairGraph(t), Options{Scale: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, res.NumNewBonds)
	assert.Equal(t, 8, res.Molecule.NumAtoms(), "one bromine removed per vertex")

	bond, ok := res.Molecule.BondBetween(1, 5)
	require.True(t, ok, "the two facing bonders bond")
	assert.Equal(t, [3]int{}, bond.Periodicity)
	assert.InDelta(t, 8, res.Molecule.AtomDistance(1, 5), 1e-9)

	// the bonder facing away from the other vertex is reported, not dropped
	require.Len(t, res.Warnings, 2)
	for i, w := range res.Warnings {
		assert.Equal(t, -1, w.Edge)
		assert.Equal(t, SiteRef{Kind: SiteVertex, ID: i}, w.From)
		assert.Equal(t, w.From, w.To)
	}
	assert.Equal(t, []int{2}, res.Warnings[0].Unpaired)
	assert.Equal(t, []int{6}, res.Warnings[1].Unpaired)
}

func TestConstructExplicitAssignment(t *testing.T) {
	blocks := []*molecule.BuildingBlock{bromoBlock(t, 1), bromoBlock(t, 2)}
	res, err := Construct(context.Background(), blocks, chainGraph(t), Options{
		VertexBlocks: map[int][]int{0: {0, 2}, 1: {1}},
		Scale:        1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.NumNewBonds)
	assert.Empty(t, res.Warnings)

	require.Len(t, res.Blocks, 3)
	for i, block := range []int{0, 1, 0} {
		placed := res.Blocks[i]
		assert.Equal(t, SiteRef{Kind: SiteVertex, ID: i}, placed.Site)
		assert.Equal(t, block, placed.Block)
		want := blocks[block]

		// every arm reacted, so the block survives without its bromines
		var kept []int
		for id, atom := range want.Atoms() {
			if atom.Element != "Br" {
				kept = append(kept, id)
			}
		}
		require.Len(t, placed.Atoms, len(kept), "vertex %d", i)
		for j, id := range placed.Atoms {
			assert.Equal(t, want.Atom(kept[j]).Element, res.Molecule.Atom(id).Element)
			for k := range j {
				assert.InDelta(t, want.AtomDistance(kept[k], kept[j]),
					res.Molecule.AtomDistance(placed.Atoms[k], id), 1e-9, "vertex %d is rigid", i)
			}
		}
	}
}

func TestConstructExcessBonders(t *testing.T) {
	g, err := BuildBuiltin("FourPlusSix", [3]int{}, false)
	require.NoError(t, err)
	blocks := []*molecule.BuildingBlock{bromoBlock(t, 4), bromoBlock(t, 2)}

	res, err := Construct(context.Background(), blocks, g, Options{})
	require.NoError(t, err)
	assert.Equal(t, 12, res.NumNewBonds)

	require.Len(t, res.Warnings, 4)
	for i, w := range res.Warnings {
		assert.Equal(t, -1, w.Edge)
		assert.Equal(t, SiteRef{Kind: SiteVertex, ID: i}, w.From)
		assert.Equal(t, w.From, w.To)
		require.Len(t, w.Unpaired, 1)
		assert.Equal(t, molecule.Element("C"), res.Molecule.Atom(w.Unpaired[0]).Element)
		assert.Contains(t, w.String(), "have no connection")
	}

	bromines := 0
	for _, a := range res.Molecule.Atoms() {
		if a.Element == "Br" {
			bromines++
		}
	}
	assert.Equal(t, 4, bromines, "unreacted groups keep their bromine")
}

func TestConstructVertexAligners(t *testing.T) {
	g, err := BuildBuiltin("FourPlusSix", [3]int{}, false)
	require.NoError(t, err)
	blocks := []*molecule.BuildingBlock{bromoBlock(t, 2), bromoBlock(t, 3)}

	b, err := NewBuilder(blocks, g, Options{
		VertexAlignments: map[int]int{0: 2},
		VertexAligners:   map[int]int{0: 1},
	})
	require.NoError(t, err)
	require.NoError(t, b.Assign())
	require.NoError(t, b.Place(context.Background()))

	v, _ := b.Graph().Vertex(0)
	neighbors := b.Graph().Neighbors(v)
	p, ok := b.Placement(SiteRef{Kind: SiteVertex, ID: 0})
	require.True(t, ok)

	fg := blocks[b.Assignment()[SiteRef{Kind: SiteVertex, ID: 0}]].FunctionalGroup(1)
	bonder := p.Positions[fg.Bonders()[0]]
	nearest, best := -1, math.Inf(1)
	for i, n := range neighbors {
		if d := geometry.Distance(bonder, n.Position); d < best {
			nearest, best = i, d
		}
	}
	assert.Equal(t, 2, nearest, "second functional group faces the third connection")
}

func TestConstructCage(t *testing.T) {
	g, err := BuildBuiltin("FourPlusSix", [3]int{}, false)
	require.NoError(t, err)
	blocks := []*molecule.BuildingBlock{bromoBlock(t, 2), bromoBlock(t, 3)}

	res, err := Construct(context.Background(), blocks, g, Options{})
	require.NoError(t, err)

	assert.InDelta(t, 4, res.Scale, 1e-9, "largest block diameter")
	assert.Equal(t, 12, res.NumNewBonds)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 4*7+6*5-24, res.Molecule.NumAtoms())
	assert.Equal(t, 4*6+6*4-24+12, res.Molecule.NumBonds())
	for _, a := range res.Molecule.Atoms() {
		assert.NotEqual(t, molecule.Element("Br"), a.Element)
	}
}

func TestConstructTwoPlusThree(t *testing.T) {
	g, err := BuildBuiltin("two_plus_three", [3]int{}, false)
	require.NoError(t, err)
	blocks := []*molecule.BuildingBlock{bromoBlock(t, 3), bromoBlock(t, 2)}

	res, err := Construct(context.Background(), blocks, g, Options{})
	require.NoError(t, err)
	assert.Equal(t, 6, res.NumNewBonds)
	assert.Equal(t, 2*7+3*5-12, res.Molecule.NumAtoms())
}

func TestConstructPeriodicParallel(t *testing.T) {
	g, err := BuildBuiltin("honeycomb", [3]int{2, 2, 1}, true)
	require.NoError(t, err)
	blocks := []*molecule.BuildingBlock{bromoBlock(t, 3), bromoBlock(t, 2)}

	seq, err := Construct(context.Background(), blocks, g, Options{})
	require.NoError(t, err)
	par, err := Construct(context.Background(), blocks, g, Options{Parallelism: 4})
	require.NoError(t, err)

	assert.Equal(t, 24, seq.NumNewBonds)
	assert.Equal(t, seq.Molecule.PositionMatrix(), par.Molecule.PositionMatrix())
	assert.Equal(t, seq.Molecule.Bonds(), par.Molecule.Bonds())
	assert.True(t, slices.ContainsFunc(seq.Molecule.Bonds(), molecule.Bond.IsPeriodic))
}

func TestConstructLeavesInputsUntouched(t *testing.T) {
	g := pairGraph(t)
	bb := bromoBlock(t, 1)
	before := bb.PositionMatrix()

	_, err := Construct(context.Background(), []*molecule.BuildingBlock{bb}, g, Options{Scale: 3})
	require.NoError(t, err)

	v, _ := g.Vertex(1)
	assertVecInDelta(t, r3.Vec{Z: 10}, v.Position(), 1e-12)
	assert.Equal(t, before, bb.PositionMatrix())
}

func TestConstructVertexWithoutConnections(t *testing.T) {
	g := NewGraph("loose", WithoutLinkers())
	g.AddVertex(r3.Vec{})
	g.AddVertex(r3.Vec{X: 5})

	res, err := Construct(context.Background(), []*molecule.BuildingBlock{bromoBlock(t, 1)}, g, Options{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, errors.ErrCodeTopology))
	v, ok := errors.Detail(err, "vertex")
	assert.True(t, ok)
	assert.Equal(t, 0, v)
}

func TestConstructStoichiometryWarning(t *testing.T) {
	res, err := Construct(context.Background(), []*molecule.BuildingBlock{bromoBlock(t, 1)}, chainGraph(t), Options{Scale: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, res.NumNewBonds)
	require.Len(t, res.Warnings, 1)
	w := res.Warnings[0]
	assert.Equal(t, 1, w.Edge)
	assert.Equal(t, SiteRef{Kind: SiteVertex, ID: 1}, w.From)
	assert.Equal(t, SiteRef{Kind: SiteVertex, ID: 2}, w.To)
	assert.Equal(t, []int{5}, w.Unpaired)
	assert.Equal(t, 7, res.Molecule.NumAtoms(), "unreacted bromine stays")
}

func TestBuilderStages(t *testing.T) {
	b, err := NewBuilder([]*molecule.BuildingBlock{bromoBlock(t, 1)}, pairGraph(t), Options{Scale: 1})
	require.NoError(t, err)
	assert.Equal(t, StateUnbuilt, b.State())

	err = b.Bond()
	assert.True(t, errors.Is(err, errors.ErrCodeInternal), "bonding before placement")

	require.NoError(t, b.Assign())
	require.NoError(t, b.Place(context.Background()))
	assert.Equal(t, StatePlaced, b.State())

	p, ok := b.Placement(SiteRef{Kind: SiteVertex, ID: 1})
	require.True(t, ok)
	assertVecInDelta(t, r3.Vec{Z: 10}, p.Positions[p.Bonders[0]], 1e-9)

	require.NoError(t, b.Bond())
	res, err := b.Complete()
	require.NoError(t, err)
	assert.Equal(t, StateComplete, b.State())
	assert.Equal(t, 1, res.NumNewBonds)
}

func TestConstructCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Construct(ctx, []*molecule.BuildingBlock{bromoBlock(t, 1)}, pairGraph(t), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewBuilderValidation(t *testing.T) {
	_, err := NewBuilder(nil, pairGraph(t), Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	_, err = NewBuilder([]*molecule.BuildingBlock{bromoBlock(t, 1)}, NewGraph("empty"), Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	_, err = NewBuilder([]*molecule.BuildingBlock{bromoBlock(t, 1)}, pairGraph(t), Options{EdgeAlignments: map[int]int{0: 2}})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "placed", StatePlaced.String())
	assert.Equal(t, "unknown", State(42).String())
}
