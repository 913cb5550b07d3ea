package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/molforge/pkg/errors"
	"github.com/matzehuels/molforge/pkg/molecule"
)

func chainGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph("chain", WithoutLinkers())
	for _, x := range []float64{0, 10, 25} {
		g.AddVertex(r3.Vec{X: x})
	}
	for i := range 2 {
		_, err := g.AddEdge([]int{i, i + 1})
		require.NoError(t, err)
	}
	return g
}

func TestExplicitAssignment(t *testing.T) {
	blocks := []*molecule.BuildingBlock{bromoBlock(t, 1), bromoBlock(t, 2)}
	b, err := NewBuilder(blocks, chainGraph(t), Options{
		VertexBlocks: map[int][]int{0: {0, 2}, 1: {1}},
		Scale:        1,
	})
	require.NoError(t, err)
	require.NoError(t, b.Assign())

	assert.Equal(t, StateBuildingBlocksAssigned, b.State())
	assert.Equal(t, map[SiteRef]int{
		{Kind: SiteVertex, ID: 0}: 0,
		{Kind: SiteVertex, ID: 1}: 1,
		{Kind: SiteVertex, ID: 2}: 0,
	}, b.Assignment())
}

func TestAssignmentErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"unknown block", Options{VertexBlocks: map[int][]int{5: {0}}}},
		{"unknown vertex", Options{VertexBlocks: map[int][]int{0: {0, 1, 2, 3}}}},
		{"vertex twice", Options{VertexBlocks: map[int][]int{0: {0, 1, 2}, 1: {1}}}},
		{"missing vertex", Options{VertexBlocks: map[int][]int{0: {0, 2}}}},
		{"edge blocks without linkers", Options{EdgeBlocks: map[int][]int{0: {0}}}},
	}
	blocks := []*molecule.BuildingBlock{bromoBlock(t, 1), bromoBlock(t, 2)}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBuilder(blocks, chainGraph(t), tt.opts)
			require.NoError(t, err)
			err = b.Assign()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidAssignment))
			assert.Equal(t, StateUnbuilt, b.State())
		})
	}
}

func TestAutomaticAssignment(t *testing.T) {
	g, err := BuildBuiltin("four_plus_six", [3]int{}, false)
	require.NoError(t, err)
	linker, vertex := bromoBlock(t, 2), bromoBlock(t, 3)

	b, err := NewBuilder([]*molecule.BuildingBlock{linker, vertex}, g, Options{})
	require.NoError(t, err)
	require.NoError(t, b.Assign())
	for ref, block := range b.Assignment() {
		if ref.Kind == SiteVertex {
			assert.Equal(t, 1, block, "vertex %d", ref.ID)
		} else {
			assert.Equal(t, 0, block, "edge %d", ref.ID)
		}
	}
	assert.Len(t, b.Assignment(), 10)

	b, err = NewBuilder([]*molecule.BuildingBlock{vertex}, g, Options{})
	require.NoError(t, err)
	assert.True(t, errors.Is(b.Assign(), errors.ErrCodeInvalidAssignment), "linkers needed")
}

func TestRandomAssignmentIsSeeded(t *testing.T) {
	g, err := BuildBuiltin("honeycomb", [3]int{3, 3, 1}, true)
	require.NoError(t, err)
	blocks := []*molecule.BuildingBlock{bromoBlock(t, 3), bromoBlock(t, 3), bromoBlock(t, 2), bromoBlock(t, 2)}

	assign := func(seed uint64) map[SiteRef]int {
		b, err := NewBuilder(blocks, g, Options{Policy: AssignRandom, Seed: seed})
		require.NoError(t, err)
		require.NoError(t, b.Assign())
		return b.Assignment()
	}
	first := assign(42)
	assert.Equal(t, first, assign(42))
	for ref, block := range first {
		if ref.Kind == SiteVertex {
			assert.Contains(t, []int{0, 1}, block)
		} else {
			assert.Contains(t, []int{2, 3}, block)
		}
	}
}

func TestParseAssignmentPolicy(t *testing.T) {
	tests := []struct {
		in   string
		want AssignmentPolicy
	}{
		{"", AssignRoundRobin},
		{"round-robin", AssignRoundRobin},
		{"Random", AssignRandom},
	}
	for _, tt := range tests {
		got, err := ParseAssignmentPolicy(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	_, err := ParseAssignmentPolicy("greedy")
	assert.Error(t, err)
}
