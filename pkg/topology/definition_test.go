package topology

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/molforge/pkg/errors"
)

const squareTOML = `
name = "my_square"
fractional = true

[lattice]
a = [1.0, 0.0, 0.0]
b = [0.0, 1.0, 0.0]
c = [0.0, 0.0, 1.0]

[[vertices]]
position = [0.5, 0.5, 0.0]

[[edges]]
vertices = [0, 0]
offset = [1, 0, 0]

[[edges]]
vertices = [0, 0]
offset = [0, 1, 0]
`

func TestLoadDefinition(t *testing.T) {
	d, err := LoadDefinition(strings.NewReader(squareTOML))
	require.NoError(t, err)
	assert.Equal(t, "my_square", d.Name)
	assert.True(t, d.IsPeriodic())
	require.Len(t, d.Edges, 2)
	assert.Equal(t, [3]int{0, 1, 0}, d.Edges[1].Offset)

	periodic, err := d.Build([3]int{2, 2, 1}, true)
	require.NoError(t, err)
	assert.Equal(t, 4, periodic.NumVertices())
	assert.Equal(t, 8, periodic.NumEdges())
	for _, v := range periodic.Vertices() {
		assert.Len(t, periodic.Neighbors(v), 4, "vertex %d", v.ID())
	}
	l, ok := periodic.Lattice()
	require.True(t, ok)
	assertVecInDelta(t, r3.Vec{X: 2}, l.A, 1e-12)

	open, err := d.Build([3]int{2, 2, 1}, false)
	require.NoError(t, err)
	assert.Equal(t, 4, open.NumEdges())
	assert.False(t, open.IsPeriodic())
}

func TestLoadDefinitionErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		code errors.Code
	}{
		{"bad toml", "name = ", errors.ErrCodeInvalidFormat},
		{"no vertices", `name = "x"`, errors.ErrCodeTopology},
		{"unknown vertex", "name = \"x\"\n[[vertices]]\nposition = [0.0, 0.0, 0.0]\n[[edges]]\nvertices = [0, 3]\n", errors.ErrCodeTopology},
		{"offset without lattice", "name = \"x\"\n[[vertices]]\nposition = [0.0, 0.0, 0.0]\n[[edges]]\nvertices = [0, 0]\noffset = [1, 0, 0]\n", errors.ErrCodeTopology},
		{"linkerless hyperedge", "name = \"x\"\nlinkerless = true\n[[vertices]]\nposition = [0.0, 0.0, 0.0]\n[[edges]]\nvertices = [0, 0, 0]\n", errors.ErrCodeTopology},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDefinition(strings.NewReader(tt.toml))
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestSquareSelfLoop(t *testing.T) {
	g, err := BuildBuiltin("square", [3]int{1, 1, 1}, true)
	require.NoError(t, err)
	v, _ := g.Vertex(0)
	neighbors := g.Neighbors(v)
	require.Len(t, neighbors, 4)

	got := make([]r3.Vec, len(neighbors))
	for i, n := range neighbors {
		got[i] = n.Position
	}
	want := []r3.Vec{{X: 1, Y: 0.5}, {X: 0, Y: 0.5}, {X: 0.5, Y: 1}, {X: 0.5, Y: 0}}
	for i := range want {
		assertVecInDelta(t, want[i], got[i], 1e-12)
	}
}

func TestBuiltins(t *testing.T) {
	tests := []struct {
		name     string
		size     [3]int
		periodic bool
		vertices int
		edges    int
		degree   int
		linkers  bool
	}{
		{"two_plus_three", [3]int{}, false, 2, 3, 3, true},
		{"four_plus_six", [3]int{}, false, 4, 6, 3, true},
		{"eight_plus_twelve", [3]int{}, false, 8, 12, 3, true},
		{"four_plus_four", [3]int{}, false, 8, 12, 3, false},
		{"honeycomb", [3]int{2, 2, 1}, true, 8, 12, 3, true},
		{"linkerless_honeycomb", [3]int{3, 3, 1}, true, 18, 27, 3, false},
		{"hexagonal", [3]int{2, 2, 1}, true, 16, 48, 6, true},
		{"kagome", [3]int{2, 2, 1}, true, 12, 24, 4, true},
		{"square", [3]int{3, 3, 1}, true, 9, 18, 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := BuildBuiltin(tt.name, tt.size, tt.periodic)
			require.NoError(t, err)
			assert.Equal(t, tt.vertices, g.NumVertices())
			assert.Equal(t, tt.edges, g.NumEdges())
			assert.Equal(t, tt.linkers, g.HasLinkers())
			for _, v := range g.Vertices() {
				assert.Len(t, g.Neighbors(v), tt.degree, "vertex %d", v.ID())
			}
		})
	}
	assert.Len(t, BuiltinNames(), len(tests))
}

func TestBuiltinNames(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"FourPlusSix", "four_plus_six"},
		{"four-plus-six", "four_plus_six"},
		{"linkerless_honeycomb", "linkerless_honeycomb"},
		{"LinkerlessHoneycomb", "linkerless_honeycomb"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, canonicalName(tt.in))
	}

	_, err := Builtin("dodecahedron")
	assert.True(t, errors.Is(err, errors.ErrCodeUnknownTopology))
}

func TestOpenHoneycombDropsWrappingEdges(t *testing.T) {
	g, err := BuildBuiltin("honeycomb", [3]int{2, 2, 1}, false)
	require.NoError(t, err)
	assert.Equal(t, 8, g.NumEdges())
	_, ok := g.Lattice()
	assert.False(t, ok)
}
