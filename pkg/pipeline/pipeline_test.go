package pipeline

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/molforge/pkg/errors"
	molio "github.com/matzehuels/molforge/pkg/io"
	"github.com/matzehuels/molforge/pkg/molecule"
	"github.com/matzehuels/molforge/pkg/recipe"
	"github.com/matzehuels/molforge/pkg/topology"
)

// bromoBlock returns a core carbon lifted above n planar C-Br arms.
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
	if err != nil {
		t.Fatal(err)
	}
	bb, err := molecule.NewBuildingBlock(m, groups...)
	if err != nil {
		t.Fatal(err)
	}
	return bb
}

func blockJSON(t *testing.T, n int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := molio.WriteBuildingBlockJSON(&buf, bromoBlock(t, n)); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

// writeBlocks writes a three-armed and a two-armed block as json files.
func writeBlocks(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	tri := filepath.Join(dir, "tri.json")
	di := filepath.Join(dir, "di.json")
	if err := os.WriteFile(tri, []byte(blockJSON(t, 3)), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(di, []byte(blockJSON(t, 2)), 0o644); err != nil {
		t.Fatal(err)
	}
	return tri, di
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"mol", false},
		{"sdf", false},
		{"xyz", false},
		{"pdb", false},
		{"json", false},
		{"svg", false},
		{"dot", false},
		{"cif", true},
		{"MOL", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"mol", "xyz"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"mol", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	opts := Options{Blocks: []BlockSource{{Path: "a.mol"}}, Topology: "square"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}
	if opts.Lattice != DefaultLattice {
		t.Errorf("Lattice = %v, want %v", opts.Lattice, DefaultLattice)
	}
	if opts.Seed != DefaultSeed {
		t.Errorf("Seed = %v, want %v", opts.Seed, DefaultSeed)
	}
	if opts.Parallelism != DefaultParallelism {
		t.Errorf("Parallelism = %v, want %v", opts.Parallelism, DefaultParallelism)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != DefaultFormat {
		t.Errorf("Formats = %v, want [%s]", opts.Formats, DefaultFormat)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	// Idempotent
	opts.Formats = []string{"bogus"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call should be a no-op, got %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	def := &topology.Definition{Name: "pair", Vertices: []topology.VertexDef{{}}}
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"no blocks", Options{Topology: "square"}, errors.ErrCodeInvalidInput},
		{"empty block", Options{Blocks: []BlockSource{{}}, Topology: "square"}, errors.ErrCodeInvalidInput},
		{"inline without name", Options{Blocks: []BlockSource{{Data: "x"}}, Topology: "square"}, errors.ErrCodeInvalidPath},
		{"no topology", Options{Blocks: []BlockSource{{Path: "a.mol"}}}, errors.ErrCodeInvalidInput},
		{"two topologies", Options{Blocks: []BlockSource{{Path: "a.mol"}}, Topology: "square", Definition: def}, errors.ErrCodeInvalidInput},
		{"bad lattice", Options{Blocks: []BlockSource{{Path: "a.mol"}}, Topology: "square", Lattice: [3]int{1, -1, 1}}, errors.ErrCodeInvalidInput},
		{"bad policy", Options{Blocks: []BlockSource{{Path: "a.mol"}}, Topology: "square", Policy: "greedy"}, errors.ErrCodeInvalidInput},
		{"bad alignment", Options{Blocks: []BlockSource{{Path: "a.mol"}}, Topology: "square", EdgeAlignments: map[int]int{0: 0}}, errors.ErrCodeInvalidInput},
		{"negative aligner", Options{Blocks: []BlockSource{{Path: "a.mol"}}, Topology: "square", VertexAligners: map[int]int{1: -2}}, errors.ErrCodeInvalidInput},
		{"bad format", Options{Blocks: []BlockSource{{Path: "a.mol"}}, Topology: "square", Formats: []string{"gif"}}, errors.ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %v, want %v (%v)", got, tt.code, err)
			}
		})
	}
}

func TestFromRecipe(t *testing.T) {
	src := `
[topology]
name = "honeycomb"
lattice = [2, 2, 1]
periodic = true

[[blocks]]
path = "tri.mol"
groups = ["bromo"]
vertices = [0, 1]

[build]
seed = 9
edge_alignments = { "3" = -1 }
vertex_aligners = { "1" = 2 }

[output]
formats = ["pdb"]
`
	r, err := recipe.Decode(strings.NewReader(src), "/data")
	if err != nil {
		t.Fatal(err)
	}
	opts, err := FromRecipe(r)
	if err != nil {
		t.Fatalf("FromRecipe() error = %v", err)
	}
	if opts.Topology != "honeycomb" || !opts.Periodic || opts.Lattice != [3]int{2, 2, 1} {
		t.Errorf("topology options = %q %v %v", opts.Topology, opts.Periodic, opts.Lattice)
	}
	if got := opts.Blocks[0].Path; got != filepath.Join("/data", "tri.mol") {
		t.Errorf("block path = %q", got)
	}
	if opts.Seed != 9 || opts.EdgeAlignments[3] != -1 {
		t.Errorf("seed = %d, alignments = %v", opts.Seed, opts.EdgeAlignments)
	}
	if got := opts.TopologyOptions().VertexAligners; got[1] != 2 {
		t.Errorf("VertexAligners = %v", got)
	}
	if got := opts.VertexBlocks[0]; len(got) != 2 {
		t.Errorf("VertexBlocks = %v", opts.VertexBlocks)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != "pdb" {
		t.Errorf("Formats = %v", opts.Formats)
	}
}

func TestBuildGraph(t *testing.T) {
	g, id, err := BuildGraph(Options{Topology: "FourPlusSix", Lattice: DefaultLattice})
	if err != nil {
		t.Fatal(err)
	}
	if id != "four_plus_six" || g.NumVertices() != 4 {
		t.Errorf("BuildGraph() = %q with %d vertices", id, g.NumVertices())
	}

	if _, _, err := BuildGraph(Options{Topology: "nope", Lattice: DefaultLattice}); !errors.Is(err, errors.ErrCodeUnknownTopology) {
		t.Errorf("unknown topology error = %v", err)
	}

	def := &topology.Definition{
		Name:       "pair",
		Linkerless: true,
		Vertices:   []topology.VertexDef{{}, {Position: [3]float64{0, 0, 10}}},
		Edges:      []topology.EdgeDef{{Vertices: []int{0, 1}}},
	}
	_, id1, err := BuildGraph(Options{Definition: def, Lattice: DefaultLattice})
	if err != nil {
		t.Fatal(err)
	}
	_, id2, _ := BuildGraph(Options{Definition: def, Lattice: DefaultLattice})
	if !strings.HasPrefix(id1, "inline:") || id1 != id2 {
		t.Errorf("inline ids = %q, %q", id1, id2)
	}
}

func TestLoadBlockInline(t *testing.T) {
	bb, err := LoadBlock(BlockSource{Name: "tri.json", Data: blockJSON(t, 3)})
	if err != nil {
		t.Fatal(err)
	}
	if bb.NumFunctionalGroups() != 3 {
		t.Errorf("functional groups = %d, want 3", bb.NumFunctionalGroups())
	}

	var buf bytes.Buffer
	if err := molio.WriteMol(&buf, bromoBlock(t, 2).Molecule); err != nil {
		t.Fatal(err)
	}
	bb, err = LoadBlock(BlockSource{Name: "di.mol", Data: buf.String(), Groups: []string{"bromo"}})
	if err != nil {
		t.Fatal(err)
	}
	if bb.NumFunctionalGroups() != 2 {
		t.Errorf("detected functional groups = %d, want 2", bb.NumFunctionalGroups())
	}

	if _, err := LoadBlock(BlockSource{Name: "x.mol", Data: "x", Groups: []string{"ketone"}}); err == nil {
		t.Error("unknown group should fail")
	}
	if _, err := LoadBlock(BlockSource{Name: "x.cif", Data: "x"}); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("unknown extension error = %v", err)
	}
}

func TestExport(t *testing.T) {
	m := bromoBlock(t, 2).Molecule
	artifacts, err := Export(m, []string{FormatXYZ, FormatDOT})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(artifacts[FormatXYZ]), "5\n") {
		t.Errorf("xyz = %q", artifacts[FormatXYZ])
	}
	if !strings.HasPrefix(string(artifacts[FormatDOT]), "graph G {") {
		t.Errorf("dot = %q", artifacts[FormatDOT])
	}
}
