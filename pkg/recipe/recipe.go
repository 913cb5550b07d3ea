// Package recipe reads build recipes: TOML files that name the building
// blocks, the topology and the options of one construction.
//
//	name = "imine-cage"
//
//	[topology]
//	name = "four_plus_six"
//
//	[[blocks]]
//	path = "triamine.mol"
//	groups = ["primary_amino"]
//
//	[[blocks]]
//	path = "dialdehyde.mol"
//	groups = ["aldehyde"]
//
//	[build]
//	seed = 7
//
//	[output]
//	formats = ["mol", "xyz"]
//
// Relative paths are resolved against the directory of the recipe file.
package recipe

import (
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/molforge/pkg/errors"
	"github.com/matzehuels/molforge/pkg/molecule"
	"github.com/matzehuels/molforge/pkg/topology"
)

// Recipe is one construction.
type Recipe struct {
	Name     string   `toml:"name"`
	Topology Topology `toml:"topology"`
	Blocks   []Block  `toml:"blocks"`
	Build    Build    `toml:"build"`
	Output   Output   `toml:"output"`

	// dir is the directory relative paths are resolved against.
	dir string
}

// Topology selects the graph. Exactly one of Name, File and Graph is set.
type Topology struct {
	Name     string               `toml:"name"`
	File     string               `toml:"file"`
	Graph    *topology.Definition `toml:"graph"`
	Lattice  [3]int               `toml:"lattice"`
	Periodic bool                 `toml:"periodic"`
}

// Block is one building block file.
type Block struct {
	Path   string `toml:"path"`
	Format string `toml:"format"`
	// Groups restricts functional group detection to these kinds.
	Groups []string `toml:"groups"`
	// Vertices and Edges place the block explicitly.
	Vertices []int `toml:"vertices"`
	Edges    []int `toml:"edges"`
}

// Build holds construction options. Alignment tables are keyed by site id.
// VertexAlignments picks the connection a vertex block faces and
// VertexAligners the functional group that faces it.
type Build struct {
	Policy           string         `toml:"policy"`
	Seed             uint64         `toml:"seed"`
	Scale            float64        `toml:"scale"`
	Parallelism      int            `toml:"parallelism"`
	VertexAlignments map[string]int `toml:"vertex_alignments"`
	VertexAligners   map[string]int `toml:"vertex_aligners"`
	EdgeAlignments   map[string]int `toml:"edge_alignments"`
}

// Output selects the exported files.
type Output struct {
	Dir     string   `toml:"dir"`
	Formats []string `toml:"formats"`
}

// Load reads and validates the recipe at path.
func Load(path string) (*Recipe, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "recipe %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open recipe %s", path)
	}
	defer f.Close()

	r, err := Decode(f, filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	if r.Name == "" {
		r.Name = trimExt(filepath.Base(path))
	}
	return r, nil
}

// Decode reads a recipe whose relative paths resolve against dir.
func Decode(rd io.Reader, dir string) (*Recipe, error) {
	var r Recipe
	md, err := toml.NewDecoder(rd).Decode(&r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRecipe, err, "decode recipe")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidRecipe, "unknown recipe key %q", undecoded[0].String())
	}
	r.dir = dir
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks the recipe without touching the filesystem.
func (r *Recipe) Validate() error {
	if len(r.Blocks) == 0 {
		return errors.New(errors.ErrCodeInvalidRecipe, "recipe has no blocks")
	}
	for i, b := range r.Blocks {
		if b.Path == "" {
			return errors.New(errors.ErrCodeInvalidRecipe, "block %d has no path", i).WithDetail("block", i)
		}
		for _, g := range b.Groups {
			if !molecule.Kind(g).Valid() {
				return errors.New(errors.ErrCodeInvalidRecipe, "block %d: unknown functional group %q", i, g).
					WithDetail("block", i)
			}
		}
	}

	set := 0
	for _, ok := range []bool{r.Topology.Name != "", r.Topology.File != "", r.Topology.Graph != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return errors.New(errors.ErrCodeInvalidRecipe, "topology needs exactly one of name, file or graph")
	}
	if r.Topology.Lattice != [3]int{} {
		if err := errors.ValidateLatticeSize(r.Topology.Lattice); err != nil {
			return err
		}
	}

	if _, err := topology.ParseAssignmentPolicy(r.Build.Policy); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRecipe, err, "build.policy")
	}
	if r.Build.Parallelism < 0 {
		return errors.New(errors.ErrCodeInvalidRecipe, "build.parallelism must not be negative")
	}
	if _, err := siteTable("build.vertex_alignments", r.Build.VertexAlignments); err != nil {
		return err
	}
	aligners, err := siteTable("build.vertex_aligners", r.Build.VertexAligners)
	if err != nil {
		return err
	}
	for id, g := range aligners {
		if g < 0 {
			return errors.New(errors.ErrCodeInvalidRecipe, "build.vertex_aligners: vertex %d has negative group %d", id, g)
		}
	}
	edges, err := siteTable("build.edge_alignments", r.Build.EdgeAlignments)
	if err != nil {
		return err
	}
	for id, a := range edges {
		if err := errors.ValidateEdgeAlignment(id, a); err != nil {
			return err
		}
	}
	return nil
}

// Path resolves p against the recipe directory.
func (r *Recipe) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || r.dir == "" {
		return p
	}
	return filepath.Join(r.dir, p)
}

// Dir returns the directory relative paths resolve against.
func (r *Recipe) Dir() string { return r.dir }

// Size returns the lattice size, defaulting to a single cell.
func (r *Recipe) Size() [3]int {
	if r.Topology.Lattice == [3]int{} {
		return [3]int{1, 1, 1}
	}
	return r.Topology.Lattice
}

// Graph builds the topology graph the recipe selects.
func (r *Recipe) Graph() (*topology.Graph, error) {
	def, err := r.Definition()
	if err != nil {
		return nil, err
	}
	return def.Build(r.Size(), r.Topology.Periodic)
}

// Definition returns the topology definition the recipe selects.
func (r *Recipe) Definition() (*topology.Definition, error) {
	switch {
	case r.Topology.Graph != nil:
		if err := r.Topology.Graph.Validate(); err != nil {
			return nil, err
		}
		return r.Topology.Graph, nil
	case r.Topology.File != "":
		path := r.Path(r.Topology.File)
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "topology %s", path)
		}
		defer f.Close()
		return topology.LoadDefinition(f)
	default:
		return topology.Builtin(r.Topology.Name)
	}
}

// Kinds returns the functional group kinds of block i.
func (b Block) Kinds() []molecule.Kind {
	kinds := make([]molecule.Kind, len(b.Groups))
	for i, g := range b.Groups {
		kinds[i] = molecule.Kind(g)
	}
	return kinds
}

// Assignment returns the explicit vertex and edge placements of the blocks,
// keyed by block index. Blocks without placements are omitted.
func (r *Recipe) Assignment() (vertices, edges map[int][]int) {
	for i, b := range r.Blocks {
		if len(b.Vertices) > 0 {
			if vertices == nil {
				vertices = make(map[int][]int)
			}
			vertices[i] = slices.Clone(b.Vertices)
		}
		if len(b.Edges) > 0 {
			if edges == nil {
				edges = make(map[int][]int)
			}
			edges[i] = slices.Clone(b.Edges)
		}
	}
	return vertices, edges
}

// Alignments returns the alignment tables keyed by site id.
func (r *Recipe) Alignments() (vertices, edges map[int]int) {
	vertices, _ = siteTable("", r.Build.VertexAlignments)
	edges, _ = siteTable("", r.Build.EdgeAlignments)
	return vertices, edges
}

// Aligners returns the aligner functional group of each vertex keyed by
// vertex id.
func (r *Recipe) Aligners() map[int]int {
	aligners, _ := siteTable("", r.Build.VertexAligners)
	return aligners
}

// siteTable converts a TOML table keyed by decimal site ids.
func siteTable(name string, in map[string]int) (map[int]int, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[int]int, len(in))
	for k, v := range in {
		id, err := strconv.Atoi(k)
		if err != nil || id < 0 {
			return nil, errors.New(errors.ErrCodeInvalidRecipe, "%s: %q is not a site id", name, k)
		}
		out[id] = v
	}
	return out, nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
