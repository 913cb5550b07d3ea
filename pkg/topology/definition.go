package topology

import (
	"io"

	"github.com/BurntSushi/toml"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/molforge/pkg/errors"
)

// Definition describes the unit cell of a topology. Built-in topologies are
// definitions, and recipes may carry their own under [topology.graph].
//
//	name = "square"
//	fractional = true
//
//	[lattice]
//	a = [1.0, 0.0, 0.0]
//	b = [0.0, 1.0, 0.0]
//	c = [0.0, 0.0, 1.0]
//
//	[[vertices]]
//	position = [0.5, 0.5, 0.0]
//
//	[[edges]]
//	vertices = [0, 0]
//	offset = [1, 0, 0]
type Definition struct {
	Name        string      `toml:"name" json:"name"`
	Description string      `toml:"description,omitempty" json:"description,omitempty"`
	Linkerless  bool        `toml:"linkerless,omitempty" json:"linkerless,omitempty"`
	Fractional  bool        `toml:"fractional,omitempty" json:"fractional,omitempty"`
	Lattice     *LatticeDef `toml:"lattice,omitempty" json:"lattice,omitempty"`
	Vertices    []VertexDef `toml:"vertices" json:"vertices"`
	Edges       []EdgeDef   `toml:"edges" json:"edges"`
}

// LatticeDef holds the cell vectors of a periodic definition.
type LatticeDef struct {
	A [3]float64 `toml:"a" json:"a"`
	B [3]float64 `toml:"b" json:"b"`
	C [3]float64 `toml:"c" json:"c"`
}

// VertexDef is one vertex of the unit cell.
type VertexDef struct {
	Position [3]float64 `toml:"position" json:"position"`
	// Derived vertices are centred on their connected sites instead of at
	// Position.
	Derived bool `toml:"derived,omitempty" json:"derived,omitempty"`
}

// EdgeDef is one edge of the unit cell. Offset is the cell of the last
// vertex relative to the others.
type EdgeDef struct {
	Vertices []int       `toml:"vertices" json:"vertices"`
	Offset   [3]int      `toml:"offset,omitempty" json:"offset,omitempty"`
	Position *[3]float64 `toml:"position,omitempty" json:"position,omitempty"`
}

// LoadDefinition decodes a TOML definition and validates it.
func LoadDefinition(r io.Reader) (*Definition, error) {
	var d Definition
	if _, err := toml.NewDecoder(r).Decode(&d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode topology definition")
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks vertex references and that periodic edges have a lattice.
func (d *Definition) Validate() error {
	if len(d.Vertices) == 0 {
		return errors.New(errors.ErrCodeTopology, "topology %q has no vertices", d.Name)
	}
	if d.Fractional && d.Lattice == nil {
		return errors.New(errors.ErrCodeTopology, "topology %q uses fractional positions without a lattice", d.Name)
	}
	for i, e := range d.Edges {
		if len(e.Vertices) < 2 {
			return errors.New(errors.ErrCodeTopology, "edge %d connects %d vertices, need at least 2", i, len(e.Vertices)).
				WithDetail("edge", i)
		}
		if d.Linkerless && len(e.Vertices) != 2 {
			return errors.New(errors.ErrCodeTopology, "edge %d connects %d vertices; linkerless topologies need exactly 2", i, len(e.Vertices)).
				WithDetail("edge", i)
		}
		for _, v := range e.Vertices {
			if v < 0 || v >= len(d.Vertices) {
				return errors.New(errors.ErrCodeTopology, "edge %d references unknown vertex %d", i, v).
					WithDetail("edge", i).WithDetail("vertex", v)
			}
		}
		if e.Offset != [3]int{} && d.Lattice == nil {
			return errors.New(errors.ErrCodeTopology, "edge %d has a cell offset but topology %q has no lattice", i, d.Name).
				WithDetail("edge", i)
		}
	}
	return nil
}

// IsPeriodic reports whether the definition has a lattice.
func (d *Definition) IsPeriodic() bool { return d.Lattice != nil }

func (d *Definition) lattice() Lattice {
	return Lattice{A: vec(d.Lattice.A), B: vec(d.Lattice.B), C: vec(d.Lattice.C)}
}

func (d *Definition) position(p [3]float64, cell [3]int) r3.Vec {
	if d.Lattice == nil {
		return vec(p)
	}
	l := d.lattice()
	if d.Fractional {
		return l.Cartesian([3]float64{p[0] + float64(cell[0]), p[1] + float64(cell[1]), p[2] + float64(cell[2])})
	}
	return r3.Add(vec(p), l.Shift(cell))
}

// Build expands the definition into a size[0]×size[1]×size[2] block of
// cells. Definitions without a lattice ignore size. When periodic is false,
// edges wrapping around the block are dropped; otherwise they keep their
// offset in units of the whole block and the graph gets the block's lattice.
func (d *Definition) Build(size [3]int, periodic bool) (*Graph, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if d.Lattice == nil {
		size = [3]int{1, 1, 1}
	}
	for _, n := range size {
		if n < 1 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "lattice size %v must be positive", size)
		}
	}

	var opts []GraphOption
	if d.Linkerless {
		opts = append(opts, WithoutLinkers())
	}
	if d.Lattice != nil && periodic {
		opts = append(opts, WithLattice(d.lattice().Supercell(size)))
	}
	g := NewGraph(d.Name, opts...)

	cells := cellsOf(size)
	index := func(cell [3]int, vertex int) int {
		return cellIndex(cell, size)*len(d.Vertices) + vertex
	}
	for _, cell := range cells {
		for _, v := range d.Vertices {
			vopts := []VertexOption{WithCell(cell)}
			if v.Derived {
				vopts = append(vopts, WithDerivedPosition())
			}
			g.AddVertex(d.position(v.Position, cell), vopts...)
		}
	}

	for _, cell := range cells {
		for _, e := range d.Edges {
			ids := make([]int, len(e.Vertices))
			last := len(ids) - 1
			for k, v := range e.Vertices[:last] {
				ids[k] = index(cell, v)
			}
			var target, wrap [3]int
			for i := range 3 {
				c := cell[i] + e.Offset[i]
				wrap[i] = floorDiv(c, size[i])
				target[i] = c - wrap[i]*size[i]
			}
			if wrap != [3]int{} && !periodic {
				continue
			}
			ids[last] = index(target, e.Vertices[last])

			var eopts []EdgeOption
			if wrap != [3]int{} {
				eopts = append(eopts, WithPeriodicity(wrap))
			}
			if e.Position != nil {
				eopts = append(eopts, WithEdgePosition(d.position(*e.Position, cell)))
			}
			if _, err := g.AddEdge(ids, eopts...); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

func cellsOf(size [3]int) [][3]int {
	var out [][3]int
	for x := range size[0] {
		for y := range size[1] {
			for z := range size[2] {
				out = append(out, [3]int{x, y, z})
			}
		}
	}
	return out
}

func cellIndex(cell, size [3]int) int {
	return (cell[0]*size[1]+cell[1])*size[2] + cell[2]
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func vec(p [3]float64) r3.Vec { return r3.Vec{X: p[0], Y: p[1], Z: p[2]} }
