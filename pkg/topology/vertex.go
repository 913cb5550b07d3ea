package topology

import (
	"fmt"
	"iter"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vertex is a node of a topology graph.
//
// Vertices are created by [Graph.AddVertex]; edge ids are recorded as edges
// are added, in construction order.
type Vertex struct {
	id       int
	position r3.Vec
	cell     [3]int
	edges    []int
	custom   bool
	meta     Metadata
}

// VertexOption configures a vertex created by [Graph.AddVertex].
type VertexOption func(*Vertex)

// WithCell sets the lattice cell the vertex belongs to.
func WithCell(cell [3]int) VertexOption {
	return func(v *Vertex) { v.cell = cell }
}

// WithDerivedPosition marks the vertex position as a placeholder: building
// blocks are centred on the centroid of the connected sites instead of on
// the vertex position. A vertex with a single connection keeps the
// placeholder.
func WithDerivedPosition() VertexOption {
	return func(v *Vertex) { v.custom = false }
}

// WithVertexMetadata attaches an annotation.
func WithVertexMetadata(key string, value any) VertexOption {
	return func(v *Vertex) {
		if v.meta == nil {
			v.meta = make(Metadata)
		}
		v.meta[key] = value
	}
}

// ID returns the vertex id, unique within its graph.
func (v *Vertex) ID() int { return v.id }

// Kind returns [SiteVertex].
func (v *Vertex) Kind() SiteKind { return SiteVertex }

// Position returns the vertex position.
func (v *Vertex) Position() r3.Vec { return v.position }

// Cell returns the lattice cell of the vertex. It is the zero triple for
// non-periodic graphs.
func (v *Vertex) Cell() [3]int { return v.cell }

// IsCustomPosition reports whether building blocks are centred on the vertex
// position itself.
func (v *Vertex) IsCustomPosition() bool { return v.custom }

// EdgeIDs returns the ids of the incident edges in construction order. The
// sequence can be iterated any number of times.
func (v *Vertex) EdgeIDs() iter.Seq[int] {
	return slices.Values(v.edges)
}

// NumEdges returns the number of incident edges.
func (v *Vertex) NumEdges() int { return len(v.edges) }

// ApplyScale multiplies the position by factor. The custom-position flag is
// kept.
func (v *Vertex) ApplyScale(factor float64) {
	v.position = r3.Scale(factor, v.position)
}

// Metadata returns the annotation stored under key.
func (v *Vertex) Metadata(key string) (any, bool) {
	val, ok := v.meta[key]
	return val, ok
}

// SetMetadata stores an annotation. Keys starting with an underscore are
// dropped by Clone.
func (v *Vertex) SetMetadata(key string, value any) {
	if v.meta == nil {
		v.meta = make(Metadata)
	}
	v.meta[key] = value
}

// Clone returns a deep copy that shares no state with v. Internal
// annotations are dropped.
func (v *Vertex) Clone() *Vertex {
	return &Vertex{
		id:       v.id,
		position: v.position,
		cell:     v.cell,
		edges:    slices.Clone(v.edges),
		custom:   v.custom,
		meta:     v.meta.public(),
	}
}

func (v *Vertex) String() string {
	return fmt.Sprintf("Vertex(%d, [%.3g %.3g %.3g])", v.id, v.position.X, v.position.Y, v.position.Z)
}
