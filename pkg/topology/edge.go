package topology

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/molforge/pkg/geometry"
)

// Edge connects two or more vertices.
//
// For a periodic edge the last vertex is the image Periodicity cells away
// from the one stored in the graph. The edge position is the centroid of the
// unwrapped endpoints unless a custom position was given.
type Edge struct {
	id          int
	vertices    []int
	periodicity [3]int
	cell        [3]int
	shift       r3.Vec
	position    r3.Vec
	custom      bool
	meta        Metadata
}

// EdgeOption configures an edge created by [Graph.AddEdge].
type EdgeOption func(*Edge)

// WithPeriodicity sets the cell offset of the last endpoint.
func WithPeriodicity(offset [3]int) EdgeOption {
	return func(e *Edge) { e.periodicity = offset }
}

// WithEdgePosition places the edge at p instead of at the centroid of its
// endpoints.
func WithEdgePosition(p r3.Vec) EdgeOption {
	return func(e *Edge) {
		e.position = p
		e.custom = true
	}
}

// WithEdgeMetadata attaches an annotation.
func WithEdgeMetadata(key string, value any) EdgeOption {
	return func(e *Edge) {
		if e.meta == nil {
			e.meta = make(Metadata)
		}
		e.meta[key] = value
	}
}

// ID returns the edge id, unique within its graph.
func (e *Edge) ID() int { return e.id }

// Kind returns [SiteEdge].
func (e *Edge) Kind() SiteKind { return SiteEdge }

// Position returns the edge position.
func (e *Edge) Position() r3.Vec { return e.position }

// Cell returns the lattice cell of the first vertex.
func (e *Edge) Cell() [3]int { return e.cell }

// IsCustomPosition reports whether the edge position was set explicitly.
func (e *Edge) IsCustomPosition() bool { return e.custom }

// VertexIDs returns the ids of the connected vertices in order.
func (e *Edge) VertexIDs() []int { return slices.Clone(e.vertices) }

// Periodicity returns the cell offset of the last endpoint.
func (e *Edge) Periodicity() [3]int { return e.periodicity }

// IsPeriodic reports whether the edge crosses a cell boundary.
func (e *Edge) IsPeriodic() bool { return e.periodicity != [3]int{} }

// Shift returns the Cartesian translation applied to the last endpoint.
func (e *Edge) Shift() r3.Vec { return e.shift }

// Direction returns the unit vector from the first to the last endpoint.
// endpoints are the stored vertex positions in edge order; the periodic
// shift is applied to the last one.
func (e *Edge) Direction(endpoints ...r3.Vec) r3.Vec {
	if len(endpoints) < 2 {
		return r3.Vec{}
	}
	end := r3.Add(endpoints[len(endpoints)-1], e.shift)
	return geometry.Normalize(r3.Sub(end, endpoints[0]))
}

// ApplyScale multiplies the position and periodic shift by factor.
func (e *Edge) ApplyScale(factor float64) {
	e.position = r3.Scale(factor, e.position)
	e.shift = r3.Scale(factor, e.shift)
}

// Metadata returns the annotation stored under key.
func (e *Edge) Metadata(key string) (any, bool) {
	val, ok := e.meta[key]
	return val, ok
}

// SetMetadata stores an annotation.
func (e *Edge) SetMetadata(key string, value any) {
	if e.meta == nil {
		e.meta = make(Metadata)
	}
	e.meta[key] = value
}

// Clone returns a deep copy. Internal annotations are dropped.
func (e *Edge) Clone() *Edge {
	c := *e
	c.vertices = slices.Clone(e.vertices)
	c.meta = e.meta.public()
	return &c
}

// unwrapped returns the endpoint positions with the periodic shift applied
// to the last one.
func (e *Edge) unwrapped(positions []r3.Vec) []r3.Vec {
	out := slices.Clone(positions)
	if len(out) > 0 {
		out[len(out)-1] = r3.Add(out[len(out)-1], e.shift)
	}
	return out
}

func (e *Edge) String() string {
	if e.IsPeriodic() {
		return fmt.Sprintf("Edge(%d, %v, periodicity=%v)", e.id, e.vertices, e.periodicity)
	}
	return fmt.Sprintf("Edge(%d, %v)", e.id, e.vertices)
}
