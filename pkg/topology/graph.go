package topology

import (
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/molforge/pkg/geometry"
)

// Graph is a topology graph: vertices and the edges connecting them, with
// an optional lattice for periodic structures.
//
// In a graph with linkers every edge holds a building block and vertices
// connect to edges. Without linkers, vertices connect to each other
// directly and edges carry no building block.
type Graph struct {
	name     string
	vertices []*Vertex
	edges    []*Edge
	lattice  *Lattice
	linkers  bool
}

// GraphOption configures a graph created by [NewGraph].
type GraphOption func(*Graph)

// WithLattice makes the graph periodic with the given cell vectors.
func WithLattice(l Lattice) GraphOption {
	return func(g *Graph) { g.lattice = &l }
}

// WithoutLinkers makes vertices connect to each other directly.
func WithoutLinkers() GraphOption {
	return func(g *Graph) { g.linkers = false }
}

// NewGraph creates an empty graph whose edges hold linkers.
func NewGraph(name string, opts ...GraphOption) *Graph {
	g := &Graph{name: name, linkers: true}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// HasLinkers reports whether edges hold building blocks.
func (g *Graph) HasLinkers() bool { return g.linkers }

// Lattice returns the cell vectors of a periodic graph.
func (g *Graph) Lattice() (Lattice, bool) {
	if g.lattice == nil {
		return Lattice{}, false
	}
	return *g.lattice, true
}

// IsPeriodic reports whether any edge crosses a cell boundary.
func (g *Graph) IsPeriodic() bool {
	return slices.ContainsFunc(g.edges, (*Edge).IsPeriodic)
}

// AddVertex appends a vertex with the next free id.
func (g *Graph) AddVertex(position r3.Vec, opts ...VertexOption) *Vertex {
	v := &Vertex{id: len(g.vertices), position: position, custom: true}
	for _, opt := range opts {
		opt(v)
	}
	g.vertices = append(g.vertices, v)
	return v
}

// AddEdge connects the given vertices and returns the new edge. It returns
// a TOPOLOGY error when fewer than two vertices are given, a vertex is
// unknown, a periodic edge is added to a graph without lattice, or a graph
// without linkers gets an edge with more than two vertices.
func (g *Graph) AddEdge(vertexIDs []int, opts ...EdgeOption) (*Edge, error) {
	e := &Edge{id: len(g.edges), vertices: slices.Clone(vertexIDs)}
	for _, opt := range opts {
		opt(e)
	}
	ref := refOf(e)
	if len(vertexIDs) < 2 {
		return nil, siteError(ref, "edge %d connects %d vertices, need at least 2", e.id, len(vertexIDs))
	}
	if !g.linkers && len(vertexIDs) > 2 {
		return nil, siteError(ref, "edge %d connects %d vertices; graphs without linkers need exactly 2", e.id, len(vertexIDs))
	}
	positions := make([]r3.Vec, len(vertexIDs))
	for i, id := range vertexIDs {
		if id < 0 || id >= len(g.vertices) {
			return nil, siteError(ref, "edge %d references unknown vertex %d", e.id, id).WithDetail("vertex", id)
		}
		positions[i] = g.vertices[id].position
	}
	e.cell = g.vertices[vertexIDs[0]].cell
	if e.IsPeriodic() {
		if g.lattice == nil {
			return nil, siteError(ref, "periodic edge %d in a graph without lattice", e.id)
		}
		e.shift = g.lattice.Shift(e.periodicity)
	}
	if !e.custom {
		e.position = geometry.MustCentroid(e.unwrapped(positions)...)
	}

	g.edges = append(g.edges, e)
	for _, id := range slices.Compact(slices.Sorted(slices.Values(vertexIDs))) {
		g.vertices[id].edges = append(g.vertices[id].edges, e.id)
	}
	return e, nil
}

// Vertices returns the vertices ordered by id.
func (g *Graph) Vertices() []*Vertex { return slices.Clone(g.vertices) }

// Edges returns the edges ordered by id.
func (g *Graph) Edges() []*Edge { return slices.Clone(g.edges) }

// NumVertices returns the number of vertices.
func (g *Graph) NumVertices() int { return len(g.vertices) }

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int { return len(g.edges) }

// Vertex returns the vertex with the given id.
func (g *Graph) Vertex(id int) (*Vertex, bool) {
	if id < 0 || id >= len(g.vertices) {
		return nil, false
	}
	return g.vertices[id], true
}

// Edge returns the edge with the given id.
func (g *Graph) Edge(id int) (*Edge, bool) {
	if id < 0 || id >= len(g.edges) {
		return nil, false
	}
	return g.edges[id], true
}

// Site returns the site referenced by ref.
func (g *Graph) Site(ref SiteRef) (Site, bool) {
	if ref.Kind == SiteEdge {
		e, ok := g.Edge(ref.ID)
		return e, ok
	}
	v, ok := g.Vertex(ref.ID)
	return v, ok
}

// Sites returns the sites that hold building blocks: every vertex, followed
// by every edge when the graph has linkers.
func (g *Graph) Sites() []Site {
	out := make([]Site, 0, len(g.vertices)+len(g.edges))
	for _, v := range g.vertices {
		out = append(out, v)
	}
	if g.linkers {
		for _, e := range g.edges {
			out = append(out, e)
		}
	}
	return out
}

// Centroid returns the centroid of the vertex positions, or the origin for
// an empty graph.
func (g *Graph) Centroid() r3.Vec {
	if len(g.vertices) == 0 {
		return r3.Vec{}
	}
	positions := make([]r3.Vec, len(g.vertices))
	for i, v := range g.vertices {
		positions[i] = v.position
	}
	return geometry.MustCentroid(positions...)
}

// EdgeDirection returns the unit vector along e from its first to its last
// endpoint.
func (g *Graph) EdgeDirection(e *Edge) r3.Vec {
	return e.Direction(g.endpointPositions(e)...)
}

// ApplyScale multiplies every position, periodic shift and lattice vector by
// factor.
func (g *Graph) ApplyScale(factor float64) {
	for _, v := range g.vertices {
		v.ApplyScale(factor)
	}
	for _, e := range g.edges {
		e.ApplyScale(factor)
	}
	if g.lattice != nil {
		scaled := g.lattice.Scaled(factor)
		g.lattice = &scaled
	}
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		name:     g.name,
		vertices: make([]*Vertex, len(g.vertices)),
		edges:    make([]*Edge, len(g.edges)),
		linkers:  g.linkers,
	}
	for i, v := range g.vertices {
		c.vertices[i] = v.Clone()
	}
	for i, e := range g.edges {
		c.edges[i] = e.Clone()
	}
	if g.lattice != nil {
		l := *g.lattice
		c.lattice = &l
	}
	return c
}

// Neighbor is a site connected to another site, as seen from that site.
type Neighbor struct {
	// Site is the connected site.
	Site Site
	// Edge is the id of the edge making the connection.
	Edge int
	// Endpoint is the index of the vertex involved in the connection within
	// the vertex list of Edge.
	Endpoint int
	// Position is the position of the image of Site adjacent to the viewing
	// site.
	Position r3.Vec
	// Periodicity is the cell offset of that image.
	Periodicity [3]int
}

// connection identifies one vertex-to-site connection through an edge.
type connection struct {
	edge     int
	endpoint int
}

func (n Neighbor) key() connection { return connection{n.Edge, n.Endpoint} }

// Neighbors returns the sites connected to s in edge order.
//
// With linkers, a vertex sees its edges and an edge sees its vertices.
// Without linkers, a vertex sees the vertices at the other end of its edges.
func (g *Graph) Neighbors(s Site) []Neighbor {
	switch site := s.(type) {
	case *Edge:
		return g.edgeNeighbors(site)
	case *Vertex:
		return g.vertexNeighbors(site)
	}
	return nil
}

func (g *Graph) edgeNeighbors(e *Edge) []Neighbor {
	last := len(e.vertices) - 1
	out := make([]Neighbor, len(e.vertices))
	for k, id := range e.vertices {
		n := Neighbor{Site: g.vertices[id], Edge: e.id, Endpoint: k, Position: g.vertices[id].position}
		if k == last {
			n.Position = r3.Add(n.Position, e.shift)
			n.Periodicity = e.periodicity
		}
		out[k] = n
	}
	return out
}

func (g *Graph) vertexNeighbors(v *Vertex) []Neighbor {
	var out []Neighbor
	for _, eid := range v.edges {
		e := g.edges[eid]
		last := len(e.vertices) - 1
		for k, id := range e.vertices {
			if id != v.id {
				continue
			}
			if g.linkers {
				n := Neighbor{Site: e, Edge: e.id, Endpoint: k, Position: e.position}
				if k == last {
					n.Position = r3.Sub(n.Position, e.shift)
					n.Periodicity = negate(e.periodicity)
				}
				out = append(out, n)
				continue
			}
			other := g.vertices[e.vertices[1-k]]
			n := Neighbor{Site: other, Edge: e.id, Endpoint: k}
			if k == 0 {
				n.Position = r3.Add(other.position, e.shift)
				n.Periodicity = e.periodicity
			} else {
				n.Position = r3.Sub(other.position, e.shift)
				n.Periodicity = negate(e.periodicity)
			}
			out = append(out, n)
		}
	}
	return out
}

func (g *Graph) endpointPositions(e *Edge) []r3.Vec {
	out := make([]r3.Vec, len(e.vertices))
	for i, id := range e.vertices {
		out[i] = g.vertices[id].position
	}
	return out
}

func negate(p [3]int) [3]int {
	return [3]int{-p[0], -p[1], -p[2]}
}
