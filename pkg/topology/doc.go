// Package topology builds molecules by placing building blocks on the sites
// of a topology graph and bonding them together.
//
// # Graphs
//
// A [Graph] holds vertices and edges. In a graph with linkers every vertex
// and every edge holds a building block, and vertices connect to their edges.
// A linkerless graph ([WithoutLinkers]) only fills vertices; its edges join
// two vertices directly.
//
// Periodic graphs carry a [Lattice]. A periodic edge stores the cell offset
// of its last vertex, so the connection crosses the cell boundary:
//
//	g := topology.NewGraph("chain", topology.WithLattice(l))
//	a := g.AddVertex(r3.Vec{X: 0.5})
//	_, err := g.AddEdge([]int{a.ID(), a.ID()}, topology.WithPeriodicity([3]int{1, 0, 0}))
//
// [Graph.Neighbors] reports the sites connected to a site, each with the
// position of the image adjacent to the viewer.
//
// # Built-in Topologies
//
// Cages and 2D frameworks are available by name through [BuildBuiltin]; see
// [BuiltinNames]. Custom topologies are described as a TOML [Definition] and
// expanded into a block of lattice cells with [Definition.Build].
//
// # Construction
//
// [Construct] runs four stages in order:
//
//  1. Assign: every site gets a building block, from Options.VertexBlocks and
//     Options.EdgeBlocks or by functional group count.
//  2. Place: vertices, then edges, are rotated and translated onto their
//     sites. Sites with three or more connections use [PlacePolyhedral].
//  3. Bond: once per graph edge, bonder atoms facing each other are paired
//     by distance and joined.
//  4. Complete: atoms and bonds are merged, deleter atoms of reacted groups
//     are removed and ids renumbered.
//
// Use a [Builder] to run and inspect the stages one at a time. Any TOPOLOGY
// error aborts the build. Connections whose sides offer different numbers of
// bonder atoms do not fail; they are reported as [StoichiometryWarning]
// values.
package topology
