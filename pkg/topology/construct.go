package topology

import (
	"context"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r3"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/molforge/pkg/errors"
	"github.com/matzehuels/molforge/pkg/molecule"
)

// State is the stage a [Builder] has reached.
type State int

const (
	StateUnbuilt State = iota
	StateBuildingBlocksAssigned
	StatePlaced
	StateBonded
	StateComplete
)

var stateNames = [...]string{"unbuilt", "building-blocks-assigned", "placed", "bonded", "complete"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Options configures a construction.
type Options struct {
	// VertexBlocks maps a building block index to the vertex ids it fills.
	// When empty, vertices are filled automatically.
	VertexBlocks map[int][]int
	// EdgeBlocks maps a building block index to the edge ids it fills.
	// When empty, edges of a graph with linkers are filled automatically.
	EdgeBlocks map[int][]int
	// Policy distributes automatically classified blocks.
	Policy AssignmentPolicy
	// Seed seeds the random source of AssignRandom.
	Seed uint64
	// Scale multiplies graph coordinates. Zero means the largest building
	// block diameter.
	Scale float64
	// VertexAlignments maps a vertex id to the index of the connection its
	// aligner functional group faces. Missing vertices use 0.
	VertexAlignments map[int]int
	// VertexAligners maps a vertex id to the index of the functional group
	// that is aligned first. Missing vertices use 0.
	VertexAligners map[int]int
	// EdgeAlignments maps an edge id to +1 or -1. Missing edges use +1.
	EdgeAlignments map[int]int
	// BondOrders decides the order of new bonds. Nil means
	// molecule.DefaultBondOrderRules.
	BondOrders molecule.BondOrderRules
	// Parallelism bounds the number of sites placed concurrently. Values
	// below 2 place sequentially.
	Parallelism int
	// Logger receives debug output. Nil discards it.
	Logger *log.Logger
}

// PlacedBlock records which building block fills a site and which atoms of
// the constructed molecule came from it.
type PlacedBlock struct {
	Site  SiteRef `json:"site"`
	Block int     `json:"block"`
	Atoms []int   `json:"atoms"`
}

// Result is a constructed molecule.
type Result struct {
	Molecule    *molecule.Molecule
	Blocks      []PlacedBlock
	Warnings    []StoichiometryWarning
	Scale       float64
	NumNewBonds int
}

// Construct places blocks on g and bonds them. It is shorthand for running
// every stage of a [Builder]. Any TOPOLOGY error aborts the build and no
// molecule is returned.
func Construct(ctx context.Context, blocks []*molecule.BuildingBlock, g *Graph, opts Options) (*Result, error) {
	b, err := NewBuilder(blocks, g, opts)
	if err != nil {
		return nil, err
	}
	if err := b.Assign(); err != nil {
		return nil, err
	}
	if err := b.Place(ctx); err != nil {
		return nil, err
	}
	if err := b.Bond(); err != nil {
		return nil, err
	}
	return b.Complete()
}

// siteState is the per-site output of placement.
type siteState struct {
	site      Site
	block     int
	neighbors []Neighbor
	placement Placement
	offset    int
	// paired maps a connection to the bonder atoms (block ids) paired with it.
	paired map[connection][]int
	// excess holds the bonder atoms paired with no connection.
	excess []int
}

// Builder runs a construction stage by stage:
// Unbuilt → BuildingBlocksAssigned → Placed → Bonded → Complete.
type Builder struct {
	blocks []*molecule.BuildingBlock
	graph  *Graph
	opts   Options
	logger *log.Logger
	state  State
	scale  float64

	assignment map[SiteRef]int
	sites      []*siteState
	bySite     map[SiteRef]*siteState
	numAtoms   int
	kinds      map[int]molecule.Kind
	bonds      []molecule.Bond
	bonded     map[int]bool
	warnings   []StoichiometryWarning
}

// NewBuilder validates the input and scales a copy of g. The caller's
// graph and blocks are never modified.
func NewBuilder(blocks []*molecule.BuildingBlock, g *Graph, opts Options) (*Builder, error) {
	if len(blocks) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no building blocks")
	}
	if g == nil || g.NumVertices() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "topology graph has no vertices")
	}
	for i, bb := range blocks {
		if bb == nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "building block %d is nil", i).WithDetail("block", i)
		}
	}
	for id, a := range opts.EdgeAlignments {
		if err := errors.ValidateEdgeAlignment(id, a); err != nil {
			return nil, err
		}
	}
	if opts.BondOrders == nil {
		opts.BondOrders = molecule.DefaultBondOrderRules()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	scale := opts.Scale
	if scale <= 0 {
		for _, bb := range blocks {
			scale = max(scale, bb.MaximumDiameter())
		}
		if scale == 0 {
			scale = 1
		}
	}
	scaled := g.Clone()
	scaled.ApplyScale(scale)

	return &Builder{
		blocks: blocks,
		graph:  scaled,
		opts:   opts,
		logger: logger,
		scale:  scale,
		bySite: make(map[SiteRef]*siteState),
		kinds:  make(map[int]molecule.Kind),
		bonded: make(map[int]bool),
	}, nil
}

// State returns the stage reached.
func (b *Builder) State() State { return b.state }

// Scale returns the factor applied to graph coordinates.
func (b *Builder) Scale() float64 { return b.scale }

// Graph returns the scaled copy of the graph being built.
func (b *Builder) Graph() *Graph { return b.graph }

// Assignment returns the block index assigned to every site. It is nil
// before [Builder.Assign].
func (b *Builder) Assignment() map[SiteRef]int { return b.assignment }

// Placement returns the placement of one site after [Builder.Place].
func (b *Builder) Placement(ref SiteRef) (Placement, bool) {
	s, ok := b.bySite[ref]
	if !ok {
		return Placement{}, false
	}
	return s.placement, true
}

func (b *Builder) require(want State) error {
	if b.state != want {
		return errors.New(errors.ErrCodeInternal, "builder is %s, want %s", b.state, want)
	}
	return nil
}

// Assign decides which building block fills every site.
func (b *Builder) Assign() error {
	if err := b.require(StateUnbuilt); err != nil {
		return err
	}
	assignment, err := assignBlocks(b.graph, b.blocks, b.opts)
	if err != nil {
		return err
	}
	b.assignment = assignment
	b.state = StateBuildingBlocksAssigned
	b.logger.Debug("assigned building blocks", "graph", b.graph.Name(), "sites", len(assignment), "policy", b.opts.Policy)
	return nil
}

// Place places every vertex in id order, then every edge. Sites of one kind
// are independent and run on up to Options.Parallelism goroutines; edges use
// the atoms of the vertices paired with them.
func (b *Builder) Place(ctx context.Context) error {
	if err := b.require(StateBuildingBlocksAssigned); err != nil {
		return err
	}
	start := time.Now()
	centroid := b.graph.Centroid()

	vertices := make([]*siteState, b.graph.NumVertices())
	for i, v := range b.graph.vertices {
		vertices[i] = b.newSiteState(v)
	}
	err := b.run(ctx, vertices, func(s *siteState) PlaceOptions {
		id := s.site.ID()
		return PlaceOptions{
			Aligner:      b.opts.VertexAlignments[id],
			AlignerGroup: b.opts.VertexAligners[id],
			Reference:    centroid,
		}
	})
	if err != nil {
		return err
	}
	for _, s := range vertices {
		b.bySite[refOf(s.site)] = s
	}

	var edges []*siteState
	if b.graph.HasLinkers() {
		edges = make([]*siteState, b.graph.NumEdges())
		for i, e := range b.graph.edges {
			edges[i] = b.newSiteState(e)
		}
		err := b.run(ctx, edges, func(s *siteState) PlaceOptions {
			alignment := 1
			if a, ok := b.opts.EdgeAlignments[s.site.ID()]; ok {
				alignment = a
			}
			return PlaceOptions{Alignment: alignment, Reference: centroid, Paired: b.pairedFromVertices(s)}
		})
		if err != nil {
			return err
		}
	}

	for _, s := range slices.Concat(vertices, edges) {
		s.offset = b.numAtoms
		b.numAtoms += len(s.placement.Positions)
		b.sites = append(b.sites, s)
		b.bySite[refOf(s.site)] = s
		for _, fg := range b.blocks[s.block].FunctionalGroups() {
			for _, id := range fg.Bonders() {
				b.kinds[s.offset+id] = fg.Kind
			}
		}
	}

	b.state = StatePlaced
	b.logger.Debug("placed building blocks", "vertices", len(vertices), "edges", len(edges), "duration", time.Since(start))
	return nil
}

func (b *Builder) newSiteState(site Site) *siteState {
	return &siteState{
		site:      site,
		block:     b.assignment[refOf(site)],
		neighbors: b.graph.Neighbors(site),
	}
}

// run places every site of one stage and pairs its bonder atoms with its
// neighbours. Results are stored per site, so the outcome does not depend
// on scheduling.
func (b *Builder) run(ctx context.Context, sites []*siteState, options func(*siteState) PlaceOptions) error {
	g, ctx := errgroup.WithContext(ctx)
	if b.opts.Parallelism > 1 {
		g.SetLimit(b.opts.Parallelism)
	} else {
		g.SetLimit(1)
	}
	for _, s := range sites {
		opts := options(s)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := Place(b.blocks[s.block], s.site, s.neighbors, opts)
			if err != nil {
				return err
			}
			s.placement = p
			positions := make([]r3.Vec, len(p.Bonders))
			for i, id := range p.Bonders {
				positions[i] = p.Positions[id]
			}
			s.paired = make(map[connection][]int)
			matched := make(map[int]bool, len(p.Bonders))
			for _, pair := range PairAtomsWithSites(p.Bonders, positions, s.neighbors) {
				key := s.neighbors[pair.Neighbor].key()
				s.paired[key] = append(s.paired[key], pair.Atom)
				matched[pair.Atom] = true
			}
			for _, id := range p.Bonders {
				if !matched[id] {
					s.excess = append(s.excess, id)
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// pairedFromVertices returns, per neighbour of an edge, the centroid of the
// neighbouring vertex's atoms paired with the edge, in the edge's frame.
func (b *Builder) pairedFromVertices(edge *siteState) map[int]r3.Vec {
	out := make(map[int]r3.Vec)
	for j, n := range edge.neighbors {
		v := b.bySite[refOf(n.Site)]
		atoms := v.paired[n.key()]
		if len(atoms) == 0 {
			continue
		}
		shift := r3.Sub(n.Position, n.Site.Position())
		var sum r3.Vec
		for _, id := range atoms {
			sum = r3.Add(sum, v.placement.Positions[id])
		}
		out[j] = r3.Add(r3.Scale(1/float64(len(atoms)), sum), shift)
	}
	return out
}

// Bond forms new bonds, once per graph edge. With linkers the atoms of each
// endpoint vertex paired with the edge bond to the edge's block; without
// linkers the atoms of the first vertex paired with the edge bond to the
// second vertex. Bonder atoms of a site that were paired with no connection
// and stayed unbonded are reported with the site as both ends and edge -1.
func (b *Builder) Bond() error {
	if err := b.require(StatePlaced); err != nil {
		return err
	}
	for _, e := range b.graph.edges {
		if b.graph.HasLinkers() {
			edge := b.bySite[refOf(e)]
			for _, n := range edge.neighbors {
				vertex := b.bySite[refOf(n.Site)]
				b.connect(vertex, edge, n.key(), n.key())
			}
			continue
		}
		v0 := b.bySite[SiteRef{Kind: SiteVertex, ID: e.vertices[0]}]
		v1 := b.bySite[SiteRef{Kind: SiteVertex, ID: e.vertices[1]}]
		b.connect(v0, v1, connection{e.id, 0}, connection{e.id, 1})
	}
	for _, s := range b.sites {
		b.reportExcess(s)
	}
	b.state = StateBonded
	b.logger.Debug("formed bonds", "bonds", len(b.bonds), "warnings", len(b.warnings))
	return nil
}

// connect bonds the atoms of from paired with fromKey to the bonder atoms
// of to. toKey is the same connection seen from to.
func (b *Builder) connect(from, to *siteState, fromKey, toKey connection) {
	var view Neighbor
	for _, n := range from.neighbors {
		if n.key() == fromKey {
			view = n
			break
		}
	}
	shift := r3.Sub(view.Position, to.site.Position())

	fromAtoms := from.paired[fromKey]
	candidates := make([]Candidate, len(fromAtoms))
	for i, id := range fromAtoms {
		candidates[i] = Candidate{Atom: from.offset + id, Position: from.placement.Positions[id]}
	}
	targets := make([]Candidate, 0, len(to.placement.Bonders))
	for _, id := range to.placement.Bonders {
		targets = append(targets, Candidate{Atom: to.offset + id, Position: r3.Add(to.placement.Positions[id], shift)})
	}

	pairs := PairAtoms(candidates, targets, b.bonded)
	for _, p := range pairs {
		b.bonds = append(b.bonds, molecule.Bond{
			Atom1:       p.Atom1,
			Atom2:       p.Atom2,
			Order:       b.opts.BondOrders.Order(b.kinds[p.Atom1], b.kinds[p.Atom2]),
			Periodicity: view.Periodicity,
		})
	}

	toAtoms := to.paired[toKey]
	if len(fromAtoms) == len(toAtoms) {
		return
	}
	var unpaired []int
	for _, id := range fromAtoms {
		if !b.bonded[from.offset+id] {
			unpaired = append(unpaired, from.offset+id)
		}
	}
	for _, id := range toAtoms {
		if !b.bonded[to.offset+id] {
			unpaired = append(unpaired, to.offset+id)
		}
	}
	w := StoichiometryWarning{Edge: fromKey.edge, From: refOf(from.site), To: refOf(to.site), Unpaired: unpaired}
	b.warnings = append(b.warnings, w)
	b.logger.Warn("stoichiometry mismatch", "edge", w.Edge, "unpaired", w.Unpaired)
}

func (b *Builder) reportExcess(s *siteState) {
	var unpaired []int
	for _, id := range s.excess {
		if !b.bonded[s.offset+id] {
			unpaired = append(unpaired, s.offset+id)
		}
	}
	if len(unpaired) == 0 {
		return
	}
	ref := refOf(s.site)
	w := StoichiometryWarning{Edge: -1, From: ref, To: ref, Unpaired: unpaired}
	b.warnings = append(b.warnings, w)
	b.logger.Warn("bonder atoms without connection", "site", ref.Kind, "id", ref.ID, "unpaired", w.Unpaired)
}

// Complete merges the placed blocks and new bonds into one molecule. Deleter
// atoms of functional groups that formed a bond are removed and the
// remaining atoms are renumbered contiguously in placement order.
func (b *Builder) Complete() (*Result, error) {
	if err := b.require(StateBonded); err != nil {
		return nil, err
	}

	atoms := make([]molecule.Atom, 0, b.numAtoms)
	positions := make([]r3.Vec, 0, b.numAtoms)
	var bonds []molecule.Bond
	deleted := make(map[int]bool)
	for _, s := range b.sites {
		bb := b.blocks[s.block]
		for _, a := range bb.Atoms() {
			atoms = append(atoms, molecule.Atom{Element: a.Element, Charge: a.Charge})
		}
		positions = append(positions, s.placement.Positions...)
		for _, bond := range bb.Bonds() {
			bond.Atom1 += s.offset
			bond.Atom2 += s.offset
			bonds = append(bonds, bond)
		}
		for _, fg := range bb.FunctionalGroups() {
			if !slices.ContainsFunc(fg.Bonders(), func(id int) bool { return b.bonded[s.offset+id] }) {
				continue
			}
			for _, id := range fg.Deleters() {
				deleted[s.offset+id] = true
			}
		}
	}
	bonds = append(bonds, b.bonds...)

	renumber := make([]int, len(atoms))
	var keptAtoms []molecule.Atom
	var keptPositions []r3.Vec
	for i := range atoms {
		if deleted[i] {
			renumber[i] = -1
			continue
		}
		renumber[i] = len(keptAtoms)
		keptAtoms = append(keptAtoms, atoms[i])
		keptPositions = append(keptPositions, positions[i])
	}
	var keptBonds []molecule.Bond
	for _, bond := range bonds {
		a1, a2 := renumber[bond.Atom1], renumber[bond.Atom2]
		if a1 < 0 || a2 < 0 {
			continue
		}
		bond.Atom1, bond.Atom2 = a1, a2
		keptBonds = append(keptBonds, bond)
	}

	m, err := molecule.New(keptAtoms, keptBonds, keptPositions)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "merge constructed molecule")
	}

	warnings := make([]StoichiometryWarning, len(b.warnings))
	for i, w := range b.warnings {
		w.Unpaired = slices.Clone(w.Unpaired)
		for j, id := range w.Unpaired {
			w.Unpaired[j] = renumber[id]
		}
		warnings[i] = w
	}

	result := &Result{
		Molecule:    m,
		Warnings:    warnings,
		Scale:       b.scale,
		NumNewBonds: len(b.bonds),
	}
	for _, s := range b.sites {
		placed := PlacedBlock{Site: refOf(s.site), Block: s.block}
		for i := range s.placement.Positions {
			if id := renumber[s.offset+i]; id >= 0 {
				placed.Atoms = append(placed.Atoms, id)
			}
		}
		result.Blocks = append(result.Blocks, placed)
	}

	b.state = StateComplete
	b.logger.Debug("constructed molecule", "atoms", m.NumAtoms(), "bonds", m.NumBonds(), "deleted", len(deleted))
	return result, nil
}
