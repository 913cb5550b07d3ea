package topology

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/matzehuels/molforge/pkg/errors"
	"github.com/matzehuels/molforge/pkg/molecule"
)

// AssignmentPolicy decides how automatically classified building blocks are
// distributed over the sites of their class.
type AssignmentPolicy int

const (
	// AssignRoundRobin gives site i of a class block i mod n.
	AssignRoundRobin AssignmentPolicy = iota
	// AssignRandom draws a block for every site from the seeded source.
	AssignRandom
)

func (p AssignmentPolicy) String() string {
	if p == AssignRandom {
		return "random"
	}
	return "round-robin"
}

// ParseAssignmentPolicy parses "round-robin" or "random".
func ParseAssignmentPolicy(s string) (AssignmentPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "round-robin", "roundrobin":
		return AssignRoundRobin, nil
	case "random":
		return AssignRandom, nil
	}
	return 0, fmt.Errorf("unknown assignment policy %q", s)
}

// newRand returns the random source of one build.
func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// assignBlocks maps every site holding a building block to a block index.
func assignBlocks(g *Graph, blocks []*molecule.BuildingBlock, opts Options) (map[SiteRef]int, error) {
	out := make(map[SiteRef]int, g.NumVertices()+g.NumEdges())

	if err := applyExplicit(out, SiteVertex, opts.VertexBlocks, len(blocks), g.NumVertices()); err != nil {
		return nil, err
	}
	if len(opts.EdgeBlocks) > 0 && !g.HasLinkers() {
		return nil, errors.New(errors.ErrCodeInvalidAssignment, "graph %s has no linker sites", g.Name())
	}
	if err := applyExplicit(out, SiteEdge, opts.EdgeBlocks, len(blocks), g.NumEdges()); err != nil {
		return nil, err
	}

	vertexBlocks, linkerBlocks := classifyBlocks(blocks, g.HasLinkers())
	rng := newRand(opts.Seed)
	pick := func(candidates []int, i int) int {
		if opts.Policy == AssignRandom {
			return candidates[rng.IntN(len(candidates))]
		}
		return candidates[i%len(candidates)]
	}

	if len(opts.VertexBlocks) == 0 {
		for i, v := range g.vertices {
			out[refOf(v)] = pick(vertexBlocks, i)
		}
	}
	if g.HasLinkers() && len(opts.EdgeBlocks) == 0 {
		if len(linkerBlocks) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidAssignment,
				"graph %s needs linkers but every building block has the same number of functional groups", g.Name())
		}
		for i, e := range g.edges {
			out[refOf(e)] = pick(linkerBlocks, i)
		}
	}

	for _, s := range g.Sites() {
		if _, ok := out[refOf(s)]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidAssignment, "%s %d has no building block", s.Kind(), s.ID()).
				WithDetail(s.Kind().String(), s.ID())
		}
	}
	return out, nil
}

func applyExplicit(out map[SiteRef]int, kind SiteKind, mapping map[int][]int, numBlocks, numSites int) error {
	for _, block := range slices.Sorted(maps.Keys(mapping)) {
		if block < 0 || block >= numBlocks {
			return errors.New(errors.ErrCodeInvalidAssignment, "building block %d does not exist", block).
				WithDetail("block", block)
		}
		for _, id := range mapping[block] {
			if id < 0 || id >= numSites {
				return errors.New(errors.ErrCodeInvalidAssignment, "%s %d does not exist", kind, id).
					WithDetail(kind.String(), id)
			}
			ref := SiteRef{Kind: kind, ID: id}
			if prev, ok := out[ref]; ok {
				return errors.New(errors.ErrCodeInvalidAssignment, "%s %d assigned to blocks %d and %d", kind, id, prev, block).
					WithDetail(kind.String(), id)
			}
			out[ref] = block
		}
	}
	return nil
}

// classifyBlocks splits blocks into vertex blocks, those with the largest
// number of functional groups, and linkers. Without linkers every block is
// a vertex block.
func classifyBlocks(blocks []*molecule.BuildingBlock, linkers bool) (vertex, linker []int) {
	most := 0
	for _, bb := range blocks {
		most = max(most, bb.NumFunctionalGroups())
	}
	for i, bb := range blocks {
		if !linkers || bb.NumFunctionalGroups() == most {
			vertex = append(vertex, i)
		} else {
			linker = append(linker, i)
		}
	}
	return vertex, linker
}
