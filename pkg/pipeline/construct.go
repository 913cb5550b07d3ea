package pipeline

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/molforge/pkg/cache"
	"github.com/matzehuels/molforge/pkg/molecule"
	"github.com/matzehuels/molforge/pkg/topology"
)

// Construction is the serializable outcome of a construction. It is what
// the construct stage caches.
type Construction struct {
	Molecule    molecule.Dict                   `json:"molecule"`
	Blocks      []topology.PlacedBlock          `json:"blocks"`
	Warnings    []topology.StoichiometryWarning `json:"warnings,omitempty"`
	Scale       float64                         `json:"scale"`
	NumNewBonds int                             `json:"num_new_bonds"`
}

// NewConstruction converts a topology result.
func NewConstruction(res *topology.Result) Construction {
	return Construction{
		Molecule:    res.Molecule.ToDict(),
		Blocks:      res.Blocks,
		Warnings:    res.Warnings,
		Scale:       res.Scale,
		NumNewBonds: res.NumNewBonds,
	}
}

// BuildGraph builds the topology graph of opts and returns it with the id
// used in cache keys: the canonical built-in name, or "inline:" and the
// hash of the definition.
func BuildGraph(opts Options) (*topology.Graph, string, error) {
	def := opts.Definition
	id := ""
	if def == nil {
		var err error
		if def, err = topology.Builtin(opts.Topology); err != nil {
			return nil, "", err
		}
		id = def.Name
	} else {
		data, err := json.Marshal(def)
		if err != nil {
			return nil, "", err
		}
		id = "inline:" + cache.Hash(data)
	}
	g, err := def.Build(opts.Lattice, opts.Periodic)
	if err != nil {
		return nil, "", err
	}
	return g, id, nil
}

// Construct builds the molecule without caching.
func Construct(ctx context.Context, blocks []*molecule.BuildingBlock, g *topology.Graph, opts Options) (*topology.Result, error) {
	return topology.Construct(ctx, blocks, g, opts.TopologyOptions())
}

// contentKeys hashes the full serialized form of every block, coordinates
// and functional groups included, for use in cache keys.
func contentKeys(blocks []*molecule.BuildingBlock) []string {
	keys := make([]string, len(blocks))
	for i, bb := range blocks {
		data, _ := json.Marshal(bb.ToDict())
		keys[i] = cache.Hash(data)
	}
	return keys
}
