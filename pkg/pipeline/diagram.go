package pipeline

import (
	"context"
	"slices"

	"github.com/matzehuels/molforge/pkg/cache"
	"github.com/matzehuels/molforge/pkg/errors"
	"github.com/matzehuels/molforge/pkg/render/nodelink"
	"github.com/matzehuels/molforge/pkg/topology"
)

// DiagramFormats are the formats a topology graph can be drawn in.
var DiagramFormats = []string{FormatDOT, FormatSVG, FormatPNG, FormatPDF}

// DiagramOptions selects one drawing of a built-in topology.
type DiagramOptions struct {
	Lattice  [3]int
	Periodic bool
	Detailed bool
	Format   string
	Refresh  bool
}

// RenderTopology draws a built-in topology graph, caching the result.
func (r *Runner) RenderTopology(ctx context.Context, name string, opts DiagramOptions) ([]byte, bool, error) {
	if opts.Format == "" {
		opts.Format = FormatSVG
	}
	if !slices.Contains(DiagramFormats, opts.Format) {
		return nil, false, errors.New(errors.ErrCodeUnsupported, "topology diagrams support dot, svg, png and pdf, not %q", opts.Format)
	}
	if opts.Lattice == [3]int{} {
		opts.Lattice = DefaultLattice
	}
	if err := errors.ValidateLatticeSize(opts.Lattice); err != nil {
		return nil, false, err
	}

	g, err := topology.BuildBuiltin(name, opts.Lattice, opts.Periodic)
	if err != nil {
		return nil, false, err
	}

	key := r.Keyer.RenderKey(g.Name(), cache.RenderKeyOpts{
		Format:   opts.Format,
		Size:     opts.Lattice,
		Periodic: opts.Periodic,
		Detailed: opts.Detailed,
	})
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			return data, true, nil
		}
	}

	dot := nodelink.GraphToDOT(g, nodelink.Options{Detailed: opts.Detailed, Scale: 60})
	data, err := renderDiagram(dot, opts.Format)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "render %s", name)
	}
	_ = r.Cache.Set(ctx, key, data, r.ttl())
	return data, false, nil
}
