package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/molforge/pkg/errors"
	"github.com/matzehuels/molforge/pkg/pipeline"
	"github.com/matzehuels/molforge/pkg/recipe"
)

// buildOpts holds the command-line flags for the build command. Flags
// given next to a recipe override the recipe's values.
type buildOpts struct {
	topology    string   // built-in topology name
	blocks      []string // building block files
	lattice     string   // lattice size, e.g. "2x2x1"
	periodic    bool     // keep periodic bonds of lattice topologies
	policy      string   // assignment policy: auto, ordered or random
	seed        uint64   // seed of the random assignment policy
	scale       float64  // topology scale (0 means the largest block diameter)
	parallelism int      // placement workers
	formats     string   // comma-separated output formats
	output      string   // output base path
	noCache     bool     // disable the construction cache
	refresh     bool     // ignore cached results
	watch       bool     // rebuild when inputs change
}

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	opts := buildOpts{}

	cmd := &cobra.Command{
		Use:   "build [recipe.toml]",
		Short: "Construct a molecule from building blocks and a topology",
		Long: `Construct a molecule by placing building blocks on a topology graph.

The inputs come from a TOML recipe or from flags:

  molforge build cage.toml
  molforge build --topology four_plus_six --block amine.mol --block aldehyde.mol
  molforge build --topology honeycomb --lattice 3x3x1 --periodic --block a.mol --block b.mol -f mol,pdb

Outputs are written next to the recipe (or to the current directory) as
<name>.<format>, or to the base path given with -o.`,
		Args: cobra.MaximumNArgs(1),

		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return []cobra.Completion{"toml"}, cobra.ShellCompDirectiveFilterFileExt
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var recipePath string
			if len(args) == 1 {
				recipePath = args[0]
			}
			if opts.watch {
				return c.watchBuild(cmd.Context(), cmd, recipePath, opts)
			}
			_, err := c.runBuild(cmd.Context(), cmd, recipePath, opts)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.topology, "topology", "t", "", "built-in topology (see 'molforge topology list')")
	f.StringArrayVarP(&opts.blocks, "block", "b", nil, "building block file (repeatable)")
	f.StringVar(&opts.lattice, "lattice", "", "lattice size of periodic topologies, e.g. 2x2x1")
	f.BoolVar(&opts.periodic, "periodic", false, "keep bonds across cell boundaries")
	f.StringVar(&opts.policy, "policy", "", "assignment policy: auto, ordered or random")
	f.Uint64Var(&opts.seed, "seed", 0, "random seed (default from config, then 42)")
	f.Float64Var(&opts.scale, "scale", 0, "topology scale (default: largest block diameter)")
	f.IntVarP(&opts.parallelism, "parallel", "j", 0, "placement workers (default from config)")
	f.StringVarP(&opts.formats, "format", "f", "", "output formats: "+strings.Join(pipeline.FormatNames(), ", "))
	f.StringVarP(&opts.output, "output", "o", "", "output base path")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the construction cache")
	f.BoolVar(&opts.refresh, "refresh", false, "rebuild even when the construction is cached")
	f.BoolVarP(&opts.watch, "watch", "w", false, "rebuild when the recipe or a block file changes")
	_ = cmd.RegisterFlagCompletionFunc("topology", completeTopologies)
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
	_ = cmd.RegisterFlagCompletionFunc("policy", cobra.FixedCompletions(
		[]cobra.Completion{"auto", "ordered", "random"}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("block", func(*cobra.Command, []string, string) ([]cobra.Completion, cobra.ShellCompDirective) {
		return []cobra.Completion{"mol", "sdf", "xyz", "pdb", "json"}, cobra.ShellCompDirectiveFilterFileExt
	})

	return cmd
}

// buildPlan is a resolved build: pipeline options plus where the outputs go.
type buildPlan struct {
	name    string
	options pipeline.Options
	outBase string
	// inputs are the files a rebuild depends on.
	inputs []string
}

// planBuild merges the recipe (if any), the config and the flags.
func (c *CLI) planBuild(cmd *cobra.Command, recipePath string, opts buildOpts) (*buildPlan, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}

	plan := &buildPlan{}
	outDir := "."
	if recipePath != "" {
		r, err := recipe.Load(recipePath)
		if err != nil {
			return nil, err
		}
		if plan.options, err = pipeline.FromRecipe(r); err != nil {
			return nil, err
		}
		plan.name = r.Name
		plan.inputs = append(plan.inputs, recipePath)
		if r.Topology.File != "" {
			plan.inputs = append(plan.inputs, r.Path(r.Topology.File))
		}
		if r.Output.Dir != "" {
			outDir = r.Path(r.Output.Dir)
		} else {
			outDir = r.Dir()
		}
	} else if opts.topology == "" || len(opts.blocks) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "either a recipe or --topology and --block are required")
	}

	flags := cmd.Flags()
	o := &plan.options
	if opts.topology != "" {
		o.Topology, o.Definition = opts.topology, nil
	}
	if len(opts.blocks) > 0 {
		o.Blocks = o.Blocks[:0]
		for _, b := range opts.blocks {
			o.Blocks = append(o.Blocks, pipeline.BlockSource{Path: b})
		}
	}
	if flags.Changed("lattice") {
		if o.Lattice, err = parseLattice(opts.lattice); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "--lattice")
		}
	}
	if flags.Changed("periodic") {
		o.Periodic = opts.periodic
	}
	if opts.policy != "" {
		o.Policy = opts.policy
	}
	if flags.Changed("scale") {
		o.Scale = opts.scale
	}
	switch {
	case flags.Changed("seed"):
		o.Seed = opts.seed
	case o.Seed == 0:
		o.Seed = cfg.Build.Seed
	}
	switch {
	case flags.Changed("parallel"):
		o.Parallelism = opts.parallelism
	case o.Parallelism == 0:
		o.Parallelism = cfg.Build.Parallelism
	}
	if opts.formats != "" || len(o.Formats) == 0 {
		o.Formats = parseFormats(opts.formats)
	}
	o.Refresh = opts.refresh

	if plan.name == "" {
		plan.name = o.Topology
		if plan.name == "" && o.Definition != nil {
			plan.name = o.Definition.Name
		}
	}
	plan.outBase = filepath.Join(outDir, plan.name)
	if opts.output != "" {
		plan.outBase = strings.TrimSuffix(opts.output, filepath.Ext(opts.output))
	}
	for _, b := range o.Blocks {
		plan.inputs = append(plan.inputs, b.Path)
	}
	return plan, nil
}

// runBuild runs one build and writes its artifacts.
func (c *CLI) runBuild(ctx context.Context, cmd *cobra.Command, recipePath string, opts buildOpts) (*pipeline.Result, error) {
	plan, err := c.planBuild(cmd, recipePath, opts)
	if err != nil {
		return nil, err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, fmt.Sprintf("Building %s...", plan.name))
	spinner.Start()
	result, err := runner.Execute(ctx, plan.options)
	if err != nil {
		spinner.StopWithError(errors.UserMessage(err))
		return nil, err
	}
	spinner.Stop()

	paths, err := writeArtifacts(plan.outBase, plan.options.Formats, result.Artifacts)
	if err != nil {
		return nil, err
	}

	printSuccess("Built %s", StyleHighlight.Render(plan.name))
	printStats(result.Stats.NumAtoms, result.Stats.NumBonds, result.Construction.NumNewBonds, result.CacheInfo.ConstructHit)
	for _, w := range result.Construction.Warnings {
		printWarning("%s", w.String())
	}
	for _, p := range paths {
		printFile(p)
	}
	prog.done("build finished", "topology", result.TopologyID, "blocks", result.Stats.NumBlocks)
	return result, nil
}

// writeArtifacts writes one file per format and returns the paths written.
func writeArtifacts(base string, formats []string, artifacts map[string][]byte) ([]string, error) {
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := base + "." + format
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
