// Package pipeline runs a construction from input files to exported
// artifacts.
//
// The CLI, the HTTP API and the watcher all go through a [Runner], so
// caching, logging and hooks behave the same wherever a build starts.
//
// # Stages
//
//  1. Load: read the building blocks and detect their functional groups
//  2. Construct: build the topology graph, place the blocks and bond them
//  3. Export: write the molecule in every requested format
//
// The construct and export stages are cached by content: the cache key of
// a construction hashes the identity keys of its blocks, the topology and
// every construction option.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	opts := pipeline.Options{
//	    Blocks:   []pipeline.BlockSource{{Path: "amine.mol"}, {Path: "aldehyde.mol"}},
//	    Topology: "four_plus_six",
//	    Formats:  []string{"mol", "xyz"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mol := result.Artifacts["mol"]
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/molforge/pkg/cache"
	"github.com/matzehuels/molforge/pkg/errors"
	molio "github.com/matzehuels/molforge/pkg/io"
	"github.com/matzehuels/molforge/pkg/molecule"
	"github.com/matzehuels/molforge/pkg/recipe"
	"github.com/matzehuels/molforge/pkg/topology"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultSeed seeds random assignment when no seed is given.
	DefaultSeed = uint64(42)

	// DefaultParallelism places sites sequentially.
	DefaultParallelism = 1

	// DefaultFormat is exported when no format is requested.
	DefaultFormat = FormatMol

	// DefaultCacheTTL is how long constructions and artifacts stay cached.
	DefaultCacheTTL = 7 * 24 * time.Hour
)

// DefaultLattice is a single unit cell.
var DefaultLattice = [3]int{1, 1, 1}

// Format constants for output formats. Molecule formats come from the io
// registry; the diagram formats draw the molecular graph with Graphviz.
const (
	FormatMol  = string(molio.FormatMol)
	FormatSDF  = string(molio.FormatSDF)
	FormatXYZ  = string(molio.FormatXYZ)
	FormatPDB  = string(molio.FormatPDB)
	FormatJSON = string(molio.FormatJSON)
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatMol:  true,
	FormatSDF:  true,
	FormatXYZ:  true,
	FormatPDB:  true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// FormatNames returns the supported output formats, sorted.
func FormatNames() []string {
	out := make([]string, 0, len(ValidFormats))
	for f := range ValidFormats {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// BlockSource is one building block input: a file path, or the content of
// a file sent inline together with its file name.
type BlockSource struct {
	Path   string   `json:"path,omitempty"`
	Name   string   `json:"name,omitempty"`
	Data   string   `json:"data,omitempty"`
	Format string   `json:"format,omitempty"`
	Groups []string `json:"groups,omitempty"`
}

// Label names the source in logs and errors.
func (s BlockSource) Label() string {
	if s.Path != "" {
		return s.Path
	}
	return s.Name
}

// Options contains all configuration for a construction.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	Blocks []BlockSource `json:"blocks"`

	// Topology options: a built-in name or an inline definition
	Topology   string               `json:"topology,omitempty"`
	Definition *topology.Definition `json:"definition,omitempty"`
	Lattice    [3]int               `json:"lattice,omitempty"`
	Periodic   bool                 `json:"periodic,omitempty"`

	// Construct options
	Policy           string        `json:"policy,omitempty"`
	Seed             uint64        `json:"seed,omitempty"`
	Scale            float64       `json:"scale,omitempty"`
	VertexBlocks     map[int][]int `json:"vertex_blocks,omitempty"`
	EdgeBlocks       map[int][]int `json:"edge_blocks,omitempty"`
	VertexAlignments map[int]int   `json:"vertex_alignments,omitempty"`
	VertexAligners   map[int]int   `json:"vertex_aligners,omitempty"`
	EdgeAlignments   map[int]int   `json:"edge_alignments,omitempty"`
	Parallelism      int           `json:"parallelism,omitempty"`

	// Export options
	Formats []string `json:"formats,omitempty"`

	// Refresh bypasses cached results (they are still written).
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// FromRecipe converts a recipe to pipeline options. Block paths are
// resolved against the recipe directory.
func FromRecipe(r *recipe.Recipe) (Options, error) {
	opts := Options{
		Lattice:     r.Size(),
		Periodic:    r.Topology.Periodic,
		Policy:      r.Build.Policy,
		Seed:        r.Build.Seed,
		Scale:       r.Build.Scale,
		Parallelism: r.Build.Parallelism,
		Formats:     slices.Clone(r.Output.Formats),
	}
	if r.Topology.Name != "" {
		opts.Topology = r.Topology.Name
	} else {
		def, err := r.Definition()
		if err != nil {
			return Options{}, err
		}
		opts.Definition = def
	}
	for _, b := range r.Blocks {
		opts.Blocks = append(opts.Blocks, BlockSource{
			Path:   r.Path(b.Path),
			Format: b.Format,
			Groups: slices.Clone(b.Groups),
		})
	}
	opts.VertexBlocks, opts.EdgeBlocks = r.Assignment()
	opts.VertexAlignments, opts.EdgeAlignments = r.Alignments()
	opts.VertexAligners = r.Aligners()
	return opts, nil
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Molecule is the constructed molecule.
	Molecule *molecule.Molecule

	// Construction is the cacheable form of the construction.
	Construction Construction

	// TopologyID is the built-in topology name or the hash of the inline
	// definition.
	TopologyID string

	// BlockKeys are the identity keys of the building blocks.
	BlockKeys []string

	// ConstructKey is the cache key of the construction.
	ConstructKey string

	// Artifacts contains exported outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NumBlocks     int
	NumAtoms      int
	NumBonds      int
	LoadTime      time.Duration
	ConstructTime time.Duration
	ExportTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ConstructHit bool // Whether the construction came from cache
	ExportHit    bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeUnsupported, "invalid format: %q (must be one of: %s)",
			format, strings.Join(FormatNames(), ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForConstruct(); err != nil {
		return err
	}
	if err := o.ValidateForExport(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForConstruct checks the inputs of the load and construct stages
// and applies their defaults.
func (o *Options) ValidateForConstruct() error {
	if len(o.Blocks) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "at least one building block is required")
	}
	for i, b := range o.Blocks {
		if b.Path == "" && b.Data == "" {
			return errors.New(errors.ErrCodeInvalidInput, "block %d needs a path or inline data", i).WithDetail("block", i)
		}
		if b.Path == "" {
			if err := errors.ValidateFilename(b.Name); err != nil {
				return err
			}
		}
	}
	if (o.Topology == "") == (o.Definition == nil) {
		return errors.New(errors.ErrCodeInvalidInput, "exactly one of topology or definition is required")
	}
	if o.Topology != "" {
		if err := errors.ValidateName(o.Topology); err != nil {
			return err
		}
	}
	if o.Lattice == [3]int{} {
		o.Lattice = DefaultLattice
	}
	if err := errors.ValidateLatticeSize(o.Lattice); err != nil {
		return err
	}
	if _, err := topology.ParseAssignmentPolicy(o.Policy); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "policy")
	}
	for id, a := range o.EdgeAlignments {
		if err := errors.ValidateEdgeAlignment(id, a); err != nil {
			return err
		}
	}
	for id, g := range o.VertexAligners {
		if g < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "vertex %d has negative aligner group %d", id, g).
				WithDetail("vertex", id)
		}
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Parallelism < 1 {
		o.Parallelism = DefaultParallelism
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetExportDefaults sets default values for exporting.
func (o *Options) SetExportDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForExport validates and sets defaults for exporting.
func (o *Options) ValidateForExport() error {
	o.SetExportDefaults()
	return ValidateFormats(o.Formats)
}

// TopologyOptions returns the construction options for the topology engine.
func (o *Options) TopologyOptions() topology.Options {
	policy, _ := topology.ParseAssignmentPolicy(o.Policy)
	return topology.Options{
		VertexBlocks:     o.VertexBlocks,
		EdgeBlocks:       o.EdgeBlocks,
		Policy:           policy,
		Seed:             o.Seed,
		Scale:            o.Scale,
		VertexAlignments: o.VertexAlignments,
		VertexAligners:   o.VertexAligners,
		EdgeAlignments:   o.EdgeAlignments,
		Parallelism:      o.Parallelism,
		Logger:           o.Logger,
	}
}

// ConstructKeyOpts returns cache key options for the construction.
// Parallelism is left out: it never changes the result.
func (o *Options) ConstructKeyOpts() cache.ConstructKeyOpts {
	policy, _ := topology.ParseAssignmentPolicy(o.Policy)
	return cache.ConstructKeyOpts{
		Size:             o.Lattice,
		Periodic:         o.Periodic,
		Policy:           policy.String(),
		Seed:             o.Seed,
		Scale:            o.Scale,
		VertexBlocks:     o.VertexBlocks,
		EdgeBlocks:       o.EdgeBlocks,
		VertexAlignments: o.VertexAlignments,
		VertexAligners:   o.VertexAligners,
		EdgeAlignments:   o.EdgeAlignments,
	}
}

// ArtifactKeyOpts returns cache key options for one exported format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format}
}
