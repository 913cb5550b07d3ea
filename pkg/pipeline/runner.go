package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/molforge/pkg/cache"
	"github.com/matzehuels/molforge/pkg/molecule"
	"github.com/matzehuels/molforge/pkg/observability"
	"github.com/matzehuels/molforge/pkg/store"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	// TTL is the expiry of cached entries. Zero means DefaultCacheTTL.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    DefaultCacheTTL,
	}
}

// Execute runs the complete load → construct → export pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	blocks, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.BlockKeys = BlockKeys(blocks)
	result.Stats.NumBlocks = len(blocks)
	result.Stats.LoadTime = time.Since(loadStart)

	r.Logger.Info("loaded building blocks",
		"blocks", len(blocks),
		"duration", result.Stats.LoadTime)

	// Stage 2: Construct
	constructStart := time.Now()
	if err := r.construct(ctx, blocks, opts, result); err != nil {
		return nil, fmt.Errorf("construct: %w", err)
	}
	result.Stats.ConstructTime = time.Since(constructStart)
	result.Stats.NumAtoms = result.Molecule.NumAtoms()
	result.Stats.NumBonds = result.Molecule.NumBonds()

	r.Logger.Info("constructed molecule",
		"topology", result.TopologyID,
		"atoms", result.Stats.NumAtoms,
		"bonds", result.Stats.NumBonds,
		"new_bonds", result.Construction.NumNewBonds,
		"cached", result.CacheInfo.ConstructHit,
		"duration", result.Stats.ConstructTime)
	for _, w := range result.Construction.Warnings {
		r.Logger.Warn(w.String())
	}

	// Stage 3: Export
	exportStart := time.Now()
	artifacts, exportHit, err := r.ExportWithCacheInfo(ctx, result.Molecule, result.ConstructKey, opts)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.ExportTime = time.Since(exportStart)
	result.CacheInfo.ExportHit = exportHit

	r.Logger.Info("exported outputs",
		"formats", opts.Formats,
		"duration", result.Stats.ExportTime)

	return result, nil
}

// Load reads the building blocks of opts.
func (r *Runner) Load(ctx context.Context, opts Options) ([]*molecule.BuildingBlock, error) {
	source := "inline"
	if len(opts.Blocks) > 0 && opts.Blocks[0].Path != "" {
		source = opts.Blocks[0].Path
	}
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)
	start := time.Now()

	blocks, err := LoadBlocks(ctx, opts.Blocks)
	hooks.OnLoadComplete(ctx, source, len(blocks), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	for i, bb := range blocks {
		r.Logger.Debug("building block",
			"index", i,
			"source", opts.Blocks[i].Label(),
			"atoms", bb.NumAtoms(),
			"functional_groups", bb.NumFunctionalGroups())
	}
	return blocks, nil
}

// ConstructWithCacheInfo builds the topology and constructs the molecule,
// consulting the cache first. The returned result has no artifacts; its
// CacheInfo tells whether the construction was cached.
func (r *Runner) ConstructWithCacheInfo(ctx context.Context, blocks []*molecule.BuildingBlock, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForConstruct(); err != nil {
		return nil, err
	}
	result := &Result{BlockKeys: BlockKeys(blocks)}
	if err := r.construct(ctx, blocks, opts, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Runner) construct(ctx context.Context, blocks []*molecule.BuildingBlock, opts Options, result *Result) error {
	g, topoID, err := BuildGraph(opts)
	if err != nil {
		return err
	}
	result.TopologyID = topoID
	result.ConstructKey = r.Keyer.ConstructKey(topoID, contentKeys(blocks), opts.ConstructKeyOpts())

	hooks := observability.Pipeline()
	hooks.OnConstructStart(ctx, topoID, len(blocks))
	start := time.Now()

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if c, m, ok := r.cachedConstruction(ctx, result.ConstructKey); ok {
			result.Construction, result.Molecule = c, m
			result.CacheInfo.ConstructHit = true
			hooks.OnConstructComplete(ctx, topoID, m.NumAtoms(), m.NumBonds(), time.Since(start), nil)
			return nil
		}
	}

	res, err := Construct(ctx, blocks, g, opts)
	if err != nil {
		hooks.OnConstructComplete(ctx, topoID, 0, 0, time.Since(start), err)
		return err
	}
	hooks.OnConstructComplete(ctx, topoID, res.Molecule.NumAtoms(), res.Molecule.NumBonds(), time.Since(start), nil)

	result.Molecule = res.Molecule
	result.Construction = NewConstruction(res)
	if data, err := json.Marshal(result.Construction); err == nil {
		_ = r.Cache.Set(ctx, result.ConstructKey, data, r.ttl())
	}
	return nil
}

func (r *Runner) cachedConstruction(ctx context.Context, key string) (Construction, *molecule.Molecule, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		if err != nil {
			r.Logger.Debug("cache read failed", "key", key, "error", err)
		}
		return Construction{}, nil, false
	}
	var c Construction
	if err := json.Unmarshal(data, &c); err != nil {
		return Construction{}, nil, false
	}
	m, err := molecule.FromDict(c.Molecule)
	if err != nil {
		// If deserialization fails, fall through to recompute
		return Construction{}, nil, false
	}
	return c, m, true
}

// ExportWithCacheInfo writes m in every format of opts with caching and
// returns whether every artifact came from the cache. An empty
// constructKey disables caching.
func (r *Runner) ExportWithCacheInfo(ctx context.Context, m *molecule.Molecule, constructKey string, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForExport(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnExportStart(ctx, opts.Formats)
	start := time.Now()

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if constructKey != "" && !opts.Refresh {
			key := r.Keyer.ArtifactKey(constructKey, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				artifacts[format] = data
				continue
			}
		}
		missing = append(missing, format)
	}

	if len(missing) == 0 {
		hooks.OnExportComplete(ctx, opts.Formats, time.Since(start), nil)
		return artifacts, true, nil // All artifacts from cache
	}

	rendered, err := Export(m, missing)
	hooks.OnExportComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		artifacts[format] = data
		if constructKey != "" {
			key := r.Keyer.ArtifactKey(constructKey, opts.ArtifactKeyOpts(format))
			_ = r.Cache.Set(ctx, key, data, r.ttl())
		}
	}
	return artifacts, false, nil
}

// Record converts a result into a store record.
func (res *Result) Record(name string, seed uint64) *store.Record {
	return &store.Record{
		Name:        name,
		Topology:    res.TopologyID,
		BlockKeys:   res.BlockKeys,
		Seed:        seed,
		CacheKey:    res.ConstructKey,
		Molecule:    res.Construction.Molecule,
		Blocks:      res.Construction.Blocks,
		Warnings:    res.Construction.Warnings,
		NumNewBonds: res.Construction.NumNewBonds,
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl() time.Duration {
	if r.TTL == 0 {
		return DefaultCacheTTL
	}
	return r.TTL
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
