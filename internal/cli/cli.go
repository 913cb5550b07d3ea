package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/molforge/pkg/buildinfo"
	"github.com/matzehuels/molforge/pkg/cache"
	"github.com/matzehuels/molforge/pkg/config"
	"github.com/matzehuels/molforge/pkg/pipeline"
	"github.com/matzehuels/molforge/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "molforge"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is set by the --config flag. Empty means the default path.
	ConfigPath string

	cfg *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Molforge builds molecules from building blocks and topology graphs",
		Long:         `Molforge places building blocks on the vertices and edges of a topology graph (cages, covalent organic frameworks or your own definitions) and bonds their functional groups into a single molecule.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default ~/.config/molforge/config.toml)")

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.topologyCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config loads the application config once. A log level set in the config
// only applies when --verbose did not already lower it.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	if c.Logger.GetLevel() != LogDebug {
		c.Logger.SetLevel(parseLevel(cfg.Log.Level))
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	ch, err := newCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(cache.Instrumented(ch), nil, c.Logger)
	if cfg.Cache.TTL > 0 {
		runner.TTL = cfg.Cache.TTL
	}
	if cfg.Cache.KeyPrefix != "" {
		runner.Keyer = cache.NewScopedKeyer(runner.Keyer, cfg.Cache.KeyPrefix)
	}
	return runner, nil
}

// newCache opens the configured cache backend.
func newCache(ctx context.Context, cfg config.CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   appName + ":",
		})
	case config.CacheBadger:
		dir := cfg.BadgerDir
		if dir == "" {
			base, err := fileCacheDir(cfg)
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(base, "badger")
		}
		return cache.NewBadgerCache(dir)
	default:
		dir, err := fileCacheDir(cfg)
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// newStore opens the configured record store.
func newStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	if cfg.Backend != config.StoreMongo {
		return store.NewMemoryStore(), nil
	}
	return store.NewMongoStore(ctx, store.MongoConfig{
		URI:      cfg.MongoURI,
		Database: cfg.Database,
	})
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/molforge/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// fileCacheDir returns cache.dir from the config, or the XDG default.
func fileCacheDir(cfg config.CacheConfig) (string, error) {
	if cfg.Dir != "" {
		return cfg.Dir, nil
	}
	return cacheDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.DefaultFormat}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// parseLattice parses "2x2x1" or "2,2,1" into a lattice size. Missing
// trailing dimensions are 1.
func parseLattice(s string) ([3]int, error) {
	size := [3]int{1, 1, 1}
	if s == "" {
		return size, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == 'x' || r == ',' })
	if len(parts) == 0 || len(parts) > 3 {
		return size, fmt.Errorf("invalid lattice %q: want NxMxK", s)
	}
	for i, p := range parts {
		if _, err := fmt.Sscanf(p, "%d", &size[i]); err != nil {
			return size, fmt.Errorf("invalid lattice %q: %w", s, err)
		}
	}
	return size, nil
}
