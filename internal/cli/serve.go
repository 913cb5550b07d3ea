package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/molforge/internal/server"
	"github.com/matzehuels/molforge/pkg/config"
	"github.com/matzehuels/molforge/pkg/observability"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr         string
		noCache      bool
		buildTimeout time.Duration
		watchConfig  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API. Constructions are cached with the configured cache
backend and stored in the configured store (memory or MongoDB).

Prometheus metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			hooks, err := observability.NewPrometheusHooks(nil)
			if err != nil {
				return err
			}
			observability.SetPipelineHooks(hooks)
			observability.SetCacheHooks(hooks)
			observability.SetHTTPHooks(hooks)

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			st, err := newStore(ctx, cfg.Store)
			if err != nil {
				return err
			}
			defer st.Close()

			if watchConfig {
				path := c.ConfigPath
				if path == "" {
					path = config.DefaultPath()
				}
				config.Watch(path, func(next *config.Config) {
					c.Logger.SetLevel(parseLevel(next.Log.Level))
					c.Logger.Info("config reloaded", "log_level", next.Log.Level)
				}, func(err error) {
					c.Logger.Warn("config reload failed", "error", err)
				})
			}

			c.Logger.Info("starting server",
				"cache", cfg.Cache.Backend,
				"store", cfg.Store.Backend)
			srv := server.New(runner, st, c.Logger, server.Options{
				MaxBodyBytes: cfg.Server.MaxBodyBytes,
				BuildTimeout: buildTimeout,
			})
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the construction cache")
	cmd.Flags().DurationVar(&buildTimeout, "build-timeout", 2*time.Minute, "maximum duration of one construction")
	cmd.Flags().BoolVar(&watchConfig, "watch-config", false, "reload the log level when the config file changes")
	return cmd
}
