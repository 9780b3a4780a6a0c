package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/homematch/internal/server"
	"github.com/matzehuels/homematch/pkg/config"
)

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Endpoints:
  GET  /healthz          liveness check
  POST /v1/optimize      optimize a market document
  GET  /v1/runs          list recorded runs (?limit=N)
  GET  /v1/runs/{id}     show one run

Optimization defaults, cache and run store come from the config file. When no
store is configured, runs are kept in memory for the lifetime of the process.
Requests may lower max_leaves and workers but never raise them above the
configured values, and every optimization is bounded by optimize.timeout (or
server.optimize_timeout when that is unset).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}
			if c.Config.Store.Backend == config.StoreNone {
				c.Config.Store.Backend = config.StoreMemory
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			defaults := c.pipelineOptions()
			if defaults.Timeout <= 0 {
				defaults.Timeout = c.Config.Server.OptimizeTimeout
			}
			if err := defaults.ValidateAndSetDefaults(); err != nil {
				return err
			}
			srv := server.New(runner, c.Logger, server.Options{
				Defaults:     defaults,
				MaxBodyBytes: c.Config.Server.MaxBodyBytes,
				ReadTimeout:  c.Config.Server.ReadTimeout,
				WriteTimeout: c.Config.Server.WriteTimeout,
			})

			printInfo("Listening on %s", addr)
			printDetail("cache: %s, store: %s", cacheLabel(c.Config, noCache), c.Config.Store.Backend)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func cacheLabel(cfg config.Config, noCache bool) string {
	if noCache {
		return config.CacheNone
	}
	return cfg.Cache.Backend
}
