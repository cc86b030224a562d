package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/landcells/internal/config"
	"github.com/matzehuels/landcells/internal/metrics"
	"github.com/matzehuels/landcells/internal/server"
)

// shutdownTimeout bounds graceful shutdown after the context is cancelled.
const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		maxRuns int
		timeout time.Duration
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the partition HTTP API",
		Long: `Serve the partition HTTP API.

POST a map image to /v1/partitions (query parameters regions, seed,
iterations, threshold, policy, boundary, formats, simplify, refresh) and
read the run back under /v1/partitions/{run}. Prometheus metrics are
exposed on /metrics.

Regions are persisted to the configured store; the default is an
in-memory store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cfg.Store.Backend == config.BackendNone {
				cfg.Store.Backend = config.BackendMemory
			}
			return c.runServe(cmd.Context(), cfg, server.Options{
				MaxRuns: maxRuns,
				Timeout: timeout,
			}, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().IntVar(&maxRuns, "max-runs", server.DefaultMaxRuns, "runs kept in memory")
	cmd.Flags().DurationVar(&timeout, "timeout", server.DefaultTimeout, "per-request partition timeout")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runServe listens until ctx is cancelled, then shuts down gracefully.
func (c *CLI) runServe(ctx context.Context, cfg config.Config, opts server.Options, noCache bool) error {
	metrics.Install()

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Defaults = cfg.Options()
	opts.Logger = c.Logger
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(runner, opts).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	c.Logger.Info("serving", "addr", cfg.Server.Addr, "store", runner.Store.Name())
	printInfo("Listening on %s", StyleHighlight.Render(cfg.Server.Addr))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	c.Logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
