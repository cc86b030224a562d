package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/landcells/internal/config"
	"github.com/matzehuels/landcells/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the partition cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached partitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.fileCache(cmd.Context())
			if err != nil {
				return err
			}
			if fc == nil {
				return nil
			}

			count, err := fc.Entries()
			if err != nil {
				return fmt.Errorf("count cache entries: %w", err)
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			if err := fc.Clear(); err != nil {
				return err
			}

			printSuccess("Cleared %d cached partitions", count)
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.fileCache(cmd.Context())
			if err != nil || fc == nil {
				return err
			}
			fmt.Println(fc.Dir())
			return nil
		},
	}
}

// fileCache opens the configured file cache. It returns nil after printing
// a notice when another backend is configured.
func (c *CLI) fileCache(ctx context.Context) (*cache.FileCache, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Backend != config.BackendFile {
		printWarning("Cache backend is %s; only the file cache is managed here", cfg.Cache.Backend)
		return nil, nil
	}
	cc, err := openCache(ctx, cfg.Cache, false, c.Logger)
	if err != nil {
		return nil, err
	}
	fc, ok := cc.(*cache.FileCache)
	if !ok {
		return nil, fmt.Errorf("cache directory is not usable")
	}
	return fc, nil
}
