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

	"github.com/matzehuels/landcells/internal/config"
	"github.com/matzehuels/landcells/pkg/buildinfo"
	"github.com/matzehuels/landcells/pkg/cache"
	"github.com/matzehuels/landcells/pkg/pipeline"
	"github.com/matzehuels/landcells/pkg/store"
	"github.com/matzehuels/landcells/pkg/store/mongo"
	"github.com/matzehuels/landcells/pkg/store/postgres"
	"github.com/matzehuels/landcells/pkg/store/redis"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "landcells"
)

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

	// ConfigPath is the --config flag. Empty means the default location.
	ConfigPath string
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
		Use:   "landcells",
		Short: "Landcells partitions the land of a map into relaxed Voronoi regions",
		Long: `Landcells reads a map image whose transparent pixels are water, scatters
seeds over the land, and relaxes their Voronoi cells towards equal,
land-shaped regions. Regions can be exported, persisted and served.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default $XDG_CONFIG_HOME/landcells/config.toml)")

	// Register all subcommands
	root.AddCommand(c.partitionCommand())
	root.AddCommand(c.regionsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file, .env and environment.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner with the configured cache and store.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, noCache bool) (*pipeline.Runner, error) {
	cc, err := openCache(ctx, cfg.Cache, noCache, c.Logger)
	if err != nil {
		return nil, err
	}
	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		cc.Close()
		return nil, err
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Cache.Prefix)
	return pipeline.NewRunner(cc, keyer, st, c.Logger), nil
}

// openCache returns the partition cache for cfg. An unusable file cache
// location disables caching instead of failing the command.
func openCache(ctx context.Context, cfg config.Cache, noCache bool, logger *log.Logger) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis cache: %w", err)
		}
		return rc, nil
	}

	dir := cfg.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			logger.Debug("cache disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		logger.Debug("cache disabled", "dir", dir, "err", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// openStore returns the region store for cfg, or nil when persistence is
// disabled.
func openStore(ctx context.Context, cfg config.Store) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return store.NewMemory(), nil
	case config.BackendFile:
		dir := cfg.Dir
		if dir == "" {
			d, err := dataDir()
			if err != nil {
				return nil, fmt.Errorf("get data dir: %w", err)
			}
			dir = filepath.Join(d, "regions")
		}
		return store.NewFile(dir)
	case config.BackendPostgres:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = postgres.DSNFromEnv()
		}
		return postgres.Open(ctx, dsn)
	case config.BackendMongo:
		return mongo.Open(ctx, mongo.Config{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		})
	case config.BackendRedis:
		return redis.Open(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return nil, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/landcells/).
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

// dataDir returns the data directory using XDG standard (~/.local/share/landcells/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatJSON}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
