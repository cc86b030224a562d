// Package config loads landcells settings from a TOML file, a .env file
// and LANDCELLS_* environment variables, in increasing precedence.
// Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	lcerrors "github.com/matzehuels/landcells/pkg/errors"
	"github.com/matzehuels/landcells/pkg/pipeline"
)

// Backend names.
const (
	BackendNone     = "none"
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Config is the full settings tree.
type Config struct {
	Partition Partition `toml:"partition"`
	Cache     Cache     `toml:"cache"`
	Store     Store     `toml:"store"`
	Server    Server    `toml:"server"`
}

// Partition holds pipeline defaults. Zero values defer to pipeline defaults.
type Partition struct {
	Regions           int     `toml:"regions"`
	MaxSampleAttempts int     `toml:"max_sample_attempts"`
	Iterations        int     `toml:"iterations"`
	MovementThreshold float64 `toml:"movement_threshold"`
	Policy            string  `toml:"policy"`
	Boundary          string  `toml:"boundary"`
	Seed              uint64  `toml:"seed"`
	Workers           int     `toml:"workers"`
	Masks             bool    `toml:"masks"`
	Simplify          float64 `toml:"simplify"`
}

// Cache selects the partition cache backend: none, file or redis.
type Cache struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
	Prefix  string `toml:"prefix"` // prepended to every cache key
	Redis   Redis  `toml:"redis"`
}

// Store selects the region store backend: none, memory, file, postgres,
// mongo or redis.
type Store struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
	DSN     string `toml:"dsn"` // postgres; empty builds one from PG_* variables
	Mongo   Mongo  `toml:"mongo"`
	Redis   Redis  `toml:"redis"`
}

// Redis connection settings.
type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Mongo connection settings.
type Mongo struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Server settings for the serve command.
type Server struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Cache:  Cache{Backend: BackendFile},
		Store:  Store{Backend: BackendNone},
		Server: Server{Addr: ":8080"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/landcells/config.toml, falling back
// to ~/.config.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "landcells", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "landcells", "config.toml")
}

// Load reads path (a missing default file is not an error), then .env, then
// the environment. An explicit path that does not exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return cfg, fmt.Errorf("config %s: %w", path, err)
			}
		}
	}

	_ = godotenv.Load(".env")
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Decode parses TOML text over the defaults without touching the
// environment.
func Decode(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("LANDCELLS_CACHE", &c.Cache.Backend)
	str("LANDCELLS_CACHE_DIR", &c.Cache.Dir)
	str("LANDCELLS_CACHE_PREFIX", &c.Cache.Prefix)
	str("LANDCELLS_STORE", &c.Store.Backend)
	str("LANDCELLS_STORE_DIR", &c.Store.Dir)
	str("LANDCELLS_PG_DSN", &c.Store.DSN)
	str("LANDCELLS_MONGO_URI", &c.Store.Mongo.URI)
	str("LANDCELLS_REDIS_ADDR", &c.Store.Redis.Addr)
	str("LANDCELLS_REDIS_ADDR", &c.Cache.Redis.Addr)
	str("LANDCELLS_REDIS_PASSWORD", &c.Store.Redis.Password)
	str("LANDCELLS_REDIS_PASSWORD", &c.Cache.Redis.Password)
	str("LANDCELLS_ADDR", &c.Server.Addr)

	if v := os.Getenv("LANDCELLS_REGIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LANDCELLS_REGIONS: %w", err)
		}
		c.Partition.Regions = n
	}
	if v := os.Getenv("LANDCELLS_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("LANDCELLS_SEED: %w", err)
		}
		c.Partition.Seed = n
	}
	return nil
}

// Validate checks backend names.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case BackendNone, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("cache backend %q: must be one of none, file, redis", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case BackendNone, BackendMemory, BackendFile, BackendPostgres, BackendMongo, BackendRedis:
	default:
		return fmt.Errorf("store backend %q: must be one of none, memory, file, postgres, mongo, redis", c.Store.Backend)
	}
	if c.Store.Backend == BackendMongo && c.Store.Mongo.URI != "" {
		if err := lcerrors.ValidateURI(c.Store.Mongo.URI, "mongodb", "mongodb+srv"); err != nil {
			return fmt.Errorf("store mongo uri: %w", err)
		}
	}
	return nil
}

// Options converts the partition section to pipeline options.
func (c Config) Options() pipeline.Options {
	p := c.Partition
	return pipeline.Options{
		Regions:           p.Regions,
		MaxSampleAttempts: p.MaxSampleAttempts,
		Iterations:        p.Iterations,
		MovementThreshold: p.MovementThreshold,
		Policy:            p.Policy,
		Boundary:          p.Boundary,
		Seed:              p.Seed,
		Workers:           p.Workers,
		Masks:             p.Masks,
		Simplify:          p.Simplify,
	}
}
