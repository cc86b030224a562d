package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/landcells/pkg/cache"
	"github.com/matzehuels/landcells/pkg/errors"
	"github.com/matzehuels/landcells/pkg/landmask"
	"github.com/matzehuels/landcells/pkg/observability"
	"github.com/matzehuels/landcells/pkg/raster"
	"github.com/matzehuels/landcells/pkg/region"
	"github.com/matzehuels/landcells/pkg/relax"
	"github.com/matzehuels/landcells/pkg/sampler"
	"github.com/matzehuels/landcells/pkg/store"
	"github.com/matzehuels/landcells/pkg/voronoi"
)

// Runner encapsulates pipeline execution with caching and persistence.
// Both CLI and server use this to avoid duplicating stage logic.
//
// The Runner is stateless except for its cache, store and logger. Multiple
// goroutines can safely use the same Runner with different options as long
// as the store is safe for concurrent use.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  store.Store // nil disables persistence
	Logger *log.Logger
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, st store.Store, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Store:  st,
		Logger: logger,
	}
}

// Execute runs every stage. base is the map image drawn under the overlay
// artifact and may be nil.
func (r *Runner) Execute(ctx context.Context, m *landmask.Mask, base image.Image, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		RunID:     uuid.NewString(),
		MaskHash:  MaskHash(m),
		Width:     m.Width(),
		Height:    m.Height(),
		Artifacts: make(map[string][]byte),
	}
	logger := opts.Logger.With("run", result.RunID)
	opts.Logger = logger

	// Stages 1 and 2: Sample and relax
	part, hit, err := r.partition(ctx, m, result.MaskHash, opts, &result.Stats)
	if err != nil {
		return nil, err
	}
	result.Partition = part
	result.CacheHit = hit

	logger.Info("partitioned land",
		"regions", len(part.Regions),
		"state", part.State,
		"iterations", part.Iterations,
		"cached", hit)

	// Stages 3 and 4: Masks and persistence
	if r.Store != nil {
		persistStart := time.Now()
		var masks map[int][]byte
		if opts.Masks {
			masks = RegionMasks(part.Regions, m, logger)
		}
		report := store.PersistAll(ctx, r.Store, store.Batch{
			RunID:    result.RunID,
			Regions:  part.Regions,
			Masks:    masks,
			Expected: len(part.Seeds),
		}, store.Options{Workers: opts.Workers, Logger: logger})
		result.Store = &report
		result.Stats.PersistTime = time.Since(persistStart)

		logger.Info("persisted regions",
			"backend", r.Store.Name(),
			"written", len(report.Written),
			"missing", len(report.Missing),
			"duration", result.Stats.PersistTime)
	}

	// Stage 5: Render
	renderStart := time.Now()
	artifacts, err := Render(ctx, result, base, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	logger.Debug("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// partition returns the relaxed partition, from cache when possible.
func (r *Runner) partition(ctx context.Context, m *landmask.Mask, maskHash string, opts Options, stats *Stats) (*relax.Result, bool, error) {
	key := r.Keyer.PartitionKey(maskHash, opts.PartitionKeyOpts())
	hooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached relax.Result
			if err := json.Unmarshal(data, &cached); err == nil {
				hooks.OnCacheHit(ctx, "partition")
				stats.Requested = opts.Regions
				stats.Sampled = len(cached.Seeds)
				return &cached, true, nil
			}
			// Undecodable entries fall through to recompute
		}
		hooks.OnCacheMiss(ctx, "partition")
	}

	part, err := Partition(ctx, m, opts, stats)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(part); err == nil {
		if err := r.Cache.Set(ctx, key, data, TTLPartition); err == nil {
			hooks.OnCacheSet(ctx, "partition", len(data))
		} else {
			opts.Logger.Debug("cache write failed", "err", err)
		}
	}
	return part, false, nil
}

// Partition samples seeds on land and relaxes them, without caching.
// A sampling shortfall is logged and tolerated as long as enough seeds
// remain to tessellate.
func Partition(ctx context.Context, m *landmask.Mask, opts Options, stats *Stats) (*relax.Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if stats == nil {
		stats = &Stats{}
	}
	hooks := observability.Pipeline()

	sampleStart := time.Now()
	seeds, err := sampler.Sample(m, opts.Regions, opts.MaxSampleAttempts, sampler.NewRand(opts.Seed))
	stats.Requested = opts.Regions
	stats.Sampled = len(seeds)
	stats.SampleTime = time.Since(sampleStart)
	hooks.OnSampleComplete(ctx, opts.Regions, len(seeds), stats.SampleTime)
	if err != nil {
		if !errors.Is(err, errors.ErrCodeInsufficientLand) || len(seeds) < voronoi.MinSeeds {
			return nil, fmt.Errorf("sample: %w", err)
		}
		opts.Logger.Warn("sampling fell short", "found", len(seeds), "requested", opts.Regions)
	}

	boundary, err := m.BoundaryFor(opts.Boundary)
	if err != nil {
		return nil, fmt.Errorf("boundary: %w", err)
	}

	relaxStart := time.Now()
	part, err := relax.Run(ctx, m, boundary, seeds, opts.RelaxOptions())
	stats.RelaxTime = time.Since(relaxStart)
	if err != nil {
		return nil, fmt.Errorf("relax: %w", err)
	}
	return part, nil
}

// RegionMasks rasterizes each region against the land mask and encodes the
// result as PNG. Regions whose mask cannot be encoded are skipped.
func RegionMasks(regions []region.Region, m *landmask.Mask, logger *log.Logger) map[int][]byte {
	masks := make(map[int][]byte, len(regions))
	for _, reg := range regions {
		data, err := raster.EncodePNG(raster.Mask(reg.Polygon, m))
		if err != nil {
			logger.Warn("mask encode failed", "region", reg.ID, "err", err)
			continue
		}
		masks[reg.ID] = data
	}
	return masks
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	var err error
	if r.Cache != nil {
		err = r.Cache.Close()
	}
	if r.Store != nil {
		if serr := r.Store.Close(); err == nil {
			err = serr
		}
	}
	return err
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
