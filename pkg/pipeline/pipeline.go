// Package pipeline runs a complete land partition: sample seeds on land,
// relax them into regions, rasterize region masks, persist the regions and
// render the requested artifacts.
//
// This package centralizes defaults and stage ordering so that the CLI and
// the HTTP server behave the same way.
//
// # Stages
//
//  1. Sample: draw seed points uniformly from land pixels
//  2. Relax: land-constrained Lloyd relaxation (see package relax)
//  3. Masks: rasterize each region against the land mask and encode PNG
//  4. Persist: write regions and masks to a store.Store
//  5. Render: produce JSON, GeoJSON, WKT, adjacency DOT/SVG or an overlay PNG
//
// Stages 1 and 2 are cached by mask hash and options, so re-running the
// same map only repeats persistence and rendering.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, st, logger)
//	result, err := runner.Execute(ctx, mask, mapImage, pipeline.Options{
//	    Regions: 50,
//	    Formats: []string{"geojson", "png"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	gj := result.Artifacts["geojson"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/landcells/pkg/cache"
	"github.com/matzehuels/landcells/pkg/errors"
	"github.com/matzehuels/landcells/pkg/landmask"
	"github.com/matzehuels/landcells/pkg/relax"
	"github.com/matzehuels/landcells/pkg/store"
	"github.com/matzehuels/landcells/pkg/voronoi"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultRegions is the number of seeds sampled on land.
	DefaultRegions = 100

	// DefaultMaxSampleAttempts bounds rejection sampling.
	DefaultMaxSampleAttempts = 10000

	// DefaultIterations is the relaxation iteration budget.
	DefaultIterations = relax.DefaultIterations

	// DefaultMovementThreshold is the convergence threshold in pixels.
	DefaultMovementThreshold = relax.DefaultMovementThreshold

	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)

	// DefaultPolicy is the default seed movement policy.
	DefaultPolicy = string(relax.DefaultPolicy)

	// DefaultBoundary is the default clipping boundary strategy.
	DefaultBoundary = landmask.BoundaryHull
)

// Format constants for output artifacts.
const (
	FormatJSON    = "json"
	FormatGeoJSON = "geojson"
	FormatWKT     = "wkt"
	FormatDOT     = "dot"
	FormatSVG     = "svg"
	FormatPNG     = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON:    true,
	FormatGeoJSON: true,
	FormatWKT:     true,
	FormatDOT:     true,
	FormatSVG:     true,
	FormatPNG:     true,
}

// ValidBoundaries is the set of supported boundary strategies.
var ValidBoundaries = map[string]bool{
	landmask.BoundaryHull: true,
	landmask.BoundaryBBox: true,
}

// TTLPartition is how long cached partitions live.
const TTLPartition = 30 * 24 * time.Hour

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a partition run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Sampling
	Regions           int    `json:"regions,omitempty"`
	MaxSampleAttempts int    `json:"max_sample_attempts,omitempty"`
	Seed              uint64 `json:"seed,omitempty"`

	// Relaxation
	Iterations        int     `json:"iterations,omitempty"`
	MovementThreshold float64 `json:"movement_threshold,omitempty"`
	Policy            string  `json:"policy,omitempty"`
	Boundary          string  `json:"boundary,omitempty"`
	Workers           int     `json:"workers,omitempty"`

	// Output
	Masks    bool     `json:"masks,omitempty"` // rasterize and persist per-region PNG masks
	Formats  []string `json:"formats,omitempty"`
	Simplify float64  `json:"simplify,omitempty"` // Douglas-Peucker tolerance for GeoJSON/WKT
	Overlay  Overlay  `json:"overlay,omitzero"`
	Refresh  bool     `json:"refresh,omitempty"` // ignore cached partitions

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Overlay configures the PNG overlay artifact.
type Overlay struct {
	Seeds     bool `json:"seeds,omitempty"`
	Centroids bool `json:"centroids,omitempty"`
	Labels    bool `json:"labels,omitempty"`
	MaxSize   int  `json:"max_size,omitempty"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this run in stores and logs.
	RunID string `json:"run_id"`

	// MaskHash is the content hash of the land mask.
	MaskHash string `json:"mask_hash"`

	Width  int `json:"width"`
	Height int `json:"height"`

	// Partition is the relaxation outcome.
	Partition *relax.Result `json:"partition"`

	// Store summarizes persistence when a store is configured.
	Store *store.Report `json:"store,omitempty"`

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte `json:"-"`

	// Stats contains timing information.
	Stats Stats `json:"stats"`

	// CacheHit is true when the partition came from the cache.
	CacheHit bool `json:"cache_hit"`
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Requested   int           `json:"requested"`
	Sampled     int           `json:"sampled"`
	SampleTime  time.Duration `json:"sample_time"`
	RelaxTime   time.Duration `json:"relax_time"`
	PersistTime time.Duration `json:"persist_time"`
	RenderTime  time.Duration `json:"render_time"`
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid format: %q (must be one of: json, geojson, wkt, dot, svg, png)", format)
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

// ValidatePolicy checks that a movement policy is valid.
func ValidatePolicy(policy string) error {
	if !relax.ValidPolicies[relax.Policy(policy)] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid policy: %q (must be one of: %s, %s)", policy, relax.GateSmallMoves, relax.AlwaysMove)
	}
	return nil
}

// ValidateBoundary checks that a boundary strategy is valid.
func ValidateBoundary(boundary string) error {
	if !ValidBoundaries[boundary] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid boundary: %q (must be one of: hull, bbox)", boundary)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := o.Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetDefaults fills zero fields with defaults.
func (o *Options) SetDefaults() {
	if o.Regions == 0 {
		o.Regions = DefaultRegions
	}
	if o.MaxSampleAttempts == 0 {
		o.MaxSampleAttempts = DefaultMaxSampleAttempts
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Iterations == 0 {
		o.Iterations = DefaultIterations
	}
	if o.MovementThreshold == 0 {
		o.MovementThreshold = DefaultMovementThreshold
	}
	if o.Policy == "" {
		o.Policy = DefaultPolicy
	}
	if o.Boundary == "" {
		o.Boundary = DefaultBoundary
	}
	if o.Workers == 0 {
		o.Workers = 1
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks option values. Call SetDefaults first.
func (o *Options) Validate() error {
	switch {
	case o.Regions < voronoi.MinSeeds:
		return errors.New(errors.ErrCodeInvalidInput, "regions must be at least %d, got %d", voronoi.MinSeeds, o.Regions)
	case o.MaxSampleAttempts < o.Regions:
		return errors.New(errors.ErrCodeInvalidInput,
			"max_sample_attempts (%d) must be at least regions (%d)", o.MaxSampleAttempts, o.Regions)
	case o.Iterations < 1:
		return errors.New(errors.ErrCodeInvalidInput, "iterations must be positive, got %d", o.Iterations)
	case o.MovementThreshold <= 0:
		return errors.New(errors.ErrCodeInvalidInput, "movement_threshold must be positive, got %v", o.MovementThreshold)
	case o.Workers < 1:
		return errors.New(errors.ErrCodeInvalidInput, "workers must be positive, got %d", o.Workers)
	case o.Simplify < 0:
		return errors.New(errors.ErrCodeInvalidInput, "simplify must not be negative, got %v", o.Simplify)
	}
	if err := ValidatePolicy(o.Policy); err != nil {
		return err
	}
	if err := ValidateBoundary(o.Boundary); err != nil {
		return err
	}
	return ValidateFormats(o.Formats)
}

// PartitionKeyOpts returns cache key options for the partition stages.
func (o *Options) PartitionKeyOpts() cache.PartitionKeyOpts {
	return cache.PartitionKeyOpts{
		Regions:           o.Regions,
		MaxSampleAttempts: o.MaxSampleAttempts,
		Iterations:        o.Iterations,
		MovementThreshold: o.MovementThreshold,
		Policy:            o.Policy,
		Boundary:          o.Boundary,
		Seed:              o.Seed,
	}
}

// RelaxOptions returns the relaxation options.
func (o *Options) RelaxOptions() relax.Options {
	return relax.Options{
		Iterations:        o.Iterations,
		MovementThreshold: o.MovementThreshold,
		Policy:            relax.Policy(o.Policy),
		Workers:           o.Workers,
		Logger:            o.Logger,
	}
}

// HasFormat reports whether format was requested.
func (o *Options) HasFormat(format string) bool {
	for _, f := range o.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// MaskHash returns the content hash of a land mask.
func MaskHash(m *landmask.Mask) string {
	img := m.Image()
	data := make([]byte, 0, len(img.Pix)+32)
	data = fmt.Appendf(data, "%dx%d:", m.Width(), m.Height())
	data = append(data, img.Pix...)
	return cache.Hash(data)
}
