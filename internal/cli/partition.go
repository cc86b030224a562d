package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/landcells/internal/config"
	"github.com/matzehuels/landcells/pkg/landmask"
	"github.com/matzehuels/landcells/pkg/pipeline"
)

// artifactSuffix is appended to the output base per format. The overlay
// gets a compound suffix so it never overwrites a PNG input map.
var artifactSuffix = map[string]string{
	pipeline.FormatJSON:    ".cells.json",
	pipeline.FormatGeoJSON: ".geojson",
	pipeline.FormatWKT:     ".wkt",
	pipeline.FormatDOT:     ".dot",
	pipeline.FormatSVG:     ".svg",
	pipeline.FormatPNG:     ".overlay.png",
}

// partitionFlags holds the command-line flags for the partition command.
// Only flags the user sets override the config file.
type partitionFlags struct {
	regions    int
	attempts   int
	seed       uint64
	iterations int
	threshold  float64
	policy     string
	boundary   string
	workers    int
	masks      bool
	simplify   float64
	formats    string
	output     string
	refresh    bool
	noCache    bool
	store      string
	seeds      bool
	centroids  bool
	labels     bool
	maxSize    int
}

// partitionCommand creates the partition command.
func (c *CLI) partitionCommand() *cobra.Command {
	var f partitionFlags

	cmd := &cobra.Command{
		Use:   "partition [map-image]",
		Short: "Partition the land of a map image into regions",
		Long: `Partition the land of a map image into regions.

Transparent pixels are water, everything else is land. Seeds are scattered
over the land and relaxed with Lloyd's algorithm: each iteration clips the
Voronoi cells to the coastline and moves every seed to the land centroid of
its cell.

Outputs are written next to the input (or to --output):
  json     <base>.cells.json   full result with regions and seeds
  geojson  <base>.geojson      FeatureCollection of region polygons
  wkt      <base>.wkt          one POLYGON per line
  dot/svg  <base>.dot/.svg     region adjacency graph
  png      <base>.overlay.png  regions drawn over the map

Partitions are cached by map content and options.`,
		Example: `  landcells partition world.png -n 200
  landcells partition world.png -n 50 --seed 7 -f json,png --seeds
  landcells partition world.png --store postgres --masks`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := f.apply(cmd.Flags(), &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runPartition(cmd.Context(), args[0], cfg, opts, f.output, f.noCache)
		},
	}

	fl := cmd.Flags()
	fl.IntVarP(&f.regions, "regions", "n", pipeline.DefaultRegions, "number of regions")
	fl.IntVar(&f.attempts, "max-attempts", pipeline.DefaultMaxSampleAttempts, "seed sampling attempts before giving up")
	fl.Uint64Var(&f.seed, "seed", pipeline.DefaultSeed, "random seed")
	fl.IntVar(&f.iterations, "iterations", pipeline.DefaultIterations, "maximum relaxation iterations")
	fl.Float64Var(&f.threshold, "threshold", pipeline.DefaultMovementThreshold, "stop when no seed moves further than this (pixels)")
	fl.StringVar(&f.policy, "policy", pipeline.DefaultPolicy, "seed movement policy: gate-small-moves, always-move")
	fl.StringVar(&f.boundary, "boundary", pipeline.DefaultBoundary, "clip boundary: hull, bbox")
	fl.IntVarP(&f.workers, "workers", "w", 1, "parallel workers for cell resolution and persistence")
	fl.BoolVar(&f.masks, "masks", false, "rasterize and persist per-region masks")
	fl.Float64Var(&f.simplify, "simplify", 0, "Douglas-Peucker tolerance for geojson and wkt (pixels)")
	fl.StringVarP(&f.formats, "format", "f", "", "output format(s): json (default), geojson, wkt, dot, svg, png (comma-separated)")
	fl.StringVarP(&f.output, "output", "o", "", "output file (single format) or base path (multiple)")
	fl.BoolVar(&f.refresh, "refresh", false, "recompute even if a cached partition exists")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	fl.StringVar(&f.store, "store", "", "region store: none, memory, file, postgres, mongo, redis")
	fl.BoolVar(&f.seeds, "seeds", false, "draw seeds on the overlay")
	fl.BoolVar(&f.centroids, "centroids", false, "draw centroids on the overlay")
	fl.BoolVar(&f.labels, "labels", false, "draw region IDs on the overlay")
	fl.IntVar(&f.maxSize, "max-size", 0, "downscale the overlay so its longer side fits (pixels)")

	return cmd
}

// apply overlays explicitly set flags on the config and returns the
// resulting pipeline options.
func (f *partitionFlags) apply(fs *pflag.FlagSet, cfg *config.Config) pipeline.Options {
	if fs.Changed("store") {
		cfg.Store.Backend = f.store
	}

	opts := cfg.Options()
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("regions", func() { opts.Regions = f.regions })
	set("max-attempts", func() { opts.MaxSampleAttempts = f.attempts })
	set("seed", func() { opts.Seed = f.seed })
	set("iterations", func() { opts.Iterations = f.iterations })
	set("threshold", func() { opts.MovementThreshold = f.threshold })
	set("policy", func() { opts.Policy = f.policy })
	set("boundary", func() { opts.Boundary = f.boundary })
	set("workers", func() { opts.Workers = f.workers })
	set("masks", func() { opts.Masks = f.masks })
	set("simplify", func() { opts.Simplify = f.simplify })

	opts.Formats = parseFormats(f.formats)
	opts.Refresh = f.refresh
	opts.Overlay = pipeline.Overlay{
		Seeds:     f.seeds,
		Centroids: f.centroids,
		Labels:    f.labels,
		MaxSize:   f.maxSize,
	}
	return opts
}

// runPartition loads the map, runs the pipeline and writes the artifacts.
func (c *CLI) runPartition(ctx context.Context, input string, cfg config.Config, opts pipeline.Options, output string, noCache bool) error {
	ctx = withLogger(ctx, c.Logger)
	prog := newProgress(c.Logger)

	m, img, err := landmask.LoadFile(input)
	if err != nil {
		return fmt.Errorf("load map %s: %w", input, err)
	}
	c.Logger.Debug("loaded map", "width", m.Width(), "height", m.Height(), "land", m.LandCount())

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Partitioning %s...", filepath.Base(input)))
	spinner.Start()
	restore := trackRelax(spinner, opts.Iterations)
	res, err := runner.Execute(ctx, m, img, opts)
	restore()
	if err != nil {
		spinner.StopWithError("Partition failed")
		return fmt.Errorf("partition: %w", err)
	}
	spinner.Stop()
	prog.done("Partitioned " + input)

	part := res.Partition
	printSuccess("Partitioned %s", input)
	printStats(len(part.Regions), part.Iterations, part.State.String(), res.CacheHit)
	if len(part.Dropped) > 0 {
		printWarning("%d seeds had no land in their cell: %v", len(part.Dropped), part.Dropped)
	}
	if res.Store != nil {
		if res.Store.OK() {
			printDetail("Stored %d regions in %s (run %s)", len(res.Store.Written), runner.Store.Name(), res.RunID)
		} else {
			printWarning("%d regions missing from %s: %v", len(res.Store.Missing), runner.Store.Name(), res.Store.Missing)
		}
	}

	paths, err := writeArtifacts(ctx, res.Artifacts, opts.Formats, input, output)
	for _, p := range paths {
		printFile(p)
	}
	if err != nil {
		return err
	}

	if i := slices.Index(opts.Formats, pipeline.FormatJSON); i >= 0 {
		printNewline()
		printNextStep("List regions", "landcells regions "+paths[i])
	}
	return nil
}

// writeArtifacts writes each rendered format and returns the paths in
// format order. Paths written before a failure are still returned.
func writeArtifacts(ctx context.Context, artifacts map[string][]byte, formats []string, input, output string) ([]string, error) {
	logger := loggerFromContext(ctx)
	var paths []string
	for _, format := range formats {
		path := artifactPath(input, output, format, len(formats) == 1)
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return paths, fmt.Errorf("create output dir: %w", err)
			}
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", format, err)
		}
		logger.Debug("wrote artifact", "format", format, "path", path, "bytes", len(artifacts[format]))
		paths = append(paths, path)
	}
	return paths, nil
}

// artifactPath names the output file for format. A single format with an
// explicit output uses it verbatim; otherwise output (or the input without
// its extension) is the base.
func artifactPath(input, output, format string, single bool) string {
	if output != "" && single {
		return output
	}
	base := output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	}
	return base + artifactSuffix[format]
}
