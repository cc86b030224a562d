// Package pkg provides the core libraries for landcells land partitioning.
//
// # Overview
//
// Landcells divides the land of a raster map into regions. Seeds are
// scattered over land pixels and relaxed with Lloyd's algorithm: every
// iteration builds the Voronoi diagram of the seeds, clips each cell to the
// land boundary and moves its seed to the land-weighted centroid of the
// clipped cell. The result is a set of compact, roughly equal regions that
// follow the coastline.
//
// # Architecture
//
// The typical data flow:
//
//	Map image (transparent = water)
//	         ↓
//	    [landmask] land pixels, boundary ring
//	         ↓
//	    [sampler] seeds on land
//	         ↓
//	    [relax] iterate: [voronoi] → [clipper] → [centroid]
//	         ↓
//	    [region] regions, records, adjacency
//	         ↓
//	    [store] persistence     [export] / [render] artifacts
//
// [pipeline] wires these stages together with a [cache] in front of the
// relaxation.
//
// # Quick Start
//
//	m, img, _ := landmask.LoadFile("world.png")
//	runner := pipeline.NewRunner(nil, nil, store.NewMemory(), nil)
//	res, _ := runner.Execute(ctx, m, img, pipeline.Options{Regions: 200})
//	for _, r := range res.Partition.Regions {
//	    fmt.Println(r.ID, r.Area())
//	}
//
// # Main Packages
//
// [geom] - Ring and polygon helpers on orb types: area, orientation,
// point-in-polygon, convex hull and shared edge length.
//
// [landmask] - Binary land raster built from an image's alpha channel.
//
// [sampler] - Rejection sampling of distinct seeds on land pixels.
//
// [voronoi] - Bounded Voronoi tessellation of a seed set.
//
// [clipper] - Polygon clipping of cells against the land boundary.
//
// [centroid] - Land-weighted centroid resolution with a geometric fallback.
//
// [relax] - The Lloyd relaxation loop and its movement policies.
//
// [store] - Region persistence: memory, file, Postgres, MongoDB, Redis.
//
// [export] - GeoJSON and WKT encoders with optional simplification.
//
// [render] - Adjacency graphs (Graphviz) and map overlays (PNG).
//
// [observability] - Hooks for metrics on runs, cache and persistence.
//
// [geom]: github.com/matzehuels/landcells/pkg/geom
// [landmask]: github.com/matzehuels/landcells/pkg/landmask
// [sampler]: github.com/matzehuels/landcells/pkg/sampler
// [voronoi]: github.com/matzehuels/landcells/pkg/voronoi
// [clipper]: github.com/matzehuels/landcells/pkg/clipper
// [centroid]: github.com/matzehuels/landcells/pkg/centroid
// [relax]: github.com/matzehuels/landcells/pkg/relax
// [region]: github.com/matzehuels/landcells/pkg/region
// [store]: github.com/matzehuels/landcells/pkg/store
// [export]: github.com/matzehuels/landcells/pkg/export
// [render]: github.com/matzehuels/landcells/pkg/render
// [pipeline]: github.com/matzehuels/landcells/pkg/pipeline
// [cache]: github.com/matzehuels/landcells/pkg/cache
// [observability]: github.com/matzehuels/landcells/pkg/observability
package pkg
