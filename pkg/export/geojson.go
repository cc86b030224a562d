package export

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"

	"github.com/matzehuels/landcells/pkg/geom"
	"github.com/matzehuels/landcells/pkg/region"
)

// Options configures the exporters.
type Options struct {
	// Simplify is the Douglas-Peucker tolerance in pixels. Zero keeps every
	// vertex.
	Simplify float64
	// RunID is written as a property on every feature when set.
	RunID string
}

// GeoJSON encodes regions as a FeatureCollection in pixel coordinates.
func GeoJSON(regions []region.Region, opts Options) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, r := range regions {
		f := geojson.NewFeature(polygon(r.Polygon, opts.Simplify))
		f.ID = r.ID
		f.Properties["region_id"] = r.ID
		f.Properties["centroid_x"] = r.Centroid[0]
		f.Properties["centroid_y"] = r.Centroid[1]
		f.Properties["seed_x"] = r.Seed[0]
		f.Properties["seed_y"] = r.Seed[1]
		f.Properties["area"] = r.Area()
		if opts.RunID != "" {
			f.Properties["run_id"] = opts.RunID
		}
		fc.Append(f)
	}
	return fc.MarshalJSON()
}

// ReadGeoJSON decodes a FeatureCollection written by GeoJSON.
func ReadGeoJSON(data []byte) ([]region.Region, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	out := make([]region.Region, 0, len(fc.Features))
	for i, f := range fc.Features {
		poly, ok := f.Geometry.(orb.Polygon)
		if !ok || len(poly) == 0 {
			return nil, fmt.Errorf("feature %d: want Polygon, got %T", i, f.Geometry)
		}
		id, ok := f.Properties["region_id"].(float64)
		if !ok {
			return nil, fmt.Errorf("feature %d: missing region_id", i)
		}
		out = append(out, region.Region{
			ID:       int(id),
			Polygon:  geom.Open(poly[0]),
			Centroid: orb.Point{f.Properties.MustFloat64("centroid_x", 0), f.Properties.MustFloat64("centroid_y", 0)},
			Seed:     orb.Point{f.Properties.MustFloat64("seed_x", 0), f.Properties.MustFloat64("seed_y", 0)},
		})
	}
	return out, nil
}

// polygon closes ring and thins it when tolerance is positive. A ring
// that would collapse below a triangle is kept as is.
func polygon(ring orb.Ring, tolerance float64) orb.Polygon {
	closed := geom.Close(ring.Clone())
	if tolerance <= 0 {
		return orb.Polygon{closed}
	}
	thin := simplify.DouglasPeucker(tolerance).Ring(closed.Clone())
	if len(thin) < 4 {
		return orb.Polygon{closed}
	}
	return orb.Polygon{thin}
}
