package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"image"

	"github.com/matzehuels/landcells/pkg/export"
	"github.com/matzehuels/landcells/pkg/region"
	"github.com/matzehuels/landcells/pkg/render/nodelink"
	"github.com/matzehuels/landcells/pkg/render/overlay"
)

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, res *Result, base image.Image, opts Options) (map[string][]byte, error) {
	regions := res.Partition.Regions
	exportOpts := export.Options{Simplify: opts.Simplify, RunID: res.RunID}

	var dot string
	if opts.HasFormat(FormatDOT) || opts.HasFormat(FormatSVG) {
		dot = nodelink.ToDOT(regions, region.Adjacency(regions), nodelink.Options{Height: float64(res.Height)})
	}

	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			data, err = json.MarshalIndent(res, "", "  ")
		case FormatGeoJSON:
			data, err = export.GeoJSON(regions, exportOpts)
		case FormatWKT:
			data = export.WKT(regions, exportOpts)
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = overlay.RenderPNG(base, res.Width, res.Height, regions, overlay.Options{
				ShowSeeds:     opts.Overlay.Seeds,
				ShowCentroids: opts.Overlay.Centroids,
				Labels:        opts.Overlay.Labels,
				MaxSize:       opts.Overlay.MaxSize,
			})
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
