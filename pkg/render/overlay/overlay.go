// Package overlay draws a partition over the map it was computed from.
//
// Regions are filled with translucent colours derived from their IDs and
// outlined; seeds and centroids are optional markers. The map image is the
// background, so the result shows how regions follow the coastline.
package overlay

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/matzehuels/landcells/pkg/region"
)

// Options configures Render.
type Options struct {
	FillAlpha     float64 // region fill opacity in [0,1]; default 0.35
	LineWidth     float64 // outline width in map pixels; default 1
	ShowSeeds     bool
	ShowCentroids bool
	Labels        bool // draw region IDs at centroids
	MaxSize       int  // downscale so neither side exceeds MaxSize; 0 keeps size
}

func (o *Options) setDefaults() {
	if o.FillAlpha <= 0 {
		o.FillAlpha = 0.35
	}
	if o.LineWidth <= 0 {
		o.LineWidth = 1
	}
}

// Render draws regions over base. When base is nil a white canvas of the
// given size is used instead.
func Render(base image.Image, width, height int, regions []region.Region, opts Options) image.Image {
	opts.setDefaults()

	var dc *gg.Context
	if base != nil {
		dc = gg.NewContextForImage(base)
	} else {
		dc = gg.NewContext(width, height)
		dc.SetColor(color.White)
		dc.Clear()
	}
	// Pixel (x, y) covers [x-0.5, x+0.5) in region coordinates.
	dc.Translate(0.5, 0.5)

	for _, r := range regions {
		if len(r.Polygon) < 3 {
			continue
		}
		cr, cg, cb := Color(r.ID)
		dc.NewSubPath()
		dc.MoveTo(r.Polygon[0][0], r.Polygon[0][1])
		for _, p := range r.Polygon[1:] {
			dc.LineTo(p[0], p[1])
		}
		dc.ClosePath()
		dc.SetRGBA(cr, cg, cb, opts.FillAlpha)
		dc.FillPreserve()
		dc.SetRGBA(cr*0.6, cg*0.6, cb*0.6, 1)
		dc.SetLineWidth(opts.LineWidth)
		dc.Stroke()
	}

	for _, r := range regions {
		if opts.ShowSeeds {
			dc.DrawCircle(r.Seed[0], r.Seed[1], 2*opts.LineWidth)
			dc.SetRGB(0.1, 0.1, 0.1)
			dc.Fill()
		}
		if opts.ShowCentroids {
			dc.DrawCircle(r.Centroid[0], r.Centroid[1], 2*opts.LineWidth)
			dc.SetRGB(0.85, 0.1, 0.1)
			dc.Fill()
		}
		if opts.Labels {
			dc.SetRGB(0, 0, 0)
			dc.DrawStringAnchored(strconv.Itoa(r.ID), r.Centroid[0], r.Centroid[1]-4*opts.LineWidth, 0.5, 1)
		}
	}

	img := dc.Image()
	if opts.MaxSize > 0 {
		b := img.Bounds()
		if b.Dx() > opts.MaxSize || b.Dy() > opts.MaxSize {
			return imaging.Fit(img, opts.MaxSize, opts.MaxSize, imaging.Lanczos)
		}
	}
	return img
}

// RenderPNG renders and encodes as PNG.
func RenderPNG(base image.Image, width, height int, regions []region.Region, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, Render(base, width, height, regions, opts), imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Color returns a stable colour for a region ID as RGB in [0,1]. Hues step
// by the golden angle so neighbouring IDs differ.
func Color(id int) (r, g, b float64) {
	h := math.Mod(float64(id)*137.508, 360)
	return hsv(h, 0.65, 0.95)
}

func hsv(h, s, v float64) (float64, float64, float64) {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}
