// Package raster converts polygons to pixel sets on the mask grid.
//
// Pixel (x, y) is sampled at its centre, the integer point (x, y). A row is
// scanned at its integer y: an edge contributes a crossing when
// ymin <= y < ymax, and a span between crossings x0 and x1 covers the
// pixels with x0 <= x < x1. Two polygons sharing an edge therefore never
// claim the same pixel and leave no pixel on the edge unclaimed.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"slices"

	"github.com/disintegration/imaging"
	"github.com/paulmach/orb"

	"github.com/matzehuels/landcells/pkg/geom"
	"github.com/matzehuels/landcells/pkg/landmask"
)

// Spans calls fn for every run of pixels in row y, columns [x0, x1), whose
// sample points fall inside ring. Only pixels in [0,w)×[0,h) are visited.
func Spans(ring orb.Ring, w, h int, fn func(y, x0, x1 int)) {
	ring = geom.Open(ring)
	n := len(ring)
	if n < 3 || w <= 0 || h <= 0 {
		return
	}
	b := ring.Bound()
	y0 := clampInt(math.Ceil(b.Min[1]), 0, h)
	y1 := clampInt(math.Floor(b.Max[1]), -1, h-1)

	xs := make([]float64, 0, 8)
	for y := y0; y <= y1; y++ {
		fy := float64(y)
		xs = xs[:0]
		for i := range n {
			a, c := ring[i], ring[(i+1)%n]
			if a[1] > c[1] {
				a, c = c, a
			}
			if fy < a[1] || fy >= c[1] {
				continue
			}
			xs = append(xs, a[0]+(fy-a[1])*(c[0]-a[0])/(c[1]-a[1]))
		}
		slices.Sort(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			x0 := clampInt(math.Ceil(xs[i]), 0, w)
			x1 := clampInt(math.Ceil(xs[i+1]), 0, w)
			if x0 < x1 {
				fn(y, x0, x1)
			}
		}
	}
}

// clampInt converts v to an int in [lo, hi]. NaN maps to lo.
func clampInt(v float64, lo, hi int) int {
	switch {
	case math.IsNaN(v), v < float64(lo):
		return lo
	case v > float64(hi):
		return hi
	}
	return int(v)
}

// Pixels returns the pixels of ring that are land in m.
func Pixels(ring orb.Ring, m *landmask.Mask) []image.Point {
	var out []image.Point
	Spans(ring, m.Width(), m.Height(), func(y, x0, x1 int) {
		for x := x0; x < x1; x++ {
			if m.IsLand(x, y) {
				out = append(out, image.Point{X: x, Y: y})
			}
		}
	})
	return out
}

// Mask renders the land pixels of ring as a full-size alpha image.
func Mask(ring orb.Ring, m *landmask.Mask) *image.Alpha {
	img := image.NewAlpha(image.Rect(0, 0, m.Width(), m.Height()))
	for _, p := range Pixels(ring, m) {
		img.Pix[p.Y*img.Stride+p.X] = 0xff
	}
	return img
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
