// Package landmask turns a raster transparency mask into the land/water
// grid the partition works on.
//
// A pixel is land when its alpha value is non-zero. Pixel (x, y) is
// treated as the unit square centred on the integer coordinate (x, y), so
// a polygon vertex at (x+0.5, y) sits on the seam between two pixels. The
// grid is immutable once built and safe for concurrent readers.
package landmask

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/paulmach/orb"

	"github.com/matzehuels/landcells/pkg/errors"
	"github.com/matzehuels/landcells/pkg/geom"
)

// Mask is a row-major land/water grid.
type Mask struct {
	width, height int
	land          []bool
	count         int
}

// New builds a mask from a row-major occupancy slice of length w*h.
func New(w, h int, land []bool) (*Mask, error) {
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mask dimensions must be positive, got %dx%d", w, h)
	}
	if len(land) != w*h {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mask has %d cells, want %d", len(land), w*h)
	}
	m := &Mask{width: w, height: h, land: make([]bool, len(land))}
	copy(m.land, land)
	for _, l := range land {
		if l {
			m.count++
		}
	}
	return m, nil
}

// FromRows builds a mask from text rows where '#' marks land and any other
// byte marks water. All rows must have the same length.
func FromRows(rows ...string) (*Mask, error) {
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no rows")
	}
	w := len(rows[0])
	land := make([]bool, 0, w*len(rows))
	for i, r := range rows {
		if len(r) != w {
			return nil, errors.New(errors.ErrCodeInvalidInput, "row %d has length %d, want %d", i, len(r), w)
		}
		for j := range len(r) {
			land = append(land, r[j] == '#')
		}
	}
	return New(w, len(rows), land)
}

// FromImage builds a mask from the alpha channel of img. Rasters without an
// alpha channel fail with an *errors.ImageFormatError.
func FromImage(img image.Image) (*Mask, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, &errors.ImageFormatError{Format: imageKind(img), Reason: "empty raster"}
	}
	if !hasAlpha(img) {
		return nil, &errors.ImageFormatError{Format: imageKind(img), Reason: "no alpha channel"}
	}

	w, h := b.Dx(), b.Dy()
	m := &Mask{width: w, height: h, land: make([]bool, w*h)}
	for y := range h {
		for x := range w {
			_, _, _, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			if a != 0 {
				m.land[y*w+x] = true
				m.count++
			}
		}
	}
	return m, nil
}

func hasAlpha(img image.Image) bool {
	switch im := img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.RGBA, *image.RGBA64, *image.Alpha, *image.Alpha16:
		return true
	case *image.Paletted:
		for _, c := range im.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
		return false
	case *image.Gray, *image.Gray16, *image.YCbCr, *image.CMYK:
		return false
	}
	switch img.ColorModel() {
	case color.NRGBAModel, color.NRGBA64Model, color.RGBAModel, color.RGBA64Model, color.AlphaModel, color.Alpha16Model:
		return true
	}
	return false
}

func imageKind(img image.Image) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", img), "*image.")
}

// Width returns the number of columns.
func (m *Mask) Width() int { return m.width }

// Height returns the number of rows.
func (m *Mask) Height() int { return m.height }

// LandCount returns the number of land pixels.
func (m *Mask) LandCount() int { return m.count }

// IsLand reports whether (x, y) is a land pixel. Coordinates outside the
// grid are water.
func (m *Mask) IsLand(x, y int) bool {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return false
	}
	return m.land[y*m.width+x]
}

// LandPixels returns the coordinates of every land pixel in row-major
// order.
func (m *Mask) LandPixels() []image.Point {
	out := make([]image.Point, 0, m.count)
	for i, l := range m.land {
		if l {
			out = append(out, image.Point{X: i % m.width, Y: i / m.width})
		}
	}
	return out
}

// Boundary returns the convex hull of the land pixel footprints. Concave
// coastlines are not followed; the hull covers every land pixel. A mask
// without land fails with an *errors.DegenerateInputError.
func (m *Mask) Boundary() (orb.Ring, error) {
	var corners []orb.Point
	for y := range m.height {
		first, last := -1, -1
		for x := range m.width {
			if m.land[y*m.width+x] {
				if first < 0 {
					first = x
				}
				last = x
			}
		}
		if first < 0 {
			continue
		}
		fy := float64(y)
		for _, x := range []float64{float64(first) - 0.5, float64(last) + 0.5} {
			corners = append(corners, orb.Point{x, fy - 0.5}, orb.Point{x, fy + 0.5})
		}
	}
	hull := geom.ConvexHull(corners)
	if len(hull) < 3 {
		return nil, &errors.DegenerateInputError{Points: m.count, Reason: "mask has no land to enclose"}
	}
	return hull, nil
}

// BoundingBox returns the full raster rectangle as a boundary ring.
func (m *Mask) BoundingBox() orb.Ring {
	return geom.BoundRing(m.Bound())
}

// Bound returns the raster extent in pixel-footprint coordinates.
func (m *Mask) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{-0.5, -0.5},
		Max: orb.Point{float64(m.width) - 0.5, float64(m.height) - 0.5},
	}
}

// Image returns the mask as an alpha image, opaque on land.
func (m *Mask) Image() *image.Alpha {
	img := image.NewAlpha(image.Rect(0, 0, m.width, m.height))
	for i, l := range m.land {
		if l {
			img.Pix[(i/m.width)*img.Stride+i%m.width] = 0xff
		}
	}
	return img
}
