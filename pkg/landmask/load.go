package landmask

import (
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/paulmach/orb"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/landcells/pkg/errors"
)

// Boundary strategies accepted by BoundaryFor.
const (
	BoundaryHull = "hull"
	BoundaryBBox = "bbox"
)

// LoadFile decodes the map image at path and builds its mask. PNG, GIF,
// JPEG, BMP, TIFF and WebP are recognised; formats without alpha fail
// with an *errors.ImageFormatError.
func LoadFile(path string) (*Mask, image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "map image %s", path)
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, nil, &errors.ImageFormatError{Reason: fmt.Sprintf("decode %s: %v", path, err)}
	}
	m, err := FromImage(img)
	if err != nil {
		return nil, nil, err
	}
	return m, img, nil
}

// BoundaryFor returns the boundary ring for the named strategy.
func (m *Mask) BoundaryFor(strategy string) (orb.Ring, error) {
	switch strategy {
	case "", BoundaryHull:
		return m.Boundary()
	case BoundaryBBox:
		if m.count == 0 {
			return nil, &errors.DegenerateInputError{Reason: "mask has no land"}
		}
		return m.BoundingBox(), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown boundary strategy %q", strategy)
}
