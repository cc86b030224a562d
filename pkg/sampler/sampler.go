// Package sampler draws the initial seed points of a partition.
//
// Sampling is plain rejection sampling over the raster: a uniformly random
// integer pixel is accepted when it is land and has not been chosen
// before. The random source is always passed in, so a fixed seed gives a
// fixed set of points.
package sampler

import (
	"image"
	"math/rand/v2"

	"github.com/paulmach/orb"

	"github.com/matzehuels/landcells/pkg/errors"
	"github.com/matzehuels/landcells/pkg/landmask"
	"github.com/matzehuels/landcells/pkg/region"
)

// NewRand returns the PCG generator used for a given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

// Sample draws up to count unique land pixels using at most maxAttempts
// draws. Seeds are numbered 1..N in acceptance order.
//
// When fewer than count points are found, the points that were found are
// returned together with an *errors.InsufficientLandError. Callers decide
// whether a partial set is usable.
func Sample(m *landmask.Mask, count, maxAttempts int, rng *rand.Rand) ([]region.Seed, error) {
	if count <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "seed count must be positive, got %d", count)
	}
	if maxAttempts <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "max attempts must be positive, got %d", maxAttempts)
	}

	seeds := make([]region.Seed, 0, count)
	chosen := make(map[image.Point]struct{}, count)
	available := m.LandCount()
	for attempt := 0; attempt < maxAttempts && len(seeds) < count && len(seeds) < available; attempt++ {
		p := image.Point{X: rng.IntN(m.Width()), Y: rng.IntN(m.Height())}
		if !m.IsLand(p.X, p.Y) {
			continue
		}
		if _, dup := chosen[p]; dup {
			continue
		}
		chosen[p] = struct{}{}
		seeds = append(seeds, region.Seed{
			ID:  len(seeds) + 1,
			Pos: orb.Point{float64(p.X), float64(p.Y)},
		})
	}

	if len(seeds) < count {
		return seeds, &errors.InsufficientLandError{Found: len(seeds), Requested: count}
	}
	return seeds, nil
}
