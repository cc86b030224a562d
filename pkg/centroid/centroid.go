// Package centroid finds the land-weighted centre of a region polygon.
//
// Resolution tries, in order: the mean of the land pixels the polygon
// covers, the mean of its distinct vertices, the midpoint of its bounding
// box and its first vertex. The first finite answer wins, so every
// non-empty polygon gets a centroid.
package centroid

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/matzehuels/landcells/pkg/errors"
	"github.com/matzehuels/landcells/pkg/geom"
	"github.com/matzehuels/landcells/pkg/landmask"
	"github.com/matzehuels/landcells/pkg/raster"
)

// Method records which step of the fallback chain produced a centroid.
type Method int

const (
	LandMean Method = iota
	VertexMean
	BoundsCenter
	FirstVertex
)

func (m Method) String() string {
	switch m {
	case LandMean:
		return "land-mean"
	case VertexMean:
		return "vertex-mean"
	case BoundsCenter:
		return "bounds-center"
	case FirstVertex:
		return "first-vertex"
	}
	return "unknown"
}

// Resolve returns the centroid of ring for region id. It fails with an
// *errors.InvalidGeometryError only when ring is empty or no step of the
// chain yields finite coordinates.
func Resolve(ring orb.Ring, m *landmask.Mask, id int) (orb.Point, Method, error) {
	ring = geom.Open(ring)
	if len(ring) == 0 {
		return orb.Point{}, 0, &errors.InvalidGeometryError{RegionID: id, Reason: "empty polygon"}
	}

	var sx, sy float64
	var n int
	raster.Spans(ring, m.Width(), m.Height(), func(y, x0, x1 int) {
		for x := x0; x < x1; x++ {
			if m.IsLand(x, y) {
				sx += float64(x)
				sy += float64(y)
				n++
			}
		}
	})
	if n > 0 {
		return orb.Point{sx / float64(n), sy / float64(n)}, LandMean, nil
	}

	if p := geom.VertexMean(ring); finite(p) {
		return p, VertexMean, nil
	}
	if p := boundsCenter(ring); finite(p) {
		return p, BoundsCenter, nil
	}
	if finite(ring[0]) {
		return ring[0], FirstVertex, nil
	}
	return orb.Point{}, 0, &errors.InvalidGeometryError{RegionID: id, Reason: "no finite centroid"}
}

// boundsCenter returns the bounding box midpoint, or NaN when any vertex
// is not finite.
func boundsCenter(r orb.Ring) orb.Point {
	lo := orb.Point{math.Inf(1), math.Inf(1)}
	hi := orb.Point{math.Inf(-1), math.Inf(-1)}
	for _, p := range r {
		if !finite(p) {
			return orb.Point{math.NaN(), math.NaN()}
		}
		lo = orb.Point{math.Min(lo[0], p[0]), math.Min(lo[1], p[1])}
		hi = orb.Point{math.Max(hi[0], p[0]), math.Max(hi[1], p[1])}
	}
	return orb.Point{lo[0]/2 + hi[0]/2, lo[1]/2 + hi[1]/2}
}

func finite(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsNaN(p[1]) && !math.IsInf(p[0], 0) && !math.IsInf(p[1], 0)
}
