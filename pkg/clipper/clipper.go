// Package clipper cuts Voronoi cells down to the land boundary.
package clipper

import (
	"github.com/paulmach/orb"

	"github.com/matzehuels/landcells/pkg/geom"
)

// Outcome says why a clip produced what it did.
type Outcome int

const (
	// Kept means the intersection was a single simple polygon.
	Kept Outcome = iota
	// Largest means several pieces came back and the largest was kept.
	Largest
	// Empty means the cell and the boundary do not share any area.
	Empty
	// Degenerate means the intersection collapsed to a line or a point.
	Degenerate
	// Invalid means no simple polygon could be recovered.
	Invalid
)

func (o Outcome) String() string {
	switch o {
	case Kept:
		return "kept"
	case Largest:
		return "largest"
	case Empty:
		return "empty"
	case Degenerate:
		return "degenerate"
	case Invalid:
		return "invalid"
	}
	return "unknown"
}

// Dropped reports whether the outcome leaves no polygon.
func (o Outcome) Dropped() bool {
	return o == Empty || o == Degenerate || o == Invalid
}

// Clip intersects cell with boundary and returns the polygon that
// represents the cell on land. When several disjoint pieces result, the
// largest by area is kept and the rest are discarded. The ring is nil
// whenever the outcome is dropped.
func Clip(cell, boundary orb.Ring) (orb.Ring, Outcome) {
	if !geom.Valid(cell) || !geom.Valid(boundary) {
		return nil, Degenerate
	}
	if !overlaps(cell.Bound(), boundary.Bound()) {
		return nil, Empty
	}

	pieces, err := geom.Intersect(cell, boundary)
	if err != nil {
		return nil, Invalid
	}
	if len(pieces) == 0 {
		if touches(cell, boundary) {
			return nil, Degenerate
		}
		return nil, Empty
	}

	best, outcome := 0, Kept
	if len(pieces) > 1 {
		outcome = Largest
		for i, p := range pieces {
			if geom.Area(p) > geom.Area(pieces[best]) {
				best = i
			}
		}
	}
	ring := pieces[best]
	if !geom.IsSimple(ring) {
		return nil, Invalid
	}
	return ring, outcome
}

func overlaps(a, b orb.Bound) bool {
	return a.Min[0] <= b.Max[0] && b.Min[0] <= a.Max[0] &&
		a.Min[1] <= b.Max[1] && b.Min[1] <= a.Max[1]
}

// touches reports whether a vertex of either ring lies on the other.
func touches(a, b orb.Ring) bool {
	for _, p := range a {
		if geom.Contains(b, p) {
			return true
		}
	}
	for _, p := range b {
		if geom.Contains(a, p) {
			return true
		}
	}
	return false
}
