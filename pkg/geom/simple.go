package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// IsSimple reports whether r is a simple polygon: at least three distinct
// vertices, non-zero area, and no two edges touching other than adjacent
// edges at their shared vertex.
func IsSimple(r orb.Ring) bool {
	r = Open(r)
	n := len(r)
	if n < 3 || Area(r) <= Epsilon {
		return false
	}
	for i := range n {
		for j := i + 1; j < n; j++ {
			if almostEqual(r[i], r[j]) {
				return false
			}
		}
	}
	for i := range n {
		a1, a2 := r[i], r[(i+1)%n]
		for j := i + 1; j < n; j++ {
			b1, b2 := r[j], r[(j+1)%n]
			switch {
			case j == i+1:
				// shared vertex a2 == b1; only a fold back onto a1 counts
				if foldsBack(a1, a2, b2) {
					return false
				}
			case i == 0 && j == n-1:
				// shared vertex a1 == b2
				if foldsBack(a2, a1, b1) {
					return false
				}
			default:
				if segmentsTouch(a1, a2, b1, b2) {
					return false
				}
			}
		}
	}
	return true
}

// foldsBack reports whether the path a -> v -> b doubles back over itself.
func foldsBack(a, v, b orb.Point) bool {
	if math.Abs(lineDist(a, v, b)) > Epsilon {
		return false
	}
	// collinear: folding back means b lies on the v->a side
	return (b[0]-v[0])*(a[0]-v[0])+(b[1]-v[1])*(a[1]-v[1]) > 0
}

// segmentsTouch reports whether the closed segments p1p2 and q1q2 share any
// point.
func segmentsTouch(p1, p2, q1, q2 orb.Point) bool {
	d1 := lineDist(q1, q2, p1)
	d2 := lineDist(q1, q2, p2)
	d3 := lineDist(p1, p2, q1)
	d4 := lineDist(p1, p2, q2)

	if ((d1 > Epsilon && d2 < -Epsilon) || (d1 < -Epsilon && d2 > Epsilon)) &&
		((d3 > Epsilon && d4 < -Epsilon) || (d3 < -Epsilon && d4 > Epsilon)) {
		return true
	}
	return onSegment(p1, q1, q2) || onSegment(p2, q1, q2) ||
		onSegment(q1, p1, p2) || onSegment(q2, p1, p2)
}
