package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// SharedLength returns the total length of boundary that rings a and b
// have in common: collinear edge pairs whose extents overlap.
func SharedLength(a, b orb.Ring) float64 {
	ba, bb := a.Bound().Pad(Epsilon), b.Bound().Pad(Epsilon)
	if !ba.Intersects(bb) {
		return 0
	}
	a, b = Open(a), Open(b)
	var total float64
	for i := range a {
		p, q := a[i], a[(i+1)%len(a)]
		l := dist(p, q)
		if l <= Epsilon {
			continue
		}
		for j := range b {
			r, s := b[j], b[(j+1)%len(b)]
			if math.Abs(lineDist(p, q, r)) > Epsilon || math.Abs(lineDist(p, q, s)) > Epsilon {
				continue
			}
			t0, t1 := segmentParam(r, p, q), segmentParam(s, p, q)
			if t0 > t1 {
				t0, t1 = t1, t0
			}
			lo, hi := math.Max(t0, 0), math.Min(t1, 1)
			if hi > lo {
				total += (hi - lo) * l
			}
		}
	}
	return total
}
