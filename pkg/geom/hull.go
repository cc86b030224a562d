package geom

import (
	"cmp"
	"math"
	"slices"

	"github.com/paulmach/orb"
)

// ConvexHull returns the convex hull of pts as an open ring with positive
// orientation. Collinear points on the hull edges are dropped. Fewer than
// three points, or points that are all collinear, yield a ring with fewer
// than three vertices.
func ConvexHull(pts []orb.Point) orb.Ring {
	ps := slices.Clone(pts)
	slices.SortFunc(ps, func(a, b orb.Point) int {
		if c := cmp.Compare(a[0], b[0]); c != 0 {
			return c
		}
		return cmp.Compare(a[1], b[1])
	})
	ps = slices.CompactFunc(ps, almostEqual)
	if len(ps) < 3 {
		return orb.Ring(ps)
	}

	hull := make(orb.Ring, 0, 2*len(ps))
	for _, p := range ps {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(ps) - 2; i >= 0; i-- {
		p := ps[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// SortByAngle orders the vertices of r by polar angle around their mean,
// which yields a simple ring with positive orientation for any star-shaped
// vertex set. The input is not modified.
func SortByAngle(r orb.Ring) orb.Ring {
	r = Open(r)
	c := VertexMean(r)
	out := slices.Clone(r)
	slices.SortStableFunc(out, func(a, b orb.Point) int {
		return cmp.Compare(
			math.Atan2(a[1]-c[1], a[0]-c[0]),
			math.Atan2(b[1]-c[1], b[0]-c[0]),
		)
	})
	return out
}

// IsConvex reports whether r is a convex ring of either orientation.
// Collinear vertices are tolerated.
func IsConvex(r orb.Ring) bool {
	r = Open(r)
	n := len(r)
	if n < 3 {
		return false
	}
	sign := 0
	for i := range n {
		a, b, c := r[i], r[(i+1)%n], r[(i+2)%n]
		d := cross(a, b, c)
		if math.Abs(d) <= Epsilon*math.Max(1, dist(a, b)*dist(b, c)) {
			continue
		}
		s := 1
		if d < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if s != sign {
			return false
		}
	}
	return sign != 0 && IsSimple(r)
}

// BoundRing returns the axis-aligned rectangle of b as an open ring with
// positive orientation.
func BoundRing(b orb.Bound) orb.Ring {
	return orb.Ring{
		{b.Min[0], b.Min[1]},
		{b.Max[0], b.Min[1]},
		{b.Max[0], b.Max[1]},
		{b.Min[0], b.Max[1]},
	}
}
