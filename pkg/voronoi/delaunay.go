package voronoi

import (
	"math"

	"github.com/paulmach/orb"
)

type triangle struct {
	v    [3]int
	cc   orb.Point
	r2   float64
	dead bool
}

// superFactor scales the enclosing super triangle relative to the point
// spread.
const superFactor = 1000

// triangulate returns the Delaunay triangles over pts. Triangles touching
// the super triangle are already removed.
func triangulate(pts []orb.Point) []triangle {
	b := orb.MultiPoint(pts).Bound()
	span := math.Max(b.Max[0]-b.Min[0], b.Max[1]-b.Min[1])
	if span == 0 {
		span = 1
	}
	c := b.Center()
	n := len(pts)
	all := make([]orb.Point, n, n+3)
	copy(all, pts)
	all = append(all,
		orb.Point{c[0] - superFactor*span, c[1] - superFactor*span},
		orb.Point{c[0] + superFactor*span, c[1] - superFactor*span},
		orb.Point{c[0], c[1] + superFactor*span},
	)

	tris := []triangle{newTriangle(all, n, n+1, n+2)}
	type edgeKey [2]int
	for i := range n {
		p := all[i]
		edges := make(map[edgeKey]int)
		var order []edgeKey
		for t := range tris {
			tr := &tris[t]
			if tr.dead {
				continue
			}
			dx, dy := p[0]-tr.cc[0], p[1]-tr.cc[1]
			if dx*dx+dy*dy >= tr.r2 {
				continue
			}
			tr.dead = true
			for k := range 3 {
				a, b := tr.v[k], tr.v[(k+1)%3]
				key := edgeKey{min(a, b), max(a, b)}
				if _, ok := edges[key]; !ok {
					order = append(order, key)
				}
				edges[key]++
			}
		}

		live := tris[:0]
		for _, tr := range tris {
			if !tr.dead {
				live = append(live, tr)
			}
		}
		tris = live
		for _, e := range order {
			if edges[e] == 1 {
				tris = append(tris, newTriangle(all, e[0], e[1], i))
			}
		}
	}

	out := tris[:0]
	for _, tr := range tris {
		if tr.v[0] < n && tr.v[1] < n && tr.v[2] < n {
			out = append(out, tr)
		}
	}
	return out
}

func newTriangle(pts []orb.Point, a, b, c int) triangle {
	pa, pb, pc := pts[a], pts[b], pts[c]
	bx, by := pb[0]-pa[0], pb[1]-pa[1]
	cx, cy := pc[0]-pa[0], pc[1]-pa[1]
	d := 2 * (bx*cy - by*cx)
	if d == 0 {
		// collinear: an infinite circle makes it bad for the next insertion
		return triangle{v: [3]int{a, b, c}, cc: pa, r2: math.Inf(1)}
	}
	b2 := bx*bx + by*by
	c2 := cx*cx + cy*cy
	ux := (cy*b2 - by*c2) / d
	uy := (bx*c2 - cx*b2) / d
	return triangle{
		v:  [3]int{a, b, c},
		cc: orb.Point{pa[0] + ux, pa[1] + uy},
		r2: ux*ux + uy*uy,
	}
}
