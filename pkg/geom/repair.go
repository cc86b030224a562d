package geom

import (
	"cmp"
	"math"
	"slices"

	"github.com/paulmach/orb"
)

type edge struct {
	from, to orb.Point
}

// Repair turns a ring that may touch itself into simple rings with the
// same orientation. It splits edges at vertices lying on them, cancels
// edges traversed in both directions (zero-width bridges and spikes),
// rechains what is left and drops rings without area. A ring that is
// already simple comes back unchanged apart from dropped duplicate and
// collinear vertices.
func Repair(r orb.Ring) []orb.Ring {
	r = snap(Open(r))
	r = dedupe(r)
	if len(r) < 3 {
		return nil
	}

	edges := cancelOpposite(splitAtVertices(r))
	var rings []orb.Ring
	for _, ring := range chain(edges) {
		ring = simplifyCollinear(dedupe(ring))
		if len(ring) < 3 || Area(ring) <= Epsilon {
			continue
		}
		rings = append(rings, ring)
	}
	return rings
}

// snap replaces every vertex by the first earlier vertex within Epsilon so
// that coincident points compare equal.
func snap(r orb.Ring) orb.Ring {
	out := make(orb.Ring, len(r))
	for i, p := range r {
		out[i] = p
		for j := range i {
			if almostEqual(out[j], p) {
				out[i] = out[j]
				break
			}
		}
	}
	return out
}

// dedupe drops consecutive repeated vertices, including across the wrap.
func dedupe(r orb.Ring) orb.Ring {
	out := make(orb.Ring, 0, len(r))
	for _, p := range r {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

// splitAtVertices returns the edges of r with every edge split at the ring
// vertices that lie strictly inside it.
func splitAtVertices(r orb.Ring) []edge {
	n := len(r)
	var edges []edge
	for i := range n {
		a, b := r[i], r[(i+1)%n]
		type cut struct {
			p orb.Point
			t float64
		}
		var cuts []cut
		for _, v := range r {
			if v == a || v == b || !onSegment(v, a, b) {
				continue
			}
			cuts = append(cuts, cut{v, segmentParam(v, a, b)})
		}
		slices.SortFunc(cuts, func(x, y cut) int { return cmp.Compare(x.t, y.t) })
		from := a
		for _, c := range cuts {
			if c.p == from {
				continue
			}
			edges = append(edges, edge{from, c.p})
			from = c.p
		}
		edges = append(edges, edge{from, b})
	}
	return edges
}

// cancelOpposite removes pairs of edges that run between the same two
// points in opposite directions.
func cancelOpposite(edges []edge) []edge {
	count := make(map[edge]int, len(edges))
	for _, e := range edges {
		count[e]++
	}
	drop := make(map[edge]int)
	for e, c := range count {
		rev := edge{e.to, e.from}
		if k := min(c, count[rev]); k > 0 {
			drop[e] = k
		}
	}
	out := make([]edge, 0, len(edges))
	for _, e := range edges {
		if e.from == e.to {
			continue
		}
		if drop[e] > 0 {
			drop[e]--
			continue
		}
		out = append(out, e)
	}
	return out
}

// chain links edges head to tail into closed rings. When a walk returns to
// a vertex it has already visited, the loop is cut off as its own ring, so
// pinch points produce separate rings instead of a figure eight.
func chain(edges []edge) []orb.Ring {
	outgoing := make(map[orb.Point][]int)
	for i, e := range edges {
		outgoing[e.from] = append(outgoing[e.from], i)
	}
	used := make([]bool, len(edges))
	next := func(p orb.Point) (int, bool) {
		for _, i := range outgoing[p] {
			if !used[i] {
				return i, true
			}
		}
		return 0, false
	}

	var rings []orb.Ring
	for start := range edges {
		if used[start] {
			continue
		}
		used[start] = true
		path := orb.Ring{edges[start].from}
		seen := map[orb.Point]int{edges[start].from: 0}
		cur := edges[start].to
		for {
			if at, ok := seen[cur]; ok {
				rings = append(rings, slices.Clone(path[at:]))
				for _, p := range path[at+1:] {
					delete(seen, p)
				}
				path = path[:at+1]
				if len(path) == 1 {
					break
				}
			} else {
				seen[cur] = len(path)
				path = append(path, cur)
			}
			i, ok := next(cur)
			if !ok {
				break
			}
			used[i] = true
			cur = edges[i].to
		}
	}
	return rings
}

// simplifyCollinear removes vertices lying on the line through their
// neighbours until none is left. Spikes fold onto that line and go too.
func simplifyCollinear(r orb.Ring) orb.Ring {
	out := slices.Clone(r)
	for changed := true; changed && len(out) >= 3; {
		changed = false
		for i := 0; i < len(out) && len(out) >= 3; i++ {
			n := len(out)
			prev, cur, nxt := out[(i+n-1)%n], out[i], out[(i+1)%n]
			if prev == nxt || math.Abs(lineDist(prev, nxt, cur)) <= Epsilon {
				out = slices.Delete(out, i, i+1)
				changed = true
				i--
			}
		}
	}
	return out
}
