package geom

import (
	"errors"

	"github.com/paulmach/orb"
)

// ErrNotConvex is returned by Intersect when neither operand is convex.
var ErrNotConvex = errors.New("geom: intersection needs at least one convex ring")

// Intersect returns the intersection of a and b as a set of simple rings
// with positive orientation. One of the rings must be convex; it is used as
// the clip window and the other as the subject. An empty result means the
// rings do not overlap in any area; touching along an edge or at a point is
// not an overlap.
func Intersect(a, b orb.Ring) ([]orb.Ring, error) {
	a, b = Open(a), Open(b)
	if len(a) < 3 || len(b) < 3 {
		return nil, nil
	}
	subject, window := a, b
	if !IsConvex(window) {
		if !IsConvex(subject) {
			return nil, ErrNotConvex
		}
		subject, window = window, subject
	}

	out := clipConvex(Positive(subject), Positive(window))
	if len(out) < 3 {
		return nil, nil
	}
	return Repair(out), nil
}

// clipConvex runs Sutherland–Hodgman: the subject is cut by the half-plane
// left of every window edge in turn. Points within Epsilon of an edge count
// as inside.
func clipConvex(subject, window orb.Ring) orb.Ring {
	out := subject
	n := len(window)
	for i := range n {
		if len(out) == 0 {
			return nil
		}
		a, b := window[i], window[(i+1)%n]
		in := out
		out = make(orb.Ring, 0, len(in)+2)
		prev := in[len(in)-1]
		prevIn := lineDist(a, b, prev) >= -Epsilon
		for _, cur := range in {
			curIn := lineDist(a, b, cur) >= -Epsilon
			switch {
			case curIn && prevIn:
				out = append(out, cur)
			case curIn && !prevIn:
				out = append(out, lineCross(prev, cur, a, b), cur)
			case !curIn && prevIn:
				out = append(out, lineCross(prev, cur, a, b))
			}
			prev, prevIn = cur, curIn
		}
	}
	return out
}

// lineCross returns the point where segment pq crosses the line through a
// and b. The caller guarantees p and q lie on opposite sides. Endpoints are
// ordered first so an edge shared by two rings, walked in opposite
// directions, crosses at the bit-identical point.
func lineCross(p, q, a, b orb.Point) orb.Point {
	if q[0] < p[0] || (q[0] == p[0] && q[1] < p[1]) {
		p, q = q, p
	}
	dp := lineDist(a, b, p)
	dq := lineDist(a, b, q)
	t := dp / (dp - dq)
	return orb.Point{p[0] + t*(q[0]-p[0]), p[1] + t*(q[1]-p[1])}
}
