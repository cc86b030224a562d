package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// Epsilon is the absolute distance under which two points are treated as
// the same point and a point is treated as lying on a line.
const Epsilon = 1e-7

// Open returns r without a repeated closing vertex. The input is not
// modified.
func Open(r orb.Ring) orb.Ring {
	if len(r) > 1 && almostEqual(r[0], r[len(r)-1]) {
		return r[:len(r)-1]
	}
	return r
}

// Close returns a copy of r with the first vertex appended, as GeoJSON and
// WKT expect.
func Close(r orb.Ring) orb.Ring {
	r = Open(r)
	if len(r) == 0 {
		return nil
	}
	out := make(orb.Ring, 0, len(r)+1)
	out = append(out, r...)
	return append(out, r[0])
}

// SignedArea returns the shoelace area of r. Positive means the ring turns
// counter-clockwise with the y axis pointing up.
func SignedArea(r orb.Ring) float64 {
	r = Open(r)
	n := len(r)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := range n {
		a, b := r[i], r[(i+1)%n]
		sum += a[0]*b[1] - b[0]*a[1]
	}
	return sum / 2
}

// Area returns the absolute area of r.
func Area(r orb.Ring) float64 {
	return math.Abs(SignedArea(r))
}

// Positive returns r wound with positive signed area, reversing a copy when
// needed.
func Positive(r orb.Ring) orb.Ring {
	r = Open(r)
	if SignedArea(r) >= 0 {
		return r
	}
	out := make(orb.Ring, len(r))
	for i, p := range r {
		out[len(r)-1-i] = p
	}
	return out
}

// VertexMean returns the arithmetic mean of the distinct vertices of r.
// The closing vertex of a closed ring is not counted twice.
func VertexMean(r orb.Ring) orb.Point {
	r = Open(r)
	if len(r) == 0 {
		return orb.Point{math.NaN(), math.NaN()}
	}
	var sx, sy float64
	for _, p := range r {
		sx += p[0]
		sy += p[1]
	}
	n := float64(len(r))
	return orb.Point{sx / n, sy / n}
}

// Contains reports whether p lies inside r or on its boundary.
func Contains(r orb.Ring, p orb.Point) bool {
	r = Open(r)
	n := len(r)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := r[i], r[j]
		if onSegment(p, a, b) {
			return true
		}
		if (a[1] > p[1]) != (b[1] > p[1]) {
			x := a[0] + (p[1]-a[1])*(b[0]-a[0])/(b[1]-a[1])
			if p[0] < x {
				inside = !inside
			}
		}
	}
	return inside
}

// Valid reports whether every coordinate of r is finite and r has at least
// three vertices.
func Valid(r orb.Ring) bool {
	r = Open(r)
	if len(r) < 3 {
		return false
	}
	for _, p := range r {
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
			return false
		}
	}
	return true
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

func dist(a, b orb.Point) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}

func almostEqual(a, b orb.Point) bool {
	return math.Abs(a[0]-b[0]) <= Epsilon && math.Abs(a[1]-b[1]) <= Epsilon
}

// lineDist returns the signed distance of p from the line through a and b,
// positive on the left.
func lineDist(a, b, p orb.Point) float64 {
	l := dist(a, b)
	if l == 0 {
		return dist(a, p)
	}
	return cross(a, b, p) / l
}

// onSegment reports whether p lies on the closed segment ab.
func onSegment(p, a, b orb.Point) bool {
	if almostEqual(p, a) || almostEqual(p, b) {
		return true
	}
	if math.Abs(lineDist(a, b, p)) > Epsilon {
		return false
	}
	t := segmentParam(p, a, b)
	return t >= 0 && t <= 1
}

// segmentParam projects p onto ab and returns the parameter along it.
func segmentParam(p, a, b orb.Point) float64 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return 0
	}
	return ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / l2
}
