package voronoi

import (
	"math"
	"slices"

	"github.com/paulmach/orb"

	"github.com/matzehuels/landcells/pkg/errors"
	"github.com/matzehuels/landcells/pkg/geom"
	"github.com/matzehuels/landcells/pkg/region"
)

// MinSeeds is the smallest seed count that can be tessellated.
const MinSeeds = 4

// maxSweep is the largest angle between neighbouring far vertices of an
// unbounded cell.
const maxSweep = math.Pi / 4

// Cell is the finite Voronoi cell of one seed.
type Cell struct {
	SeedID    int
	Site      orb.Point
	Ring      orb.Ring // nil when the seed duplicates an earlier seed's position
	Unbounded bool     // the true cell extends to infinity
	Neighbors []int    // seed IDs sharing a Voronoi edge, ascending
}

type config struct {
	bounds    orb.Bound
	hasBounds bool
}

// Option configures Compute.
type Option func(*config)

// WithBounds makes unbounded cells reach past every point of b.
func WithBounds(b orb.Bound) Option {
	return func(c *config) {
		c.bounds = b
		c.hasBounds = true
	}
}

// Compute returns one cell per seed, in seed order.
//
// At least MinSeeds seeds are needed and their positions must not all lie
// on one line; otherwise Compute fails with an *errors.DegenerateInputError.
// When two seeds share a position the first one gets the cell and the
// later one an empty ring.
func Compute(seeds []region.Seed, opts ...Option) ([]Cell, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(seeds) < MinSeeds {
		return nil, &errors.DegenerateInputError{Points: len(seeds), Reason: "need at least 4 seeds"}
	}

	// owner maps seed index -> site index, or -1 for a repeated position;
	// siteSeed maps back to the first seed at each site
	owner := make([]int, len(seeds))
	index := make(map[orb.Point]int, len(seeds))
	var sites []orb.Point
	var siteSeed []int
	for i, s := range seeds {
		if _, dup := index[s.Pos]; dup {
			owner[i] = -1
			continue
		}
		index[s.Pos] = len(sites)
		owner[i] = len(sites)
		sites = append(sites, s.Pos)
		siteSeed = append(siteSeed, i)
	}
	if len(geom.ConvexHull(sites)) < 3 {
		return nil, &errors.DegenerateInputError{Points: len(seeds), Reason: "seeds are collinear"}
	}

	d := build(sites, cfg)
	cells := make([]Cell, len(seeds))
	for i, s := range seeds {
		cells[i] = Cell{SeedID: s.ID, Site: s.Pos}
		site := owner[i]
		if site < 0 {
			continue
		}
		cells[i].Ring, cells[i].Unbounded = d.cellRing(site)
		for _, nb := range d.neighbors[site] {
			cells[i].Neighbors = append(cells[i].Neighbors, seeds[siteSeed[nb]].ID)
		}
		slices.Sort(cells[i].Neighbors)
	}
	return cells, nil
}

type ray struct {
	origin orb.Point
	dir    orb.Point
}

type diagram struct {
	sites     []orb.Point
	vertices  [][]orb.Point // circumcentres around each site
	rays      [][]ray       // rays of hull edges at each site
	neighbors [][]int
	radius    float64
}

func build(sites []orb.Point, cfg config) *diagram {
	n := len(sites)
	tris := triangulate(sites)
	d := &diagram{
		sites:     sites,
		vertices:  make([][]orb.Point, n),
		rays:      make([][]ray, n),
		neighbors: make([][]int, n),
	}

	type edgeKey [2]int
	owners := make(map[edgeKey][]int)
	var order []edgeKey
	for t, tr := range tris {
		for k := range 3 {
			d.vertices[tr.v[k]] = append(d.vertices[tr.v[k]], tr.cc)
			a, b := tr.v[k], tr.v[(k+1)%3]
			key := edgeKey{min(a, b), max(a, b)}
			if _, ok := owners[key]; !ok {
				order = append(order, key)
			}
			owners[key] = append(owners[key], t)
		}
	}

	var sx, sy float64
	for _, p := range sites {
		sx += p[0]
		sy += p[1]
	}
	center := orb.Point{sx / float64(n), sy / float64(n)}

	for _, e := range order {
		i, j := e[0], e[1]
		d.neighbors[i] = append(d.neighbors[i], j)
		d.neighbors[j] = append(d.neighbors[j], i)
		ts := owners[e]
		if len(ts) != 1 {
			continue
		}
		tr := tris[ts[0]]
		third := tr.v[0] + tr.v[1] + tr.v[2] - i - j
		dir := outward(sites[i], sites[j], center, sites[third])
		r := ray{origin: tr.cc, dir: dir}
		d.rays[i] = append(d.rays[i], r)
		d.rays[j] = append(d.rays[j], r)
	}

	// radius: twice the point extent, and far enough that a ray clears
	// everything relevant to clipping with room to spare
	ext := orb.MultiPoint(sites).Bound()
	extent := math.Max(ext.Max[0]-ext.Min[0], ext.Max[1]-ext.Min[1])
	all := ext
	for _, tr := range tris {
		all = all.Extend(tr.cc)
	}
	if cfg.hasBounds {
		all = all.Union(cfg.bounds)
	}
	span := math.Hypot(all.Max[0]-all.Min[0], all.Max[1]-all.Min[1])
	d.radius = math.Max(2*extent, 4*span)
	if d.radius == 0 {
		d.radius = 1
	}
	return d
}

// outward returns the unit normal of edge ab pointing away from center.
// When center lies on the edge line the side opposite the triangle's third
// vertex is used.
func outward(a, b, center, third orb.Point) orb.Point {
	tx, ty := b[0]-a[0], b[1]-a[1]
	l := math.Hypot(tx, ty)
	tx, ty = tx/l, ty/l
	n := orb.Point{-ty, tx}
	mid := orb.Point{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
	side := (mid[0]-center[0])*n[0] + (mid[1]-center[1])*n[1]
	if math.Abs(side) <= geom.Epsilon {
		side = (mid[0]-third[0])*n[0] + (mid[1]-third[1])*n[1]
	}
	if side < 0 {
		n = orb.Point{-n[0], -n[1]}
	}
	return n
}

// cellRing builds the finite ring of one site.
func (d *diagram) cellRing(site int) (orb.Ring, bool) {
	pts := slices.Clone(d.vertices[site])
	rays := d.rays[site]
	for _, r := range rays {
		pts = append(pts, far(r.origin, r.dir, d.radius))
	}
	if len(rays) == 2 {
		pts = append(pts, d.sweep(rays[0], rays[1])...)
	}
	hull := geom.ConvexHull(pts)
	if len(hull) < 3 {
		return nil, len(rays) > 0
	}
	return geom.SortByAngle(hull), len(rays) > 0
}

// sweep returns far vertices between the directions of two rays, spaced
// at most maxSweep apart, anchored midway between the ray origins.
func (d *diagram) sweep(a, b ray) []orb.Point {
	from := math.Atan2(a.dir[1], a.dir[0])
	delta := math.Atan2(b.dir[1], b.dir[0]) - from
	for delta > math.Pi {
		delta -= 2 * math.Pi
	}
	for delta <= -math.Pi {
		delta += 2 * math.Pi
	}
	steps := int(math.Ceil(math.Abs(delta) / maxSweep))
	if steps < 2 {
		return nil
	}
	mid := orb.Point{(a.origin[0] + b.origin[0]) / 2, (a.origin[1] + b.origin[1]) / 2}
	out := make([]orb.Point, 0, steps-1)
	for k := 1; k < steps; k++ {
		ang := from + delta*float64(k)/float64(steps)
		out = append(out, far(mid, orb.Point{math.Cos(ang), math.Sin(ang)}, d.radius))
	}
	return out
}

func far(origin, dir orb.Point, radius float64) orb.Point {
	return orb.Point{origin[0] + dir[0]*radius, origin[1] + dir[1]*radius}
}
