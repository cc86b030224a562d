package voronoi

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/matzehuels/landcells/pkg/errors"
	"github.com/matzehuels/landcells/pkg/geom"
	"github.com/matzehuels/landcells/pkg/region"
	"github.com/matzehuels/landcells/pkg/sampler"
)

func seedsAt(pts ...orb.Point) []region.Seed {
	seeds := make([]region.Seed, len(pts))
	for i, p := range pts {
		seeds[i] = region.Seed{ID: i + 1, Pos: p}
	}
	return seeds
}

func TestComputeDegenerate(t *testing.T) {
	tests := []struct {
		name  string
		seeds []region.Seed
	}{
		{"too few", seedsAt(orb.Point{0, 0}, orb.Point{5, 0}, orb.Point{0, 5})},
		{"collinear", seedsAt(orb.Point{0, 0}, orb.Point{1, 1}, orb.Point{2, 2}, orb.Point{3, 3}, orb.Point{4, 4})},
		{"all duplicates", seedsAt(orb.Point{1, 1}, orb.Point{1, 1}, orb.Point{1, 1}, orb.Point{1, 1})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.seeds)
			if !errors.Is(err, errors.ErrCodeDegenerateInput) {
				t.Errorf("Compute() error = %v, want DEGENERATE_INPUT", err)
			}
		})
	}
}

func TestComputeCenteredSquare(t *testing.T) {
	seeds := seedsAt(
		orb.Point{0, 0}, orb.Point{10, 0}, orb.Point{10, 10}, orb.Point{0, 10}, orb.Point{5, 5},
	)
	cells, err := Compute(seeds)
	if err != nil {
		t.Fatal(err)
	}
	center := cells[4]
	if center.Unbounded {
		t.Error("center cell marked unbounded")
	}
	if a := geom.SignedArea(center.Ring); math.Abs(a-50) > 1e-9 {
		t.Errorf("center cell area = %v, want 50", a)
	}
	if got := center.Neighbors; len(got) != 4 || got[0] != 1 || got[3] != 4 {
		t.Errorf("center neighbors = %v, want [1 2 3 4]", got)
	}
	for _, c := range cells[:4] {
		if !c.Unbounded {
			t.Errorf("corner cell %d not marked unbounded", c.SeedID)
		}
		if !geom.IsSimple(c.Ring) || geom.SignedArea(c.Ring) <= 0 {
			t.Errorf("corner cell %d ring %v is not a positive simple ring", c.SeedID, c.Ring)
		}
	}
}

func TestComputeNearestSeed(t *testing.T) {
	rng := sampler.NewRand(3)
	random := make([]orb.Point, 25)
	for i := range random {
		random[i] = orb.Point{rng.Float64() * 50, rng.Float64() * 30}
	}

	tests := []struct {
		name   string
		pts    []orb.Point
		bounds orb.Bound
	}{
		{
			name:   "cocircular grid",
			pts:    []orb.Point{{2, 2}, {8, 2}, {2, 8}, {8, 8}},
			bounds: orb.Bound{Min: orb.Point{-0.5, -0.5}, Max: orb.Point{9.5, 9.5}},
		},
		{
			name:   "random",
			pts:    random,
			bounds: orb.Bound{Min: orb.Point{-20, -20}, Max: orb.Point{70, 50}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seeds := seedsAt(tt.pts...)
			cells, err := Compute(seeds, WithBounds(tt.bounds))
			if err != nil {
				t.Fatal(err)
			}
			for i, c := range cells {
				if !geom.IsConvex(c.Ring) {
					t.Fatalf("cell %d ring %v is not convex", i, c.Ring)
				}
			}

			b := tt.bounds
			for x := b.Min[0] + 0.13; x < b.Max[0]; x += 0.71 {
				for y := b.Min[1] + 0.29; y < b.Max[1]; y += 0.83 {
					p := orb.Point{x, y}
					best, second := nearestTwo(tt.pts, p)
					if second-dist(tt.pts[best], p) < 1e-6 {
						continue // tie
					}
					if !geom.Contains(cells[best].Ring, p) {
						t.Fatalf("point %v not in cell of nearest seed %v", p, tt.pts[best])
					}
					for j, c := range cells {
						if j != best && geom.Contains(c.Ring, p) {
							t.Fatalf("point %v also in cell of seed %v", p, tt.pts[j])
						}
					}
				}
			}
		})
	}
}

func TestComputeDuplicateSeeds(t *testing.T) {
	seeds := seedsAt(
		orb.Point{0, 0}, orb.Point{10, 0}, orb.Point{10, 10}, orb.Point{0, 10}, orb.Point{10, 0},
	)
	cells, err := Compute(seeds)
	if err != nil {
		t.Fatal(err)
	}
	if cells[1].Ring == nil {
		t.Error("first seed at a shared position got no cell")
	}
	if cells[4].Ring != nil {
		t.Errorf("duplicate seed got ring %v, want nil", cells[4].Ring)
	}
	if cells[4].SeedID != 5 {
		t.Errorf("duplicate SeedID = %d, want 5", cells[4].SeedID)
	}
}

func nearestTwo(pts []orb.Point, p orb.Point) (int, float64) {
	best, bd, sd := -1, math.Inf(1), math.Inf(1)
	for i, q := range pts {
		d := dist(p, q)
		switch {
		case d < bd:
			best, bd, sd = i, d, bd
		case d < sd:
			sd = d
		}
	}
	return best, sd
}

func dist(a, b orb.Point) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}
