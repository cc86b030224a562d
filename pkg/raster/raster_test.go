package raster

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/paulmach/orb"

	"github.com/matzehuels/landcells/pkg/landmask"
)

func TestSpans(t *testing.T) {
	tests := []struct {
		name string
		ring orb.Ring
		want int
	}{
		{"unit footprint", orb.Ring{{1.5, 1.5}, {2.5, 1.5}, {2.5, 2.5}, {1.5, 2.5}}, 1},
		{"integer square is half open", orb.Ring{{0, 0}, {3, 0}, {3, 3}, {0, 3}}, 9},
		{"clamped to grid", orb.Ring{{-5, -5}, {50, -5}, {50, 50}, {-5, 50}}, 16},
		{"outside grid", orb.Ring{{10, 10}, {12, 10}, {12, 12}}, 0},
		{"triangle", orb.Ring{{0, 0}, {4, 0}, {0, 4}}, 10},
		{"degenerate", orb.Ring{{0, 0}, {2, 2}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count := 0
			Spans(tt.ring, 4, 4, func(_, x0, x1 int) { count += x1 - x0 })
			if count != tt.want {
				t.Errorf("pixel count = %d, want %d", count, tt.want)
			}
		})
	}
}

func TestSpansTileWithoutOverlap(t *testing.T) {
	// four quadrants sharing edges at x=4.3 and y=5
	quads := []orb.Ring{
		{{-0.5, -0.5}, {4.3, -0.5}, {4.3, 5}, {-0.5, 5}},
		{{4.3, -0.5}, {9.5, -0.5}, {9.5, 5}, {4.3, 5}},
		{{4.3, 5}, {9.5, 5}, {9.5, 9.5}, {4.3, 9.5}},
		{{-0.5, 5}, {4.3, 5}, {4.3, 9.5}, {-0.5, 9.5}},
	}
	hits := make(map[[2]int]int)
	for _, q := range quads {
		Spans(q, 10, 10, func(y, x0, x1 int) {
			for x := x0; x < x1; x++ {
				hits[[2]int{x, y}]++
			}
		})
	}
	if len(hits) != 100 {
		t.Errorf("covered %d pixels, want 100", len(hits))
	}
	for p, n := range hits {
		if n != 1 {
			t.Errorf("pixel %v claimed %d times", p, n)
		}
	}
}

func TestPixelsAndMask(t *testing.T) {
	m, err := landmask.FromRows(
		"....",
		".##.",
		".#..",
		"....",
	)
	if err != nil {
		t.Fatal(err)
	}
	ring := orb.Ring{{-0.5, -0.5}, {3.5, -0.5}, {3.5, 3.5}, {-0.5, 3.5}}
	if got := len(Pixels(ring, m)); got != 3 {
		t.Errorf("len(Pixels) = %d, want 3", got)
	}

	img := Mask(ring, m)
	if img.AlphaAt(1, 1).A != 0xff || img.AlphaAt(0, 0).A != 0 {
		t.Error("Mask() does not match land pixels")
	}

	data, err := EncodePNG(img)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Bounds().Dx() != 4 {
		t.Errorf("decoded width = %d, want 4", decoded.Bounds().Dx())
	}
}
