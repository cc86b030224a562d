package clipper

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/matzehuels/landcells/pkg/geom"
)

var box = orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}}

func TestClip(t *testing.T) {
	tests := []struct {
		name     string
		cell     orb.Ring
		boundary orb.Ring
		outcome  Outcome
		area     float64
	}{
		{
			name:     "inside",
			cell:     orb.Ring{{2, 2}, {4, 2}, {4, 4}, {2, 4}},
			boundary: box,
			outcome:  Kept,
			area:     4,
		},
		{
			name:     "partly outside",
			cell:     orb.Ring{{5, 5}, {20, 5}, {20, 20}, {5, 20}},
			boundary: box,
			outcome:  Kept,
			area:     25,
		},
		{
			name:     "disjoint",
			cell:     orb.Ring{{20, 20}, {30, 20}, {30, 30}},
			boundary: box,
			outcome:  Empty,
		},
		{
			name:     "bounds overlap but shapes do not",
			cell:     orb.Ring{{9.5, 11}, {11, 9.5}, {11, 11}},
			boundary: box,
			outcome:  Empty,
		},
		{
			name:     "shared edge",
			cell:     orb.Ring{{10, 0}, {20, 0}, {20, 10}, {10, 10}},
			boundary: box,
			outcome:  Degenerate,
		},
		{
			name:     "concave boundary in two pieces",
			cell:     orb.Ring{{-1, 2}, {4, 2}, {4, 4}, {-1, 4}},
			boundary: orb.Ring{{0, 0}, {3, 0}, {3, 3}, {2.5, 3}, {2.5, 1}, {1, 1}, {1, 3}, {0, 3}},
			outcome:  Largest,
			area:     1,
		},
		{
			name:     "collapsed cell",
			cell:     orb.Ring{{1, 1}, {2, 2}, {3, 3}},
			boundary: box,
			outcome:  Degenerate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ring, outcome := Clip(tt.cell, tt.boundary)
			if outcome != tt.outcome {
				t.Fatalf("Clip() outcome = %v, want %v", outcome, tt.outcome)
			}
			if outcome.Dropped() {
				if ring != nil {
					t.Errorf("dropped clip returned ring %v", ring)
				}
				return
			}
			if a := geom.Area(ring); math.Abs(a-tt.area) > 1e-9 {
				t.Errorf("area = %v, want %v", a, tt.area)
			}
			if !geom.IsSimple(ring) {
				t.Errorf("ring %v is not simple", ring)
			}
		})
	}
}

func TestOutcomeString(t *testing.T) {
	for o, want := range map[Outcome]string{Kept: "kept", Largest: "largest", Empty: "empty", Degenerate: "degenerate", Invalid: "invalid", Outcome(99): "unknown"} {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", o, got, want)
		}
	}
}
