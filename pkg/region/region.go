// Package region defines the values a partition run produces: seeds that
// drive the tessellation and the clipped regions built around them.
package region

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/matzehuels/landcells/pkg/geom"
)

// Seed is a generator point. IDs are assigned 1..N and stay stable for the
// whole run; the position changes as the relaxation moves it.
type Seed struct {
	ID  int       `json:"id"`
	Pos orb.Point `json:"pos"`
}

// Region is the land-clipped cell of one seed.
type Region struct {
	ID       int       `json:"region_id"`
	Polygon  orb.Ring  `json:"polygon"`  // open ring, positive orientation
	Centroid orb.Point `json:"centroid"` // land-weighted centroid
	Seed     orb.Point `json:"seed"`     // seed position the cell was built from
}

// Area returns the polygon area in square pixels.
func (r Region) Area() float64 {
	return geom.Area(r.Polygon)
}

// VerticesText returns the polygon as the textual vertex list stored in the
// vertices column, e.g. "[[0.5,1],[3,1],[3,4]]". The ring is left open.
func (r Region) VerticesText() string {
	return FormatVertices(r.Polygon)
}

// FormatVertices renders ring vertices as a JSON array of [x,y] pairs.
func FormatVertices(ring orb.Ring) string {
	pts := make([][2]float64, len(ring))
	for i, p := range ring {
		pts[i] = p
	}
	data, _ := json.Marshal(pts)
	return string(data)
}

// ParseVertices reads a vertex list written by FormatVertices.
func ParseVertices(s string) (orb.Ring, error) {
	var pts [][2]float64
	if err := json.Unmarshal([]byte(s), &pts); err != nil {
		return nil, fmt.Errorf("parse vertices: %w", err)
	}
	ring := make(orb.Ring, len(pts))
	for i, p := range pts {
		ring[i] = p
	}
	return geom.Open(ring), nil
}

// Record is the flat persisted form of a region.
type Record struct {
	RegionID  int     `json:"region_id" bson:"region_id"`
	RunID     string  `json:"run_id,omitempty" bson:"run_id,omitempty"`
	Vertices  string  `json:"vertices" bson:"vertices"`
	CentroidX float64 `json:"centroid_x" bson:"centroid_x"`
	CentroidY float64 `json:"centroid_y" bson:"centroid_y"`
	SeedX     float64 `json:"seed_x" bson:"seed_x"`
	SeedY     float64 `json:"seed_y" bson:"seed_y"`
	Area      float64 `json:"area" bson:"area"`
}

// ToRecord flattens r for storage under the given run.
func (r Region) ToRecord(runID string) Record {
	return Record{
		RegionID:  r.ID,
		RunID:     runID,
		Vertices:  r.VerticesText(),
		CentroidX: r.Centroid[0],
		CentroidY: r.Centroid[1],
		SeedX:     r.Seed[0],
		SeedY:     r.Seed[1],
		Area:      r.Area(),
	}
}

// Region rebuilds the region from a stored record.
func (rec Record) Region() (Region, error) {
	ring, err := ParseVertices(rec.Vertices)
	if err != nil {
		return Region{}, fmt.Errorf("region %d: %w", rec.RegionID, err)
	}
	return Region{
		ID:       rec.RegionID,
		Polygon:  ring,
		Centroid: orb.Point{rec.CentroidX, rec.CentroidY},
		Seed:     orb.Point{rec.SeedX, rec.SeedY},
	}, nil
}
