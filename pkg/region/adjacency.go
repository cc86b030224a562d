package region

import (
	"cmp"
	"slices"

	"github.com/matzehuels/landcells/pkg/geom"
)

// Edge links two regions that share a stretch of boundary. A < B.
type Edge struct {
	A, B   int
	Length float64
}

// Adjacency returns the edges between regions whose polygons share boundary
// of positive length. Regions touching at a single point are not adjacent.
// Edges are ordered by (A, B).
func Adjacency(regions []Region) []Edge {
	var edges []Edge
	for i := range regions {
		for j := i + 1; j < len(regions); j++ {
			l := geom.SharedLength(regions[i].Polygon, regions[j].Polygon)
			if l <= geom.Epsilon {
				continue
			}
			a, b := regions[i].ID, regions[j].ID
			if a > b {
				a, b = b, a
			}
			edges = append(edges, Edge{A: a, B: b, Length: l})
		}
	}
	slices.SortFunc(edges, func(x, y Edge) int {
		if c := cmp.Compare(x.A, y.A); c != 0 {
			return c
		}
		return cmp.Compare(x.B, y.B)
	})
	return edges
}
