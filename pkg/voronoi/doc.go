// Package voronoi computes finite Voronoi cells for a set of seeds.
//
// The diagram is read off a Delaunay triangulation built with the
// Bowyer–Watson algorithm: Voronoi vertices are triangle circumcentres and
// two seeds share a Voronoi edge when they share a Delaunay edge.
//
// # Unbounded cells
//
// Seeds on the convex hull of the point set own cells that extend to
// infinity. Each hull edge of the triangulation carries a ray starting at
// the circumcentre of its one triangle. The ray runs along the edge's
// normal, oriented away from the centroid of all seeds. A far vertex is
// placed on the ray at a radius of at least twice the point-set extent.
// The radius is also large enough that every cell reaches past any bounds
// passed with [WithBounds]. Extra far vertices fill the angle between a
// cell's two rays, so the finite polygon covers the true cell everywhere
// inside those bounds and never crosses into a neighbour's cell.
//
// Every ring is returned open, with positive orientation, ordered by polar
// angle around its own vertex mean.
package voronoi
