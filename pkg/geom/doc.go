// Package geom holds the planar polygon primitives the partition is built
// on: orientation and area, convex hulls, polar-angle ordering, simplicity
// checks and polygon intersection.
//
// # Rings
//
// All functions work on [orb.Ring] values kept open: the first vertex is
// not repeated at the end. [Open] strips a closing vertex from rings that
// come from outside (GeoJSON, WKT) and [Close] adds it back on export.
// Orientation follows the usual shoelace sign, so a ring with positive
// [SignedArea] turns left at every convex corner when the y axis points
// up. On a raster with y pointing down the same ring appears clockwise;
// the math is unchanged.
//
// # Intersection
//
// [Intersect] clips one ring by another with the Sutherland–Hodgman
// algorithm. At least one operand must be convex; the other may be
// concave. Clipping a concave ring can produce zero-width bridges between
// pieces that should be separate, so the raw output goes through [Repair],
// which splits it into simple rings and drops anything without area.
package geom
