// Package export writes partition regions in interchange formats.
//
// [GeoJSON] produces a FeatureCollection with one Polygon feature per
// region, [WKT] produces one tab-separated "id<TAB>POLYGON((...))" line per
// region. Both accept an optional Douglas-Peucker tolerance that thins
// polygon vertices before writing; the regions themselves are not changed.
// [ReadGeoJSON] and [ReadWKT] load the files back.
package export
