// Package render groups the visual outputs of a partition.
//
// # Adjacency Graphs
//
// The [nodelink] subpackage turns region adjacency into a Graphviz graph.
// Nodes are regions pinned at their centroids; edge width grows with the
// length of the shared border.
//
//	edges := region.Adjacency(regions)
//	dot := nodelink.ToDOT(regions, edges, nodelink.Options{Height: h})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Map Overlays
//
// The [overlay] subpackage draws region polygons over the source map,
// optionally with seeds, centroids and labels, and encodes the result as
// PNG.
//
//	data, err := overlay.RenderPNG(base, w, h, regions, overlay.Options{ShowSeeds: true})
//
// [nodelink]: github.com/matzehuels/landcells/pkg/render/nodelink
// [overlay]: github.com/matzehuels/landcells/pkg/render/overlay
package render
