// Package nodelink renders the region adjacency graph as a node-link diagram.
//
// Each region becomes a node placed at its centroid and each pair of
// regions sharing boundary becomes an edge. The diagram is a quick way to
// check that a partition is connected the way the map suggests.
//
//	edges := region.Adjacency(regions)
//	dot := nodelink.ToDOT(regions, edges, nodelink.Options{Height: 600})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [ToDOT] output can also be saved and processed with external Graphviz
// tools. Rendering uses [github.com/goccy/go-graphviz] in-process.
package nodelink
