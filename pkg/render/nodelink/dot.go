package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/landcells/pkg/region"
)

// Options configures adjacency diagram rendering.
type Options struct {
	// Detailed includes centroid and area in node labels.
	// When false, only the region ID is shown.
	Detailed bool

	// Height is the map height in pixels. When set, node positions are
	// pinned to the region centroids with the y axis flipped so the
	// diagram reads like the map.
	Height float64

	// Scale converts pixels to Graphviz points. Defaults to 1.
	Scale float64
}

// ToDOT converts a region adjacency graph to Graphviz DOT format.
// Each region is a node; each shared boundary is an undirected edge whose
// pen width grows with the shared length.
func ToDOT(regions []region.Region, edges []region.Edge, opts Options) string {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}

	var buf bytes.Buffer
	buf.WriteString("graph regions {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=12, width=0.3];\n")
	buf.WriteString("\n")

	for _, r := range regions {
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(r, opts.Detailed))}
		if opts.Height > 0 {
			x := r.Centroid[0] * opts.Scale
			y := (opts.Height - r.Centroid[1]) * opts.Scale
			attrs = append(attrs, fmt.Sprintf("pos=\"%.2f,%.2f!\"", x, y))
		}
		fmt.Fprintf(&buf, "  %d [%s];\n", r.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range edges {
		fmt.Fprintf(&buf, "  %d -- %d [penwidth=%.2f];\n", e.A, e.B, penWidth(e.Length))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(r region.Region, detailed bool) string {
	id := strconv.Itoa(r.ID)
	if !detailed {
		return id
	}
	return fmt.Sprintf("%s\n(%.1f, %.1f)\narea %.0f", id, r.Centroid[0], r.Centroid[1], r.Area())
}

func penWidth(length float64) float64 {
	w := 0.5 + length/20
	if w > 4 {
		return 4
	}
	return w
}

// RenderSVG renders a DOT graph to SVG using the neato engine, which honours
// pinned node positions.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
