package export

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb/encoding/wkt"

	"github.com/matzehuels/landcells/pkg/geom"
	"github.com/matzehuels/landcells/pkg/region"
)

// WKT writes one "id<TAB>POLYGON((...))" line per region.
func WKT(regions []region.Region, opts Options) []byte {
	var buf bytes.Buffer
	for _, r := range regions {
		fmt.Fprintf(&buf, "%d\t%s\n", r.ID, wkt.MarshalString(polygon(r.Polygon, opts.Simplify)))
	}
	return buf.Bytes()
}

// ReadWKT parses lines written by WKT. Only IDs and polygons survive the
// round trip; centroids are left zero.
func ReadWKT(data []byte) ([]region.Region, error) {
	var out []region.Region
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		idText, text, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("line %d: missing tab separator", n)
		}
		id, err := strconv.Atoi(idText)
		if err != nil {
			return nil, fmt.Errorf("line %d: region id: %w", n, err)
		}
		poly, err := wkt.UnmarshalPolygon(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		if len(poly) == 0 {
			return nil, fmt.Errorf("line %d: empty polygon", n)
		}
		out = append(out, region.Region{ID: id, Polygon: geom.Open(poly[0])})
	}
	return out, sc.Err()
}
