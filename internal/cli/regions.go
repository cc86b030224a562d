package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/landcells/internal/config"
	lcerrors "github.com/matzehuels/landcells/pkg/errors"
	"github.com/matzehuels/landcells/pkg/export"
	"github.com/matzehuels/landcells/pkg/pipeline"
	"github.com/matzehuels/landcells/pkg/region"
	"github.com/matzehuels/landcells/pkg/store"
)

const (
	sortByID   = "id"
	sortByArea = "area"
)

// recordReader is implemented by the database-backed stores.
type recordReader interface {
	Records(ctx context.Context, runID string) ([]region.Record, error)
}

// regionsCommand creates the regions command for inspecting partitions.
func (c *CLI) regionsCommand() *cobra.Command {
	var (
		runID       string
		sortBy      string
		interactive bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "regions [result.json|regions.geojson|regions.wkt]",
		Short: "List the regions of a partition",
		Long: `List the regions of a partition.

Regions are read from a file written by 'partition' (json, geojson or wkt),
or with --run from the configured region store.`,
		Example: `  landcells regions world.cells.json
  landcells regions world.geojson --sort area -i
  landcells regions --run 3f0c9a52-... --store postgres`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sortBy != sortByID && sortBy != sortByArea {
				return fmt.Errorf("invalid sort %q (must be id or area)", sortBy)
			}

			var (
				regions []region.Region
				source  string
				err     error
			)
			switch {
			case len(args) == 1:
				source = args[0]
				regions, err = readRegionsFile(source)
			case runID != "":
				source = "run " + runID
				regions, err = c.readRegionsRun(cmd, runID)
			default:
				return fmt.Errorf("need a result file or --run")
			}
			if err != nil {
				return err
			}

			sortRegions(regions, sortBy)
			switch {
			case asJSON:
				return printRegionsJSON(regions)
			case interactive:
				_, err := tea.NewProgram(NewRegionListModel(source, regions), tea.WithAltScreen()).Run()
				return err
			}
			printRegionTable(regions)
			printRegionSummary(regions)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "read regions of this run from the region store")
	cmd.Flags().String("store", "", "region store for --run: file, postgres, mongo, redis")
	cmd.Flags().StringVar(&sortBy, "sort", sortByID, "sort order: id, area")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse regions interactively")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print region records as JSON")

	return cmd
}

// readRegionsFile loads regions from a partition artifact, chosen by
// extension.
func readRegionsFile(path string) ([]region.Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson":
		return export.ReadGeoJSON(data)
	case ".wkt":
		return export.ReadWKT(data)
	}

	var res pipeline.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if res.Partition == nil {
		return nil, fmt.Errorf("%s: not a partition result", path)
	}
	return res.Partition.Regions, nil
}

// readRegionsRun loads the regions of one run from the configured store.
func (c *CLI) readRegionsRun(cmd *cobra.Command, runID string) ([]region.Region, error) {
	if err := lcerrors.ValidateRunID(runID); err != nil {
		return nil, err
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if b, _ := cmd.Flags().GetString("store"); b != "" {
		cfg.Store.Backend = b
	}
	switch cfg.Store.Backend {
	case config.BackendNone, config.BackendMemory:
		return nil, fmt.Errorf("store backend %s keeps no regions to read", cfg.Store.Backend)
	}

	ctx := cmd.Context()
	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	var recs []region.Record
	switch s := st.(type) {
	case *store.File:
		recs, err = s.Records(runID)
	case recordReader:
		recs, err = s.Records(ctx, runID)
	default:
		return nil, fmt.Errorf("store %s cannot list regions", st.Name())
	}
	if err != nil {
		return nil, fmt.Errorf("read run %s: %w", runID, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("run %s has no regions in %s", runID, st.Name())
	}

	regions := make([]region.Region, 0, len(recs))
	for _, rec := range recs {
		r, err := rec.Region()
		if err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}
	return regions, nil
}

func sortRegions(regions []region.Region, by string) {
	slices.SortStableFunc(regions, func(a, b region.Region) int {
		if by == sortByArea {
			if d := b.Area() - a.Area(); d != 0 {
				if d > 0 {
					return 1
				}
				return -1
			}
		}
		return a.ID - b.ID
	})
}

func printRegionsJSON(regions []region.Region) error {
	recs := make([]region.Record, len(regions))
	for i, r := range regions {
		recs[i] = r.ToRecord("")
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

// regionRow formats the table columns shared by the table and the browser.
func regionRow(r region.Region) []string {
	return []string{
		fmt.Sprintf("%d", r.ID),
		fmt.Sprintf("%.1f", r.Area()),
		fmt.Sprintf("%.1f, %.1f", r.Centroid[0], r.Centroid[1]),
		fmt.Sprintf("%.1f, %.1f", r.Seed[0], r.Seed[1]),
		fmt.Sprintf("%d", len(r.Polygon)),
	}
}

var regionHeaders = []string{"ID", "Area", "Centroid", "Seed", "Vertices"}

func printRegionTable(regions []region.Region) {
	rows := make([][]string, len(regions))
	for i, r := range regions {
		rows[i] = regionRow(r)
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(regionHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan).Padding(0, 1)
			}
			return lipgloss.NewStyle().Foreground(colorWhite).Padding(0, 1)
		})
	fmt.Println(t.Render())
}

// regionSummary aggregates area statistics.
type regionSummary struct {
	Count                 int
	Total, Min, Max, Mean float64
	Edges                 int
}

func summarize(regions []region.Region) regionSummary {
	s := regionSummary{Count: len(regions)}
	for i, r := range regions {
		a := r.Area()
		s.Total += a
		if i == 0 || a < s.Min {
			s.Min = a
		}
		if a > s.Max {
			s.Max = a
		}
	}
	if s.Count > 0 {
		s.Mean = s.Total / float64(s.Count)
	}
	s.Edges = len(region.Adjacency(regions))
	return s
}

func printRegionSummary(regions []region.Region) {
	s := summarize(regions)
	printKeyValue("Regions", fmt.Sprintf("%d", s.Count))
	printKeyValue("Land area", fmt.Sprintf("%.1f px²", s.Total))
	printKeyValue("Area range", fmt.Sprintf("%.1f to %.1f (mean %.1f)", s.Min, s.Max, s.Mean))
	printKeyValue("Borders", fmt.Sprintf("%d", s.Edges))
}
