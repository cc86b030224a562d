package cli

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/landcells/pkg/region"
)

// List styles
var (
	listDimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	detailKeyStyle = lipgloss.NewStyle().Foreground(colorGray).Width(11)
)

// =============================================================================
// RegionListModel - Interactive region browser
// =============================================================================

// RegionListModel is the bubbletea model for browsing the regions of a
// partition. The detail pane shows the selected region's neighbours and
// the length of each shared border.
type RegionListModel struct {
	Source    string
	Regions   []region.Region
	Cursor    int
	Height    int
	Offset    int
	Detail    bool
	neighbors map[int][]region.Edge
}

// NewRegionListModel creates a browser over regions.
func NewRegionListModel(source string, regions []region.Region) RegionListModel {
	neighbors := make(map[int][]region.Edge)
	for _, e := range region.Adjacency(regions) {
		neighbors[e.A] = append(neighbors[e.A], e)
		neighbors[e.B] = append(neighbors[e.B], region.Edge{A: e.B, B: e.A, Length: e.Length})
	}
	for _, edges := range neighbors {
		slices.SortFunc(edges, func(a, b region.Edge) int { return a.B - b.B })
	}
	return RegionListModel{
		Source:    source,
		Regions:   regions,
		Height:    15,
		Detail:    true,
		neighbors: neighbors,
	}
}

func (m RegionListModel) Init() tea.Cmd {
	return nil
}

func (m RegionListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.Height)
		case "pgdown":
			m.move(m.Height)
		case "home", "g":
			m.move(-len(m.Regions))
		case "end", "G":
			m.move(len(m.Regions))
		case "enter", "tab":
			m.Detail = !m.Detail
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-14, 5)
		m.move(0)
	}
	return m, nil
}

// move shifts the cursor by delta, clamped, and scrolls to keep it visible.
func (m *RegionListModel) move(delta int) {
	if len(m.Regions) == 0 {
		return
	}
	m.Cursor = min(max(m.Cursor+delta, 0), len(m.Regions)-1)
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// Selected returns the region under the cursor.
func (m RegionListModel) Selected() (region.Region, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Regions) {
		return region.Region{}, false
	}
	return m.Regions[m.Cursor], true
}

// Neighbors returns the borders of region id, sorted by neighbour ID.
func (m RegionListModel) Neighbors(id int) []region.Edge {
	return m.neighbors[id]
}

func (m RegionListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Regions"))
	b.WriteString(" " + listDimStyle.Render(m.Source))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  pgup/pgdn page  ⏎ details  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Regions))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, append([]string{cursor}, regionRow(m.Regions[i])...))
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(append([]string{""}, regionHeaders...)...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col >= 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Regions))))
	b.WriteString("\n")

	if r, ok := m.Selected(); ok && m.Detail {
		b.WriteString("\n")
		b.WriteString(m.detailView(r))
	}
	return b.String()
}

func (m RegionListModel) detailView(r region.Region) string {
	var b strings.Builder
	line := func(key, value string) {
		b.WriteString(detailKeyStyle.Render(key) + " " + StyleValue.Render(value) + "\n")
	}

	line("Region", fmt.Sprintf("%d", r.ID))
	line("Area", fmt.Sprintf("%.2f px²", r.Area()))
	line("Centroid", fmt.Sprintf("(%.2f, %.2f)", r.Centroid[0], r.Centroid[1]))
	line("Seed", fmt.Sprintf("(%.2f, %.2f)", r.Seed[0], r.Seed[1]))

	edges := m.Neighbors(r.ID)
	if len(edges) == 0 {
		line("Neighbours", "none")
		return b.String()
	}
	parts := make([]string, len(edges))
	for i, e := range edges {
		parts[i] = fmt.Sprintf("%d (%.1f)", e.B, e.Length)
	}
	line("Neighbours", strings.Join(parts, ", "))
	return b.String()
}
