package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleTitle for headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	// StyleHighlight for addresses and emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	// StyleDim for muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)
	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	styleSuccess  = lipgloss.NewStyle().Foreground(colorGreen)
	styleError    = lipgloss.NewStyle().Foreground(colorRed)
	styleWarning  = lipgloss.NewStyle().Foreground(colorYellow)
	styleInfo     = lipgloss.NewStyle().Foreground(colorGray)
	styleSpinner  = lipgloss.NewStyle().Foreground(colorCyan)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey      = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleSeparate = StyleDim.Render(" · ")
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// status prints one line prefixed with a colored icon.
func status(icon lipgloss.Style, glyph, msg string) {
	fmt.Println(icon.Render(glyph) + " " + msg)
}

func printSuccess(format string, args ...any) {
	status(styleSuccess, iconSuccess, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	status(styleError, iconError, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	status(styleWarning, iconWarning, styleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	status(styleInfo, iconInfo, fmt.Sprintf(format, args...))
}

// printDetail prints an indented, muted line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written artifact path.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printStats prints the outcome of a partition on one line, e.g.
//
//	40 regions · 7 iterations · converged · cached
func printStats(regions, iterations int, state string, cached bool) {
	var parts []string
	if regions > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d regions", regions)))
	}
	if iterations > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d iterations", iterations)))
	}
	if state != "" {
		parts = append(parts, StyleDim.Render(state))
	}
	if cached {
		parts = append(parts, styleSuccess.Render("cached"))
	} else {
		parts = append(parts, styleInfo.Render("fresh"))
	}
	fmt.Println("  " + strings.Join(parts, styleSeparate))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Println()
}
