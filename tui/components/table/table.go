// Package table renders themed text tables for the dashboard and the CLI
// list output.
package table

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/grovetools/fleet/tui/theme"
)

// SimpleTable renders a bordered table with themed headers. Used by the
// plain-text session listing.
func SimpleTable(headers []string, rows [][]string) string {
	t := theme.DefaultTheme

	styledHeaders := make([]string, len(headers))
	for i, h := range headers {
		styledHeaders[i] = t.Bold.Render(h)
	}

	table := ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(t.Colors.Border)).
		Headers(styledHeaders...).
		StyleFunc(func(row, col int) lipgloss.Style {
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, r := range rows {
		table = table.Row(r...)
	}
	return table.String()
}

// SelectableTable renders a bordered table with a cursor arrow in the left
// gutter of the selected row. selectedIndex addresses data rows, not the
// header.
func SelectableTable(headers []string, rows [][]string, selectedIndex int) string {
	t := theme.DefaultTheme

	styledHeaders := make([]string, len(headers))
	for i, h := range headers {
		styledHeaders[i] = t.Bold.Render(h)
	}

	table := ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(t.Colors.Border)).
		Headers(styledHeaders...).
		StyleFunc(func(row, col int) lipgloss.Style {
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, r := range rows {
		table = table.Row(r...)
	}

	// With headers set, data row i lands on rendered line 3+i: top border,
	// header row, then the separator line.
	selectedLine := 3 + selectedIndex

	arrow := t.Highlight.Render(theme.IconSelect)
	lines := strings.Split(table.String(), "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		if i == selectedLine && selectedIndex >= 0 && selectedIndex < len(rows) {
			out = append(out, arrow+" "+line)
		} else {
			out = append(out, "  "+line)
		}
	}
	return strings.Join(out, "\n")
}
