package display

import (
	"fmt"
	"strings"

	"HTAPDB/types"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	primaryColor = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7C79FF"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	errorColor   = lipgloss.AdaptiveColor{Light: "#FF5F56", Dark: "#FF6B6B"}
	successColor = lipgloss.AdaptiveColor{Light: "#02BA84", Dark: "#02D98E"}

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	nullStyle   = cellStyle.Foreground(mutedColor).Italic(true)
	borderStyle = lipgloss.NewStyle().Foreground(mutedColor)

	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(errorColor)
	SuccessStyle = lipgloss.NewStyle().Foreground(successColor)
	MutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
)

// Rows renders rows as a bordered table. Headers come from schema when it
// has columns, otherwise they are c0, c1, ...
func Rows(schema types.Schema, rows []types.Row) string {
	width := len(schema.Columns)
	for _, r := range rows {
		width = max(width, len(r.Values))
	}
	headers := []string{"id"}
	for i := 0; i < width; i++ {
		if i < len(schema.Columns) {
			headers = append(headers, schema.Columns[i].Name)
		} else {
			headers = append(headers, fmt.Sprintf("c%d", i))
		}
	}

	nulls := make(map[[2]int]bool)
	cells := make([][]string, len(rows))
	for i, r := range rows {
		line := make([]string, width+1)
		line[0] = fmt.Sprint(r.ID)
		for c := 0; c < width; c++ {
			v := r.Get(c)
			if v.IsNull() {
				nulls[[2]int{i, c + 1}] = true
			}
			line[c+1] = v.String()
		}
		cells[i] = line
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case nulls[[2]int{row, col}]:
				return nullStyle
			}
			return cellStyle
		})
	return t.Render()
}

// KeyValues renders name/value pairs as a two-column table.
func KeyValues(title string, pairs [][2]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("", title).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, p := range pairs {
		t.Row(p[0], p[1])
	}
	return t.Render()
}

// Lines indents a multi-line string for nesting under a title.
func Lines(s string) string {
	return "  " + strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n  ")
}
