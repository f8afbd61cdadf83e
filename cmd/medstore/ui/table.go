package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders static rows for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	// Footer is an optional summary row (e.g. a total) under a divider.
	Footer []string
	// RightAlign marks columns (by index) that hold numbers or money.
	RightAlign map[int]bool
}

// NewTable creates a Table with the given title and headers.
func NewTable(title string, headers ...string) *Table {
	return &Table{
		Title:      title,
		Headers:    headers,
		RightAlign: make(map[int]bool),
	}
}

// AlignRight right-aligns the given columns.
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		t.RightAlign[c] = true
	}
	return t
}

// AddRow adds a row to the table.
func (t *Table) AddRow(row ...string) {
	t.Rows = append(t.Rows, row)
}

// View renders the table. An empty table renders as "".
func (t *Table) View(styles Styles) string {
	if len(t.Rows) == 0 {
		return ""
	}

	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(styles.Title.Render(t.Title))
		sb.WriteString("\n")
	}

	widths := make([]int, len(t.Headers))
	measure := func(row []string) {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	measure(t.Headers)
	for _, row := range t.Rows {
		measure(row)
	}
	measure(t.Footer)
	for i := range widths {
		widths[i] += 2 // padding
	}

	sep := styles.Muted.Render("│")
	line := func(row []string, base lipgloss.Style) {
		for i := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			st := base.Padding(0, 1).Width(widths[i])
			if t.RightAlign[i] {
				st = st.Align(lipgloss.Right)
			}
			sb.WriteString(st.Render(cell))
			if i < len(widths)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}

	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}
	divider := styles.Muted.Render(strings.Repeat("─", total)) + "\n"

	line(t.Headers, styles.Bold)
	sb.WriteString(divider)
	for _, row := range t.Rows {
		line(row, styles.Body)
	}
	if len(t.Footer) > 0 {
		sb.WriteString(divider)
		line(t.Footer, styles.Bold)
	}
	return sb.String()
}
