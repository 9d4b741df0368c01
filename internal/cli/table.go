package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// RenderTable lays rows out under headers with the shared table styles.
func RenderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		})
	return t.Render()
}

// PrintTable writes a table, or emptyMessage when there are no rows.
func PrintTable(w io.Writer, headers []string, rows [][]string, emptyMessage string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo(emptyMessage))
		return err
	}
	_, err := fmt.Fprintln(w, RenderTable(headers, rows))
	return err
}
