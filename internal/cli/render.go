package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	perrors "github.com/p-blackswan/taskboard/internal/errors"
)

const maxColumnWidth = 48

// printTable renders a static table. Column widths fit the widest cell.
func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	tableRows := make([]table.Row, 0, len(rows))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], min(runewidth.StringWidth(cell), maxColumnWidth))
		}
		tableRows = append(tableRows, table.Row(row))
	}

	columns := make([]table.Column, len(headers))
	for i, h := range headers {
		columns[i] = table.Column{Title: h, Width: widths[i]}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithHeight(len(tableRows)+1),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = lipgloss.NewStyle()
	t.SetStyles(s)

	fmt.Fprintln(w, t.View())
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// emit prints v as JSON with --json, otherwise as a table.
func emit(w io.Writer, v any, headers []string, rows [][]string) error {
	if jsonOutput {
		return printJSON(w, v)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "Nothing to show.")
		return nil
	}
	printTable(w, headers, rows)
	return nil
}

func optString(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, perrors.Precondition(fmt.Sprintf("invalid id %q", s))
	}
	return id, nil
}
