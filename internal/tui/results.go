package tui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vvka-141/sfmeta/internal/services"
)

// RenderFileResponses writes a table of per-file results, successes first
// and failures in a separate table with their problem text.
func RenderFileResponses(w io.Writer, title string, files []services.FileResponse) {
	var ok, failed []services.FileResponse
	for _, f := range files {
		if f.State == services.StateFailed {
			failed = append(failed, f)
		} else {
			ok = append(ok, f)
		}
	}
	sort.SliceStable(ok, func(i, j int) bool {
		if ok[i].Type != ok[j].Type {
			return ok[i].Type < ok[j].Type
		}
		return ok[i].FullName < ok[j].FullName
	})

	if len(ok) > 0 {
		fmt.Fprintln(w, TitleStyle.Render(title))
		rows := make([][]string, 0, len(ok))
		for _, f := range ok {
			rows = append(rows, []string{string(f.State), f.FullName, f.Type, f.FilePath})
		}
		fmt.Fprintln(w, renderTable([]string{"State", "Name", "Type", "Path"}, rows, func(row int) lipgloss.Style {
			return StateStyle(ok[row].State)
		}))
	}

	if len(failed) > 0 {
		fmt.Fprintln(w, ErrorStyle.Render(fmt.Sprintf("%s Errors (%d)", SymbolCross, len(failed))))
		rows := make([][]string, 0, len(failed))
		for _, f := range failed {
			rows = append(rows, []string{f.ProblemType, f.FullName, f.Type, location(f), f.Error})
		}
		fmt.Fprintln(w, renderTable([]string{"Type", "Name", "Component", "Location", "Problem"}, rows, func(int) lipgloss.Style {
			return ErrorStyle
		}))
	}

	if len(files) == 0 {
		fmt.Fprintln(w, MessageStyle.Render("No results to report."))
	}
}

func location(f services.FileResponse) string {
	if f.LineNumber == 0 {
		return f.FilePath
	}
	return fmt.Sprintf("%s:%d:%d", f.FilePath, f.LineNumber, f.ColumnNumber)
}

const columnGap = 2

// renderTable lays out rows in padded columns. accent, when set, styles the
// first column of each row.
func renderTable(headers []string, rows [][]string, accent func(row int) lipgloss.Style) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(cells []string, style func(i int) lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			s := style(i)
			if i < len(cells)-1 {
				s = s.Width(widths[i] + columnGap)
			}
			parts[i] = s.Render(cell)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	}

	var b strings.Builder
	b.WriteString(line(headers, func(int) lipgloss.Style { return HeaderStyle }))
	for r, row := range rows {
		b.WriteString("\n")
		b.WriteString(line(row, func(i int) lipgloss.Style {
			if i == 0 && accent != nil {
				return accent(r)
			}
			return lipgloss.NewStyle()
		}))
	}
	return b.String()
}
