package cmd

import (
	"io"
	"os"

	"github.com/gookit/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
)

// maxCellWidth bounds path and class-name cells in summaries.
const maxCellWidth = 48

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// truncateLeft shortens s to width display columns, keeping the tail.
// Paths stay recognisable by their file name.
func truncateLeft(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}

	runes := []rune(s)
	used := runewidth.RuneWidth('…')
	start := len(runes)
	for start > 0 {
		w := runewidth.RuneWidth(runes[start-1])
		if used+w > width {
			break
		}
		used += w
		start--
	}
	return "…" + string(runes[start:])
}

// truncateRight shortens s to width display columns, keeping the head.
func truncateRight(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// statusPainter colors status words when the output is a terminal.
type statusPainter struct {
	enabled bool
}

func newStatusPainter(w io.Writer) statusPainter {
	return statusPainter{enabled: shouldColorize(w)}
}

func (p statusPainter) paint(style color.Color, s string) string {
	if !p.enabled {
		return s
	}
	return style.Sprint(s)
}

func (p statusPainter) ok(s string) string   { return p.paint(color.FgGreen, s) }
func (p statusPainter) warn(s string) string { return p.paint(color.FgYellow, s) }
func (p statusPainter) fail(s string) string { return p.paint(color.FgRed, s) }
