package calendar

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const columnWidth = 30

// Render writes the calendar as a table with one column per month.
func Render(w io.Writer, c Calendar) error {
	if c.Empty() {
		_, err := fmt.Fprintln(w, "no bookable slots")
		return err
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Color.Header = text.Colors{text.FgCyan}
	t.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(c.Headers))
	configs := make([]table.ColumnConfig, len(c.Headers))
	for i, h := range c.Headers {
		header[i] = h
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignCenter,
			AlignHeader: text.AlignCenter,
			WidthMin:    columnWidth,
			WidthMax:    columnWidth,
		}
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for _, row := range c.Rows {
		r := make(table.Row, len(row))
		for i, cell := range row {
			r[i] = cell
		}
		t.AppendRow(r)
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}
