// Package calendar reshapes a flat list of bookable dates into a grid with
// one column per month.
package calendar

import (
	"fmt"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
)

// Calendar is a grid of formatted dates. Every row has one cell per header,
// an empty string is an empty cell.
type Calendar struct {
	Headers []string
	Rows    [][]string
}

// MonthName is the column a date belongs to. Only the month name is used,
// so the same month of two different years shares a column.
func MonthName(date time.Time) string {
	return date.Month().String()
}

// FormatDate renders a date like "3rd June 2024".
func FormatDate(date time.Time) string {
	return fmt.Sprintf("%s %s %d", humanize.Ordinal(date.Day()), date.Month(), date.Year())
}

// Headers returns the distinct month names of `dates` in the order they
// first appear, not in calendar order.
func Headers(dates []time.Time) []string {
	headers := []string{}
	for _, d := range dates {
		name := MonthName(d)
		if !slices.Contains(headers, name) {
			headers = append(headers, name)
		}
	}
	return headers
}

// Group places every date in the first row whose cell in the date's month
// column is still empty, appending a row when there is none. Dates keep
// their relative input order within a column.
func Group(dates []time.Time) Calendar {
	headers := Headers(dates)
	rows := [][]string{}

	for _, d := range dates {
		column := slices.Index(headers, MonthName(d))
		formatted := FormatDate(d)

		placed := false
		for _, row := range rows {
			if row[column] == "" {
				row[column] = formatted
				placed = true
				break
			}
		}
		if placed {
			continue
		}

		row := make([]string, len(headers))
		row[column] = formatted
		rows = append(rows, row)
	}

	return Calendar{Headers: headers, Rows: rows}
}

// Earliest returns the first non-empty cell scanning row by row, left to right.
func (c Calendar) Earliest() (string, bool) {
	for _, row := range c.Rows {
		for _, cell := range row {
			if cell != "" {
				return cell, true
			}
		}
	}
	return "", false
}

// Cells counts the non-empty cells.
func (c Calendar) Cells() int {
	n := 0
	for _, row := range c.Rows {
		for _, cell := range row {
			if cell != "" {
				n++
			}
		}
	}
	return n
}

func (c Calendar) Empty() bool {
	return len(c.Rows) == 0
}
