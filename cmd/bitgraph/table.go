package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. Numeric columns are right aligned.
type column struct {
	title   string
	numeric bool
}

func textCol(title string) column { return column{title: title} }

func numCol(title string) column { return column{title: title, numeric: true} }

// renderTable draws rows under cols in the rounded style. Short rows are
// padded with empty cells; extra cells are dropped.
func renderTable(cols []column, rows [][]string) string {
	if len(cols) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		header[i] = c.title
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if c.numeric {
			configs[i].Align = text.AlignRight
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, cells := range rows {
		row := make(table.Row, len(cols))
		for i := range row {
			row[i] = ""
			if i < len(cells) {
				row[i] = cells[i]
			}
		}
		tw.AppendRow(row)
	}
	return tw.Render()
}

// renderKeyValues draws a two column property table.
func renderKeyValues(pairs [][2]string) string {
	rows := make([][]string, len(pairs))
	for i, pair := range pairs {
		rows[i] = pair[:]
	}
	return renderTable([]column{textCol("Property"), textCol("Value")}, rows)
}
