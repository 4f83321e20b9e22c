package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type column struct {
	title string
	align text.Align
}

var (
	categoryColumns = []column{
		{title: "Category"},
		{title: "Files", align: text.AlignRight},
		{title: "Path"},
	}
	mediaColumns = []column{
		{title: "Name"},
		{title: "Type"},
		{title: "Size", align: text.AlignRight},
		{title: "Modified"},
	}
)

// renderTable draws rows under columns. Short rows are padded with blanks.
func renderTable(columns []column, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, 0, len(columns))
	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, c := range columns {
		header = append(header, c.title)
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: c.align})
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}
