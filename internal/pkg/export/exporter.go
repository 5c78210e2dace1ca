// Package export renders result tables for humans and downstream
// pipelines: a rounded terminal table for interactive runs and CSV for
// anything that wants to load the mapping elsewhere.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	syncpkg "sportsync/internal/sync"
)

// Exporter renders ResultTables.
type Exporter struct{}

// NewExporter creates a new exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// WriteCSV writes the table as CSV with a header row. Null cells are
// written as empty strings.
func (e *Exporter) WriteCSV(w io.Writer, t *syncpkg.ResultTable) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	row := make([]string, len(t.Columns))
	for i, r := range t.Rows {
		for j, col := range t.Columns {
			row[j] = cellString(r[col])
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// RenderTable renders the table for the terminal.
func (e *Exporter) RenderTable(t *syncpkg.ResultTable) string {
	if len(t.Columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	tw.AppendHeader(header)

	for _, r := range t.Rows {
		row := make(table.Row, len(t.Columns))
		for i, col := range t.Columns {
			row[i] = cellString(r[col])
		}
		tw.AppendRow(row)
	}

	return tw.Render()
}

func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.UTC().Format("2006-01-02")
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
