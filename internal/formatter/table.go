package formatter

import (
	"github.com/alevsk/sass-inject/internal/pipeline"
	"github.com/jedib0t/go-pretty/v6/table"
)

// buildTables builds the metadata and file tables for a report
func buildTables(report *pipeline.Report) (table.Writer, table.Writer) {
	metadataTable := table.NewWriter()
	metadataTable.SetOutputMirror(nil)
	metadataTable.SetStyle(table.StyleLight)
	metadataTable.Style().Options.SeparateColumns = true
	metadataTable.SetTitle("RUN")

	metadataTable.AppendHeader(table.Row{"KEY", "VALUE"})
	metadataTable.AppendRows([]table.Row{
		{"RUN ID", report.RunID},
		{"SOURCE", report.Source},
		{"OUTPUT", report.Output},
		{"MODE", report.Mode},
		{"DURATION", report.Duration.String()},
		{"FILES", len(report.Entries)},
		{"INJECTED", report.Injected()},
	})

	filesTable := table.NewWriter()
	filesTable.SetOutputMirror(nil) // Don't write to stdout directly
	filesTable.SetStyle(table.StyleLight)
	filesTable.Style().Options.SeparateColumns = true
	filesTable.SetTitle("FILES")

	filesTable.AppendHeader(table.Row{"PATH", "CONTENT", "INJECTED", "BYTES"})
	for _, e := range report.Entries {
		injected := ""
		if e.Injected {
			injected = "yes"
		}
		filesTable.AppendRow(table.Row{e.Path, string(e.Kind), injected, e.Bytes})
	}

	// Sort files by path
	filesTable.SortBy([]table.SortBy{
		{Name: "PATH", Mode: table.Asc},
	})

	return metadataTable, filesTable
}
