// Package output renders collected records and run summaries.
//
// CSV is the primary export format and is streamed: rows are written as
// workloads finish, with the header written once. Table, JSON and YAML buffer
// the records and render them when the export ends.
//
// # Basic Usage
//
//	sink := output.NewSink(output.FormatCSV, file)
//	defer sink.Close()
//	sink.Write(records)
//
// Formatters can also be used directly:
//
//	formatter := output.NewFormatter(
//	    output.FormatTable,
//	    output.WithNoColor(true),
//	    output.WithWide(true),
//	)
//	formatter.FormatRecords(os.Stdout, records)
//
// # Formats
//
// CSV:
//   - Columns follow collect.Columns
//   - RFC 3339 UTC timestamps, CPU in millicores, memory in bytes
//
// Table (kubectl-style):
//   - Borderless tables with tab-separated columns
//   - Quantities rendered the way kubectl renders them (250m, 128Mi)
//   - Wide mode adds node, limits and replica columns
//
// JSON and YAML:
//   - An array of records with camelCase keys
//
// # Color Support
//
// Colors are enabled for TTY outputs and can be disabled with WithNoColor(true).
// Non-TTY output (pipes, redirects, files) is never colored.
package output
