package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/naeemkhedarun/csmetrics/internal/collect"
	"github.com/olekukonko/tablewriter"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/duration"
)

// TableFormatter formats output as a table (kubectl-style)
type TableFormatter struct {
	options *Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(opts *Options) *TableFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &TableFormatter{
		options: opts,
	}
}

// Format outputs a single data item as a table
func (f *TableFormatter) Format(w io.Writer, data interface{}) error {
	table := f.createTable(w)

	// Handle different data types
	switch v := data.(type) {
	case map[string]interface{}:
		return f.formatMap(table, v)
	case []map[string]interface{}:
		return f.formatMapSlice(table, v)
	case string:
		fmt.Fprintln(w, v)
		return nil
	default:
		// Fallback to simple string representation
		fmt.Fprintln(w, v)
		return nil
	}
}

// recordHeaders are the table columns; wide adds wideHeaders
var (
	recordHeaders = []string{"CLUSTER", "NAMESPACE", "KIND", "WORKLOAD", "INSTANCE", "PHASE", "READY", "RESTARTS", "CPU", "MEMORY", "AGE"}
	wideHeaders   = []string{"NODE", "CPU LIMIT", "MEMORY LIMIT", "AVAILABLE"}
)

// FormatRecords outputs one row per record
func (f *TableFormatter) FormatRecords(w io.Writer, records []collect.Record) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records")
		return nil
	}

	colors := NewColorScheme(w, f.options.NoColor)
	table := f.createTable(w)

	headers := recordHeaders
	if f.options.Wide {
		headers = append(append([]string{}, recordHeaders...), wideHeaders...)
	}

	if !f.options.NoHeaders {
		painted := make([]string, len(headers))
		for i, h := range headers {
			painted[i] = colors.Header(h)
		}
		table.SetHeader(painted)
	}

	for _, r := range records {
		table.Append(f.formatRecordRow(r, colors))
	}

	table.Render()
	return nil
}

// formatRecordRow formats a single record as a table row
func (f *TableFormatter) formatRecordRow(r collect.Record, colors *ColorScheme) []string {
	row := []string{
		colors.Cluster(r.Cluster),
		r.Namespace,
		r.Kind,
		r.Workload,
		r.Instance,
		colors.Phase(r.Phase),
		colors.Ready(r.Ready),
		colors.Restarts(r.Restarts),
		formatCPU(r.CPURequest),
		formatMemory(r.MemoryRequest),
		duration.HumanDuration(time.Duration(r.AgeSeconds) * time.Second),
	}

	if f.options.Wide {
		row = append(row,
			r.Node,
			formatCPU(r.CPULimit),
			formatMemory(r.MemoryLimit),
			fmt.Sprintf("%d/%d", r.AvailableReplicas, r.DesiredReplicas),
		)
	}

	return row
}

// formatCPU renders millicores the way kubectl does; zero is "-"
func formatCPU(milli int64) string {
	if milli == 0 {
		return "-"
	}
	return resource.NewMilliQuantity(milli, resource.DecimalSI).String()
}

// formatMemory renders bytes with binary suffixes; zero is "-"
func formatMemory(bytes int64) string {
	if bytes == 0 {
		return "-"
	}
	return resource.NewQuantity(bytes, resource.BinarySI).String()
}

// formatMap formats a map as a two-column table (key-value pairs)
func (f *TableFormatter) formatMap(table *tablewriter.Table, data map[string]interface{}) error {
	if !f.options.NoHeaders {
		table.SetHeader([]string{"KEY", "VALUE"})
	}

	for k, v := range data {
		table.Append([]string{k, fmt.Sprintf("%v", v)})
	}

	table.Render()
	return nil
}

// formatMapSlice formats a slice of maps as a table
func (f *TableFormatter) formatMapSlice(table *tablewriter.Table, data []map[string]interface{}) error {
	if len(data) == 0 {
		return nil
	}

	// Extract headers from the first map
	var headers []string
	for k := range data[0] {
		headers = append(headers, strings.ToUpper(k))
	}

	if !f.options.NoHeaders {
		table.SetHeader(headers)
	}

	// Add rows
	for _, item := range data {
		var row []string
		for _, h := range headers {
			key := strings.ToLower(h)
			row = append(row, fmt.Sprintf("%v", item[key]))
		}
		table.Append(row)
	}

	table.Render()
	return nil
}

// createTable creates a new table with kubectl-style configuration
func (f *TableFormatter) createTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)

	// kubectl-style configuration
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t") // Tab-separated like kubectl
	table.SetNoWhiteSpace(true)

	return table
}
