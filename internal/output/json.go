package output

import (
	"encoding/json"
	"io"

	"github.com/naeemkhedarun/csmetrics/internal/collect"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	options *Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(opts *Options) *JSONFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &JSONFormatter{
		options: opts,
	}
}

// Format outputs a single data item as JSON
func (f *JSONFormatter) Format(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// FormatRecords outputs records as a JSON array; no records is []
func (f *JSONFormatter) FormatRecords(w io.Writer, records []collect.Record) error {
	if records == nil {
		records = []collect.Record{}
	}
	return f.Format(w, records)
}
