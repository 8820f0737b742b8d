package output

import (
	"io"

	"github.com/naeemkhedarun/csmetrics/internal/collect"
	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	options *Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(opts *Options) *YAMLFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &YAMLFormatter{
		options: opts,
	}
}

// Format outputs a single data item as YAML
func (f *YAMLFormatter) Format(w io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	return encoder.Encode(data)
}

// FormatRecords outputs records as a YAML sequence
func (f *YAMLFormatter) FormatRecords(w io.Writer, records []collect.Record) error {
	if records == nil {
		records = []collect.Record{}
	}
	return f.Format(w, records)
}
