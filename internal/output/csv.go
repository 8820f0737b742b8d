package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/naeemkhedarun/csmetrics/internal/collect"
)

// CSVFormatter formats records as CSV
type CSVFormatter struct {
	options *Options
}

// NewCSVFormatter creates a new CSV formatter
func NewCSVFormatter(opts *Options) *CSVFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &CSVFormatter{
		options: opts,
	}
}

// Format outputs records as CSV. Only []collect.Record and collect.Record are supported.
func (f *CSVFormatter) Format(w io.Writer, data interface{}) error {
	switch v := data.(type) {
	case []collect.Record:
		return f.FormatRecords(w, v)
	case collect.Record:
		return f.FormatRecords(w, []collect.Record{v})
	default:
		return fmt.Errorf("csv output does not support %T", data)
	}
}

// FormatRecords outputs a header row followed by one row per record
func (f *CSVFormatter) FormatRecords(w io.Writer, records []collect.Record) error {
	cw := NewCSVWriter(w, f.options.NoHeaders)
	if err := cw.WriteHeader(); err != nil {
		return err
	}
	if err := cw.Write(records...); err != nil {
		return err
	}
	return cw.Flush()
}

// CSVWriter streams records as CSV rows. The header is written once, before
// the first row or on WriteHeader. It is not safe for concurrent use.
type CSVWriter struct {
	w         *csv.Writer
	noHeader  bool
	headerOut bool
	rows      int
}

// NewCSVWriter creates a streaming writer; noHeader suppresses the header row
func NewCSVWriter(w io.Writer, noHeader bool) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w), noHeader: noHeader}
}

// WriteHeader writes the header if it has not been written yet
func (c *CSVWriter) WriteHeader() error {
	if c.headerOut || c.noHeader {
		return nil
	}
	c.headerOut = true
	if err := c.w.Write(collect.Columns()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	return nil
}

// Write appends one row per record
func (c *CSVWriter) Write(records ...collect.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := c.WriteHeader(); err != nil {
		return err
	}
	for _, r := range records {
		if err := c.w.Write(r.Values()); err != nil {
			return fmt.Errorf("write csv row for %s: %w", r.Instance, err)
		}
		c.rows++
	}
	return nil
}

// Rows returns how many record rows have been written
func (c *CSVWriter) Rows() int {
	return c.rows
}

// Flush writes buffered rows to the underlying writer
func (c *CSVWriter) Flush() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
