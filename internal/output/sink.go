package output

import (
	"io"

	"github.com/naeemkhedarun/csmetrics/internal/collect"
)

// Sink receives records as workloads finish. Close renders anything buffered.
type Sink interface {
	Write(records []collect.Record) error
	Close() error
}

// NewSink returns a sink for format. CSV rows are streamed and flushed after
// every batch; the other formats buffer records and render them on Close.
func NewSink(format Format, w io.Writer, opts ...Option) Sink {
	options := buildOptions(opts)

	if format == FormatCSV {
		// header is written even when nothing is collected
		return &csvSink{w: NewCSVWriter(w, options.NoHeaders)}
	}
	return &bufferedSink{w: w, formatter: NewFormatter(format, opts...)}
}

type csvSink struct {
	w *CSVWriter
}

func (s *csvSink) Write(records []collect.Record) error {
	if err := s.w.Write(records...); err != nil {
		return err
	}
	return s.w.Flush()
}

func (s *csvSink) Close() error {
	if err := s.w.WriteHeader(); err != nil {
		return err
	}
	return s.w.Flush()
}

type bufferedSink struct {
	w         io.Writer
	formatter Formatter
	records   []collect.Record
}

func (s *bufferedSink) Write(records []collect.Record) error {
	s.records = append(s.records, records...)
	return nil
}

func (s *bufferedSink) Close() error {
	return s.formatter.FormatRecords(s.w, s.records)
}
