package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/naeemkhedarun/csmetrics/internal/collect"
)

func TestNewJSONFormatter(t *testing.T) {
	tests := []struct {
		name string
		opts *Options
	}{
		{name: "nil options", opts: nil},
		{name: "with options", opts: &Options{NoColor: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := NewJSONFormatter(tt.opts)
			if formatter == nil {
				t.Fatal("NewJSONFormatter returned nil")
			}
			if formatter.options == nil {
				t.Error("formatter.options is nil")
			}
		})
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	tests := []struct {
		name string
		data interface{}
		want string
	}{
		{
			name: "map",
			data: map[string]interface{}{"name": "test"},
			want: "{\n  \"name\": \"test\"\n}\n",
		},
		{
			name: "string",
			data: "hello",
			want: "\"hello\"\n",
		},
		{
			name: "nil",
			data: nil,
			want: "null\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewJSONFormatter(nil).Format(&buf, tt.data); err != nil {
				t.Fatalf("Format() error: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("Format() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestJSONFormatter_FormatRecords(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONFormatter(nil).FormatRecords(&buf, sampleRecords()); err != nil {
		t.Fatalf("FormatRecords() error: %v", err)
	}

	var decoded []collect.Record
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded %d records, want 2", len(decoded))
	}
	if !decoded[0].Timestamp.Equal(sampleTime) {
		t.Errorf("timestamp = %v, want %v", decoded[0].Timestamp, sampleTime)
	}
	if decoded[0].CPURequest != 300 {
		t.Errorf("cpuRequestMillis = %d, want 300", decoded[0].CPURequest)
	}

	for _, key := range []string{`"cpuRequestMillis": 300`, `"memoryLimitBytes": 268435456`, `"instance": "ledger-db-0"`} {
		if !strings.Contains(buf.String(), key) {
			t.Errorf("output missing %s", key)
		}
	}
}

func TestJSONFormatter_FormatRecords_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONFormatter(nil).FormatRecords(&buf, nil); err != nil {
		t.Fatalf("FormatRecords() error: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("FormatRecords(nil) = %q, want []", got)
	}
}

func TestJSONFormatter_Summary(t *testing.T) {
	s := RunSummary{Workloads: 3, Collected: 2, Failed: 1, Records: 7, Elapsed: 1500 * time.Millisecond}

	var buf bytes.Buffer
	if err := NewJSONFormatter(nil).Format(&buf, s); err != nil {
		t.Fatalf("Format() error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["records"] != float64(7) {
		t.Errorf("records = %v, want 7", decoded["records"])
	}
	if _, ok := decoded["failures"]; ok {
		t.Error("empty failures should be omitted")
	}
}
