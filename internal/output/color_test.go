package output

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

const ansiEscape = "\x1b["

func TestNewColorScheme(t *testing.T) {
	tests := []struct {
		name    string
		noColor bool
	}{
		{name: "colors disabled with noColor flag", noColor: true},
		{name: "colors disabled for non-TTY", noColor: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := NewColorScheme(&bytes.Buffer{}, tt.noColor)
			if !cs.Disabled {
				t.Error("expected colors to be disabled")
			}
		})
	}
}

func TestColorScheme_DisabledReturnsPlainText(t *testing.T) {
	cs := NewColorScheme(&bytes.Buffer{}, true)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"cluster", cs.Cluster("prod-eu"), "prod-eu"},
		{"header", cs.Header("CLUSTER"), "CLUSTER"},
		{"ready", cs.Ready(true), "true"},
		{"not ready", cs.Ready(false), "false"},
		{"phase", cs.Phase("Running"), "Running"},
		{"restarts", cs.Restarts(4), "4"},
		{"collected", cs.Collected("3 collected"), "3 collected"},
		{"failed", cs.Failed("1 failed", 1), "1 failed"},
		{"failure", cs.Failure("prod/payments/Deployment/api"), "prod/payments/Deployment/api"},
		{"elapsed", cs.Elapsed(1234567 * time.Microsecond), "1.235s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestColorScheme_EnabledRoles(t *testing.T) {
	cs := newColorScheme(true)

	tests := []struct {
		name    string
		got     string
		text    string
		painted bool
	}{
		{"ready", cs.Ready(true), "true", true},
		{"not ready", cs.Ready(false), "false", true},
		{"running", cs.Phase("Running"), "Running", true},
		{"failed phase", cs.Phase("Failed"), "Failed", true},
		{"no restarts stay plain", cs.Restarts(0), "0", false},
		{"restarts", cs.Restarts(2), "2", true},
		{"no failures stay plain", cs.Failed("0 failed", 0), "0 failed", false},
		{"failures", cs.Failed("2 failed", 2), "2 failed", true},
		{"empty cell stays empty", cs.Cluster(""), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.got, tt.text) {
				t.Errorf("got %q, want it to contain %q", tt.got, tt.text)
			}
			if painted := strings.Contains(tt.got, ansiEscape); painted != tt.painted {
				t.Errorf("painted = %v, want %v (%q)", painted, tt.painted, tt.got)
			}
		})
	}

	if cs.Ready(true) == cs.Ready(false) {
		t.Error("ready and not-ready must render differently")
	}
}

func TestColorScheme_TableAndSummaryStayPlainWhenDisabled(t *testing.T) {
	records := sampleRecords()

	var table bytes.Buffer
	if err := NewTableFormatter(&Options{NoColor: true}).FormatRecords(&table, records); err != nil {
		t.Fatalf("FormatRecords() error: %v", err)
	}

	var summary bytes.Buffer
	WriteSummary(&summary, RunSummary{
		Workloads: 2, Clusters: 1, Collected: 1, Failed: 1, Records: 2,
		Failures: map[string]string{"prod/payments/Deployment/api": "forbidden"},
	}, WithNoColor(true))

	for name, out := range map[string]string{"table": table.String(), "summary": summary.String()} {
		if strings.Contains(out, ansiEscape) {
			t.Errorf("%s contains color codes:\n%q", name, out)
		}
	}
}

func TestIsTTY(t *testing.T) {
	if isTTY(&bytes.Buffer{}) {
		t.Error("bytes.Buffer should not be a TTY")
	}

	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if isTTY(f) {
		t.Error("a regular file should not be a TTY")
	}
}
