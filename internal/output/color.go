package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	corev1 "k8s.io/api/core/v1"
)

// ColorScheme paints the parts of record tables and run summaries.
// A disabled scheme returns every value unchanged.
type ColorScheme struct {
	// Disabled indicates if colors are disabled
	Disabled bool

	cluster  *color.Color
	header   *color.Color
	healthy  *color.Color
	waiting  *color.Color
	broken   *color.Color
	finished *color.Color
	elapsed  *color.Color
}

// NewColorScheme creates a color scheme for w.
// Colors are disabled for non-TTY outputs or when noColor is true.
func NewColorScheme(w io.Writer, noColor bool) *ColorScheme {
	return newColorScheme(!noColor && isTTY(w))
}

func newColorScheme(enabled bool) *ColorScheme {
	if !enabled {
		return &ColorScheme{Disabled: true}
	}

	cs := &ColorScheme{
		cluster:  color.New(color.FgCyan, color.Bold),
		header:   color.New(color.FgWhite, color.Bold),
		healthy:  color.New(color.FgGreen),
		waiting:  color.New(color.FgYellow),
		broken:   color.New(color.FgRed, color.Bold),
		finished: color.New(color.Faint),
		elapsed:  color.New(color.FgBlue),
	}
	// TTY detection already happened; don't let the package-level NoColor undo it
	for _, c := range []*color.Color{cs.cluster, cs.header, cs.healthy, cs.waiting, cs.broken, cs.finished, cs.elapsed} {
		c.EnableColor()
	}
	return cs
}

// isTTY checks if the writer is a TTY
func isTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

func (cs *ColorScheme) paint(c *color.Color, s string) string {
	if cs.Disabled || c == nil || s == "" {
		return s
	}
	return c.Sprint(s)
}

// Cluster paints a cluster name
func (cs *ColorScheme) Cluster(name string) string {
	return cs.paint(cs.cluster, name)
}

// Header paints a table header cell
func (cs *ColorScheme) Header(h string) string {
	return cs.paint(cs.header, h)
}

// Ready renders a pod's ready condition, green when ready and red when not
func (cs *ColorScheme) Ready(ready bool) string {
	if ready {
		return cs.paint(cs.healthy, "true")
	}
	return cs.paint(cs.broken, "false")
}

// Phase paints a pod phase by how healthy it is
func (cs *ColorScheme) Phase(phase string) string {
	switch corev1.PodPhase(phase) {
	case corev1.PodRunning:
		return cs.paint(cs.healthy, phase)
	case corev1.PodPending:
		return cs.paint(cs.waiting, phase)
	case corev1.PodFailed:
		return cs.paint(cs.broken, phase)
	case corev1.PodSucceeded:
		return cs.paint(cs.finished, phase)
	}
	return cs.paint(cs.waiting, phase)
}

// Restarts renders a restart count, yellow once a container has restarted
func (cs *ColorScheme) Restarts(n int32) string {
	s := fmt.Sprintf("%d", n)
	if n == 0 {
		return s
	}
	return cs.paint(cs.waiting, s)
}

// Collected paints the count of collected workloads
func (cs *ColorScheme) Collected(s string) string {
	return cs.paint(cs.healthy, s)
}

// Failed paints s red when any workload failed
func (cs *ColorScheme) Failed(s string, failed int) string {
	if failed == 0 {
		return s
	}
	return cs.paint(cs.broken, s)
}

// Failure paints the name of a workload that could not be collected
func (cs *ColorScheme) Failure(workload string) string {
	return cs.paint(cs.waiting, workload)
}

// Elapsed renders a run duration rounded to milliseconds
func (cs *ColorScheme) Elapsed(d time.Duration) string {
	return cs.paint(cs.elapsed, d.Round(time.Millisecond).String())
}
