// Package collect turns one workload into per-instance metric records.
package collect

import (
	"strconv"
	"time"
)

// Record is one row of an export: a single pod of a workload at collection time
type Record struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Cluster   string    `json:"cluster" yaml:"cluster"`
	Namespace string    `json:"namespace" yaml:"namespace"`
	Kind      string    `json:"kind" yaml:"kind"`
	Workload  string    `json:"workload" yaml:"workload"`
	Instance  string    `json:"instance" yaml:"instance"`
	Node      string    `json:"node" yaml:"node"`
	Phase     string    `json:"phase" yaml:"phase"`
	Ready     bool      `json:"ready" yaml:"ready"`
	Restarts  int32     `json:"restarts" yaml:"restarts"`

	// Containers counts regular containers, not init containers
	Containers int `json:"containers" yaml:"containers"`

	// CPU in millicores, memory in bytes, summed over containers
	CPURequest    int64 `json:"cpuRequestMillis" yaml:"cpuRequestMillis"`
	CPULimit      int64 `json:"cpuLimitMillis" yaml:"cpuLimitMillis"`
	MemoryRequest int64 `json:"memoryRequestBytes" yaml:"memoryRequestBytes"`
	MemoryLimit   int64 `json:"memoryLimitBytes" yaml:"memoryLimitBytes"`

	DesiredReplicas   int32 `json:"desiredReplicas" yaml:"desiredReplicas"`
	AvailableReplicas int32 `json:"availableReplicas" yaml:"availableReplicas"`

	AgeSeconds int64 `json:"ageSeconds" yaml:"ageSeconds"`
}

// columns is the CSV header, in Values order
var columns = []string{
	"timestamp",
	"cluster",
	"namespace",
	"kind",
	"workload",
	"instance",
	"node",
	"phase",
	"ready",
	"restarts",
	"containers",
	"cpu_request_millis",
	"cpu_limit_millis",
	"memory_request_bytes",
	"memory_limit_bytes",
	"desired_replicas",
	"available_replicas",
	"age_seconds",
}

// Columns returns the CSV header
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// Values returns the record's fields rendered for CSV, in Columns order
func (r Record) Values() []string {
	return []string{
		r.Timestamp.UTC().Format(time.RFC3339),
		r.Cluster,
		r.Namespace,
		r.Kind,
		r.Workload,
		r.Instance,
		r.Node,
		r.Phase,
		strconv.FormatBool(r.Ready),
		strconv.FormatInt(int64(r.Restarts), 10),
		strconv.Itoa(r.Containers),
		strconv.FormatInt(r.CPURequest, 10),
		strconv.FormatInt(r.CPULimit, 10),
		strconv.FormatInt(r.MemoryRequest, 10),
		strconv.FormatInt(r.MemoryLimit, 10),
		strconv.FormatInt(int64(r.DesiredReplicas), 10),
		strconv.FormatInt(int64(r.AvailableReplicas), 10),
		strconv.FormatInt(r.AgeSeconds, 10),
	}
}
