package output_test

import (
	"os"
	"time"

	"github.com/naeemkhedarun/csmetrics/internal/collect"
	"github.com/naeemkhedarun/csmetrics/internal/output"
)

func exampleRecords() []collect.Record {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []collect.Record{
		{
			Timestamp: ts, Cluster: "production", Namespace: "shop", Kind: "Deployment",
			Workload: "web", Instance: "web-5c8d-x2", Node: "node-a", Phase: "Running", Ready: true,
			Containers: 1, CPURequest: 250, MemoryRequest: 64 * 1024 * 1024,
			DesiredReplicas: 2, AvailableReplicas: 2, AgeSeconds: 600,
		},
	}
}

// Example_csvFormatter demonstrates the CSV layout of an export
func Example_csvFormatter() {
	formatter := output.NewFormatter(output.FormatCSV)
	formatter.FormatRecords(os.Stdout, exampleRecords())

	// Output:
	// timestamp,cluster,namespace,kind,workload,instance,node,phase,ready,restarts,containers,cpu_request_millis,cpu_limit_millis,memory_request_bytes,memory_limit_bytes,desired_replicas,available_replicas,age_seconds
	// 2026-03-01T12:00:00Z,production,shop,Deployment,web,web-5c8d-x2,node-a,Running,true,0,1,250,0,67108864,0,2,2,600
}

// Example_csvWriter demonstrates streaming rows as workloads finish
func Example_csvWriter() {
	w := output.NewCSVWriter(os.Stdout, true)
	for _, r := range exampleRecords() {
		w.Write(r)
	}
	w.Flush()

	// Output:
	// 2026-03-01T12:00:00Z,production,shop,Deployment,web,web-5c8d-x2,node-a,Running,true,0,1,250,0,67108864,0,2,2,600
}

// Example_tableFormatter demonstrates using the table formatter
func Example_tableFormatter() {
	formatter := output.NewFormatter(output.FormatTable, output.WithNoColor(true))
	formatter.FormatRecords(os.Stdout, exampleRecords())
}

// Example_wideMode demonstrates table output with limit and replica columns
func Example_wideMode() {
	formatter := output.NewFormatter(output.FormatTable, output.WithNoColor(true), output.WithWide(true))
	formatter.FormatRecords(os.Stdout, exampleRecords())
}

// Example_jsonFormatter demonstrates using the JSON formatter
func Example_jsonFormatter() {
	formatter := output.NewFormatter(output.FormatJSON)
	formatter.FormatRecords(os.Stdout, exampleRecords())
}

// Example_writeSummary demonstrates the end-of-run summary
func Example_writeSummary() {
	output.WriteSummary(os.Stdout, output.RunSummary{
		Clusters:  2,
		Workloads: 3,
		Collected: 2,
		Failed:    1,
		Records:   5,
		Elapsed:   1234 * time.Millisecond,
		Failures:  map[string]string{"prod/shop/Deployment/cart": "list pods: context deadline exceeded"},
	}, output.WithNoColor(true))

	// Output:
	// Summary: 3 workloads on 2 clusters, 2 collected, 1 failed, 5 records in 1.234s
	//   prod/shop/Deployment/cart: list pods: context deadline exceeded
}
