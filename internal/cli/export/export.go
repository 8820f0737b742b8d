// Package export implements the export command: workload enumeration,
// parallel per-pod collection and record output.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/naeemkhedarun/csmetrics/internal/cluster"
	"github.com/naeemkhedarun/csmetrics/internal/collect"
	"github.com/naeemkhedarun/csmetrics/internal/config"
	"github.com/naeemkhedarun/csmetrics/internal/executor"
	"github.com/naeemkhedarun/csmetrics/internal/inventory"
	"github.com/naeemkhedarun/csmetrics/internal/output"
	"github.com/naeemkhedarun/csmetrics/internal/util"
	"github.com/naeemkhedarun/csmetrics/pkg/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flags holds the values that are not read back through viper
type flags struct {
	file             string
	allNamespaces    bool
	noHeaders        bool
	wide             bool
	verifyClusters   bool
	metricsFile      string
	progress         bool
	progressInterval time.Duration
	workloadTimeout  time.Duration
	qps              float32
	burst            int
}

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export per-pod metrics of Deployments and StatefulSets",
		Long: `Export one row per pod for every Deployment and StatefulSet on the
selected clusters.

Workloads are enumerated first, then collected in parallel on a bounded
worker pool. Rows are written as each workload finishes. If no workload
finishes within --max-idle while others are still running, the export stops
and reports the workloads it was waiting on.`,
		Example: `  # Export every workload on every configured cluster as CSV
  csmetrics export -f workloads.csv

  # Deployments in two namespaces, streamed to stdout
  csmetrics export --kind deployment -n payments,checkout

  # Table with node, limit and replica columns
  csmetrics export -o table --wide

  # Label-selected workloads on production clusters, as JSON
  csmetrics export -l tier=web --cluster-label env=prod -o json

  # Tune the engine and keep its metrics for node_exporter
  csmetrics export --max-concurrency 50 --max-idle 5m --metrics-file /var/lib/node_exporter/csmetrics.prom`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), f, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&f.file, "file", "f", "-", "write records to this file (- for stdout)")
	cmd.Flags().StringSliceP("namespace", "n", nil, "namespaces to export (comma-separated, empty means all)")
	cmd.Flags().BoolVarP(&f.allNamespaces, "all-namespaces", "A", false, "export all namespaces, ignoring configured namespaces")
	cmd.Flags().StringP("selector", "l", "", "label selector applied to workloads")
	cmd.Flags().StringSlice("kind", nil, "workload kinds to export (deployment, statefulset)")
	cmd.Flags().Bool("include-completed", false, "include Succeeded and Failed pods")
	cmd.Flags().BoolVar(&f.noHeaders, "no-headers", false, "omit the CSV or table header")
	cmd.Flags().BoolVar(&f.wide, "wide", false, "add node, limit and replica columns to table output")

	cmd.Flags().Int("max-concurrency", executor.DefaultMaxConcurrency, "workloads collected at once")
	cmd.Flags().Duration("poll-interval", executor.DefaultPollInterval, "engine poll interval")
	cmd.Flags().Duration("max-idle", executor.DefaultMaxIdleTime, "abort when no workload finishes for this long")
	cmd.Flags().Bool("fail-fast", false, "stop at the first workload that fails")
	cmd.Flags().DurationVar(&f.workloadTimeout, "workload-timeout", 0, "bound the collection of a single workload (0 means no bound)")
	cmd.Flags().BoolVar(&f.verifyClusters, "verify-clusters", false, "health check clusters before exporting")
	cmd.Flags().Float32Var(&f.qps, "qps", 50, "client-side request rate limit per cluster")
	cmd.Flags().IntVar(&f.burst, "burst", 100, "client-side request burst per cluster")

	cmd.Flags().BoolVar(&f.progress, "progress", false, "log collection progress")
	cmd.Flags().DurationVar(&f.progressInterval, "progress-interval", 5*time.Second, "minimum time between progress logs")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "write engine metrics in Prometheus text format to this file")

	viper.BindPFlag("export.namespaces", cmd.Flags().Lookup("namespace"))
	viper.BindPFlag("export.selector", cmd.Flags().Lookup("selector"))
	viper.BindPFlag("export.kinds", cmd.Flags().Lookup("kind"))
	viper.BindPFlag("export.includeCompleted", cmd.Flags().Lookup("include-completed"))
	viper.BindPFlag("engine.maxConcurrency", cmd.Flags().Lookup("max-concurrency"))
	viper.BindPFlag("engine.pollInterval", cmd.Flags().Lookup("poll-interval"))
	viper.BindPFlag("engine.maxIdleTime", cmd.Flags().Lookup("max-idle"))
	viper.BindPFlag("engine.failFast", cmd.Flags().Lookup("fail-fast"))

	return cmd
}

func runExport(ctx context.Context, f *flags, stdout, stderr io.Writer) error {
	logger := slog.Default()

	cfgMgr := config.NewManager(viper.GetString("config"), config.WithViper(viper.GetViper()))
	cfg, err := cfgMgr.Load()
	if err != nil {
		return err
	}
	if used := cfgMgr.ConfigFileUsed(); used != "" {
		logger.Debug("loaded configuration", "file", used)
	}

	opts, err := buildOptions(cfg, f)
	if err != nil {
		return err
	}

	contexts, err := selectContexts(cfgMgr, cfg, viper.GetStringSlice("clusters"), viper.GetString("clusterLabel"))
	if err != nil {
		return err
	}

	loader := config.NewKubeconfigLoader(viper.GetString("kubeconfig"))
	mgr := cluster.NewManager(loader, logger,
		cluster.WithAliases(cfgMgr.ClusterAlias),
		cluster.WithClientOptions(config.ClientOptions{
			Timeout:   cfg.Defaults.Timeout,
			QPS:       f.qps,
			Burst:     f.burst,
			UserAgent: version.UserAgent(),
		}),
		cluster.WithVerify(f.verifyClusters))
	defer mgr.Close()

	if len(contexts) == 0 {
		err = mgr.ConnectAll(ctx)
	} else {
		err = mgr.Connect(ctx, contexts)
	}
	if err != nil {
		// Continue with partial connections
		logger.Warn("some cluster connections failed", "error", err)
	}
	if mgr.Count() == 0 {
		if err != nil {
			return fmt.Errorf("%w: no clusters connected: %w", util.ErrConnectionFailed, err)
		}
		return fmt.Errorf("%w: no clusters connected", util.ErrConnectionFailed)
	}
	logger.Info("connected to clusters", "count", mgr.Count(), "clusters", mgr.Names())

	var registry *prometheus.Registry
	if f.metricsFile != "" {
		registry = prometheus.NewRegistry()
		opts.Metrics, err = executor.NewMetrics(registry)
		if err != nil {
			return err
		}
	}

	out, closeOut, err := openOutput(f.file, stdout)
	if err != nil {
		return err
	}

	summary, runErr := Run(ctx, mgr.Clients(), opts, out, logger)

	if err := closeOut(); err != nil && runErr == nil {
		runErr = err
	}

	output.WriteSummary(stderr, summary, output.WithNoColor(cfg.Defaults.NoColor))

	if registry != nil {
		if err := prometheus.WriteToTextfile(f.metricsFile, registry); err != nil {
			logger.Error("failed to write metrics file", "path", f.metricsFile, "error", err)
		} else {
			logger.Debug("wrote metrics file", "path", f.metricsFile)
		}
	}

	return runErr
}

// buildOptions turns the loaded configuration and flags into run options
func buildOptions(cfg *config.AppConfig, f *flags) (Options, error) {
	format, err := output.ParseFormat(cfg.Defaults.OutputFormat)
	if err != nil {
		return Options{}, err
	}

	kinds, err := inventory.ParseKinds(cfg.Export.Kinds)
	if err != nil {
		return Options{}, err
	}

	namespaces := cfg.Export.Namespaces
	if f.allNamespaces {
		namespaces = nil
	}

	opts := Options{
		Filter: inventory.Filter{
			Namespaces: namespaces,
			Kinds:      kinds,
			Selector:   cfg.Export.Selector,
		},
		Engine: cfg.Engine,
		Collect: collect.Settings{
			IncludeCompleted: cfg.Export.IncludeCompleted,
			RequestTimeout:   f.workloadTimeout,
		},
		Format:    format,
		NoColor:   cfg.Defaults.NoColor,
		NoHeaders: f.noHeaders,
		Wide:      f.wide,
	}
	if f.progress {
		opts.ProgressInterval = f.progressInterval
	}
	return opts, nil
}

// selectContexts picks the kubeconfig contexts to export from, in order of
// precedence: explicit contexts, label selection, enabled configured
// clusters, the configured default context. Nil means every context.
func selectContexts(cfgMgr *config.Manager, cfg *config.AppConfig, explicit []string, labelSelector string) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}

	if labelSelector != "" {
		labels, err := config.ParseLabels(labelSelector)
		if err != nil {
			return nil, err
		}
		contexts := cfgMgr.GetClustersByLabel(labels)
		if len(contexts) == 0 {
			return nil, fmt.Errorf("%w: no enabled cluster has labels %q", util.ErrClusterNotFound, labelSelector)
		}
		return contexts, nil
	}

	if enabled := cfgMgr.GetEnabledClusters(); len(enabled) > 0 {
		return enabled, nil
	}
	if cfg.DefaultContext != "" {
		return []string{cfg.DefaultContext}, nil
	}
	return nil, nil
}

// openOutput returns the record destination; "-" and "" mean stdout
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, file.Close, nil
}
