package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/naeemkhedarun/csmetrics/internal/cluster"
	"github.com/naeemkhedarun/csmetrics/internal/config"
	"github.com/naeemkhedarun/csmetrics/internal/util"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// listOptions are the inputs of a cluster listing
type listOptions struct {
	kubeconfig   string
	configPath   string
	outputFormat string
	showLabels   bool
	check        bool
	noColor      bool
}

// clusterEntry is one row of the listing
type clusterEntry struct {
	config.ClusterInfo `yaml:",inline"`

	Healthy       *bool  `json:"healthy,omitempty" yaml:"healthy,omitempty"`
	ServerVersion string `json:"serverVersion,omitempty" yaml:"serverVersion,omitempty"`
	Error         string `json:"error,omitempty" yaml:"error,omitempty"`
}

// newListCmd creates the cluster list command
func newListCmd() *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the Kubernetes clusters csmetrics can export from",
		Long: `List all Kubernetes contexts from your kubeconfig file(s), merged with the
aliases and labels of your csmetrics configuration.

The alias is the name written to the cluster column of exports. With --check
each cluster is contacted and its health and server version are shown.`,
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.kubeconfig = viper.GetString("kubeconfig")
			opts.configPath = viper.GetString("config")
			opts.noColor = viper.GetBool("defaults.noColor")
			if opts.outputFormat == "" {
				opts.outputFormat = viper.GetString("defaults.outputFormat")
			}
			return runList(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.showLabels, "show-labels", false, "show cluster labels from csmetrics config")
	cmd.Flags().BoolVar(&opts.check, "check", false, "health check every cluster and show its server version")

	return cmd
}

func runList(ctx context.Context, w io.Writer, opts *listOptions) error {
	logger := slog.Default()

	logger.Debug("loading kubeconfig", "path", opts.kubeconfig)
	loader := config.NewKubeconfigLoader(opts.kubeconfig)
	logger.Debug("using kubeconfig paths", "paths", strings.Join(loader.Paths(), ", "))

	clusters, err := loader.Clusters()
	if err != nil {
		return fmt.Errorf("failed to load clusters: %w", err)
	}

	if len(clusters) == 0 {
		fmt.Fprintln(w, "No clusters found in kubeconfig")
		return nil
	}

	// Merge csmetrics configuration metadata
	configManager := config.NewManager(opts.configPath)
	if cfg, err := configManager.Load(); err == nil {
		logger.Debug("loaded csmetrics config", "clusters", len(cfg.Clusters))
		clusters = configManager.MergeClusterInfo(clusters)
	} else {
		logger.Debug("no csmetrics config loaded, using kubeconfig only", "error", err)
	}

	// Current context first, then by context name
	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].Current != clusters[j].Current {
			return clusters[i].Current
		}
		return clusters[i].Context < clusters[j].Context
	})

	entries := make([]clusterEntry, len(clusters))
	for i, c := range clusters {
		entries[i] = clusterEntry{ClusterInfo: c}
	}

	if opts.check {
		checkClusters(ctx, loader, configManager, entries, logger)
	}

	format := opts.outputFormat
	if format == "" || format == "csv" {
		format = "table"
	}

	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(entries)
	case "table":
		outputTable(w, entries, opts)
		return nil
	default:
		return fmt.Errorf("%w: %s (supported: table, json, yaml)", util.ErrUnsupportedFormat, format)
	}
}

// checkClusters connects to every context and records its health on entries
func checkClusters(ctx context.Context, loader *config.KubeconfigLoader, cfgMgr *config.Manager, entries []clusterEntry, logger *slog.Logger) {
	mgr := cluster.NewManager(loader, logger, cluster.WithAliases(cfgMgr.ClusterAlias))
	defer mgr.Close()

	contexts := make([]string, len(entries))
	for i, e := range entries {
		contexts[i] = e.Context
	}

	connectErrs := make(map[string]string)
	if err := mgr.Connect(ctx, contexts); err != nil {
		logger.Warn("some cluster connections failed", "error", err)
		var multi *util.MultiError
		if errors.As(err, &multi) {
			for _, e := range multi.Errors {
				var ce *util.ClusterError
				if errors.As(e, &ce) {
					connectErrs[ce.ClusterName] = ce.Err.Error()
				}
			}
		}
	}

	statuses, err := mgr.HealthCheck(ctx)
	if err != nil {
		logger.Warn("health checks incomplete", "error", err)
	}
	byContext := make(map[string]cluster.HealthStatus, len(statuses))
	for _, s := range statuses {
		byContext[s.Context] = s
	}

	for i := range entries {
		healthy := false
		if s, ok := byContext[entries[i].Context]; ok {
			healthy = s.Healthy
			entries[i].ServerVersion = s.ServerVersion
			if s.Error != nil {
				entries[i].Error = s.Error.Error()
			}
		} else if msg, ok := connectErrs[entries[i].Context]; ok {
			entries[i].Error = msg
		}
		entries[i].Healthy = &healthy
	}
}

func outputTable(w io.Writer, entries []clusterEntry, opts *listOptions) {
	table := tablewriter.NewWriter(w)

	headers := []string{"Current", "Context", "Cluster", "Server", "Namespace", "User"}
	if opts.showLabels {
		headers = append(headers, "Labels")
	}
	if opts.check {
		headers = append(headers, "Status", "Version")
	}
	table.SetHeader(headers)

	// kubectl-style table
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	var (
		greenBold = color.New(color.FgGreen, color.Bold)
		cyan      = color.New(color.FgCyan)
		yellow    = color.New(color.FgYellow)
		red       = color.New(color.FgRed)
	)
	paint := func(c *color.Color, s string) string {
		if opts.noColor || s == "" {
			return s
		}
		return c.Sprint(s)
	}

	for _, e := range entries {
		row := make([]string, 0, len(headers))

		current := ""
		if e.Current {
			current = "*"
		}
		row = append(row, current)

		contextStr := e.Context
		if e.Current {
			contextStr = paint(greenBold, contextStr)
		}
		row = append(row, contextStr)

		// Cluster name, with the export alias when it differs from the context
		clusterName := e.Name
		if e.Alias != "" && e.Alias != e.Context {
			clusterName = fmt.Sprintf("%s (%s)", clusterName, paint(cyan, e.Alias))
		}
		row = append(row, clusterName)

		row = append(row, util.Truncate(e.Server, 50))

		namespace := e.Namespace
		if namespace == "" {
			namespace = "default"
		}
		row = append(row, namespace)

		row = append(row, util.Truncate(e.User, 30))

		if opts.showLabels {
			row = append(row, paint(yellow, formatLabels(e.Labels)))
		}

		if opts.check {
			status, version := "Unknown", e.ServerVersion
			switch {
			case e.Healthy != nil && *e.Healthy:
				status = paint(greenBold, "Healthy")
			case e.Error != "":
				status = paint(red, "Unhealthy")
				version = util.Truncate(e.Error, 40)
			}
			row = append(row, status, version)
		}

		table.Append(row)
	}

	table.Render()

	fmt.Fprintf(w, "\nTotal clusters: %d\n", len(entries))
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}

	pairs := make([]string, 0, len(labels))
	for k, v := range labels {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}
