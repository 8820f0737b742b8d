package cli

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/naeemkhedarun/csmetrics/internal/cli/cluster"
	"github.com/naeemkhedarun/csmetrics/internal/cli/export"
	"github.com/naeemkhedarun/csmetrics/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Execute runs the root command with the provided context
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "csmetrics",
		Short: "csmetrics - export per-pod workload metrics from Kubernetes clusters",
		Long: `csmetrics enumerates the Deployments and StatefulSets of one or more
Kubernetes clusters, collects per-pod status and resource figures for each
workload in parallel, and exports one row per pod as CSV, JSON, YAML or a table.

Collection runs on a bounded worker pool guarded by an idle watchdog: if no
workload finishes within --max-idle the export aborts instead of hanging.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd)
			return nil
		},
	}

	// Define persistent flags
	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.csmetrics.yaml)")
	rootCmd.PersistentFlags().String("kubeconfig", "", "path to kubeconfig file (default is $HOME/.kube/config)")
	rootCmd.PersistentFlags().StringSlice("clusters", []string{}, "target kubeconfig contexts (comma-separated, empty means configured or all)")
	rootCmd.PersistentFlags().String("cluster-label", "", "select configured clusters by label (k=v,k2=v2)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format (csv, json, yaml, table)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output with debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().Duration("timeout", config.DefaultTimeout, "timeout for each Kubernetes API request")

	// Bind flags to viper; config keys take the dotted form used in the config file
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("kubeconfig", rootCmd.PersistentFlags().Lookup("kubeconfig"))
	viper.BindPFlag("clusters", rootCmd.PersistentFlags().Lookup("clusters"))
	viper.BindPFlag("clusterLabel", rootCmd.PersistentFlags().Lookup("cluster-label"))
	viper.BindPFlag("defaults.outputFormat", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("defaults.noColor", rootCmd.PersistentFlags().Lookup("no-color"))
	viper.BindPFlag("defaults.timeout", rootCmd.PersistentFlags().Lookup("timeout"))

	// Add subcommands
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(cluster.NewClusterCmd())
	rootCmd.AddCommand(export.NewExportCmd())

	return rootCmd
}

// setupLogging configures structured logging with slog
func setupLogging(cmd *cobra.Command) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	noColor, _ := cmd.Flags().GetBool("no-color")

	// Set log level based on verbose flag
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if noColor {
		// Use JSON handler for no-color mode
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))

	if verbose {
		slog.Debug("verbose logging enabled", "started", time.Now().Format(time.RFC3339))
	}
}
