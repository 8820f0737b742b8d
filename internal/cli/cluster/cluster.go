package cluster

import (
	"github.com/spf13/cobra"
)

// NewClusterCmd creates the cluster command
func NewClusterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Inspect the Kubernetes clusters csmetrics exports from",
		Long: `Inspect the Kubernetes clusters available to csmetrics.

Clusters come from your kubeconfig contexts; aliases, labels and the
enabled flag come from the clusters section of the csmetrics config.`,
	}

	cmd.AddCommand(newListCmd())

	return cmd
}
