package config

import (
	"time"

	"github.com/naeemkhedarun/csmetrics/internal/executor"
)

// AppConfig represents the csmetrics configuration file structure
type AppConfig struct {
	// DefaultContext is the kubeconfig context used when no cluster is selected
	DefaultContext string `yaml:"defaultContext,omitempty" json:"defaultContext,omitempty" mapstructure:"defaultContext"`

	// Clusters is a map of kubeconfig context names to their metadata
	Clusters map[string]ClusterConfig `yaml:"clusters,omitempty" json:"clusters,omitempty" mapstructure:"clusters"`

	// Defaults contains default settings for commands
	Defaults DefaultsConfig `yaml:"defaults,omitempty" json:"defaults,omitempty" mapstructure:"defaults"`

	// Engine tunes the collection engine
	Engine executor.Config `yaml:"engine,omitempty" json:"engine,omitempty" mapstructure:"engine"`

	// Export holds the default workload filters for the export command
	Export ExportConfig `yaml:"export,omitempty" json:"export,omitempty" mapstructure:"export"`
}

// ClusterConfig represents configuration for a single cluster
type ClusterConfig struct {
	// Context is the kubeconfig context name
	Context string `yaml:"context" json:"context" mapstructure:"context"`

	// Alias is a friendly name for the cluster, written to the cluster column of exports
	Alias string `yaml:"alias,omitempty" json:"alias,omitempty" mapstructure:"alias"`

	// Labels for selecting clusters with --cluster-label
	Labels map[string]string `yaml:"labels,omitempty" json:"labels,omitempty" mapstructure:"labels"`

	// Enabled indicates if this cluster takes part in exports by default
	Enabled bool `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
}

// DefaultsConfig contains default configuration values
type DefaultsConfig struct {
	// Timeout bounds each Kubernetes API request
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" mapstructure:"timeout"`

	// OutputFormat is the default output format (csv, table, json, yaml)
	OutputFormat string `yaml:"outputFormat,omitempty" json:"outputFormat,omitempty" mapstructure:"outputFormat"`

	// NoColor disables colored output
	NoColor bool `yaml:"noColor,omitempty" json:"noColor,omitempty" mapstructure:"noColor"`
}

// ExportConfig holds default workload filters
type ExportConfig struct {
	// Namespaces restricts enumeration; empty means all namespaces
	Namespaces []string `yaml:"namespaces,omitempty" json:"namespaces,omitempty" mapstructure:"namespaces"`

	// Kinds restricts enumeration to Deployment and/or StatefulSet; empty means both
	Kinds []string `yaml:"kinds,omitempty" json:"kinds,omitempty" mapstructure:"kinds"`

	// Selector is a label selector applied to workloads
	Selector string `yaml:"selector,omitempty" json:"selector,omitempty" mapstructure:"selector"`

	// IncludeCompleted keeps Succeeded and Failed pods in the export
	IncludeCompleted bool `yaml:"includeCompleted,omitempty" json:"includeCompleted,omitempty" mapstructure:"includeCompleted"`
}

// ClusterInfo represents information about a cluster from kubeconfig
type ClusterInfo struct {
	// Name is the cluster name from kubeconfig
	Name string `json:"name" yaml:"name"`

	// Context is the context name
	Context string `json:"context" yaml:"context"`

	// Server is the API server URL
	Server string `json:"server" yaml:"server"`

	// Namespace is the default namespace
	Namespace string `json:"namespace" yaml:"namespace"`

	// User is the user for authentication
	User string `json:"user" yaml:"user"`

	// Current indicates if this is the current context
	Current bool `json:"current" yaml:"current"`

	// Alias is a friendly name from the csmetrics config
	Alias string `json:"alias,omitempty" yaml:"alias,omitempty"`

	// Labels from the csmetrics config
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}
