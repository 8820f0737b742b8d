package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/naeemkhedarun/csmetrics/internal/util"
	"github.com/spf13/viper"
	"github.com/ygrebnov/errorc"
)

const (
	defaultConfigName = ".csmetrics"
	defaultConfigDir  = ".csmetrics"

	// EnvPrefix is the prefix of environment variables read into the configuration
	EnvPrefix = "CSMETRICS"

	// DefaultTimeout bounds each Kubernetes API request
	DefaultTimeout = 30 * time.Second

	// DefaultOutputFormat is the export format used when none is configured
	DefaultOutputFormat = "csv"
)

// OutputFormats lists the accepted values of defaults.outputFormat
var OutputFormats = []string{"csv", "table", "json", "yaml"}

// ErrInvalidConfig is returned when the loaded configuration fails validation
var ErrInvalidConfig = errors.New("invalid csmetrics configuration")

// Manager loads the csmetrics configuration
type Manager struct {
	configPath string
	config     *AppConfig
	viper      *viper.Viper
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithViper makes the manager read from v, so flags bound on v take precedence
func WithViper(v *viper.Viper) ManagerOption {
	return func(m *Manager) {
		if v != nil {
			m.viper = v
		}
	}
}

// NewManager creates a new configuration manager
func NewManager(configPath string, opts ...ManagerOption) *Manager {
	m := &Manager{
		configPath: configPath,
		viper:      viper.New(),
		config:     &AppConfig{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load reads the configuration file (if any), environment and bound flags.
// A missing file is not an error; defaults apply.
func (m *Manager) Load() (*AppConfig, error) {
	if m.configPath != "" {
		m.viper.SetConfigFile(m.configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		// ~/.csmetrics/.csmetrics.yaml, then ~/.csmetrics.yaml
		m.viper.AddConfigPath(filepath.Join(home, defaultConfigDir))
		m.viper.AddConfigPath(home)
		m.viper.SetConfigName(defaultConfigName)
		m.viper.SetConfigType("yaml")
	}

	m.viper.SetEnvPrefix(EnvPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()

	m.config = &AppConfig{}

	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := m.viper.Unmarshal(m.config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	m.applyDefaults()

	if err := m.config.Validate(); err != nil {
		return nil, err
	}

	return m.config, nil
}

// ConfigFileUsed returns the path of the file that was read, if any
func (m *Manager) ConfigFileUsed() string {
	return m.viper.ConfigFileUsed()
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *AppConfig {
	return m.config
}

// Validate reports the first invalid setting
func (c *AppConfig) Validate() error {
	if c.Defaults.Timeout < 0 {
		return errorc.With(ErrInvalidConfig,
			errorc.String("", fmt.Sprintf("defaults.timeout must be >= 0, got %s", c.Defaults.Timeout)))
	}
	if !slices.Contains(OutputFormats, c.Defaults.OutputFormat) {
		return errorc.With(ErrInvalidConfig,
			errorc.String("", fmt.Sprintf("defaults.outputFormat %q is not one of %s",
				c.Defaults.OutputFormat, strings.Join(OutputFormats, ", "))))
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}

// ClusterAlias returns the configured alias for a context, or its short cluster name
func (m *Manager) ClusterAlias(context string) string {
	if cfg, ok := m.lookup(context); ok && cfg.Alias != "" {
		return cfg.Alias
	}
	return util.ShortClusterName(context)
}

// lookup finds the cluster entry for a kubeconfig context
func (m *Manager) lookup(context string) (ClusterConfig, bool) {
	if cfg, ok := m.config.Clusters[context]; ok {
		return cfg, true
	}
	for name, cfg := range m.config.Clusters {
		if contextOf(name, cfg) == context {
			return cfg, true
		}
	}
	return ClusterConfig{}, false
}

// GetEnabledClusters returns the sorted kubeconfig contexts of enabled clusters
func (m *Manager) GetEnabledClusters() []string {
	return m.GetClustersByLabel(nil)
}

// GetClustersByLabel returns the sorted contexts of enabled clusters carrying all labels
func (m *Manager) GetClustersByLabel(labels map[string]string) []string {
	matching := make([]string, 0, len(m.config.Clusters))
	for name, cluster := range m.config.Clusters {
		if !cluster.Enabled || !matchesLabels(cluster.Labels, labels) {
			continue
		}
		matching = append(matching, contextOf(name, cluster))
	}

	sort.Strings(matching)
	return matching
}

// MergeClusterInfo merges config metadata into cluster info from kubeconfig
func (m *Manager) MergeClusterInfo(clusters []ClusterInfo) []ClusterInfo {
	for i := range clusters {
		if cfg, ok := m.lookup(clusters[i].Context); ok {
			clusters[i].Alias = cfg.Alias
			clusters[i].Labels = cfg.Labels
		}
	}
	return clusters
}

// applyDefaults fills unset values
func (m *Manager) applyDefaults() {
	if m.config.Defaults.Timeout == 0 {
		m.config.Defaults.Timeout = DefaultTimeout
	}
	m.config.Defaults.OutputFormat = strings.ToLower(strings.TrimSpace(m.config.Defaults.OutputFormat))
	if m.config.Defaults.OutputFormat == "" {
		m.config.Defaults.OutputFormat = DefaultOutputFormat
	}
	m.config.Engine = m.config.Engine.WithDefaults()

	for name, cluster := range m.config.Clusters {
		cluster.Context = contextOf(name, cluster)
		if cluster.Alias == "" {
			cluster.Alias = name
		}
		m.config.Clusters[name] = cluster
	}
}

// contextOf returns the kubeconfig context a cluster entry refers to
func contextOf(name string, cluster ClusterConfig) string {
	if cluster.Context != "" {
		return cluster.Context
	}
	return name
}

// matchesLabels checks if cluster labels carry every required label
func matchesLabels(clusterLabels, requiredLabels map[string]string) bool {
	for key, value := range requiredLabels {
		if clusterLabels[key] != value {
			return false
		}
	}
	return true
}

// ParseLabels parses "k=v,k2=v2" into a map
func ParseLabels(s string) (map[string]string, error) {
	labels := make(map[string]string)
	if strings.TrimSpace(s) == "" {
		return labels, nil
	}

	for _, pair := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || key == "" {
			return nil, errorc.With(ErrInvalidConfig,
				errorc.String("", fmt.Sprintf("label %q must have the form key=value", pair)))
		}
		labels[key] = value
	}
	return labels, nil
}
