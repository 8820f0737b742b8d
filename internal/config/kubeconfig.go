package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/clientcmd/api"
)

// KubeconfigLoader loads and merges kubeconfig files.
// Load results are cached; the loader is safe for concurrent use.
type KubeconfigLoader struct {
	paths []string

	once   sync.Once
	loaded *api.Config
	err    error
}

// ClientOptions tunes the REST clients built from a kubeconfig context
type ClientOptions struct {
	// Timeout bounds each API request; zero leaves client-go's default
	Timeout time.Duration

	// QPS and Burst size the client-side rate limiter; zero leaves client-go's defaults.
	// Exports fan out one request per workload, so these scale with engine concurrency.
	QPS   float32
	Burst int

	// UserAgent replaces client-go's default user agent when set
	UserAgent string
}

// NewKubeconfigLoader creates a new kubeconfig loader.
// Sources are checked in order:
//  1. explicit path (--kubeconfig)
//  2. KUBECONFIG, which may hold several paths
//  3. ~/.kube/config
func NewKubeconfigLoader(explicitPath string) *KubeconfigLoader {
	loader := &KubeconfigLoader{}

	if explicitPath != "" {
		if expanded, err := expandPath(explicitPath); err == nil {
			loader.paths = append(loader.paths, expanded)
		}
		return loader
	}

	if env := os.Getenv("KUBECONFIG"); env != "" {
		for _, path := range filepath.SplitList(env) {
			path = strings.TrimSpace(path)
			if path == "" {
				continue
			}
			if expanded, err := expandPath(path); err == nil {
				loader.paths = append(loader.paths, expanded)
			}
		}
	}

	if len(loader.paths) == 0 {
		if home, err := os.UserHomeDir(); err == nil {
			loader.paths = append(loader.paths, filepath.Join(home, ".kube", "config"))
		}
	}

	return loader
}

// Load returns the merged kubeconfig from all sources
func (l *KubeconfigLoader) Load() (*api.Config, error) {
	l.once.Do(func() {
		if len(l.paths) == 0 {
			l.err = fmt.Errorf("no kubeconfig paths available")
			return
		}

		rules := &clientcmd.ClientConfigLoadingRules{Precedence: l.paths}
		cfg, err := rules.Load()
		switch {
		case err != nil:
			l.err = fmt.Errorf("failed to load kubeconfig: %w", err)
		case cfg == nil || len(cfg.Contexts) == 0:
			l.err = fmt.Errorf("kubeconfig has no contexts (searched %s)", strings.Join(l.paths, ", "))
		default:
			l.loaded = cfg
		}
	})

	return l.loaded, l.err
}

// Contexts returns all context names, sorted
func (l *KubeconfigLoader) Contexts() ([]string, error) {
	cfg, err := l.Load()
	if err != nil {
		return nil, err
	}

	contexts := make([]string, 0, len(cfg.Contexts))
	for name := range cfg.Contexts {
		contexts = append(contexts, name)
	}
	sort.Strings(contexts)

	return contexts, nil
}

// CurrentContext returns the current context name
func (l *KubeconfigLoader) CurrentContext() (string, error) {
	cfg, err := l.Load()
	if err != nil {
		return "", err
	}
	return cfg.CurrentContext, nil
}

// Clusters describes every context, current context first and the rest by name
func (l *KubeconfigLoader) Clusters() ([]ClusterInfo, error) {
	cfg, err := l.Load()
	if err != nil {
		return nil, err
	}

	clusters := make([]ClusterInfo, 0, len(cfg.Contexts))
	for name, kctx := range cfg.Contexts {
		if kctx == nil {
			continue
		}
		cluster := cfg.Clusters[kctx.Cluster]
		if cluster == nil {
			continue
		}

		info := ClusterInfo{
			Name:      kctx.Cluster,
			Context:   name,
			Server:    cluster.Server,
			Namespace: kctx.Namespace,
			User:      kctx.AuthInfo,
			Current:   name == cfg.CurrentContext,
		}
		if info.Namespace == "" {
			info.Namespace = "default"
		}
		clusters = append(clusters, info)
	}

	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].Current != clusters[j].Current {
			return clusters[i].Current
		}
		return clusters[i].Context < clusters[j].Context
	})

	return clusters, nil
}

// BuildClientConfig creates a rest.Config for a specific context
func (l *KubeconfigLoader) BuildClientConfig(contextName string, opts ClientOptions) (*rest.Config, error) {
	if len(l.paths) == 0 {
		return nil, fmt.Errorf("no kubeconfig paths available")
	}

	rules := &clientcmd.ClientConfigLoadingRules{Precedence: l.paths}
	overrides := &clientcmd.ConfigOverrides{CurrentContext: contextName}

	restConfig, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create client config for context %q: %w", contextName, err)
	}

	if opts.Timeout > 0 {
		restConfig.Timeout = opts.Timeout
	}
	if opts.QPS > 0 {
		restConfig.QPS = opts.QPS
	}
	if opts.Burst > 0 {
		restConfig.Burst = opts.Burst
	}
	if opts.UserAgent != "" {
		restConfig.UserAgent = opts.UserAgent
	}

	return restConfig, nil
}

// Paths returns the kubeconfig paths being used
func (l *KubeconfigLoader) Paths() []string {
	return l.paths
}

// expandPath expands environment variables and a leading ~
func expandPath(path string) (string, error) {
	path = os.ExpandEnv(path)

	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}

	return filepath.Clean(path), nil
}
