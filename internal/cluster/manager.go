package cluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/naeemkhedarun/csmetrics/internal/config"
	"github.com/naeemkhedarun/csmetrics/internal/executor"
	"github.com/naeemkhedarun/csmetrics/internal/util"
	"k8s.io/client-go/kubernetes"
)

const (
	// maxParallelConnects bounds concurrent connection attempts
	maxParallelConnects = 10

	// connectIdleTime is how long a connect fan-out may go without any cluster answering
	connectIdleTime = 45 * time.Second
)

// Manager manages connections to multiple Kubernetes clusters
type Manager struct {
	mu      sync.RWMutex
	clients map[string]*Client
	closed  bool

	loader *config.KubeconfigLoader
	logger *slog.Logger

	clientOpts config.ClientOptions
	verify     bool
	alias      func(context string) string
}

// Option configures a Manager
type Option func(*Manager)

// WithClientOptions sets timeout and rate limits for every client built
func WithClientOptions(opts config.ClientOptions) Option {
	return func(m *Manager) {
		m.clientOpts = opts
	}
}

// WithVerify makes Connect health check each cluster before accepting it
func WithVerify(verify bool) Option {
	return func(m *Manager) {
		m.verify = verify
	}
}

// WithAliases names clients with alias(context) instead of the context
func WithAliases(alias func(context string) string) Option {
	return func(m *Manager) {
		if alias != nil {
			m.alias = alias
		}
	}
}

// NewManager creates a new cluster manager
func NewManager(loader *config.KubeconfigLoader, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		clients: make(map[string]*Client),
		loader:  loader,
		logger:  logger,
		alias:   func(context string) string { return context },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect establishes connections to the given kubeconfig contexts concurrently.
// Clusters that connect are kept even when others fail; the failures are
// returned as a *util.MultiError of *util.ClusterError.
func (m *Manager) Connect(ctx context.Context, contexts []string) error {
	if len(contexts) == 0 {
		return fmt.Errorf("no cluster contexts provided")
	}

	m.logger.Info("connecting to clusters", "count", len(contexts))

	report, runErr := fanOut(ctx, m.logger, contexts, func(ctx context.Context, contextName string) ([]*Client, error) {
		client, err := m.connect(ctx, contextName)
		if err != nil {
			return nil, err
		}
		return []*Client{client}, nil
	})

	failures := &util.MultiError{}
	for _, outcome := range report.Outcomes {
		if outcome.Err != nil {
			m.logger.Warn("failed to connect to cluster", "context", outcome.Item, "error", itemCause(outcome.Err))
			failures.Add(util.WrapClusterError(outcome.Item,
				fmt.Errorf("%w: %w", util.ErrConnectionFailed, itemCause(outcome.Err))))
			continue
		}
		for _, client := range outcome.Records {
			if err := m.Add(client); err != nil {
				failures.Add(util.WrapClusterError(outcome.Item, err))
			}
		}
	}
	if runErr != nil {
		return fmt.Errorf("connect to clusters: %w", runErr)
	}

	if failures.Len() > 0 {
		m.logger.Warn("some cluster connections failed",
			"total", len(contexts),
			"failed", failures.Len(),
			"succeeded", len(contexts)-failures.Len())
		return failures
	}

	m.logger.Info("connected to all clusters", "count", len(contexts))
	return nil
}

// ConnectAll connects to every context in the kubeconfig
func (m *Manager) ConnectAll(ctx context.Context) error {
	contexts, err := m.loader.Contexts()
	if err != nil {
		return fmt.Errorf("failed to get contexts: %w", err)
	}

	m.logger.Debug("discovered contexts", "count", len(contexts))
	return m.Connect(ctx, contexts)
}

// connect builds and optionally verifies one client
func (m *Manager) connect(ctx context.Context, contextName string) (*Client, error) {
	if m.loader == nil {
		return nil, fmt.Errorf("no kubeconfig loader configured")
	}

	restConfig, err := m.loader.BuildClientConfig(contextName, m.clientOpts)
	if err != nil {
		return nil, err
	}

	client, err := NewClient(m.alias(contextName), contextName, restConfig, m.logger)
	if err != nil {
		return nil, err
	}

	if m.verify {
		if err := client.HealthCheck(ctx); err != nil {
			return nil, err
		}
	}

	m.logger.Debug("connected to cluster", "cluster", client.Name, "server", restConfig.Host)
	return client, nil
}

// Add registers an already built client under its name
func (m *Manager) Add(client *Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("manager is closed")
	}
	if _, exists := m.clients[client.Name]; exists {
		return fmt.Errorf("cluster %q already connected", client.Name)
	}
	m.clients[client.Name] = client
	return nil
}

// GetClient returns the client for a specific cluster
func (m *Manager) GetClient(name string) (*Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("manager is closed")
	}

	client, ok := m.clients[name]
	if !ok {
		return nil, util.WrapClusterError(name, util.ErrClusterNotFound)
	}
	return client, nil
}

// Clients returns all connected clients sorted by name
func (m *Manager) Clients() []*Client {
	m.mu.RLock()
	clients := make([]*Client, 0, len(m.clients))
	for _, client := range m.clients {
		clients = append(clients, client)
	}
	m.mu.RUnlock()

	sort.Slice(clients, func(i, j int) bool { return clients[i].Name < clients[j].Name })
	return clients
}

// Clientsets returns the connected clientsets keyed by cluster name
func (m *Manager) Clientsets() map[string]kubernetes.Interface {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sets := make(map[string]kubernetes.Interface, len(m.clients))
	for name, client := range m.clients {
		sets[name] = client.Clientset
	}
	return sets
}

// Names returns all connected cluster names, sorted
func (m *Manager) Names() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.clients))
	for name := range m.clients {
		names = append(names, name)
	}
	m.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Count returns the number of connected clusters
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// HealthCheck checks every connected cluster concurrently, sorted by cluster name
func (m *Manager) HealthCheck(ctx context.Context) ([]HealthStatus, error) {
	clients := m.Clients()
	if len(clients) == 0 {
		return nil, nil
	}

	report, runErr := fanOut(ctx, m.logger, clients, func(ctx context.Context, c *Client) ([]HealthStatus, error) {
		status := HealthStatus{ClusterName: c.Name, Context: c.Context}
		if err := c.HealthCheck(ctx); err != nil {
			status.Error = err
		} else {
			status.Healthy = true
			status.ServerVersion, _ = c.ServerVersion(ctx, DefaultHealthCheckTimeout)
		}
		return []HealthStatus{status}, nil
	})

	statuses := executor.Records(report.Outcomes)
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ClusterName < statuses[j].ClusterName })

	healthy := 0
	for _, s := range statuses {
		if s.Healthy {
			healthy++
		}
	}
	m.logger.Info("health checks completed", "total", len(statuses), "healthy", healthy)

	return statuses, runErr
}

// Close drops every client; clientsets hold no resources beyond idle HTTP connections
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	m.logger.Debug("closing cluster manager", "clients", len(m.clients))
	m.clients = make(map[string]*Client)
	m.closed = true
}

// IsClosed returns true if the manager has been closed
func (m *Manager) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// fanOut runs work once per item on a small engine sized to the item count.
// The returned report is never nil.
func fanOut[T, R any](ctx context.Context, logger *slog.Logger, items []T, work executor.UnitOfWork[T, R]) (*executor.Report[T, R], error) {
	engine, err := executor.New(executor.Config{
		MaxConcurrency: min(len(items), maxParallelConnects),
		MaxIdleTime:    connectIdleTime,
	}, executor.WithLogger(logger))
	if err != nil {
		return &executor.Report[T, R]{}, err
	}

	report, err := executor.Run(ctx, engine, slices.Values(items), work)
	if report == nil {
		report = &executor.Report[T, R]{}
	}
	return report, err
}

// itemCause strips the executor's per-item wrapper
func itemCause(err error) error {
	var itemErr *executor.ItemError
	if errors.As(err, &itemErr) {
		return itemErr.Err
	}
	return err
}
