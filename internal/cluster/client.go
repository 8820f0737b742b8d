package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

// DefaultHealthCheckTimeout bounds a single health check
const DefaultHealthCheckTimeout = 10 * time.Second

// NewClient creates a cluster client from a REST config
func NewClient(name, contextName string, restConfig *rest.Config, logger *slog.Logger) (*Client, error) {
	if restConfig == nil {
		return nil, fmt.Errorf("rest config cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	logger.Debug("created cluster client",
		"cluster", name,
		"context", contextName,
		"server", restConfig.Host)

	return &Client{
		Name:       name,
		Context:    contextName,
		Clientset:  clientset,
		RestConfig: restConfig,
	}, nil
}

// NewClientForClientset wraps an existing clientset, typically a fake in tests
func NewClientForClientset(name, contextName string, clientset kubernetes.Interface) *Client {
	return &Client{
		Name:      name,
		Context:   contextName,
		Clientset: clientset,
	}
}

// HealthCheck pings the API server through the discovery endpoint
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.ServerVersion(ctx, DefaultHealthCheckTimeout)
	c.healthy.Store(err == nil)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}

// ServerVersion returns the Kubernetes server version.
// Discovery does not take a context, so the call runs on its own goroutine and is
// abandoned when ctx or timeout expires.
func (c *Client) ServerVersion(ctx context.Context, timeout time.Duration) (string, error) {
	versionCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := versionCtx.Err(); err != nil {
		return "", fmt.Errorf("get server version: %w", err)
	}

	type result struct {
		version string
		err     error
	}
	resultCh := make(chan result, 1)

	go func() {
		info, err := c.Clientset.Discovery().ServerVersion()
		if err != nil {
			resultCh <- result{err: err}
			return
		}
		resultCh <- result{version: info.String()}
	}()

	select {
	case <-versionCtx.Done():
		return "", fmt.Errorf("get server version: %w", versionCtx.Err())
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("get server version: %w", res.err)
		}
		return res.version, nil
	}
}
