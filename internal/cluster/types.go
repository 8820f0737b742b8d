package cluster

import (
	"fmt"
	"sync/atomic"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

// Client represents a connection to a single Kubernetes cluster
type Client struct {
	// Name is the cluster name written to exports (config alias or context)
	Name string

	// Context is the kubeconfig context name
	Context string

	// Clientset is the Kubernetes client interface
	Clientset kubernetes.Interface

	// RestConfig is the underlying REST configuration
	RestConfig *rest.Config

	healthy atomic.Bool
}

// IsHealthy reports whether the last health check passed
func (c *Client) IsHealthy() bool {
	return c.healthy.Load()
}

// String returns a short description of the client
func (c *Client) String() string {
	return fmt.Sprintf("Client{Name: %s, Context: %s, Healthy: %t}", c.Name, c.Context, c.IsHealthy())
}

// HealthStatus represents the health status of a cluster
type HealthStatus struct {
	// ClusterName is the name of the cluster
	ClusterName string

	// Context is the kubeconfig context
	Context string

	// Healthy indicates if the cluster answered
	Healthy bool

	// Error contains any health check error
	Error error

	// ServerVersion is the Kubernetes server version (if healthy)
	ServerVersion string
}
