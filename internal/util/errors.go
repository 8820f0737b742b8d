package util

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/naeemkhedarun/csmetrics/internal/executor"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// Common error types for csmetrics
var (
	// ErrInvalidConfig indicates a configuration error
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrClusterNotFound indicates a cluster was not found
	ErrClusterNotFound = errors.New("cluster not found")

	// ErrConnectionFailed indicates a connection failure
	ErrConnectionFailed = errors.New("connection failed")

	// ErrNoWorkloads indicates enumeration matched nothing to collect
	ErrNoWorkloads = errors.New("no workloads matched")

	// ErrUnsupportedFormat indicates an unknown output format was requested
	ErrUnsupportedFormat = errors.New("unsupported output format")
)

// maxListedErrors caps how many errors a MultiError spells out
const maxListedErrors = 10

// ClusterError wraps an error with cluster context
type ClusterError struct {
	ClusterName string
	Err         error
}

// Error implements the error interface
func (e *ClusterError) Error() string {
	return fmt.Sprintf("cluster %q: %v", e.ClusterName, e.Err)
}

// Unwrap returns the wrapped error for errors.Is/As compatibility
func (e *ClusterError) Unwrap() error {
	return e.Err
}

// WrapClusterError wraps an error with cluster context
func WrapClusterError(clusterName string, err error) error {
	if err == nil {
		return nil
	}
	return &ClusterError{
		ClusterName: clusterName,
		Err:         err,
	}
}

// MultiError aggregates errors from independent clusters or items
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	switch len(m.Errors) {
	case 0:
		return "no errors"
	case 1:
		return m.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors occurred:", len(m.Errors))
	for i, err := range m.Errors {
		if i == maxListedErrors {
			fmt.Fprintf(&sb, "\n  ... and %d more errors", len(m.Errors)-maxListedErrors)
			break
		}
		fmt.Fprintf(&sb, "\n  %d. %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the errors for errors.Is/As compatibility
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Add adds a non-nil error
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// Len returns the number of collected errors
func (m *MultiError) Len() int {
	return len(m.Errors)
}

// ErrorOrNil returns nil if no errors were added, otherwise returns the MultiError
func (m *MultiError) ErrorOrNil() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

// CombineErrors combines errors into a single error, nil when all are nil
func CombineErrors(errs ...error) error {
	m := &MultiError{}
	for _, err := range errs {
		m.Add(err)
	}
	return m.ErrorOrNil()
}

// IsPermissionError reports whether err is an RBAC or authentication rejection
func IsPermissionError(err error) bool {
	return apierrors.IsForbidden(err) || apierrors.IsUnauthorized(err)
}

// FriendlyError converts technical errors to user-facing messages
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}

	var stall *executor.StallError
	switch {
	case errors.As(err, &stall):
		return fmt.Sprintf("Collection stalled: no workload finished within %s while %d were still pending (%s). "+
			"Raise the limit with --max-idle if these workloads are expected to take longer.",
			stall.Threshold, stall.Pending, strings.Join(stall.Sample, ", "))
	case errors.Is(err, executor.ErrPoolCreation):
		return "Could not start the worker pool. Please check --max-concurrency is greater than zero."
	case errors.Is(err, executor.ErrInvalidConfig), errors.Is(err, ErrInvalidConfig):
		return fmt.Sprintf("Invalid configuration: %v. Please check your config file and command-line flags.", err)
	case errors.Is(err, context.DeadlineExceeded):
		return "Operation timed out. Please try again or increase the timeout value with --timeout flag."
	case errors.Is(err, context.Canceled):
		return "Operation was cancelled."
	case errors.Is(err, ErrNoWorkloads):
		return "No workloads matched. Please check the namespace, selector and kind filters."
	case errors.Is(err, ErrClusterNotFound):
		return "Cluster not found. Please check the cluster name against `csmetrics cluster list`."
	case errors.Is(err, ErrConnectionFailed):
		return "Failed to connect to cluster. Please check your kubeconfig and network connectivity."
	case IsPermissionError(err):
		return "Permission denied. Please check your cluster credentials and RBAC permissions."
	default:
		return err.Error()
	}
}
