package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/naeemkhedarun/csmetrics/internal/cluster"
	"github.com/naeemkhedarun/csmetrics/internal/executor"
	"github.com/naeemkhedarun/csmetrics/internal/util"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/kubernetes"
)

const (
	// pageSize is the list chunk size requested from the API server
	pageSize = 500

	// maxParallelClusters bounds concurrent per-cluster enumeration
	maxParallelClusters = 8

	// enumerateIdleTime is how long enumeration may go without a cluster finishing
	enumerateIdleTime = 2 * time.Minute
)

// Enumerator lists workloads across clusters
type Enumerator struct {
	logger *slog.Logger
}

// NewEnumerator creates an enumerator
func NewEnumerator(logger *slog.Logger) *Enumerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enumerator{logger: logger}
}

// List returns every workload matching filter on the given clusters, sorted.
// Clusters are enumerated concurrently. A cluster that fails contributes a
// *util.ClusterError to the returned *util.MultiError while the others still
// contribute workloads.
func (e *Enumerator) List(ctx context.Context, clients []*cluster.Client, filter Filter) ([]Workload, error) {
	if filter.Selector != "" {
		if _, err := labels.Parse(filter.Selector); err != nil {
			return nil, fmt.Errorf("%w: selector %q: %w", ErrInvalidFilter, filter.Selector, err)
		}
	}
	if len(clients) == 0 {
		return nil, nil
	}

	engine, err := executor.New(executor.Config{
		MaxConcurrency: min(len(clients), maxParallelClusters),
		MaxIdleTime:    enumerateIdleTime,
	}, executor.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}

	report, runErr := executor.Run(ctx, engine, slices.Values(clients),
		func(ctx context.Context, c *cluster.Client) ([]Workload, error) {
			return e.listCluster(ctx, c, filter)
		})
	if report == nil {
		return nil, runErr
	}

	failures := &util.MultiError{}
	for _, outcome := range report.Outcomes {
		if outcome.Err == nil {
			continue
		}
		cause := outcome.Err
		var itemErr *executor.ItemError
		if errors.As(cause, &itemErr) {
			cause = itemErr.Err
		}
		e.logger.Warn("failed to enumerate cluster", "cluster", outcome.Item.Name, "error", cause)
		failures.Add(util.WrapClusterError(outcome.Item.Name, cause))
	}

	workloads := executor.Records(report.Outcomes)
	Sort(workloads)

	e.logger.Info("enumerated workloads",
		"clusters", len(clients),
		"failed_clusters", failures.Len(),
		"workloads", len(workloads))

	if runErr != nil {
		return workloads, fmt.Errorf("enumerate workloads: %w", runErr)
	}
	return workloads, failures.ErrorOrNil()
}

// listCluster lists every requested kind in every requested namespace of one cluster
func (e *Enumerator) listCluster(ctx context.Context, c *cluster.Client, filter Filter) ([]Workload, error) {
	var workloads []Workload

	for _, ns := range filter.namespaces() {
		for _, kind := range filter.kinds() {
			var (
				found []Workload
				err   error
			)
			switch kind {
			case KindDeployment:
				found, err = listDeployments(ctx, c.Clientset, c.Name, ns, filter.Selector)
			case KindStatefulSet:
				found, err = listStatefulSets(ctx, c.Clientset, c.Name, ns, filter.Selector)
			default:
				err = fmt.Errorf("%w: unsupported kind %q", ErrInvalidFilter, kind)
			}
			if err != nil {
				return nil, fmt.Errorf("list %s in namespace %q: %w", kind, displayNamespace(ns), err)
			}
			workloads = append(workloads, found...)
		}
	}

	e.logger.Debug("enumerated cluster", "cluster", c.Name, "workloads", len(workloads))
	return workloads, nil
}

func listDeployments(ctx context.Context, cs kubernetes.Interface, clusterName, ns, selector string) ([]Workload, error) {
	var workloads []Workload
	opts := metav1.ListOptions{LabelSelector: selector, Limit: pageSize}

	for {
		list, err := cs.AppsV1().Deployments(ns).List(ctx, opts)
		if err != nil {
			return nil, err
		}
		for i := range list.Items {
			d := &list.Items[i]
			workloads = append(workloads, Workload{
				Cluster:   clusterName,
				Namespace: d.Namespace,
				Kind:      KindDeployment,
				Name:      d.Name,
				Selector:  selectorString(d.Spec.Selector),
				Replicas:  desiredReplicas(d.Spec.Replicas),
			})
		}
		if list.Continue == "" {
			return workloads, nil
		}
		opts.Continue = list.Continue
	}
}

func listStatefulSets(ctx context.Context, cs kubernetes.Interface, clusterName, ns, selector string) ([]Workload, error) {
	var workloads []Workload
	opts := metav1.ListOptions{LabelSelector: selector, Limit: pageSize}

	for {
		list, err := cs.AppsV1().StatefulSets(ns).List(ctx, opts)
		if err != nil {
			return nil, err
		}
		for i := range list.Items {
			s := &list.Items[i]
			workloads = append(workloads, Workload{
				Cluster:   clusterName,
				Namespace: s.Namespace,
				Kind:      KindStatefulSet,
				Name:      s.Name,
				Selector:  selectorString(s.Spec.Selector),
				Replicas:  desiredReplicas(s.Spec.Replicas),
			})
		}
		if list.Continue == "" {
			return workloads, nil
		}
		opts.Continue = list.Continue
	}
}

// selectorString renders a pod selector; an invalid or empty selector yields ""
func selectorString(sel *metav1.LabelSelector) string {
	if sel == nil {
		return ""
	}
	s, err := metav1.LabelSelectorAsSelector(sel)
	if err != nil || s.Empty() {
		return ""
	}
	return s.String()
}

// desiredReplicas applies the API default of one replica
func desiredReplicas(r *int32) int32 {
	if r == nil {
		return 1
	}
	return *r
}

func displayNamespace(ns string) string {
	if ns == "" {
		return "*"
	}
	return ns
}
