package collect

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"strings"
	"time"

	"github.com/naeemkhedarun/csmetrics/internal/inventory"
	"github.com/naeemkhedarun/csmetrics/internal/util"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// podPageSize is the pod list chunk size
const podPageSize = 500

// Settings are fixed for the lifetime of a Collector and shared by every worker
type Settings struct {
	// Now stamps records and computes pod age; defaults to time.Now
	Now func() time.Time

	// IncludeCompleted keeps Succeeded and Failed pods
	IncludeCompleted bool

	// RequestTimeout bounds each Collect call; zero means no extra bound
	RequestTimeout time.Duration
}

// Collector gathers per-pod records for workloads.
// It is immutable after construction and safe for concurrent use.
type Collector struct {
	clients  map[string]kubernetes.Interface
	settings Settings
	logger   *slog.Logger
}

// NewCollector creates a collector over clientsets keyed by cluster name
func NewCollector(clients map[string]kubernetes.Interface, settings Settings, logger *slog.Logger) *Collector {
	if settings.Now == nil {
		settings.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		clients:  maps.Clone(clients),
		settings: settings,
		logger:   logger,
	}
}

// Settings returns the collector's settings
func (c *Collector) Settings() Settings {
	return c.settings
}

// Collect returns one record per pod of w, sorted by pod name.
// A workload deleted since enumeration, or one with no pods, yields no records.
func (c *Collector) Collect(ctx context.Context, w inventory.Workload) ([]Record, error) {
	cs, ok := c.clients[w.Cluster]
	if !ok {
		return nil, util.WrapClusterError(w.Cluster, util.ErrClusterNotFound)
	}

	if c.settings.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.settings.RequestTimeout)
		defer cancel()
	}

	status, err := fetchStatus(ctx, cs, w)
	if apierrors.IsNotFound(err) {
		c.logger.Debug("workload disappeared before collection", "workload", w.String())
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", strings.ToLower(string(w.Kind)), err)
	}
	if status.selector == "" {
		c.logger.Debug("workload has no pod selector", "workload", w.String())
		return nil, nil
	}

	pods, err := listPods(ctx, cs, w.Namespace, status.selector)
	if err != nil {
		return nil, fmt.Errorf("list pods: %w", err)
	}

	now := c.settings.Now()
	records := make([]Record, 0, len(pods))
	for i := range pods {
		pod := &pods[i]
		if !ownedBy(pod, w) {
			continue
		}
		if !c.settings.IncludeCompleted && isCompleted(pod) {
			continue
		}
		records = append(records, podRecord(pod, w, status, now))
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Instance < records[j].Instance })
	return records, nil
}

// workloadStatus is the live replica state of a workload
type workloadStatus struct {
	selector  string
	desired   int32
	available int32
}

func fetchStatus(ctx context.Context, cs kubernetes.Interface, w inventory.Workload) (workloadStatus, error) {
	switch w.Kind {
	case inventory.KindDeployment:
		d, err := cs.AppsV1().Deployments(w.Namespace).Get(ctx, w.Name, metav1.GetOptions{})
		if err != nil {
			return workloadStatus{}, err
		}
		return workloadStatus{
			selector:  selectorString(d.Spec.Selector),
			desired:   replicasOrDefault(d.Spec.Replicas),
			available: d.Status.AvailableReplicas,
		}, nil
	case inventory.KindStatefulSet:
		s, err := cs.AppsV1().StatefulSets(w.Namespace).Get(ctx, w.Name, metav1.GetOptions{})
		if err != nil {
			return workloadStatus{}, err
		}
		return workloadStatus{
			selector:  selectorString(s.Spec.Selector),
			desired:   replicasOrDefault(s.Spec.Replicas),
			available: s.Status.AvailableReplicas,
		}, nil
	}
	return workloadStatus{}, fmt.Errorf("unsupported kind %q", w.Kind)
}

func listPods(ctx context.Context, cs kubernetes.Interface, ns, selector string) ([]corev1.Pod, error) {
	var pods []corev1.Pod
	opts := metav1.ListOptions{LabelSelector: selector, Limit: podPageSize}

	for {
		list, err := cs.CoreV1().Pods(ns).List(ctx, opts)
		if err != nil {
			return nil, err
		}
		pods = append(pods, list.Items...)
		if list.Continue == "" {
			return pods, nil
		}
		opts.Continue = list.Continue
	}
}

// ownedBy reports whether pod's controller belongs to w.
// Deployment pods are owned through a ReplicaSet named "<deployment>-<pod-template-hash>".
func ownedBy(pod *corev1.Pod, w inventory.Workload) bool {
	owner := metav1.GetControllerOf(pod)
	if owner == nil {
		return false
	}

	switch w.Kind {
	case inventory.KindDeployment:
		return owner.Kind == "ReplicaSet" && ownedByDeployment(owner.Name, pod.Labels, w.Name)
	case inventory.KindStatefulSet:
		return owner.Kind == "StatefulSet" && owner.Name == w.Name
	}
	return false
}

// ownedByDeployment matches a ReplicaSet name against deployment. Without the hash
// label the suffix must be a single segment, so "web-canary-5c4b" is not owned by "web".
func ownedByDeployment(replicaSet string, labels map[string]string, deployment string) bool {
	if hash := labels[appsv1.DefaultDeploymentUniqueLabelKey]; hash != "" {
		return replicaSet == deployment+"-"+hash
	}
	suffix, ok := strings.CutPrefix(replicaSet, deployment+"-")
	return ok && suffix != "" && !strings.Contains(suffix, "-")
}

func isCompleted(pod *corev1.Pod) bool {
	return pod.Status.Phase == corev1.PodSucceeded || pod.Status.Phase == corev1.PodFailed
}

func podRecord(pod *corev1.Pod, w inventory.Workload, status workloadStatus, now time.Time) Record {
	r := Record{
		Timestamp:         now,
		Cluster:           w.Cluster,
		Namespace:         pod.Namespace,
		Kind:              string(w.Kind),
		Workload:          w.Name,
		Instance:          pod.Name,
		Node:              pod.Spec.NodeName,
		Phase:             string(pod.Status.Phase),
		Ready:             isReady(pod),
		Containers:        len(pod.Spec.Containers),
		DesiredReplicas:   status.desired,
		AvailableReplicas: status.available,
	}

	for _, cst := range pod.Status.ContainerStatuses {
		r.Restarts += cst.RestartCount
	}

	for _, container := range pod.Spec.Containers {
		res := container.Resources
		r.CPURequest += res.Requests.Cpu().MilliValue()
		r.CPULimit += res.Limits.Cpu().MilliValue()
		r.MemoryRequest += res.Requests.Memory().Value()
		r.MemoryLimit += res.Limits.Memory().Value()
	}

	if !pod.CreationTimestamp.IsZero() {
		if age := now.Sub(pod.CreationTimestamp.Time); age > 0 {
			r.AgeSeconds = int64(age / time.Second)
		}
	}

	return r
}

func isReady(pod *corev1.Pod) bool {
	for _, cond := range pod.Status.Conditions {
		if cond.Type == corev1.PodReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}

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

func replicasOrDefault(r *int32) int32 {
	if r == nil {
		return 1
	}
	return *r
}
