// Package inventory enumerates the workloads a metrics export collects from.
package inventory

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"sort"
	"strings"

	"github.com/ygrebnov/errorc"
)

// Kind is a workload resource kind
type Kind string

const (
	KindDeployment  Kind = "Deployment"
	KindStatefulSet Kind = "StatefulSet"
)

// AllKinds lists every supported kind in enumeration order
var AllKinds = []Kind{KindDeployment, KindStatefulSet}

// ErrInvalidFilter is returned for filters that cannot be applied
var ErrInvalidFilter = errors.New("invalid workload filter")

// Workload identifies one Deployment or StatefulSet on one cluster
type Workload struct {
	Cluster   string `json:"cluster" yaml:"cluster"`
	Namespace string `json:"namespace" yaml:"namespace"`
	Kind      Kind   `json:"kind" yaml:"kind"`
	Name      string `json:"name" yaml:"name"`

	// Selector is the workload's pod selector in label-selector syntax
	Selector string `json:"selector" yaml:"selector"`

	// Replicas is the desired replica count at enumeration time
	Replicas int32 `json:"replicas" yaml:"replicas"`
}

// String returns cluster/namespace/kind/name
func (w Workload) String() string {
	return w.Cluster + "/" + w.Namespace + "/" + string(w.Kind) + "/" + w.Name
}

// Filter narrows enumeration
type Filter struct {
	// Namespaces to search; empty means all namespaces
	Namespaces []string

	// Kinds to list; empty means AllKinds
	Kinds []Kind

	// Selector is a label selector applied to the workloads themselves
	Selector string
}

// kinds returns the effective kinds
func (f Filter) kinds() []Kind {
	if len(f.Kinds) == 0 {
		return AllKinds
	}
	return f.Kinds
}

// namespaces returns the effective namespaces, "" meaning all
func (f Filter) namespaces() []string {
	if len(f.Namespaces) == 0 {
		return []string{""}
	}
	return f.Namespaces
}

// ParseKind accepts the usual kubectl spellings of a kind
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deployment", "deployments", "deploy":
		return KindDeployment, nil
	case "statefulset", "statefulsets", "sts":
		return KindStatefulSet, nil
	}
	return "", errorc.With(ErrInvalidFilter,
		errorc.String("", fmt.Sprintf("unknown kind %q (supported: deployment, statefulset)", s)))
}

// ParseKinds parses and de-duplicates kinds, keeping first-seen order
func ParseKinds(values []string) ([]Kind, error) {
	kinds := make([]Kind, 0, len(values))
	for _, v := range values {
		kind, err := ParseKind(v)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(kinds, kind) {
			kinds = append(kinds, kind)
		}
	}
	return kinds, nil
}

// Sort orders workloads by cluster, namespace, kind and name
func Sort(workloads []Workload) {
	sort.Slice(workloads, func(i, j int) bool {
		a, b := workloads[i], workloads[j]
		if a.Cluster != b.Cluster {
			return a.Cluster < b.Cluster
		}
		if a.Namespace != b.Namespace {
			return a.Namespace < b.Namespace
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Name < b.Name
	})
}

// Sequence yields workloads in order; it is the work item source of an export
func Sequence(workloads []Workload) iter.Seq[Workload] {
	return slices.Values(workloads)
}
