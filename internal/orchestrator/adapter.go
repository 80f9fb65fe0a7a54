// Package orchestrator implements the Orchestrator Adapter (spec.md
// §4.F): reads and writes Deployments, ConfigMaps, and the shared
// Service object on behalf of the Converger.
//
// Grounded on get_customer_grid_deployments/get_customer_grid_service
// (label-selector filtering) and converge's k8s.destroy/create/apply
// calls in _examples/original_source/lae_automation/subscription_converger.py,
// translated from pykube's untyped HTTPClient into k8s.io/client-go's
// typed clientset. Deliberately does not use
// sigs.k8s.io/controller-runtime: that library's value is watch-based
// reconciliation against a cached client.Object, and this system's
// Converger is an explicit 1 Hz full-list-and-diff loop (spec.md §4.H)
// with no CRD to watch.
package orchestrator

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"

	"github.com/leastauthority/gridconverge/internal/patch"
)

// Labels identifies the customer-grid object triple used to scope every
// Orchestrator Adapter operation (spec.md §6): {provider, app, component}.
type Labels struct {
	Provider  string
	App       string
	Component string
}

func (l Labels) set() labels.Set {
	return labels.Set{
		"provider":  l.Provider,
		"app":       l.App,
		"component": l.Component,
	}
}

// SubscriptionAnnotation is the Deployment annotation key carrying the
// owning subscription id (spec.md §3/§6).
const SubscriptionAnnotation = "subscription"

// Adapter is the client-go-backed Orchestrator Adapter, scoped to one
// namespace and one customer-grid label triple.
type Adapter struct {
	client    kubernetes.Interface
	namespace string
	labels    Labels
}

// New builds an Adapter.
func New(client kubernetes.Interface, namespace string, labels Labels) *Adapter {
	return &Adapter{client: client, namespace: namespace, labels: labels}
}

// DeploymentDescriptor exposes the subset of a Deployment the Converger's
// diff computation needs: its owning subscription id and the container
// ports it currently exposes (spec.md §4.F).
type DeploymentDescriptor struct {
	Name           string
	SubscriptionID string
	IntroducerPort int32
	StoragePort    int32
}

// ListDeployments returns every Deployment under this Adapter's label
// selector.
func (a *Adapter) ListDeployments(ctx context.Context) ([]DeploymentDescriptor, error) {
	list, err := a.client.AppsV1().Deployments(a.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: a.labels.set().AsSelector().String(),
	})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: listing deployments: %w", err)
	}

	descriptors := make([]DeploymentDescriptor, 0, len(list.Items))
	for _, d := range list.Items {
		desc, err := describeDeployment(d)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, desc)
	}
	return descriptors, nil
}

func describeDeployment(d appsv1.Deployment) (DeploymentDescriptor, error) {
	sid, ok := d.Annotations[SubscriptionAnnotation]
	if !ok {
		return DeploymentDescriptor{}, fmt.Errorf("orchestrator: deployment %s missing %q annotation", d.Name, SubscriptionAnnotation)
	}

	containers := d.Spec.Template.Spec.Containers
	if len(containers) < 2 || len(containers[0].Ports) < 1 || len(containers[1].Ports) < 1 {
		return DeploymentDescriptor{}, fmt.Errorf("orchestrator: deployment %s does not have the expected two-container port layout", d.Name)
	}

	return DeploymentDescriptor{
		Name:           d.Name,
		SubscriptionID: sid,
		IntroducerPort: containers[0].Ports[0].ContainerPort,
		StoragePort:    containers[1].Ports[0].ContainerPort,
	}, nil
}

// ListService returns the singleton front-end Service under this
// Adapter's label selector. It fails if zero or more than one match.
func (a *Adapter) ListService(ctx context.Context) (*corev1.Service, error) {
	list, err := a.client.CoreV1().Services(a.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: a.labels.set().AsSelector().String(),
	})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: listing services: %w", err)
	}
	switch len(list.Items) {
	case 0:
		return nil, fmt.Errorf("orchestrator: no customer-grid service found for selector %s", a.labels.set())
	case 1:
		return &list.Items[0], nil
	default:
		return nil, fmt.Errorf("orchestrator: expected exactly one customer-grid service, found %d", len(list.Items))
	}
}

// ItemResult reports the outcome of one item in a bulk Create call
// (spec.md §4.F: "may reject individual items; reports per-item
// outcome").
type ItemResult struct {
	Name string
	Err  error
}

// CreateConfigMaps submits ConfigMaps in bulk. An individual rejection
// does not abort the rest of the batch.
func (a *Adapter) CreateConfigMaps(ctx context.Context, configMaps []*corev1.ConfigMap) []ItemResult {
	results := make([]ItemResult, 0, len(configMaps))
	for _, cm := range configMaps {
		_, err := a.client.CoreV1().ConfigMaps(a.namespace).Create(ctx, cm, metav1.CreateOptions{})
		results = append(results, ItemResult{Name: cm.Name, Err: ignoreAlreadyExists(err)})
	}
	return results
}

// CreateDeployments submits Deployments in bulk. An individual rejection
// does not abort the rest of the batch.
func (a *Adapter) CreateDeployments(ctx context.Context, deployments []*appsv1.Deployment) []ItemResult {
	results := make([]ItemResult, 0, len(deployments))
	for _, d := range deployments {
		_, err := a.client.AppsV1().Deployments(a.namespace).Create(ctx, d, metav1.CreateOptions{})
		results = append(results, ItemResult{Name: d.Name, Err: ignoreAlreadyExists(err)})
	}
	return results
}

func ignoreAlreadyExists(err error) error {
	if apierrors.IsAlreadyExists(err) {
		return nil
	}
	return err
}

// Apply patches the shared Service to match want, computing a JSON merge
// patch against the object currently on the cluster (spec.md §4.F).
func (a *Adapter) Apply(ctx context.Context, want *corev1.Service) error {
	current, err := a.ListService(ctx)
	if err != nil {
		return err
	}

	merge, err := patch.MergePatch(current, want)
	if err != nil {
		return fmt.Errorf("orchestrator: computing service patch: %w", err)
	}
	if len(merge) <= len("{}") {
		return nil
	}

	_, err = a.client.CoreV1().Services(a.namespace).Patch(ctx, current.Name, types.MergePatchType, merge, metav1.PatchOptions{})
	if err != nil {
		return fmt.Errorf("orchestrator: applying service patch: %w", err)
	}
	return nil
}

// DestroyDeployments deletes the named Deployments. Missing targets are
// treated as success (spec.md §4.F).
func (a *Adapter) DestroyDeployments(ctx context.Context, names []string) error {
	for _, name := range names {
		err := a.client.AppsV1().Deployments(a.namespace).Delete(ctx, name, metav1.DeleteOptions{})
		if err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("orchestrator: deleting deployment %s: %w", name, err)
		}
	}
	return nil
}

// DestroyConfigMaps deletes the named ConfigMaps. Missing targets are
// treated as success (spec.md §4.F).
func (a *Adapter) DestroyConfigMaps(ctx context.Context, names []string) error {
	for _, name := range names {
		err := a.client.CoreV1().ConfigMaps(a.namespace).Delete(ctx, name, metav1.DeleteOptions{})
		if err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("orchestrator: deleting configmap %s: %w", name, err)
		}
	}
	return nil
}
