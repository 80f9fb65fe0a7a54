package orchestrator

import (
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/leastauthority/gridconverge/internal/subscription"
)

// DeploymentName and ConfigMapName derive the per-subscription object
// names the Converger reads, creates, and destroys by (spec.md §4.H).
// The original Python implementation's deployment_name/configmap_name
// helpers (lae_automation/containers.py) were not present in the
// retrieval pack; this naming scheme is this system's own, documented
// here as the authority.
func DeploymentName(subscriptionID string) string {
	return "grid-" + subscriptionID
}

func ConfigMapName(subscriptionID string) string {
	return "grid-" + subscriptionID + "-config"
}

const (
	introducerContainerName = "introducer"
	storageContainerName    = "storage"
	gridImage               = "leastauthority/gridconverge-grid:latest"
)

// BuildDeployment constructs the two-container Deployment for a
// subscription: one container exposing introducer_port_number, one
// exposing storage_port_number, carrying the subscription annotation and
// the customer-grid label triple (spec.md §3, §6).
func BuildDeployment(l Labels, r subscription.Record) *appsv1.Deployment {
	selector := l.set()
	replicas := int32(1)

	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:   DeploymentName(r.ID),
			Labels: selector,
			Annotations: map[string]string{
				SubscriptionAnnotation: r.ID,
			},
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: selector},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: selector,
					Annotations: map[string]string{
						SubscriptionAnnotation: r.ID,
					},
				},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{
							Name:  introducerContainerName,
							Image: gridImage,
							Ports: []corev1.ContainerPort{
								{ContainerPort: int32(r.IntroducerPortNumber)},
							},
							EnvFrom: []corev1.EnvFromSource{
								{ConfigMapRef: &corev1.ConfigMapEnvSource{
									LocalObjectReference: corev1.LocalObjectReference{Name: ConfigMapName(r.ID)},
								}},
							},
						},
						{
							Name:  storageContainerName,
							Image: gridImage,
							Ports: []corev1.ContainerPort{
								{ContainerPort: int32(r.StoragePortNumber)},
							},
							EnvFrom: []corev1.EnvFromSource{
								{ConfigMapRef: &corev1.ConfigMapEnvSource{
									LocalObjectReference: corev1.LocalObjectReference{Name: ConfigMapName(r.ID)},
								}},
							},
						},
					},
				},
			},
		},
	}
}

// BuildConfigMap constructs the per-subscription configuration blob
// consumed by BuildDeployment's containers (spec.md §3).
func BuildConfigMap(l Labels, r subscription.Record) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:   ConfigMapName(r.ID),
			Labels: l.set(),
			Annotations: map[string]string{
				SubscriptionAnnotation: r.ID,
			},
		},
		Data: map[string]string{
			"SUBSCRIPTION_ID":        r.ID,
			"CUSTOMER_ID":            r.CustomerID,
			"BUCKET_NAME":            r.BucketName,
			"INTRODUCER_PORT_NUMBER": fmt.Sprintf("%d", r.IntroducerPortNumber),
			"STORAGE_PORT_NUMBER":    fmt.Sprintf("%d", r.StoragePortNumber),
		},
	}
}
