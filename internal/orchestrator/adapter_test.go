package orchestrator

import (
	"context"
	"testing"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	fakeclient "k8s.io/client-go/kubernetes/fake"

	"github.com/leastauthority/gridconverge/internal/subscription"
)

var testLabels = Labels{Provider: "gridconverge", App: "s4", Component: "customer-grid"}

func sampleRecord(t *testing.T, id string, introducer int32) subscription.Record {
	t.Helper()
	r, err := subscription.New(id, subscription.PartialDetails{
		CustomerID:    "cust-1",
		ProductID:     "prod-1",
		CustomerEmail: "customer@example.com",
		BucketName:    "bucket-1",
	}, int(introducer), int(introducer)+1)
	if err != nil {
		t.Fatalf("building sample record: %v", err)
	}
	return r
}

func TestListDeployments(t *testing.T) {
	ctx := context.Background()
	record := sampleRecord(t, "sub-1", 10000)
	deployment := BuildDeployment(testLabels, record)
	deployment.Namespace = "default"

	client := fakeclient.NewSimpleClientset(deployment)
	a := New(client, "default", testLabels)

	got, err := a.ListDeployments(ctx)
	if err != nil {
		t.Fatalf("ListDeployments: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 deployment, got %d", len(got))
	}
	if got[0].SubscriptionID != "sub-1" || got[0].IntroducerPort != 10000 || got[0].StoragePort != 10001 {
		t.Fatalf("unexpected descriptor: %+v", got[0])
	}
}

func TestListDeployments_MissingAnnotation(t *testing.T) {
	ctx := context.Background()
	d := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "bad", Namespace: "default", Labels: testLabels.set()},
		Spec: appsv1.DeploymentSpec{
			Selector: &metav1.LabelSelector{MatchLabels: testLabels.set()},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: testLabels.set()},
			},
		},
	}

	client := fakeclient.NewSimpleClientset(d)
	a := New(client, "default", testLabels)

	if _, err := a.ListDeployments(ctx); err == nil {
		t.Fatal("expected an error for a deployment missing the subscription annotation")
	}
}

func TestListService_RequiresExactlyOne(t *testing.T) {
	ctx := context.Background()
	client := fakeclient.NewSimpleClientset()
	a := New(client, "default", testLabels)

	if _, err := a.ListService(ctx); err == nil {
		t.Fatal("expected an error when no customer-grid service exists")
	}
}

func TestCreateDeployments_DuplicateIsNotAnError(t *testing.T) {
	ctx := context.Background()
	record := sampleRecord(t, "sub-1", 10000)
	deployment := BuildDeployment(testLabels, record)
	deployment.Namespace = "default"

	client := fakeclient.NewSimpleClientset(deployment)
	a := New(client, "default", testLabels)

	results := a.CreateDeployments(ctx, []*appsv1.Deployment{deployment})
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("expected duplicate create to be treated as success, got %+v", results)
	}
}

func TestDestroyDeployments_MissingIsNotAnError(t *testing.T) {
	ctx := context.Background()
	client := fakeclient.NewSimpleClientset()
	a := New(client, "default", testLabels)

	if err := a.DestroyDeployments(ctx, []string{"does-not-exist"}); err != nil {
		t.Fatalf("destroying a missing deployment should succeed, got %v", err)
	}
}

func TestApply_PatchesService(t *testing.T) {
	ctx := context.Background()
	svc := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: "customer-grid", Namespace: "default", Labels: testLabels.set()},
	}

	client := fakeclient.NewSimpleClientset(svc)
	a := New(client, "default", testLabels)

	want := svc.DeepCopy()
	want.Spec.Ports = []corev1.ServicePort{{Name: "i-sub-1", Port: 10000}}

	if err := a.Apply(ctx, want); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	got, err := client.CoreV1().Services("default").Get(ctx, "customer-grid", metav1.GetOptions{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Spec.Ports) != 1 || got.Spec.Ports[0].Name != "i-sub-1" {
		t.Fatalf("service was not patched as expected: %+v", got.Spec.Ports)
	}
}
