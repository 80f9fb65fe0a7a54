package converger

import (
	"context"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/leastauthority/gridconverge/internal/managerclient"
	"github.com/leastauthority/gridconverge/internal/orchestrator"
	"github.com/leastauthority/gridconverge/internal/patch"
	"github.com/leastauthority/gridconverge/internal/subscription"
)

// DNSAdapter is the subset of internal/dnsadapter.Adapter the Converger
// depends on.
type DNSAdapter interface {
	Create(ctx context.Context, subscriptionIDs []string) error
	Destroy(ctx context.Context, subscriptionIDs []string) error
}

// Converger runs the periodic reconciliation loop (spec.md §4.H).
type Converger struct {
	client       managerclient.Client
	orchestrator *orchestrator.Adapter
	dns          DNSAdapter
	labels       orchestrator.Labels
	log          logr.Logger

	tickDuration prometheus.Histogram
	tickOutcomes *prometheus.CounterVec
}

// New builds a Converger.
func New(
	client managerclient.Client,
	orch *orchestrator.Adapter,
	dns DNSAdapter,
	labels orchestrator.Labels,
	log logr.Logger,
	tickDuration prometheus.Histogram,
	tickOutcomes *prometheus.CounterVec,
) *Converger {
	return &Converger{
		client:       client,
		orchestrator: orch,
		dns:          dns,
		labels:       labels,
		log:          log,
		tickDuration: tickDuration,
		tickOutcomes: tickOutcomes,
	}
}

// Run ticks at interval until ctx is canceled. Adjacent ticks never
// overlap: a tick that runs long delays the next tick rather than
// racing it (spec.md §5). The loop honors shutdown by declining to
// start a new tick once ctx is done.
func (c *Converger) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// tick executes one reconciliation pass. The entire tick is wrapped so
// that any failure is logged and swallowed; the next tick re-attempts
// from step 1 (spec.md §4.H's error-quarantine rule), mirroring
// divert_errors_to_log in subscription_converger.py.
func (c *Converger) tick(ctx context.Context) {
	start := time.Now()
	err := c.converge(ctx)
	if c.tickDuration != nil {
		c.tickDuration.Observe(time.Since(start).Seconds())
	}

	result := "success"
	if err != nil {
		result = "error"
		c.log.Error(err, "convergence tick failed, will retry next tick")
	}
	if c.tickOutcomes != nil {
		c.tickOutcomes.WithLabelValues(result).Inc()
	}
}

func (c *Converger) converge(ctx context.Context) error {
	// Step 1: gather desired state.
	active, err := c.client.List(ctx)
	if err != nil {
		return err
	}
	desired := make(map[string]subscription.Record, len(active))
	for _, r := range active {
		desired[r.ID] = r
	}

	// Step 2: gather realized state.
	realizedDeployments, err := c.orchestrator.ListDeployments(ctx)
	if err != nil {
		return err
	}
	service, err := c.orchestrator.ListService(ctx)
	if err != nil {
		return err
	}

	// Step 3: compute diff.
	diff := ComputeDiff(desired, realizedDeployments)
	createIDs := diff.CreateSet.ToSortedList()
	deleteIDs := diff.DeleteSet.ToSortedList()

	// Step 4: plan service.
	wantService := planService(service, diff, desired)

	// Step 5: apply in fixed order.
	if err := c.dns.Destroy(ctx, deleteIDs); err != nil {
		return err
	}
	if err := c.orchestrator.DestroyDeployments(ctx, deploymentNames(deleteIDs)); err != nil {
		return err
	}
	if err := c.orchestrator.DestroyConfigMaps(ctx, configMapNames(deleteIDs)); err != nil {
		return err
	}

	configMaps := make([]*corev1.ConfigMap, 0, len(createIDs))
	deployments := make([]*appsv1.Deployment, 0, len(createIDs))
	for _, id := range createIDs {
		r := desired[id]
		configMaps = append(configMaps, orchestrator.BuildConfigMap(c.labels, r))
		deployments = append(deployments, orchestrator.BuildDeployment(c.labels, r))
	}

	for _, res := range c.orchestrator.CreateConfigMaps(ctx, configMaps) {
		if res.Err != nil {
			c.log.Error(res.Err, "creating configmap", "name", res.Name)
		}
	}
	for _, res := range c.orchestrator.CreateDeployments(ctx, deployments) {
		if res.Err != nil {
			c.log.Error(res.Err, "creating deployment", "name", res.Name)
		}
	}

	if err := c.orchestrator.Apply(ctx, wantService); err != nil {
		return err
	}

	return c.dns.Create(ctx, createIDs)
}

func planService(service *corev1.Service, diff Diff, desired map[string]subscription.Record) *corev1.Service {
	out := patch.RemoveMany(service, diff.DeleteSet)
	out = patch.AddMany(out, diff.CreateSet, func(id string) (int32, int32) {
		r := desired[id]
		return int32(r.IntroducerPortNumber), int32(r.StoragePortNumber)
	})
	return out
}

func deploymentNames(ids []string) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = orchestrator.DeploymentName(id)
	}
	return names
}

func configMapNames(ids []string) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = orchestrator.ConfigMapName(id)
	}
	return names
}
