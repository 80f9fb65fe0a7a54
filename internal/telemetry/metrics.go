package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the Prometheus collectors shared by the manager and
// converger processes, mirroring the instrumentation style of both the
// teacher operator and wisbric/nightowl's httpserver.
type Metrics struct {
	Registry *prometheus.Registry

	StoreOperations   *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	TickDuration      prometheus.Histogram
	TickOutcomes      *prometheus.CounterVec
	OrchestratorCalls *prometheus.CounterVec
	DNSCalls          *prometheus.CounterVec
}

// NewMetrics constructs and registers a fresh Metrics bundle.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		StoreOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subscriptions_store_operations_total",
			Help: "Outcomes of subscription store operations.",
		}, []string{"op", "result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subscription_manager_http_requests_total",
			Help: "Subscription manager HTTP requests by route and status code.",
		}, []string{"route", "method", "status"}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "converger_tick_duration_seconds",
			Help:    "Wall-clock duration of a single convergence tick.",
			Buckets: prometheus.DefBuckets,
		}),
		TickOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "converger_tick_outcomes_total",
			Help: "Convergence tick outcomes.",
		}, []string{"result"}),
		OrchestratorCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_adapter_calls_total",
			Help: "Orchestrator adapter calls by operation and outcome.",
		}, []string{"op", "result"}),
		DNSCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dns_adapter_calls_total",
			Help: "DNS adapter calls by operation and outcome.",
		}, []string{"op", "result"}),
	}

	reg.MustRegister(
		m.StoreOperations,
		m.HTTPRequests,
		m.TickDuration,
		m.TickOutcomes,
		m.OrchestratorCalls,
		m.DNSCalls,
	)

	return m
}
