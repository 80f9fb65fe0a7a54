/*
Copyright The CloudNativePG Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package converger wires the cobra subcommand that runs the
// reconciliation loop (spec.md §4.H), the Go analogue of the teacher's
// own "controller" subcommand in internal/cmd/manager/controller.
package converger

import (
	"context"
	"fmt"
	"net/http"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/cenkalti/backoff/v5"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/leastauthority/gridconverge/internal/config"
	"github.com/leastauthority/gridconverge/internal/converger"
	"github.com/leastauthority/gridconverge/internal/dnsadapter"
	"github.com/leastauthority/gridconverge/internal/managerclient"
	"github.com/leastauthority/gridconverge/internal/orchestrator"
	"github.com/leastauthority/gridconverge/internal/telemetry"
)

// NewCmd creates the "converger" subcommand.
func NewCmd() *cobra.Command {
	var endpoint string
	var namespace string
	var provider string
	var app string
	var component string
	var hostedZoneID string
	var domainSuffix string
	var dnsTarget string

	cmd := cobra.Command{
		Use:           "converger [flags]",
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), options{
				endpoint:     endpoint,
				namespace:    namespace,
				labels:       orchestrator.Labels{Provider: provider, App: app, Component: component},
				hostedZoneID: hostedZoneID,
				domainSuffix: domainSuffix,
				dnsTarget:    dnsTarget,
			})
		},
	}

	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Base URL of the subscription manager service")
	cmd.Flags().StringVar(&namespace, "namespace", "", "Namespace holding the customer-grid objects")
	cmd.Flags().StringVar(&provider, "provider", "", "Value of the 'provider' selector label")
	cmd.Flags().StringVar(&app, "app", "", "Value of the 'app' selector label")
	cmd.Flags().StringVar(&component, "component", "", "Value of the 'component' selector label")
	cmd.Flags().StringVar(&hostedZoneID, "dns-hosted-zone-id", "", "Route 53 hosted zone id for subscription DNS records")
	cmd.Flags().StringVar(&domainSuffix, "dns-domain-suffix", "", "Domain suffix appended to each subscription id to form its DNS name")
	cmd.Flags().StringVar(&dnsTarget, "dns-target", "", "CNAME target for subscription DNS records")

	for _, name := range []string{
		"endpoint", "namespace", "provider", "app", "component",
		"dns-hosted-zone-id", "dns-domain-suffix", "dns-target",
	} {
		_ = cmd.MarkFlagRequired(name)
	}

	return &cmd
}

type options struct {
	endpoint     string
	namespace    string
	labels       orchestrator.Labels
	hostedZoneID string
	domainSuffix string
	dnsTarget    string
}

func run(ctx context.Context, opts options) error {
	ambient, err := config.Load()
	if err != nil {
		return err
	}
	log := telemetry.NewLogger("converger", ambient.LogLevel)
	metrics := telemetry.NewMetrics()

	if err := waitForReady(ctx, ambient.StartupBackoffMax); err != nil {
		return fmt.Errorf("converger: startup readiness check failed: %w", err)
	}

	restConfig, err := rest.InClusterConfig()
	if err != nil {
		return fmt.Errorf("converger: loading in-cluster config: %w", err)
	}
	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return fmt.Errorf("converger: building kubernetes client: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("converger: loading AWS configuration: %w", err)
	}

	orch := orchestrator.New(clientset, opts.namespace, opts.labels)
	dns := dnsadapter.New(route53.NewFromConfig(awsCfg), opts.hostedZoneID, opts.domainSuffix, opts.dnsTarget)
	client := managerclient.NewNetworkClient(opts.endpoint, &http.Client{Timeout: ambient.ExternalCallTimeout})

	c := converger.New(client, orch, dns, opts.labels, log, metrics.TickDuration, metrics.TickOutcomes)

	go serveMetrics(ambient.MetricsAddr, metrics, log)

	log.Info("starting convergence loop", "interval", ambient.TickInterval.String())
	c.Run(ctx, ambient.TickInterval)
	return nil
}

// waitForReady performs the one-time startup connectivity check
// (SPEC_FULL.md §5-7 "Startup connectivity"), the Go analogue of
// cmd/manager/main.go's isK8sRESTServerReadyWithRetries, built on
// cenkalti/backoff/v5's generic Retry instead of client-go's own
// wait.Backoff.
func waitForReady(ctx context.Context, max time.Duration) error {
	check := func() (struct{}, error) {
		restConfig, err := rest.InClusterConfig()
		if err != nil {
			return struct{}{}, err
		}
		clientset, err := kubernetes.NewForConfig(restConfig)
		if err != nil {
			return struct{}{}, err
		}
		_, err = clientset.Discovery().ServerVersion()
		return struct{}{}, err
	}
	_, err := backoff.Retry(ctx, check, backoff.WithMaxElapsedTime(max))
	return err
}

func serveMetrics(addr string, metrics *telemetry.Metrics, log logr.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	if err := http.ListenAndServe(addr, mux); err != nil { //nolint:gosec
		log.Error(err, "metrics server exited")
	}
}
