// Package config holds the ambient tuning values that are not part of the
// documented contract in spec.md §6 (those remain cobra/pflag flags on
// each subcommand). Grounded on wisbric/nightowl's internal/config, which
// loads an env-tagged struct with github.com/caarlos0/env.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Ambient holds tuning knobs that are safe to default and override via
// environment variables, as distinct from the required operational
// parameters each subcommand takes as flags.
type Ambient struct {
	// LogLevel controls the verbosity of structured logging.
	LogLevel string `env:"GRIDCONVERGE_LOG_LEVEL" envDefault:"info"`

	// TickInterval is how often the Converger reconciles (spec.md §5: 1 Hz).
	TickInterval time.Duration `env:"GRIDCONVERGE_TICK_INTERVAL" envDefault:"1s"`

	// ExternalCallTimeout is the HTTP client timeout of the converger's
	// subscription-manager client, bounding each call to the subscription
	// registry within a tick. Orchestrator and DNS calls are not bounded
	// by it.
	ExternalCallTimeout time.Duration `env:"GRIDCONVERGE_EXTERNAL_CALL_TIMEOUT" envDefault:"3s"`

	// StartupBackoffMax bounds the one-time connectivity check the
	// converger performs before entering its main loop.
	StartupBackoffMax time.Duration `env:"GRIDCONVERGE_STARTUP_BACKOFF_MAX" envDefault:"30s"`

	// MetricsAddr is where the /metrics and /healthz endpoints listen.
	MetricsAddr string `env:"GRIDCONVERGE_METRICS_ADDR" envDefault:":8080"`
}

// Load reads Ambient from the environment, applying defaults for unset
// variables.
func Load() (*Ambient, error) {
	a := &Ambient{}
	if err := env.Parse(a); err != nil {
		return nil, fmt.Errorf("parsing ambient configuration: %w", err)
	}
	return a, nil
}
