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

// Package service wires the cobra subcommand that runs the Subscription
// Manager HTTP facade (spec.md §4.C) over internal/store.
package service

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/leastauthority/gridconverge/internal/config"
	"github.com/leastauthority/gridconverge/internal/manager"
	"github.com/leastauthority/gridconverge/internal/store"
	"github.com/leastauthority/gridconverge/internal/telemetry"
)

// NewCmd creates the "service" subcommand.
func NewCmd() *cobra.Command {
	var statePath string
	var listenAddress string

	cmd := cobra.Command{
		Use:           "service [flags]",
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(statePath, listenAddress)
		},
	}

	cmd.Flags().StringVar(&statePath, "state-path", "", "Directory holding subscription record files")
	cmd.Flags().StringVar(&listenAddress, "listen-address", ":8500", "Address the Subscription Manager HTTP API listens on")

	_ = cmd.MarkFlagRequired("state-path")
	_ = cmd.MarkFlagRequired("listen-address")

	return &cmd
}

func run(statePath, listenAddress string) error {
	ambient, err := config.Load()
	if err != nil {
		return err
	}
	log := telemetry.NewLogger("subscription-manager", ambient.LogLevel)
	metrics := telemetry.NewMetrics()

	st, err := store.New(statePath, log, metrics.StoreOperations)
	if err != nil {
		return fmt.Errorf("service: opening subscription store: %w", err)
	}

	handler := manager.NewHandler(st, statePath, log)

	log.Info("starting subscription manager service", "listen_address", listenAddress, "state_path", statePath)
	return http.ListenAndServe(listenAddress, handler.Routes()) //nolint:gosec
}
