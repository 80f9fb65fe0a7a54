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

/*
subctl is an operator-facing inspection CLI for the Subscription Manager
Service, recovering the kubectl-cnpg-style operational surface the
teacher provides for its own operator but which the bare HTTP API alone
does not (SPEC_FULL.md "CLI output").
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/cheynewallace/tabby"
	"github.com/logrusorgru/aurora/v3"
	"github.com/spf13/cobra"

	"github.com/leastauthority/gridconverge/internal/cmd/versions"
	"github.com/leastauthority/gridconverge/internal/managerclient"
	"github.com/leastauthority/gridconverge/internal/subscription"
)

func main() {
	var endpoint string

	root := &cobra.Command{
		Use:          "subctl [cmd]",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&endpoint, "endpoint", "http://localhost:8500", "Base URL of the subscription manager service")

	root.AddCommand(newListCmd(&endpoint))
	root.AddCommand(newGetCmd(&endpoint))
	root.AddCommand(newCreateCmd(&endpoint))
	root.AddCommand(newDeactivateCmd(&endpoint))
	root.AddCommand(versions.NewCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func client(endpoint string) *managerclient.NetworkClient {
	return managerclient.NewNetworkClient(endpoint, http.DefaultClient)
}

func newListCmd(endpoint *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := client(*endpoint).List(context.Background())
			if err != nil {
				return err
			}
			printTable(records)
			return nil
		},
	}
}

func newGetCmd(endpoint *string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := client(*endpoint).Get(context.Background(), args[0])
			if err != nil {
				return err
			}
			printTable([]subscription.Record{rec})
			return nil
		},
	}
}

func newCreateCmd(endpoint *string) *cobra.Command {
	var customerID, productID, email, bucket string

	cmd := &cobra.Command{
		Use:   "create <id>",
		Short: "Create a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			details := subscription.PartialDetails{
				CustomerID:    customerID,
				ProductID:     productID,
				CustomerEmail: email,
				BucketName:    bucket,
			}
			return client(*endpoint).Create(context.Background(), args[0], details)
		},
	}

	cmd.Flags().StringVar(&customerID, "customer-id", "", "Customer id")
	cmd.Flags().StringVar(&productID, "product-id", "", "Product id")
	cmd.Flags().StringVar(&email, "email", "", "Customer email")
	cmd.Flags().StringVar(&bucket, "bucket-name", "", "Storage bucket name")

	return cmd
}

func newDeactivateCmd(endpoint *string) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Deactivate a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client(*endpoint).Delete(context.Background(), args[0])
		},
	}
}

// printTable renders subscriptions in a column-aligned table, printing
// the ACTIVE value of deactivated subscriptions in red so an operator
// scanning a long listing can spot them.
func printTable(records []subscription.Record) {
	t := tabby.New()
	t.AddHeader("ID", "CUSTOMER", "PRODUCT", "INTRODUCER", "STORAGE", "ACTIVE")
	for _, r := range records {
		active := fmt.Sprintf("%v", r.Active)
		if !r.Active {
			active = aurora.Red(active).String()
		}
		t.AddLine(r.ID, r.CustomerID, r.ProductID, r.IntroducerPortNumber, r.StoragePortNumber, active)
	}
	t.Print()
}
