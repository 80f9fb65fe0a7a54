// Package dnsadapter implements the DNS Adapter (spec.md §4.G): creates
// and destroys the public DNS record for each subscription's front-end
// service endpoint.
//
// Grounded on get_route53_client(aws)/route53.destroy/route53.create in
// _examples/original_source/lae_automation/subscription_converger.py.
// No repo in the retrieval pack carries working Route 53 call sites —
// aws-sdk-go-v2/service/route53 is declared (but unused) by
// ianzhang366-multicloud-operators-subscription's go.mod — so the client
// construction and request shapes here follow the AWS SDK v2's own
// documented route53.Client/ChangeResourceRecordSetsInput contract
// rather than a pack-internal usage example.
package dnsadapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
)

// Route53API is the subset of *route53.Client the Adapter depends on,
// narrowed for testability.
type Route53API interface {
	ChangeResourceRecordSets(ctx context.Context, params *route53.ChangeResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error)
}

// Adapter creates and destroys per-subscription DNS records in a single
// hosted zone, all pointing at the same front-end service endpoint.
type Adapter struct {
	client       Route53API
	hostedZoneID string
	domainSuffix string
	target       string
	ttl          int64
}

// New builds an Adapter. domainSuffix is appended to each subscription
// id to form its record name; target is the CNAME value every record
// points at (the cluster's public-facing load balancer hostname).
func New(client Route53API, hostedZoneID, domainSuffix, target string) *Adapter {
	return &Adapter{client: client, hostedZoneID: hostedZoneID, domainSuffix: domainSuffix, target: target, ttl: 300}
}

func (a *Adapter) recordName(subscriptionID string) string {
	return subscriptionID + "." + a.domainSuffix
}

// Create ensures each subscription has a public DNS record. UPSERT makes
// re-creating an existing record a no-op (spec.md §4.G).
func (a *Adapter) Create(ctx context.Context, subscriptionIDs []string) error {
	return a.change(ctx, subscriptionIDs, types.ChangeActionUpsert)
}

// Destroy removes each subscription's DNS record. A record that does not
// exist is treated as success (spec.md §4.G): Route 53 returns
// InvalidChangeBatch for a DELETE against a non-matching record set, and
// that case is deliberately swallowed here. Each record is deleted in its
// own request, since Route 53 rejects a whole batch when one of its
// changes fails.
func (a *Adapter) Destroy(ctx context.Context, subscriptionIDs []string) error {
	for _, id := range subscriptionIDs {
		err := a.change(ctx, []string{id}, types.ChangeActionDelete)
		var apiErr *types.InvalidChangeBatch
		if err != nil && !errors.As(err, &apiErr) {
			return err
		}
	}
	return nil
}

func (a *Adapter) change(ctx context.Context, subscriptionIDs []string, action types.ChangeAction) error {
	if len(subscriptionIDs) == 0 {
		return nil
	}

	changes := make([]types.Change, 0, len(subscriptionIDs))
	for _, id := range subscriptionIDs {
		changes = append(changes, types.Change{
			Action: action,
			ResourceRecordSet: &types.ResourceRecordSet{
				Name: aws.String(a.recordName(id)),
				Type: types.RRTypeCname,
				TTL:  aws.Int64(a.ttl),
				ResourceRecords: []types.ResourceRecord{
					{Value: aws.String(a.target)},
				},
			},
		})
	}

	_, err := a.client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(a.hostedZoneID),
		ChangeBatch: &types.ChangeBatch{
			Changes: changes,
		},
	})
	if err != nil {
		return fmt.Errorf("dnsadapter: %s: %w", action, err)
	}
	return nil
}
