// Package converger implements the Converger (spec.md §4.H): the
// periodic reconciliation loop that diffs declared subscription state
// against realized cluster state and applies the difference across the
// Orchestrator, DNS, and Service Patch Algebra components.
//
// Grounded on converge()/apply_service_changes() in
// _examples/original_source/lae_automation/subscription_converger.py,
// translated from Twisted's @inlineCallbacks generator into a plain
// blocking Go function per spec.md §9's "structured concurrency" note.
package converger

import (
	"github.com/leastauthority/gridconverge/internal/orchestrator"
	"github.com/leastauthority/gridconverge/internal/subscription"
	"github.com/leastauthority/gridconverge/pkg/stringset"
)

// Diff is the result of comparing desired subscription state against
// realized deployment state (spec.md §4.H step 3).
type Diff struct {
	CreateSet *stringset.Data
	DeleteSet *stringset.Data
}

// ComputeDiff implements spec.md §4.H step 3 exactly as corrected by its
// own Open Question resolution: unlike the Python original's
// compute_changes (which computes extra ← actual−desired mapped to
// Create and missing ← desired−actual mapped to Delete — inverted), this
// walks realized deployments directly against desired subscriptions:
//
//   - createSet starts as every desired id.
//   - for each realized deployment: if its subscription id is not
//     desired, add it to deleteSet (createSet is untouched); otherwise
//     remove it from createSet (it is already realized), and if its
//     ports don't match the desired pair, mark it for destroy-and-recreate
//     by adding it to both sets.
func ComputeDiff(desired map[string]subscription.Record, realized []orchestrator.DeploymentDescriptor) Diff {
	createSet := stringset.FromKeys(desired)
	deleteSet := stringset.New()

	for _, d := range realized {
		want, ok := desired[d.SubscriptionID]
		if !ok {
			deleteSet.Put(d.SubscriptionID)
			continue
		}

		createSet.Delete(d.SubscriptionID)

		if int(d.IntroducerPort) != want.IntroducerPortNumber || int(d.StoragePort) != want.StoragePortNumber {
			deleteSet.Put(d.SubscriptionID)
			createSet.Put(d.SubscriptionID)
		}
	}

	return Diff{CreateSet: createSet, DeleteSet: deleteSet}
}
