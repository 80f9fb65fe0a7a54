// Package managerclient implements the Subscription Manager Client
// (spec.md §4.D): two variants — network and in-memory — sharing an
// identical protocol against the Subscription Manager Service.
//
// Grounded on the Client/network_client/memory_client trio in
// _examples/original_source/lae_automation/subscription_manager.py,
// translated from Twisted Deferred chains into context-carrying blocking
// calls, per spec.md §9's "structured concurrency" note.
package managerclient

import (
	"context"
	"fmt"

	"github.com/leastauthority/gridconverge/internal/subscription"
)

// Client is the Subscription Manager protocol surface, implemented
// identically by the network and in-memory variants (spec.md §4.D).
type Client interface {
	Create(ctx context.Context, id string, details subscription.PartialDetails) error
	Get(ctx context.Context, id string) (subscription.Record, error)
	List(ctx context.Context) ([]subscription.Record, error)
	Delete(ctx context.Context, id string) error
}

// UnexpectedResponseCode is returned when a Subscription Manager response
// carries a status code other than the one the operation's contract
// requires (spec.md §4.D).
type UnexpectedResponseCode struct {
	Operation string
	Want      int
	Got       int
	Body      string
}

func (e *UnexpectedResponseCode) Error() string {
	return fmt.Sprintf("managerclient: %s: want status %d, got %d: %s", e.Operation, e.Want, e.Got, e.Body)
}
