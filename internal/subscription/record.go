// Package subscription implements the Subscription Record value type
// (spec.md §3, §4.A): an immutable, field-validated descriptor of a
// customer's storage-grid entitlement.
//
// Grounded on SubscriptionDetails / SubscriptionDatabase._subscription_state
// in _examples/original_source/lae_automation/subscription_manager.py.
package subscription

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// PartialDetails is the caller-supplied portion of a subscription record —
// everything except the id (which is chosen by the caller but carried
// out-of-band as a path/map key) and the store-assigned fields (ports,
// active). This is the shape of a PUT request body in the Subscription
// Manager HTTP API (spec.md §4.C).
type PartialDetails struct {
	CustomerID    string `json:"customer_id" validate:"required"`
	ProductID     string `json:"product_id" validate:"required"`
	CustomerEmail string `json:"email" validate:"required,email"`
	BucketName    string `json:"bucket_name" validate:"required"`
	OldSecrets    string `json:"oldsecrets"`
}

// Validate runs struct-tag validation on the partial details.
func (d PartialDetails) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDetails, err.Error())
	}
	return nil
}

// Record is the complete, immutable Subscription Record (spec.md §3).
// Once constructed it is never mutated in place; Deactivated returns a copy
// with Active set to false.
type Record struct {
	ID            string `json:"subscription_id"`
	CustomerID    string `json:"customer_id"`
	ProductID     string `json:"product_id"`
	CustomerEmail string `json:"email"`
	BucketName    string `json:"bucket_name"`
	OldSecrets    string `json:"oldsecrets"`

	IntroducerPortNumber int  `json:"introducer_port_number" validate:"gte=10000,lte=65535"`
	StoragePortNumber    int  `json:"storage_port_number" validate:"gte=10001,lte=65535"`
	Active               bool `json:"active"`
}

// New builds a complete Record from an id, its partial details, and the
// port pair assigned by the Subscription Store (spec.md §4.B invariant 1).
// The returned record is always Active: a record is only ever constructed
// through creation, and creation always produces an active subscription.
func New(id string, details PartialDetails, introducerPort, storagePort int) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("%w: subscription id must not be empty", ErrInvalidDetails)
	}
	if err := details.Validate(); err != nil {
		return Record{}, err
	}

	r := Record{
		ID:                   id,
		CustomerID:           details.CustomerID,
		ProductID:            details.ProductID,
		CustomerEmail:        details.CustomerEmail,
		BucketName:           details.BucketName,
		OldSecrets:           details.OldSecrets,
		IntroducerPortNumber: introducerPort,
		StoragePortNumber:    storagePort,
		Active:               true,
	}

	if err := validate.Struct(r); err != nil {
		return Record{}, fmt.Errorf("%w: %s", ErrInvalidDetails, err.Error())
	}
	if r.StoragePortNumber != r.IntroducerPortNumber+1 {
		return Record{}, fmt.Errorf("%w: storage port must be introducer port + 1", ErrInvalidDetails)
	}

	return r, nil
}

// Deactivated returns a copy of the record with Active set to false. It
// never mutates the receiver, keeping Record's "constructed once, compared
// by field equality" contract (spec.md §4.A) intact.
func (r Record) Deactivated() Record {
	r.Active = false
	return r
}

// PortPair returns the record's (introducer, storage) port pair.
func (r Record) PortPair() (int, int) {
	return r.IntroducerPortNumber, r.StoragePortNumber
}
