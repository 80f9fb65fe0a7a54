package subscription

import (
	"encoding/json"
	"fmt"
)

// envelope is the on-disk/wire wrapper around a Record, per spec.md §6:
// {"version": 1, "details": {...}}. Grounded on the versioned dict literal
// built by SubscriptionDatabase._subscription_state in
// _examples/original_source/lae_automation/subscription_manager.py, which
// this package generalizes into an explicit version switch instead of
// Python's implicit dict shape.
type envelope struct {
	Version int             `json:"version"`
	Details json.RawMessage `json:"details"`
}

// Marshal encodes a Record into its version-1 envelope.
func Marshal(r Record) ([]byte, error) {
	details, err := json.Marshal(detailsV1{
		Active:               r.Active,
		ID:                   r.ID,
		BucketName:           r.BucketName,
		OldSecrets:           r.OldSecrets,
		Email:                r.CustomerEmail,
		ProductID:            r.ProductID,
		CustomerID:           r.CustomerID,
		SubscriptionID:       r.ID,
		IntroducerPortNumber: r.IntroducerPortNumber,
		StoragePortNumber:    r.StoragePortNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSerialization, err.Error())
	}

	buf, err := json.Marshal(envelope{Version: 1, Details: details})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSerialization, err.Error())
	}
	return buf, nil
}

// Unmarshal decodes a Record from its envelope, dispatching on the
// envelope's version field via an explicit switch (spec.md §4.H's
// "Dynamic dispatch on version tag → explicit match" redesign flag).
// Unknown versions fail loudly rather than being coerced.
func Unmarshal(data []byte) (Record, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Record{}, fmt.Errorf("%w: %s", ErrSerialization, err.Error())
	}

	switch env.Version {
	case 1:
		return loadV1(env.Details)
	default:
		return Record{}, fmt.Errorf("%w: unsupported record version %d", ErrSerialization, env.Version)
	}
}

// detailsV1 is the version-1 on-disk shape of a record's details object.
type detailsV1 struct {
	Active               bool   `json:"active"`
	ID                   string `json:"id"`
	BucketName           string `json:"bucket_name"`
	OldSecrets           string `json:"oldsecrets"`
	Email                string `json:"email"`
	ProductID            string `json:"product_id"`
	CustomerID           string `json:"customer_id"`
	SubscriptionID       string `json:"subscription_id"`
	IntroducerPortNumber int    `json:"introducer_port_number"`
	StoragePortNumber    int    `json:"storage_port_number"`
}

func loadV1(raw json.RawMessage) (Record, error) {
	var d detailsV1
	if err := json.Unmarshal(raw, &d); err != nil {
		return Record{}, fmt.Errorf("%w: %s", ErrSerialization, err.Error())
	}

	id := d.SubscriptionID
	if id == "" {
		id = d.ID
	}

	r := Record{
		ID:                   id,
		CustomerID:           d.CustomerID,
		ProductID:            d.ProductID,
		CustomerEmail:        d.Email,
		BucketName:           d.BucketName,
		OldSecrets:           d.OldSecrets,
		IntroducerPortNumber: d.IntroducerPortNumber,
		StoragePortNumber:    d.StoragePortNumber,
		Active:               d.Active,
	}
	return r, nil
}
