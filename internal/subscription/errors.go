package subscription

import "errors"

// Sentinel errors returned by the subscription store and manager, per
// spec.md §7. Callers should use errors.Is to test for these.
var (
	// ErrNotFound is returned when a subscription id has no record.
	ErrNotFound = errors.New("subscription: not found")

	// ErrAlreadyExists is returned when a subscription id is already taken.
	ErrAlreadyExists = errors.New("subscription: already exists")

	// ErrExhausted is returned when the store cannot allocate a new port
	// pair because the next introducer port would reach the top of the
	// port range.
	ErrExhausted = errors.New("subscription: port space exhausted")

	// ErrSerialization is returned when a record cannot be encoded to or
	// decoded from its on-disk or wire representation.
	ErrSerialization = errors.New("subscription: serialization error")

	// ErrInvalidDetails is returned when caller-supplied details fail
	// validation.
	ErrInvalidDetails = errors.New("subscription: invalid details")
)
