package domain

import "errors"

var (
	// ErrNotFound document absent; profile fetch treats it as "create default",
	// matching treats it as "no candidate"
	ErrNotFound = errors.New("document not found")

	// ErrSeatTaken lost the join race, caller retries matching elsewhere
	ErrSeatTaken = errors.New("seat already taken")

	// ErrStoreUnavailable transient store failure, operation abandoned for this call
	ErrStoreUnavailable = errors.New("document store unavailable")
)
