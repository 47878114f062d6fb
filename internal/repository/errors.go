package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an insert violates a uniqueness
	// constraint (fingerprint id, email, station name/code, fare pair).
	ErrDuplicate = errors.New("entity already exists")
)
