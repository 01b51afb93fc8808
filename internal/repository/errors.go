package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a compare-and-set write finds the persisted
	// status differs from the expected one. The caller must re-read current
	// state and decide again; blind retries are never correct.
	ErrConflict = errors.New("status conflict: persisted state does not match expected")

	// ErrDuplicate is returned when a uniqueness constraint rejects a write
	// (e.g. a second hold for the same trip).
	ErrDuplicate = errors.New("entity already exists")
)
