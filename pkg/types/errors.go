package types

import "errors"

// Entity errors.
var (
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidID       = errors.New("invalid entity ID")
	ErrInvalidData     = errors.New("invalid entity data")
	ErrDuplicateID     = errors.New("duplicate entity ID")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrInvalidAgeGroup = errors.New("invalid age group")
	ErrOrphanAnswer    = errors.New("discussion answer references unknown memory")
)

// Backend lifecycle errors.
var (
	ErrBackendDetached = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)
