package collection

import (
	"fmt"

	"teko/internal/services"
)

var (
	// ErrUnauthorized is returned when no owner is supplied.
	ErrUnauthorized = fmt.Errorf("collection: no authenticated owner: %w", services.ErrUnauthorized)
	// ErrInvalidRecord is returned when a draft violates the record invariants.
	ErrInvalidRecord = fmt.Errorf("collection: invalid record: %w", services.ErrValidation)
	// ErrNotFound is returned when the record does not exist for the owner.
	ErrNotFound = fmt.Errorf("collection: record %w", services.ErrNotFound)
)
