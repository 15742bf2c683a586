package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Concrete errors wrap one of these so callers can classify
// them with errors.Is without knowing every sentinel.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrValidation       = errors.New("validation error")
	ErrStoreUnavailable = errors.New("store unavailable")
)

var (
	ErrUnauthorized = fmt.Errorf("resource belongs to another user: %w", ErrForbidden)
	ErrNoRecords    = fmt.Errorf("no goals or tasks to export: %w", ErrNotFound)
)

// StoreError wraps a persistence failure so it is reported as ErrStoreUnavailable.
func StoreError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
