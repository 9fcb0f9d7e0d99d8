package service

import (
	"errors"
	"fmt"
)

// Service-level errors
var (
	// ErrValidation marks a request rejected before any I/O
	ErrValidation = errors.New("validation failed")
	// ErrReconcileFailed marks a successful note update whose follow-up
	// purchase order reconciliation failed. The note update stands, only
	// the PO tonnage summary is stale.
	ErrReconcileFailed = errors.New("purchase order reconciliation failed")
	// ErrInvalidCredentials is returned on a failed login
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAlreadyBootstrapped is returned when an administrator already exists
	ErrAlreadyBootstrapped = errors.New("administrator account already exists")
)

func errInvalidCompany(company string) error {
	return fmt.Errorf("%w: unknown company %q", ErrValidation, company)
}

var errConflictingPOFields = fmt.Errorf("%w: po_number and clear_po are mutually exclusive", ErrValidation)
