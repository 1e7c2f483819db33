package types

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Lease errors
	ErrAlreadyLeased        = errors.New("resource is already leased")
	ErrInvalidLeaseDuration = errors.New("invalid lease duration")

	// Reclaim errors
	ErrNotYetExpired = errors.New("lease has not yet expired")

	// Registry errors
	ErrUnknownResource   = errors.New("unknown resource")
	ErrDuplicateResource = errors.New("resource already registered")
)

// access was attempted while the resource is validly leased to another holder
// recoverable: retry after ExpiresAt, or negotiate with the holder
type SovereigntyViolationError struct {
	Holder    HolderID
	ExpiresAt time.Duration
}

func (e *SovereigntyViolationError) Error() string {
	return fmt.Sprintf("resource leased to holder %s until %s", e.Holder, e.ExpiresAt)
}

// access was attempted on an expired lease that nobody reclaimed yet
// expiry never grants access implicitly: recover by calling Reclaim first
type LeaseExpiredError struct {
	Holder HolderID
}

func (e *LeaseExpiredError) Error() string {
	return fmt.Sprintf("lease held by %s expired but not reclaimed", e.Holder)
}

// a declared invariant failed after a mutation
// the mutation has already been observed; rollback is the caller's problem
type InvariantViolationError struct {
	Description string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violated: %s", e.Description)
}
