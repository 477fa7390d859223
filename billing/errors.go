/*
errors.go - Centralized error types for the billing engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The lettings package wraps these with domain context; the API maps
  them onto HTTP status codes.

ERROR CATEGORIES:
  1. Generation errors - Invalid cadence or terms reaching a generator
  2. Run-once errors - Duplicate schedule or deposit-return generation
  3. Store errors - Missing tenancies, members, entries

USAGE:
  Callers branch with errors.Is:

    if errors.Is(err, billing.ErrDuplicateDepositReturn) {
        // surface 409, nothing was written
    }

SEE ALSO:
  - ledger.go: Uses these errors
  - lettings/ledger.go: Wraps these errors with domain context
*/
package billing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownCadence is returned when a payment option outside the closed
	// cadence set reaches dispatch. Generation for that member aborts; there
	// is deliberately no default cadence.
	ErrUnknownCadence = errors.New("unknown payment cadence")

	// ErrInvalidTerms is returned for tenancy terms that fail boundary
	// validation: end on or before start, an end date on a rolling tenancy,
	// or a negative rate or deposit.
	ErrInvalidTerms = errors.New("invalid tenancy terms")

	// ErrScheduleExists is returned when rent-schedule generation runs a
	// second time for the same tenancy. The first schedule stands.
	ErrScheduleExists = errors.New("schedule already generated")

	// ErrDuplicateDepositReturn is returned when deposit-return generation
	// runs a second time for the same tenancy.
	ErrDuplicateDepositReturn = errors.New("deposit return already scheduled")

	// ErrHoldingDepositApplied is returned when a member's holding deposit
	// has already been credited against their first rent entry.
	ErrHoldingDepositApplied = errors.New("holding deposit already applied")

	// ErrHoldingDepositTooLarge is returned when the holding deposit meets
	// or exceeds the first rent entry's amount.
	ErrHoldingDepositTooLarge = errors.New("holding deposit exceeds first rent amount")

	// ErrTenancyNotFound is returned when a referenced tenancy doesn't exist.
	ErrTenancyNotFound = errors.New("tenancy not found")

	// ErrMemberNotFound is returned when a referenced member doesn't exist.
	ErrMemberNotFound = errors.New("member not found")

	// ErrEntryNotFound is returned when a referenced schedule entry doesn't exist.
	ErrEntryNotFound = errors.New("schedule entry not found")

	// ErrNoMembers is returned when generation is requested for a tenancy
	// with no billable members.
	ErrNoMembers = errors.New("tenancy has no members")

	// ErrEmptyAppend is returned when a ledger append carries no entries.
	ErrEmptyAppend = errors.New("no entries to append")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnknownCadenceError reports the offending value and, when known, whose
// terms carried it.
type UnknownCadenceError struct {
	Cadence  string
	MemberID MemberID
}

func (e *UnknownCadenceError) Error() string {
	if e.MemberID != "" {
		return fmt.Sprintf("unknown payment cadence %q for member %s", e.Cadence, e.MemberID)
	}
	return fmt.Sprintf("unknown payment cadence %q", e.Cadence)
}

func (e *UnknownCadenceError) Unwrap() error { return ErrUnknownCadence }

// InvalidTermsError explains which boundary rule the terms broke.
type InvalidTermsError struct {
	Reason string
}

func (e *InvalidTermsError) Error() string {
	return fmt.Sprintf("invalid tenancy terms: %s", e.Reason)
}

func (e *InvalidTermsError) Unwrap() error { return ErrInvalidTerms }

// DuplicateReturnError reports how many deposit-return entries already
// exist for the tenancy.
type DuplicateReturnError struct {
	TenancyID TenancyID
	Existing  int
}

func (e *DuplicateReturnError) Error() string {
	return fmt.Sprintf("deposit return already scheduled for tenancy %s (%d existing entries)",
		e.TenancyID, e.Existing)
}

func (e *DuplicateReturnError) Unwrap() error { return ErrDuplicateDepositReturn }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsDuplicate returns true for run-once violations: the requested
// generation has already happened and nothing was written.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrScheduleExists) ||
		errors.Is(err, ErrDuplicateDepositReturn) ||
		errors.Is(err, ErrHoldingDepositApplied)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownCadence) ||
		errors.Is(err, ErrInvalidTerms) ||
		errors.Is(err, ErrHoldingDepositTooLarge) ||
		errors.Is(err, ErrNoMembers) ||
		errors.Is(err, ErrEmptyAppend)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTenancyNotFound) ||
		errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrEntryNotFound)
}
