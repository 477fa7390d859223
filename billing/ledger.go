/*
ledger.go - Append-only schedule entry log

PURPOSE:
  The EntryLedger is the one write path for schedule entries. Every rent,
  deposit and deposit-return obligation goes through Append, which stamps
  ids and creation times and rejects entries that break the payment-type
  contract before they reach the store.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No update, no delete. Corrections are compensating
     entries (see lettings). Holding-deposit reduction is the single
     sanctioned exception and bypasses this interface deliberately.
  2. AMOUNTS ARE SETTLED: 2 d.p., and signed by type. Deposits are
     positive, deposit returns negative. Rent is positive as generated;
     a compensating amendment may carry either sign.
  3. COVERAGE MATCHES TYPE: Rent entries carry a covered period; point
     obligations (deposit, deposit return) never do.

SEE ALSO:
  - store.go: Low-level persistence interface
  - ../lettings/ledger.go: Domain wrapper with run-once guards
*/
package billing

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// ENTRY LEDGER - Append-only entry log
// =============================================================================

type EntryLedger interface {
	// Append validates, stamps and persists a batch atomically. The
	// returned slice carries the assigned ids and creation times.
	Append(ctx context.Context, entries []ScheduleEntry) ([]ScheduleEntry, error)

	// Entries returns every entry for a tenancy, ordered by due date.
	Entries(ctx context.Context, tenancyID TenancyID) ([]ScheduleEntry, error)

	// EntriesForMember narrows to one member's schedule.
	EntriesForMember(ctx context.Context, tenancyID TenancyID, memberID MemberID) ([]ScheduleEntry, error)

	// EntriesByType narrows to one payment type; the deposit-return
	// run-once guard reads through this.
	EntriesByType(ctx context.Context, tenancyID TenancyID, pt PaymentType) ([]ScheduleEntry, error)
}

// =============================================================================
// DEFAULT LEDGER - Implementation using Store
// =============================================================================

type DefaultLedger struct {
	Store Store
}

func NewLedger(store Store) *DefaultLedger {
	return &DefaultLedger{Store: store}
}

func (l *DefaultLedger) Append(ctx context.Context, entries []ScheduleEntry) ([]ScheduleEntry, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyAppend
	}

	now := time.Now().UTC()
	stamped := make([]ScheduleEntry, len(entries))
	for i, e := range entries {
		if err := validateEntry(e); err != nil {
			return nil, err
		}
		if e.ID == "" {
			e.ID = newEntryID(now, i)
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		e.AmountDue = e.AmountDue.Round2()
		stamped[i] = e
	}

	if err := l.Store.AppendEntries(ctx, stamped); err != nil {
		return nil, err
	}
	return stamped, nil
}

func (l *DefaultLedger) Entries(ctx context.Context, tenancyID TenancyID) ([]ScheduleEntry, error) {
	return l.Store.EntriesFor(ctx, tenancyID)
}

func (l *DefaultLedger) EntriesForMember(ctx context.Context, tenancyID TenancyID, memberID MemberID) ([]ScheduleEntry, error) {
	return l.Store.EntriesForMember(ctx, tenancyID, memberID)
}

func (l *DefaultLedger) EntriesByType(ctx context.Context, tenancyID TenancyID, pt PaymentType) ([]ScheduleEntry, error) {
	return l.Store.EntriesByType(ctx, tenancyID, pt)
}

// validateEntry enforces the payment-type contract at the write boundary.
func validateEntry(e ScheduleEntry) error {
	if e.TenancyID == "" || e.MemberID == "" {
		return &InvalidTermsError{Reason: "entry must carry tenancy and member ids"}
	}
	if !e.PaymentType.IsValid() {
		return &InvalidTermsError{Reason: fmt.Sprintf("unknown payment type %q", e.PaymentType)}
	}
	if e.DueDate.IsZero() {
		return &InvalidTermsError{Reason: "entry must carry a due date"}
	}

	switch e.PaymentType {
	case PaymentDeposit:
		if !e.AmountDue.IsPositive() {
			return &InvalidTermsError{Reason: "deposit amount must be positive"}
		}
	case PaymentDepositReturn:
		if !e.AmountDue.IsNegative() {
			return &InvalidTermsError{Reason: "deposit return amount must be negative"}
		}
	case PaymentRent:
		if e.AmountDue.IsZero() {
			return &InvalidTermsError{Reason: "rent amount must not be zero"}
		}
	}

	_, hasCoverage := e.Coverage()
	if e.PaymentType.HasCoverage() && !hasCoverage {
		return &InvalidTermsError{Reason: "rent entry must carry a covered period"}
	}
	if !e.PaymentType.HasCoverage() && hasCoverage {
		return &InvalidTermsError{Reason: fmt.Sprintf("%s entry must not carry a covered period", e.PaymentType)}
	}
	if hasCoverage && e.CoversTo.Before(*e.CoversFrom) {
		return &InvalidTermsError{Reason: "coverage must not end before it starts"}
	}
	return nil
}

func newEntryID(at time.Time, i int) EntryID {
	return EntryID(fmt.Sprintf("ent-%d-%02d", at.UnixNano(), i))
}
