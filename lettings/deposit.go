/*
Deposit lifecycle: return scheduling, holding-deposit credit, amendments.

PURPOSE:
  Deposits bracket the tenancy. Intake is booked by the orchestrator a
  week before move-in; this file handles everything after: scheduling the
  refund once the keys come back, crediting a pre-signing holding deposit
  against the first rent, and issuing compensating entries when a
  persisted amount turns out wrong.

KEY CONCEPTS:
  - Deposit return is run-once per tenancy: keys are handed back exactly
    once, so a second run is a DuplicateReturnError, surfaced as a
    conflict upstream.
  - The refund window is 14 days from key return, per the deposit
    protection rules the agency operates under.
  - The holding-deposit credit is the ledger's only in-place mutation,
    and only of a member's first rent entry, exactly once per member. A
    credit that would zero out or invert the entry is rejected.
  - Everything else is corrected by appending a signed delta entry that
    references the original in its description.
*/
package lettings

import (
	"context"

	"github.com/hearth/schedule-engine/billing"
)

// depositReturnLagDays is how long after key return the refund falls due.
const depositReturnLagDays = 14

// =============================================================================
// DEPOSIT RETURN
// =============================================================================

// DepositScheduler books deposit refunds at the end of a tenancy.
type DepositScheduler struct {
	store billing.TxStore
}

func NewDepositScheduler(store billing.TxStore) *DepositScheduler {
	return &DepositScheduler{store: store}
}

// ScheduleReturn books one negative deposit-return entry per member who
// paid a deposit, due 14 days after the key-return date. Run-once: any
// existing deposit-return entry for the tenancy aborts the whole call.
func (d *DepositScheduler) ScheduleReturn(ctx context.Context, tenancyID billing.TenancyID, keyReturn billing.Date, actor string) ([]billing.ScheduleEntry, error) {
	var created []billing.ScheduleEntry
	err := d.store.WithTx(ctx, func(s billing.Store) error {
		if _, err := s.GetTenancy(ctx, tenancyID); err != nil {
			return err
		}
		existing, err := s.EntriesByType(ctx, tenancyID, billing.PaymentDepositReturn)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return &billing.DuplicateReturnError{TenancyID: tenancyID, Existing: len(existing)}
		}
		members, err := s.MembersOf(ctx, tenancyID)
		if err != nil {
			return err
		}

		due := keyReturn.AddDays(depositReturnLagDays)
		var returns []billing.ScheduleEntry
		for _, member := range members {
			if !member.DepositAmount.IsPositive() {
				continue
			}
			returns = append(returns, billing.ScheduleEntry{
				TenancyID:   tenancyID,
				MemberID:    member.MemberID,
				PaymentType: billing.PaymentDepositReturn,
				DueDate:     due,
				AmountDue:   member.DepositAmount.Neg(),
				Description: "Deposit return",
			})
		}
		if len(returns) == 0 {
			return nil
		}
		created, err = billing.NewLedger(s).Append(ctx, returns)
		if err != nil {
			return err
		}
		return s.AppendAudit(ctx, newAudit(actor, billing.AuditDepositReturnScheduled, tenancyID, "", map[string]any{
			"key_return": keyReturn.String(),
			"due":        due.String(),
			"entries":    len(created),
		}))
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// =============================================================================
// HOLDING DEPOSIT
// =============================================================================

// ApplyHoldingDeposit credits a holding deposit taken before signing
// against the member's first rent entry, reducing its amount in place.
// Applied at most once per member; the audit trail is the record of
// application. A credit meeting or exceeding the first rent is rejected:
// refund the difference out of band instead of booking negative rent.
func (l *ScheduleLedger) ApplyHoldingDeposit(ctx context.Context, tenancyID billing.TenancyID, memberID billing.MemberID, amount billing.Money, actor string) (*billing.ScheduleEntry, error) {
	if !amount.IsPositive() {
		return nil, &billing.InvalidTermsError{Reason: "holding deposit must be positive"}
	}

	var updated *billing.ScheduleEntry
	err := l.store.WithTx(ctx, func(s billing.Store) error {
		audits, err := s.AuditFor(ctx, tenancyID)
		if err != nil {
			return err
		}
		for _, a := range audits {
			if a.Action == billing.AuditHoldingDepositApplied && a.MemberID == memberID {
				return billing.ErrHoldingDepositApplied
			}
		}

		first, err := firstRentEntry(ctx, s, tenancyID, memberID)
		if err != nil {
			return err
		}
		reduced := first.AmountDue.Sub(amount).Round2()
		if !reduced.IsPositive() {
			return billing.ErrHoldingDepositTooLarge
		}
		if err := s.UpdateEntryAmount(ctx, first.ID, reduced); err != nil {
			return err
		}
		first.AmountDue = reduced
		updated = first
		return s.AppendAudit(ctx, newAudit(actor, billing.AuditHoldingDepositApplied, tenancyID, memberID, map[string]any{
			"entry":   string(first.ID),
			"credit":  amount.String(),
			"reduced": reduced.String(),
		}))
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// firstRentEntry finds the member's earliest-due rent entry. Stores keep
// entries due-date ordered, so the first rent hit is the one.
func firstRentEntry(ctx context.Context, s billing.Store, tenancyID billing.TenancyID, memberID billing.MemberID) (*billing.ScheduleEntry, error) {
	entries, err := s.EntriesForMember(ctx, tenancyID, memberID)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].PaymentType == billing.PaymentRent {
			return &entries[i], nil
		}
	}
	return nil, billing.ErrEntryNotFound
}

// =============================================================================
// COMPENSATING AMENDMENTS
// =============================================================================

// CompensateEntry corrects a rent entry by appending a signed delta
// entry rather than rewriting history. The delta carries the original's
// coverage, falls due immediately, and may be negative (a credit). A
// target amount equal to the current one is rejected.
func (l *ScheduleLedger) CompensateEntry(ctx context.Context, entryID billing.EntryID, newAmount billing.Money, reason, actor string) (*billing.ScheduleEntry, error) {
	var created *billing.ScheduleEntry
	err := l.store.WithTx(ctx, func(s billing.Store) error {
		original, err := s.GetEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if original.PaymentType != billing.PaymentRent {
			return &billing.InvalidTermsError{Reason: "only rent entries can be amended"}
		}
		delta := newAmount.Sub(original.AmountDue).Round2()
		if delta.IsZero() {
			return &billing.InvalidTermsError{Reason: "amendment matches the current amount"}
		}

		amendment := billing.ScheduleEntry{
			TenancyID:   original.TenancyID,
			MemberID:    original.MemberID,
			PaymentType: billing.PaymentRent,
			DueDate:     billing.Today(),
			AmountDue:   delta,
			Description: "Adjustment - " + original.Description,
		}
		if covered, ok := original.Coverage(); ok {
			amendment = amendment.WithCoverage(covered)
		}
		out, err := billing.NewLedger(s).Append(ctx, []billing.ScheduleEntry{amendment})
		if err != nil {
			return err
		}
		created = &out[0]
		return s.AppendAudit(ctx, newAudit(actor, billing.AuditEntryCompensated, original.TenancyID, original.MemberID, map[string]any{
			"original": string(original.ID),
			"delta":    delta.String(),
			"reason":   reason,
		}))
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
