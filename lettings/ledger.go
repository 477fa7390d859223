/*
Guarded schedule persistence over a transactional store.

PURPOSE:
  ScheduleLedger is the write path for everything schedule-shaped. It
  wraps a billing.TxStore so each operation lands atomically, enforces
  the run-once guards, and records an audit entry for every mutation.

KEY CONCEPTS:
  - Run-once: a tenancy's schedule is generated exactly once. Re-running
    returns ErrScheduleExists rather than duplicating obligations.
  - The ledger is append-only. A wrong amount is corrected by a
    compensating entry (CompensateEntry), never by editing history. The
    single sanctioned in-place mutation is the holding-deposit reduction
    of a member's first rent entry, applied before any payment falls due.
  - Every operation names its actor so the audit trail can distinguish
    an agent's click from the billing job.

SEE ALSO:
  - orchestrator.go: the pure schedule build this ledger persists
  - deposit.go: deposit return scheduling, same guard discipline
*/
package lettings

import (
	"context"
	"fmt"
	"time"

	"github.com/hearth/schedule-engine/billing"
)

// ScheduleLedger persists schedules with run-once and append-only guards.
type ScheduleLedger struct {
	store billing.TxStore
	orch  *ScheduleOrchestrator
}

func NewScheduleLedger(store billing.TxStore) *ScheduleLedger {
	return &ScheduleLedger{store: store, orch: NewOrchestrator()}
}

// GenerateSchedule builds and persists the opening schedule for a
// tenancy. Exactly once: if any deposit or rent entry already exists the
// call fails with ErrScheduleExists and nothing is written.
func (l *ScheduleLedger) GenerateSchedule(ctx context.Context, tenancyID billing.TenancyID, actor string) ([]billing.ScheduleEntry, error) {
	var created []billing.ScheduleEntry
	err := l.store.WithTx(ctx, func(s billing.Store) error {
		tenancy, err := s.GetTenancy(ctx, tenancyID)
		if err != nil {
			return err
		}
		existing, err := s.EntriesFor(ctx, tenancyID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return billing.ErrScheduleExists
		}
		members, err := s.MembersOf(ctx, tenancyID)
		if err != nil {
			return err
		}

		schedule, err := l.orch.BuildSchedule(*tenancy, members)
		if err != nil {
			return err
		}
		// Unmanaged rent with no deposits builds an empty but valid
		// schedule; record the generation without appending.
		if len(schedule) > 0 {
			created, err = billing.NewLedger(s).Append(ctx, schedule)
			if err != nil {
				return err
			}
		}
		return s.AppendAudit(ctx, newAudit(actor, billing.AuditScheduleGenerated, tenancyID, "", map[string]any{
			"entries": len(created),
		}))
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Preview builds the schedule a tenancy would receive without touching
// the store's entry log. Nothing is stamped or persisted.
func (l *ScheduleLedger) Preview(ctx context.Context, tenancyID billing.TenancyID) ([]billing.ScheduleEntry, error) {
	tenancy, err := l.store.GetTenancy(ctx, tenancyID)
	if err != nil {
		return nil, err
	}
	members, err := l.store.MembersOf(ctx, tenancyID)
	if err != nil {
		return nil, err
	}
	return l.orch.BuildSchedule(*tenancy, members)
}

// PreviewTerms builds a schedule for terms that exist nowhere yet, for
// quoting before a tenancy document is signed.
func (l *ScheduleLedger) PreviewTerms(terms billing.TenancyTerms, members []billing.MemberBillingTerms) ([]billing.ScheduleEntry, error) {
	return l.orch.BuildSchedule(billing.Tenancy{ID: "preview", Terms: terms}, members)
}

// Entries exposes the persisted schedule, due-date ordered.
func (l *ScheduleLedger) Entries(ctx context.Context, tenancyID billing.TenancyID) ([]billing.ScheduleEntry, error) {
	return l.store.EntriesFor(ctx, tenancyID)
}

// Audit exposes the tenancy's audit trail, oldest first.
func (l *ScheduleLedger) Audit(ctx context.Context, tenancyID billing.TenancyID) ([]billing.AuditEntry, error) {
	return l.store.AuditFor(ctx, tenancyID)
}

func newAudit(actor string, action billing.AuditAction, tenancyID billing.TenancyID, memberID billing.MemberID, payload map[string]any) billing.AuditEntry {
	now := time.Now().UTC()
	return billing.AuditEntry{
		ID:        fmt.Sprintf("aud-%d", now.UnixNano()),
		Timestamp: now,
		Actor:     actor,
		Action:    action,
		TenancyID: tenancyID,
		MemberID:  memberID,
		Payload:   payload,
	}
}
