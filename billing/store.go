/*
store.go - Persistence interface for tenancies, entries and runs

PURPOSE:
  Defines the interface between the billing domain and the database.
  Schedule entries are append-only; corrections happen via compensating
  entries, with holding-deposit reduction as the single sanctioned
  in-place amount update.

KEY INTERFACES:
  Store:    Tenancy/member/entry/run/audit persistence
  TxStore:  Store plus WithTx for atomic multi-write operations

APPEND-ONLY CONTRACT:
  AppendEntries is the only way schedule entries come into existence and
  there is no delete. UpdateEntryAmount exists solely for the sign-off
  holding-deposit credit and must not be used anywhere else.

ATOMIC BATCHES:
  A tenancy's full generation (every member's deposit and rent entries
  plus the audit record) goes through one WithTx call. A failure partway
  leaves no partial schedule.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - billing/store: In-memory store for tests

SEE ALSO:
  - ledger.go: Higher-level append interface using Store
  - ../store/sqlite/sqlite.go: Concrete implementation
*/
package billing

import (
	"context"
	"time"
)

// =============================================================================
// STORE - Persistence for the billing domain
// =============================================================================

type Store interface {
	// Tenancies
	SaveTenancy(ctx context.Context, t Tenancy) error
	GetTenancy(ctx context.Context, id TenancyID) (*Tenancy, error)
	ListTenancies(ctx context.Context) ([]Tenancy, error)
	// ListRollingTenancies returns rolling tenancies only; the continuation
	// job iterates these.
	ListRollingTenancies(ctx context.Context) ([]Tenancy, error)

	// Members
	SaveMember(ctx context.Context, tenancyID TenancyID, m MemberBillingTerms) error
	MembersOf(ctx context.Context, tenancyID TenancyID) ([]MemberBillingTerms, error)

	// Schedule entries. AppendEntries is atomic: all entries or none.
	// Reads come back ordered by due date, then id.
	AppendEntries(ctx context.Context, entries []ScheduleEntry) error
	EntriesFor(ctx context.Context, tenancyID TenancyID) ([]ScheduleEntry, error)
	EntriesForMember(ctx context.Context, tenancyID TenancyID, memberID MemberID) ([]ScheduleEntry, error)
	EntriesByType(ctx context.Context, tenancyID TenancyID, pt PaymentType) ([]ScheduleEntry, error)
	GetEntry(ctx context.Context, id EntryID) (*ScheduleEntry, error)

	// UpdateEntryAmount is the holding-deposit exception to immutability.
	UpdateEntryAmount(ctx context.Context, id EntryID, amount Money) error

	// Continuation-job run records
	SaveRun(ctx context.Context, run BillingRun) error
	// RunForPeriod returns nil without error when the period has no run yet.
	RunForPeriod(ctx context.Context, period string) (*BillingRun, error)

	// Audit log (append-only)
	AppendAudit(ctx context.Context, e AuditEntry) error
	AuditFor(ctx context.Context, tenancyID TenancyID) ([]AuditEntry, error)
}

// =============================================================================
// TRANSACTIONAL STORE - For atomic operations across multiple writes
// =============================================================================

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// BILLING RUN - One execution of the rolling continuation job
// =============================================================================

type RunStatus string

const (
	RunStarted   RunStatus = "started"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// BillingRun makes the monthly continuation job idempotent: one completed
// run per period, re-runs become no-ops.
type BillingRun struct {
	ID             string
	Period         string // "2025-10"
	StartedAt      time.Time
	CompletedAt    *time.Time
	Status         RunStatus
	EntriesCreated int
	Details        string
}

// RunPeriod formats the period key for a month.
func RunPeriod(year int, month time.Month) string {
	return NewDate(year, month, 1).Time.Format("2006-01")
}

// =============================================================================
// AUDIT LOG - Who triggered which billing event, when
// =============================================================================

type AuditEntry struct {
	ID        string
	Timestamp time.Time
	Actor     string // "system" for job-generated events
	Action    AuditAction
	TenancyID TenancyID
	MemberID  MemberID       // empty for tenancy-wide actions
	Payload   map[string]any // action-specific data
}

type AuditAction string

const (
	AuditScheduleGenerated      AuditAction = "schedule_generated"
	AuditDepositReturnScheduled AuditAction = "deposit_return_scheduled"
	AuditHoldingDepositApplied  AuditAction = "holding_deposit_applied"
	AuditEntryCompensated       AuditAction = "entry_compensated"
	AuditRollingContinued       AuditAction = "rolling_continued"
)
