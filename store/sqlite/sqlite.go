/*
Package sqlite provides the SQLite-backed implementation of billing.TxStore.

PURPOSE:
  Persists tenancies, members, the schedule entry log, billing runs and
  the audit trail. In production the same patterns apply to PostgreSQL -
  only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  The entry log is append-only. The single UPDATE the store exposes is
  UpdateEntryAmount, which exists for the holding-deposit credit; every
  other correction is a compensating entry. There are no DELETEs.

KEY TABLES:
  tenancies:        Billing terms per tenancy
  members:          Per-tenant rate, cadence and deposit
  schedule_entries: The obligation log, due-date ordered on read
  billing_runs:     One row per rolling-continuation period
  audit_log:        Who triggered which billing event, when

UNIQUENESS:
  Two constraints back the run-once guards at the storage layer, so even
  a racing writer cannot double-book:
  - idx_one_deposit_return: at most one deposit-return entry per member
  - billing_runs.period UNIQUE: at most one continuation run per month

DATA FORMATS:
  Dates are stored as "2006-01-02" text, money as exact decimal text,
  timestamps as RFC 3339. SQLite's type affinity makes TEXT the honest
  choice; parsing happens in one place on scan.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/hearth.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - billing/store.go: Interface definitions
  - billing/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/hearth/schedule-engine/billing"
)

// Store implements billing.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tenancies (
		id              TEXT PRIMARY KEY,
		start_date      TEXT NOT NULL,
		end_date        TEXT,
		rolling_monthly INTEGER NOT NULL DEFAULT 0,
		manage_rent     INTEGER NOT NULL DEFAULT 1,
		created_at      TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS members (
		tenancy_id     TEXT NOT NULL REFERENCES tenancies(id),
		member_id      TEXT NOT NULL,
		name           TEXT NOT NULL DEFAULT '',
		rent_per_week  TEXT NOT NULL,
		payment_option TEXT NOT NULL,
		deposit_amount TEXT NOT NULL,
		PRIMARY KEY (tenancy_id, member_id)
	);

	-- Append-only obligation log
	CREATE TABLE IF NOT EXISTS schedule_entries (
		id           TEXT PRIMARY KEY,
		tenancy_id   TEXT NOT NULL,
		member_id    TEXT NOT NULL,
		payment_type TEXT NOT NULL,
		due_date     TEXT NOT NULL,
		amount_due   TEXT NOT NULL,
		covers_from  TEXT,
		covers_to    TEXT,
		weeks        INTEGER NOT NULL DEFAULT 0,
		description  TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_tenancy_due
		ON schedule_entries(tenancy_id, due_date);

	-- Storage-level run-once guard: keys come back exactly once
	CREATE UNIQUE INDEX IF NOT EXISTS idx_one_deposit_return
		ON schedule_entries(tenancy_id, member_id)
		WHERE payment_type = 'deposit_return';

	CREATE TABLE IF NOT EXISTS billing_runs (
		id              TEXT PRIMARY KEY,
		period          TEXT NOT NULL UNIQUE,
		started_at      TEXT NOT NULL,
		completed_at    TEXT,
		status          TEXT NOT NULL,
		entries_created INTEGER NOT NULL DEFAULT 0,
		details         TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS audit_log (
		id         TEXT PRIMARY KEY,
		ts         TEXT NOT NULL,
		actor      TEXT NOT NULL,
		action     TEXT NOT NULL,
		tenancy_id TEXT NOT NULL,
		member_id  TEXT NOT NULL DEFAULT '',
		payload    TEXT NOT NULL DEFAULT '{}'
	);

	CREATE INDEX IF NOT EXISTS idx_audit_tenancy ON audit_log(tenancy_id, ts);
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx so every operation
// runs identically inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// TENANCIES
// =============================================================================

func (s *Store) SaveTenancy(ctx context.Context, t billing.Tenancy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveTenancy(ctx, s.db, t)
}

func saveTenancy(ctx context.Context, q querier, t billing.Tenancy) error {
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO tenancies (id, start_date, end_date, rolling_monthly, manage_rent, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			rolling_monthly = excluded.rolling_monthly,
			manage_rent = excluded.manage_rent`,
		string(t.ID), t.Terms.StartDate.String(), nullDate(t.Terms.EndDate),
		boolInt(t.Terms.RollingMonthly), boolInt(t.Terms.ManageRent),
		createdAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save tenancy: %w", err)
	}
	return nil
}

func (s *Store) GetTenancy(ctx context.Context, id billing.TenancyID) (*billing.Tenancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getTenancy(ctx, s.db, id)
}

func getTenancy(ctx context.Context, q querier, id billing.TenancyID) (*billing.Tenancy, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, start_date, end_date, rolling_monthly, manage_rent, created_at
		FROM tenancies WHERE id = ?`, string(id))
	t, err := scanTenancy(row)
	if err == sql.ErrNoRows {
		return nil, billing.ErrTenancyNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Store) ListTenancies(ctx context.Context) ([]billing.Tenancy, error) {
	return s.queryTenancies(ctx, `
		SELECT id, start_date, end_date, rolling_monthly, manage_rent, created_at
		FROM tenancies ORDER BY created_at, id`)
}

func (s *Store) ListRollingTenancies(ctx context.Context) ([]billing.Tenancy, error) {
	return s.queryTenancies(ctx, `
		SELECT id, start_date, end_date, rolling_monthly, manage_rent, created_at
		FROM tenancies WHERE rolling_monthly = 1 ORDER BY created_at, id`)
}

func (s *Store) queryTenancies(ctx context.Context, query string, args ...any) ([]billing.Tenancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tenancies: %w", err)
	}
	defer rows.Close()

	var out []billing.Tenancy
	for rows.Next() {
		t, err := scanTenancy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenancy(row rowScanner) (*billing.Tenancy, error) {
	var (
		id, startDate, createdAt string
		endDate                  sql.NullString
		rolling, manageRent      int
	)
	if err := row.Scan(&id, &startDate, &endDate, &rolling, &manageRent, &createdAt); err != nil {
		return nil, err
	}

	start, err := billing.ParseDate(startDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start date: %w", err)
	}
	t := billing.Tenancy{
		ID: billing.TenancyID(id),
		Terms: billing.TenancyTerms{
			StartDate:      start,
			RollingMonthly: rolling != 0,
			ManageRent:     manageRent != 0,
		},
	}
	if endDate.Valid {
		end, err := billing.ParseDate(endDate.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse end date: %w", err)
		}
		t.Terms.EndDate = &end
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &t, nil
}

// =============================================================================
// MEMBERS
// =============================================================================

func (s *Store) SaveMember(ctx context.Context, tenancyID billing.TenancyID, member billing.MemberBillingTerms) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveMember(ctx, s.db, tenancyID, member)
}

func saveMember(ctx context.Context, q querier, tenancyID billing.TenancyID, member billing.MemberBillingTerms) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO members (tenancy_id, member_id, name, rent_per_week, payment_option, deposit_amount)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenancy_id, member_id) DO UPDATE SET
			name = excluded.name,
			rent_per_week = excluded.rent_per_week,
			payment_option = excluded.payment_option,
			deposit_amount = excluded.deposit_amount`,
		string(tenancyID), string(member.MemberID), member.Name,
		member.RentPerWeek.String(), string(member.PaymentOption), member.DepositAmount.String())
	if err != nil {
		return fmt.Errorf("failed to save member: %w", err)
	}
	return nil
}

func (s *Store) MembersOf(ctx context.Context, tenancyID billing.TenancyID) ([]billing.MemberBillingTerms, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return membersOf(ctx, s.db, tenancyID)
}

func membersOf(ctx context.Context, q querier, tenancyID billing.TenancyID) ([]billing.MemberBillingTerms, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT member_id, name, rent_per_week, payment_option, deposit_amount
		FROM members WHERE tenancy_id = ? ORDER BY member_id`, string(tenancyID))
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var out []billing.MemberBillingTerms
	for rows.Next() {
		var (
			id, name, option string
			rate, deposit    string
		)
		if err := rows.Scan(&id, &name, &rate, &option, &deposit); err != nil {
			return nil, err
		}
		member := billing.MemberBillingTerms{
			MemberID:      billing.MemberID(id),
			Name:          name,
			PaymentOption: billing.Cadence(option),
		}
		if member.RentPerWeek, err = parseMoney(rate); err != nil {
			return nil, err
		}
		if member.DepositAmount, err = parseMoney(deposit); err != nil {
			return nil, err
		}
		out = append(out, member)
	}
	return out, rows.Err()
}

// =============================================================================
// SCHEDULE ENTRIES
// =============================================================================

func (s *Store) AppendEntries(ctx context.Context, entries []billing.ScheduleEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendEntries(ctx, s.db, entries)
}

func appendEntries(ctx context.Context, q querier, entries []billing.ScheduleEntry) error {
	for _, e := range entries {
		_, err := q.ExecContext(ctx, `
			INSERT INTO schedule_entries
				(id, tenancy_id, member_id, payment_type, due_date, amount_due,
				 covers_from, covers_to, weeks, description, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(e.ID), string(e.TenancyID), string(e.MemberID), string(e.PaymentType),
			e.DueDate.String(), e.AmountDue.String(),
			nullDate(e.CoversFrom), nullDate(e.CoversTo),
			e.Weeks, e.Description, e.CreatedAt.Format(time.RFC3339Nano))
		if err != nil {
			if isDepositReturnConflict(err) {
				return &billing.DuplicateReturnError{TenancyID: e.TenancyID, Existing: 1}
			}
			return fmt.Errorf("failed to append entry: %w", err)
		}
	}
	return nil
}

const entryColumns = `id, tenancy_id, member_id, payment_type, due_date, amount_due,
	covers_from, covers_to, weeks, description, created_at`

func (s *Store) EntriesFor(ctx context.Context, tenancyID billing.TenancyID) ([]billing.ScheduleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryEntries(ctx, s.db, `
		SELECT `+entryColumns+` FROM schedule_entries
		WHERE tenancy_id = ? ORDER BY due_date, created_at, id`, string(tenancyID))
}

func (s *Store) EntriesForMember(ctx context.Context, tenancyID billing.TenancyID, memberID billing.MemberID) ([]billing.ScheduleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryEntries(ctx, s.db, `
		SELECT `+entryColumns+` FROM schedule_entries
		WHERE tenancy_id = ? AND member_id = ? ORDER BY due_date, created_at, id`,
		string(tenancyID), string(memberID))
}

func (s *Store) EntriesByType(ctx context.Context, tenancyID billing.TenancyID, pt billing.PaymentType) ([]billing.ScheduleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryEntries(ctx, s.db, `
		SELECT `+entryColumns+` FROM schedule_entries
		WHERE tenancy_id = ? AND payment_type = ? ORDER BY due_date, created_at, id`,
		string(tenancyID), string(pt))
}

func (s *Store) GetEntry(ctx context.Context, id billing.EntryID) (*billing.ScheduleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getEntry(ctx, s.db, id)
}

func getEntry(ctx context.Context, q querier, id billing.EntryID) (*billing.ScheduleEntry, error) {
	entries, err := queryEntries(ctx, q, `
		SELECT `+entryColumns+` FROM schedule_entries WHERE id = ?`, string(id))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, billing.ErrEntryNotFound
	}
	return &entries[0], nil
}

func (s *Store) UpdateEntryAmount(ctx context.Context, id billing.EntryID, amount billing.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateEntryAmount(ctx, s.db, id, amount)
}

func updateEntryAmount(ctx context.Context, q querier, id billing.EntryID, amount billing.Money) error {
	res, err := q.ExecContext(ctx,
		`UPDATE schedule_entries SET amount_due = ? WHERE id = ?`,
		amount.String(), string(id))
	if err != nil {
		return fmt.Errorf("failed to update entry amount: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return billing.ErrEntryNotFound
	}
	return nil
}

func queryEntries(ctx context.Context, q querier, query string, args ...any) ([]billing.ScheduleEntry, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var out []billing.ScheduleEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(rows *sql.Rows) (billing.ScheduleEntry, error) {
	var (
		e                                  billing.ScheduleEntry
		id, tenancyID, memberID, payType   string
		dueDate, amount, desc, createdAt   string
		coversFrom, coversTo               sql.NullString
	)
	err := rows.Scan(&id, &tenancyID, &memberID, &payType, &dueDate, &amount,
		&coversFrom, &coversTo, &e.Weeks, &desc, &createdAt)
	if err != nil {
		return e, err
	}

	e.ID = billing.EntryID(id)
	e.TenancyID = billing.TenancyID(tenancyID)
	e.MemberID = billing.MemberID(memberID)
	e.PaymentType = billing.PaymentType(payType)
	e.Description = desc

	if e.DueDate, err = billing.ParseDate(dueDate); err != nil {
		return e, fmt.Errorf("failed to parse due date: %w", err)
	}
	if e.AmountDue, err = parseMoney(amount); err != nil {
		return e, err
	}
	if coversFrom.Valid {
		from, err := billing.ParseDate(coversFrom.String)
		if err != nil {
			return e, fmt.Errorf("failed to parse covers_from: %w", err)
		}
		e.CoversFrom = &from
	}
	if coversTo.Valid {
		to, err := billing.ParseDate(coversTo.String)
		if err != nil {
			return e, fmt.Errorf("failed to parse covers_to: %w", err)
		}
		e.CoversTo = &to
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return e, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return e, nil
}

// =============================================================================
// BILLING RUNS
// =============================================================================

func (s *Store) SaveRun(ctx context.Context, run billing.BillingRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveRun(ctx, s.db, run)
}

// saveRun upserts keyed on the period, not the run id: a fresh attempt at
// a failed or interrupted period arrives with a new id and must replace
// the old record, the same way the memory store's period map does.
func saveRun(ctx context.Context, q querier, run billing.BillingRun) error {
	_, err := q.ExecContext(ctx, `
		INSERT OR REPLACE INTO billing_runs (id, period, started_at, completed_at, status, entries_created, details)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Period, run.StartedAt.Format(time.RFC3339Nano),
		nullTime(run.CompletedAt), string(run.Status), run.EntriesCreated, run.Details)
	if err != nil {
		return fmt.Errorf("failed to save billing run: %w", err)
	}
	return nil
}

func (s *Store) RunForPeriod(ctx context.Context, period string) (*billing.BillingRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return runForPeriod(ctx, s.db, period)
}

func runForPeriod(ctx context.Context, q querier, period string) (*billing.BillingRun, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, period, started_at, completed_at, status, entries_created, details
		FROM billing_runs WHERE period = ?`, period)

	var (
		run                  billing.BillingRun
		startedAt, status    string
		completedAt          sql.NullString
	)
	err := row.Scan(&run.ID, &run.Period, &startedAt, &completedAt, &status, &run.EntriesCreated, &run.Details)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query billing run: %w", err)
	}

	run.Status = billing.RunStatus(status)
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("failed to parse started_at: %w", err)
	}
	if completedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse completed_at: %w", err)
		}
		run.CompletedAt = &t
	}
	return &run, nil
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func (s *Store) AppendAudit(ctx context.Context, e billing.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendAudit(ctx, s.db, e)
}

func appendAudit(ctx context.Context, q querier, e billing.AuditEntry) error {
	payload := "{}"
	if e.Payload != nil {
		raw, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal audit payload: %w", err)
		}
		payload = string(raw)
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO audit_log (id, ts, actor, action, tenancy_id, member_id, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.Format(time.RFC3339Nano), e.Actor, string(e.Action),
		string(e.TenancyID), string(e.MemberID), payload)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (s *Store) AuditFor(ctx context.Context, tenancyID billing.TenancyID) ([]billing.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return auditFor(ctx, s.db, tenancyID)
}

func auditFor(ctx context.Context, q querier, tenancyID billing.TenancyID) ([]billing.AuditEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, ts, actor, action, tenancy_id, member_id, payload
		FROM audit_log WHERE tenancy_id = ? ORDER BY ts, id`, string(tenancyID))
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var out []billing.AuditEntry
	for rows.Next() {
		var (
			e                            billing.AuditEntry
			ts, action, tenID, memID, pl string
		)
		if err := rows.Scan(&e.ID, &ts, &e.Actor, &action, &tenID, &memID, &pl); err != nil {
			return nil, err
		}
		e.Action = billing.AuditAction(action)
		e.TenancyID = billing.TenancyID(tenID)
		e.MemberID = billing.MemberID(memID)
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("failed to parse audit timestamp: %w", err)
		}
		if err := json.Unmarshal([]byte(pl), &e.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit payload: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx runs fn against a transactional view of the store. The fn's
// error aborts and rolls back; otherwise the transaction commits.
func (s *Store) WithTx(ctx context.Context, fn func(store billing.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore routes every Store call through the open transaction.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) SaveTenancy(ctx context.Context, t billing.Tenancy) error {
	return saveTenancy(ctx, ts.tx, t)
}

func (ts *txStore) GetTenancy(ctx context.Context, id billing.TenancyID) (*billing.Tenancy, error) {
	return getTenancy(ctx, ts.tx, id)
}

func (ts *txStore) ListTenancies(ctx context.Context) ([]billing.Tenancy, error) {
	return txQueryTenancies(ctx, ts.tx, `
		SELECT id, start_date, end_date, rolling_monthly, manage_rent, created_at
		FROM tenancies ORDER BY created_at, id`)
}

func (ts *txStore) ListRollingTenancies(ctx context.Context) ([]billing.Tenancy, error) {
	return txQueryTenancies(ctx, ts.tx, `
		SELECT id, start_date, end_date, rolling_monthly, manage_rent, created_at
		FROM tenancies WHERE rolling_monthly = 1 ORDER BY created_at, id`)
}

func txQueryTenancies(ctx context.Context, q querier, query string) ([]billing.Tenancy, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tenancies: %w", err)
	}
	defer rows.Close()

	var out []billing.Tenancy
	for rows.Next() {
		t, err := scanTenancy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (ts *txStore) SaveMember(ctx context.Context, tenancyID billing.TenancyID, m billing.MemberBillingTerms) error {
	return saveMember(ctx, ts.tx, tenancyID, m)
}

func (ts *txStore) MembersOf(ctx context.Context, tenancyID billing.TenancyID) ([]billing.MemberBillingTerms, error) {
	return membersOf(ctx, ts.tx, tenancyID)
}

func (ts *txStore) AppendEntries(ctx context.Context, entries []billing.ScheduleEntry) error {
	return appendEntries(ctx, ts.tx, entries)
}

func (ts *txStore) EntriesFor(ctx context.Context, tenancyID billing.TenancyID) ([]billing.ScheduleEntry, error) {
	return queryEntries(ctx, ts.tx, `
		SELECT `+entryColumns+` FROM schedule_entries
		WHERE tenancy_id = ? ORDER BY due_date, created_at, id`, string(tenancyID))
}

func (ts *txStore) EntriesForMember(ctx context.Context, tenancyID billing.TenancyID, memberID billing.MemberID) ([]billing.ScheduleEntry, error) {
	return queryEntries(ctx, ts.tx, `
		SELECT `+entryColumns+` FROM schedule_entries
		WHERE tenancy_id = ? AND member_id = ? ORDER BY due_date, created_at, id`,
		string(tenancyID), string(memberID))
}

func (ts *txStore) EntriesByType(ctx context.Context, tenancyID billing.TenancyID, pt billing.PaymentType) ([]billing.ScheduleEntry, error) {
	return queryEntries(ctx, ts.tx, `
		SELECT `+entryColumns+` FROM schedule_entries
		WHERE tenancy_id = ? AND payment_type = ? ORDER BY due_date, created_at, id`,
		string(tenancyID), string(pt))
}

func (ts *txStore) GetEntry(ctx context.Context, id billing.EntryID) (*billing.ScheduleEntry, error) {
	return getEntry(ctx, ts.tx, id)
}

func (ts *txStore) UpdateEntryAmount(ctx context.Context, id billing.EntryID, amount billing.Money) error {
	return updateEntryAmount(ctx, ts.tx, id, amount)
}

func (ts *txStore) SaveRun(ctx context.Context, run billing.BillingRun) error {
	return saveRun(ctx, ts.tx, run)
}

func (ts *txStore) RunForPeriod(ctx context.Context, period string) (*billing.BillingRun, error) {
	return runForPeriod(ctx, ts.tx, period)
}

func (ts *txStore) AppendAudit(ctx context.Context, e billing.AuditEntry) error {
	return appendAudit(ctx, ts.tx, e)
}

func (ts *txStore) AuditFor(ctx context.Context, tenancyID billing.TenancyID) ([]billing.AuditEntry, error) {
	return auditFor(ctx, ts.tx, tenancyID)
}

// =============================================================================
// HELPERS
// =============================================================================

func parseMoney(s string) (billing.Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return billing.Money{}, fmt.Errorf("failed to parse amount %q: %w", s, err)
	}
	return billing.MoneyFromDecimal(d), nil
}

func nullDate(d *billing.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isDepositReturnConflict detects a violation of the one-deposit-return
// partial index and nothing else.
func isDepositReturnConflict(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") &&
		strings.Contains(err.Error(), "schedule_entries")
}
