package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearth/schedule-engine/billing"
	"github.com/hearth/schedule-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func saveTenancyFixture(t *testing.T, s *sqlite.Store) billing.TenancyID {
	t.Helper()
	end := billing.NewDate(2026, time.August, 31)
	tenancy := billing.Tenancy{
		ID: "ten-1",
		Terms: billing.TenancyTerms{
			StartDate:  billing.NewDate(2025, time.September, 1),
			EndDate:    &end,
			ManageRent: true,
		},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.SaveTenancy(context.Background(), tenancy))
	return tenancy.ID
}

func rentFixture(id billing.EntryID, tenancyID billing.TenancyID, due billing.Date, amount float64) billing.ScheduleEntry {
	e := billing.ScheduleEntry{
		ID:          id,
		TenancyID:   tenancyID,
		MemberID:    "mem-1",
		PaymentType: billing.PaymentRent,
		DueDate:     due,
		AmountDue:   billing.NewMoney(amount),
		Description: "Rent - " + due.MonthLabel(),
		CreatedAt:   time.Now().UTC(),
	}
	return e.WithCoverage(billing.MonthPeriod(due.Year(), due.Month()))
}

func TestTenancyRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := saveTenancyFixture(t, s)

	got, err := s.GetTenancy(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.True(t, got.Terms.StartDate.Equal(billing.NewDate(2025, time.September, 1)))
	require.NotNil(t, got.Terms.EndDate)
	assert.True(t, got.Terms.EndDate.Equal(billing.NewDate(2026, time.August, 31)))
	assert.True(t, got.Terms.ManageRent)

	_, err = s.GetTenancy(ctx, "nope")
	assert.ErrorIs(t, err, billing.ErrTenancyNotFound)
}

func TestRollingTenancyListing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	saveTenancyFixture(t, s)
	require.NoError(t, s.SaveTenancy(ctx, billing.Tenancy{
		ID: "ten-2",
		Terms: billing.TenancyTerms{
			StartDate:      billing.NewDate(2025, time.September, 10),
			RollingMonthly: true,
			ManageRent:     true,
		},
		CreatedAt: time.Now().UTC(),
	}))

	rolling, err := s.ListRollingTenancies(ctx)
	require.NoError(t, err)
	require.Len(t, rolling, 1)
	assert.Equal(t, billing.TenancyID("ten-2"), rolling[0].ID)
	assert.Nil(t, rolling[0].Terms.EndDate)

	all, err := s.ListTenancies(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEntriesComeBackDueDateOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := saveTenancyFixture(t, s)

	// Inserted out of order on purpose.
	require.NoError(t, s.AppendEntries(ctx, []billing.ScheduleEntry{
		rentFixture("ent-2", id, billing.NewDate(2025, time.October, 1), 650),
		rentFixture("ent-1", id, billing.NewDate(2025, time.September, 1), 650),
	}))

	entries, err := s.EntriesFor(ctx, id)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, billing.EntryID("ent-1"), entries[0].ID)
	assert.Equal(t, "650.00", entries[0].AmountDue.String())
	covered, ok := entries[0].Coverage()
	require.True(t, ok)
	assert.Equal(t, "2025-09-01", covered.Start.String())
	assert.Equal(t, 5, entries[0].Weeks, "30 days rounds up to 5 weeks")
}

func TestDepositReturnUniquePerMemberAtStorageLevel(t *testing.T) {
	// The partial unique index backs the run-once guard even if a racing
	// writer slips past the application check.
	s := newTestStore(t)
	ctx := context.Background()
	id := saveTenancyFixture(t, s)

	ret := billing.ScheduleEntry{
		ID: "ent-r1", TenancyID: id, MemberID: "mem-1",
		PaymentType: billing.PaymentDepositReturn,
		DueDate:     billing.NewDate(2026, time.September, 14),
		AmountDue:   billing.NewMoney(-750),
		Description: "Deposit return",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, s.AppendEntries(ctx, []billing.ScheduleEntry{ret}))

	dup := ret
	dup.ID = "ent-r2"
	err := s.AppendEntries(ctx, []billing.ScheduleEntry{dup})
	assert.ErrorIs(t, err, billing.ErrDuplicateDepositReturn)
}

func TestUpdateEntryAmount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := saveTenancyFixture(t, s)
	require.NoError(t, s.AppendEntries(ctx, []billing.ScheduleEntry{
		rentFixture("ent-1", id, billing.NewDate(2025, time.September, 1), 650),
	}))

	require.NoError(t, s.UpdateEntryAmount(ctx, "ent-1", billing.NewMoney(450)))
	got, err := s.GetEntry(ctx, "ent-1")
	require.NoError(t, err)
	assert.Equal(t, "450.00", got.AmountDue.String())

	assert.ErrorIs(t, s.UpdateEntryAmount(ctx, "nope", billing.NewMoney(1)), billing.ErrEntryNotFound)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := saveTenancyFixture(t, s)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx billing.Store) error {
		if err := tx.AppendEntries(ctx, []billing.ScheduleEntry{
			rentFixture("ent-1", id, billing.NewDate(2025, time.September, 1), 650),
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	entries, err := s.EntriesFor(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, entries, "rolled-back writes must not be visible")
}

func TestBillingRunRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := billing.BillingRun{
		ID:        "run-1",
		Period:    billing.RunPeriod(2025, time.October),
		StartedAt: time.Now().UTC(),
		Status:    billing.RunStarted,
	}
	require.NoError(t, s.SaveRun(ctx, run))

	got, err := s.RunForPeriod(ctx, "2025-10")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, billing.RunStarted, got.Status)
	assert.Nil(t, got.CompletedAt)

	done := time.Now().UTC()
	run.Status = billing.RunCompleted
	run.CompletedAt = &done
	run.EntriesCreated = 3
	require.NoError(t, s.SaveRun(ctx, run))

	got, err = s.RunForPeriod(ctx, "2025-10")
	require.NoError(t, err)
	assert.Equal(t, billing.RunCompleted, got.Status)
	assert.Equal(t, 3, got.EntriesCreated)
	require.NotNil(t, got.CompletedAt)

	missing, err := s.RunForPeriod(ctx, "2025-11")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBillingRunRetryReplacesFailedRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// GIVEN: A run that failed partway through October
	require.NoError(t, s.SaveRun(ctx, billing.BillingRun{
		ID:        "run-1",
		Period:    billing.RunPeriod(2025, time.October),
		StartedAt: time.Now().UTC(),
		Status:    billing.RunFailed,
		Details:   "tenancy ten-1: store unavailable",
	}))

	// WHEN: A fresh attempt at the same period arrives with a new id
	require.NoError(t, s.SaveRun(ctx, billing.BillingRun{
		ID:        "run-2",
		Period:    billing.RunPeriod(2025, time.October),
		StartedAt: time.Now().UTC(),
		Status:    billing.RunStarted,
	}))

	// THEN: The retry owns the period
	got, err := s.RunForPeriod(ctx, "2025-10")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "run-2", got.ID)
	assert.Equal(t, billing.RunStarted, got.Status)
}

func TestAuditRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := saveTenancyFixture(t, s)

	require.NoError(t, s.AppendAudit(ctx, billing.AuditEntry{
		ID:        "aud-1",
		Timestamp: time.Now().UTC(),
		Actor:     "agent",
		Action:    billing.AuditScheduleGenerated,
		TenancyID: id,
		Payload:   map[string]any{"entries": 13},
	}))

	audits, err := s.AuditFor(ctx, id)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, billing.AuditScheduleGenerated, audits[0].Action)
	assert.EqualValues(t, 13, audits[0].Payload["entries"])
}
