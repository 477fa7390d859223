/*
scheduler_test.go - Tests for the monthly rolling continuation job

Tests run the job against fixed periods so they never depend on the
wall clock: seed a rolling tenancy, run a named period, assert which
months gained entries and that re-runs are no-ops.
*/
package api

import (
	"context"
	"testing"
	"time"

	"github.com/hearth/schedule-engine/billing"
	"github.com/hearth/schedule-engine/billing/store"
	"github.com/hearth/schedule-engine/lettings"
)

func seedRollingTenancy(t *testing.T, s billing.TxStore, id billing.TenancyID, manageRent bool) {
	t.Helper()
	ctx := context.Background()

	tenancy := billing.Tenancy{
		ID: id,
		Terms: billing.TenancyTerms{
			StartDate:      billing.NewDate(2025, 9, 15),
			RollingMonthly: true,
			ManageRent:     manageRent,
		},
	}
	if err := s.SaveTenancy(ctx, tenancy); err != nil {
		t.Fatalf("failed to save tenancy: %v", err)
	}
	member := billing.MemberBillingTerms{
		MemberID:      "mem-1",
		Name:          "Jo Tenant",
		RentPerWeek:   billing.NewMoney(150),
		PaymentOption: billing.CadenceMonthly,
		DepositAmount: billing.NewMoney(750),
	}
	if err := s.SaveMember(ctx, id, member); err != nil {
		t.Fatalf("failed to save member: %v", err)
	}
	if _, err := lettings.NewScheduleLedger(s).GenerateSchedule(ctx, id, "test"); err != nil {
		t.Fatalf("failed to generate first period: %v", err)
	}
}

func rentEntriesFor(t *testing.T, s billing.Store, id billing.TenancyID) []billing.ScheduleEntry {
	t.Helper()
	entries, err := s.EntriesByType(context.Background(), id, billing.PaymentRent)
	if err != nil {
		t.Fatalf("failed to list entries: %v", err)
	}
	return entries
}

func TestRollingJobAppendsNextMonth(t *testing.T) {
	// GIVEN: A rolling tenancy whose first period covers September and
	// October
	s := store.NewTxMemory()
	seedRollingTenancy(t, s, "ten-roll", true)
	job := NewRollingBillingJob(s)

	// WHEN: Running the November period
	run, err := job.RunPeriod(context.Background(), "2025-11")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// THEN: One full-month entry, due the 1st
	if run.Status != billing.RunCompleted {
		t.Errorf("expected completed run, got %s", run.Status)
	}
	if run.EntriesCreated != 1 {
		t.Errorf("expected 1 entry created, got %d", run.EntriesCreated)
	}
	entries := rentEntriesFor(t, s, "ten-roll")
	if len(entries) != 2 {
		t.Fatalf("expected 2 rent entries, got %d", len(entries))
	}
	november := entries[1]
	if !november.DueDate.Equal(billing.NewDate(2025, 11, 1)) {
		t.Errorf("expected due 2025-11-01, got %s", november.DueDate)
	}
	if november.AmountDue.String() != "650.00" {
		t.Errorf("expected 650.00, got %s", november.AmountDue)
	}
	if november.Description != "Rent - November 2025" {
		t.Errorf("unexpected description %q", november.Description)
	}
}

func TestRollingJobIsIdempotentPerPeriod(t *testing.T) {
	// GIVEN: A completed November run
	s := store.NewTxMemory()
	seedRollingTenancy(t, s, "ten-roll", true)
	job := NewRollingBillingJob(s)
	first, err := job.RunPeriod(context.Background(), "2025-11")
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// WHEN: Running the same period again
	second, err := job.RunPeriod(context.Background(), "2025-11")
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	// THEN: The completed run comes back unchanged and no entry is added
	if second.ID != first.ID {
		t.Errorf("expected the original run record, got %s", second.ID)
	}
	if got := len(rentEntriesFor(t, s, "ten-roll")); got != 2 {
		t.Errorf("expected 2 rent entries after re-run, got %d", got)
	}
}

func TestRollingJobRetriesFailedPeriod(t *testing.T) {
	// GIVEN: A November run record left behind by a failed attempt
	s := store.NewTxMemory()
	seedRollingTenancy(t, s, "ten-roll", true)
	failed := billing.BillingRun{
		ID:        "run-dead",
		Period:    billing.RunPeriod(2025, time.November),
		StartedAt: time.Now().UTC(),
		Status:    billing.RunFailed,
		Details:   "tenancy ten-roll: store unavailable",
	}
	if err := s.SaveRun(context.Background(), failed); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	// WHEN: Running the period again
	job := NewRollingBillingJob(s)
	run, err := job.RunPeriod(context.Background(), "2025-11")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}

	// THEN: A fresh run completes and November gets billed
	if run.ID == failed.ID {
		t.Errorf("expected a new run record, got the failed one back")
	}
	if run.Status != billing.RunCompleted {
		t.Errorf("expected completed run, got %s", run.Status)
	}
	if run.EntriesCreated != 1 {
		t.Errorf("expected 1 entry created, got %d", run.EntriesCreated)
	}
	if got := len(rentEntriesFor(t, s, "ten-roll")); got != 2 {
		t.Errorf("expected 2 rent entries after retry, got %d", got)
	}
}

func TestRollingJobSkipsCoveredMonth(t *testing.T) {
	// GIVEN: A rolling tenancy whose first period already covers October
	s := store.NewTxMemory()
	seedRollingTenancy(t, s, "ten-roll", true)
	job := NewRollingBillingJob(s)

	// WHEN: Running October
	run, err := job.RunPeriod(context.Background(), "2025-10")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// THEN: Nothing is appended
	if run.EntriesCreated != 0 {
		t.Errorf("expected 0 entries created, got %d", run.EntriesCreated)
	}
	if got := len(rentEntriesFor(t, s, "ten-roll")); got != 1 {
		t.Errorf("expected the first-period entry only, got %d", got)
	}
}

func TestRollingJobSkipsUnmanagedAndFixedTerm(t *testing.T) {
	// GIVEN: A rolling tenancy the agency does not collect rent for, and
	// a fixed-term tenancy
	s := store.NewTxMemory()
	ctx := context.Background()
	seedRollingTenancy(t, s, "ten-unmanaged", false)

	end := billing.NewDate(2026, 8, 31)
	fixed := billing.Tenancy{
		ID: "ten-fixed",
		Terms: billing.TenancyTerms{
			StartDate:  billing.NewDate(2025, 9, 1),
			EndDate:    &end,
			ManageRent: true,
		},
	}
	if err := s.SaveTenancy(ctx, fixed); err != nil {
		t.Fatalf("failed to save tenancy: %v", err)
	}

	// WHEN: Running a period
	run, err := NewRollingBillingJob(s).RunPeriod(ctx, "2025-11")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// THEN: Neither tenancy gains an entry
	if run.EntriesCreated != 0 {
		t.Errorf("expected 0 entries created, got %d", run.EntriesCreated)
	}
}

func TestRollingJobBillsTenancyStartingMidPeriod(t *testing.T) {
	// GIVEN: A rolling tenancy starting mid-November with no entries yet
	s := store.NewTxMemory()
	ctx := context.Background()
	tenancy := billing.Tenancy{
		ID: "ten-new",
		Terms: billing.TenancyTerms{
			StartDate:      billing.NewDate(2025, 11, 16),
			RollingMonthly: true,
			ManageRent:     true,
		},
	}
	if err := s.SaveTenancy(ctx, tenancy); err != nil {
		t.Fatalf("failed to save tenancy: %v", err)
	}
	member := billing.MemberBillingTerms{
		MemberID:      "mem-1",
		RentPerWeek:   billing.NewMoney(150),
		PaymentOption: billing.CadenceMonthly,
	}
	if err := s.SaveMember(ctx, "ten-new", member); err != nil {
		t.Fatalf("failed to save member: %v", err)
	}

	// WHEN: Running November
	run, err := NewRollingBillingJob(s).RunPeriod(ctx, "2025-11")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// THEN: The month is billed pro rata from the start date
	if run.EntriesCreated != 1 {
		t.Fatalf("expected 1 entry created, got %d", run.EntriesCreated)
	}
	entries := rentEntriesFor(t, s, "ten-new")
	entry := entries[0]
	if !entry.DueDate.Equal(billing.NewDate(2025, 11, 16)) {
		t.Errorf("expected due 2025-11-16, got %s", entry.DueDate)
	}
	// 15 of November's 30 days at the 650.00 monthly rate
	if entry.AmountDue.String() != "325.00" {
		t.Errorf("expected 325.00, got %s", entry.AmountDue)
	}
	if entry.Description != "Rent - November 2025 (partial)" {
		t.Errorf("unexpected description %q", entry.Description)
	}
}

func TestRollingJobRejectsMalformedPeriod(t *testing.T) {
	// GIVEN: A job over an empty store
	job := NewRollingBillingJob(store.NewTxMemory())

	// WHEN: Running a period that is not YYYY-MM
	_, err := job.RunPeriod(context.Background(), "November 2025")

	// THEN: A client error comes back
	if !billing.IsClientError(err) {
		t.Fatalf("expected a client error, got %v", err)
	}
}
