package lettings_test

import (
	"testing"
	"time"

	"github.com/hearth/schedule-engine/billing"
	"github.com/hearth/schedule-engine/lettings"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(y int, m time.Month, d int) billing.Date { return billing.NewDate(y, m, d) }

func fixedTerms(start, end billing.Date) billing.TenancyTerms {
	return billing.TenancyTerms{StartDate: start, EndDate: &end, ManageRent: true}
}

func memberAt(pppw float64, cadence billing.Cadence) billing.MemberBillingTerms {
	return billing.MemberBillingTerms{
		MemberID:      "mem-1",
		Name:          "Jo Tenant",
		RentPerWeek:   billing.NewMoney(pppw),
		PaymentOption: cadence,
	}
}

func mustGenerate(t *testing.T, g billing.ScheduleGenerator, terms billing.TenancyTerms, m billing.MemberBillingTerms) []billing.ScheduleEntry {
	t.Helper()
	entries, err := g.Generate(terms, m)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return entries
}

func assertAmount(t *testing.T, e billing.ScheduleEntry, want string) {
	t.Helper()
	if e.AmountDue.String() != want {
		t.Errorf("entry %q: amount = %s, want %s", e.Description, e.AmountDue, want)
	}
}

func assertDue(t *testing.T, e billing.ScheduleEntry, want billing.Date) {
	t.Helper()
	if !e.DueDate.Equal(want) {
		t.Errorf("entry %q: due = %s, want %s", e.Description, e.DueDate, want)
	}
}

// =============================================================================
// MONTHLY
// =============================================================================

func TestMonthlyFullYearOnTheFirst(t *testing.T) {
	// GIVEN a 12-month tenancy starting on the 1st at 150/week
	terms := fixedTerms(date(2025, time.September, 1), date(2026, time.August, 31))
	member := memberAt(150, billing.CadenceMonthly)

	// WHEN the monthly schedule is generated
	entries := mustGenerate(t, lettings.MonthlyGenerator{}, terms, member)

	// THEN there are 12 identical full-month entries, each due on the 1st
	if len(entries) != 12 {
		t.Fatalf("expected 12 entries, got %d", len(entries))
	}
	for i, e := range entries {
		assertAmount(t, e, "650.00")
		if e.DueDate.Day() != 1 {
			t.Errorf("entry %d: due on day %d, want the 1st", i, e.DueDate.Day())
		}
	}
	assertDue(t, entries[0], date(2025, time.September, 1))
	assertDue(t, entries[11], date(2026, time.August, 1))
}

func TestMonthlyMidMonthStartProratesFirstEntry(t *testing.T) {
	// GIVEN a tenancy starting mid-month, the 15th of a 30-day month
	terms := fixedTerms(date(2025, time.September, 15), date(2026, time.August, 31))
	member := memberAt(150, billing.CadenceMonthly)

	// WHEN the monthly schedule is generated
	entries := mustGenerate(t, lettings.MonthlyGenerator{}, terms, member)

	// THEN the first entry covers 16 of 30 days at the daily fraction of
	// the monthly rate, due on the start date itself
	first := entries[0]
	assertAmount(t, first, "346.67") // 650 * 16/30
	assertDue(t, first, date(2025, time.September, 15))
	if first.Description != "September 2025 (partial)" {
		t.Errorf("description = %q", first.Description)
	}
	if first.Weeks != 3 { // 16 days rounds up to 3 weeks
		t.Errorf("weeks = %d, want 3", first.Weeks)
	}

	// AND the following entries are full months due on the 1st
	assertAmount(t, entries[1], "650.00")
	assertDue(t, entries[1], date(2025, time.October, 1))
}

func TestMonthlyShortFinalMonthIsPartial(t *testing.T) {
	// GIVEN a tenancy ending before the final month runs out
	terms := fixedTerms(date(2025, time.September, 1), date(2025, time.November, 15))
	member := memberAt(150, billing.CadenceMonthly)

	// WHEN the monthly schedule is generated
	entries := mustGenerate(t, lettings.MonthlyGenerator{}, terms, member)

	// THEN the tail entry is prorated over 15 of November's 30 days
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	last := entries[2]
	assertAmount(t, last, "325.00") // 650 * 15/30
	if last.Description != "November 2025 (partial)" {
		t.Errorf("description = %q", last.Description)
	}
}

func TestMonthlyRejectsRollingTenancy(t *testing.T) {
	// GIVEN rolling terms handed to a fixed-cadence generator
	terms := billing.TenancyTerms{StartDate: date(2025, time.September, 1), RollingMonthly: true, ManageRent: true}

	// WHEN generation is attempted THEN it fails as invalid terms
	_, err := lettings.MonthlyGenerator{}.Generate(terms, memberAt(150, billing.CadenceMonthly))
	if !billing.IsClientError(err) {
		t.Fatalf("expected invalid-terms error, got %v", err)
	}
}

// =============================================================================
// QUARTERLY
// =============================================================================

func TestQuarterlyAlignedStartBillsWholeQuarters(t *testing.T) {
	// GIVEN a tenancy starting exactly on a quarter boundary
	terms := fixedTerms(date(2025, time.July, 1), date(2026, time.June, 30))
	member := memberAt(150, billing.CadenceQuarterly)

	// WHEN the quarterly schedule is generated
	entries := mustGenerate(t, lettings.QuarterlyGenerator{}, terms, member)

	// THEN four whole quarters, each three full months, no partial lead-in
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	assertDue(t, entries[0], date(2025, time.July, 1))
	assertAmount(t, entries[0], "1950.00") // 3 * 650
	assertDue(t, entries[1], date(2025, time.October, 1))
	assertDue(t, entries[2], date(2026, time.January, 1))
	assertDue(t, entries[3], date(2026, time.April, 1))
	if entries[0].Description != "July - September 2025" {
		t.Errorf("description = %q", entries[0].Description)
	}
}

func TestQuarterlyOffBoundaryStartBillsGapThenQuarters(t *testing.T) {
	// GIVEN a tenancy starting mid-quarter on the 5th of August
	terms := fixedTerms(date(2025, time.August, 5), date(2026, time.June, 30))
	member := memberAt(150, billing.CadenceQuarterly)

	// WHEN the quarterly schedule is generated
	entries := mustGenerate(t, lettings.QuarterlyGenerator{}, terms, member)

	// THEN the gap to the October boundary is one partial entry due on
	// the start date, followed by whole quarters
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	gap := entries[0]
	assertDue(t, gap, date(2025, time.August, 5))
	// 27 of 31 August days + all of September: 650*27/31 + 650
	assertAmount(t, gap, "1216.13")
	if gap.Description != "August - September 2025 (partial)" {
		t.Errorf("description = %q", gap.Description)
	}
	assertDue(t, entries[1], date(2025, time.October, 1))
	assertAmount(t, entries[1], "1950.00")
}

func TestQuarterlyFirstOfSecondQuarterMonthStillWaitsForBoundary(t *testing.T) {
	// GIVEN a tenancy starting on the 1st of November, the second month
	// of the October quarter
	terms := fixedTerms(date(2025, time.November, 1), date(2026, time.June, 30))
	member := memberAt(150, billing.CadenceQuarterly)

	// WHEN the quarterly schedule is generated
	entries := mustGenerate(t, lettings.QuarterlyGenerator{}, terms, member)

	// THEN November and December bill as the pre-quarter gap; only a
	// start on the 1st of a quarter-start month anchors directly
	gap := entries[0]
	assertDue(t, gap, date(2025, time.November, 1))
	assertAmount(t, gap, "1300.00") // two full months
	assertDue(t, entries[1], date(2026, time.January, 1))
}

// =============================================================================
// MONTHLY-TO-QUARTERLY HYBRID
// =============================================================================

func TestHybridAcademicYearMonthlyThenQuarterly(t *testing.T) {
	// GIVEN the canonical academic-year tenancy
	terms := fixedTerms(date(2025, time.July, 1), date(2026, time.June, 30))
	member := memberAt(150, billing.CadenceMonthlyToQuarterly)

	// WHEN the hybrid schedule is generated
	entries := mustGenerate(t, lettings.HybridGenerator{}, terms, member)

	// THEN July, August and September bill monthly and the rest of the
	// year bills in quarters: six entries in all
	if len(entries) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(entries))
	}
	for i := 0; i < 3; i++ {
		assertAmount(t, entries[i], "650.00")
	}
	assertDue(t, entries[0], date(2025, time.July, 1))
	assertDue(t, entries[2], date(2025, time.September, 1))
	for i := 3; i < 6; i++ {
		assertAmount(t, entries[i], "1950.00")
	}
	assertDue(t, entries[3], date(2025, time.October, 1))
	assertDue(t, entries[5], date(2026, time.April, 1))
	if entries[3].Description != "October - December 2025" {
		t.Errorf("description = %q", entries[3].Description)
	}

	// AND the hybrid total matches a year of monthly billing
	var total billing.Money
	for _, e := range entries {
		total = total.Add(e.AmountDue)
	}
	if total.String() != "7800.00" { // 12 * 650
		t.Errorf("total = %s, want 7800.00", total)
	}
}

func TestHybridMidMonthStartProratesThenNormalizes(t *testing.T) {
	// GIVEN a hybrid tenancy starting mid-August
	terms := fixedTerms(date(2025, time.August, 16), date(2026, time.June, 30))
	member := memberAt(150, billing.CadenceMonthlyToQuarterly)

	// WHEN the hybrid schedule is generated
	entries := mustGenerate(t, lettings.HybridGenerator{}, terms, member)

	// THEN the first entry is the August remainder, and from September
	// the cursor runs on month boundaries into the October quarter
	first := entries[0]
	assertDue(t, first, date(2025, time.August, 16))
	assertAmount(t, first, "335.48") // 650 * 16/31
	assertAmount(t, entries[1], "650.00")
	assertDue(t, entries[2], date(2025, time.October, 1))
	assertAmount(t, entries[2], "1950.00")
}

func TestHybridClampsFinalQuarterBlock(t *testing.T) {
	// GIVEN a hybrid tenancy ending one month into a quarter block
	terms := fixedTerms(date(2025, time.July, 1), date(2025, time.October, 31))
	member := memberAt(150, billing.CadenceMonthlyToQuarterly)

	// WHEN the hybrid schedule is generated
	entries := mustGenerate(t, lettings.HybridGenerator{}, terms, member)

	// THEN the October block is clamped to just October
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	last := entries[3]
	assertDue(t, last, date(2025, time.October, 1))
	assertAmount(t, last, "650.00")
	if last.Description != "October 2025" {
		t.Errorf("description = %q", last.Description)
	}
}

// =============================================================================
// UPFRONT
// =============================================================================

func TestUpfrontSingleEntryForWholeTerm(t *testing.T) {
	// GIVEN a three-month tenancy paid in one go
	terms := fixedTerms(date(2025, time.July, 1), date(2025, time.September, 30))
	member := memberAt(150, billing.CadenceUpfront)

	// WHEN the upfront schedule is generated
	entries := mustGenerate(t, lettings.UpfrontGenerator{}, terms, member)

	// THEN one entry on the start date for the monthly sum of the term
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	only := entries[0]
	assertDue(t, only, date(2025, time.July, 1))
	assertAmount(t, only, "1950.00")
	if only.Description != "July - September 2025" {
		t.Errorf("description = %q", only.Description)
	}
	covered, ok := only.Coverage()
	if !ok || !covered.Start.Equal(terms.StartDate) || !covered.End.Equal(*terms.EndDate) {
		t.Errorf("coverage = %v, want the full term", covered)
	}
}

func TestUpfrontPartialMonthsPricedByDecomposition(t *testing.T) {
	// GIVEN an upfront tenancy with ragged edges on both ends
	terms := fixedTerms(date(2025, time.September, 15), date(2025, time.November, 15))
	member := memberAt(150, billing.CadenceUpfront)

	// WHEN the upfront schedule is generated
	entries := mustGenerate(t, lettings.UpfrontGenerator{}, terms, member)

	// THEN the amount is the month-by-month sum, never a flat day rate
	// across the whole span: 650*16/30 + 650 + 650*15/30
	assertAmount(t, entries[0], "1321.67")
}
