/*
schedule_contract_test.go - Behavioral contracts shared by every cadence

PURPOSE:
  These tests state the properties a schedule must have regardless of
  which cadence produced it, and check every generator against all of
  them over a grid of start dates and term lengths:

  1. Coverage - entries never overlap and never leave a gap inside the
     tenancy term; the first entry starts on the start date and the last
     ends on the end date
  2. Ordering - due dates are non-decreasing and never precede the start
  3. Amounts - no zero or negative entries; the schedule total equals
     the month-by-month price of the whole term
  4. Decomposition - pricing a range month by month equals pricing its
     sub-ranges and summing, which is why every cadence reconciles with
     every other

READING THESE TESTS:
  Each test iterates all four generators. A failure names the cadence,
  the start date and the term length that broke the property.
*/
package lettings_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/hearth/schedule-engine/billing"
	"github.com/hearth/schedule-engine/lettings"
)

func allGenerators() []billing.ScheduleGenerator {
	return []billing.ScheduleGenerator{
		lettings.MonthlyGenerator{},
		lettings.QuarterlyGenerator{},
		lettings.HybridGenerator{},
		lettings.UpfrontGenerator{},
	}
}

// termGrid mixes boundary-aligned and awkward start dates with term
// lengths from one month to two years.
func termGrid() []billing.TenancyTerms {
	starts := []billing.Date{
		billing.NewDate(2025, time.July, 1),      // quarter boundary
		billing.NewDate(2025, time.September, 1), // month boundary
		billing.NewDate(2025, time.September, 15),
		billing.NewDate(2025, time.November, 1), // 1st, but off quarter
		billing.NewDate(2025, time.December, 31),
		billing.NewDate(2026, time.February, 14), // short month
	}
	months := []int{1, 3, 6, 11, 12, 24}

	var grid []billing.TenancyTerms
	for _, start := range starts {
		for _, m := range months {
			end := start.AddMonths(m).AddDays(-1)
			grid = append(grid, fixedTerms(start, end))
		}
	}
	return grid
}

func forEachSchedule(t *testing.T, check func(t *testing.T, terms billing.TenancyTerms, entries []billing.ScheduleEntry)) {
	t.Helper()
	for _, gen := range allGenerators() {
		for _, terms := range termGrid() {
			name := fmt.Sprintf("%s/%s+%s", gen.Cadence(), terms.StartDate, terms.EndDate)
			t.Run(name, func(t *testing.T) {
				entries := mustGenerate(t, gen, terms, memberAt(150, gen.Cadence()))
				check(t, terms, entries)
			})
		}
	}
}

// =============================================================================
// 1. COVERAGE - no overlap, no gap
// =============================================================================

func TestEveryCadenceCoversTheTermExactlyOnce(t *testing.T) {
	forEachSchedule(t, func(t *testing.T, terms billing.TenancyTerms, entries []billing.ScheduleEntry) {
		if len(entries) == 0 {
			t.Fatal("schedule is empty")
		}
		cursor := terms.StartDate
		for i, e := range entries {
			covered, ok := e.Coverage()
			if !ok {
				t.Fatalf("entry %d carries no coverage", i)
			}
			if !covered.Start.Equal(cursor) {
				t.Fatalf("entry %d starts %s, want %s (gap or overlap)", i, covered.Start, cursor)
			}
			cursor = covered.End.AddDays(1)
		}
		if !cursor.AddDays(-1).Equal(*terms.EndDate) {
			t.Fatalf("schedule ends %s, want %s", cursor.AddDays(-1), terms.EndDate)
		}
	})
}

// =============================================================================
// 2. ORDERING - due dates non-decreasing, never before the start
// =============================================================================

func TestEveryCadenceDueDatesAreOrdered(t *testing.T) {
	forEachSchedule(t, func(t *testing.T, terms billing.TenancyTerms, entries []billing.ScheduleEntry) {
		prev := terms.StartDate
		for i, e := range entries {
			if e.DueDate.Before(terms.StartDate) {
				t.Fatalf("entry %d due %s, before tenancy start", i, e.DueDate)
			}
			if e.DueDate.Before(prev) {
				t.Fatalf("entry %d due %s, before entry %d due %s", i, e.DueDate, i-1, prev)
			}
			prev = e.DueDate
		}
	})
}

// =============================================================================
// 3. AMOUNTS - positive entries, total reconciles across cadences
// =============================================================================

func TestEveryCadenceTotalEqualsMonthByMonthPrice(t *testing.T) {
	var calc billing.RentCalculator
	forEachSchedule(t, func(t *testing.T, terms billing.TenancyTerms, entries []billing.ScheduleEntry) {
		var total billing.Money
		for i, e := range entries {
			if !e.AmountDue.IsPositive() {
				t.Fatalf("entry %d amount %s is not positive", i, e.AmountDue)
			}
			total = total.Add(e.AmountDue)
		}
		want := calc.AmountAcrossMonths(terms.StartDate, *terms.EndDate, billing.NewMoney(150))
		if !total.Equal(want) {
			t.Fatalf("schedule total %s, month-by-month price %s", total, want)
		}
	})
}

// =============================================================================
// 4. DECOMPOSITION - splitting a range never changes its price
// =============================================================================

func TestRangePriceDecomposesAtAnyCut(t *testing.T) {
	// GIVEN a multi-month range and a cut point inside it
	var calc billing.RentCalculator
	rate := billing.NewMoney(150)
	start := billing.NewDate(2025, time.September, 15)
	end := billing.NewDate(2026, time.March, 10)

	whole := calc.AmountAcrossMonths(start, end, rate)

	// WHEN the range is priced as two pieces at month boundaries
	// THEN the pieces sum to the whole, wherever the cut falls
	for _, cut := range []billing.Date{
		billing.NewDate(2025, time.September, 30),
		billing.NewDate(2025, time.October, 31),
		billing.NewDate(2025, time.December, 31),
		billing.NewDate(2026, time.February, 28),
	} {
		left := calc.AmountAcrossMonths(start, cut, rate)
		right := calc.AmountAcrossMonths(cut.AddDays(1), end, rate)
		if got := left.Add(right); !got.Equal(whole) {
			t.Errorf("cut at %s: %s + %s = %s, want %s", cut, left, right, got, whole)
		}
	}
}
