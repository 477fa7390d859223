package billing_test

import (
	"testing"
	"time"

	"github.com/hearth/schedule-engine/billing"
)

func TestParseDateWireFormat(t *testing.T) {
	// GIVEN: The wire format
	parsed, err := billing.ParseDate("2025-09-15")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	// THEN: Round-trips exactly
	if parsed.String() != "2025-09-15" {
		t.Errorf("expected 2025-09-15, got %s", parsed)
	}

	// GIVEN/WHEN/THEN: Anything else is rejected
	if _, err := billing.ParseDate("15/09/2025"); err == nil {
		t.Error("expected an error for a non-ISO date")
	}
}

func TestEndOfMonthHandlesLeapYears(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2025, time.February, 28},
		{2028, time.February, 29},
		{2025, time.September, 30},
		{2025, time.December, 31},
	}
	for _, tc := range cases {
		if got := billing.DaysInMonth(tc.year, tc.month); got != tc.want {
			t.Errorf("%s %d: expected %d days, got %d", tc.month, tc.year, tc.want, got)
		}
		if end := billing.EndOfMonth(tc.year, tc.month); end.Day() != tc.want {
			t.Errorf("%s %d: expected end on day %d, got %s", tc.month, tc.year, tc.want, end)
		}
	}
}

func TestDaysBetweenInclusiveCountsBothEnds(t *testing.T) {
	// GIVEN: The 15th through the 30th
	from := date(2025, time.September, 15)
	to := date(2025, time.September, 30)

	// WHEN/THEN: 16 days, not 15
	if got := billing.DaysBetweenInclusive(from, to); got != 16 {
		t.Errorf("expected 16, got %d", got)
	}
	if got := billing.DaysBetweenInclusive(from, from); got != 1 {
		t.Errorf("expected a single day to count as 1, got %d", got)
	}
}

func TestWeeksForDaysRoundsUp(t *testing.T) {
	cases := map[int]int{0: 0, -2: 0, 1: 1, 7: 1, 8: 2, 16: 3, 30: 5, 31: 5}
	for days, want := range cases {
		if got := billing.WeeksForDays(days); got != want {
			t.Errorf("%d days: expected %d weeks, got %d", days, want, got)
		}
	}
}

func TestAddMonthsFromMonthStart(t *testing.T) {
	// GIVEN: A month-boundary cursor, the shape every generator walks with
	cur := billing.StartOfMonth(2025, time.December)

	// WHEN: Stepping across the year end
	next := cur.AddMonths(1)

	// THEN: Lands on the next 1st
	if !next.Equal(date(2026, time.January, 1)) {
		t.Errorf("expected 2026-01-01, got %s", next)
	}
}
