package billing_test

import (
	"testing"
	"time"

	"github.com/hearth/schedule-engine/billing"
)

func date(y int, m time.Month, d int) billing.Date {
	return billing.NewDate(y, m, d)
}

func TestMonthlyRateFromWeekly(t *testing.T) {
	// GIVEN: 150.00 per week
	calc := billing.RentCalculator{}

	// WHEN: Deriving the monthly rate
	monthly := calc.MonthlyRate(billing.NewMoney(150))

	// THEN: 150 * 52 / 12 = 650, exactly
	if monthly.Round2().String() != "650.00" {
		t.Errorf("expected 650.00, got %s", monthly.Round2())
	}
}

func TestFullMonthBillsTheFlatRate(t *testing.T) {
	// GIVEN: The full length of several differently-sized months
	calc := billing.RentCalculator{}
	rate := billing.NewMoney(150)

	for _, days := range []int{28, 29, 30, 31} {
		// WHEN: Billing the whole month
		amount := calc.AmountForDays(days, rate, days)

		// THEN: The flat monthly rate, regardless of month length
		if amount.String() != "650.00" {
			t.Errorf("%d-day month: expected 650.00, got %s", days, amount)
		}
	}
}

func TestPartialMonthProratesAgainstFullMonthLength(t *testing.T) {
	// GIVEN: September 15-30, 16 of September's 30 days
	calc := billing.RentCalculator{}

	// WHEN: Billing the slice
	amount := calc.AmountForDays(16, billing.NewMoney(150), 30)

	// THEN: 650 * 16/30 = 346.67
	if amount.String() != "346.67" {
		t.Errorf("expected 346.67, got %s", amount)
	}
}

func TestZeroAndDegenerateDays(t *testing.T) {
	calc := billing.RentCalculator{}
	rate := billing.NewMoney(150)

	// GIVEN/WHEN/THEN: No days, no charge
	if got := calc.AmountForDays(0, rate, 30); !got.IsZero() {
		t.Errorf("expected zero for 0 days, got %s", got)
	}
	if got := calc.AmountForDays(-3, rate, 30); !got.IsZero() {
		t.Errorf("expected zero for negative days, got %s", got)
	}
}

func TestAmountForCalendarMonthClampsBeforeProrating(t *testing.T) {
	// GIVEN: A tenancy running September 15 onward
	calc := billing.RentCalculator{}
	start := date(2025, time.September, 15)
	end := date(2026, time.August, 31)

	// WHEN: Billing September against the tenancy
	amount := calc.AmountForCalendarMonth(2025, time.September, billing.NewMoney(150), start, end)

	// THEN: 16/30 of the monthly rate
	if amount.String() != "346.67" {
		t.Errorf("expected 346.67, got %s", amount)
	}

	// WHEN: Billing a month entirely outside the tenancy
	outside := calc.AmountForCalendarMonth(2025, time.August, billing.NewMoney(150), start, end)

	// THEN: Zero
	if !outside.IsZero() {
		t.Errorf("expected zero for an uncovered month, got %s", outside)
	}
}

func TestAmountAcrossMonthsDecomposesMonthByMonth(t *testing.T) {
	// GIVEN: September 15 through November 30, spanning a partial and two
	// full months
	calc := billing.RentCalculator{}
	rate := billing.NewMoney(150)

	// WHEN: Billing the whole range
	total := calc.AmountAcrossMonths(date(2025, time.September, 15), date(2025, time.November, 30), rate)

	// THEN: 346.67 + 650.00 + 650.00
	if total.String() != "1646.67" {
		t.Errorf("expected 1646.67, got %s", total)
	}
}

func TestAmountAcrossMonthsMatchesPerMonthCuts(t *testing.T) {
	// GIVEN: A range and the same range cut at a month boundary
	calc := billing.RentCalculator{}
	rate := billing.NewMoney(150)
	start := date(2025, time.September, 15)
	end := date(2026, time.February, 28)

	// WHEN: Pricing whole versus cut at November 1st
	whole := calc.AmountAcrossMonths(start, end, rate)
	head := calc.AmountAcrossMonths(start, date(2025, time.October, 31), rate)
	tail := calc.AmountAcrossMonths(date(2025, time.November, 1), end, rate)

	// THEN: Identical to the penny
	if !whole.Equal(head.Add(tail)) {
		t.Errorf("cut at a month boundary changed the total: %s vs %s + %s", whole, head, tail)
	}
}

func TestAmountAcrossMonthsEmptyRange(t *testing.T) {
	// GIVEN: An end before the start
	calc := billing.RentCalculator{}

	// WHEN: Billing the inverted range
	total := calc.AmountAcrossMonths(date(2025, time.October, 1), date(2025, time.September, 30), billing.NewMoney(150))

	// THEN: Zero
	if !total.IsZero() {
		t.Errorf("expected zero, got %s", total)
	}
}

func TestFebruaryLeapYearDenominator(t *testing.T) {
	// GIVEN: The first half of February 2028, a leap year
	calc := billing.RentCalculator{}

	// WHEN: Billing February 1-14
	amount := calc.AmountForDays(14, billing.NewMoney(150), billing.DaysInMonth(2028, time.February))

	// THEN: 650 * 14/29 = 313.79
	if amount.String() != "313.79" {
		t.Errorf("expected 313.79, got %s", amount)
	}
}
