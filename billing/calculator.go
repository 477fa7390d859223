/*
calculator.go - Calendar-month proration arithmetic

PURPOSE:
  Implements the PCM billing convention every cadence is built on: a flat
  monthly rate derived from the weekly rate, with partial periods prorated
  by the actual days of that specific month.

THE THREE RULES:
  1. Monthly rate = pppw * 52 / 12. Independent of how many days the
     month has.
  2. A FULL month is always billed at the flat monthly rate, never the
     day-prorated equivalent. 30/30ths of September must equal the rate
     to the penny; recomputing it through the fraction invites rounding
     drift.
  3. A range spanning several months is decomposed month by month and
     summed. A single proration across the whole span misbills any range
     mixing 28/29/30/31-day months. This is a design rule, not an
     implementation detail: nothing else in this repository may prorate
     across a month boundary.

DENOMINATOR:
  The proration denominator is ALWAYS the full length of the calendar
  month, never the clamped range's own length. September 15-30 against a
  tenancy is 16/30 of the September rate. The clamp is computed first,
  the denominator after, in that order.

USAGE:
  calc := billing.RentCalculator{}
  total := calc.AmountAcrossMonths(start, end, pppw)

SEE ALSO:
  - period.go: Intersection/clamping
  - ../lettings/generators.go: The cadence generators driving this
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	weeksPerYear  = decimal.NewFromInt(52)
	monthsPerYear = decimal.NewFromInt(12)
)

// RentCalculator is stateless; every method takes all inputs explicitly
// and returns a new value. Safe for concurrent use by construction.
type RentCalculator struct{}

// MonthlyRate derives the canonical calendar-month rent from the weekly
// rate: pppw * 52 / 12. Unrounded; rounding happens at the amount
// boundary in AmountForDays.
func (RentCalculator) MonthlyRate(rentPerWeek Money) Money {
	return rentPerWeek.Mul(weeksPerYear).Div(monthsPerYear)
}

// AmountForDays bills `days` out of a month of `daysInMonth` days.
// A full month gets the flat monthly rate; anything shorter is prorated
// as (days / daysInMonth) of it. Rounded to 2 d.p. here and only here.
func (c RentCalculator) AmountForDays(days int, rentPerWeek Money, daysInMonth int) Money {
	if days <= 0 || daysInMonth <= 0 {
		return Money{Value: decimal.Zero}
	}
	monthly := c.MonthlyRate(rentPerWeek)
	if days == daysInMonth {
		return monthly.Round2()
	}
	fraction := decimal.NewFromInt(int64(days)).Div(decimal.NewFromInt(int64(daysInMonth)))
	return monthly.Mul(fraction).Round2()
}

// MonthCoverage intersects one calendar month with [clampStart, clampEnd].
// ok is false when the month lies entirely outside the clamp.
func (RentCalculator) MonthCoverage(year int, month time.Month, clampStart, clampEnd Date) (Period, bool) {
	return MonthPeriod(year, month).Intersect(Period{Start: clampStart, End: clampEnd})
}

// AmountForCalendarMonth bills the slice of one calendar month that falls
// inside [clampStart, clampEnd]. The clamp is computed before the
// denominator, and the denominator is the month's full length.
func (c RentCalculator) AmountForCalendarMonth(year int, month time.Month, rentPerWeek Money, clampStart, clampEnd Date) Money {
	covered, ok := c.MonthCoverage(year, month, clampStart, clampEnd)
	if !ok {
		return Money{Value: decimal.Zero}
	}
	return c.AmountForDays(covered.Days(), rentPerWeek, DaysInMonth(year, month))
}

// AmountAcrossMonths bills an arbitrary inclusive range by decomposing it
// into calendar months and summing AmountForCalendarMonth per month.
// Never replaced by a single whole-range proration; see the file header.
func (c RentCalculator) AmountAcrossMonths(start, end Date, rentPerWeek Money) Money {
	total := Money{Value: decimal.Zero}
	if end.Before(start) {
		return total
	}
	cur := StartOfMonth(start.Year(), start.Month())
	for cur.BeforeOrEqual(end) {
		total = total.Add(c.AmountForCalendarMonth(cur.Year(), cur.Month(), rentPerWeek, start, end))
		cur = cur.AddMonths(1)
	}
	return total
}
