package lettings

import (
	"fmt"

	"github.com/hearth/schedule-engine/billing"
)

// =============================================================================
// ROLLING FIRST-PERIOD POLICY
// =============================================================================

// RollingFirstPeriod produces the opening entry for an open-ended
// month-to-month tenancy. Cadence election does not apply: a rolling
// tenancy always bills calendar months, continued month by month by the
// billing job (see api.RollingBillingJob).
//
// The one wrinkle is a mid-month start. Rather than invoice a tenant
// twice in quick succession, the partial opening month is combined with
// the first full month into a single entry due on the 1st of that full
// month. A start exactly on the 1st just bills that month, due on the
// start date.
type RollingFirstPeriod struct {
	Calc billing.RentCalculator
}

// Generate returns exactly one entry covering the opening period.
func (p RollingFirstPeriod) Generate(terms billing.TenancyTerms, member billing.MemberBillingTerms) ([]billing.ScheduleEntry, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	if !terms.RollingMonthly {
		return nil, &billing.InvalidTermsError{Reason: "first-period policy requires a rolling tenancy"}
	}
	if err := member.Validate(); err != nil {
		return nil, err
	}

	start := terms.StartDate
	monthEnd := billing.EndOfMonth(start.Year(), start.Month())

	if start.Day() == 1 {
		covered := billing.Period{Start: start, End: monthEnd}
		amount := p.Calc.AmountForDays(covered.Days(), member.RentPerWeek, covered.Days())
		return []billing.ScheduleEntry{rentEntry(start, amount, covered, start.MonthLabel())}, nil
	}

	// Combine the partial opening month with the next full month; the
	// tenant pays once, on the 1st of the full month.
	next := billing.StartOfMonth(start.Year(), start.Month()).AddMonths(1)
	covered := billing.Period{Start: start, End: billing.EndOfMonth(next.Year(), next.Month())}
	amount := p.Calc.AmountAcrossMonths(covered.Start, covered.End, member.RentPerWeek)
	description := fmt.Sprintf("%s (partial) and %s", start.MonthLabel(), next.MonthLabel())
	return []billing.ScheduleEntry{rentEntry(next, amount, covered, description)}, nil
}
