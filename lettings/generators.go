/*
Package lettings implements the cadence generators and per-tenancy
orchestration over the billing engine.

PURPOSE:
  The billing package knows how to price a date range; this package knows
  WHEN a tenant pays. Four cadence generators (monthly, quarterly,
  monthly-to-quarterly, upfront) plus the rolling first-period policy turn
  one member's terms into an ordered list of rent obligations, and the
  orchestrator fans out over a tenancy's members, adding deposits.

GENERATOR CONTRACTS (generators.go):
  - A member's entries never overlap in coverage and never leave a gap
    inside the tenancy term.
  - Due dates are non-decreasing and never precede the tenancy start.
  - A period whose amount computes to zero or negative is omitted, never
    zero-filled.
  - Entries come back unstamped: the orchestrator adds tenancy/member ids
    and the "Rent - " description prefix.

CADENCE RULES:
  Monthly       one entry per overlapping calendar month; a mid-month
                start yields a partial first entry due on the start date,
                every other entry is due the 1st
  Quarterly     fixed quarters Jul-Sep / Oct-Dec / Jan-Mar / Apr-Jun; any
                start off a quarter boundary bills the gap as one partial
                entry, then whole quarters
  Hybrid        months are billed monthly until the cursor lands on
                October, January or April, each of which opens a 3-month
                quarter block
  Upfront       the whole tenancy in a single entry due on the start date

SEE ALSO:
  - rolling.go: First-period policy for open-ended tenancies
  - orchestrator.go: Per-tenancy fan-out and dispatch
  - ../billing/calculator.go: The proration arithmetic underneath
*/
package lettings

import (
	"time"

	"github.com/hearth/schedule-engine/billing"
)

// =============================================================================
// SHARED VALIDATION
// =============================================================================

// requireFixedTerm rejects input a fixed-cadence generator cannot bill:
// invalid terms, a rolling tenancy (which bypasses cadence election
// entirely), or invalid member terms.
func requireFixedTerm(terms billing.TenancyTerms, member billing.MemberBillingTerms) error {
	if err := terms.Validate(); err != nil {
		return err
	}
	if terms.RollingMonthly {
		return &billing.InvalidTermsError{Reason: "rolling tenancy cannot use a fixed-cadence generator"}
	}
	return member.Validate()
}

// rentEntry assembles one unstamped rent entry from a covered period.
func rentEntry(due billing.Date, amount billing.Money, covered billing.Period, description string) billing.ScheduleEntry {
	e := billing.ScheduleEntry{
		PaymentType: billing.PaymentRent,
		DueDate:     due,
		AmountDue:   amount,
		Description: description,
	}
	return e.WithCoverage(covered)
}

// =============================================================================
// MONTHLY GENERATOR
// =============================================================================

// MonthlyGenerator bills one entry per calendar month overlapping the
// tenancy. A mid-month start produces a partial first entry due on the
// start date itself; every other entry is due on the 1st of its month.
type MonthlyGenerator struct {
	Calc billing.RentCalculator
}

func (MonthlyGenerator) Cadence() billing.Cadence { return billing.CadenceMonthly }

func (g MonthlyGenerator) Generate(terms billing.TenancyTerms, member billing.MemberBillingTerms) ([]billing.ScheduleEntry, error) {
	if err := requireFixedTerm(terms, member); err != nil {
		return nil, err
	}

	start, end := terms.StartDate, *terms.EndDate
	var entries []billing.ScheduleEntry

	cur := billing.StartOfMonth(start.Year(), start.Month())
	for cur.BeforeOrEqual(end) {
		covered, ok := g.Calc.MonthCoverage(cur.Year(), cur.Month(), start, end)
		if ok {
			amount := g.Calc.AmountForDays(covered.Days(), member.RentPerWeek, billing.DaysInMonth(cur.Year(), cur.Month()))
			if amount.IsPositive() {
				due := billing.Later(cur, start)
				entries = append(entries, rentEntry(due, amount, covered, monthDescription(cur, covered)))
			}
		}
		cur = cur.AddMonths(1)
	}
	return entries, nil
}

// monthDescription labels a monthly entry, marking months the tenancy
// only partially covers.
func monthDescription(monthStart billing.Date, covered billing.Period) string {
	label := monthStart.MonthLabel()
	if covered.Days() < billing.DaysInMonth(monthStart.Year(), monthStart.Month()) {
		return label + " (partial)"
	}
	return label
}

// =============================================================================
// QUARTERLY GENERATOR
// =============================================================================

// QuarterlyGenerator bills whole fixed quarters. Only a start exactly on
// the 1st of a quarter-start month anchors to that quarter; any other
// start bills the days up to the next quarter boundary as a single
// partial entry due on the start date. See billing.QuarterAnchor for the
// alignment table.
type QuarterlyGenerator struct {
	Calc billing.RentCalculator
}

func (QuarterlyGenerator) Cadence() billing.Cadence { return billing.CadenceQuarterly }

func (g QuarterlyGenerator) Generate(terms billing.TenancyTerms, member billing.MemberBillingTerms) ([]billing.ScheduleEntry, error) {
	if err := requireFixedTerm(terms, member); err != nil {
		return nil, err
	}

	start, end := terms.StartDate, *terms.EndDate
	var entries []billing.ScheduleEntry

	anchor := billing.QuarterAnchor(start)
	if anchor.After(start) {
		// Pre-quarter gap, billed as one partial entry due immediately.
		gap := billing.Period{Start: start, End: billing.Earlier(anchor.AddDays(-1), end)}
		amount := g.Calc.AmountAcrossMonths(gap.Start, gap.End, member.RentPerWeek)
		if amount.IsPositive() {
			entries = append(entries, rentEntry(start, amount, gap, gap.Label()+" (partial)"))
		}
	}

	term := billing.Period{Start: start, End: end}
	cur := anchor
	for cur.BeforeOrEqual(end) {
		covered, ok := billing.QuarterPeriod(cur).Intersect(term)
		if ok {
			amount := g.Calc.AmountAcrossMonths(covered.Start, covered.End, member.RentPerWeek)
			if amount.IsPositive() {
				due := billing.Later(cur, start)
				entries = append(entries, rentEntry(due, amount, covered, covered.Label()))
			}
		}
		cur = cur.AddMonths(3)
	}
	return entries, nil
}

// =============================================================================
// MONTHLY-TO-QUARTERLY HYBRID GENERATOR
// =============================================================================

// HybridGenerator bills month by month until the cursor lands on October,
// January or April, each of which opens a 3-month quarter block covering
// itself plus the following two months. For the canonical academic-year
// start this bills July, August and September monthly and the rest of the
// year in quarters. July never opens a block: it is a quarter-start month
// on the billing calendar but the hybrid cadence bills it monthly.
type HybridGenerator struct {
	Calc billing.RentCalculator
}

func (HybridGenerator) Cadence() billing.Cadence { return billing.CadenceMonthlyToQuarterly }

func (g HybridGenerator) Generate(terms billing.TenancyTerms, member billing.MemberBillingTerms) ([]billing.ScheduleEntry, error) {
	if err := requireFixedTerm(terms, member); err != nil {
		return nil, err
	}

	start, end := terms.StartDate, *terms.EndDate
	term := billing.Period{Start: start, End: end}
	var entries []billing.ScheduleEntry

	cur := billing.StartOfMonth(start.Year(), start.Month())
	for cur.BeforeOrEqual(end) {
		if opensQuarterBlock(cur.Month()) {
			blockEnd := cur.AddMonths(2)
			block := billing.Period{Start: cur, End: billing.EndOfMonth(blockEnd.Year(), blockEnd.Month())}
			covered, ok := block.Intersect(term)
			if ok {
				amount := g.Calc.AmountAcrossMonths(covered.Start, covered.End, member.RentPerWeek)
				if amount.IsPositive() {
					due := billing.Later(cur, start)
					entries = append(entries, rentEntry(due, amount, covered, covered.Label()))
				}
			}
			cur = cur.AddMonths(3)
			continue
		}

		covered, ok := g.Calc.MonthCoverage(cur.Year(), cur.Month(), start, end)
		if ok {
			amount := g.Calc.AmountForDays(covered.Days(), member.RentPerWeek, billing.DaysInMonth(cur.Year(), cur.Month()))
			if amount.IsPositive() {
				due := billing.Later(cur, start)
				entries = append(entries, rentEntry(due, amount, covered, monthDescription(cur, covered)))
			}
		}
		cur = cur.AddMonths(1)
	}
	return entries, nil
}

// opensQuarterBlock reports whether the hybrid cadence switches to
// quarterly billing when the cursor reaches this month.
func opensQuarterBlock(m time.Month) bool {
	return m == time.October || m == time.January || m == time.April
}

// =============================================================================
// UPFRONT GENERATOR
// =============================================================================

// UpfrontGenerator bills the entire tenancy in a single entry due on the
// start date.
type UpfrontGenerator struct {
	Calc billing.RentCalculator
}

func (UpfrontGenerator) Cadence() billing.Cadence { return billing.CadenceUpfront }

func (g UpfrontGenerator) Generate(terms billing.TenancyTerms, member billing.MemberBillingTerms) ([]billing.ScheduleEntry, error) {
	if err := requireFixedTerm(terms, member); err != nil {
		return nil, err
	}

	term := terms.FixedTerm()
	amount := g.Calc.AmountAcrossMonths(term.Start, term.End, member.RentPerWeek)
	if !amount.IsPositive() {
		return nil, nil
	}
	return []billing.ScheduleEntry{rentEntry(term.Start, amount, term, term.Label())}, nil
}
