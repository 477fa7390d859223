package billing

import "time"

// =============================================================================
// PERIOD - A covered date range (inclusive on both ends)
// =============================================================================

// Period is the coverage window of a schedule entry. Rent arithmetic is
// ALWAYS per-period: amounts are derived from the days a period covers
// inside one calendar month, never from a point in time.
type Period struct {
	Start Date
	End   Date
}

func MonthPeriod(year int, month time.Month) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

// Contains returns true if the date is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days counts inclusively: [Sep 15, Sep 30] is 16 days.
func (p Period) Days() int {
	return DaysBetweenInclusive(p.Start, p.End)
}

// Intersect clamps this period against another. ok is false when the two
// ranges share no days.
func (p Period) Intersect(other Period) (Period, bool) {
	start := Later(p.Start, other.Start)
	end := Earlier(p.End, other.End)
	if start.After(end) {
		return Period{}, false
	}
	return Period{Start: start, End: end}, true
}

// Overlaps reports whether the two periods share at least one day.
func (p Period) Overlaps(other Period) bool {
	_, ok := p.Intersect(other)
	return ok
}

// Label renders the period for entry descriptions:
//
//	same month           "September 2025"
//	same year            "October - December 2025"
//	across a year end    "December 2025 - January 2026"
func (p Period) Label() string {
	if p.Start.Year() == p.End.Year() && p.Start.Month() == p.End.Month() {
		return p.Start.MonthLabel()
	}
	if p.Start.Year() == p.End.Year() {
		return p.Start.Time.Format("January") + " - " + p.End.MonthLabel()
	}
	return p.Start.MonthLabel() + " - " + p.End.MonthLabel()
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// BILLING QUARTERS - Fixed to the lettings year
// =============================================================================

// Quarters are fixed: July-September, October-December, January-March,
// April-June. The mapping is a deliberate business rule kept as an explicit
// table: a tenancy starting November 1st bills toward the January quarter,
// and December 1st likewise, even though both are month boundaries. Do not
// re-derive this from calendar arithmetic; confirm with product before
// changing it.
var quarterStartByMonth = map[time.Month]time.Month{
	time.July:      time.July,
	time.August:    time.July,
	time.September: time.July,
	time.October:   time.October,
	time.November:  time.October,
	time.December:  time.October,
	time.January:   time.January,
	time.February:  time.January,
	time.March:     time.January,
	time.April:     time.April,
	time.May:       time.April,
	time.June:      time.April,
}

// QuarterStartMonth returns the month that opens the billing quarter the
// given month belongs to.
func QuarterStartMonth(m time.Month) time.Month { return quarterStartByMonth[m] }

func IsQuarterStartMonth(m time.Month) bool { return quarterStartByMonth[m] == m }

// QuarterAnchor aligns a tenancy start to its billing quarter. Only a start
// exactly on the 1st of a quarter-start month anchors to that quarter;
// every other start anchors to the next quarter boundary, with the gap
// billed separately as a pre-quarter partial.
func QuarterAnchor(d Date) Date {
	if d.Day() == 1 && IsQuarterStartMonth(d.Month()) {
		return d
	}
	return NextQuarterStart(d)
}

// NextQuarterStart returns the first quarter boundary strictly after d.
func NextQuarterStart(d Date) Date {
	cur := StartOfMonth(d.Year(), d.Month())
	for {
		cur = cur.AddMonths(1)
		if IsQuarterStartMonth(cur.Month()) {
			return cur
		}
	}
}

// QuarterPeriod is the three calendar months opened by a quarter boundary.
func QuarterPeriod(quarterStart Date) Period {
	last := quarterStart.AddMonths(2)
	return Period{Start: quarterStart, End: EndOfMonth(last.Year(), last.Month())}
}
