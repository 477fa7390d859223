package billing

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar-day abstraction (billing is day-granular by convention)
// =============================================================================

// Date is a calendar day in UTC. Rent proration counts inclusive days, so
// everything below normalizes to midnight before comparing.
type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses the wire format used everywhere in this system (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.Time.AddDate(0, n, 0)} }
func (d Date) AddYears(n int) Date  { return Date{Time: d.Time.AddDate(n, 0, 0)} }

// Properties
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }
func (d Date) IsZero() bool      { return d.Time.IsZero() }

func (d Date) String() string { return d.Time.Format("2006-01-02") }

// MonthLabel renders the month a date falls in, e.g. "September 2025".
// Schedule entry descriptions are built from these.
func (d Date) MonthLabel() string { return d.Time.Format("January 2006") }

// =============================================================================
// CALENDAR UTILITIES
// =============================================================================

func StartOfMonth(year int, month time.Month) Date { return NewDate(year, month, 1) }

func EndOfMonth(year int, month time.Month) Date {
	t := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return Date{Time: t}
}

// DaysInMonth is the proration denominator: the full length of the calendar
// month, never the length of a clamped range.
func DaysInMonth(year int, month time.Month) int {
	return EndOfMonth(year, month).Day()
}

// DaysBetweenInclusive counts both endpoints. A tenancy covering the 15th
// through the 30th is billed for 16 days.
func DaysBetweenInclusive(from, to Date) int {
	return int(to.normalize().Sub(from.normalize()).Hours()/24) + 1
}

// Earlier and Later clamp coverage against tenancy boundaries.
func Earlier(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

func Later(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// WeeksForDays is the display-only week count shown next to an amount.
// Always rounds up: a 16-day partial month reads as 3 weeks.
func WeeksForDays(days int) int {
	if days <= 0 {
		return 0
	}
	return (days + 6) / 7
}
