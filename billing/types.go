/*
Package billing provides the core payment schedule engine.

PURPOSE:
  This package contains the cadence-agnostic types and arithmetic for
  turning tenancy terms into dated payment obligations. The calendar-month
  proration rules live here; the cadence generators that consume them live
  in the lettings package.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A 2-decimal currency quantity backed by decimal.Decimal
  - Cadence: The closed set of billing cadences a member can elect
  - ScheduleEntry: An immutable obligation (rent, deposit, deposit return)
  - Tenancy/Member/Entry IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Immutability: Entries are never modified, only compensated
     (holding-deposit reduction is the single sanctioned exception)
  2. Precision: decimal.Decimal everywhere; rounding only at the
     2-decimal amount boundary
  3. Type safety: IDs and cadences are distinct types, and the cadence
     set is closed - dispatch never falls through to a default
  4. Purity: nothing in this file touches a clock, a store, or a socket

USAGE:
  pppw := billing.NewMoney(150)
  calc := billing.RentCalculator{}
  amount := calc.AmountForCalendarMonth(2025, time.September, pppw,
      billing.NewDate(2025, time.September, 15),
      billing.NewDate(2026, time.August, 31))

SEE ALSO:
  - calculator.go: Proration arithmetic
  - generator.go: The ScheduleGenerator interface
  - ledger.go: Entry persistence contract
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - 2-decimal currency quantity
// =============================================================================

// Money carries an exact decimal value. Intermediate arithmetic keeps full
// precision; Round2 is applied once, when an amount becomes an obligation.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int) Money {
	return Money{Value: decimal.NewFromInt(int64(value))}
}

func MoneyFromDecimal(d decimal.Decimal) Money { return Money{Value: d} }

func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{Value: decimal.Zero}
	}
	return Money{Value: d}
}

func (m Money) Add(b Money) Money            { return Money{Value: m.Value.Add(b.Value)} }
func (m Money) Sub(b Money) Money            { return Money{Value: m.Value.Sub(b.Value)} }
func (m Money) Mul(s decimal.Decimal) Money  { return Money{Value: m.Value.Mul(s)} }
func (m Money) Div(s decimal.Decimal) Money  { return Money{Value: m.Value.Div(s)} }
func (m Money) Neg() Money                   { return Money{Value: m.Value.Neg()} }
func (m Money) Round2() Money                { return Money{Value: m.Value.Round(2)} }
func (m Money) IsZero() bool                 { return m.Value.IsZero() }
func (m Money) IsNegative() bool             { return m.Value.IsNegative() }
func (m Money) IsPositive() bool             { return m.Value.IsPositive() }
func (m Money) Equal(b Money) bool           { return m.Value.Equal(b.Value) }
func (m Money) GreaterThan(b Money) bool     { return m.Value.GreaterThan(b.Value) }
func (m Money) LessThan(b Money) bool        { return m.Value.LessThan(b.Value) }
func (m Money) Float64() float64             { f, _ := m.Value.Float64(); return f }

// String renders at the amount boundary's precision, e.g. "650.00".
func (m Money) String() string { return m.Value.StringFixed(2) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TenancyID string
type MemberID string
type EntryID string

// =============================================================================
// PAYMENT TYPE
// =============================================================================

type PaymentType string

const (
	PaymentRent          PaymentType = "rent"
	PaymentDeposit       PaymentType = "deposit"
	PaymentDepositReturn PaymentType = "deposit_return"
)

func (pt PaymentType) IsValid() bool {
	switch pt {
	case PaymentRent, PaymentDeposit, PaymentDepositReturn:
		return true
	}
	return false
}

// HasCoverage reports whether entries of this type carry a covered period.
// Deposits and deposit returns are point obligations with no coverage.
func (pt PaymentType) HasCoverage() bool { return pt == PaymentRent }

// =============================================================================
// CADENCE - Closed set of billing elections
// =============================================================================

// Cadence is a member's billing election. The set is closed: dispatch
// switches exhaustively over these four values and an unknown value is a
// fatal UnknownCadenceError, never a silent default. Rolling-monthly is a
// tenancy-level flag, not a cadence; it overrides whatever the member
// elected.
type Cadence string

const (
	CadenceMonthly            Cadence = "monthly"
	CadenceQuarterly          Cadence = "quarterly"
	CadenceMonthlyToQuarterly Cadence = "monthly_to_quarterly"
	CadenceUpfront            Cadence = "upfront"
)

// Cadences returns the closed set in display order.
func Cadences() []Cadence {
	return []Cadence{CadenceMonthly, CadenceQuarterly, CadenceMonthlyToQuarterly, CadenceUpfront}
}

func (c Cadence) IsValid() bool {
	switch c {
	case CadenceMonthly, CadenceQuarterly, CadenceMonthlyToQuarterly, CadenceUpfront:
		return true
	}
	return false
}

// ParseCadence maps wire values onto the closed set.
func ParseCadence(s string) (Cadence, error) {
	c := Cadence(s)
	if !c.IsValid() {
		return "", &UnknownCadenceError{Cadence: s}
	}
	return c, nil
}

// =============================================================================
// SCHEDULE ENTRY - One dated, amount-bearing obligation
// =============================================================================

// ScheduleEntry is the engine's output record. Entries are immutable once
// appended; amendments happen by compensating new entries.
type ScheduleEntry struct {
	ID          EntryID
	TenancyID   TenancyID
	MemberID    MemberID
	PaymentType PaymentType

	DueDate   Date
	AmountDue Money // rounded to 2 d.p.; negative only for deposit returns

	// Coverage is nil for deposit and deposit-return entries.
	CoversFrom *Date
	CoversTo   *Date

	// Weeks is display-only: ceil(covered days / 7), 0 without coverage.
	Weeks int

	Description string
	CreatedAt   time.Time
}

// Coverage returns the covered period, ok=false for point obligations.
func (e ScheduleEntry) Coverage() (Period, bool) {
	if e.CoversFrom == nil || e.CoversTo == nil {
		return Period{}, false
	}
	return Period{Start: *e.CoversFrom, End: *e.CoversTo}, true
}

// WithCoverage stamps a covered period and its derived week count.
func (e ScheduleEntry) WithCoverage(p Period) ScheduleEntry {
	from, to := p.Start, p.End
	e.CoversFrom = &from
	e.CoversTo = &to
	e.Weeks = WeeksForDays(p.Days())
	return e
}
