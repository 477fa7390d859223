/*
tenancy.go - Engine inputs and their boundary validation

PURPOSE:
  Defines the two input documents every generation run starts from:
  TenancyTerms (the dates and landlord flags of one tenancy) and
  MemberBillingTerms (one tenant's rate, cadence election and deposit).
  The engine assumes validated input, but Validate is applied defensively
  at every entry point so a bad document can never reach proration
  arithmetic.

VALIDATION RULES:
  Fixed-term      end date required and strictly after the start date
  Rolling         end date must be absent; billing is open-ended
  Rates/deposits  never negative (zero is fine: a member with no deposit
                  simply produces no deposit entry)
  Cadence         must come from the closed set; unknowns are fatal

SEE ALSO:
  - types.go: Cadence and Money definitions
  - ../lettings/orchestrator.go: The consumer of these documents
*/
package billing

import "time"

// =============================================================================
// TENANCY TERMS - Dates and landlord flags
// =============================================================================

// TenancyTerms is the tenancy-level input to schedule generation. It is not
// owned by this engine; the tenancy workflow supplies it once the tenancy
// reaches its ready-to-bill stage.
type TenancyTerms struct {
	StartDate Date

	// EndDate is nil exactly when the tenancy is rolling monthly.
	EndDate *Date

	// RollingMonthly marks an open-ended tenancy. It overrides every
	// member's cadence election: rolling tenancies bill monthly, due the
	// 1st, regardless of what the member chose.
	RollingMonthly bool

	// ManageRent comes from landlord settings. When false the agency does
	// not collect rent and only deposit obligations are scheduled.
	ManageRent bool
}

// FixedTerm is the covered range of a non-rolling tenancy.
// Call only after Validate; rolling terms have no fixed term.
func (t TenancyTerms) FixedTerm() Period {
	return Period{Start: t.StartDate, End: *t.EndDate}
}

// Validate applies the boundary rules. Generators call this defensively
// even though upstream validates before persisting.
func (t TenancyTerms) Validate() error {
	if t.StartDate.IsZero() {
		return &InvalidTermsError{Reason: "start date is required"}
	}
	if t.RollingMonthly {
		if t.EndDate != nil {
			return &InvalidTermsError{Reason: "rolling tenancy must not carry an end date"}
		}
		return nil
	}
	if t.EndDate == nil {
		return &InvalidTermsError{Reason: "end date is required for a fixed-term tenancy"}
	}
	if !t.EndDate.After(t.StartDate) {
		return &InvalidTermsError{Reason: "end date must be after start date"}
	}
	return nil
}

// =============================================================================
// MEMBER BILLING TERMS - One tenant's rate, cadence and deposit
// =============================================================================

type MemberBillingTerms struct {
	MemberID MemberID

	// Name is display-only and may be empty.
	Name string

	// RentPerWeek is the PPPW rate the whole calculator chain derives from.
	RentPerWeek Money

	// PaymentOption is the member's cadence election. Ignored when the
	// tenancy is rolling.
	PaymentOption Cadence

	DepositAmount Money
}

func (m MemberBillingTerms) Validate() error {
	if m.MemberID == "" {
		return &InvalidTermsError{Reason: "member id is required"}
	}
	if m.RentPerWeek.IsNegative() {
		return &InvalidTermsError{Reason: "rent per week must not be negative"}
	}
	if m.DepositAmount.IsNegative() {
		return &InvalidTermsError{Reason: "deposit amount must not be negative"}
	}
	if !m.PaymentOption.IsValid() {
		return &UnknownCadenceError{Cadence: string(m.PaymentOption), MemberID: m.MemberID}
	}
	return nil
}

// =============================================================================
// TENANCY - Persisted wrapper around the terms
// =============================================================================

type Tenancy struct {
	ID        TenancyID
	Terms     TenancyTerms
	CreatedAt time.Time
}
