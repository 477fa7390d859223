package lettings

import (
	"github.com/shopspring/decimal"

	"github.com/hearth/schedule-engine/billing"
)

// =============================================================================
// DEPOSIT CAP - Tenant Fees Act limits
// =============================================================================

// depositCapAnnualThreshold is the annual rent above which the statutory
// deposit cap rises from five weeks' rent to six.
var depositCapAnnualThreshold = billing.NewMoneyFromInt(50000)

// DepositCapFor returns the statutory maximum deposit for a weekly rate:
// five weeks' rent, or six once the annual rent reaches £50,000.
func DepositCapFor(rentPerWeek billing.Money) billing.Money {
	annual := rentPerWeek.Mul(decimal.NewFromInt(52))
	weeks := int64(5)
	if annual.GreaterThan(depositCapAnnualThreshold) || annual.Equal(depositCapAnnualThreshold) {
		weeks = 6
	}
	return rentPerWeek.Mul(decimal.NewFromInt(weeks)).Round2()
}

// ClampDeposit caps a requested deposit at the statutory limit. The
// second return reports whether the request exceeded the cap; callers
// surface that as a warning, the clamp itself is advisory.
func ClampDeposit(requested, rentPerWeek billing.Money) (billing.Money, bool) {
	cap := DepositCapFor(rentPerWeek)
	if requested.GreaterThan(cap) {
		return cap, true
	}
	return requested, false
}

// =============================================================================
// MEMBER PRESETS - Canned billing configurations
// =============================================================================

// StudentTerms is the standard student-let configuration: the
// monthly-to-quarterly cadence that tracks loan instalments, deposit at
// the five-week cap.
func StudentTerms(id billing.MemberID, name string, rentPerWeek billing.Money) billing.MemberBillingTerms {
	return billing.MemberBillingTerms{
		MemberID:      id,
		Name:          name,
		RentPerWeek:   rentPerWeek,
		PaymentOption: billing.CadenceMonthlyToQuarterly,
		DepositAmount: DepositCapFor(rentPerWeek),
	}
}

// ProfessionalTerms is the standard professional-let configuration:
// monthly billing, deposit at the statutory cap.
func ProfessionalTerms(id billing.MemberID, name string, rentPerWeek billing.Money) billing.MemberBillingTerms {
	return billing.MemberBillingTerms{
		MemberID:      id,
		Name:          name,
		RentPerWeek:   rentPerWeek,
		PaymentOption: billing.CadenceMonthly,
		DepositAmount: DepositCapFor(rentPerWeek),
	}
}

// QuarterlyTerms bills on the fixed quarter calendar, for tenants who
// settle against a quarterly allowance or stipend.
func QuarterlyTerms(id billing.MemberID, name string, rentPerWeek billing.Money) billing.MemberBillingTerms {
	return billing.MemberBillingTerms{
		MemberID:      id,
		Name:          name,
		RentPerWeek:   rentPerWeek,
		PaymentOption: billing.CadenceQuarterly,
		DepositAmount: DepositCapFor(rentPerWeek),
	}
}

// UpfrontTerms bills the whole tenancy on day one, the configuration
// used for overseas guarantorless tenants.
func UpfrontTerms(id billing.MemberID, name string, rentPerWeek billing.Money) billing.MemberBillingTerms {
	return billing.MemberBillingTerms{
		MemberID:      id,
		Name:          name,
		RentPerWeek:   rentPerWeek,
		PaymentOption: billing.CadenceUpfront,
		DepositAmount: DepositCapFor(rentPerWeek),
	}
}
