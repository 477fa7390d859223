/*
Schedule orchestration: one tenancy in, one flat list of obligations out.

PURPOSE:
  The orchestrator is the only place cadence dispatch happens. It walks a
  tenancy's members, books each deposit a week before move-in, then hands
  rent generation to the member's elected cadence generator (or the
  rolling first-period policy for open-ended tenancies) and stamps the
  results with tenancy and member identity.

KEY CONCEPTS:
  - Deposits are booked for every member with a deposit, even when rent
    collection is not managed for the tenancy: deposit protection is a
    statutory obligation, rent collection is a service election.
  - An unrecognised cadence is fatal for the whole build. A silently
    skipped member is a tenant who never gets billed.
  - BuildSchedule is pure: it persists nothing. ScheduleLedger owns
    persistence and the run-once guard.

SEE ALSO:
  - generators.go: the four cadence generators behind GeneratorFor
  - ledger.go: persistence, run-once guard, audit trail
*/
package lettings

import (
	"github.com/hearth/schedule-engine/billing"
)

// depositLeadDays is how far ahead of move-in the deposit falls due.
const depositLeadDays = 7

// ScheduleOrchestrator builds the full opening schedule for a tenancy.
type ScheduleOrchestrator struct {
	Calc    billing.RentCalculator
	Rolling RollingFirstPeriod
}

func NewOrchestrator() *ScheduleOrchestrator {
	return &ScheduleOrchestrator{}
}

// GeneratorFor resolves a cadence to its generator. The switch is closed:
// anything unrecognised is a fatal UnknownCadenceError, never a skip.
func (o *ScheduleOrchestrator) GeneratorFor(c billing.Cadence) (billing.ScheduleGenerator, error) {
	switch c {
	case billing.CadenceMonthly:
		return MonthlyGenerator{Calc: o.Calc}, nil
	case billing.CadenceQuarterly:
		return QuarterlyGenerator{Calc: o.Calc}, nil
	case billing.CadenceMonthlyToQuarterly:
		return HybridGenerator{Calc: o.Calc}, nil
	case billing.CadenceUpfront:
		return UpfrontGenerator{Calc: o.Calc}, nil
	default:
		return nil, &billing.UnknownCadenceError{Cadence: string(c)}
	}
}

// BuildSchedule produces every opening obligation for the tenancy:
// deposits first, then rent per member according to their cadence. The
// result carries no entry IDs; appending through a ledger stamps those.
func (o *ScheduleOrchestrator) BuildSchedule(t billing.Tenancy, members []billing.MemberBillingTerms) ([]billing.ScheduleEntry, error) {
	if err := t.Terms.Validate(); err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, billing.ErrNoMembers
	}

	var schedule []billing.ScheduleEntry
	for _, member := range members {
		if err := member.Validate(); err != nil {
			return nil, err
		}

		if member.DepositAmount.IsPositive() {
			schedule = append(schedule, billing.ScheduleEntry{
				TenancyID:   t.ID,
				MemberID:    member.MemberID,
				PaymentType: billing.PaymentDeposit,
				DueDate:     t.Terms.StartDate.AddDays(-depositLeadDays),
				AmountDue:   member.DepositAmount,
				Description: "Deposit",
			})
		}

		if !t.Terms.ManageRent {
			continue
		}

		rents, err := o.memberRent(t.Terms, member)
		if err != nil {
			return nil, err
		}
		for _, entry := range rents {
			entry.TenancyID = t.ID
			entry.MemberID = member.MemberID
			entry.Description = "Rent - " + entry.Description
			schedule = append(schedule, entry)
		}
	}
	return schedule, nil
}

func (o *ScheduleOrchestrator) memberRent(terms billing.TenancyTerms, member billing.MemberBillingTerms) ([]billing.ScheduleEntry, error) {
	if terms.RollingMonthly {
		return o.Rolling.Generate(terms, member)
	}
	gen, err := o.GeneratorFor(member.PaymentOption)
	if err != nil {
		if uce, ok := err.(*billing.UnknownCadenceError); ok {
			uce.MemberID = member.MemberID
		}
		return nil, err
	}
	return gen.Generate(terms, member)
}
