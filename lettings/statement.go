package lettings

import (
	"context"

	"github.com/hearth/schedule-engine/billing"
)

// =============================================================================
// STATEMENTS - As-of aggregation over the persisted schedule
// =============================================================================

// MemberStatement is one member's position as of a date. Rent totals
// include compensating amendments, which is what makes them truthful.
type MemberStatement struct {
	MemberID       billing.MemberID
	Name           string
	AsOf           billing.Date
	TotalScheduled billing.Money // all rent, past and future
	DueToDate      billing.Money // rent due on or before AsOf
	Upcoming       billing.Money // rent due after AsOf
	DepositHeld    billing.Money // intake minus returns, due on or before AsOf
	NextDue        *billing.ScheduleEntry
	EntryCount     int
}

// TenancyStatement rolls every member's position up to the tenancy.
type TenancyStatement struct {
	TenancyID      billing.TenancyID
	AsOf           billing.Date
	Members        []MemberStatement
	TotalScheduled billing.Money
	DueToDate      billing.Money
	DepositHeld    billing.Money
}

// StatementBuilder derives statements from the entry log. It never
// writes: a statement is a view, recomputed on demand.
type StatementBuilder struct {
	store billing.Store
}

func NewStatementBuilder(store billing.Store) *StatementBuilder {
	return &StatementBuilder{store: store}
}

// ForMember builds one member's statement as of the given date.
func (b *StatementBuilder) ForMember(ctx context.Context, tenancyID billing.TenancyID, memberID billing.MemberID, asOf billing.Date) (*MemberStatement, error) {
	members, err := b.store.MembersOf(ctx, tenancyID)
	if err != nil {
		return nil, err
	}
	var member *billing.MemberBillingTerms
	for i := range members {
		if members[i].MemberID == memberID {
			member = &members[i]
			break
		}
	}
	if member == nil {
		return nil, billing.ErrMemberNotFound
	}

	entries, err := b.store.EntriesForMember(ctx, tenancyID, memberID)
	if err != nil {
		return nil, err
	}
	st := buildMemberStatement(*member, entries, asOf)
	return &st, nil
}

// ForTenancy builds every member's statement and the tenancy totals.
func (b *StatementBuilder) ForTenancy(ctx context.Context, tenancyID billing.TenancyID, asOf billing.Date) (*TenancyStatement, error) {
	if _, err := b.store.GetTenancy(ctx, tenancyID); err != nil {
		return nil, err
	}
	members, err := b.store.MembersOf(ctx, tenancyID)
	if err != nil {
		return nil, err
	}

	out := &TenancyStatement{TenancyID: tenancyID, AsOf: asOf}
	for _, member := range members {
		entries, err := b.store.EntriesForMember(ctx, tenancyID, member.MemberID)
		if err != nil {
			return nil, err
		}
		st := buildMemberStatement(member, entries, asOf)
		out.Members = append(out.Members, st)
		out.TotalScheduled = out.TotalScheduled.Add(st.TotalScheduled)
		out.DueToDate = out.DueToDate.Add(st.DueToDate)
		out.DepositHeld = out.DepositHeld.Add(st.DepositHeld)
	}
	return out, nil
}

// buildMemberStatement folds a member's due-date-ordered entries into a
// statement. Deposit intake and returns cancel in DepositHeld; rent
// splits on the as-of date.
func buildMemberStatement(member billing.MemberBillingTerms, entries []billing.ScheduleEntry, asOf billing.Date) MemberStatement {
	st := MemberStatement{
		MemberID:   member.MemberID,
		Name:       member.Name,
		AsOf:       asOf,
		EntryCount: len(entries),
	}
	for i := range entries {
		e := entries[i]
		switch e.PaymentType {
		case billing.PaymentRent:
			st.TotalScheduled = st.TotalScheduled.Add(e.AmountDue)
			if e.DueDate.BeforeOrEqual(asOf) {
				st.DueToDate = st.DueToDate.Add(e.AmountDue)
			} else {
				st.Upcoming = st.Upcoming.Add(e.AmountDue)
				if st.NextDue == nil {
					st.NextDue = &entries[i]
				}
			}
		case billing.PaymentDeposit, billing.PaymentDepositReturn:
			if e.DueDate.BeforeOrEqual(asOf) {
				st.DepositHeld = st.DepositHeld.Add(e.AmountDue)
			}
		}
	}
	return st
}
