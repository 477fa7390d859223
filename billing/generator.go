package billing

// =============================================================================
// SCHEDULE GENERATOR - Interface for how a cadence bills a tenancy
// =============================================================================

// ScheduleGenerator turns one member's billing terms into that member's
// ordered rent entries. Implementations define the cadence logic
// (monthly, quarterly, hybrid, upfront); the orchestrator dispatches to
// the one matching the member's election.
type ScheduleGenerator interface {
	// Cadence identifies which election this generator serves.
	Cadence() Cadence

	// Generate returns the member's rent entries, ordered by due date.
	// Entries come back without tenancy/member ids, without the
	// "Rent - " description prefix and without persistence ids; the
	// orchestrator stamps those. Periods computing to a zero or negative
	// amount are omitted, never zero-filled.
	Generate(terms TenancyTerms, member MemberBillingTerms) ([]ScheduleEntry, error)
}

// =============================================================================
// GENERATION ORDERING GUARANTEES
// =============================================================================

// Every generator upholds, for a single member:
//   - coverage never overlaps and never leaves a gap inside the tenancy
//   - due dates are non-decreasing
//   - no rent falls due before the tenancy start
// The engine test suite asserts these across all cadences; see
// schedule_contract_test.go.
