/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

CONVENTIONS:
  Dates cross the wire as "2006-01-02" strings, amounts as fixed
  two-decimal strings. The engine computes on exact decimals; the DTO
  layer is where they become text.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/terms.go: TenancyJSON, the inbound document schema
*/
package api

import (
	"time"

	"github.com/hearth/schedule-engine/billing"
	"github.com/hearth/schedule-engine/lettings"
)

// =============================================================================
// TENANCY TYPES
// =============================================================================

// TenancyDTO represents a tenancy in API responses.
type TenancyDTO struct {
	ID             string      `json:"id"`
	StartDate      string      `json:"start_date"`
	EndDate        *string     `json:"end_date,omitempty"`
	RollingMonthly bool        `json:"rolling_monthly"`
	ManageRent     bool        `json:"manage_rent"`
	CreatedAt      time.Time   `json:"created_at"`
	Members        []MemberDTO `json:"members,omitempty"`
}

// MemberDTO represents one tenant's billing election.
type MemberDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	RentPerWeek   string `json:"rent_per_week"`
	PaymentOption string `json:"payment_option"`
	DepositAmount string `json:"deposit_amount"`
}

// CreateTenancyResponse wraps the created tenancy with any parse warnings
// (deposits above the statutory cap).
type CreateTenancyResponse struct {
	Tenancy  TenancyDTO `json:"tenancy"`
	Warnings []string   `json:"warnings,omitempty"`
}

// =============================================================================
// SCHEDULE TYPES
// =============================================================================

// EntryDTO represents a schedule entry in API responses.
type EntryDTO struct {
	ID          string  `json:"id,omitempty"`
	TenancyID   string  `json:"tenancy_id,omitempty"`
	MemberID    string  `json:"member_id"`
	PaymentType string  `json:"payment_type"`
	DueDate     string  `json:"due_date"`
	AmountDue   string  `json:"amount_due"`
	CoversFrom  *string `json:"covers_from,omitempty"`
	CoversTo    *string `json:"covers_to,omitempty"`
	Weeks       int     `json:"weeks,omitempty"`
	Description string  `json:"description"`
}

// ScheduleResponse is the generated or previewed schedule.
type ScheduleResponse struct {
	TenancyID string     `json:"tenancy_id,omitempty"`
	Entries   []EntryDTO `json:"entries"`
	Total     string     `json:"total"`
}

// =============================================================================
// OPERATION REQUESTS
// =============================================================================

// HoldingDepositRequest credits a pre-signing holding deposit.
type HoldingDepositRequest struct {
	MemberID string  `json:"member_id"`
	Amount   float64 `json:"amount"`
}

// =============================================================================
// STATEMENT TYPES
// =============================================================================

// MemberStatementDTO is one member's position as of a date.
type MemberStatementDTO struct {
	MemberID       string    `json:"member_id"`
	Name           string    `json:"name,omitempty"`
	TotalScheduled string    `json:"total_scheduled"`
	DueToDate      string    `json:"due_to_date"`
	Upcoming       string    `json:"upcoming"`
	DepositHeld    string    `json:"deposit_held"`
	NextDue        *EntryDTO `json:"next_due,omitempty"`
	EntryCount     int       `json:"entry_count"`
}

// StatementDTO is the tenancy-wide statement.
type StatementDTO struct {
	TenancyID      string               `json:"tenancy_id"`
	AsOf           string               `json:"as_of"`
	Members        []MemberStatementDTO `json:"members"`
	TotalScheduled string               `json:"total_scheduled"`
	DueToDate      string               `json:"due_to_date"`
	DepositHeld    string               `json:"deposit_held"`
}

// =============================================================================
// JOB AND AUDIT TYPES
// =============================================================================

// RunDTO reports a rolling-continuation run.
type RunDTO struct {
	ID             string     `json:"id"`
	Period         string     `json:"period"`
	Status         string     `json:"status"`
	EntriesCreated int        `json:"entries_created"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Details        string     `json:"details,omitempty"`
}

// AuditDTO represents one audit trail event.
type AuditDTO struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Actor     string         `json:"actor"`
	Action    string         `json:"action"`
	TenancyID string         `json:"tenancy_id"`
	MemberID  string         `json:"member_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toTenancyDTO(t billing.Tenancy, members []billing.MemberBillingTerms) TenancyDTO {
	dto := TenancyDTO{
		ID:             string(t.ID),
		StartDate:      t.Terms.StartDate.String(),
		RollingMonthly: t.Terms.RollingMonthly,
		ManageRent:     t.Terms.ManageRent,
		CreatedAt:      t.CreatedAt,
	}
	if t.Terms.EndDate != nil {
		dto.EndDate = strPtr(t.Terms.EndDate.String())
	}
	for _, m := range members {
		dto.Members = append(dto.Members, MemberDTO{
			ID:            string(m.MemberID),
			Name:          m.Name,
			RentPerWeek:   m.RentPerWeek.String(),
			PaymentOption: string(m.PaymentOption),
			DepositAmount: m.DepositAmount.String(),
		})
	}
	return dto
}

func toEntryDTO(e billing.ScheduleEntry) EntryDTO {
	dto := EntryDTO{
		ID:          string(e.ID),
		TenancyID:   string(e.TenancyID),
		MemberID:    string(e.MemberID),
		PaymentType: string(e.PaymentType),
		DueDate:     e.DueDate.String(),
		AmountDue:   e.AmountDue.String(),
		Weeks:       e.Weeks,
		Description: e.Description,
	}
	if e.CoversFrom != nil {
		dto.CoversFrom = strPtr(e.CoversFrom.String())
	}
	if e.CoversTo != nil {
		dto.CoversTo = strPtr(e.CoversTo.String())
	}
	return dto
}

func toScheduleResponse(tenancyID billing.TenancyID, entries []billing.ScheduleEntry) ScheduleResponse {
	resp := ScheduleResponse{
		TenancyID: string(tenancyID),
		Entries:   []EntryDTO{},
	}
	var total billing.Money
	for _, e := range entries {
		resp.Entries = append(resp.Entries, toEntryDTO(e))
		total = total.Add(e.AmountDue)
	}
	resp.Total = total.String()
	return resp
}

func toMemberStatementDTO(st lettings.MemberStatement) MemberStatementDTO {
	dto := MemberStatementDTO{
		MemberID:       string(st.MemberID),
		Name:           st.Name,
		TotalScheduled: st.TotalScheduled.String(),
		DueToDate:      st.DueToDate.String(),
		Upcoming:       st.Upcoming.String(),
		DepositHeld:    st.DepositHeld.String(),
		EntryCount:     st.EntryCount,
	}
	if st.NextDue != nil {
		next := toEntryDTO(*st.NextDue)
		dto.NextDue = &next
	}
	return dto
}

func toStatementDTO(st lettings.TenancyStatement) StatementDTO {
	dto := StatementDTO{
		TenancyID:      string(st.TenancyID),
		AsOf:           st.AsOf.String(),
		Members:        []MemberStatementDTO{},
		TotalScheduled: st.TotalScheduled.String(),
		DueToDate:      st.DueToDate.String(),
		DepositHeld:    st.DepositHeld.String(),
	}
	for _, m := range st.Members {
		dto.Members = append(dto.Members, toMemberStatementDTO(m))
	}
	return dto
}

func toRunDTO(run billing.BillingRun) RunDTO {
	return RunDTO{
		ID:             run.ID,
		Period:         run.Period,
		Status:         string(run.Status),
		EntriesCreated: run.EntriesCreated,
		StartedAt:      run.StartedAt,
		CompletedAt:    run.CompletedAt,
		Details:        run.Details,
	}
}

func toAuditDTO(e billing.AuditEntry) AuditDTO {
	return AuditDTO{
		ID:        e.ID,
		Timestamp: e.Timestamp,
		Actor:     e.Actor,
		Action:    string(e.Action),
		TenancyID: string(e.TenancyID),
		MemberID:  string(e.MemberID),
		Payload:   e.Payload,
	}
}

func strPtr(s string) *string {
	return &s
}
