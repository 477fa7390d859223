/*
handlers.go - HTTP handlers over the schedule engine

PURPOSE:
  Implements the REST endpoints. Handlers parse and validate on the way
  in (through the terms factory), call into the lettings layer, and map
  domain errors onto HTTP status codes on the way out. No billing rule
  lives here.

ERROR MAPPING:
  billing.IsDuplicate   -> 409 Conflict (run-once guard fired)
  billing.IsNotFound    -> 404 Not Found
  billing.IsClientError -> 400 Bad Request
  anything else         -> 500 Internal Server Error

ACTOR ATTRIBUTION:
  Mutating endpoints stamp the audit trail with the X-Actor header when
  present, "api" otherwise. The monthly job writes as "system".

SEE ALSO:
  - server.go: Route wiring
  - scheduler.go: The rolling continuation job behind /jobs/rolling/run
  - lettings/ledger.go: The guarded operations these handlers call
*/
package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hearth/schedule-engine/billing"
	"github.com/hearth/schedule-engine/factory"
	"github.com/hearth/schedule-engine/lettings"
)

// Handler carries the wired engine components behind the routes.
type Handler struct {
	Store        billing.TxStore
	TermsFactory *factory.TermsFactory
	Ledger       *lettings.ScheduleLedger
	Deposits     *lettings.DepositScheduler
	Statements   *lettings.StatementBuilder
	Job          *RollingBillingJob
}

// NewHandler creates a new handler with the given store.
func NewHandler(store billing.TxStore) *Handler {
	return &Handler{
		Store:        store,
		TermsFactory: factory.NewTermsFactory(),
		Ledger:       lettings.NewScheduleLedger(store),
		Deposits:     lettings.NewDepositScheduler(store),
		Statements:   lettings.NewStatementBuilder(store),
		Job:          NewRollingBillingJob(store),
	}
}

// =============================================================================
// HEALTH
// =============================================================================

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// TENANCY HANDLERS
// =============================================================================

// CreateTenancy accepts a tenancy document, validates it and persists the
// tenancy with its members. Deposit-cap violations come back as warnings.
func (h *Handler) CreateTenancy(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}

	doc, warnings, err := h.TermsFactory.ParseTenancyDocument(string(body))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	tenancy := billing.Tenancy{ID: doc.ID, Terms: doc.Terms}
	err = h.Store.WithTx(r.Context(), func(s billing.Store) error {
		if err := s.SaveTenancy(r.Context(), tenancy); err != nil {
			return err
		}
		for _, member := range doc.Members {
			if err := s.SaveMember(r.Context(), doc.ID, member); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	saved, err := h.Store.GetTenancy(r.Context(), doc.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateTenancyResponse{
		Tenancy:  toTenancyDTO(*saved, doc.Members),
		Warnings: warnings,
	})
}

// ListTenancies returns all tenancies without member detail.
func (h *Handler) ListTenancies(w http.ResponseWriter, r *http.Request) {
	tenancies, err := h.Store.ListTenancies(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	out := []TenancyDTO{}
	for _, t := range tenancies {
		out = append(out, toTenancyDTO(t, nil))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetTenancy returns one tenancy with its members.
func (h *Handler) GetTenancy(w http.ResponseWriter, r *http.Request) {
	id := billing.TenancyID(chi.URLParam(r, "id"))
	tenancy, err := h.Store.GetTenancy(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	members, err := h.Store.MembersOf(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTenancyDTO(*tenancy, members))
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// GenerateSchedule runs schedule generation for a tenancy. Exactly once:
// a second call answers 409 and the original schedule stands.
func (h *Handler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	id := billing.TenancyID(chi.URLParam(r, "id"))
	created, err := h.Ledger.GenerateSchedule(r.Context(), id, actorOf(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toScheduleResponse(id, created))
}

// GetSchedule returns the persisted schedule, due-date ordered.
// ?member and ?type narrow the listing.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id := billing.TenancyID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetTenancy(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}

	var (
		entries []billing.ScheduleEntry
		err     error
	)
	switch {
	case r.URL.Query().Get("member") != "":
		member := billing.MemberID(r.URL.Query().Get("member"))
		entries, err = h.Store.EntriesForMember(r.Context(), id, member)
	case r.URL.Query().Get("type") != "":
		pt := billing.PaymentType(r.URL.Query().Get("type"))
		if !pt.IsValid() {
			writeError(w, http.StatusBadRequest, "unknown payment type", nil)
			return
		}
		entries, err = h.Store.EntriesByType(r.Context(), id, pt)
	default:
		entries, err = h.Ledger.Entries(r.Context(), id)
	}
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleResponse(id, entries))
}

// PreviewSchedule prices a tenancy document without persisting anything,
// for quoting before signing.
func (h *Handler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}
	doc, _, err := h.TermsFactory.ParseTenancyDocument(string(body))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	entries, err := h.Ledger.PreviewTerms(doc.Terms, doc.Members)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleResponse("", entries))
}

// =============================================================================
// DEPOSIT LIFECYCLE HANDLERS
// =============================================================================

// KeyReturn books the deposit refunds 14 days after the key-return date.
// A second call answers 409.
func (h *Handler) KeyReturn(w http.ResponseWriter, r *http.Request) {
	id := billing.TenancyID(chi.URLParam(r, "id"))
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}
	keyReturn, err := h.TermsFactory.ParseKeyReturn(string(body))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	created, err := h.Deposits.ScheduleReturn(r.Context(), id, keyReturn, actorOf(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toScheduleResponse(id, created))
}

// HoldingDeposit credits a pre-signing holding deposit against the
// member's first rent entry.
func (h *Handler) HoldingDeposit(w http.ResponseWriter, r *http.Request) {
	id := billing.TenancyID(chi.URLParam(r, "id"))
	var req HoldingDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	updated, err := h.Ledger.ApplyHoldingDeposit(r.Context(), id,
		billing.MemberID(req.MemberID), billing.NewMoney(req.Amount), actorOf(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(*updated))
}

// CreateAmendment appends a compensating delta entry correcting a rent
// entry's amount.
func (h *Handler) CreateAmendment(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}
	entryID, newAmount, reason, err := h.TermsFactory.ParseAmendment(string(body))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	tenancyID := billing.TenancyID(chi.URLParam(r, "id"))
	entry, err := h.Store.GetEntry(r.Context(), entryID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if entry.TenancyID != tenancyID {
		h.writeDomainError(w, billing.ErrEntryNotFound)
		return
	}
	created, err := h.Ledger.CompensateEntry(r.Context(), entryID, newAmount, reason, actorOf(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(*created))
}

// =============================================================================
// STATEMENT AND AUDIT HANDLERS
// =============================================================================

// GetStatement returns the tenancy statement as of ?as_of (default today).
func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	id := billing.TenancyID(chi.URLParam(r, "id"))
	asOf, ok := asOfParam(w, r)
	if !ok {
		return
	}
	st, err := h.Statements.ForTenancy(r.Context(), id, asOf)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatementDTO(*st))
}

// GetMemberStatement returns a single member's statement.
func (h *Handler) GetMemberStatement(w http.ResponseWriter, r *http.Request) {
	id := billing.TenancyID(chi.URLParam(r, "id"))
	memberID := billing.MemberID(chi.URLParam(r, "memberID"))
	asOf, ok := asOfParam(w, r)
	if !ok {
		return
	}
	st, err := h.Statements.ForMember(r.Context(), id, memberID, asOf)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberStatementDTO(*st))
}

// GetAudit returns the tenancy's audit trail, oldest first.
func (h *Handler) GetAudit(w http.ResponseWriter, r *http.Request) {
	id := billing.TenancyID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetTenancy(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	audits, err := h.Ledger.Audit(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	out := []AuditDTO{}
	for _, a := range audits {
		out = append(out, toAuditDTO(a))
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// REFERENCE AND JOB HANDLERS
// =============================================================================

// ListCadences returns the closed set of payment cadences.
func (h *Handler) ListCadences(w http.ResponseWriter, r *http.Request) {
	out := []string{}
	for _, c := range billing.Cadences() {
		out = append(out, string(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// RunRollingJob triggers the monthly continuation run for the current
// period, or for ?period=2006-01 when given. Idempotent per period.
func (h *Handler) RunRollingJob(w http.ResponseWriter, r *http.Request) {
	var (
		run *billing.BillingRun
		err error
	)
	if raw := r.URL.Query().Get("period"); raw != "" {
		run, err = h.Job.RunPeriod(r.Context(), raw)
	} else {
		run, err = h.Job.RunNow(r.Context())
	}
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(*run))
}

// =============================================================================
// HELPERS
// =============================================================================

func actorOf(r *http.Request) string {
	if actor := r.Header.Get("X-Actor"); actor != "" {
		return actor
	}
	return "api"
}

// asOfParam reads ?as_of, defaulting to today. A false return means the
// response has already been written.
func asOfParam(w http.ResponseWriter, r *http.Request) (billing.Date, bool) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return billing.Today(), true
	}
	parsed, err := billing.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of date", err)
		return billing.Date{}, false
	}
	return parsed, true
}

// writeDomainError maps engine errors onto HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case billing.IsDuplicate(err):
		writeError(w, http.StatusConflict, "already done", err)
	case billing.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found", err)
	case billing.IsClientError(err):
		writeError(w, http.StatusBadRequest, "invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
