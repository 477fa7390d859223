/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	tenancy data for testing and demos. Each scenario creates a tenancy
	with members and runs schedule generation through the real pipeline,
	so the demo data carries the same audit trail a production tenancy
	would.

AVAILABLE SCENARIOS:

	student-house:      Four sharers on the hybrid cadence, academic year
	professional-let:   Couple on plain monthly billing
	quarterly-aligned:  Quarterly cadence starting on a quarter boundary
	rolling:            Open-ended tenancy the monthly job continues
	upfront:            Overseas student paying the full term at signing

USAGE VIA API:

	POST /api/scenarios/student-house

NOTE:

	Loading a scenario twice answers 409: the run-once generation guard
	applies to demo tenancies like any other.

SEE ALSO:
  - handlers.go: Error mapping the loaders share
  - lettings/presets.go: The cadence presets the scenarios use
*/
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hearth/schedule-engine/billing"
	"github.com/hearth/schedule-engine/lettings"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		Name:        "student-house",
		Description: "Four sharers on the hybrid cadence over an academic year",
	},
	{
		Name:        "professional-let",
		Description: "Couple on plain monthly billing over a twelve-month term",
	},
	{
		Name:        "quarterly-aligned",
		Description: "Quarterly cadence starting exactly on a quarter boundary",
	},
	{
		Name:        "rolling",
		Description: "Open-ended rolling tenancy continued by the monthly job",
	},
	{
		Name:        "upfront",
		Description: "Overseas student paying the whole term at signing",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario creates the named scenario's tenancy and generates its
// schedule through the normal pipeline.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ctx := r.Context()

	var (
		tenancyID billing.TenancyID
		err       error
	)
	switch name {
	case "student-house":
		tenancyID, err = h.loadStudentHouseScenario(ctx)
	case "professional-let":
		tenancyID, err = h.loadProfessionalLetScenario(ctx)
	case "quarterly-aligned":
		tenancyID, err = h.loadQuarterlyAlignedScenario(ctx)
	case "rolling":
		tenancyID, err = h.loadRollingScenario(ctx)
	case "upfront":
		tenancyID, err = h.loadUpfrontScenario(ctx)
	default:
		writeError(w, http.StatusNotFound, "unknown scenario", nil)
		return
	}
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	entries, err := h.Ledger.Entries(ctx, tenancyID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toScheduleResponse(tenancyID, entries))
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// loadScenarioTenancy persists a tenancy with its members and runs
// generation, the same path CreateTenancy plus GenerateSchedule takes.
func (h *Handler) loadScenarioTenancy(ctx context.Context, t billing.Tenancy, members []billing.MemberBillingTerms) (billing.TenancyID, error) {
	err := h.Store.WithTx(ctx, func(s billing.Store) error {
		if err := s.SaveTenancy(ctx, t); err != nil {
			return err
		}
		for _, m := range members {
			if err := s.SaveMember(ctx, t.ID, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if _, err := h.Ledger.GenerateSchedule(ctx, t.ID, "scenario"); err != nil {
		return "", err
	}
	return t.ID, nil
}

func (h *Handler) loadStudentHouseScenario(ctx context.Context) (billing.TenancyID, error) {
	end := billing.NewDate(2026, 6, 30)
	tenancy := billing.Tenancy{
		ID: "demo-student-house",
		Terms: billing.TenancyTerms{
			StartDate:  billing.NewDate(2025, 7, 1),
			EndDate:    &end,
			ManageRent: true,
		},
	}
	members := []billing.MemberBillingTerms{
		lettings.StudentTerms("demo-student-1", "Priya Shah", billing.NewMoney(150)),
		lettings.StudentTerms("demo-student-2", "Tom Okafor", billing.NewMoney(150)),
		lettings.StudentTerms("demo-student-3", "Megan Hughes", billing.NewMoney(145)),
		lettings.StudentTerms("demo-student-4", "Callum Reid", billing.NewMoney(155)),
	}
	return h.loadScenarioTenancy(ctx, tenancy, members)
}

func (h *Handler) loadProfessionalLetScenario(ctx context.Context) (billing.TenancyID, error) {
	end := billing.NewDate(2026, 9, 14)
	tenancy := billing.Tenancy{
		ID: "demo-professional-let",
		Terms: billing.TenancyTerms{
			StartDate:  billing.NewDate(2025, 9, 15),
			EndDate:    &end,
			ManageRent: true,
		},
	}
	members := []billing.MemberBillingTerms{
		lettings.ProfessionalTerms("demo-prof-1", "Sarah Lindqvist", billing.NewMoney(260)),
		lettings.ProfessionalTerms("demo-prof-2", "James Lindqvist", billing.NewMoney(260)),
	}
	return h.loadScenarioTenancy(ctx, tenancy, members)
}

func (h *Handler) loadQuarterlyAlignedScenario(ctx context.Context) (billing.TenancyID, error) {
	end := billing.NewDate(2026, 6, 30)
	tenancy := billing.Tenancy{
		ID: "demo-quarterly-aligned",
		Terms: billing.TenancyTerms{
			StartDate:  billing.NewDate(2025, 10, 1),
			EndDate:    &end,
			ManageRent: true,
		},
	}
	members := []billing.MemberBillingTerms{
		lettings.QuarterlyTerms("demo-quarterly-1", "Hannah Price", billing.NewMoney(200)),
	}
	return h.loadScenarioTenancy(ctx, tenancy, members)
}

func (h *Handler) loadRollingScenario(ctx context.Context) (billing.TenancyID, error) {
	tenancy := billing.Tenancy{
		ID: "demo-rolling",
		Terms: billing.TenancyTerms{
			StartDate:      billing.NewDate(2025, 9, 15),
			RollingMonthly: true,
			ManageRent:     true,
		},
	}
	members := []billing.MemberBillingTerms{
		lettings.ProfessionalTerms("demo-rolling-1", "Daniel Kovacs", billing.NewMoney(180)),
	}
	return h.loadScenarioTenancy(ctx, tenancy, members)
}

func (h *Handler) loadUpfrontScenario(ctx context.Context) (billing.TenancyID, error) {
	end := billing.NewDate(2026, 6, 30)
	tenancy := billing.Tenancy{
		ID: "demo-upfront",
		Terms: billing.TenancyTerms{
			StartDate:  billing.NewDate(2025, 9, 1),
			EndDate:    &end,
			ManageRent: true,
		},
	}
	members := []billing.MemberBillingTerms{
		lettings.UpfrontTerms("demo-upfront-1", "Wei Zhang", billing.NewMoney(175)),
	}
	return h.loadScenarioTenancy(ctx, tenancy, members)
}
