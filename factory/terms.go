/*
Package factory provides JSON to Go billing-terms conversion.

PURPOSE:
  Converts JSON tenancy documents into billing.TenancyTerms and member
  billing terms. The tenancy workflow upstream emits these documents
  once a tenancy reaches its ready-to-bill stage; nothing billing-shaped
  is hand-assembled on the API boundary.

JSON SCHEMA:
  {
    "id": "ten-42",
    "start_date": "2025-09-01",
    "end_date": "2026-08-31",
    "rolling_monthly": false,
    "manage_rent": true,
    "members": [
      {
        "id": "mem-1",
        "name": "Sam Tenant",
        "rent_per_week": 150,
        "payment_option": "monthly_to_quarterly",
        "deposit_amount": 750
      }
    ]
  }

KEY FEATURES:
  - Validates structure and boundary rules before anything persists
  - Defaults manage_rent to true and payment_option to monthly
  - Flags deposits above the statutory cap as warnings, not failures:
    the clamp decision belongs to the agent, not the parser

USAGE:
  factory := NewTermsFactory()
  doc, warnings, err := factory.ParseTenancyDocument(jsonStr)

SEE ALSO:
  - billing/tenancy.go: TenancyTerms and MemberBillingTerms definitions
  - lettings/presets.go: The deposit cap the warnings are checked against
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/hearth/schedule-engine/billing"
	"github.com/hearth/schedule-engine/lettings"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// TenancyJSON is the JSON representation of a ready-to-bill tenancy.
type TenancyJSON struct {
	ID             string       `json:"id"`
	StartDate      string       `json:"start_date"`
	EndDate        string       `json:"end_date,omitempty"` // absent for rolling
	RollingMonthly bool         `json:"rolling_monthly,omitempty"`
	ManageRent     *bool        `json:"manage_rent,omitempty"` // default true
	Members        []MemberJSON `json:"members"`
}

// MemberJSON is one tenant's billing election.
type MemberJSON struct {
	ID            string  `json:"id"`
	Name          string  `json:"name,omitempty"`
	RentPerWeek   float64 `json:"rent_per_week"`
	PaymentOption string  `json:"payment_option,omitempty"` // default monthly
	DepositAmount float64 `json:"deposit_amount,omitempty"`
}

// KeyReturnJSON reports the end-of-tenancy key handback.
type KeyReturnJSON struct {
	KeyReturnDate string `json:"key_return_date"`
}

// AmendmentJSON requests a compensating correction to a rent entry.
type AmendmentJSON struct {
	EntryID   string  `json:"entry_id"`
	NewAmount float64 `json:"new_amount"`
	Reason    string  `json:"reason,omitempty"`
}

// TenancyDocument is the parsed, validated result.
type TenancyDocument struct {
	ID      billing.TenancyID
	Terms   billing.TenancyTerms
	Members []billing.MemberBillingTerms
}

// =============================================================================
// TERMS FACTORY
// =============================================================================

// TermsFactory converts JSON tenancy documents to billing terms.
type TermsFactory struct{}

func NewTermsFactory() *TermsFactory {
	return &TermsFactory{}
}

// ParseTenancyDocument parses and validates a JSON tenancy document.
// The returned warnings flag deposits above the statutory cap; they do
// not fail the parse.
func (f *TermsFactory) ParseTenancyDocument(jsonStr string) (*TenancyDocument, []string, error) {
	var tj TenancyJSON
	if err := json.Unmarshal([]byte(jsonStr), &tj); err != nil {
		return nil, nil, &billing.InvalidTermsError{Reason: fmt.Sprintf("malformed tenancy document: %v", err)}
	}
	return f.FromJSON(tj)
}

// FromJSON converts TenancyJSON to validated billing terms.
func (f *TermsFactory) FromJSON(tj TenancyJSON) (*TenancyDocument, []string, error) {
	if tj.ID == "" {
		return nil, nil, &billing.InvalidTermsError{Reason: "tenancy id is required"}
	}

	terms, err := parseTerms(tj)
	if err != nil {
		return nil, nil, err
	}
	if len(tj.Members) == 0 {
		return nil, nil, billing.ErrNoMembers
	}

	var members []billing.MemberBillingTerms
	var warnings []string
	for _, mj := range tj.Members {
		member, err := parseMember(mj)
		if err != nil {
			return nil, nil, err
		}
		if _, exceeded := lettings.ClampDeposit(member.DepositAmount, member.RentPerWeek); exceeded {
			warnings = append(warnings, fmt.Sprintf(
				"member %s: deposit %s exceeds the statutory cap %s",
				member.MemberID, member.DepositAmount, lettings.DepositCapFor(member.RentPerWeek)))
		}
		members = append(members, member)
	}

	return &TenancyDocument{
		ID:      billing.TenancyID(tj.ID),
		Terms:   terms,
		Members: members,
	}, warnings, nil
}

// ParseKeyReturn parses a key-return notification.
func (f *TermsFactory) ParseKeyReturn(jsonStr string) (billing.Date, error) {
	var kj KeyReturnJSON
	if err := json.Unmarshal([]byte(jsonStr), &kj); err != nil {
		return billing.Date{}, &billing.InvalidTermsError{Reason: fmt.Sprintf("malformed key return: %v", err)}
	}
	if kj.KeyReturnDate == "" {
		return billing.Date{}, &billing.InvalidTermsError{Reason: "key_return_date is required"}
	}
	d, err := billing.ParseDate(kj.KeyReturnDate)
	if err != nil {
		return billing.Date{}, &billing.InvalidTermsError{Reason: fmt.Sprintf("invalid key_return_date: %v", err)}
	}
	return d, nil
}

// ParseAmendment parses a compensating-amendment request.
func (f *TermsFactory) ParseAmendment(jsonStr string) (billing.EntryID, billing.Money, string, error) {
	var aj AmendmentJSON
	if err := json.Unmarshal([]byte(jsonStr), &aj); err != nil {
		return "", billing.Money{}, "", &billing.InvalidTermsError{Reason: fmt.Sprintf("malformed amendment: %v", err)}
	}
	if aj.EntryID == "" {
		return "", billing.Money{}, "", &billing.InvalidTermsError{Reason: "entry_id is required"}
	}
	return billing.EntryID(aj.EntryID), billing.NewMoney(aj.NewAmount), aj.Reason, nil
}

// =============================================================================
// PARSE HELPERS
// =============================================================================

func parseTerms(tj TenancyJSON) (billing.TenancyTerms, error) {
	var terms billing.TenancyTerms

	if tj.StartDate == "" {
		return terms, &billing.InvalidTermsError{Reason: "start_date is required"}
	}
	start, err := billing.ParseDate(tj.StartDate)
	if err != nil {
		return terms, &billing.InvalidTermsError{Reason: fmt.Sprintf("invalid start_date: %v", err)}
	}
	terms.StartDate = start
	terms.RollingMonthly = tj.RollingMonthly

	if tj.EndDate != "" {
		end, err := billing.ParseDate(tj.EndDate)
		if err != nil {
			return terms, &billing.InvalidTermsError{Reason: fmt.Sprintf("invalid end_date: %v", err)}
		}
		terms.EndDate = &end
	}

	// manage_rent defaults to true: collecting rent is the normal case,
	// deposit-only management is the opt-out.
	terms.ManageRent = true
	if tj.ManageRent != nil {
		terms.ManageRent = *tj.ManageRent
	}

	if err := terms.Validate(); err != nil {
		return terms, err
	}
	return terms, nil
}

func parseMember(mj MemberJSON) (billing.MemberBillingTerms, error) {
	member := billing.MemberBillingTerms{
		MemberID:      billing.MemberID(mj.ID),
		Name:          mj.Name,
		RentPerWeek:   billing.NewMoney(mj.RentPerWeek),
		DepositAmount: billing.NewMoney(mj.DepositAmount),
	}

	// Default to monthly; an explicit option must be a known cadence.
	member.PaymentOption = billing.CadenceMonthly
	if mj.PaymentOption != "" {
		cadence, err := billing.ParseCadence(mj.PaymentOption)
		if err != nil {
			return member, err
		}
		member.PaymentOption = cadence
	}

	if err := member.Validate(); err != nil {
		return member, err
	}
	return member, nil
}
