package model

import (
	"strings"
	"time"
)

// Persona is a buyer-role classification.
type Persona string

const (
	PersonaEconomicBuyer      Persona = "Economic Buyer"
	PersonaTechnicalEvaluator Persona = "Technical Evaluator"
	PersonaResearcher         Persona = "Researcher"
	PersonaOther              Persona = "Other"
)

// ParsePersona matches s case-insensitively against the four known personas.
func ParsePersona(s string) (Persona, bool) {
	for _, p := range []Persona{PersonaEconomicBuyer, PersonaTechnicalEvaluator, PersonaResearcher, PersonaOther} {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, true
		}
	}
	return "", false
}

// IsBuyer reports whether p is a persona that can sign off on a purchase.
func (p Persona) IsBuyer() bool {
	return p == PersonaEconomicBuyer || p == PersonaTechnicalEvaluator
}

// Provenance records how a contact entered the system.
type Provenance string

const (
	ProvenanceOriginal Provenance = "original"
	ProvenanceEnriched Provenance = "enriched"
)

// Contact is a person at a company. Rows are immutable once created.
type Contact struct {
	ID                int64      `json:"id"`
	CompanyID         int64      `json:"company_id"`
	Name              string     `json:"contact_name"`
	Title             string     `json:"contact_title"`
	Email             string     `json:"contact_email,omitempty"`
	ProfileURL        string     `json:"profile_url,omitempty"`
	Persona           string     `json:"persona"`
	PersonaConfidence float64    `json:"persona_confidence"`
	PersonaReasoning  string     `json:"persona_reasoning,omitempty"`
	IsPersonaMatch    bool       `json:"is_persona_match"`
	PersonaFitScore   *float64   `json:"persona_fit_score,omitempty"`
	VerifiedRole      string     `json:"verified_role,omitempty"`
	VerifiedCompany   string     `json:"verified_company,omitempty"`
	Provenance        Provenance `json:"contact_type"`
	CreatedAt         time.Time  `json:"created_at"`
}

// GeneratedEmail is a best-effort outreach draft for a contact.
type GeneratedEmail struct {
	ID          int64      `json:"id"`
	ContactID   int64      `json:"contact_id"`
	Subject     string     `json:"subject"`
	Body        string     `json:"body"`
	CreatedAt   time.Time  `json:"created_at"`
	ContactName string     `json:"contact_name,omitempty"`
	Title       string     `json:"contact_title,omitempty"`
	Provenance  Provenance `json:"contact_type,omitempty"`
}
