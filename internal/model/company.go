package model

import (
	"strings"
	"time"
)

// Tier is the ICP fit bucket derived from the 0-100 fit score.
type Tier string

const (
	TierA Tier = "A" // 90-100
	TierB Tier = "B" // 70-89
	TierC Tier = "C" // 50-69
	TierD Tier = "D" // 0-49
)

// Valid reports whether t is one of the four known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierA, TierB, TierC, TierD:
		return true
	}
	return false
}

// TierForScore maps a fit score to its tier.
func TierForScore(score int) Tier {
	switch {
	case score >= 90:
		return TierA
	case score >= 70:
		return TierB
	case score >= 50:
		return TierC
	default:
		return TierD
	}
}

// BuyingStage is the behavioral phase inferred from page-visit sequence.
type BuyingStage string

const (
	StageEducate  BuyingStage = "Educate"
	StageExplore  BuyingStage = "Explore"
	StageEvaluate BuyingStage = "Evaluate"
	StagePurchase BuyingStage = "Purchase"
)

// ParseBuyingStage matches s case-insensitively against the known stages.
func ParseBuyingStage(s string) (BuyingStage, bool) {
	for _, st := range []BuyingStage{StageEducate, StageExplore, StageEvaluate, StagePurchase} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, true
		}
	}
	return "", false
}

// Company is the durable record for a visiting organization, keyed by domain.
type Company struct {
	ID                     int64       `json:"id"`
	EventID                string      `json:"event_id,omitempty"`
	Name                   string      `json:"company_name"`
	Domain                 string      `json:"company_domain"`
	Size                   string      `json:"company_size,omitempty"`
	Industry               string      `json:"industry,omitempty"`
	Region                 string      `json:"region,omitempty"`
	ICPScore               int         `json:"icp_score"`
	ICPTier                Tier        `json:"icp_tier"`
	ICPExplanation         string      `json:"icp_explanation"`
	BuyingStage            BuyingStage `json:"buying_stage"`
	BuyingStageExplanation string      `json:"buying_stage_explanation"`
	IntentScore            int         `json:"intent_score"`
	ConfidenceScore        float64     `json:"confidence_score"`
	NeedsDirectorySearch   bool        `json:"needs_linkedin_search"`
	CreatedAt              time.Time   `json:"created_at"`
	UpdatedAt              time.Time   `json:"updated_at"`
}

// BehaviorUpdate carries the only fields recomputed on repeat events.
type BehaviorUpdate struct {
	BuyingStage            BuyingStage
	BuyingStageExplanation string
	IntentScore            int
}

// CompanyFilter narrows ListCompanies results.
type CompanyFilter struct {
	Tier         Tier        `json:"tier,omitempty"`
	Stage        BuyingStage `json:"stage,omitempty"`
	PersonaMatch *bool       `json:"persona_match,omitempty"`
	Limit        int         `json:"limit,omitempty"`
}

// ContactStats summarizes the contacts attached to a company.
type ContactStats struct {
	Total    int `json:"total_contacts"`
	Matched  int `json:"matched_contacts"`
	Enriched int `json:"enriched_contacts"`
}

// CompanySummary is the list view of a company.
type CompanySummary struct {
	Company
	PrimaryContact *Contact     `json:"primary_contact"`
	ContactStats   ContactStats `json:"contact_stats"`
}

// CompanyDetail is the full view of a company with its children.
type CompanyDetail struct {
	Company
	Contacts     []Contact        `json:"contacts"`
	VisitedPages []VisitedPage    `json:"visited_pages"`
	Emails       []GeneratedEmail `json:"emails"`
}

// NormalizeDomain strips protocol, www prefix, path and trailing slash from a
// domain or URL and lowercases it.
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if idx := strings.IndexAny(d, "/?#"); idx >= 0 {
		d = d[:idx]
	}
	return strings.TrimSuffix(d, ".")
}
