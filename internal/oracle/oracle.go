// Package oracle defines the classification capabilities the pipeline
// consumes and an LLM-backed implementation that never fails: malformed or
// unavailable answers resolve to documented fallbacks.
package oracle

import (
	"context"

	"github.com/sells-group/leadscout/internal/model"
)

// Oracle is the best-effort classifier. Every method returns a usable result;
// Fallback on the result reports whether the documented default was used.
type Oracle interface {
	ScoreICPFit(ctx context.Context, company model.EventCompany, profile model.TargetProfile) ICPResult
	InferPersona(ctx context.Context, pages []string) PersonaResult
	InferBuyingStage(ctx context.Context, pages []string) StageResult
	ScorePersonaFit(ctx context.Context, title string, targets []string) FitResult
	GenerateOutreachCopy(ctx context.Context, req OutreachRequest) Outreach
}

// ICPResult is the firmographic fit of a company against a target profile.
type ICPResult struct {
	Score       int        `json:"score"`
	Tier        model.Tier `json:"tier"`
	Explanation string     `json:"explanation"`
	Confidence  float64    `json:"confidence"`
	Fallback    bool       `json:"-"`
}

// PersonaResult classifies a visitor from browsing behavior.
type PersonaResult struct {
	Persona    model.Persona `json:"persona"`
	Confidence float64       `json:"confidence"`
	Reasoning  string        `json:"reasoning"`
	Fallback   bool          `json:"-"`
}

// StageResult is the inferred buying stage. IntentScore is the oracle's own
// estimate and is informational; the stored intent comes from IntentScore in
// the pipeline package.
type StageResult struct {
	Stage       model.BuyingStage `json:"stage"`
	IntentScore int               `json:"intentScore"`
	Explanation string            `json:"explanation"`
	NextAction  string            `json:"nextAction"`
	Fallback    bool              `json:"-"`
}

// FitResult scores one job title against the target titles.
type FitResult struct {
	Score          float64 `json:"score"`
	MatchedPersona string  `json:"matchedPersona"`
	Reasoning      string  `json:"reasoning"`
	Fallback       bool    `json:"-"`
}

// Audience selects which outreach variant to write.
type Audience string

const (
	// AudienceVisitor is the contact who actually browsed the site.
	AudienceVisitor Audience = "visitor"
	// AudienceEnriched is a decision-maker found through the directory, who
	// has not visited and must not be told about page visits.
	AudienceEnriched Audience = "enriched"
)

// OutreachRequest describes who to write to and in what context.
type OutreachRequest struct {
	Audience     Audience
	CompanyName  string
	ContactName  string
	ContactTitle string
	Persona      string
	Stage        model.BuyingStage
	Pages        []string
}

// Outreach is a drafted email.
type Outreach struct {
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Fallback bool   `json:"-"`
}
