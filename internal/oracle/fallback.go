package oracle

import (
	"fmt"

	"github.com/sells-group/leadscout/internal/model"
)

// FallbackICP is returned when fit scoring fails.
func FallbackICP() ICPResult {
	return ICPResult{
		Score:       50,
		Tier:        model.TierC,
		Explanation: "Unable to score - defaulting to medium fit",
		Confidence:  0.3,
		Fallback:    true,
	}
}

// FallbackPersona is returned when persona inference fails.
func FallbackPersona() PersonaResult {
	return PersonaResult{
		Persona:    model.PersonaOther,
		Confidence: 0.3,
		Reasoning:  "Unable to classify persona",
		Fallback:   true,
	}
}

// FallbackStage is returned when stage inference fails.
func FallbackStage() StageResult {
	return StageResult{
		Stage:       model.StageExplore,
		IntentScore: 1,
		Explanation: "Unable to analyze buying stage from page visits",
		NextAction:  "Send educational content",
		Fallback:    true,
	}
}

// FallbackFit is returned when persona-fit scoring fails.
func FallbackFit() FitResult {
	return FitResult{
		Score:          0.5,
		MatchedPersona: "Unknown",
		Reasoning:      "Unable to score",
		Fallback:       true,
	}
}

// FallbackOutreach is the templated email for req's audience.
func FallbackOutreach(req OutreachRequest) Outreach {
	if req.Audience == AudienceEnriched {
		return Outreach{
			Subject: fmt.Sprintf("Resources for %s's %s stage", req.CompanyName, req.Stage),
			Body: fmt.Sprintf("Hi %s,\n\nI hope this email finds you well. I wanted to reach out because %s appears to be in the %s stage of evaluating solutions in this space.\n\n"+
				"I'd be happy to share some relevant resources and insights that might be valuable for your team's current needs. No pressure at all - just offering to help.\n\nBest regards",
				req.ContactName, req.CompanyName, req.Stage),
			Fallback: true,
		}
	}

	name := req.ContactName
	if name == "" {
		name = "there"
	}
	return Outreach{
		Subject:  "Following up on your visit to our site",
		Body:     fmt.Sprintf("Hi %s,\n\nI noticed you've been exploring our website. I'd love to help answer any questions you might have.\n\nBest regards", name),
		Fallback: true,
	}
}
