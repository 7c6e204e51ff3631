// Package scorer ranks directory candidates by persona fit against the
// target job titles.
package scorer

import (
	"cmp"
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/sells-group/leadscout/internal/oracle"
)

// DefaultMinFit is the lowest persona-fit score a candidate may have and
// still be returned.
const DefaultMinFit = 0.5

// Candidate is a person extracted from a directory search result.
type Candidate struct {
	Name            string `json:"name"`
	Title           string `json:"title"`
	ProfileURL      string `json:"profile_url"`
	Summary         string `json:"summary,omitempty"`
	VerifiedRole    string `json:"verified_role,omitempty"`
	VerifiedCompany string `json:"verified_company,omitempty"`
}

// Role returns the verified role when known, otherwise the scraped title.
func (c Candidate) Role() string {
	if c.VerifiedRole != "" {
		return c.VerifiedRole
	}
	return c.Title
}

// Scored is a candidate with its persona-fit result.
type Scored struct {
	Candidate
	Score          float64 `json:"persona_fit_score"`
	MatchedPersona string  `json:"persona"`
	Reasoning      string  `json:"reasoning,omitempty"`
}

// FitScorer is the slice of the oracle the ranker needs.
type FitScorer interface {
	ScorePersonaFit(ctx context.Context, title string, targets []string) oracle.FitResult
}

// Ranker scores candidates and keeps those at or above MinFit.
type Ranker struct {
	fit    FitScorer
	minFit float64
}

// NewRanker creates a Ranker. A minFit <= 0 uses DefaultMinFit.
func NewRanker(fit FitScorer, minFit float64) *Ranker {
	if minFit <= 0 {
		minFit = DefaultMinFit
	}
	return &Ranker{fit: fit, minFit: minFit}
}

// Rank scores each candidate sequentially and returns the survivors sorted
// descending by score. Ties keep extraction order.
func (r *Ranker) Rank(ctx context.Context, candidates []Candidate, targets []string) []Scored {
	out := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		res := r.fit.ScorePersonaFit(ctx, c.Role(), targets)
		zap.L().Debug("scorer: persona fit",
			zap.String("name", c.Name),
			zap.String("role", c.Role()),
			zap.Float64("score", res.Score),
			zap.String("persona", res.MatchedPersona),
		)
		if res.Score < r.minFit {
			continue
		}
		out = append(out, Scored{
			Candidate:      c,
			Score:          res.Score,
			MatchedPersona: res.MatchedPersona,
			Reasoning:      res.Reasoning,
		})
	}
	slices.SortStableFunc(out, func(a, b Scored) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}
