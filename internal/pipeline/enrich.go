package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscout/internal/model"
	"github.com/sells-group/leadscout/internal/oracle"
)

// EnrichCompany searches the directory for decision-makers at the company
// matching the active profile's target titles and saves every ranked
// candidate as an enriched contact. The directory session is held for the
// whole run. Repeated runs append new rows.
func (p *Pipeline) EnrichCompany(ctx context.Context, companyID int64) ([]model.Contact, error) {
	c, err := p.store.GetCompany(ctx, companyID)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: load company %d", companyID)
	}
	profile, err := p.activeProfile(ctx)
	if err != nil {
		return nil, err
	}
	if p.searcher == nil {
		return nil, ErrSearcherUnavailable
	}

	log := zap.L().With(zap.Int64("company_id", c.ID), zap.String("company", c.Name))

	release, err := p.locker.Acquire(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: acquire directory session")
	}
	defer release()

	start := time.Now()
	ranked, err := p.searcher.SearchEmployees(ctx, c.Name, profile.TargetJobTitles, p.maxResults, p.verify)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: search directory")
	}

	out := make([]model.Contact, 0, len(ranked))
	for _, s := range ranked {
		score := s.Score
		ct := &model.Contact{
			CompanyID:         c.ID,
			Name:              s.Name,
			Title:             s.Title,
			ProfileURL:        s.ProfileURL,
			Persona:           s.MatchedPersona,
			PersonaConfidence: s.Score,
			PersonaReasoning:  s.Reasoning,
			IsPersonaMatch:    true,
			PersonaFitScore:   &score,
			VerifiedRole:      s.VerifiedRole,
			VerifiedCompany:   s.VerifiedCompany,
			Provenance:        model.ProvenanceEnriched,
		}
		if err := p.store.CreateContact(ctx, ct); err != nil {
			return out, eris.Wrapf(err, "pipeline: save enriched contact %q", s.Name)
		}

		p.draftOutreach(ctx, log, ct, oracle.OutreachRequest{
			Audience:     oracle.AudienceEnriched,
			CompanyName:  c.Name,
			ContactName:  ct.Name,
			ContactTitle: ct.Title,
			Persona:      ct.Persona,
			Stage:        c.BuyingStage,
		})
		out = append(out, *ct)
	}

	log.Info("pipeline: enrichment complete",
		zap.Int("contacts", len(out)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return out, nil
}
