package pipeline

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscout/internal/model"
	"github.com/sells-group/leadscout/internal/oracle"
	"github.com/sells-group/leadscout/internal/store"
)

// ProcessEvent reconciles one inbound event. The first event for a domain
// creates the company with a one-time ICP score; later events append pages
// and recompute only buying stage and intent over the cumulative page set.
// Events for the same domain are reconciled one at a time.
func (p *Pipeline) ProcessEvent(ctx context.Context, ev model.Event) (*ProcessResult, error) {
	ev.VisitedPages = slices.Clone(ev.VisitedPages)
	model.SortVisits(ev.VisitedPages)
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if err := ev.Normalize(); err != nil {
		return nil, eris.Wrap(err, "pipeline: normalize event")
	}

	log := zap.L().With(
		zap.String("domain", ev.Company.Domain),
		zap.String("event_id", ev.EventID),
	)

	release, err := p.domains.acquire(ctx, ev.Company.Domain)
	if err != nil {
		return nil, err
	}
	defer release()

	existing, err := p.store.GetCompanyByDomain(ctx, ev.Company.Domain)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: lookup company")
	}
	if existing != nil {
		return p.updateCompany(ctx, log, existing, ev)
	}

	res, err := p.createCompany(ctx, log, ev)
	if !errors.Is(err, store.ErrDuplicateDomain) {
		return res, err
	}

	// Another writer created the domain between lookup and insert.
	log.Debug("pipeline: lost create race, updating existing company")
	existing, err = p.store.GetCompanyByDomain(ctx, ev.Company.Domain)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: lookup company after conflict")
	}
	if existing == nil {
		return nil, eris.Wrap(store.ErrDuplicateDomain, "pipeline: company vanished after conflict")
	}
	return p.updateCompany(ctx, log, existing, ev)
}

func (p *Pipeline) createCompany(ctx context.Context, log *zap.Logger, ev model.Event) (*ProcessResult, error) {
	profile, err := p.activeProfile(ctx)
	if err != nil {
		return nil, err
	}

	paths := model.VisitPaths(ev.VisitedPages)
	icp := p.oracle.ScoreICPFit(ctx, ev.Company, *profile)
	stage := p.oracle.InferBuyingStage(ctx, paths)
	intent := IntentScore(paths)

	c := &model.Company{
		EventID:                ev.EventID,
		Name:                   ev.Company.Name,
		Domain:                 ev.Company.Domain,
		Size:                   ev.Company.Size,
		Industry:               ev.Company.Industry,
		Region:                 ev.Company.Region,
		ICPScore:               icp.Score,
		ICPTier:                icp.Tier,
		ICPExplanation:         icp.Explanation,
		BuyingStage:            stage.Stage,
		BuyingStageExplanation: stage.Explanation,
		IntentScore:            intent,
		ConfidenceScore:        Confidence(icp.Score, intent),
	}
	if err := p.store.CreateCompany(ctx, c); err != nil {
		return nil, eris.Wrap(err, "pipeline: create company")
	}

	log = log.With(zap.Int64("company_id", c.ID))
	log.Info("pipeline: company created",
		zap.Int("icp_score", c.ICPScore),
		zap.String("icp_tier", string(c.ICPTier)),
		zap.String("stage", string(c.BuyingStage)),
		zap.Int("intent", c.IntentScore),
		zap.Bool("icp_fallback", icp.Fallback),
	)

	if len(ev.VisitedPages) > 0 {
		if err := p.store.AddPages(ctx, c.ID, ev.VisitedPages); err != nil {
			return nil, eris.Wrap(err, "pipeline: save pages")
		}
	}

	contacts, err := p.processContacts(ctx, log, c, ev, profile)
	if err != nil {
		return nil, err
	}
	return &ProcessResult{Company: c, Created: true, Contacts: contacts}, nil
}

func (p *Pipeline) updateCompany(ctx context.Context, log *zap.Logger, c *model.Company, ev model.Event) (*ProcessResult, error) {
	log = log.With(zap.Int64("company_id", c.ID))

	if len(ev.VisitedPages) > 0 {
		if err := p.store.AddPages(ctx, c.ID, ev.VisitedPages); err != nil {
			return nil, eris.Wrap(err, "pipeline: save pages")
		}
	}

	all, err := p.store.ListPages(ctx, c.ID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load pages")
	}
	paths := model.Paths(all)
	stage := p.oracle.InferBuyingStage(ctx, paths)

	update := model.BehaviorUpdate{
		BuyingStage:            stage.Stage,
		BuyingStageExplanation: stage.Explanation,
		IntentScore:            IntentScore(paths),
	}
	if err := p.store.UpdateCompanyBehavior(ctx, c.ID, update); err != nil {
		return nil, eris.Wrap(err, "pipeline: update company")
	}
	c.BuyingStage = update.BuyingStage
	c.BuyingStageExplanation = update.BuyingStageExplanation
	c.IntentScore = update.IntentScore

	log.Info("pipeline: company updated",
		zap.Int("pages", len(all)),
		zap.String("stage", string(c.BuyingStage)),
		zap.Int("intent", c.IntentScore),
	)

	res := &ProcessResult{Company: c}
	if len(ev.Contacts()) == 0 {
		return res, nil
	}

	profile, err := p.store.ActiveProfile(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load active profile")
	}
	if profile == nil {
		log.Warn("pipeline: no active profile, skipping contacts", zap.Int("contacts", len(ev.Contacts())))
		return res, nil
	}

	res.Contacts, err = p.processContacts(ctx, log, c, ev, profile)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// processContacts classifies and saves the event's known contacts. Persona is
// inferred from this event's pages since those are what the contact browsed.
func (p *Pipeline) processContacts(ctx context.Context, log *zap.Logger, c *model.Company, ev model.Event, profile *model.TargetProfile) ([]model.Contact, error) {
	raw := ev.Contacts()
	if len(raw) == 0 {
		return nil, nil
	}
	paths := model.VisitPaths(ev.VisitedPages)

	var out []model.Contact
	for _, rc := range raw {
		if rc.Name == "" && rc.Email == "" && rc.Title == "" {
			continue
		}

		persona := p.oracle.InferPersona(ctx, paths)
		ct := &model.Contact{
			CompanyID:         c.ID,
			Name:              rc.Name,
			Title:             rc.Title,
			Email:             rc.Email,
			Persona:           string(persona.Persona),
			PersonaConfidence: persona.Confidence,
			PersonaReasoning:  persona.Reasoning,
			IsPersonaMatch:    PersonaMatch(persona.Persona, rc.Title, profile.TargetJobTitles),
			Provenance:        model.ProvenanceOriginal,
		}
		if err := p.store.CreateContact(ctx, ct); err != nil {
			return nil, eris.Wrapf(err, "pipeline: save contact %q", rc.Name)
		}

		log.Info("pipeline: contact saved",
			zap.String("contact", ct.Name),
			zap.String("persona", ct.Persona),
			zap.Bool("persona_match", ct.IsPersonaMatch),
		)

		p.draftOutreach(ctx, log, ct, oracle.OutreachRequest{
			Audience:     oracle.AudienceVisitor,
			CompanyName:  c.Name,
			ContactName:  ct.Name,
			ContactTitle: ct.Title,
			Persona:      ct.Persona,
			Stage:        c.BuyingStage,
			Pages:        paths,
		})
		out = append(out, *ct)
	}
	return out, nil
}

// draftOutreach generates and stores an outreach draft. Failures are logged
// and never propagate.
func (p *Pipeline) draftOutreach(ctx context.Context, log *zap.Logger, ct *model.Contact, req oracle.OutreachRequest) {
	if !p.generateEmails {
		return
	}
	draft := p.oracle.GenerateOutreachCopy(ctx, req)
	if draft.Subject == "" && draft.Body == "" {
		return
	}
	email := &model.GeneratedEmail{
		ContactID: ct.ID,
		Subject:   draft.Subject,
		Body:      draft.Body,
	}
	if err := p.store.CreateEmail(ctx, email); err != nil {
		log.Warn("pipeline: could not save outreach draft", zap.String("contact", ct.Name), zap.Error(err))
	}
}
