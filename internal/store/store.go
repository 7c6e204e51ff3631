// Package store persists companies, their page visits, contacts, outreach
// drafts and target profiles.
package store

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscout/internal/model"
)

// ErrDuplicateDomain is returned by CreateCompany when another writer created
// the same domain first.
var ErrDuplicateDomain = eris.New("store: company domain already exists")

// Store defines the persistence interface for the enrichment pipeline.
type Store interface {
	// Companies
	CreateCompany(ctx context.Context, c *model.Company) error
	GetCompany(ctx context.Context, id int64) (*model.Company, error)
	GetCompanyByDomain(ctx context.Context, domain string) (*model.Company, error)
	UpdateCompanyBehavior(ctx context.Context, id int64, u model.BehaviorUpdate) error
	ListCompanies(ctx context.Context, filter model.CompanyFilter) ([]model.CompanySummary, error)

	// Visited pages, oldest first.
	AddPages(ctx context.Context, companyID int64, pages []model.PageVisit) error
	ListPages(ctx context.Context, companyID int64) ([]model.VisitedPage, error)

	// Contacts
	CreateContact(ctx context.Context, c *model.Contact) error
	ListContacts(ctx context.Context, companyID int64) ([]model.Contact, error)

	// Outreach drafts
	CreateEmail(ctx context.Context, e *model.GeneratedEmail) error
	ListEmails(ctx context.Context, companyID int64) ([]model.GeneratedEmail, error)

	// Target profiles
	SaveProfile(ctx context.Context, p *model.TargetProfile) error
	ActiveProfile(ctx context.Context) (*model.TargetProfile, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// companyFilterClause renders the WHERE clause and args for filter. ph
// returns the placeholder for the n-th argument (1-based).
func companyFilterClause(filter model.CompanyFilter, ph func(n int) string) (string, []any) {
	var clauses []string
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return ph(len(args))
	}

	if filter.Tier != "" {
		clauses = append(clauses, "c.icp_tier = "+next(string(filter.Tier)))
	}
	if filter.Stage != "" {
		clauses = append(clauses, "c.buying_stage = "+next(string(filter.Stage)))
	}
	if filter.PersonaMatch != nil {
		clauses = append(clauses, "c.id IN (SELECT company_id FROM contacts WHERE is_persona_match = "+next(*filter.PersonaMatch)+")")
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}
	limit := ""
	if filter.Limit > 0 {
		limit = " LIMIT " + next(filter.Limit)
	}
	return where + " ORDER BY c.created_at DESC, c.id DESC" + limit, args
}

const companyColumns = `c.id, c.event_id, c.company_name, c.company_domain, c.company_size, c.industry, c.region,
	c.icp_score, c.icp_tier, c.icp_explanation, c.buying_stage, c.buying_stage_explanation,
	c.intent_score, c.confidence_score, c.needs_linkedin_search, c.created_at, c.updated_at`

const contactStatsColumns = `(SELECT COUNT(*) FROM contacts ct WHERE ct.company_id = c.id),
	(SELECT COUNT(*) FROM contacts ct WHERE ct.company_id = c.id AND ct.is_persona_match),
	(SELECT COUNT(*) FROM contacts ct WHERE ct.company_id = c.id AND ct.contact_type = 'enriched')`

const contactColumns = `id, company_id, contact_name, contact_title, contact_email, profile_url, persona,
	persona_confidence, persona_reasoning, is_persona_match, persona_fit_score, verified_role,
	verified_company, contact_type, created_at`

type scannable interface {
	Scan(dest ...any) error
}

func scanCompany(row scannable, extra ...any) (*model.Company, error) {
	var c model.Company
	dest := []any{
		&c.ID, &c.EventID, &c.Name, &c.Domain, &c.Size, &c.Industry, &c.Region,
		&c.ICPScore, &c.ICPTier, &c.ICPExplanation, &c.BuyingStage, &c.BuyingStageExplanation,
		&c.IntentScore, &c.ConfidenceScore, &c.NeedsDirectorySearch, &c.CreatedAt, &c.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &c, nil
}

// fitScore adapts the nullable persona_fit_score column for Scan.
type fitScore struct {
	dst **float64
}

func (f fitScore) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*f.dst = nil
	case float64:
		*f.dst = &v
	case int64:
		fv := float64(v)
		*f.dst = &fv
	default:
		return eris.Errorf("store: unexpected persona_fit_score type %T", src)
	}
	return nil
}

func scanContact(row scannable) (*model.Contact, error) {
	var c model.Contact
	err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Title, &c.Email, &c.ProfileURL, &c.Persona,
		&c.PersonaConfidence, &c.PersonaReasoning, &c.IsPersonaMatch, fitScore{&c.PersonaFitScore}, &c.VerifiedRole,
		&c.VerifiedCompany, &c.Provenance, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// profileLists holds the JSON-encoded list columns of a target profile.
type profileLists struct {
	Industries, Regions, Titles, TechStack, PainPoints []byte
}

func encodeProfileLists(p *model.TargetProfile) (profileLists, error) {
	var out profileLists
	var err error
	for _, f := range []struct {
		dst *[]byte
		src []string
	}{
		{&out.Industries, p.Industries},
		{&out.Regions, p.Regions},
		{&out.Titles, p.TargetJobTitles},
		{&out.TechStack, p.TechStack},
		{&out.PainPoints, p.PainPoints},
	} {
		src := f.src
		if src == nil {
			src = []string{}
		}
		if *f.dst, err = json.Marshal(src); err != nil {
			return out, eris.Wrap(err, "store: marshal profile list")
		}
	}
	return out, nil
}

func decodeProfileLists(p *model.TargetProfile, l profileLists) error {
	for _, f := range []struct {
		src []byte
		dst *[]string
	}{
		{l.Industries, &p.Industries},
		{l.Regions, &p.Regions},
		{l.Titles, &p.TargetJobTitles},
		{l.TechStack, &p.TechStack},
		{l.PainPoints, &p.PainPoints},
	} {
		if len(f.src) == 0 {
			continue
		}
		if err := json.Unmarshal(f.src, f.dst); err != nil {
			return eris.Wrap(err, "store: unmarshal profile list")
		}
	}
	return nil
}
