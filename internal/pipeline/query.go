package pipeline

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscout/internal/model"
)

// GetCompany returns the company with its contacts, pages and drafts.
func (p *Pipeline) GetCompany(ctx context.Context, id int64) (*model.CompanyDetail, error) {
	c, err := p.store.GetCompany(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: load company %d", id)
	}
	contacts, err := p.store.ListContacts(ctx, id)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load contacts")
	}
	pages, err := p.store.ListPages(ctx, id)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load pages")
	}
	emails, err := p.store.ListEmails(ctx, id)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load emails")
	}
	return &model.CompanyDetail{
		Company:      *c,
		Contacts:     nonNil(contacts),
		VisitedPages: nonNil(pages),
		Emails:       nonNil(emails),
	}, nil
}

// ListCompanies returns company summaries, newest first.
func (p *Pipeline) ListCompanies(ctx context.Context, filter model.CompanyFilter) ([]model.CompanySummary, error) {
	out, err := p.store.ListCompanies(ctx, filter)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list companies")
	}
	return nonNil(out), nil
}

// ListContacts returns a company's contacts. Unknown companies are ErrNotFound.
func (p *Pipeline) ListContacts(ctx context.Context, id int64) ([]model.Contact, error) {
	if _, err := p.store.GetCompany(ctx, id); err != nil {
		return nil, eris.Wrapf(err, "pipeline: load company %d", id)
	}
	out, err := p.store.ListContacts(ctx, id)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list contacts")
	}
	return nonNil(out), nil
}

// ListPages returns a company's visited pages, oldest first.
func (p *Pipeline) ListPages(ctx context.Context, id int64) ([]model.VisitedPage, error) {
	if _, err := p.store.GetCompany(ctx, id); err != nil {
		return nil, eris.Wrapf(err, "pipeline: load company %d", id)
	}
	out, err := p.store.ListPages(ctx, id)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list pages")
	}
	return nonNil(out), nil
}

// SaveProfile validates and stores profile as the only active profile.
func (p *Pipeline) SaveProfile(ctx context.Context, profile *model.TargetProfile) error {
	if err := profile.Validate(); err != nil {
		return eris.Wrap(err, "pipeline: validate profile")
	}
	if err := p.store.SaveProfile(ctx, profile); err != nil {
		return eris.Wrap(err, "pipeline: save profile")
	}
	return nil
}

// ActiveProfile returns the active profile or ErrConfigurationMissing.
func (p *Pipeline) ActiveProfile(ctx context.Context) (*model.TargetProfile, error) {
	return p.activeProfile(ctx)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
