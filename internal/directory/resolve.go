package directory

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// CompanySearchURL builds the company search URL for name.
func CompanySearchURL(baseURL, name string) string {
	return strings.TrimSuffix(baseURL, "/") + "/search/results/companies/?keywords=" + escapeComponent(name)
}

// Resolve returns the directory identifier for a company name, or "" when it
// cannot be found. The mapping table is consulted first; a miss runs a live
// company search and registers any discovered identifier.
func (s *Session) Resolve(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return "", err
	}
	return s.resolve(ctx, name)
}

func (s *Session) resolve(ctx context.Context, name string) (string, error) {
	if id, ok := s.mapping.Lookup(name); ok {
		zap.L().Debug("directory: company id from mapping", zap.String("company", name), zap.String("id", id))
		return id, nil
	}

	s.setState(StateSearchingCompany)
	if err := s.visit(ctx, CompanySearchURL(s.opts.BaseURL, name), s.opts.Timing.Settle); err != nil {
		return "", eris.Wrapf(err, "directory: company search %s", name)
	}
	html, err := s.page.HTML(ctx)
	if err != nil {
		return "", eris.Wrapf(err, "directory: company search %s", name)
	}
	id, err := ParseCompanyID(html, name)
	if err != nil {
		return "", err
	}
	if id == "" {
		zap.L().Info("directory: company id not found", zap.String("company", name))
		return "", nil
	}

	s.mapping.Add(name, id)
	zap.L().Info("directory: discovered company id", zap.String("company", name), zap.String("id", id))
	return id, nil
}
