package directory

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscout/internal/scorer"
)

// maxQueryTitles caps how many target titles go into the people query.
const maxQueryTitles = 3

// PeopleSearchURL builds the people search URL. With a company identifier
// the search is filtered structurally by current employer; without one it
// falls back to a free-text "titles at company" query.
func PeopleSearchURL(baseURL, companyID, company string, titles []string) string {
	if len(titles) > maxQueryTitles {
		titles = titles[:maxQueryTitles]
	}
	query := strings.Join(titles, " OR ")
	base := strings.TrimSuffix(baseURL, "/") + "/search/results/people/?"

	if companyID != "" {
		return base + "currentCompany=%5B%22" + companyID + "%22%5D" +
			"&keywords=" + escapeComponent(query) +
			"&facetCurrentCompany=" + companyID +
			"&origin=FACETED_SEARCH"
	}
	return base + "keywords=" + escapeComponent(strings.TrimSpace(query+" at "+company))
}

func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// SearchEmployees finds people at company whose titles match the targets,
// optionally verifies each one's current employer, and returns them ranked
// by persona fit. Directory failures degrade to an empty result; only a
// closed session or a done ctx is returned as an error.
func (s *Session) SearchEmployees(ctx context.Context, company string, titles []string, maxResults int, verify bool) ([]scorer.Scored, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	defer s.setState(StateIdle)

	log := zap.L().With(zap.String("company", company))

	id, err := s.resolve(ctx, company)
	if err != nil {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "directory: search employees")
		}
		log.Warn("directory: company id lookup failed, using keyword search", zap.Error(err))
	}

	s.setState(StateSearchingEmployees)
	searchURL := PeopleSearchURL(s.opts.BaseURL, id, company, titles)
	log.Info("directory: searching employees",
		zap.String("company_id", id),
		zap.Bool("structured_filter", id != ""),
		zap.String("url", searchURL),
	)
	if err := s.visit(ctx, searchURL, s.opts.Timing.Settle); err != nil {
		return s.degrade(ctx, log, "people search", err)
	}
	if _, err := s.ensureAuthenticated(ctx); err != nil {
		return s.degrade(ctx, log, "login check", err)
	}
	if err := s.sleep(ctx, s.opts.Timing.ResultsSettle); err != nil {
		return s.degrade(ctx, log, "results settle", err)
	}

	candidates, err := s.extractCandidates(ctx)
	if err != nil {
		return s.degrade(ctx, log, "extract candidates", err)
	}
	if id == "" {
		candidates = filterConfirmedEmployer(candidates, company)
	}
	if maxResults > 0 && len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}

	if verify {
		s.setState(StateVerifyingCandidate)
		verified := make([]scorer.Candidate, 0, len(candidates))
		for _, c := range candidates {
			v := s.verifyCandidate(ctx, c, company)
			if ctx.Err() != nil {
				return nil, eris.Wrap(ctx.Err(), "directory: verify candidates")
			}
			if !v.Verified {
				log.Info("directory: skipping unverified candidate", zap.String("name", c.Name), zap.String("reason", v.Reason))
				continue
			}
			c.VerifiedRole, c.VerifiedCompany = v.Role, v.Employer
			verified = append(verified, c)
		}
		candidates = verified
	}

	ranked := s.ranker.Rank(ctx, candidates, titles)
	log.Info("directory: search complete", zap.Int("candidates", len(candidates)), zap.Int("ranked", len(ranked)))
	return ranked, nil
}

func (s *Session) degrade(ctx context.Context, log *zap.Logger, step string, err error) ([]scorer.Scored, error) {
	if ctx.Err() != nil {
		return nil, eris.Wrapf(ctx.Err(), "directory: %s", step)
	}
	log.Warn("directory: search degraded to empty result", zap.String("step", step), zap.Error(err))
	return nil, nil
}

// ExtractCandidates parses the current results page. A page no known layout
// matches, or one that yields no candidates, is saved as a screenshot for
// inspection and produces an empty result.
func (s *Session) ExtractCandidates(ctx context.Context) ([]scorer.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.extractCandidates(ctx)
}

func (s *Session) extractCandidates(ctx context.Context) ([]scorer.Candidate, error) {
	s.setState(StateExtractingResults)
	html, err := s.page.HTML(ctx)
	if err != nil {
		return nil, err
	}

	ext, err := ParseCandidates(html, s.opts.BaseURL)
	switch {
	case eris.Is(err, ErrLayoutMismatch):
		s.captureDiagnostics(ctx, "linkedin-debug", "no result container matched")
		return nil, nil
	case err != nil:
		return nil, err
	case len(ext.Candidates) == 0:
		s.captureDiagnostics(ctx, "linkedin-no-results", "no candidates extracted")
		return nil, nil
	}

	zap.L().Info("directory: extracted candidates",
		zap.String("container", ext.Container),
		zap.Int("candidates", len(ext.Candidates)),
		zap.Int("skipped", ext.Skipped),
	)
	return ext.Candidates, nil
}

// captureDiagnostics screenshots the page and holds the session open so the
// operator can look at it.
func (s *Session) captureDiagnostics(ctx context.Context, prefix, reason string) {
	log := zap.L().With(zap.String("reason", reason))

	buf, err := s.page.Screenshot(ctx)
	if err != nil {
		log.Warn("directory: screenshot failed", zap.Error(err))
	} else {
		path := filepath.Join(s.opts.DiagnosticsDir, fmt.Sprintf("%s-%d.png", prefix, s.now().UnixMilli()))
		if err := writeDiagnostic(path, buf); err != nil {
			log.Warn("directory: save screenshot failed", zap.Error(err))
		} else {
			log.Warn("directory: saved screenshot", zap.String("path", path))
		}
	}

	if hold := s.opts.Timing.InspectHold; hold > 0 {
		log.Info("directory: holding browser open for inspection", zap.Duration("hold", hold))
		s.sleep(ctx, hold) //nolint:errcheck
	}
}

func writeDiagnostic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrap(err, "directory: create diagnostics dir")
		}
	}
	return eris.Wrap(os.WriteFile(path, data, 0o644), "directory: write screenshot")
}

// filterConfirmedEmployer keeps candidates whose scraped text names company
// as their employer. Used only when no structured company filter applied.
func filterConfirmedEmployer(candidates []scorer.Candidate, company string) []scorer.Candidate {
	out := candidates[:0:0]
	for _, c := range candidates {
		if confirmsEmployer(c, company) {
			out = append(out, c)
		}
	}
	return out
}

func confirmsEmployer(c scorer.Candidate, company string) bool {
	title, summary, co := fold(c.Title), fold(c.Summary), fold(company)
	if co == "" {
		return false
	}
	return strings.Contains(title, " at "+co) ||
		strings.Contains(title, " @ "+co) ||
		(strings.Contains(title, co) && strings.Contains(title, " at ")) ||
		(strings.Contains(summary, "current:") && strings.Contains(summary, co))
}
