// Package pipeline reconciles inbound company events into durable records and,
// on demand, enriches a company with decision-makers found in the directory.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscout/internal/config"
	"github.com/sells-group/leadscout/internal/lock"
	"github.com/sells-group/leadscout/internal/model"
	"github.com/sells-group/leadscout/internal/oracle"
	"github.com/sells-group/leadscout/internal/scorer"
	"github.com/sells-group/leadscout/internal/store"
)

// defaultMaxResults caps directory candidates when config leaves it unset.
const defaultMaxResults = 15

// ErrSearcherUnavailable means enrichment was requested but no directory
// session is attached.
var ErrSearcherUnavailable = eris.New("pipeline: directory session unavailable")

// Searcher discovers ranked decision-makers at a company.
type Searcher interface {
	SearchEmployees(ctx context.Context, company string, titles []string, maxResults int, verify bool) ([]scorer.Scored, error)
}

// Pipeline orchestrates event processing and directory enrichment.
type Pipeline struct {
	store          store.Store
	oracle         oracle.Oracle
	searcher       Searcher
	locker         lock.Locker
	domains        domainLocks
	generateEmails bool
	maxResults     int
	verify         bool
}

// New creates a Pipeline. searcher may be nil when only event processing is
// needed; locker defaults to an in-process lock.
func New(cfg *config.Config, st store.Store, o oracle.Oracle, searcher Searcher, locker lock.Locker) *Pipeline {
	if locker == nil {
		locker = lock.NewLocal()
	}
	maxResults := cfg.Directory.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return &Pipeline{
		store:          st,
		oracle:         o,
		searcher:       searcher,
		locker:         locker,
		generateEmails: cfg.Pipeline.GenerateEmails,
		maxResults:     maxResults,
		verify:         cfg.Directory.VerifyRoles,
	}
}

// ProcessResult reports what ProcessEvent did with one event.
type ProcessResult struct {
	Company  *model.Company  `json:"company"`
	Created  bool            `json:"created"`
	Contacts []model.Contact `json:"contacts"`
}

// activeProfile returns the active target profile or ErrConfigurationMissing.
func (p *Pipeline) activeProfile(ctx context.Context) (*model.TargetProfile, error) {
	profile, err := p.store.ActiveProfile(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load active profile")
	}
	if profile == nil {
		return nil, eris.Wrap(model.ErrConfigurationMissing, "pipeline: load active profile")
	}
	return profile, nil
}
