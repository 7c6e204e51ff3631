package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscout/internal/config"
	"github.com/sells-group/leadscout/internal/model"
	"github.com/sells-group/leadscout/internal/oracle"
	"github.com/sells-group/leadscout/internal/scorer"
	"github.com/sells-group/leadscout/internal/store"
)

// --- Oracle Mock ---

type mockOracle struct {
	mock.Mock
}

func (m *mockOracle) ScoreICPFit(ctx context.Context, company model.EventCompany, profile model.TargetProfile) oracle.ICPResult {
	return m.Called(ctx, company, profile).Get(0).(oracle.ICPResult)
}

func (m *mockOracle) InferPersona(ctx context.Context, pages []string) oracle.PersonaResult {
	return m.Called(ctx, pages).Get(0).(oracle.PersonaResult)
}

func (m *mockOracle) InferBuyingStage(ctx context.Context, pages []string) oracle.StageResult {
	return m.Called(ctx, pages).Get(0).(oracle.StageResult)
}

func (m *mockOracle) ScorePersonaFit(ctx context.Context, title string, targets []string) oracle.FitResult {
	return m.Called(ctx, title, targets).Get(0).(oracle.FitResult)
}

func (m *mockOracle) GenerateOutreachCopy(ctx context.Context, req oracle.OutreachRequest) oracle.Outreach {
	return m.Called(ctx, req).Get(0).(oracle.Outreach)
}

// --- Searcher Mock ---

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) SearchEmployees(ctx context.Context, company string, titles []string, maxResults int, verify bool) ([]scorer.Scored, error) {
	args := m.Called(ctx, company, titles, maxResults, verify)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]scorer.Scored), args.Error(1)
}

// --- Helpers ---

var testTargets = []string{"CTO", "VP of Engineering"}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Pipeline.GenerateEmails = true
	cfg.Directory.MaxResults = 15
	cfg.Directory.VerifyRoles = true
	return cfg
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func saveTestProfile(t *testing.T, st store.Store) *model.TargetProfile {
	t.Helper()
	p := &model.TargetProfile{
		Name:            "Mid-market SaaS",
		Industries:      []string{"Software"},
		CompanySizeMin:  50,
		CompanySizeMax:  1000,
		TargetJobTitles: testTargets,
	}
	require.NoError(t, st.SaveProfile(context.Background(), p))
	return p
}

func at(minute int) time.Time {
	return time.Date(2026, 3, 2, 10, minute, 0, 0, time.UTC)
}

func visits(paths ...string) []model.PageVisit {
	out := make([]model.PageVisit, len(paths))
	for i, p := range paths {
		out[i] = model.PageVisit{Path: p, Timestamp: at(i)}
	}
	return out
}
