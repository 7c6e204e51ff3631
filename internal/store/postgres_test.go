package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscout/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var companyColumnNames = []string{
	"id", "event_id", "company_name", "company_domain", "company_size", "industry", "region",
	"icp_score", "icp_tier", "icp_explanation", "buying_stage", "buying_stage_explanation",
	"intent_score", "confidence_score", "needs_linkedin_search", "created_at", "updated_at",
}

func companyRowValues(id int64, domain string, at time.Time) []any {
	return []any{
		id, "evt-1", "Acme", domain, "51-200", "SaaS", "US",
		85, model.TierB, "good fit", model.StageEvaluate, "pricing visits",
		2, 0.755, true, at, at,
	}
}

func TestPostgresStore_CreateCompany(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`INSERT INTO companies .* RETURNING id`).
		WithArgs("evt-1", "Acme", "acme.com", "", "", "", 85, "B", "fit", "Evaluate", "why", 2, 0.755, true, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	c := &model.Company{
		EventID: "evt-1", Name: "Acme", Domain: "acme.com",
		ICPScore: 85, ICPTier: model.TierB, ICPExplanation: "fit",
		BuyingStage: model.StageEvaluate, BuyingStageExplanation: "why",
		IntentScore: 2, ConfidenceScore: 0.755, NeedsDirectorySearch: true,
	}
	require.NoError(t, s.CreateCompany(context.Background(), c))
	assert.Equal(t, int64(7), c.ID)
	assert.False(t, c.CreatedAt.IsZero())
	assert.Equal(t, c.CreatedAt, c.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateCompany_Duplicate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`INSERT INTO companies`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

	err := s.CreateCompany(context.Background(), &model.Company{Name: "Acme", Domain: "acme.com"})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDuplicateDomain))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCompany(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`SELECT c\.id, .* FROM companies c WHERE c\.id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(companyColumnNames).AddRow(companyRowValues(7, "acme.com", at)...))

	c, err := s.GetCompany(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "acme.com", c.Domain)
	assert.Equal(t, model.TierB, c.ICPTier)
	assert.Equal(t, model.StageEvaluate, c.BuyingStage)
	assert.True(t, c.NeedsDirectorySearch)
	assert.Equal(t, at, c.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCompany_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM companies c WHERE c\.id = \$1`).
		WithArgs(int64(404)).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetCompany(context.Background(), 404)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCompanyByDomain_Missing(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM companies c WHERE c\.company_domain = \$1`).
		WithArgs("unknown.com").
		WillReturnError(pgx.ErrNoRows)

	c, err := s.GetCompanyByDomain(context.Background(), "unknown.com")
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateCompanyBehavior(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE companies SET buying_stage = \$1`).
		WithArgs("Purchase", "demo request", 3, pgxmock.AnyArg(), int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateCompanyBehavior(context.Background(), 7, model.BehaviorUpdate{
		BuyingStage: model.StagePurchase, BuyingStageExplanation: "demo request", IntentScore: 3,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateCompanyBehavior_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE companies`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateCompanyBehavior(context.Background(), 9, model.BehaviorUpdate{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCompanies_Filtered(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	at := time.Now().UTC()
	match := true

	cols := append(append([]string{}, companyColumnNames...), "total", "matched", "enriched")
	vals := append(companyRowValues(3, "acme.com", at), 4, 1, 2)

	mock.ExpectQuery(`FROM companies c WHERE c\.icp_tier = \$1 AND c\.id IN \(SELECT company_id FROM contacts WHERE is_persona_match = \$2\) ORDER BY c\.created_at DESC, c\.id DESC LIMIT \$3`).
		WithArgs("A", true, 10).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(vals...))
	mock.ExpectQuery(`FROM contacts WHERE company_id = \$1 AND contact_type = 'original'`).
		WithArgs(int64(3)).
		WillReturnError(pgx.ErrNoRows)

	out, err := s.ListCompanies(context.Background(), model.CompanyFilter{Tier: model.TierA, PersonaMatch: &match, Limit: 10})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, model.ContactStats{Total: 4, Matched: 1, Enriched: 2}, out[0].ContactStats)
	assert.Nil(t, out[0].PrimaryContact)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddPages(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	visited := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO visited_pages`).
		WithArgs(int64(5), "/pricing", visited).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO visited_pages`).
		WithArgs(int64(5), "/demo", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.AddPages(context.Background(), 5, []model.PageVisit{
		{Path: "/pricing", Timestamp: visited},
		{Path: "/demo"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddPages_RollsBackOnError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO visited_pages`).
		WillReturnError(eris.New("boom"))
	mock.ExpectRollback()

	err := s.AddPages(context.Background(), 5, []model.PageVisit{{Path: "/pricing"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert page")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListPages(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	mock.ExpectQuery(`FROM visited_pages WHERE company_id = \$1 ORDER BY visited_at ASC`).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "company_id", "page_path", "visited_at"}).
			AddRow(int64(1), int64(5), "/blog", t1).
			AddRow(int64(2), int64(5), "/pricing", t2))

	pages, err := s.ListPages(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"/blog", "/pricing"}, model.Paths(pages))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateContact(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	fit := 0.8

	mock.ExpectQuery(`INSERT INTO contacts .* RETURNING id`).
		WithArgs(int64(5), "Jane Doe", "VP Sales", "", "https://www.linkedin.com/in/jane", "Economic Buyer",
			0.9, "title", true, &fit, "VP Sales", "Acme", "enriched", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))

	c := &model.Contact{
		CompanyID: 5, Name: "Jane Doe", Title: "VP Sales", ProfileURL: "https://www.linkedin.com/in/jane",
		Persona: "Economic Buyer", PersonaConfidence: 0.9, PersonaReasoning: "title", IsPersonaMatch: true,
		PersonaFitScore: &fit, VerifiedRole: "VP Sales", VerifiedCompany: "Acme", Provenance: model.ProvenanceEnriched,
	}
	require.NoError(t, s.CreateContact(context.Background(), c))
	assert.Equal(t, int64(11), c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateEmail(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`INSERT INTO generated_emails`).
		WithArgs(int64(11), "Hi", "Body", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(2)))

	e := &model.GeneratedEmail{ContactID: 11, Subject: "Hi", Body: "Body"}
	require.NoError(t, s.CreateEmail(context.Background(), e))
	assert.Equal(t, int64(2), e.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListEmails(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	at := time.Now().UTC()

	mock.ExpectQuery(`FROM generated_emails e JOIN contacts c ON c\.id = e\.contact_id`).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "contact_id", "subject", "body", "created_at", "contact_name", "contact_title", "contact_type"}).
			AddRow(int64(2), int64(11), "Hi", "Body", at, "Jane Doe", "VP Sales", model.ProvenanceEnriched))

	emails, err := s.ListEmails(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "Jane Doe", emails[0].ContactName)
	assert.Equal(t, model.ProvenanceEnriched, emails[0].Provenance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveProfile(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE icp_config SET is_active = false`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`INSERT INTO icp_config`).
		WithArgs("Mid-market SaaS", []byte(`["SaaS"]`), 50, 500, []byte(`[]`), []byte(`["VP Sales","CTO"]`),
			[]byte(`[]`), []byte(`[]`), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectCommit()

	p := &model.TargetProfile{
		Name: "Mid-market SaaS", Industries: []string{"SaaS"},
		CompanySizeMin: 50, CompanySizeMax: 500, TargetJobTitles: []string{"VP Sales", "CTO"},
	}
	require.NoError(t, s.SaveProfile(context.Background(), p))
	assert.Equal(t, int64(3), p.ID)
	assert.True(t, p.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ActiveProfile(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	at := time.Now().UTC()

	mock.ExpectQuery(`FROM icp_config WHERE is_active`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "industries", "company_size_min", "company_size_max",
			"regions", "target_job_titles", "tech_stack", "pain_points", "is_active", "created_at"}).
			AddRow(int64(3), "Mid-market SaaS", []byte(`["SaaS"]`), 50, 500, []byte(`["US"]`),
				[]byte(`["CTO"]`), []byte(`[]`), []byte(`["churn"]`), true, at))

	p, err := s.ActiveProfile(context.Background())
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, []string{"SaaS"}, p.Industries)
	assert.Equal(t, []string{"CTO"}, p.TargetJobTitles)
	assert.Equal(t, []string{"churn"}, p.PainPoints)
	assert.Empty(t, p.TechStack)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ActiveProfile_None(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM icp_config WHERE is_active`).
		WillReturnError(pgx.ErrNoRows)

	p, err := s.ActiveProfile(context.Background())
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS companies`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgres_InvalidURL(t *testing.T) {
	_, err := NewPostgres(context.Background(), "postgres://%zz", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
