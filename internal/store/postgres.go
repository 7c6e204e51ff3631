package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscout/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 1
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			pgxCfg.MaxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			pgxCfg.MinConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id                       BIGSERIAL PRIMARY KEY,
	event_id                 TEXT NOT NULL DEFAULT '',
	company_name             TEXT NOT NULL,
	company_domain           TEXT NOT NULL UNIQUE,
	company_size             TEXT NOT NULL DEFAULT '',
	industry                 TEXT NOT NULL DEFAULT '',
	region                   TEXT NOT NULL DEFAULT '',
	icp_score                INTEGER NOT NULL DEFAULT 0,
	icp_tier                 TEXT NOT NULL DEFAULT '',
	icp_explanation          TEXT NOT NULL DEFAULT '',
	buying_stage             TEXT NOT NULL DEFAULT '',
	buying_stage_explanation TEXT NOT NULL DEFAULT '',
	intent_score             INTEGER NOT NULL DEFAULT 0,
	confidence_score         DOUBLE PRECISION NOT NULL DEFAULT 0,
	needs_linkedin_search    BOOLEAN NOT NULL DEFAULT false,
	created_at               TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at               TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS visited_pages (
	id         BIGSERIAL PRIMARY KEY,
	company_id BIGINT NOT NULL REFERENCES companies(id),
	page_path  TEXT NOT NULL,
	visited_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS contacts (
	id                 BIGSERIAL PRIMARY KEY,
	company_id         BIGINT NOT NULL REFERENCES companies(id),
	contact_name       TEXT NOT NULL DEFAULT '',
	contact_title      TEXT NOT NULL DEFAULT '',
	contact_email      TEXT NOT NULL DEFAULT '',
	profile_url        TEXT NOT NULL DEFAULT '',
	persona            TEXT NOT NULL DEFAULT '',
	persona_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	persona_reasoning  TEXT NOT NULL DEFAULT '',
	is_persona_match   BOOLEAN NOT NULL DEFAULT false,
	persona_fit_score  DOUBLE PRECISION,
	verified_role      TEXT NOT NULL DEFAULT '',
	verified_company   TEXT NOT NULL DEFAULT '',
	contact_type       TEXT NOT NULL DEFAULT 'original',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS generated_emails (
	id         BIGSERIAL PRIMARY KEY,
	contact_id BIGINT NOT NULL REFERENCES contacts(id),
	subject    TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS icp_config (
	id                BIGSERIAL PRIMARY KEY,
	name              TEXT NOT NULL,
	industries        JSONB NOT NULL DEFAULT '[]',
	company_size_min  INTEGER NOT NULL DEFAULT 0,
	company_size_max  INTEGER NOT NULL DEFAULT 0,
	regions           JSONB NOT NULL DEFAULT '[]',
	target_job_titles JSONB NOT NULL DEFAULT '[]',
	tech_stack        JSONB NOT NULL DEFAULT '[]',
	pain_points       JSONB NOT NULL DEFAULT '[]',
	is_active         BOOLEAN NOT NULL DEFAULT false,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_visited_pages_company ON visited_pages(company_id, visited_at);
CREATE INDEX IF NOT EXISTS idx_contacts_company ON contacts(company_id);
CREATE INDEX IF NOT EXISTS idx_generated_emails_contact ON generated_emails(contact_id);
CREATE INDEX IF NOT EXISTS idx_companies_tier ON companies(icp_tier);
CREATE INDEX IF NOT EXISTS idx_companies_stage ON companies(buying_stage);
CREATE UNIQUE INDEX IF NOT EXISTS idx_icp_config_one_active ON icp_config(is_active) WHERE is_active;
`

func pgPlaceholder(n int) string { return "$" + strconv.Itoa(n) }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateCompany(ctx context.Context, c *model.Company) error {
	now := time.Now().UTC()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO companies (event_id, company_name, company_domain, company_size, industry, region,
			icp_score, icp_tier, icp_explanation, buying_stage, buying_stage_explanation,
			intent_score, confidence_score, needs_linkedin_search, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
		RETURNING id`,
		c.EventID, c.Name, c.Domain, c.Size, c.Industry, c.Region,
		c.ICPScore, string(c.ICPTier), c.ICPExplanation, string(c.BuyingStage), c.BuyingStageExplanation,
		c.IntentScore, c.ConfidenceScore, c.NeedsDirectorySearch, now,
	).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return eris.Wrapf(ErrDuplicateDomain, "postgres: insert company %s", c.Domain)
		}
		return eris.Wrapf(err, "postgres: insert company %s", c.Domain)
	}
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

func (s *PostgresStore) GetCompany(ctx context.Context, id int64) (*model.Company, error) {
	c, err := scanCompany(s.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies c WHERE c.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(model.ErrNotFound, "postgres: company %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get company %d", id)
	}
	return c, nil
}

// GetCompanyByDomain returns nil, nil when no company has the domain.
func (s *PostgresStore) GetCompanyByDomain(ctx context.Context, domain string) (*model.Company, error) {
	c, err := scanCompany(s.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies c WHERE c.company_domain = $1`, domain))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get company by domain %s", domain)
	}
	return c, nil
}

func (s *PostgresStore) UpdateCompanyBehavior(ctx context.Context, id int64, u model.BehaviorUpdate) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE companies SET buying_stage = $1, buying_stage_explanation = $2, intent_score = $3, updated_at = $4 WHERE id = $5`,
		string(u.BuyingStage), u.BuyingStageExplanation, u.IntentScore, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update company %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(model.ErrNotFound, "company %d", id)
	}
	return nil
}

func (s *PostgresStore) ListCompanies(ctx context.Context, filter model.CompanyFilter) ([]model.CompanySummary, error) {
	tail, args := companyFilterClause(filter, pgPlaceholder)
	rows, err := s.pool.Query(ctx, `SELECT `+companyColumns+`, `+contactStatsColumns+` FROM companies c`+tail, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var out []model.CompanySummary
	for rows.Next() {
		var stats model.ContactStats
		c, err := scanCompany(rows, &stats.Total, &stats.Matched, &stats.Enriched)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		out = append(out, model.CompanySummary{Company: *c, ContactStats: stats})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}

	for i := range out {
		contact, err := scanContact(s.pool.QueryRow(ctx,
			`SELECT `+contactColumns+` FROM contacts WHERE company_id = $1 AND contact_type = 'original' ORDER BY id LIMIT 1`,
			out[i].ID))
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: primary contact %d", out[i].ID)
		}
		out[i].PrimaryContact = contact
	}
	return out, nil
}

func (s *PostgresStore) AddPages(ctx context.Context, companyID int64, pages []model.PageVisit) error {
	if len(pages) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin add pages")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	for _, p := range pages {
		at := p.Timestamp
		if at.IsZero() {
			at = now
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO visited_pages (company_id, page_path, visited_at) VALUES ($1, $2, $3)`,
			companyID, p.Path, at.UTC(),
		); err != nil {
			return eris.Wrapf(err, "postgres: insert page for company %d", companyID)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit add pages")
}

func (s *PostgresStore) ListPages(ctx context.Context, companyID int64) ([]model.VisitedPage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, company_id, page_path, visited_at FROM visited_pages WHERE company_id = $1 ORDER BY visited_at ASC, id ASC`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list pages %d", companyID)
	}
	defer rows.Close()

	var out []model.VisitedPage
	for rows.Next() {
		var p model.VisitedPage
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Path, &p.VisitedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan page")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list pages")
}

func (s *PostgresStore) CreateContact(ctx context.Context, c *model.Contact) error {
	now := time.Now().UTC()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO contacts (company_id, contact_name, contact_title, contact_email, profile_url, persona,
			persona_confidence, persona_reasoning, is_persona_match, persona_fit_score, verified_role,
			verified_company, contact_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`,
		c.CompanyID, c.Name, c.Title, c.Email, c.ProfileURL, c.Persona,
		c.PersonaConfidence, c.PersonaReasoning, c.IsPersonaMatch, c.PersonaFitScore, c.VerifiedRole,
		c.VerifiedCompany, string(c.Provenance), now,
	).Scan(&c.ID)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert contact for company %d", c.CompanyID)
	}
	c.CreatedAt = now
	return nil
}

func (s *PostgresStore) ListContacts(ctx context.Context, companyID int64) ([]model.Contact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE company_id = $1 ORDER BY created_at ASC, id ASC`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list contacts %d", companyID)
	}
	defer rows.Close()

	var out []model.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan contact")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list contacts")
}

func (s *PostgresStore) CreateEmail(ctx context.Context, e *model.GeneratedEmail) error {
	now := time.Now().UTC()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO generated_emails (contact_id, subject, body, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		e.ContactID, e.Subject, e.Body, now,
	).Scan(&e.ID)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert email for contact %d", e.ContactID)
	}
	e.CreatedAt = now
	return nil
}

func (s *PostgresStore) ListEmails(ctx context.Context, companyID int64) ([]model.GeneratedEmail, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT e.id, e.contact_id, e.subject, e.body, e.created_at, c.contact_name, c.contact_title, c.contact_type
		FROM generated_emails e JOIN contacts c ON c.id = e.contact_id
		WHERE c.company_id = $1 ORDER BY e.created_at DESC, e.id DESC`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list emails %d", companyID)
	}
	defer rows.Close()

	var out []model.GeneratedEmail
	for rows.Next() {
		var e model.GeneratedEmail
		if err := rows.Scan(&e.ID, &e.ContactID, &e.Subject, &e.Body, &e.CreatedAt, &e.ContactName, &e.Title, &e.Provenance); err != nil {
			return nil, eris.Wrap(err, "postgres: scan email")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list emails")
}

// SaveProfile inserts p as the only active profile.
func (s *PostgresStore) SaveProfile(ctx context.Context, p *model.TargetProfile) error {
	lists, err := encodeProfileLists(p)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin save profile")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `UPDATE icp_config SET is_active = false WHERE is_active`); err != nil {
		return eris.Wrap(err, "postgres: deactivate profiles")
	}

	now := time.Now().UTC()
	err = tx.QueryRow(ctx,
		`INSERT INTO icp_config (name, industries, company_size_min, company_size_max, regions,
			target_job_titles, tech_stack, pain_points, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true, $9)
		RETURNING id`,
		p.Name, lists.Industries, p.CompanySizeMin, p.CompanySizeMax, lists.Regions,
		lists.Titles, lists.TechStack, lists.PainPoints, now,
	).Scan(&p.ID)
	if err != nil {
		return eris.Wrap(err, "postgres: insert profile")
	}
	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit save profile")
	}
	p.Active, p.CreatedAt = true, now
	return nil
}

// ActiveProfile returns nil, nil when no profile is active.
func (s *PostgresStore) ActiveProfile(ctx context.Context) (*model.TargetProfile, error) {
	var p model.TargetProfile
	var lists profileLists
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, industries, company_size_min, company_size_max, regions, target_job_titles,
			tech_stack, pain_points, is_active, created_at
		FROM icp_config WHERE is_active ORDER BY id DESC LIMIT 1`,
	).Scan(&p.ID, &p.Name, &lists.Industries, &p.CompanySizeMin, &p.CompanySizeMax, &lists.Regions, &lists.Titles,
		&lists.TechStack, &lists.PainPoints, &p.Active, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: active profile")
	}
	if err := decodeProfileLists(&p, lists); err != nil {
		return nil, err
	}
	return &p, nil
}
